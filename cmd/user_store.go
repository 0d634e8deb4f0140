package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/CameronXie/user-session-api/internal/app/migrate"
	"github.com/CameronXie/user-session-api/internal/authn"
	"github.com/CameronXie/user-session-api/internal/config"
	"github.com/CameronXie/user-session-api/internal/repository/memory"
	"github.com/CameronXie/user-session-api/internal/repository/postgres"
	"github.com/CameronXie/user-session-api/internal/repository/sqlstore"
)

// userStore is the configured user repository and the function releasing its connections.
type userStore struct {
	repository authn.UserRepository
	close      func()
}

// newUserStore opens the user repository selected by cfg.UserStore and applies schema
// migrations when enabled.
func newUserStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*userStore, error) {
	switch cfg.UserStore {
	case config.StorePostgres:
		return newPostgresStore(ctx, cfg, logger)
	case config.StoreSQLite, config.StoreMySQL:
		return newSQLStore(ctx, cfg, logger)
	case config.StoreMemory:
		logger.Warn("using in-memory user store", "users", len(cfg.MemoryUsers))
		return &userStore{
			repository: memory.NewUserRepository(cfg.MemoryUsers),
			close:      func() {},
		}, nil
	default:
		return nil, fmt.Errorf("unsupported user store %q", cfg.UserStore)
	}
}

// newPostgresStore creates a pool and verifies connectivity.
func newPostgresStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*userStore, error) {
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if cfg.MigrateOnStart {
		db := stdlib.OpenDBFromPool(pool)
		err := runMigrations(ctx, db, config.StorePostgres, logger)
		_ = db.Close()
		if err != nil {
			pool.Close()
			return nil, err
		}
	}

	return &userStore{
		repository: postgres.NewUserRepository(pool),
		close:      pool.Close,
	}, nil
}

// newSQLStore opens a database/sql connection for the sqlite3 or mysql driver.
func newSQLStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*userStore, error) {
	db, err := openSQLDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.UserStore, err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if cfg.MigrateOnStart {
		if err := runMigrations(ctx, db, cfg.UserStore, logger); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	return &userStore{
		repository: sqlstore.NewUserRepository(db),
		close:      func() { _ = db.Close() },
	}, nil
}

func openSQLDB(cfg *config.Config) (*sql.DB, error) {
	if cfg.UserStore == config.StoreMySQL {
		return sqlstore.OpenMySQL(cfg.SQLDSN)
	}
	return sql.Open(cfg.UserStore, cfg.SQLDSN)
}

func runMigrations(ctx context.Context, db *sql.DB, dialect string, logger *slog.Logger) error {
	runner, err := migrate.New(db, dialect, logger)
	if err != nil {
		return fmt.Errorf("create migration runner: %w", err)
	}

	v, err := runner.Ensure(ctx)
	if err != nil {
		return fmt.Errorf("migrate %s: %w", dialect, err)
	}

	logger.Info("schema migrated", "dialect", dialect, "version", v)
	return nil
}
