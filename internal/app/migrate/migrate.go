package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pressly/goose/v3"

	"github.com/CameronXie/user-session-api/internal/repository/migrations"
)

const migrationTimeout = time.Minute

// goose keeps its dialect and base FS in package state.
var gooseMu sync.Mutex

// Runner applies the embedded user schema migrations to a database.
type Runner struct {
	db      *sql.DB
	dialect string
	log     *slog.Logger
}

// New returns a migration runner backed by goose. dialect is one of postgres, sqlite3 or mysql
// and selects the embedded migration directory.
func New(db *sql.DB, dialect string, log *slog.Logger) (Runner, error) {
	if db == nil {
		return Runner{}, errors.New("nil database provided")
	}

	switch dialect {
	case "postgres", "sqlite3", "mysql":
	default:
		return Runner{}, fmt.Errorf("unsupported migration dialect %q", dialect)
	}

	if log == nil {
		log = slog.Default()
	}

	return Runner{db: db, dialect: dialect, log: log}, nil
}

// Ensure applies pending migrations and returns the resulting schema version.
func (r Runner) Ensure(ctx context.Context) (int64, error) {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations.FS)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect(r.dialect); err != nil {
		return 0, fmt.Errorf("configure goose: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, migrationTimeout)
	defer cancel()

	r.log.InfoContext(ctx, "applying migrations", "dialect", r.dialect)
	if err := goose.UpContext(runCtx, r.db, r.dialect); err != nil {
		return 0, fmt.Errorf("apply migrations: %w", err)
	}

	version, err := goose.GetDBVersionContext(runCtx, r.db)
	if err != nil {
		return 0, fmt.Errorf("read migration version: %w", err)
	}

	r.log.InfoContext(ctx, "migrations applied", "version", version)
	return version, nil
}
