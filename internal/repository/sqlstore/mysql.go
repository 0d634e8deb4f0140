package sqlstore

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
)

// MySQLConfig parses dsn and forces the options the repository relies on: DATETIME columns
// are scanned into time.Time and interpreted as UTC.
func MySQLConfig(dsn string) (*mysql.Config, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse mysql dsn: %w", err)
	}

	cfg.ParseTime = true
	cfg.Loc = time.UTC

	return cfg, nil
}

// OpenMySQL opens a connection pool for dsn after normalising it with MySQLConfig.
// No connection is made until the pool is first used.
func OpenMySQL(dsn string) (*sql.DB, error) {
	cfg, err := MySQLConfig(dsn)
	if err != nil {
		return nil, err
	}

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("create mysql connector: %w", err)
	}

	return sql.OpenDB(connector), nil
}
