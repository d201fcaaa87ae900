package postgres

import (
	"context"
	"database/sql"

	"github.com/cartloom/checkout/internal/config"
	"github.com/cartloom/checkout/internal/logger"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// DB wraps sqlx.DB so repositories depend on our type rather than sqlx directly
type DB struct {
	*sqlx.DB
	logger *logger.Logger
}

// Querier interface defines all database operations used by repositories.
// Both *sqlx.DB and *sqlx.Tx implement these methods.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

// NewDB creates a new DB instance. Returns nil when postgres is disabled so
// callers can fall back to the in-memory repository.
func NewDB(config *config.Configuration, logger *logger.Logger) (*DB, error) {
	if !config.Postgres.Enabled {
		return nil, nil
	}

	db, err := sqlx.Connect("postgres", config.Postgres.GetDSN())
	if err != nil {
		return nil, err
	}

	return &DB{DB: db, logger: logger}, nil
}

// Close closes the database connection
func (db *DB) Close() {
	if err := db.DB.Close(); err != nil {
		db.logger.Errorw("error closing database", "error", err)
	}
}
