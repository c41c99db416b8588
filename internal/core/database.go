package core

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "modernc.org/sqlite"
)

// Database wraps sql.DB with additional functionality
type Database struct {
	*sql.DB
	logger       *Logger
	queryTimeout time.Duration
}

// NewDatabase creates a new database wrapper
func NewDatabase(db *sql.DB, logger *Logger) *Database {
	return &Database{
		DB:           db,
		logger:       logger,
		queryTimeout: 30 * time.Second,
	}
}

// OpenDatabase opens the SQLite database at cfg.Path and pings it, retrying with
// exponential backoff while the file is locked or unavailable.
func OpenDatabase(ctx context.Context, cfg DatabaseConfig, logger *Logger) (*Database, error) {
	dsn := fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_time_format=sqlite", cfg.Path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, NewDatabaseError("failed to open database", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(time.Hour)

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = 30 * time.Second

	attempt := 0
	ping := func() error {
		attempt++
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			logger.Warn("Database ping failed", "attempt", attempt, "error", err)
			return err
		}
		return nil
	}

	if err := backoff.Retry(ping, backoff.WithContext(policy, ctx)); err != nil {
		db.Close()
		return nil, NewDatabaseError("failed to ping database", err)
	}

	database := NewDatabase(db, logger)
	database.queryTimeout = cfg.QueryTimeout.Duration
	logger.Info("Opened database", "path", cfg.Path)
	return database, nil
}

// Transaction executes a function within a database transaction
func (db *Database) Transaction(ctx context.Context, fn func(*sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if err != nil {
			tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	err = fn(tx)
	return err
}

// WithTimeout derives a context bounded by the configured query timeout. The
// returned cancel must be deferred by the caller until any rows are fully read.
func (db *Database) WithTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, db.queryTimeout)
}

// ExecWithTimeout executes a command with a timeout
func (db *Database) ExecWithTimeout(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	queryCtx, cancel := db.WithTimeout(ctx)
	defer cancel()

	return db.ExecContext(queryCtx, query, args...)
}

// Close closes the database connection
func (db *Database) Close() error {
	db.logger.Info("Closing database connection")
	return db.DB.Close()
}

// LogStats logs database statistics
func (db *Database) LogStats() {
	stats := db.Stats()
	db.logger.Info("Database stats",
		"max_open_connections", stats.MaxOpenConnections,
		"open_connections", stats.OpenConnections,
		"in_use", stats.InUse,
		"idle", stats.Idle,
		"wait_count", stats.WaitCount,
		"wait_duration", stats.WaitDuration,
	)
}
