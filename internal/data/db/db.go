// Package db opens the local SQLite database shared by every beacon process
// on the machine and applies its migrations.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sethvargo/go-retry"
	_ "modernc.org/sqlite"
)

// FileName is the database file inside the data directory.
const FileName = "beacon.db"

// OpenOptions tunes the connection pool.
type OpenOptions struct {
	MaxOpenConns int
	MaxIdleConns int
	BusyTimeout  time.Duration
}

// DefaultOpenOptions returns the options used by the CLI.
func DefaultOpenOptions() OpenOptions {
	return OpenOptions{
		MaxOpenConns: 4,
		MaxIdleConns: 2,
		BusyTimeout:  5 * time.Second,
	}
}

// DB wraps the SQL connection pool and the hand-written queries.
type DB struct {
	conn    *sql.DB
	queries *Queries
}

// Open connects to dataDir/beacon.db, creating it when missing, and runs
// pending migrations.
func Open(dataDir string, opts OpenOptions) (*DB, error) {
	dbPath := filepath.Join(dataDir, FileName)

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)",
		dbPath, opts.BusyTimeout.Milliseconds())
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	conn.SetMaxOpenConns(opts.MaxOpenConns)
	conn.SetMaxIdleConns(opts.MaxIdleConns)
	conn.SetConnMaxLifetime(0)

	ctx := context.Background()
	if err := pingWithRetry(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := migrateUp(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	log.Debug().Str("path", dbPath).Msg("database ready")

	return &DB{conn: conn, queries: &Queries{db: conn}}, nil
}

// Close closes the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn exposes the raw pool.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Queries returns the query set bound to the pool.
func (db *DB) Queries() *Queries {
	return db.queries
}

// WithTx runs fn inside a transaction, rolling back when fn fails.
func (db *DB) WithTx(ctx context.Context, fn func(*Queries) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(&Queries{db: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func pingWithRetry(ctx context.Context, conn *sql.DB) error {
	b := retry.WithMaxRetries(4, retry.NewExponential(100*time.Millisecond))
	return retry.Do(ctx, b, func(ctx context.Context) error {
		if err := conn.PingContext(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}
