package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migration is one versioned schema change, loaded from a
// NNNN_name.up.sql / NNNN_name.down.sql pair.
type Migration struct {
	Version int
	Name    string
	UpSQL   string
	DownSQL string
}

func loadMigrations() ([]Migration, error) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	byVersion := map[int]*Migration{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		version, name, up, err := parseFilename(entry.Name())
		if err != nil {
			return nil, fmt.Errorf("migration %q: %w", entry.Name(), err)
		}

		content, err := fs.ReadFile(migrationsFS, "migrations/"+entry.Name())
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", entry.Name(), err)
		}

		m, ok := byVersion[version]
		if !ok {
			m = &Migration{Version: version, Name: name}
			byVersion[version] = m
		}

		target := &m.DownSQL
		if up {
			target = &m.UpSQL
		}
		if *target != "" {
			return nil, fmt.Errorf("migration %04d defined twice", version)
		}
		*target = string(content)
	}

	out := make([]Migration, 0, len(byVersion))
	for _, m := range byVersion {
		if m.UpSQL == "" || m.DownSQL == "" {
			return nil, fmt.Errorf("migration %04d (%s) needs both up and down files", m.Version, m.Name)
		}
		out = append(out, *m)
	}

	slices.SortFunc(out, func(a, b Migration) int { return a.Version - b.Version })
	return out, nil
}

// parseFilename splits "0001_kv_store.up.sql" into (1, "kv_store", true).
func parseFilename(filename string) (int, string, bool, error) {
	var up bool
	switch {
	case strings.HasSuffix(filename, ".up.sql"):
		up = true
		filename = strings.TrimSuffix(filename, ".up.sql")
	case strings.HasSuffix(filename, ".down.sql"):
		filename = strings.TrimSuffix(filename, ".down.sql")
	default:
		return 0, "", false, fmt.Errorf("want .up.sql or .down.sql suffix")
	}

	versionStr, name, ok := strings.Cut(filename, "_")
	if !ok || name == "" {
		return 0, "", false, fmt.Errorf("want NNNN_name.{up,down}.sql")
	}

	version, err := strconv.Atoi(versionStr)
	if err != nil || version <= 0 {
		return 0, "", false, fmt.Errorf("invalid version %q", versionStr)
	}
	return version, name, up, nil
}

func migrateUp(ctx context.Context, conn *sql.DB) error {
	migrations, err := loadMigrations()
	if err != nil {
		return err
	}

	if _, err := conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			name       TEXT NOT NULL,
			applied_at INTEGER NOT NULL
		)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	applied, err := appliedVersions(ctx, conn)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}

		log.Info().Int("version", m.Version).Str("name", m.Name).Msg("applying migration")
		err := inTx(ctx, conn, m.UpSQL,
			"INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)",
			m.Version, m.Name, time.Now().UnixNano())
		if err != nil {
			return fmt.Errorf("migration %04d (%s): %w", m.Version, m.Name, err)
		}
	}
	return nil
}

// MigrateDown reverts the newest n applied migrations.
func MigrateDown(ctx context.Context, conn *sql.DB, n int) error {
	if n <= 0 {
		return fmt.Errorf("n must be positive, got %d", n)
	}

	migrations, err := loadMigrations()
	if err != nil {
		return err
	}
	applied, err := appliedVersions(ctx, conn)
	if err != nil {
		return err
	}

	var revert []Migration
	for _, m := range slices.Backward(migrations) {
		if applied[m.Version] {
			revert = append(revert, m)
		}
	}
	if n > len(revert) {
		return fmt.Errorf("requested %d down migrations but only %d are applied", n, len(revert))
	}

	for _, m := range revert[:n] {
		log.Info().Int("version", m.Version).Str("name", m.Name).Msg("reverting migration")
		if err := inTx(ctx, conn, m.DownSQL, "DELETE FROM schema_migrations WHERE version = ?", m.Version); err != nil {
			return fmt.Errorf("revert migration %04d (%s): %w", m.Version, m.Name, err)
		}
	}
	return nil
}

func appliedVersions(ctx context.Context, conn *sql.DB) (map[int]bool, error) {
	rows, err := conn.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("query applied versions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	applied := map[int]bool{}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

// inTx runs script and then the bookkeeping statement in one transaction.
func inTx(ctx context.Context, conn *sql.DB, script, bookkeeping string, args ...any) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, script); err != nil {
		return fmt.Errorf("execute script: %w", err)
	}
	if _, err := tx.ExecContext(ctx, bookkeeping, args...); err != nil {
		return fmt.Errorf("record migration: %w", err)
	}
	return tx.Commit()
}
