package db

import (
	"context"
	"database/sql"
	"fmt"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries holds every statement the stores use.
type Queries struct {
	db DBTX
}

// KVRow is a kv_store row. Times are unix nanoseconds.
type KVRow struct {
	Key       string
	Value     []byte
	ExpiresAt sql.NullInt64
	CreatedAt int64
	UpdatedAt int64
}

// KVSetParams are the inputs of KVSet and KVSetIfAbsent.
type KVSetParams struct {
	Key       string
	Value     []byte
	ExpiresAt sql.NullInt64
	Now       int64
}

func (q *Queries) KVGet(ctx context.Context, key string) (KVRow, error) {
	var r KVRow
	err := q.db.QueryRowContext(ctx,
		`SELECT key, value, expires_at, created_at, updated_at FROM kv_store WHERE key = ?`, key,
	).Scan(&r.Key, &r.Value, &r.ExpiresAt, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

func (q *Queries) KVSet(ctx context.Context, p KVSetParams) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO kv_store (key, value, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at`,
		p.Key, p.Value, p.ExpiresAt, p.Now, p.Now)
	return err
}

// KVSetIfAbsent inserts the row unless a live (unexpired) row exists. It
// reports whether the row was written.
func (q *Queries) KVSetIfAbsent(ctx context.Context, p KVSetParams) (bool, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO kv_store (key, value, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at
		WHERE kv_store.expires_at IS NOT NULL AND kv_store.expires_at <= ?`,
		p.Key, p.Value, p.ExpiresAt, p.Now, p.Now, p.Now)
	if err != nil {
		return false, err
	}
	return affected(res)
}

// KVUpdateIfValue refreshes expires_at when the live row holds value.
func (q *Queries) KVUpdateIfValue(ctx context.Context, p KVSetParams) (bool, error) {
	res, err := q.db.ExecContext(ctx, `
		UPDATE kv_store SET expires_at = ?, updated_at = ?
		WHERE key = ? AND value = ? AND (expires_at IS NULL OR expires_at > ?)`,
		p.ExpiresAt, p.Now, p.Key, p.Value, p.Now)
	if err != nil {
		return false, err
	}
	return affected(res)
}

// KVDeleteIfValue deletes key when it holds value.
func (q *Queries) KVDeleteIfValue(ctx context.Context, key string, value []byte) (bool, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM kv_store WHERE key = ? AND value = ?`, key, value)
	if err != nil {
		return false, err
	}
	return affected(res)
}

func (q *Queries) KVDelete(ctx context.Context, key string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM kv_store WHERE key = ?`, key)
	return err
}

func (q *Queries) KVListKeys(ctx context.Context, now int64) ([]string, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT key FROM kv_store WHERE expires_at IS NULL OR expires_at > ? ORDER BY key`, now)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (q *Queries) KVSweepExpired(ctx context.Context, now int64) error {
	_, err := q.db.ExecContext(ctx,
		`DELETE FROM kv_store WHERE expires_at IS NOT NULL AND expires_at <= ?`, now)
	return err
}

// NoticeRow is a notices row.
type NoticeRow struct {
	ID        int64
	Level     string
	Message   string
	CreatedAt int64
}

func (q *Queries) InsertNotice(ctx context.Context, level, message string, createdAt int64) (int64, error) {
	var id int64
	err := q.db.QueryRowContext(ctx,
		`INSERT INTO notices (level, message, created_at) VALUES (?, ?, ?) RETURNING id`,
		level, message, createdAt,
	).Scan(&id)
	return id, err
}

func (q *Queries) ListNotices(ctx context.Context, limit int) ([]NoticeRow, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, level, message, created_at FROM notices ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []NoticeRow
	for rows.Next() {
		var r NoticeRow
		if err := rows.Scan(&r.ID, &r.Level, &r.Message, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (q *Queries) DeleteAllNotices(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM notices`)
	return err
}

func (q *Queries) CountNotices(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notices`).Scan(&n)
	return n, err
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
