package stores

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/colonyops/beacon/internal/data/db"
	"github.com/samber/lo"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

func sqliteCode(err error) (int, bool) {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return 0, false
	}
	return se.Code(), true
}

// IsBusyError reports a SQLITE_BUSY or SQLITE_LOCKED failure.
func IsBusyError(err error) bool {
	code, ok := sqliteCode(err)
	return ok && (code == sqlite3.SQLITE_BUSY || code == sqlite3.SQLITE_LOCKED)
}

var corruptionMessages = []string{
	"database disk image is malformed",
	"file is not a database",
	"database corruption",
}

// IsCorruptionError reports whether err means the database file is unusable.
func IsCorruptionError(err error) bool {
	if code, ok := sqliteCode(err); ok {
		switch code {
		case sqlite3.SQLITE_CORRUPT, sqlite3.SQLITE_NOTADB, sqlite3.SQLITE_CANTOPEN:
			return true
		}
		return false
	}
	msg := err.Error()
	return lo.ContainsBy(corruptionMessages, func(m string) bool { return strings.Contains(msg, m) })
}

// IsNotFoundError returns true if the error is a "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// RecoverFromCorruption moves the database and its WAL/SHM files aside under
// a timestamped name so the next Open starts empty.
func RecoverFromCorruption(dataDir string) error {
	dbPath := filepath.Join(dataDir, db.FileName)
	backupPath := dbPath + ".corrupt." + time.Now().Format("20060102-150405")

	if err := os.Rename(dbPath, backupPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("move corrupt database: %w", err)
	}

	// Stale WAL/SHM files would be replayed into the fresh database.
	for _, suffix := range []string{"-wal", "-shm"} {
		side := dbPath + suffix
		if _, err := os.Stat(side); err != nil {
			continue
		}
		if err := os.Rename(side, backupPath+suffix); err != nil {
			if delErr := os.Remove(side); delErr != nil {
				return fmt.Errorf("failed to backup or remove %s file: %w", suffix, err)
			}
		}
	}

	return nil
}
