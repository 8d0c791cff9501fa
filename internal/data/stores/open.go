package stores

import (
	"fmt"

	"github.com/colonyops/beacon/internal/data/db"
	"github.com/rs/zerolog/log"
)

// OpenDB opens the state database, moving a corrupt file aside and starting
// fresh once if needed. Everything stored there is reconstructible.
func OpenDB(dataDir string) (*db.DB, error) {
	database, err := db.Open(dataDir, db.DefaultOpenOptions())
	if err == nil {
		return database, nil
	}
	if !IsCorruptionError(err) {
		return nil, err
	}

	log.Warn().Err(err).Str("dir", dataDir).Msg("state database corrupt, recreating")
	if rerr := RecoverFromCorruption(dataDir); rerr != nil {
		return nil, fmt.Errorf("recover database: %w", rerr)
	}
	return db.Open(dataDir, db.DefaultOpenOptions())
}
