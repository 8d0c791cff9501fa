package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstallAndComponent(t *testing.T) {
	prev := log.Logger
	t.Cleanup(func() {
		log.Logger = prev
		zerolog.DefaultContextLogger = nil
	})

	var buf bytes.Buffer
	Install(zerolog.New(&buf))

	logger := Component("center")
	logger.Info().Ctx(WithTabID(context.Background(), "tab1")).Msg("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "center", entry["cmp"])
	assert.Equal(t, "tab1", entry["tab_id"])
	assert.Equal(t, "hello", entry["message"])
}
