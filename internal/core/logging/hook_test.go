package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextHook_Run(t *testing.T) {
	tests := []struct {
		name      string
		ctx       context.Context
		wantKeys  []string
		wantEmpty []string
	}{
		{
			name:     "tab and user",
			ctx:      WithUserID(WithTabID(context.Background(), "tab1"), "7"),
			wantKeys: []string{"tab_id", "user_id"},
		},
		{
			name:      "tab only",
			ctx:       WithTabID(context.Background(), "tab1"),
			wantKeys:  []string{"tab_id"},
			wantEmpty: []string{"user_id"},
		},
		{
			name:      "background",
			ctx:       context.Background(),
			wantEmpty: []string{"tab_id", "user_id"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := zerolog.New(&buf).Hook(ContextHook{})
			logger.Info().Ctx(tt.ctx).Msg("test")

			var entry map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

			for _, k := range tt.wantKeys {
				assert.Contains(t, entry, k)
			}
			for _, k := range tt.wantEmpty {
				assert.NotContains(t, entry, k)
			}
		})
	}
}
