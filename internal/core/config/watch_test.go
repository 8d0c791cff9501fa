package config

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatch_ReloadsOnWrite(t *testing.T) {
	path := writeConfig(t, "widget:\n  rendered_pages: 2\n")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates, err := Watch(ctx, path, t.TempDir())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("widget:\n  rendered_pages: 5\n"), 0o644))

	select {
	case cfg := <-updates:
		assert.Equal(t, 5, cfg.Widget.RenderedPages)
	case <-time.After(3 * time.Second):
		t.Fatal("no reload")
	}
}

func TestWatch_SkipsInvalidEdits(t *testing.T) {
	path := writeConfig(t, "widget:\n  rendered_pages: 2\n")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates, err := Watch(ctx, path, t.TempDir())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("lease:\n  backend: etcd\n"), 0o644))

	select {
	case cfg := <-updates:
		t.Fatalf("unexpected reload: %+v", cfg)
	case <-time.After(500 * time.Millisecond):
	}

	cancel()
	require.Eventually(t, func() bool {
		_, ok := <-updates
		return !ok
	}, 2*time.Second, 10*time.Millisecond)
}
