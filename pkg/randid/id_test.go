package randid

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Length(t *testing.T) {
	for _, n := range []int{-3, 0, 1, 8, 32} {
		want := max(n, 0)
		assert.Len(t, Generate(n), want, "n=%d", n)
	}
}

func TestGenerate_Alphabet(t *testing.T) {
	id := Generate(512)
	require.Len(t, id, 512)
	for _, r := range id {
		assert.True(t, strings.ContainsRune(alphabet, r), "unexpected rune %q", r)
	}
}

func TestGenerate_TabIDsDiffer(t *testing.T) {
	seen := map[string]struct{}{}
	for range 200 {
		seen[Generate(8)] = struct{}{}
	}
	assert.Len(t, seen, 200)
}
