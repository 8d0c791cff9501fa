package executil

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunSh_StderrCappedAtMaxLen(t *testing.T) {
	longStderr := strings.Repeat("A", maxStderrLen*2)
	cmd := fmt.Sprintf("printf '%%s' '%s' >&2; exit 1", longStderr)

	err := RunSh(context.Background(), cmd)
	require.Error(t, err)

	errMsg := err.Error()
	assert.LessOrEqual(t, len(errMsg), maxStderrLen+20)
	assert.Equal(t, strings.Repeat("A", maxStderrLen), errMsg[:maxStderrLen])
}

func TestRunSh_PreservesExitError(t *testing.T) {
	err := RunSh(context.Background(), "echo 'no player' >&2; exit 3")
	require.Error(t, err)

	var exitErr *exec.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 3, exitErr.ExitCode())
	assert.Contains(t, err.Error(), "no player")
}

func TestShellRunner(t *testing.T) {
	require.NoError(t, ShellRunner{}.RunSh(context.Background(), "true"))

	err := ShellRunner{}.RunSh(context.Background(), "false")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `run "false"`)
}

func TestRecordingRunner(t *testing.T) {
	r := &RecordingRunner{}

	require.NoError(t, r.RunSh(context.Background(), "xdg-open 'https://example.org'"))
	assert.Equal(t, []string{"xdg-open 'https://example.org'"}, r.Recorded())

	r.Err = errors.New("boom")
	assert.EqualError(t, r.RunSh(context.Background(), "paplay bell.oga"), "boom")

	r.Reset()
	assert.Empty(t, r.Recorded())
}

func TestCappedBuffer(t *testing.T) {
	c := &cappedBuffer{max: 4}
	n, err := c.Write([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, _ = c.Write([]byte("defg"))
	assert.Equal(t, 4, n)
	assert.Equal(t, "abcd", c.b.String())
}
