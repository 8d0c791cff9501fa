// Package executil runs the user's shell hooks: the audio command and the
// browser open command.
package executil

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

const maxStderrLen = 500

// cappedBuffer keeps the first max bytes written and discards the rest
// while still reporting full writes to the caller.
type cappedBuffer struct {
	b   strings.Builder
	max int
}

func (c *cappedBuffer) Write(p []byte) (int, error) {
	if room := c.max - c.b.Len(); room > 0 {
		c.b.Write(p[:min(room, len(p))])
	}
	return len(p), nil
}

// RunSh runs cmd through `sh -c`, discarding stdout. A failure carries the
// first 500 bytes of stderr and wraps the *exec.ExitError.
func RunSh(ctx context.Context, cmd string) error {
	stderr := &cappedBuffer{max: maxStderrLen}

	c := exec.CommandContext(ctx, "sh", "-c", cmd)
	c.Stdout = io.Discard
	c.Stderr = stderr

	err := c.Run()
	if err == nil {
		return nil
	}
	if msg := strings.TrimSpace(stderr.b.String()); msg != "" {
		return fmt.Errorf("%s: %w", msg, err)
	}
	return err
}

// Runner runs one rendered shell line.
type Runner interface {
	RunSh(ctx context.Context, cmd string) error
}

// ShellRunner is the Runner used outside tests.
type ShellRunner struct{}

var _ Runner = ShellRunner{}

func (ShellRunner) RunSh(ctx context.Context, cmd string) error {
	if err := RunSh(ctx, cmd); err != nil {
		return fmt.Errorf("run %q: %w", cmd, err)
	}
	return nil
}
