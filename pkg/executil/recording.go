package executil

import (
	"context"
	"sync"
)

// RecordingRunner captures command lines for tests. Err, when set, is
// returned from every call.
type RecordingRunner struct {
	mu       sync.Mutex
	Commands []string
	Err      error
}

var _ Runner = (*RecordingRunner)(nil)

// RunSh records cmd and returns the configured error.
func (r *RecordingRunner) RunSh(_ context.Context, cmd string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Commands = append(r.Commands, cmd)
	return r.Err
}

// Recorded returns a copy of the recorded commands.
func (r *RecordingRunner) Recorded() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.Commands...)
}

// Reset clears recorded commands.
func (r *RecordingRunner) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Commands = nil
}
