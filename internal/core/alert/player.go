package alert

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/colonyops/beacon/internal/core/config"
	"github.com/colonyops/beacon/internal/core/notification"
	"github.com/colonyops/beacon/pkg/executil"
	"github.com/colonyops/beacon/pkg/tmpl"
)

const bell = "\a"

// HeldFunc reports whether this client holds the audio lease.
type HeldFunc func(ctx context.Context) (bool, error)

// Player sounds the push alert. Only the lease holder plays, so several
// open clients do not chime together.
type Player struct {
	mu      sync.Mutex
	enabled bool
	command string
	runner  executil.Runner
	bell    io.Writer
	held    HeldFunc
}

// NewPlayer builds a player. With an empty command the terminal bell is
// written to bellOut.
func NewPlayer(cfg config.AudioConfig, runner executil.Runner, bellOut io.Writer, held HeldFunc) *Player {
	return &Player{
		enabled: cfg.Enabled,
		command: cfg.Command,
		runner:  runner,
		bell:    bellOut,
		held:    held,
	}
}

// Configure applies reloaded audio settings.
func (p *Player) Configure(cfg config.AudioConfig) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enabled = cfg.Enabled
	p.command = cfg.Command
}

// Play sounds the alert for n and reports whether anything was played.
func (p *Player) Play(ctx context.Context, n notification.Notification) (bool, error) {
	p.mu.Lock()
	enabled, command := p.enabled, p.command
	p.mu.Unlock()

	if !enabled {
		return false, nil
	}
	if p.held != nil {
		held, err := p.held(ctx)
		if err != nil {
			return false, fmt.Errorf("check audio lease: %w", err)
		}
		if !held {
			return false, nil
		}
	}

	if command == "" {
		if p.bell == nil {
			return false, nil
		}
		_, err := io.WriteString(p.bell, bell)
		return err == nil, err
	}

	cmd, err := tmpl.Render(command, config.AudioTemplateData{
		ID:      n.ID.String(),
		Level:   string(n.Level),
		Title:   n.Title(),
		Message: notification.StripMarkup(n.Message),
	})
	if err != nil {
		return false, fmt.Errorf("render audio command: %w", err)
	}
	if err := p.runner.RunSh(ctx, cmd); err != nil {
		return false, fmt.Errorf("play audio: %w", err)
	}
	return true, nil
}
