package alert

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/colonyops/beacon/internal/core/config"
	"github.com/colonyops/beacon/internal/core/notification"
	"github.com/colonyops/beacon/pkg/executil"
	"github.com/colonyops/beacon/pkg/tmpl"
)

var (
	ErrNoTarget = errors.New("notification has no target url")
	ErrNoOpener = errors.New("widget.open_command is not configured")
)

// Navigator opens a notification's target URL with widget.open_command.
type Navigator struct {
	mu      sync.Mutex
	command string
	runner  executil.Runner
}

func NewNavigator(command string, runner executil.Runner) *Navigator {
	return &Navigator{command: command, runner: runner}
}

func (n *Navigator) SetCommand(command string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.command = command
}

func (n *Navigator) Open(ctx context.Context, item notification.Notification) error {
	if item.TargetURL == "" {
		return ErrNoTarget
	}
	n.mu.Lock()
	command := n.command
	n.mu.Unlock()
	if command == "" {
		return ErrNoOpener
	}

	cmd, err := tmpl.Render(command, config.OpenTemplateData{
		URL:   item.TargetURL,
		ID:    item.ID.String(),
		Title: item.Title(),
	})
	if err != nil {
		return fmt.Errorf("render open command: %w", err)
	}
	if err := n.runner.RunSh(ctx, cmd); err != nil {
		return fmt.Errorf("open %s: %w", item.TargetURL, err)
	}
	return nil
}
