package commands

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/beacon/internal/center"
	"github.com/colonyops/beacon/internal/core/config"
	"github.com/colonyops/beacon/internal/core/eventbus"
	"github.com/colonyops/beacon/internal/core/logging"
	"github.com/colonyops/beacon/internal/core/notice"
	"github.com/colonyops/beacon/internal/transport/ws"
	"github.com/colonyops/beacon/internal/tui"
)

type TuiCmd struct {
	flags *Flags
	app   *App

	noLive bool
}

// NewTuiCmd creates a new tui command
func NewTuiCmd(flags *Flags, app *App) *TuiCmd {
	return &TuiCmd{flags: flags, app: app}
}

// Flags returns the TUI-specific flags for registration on the root command
func (cmd *TuiCmd) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:        "no-live",
			Usage:       "do not connect the live channel",
			Sources:     cli.EnvVars("BEACON_NO_LIVE"),
			Destination: &cmd.noLive,
		},
	}
}

// Register adds the tui command to the application
func (cmd *TuiCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:        "tui",
		Usage:       "Open the interactive notification center",
		UsageText:   "beacon tui [--no-live]",
		Description: "Opens the notification list, preferences and notice history. This is the default when no command is given.",
		Flags:       cmd.Flags(),
		Action:      cmd.run,
	})
	return app
}

// Run executes the TUI. Exported for use as default command.
func (cmd *TuiCmd) Run(ctx context.Context, c *cli.Command) error {
	return cmd.run(ctx, c)
}

func (cmd *TuiCmd) run(ctx context.Context, _ *cli.Command) error {
	ctx, cancel := context.WithCancel(cmd.app.Context(ctx))
	defer cancel()

	ctr, err := cmd.app.Center(ctx)
	if err != nil {
		return err
	}
	notices, err := cmd.app.Notices()
	if err != nil {
		return err
	}

	bus := cmd.app.Bus()
	eventbus.RegisterDebugLogger(bus, logging.Component("eventbus"))
	eventbus.NewNotificationRouter(bus, notices).Register()
	notices.Subscribe(func(n notice.Notice) {
		bus.PublishNoticePublished(eventbus.NoticePublishedPayload{Notice: n})
	})
	go bus.Start(ctx)

	go func() {
		if err := ctr.RunLease(ctx); err != nil && ctx.Err() == nil {
			log.Warn().Err(err).Msg("audio lease stopped")
		}
	}()

	if cmd.app.Config.Live.Enabled && !cmd.noLive {
		if err := cmd.startLive(ctx, ctr); err != nil {
			log.Warn().Err(err).Msg("live channel disabled")
		}
	}

	reloads, err := config.Watch(ctx, cmd.flags.ConfigPath, cmd.flags.DataDir)
	if err != nil {
		log.Warn().Err(err).Msg("config hot reload disabled")
	}

	m := tui.New(ctx, tui.Options{
		Center:  ctr,
		Bus:     bus,
		Reloads: reloads,
	})
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithReportFocus(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}

func (cmd *TuiCmd) startLive(ctx context.Context, ctr *center.Center) error {
	liveURL, err := cmd.app.Config.LiveURL()
	if err != nil {
		return err
	}
	client, err := cmd.app.API()
	if err != nil {
		return err
	}

	conn := ws.New(ws.Config{
		URL:          liveURL,
		Header:       client.HandshakeHeader(),
		ReconnectMin: cmd.app.Config.Live.ReconnectMin,
		ReconnectMax: cmd.app.Config.Live.ReconnectMax,
	})
	go func() {
		if err := ctr.RunLive(ctx, conn); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("live channel stopped")
		}
	}()
	return nil
}
