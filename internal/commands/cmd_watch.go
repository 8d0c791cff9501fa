package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/beacon/internal/core/live"
	"github.com/colonyops/beacon/internal/transport/ws"
	"github.com/colonyops/beacon/pkg/iojson"
)

type WatchCmd struct {
	flags *Flags
	app   *App

	jsonOutput bool
}

// NewWatchCmd creates a new watch command
func NewWatchCmd(flags *Flags, app *App) *WatchCmd {
	return &WatchCmd{flags: flags, app: app}
}

// Register adds the watch command to the application
func (cmd *WatchCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "watch",
		Usage:     "Stream live messages",
		UsageText: "beacon watch [--json]",
		Description: `Connects the live channel and prints every badge update, reload signal,
push notification and object acknowledgement until interrupted.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output as JSON lines",
				Destination: &cmd.jsonOutput,
			},
		},
		Action: cmd.run,
	})
	return app
}

// liveEvent is the JSON output format for beacon watch --json.
type liveEvent struct {
	Kind    live.Kind    `json:"kind"`
	Message live.Message `json:"message"`
}

func (cmd *WatchCmd) run(ctx context.Context, c *cli.Command) error {
	client, err := cmd.app.API()
	if err != nil {
		return err
	}
	liveURL, err := cmd.app.Config.LiveURL()
	if err != nil {
		return err
	}
	ctx = cmd.app.Context(ctx)

	conn := ws.New(ws.Config{
		URL:          liveURL,
		Header:       client.HandshakeHeader(),
		ReconnectMin: cmd.app.Config.Live.ReconnectMin,
		ReconnectMax: cmd.app.Config.Live.ReconnectMax,
	})
	if o := cmd.app.Config.Live.Object; o != nil {
		sub := live.NewObjectSubscribe(o.AppLabel, o.ModelName, o.ObjectID)
		conn.OnOpen(func(_ context.Context, c *ws.Client) {
			if err := c.Send(sub); err != nil {
				log.Warn().Err(err).Msg("send object subscription")
			}
		})
	}

	out := c.Root().Writer
	conn.OnStatus(func(connected bool) {
		if cmd.jsonOutput {
			return
		}
		if connected {
			_, _ = fmt.Fprintln(c.Root().ErrWriter, "connected")
		} else {
			_, _ = fmt.Fprintln(c.Root().ErrWriter, "disconnected, retrying")
		}
	})

	d := live.NewDispatcher(live.DefaultRoutes()...)
	lw := iojson.NewLineWriter(out)
	err = conn.Run(ctx, func(_ context.Context, frame []byte) {
		msgs, err := d.Decode(frame)
		if err != nil {
			log.Debug().Err(err).Msg("undecodable live frame")
			return
		}
		for _, m := range msgs {
			if cmd.jsonOutput {
				_ = lw.Write(liveEvent{Kind: m.Kind(), Message: m})
				continue
			}
			printLive(out, m)
		}
	})
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func printLive(w io.Writer, m live.Message) {
	switch m := m.(type) {
	case live.CountUpdate:
		_, _ = fmt.Fprintf(w, "badge  %s\n", m.Count)
	case live.ReloadSignal:
		_, _ = fmt.Fprintln(w, "reload")
	case live.PushNotification:
		_, _ = fmt.Fprintf(w, "push   %s  %s\n", m.Notification.ID, m.Notification.Title())
	case live.ObjectAck:
		if m.Permanent() {
			_, _ = fmt.Fprintln(w, "muted  permanently")
		} else {
			_, _ = fmt.Fprintf(w, "muted  until %s\n", m.ValidTill.Local().Format("2006-01-02 15:04"))
		}
	default:
		_, _ = fmt.Fprintf(w, "%s\n", m.Kind())
	}
}
