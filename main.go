package main

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/beacon/internal/commands"
	"github.com/colonyops/beacon/internal/core/config"
	"github.com/colonyops/beacon/internal/core/logging"
	"github.com/colonyops/beacon/pkg/logutils"
)

var (
	// Set with -ldflags at release time. build() falls back to
	// runtime/debug.BuildInfo for `go install` builds.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	v, c, d := version, commit, date

	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	short := c
	if len(c) > 7 {
		short = c[:7]
	}

	return fmt.Sprintf("%s (%s) %s", v, short, d)
}

func main() {
	ctx := context.Background()

	// .env is optional
	_ = godotenv.Load()

	var (
		logCloser func()
		beaconApp = &commands.App{}
	)

	flags := &commands.Flags{}

	app := &cli.Command{
		Name:      "beacon",
		Usage:     "Notification center for the terminal",
		UsageText: "beacon [global options] command [command options]",
		Description: `Beacon lists your notifications, keeps their read state in sync, streams
live updates and alerts, and manages web and email delivery preferences.

Run 'beacon' with no arguments to open the interactive notification center.`,
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("BEACON_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (defaults to <data-dir>/beacon.log)",
				Sources:     cli.EnvVars("BEACON_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("BEACON_CONFIG"),
				Value:       commands.DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "path to data directory",
				Sources:     cli.EnvVars("BEACON_DATA_DIR"),
				Value:       commands.DefaultDataDir(),
				Destination: &flags.DataDir,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			cfg, err := config.Load(flags.ConfigPath, flags.DataDir)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}
			flags.Config = cfg

			// Always log to a file; use explicit path or default to <datadir>/beacon.log
			logFile := flags.LogFile
			if logFile == "" {
				logFile = cfg.LogFile()
			}
			logger, closer, err := logutils.New(flags.LogLevel, logFile, false)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logging.Install(logger)
			logCloser = closer

			// Populate the pre-allocated App (commands already hold a pointer to it)
			*beaconApp = *commands.NewApp(cfg)

			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if err := beaconApp.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close resources")
			}
			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	tuiCmd := commands.NewTuiCmd(flags, beaconApp)

	app = tuiCmd.Register(app)
	app = commands.NewLsCmd(flags, beaconApp).Register(app)
	app = commands.NewReadCmd(flags, beaconApp).Register(app)
	app = commands.NewPrefsCmd(flags, beaconApp).Register(app)
	app = commands.NewMuteCmd(flags, beaconApp).Register(app)
	app = commands.NewWatchCmd(flags, beaconApp).Register(app)
	app = commands.NewUnsubscribeCmd(flags, beaconApp).Register(app)
	app = commands.NewAuthCmd(flags, beaconApp).Register(app)
	app = commands.NewNoticesCmd(flags, beaconApp).Register(app)
	app = commands.NewConfigValidateCmd(flags).Register(app)

	// Register TUI flags on root command
	app.Flags = append(app.Flags, tuiCmd.Flags()...)

	// Set TUI as default action when no subcommand is provided
	app.Action = func(ctx context.Context, c *cli.Command) error {
		if c.Args().Len() > 0 {
			return fmt.Errorf("unknown command %q. Run 'beacon --help' for usage", c.Args().First())
		}
		return tuiCmd.Run(ctx, c)
	}

	exitCode := 0
	runErr := app.Run(ctx, os.Args)
	if runErr != nil {
		fmt.Println()
		fmt.Println(runErr.Error())
		exitCode = 1
	}

	os.Exit(exitCode)
}
