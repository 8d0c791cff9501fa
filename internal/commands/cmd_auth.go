package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/urfave/cli/v3"
)

type AuthCmd struct {
	flags *Flags
	app   *App

	token string
}

// NewAuthCmd creates a new auth command
func NewAuthCmd(flags *Flags, app *App) *AuthCmd {
	return &AuthCmd{flags: flags, app: app}
}

// Register adds the auth command to the application
func (cmd *AuthCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "auth",
		Usage: "Store or remove the API token for the configured server",
		Description: `The token is kept in the OS keyring under the server host. A token set
in the config file takes precedence over the stored one.`,
		Commands: []*cli.Command{
			{
				Name:      "login",
				Usage:     "Store an API token",
				UsageText: "beacon auth login [--token <token>]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "token",
						Usage:       "token to store; prompted for when omitted",
						Sources:     cli.EnvVars("BEACON_TOKEN"),
						Destination: &cmd.token,
					},
				},
				Action: cmd.runLogin,
			},
			{
				Name:      "logout",
				Usage:     "Remove the stored API token",
				UsageText: "beacon auth logout",
				Action:    cmd.runLogout,
			},
		},
	})
	return app
}

func (cmd *AuthCmd) runLogin(_ context.Context, c *cli.Command) error {
	baseURL := cmd.app.Config.API.BaseURL
	if baseURL == "" {
		return ErrNoServer
	}

	token := strings.TrimSpace(cmd.token)
	if token == "" {
		if !isInteractive() {
			return errors.New("no token given; pass --token or BEACON_TOKEN")
		}
		err := huh.NewInput().
			Title("API token for " + baseURL).
			EchoMode(huh.EchoModePassword).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return errors.New("token cannot be empty")
				}
				return nil
			}).
			Value(&token).
			Run()
		if err != nil {
			return fmt.Errorf("read token: %w", err)
		}
		token = strings.TrimSpace(token)
	}

	creds, err := cmd.app.credentials()
	if err != nil {
		return err
	}
	if err := creds.SetToken(baseURL, token); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(c.Root().Writer, "Token stored for %s\n", baseURL)
	return nil
}

func (cmd *AuthCmd) runLogout(_ context.Context, c *cli.Command) error {
	baseURL := cmd.app.Config.API.BaseURL
	if baseURL == "" {
		return ErrNoServer
	}

	creds, err := cmd.app.credentials()
	if err != nil {
		return err
	}
	if err := creds.DeleteToken(baseURL); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(c.Root().Writer, "Token removed for %s\n", baseURL)
	return nil
}
