package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/hay-kot/criterio"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/beacon/pkg/iojson"
)

type ConfigValidateCmd struct {
	flags  *Flags
	format string
}

// NewConfigValidateCmd creates a new config validate command.
func NewConfigValidateCmd(flags *Flags) *ConfigValidateCmd {
	return &ConfigValidateCmd{flags: flags}
}

// Register adds the config validate command to the application.
func (cmd *ConfigValidateCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "config",
		Usage: "Configuration management commands",
		Commands: []*cli.Command{
			{
				Name:        "validate",
				Usage:       "Validate configuration file",
				UsageText:   "beacon config validate [options]",
				Description: "Validates the configuration file, checking command templates, the server settings and file paths.",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "format",
						Usage:       "output format (text, json)",
						Value:       "text",
						Destination: &cmd.format,
					},
				},
				Action: cmd.run,
			},
		},
	})

	return app
}

// validationIssue is one failed check in the JSON output.
type validationIssue struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (cmd *ConfigValidateCmd) run(_ context.Context, c *cli.Command) error {
	issues := collectIssues(cmd.flags.Config.ValidateDeep(cmd.flags.ConfigPath))
	out := c.Root().Writer

	if cmd.format == "json" {
		if err := iojson.WriteWith(out, c.Root().ErrWriter, struct {
			Valid  bool              `json:"valid"`
			Errors []validationIssue `json:"errors,omitempty"`
		}{Valid: len(issues) == 0, Errors: issues}); err != nil {
			return err
		}
	} else {
		printIssues(out, issues)
	}

	if len(issues) > 0 {
		return cli.Exit("", 1)
	}
	return nil
}

func collectIssues(err error) []validationIssue {
	if err == nil {
		return nil
	}
	var fieldErrs criterio.FieldErrors
	if !errors.As(err, &fieldErrs) {
		return []validationIssue{{Message: err.Error()}}
	}
	issues := make([]validationIssue, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		issues = append(issues, validationIssue{Field: fe.Field, Message: fe.Err.Error()})
	}
	return issues
}

func printIssues(w io.Writer, issues []validationIssue) {
	if len(issues) == 0 {
		_, _ = fmt.Fprintln(w, "Configuration is valid")
		return
	}
	for _, is := range issues {
		if is.Field != "" {
			_, _ = fmt.Fprintf(w, "✗ %s: %s\n", is.Field, is.Message)
		} else {
			_, _ = fmt.Fprintf(w, "✗ %s\n", is.Message)
		}
	}
	_, _ = fmt.Fprintf(w, "\n%d error(s) found\n", len(issues))
}
