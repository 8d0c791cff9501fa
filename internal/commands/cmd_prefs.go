package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/charmbracelet/huh"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/beacon/internal/center"
	"github.com/colonyops/beacon/internal/core/prefs"
	"github.com/colonyops/beacon/pkg/iojson"
)

type PrefsCmd struct {
	flags *Flags
	app   *App

	jsonOutput bool
	typeGlob   string
	yes        bool
}

// NewPrefsCmd creates a new prefs command
func NewPrefsCmd(flags *Flags, app *App) *PrefsCmd {
	return &PrefsCmd{flags: flags, app: app}
}

// Register adds the prefs command to the application
func (cmd *PrefsCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "prefs",
		Usage: "Show and change notification delivery preferences",
		Description: `Preferences are web and email toggles per notification type and
organization, plus one global row. Email delivery requires web delivery:
turning email on turns web on, turning web off turns email off.`,
		Commands: []*cli.Command{
			{
				Name:      "list",
				Usage:     "Print the preference matrix",
				UsageText: "beacon prefs list [--json]",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:        "json",
						Usage:       "output as JSON",
						Destination: &cmd.jsonOutput,
					},
				},
				Action: cmd.runList,
			},
			{
				Name:      "set",
				Usage:     "Change one row, or every row whose type matches --type",
				UsageText: "beacon prefs set <setting-id> web|email on|off\nbeacon prefs set --type <glob> web|email on|off",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "type",
						Aliases:     []string{"t"},
						Usage:       "glob over notification types, e.g. 'build.*' or '**'",
						Destination: &cmd.typeGlob,
					},
				},
				Action: cmd.runSet,
			},
			{
				Name:      "org",
				Usage:     "Change every row of an organization",
				UsageText: "beacon prefs org <org-id> web|email on|off",
				Action:    cmd.runOrg,
			},
			{
				Name:      "global",
				Usage:     "Change the global row",
				UsageText: "beacon prefs global web|email on|off [--yes]",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:        "yes",
						Aliases:     []string{"y"},
						Usage:       "skip the confirmation",
						Destination: &cmd.yes,
					},
				},
				Action: cmd.runGlobal,
			},
		},
	})
	return app
}

func (cmd *PrefsCmd) load(ctx context.Context) (*center.Center, *prefs.Matrix, error) {
	ctr, err := cmd.app.Center(ctx)
	if err != nil {
		return nil, nil, err
	}
	m, err := ctr.LoadPreferences(ctx)
	if err != nil {
		return nil, nil, err
	}
	return ctr, m, nil
}

// matrixView is the JSON output format for prefs list --json.
type matrixView struct {
	Global   *prefs.Pair `json:"global,omitempty"`
	GlobalID string      `json:"global_id,omitempty"`
	Orgs     []prefs.Org `json:"organizations"`
}

func (cmd *PrefsCmd) runList(ctx context.Context, c *cli.Command) error {
	_, m, err := cmd.load(cmd.app.Context(ctx))
	if err != nil {
		return err
	}
	out := c.Root().Writer

	if cmd.jsonOutput {
		v := matrixView{Orgs: m.Orgs()}
		if p, id, ok := m.Global(); ok {
			v.Global, v.GlobalID = &p, id
		}
		return iojson.WriteWith(out, c.Root().ErrWriter, v)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tTYPE\tWEB\tEMAIL")
	if p, id, ok := m.Global(); ok {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", id, "(global)", onOff(p.Web), onOff(p.Email))
	}
	for _, org := range m.Orgs() {
		name := org.Name
		if name == "" {
			name = org.ID
		}
		total := len(org.Rows)
		_, _ = fmt.Fprintf(w, "%s\t[%s]\t%d/%d\t%d/%d\n", org.ID, name, org.WebCount, total, org.EmailCount, total)
		for _, r := range org.Rows {
			_, _ = fmt.Fprintf(w, "%s\t  %s\t%s\t%s\n", r.ID, r.Type, onOff(r.Web), onOff(r.Email))
		}
	}
	return w.Flush()
}

// channelArgs parses the trailing "web|email on|off" pair.
func channelArgs(args []string) (prefs.Channel, bool, error) {
	if len(args) != 2 {
		return "", false, fmt.Errorf("expected web|email on|off")
	}
	ch, err := prefs.ParseChannel(args[0])
	if err != nil {
		return "", false, err
	}
	v, err := parseSwitch(args[1])
	if err != nil {
		return "", false, err
	}
	return ch, v, nil
}

func (cmd *PrefsCmd) runSet(ctx context.Context, c *cli.Command) error {
	args := c.Args().Slice()
	ctx = cmd.app.Context(ctx)

	if cmd.typeGlob != "" {
		ch, v, err := channelArgs(args)
		if err != nil {
			return err
		}
		ctr, _, err := cmd.load(ctx)
		if err != nil {
			return err
		}
		n, err := ctr.SetPreferencesMatching(ctx, cmd.typeGlob, ch, v)
		_, _ = fmt.Fprintf(c.Root().Writer, "%d row(s) changed\n", n)
		return err
	}

	if len(args) != 3 {
		return fmt.Errorf("expected <setting-id> web|email on|off")
	}
	ch, v, err := channelArgs(args[1:])
	if err != nil {
		return err
	}
	ctr, _, err := cmd.load(ctx)
	if err != nil {
		return err
	}
	if err := ctr.SetPreference(ctx, args[0], ch, v); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(c.Root().Writer, "%s %s %s\n", args[0], ch, onOff(v))
	return nil
}

func (cmd *PrefsCmd) runOrg(ctx context.Context, c *cli.Command) error {
	args := c.Args().Slice()
	if len(args) != 3 {
		return fmt.Errorf("expected <org-id> web|email on|off")
	}
	ch, v, err := channelArgs(args[1:])
	if err != nil {
		return err
	}

	ctx = cmd.app.Context(ctx)
	ctr, _, err := cmd.load(ctx)
	if err != nil {
		return err
	}
	if err := ctr.SetOrgPreference(ctx, args[0], ch, v); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(c.Root().Writer, "%s %s %s\n", args[0], ch, onOff(v))
	return nil
}

func (cmd *PrefsCmd) runGlobal(ctx context.Context, c *cli.Command) error {
	ch, v, err := channelArgs(c.Args().Slice())
	if err != nil {
		return err
	}

	if !cmd.yes {
		if !isInteractive() {
			return fmt.Errorf("changing the global preference needs --yes when not run from a terminal")
		}
		ok := false
		err := huh.NewConfirm().
			Title(fmt.Sprintf("Turn %s notifications %s everywhere?", ch, onOff(v))).
			Description("This changes every organization and type.").
			Affirmative("Yes").
			Negative("No").
			Value(&ok).
			Run()
		if err != nil {
			return fmt.Errorf("confirm: %w", err)
		}
		if !ok {
			return nil
		}
	}

	ctx = cmd.app.Context(ctx)
	ctr, _, err := cmd.load(ctx)
	if err != nil {
		return err
	}
	if err := ctr.SetGlobalPreference(ctx, ch, v); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(c.Root().Writer, "global %s %s\n", ch, onOff(v))
	return nil
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
