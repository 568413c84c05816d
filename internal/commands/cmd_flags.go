package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/styles"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/debugger"
	"github.com/4ndr0666/4ndr0debugger-sub000/pkg/iojson"
)

type FlagsCmd struct {
	flags *Flags
	app   *debugger.App

	// flags
	jsonOutput bool
}

// NewFlagsCmd creates a new flags command
func NewFlagsCmd(flags *Flags, app *debugger.App) *FlagsCmd {
	return &FlagsCmd{flags: flags, app: app}
}

// Register adds the flags command to the application
func (cmd *FlagsCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "flags",
		Usage: "Manage feature flags",
		Description: `Feature flags are stored in the database and apply to every command.

  render_markdown  render completed output as markdown on terminals
  auto_save        save a version after every completed analysis
  show_prompt      print the rendered prompt before streaming`,
		Commands: []*cli.Command{
			{
				Name:      "ls",
				Usage:     "List feature flags",
				UsageText: "4ndr0debugger flags ls [--json]",
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
				Usage:     "Set a feature flag",
				UsageText: "4ndr0debugger flags set <name> <true|false>",
				Action:    cmd.runSet,
			},
			{
				Name:      "unset",
				Usage:     "Revert a feature flag to its default",
				UsageText: "4ndr0debugger flags unset <name>",
				Action:    cmd.runUnset,
			},
		},
	})

	return app
}

func (cmd *FlagsCmd) runList(ctx context.Context, c *cli.Command) error {
	list, err := cmd.app.Flags.List(ctx)
	if err != nil {
		return fmt.Errorf("list flags: %w", err)
	}

	if cmd.jsonOutput {
		return iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, list)
	}

	w := tabwriter.NewWriter(c.Root().Writer, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "FLAG\tVALUE\tDEFAULT")
	for _, f := range list {
		value := strconv.FormatBool(f.Value)
		if f.Value != f.Default {
			value = styles.WarningStyle.Render(value)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%t\n", f.Name, value, f.Default)
	}
	return w.Flush()
}

func (cmd *FlagsCmd) runSet(ctx context.Context, c *cli.Command) error {
	if c.Args().Len() != 2 {
		return errors.New("usage: flags set <name> <true|false>")
	}

	name := c.Args().Get(0)
	value, err := strconv.ParseBool(c.Args().Get(1))
	if err != nil {
		return fmt.Errorf("invalid value %q for %s: want true or false", c.Args().Get(1), name)
	}

	if err := cmd.app.Flags.Set(ctx, name, value); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(c.Root().Writer, "%s = %t\n", name, value)
	return nil
}

func (cmd *FlagsCmd) runUnset(ctx context.Context, c *cli.Command) error {
	name := c.Args().First()
	if name == "" {
		return errors.New("usage: flags unset <name>")
	}

	if err := cmd.app.Flags.Unset(ctx, name); err != nil {
		return err
	}
	v, err := cmd.app.Flags.Enabled(ctx, name)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(c.Root().Writer, "%s = %t (default)\n", name, v)
	return nil
}
