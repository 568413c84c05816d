package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/charmbracelet/huh"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/styles"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/data/db"
)

type DBCmd struct {
	flags *Flags
	steps int
	yes   bool

	confirm func(prompt string) (bool, error)
}

// NewDBCmd creates the database maintenance commands.
func NewDBCmd(flags *Flags) *DBCmd {
	return &DBCmd{flags: flags, confirm: confirmHuh}
}

// Register adds the db command to the application.
func (cmd *DBCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "db",
		Usage: "Inspect the local database",
		Commands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "List schema migrations and whether they are applied",
				Action: cmd.runStatus,
			},
			{
				Name:        "rollback",
				Usage:       "Revert the most recent schema migrations",
				UsageText:   "4ndr0debugger db rollback [--steps n] [--yes]",
				Description: "Reverting the first migration drops every saved version and flag.",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:        "steps",
						Usage:       "number of migrations to revert",
						Value:       1,
						Destination: &cmd.steps,
					},
					&cli.BoolFlag{
						Name:        "yes",
						Aliases:     []string{"y"},
						Usage:       "skip the confirmation prompt",
						Destination: &cmd.yes,
					},
				},
				Action: cmd.runRollback,
			},
		},
	})
	return app
}

func (cmd *DBCmd) runStatus(ctx context.Context, c *cli.Command) error {
	status, err := db.Migrations(ctx, cmd.flags.DB.Conn())
	if err != nil {
		return err
	}
	printMigrations(c.Root().Writer, status)
	return nil
}

func (cmd *DBCmd) runRollback(ctx context.Context, c *cli.Command) error {
	if !cmd.yes {
		ok, err := cmd.confirm(fmt.Sprintf("Revert %d migration(s)?", cmd.steps))
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}

	if err := db.MigrateDown(ctx, cmd.flags.DB.Conn(), cmd.steps); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(c.Root().Writer, "%s reverted %d migration(s)\n", styles.SuccessStyle.Render(styles.IconCheck), cmd.steps)
	return nil
}

func printMigrations(w io.Writer, status []db.MigrationStatus) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "VERSION\tNAME\tAPPLIED")
	for _, s := range status {
		applied := styles.WarningStyle.Render("pending")
		if s.Applied {
			applied = styles.SuccessStyle.Render(humanize.Time(s.AppliedAt))
		}
		_, _ = fmt.Fprintf(tw, "%04d\t%s\t%s\n", s.Version, s.Name, applied)
	}
	_ = tw.Flush()
}

func confirmHuh(prompt string) (bool, error) {
	var ok bool
	err := huh.NewConfirm().Title(prompt).Value(&ok).Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return false, nil
	}
	return ok, err
}
