package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/session"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/debugger"
)

type CommitCmd struct {
	flags *Flags
	app   *debugger.App

	// flags
	versionRef string
	copy       bool
}

// NewCommitCmd creates a new commit command
func NewCommitCmd(flags *Flags, app *debugger.App) *CommitCmd {
	return &CommitCmd{flags: flags, app: app}
}

// Register adds the commit command to the application
func (cmd *CommitCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "commit",
		Usage:     "Write a commit message for the code of a saved version",
		UsageText: "4ndr0debugger commit [--version REF] [--copy]",
		Description: `Restores a saved version and asks for a conventional commit message
describing its latest code: the newest chat revision, or the extracted code of
the response. Without --version the most recently saved version is used.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "version",
				Usage:       "version to describe",
				Destination: &cmd.versionRef,
			},
			&cli.BoolFlag{
				Name:        "copy",
				Usage:       "copy the message to the clipboard",
				Destination: &cmd.copy,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *CommitCmd) run(ctx context.Context, c *cli.Command) error {
	rn, err := newRunner(ctx, cmd.app, session.ModeReview, c.Root().Writer, c.Root().ErrWriter)
	if err != nil {
		return err
	}

	ref := cmd.versionRef
	if ref == "" {
		list, err := rn.conv.Versions(ctx)
		if err != nil {
			return fmt.Errorf("list versions: %w", err)
		}
		if len(list) == 0 {
			return errors.New("no versions saved; run an analysis with --save first")
		}
		ref = list[len(list)-1].ID
	}

	if _, err := rn.conv.RestoreRef(ctx, ref); err != nil {
		return err
	}

	msg, err := rn.conv.CommitMessage(ctx)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(c.Root().Writer, msg.String())
	if cmd.copy {
		if err := rn.copyFn(msg.String()); err != nil {
			return fmt.Errorf("copy to clipboard: %w", err)
		}
		rn.out.Info("message copied to clipboard")
	}
	return nil
}
