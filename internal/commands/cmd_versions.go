package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/session"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/styles"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/version"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/debugger"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/render"
	"github.com/4ndr0666/4ndr0debugger-sub000/pkg/iojson"
)

type VersionsCmd struct {
	flags *Flags
	app   *debugger.App

	// flags
	jsonOutput bool
	chat       bool
	copy       bool
}

// NewVersionsCmd creates a new versions command
func NewVersionsCmd(flags *Flags, app *debugger.App) *VersionsCmd {
	return &VersionsCmd{flags: flags, app: app}
}

// Register adds the versions command to the application
func (cmd *VersionsCmd) Register(app *cli.Command) *cli.Command {
	jsonFlag := &cli.BoolFlag{
		Name:        "json",
		Usage:       "output as JSON",
		Destination: &cmd.jsonOutput,
	}

	app.Commands = append(app.Commands, &cli.Command{
		Name:    "versions",
		Aliases: []string{"v"},
		Usage:   "Manage saved session versions",
		Description: `Versions are named snapshots of a session. A version is referenced by its
id, an id prefix of at least six characters, or its name.`,
		Commands: []*cli.Command{
			{
				Name:      "ls",
				Usage:     "List saved versions",
				UsageText: "4ndr0debugger versions ls [--json]",
				Flags:     []cli.Flag{jsonFlag},
				Action:    cmd.runList,
			},
			{
				Name:      "show",
				Usage:     "Print a saved version",
				UsageText: "4ndr0debugger versions show [--json] <ref>",
				Flags:     []cli.Flag{jsonFlag},
				Action:    cmd.runShow,
			},
			{
				Name:      "restore",
				Usage:     "Restore a version and continue from it",
				UsageText: "4ndr0debugger versions restore [options] <ref>",
				Description: `Restores the version as the live session and prints its output. With --chat
a restored chat is continued, or a new one is started on a completed session.`,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:        "chat",
						Usage:       "continue with a follow-up chat",
						Destination: &cmd.chat,
					},
					&cli.BoolFlag{
						Name:        "copy",
						Usage:       "copy the latest code to the clipboard",
						Destination: &cmd.copy,
					},
				},
				Action: cmd.runRestore,
			},
			{
				Name:      "rm",
				Usage:     "Delete a saved version",
				UsageText: "4ndr0debugger versions rm <ref>",
				Action:    cmd.runDelete,
			},
		},
	})

	return app
}

// versionInfo is the JSON output format for versions ls --json.
type versionInfo struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	CreatedAt string        `json:"created_at"`
	Mode      session.Mode  `json:"mode"`
	State     session.State `json:"state"`
}

func (cmd *VersionsCmd) runList(ctx context.Context, c *cli.Command) error {
	list, err := cmd.app.Versions.List(ctx)
	if err != nil {
		return fmt.Errorf("list versions: %w", err)
	}

	out := c.Root().Writer

	if cmd.jsonOutput {
		infos := make([]versionInfo, len(list))
		for i, v := range list {
			infos[i] = versionInfo{
				ID:        v.ID,
				Name:      v.Name,
				CreatedAt: v.CreatedAt.Format(time.RFC3339),
				Mode:      v.Session.Mode,
				State:     v.Session.State,
			}
		}
		return iojson.WriteWith(out, c.Root().ErrWriter, infos)
	}

	if len(list) == 0 {
		_, _ = fmt.Fprintln(c.Root().ErrWriter, "No versions saved")
		return nil
	}

	printVersions(out, list)
	return nil
}

func printVersions(w io.Writer, list []version.Version) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tNAME\tMODE\tSTATE\tSAVED")
	for _, v := range list {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			styles.VersionIDStyle.Render(v.ID),
			styles.VersionNameStyle.Render(v.Name),
			v.Session.Mode,
			styles.StateStyle(v.Session.State).Render(v.Session.State.String()),
			styles.VersionAgeStyle.Render(humanize.Time(v.CreatedAt)),
		)
	}
	_ = tw.Flush()
}

func (cmd *VersionsCmd) find(ctx context.Context, c *cli.Command) (version.Version, error) {
	ref := c.Args().First()
	if ref == "" {
		return version.Version{}, errors.New("a version reference is required")
	}
	return cmd.app.Versions.Find(ctx, ref)
}

func (cmd *VersionsCmd) runShow(ctx context.Context, c *cli.Command) error {
	v, err := cmd.find(ctx, c)
	if err != nil {
		return err
	}

	if cmd.jsonOutput {
		return iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, v)
	}

	out, err := render.New(c.Root().Writer, c.Root().ErrWriter, render.Options{
		Theme: cmd.app.Config.Render.Theme,
		Width: cmd.app.Config.Render.Width,
	})
	if err != nil {
		return err
	}

	w := c.Root().Writer
	_, _ = fmt.Fprintf(w, "%s %s\n", styles.VersionNameStyle.Render(v.Name), styles.VersionIDStyle.Render(v.ID))
	_, _ = fmt.Fprintf(w, "%s, %s, saved %s\n",
		v.Session.Mode,
		styles.StateStyle(v.Session.State).Render(v.Session.State.String()),
		humanize.Time(v.CreatedAt),
	)
	if v.Session.Output != nil {
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintln(w, *v.Session.Output)
	}
	if v.Session.Chat != nil {
		_, _ = fmt.Fprintf(w, "\n%s %d chat turn(s)\n", styles.IconChat, len(v.Session.Chat.Turns))
		out.Artifacts(v.Session.Chat.Revisions)
		out.Artifacts(v.Session.Chat.Files)
	}
	return nil
}

func (cmd *VersionsCmd) runRestore(ctx context.Context, c *cli.Command) error {
	ref := c.Args().First()
	if ref == "" {
		return errors.New("a version reference is required")
	}

	rn, err := newRunner(ctx, cmd.app, session.ModeReview, c.Root().Writer, c.Root().ErrWriter)
	if err != nil {
		return err
	}
	if _, err := rn.conv.RestoreRef(ctx, ref); err != nil {
		return err
	}

	snap := rn.conv.Snapshot()
	rn.begin(styles.IconHistory + " " + snap.Mode.String())
	rn.finish(snap.OutputText())

	if cmd.chat {
		if err := cmd.continueChat(ctx, rn, snap.State); err != nil {
			return err
		}
	}
	if cmd.copy {
		return rn.copyCode()
	}
	return nil
}

func (cmd *VersionsCmd) continueChat(ctx context.Context, rn *runner, st session.State) error {
	if st != session.StateChatActive {
		return rn.chat(ctx)
	}

	for _, t := range rn.turns() {
		if err := rn.out.Turn(t); err != nil {
			return err
		}
	}
	if err := rn.converse(ctx, "you"); err != nil {
		return err
	}
	return rn.conv.EndChat()
}

func (cmd *VersionsCmd) runDelete(ctx context.Context, c *cli.Command) error {
	ref := c.Args().First()
	if ref == "" {
		return errors.New("a version reference is required")
	}

	conv := cmd.app.Conversation(session.ModeReview)
	v, err := conv.DeleteVersion(ctx, ref)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(c.Root().Writer, "deleted %s %s\n", v.Name, styles.VersionIDStyle.Render(v.ID))
	return nil
}
