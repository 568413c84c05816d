package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/export"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/session"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/debugger"
	"github.com/4ndr0666/4ndr0debugger-sub000/pkg/iojson"
)

type BundleCmd struct {
	flags *Flags
	app   *debugger.App

	// flags
	versionRef string
	input      iojson.FileReader[json.RawMessage]
}

// NewBundleCmd creates the export and import commands
func NewBundleCmd(flags *Flags, app *debugger.App) *BundleCmd {
	return &BundleCmd{flags: flags, app: app}
}

// Register adds the export and import commands to the application
func (cmd *BundleCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands,
		&cli.Command{
			Name:      "export",
			Usage:     "Export the session and every saved version",
			UsageText: "4ndr0debugger export [--version REF] [file]",
			Description: `Writes a JSON bundle with every saved version to file, or stdout when no
file is given. With --version the bundle's session is that version; otherwise
it is the most recently saved one.`,
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:        "version",
					Usage:       "version to export as the session",
					Destination: &cmd.versionRef,
				},
			},
			Action: cmd.runExport,
		},
		&cli.Command{
			Name:      "import",
			Usage:     "Import a session bundle",
			UsageText: "4ndr0debugger import [file | -f file | < file]",
			Description: `Replaces every saved version with the bundle's. The bundle is validated first
and nothing is replaced when it is malformed.`,
			Flags:  []cli.Flag{cmd.input.Flag()},
			Action: cmd.runImport,
		},
	)

	return app
}

func (cmd *BundleCmd) runExport(ctx context.Context, c *cli.Command) error {
	conv := cmd.app.Conversation(session.ModeReview)

	ref := cmd.versionRef
	if ref == "" {
		list, err := conv.Versions(ctx)
		if err != nil {
			return fmt.Errorf("list versions: %w", err)
		}
		if len(list) > 0 {
			ref = list[len(list)-1].ID
		}
	}
	if ref != "" {
		if _, err := conv.RestoreRef(ctx, ref); err != nil {
			return err
		}
	}

	b, err := conv.Export(ctx)
	if err != nil {
		return err
	}

	var w io.Writer = c.Root().Writer
	if path := c.Args().First(); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create export file: %w", err)
		}
		defer func() { _ = f.Close() }()
		w = f
	}

	if err := export.Encode(w, b); err != nil {
		return err
	}
	if c.Args().First() != "" {
		fmt.Fprintf(c.Root().ErrWriter, "exported %d version(s) to %s\n", len(b.Versions), c.Args().First())
	}
	return nil
}

func (cmd *BundleCmd) runImport(ctx context.Context, c *cli.Command) error {
	raw, err := cmd.input.ReadPath(c.Args().First())
	if err != nil {
		return fmt.Errorf("read bundle: %w", err)
	}

	b, err := export.Decode(bytes.NewReader(raw))
	if err != nil {
		return err
	}

	conv := cmd.app.Conversation(session.ModeReview)
	if err := conv.Import(ctx, b); err != nil {
		return err
	}

	snap := conv.Snapshot()
	fmt.Fprintf(c.Root().Writer, "imported %d version(s), session %s (%s)\n", len(b.Versions), snap.Mode, snap.State)
	return nil
}
