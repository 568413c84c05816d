package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/codebase"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/session"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/debugger"
)

// analysis describes one single-codebase command.
type analysis struct {
	name        string
	mode        session.Mode
	usage       string
	description string
}

var analyses = []analysis{
	{
		name:  "review",
		mode:  session.ModeReview,
		usage: "Review code for bugs, style and design issues",
		description: `Loads the given files or directories and streams a code review.

The last fenced code block of the response is extracted as the revised code.
Use --chat to ask follow-up questions about the review.`,
	},
	{
		name:  "debug",
		mode:  session.ModeDebug,
		usage: "Diagnose an error in code",
		description: `Loads the given files or directories and streams a diagnosis of the error
passed with --error or --error-file.`,
	},
	{
		name:        "audit",
		mode:        session.ModeAudit,
		usage:       "Audit code for security issues",
		description: `Loads the given files or directories and streams a security audit.`,
	},
	{
		name:  "docs",
		mode:  session.ModeWorkbench,
		usage: "Generate documentation files for code",
		description: `Loads the given files or directories and streams generated documentation.

Named files in the response ("### File: NAME" headings followed by a code block)
are captured during the follow-up chat.`,
	},
}

type AnalyzeCmd struct {
	flags *Flags
	app   *debugger.App
	spec  analysis

	// flags
	language  string
	errorText string
	errorFile string
	save      string
	copy      bool
	chat      bool
}

// NewAnalyzeCmds creates the review, debug, audit and docs commands.
func NewAnalyzeCmds(flags *Flags, app *debugger.App) []*AnalyzeCmd {
	cmds := make([]*AnalyzeCmd, 0, len(analyses))
	for _, a := range analyses {
		cmds = append(cmds, &AnalyzeCmd{flags: flags, app: app, spec: a})
	}
	return cmds
}

// Register adds the command to the application
func (cmd *AnalyzeCmd) Register(app *cli.Command) *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "language",
			Aliases:     []string{"l"},
			Usage:       "language tag (detected from file extensions when empty)",
			Destination: &cmd.language,
		},
		&cli.StringFlag{
			Name:        "save",
			Usage:       "save the completed session as a version with this name",
			Destination: &cmd.save,
		},
		&cli.BoolFlag{
			Name:        "copy",
			Usage:       "copy the extracted code to the clipboard",
			Destination: &cmd.copy,
		},
		&cli.BoolFlag{
			Name:        "chat",
			Usage:       "continue with a follow-up chat",
			Destination: &cmd.chat,
		},
	}

	if cmd.spec.mode == session.ModeDebug {
		flags = append(flags,
			&cli.StringFlag{
				Name:        "error",
				Aliases:     []string{"e"},
				Usage:       "error message or stack trace",
				Destination: &cmd.errorText,
			},
			&cli.StringFlag{
				Name:        "error-file",
				Usage:       "read the error context from a file",
				Destination: &cmd.errorFile,
			},
		)
	}

	app.Commands = append(app.Commands, &cli.Command{
		Name:        cmd.spec.name,
		Usage:       cmd.spec.usage,
		UsageText:   fmt.Sprintf("4ndr0debugger %s [options] <path...>", cmd.spec.name),
		Description: cmd.spec.description,
		Flags:       flags,
		Action:      cmd.run,
	})

	return app
}

func (cmd *AnalyzeCmd) run(ctx context.Context, c *cli.Command) error {
	if c.Args().Len() == 0 {
		return errors.New("at least one path is required")
	}

	code, err := loadCodebases(ctx, c.Args().Slice(), cmd.app.Config.Codebase.Options())
	if err != nil {
		return err
	}

	in := session.Inputs{Language: cmd.language, Code: code.Text()}
	if in.Language == "" {
		in.Language = code.Language
	}
	if cmd.spec.mode == session.ModeDebug {
		in.ErrorContext, err = cmd.errorContext()
		if err != nil {
			return err
		}
	}

	rn, err := newRunner(ctx, cmd.app, cmd.spec.mode, c.Root().Writer, c.Root().ErrWriter)
	if err != nil {
		return err
	}
	if len(code.Skipped) > 0 {
		rn.out.Warn(fmt.Sprintf("skipped %d file(s): %s", len(code.Skipped), strings.Join(code.Skipped, ", ")))
	}

	if err := rn.submit(ctx, in); err != nil {
		return err
	}
	if cmd.chat {
		if err := rn.chat(ctx); err != nil {
			return err
		}
	}
	if err := rn.save(ctx, cmd.save); err != nil {
		return err
	}
	if cmd.copy {
		return rn.copyCode()
	}
	return nil
}

func (cmd *AnalyzeCmd) errorContext() (string, error) {
	if cmd.errorFile == "" {
		return cmd.errorText, nil
	}

	data, err := os.ReadFile(cmd.errorFile)
	if err != nil {
		return "", fmt.Errorf("read error file: %w", err)
	}
	if cmd.errorText == "" {
		return string(data), nil
	}
	return cmd.errorText + "\n\n" + string(data), nil
}

// loadCodebases loads every path and merges them into one codebase. File
// paths of later roots are prefixed with their root to keep them apart.
func loadCodebases(ctx context.Context, paths []string, opts codebase.Options) (codebase.Codebase, error) {
	var merged codebase.Codebase
	for i, p := range paths {
		cb, err := codebase.Load(ctx, p, opts)
		if err != nil {
			return codebase.Codebase{}, err
		}

		if i == 0 {
			merged = cb
			continue
		}
		for _, f := range cb.Files {
			f.Path = path.Join(filepath.ToSlash(p), f.Path)
			merged.Files = append(merged.Files, f)
		}
		merged.Skipped = append(merged.Skipped, cb.Skipped...)
	}

	if len(paths) > 1 {
		merged.Language = codebase.DetectLanguage(merged.Files)
	}
	return merged, nil
}
