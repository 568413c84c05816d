package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/huh"
	"github.com/urfave/cli/v3"

	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/codebase"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/features"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/session"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/styles"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/debugger"
)

// Choice is an answer for one feature. It is a decision, or ChoiceDiscuss to
// open a discussion first.
type Choice string

const (
	ChoiceInclude Choice = Choice(features.Include)
	ChoiceRemove  Choice = Choice(features.Remove)
	ChoiceDiscuss Choice = "discuss"
)

// Decider asks the user what to do with a feature.
type Decider interface {
	Choose(f features.Feature) (Choice, error)
}

// huhDecider asks with a huh select field.
type huhDecider struct{}

func (huhDecider) Choose(f features.Feature) (Choice, error) {
	var choice Choice
	err := huh.NewSelect[Choice]().
		Title(fmt.Sprintf("%s (%s)", f.Name, sourceLabel(f.Source))).
		Description(f.Description).
		Options(
			huh.NewOption("Include", ChoiceInclude),
			huh.NewOption("Remove", ChoiceRemove),
			huh.NewOption("Discuss", ChoiceDiscuss),
		).
		Value(&choice).
		Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return "", io.EOF
	}
	return choice, err
}

type CompareCmd struct {
	flags *Flags
	app   *debugger.App

	// flags
	language string
	decide   []string
	save     string
	copy     bool

	decider Decider
	ask     Prompter
}

// NewCompareCmd creates a new compare command
func NewCompareCmd(flags *Flags, app *debugger.App) *CompareCmd {
	return &CompareCmd{flags: flags, app: app, decider: huhDecider{}, ask: huhPrompter{}}
}

// Register adds the compare command to the application
func (cmd *CompareCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "compare",
		Usage:     "Compare two codebases and synthesize a merged version",
		UsageText: "4ndr0debugger compare [options] <path-a> <path-b>",
		Description: `Streams a comparison of two codebases, then retrieves the list of features
found in either one. Each feature is included in or removed from the merged
result, or discussed first in a short chat about that feature alone. Once
every feature is decided a single synthesis request produces the merged code.

Decisions are asked interactively unless --decide is given, for example:

  4ndr0debugger compare --decide Auth=include --decide Caching=remove ./a ./b`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "language",
				Aliases:     []string{"l"},
				Usage:       "language tag (detected from the first codebase when empty)",
				Destination: &cmd.language,
			},
			&cli.StringSliceFlag{
				Name:        "decide",
				Usage:       "decision as NAME=include|remove, repeatable",
				Destination: &cmd.decide,
			},
			&cli.StringFlag{
				Name:        "save",
				Usage:       "save the synthesized session as a version with this name",
				Destination: &cmd.save,
			},
			&cli.BoolFlag{
				Name:        "copy",
				Usage:       "copy the synthesized code to the clipboard",
				Destination: &cmd.copy,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *CompareCmd) run(ctx context.Context, c *cli.Command) error {
	if c.Args().Len() != 2 {
		return errors.New("exactly two paths are required")
	}

	decisions, err := parseDecisions(cmd.decide)
	if err != nil {
		return err
	}

	a, b, err := codebase.LoadPair(ctx, c.Args().Get(0), c.Args().Get(1), cmd.app.Config.Codebase.Options())
	if err != nil {
		return err
	}

	in := session.Inputs{Language: cmd.language, Code: a.Text(), SecondaryCode: b.Text()}
	if in.Language == "" {
		in.Language = a.Language
	}

	rn, err := newRunner(ctx, cmd.app, session.ModeComparison, c.Root().Writer, c.Root().ErrWriter)
	if err != nil {
		return err
	}
	rn.ask = cmd.ask

	if err := rn.submit(ctx, in); err != nil {
		return err
	}
	return cmd.synthesize(ctx, c.Root().Writer, rn, decisions)
}

// synthesize retrieves the features of a completed comparison, applies the
// decisions and finalizes.
func (cmd *CompareCmd) synthesize(ctx context.Context, w io.Writer, rn *runner, decisions map[string]features.Decision) error {
	if err := rn.conv.RetrieveFeatures(ctx); err != nil {
		return err
	}

	tracker := rn.conv.Snapshot().Features
	printMatrix(w, tracker.Matrix())

	if len(decisions) > 0 {
		for name, d := range decisions {
			if err := rn.conv.Decide(name, d); err != nil {
				return err
			}
		}
		if undecided := rn.conv.Snapshot().Features.Undecided(); len(undecided) > 0 {
			return fmt.Errorf("%w: %s", debugger.ErrIncomplete, featureNames(undecided))
		}
	} else if err := cmd.decideInteractively(ctx, rn); err != nil {
		return err
	}

	rn.begin(styles.IconCompare + " synthesis")
	err := rn.conv.Finalize(ctx)
	rn.finish(rn.conv.Snapshot().OutputText())
	if err != nil {
		return err
	}
	if err := rn.autoSave(ctx); err != nil {
		return err
	}

	if err := rn.save(ctx, cmd.save); err != nil {
		return err
	}
	if cmd.copy {
		return rn.copyCode()
	}
	return nil
}

func (cmd *CompareCmd) decideInteractively(ctx context.Context, rn *runner) error {
	for _, f := range rn.conv.Snapshot().Features.Undecided() {
		for {
			choice, err := cmd.decider.Choose(f)
			if err != nil {
				return fmt.Errorf("decide %s: %w", f.Name, err)
			}

			if choice != ChoiceDiscuss {
				if err := rn.conv.Decide(f.Name, features.Decision(choice)); err != nil {
					return err
				}
				break
			}

			discussed, err := discuss(ctx, rn, f)
			if err != nil {
				return err
			}
			if discussed {
				break
			}
		}
	}
	return nil
}

// discuss runs a discussion about f until the user exits. A discussion with at
// least one answered turn is recorded; an empty one is abandoned and the
// feature is asked again.
func discuss(ctx context.Context, rn *runner, f features.Feature) (bool, error) {
	opener, err := rn.conv.BeginDiscussion(ctx, f.Name)
	if err != nil {
		return false, err
	}

	rn.begin(styles.IconChat + " discussing " + f.Name)
	rn.finish(opener)

	if err := rn.converse(ctx, f.Name); err != nil {
		_ = rn.conv.AbandonDiscussion()
		return false, err
	}

	if _, turns, _ := rn.conv.Discussion(); len(turns) < 2 {
		return false, rn.conv.AbandonDiscussion()
	}
	if err := rn.conv.FinalizeDiscussion(); err != nil {
		return false, err
	}
	return true, nil
}

// parseDecisions parses NAME=include|remove pairs. Values may also be comma
// separated within one flag.
func parseDecisions(raw []string) (map[string]features.Decision, error) {
	out := make(map[string]features.Decision)
	for _, item := range raw {
		for _, pair := range strings.Split(item, ",") {
			pair = strings.TrimSpace(pair)
			if pair == "" {
				continue
			}

			name, value, ok := strings.Cut(pair, "=")
			name = strings.TrimSpace(name)
			if !ok || name == "" {
				return nil, fmt.Errorf("invalid decision %q: want NAME=include|remove", pair)
			}

			d := features.Decision(strings.ToLower(strings.TrimSpace(value)))
			if d != features.Include && d != features.Remove {
				return nil, fmt.Errorf("invalid decision %q for %s: want include or remove", value, name)
			}
			out[name] = d
		}
	}
	return out, nil
}

func printMatrix(w io.Writer, matrix []features.Feature) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "FEATURE\tSOURCE\tDESCRIPTION")
	for _, f := range matrix {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", f.Name, sourceLabel(f.Source), f.Description)
	}
	_ = tw.Flush()
}

func sourceLabel(s features.Source) string {
	switch s {
	case features.SourceUniqueA:
		return "only A"
	case features.SourceUniqueB:
		return "only B"
	default:
		return "both"
	}
}

func featureNames(list []features.Feature) string {
	names := make([]string, len(list))
	for i, f := range list {
		names[i] = f.Name
	}
	return strings.Join(names, ", ")
}
