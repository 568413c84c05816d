package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/huh"
	"github.com/rs/zerolog"

	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/chat"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/eventbus"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/flags"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/llm"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/logging"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/session"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/styles"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/debugger"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/render"
)

// Prompter asks the user for one line of input.
type Prompter interface {
	Ask(title string) (string, error)
}

// huhPrompter reads input with a huh text field.
type huhPrompter struct{}

func (huhPrompter) Ask(title string) (string, error) {
	var text string
	err := huh.NewInput().
		Title(title).
		Value(&text).
		Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return "", io.EOF
	}
	return text, err
}

// runner drives one conversation for a command and prints what it produces.
type runner struct {
	app    *debugger.App
	conv   *debugger.Conversation
	out    *render.Renderer
	ask    Prompter
	copyFn func(string) error
	log    zerolog.Logger

	// dropped is the bus drop count when the current response began.
	dropped uint64
}

// newRunner creates a conversation in mode and subscribes the renderer to its
// output events.
func newRunner(ctx context.Context, app *debugger.App, mode session.Mode, stdout, stderr io.Writer) (*runner, error) {
	markdown, err := app.Flags.Enabled(ctx, flags.RenderMarkdown)
	if err != nil {
		return nil, fmt.Errorf("read flags: %w", err)
	}

	out, err := render.New(stdout, stderr, render.Options{
		Theme:    app.Config.Render.Theme,
		Width:    app.Config.Render.Width,
		Markdown: markdown,
	})
	if err != nil {
		return nil, err
	}

	rn := &runner{
		app:    app,
		conv:   app.Conversation(mode),
		out:    out,
		ask:    huhPrompter{},
		copyFn: clipboard.WriteAll,
		log:    logging.Component("cli"),
	}

	app.Bus.SubscribeSessionOutputUpdated(func(p eventbus.SessionOutputUpdatedPayload) {
		out.Chunk(p.Chunk)
	})
	// Errors are returned to main and printed there.
	app.Bus.SubscribeNoticePublished(func(p eventbus.NoticePublishedPayload) {
		switch p.Level {
		case eventbus.LevelInfo:
			out.Info(p.Message)
		case eventbus.LevelWarning:
			out.Warn(p.Message)
		}
	})

	return rn, nil
}

func title(mode session.Mode) string {
	return styles.IconForMode(mode) + " " + mode.String()
}

// submit runs the primary operation and prints its output. The partial output
// of a failed or cancelled run is still printed.
func (rn *runner) submit(ctx context.Context, in session.Inputs) error {
	mode := rn.conv.Snapshot().Mode
	if err := rn.showPrompt(ctx, mode, in); err != nil {
		return err
	}

	rn.begin(title(mode))
	err := rn.conv.Submit(ctx, in)
	rn.finish(rn.conv.Snapshot().OutputText())
	if err != nil {
		return err
	}

	return rn.autoSave(ctx)
}

func (rn *runner) showPrompt(ctx context.Context, mode session.Mode, in session.Inputs) error {
	show, err := rn.app.Flags.Enabled(ctx, flags.ShowPrompt)
	if err != nil {
		return fmt.Errorf("read flags: %w", err)
	}
	if !show {
		return nil
	}

	p, err := rn.app.Prompts.Primary(mode, in)
	if err != nil {
		// Submit reports the same error.
		return nil //nolint:nilerr
	}
	rn.out.Prompt(p.Payload)
	return nil
}

func (rn *runner) begin(title string) {
	rn.dropped = rn.app.Bus.Dropped()
	rn.out.Begin(title)
}

// finish prints the settled text of the current response. Chunks dropped by
// a full bus are covered since the renderer prints from text.
func (rn *runner) finish(text string) {
	if err := rn.out.Finish(text); err != nil {
		rn.log.Warn().Err(err).Msg("failed to render output")
	}
	if n := rn.app.Bus.Dropped() - rn.dropped; n > 0 {
		rn.log.Debug().Uint64("dropped", n).Msg("output events dropped while streaming")
	}
}

func (rn *runner) autoSave(ctx context.Context) error {
	on, err := rn.app.Flags.Enabled(ctx, flags.AutoSave)
	if err != nil {
		return fmt.Errorf("read flags: %w", err)
	}
	if !on {
		return nil
	}

	snap := rn.conv.Snapshot()
	name := fmt.Sprintf("%s %s", snap.Mode, time.Now().Format(time.DateTime))
	if _, err := rn.conv.SaveVersion(ctx, name); err != nil {
		return fmt.Errorf("auto save: %w", err)
	}
	return nil
}

// save stores the session as a named version when name is set.
func (rn *runner) save(ctx context.Context, name string) error {
	if name == "" {
		return nil
	}
	if _, err := rn.conv.SaveVersion(ctx, name); err != nil {
		return fmt.Errorf("save version: %w", err)
	}
	return nil
}

// copyCode copies the latest code to the clipboard: the newest chat revision
// when there is one, otherwise the extracted code.
func (rn *runner) copyCode() error {
	code, ok := rn.latestCode()
	if !ok {
		return debugger.ErrNoExtractedCode
	}
	if err := rn.copyFn(code); err != nil {
		return fmt.Errorf("copy to clipboard: %w", err)
	}
	rn.out.Info("code copied to clipboard")
	return nil
}

func (rn *runner) latestCode() (string, bool) {
	if revs := rn.conv.Revisions(); len(revs) > 0 {
		return revs[len(revs)-1].Content, true
	}
	snap := rn.conv.Snapshot()
	if snap.ExtractedCode == nil {
		return "", false
	}
	return snap.ExtractedCode.Content, true
}

// send streams one chat turn and prints it with what it produced.
func (rn *runner) send(ctx context.Context, text string) error {
	rn.begin(styles.IconChat + " model")
	res, err := rn.conv.Send(ctx, text)
	if err != nil {
		rn.finish(rn.pendingContent())
		return err
	}

	rn.finish(res.Turn.Content)
	if res.Revision != nil {
		rn.out.Info(res.Revision.Name + " captured")
	}
	for _, f := range res.Files {
		rn.out.Info("file " + f.Name + " captured")
	}
	return nil
}

// pendingContent returns the content of the last model turn of the channel
// that received the failed send.
func (rn *runner) pendingContent() string {
	turns := rn.turns()
	if len(turns) == 0 || turns[len(turns)-1].Role != llm.RoleModel {
		return ""
	}
	return turns[len(turns)-1].Content
}

func (rn *runner) turns() []chat.Turn {
	if _, turns, open := rn.conv.Discussion(); open {
		return turns
	}
	if snap := rn.conv.Snapshot(); snap.Chat != nil {
		return snap.Chat.Turns()
	}
	return nil
}

// converse reads user turns until the user exits. Lines starting with a slash
// are commands:
//
//	/exit            end the dialogue
//	/attach PATH     stage a file for the next turn
//	/save NAME       save the session as a version
//	/copy            copy the latest code to the clipboard
//	/revisions       print captured revisions
//	/files           print captured files
func (rn *runner) converse(ctx context.Context, label string) error {
	for {
		text, err := rn.ask.Ask(label)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}

		text = strings.TrimSpace(text)
		if text == "" || text == "/exit" {
			return nil
		}

		if strings.HasPrefix(text, "/") {
			if err := rn.command(ctx, text); err != nil {
				rn.out.Error(err.Error())
			}
			continue
		}

		if err := rn.send(ctx, text); err != nil {
			if errors.Is(err, llm.ErrCancelled) || ctx.Err() != nil {
				return err
			}
			rn.out.Error(llm.Describe(err))
		}
	}
}

func (rn *runner) command(ctx context.Context, line string) error {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "/attach":
		att, err := loadAttachment(arg)
		if err != nil {
			return err
		}
		if err := rn.conv.Stage(att); err != nil {
			return err
		}
		rn.out.Info(fmt.Sprintf("staged %s (%s)", att.Name, att.MIMEType))
	case "/save":
		if err := rn.save(ctx, arg); err != nil {
			return err
		}
	case "/copy":
		return rn.copyCode()
	case "/revisions":
		rn.out.Artifacts(rn.conv.Revisions())
	case "/files":
		rn.out.Artifacts(rn.conv.Files())
	default:
		return fmt.Errorf("unknown command %q", name)
	}
	return nil
}

// chat opens a follow-up dialogue on the completed session and runs it until
// the user exits.
func (rn *runner) chat(ctx context.Context) error {
	if err := rn.conv.StartChat(ctx); err != nil {
		return fmt.Errorf("start chat: %w", err)
	}
	rn.out.Info("chat started, /exit to leave")
	if err := rn.converse(ctx, "you"); err != nil {
		return err
	}
	return rn.conv.EndChat()
}

// loadAttachment reads a file to send with the next chat turn.
func loadAttachment(path string) (llm.Attachment, error) {
	if path == "" {
		return llm.Attachment{}, errors.New("attach: path is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return llm.Attachment{}, fmt.Errorf("attach: %w", err)
	}

	mt := mime.TypeByExtension(filepath.Ext(path))
	if mt == "" {
		mt = http.DetectContentType(data)
	}
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = mt[:i]
	}

	return llm.Attachment{Name: filepath.Base(path), MIMEType: mt, Data: data}, nil
}
