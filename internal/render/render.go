// Package render prints streamed responses, extracted code and chat turns to
// the terminal. Markdown is rendered with glamour when the output is a
// terminal; otherwise text is written as it arrives.
package render

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"golang.org/x/term"

	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/chat"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/llm"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/styles"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/stream"
)

// ThemeAuto picks the glamour style from the terminal background.
const ThemeAuto = "auto"

const defaultWidth = 100

// Options configures a Renderer.
type Options struct {
	Theme string
	// Width wraps rendered markdown. Zero uses the terminal width.
	Width int
	// Markdown enables glamour rendering on terminals.
	Markdown bool
}

// Renderer writes session output for a human reader. Chunk may be called
// from the event bus goroutine while Begin and Finish run on the caller's.
type Renderer struct {
	out    io.Writer
	status io.Writer
	tty    bool
	md     *glamour.TermRenderer

	mu       sync.Mutex
	seen     int
	printed  strings.Builder
	finished bool
}

// New creates a renderer writing to out with progress on status.
func New(out, status io.Writer, opts Options) (*Renderer, error) {
	r := &Renderer{out: out, status: status, tty: IsTerminal(out)}
	if !r.tty || !opts.Markdown {
		return r, nil
	}

	width := opts.Width
	if width <= 0 {
		width = terminalWidth(out)
	}

	style := glamour.WithStyles(styles.GlamourStyle(opts.Theme))
	if opts.Theme == ThemeAuto || opts.Theme == "" {
		style = glamour.WithAutoStyle()
	}

	md, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(width))
	if err != nil {
		return nil, fmt.Errorf("create markdown renderer: %w", err)
	}
	r.md = md
	return r, nil
}

// IsTerminal reports whether w is attached to a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func terminalWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			return width
		}
	}
	return defaultWidth
}

// Live reports whether chunks are written as they arrive. When markdown is
// rendered the text is held until Finish and only progress is shown.
func (r *Renderer) Live() bool { return r.md == nil }

// Begin resets progress for a new response.
func (r *Renderer) Begin(title string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seen = 0
	r.printed.Reset()
	r.finished = false
	fmt.Fprintln(r.status, styles.CommandHeaderStyle.Render(title))
}

// Chunk handles one streamed chunk. Chunks arriving after Finish are ignored.
func (r *Renderer) Chunk(chunk string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.finished {
		return
	}
	r.seen += len(chunk)
	if r.Live() {
		r.printed.WriteString(chunk)
		fmt.Fprint(r.out, chunk)
		return
	}
	if r.tty {
		fmt.Fprintf(r.status, "\r%s", styles.MutedStyle.Render(fmt.Sprintf("receiving... %s", bytesLabel(r.seen))))
	}
}

// Finish prints the complete response. In live mode only the part of text not
// already written is printed; chunk events are delivered asynchronously and may
// lag behind or be dropped, so text is the source of truth.
func (r *Renderer) Finish(text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.finished = true
	if r.Live() {
		printed := r.printed.String()
		rest := text
		if strings.HasPrefix(text, printed) {
			rest = text[len(printed):]
		} else if printed != "" {
			fmt.Fprintln(r.out)
			fmt.Fprintln(r.out, styles.DividerStyle.Render("───"))
		}
		fmt.Fprint(r.out, rest)
		if !strings.HasSuffix(text, "\n") {
			fmt.Fprintln(r.out)
		}
		return nil
	}

	if r.tty {
		fmt.Fprint(r.status, "\r\033[K")
	}
	out, err := r.Markdown(text)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(r.out, out)
	return err
}

// Markdown renders text with glamour, or returns it unchanged when markdown
// rendering is off.
func (r *Renderer) Markdown(text string) (string, error) {
	if r.md == nil {
		return text, nil
	}
	out, err := r.md.Render(text)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return out, nil
}

// Code prints an extracted block in a titled box.
func (r *Renderer) Code(title string, b stream.Block) {
	header := styles.ArtifactNameStyle.Render(title)
	if b.Language != "" {
		header += styles.MutedStyle.Render(" (" + b.Language + ")")
	}
	body := b.Content
	if r.tty {
		body = styles.CodeBoxStyle.Render(body)
	}
	fmt.Fprintln(r.out, lipgloss.JoinVertical(lipgloss.Left, header, body))
}

// Artifacts prints named artifacts, one box each.
func (r *Renderer) Artifacts(list []stream.Artifact) {
	for _, a := range list {
		r.Code(styles.IconForPath(a.Name)+a.Name, stream.Block{Content: a.Content})
	}
}

// Turn prints a recorded chat turn with its role label.
func (r *Renderer) Turn(t chat.Turn) error {
	label := styles.UserTurnStyle.Render("you")
	if t.Role == llm.RoleModel {
		label = styles.ModelTurnStyle.Render("model")
	}

	r.mu.Lock()
	r.seen = 0
	r.printed.Reset()
	fmt.Fprintln(r.out, label+styles.DividerStyle.Render(" ─"))
	r.mu.Unlock()

	return r.Finish(t.Content)
}

// Info prints a notice to the status writer.
func (r *Renderer) Info(msg string) {
	fmt.Fprintln(r.status, styles.SuccessStyle.Render(styles.IconCheck)+" "+msg)
}

// Warn prints a warning to the status writer.
func (r *Renderer) Warn(msg string) {
	fmt.Fprintln(r.status, styles.WarningStyle.Render(styles.IconWarn+" "+msg))
}

// Error prints a user-facing error to the status writer.
func (r *Renderer) Error(msg string) {
	fmt.Fprintln(r.status, styles.ErrorStyle.Render(styles.IconCross+" "+msg))
}

func bytesLabel(n int) string {
	return humanize.Bytes(uint64(max(n, 0))) //nolint:gosec // clamped above
}

// Prompt prints a rendered prompt payload to the status writer.
func (r *Renderer) Prompt(payload string) {
	fmt.Fprintln(r.status, styles.DividerStyle.Render("prompt ───"))
	fmt.Fprintln(r.status, styles.MutedStyle.Render(payload))
	fmt.Fprintln(r.status, styles.DividerStyle.Render("───"))
}
