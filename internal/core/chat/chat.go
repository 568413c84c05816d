// Package chat holds the follow-up dialogue state: the frozen anchor pair,
// ordered turns, staged attachments, and the artifacts extracted from each
// model turn.
package chat

import (
	"errors"
	"fmt"
	"slices"

	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/llm"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/stream"
)

var (
	// ErrTurnPending is returned when a turn is started while the previous
	// model response is still streaming.
	ErrTurnPending = errors.New("a model response is still pending")
	// ErrNoPendingTurn is returned when a chunk arrives with no open turn.
	ErrNoPendingTurn = errors.New("no model response is pending")
	// ErrArtifactNotFound is returned for an out-of-range artifact index.
	ErrArtifactNotFound = errors.New("artifact not found")
)

// Anchor is the prompt and response that opened the dialogue. It is never
// modified after the channel is created.
type Anchor struct {
	Prompt   string `json:"prompt"`
	Response string `json:"response"`
}

// Turn is one message in the dialogue.
type Turn struct {
	Role        llm.Role         `json:"role"`
	Content     string           `json:"content"`
	Attachments []llm.Attachment `json:"attachments,omitempty"`
}

// Result is what a completed model turn produced.
type Result struct {
	Turn     Turn
	Revision *stream.Artifact
	Files    []stream.Artifact
}

// Channel is an open follow-up dialogue. It is not safe for concurrent use;
// the owning conversation serializes access.
type Channel struct {
	anchor    Anchor
	turns     []Turn
	staged    []llm.Attachment
	revisions []stream.Artifact
	files     []stream.Artifact
	pending   bool
	revSeq    int
}

// New returns a channel anchored on the given prompt and response.
func New(anchor Anchor) *Channel {
	return &Channel{anchor: anchor}
}

// Anchor returns the frozen anchor pair.
func (c *Channel) Anchor() Anchor { return c.anchor }

// Turns returns a copy of the turn list.
func (c *Channel) Turns() []Turn { return cloneTurns(c.turns) }

// Pending reports whether a model turn is awaiting completion.
func (c *Channel) Pending() bool { return c.pending }

// Stage queues an attachment for the next user turn.
func (c *Channel) Stage(att llm.Attachment) {
	c.staged = append(c.staged, att)
}

// Staged returns the attachments queued for the next user turn.
func (c *Channel) Staged() []llm.Attachment {
	return slices.Clone(c.staged)
}

// Begin appends the user turn, moving staged attachments onto it, followed by
// an empty model turn that subsequent chunks stream into. The returned message
// is what must be sent to the remote dialogue.
func (c *Channel) Begin(text string) (llm.Message, error) {
	if c.pending {
		return llm.Message{}, ErrTurnPending
	}

	attachments := c.staged
	c.staged = nil

	c.turns = append(c.turns,
		Turn{Role: llm.RoleUser, Content: text, Attachments: attachments},
		Turn{Role: llm.RoleModel},
	)
	c.pending = true

	return llm.Message{Role: llm.RoleUser, Text: text, Attachments: slices.Clone(attachments)}, nil
}

// Append adds a streamed chunk to the pending model turn and returns its
// running content.
func (c *Channel) Append(chunk string) (string, error) {
	if !c.pending {
		return "", ErrNoPendingTurn
	}
	last := &c.turns[len(c.turns)-1]
	last.Content += chunk
	return last.Content, nil
}

// Complete closes the pending model turn and records the revision and file
// artifacts extracted from it.
func (c *Channel) Complete() (Result, error) {
	if !c.pending {
		return Result{}, ErrNoPendingTurn
	}
	c.pending = false

	turn := c.turns[len(c.turns)-1]
	res := Result{Turn: turn}

	if block, ok := stream.FinalCodeBlock(turn.Content); ok {
		c.revSeq++
		rev := stream.Artifact{Name: fmt.Sprintf("Revision %d", c.revSeq), Content: block.Content}
		c.revisions = append(c.revisions, rev)
		res.Revision = &rev
	}

	if files := stream.FileBlocks(turn.Content); len(files) > 0 {
		c.files = append(c.files, files...)
		res.Files = files
	}

	return res, nil
}

// Fail closes the pending model turn, keeping whatever partial content it
// received. No artifacts are extracted. An exchange whose reply never
// received a chunk is dropped, and its attachments go back to staging.
func (c *Channel) Fail() {
	if !c.pending {
		return
	}
	c.pending = false

	n := len(c.turns)
	if c.turns[n-1].Content != "" {
		return
	}
	c.staged = append(c.turns[n-2].Attachments, c.staged...)
	c.turns = c.turns[:n-2]
}

// History returns the dialogue as sent to the remote: the anchor prompt and
// response first, then every settled turn in order.
func (c *Channel) History() []llm.Message {
	msgs := make([]llm.Message, 0, len(c.turns)+2)
	msgs = append(msgs,
		llm.Message{Role: llm.RoleUser, Text: c.anchor.Prompt},
		llm.Message{Role: llm.RoleModel, Text: c.anchor.Response},
	)

	turns := c.turns
	if c.pending {
		// The open exchange is sent separately.
		turns = turns[:len(turns)-2]
	}
	for i, t := range turns {
		if unanswered(turns, i) {
			continue
		}
		msgs = append(msgs, llm.Message{Role: t.Role, Text: t.Content, Attachments: slices.Clone(t.Attachments)})
	}
	return msgs
}

// Revisions returns the extracted code revisions.
func (c *Channel) Revisions() []stream.Artifact { return slices.Clone(c.revisions) }

// Files returns the extracted file artifacts.
func (c *Channel) Files() []stream.Artifact { return slices.Clone(c.files) }

// RenameRevision renames the revision at index i.
func (c *Channel) RenameRevision(i int, name string) error { return rename(c.revisions, i, name) }

// DeleteRevision removes the revision at index i.
func (c *Channel) DeleteRevision(i int) error {
	out, err := remove(c.revisions, i)
	if err != nil {
		return err
	}
	c.revisions = out
	return nil
}

// ClearRevisions removes every revision.
func (c *Channel) ClearRevisions() { c.revisions = nil }

// RenameFile renames the file artifact at index i.
func (c *Channel) RenameFile(i int, name string) error { return rename(c.files, i, name) }

// DeleteFile removes the file artifact at index i.
func (c *Channel) DeleteFile(i int) error {
	out, err := remove(c.files, i)
	if err != nil {
		return err
	}
	c.files = out
	return nil
}

// ClearFiles removes every file artifact.
func (c *Channel) ClearFiles() { c.files = nil }

// Clone returns a deep copy of the channel.
func (c *Channel) Clone() *Channel {
	if c == nil {
		return nil
	}
	return &Channel{
		anchor:    c.anchor,
		turns:     cloneTurns(c.turns),
		staged:    slices.Clone(c.staged),
		revisions: slices.Clone(c.revisions),
		files:     slices.Clone(c.files),
		pending:   c.pending,
		revSeq:    c.revSeq,
	}
}

// unanswered reports whether turns[i] belongs to an exchange whose model
// reply is empty. The remote rejects messages without content.
func unanswered(turns []Turn, i int) bool {
	switch turns[i].Role {
	case llm.RoleModel:
		return turns[i].Content == ""
	default:
		return i+1 < len(turns) && turns[i+1].Role == llm.RoleModel && turns[i+1].Content == ""
	}
}

// nextRevisionSeq returns the highest "Revision N" suffix among revs.
func nextRevisionSeq(revs []stream.Artifact) int {
	seq := 0
	for _, r := range revs {
		var n int
		if _, err := fmt.Sscanf(r.Name, "Revision %d", &n); err == nil && n > seq {
			seq = n
		}
	}
	return seq
}

func rename(list []stream.Artifact, i int, name string) error {
	if i < 0 || i >= len(list) {
		return fmt.Errorf("%w: index %d", ErrArtifactNotFound, i)
	}
	list[i].Name = name
	return nil
}

func remove(list []stream.Artifact, i int) ([]stream.Artifact, error) {
	if i < 0 || i >= len(list) {
		return list, fmt.Errorf("%w: index %d", ErrArtifactNotFound, i)
	}
	return slices.Delete(list, i, i+1), nil
}

func cloneTurns(turns []Turn) []Turn {
	if turns == nil {
		return nil
	}
	out := make([]Turn, len(turns))
	for i, t := range turns {
		out[i] = t
		out[i].Attachments = slices.Clone(t.Attachments)
	}
	return out
}
