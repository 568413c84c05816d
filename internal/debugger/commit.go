package debugger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/cancel"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/llm"
)

// CommitMessage is a generated commit message for the extracted code.
type CommitMessage struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// String formats the message for git.
func (m CommitMessage) String() string {
	if m.Body == "" {
		return m.Subject
	}
	return m.Subject + "\n\n" + m.Body
}

// CommitMessage generates a commit message for the most recent code: the
// latest chat revision, or the code extracted from the output. It does not
// take the primary operation slot.
func (c *Conversation) CommitMessage(ctx context.Context) (CommitMessage, error) {
	c.mu.Lock()
	code, ok := c.latestCode()
	lang := c.sess.Inputs.Language
	ctx = c.scope(ctx, "commit")
	c.mu.Unlock()

	if !ok {
		return CommitMessage{}, ErrNoExtractedCode
	}

	p, err := c.prompts.Commit(lang, code)
	if err != nil {
		return CommitMessage{}, fmt.Errorf("commit message: %w", err)
	}

	tok := cancel.New(ctx)
	defer tok.Cancel()

	var msg CommitMessage
	err = c.dispatcher.Structured(tok, "commit", llm.Request{
		Model:             c.opts.StructuredModel,
		SystemInstruction: p.System,
		Payload:           p.Payload,
	}, llm.CommitMessageSchema(), func(doc []byte) error {
		return decodeCommit(doc, &msg)
	})
	if err != nil {
		c.mu.Lock()
		c.report(err)
		c.mu.Unlock()
		return CommitMessage{}, err
	}
	return msg, nil
}

// latestCode returns the newest code available. Callers hold the lock.
func (c *Conversation) latestCode() (string, bool) {
	if c.sess.Chat != nil {
		if revs := c.sess.Chat.Revisions(); len(revs) > 0 {
			return revs[len(revs)-1].Content, true
		}
	}
	if c.sess.ExtractedCode != nil {
		return c.sess.ExtractedCode.Content, true
	}
	return "", false
}

func decodeCommit(doc []byte, msg *CommitMessage) error {
	if err := json.Unmarshal(doc, msg); err != nil {
		return err
	}
	msg.Subject = strings.TrimSpace(msg.Subject)
	msg.Body = strings.TrimSpace(msg.Body)
	if msg.Subject == "" {
		return errors.New("commit message has no subject")
	}
	return nil
}
