package debugger

import (
	"context"
	"fmt"

	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/chat"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/eventbus"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/llm"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/session"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/stream"
)

// StartChat opens a follow-up dialogue anchored on the last prompt and its
// response.
func (c *Conversation) StartChat(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sess.State != session.StateCompleted || c.sess.Output == nil {
		return invalid("start chat", c.sess.State)
	}

	ch := chat.New(chat.Anchor{Prompt: c.sess.LastPrompt, Response: *c.sess.Output})
	dlg, err := c.openChatDialogue(ctx, c.sess.Inputs, ch)
	if err != nil {
		c.report(err)
		return fmt.Errorf("start chat: %w", err)
	}

	c.sess.Chat = ch
	c.dialogue = dlg
	c.move(session.StateChatActive)
	return nil
}

// EndChat closes the follow-up dialogue and returns to completed. A pending
// turn is cancelled.
func (c *Conversation) EndChat() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sess.State != session.StateChatActive {
		return invalid("end chat", c.sess.State)
	}
	if c.sess.Chat != nil && c.sess.Chat.Pending() {
		c.dispatcher.Cancel()
		c.sess.Chat.Fail()
	}

	c.sess.Chat = nil
	c.dialogue = nil
	c.move(session.StateCompleted)
	return nil
}

// Send streams one chat turn. While a feature discussion is open the turn goes
// to the discussion; otherwise the chat must be active.
func (c *Conversation) Send(ctx context.Context, text string) (chat.Result, error) {
	c.mu.Lock()

	ch, dlg, feature, err := c.activeChannel(ctx)
	if err != nil {
		c.mu.Unlock()
		return chat.Result{}, err
	}

	msg, err := ch.Begin(text)
	if err != nil {
		c.mu.Unlock()
		return chat.Result{}, fmt.Errorf("send: %w", err)
	}

	tok := c.dispatcher.Begin(c.scope(ctx, "chat"))
	c.sess.Error = ""
	sessionID := c.sess.ID
	c.mu.Unlock()

	defer c.dispatcher.Release(tok)

	out := c.dispatcher.Reply(tok, c.opts.Model, dlg, msg, func(chunk string) bool {
		c.mu.Lock()
		defer c.mu.Unlock()

		if !c.dispatcher.Live(tok) || !c.holds(ch) {
			return false
		}
		content, err := ch.Append(chunk)
		if err != nil {
			return false
		}
		c.bus.PublishSessionOutputUpdated(eventbus.SessionOutputUpdatedPayload{
			SessionID: sessionID,
			Chunk:     chunk,
			Output:    content,
			Chat:      true,
		})
		return true
	})

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.holds(ch) || !ch.Pending() {
		return chat.Result{}, llm.ErrCancelled
	}
	if !c.dispatcher.Owns(tok) {
		ch.Fail()
		return chat.Result{}, llm.ErrCancelled
	}

	switch out.Status {
	case StatusCompleted:
		res, err := ch.Complete()
		if err != nil {
			return chat.Result{}, fmt.Errorf("send: %w", err)
		}
		c.bus.PublishChatTurnCompleted(eventbus.ChatTurnCompletedPayload{
			SessionID: c.sess.ID,
			Feature:   feature,
			Result:    res,
		})
		return res, nil
	case StatusCancelled:
		ch.Fail()
		return chat.Result{}, out.Err
	default:
		ch.Fail()
		c.report(out.Err)
		return chat.Result{}, out.Err
	}
}

// Stage queues an attachment for the next turn of the active channel.
func (c *Conversation) Stage(att llm.Attachment) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := c.stagingChannel()
	if ch == nil {
		return invalid("stage attachment", c.sess.State)
	}
	ch.Stage(att)
	return nil
}

// Staged returns the attachments queued for the next turn.
func (c *Conversation) Staged() []llm.Attachment {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ch := c.stagingChannel(); ch != nil {
		return ch.Staged()
	}
	return nil
}

// Revisions returns the code revisions extracted from chat turns.
func (c *Conversation) Revisions() []stream.Artifact {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess.Chat == nil {
		return nil
	}
	return c.sess.Chat.Revisions()
}

// Files returns the file artifacts extracted from chat turns.
func (c *Conversation) Files() []stream.Artifact {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess.Chat == nil {
		return nil
	}
	return c.sess.Chat.Files()
}

// RenameRevision renames the chat revision at index i.
func (c *Conversation) RenameRevision(i int, name string) error {
	return c.withChat("rename revision", func(ch *chat.Channel) error { return ch.RenameRevision(i, name) })
}

// DeleteRevision removes the chat revision at index i.
func (c *Conversation) DeleteRevision(i int) error {
	return c.withChat("delete revision", func(ch *chat.Channel) error { return ch.DeleteRevision(i) })
}

// ClearRevisions empties the revision list. Turn history is kept.
func (c *Conversation) ClearRevisions() error {
	return c.withChat("clear revisions", func(ch *chat.Channel) error { ch.ClearRevisions(); return nil })
}

// RenameFile renames the chat file artifact at index i.
func (c *Conversation) RenameFile(i int, name string) error {
	return c.withChat("rename file", func(ch *chat.Channel) error { return ch.RenameFile(i, name) })
}

// DeleteFile removes the chat file artifact at index i.
func (c *Conversation) DeleteFile(i int) error {
	return c.withChat("delete file", func(ch *chat.Channel) error { return ch.DeleteFile(i) })
}

// ClearFiles empties the file artifact list. Turn history is kept.
func (c *Conversation) ClearFiles() error {
	return c.withChat("clear files", func(ch *chat.Channel) error { ch.ClearFiles(); return nil })
}

func (c *Conversation) withChat(op string, fn func(*chat.Channel) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sess.Chat == nil {
		return invalid(op, c.sess.State)
	}
	if err := fn(c.sess.Chat); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// activeChannel resolves where the next turn goes, opening the main dialogue
// if a restore left it closed. Callers hold the lock.
func (c *Conversation) activeChannel(ctx context.Context) (*chat.Channel, llm.Dialogue, string, error) {
	if d := c.discussion; d != nil {
		return d.channel, d.dialogue, d.feature, nil
	}

	if c.sess.State != session.StateChatActive || c.sess.Chat == nil {
		return nil, nil, "", invalid("send", c.sess.State)
	}

	if c.dialogue == nil {
		dlg, err := c.openChatDialogue(ctx, c.sess.Inputs, c.sess.Chat)
		if err != nil {
			c.report(err)
			return nil, nil, "", fmt.Errorf("send: %w", err)
		}
		c.dialogue = dlg
	}
	return c.sess.Chat, c.dialogue, "", nil
}

func (c *Conversation) stagingChannel() *chat.Channel {
	if c.discussion != nil {
		return c.discussion.channel
	}
	if c.sess.State == session.StateChatActive {
		return c.sess.Chat
	}
	return nil
}

// holds reports whether ch is still attached to the live session.
func (c *Conversation) holds(ch *chat.Channel) bool {
	if ch == nil {
		return false
	}
	if c.sess.Chat == ch {
		return true
	}
	return c.discussion != nil && c.discussion.channel == ch
}

// openChatDialogue opens a remote dialogue seeded with the channel history.
func (c *Conversation) openChatDialogue(ctx context.Context, in session.Inputs, ch *chat.Channel) (llm.Dialogue, error) {
	system, err := c.prompts.Chat(in)
	if err != nil {
		return nil, err
	}
	return c.dispatcher.OpenDialogue(ctx, c.opts.Model, system, ch.History())
}
