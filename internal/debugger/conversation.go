// Package debugger runs conversations against the remote generator: the
// session state machine, follow-up chat, the feature merge workflow, and
// version save and restore.
package debugger

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/cancel"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/eventbus"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/llm"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/logging"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/prompt"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/session"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/stream"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/version"
	"github.com/4ndr0666/4ndr0debugger-sub000/pkg/randid"
)

// Options configures a Conversation.
type Options struct {
	Model           string
	StructuredModel string
	// NewID returns fresh session ids. Defaults to a random 8 character id.
	NewID func() string
}

// Conversation owns one session and drives it through the state machine.
// Operations block until their call settles and may be invoked from other
// goroutines only to preempt or cancel; a mutex serializes every state
// change and chunk application.
type Conversation struct {
	mu         sync.Mutex
	sess       session.Session
	dialogue   llm.Dialogue
	discussion *discussion

	dispatcher *Dispatcher
	prompts    *prompt.Builder
	versions   *version.Store
	bus        *eventbus.EventBus
	log        zerolog.Logger
	opts       Options
}

// NewConversation creates an idle conversation in mode.
func NewConversation(
	mode session.Mode,
	dispatcher *Dispatcher,
	prompts *prompt.Builder,
	versions *version.Store,
	bus *eventbus.EventBus,
	log zerolog.Logger,
	opts Options,
) *Conversation {
	if opts.NewID == nil {
		opts.NewID = func() string { return randid.Prefixed("sess", 8) }
	}
	if opts.StructuredModel == "" {
		opts.StructuredModel = opts.Model
	}
	return &Conversation{
		sess:       session.New(opts.NewID(), mode),
		dispatcher: dispatcher,
		prompts:    prompts,
		versions:   versions,
		bus:        bus,
		log:        log,
		opts:       opts,
	}
}

// Snapshot returns a deep copy of the session.
func (c *Conversation) Snapshot() session.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess.Clone()
}

// State returns the current state.
func (c *Conversation) State() session.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess.State
}

// Submit starts the primary operation of the current mode and blocks until it
// settles. Submitting while another primary operation runs preempts it. The
// returned error wraps llm.ErrCancelled when this operation was cancelled or
// preempted.
func (c *Conversation) Submit(ctx context.Context, in session.Inputs) error {
	c.mu.Lock()

	st := c.sess.State
	if !st.CanSubmit() && !st.InFlight() {
		c.mu.Unlock()
		return invalid("submit", st)
	}
	if err := in.Validate(c.sess.Mode); err != nil {
		c.mu.Unlock()
		return fmt.Errorf("submit: %w", err)
	}

	p, err := c.prompts.Primary(c.sess.Mode, in)
	if err != nil {
		c.mu.Unlock()
		return fmt.Errorf("submit: %w", err)
	}

	tok := c.dispatcher.Begin(c.scope(ctx, "submit"))
	c.sess.Inputs = in
	c.sess.LastPrompt = p.Payload
	c.sess.ClearOutput()
	c.sess.Features = nil
	c.sess.Analysis = nil
	c.discussion = nil
	c.move(session.StateSubmitting)
	kind := string(prompt.ForMode(c.sess.Mode))
	c.mu.Unlock()

	return c.runPrimary(tok, kind, llm.Request{
		Model:             c.opts.Model,
		SystemInstruction: p.System,
		Payload:           p.Payload,
	})
}

// Cancel stops the running operation. A primary operation moves the session
// to cancelled with its partial output; a chat turn keeps its partial content
// and the chat stays active.
func (c *Conversation) Cancel() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sess.State.InFlight() {
		c.dispatcher.Cancel()
		c.move(session.StateCancelled)
		return nil
	}
	if c.dispatcher.Cancel() {
		return nil
	}
	return invalid("cancel", c.sess.State)
}

// SwitchMode discards the session and starts an idle one in mode.
func (c *Conversation) SwitchMode(mode session.Mode) error {
	if !mode.Valid() {
		return fmt.Errorf("switch mode: unknown mode %q", mode)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked(mode)
	return nil
}

// Reset discards the session and starts an idle one in the same mode.
func (c *Conversation) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked(c.sess.Mode)
}

func (c *Conversation) resetLocked(mode session.Mode) {
	c.dispatcher.Cancel()

	from := c.sess.State
	c.install(session.New(c.opts.NewID(), mode), nil)

	c.bus.PublishSessionReset(eventbus.SessionResetPayload{SessionID: c.sess.ID, Mode: mode})
	if from != session.StateIdle {
		c.bus.PublishSessionStateChanged(eventbus.SessionStateChangedPayload{
			SessionID: c.sess.ID,
			From:      from,
			To:        session.StateIdle,
		})
	}
	c.log.Debug().Str("session_id", c.sess.ID).Str("mode", string(mode)).Msg("session reset")
}

// scope tags ctx with the session id and operation for log events. Callers
// hold the lock.
func (c *Conversation) scope(ctx context.Context, op string) context.Context {
	return logging.WithOperation(logging.WithSessionID(ctx, c.sess.ID), op)
}

// install replaces the live session. Callers hold the lock.
func (c *Conversation) install(s session.Session, dlg llm.Dialogue) {
	c.sess = s
	c.dialogue = dlg
	c.discussion = nil
}

// runPrimary streams a primary operation into the session output.
func (c *Conversation) runPrimary(tok *cancel.Token, kind string, req llm.Request) error {
	defer c.dispatcher.Release(tok)

	var agg stream.Aggregator
	out := c.dispatcher.Stream(tok, kind, req, func(chunk string) bool {
		c.mu.Lock()
		defer c.mu.Unlock()

		if !c.dispatcher.Live(tok) {
			return false
		}
		if c.sess.State == session.StateSubmitting || c.sess.State == session.StateFinalizing {
			c.move(session.StateStreaming)
		}

		text := agg.Append(chunk)
		c.sess.SetOutput(text)
		c.bus.PublishSessionOutputUpdated(eventbus.SessionOutputUpdatedPayload{
			SessionID:     c.sess.ID,
			Chunk:         chunk,
			Output:        text,
			ExtractedCode: c.sess.ExtractedCode,
		})
		return true
	})

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.dispatcher.Owns(tok) || !c.sess.State.InFlight() {
		// Preempted, reset or already cancelled: the session belongs to
		// whoever moved it on.
		if out.Status == StatusFailed {
			return out.Err
		}
		return llm.ErrCancelled
	}

	switch out.Status {
	case StatusCompleted:
		c.sess.SetOutput(agg.Text())
		c.move(session.StateCompleted)
		return nil
	case StatusCancelled:
		c.move(session.StateCancelled)
		return out.Err
	default:
		c.fail(out.Err)
		return out.Err
	}
}

// move transitions the state machine and publishes the change. Callers hold
// the lock and have already checked the operation is allowed.
func (c *Conversation) move(to session.State) {
	from := c.sess.State
	if from == to {
		return
	}
	if !session.CanTransition(from, to) {
		c.log.Error().Str("from", string(from)).Str("to", string(to)).Msg("refused state transition")
		return
	}

	c.sess.State = to
	c.bus.PublishSessionStateChanged(eventbus.SessionStateChangedPayload{
		SessionID: c.sess.ID,
		From:      from,
		To:        to,
	})
}

// fail records err as the session error and moves to errored.
func (c *Conversation) fail(err error) {
	c.report(err)
	c.move(session.StateErrored)
}

// report sets the session error without changing state. Cancellation is
// never reported.
func (c *Conversation) report(err error) {
	kind := llm.Classify(err)
	if kind == llm.KindCancelled || kind == llm.KindNone {
		return
	}

	c.sess.Error = llm.Describe(err)
	c.log.Warn().Err(err).Str("kind", string(kind)).Msg("operation failed")
	c.bus.PublishSessionError(eventbus.SessionErrorPayload{
		SessionID: c.sess.ID,
		Kind:      kind,
		Message:   c.sess.Error,
	})
}
