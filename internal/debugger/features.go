package debugger

import (
	"context"
	"fmt"

	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/chat"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/eventbus"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/features"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/llm"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/prompt"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/session"
)

// discussion is the sub-dialogue scoped to one feature. Its turns become the
// feature's transcript when it is finalized.
type discussion struct {
	feature  string
	channel  *chat.Channel
	dialogue llm.Dialogue
}

// RetrieveFeatures asks for the feature matrix of a completed comparison and
// moves to decision pending.
func (c *Conversation) RetrieveFeatures(ctx context.Context) error {
	c.mu.Lock()

	if c.sess.Mode != session.ModeComparison {
		c.mu.Unlock()
		return fmt.Errorf("%w: feature retrieval needs comparison mode", ErrInvalidTransition)
	}
	if c.sess.State != session.StateCompleted {
		st := c.sess.State
		c.mu.Unlock()
		return invalid("retrieve features", st)
	}

	p, err := c.prompts.Features(c.sess.Inputs)
	if err != nil {
		c.mu.Unlock()
		return fmt.Errorf("retrieve features: %w", err)
	}

	tok := c.dispatcher.Begin(c.scope(ctx, "features"))
	c.sess.Error = ""
	c.mu.Unlock()

	defer c.dispatcher.Release(tok)

	var tr *features.Tracker
	err = c.dispatcher.Structured(tok, string(prompt.KindFeatures), llm.Request{
		Model:             c.opts.StructuredModel,
		SystemInstruction: p.System,
		Payload:           p.Payload,
	}, llm.FeatureMatrixSchema(), func(doc []byte) error {
		var derr error
		tr, derr = features.Decode(doc)
		return derr
	})

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.dispatcher.Owns(tok) || c.sess.State != session.StateCompleted {
		return llm.ErrCancelled
	}
	if err != nil {
		if llm.Classify(err) == llm.KindCancelled {
			return err
		}
		c.fail(err)
		return err
	}

	c.sess.Features = tr
	c.move(session.StateDecisionPending)
	c.bus.PublishFeaturesRetrieved(eventbus.FeaturesRetrievedPayload{
		SessionID: c.sess.ID,
		Count:     len(tr.Matrix()),
	})
	return nil
}

// Decide records a decision for a feature. Discussed is recorded through
// FinalizeDiscussion so the transcript is kept with it.
func (c *Conversation) Decide(name string, d features.Decision) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sess.State != session.StateDecisionPending {
		return invalid("decide", c.sess.State)
	}
	if d == features.Discussed {
		return fmt.Errorf("%w: finalize a discussion to mark a feature discussed", features.ErrInvalidDecision)
	}
	return c.sess.Features.Decide(name, d)
}

// Undecide removes a feature's decision.
func (c *Conversation) Undecide(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sess.State != session.StateDecisionPending {
		return invalid("undecide", c.sess.State)
	}
	if !c.sess.Features.Has(name) {
		return fmt.Errorf("%w: %q", features.ErrUnknownFeature, name)
	}
	c.sess.Features.Undecide(name)
	return nil
}

// BeginDiscussion opens a sub-dialogue about one feature, anchored on the
// comparison. It returns a suggested opening question.
func (c *Conversation) BeginDiscussion(ctx context.Context, name string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sess.State != session.StateDecisionPending {
		return "", invalid("discuss", c.sess.State)
	}
	if c.discussion != nil {
		return "", fmt.Errorf("%w: %q", ErrDiscussionOpen, c.discussion.feature)
	}

	f, ok := c.sess.Features.Feature(name)
	if !ok {
		return "", fmt.Errorf("%w: %q", features.ErrUnknownFeature, name)
	}

	p, err := c.prompts.Discussion(f)
	if err != nil {
		return "", fmt.Errorf("discuss: %w", err)
	}

	ch := chat.New(chat.Anchor{Prompt: c.sess.LastPrompt, Response: c.sess.OutputText()})
	dlg, err := c.dispatcher.OpenDialogue(ctx, c.opts.Model, p.System, ch.History())
	if err != nil {
		c.report(err)
		return "", fmt.Errorf("discuss: %w", err)
	}

	c.discussion = &discussion{feature: name, channel: ch, dialogue: dlg}
	return p.Payload, nil
}

// Discussion reports the open discussion's feature and turns.
func (c *Conversation) Discussion() (string, []chat.Turn, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.discussion == nil {
		return "", nil, false
	}
	return c.discussion.feature, c.discussion.channel.Turns(), true
}

// FinalizeDiscussion records the open discussion as the feature's transcript
// with decision Discussed, then closes it.
func (c *Conversation) FinalizeDiscussion() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	d := c.discussion
	if d == nil {
		return ErrNoDiscussion
	}
	if d.channel.Pending() {
		return fmt.Errorf("finalize discussion: %w", chat.ErrTurnPending)
	}
	if err := c.sess.Features.FinalizeDiscussion(d.feature, d.channel.Turns()); err != nil {
		return fmt.Errorf("finalize discussion: %w", err)
	}

	c.discussion = nil
	return nil
}

// AbandonDiscussion closes the open discussion without recording it.
func (c *Conversation) AbandonDiscussion() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.discussion == nil {
		return ErrNoDiscussion
	}
	if c.discussion.channel.Pending() {
		c.dispatcher.Cancel()
		c.discussion.channel.Fail()
	}
	c.discussion = nil
	return nil
}

// Finalize issues the single synthesis request that merges both codebases
// according to the decisions, and blocks until it settles.
func (c *Conversation) Finalize(ctx context.Context) error {
	c.mu.Lock()

	if c.sess.State != session.StateDecisionPending {
		st := c.sess.State
		c.mu.Unlock()
		return invalid("finalize", st)
	}
	if !c.sess.DecisionComplete() {
		n := len(c.sess.Features.Undecided())
		c.mu.Unlock()
		return fmt.Errorf("%w: %d undecided", ErrIncomplete, n)
	}
	if c.discussion != nil {
		feature := c.discussion.feature
		c.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrDiscussionOpen, feature)
	}

	p, err := c.prompts.Finalize(c.sess.Inputs, c.sess.Features)
	if err != nil {
		c.mu.Unlock()
		return fmt.Errorf("finalize: %w", err)
	}

	tok := c.dispatcher.Begin(c.scope(ctx, "finalize"))
	c.sess.Analysis = &chat.Anchor{Prompt: c.sess.LastPrompt, Response: c.sess.OutputText()}
	c.sess.LastPrompt = p.Payload
	c.sess.ClearOutput()
	c.move(session.StateFinalizing)
	c.mu.Unlock()

	return c.runPrimary(tok, string(prompt.KindFinalize), llm.Request{
		Model:             c.opts.Model,
		SystemInstruction: p.System,
		Payload:           p.Payload,
	})
}

// ReopenDecisions returns a failed or cancelled synthesis to decision pending.
// The comparison analysis replaces the partial synthesis output, and every
// decision and transcript is kept.
func (c *Conversation) ReopenDecisions() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.sess.CanReopen() {
		return invalid("reopen decisions", c.sess.State)
	}

	if a := c.sess.Analysis; a != nil {
		c.sess.LastPrompt = a.Prompt
		c.sess.SetOutput(a.Response)
		c.sess.Analysis = nil
	}
	c.sess.Error = ""
	c.move(session.StateDecisionPending)
	return nil
}
