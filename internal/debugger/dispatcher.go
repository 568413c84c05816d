package debugger

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/rs/zerolog"

	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/cancel"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/llm"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/logging"
)

// Status is how a dispatched call ended.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusFailed    Status = "failed"
)

// Outcome is the result of a streaming call. Err is nil only when Status is
// StatusCompleted and always wraps one of the llm sentinel errors otherwise.
type Outcome struct {
	Status Status
	Err    error
	Chunks int
}

// ApplyFunc receives each chunk in send order. Returning false stops the
// stream and resolves it as cancelled; the caller uses this when its token
// lost ownership between the dispatcher's check and the apply.
type ApplyFunc func(chunk string) bool

// Dispatcher owns the single outstanding call of a conversation. Starting a
// call cancels the previous one. Every error returned by the generator is
// classified here before it reaches the caller.
type Dispatcher struct {
	gen  llm.Generator
	slot cancel.Slot
	log  zerolog.Logger
}

// NewDispatcher creates a dispatcher over gen.
func NewDispatcher(gen llm.Generator, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{gen: gen, log: log}
}

// Begin takes a fresh token for a new call, cancelling any outstanding one.
func (d *Dispatcher) Begin(ctx context.Context) *cancel.Token {
	return d.slot.Replace(ctx)
}

// Live reports whether tok still owns the slot and has not been cancelled.
func (d *Dispatcher) Live(tok *cancel.Token) bool {
	return d.slot.IsCurrent(tok)
}

// Owns reports whether tok is still the slot's token, cancelled or not. A
// token that no longer owns the slot has been preempted.
func (d *Dispatcher) Owns(tok *cancel.Token) bool {
	return tok != nil && d.slot.Current() == tok
}

// Cancel cancels the outstanding call, reporting whether one was live.
func (d *Dispatcher) Cancel() bool {
	return d.slot.Cancel()
}

// Release frees tok once its call has been settled.
func (d *Dispatcher) Release(tok *cancel.Token) {
	d.slot.Release(tok)
}

// Ready reports whether calls can be attempted.
func (d *Dispatcher) Ready() error {
	if err := d.gen.Ready(); err != nil {
		return classify(err)
	}
	return nil
}

// Stream runs a primary generation under tok.
func (d *Dispatcher) Stream(tok *cancel.Token, kind string, req llm.Request, apply ApplyFunc) Outcome {
	if err := d.Ready(); err != nil {
		d.log.Warn().Str("kind", kind).Err(err).Msg("dispatch refused")
		return Outcome{Status: StatusFailed, Err: err}
	}
	return d.relay(tok, kind, req.Model, d.gen.StreamGenerate(tok.Context(), req), apply)
}

// Reply streams a dialogue turn under tok.
func (d *Dispatcher) Reply(tok *cancel.Token, model string, dlg llm.Dialogue, msg llm.Message, apply ApplyFunc) Outcome {
	return d.relay(tok, "chat", model, dlg.Send(tok.Context(), msg), apply)
}

// Structured runs a single structured call under tok and hands the document
// to decode. Decode failures are reported as llm.ErrStructuredDecode.
func (d *Dispatcher) Structured(tok *cancel.Token, kind string, req llm.Request, schema *llm.Schema, decode func([]byte) error) error {
	log := d.callLog(tok, kind, req.Model)

	if err := d.Ready(); err != nil {
		log.Warn().Err(err).Msg("dispatch refused")
		return err
	}

	start := time.Now()
	log.Debug().Msg("structured dispatch")

	doc, err := d.gen.GenerateStructured(tok.Context(), req, schema)
	if tok.Cancelled() {
		log.Debug().Dur("duration", time.Since(start)).Msg("structured cancelled")
		return llm.ErrCancelled
	}
	if err != nil {
		err = classify(err)
		log.Error().Err(err).Dur("duration", time.Since(start)).Msg("structured failed")
		return err
	}

	if err := decode(doc); err != nil {
		log.Error().Err(err).Int("bytes", len(doc)).Msg("structured decode failed")
		if errors.Is(err, llm.ErrStructuredDecode) {
			return err
		}
		return fmt.Errorf("%w: %w", llm.ErrStructuredDecode, err)
	}

	log.Info().Int("bytes", len(doc)).Dur("duration", time.Since(start)).Msg("structured completed")
	return nil
}

// OpenDialogue opens a dialogue seeded with history.
func (d *Dispatcher) OpenDialogue(ctx context.Context, model, systemInstruction string, history []llm.Message) (llm.Dialogue, error) {
	if err := d.Ready(); err != nil {
		return nil, err
	}
	dlg, err := d.gen.OpenDialogue(ctx, model, systemInstruction, history)
	if err != nil {
		return nil, classify(err)
	}
	return dlg, nil
}

func (d *Dispatcher) relay(tok *cancel.Token, kind, model string, seq iter.Seq2[string, error], apply ApplyFunc) Outcome {
	log := d.callLog(tok, kind, model)
	start := time.Now()
	log.Debug().Msg("stream dispatch")

	out := Outcome{Status: StatusCompleted}
	for chunk, err := range seq {
		if tok.Cancelled() {
			out.Status, out.Err = StatusCancelled, llm.ErrCancelled
			break
		}
		if err != nil {
			out.Err = classify(err)
			out.Status = StatusFailed
			if llm.Classify(out.Err) == llm.KindCancelled {
				out.Status = StatusCancelled
			}
			break
		}
		if !apply(chunk) {
			out.Status, out.Err = StatusCancelled, llm.ErrCancelled
			break
		}
		out.Chunks++
	}

	if out.Status == StatusCompleted && tok.Cancelled() {
		out.Status, out.Err = StatusCancelled, llm.ErrCancelled
	}

	ev := log.Info()
	if out.Status == StatusFailed {
		ev = log.Error().Err(out.Err)
	}
	ev.Str("status", string(out.Status)).
		Int("chunks", out.Chunks).
		Dur("duration", time.Since(start)).
		Msg("stream finished")

	return out
}

// callLog tags a call's log events. The token's context carries the session
// and operation.
func (d *Dispatcher) callLog(tok *cancel.Token, kind, model string) zerolog.Logger {
	return logging.Call(d.log, tok.Context(), kind, model)
}

// classify makes sure err wraps exactly one llm sentinel.
func classify(err error) error {
	switch llm.Classify(err) {
	case llm.KindCancelled:
		if errors.Is(err, llm.ErrCancelled) {
			return err
		}
		return fmt.Errorf("%w: %w", llm.ErrCancelled, err)
	case llm.KindConfiguration, llm.KindStructuredDecode:
		return err
	default:
		if errors.Is(err, llm.ErrTransport) {
			return err
		}
		return fmt.Errorf("%w: %w", llm.ErrTransport, err)
	}
}
