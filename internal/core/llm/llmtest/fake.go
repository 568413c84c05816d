// Package llmtest provides a scripted llm.Generator for tests.
package llmtest

import (
	"context"
	"iter"
	"sync"

	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/llm"
)

// Script describes the response to a single streaming call.
type Script struct {
	Chunks []string
	// Err is yielded after all chunks when non-nil.
	Err error
	// Step, when set, gates every chunk: one receive releases one chunk.
	Step chan struct{}
	// Started is closed when the stream begins iterating.
	Started chan struct{}
	// IgnoreCancel keeps yielding after the context is cancelled so callers
	// can prove late chunks are discarded.
	IgnoreCancel bool
}

// Fake is a goroutine-safe scripted generator. Streams are consumed in order;
// when exhausted, an empty successful stream is returned.
type Fake struct {
	ReadyErr error

	mu            sync.Mutex
	streams       []Script
	structured    [][]byte
	structuredErr error
	replies       []Script
	requests      []llm.Request
	schemas       []*llm.Schema
	dialogues     []*Dialogue
}

var _ llm.Generator = (*Fake)(nil)

// New returns a fake that answers streaming calls with scripts in order.
func New(streams ...Script) *Fake {
	return &Fake{streams: streams}
}

// QueueStream appends scripts for subsequent StreamGenerate calls.
func (f *Fake) QueueStream(s ...Script) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.streams = append(f.streams, s...)
}

// QueueStructured appends JSON documents for subsequent GenerateStructured calls.
func (f *Fake) QueueStructured(docs ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range docs {
		f.structured = append(f.structured, []byte(d))
	}
}

// FailStructured makes every further structured call return err.
func (f *Fake) FailStructured(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.structuredErr = err
}

// QueueReply appends scripts answering Dialogue.Send calls across all dialogues.
func (f *Fake) QueueReply(s ...Script) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies = append(f.replies, s...)
}

// Requests returns every request passed to StreamGenerate or GenerateStructured.
func (f *Fake) Requests() []llm.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]llm.Request, len(f.requests))
	copy(out, f.requests)
	return out
}

// Schemas returns the schema passed to each structured call.
func (f *Fake) Schemas() []*llm.Schema {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*llm.Schema, len(f.schemas))
	copy(out, f.schemas)
	return out
}

// Dialogues returns every dialogue opened so far.
func (f *Fake) Dialogues() []*Dialogue {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*Dialogue, len(f.dialogues))
	copy(out, f.dialogues)
	return out
}

func (f *Fake) Ready() error { return f.ReadyErr }

func (f *Fake) StreamGenerate(ctx context.Context, req llm.Request) iter.Seq2[string, error] {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	var s Script
	if len(f.streams) > 0 {
		s = f.streams[0]
		f.streams = f.streams[1:]
	}
	f.mu.Unlock()

	return play(ctx, s)
}

func (f *Fake) GenerateStructured(ctx context.Context, req llm.Request, schema *llm.Schema) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, req)
	f.schemas = append(f.schemas, schema)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.structuredErr != nil {
		return nil, f.structuredErr
	}
	if len(f.structured) == 0 {
		return []byte("null"), nil
	}
	doc := f.structured[0]
	f.structured = f.structured[1:]
	return doc, nil
}

func (f *Fake) OpenDialogue(_ context.Context, model, systemInstruction string, history []llm.Message) (llm.Dialogue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	d := &Dialogue{
		fake:              f,
		Model:             model,
		SystemInstruction: systemInstruction,
		Seed:              append([]llm.Message(nil), history...),
	}
	f.dialogues = append(f.dialogues, d)
	return d, nil
}

func (f *Fake) nextReply() Script {
	f.mu.Lock()
	defer f.mu.Unlock()
	var s Script
	if len(f.replies) > 0 {
		s = f.replies[0]
		f.replies = f.replies[1:]
	}
	return s
}

// Dialogue records the messages sent through it.
type Dialogue struct {
	fake              *Fake
	Model             string
	SystemInstruction string
	Seed              []llm.Message

	mu   sync.Mutex
	sent []llm.Message
}

// Sent returns the messages sent after the dialogue was opened.
func (d *Dialogue) Sent() []llm.Message {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]llm.Message, len(d.sent))
	copy(out, d.sent)
	return out
}

func (d *Dialogue) Send(ctx context.Context, msg llm.Message) iter.Seq2[string, error] {
	d.mu.Lock()
	d.sent = append(d.sent, msg)
	d.mu.Unlock()
	return play(ctx, d.fake.nextReply())
}

func play(ctx context.Context, s Script) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if s.Started != nil {
			close(s.Started)
		}

		for _, chunk := range s.Chunks {
			if s.Step != nil {
				if s.IgnoreCancel {
					<-s.Step
				} else {
					select {
					case <-s.Step:
					case <-ctx.Done():
						yield("", ctx.Err())
						return
					}
				}
			}

			if !s.IgnoreCancel && ctx.Err() != nil {
				yield("", ctx.Err())
				return
			}

			if !yield(chunk, nil) {
				return
			}
		}

		if s.Err != nil {
			yield("", s.Err)
		}
	}
}
