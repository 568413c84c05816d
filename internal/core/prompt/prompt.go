// Package prompt renders the system instruction and payload for each kind of
// generation call.
package prompt

import (
	"fmt"

	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/chat"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/features"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/session"
	"github.com/4ndr0666/4ndr0debugger-sub000/pkg/tmpl"
)

// Kind identifies a prompt shape.
type Kind string

const (
	KindReview     Kind = "review"
	KindDebug      Kind = "debug"
	KindComparison Kind = "comparison"
	KindAudit      Kind = "audit"
	KindWorkbench  Kind = "workbench"
	KindFeatures   Kind = "features"
	KindFinalize   Kind = "finalize"
	KindDiscussion Kind = "discussion"
	KindChat       Kind = "chat"
	KindCommit     Kind = "commit"
)

// Kinds lists every prompt kind.
func Kinds() []Kind {
	return []Kind{
		KindReview, KindDebug, KindComparison, KindAudit, KindWorkbench,
		KindFeatures, KindFinalize, KindDiscussion, KindChat, KindCommit,
	}
}

// ForMode returns the prompt kind of a primary operation in mode.
func ForMode(m session.Mode) Kind {
	return Kind(m)
}

// Template is a pair of text/template sources.
type Template struct {
	System string `yaml:"system"`
	User   string `yaml:"user"`
}

// Prompt is a rendered system instruction and payload.
type Prompt struct {
	System  string
	Payload string
}

// Discussion is a discussed feature and its transcript, as embedded in the
// finalize payload.
type Discussion struct {
	Feature    features.Feature
	Transcript []chat.Turn
}

type finalizeData struct {
	session.Inputs
	Include   []features.Feature
	Remove    []features.Feature
	Discussed []Discussion
}

// Builder renders prompts from the default templates, with per-kind overrides.
type Builder struct {
	templates map[Kind]Template
}

// New returns a builder. Overrides replace the non-empty halves of the default
// template for their kind. Every resulting template is parsed up front.
func New(overrides map[Kind]Template) (*Builder, error) {
	templates := make(map[Kind]Template, len(defaults))
	for k, t := range defaults {
		templates[k] = t
	}
	for k, o := range overrides {
		t, ok := templates[k]
		if !ok {
			return nil, fmt.Errorf("unknown prompt kind %q", k)
		}
		if o.System != "" {
			t.System = o.System
		}
		if o.User != "" {
			t.User = o.User
		}
		templates[k] = t
	}

	for k, t := range templates {
		if _, err := tmpl.Parse(string(k)+".system", t.System); err != nil {
			return nil, fmt.Errorf("prompt %s system: %w", k, err)
		}
		if _, err := tmpl.Parse(string(k)+".user", t.User); err != nil {
			return nil, fmt.Errorf("prompt %s user: %w", k, err)
		}
	}

	return &Builder{templates: templates}, nil
}

// Primary renders the prompt for a mode's primary operation.
func (b *Builder) Primary(mode session.Mode, in session.Inputs) (Prompt, error) {
	return b.render(ForMode(mode), in)
}

// Features renders the feature matrix request for a comparison.
func (b *Builder) Features(in session.Inputs) (Prompt, error) {
	return b.render(KindFeatures, in)
}

// Finalize renders the single synthesis request that merges both codebases
// according to the decision partition.
func (b *Builder) Finalize(in session.Inputs, tr *features.Tracker) (Prompt, error) {
	p := tr.Partition()
	data := finalizeData{Inputs: in, Include: p.Include, Remove: p.Remove}
	for _, f := range p.Discussed {
		rec, _ := tr.Record(f.Name)
		data.Discussed = append(data.Discussed, Discussion{Feature: f, Transcript: rec.Transcript})
	}
	return b.render(KindFinalize, data)
}

// Discussion renders the opening of a feature's scoped sub-dialogue.
func (b *Builder) Discussion(f features.Feature) (Prompt, error) {
	return b.render(KindDiscussion, f)
}

// Chat renders the system instruction for follow-up dialogue.
func (b *Builder) Chat(in session.Inputs) (string, error) {
	p, err := b.render(KindChat, in)
	return p.System, err
}

// Commit renders the commit message request for extracted code.
func (b *Builder) Commit(language, code string) (Prompt, error) {
	return b.render(KindCommit, session.Inputs{Language: language, Code: code})
}

func (b *Builder) render(kind Kind, data any) (Prompt, error) {
	t, ok := b.templates[kind]
	if !ok {
		return Prompt{}, fmt.Errorf("no prompt for %q", kind)
	}

	system, err := tmpl.Render(t.System, data)
	if err != nil {
		return Prompt{}, fmt.Errorf("render %s system: %w", kind, err)
	}
	payload, err := tmpl.Render(t.User, data)
	if err != nil {
		return Prompt{}, fmt.Errorf("render %s payload: %w", kind, err)
	}

	return Prompt{System: system, Payload: payload}, nil
}
