// Package features tracks the per-feature merge decisions made when two
// codebases are reconciled.
package features

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/chat"
)

var (
	// ErrUnknownFeature is returned when a decision names a feature that is not
	// in the matrix.
	ErrUnknownFeature = errors.New("unknown feature")
	// ErrDuplicateFeature is returned when the matrix repeats a feature name.
	ErrDuplicateFeature = errors.New("duplicate feature name")
	// ErrInvalidDecision is returned for a decision outside the known set.
	ErrInvalidDecision = errors.New("invalid decision")
)

// Source says which codebase a feature comes from.
type Source string

const (
	SourceUniqueA Source = "unique_a"
	SourceUniqueB Source = "unique_b"
	SourceCommon  Source = "common"
)

// Valid reports whether s is a known source.
func (s Source) Valid() bool {
	switch s {
	case SourceUniqueA, SourceUniqueB, SourceCommon:
		return true
	}
	return false
}

// Decision is the user's verdict on a feature.
type Decision string

const (
	Include   Decision = "include"
	Remove    Decision = "remove"
	Discussed Decision = "discussed"
)

// Valid reports whether d is a known decision.
func (d Decision) Valid() bool {
	switch d {
	case Include, Remove, Discussed:
		return true
	}
	return false
}

// Feature is a named unit of functionality found while comparing codebases.
type Feature struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Source      Source `json:"source"`
}

// Record is the decision recorded for one feature. Transcript is only set for
// discussed features.
type Record struct {
	Decision   Decision    `json:"decision"`
	Transcript []chat.Turn `json:"transcript,omitempty"`
}

// Partition groups the matrix by decision, each group in matrix order.
type Partition struct {
	Include   []Feature
	Remove    []Feature
	Discussed []Feature
}

// Tracker holds the feature matrix and the decisions made so far. Decision
// keys are always a subset of the matrix names.
type Tracker struct {
	matrix    []Feature
	decisions map[string]Record
}

// New returns a tracker over matrix. Feature names must be unique and every
// source must be known.
func New(matrix []Feature) (*Tracker, error) {
	seen := make(map[string]struct{}, len(matrix))
	for _, f := range matrix {
		if _, ok := seen[f.Name]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateFeature, f.Name)
		}
		if !f.Source.Valid() {
			return nil, fmt.Errorf("feature %q: invalid source %q", f.Name, f.Source)
		}
		seen[f.Name] = struct{}{}
	}

	return &Tracker{
		matrix:    slices.Clone(matrix),
		decisions: make(map[string]Record, len(matrix)),
	}, nil
}

// Decode parses a JSON feature list, returned by a structured call, into a
// tracker.
func Decode(doc []byte) (*Tracker, error) {
	var matrix []Feature
	if err := json.Unmarshal(doc, &matrix); err != nil {
		return nil, fmt.Errorf("decode feature matrix: %w", err)
	}
	if matrix == nil {
		return nil, errors.New("decode feature matrix: expected a list")
	}
	if len(matrix) == 0 {
		return nil, errors.New("decode feature matrix: no features identified")
	}
	for i, f := range matrix {
		if f.Name == "" {
			return nil, fmt.Errorf("decode feature matrix: feature %d has no name", i)
		}
	}
	return New(matrix)
}

// Matrix returns the features in order.
func (t *Tracker) Matrix() []Feature { return slices.Clone(t.matrix) }

// Has reports whether name is in the matrix.
func (t *Tracker) Has(name string) bool {
	return slices.ContainsFunc(t.matrix, func(f Feature) bool { return f.Name == name })
}

// Feature returns the named feature.
func (t *Tracker) Feature(name string) (Feature, bool) {
	i := slices.IndexFunc(t.matrix, func(f Feature) bool { return f.Name == name })
	if i < 0 {
		return Feature{}, false
	}
	return t.matrix[i], true
}

// Decide records or overwrites the decision for name. Use FinalizeDiscussion
// to record a discussed feature together with its transcript.
func (t *Tracker) Decide(name string, d Decision) error {
	if !t.Has(name) {
		return fmt.Errorf("%w: %q", ErrUnknownFeature, name)
	}
	if !d.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidDecision, d)
	}
	t.decisions[name] = Record{Decision: d}
	return nil
}

// Undecide removes any decision recorded for name.
func (t *Tracker) Undecide(name string) {
	delete(t.decisions, name)
}

// FinalizeDiscussion records name as discussed with a copy of transcript.
func (t *Tracker) FinalizeDiscussion(name string, transcript []chat.Turn) error {
	if !t.Has(name) {
		return fmt.Errorf("%w: %q", ErrUnknownFeature, name)
	}
	t.decisions[name] = Record{Decision: Discussed, Transcript: copyTurns(transcript)}
	return nil
}

// Record returns the decision for name.
func (t *Tracker) Record(name string) (Record, bool) {
	r, ok := t.decisions[name]
	if !ok {
		return Record{}, false
	}
	r.Transcript = copyTurns(r.Transcript)
	return r, true
}

// Decisions returns a copy of all recorded decisions.
func (t *Tracker) Decisions() map[string]Record {
	out := make(map[string]Record, len(t.decisions))
	for k, r := range t.decisions {
		r.Transcript = copyTurns(r.Transcript)
		out[k] = r
	}
	return out
}

// Undecided returns the features that still need a decision, in matrix order.
func (t *Tracker) Undecided() []Feature {
	var out []Feature
	for _, f := range t.matrix {
		if _, ok := t.decisions[f.Name]; !ok {
			out = append(out, f)
		}
	}
	return out
}

// IsComplete reports whether every feature has a decision.
func (t *Tracker) IsComplete() bool {
	for _, f := range t.matrix {
		if _, ok := t.decisions[f.Name]; !ok {
			return false
		}
	}
	return true
}

// Partition groups decided features by decision. Undecided features are
// omitted.
func (t *Tracker) Partition() Partition {
	var p Partition
	for _, f := range t.matrix {
		r, ok := t.decisions[f.Name]
		if !ok {
			continue
		}
		switch r.Decision {
		case Include:
			p.Include = append(p.Include, f)
		case Remove:
			p.Remove = append(p.Remove, f)
		case Discussed:
			p.Discussed = append(p.Discussed, f)
		}
	}
	return p
}

// Clone returns a deep copy of the tracker.
func (t *Tracker) Clone() *Tracker {
	if t == nil {
		return nil
	}
	return &Tracker{matrix: t.Matrix(), decisions: t.Decisions()}
}

// Restore rebuilds a tracker from a matrix and saved decisions. Decisions for
// names missing from the matrix are rejected.
func Restore(matrix []Feature, decisions map[string]Record) (*Tracker, error) {
	t, err := New(matrix)
	if err != nil {
		return nil, err
	}
	for name, r := range decisions {
		if !t.Has(name) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownFeature, name)
		}
		if !r.Decision.Valid() {
			return nil, fmt.Errorf("feature %q: %w: %q", name, ErrInvalidDecision, r.Decision)
		}
		r.Transcript = copyTurns(r.Transcript)
		t.decisions[name] = r
	}
	return t, nil
}

func copyTurns(turns []chat.Turn) []chat.Turn {
	if turns == nil {
		return nil
	}
	out := make([]chat.Turn, len(turns))
	for i, tr := range turns {
		out[i] = tr
		out[i].Attachments = slices.Clone(tr.Attachments)
	}
	return out
}
