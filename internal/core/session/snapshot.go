package session

import (
	"fmt"

	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/chat"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/features"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/stream"
)

// Snapshot is the serializable form of a Session.
type Snapshot struct {
	Mode          Mode                       `json:"mode"`
	State         State                      `json:"state"`
	Inputs        Inputs                     `json:"inputs"`
	Output        *string                    `json:"output,omitempty"`
	ExtractedCode *stream.Block              `json:"extracted_code,omitempty"`
	LastPrompt    string                     `json:"last_prompt,omitempty"`
	Chat          *chat.Snapshot             `json:"chat,omitempty"`
	Features      []features.Feature         `json:"features,omitempty"`
	Decisions     map[string]features.Record `json:"decisions,omitempty"`
	Analysis      *chat.Anchor               `json:"analysis,omitempty"`
}

// Snapshot returns a deep copy of the session's persistent fields. In-flight
// states are recorded as cancelled, since the stream cannot be resumed.
func (s Session) Snapshot() Snapshot {
	c := s.Clone()

	snap := Snapshot{
		Mode:          c.Mode,
		State:         c.State,
		Inputs:        c.Inputs,
		Output:        c.Output,
		ExtractedCode: c.ExtractedCode,
		LastPrompt:    c.LastPrompt,
		Analysis:      c.Analysis,
	}
	if snap.State.InFlight() {
		snap.State = StateCancelled
	}
	if c.Chat != nil {
		cs := c.Chat.Snapshot()
		snap.Chat = &cs
	}
	if c.Features != nil {
		snap.Features = c.Features.Matrix()
		snap.Decisions = c.Features.Decisions()
	}
	return snap
}

// FromSnapshot rebuilds a session with the given id. The chat channel is
// restored with its anchor and turns but no remote dialogue; callers reopen
// one from Chat.History().
func FromSnapshot(id string, snap Snapshot) (Session, error) {
	if !snap.Mode.Valid() {
		return Session{}, fmt.Errorf("restore session: unknown mode %q", snap.Mode)
	}

	s := Session{
		ID:         id,
		Mode:       snap.Mode,
		State:      snap.State,
		Inputs:     snap.Inputs,
		LastPrompt: snap.LastPrompt,
	}
	if snap.Output != nil {
		v := *snap.Output
		s.Output = &v
	}
	if snap.ExtractedCode != nil {
		b := *snap.ExtractedCode
		s.ExtractedCode = &b
	}
	if snap.Analysis != nil {
		a := *snap.Analysis
		s.Analysis = &a
	}
	if snap.Chat != nil {
		s.Chat = chat.FromSnapshot(*snap.Chat)
	}
	if snap.Features != nil || len(snap.Decisions) > 0 {
		tr, err := features.Restore(snap.Features, snap.Decisions)
		if err != nil {
			return Session{}, fmt.Errorf("restore session: %w", err)
		}
		s.Features = tr
	}

	switch {
	case s.State == "" || s.State.InFlight():
		if s.Output != nil {
			s.State = StateCancelled
		} else {
			s.State = StateIdle
		}
	case s.State == StateChatActive && s.Chat == nil:
		s.State = StateCompleted
	case s.State == StateDecisionPending && s.Features == nil:
		s.State = StateCompleted
	}

	return s, nil
}
