// Package session defines the session aggregate: mode, working inputs, the
// streamed output and the follow-up state hanging off it.
package session

import (
	"errors"
	"strings"

	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/chat"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/features"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/stream"
)

// Inputs are the working inputs of a primary operation.
type Inputs struct {
	Language      string `json:"language"`
	Code          string `json:"code"`
	SecondaryCode string `json:"secondary_code,omitempty"`
	ErrorContext  string `json:"error_context,omitempty"`
}

// Validate checks that in carries what mode needs.
func (in Inputs) Validate(mode Mode) error {
	var errs []error
	if strings.TrimSpace(in.Code) == "" {
		errs = append(errs, errors.New("code is required"))
	}
	if mode == ModeComparison && strings.TrimSpace(in.SecondaryCode) == "" {
		errs = append(errs, errors.New("comparison needs a second codebase"))
	}
	return errors.Join(errs...)
}

// Session is the root aggregate owned by a conversation. Output and
// ExtractedCode are nil until a response produces them.
type Session struct {
	ID            string
	Mode          Mode
	State         State
	Inputs        Inputs
	Output        *string
	ExtractedCode *stream.Block
	LastPrompt    string
	Chat          *chat.Channel
	Features      *features.Tracker
	Error         string

	// Analysis is the comparison the decisions were made against. It is kept
	// while a synthesis replaces the output so the decisions can be reopened.
	Analysis *chat.Anchor
}

// New returns an idle session in mode.
func New(id string, mode Mode) Session {
	return Session{ID: id, Mode: mode, State: StateIdle}
}

// OutputText returns the output or an empty string.
func (s Session) OutputText() string {
	if s.Output == nil {
		return ""
	}
	return *s.Output
}

// SetOutput replaces the output and refreshes the extracted code from it.
func (s *Session) SetOutput(text string) {
	s.Output = &text
	if block, ok := stream.FinalCodeBlock(text); ok {
		s.ExtractedCode = &block
	} else {
		s.ExtractedCode = nil
	}
}

// ClearOutput discards the output, the extracted code and the error.
func (s *Session) ClearOutput() {
	s.Output = nil
	s.ExtractedCode = nil
	s.Error = ""
}

// CanReopen reports whether a failed or cancelled synthesis may return to
// decision pending.
func (s Session) CanReopen() bool {
	return s.Features != nil && (s.State == StateErrored || s.State == StateCancelled)
}

// DecisionComplete reports whether every feature in the matrix has a decision.
// Sessions without a matrix are never decision-complete.
func (s *Session) DecisionComplete() bool {
	return s.Features != nil && s.Features.IsComplete()
}

// Clone returns a deep copy of s.
func (s Session) Clone() Session {
	out := s
	if s.Output != nil {
		v := *s.Output
		out.Output = &v
	}
	if s.ExtractedCode != nil {
		b := *s.ExtractedCode
		out.ExtractedCode = &b
	}
	if s.Analysis != nil {
		a := *s.Analysis
		out.Analysis = &a
	}
	out.Chat = s.Chat.Clone()
	out.Features = s.Features.Clone()
	return out
}
