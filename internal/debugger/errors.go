package debugger

import (
	"errors"
	"fmt"

	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/session"
)

var (
	// ErrInvalidTransition is returned when an operation is not allowed from
	// the conversation's current state.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrIncomplete is returned by Finalize while features are undecided.
	ErrIncomplete = errors.New("feature decisions are incomplete")
	// ErrNoExtractedCode is returned when an operation needs extracted code
	// and the response did not end with a code block.
	ErrNoExtractedCode = errors.New("no extracted code")
	// ErrDiscussionOpen is returned when a feature discussion is already open.
	ErrDiscussionOpen = errors.New("a feature discussion is already open")
	// ErrNoDiscussion is returned when no feature discussion is open.
	ErrNoDiscussion = errors.New("no feature discussion is open")
)

func invalid(op string, from session.State) error {
	return fmt.Errorf("%w: cannot %s while %s", ErrInvalidTransition, op, from)
}
