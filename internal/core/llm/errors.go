package llm

import (
	"context"
	"errors"
)

var (
	// ErrConfiguration means the call could not be attempted, typically because
	// no credential is configured.
	ErrConfiguration = errors.New("generator not configured")
	// ErrTransport means the remote failed or the connection broke mid-call.
	ErrTransport = errors.New("generation failed")
	// ErrCancelled means the operation's token was cancelled. It is a
	// distinguished outcome and is never shown to the user as an error.
	ErrCancelled = errors.New("operation cancelled")
	// ErrStructuredDecode means a structured response did not match the
	// requested shape.
	ErrStructuredDecode = errors.New("structured response did not match schema")
)

// Kind classifies an error into the user-facing taxonomy.
type Kind string

const (
	KindNone             Kind = ""
	KindConfiguration    Kind = "configuration"
	KindTransport        Kind = "transport"
	KindCancelled        Kind = "cancelled"
	KindStructuredDecode Kind = "structured_decode"
)

// Classify maps err onto a Kind. Context cancellation counts as KindCancelled;
// anything unrecognised is treated as a transport failure.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrCancelled), errors.Is(err, context.Canceled):
		return KindCancelled
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	case errors.Is(err, ErrStructuredDecode):
		return KindStructuredDecode
	default:
		return KindTransport
	}
}

// Describe returns the short message shown to the user for err. Transport
// internals are not included. Cancellation yields an empty string.
func Describe(err error) string {
	switch Classify(err) {
	case KindNone, KindCancelled:
		return ""
	case KindConfiguration:
		return "API key is not configured. Set it and try again."
	case KindStructuredDecode:
		return "The response could not be understood. Try again."
	default:
		return "The request failed. Check your connection and try again."
	}
}
