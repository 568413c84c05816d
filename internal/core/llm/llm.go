// Package llm defines the port to the remote text-generation collaborator:
// request and message types, the response schema description used for
// structured calls, and the error taxonomy every adapter maps into.
package llm

import (
	"context"
	"iter"
)

// Role identifies the author of a dialogue message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Attachment is an opaque file or image sent alongside a user message.
type Attachment struct {
	Name     string `json:"name"`
	MIMEType string `json:"mime_type"`
	Data     []byte `json:"data"`
}

// Message is a single entry in a dialogue history.
type Message struct {
	Role        Role
	Text        string
	Attachments []Attachment
}

// Request describes one primary generation call.
type Request struct {
	Model             string
	SystemInstruction string
	Payload           string
}

// Generator is implemented by remote collaborator adapters.
type Generator interface {
	// Ready reports whether the adapter is configured to make calls. A non-nil
	// result must wrap ErrConfiguration.
	Ready() error

	// StreamGenerate yields text chunks in send order. Iteration ends after the
	// final chunk, or after a single non-nil error.
	StreamGenerate(ctx context.Context, req Request) iter.Seq2[string, error]

	// GenerateStructured returns the raw JSON document produced under schema.
	GenerateStructured(ctx context.Context, req Request, schema *Schema) ([]byte, error)

	// OpenDialogue starts a multi-turn dialogue seeded with history.
	OpenDialogue(ctx context.Context, model, systemInstruction string, history []Message) (Dialogue, error)
}

// Dialogue is an open multi-turn exchange. The remote holds no durable state so
// implementations keep whatever history they need to continue.
type Dialogue interface {
	Send(ctx context.Context, msg Message) iter.Seq2[string, error]
}
