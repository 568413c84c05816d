// Package eventbus provides a typed publish/subscribe event bus used to push
// session progress to observers.
package eventbus

import (
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/chat"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/llm"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/session"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/stream"
)

// Event names a published event.
type Event string

// Keep list sorted A-Z
const (
	EventChatTurnCompleted   Event = "chat.turn-completed"
	EventFeaturesRetrieved   Event = "features.retrieved"
	EventNoticePublished     Event = "notice.published"
	EventSessionError        Event = "session.error"
	EventSessionOutputUpdate Event = "session.output-updated"
	EventSessionReset        Event = "session.reset"
	EventSessionStateChanged Event = "session.state-changed"
	EventVersionRestored     Event = "version.restored"
	EventVersionSaved        Event = "version.saved"
)

// SessionStateChangedPayload is emitted on every state machine transition.
type SessionStateChangedPayload struct {
	SessionID string
	From      session.State
	To        session.State
}

// SessionOutputUpdatedPayload is emitted after each applied chunk. Chat turns
// report their running model turn in Output with Chat set.
type SessionOutputUpdatedPayload struct {
	SessionID     string
	Chunk         string
	Output        string
	ExtractedCode *stream.Block
	Chat          bool
}

// SessionErrorPayload is emitted when an operation fails. Cancellation is
// never reported here.
type SessionErrorPayload struct {
	SessionID string
	Kind      llm.Kind
	Message   string
}

// SessionResetPayload is emitted when a session is discarded by a mode switch
// or explicit reset.
type SessionResetPayload struct {
	SessionID string
	Mode      session.Mode
}

// ChatTurnCompletedPayload is emitted when a model turn finishes streaming.
type ChatTurnCompletedPayload struct {
	SessionID string
	Feature   string
	Result    chat.Result
}

// FeaturesRetrievedPayload is emitted when the feature matrix arrives.
type FeaturesRetrievedPayload struct {
	SessionID string
	Count     int
}

// VersionSavedPayload is emitted after a version is persisted.
type VersionSavedPayload struct {
	ID   string
	Name string
}

// VersionRestoredPayload is emitted after a version replaces the live session.
type VersionRestoredPayload struct {
	SessionID string
	VersionID string
	Name      string
}

// Level is the severity of a user-facing notice.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// NoticePublishedPayload is a short message for the status line.
type NoticePublishedPayload struct {
	Level   Level
	Message string
}
