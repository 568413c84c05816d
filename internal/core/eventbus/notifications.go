package eventbus

import (
	"fmt"

	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/session"
)

// NotificationRouter maps domain events to user-facing notices.
type NotificationRouter struct {
	bus *EventBus
}

// NewNotificationRouter constructs a router for event-to-notice mappings.
func NewNotificationRouter(bus *EventBus) *NotificationRouter {
	return &NotificationRouter{bus: bus}
}

// Register subscribes all supported event mappings.
func (r *NotificationRouter) Register() {
	if r == nil || r.bus == nil {
		return
	}

	r.bus.SubscribeSessionError(func(p SessionErrorPayload) {
		if p.Message == "" {
			return
		}
		r.notifyf(LevelError, "%s", p.Message)
	})

	r.bus.SubscribeSessionStateChanged(func(p SessionStateChangedPayload) {
		if p.To == session.StateCancelled {
			r.notifyf(LevelWarning, "operation cancelled")
		}
	})

	r.bus.SubscribeFeaturesRetrieved(func(p FeaturesRetrievedPayload) {
		r.notifyf(LevelInfo, "%d features identified", p.Count)
	})

	r.bus.SubscribeVersionSaved(func(p VersionSavedPayload) {
		r.notifyf(LevelInfo, "version %q saved", p.Name)
	})

	r.bus.SubscribeVersionRestored(func(p VersionRestoredPayload) {
		r.notifyf(LevelInfo, "version %q restored", p.Name)
	})
}

func (r *NotificationRouter) notifyf(level Level, format string, args ...any) {
	r.bus.PublishNoticePublished(NoticePublishedPayload{
		Level:   level,
		Message: fmt.Sprintf(format, args...),
	})
}
