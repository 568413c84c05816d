package eventbus

import (
	"context"
	"sync"
)

type envelope struct {
	event   Event
	payload any
}

type handler func(any)

// EventBus delivers published events to subscribers on a single goroutine, in
// publish order. Publishing never blocks: when the buffer is full the event is
// dropped and OnDrop hooks fire.
type EventBus struct {
	ch    chan envelope
	hooks hooks

	mu   sync.RWMutex
	subs map[Event][]handler
}

// New creates a bus with the given buffer size.
func New(buffer int) *EventBus {
	if buffer <= 0 {
		buffer = 1
	}
	return &EventBus{
		ch:   make(chan envelope, buffer),
		subs: make(map[Event][]handler),
	}
}

// Start dispatches events until ctx is done. Events still buffered when ctx
// ends are delivered before Start returns.
func (bus *EventBus) Start(ctx context.Context) {
	for {
		select {
		case env := <-bus.ch:
			bus.dispatch(env)
		case <-ctx.Done():
			for {
				select {
				case env := <-bus.ch:
					bus.dispatch(env)
				default:
					return
				}
			}
		}
	}
}

func (bus *EventBus) subscribe(event Event, fn handler) {
	bus.mu.Lock()
	bus.subs[event] = append(bus.subs[event], fn)
	bus.mu.Unlock()

	bus.runOnSubscribe(event)
}

func (bus *EventBus) dispatch(env envelope) {
	bus.mu.RLock()
	subs := make([]handler, len(bus.subs[env.event]))
	copy(subs, bus.subs[env.event])
	bus.mu.RUnlock()

	for _, fn := range subs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					bus.runOnPanic(env.event, env.payload, r)
				}
			}()
			fn(env.payload)
		}()
	}
}

func typed[T any](fn func(T)) handler {
	return func(p any) {
		if v, ok := p.(T); ok {
			fn(v)
		}
	}
}

func (bus *EventBus) PublishChatTurnCompleted(p ChatTurnCompletedPayload) {
	bus.send(EventChatTurnCompleted, p)
}

func (bus *EventBus) SubscribeChatTurnCompleted(fn func(ChatTurnCompletedPayload)) {
	bus.subscribe(EventChatTurnCompleted, typed(fn))
}

func (bus *EventBus) PublishFeaturesRetrieved(p FeaturesRetrievedPayload) {
	bus.send(EventFeaturesRetrieved, p)
}

func (bus *EventBus) SubscribeFeaturesRetrieved(fn func(FeaturesRetrievedPayload)) {
	bus.subscribe(EventFeaturesRetrieved, typed(fn))
}

func (bus *EventBus) PublishNoticePublished(p NoticePublishedPayload) {
	bus.send(EventNoticePublished, p)
}

func (bus *EventBus) SubscribeNoticePublished(fn func(NoticePublishedPayload)) {
	bus.subscribe(EventNoticePublished, typed(fn))
}

func (bus *EventBus) PublishSessionError(p SessionErrorPayload) {
	bus.send(EventSessionError, p)
}

func (bus *EventBus) SubscribeSessionError(fn func(SessionErrorPayload)) {
	bus.subscribe(EventSessionError, typed(fn))
}

func (bus *EventBus) PublishSessionOutputUpdated(p SessionOutputUpdatedPayload) {
	bus.send(EventSessionOutputUpdate, p)
}

func (bus *EventBus) SubscribeSessionOutputUpdated(fn func(SessionOutputUpdatedPayload)) {
	bus.subscribe(EventSessionOutputUpdate, typed(fn))
}

func (bus *EventBus) PublishSessionReset(p SessionResetPayload) {
	bus.send(EventSessionReset, p)
}

func (bus *EventBus) SubscribeSessionReset(fn func(SessionResetPayload)) {
	bus.subscribe(EventSessionReset, typed(fn))
}

func (bus *EventBus) PublishSessionStateChanged(p SessionStateChangedPayload) {
	bus.send(EventSessionStateChanged, p)
}

func (bus *EventBus) SubscribeSessionStateChanged(fn func(SessionStateChangedPayload)) {
	bus.subscribe(EventSessionStateChanged, typed(fn))
}

func (bus *EventBus) PublishVersionRestored(p VersionRestoredPayload) {
	bus.send(EventVersionRestored, p)
}

func (bus *EventBus) SubscribeVersionRestored(fn func(VersionRestoredPayload)) {
	bus.subscribe(EventVersionRestored, typed(fn))
}

func (bus *EventBus) PublishVersionSaved(p VersionSavedPayload) {
	bus.send(EventVersionSaved, p)
}

func (bus *EventBus) SubscribeVersionSaved(fn func(VersionSavedPayload)) {
	bus.subscribe(EventVersionSaved, typed(fn))
}
