package events

import (
	"context"
	"log/slog"
	"time"
)

// Envelope is the wire shape of every event: a type tag, an epoch-ms
// timestamp, and the type-specific payload (one of the *Data structs in
// topics.go).
type Envelope struct {
	Type      Type  `json:"type"`
	Timestamp int64 `json:"timestamp"`
	Data      any   `json:"data"`
}

// Bus is the typed publish/subscribe channel the action loop writes to and
// observers (loggers) read from. It is the sole shared resource between the
// loop and the outside world: write-only from the loop, read-only for
// subscribers.
type Bus struct {
	subject *Subject
}

// NewBus builds a Bus with synchronous, registration-ordered delivery, as
// required by the ordering guarantee in §4.9/§5: a listener that panics or
// errors must not stop delivery to listeners registered after it, and
// events for one iteration must be observed in emission order.
func NewBus(logger *slog.Logger, opts ...SubjectOption) *Bus {
	all := append([]SubjectOption{WithSyncDelivery(), WithLogger(logger)}, opts...)
	return &Bus{subject: NewSubject(all...)}
}

// Emit publishes data under t, stamping the envelope with the current time.
// Handlers for t run on the calling goroutine, in registration order, before
// Emit returns; after Close, Emit delivers nothing.
func (b *Bus) Emit(t Type, data any) error {
	select {
	case <-b.subject.shutdown:
		return nil
	default:
	}
	evt := event{topic: string(t), message: Envelope{Type: t, Timestamp: time.Now().UnixMilli(), Data: data}}
	subs := b.subject.subscribers.Load()
	for _, sub := range (*subs)[evt.topic] {
		b.subject.sendToSubscriber(sub, evt, true)
	}
	return nil
}

// On registers handler for t. Handlers registered earlier for the same type
// run first.
func (b *Bus) On(t Type, handler func(context.Context, Envelope) error) Subscription {
	return Subscribe(b.subject, string(t), handler)
}

// OnAll registers handler for every type in the closed set, useful for a
// single sink (console logger, run-history writer) that wants every event.
func (b *Bus) OnAll(handler func(context.Context, Envelope) error) []Subscription {
	types := []Type{
		TaskStart, TaskComplete, TaskValidation, PageNavigation,
		AgentCurrentStep, AgentObservation, AgentThought, AgentExtractedData,
		ActionExecution, ActionResult, SystemWaiting, SystemNetworkWaiting,
		SystemNetworkTimeout, DebugCompression, DebugMessages,
	}
	subs := make([]Subscription, 0, len(types))
	for _, t := range types {
		subs = append(subs, b.On(t, handler))
	}
	return subs
}

// Close releases the underlying Subject's delivery goroutine.
func (b *Bus) Close() { Complete(b.subject) }
