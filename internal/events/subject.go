// Package events implements a lock-free, typed publish/subscribe primitive
// used as the single shared channel between the action loop and its
// observers (console logger, run-history sink, HTTP/SSE sink).
package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// HandlerFunc is the function called when an event is emitted.
type HandlerFunc func(context.Context, any) error

// SubjectOption configures a Subject.
type SubjectOption func(*subjectConfig)

type subjectConfig struct {
	replayEnabled bool
	cacheSize     int
	bufferSize    int
	syncDelivery  bool
	logger        *slog.Logger
}

// WithBufferSize sets the event channel buffer size.
func WithBufferSize(size int) SubjectOption {
	return func(cfg *subjectConfig) { cfg.bufferSize = size }
}

// WithReplay enables replay of the most recent events to late subscribers.
func WithReplay(cacheSize int) SubjectOption {
	return func(cfg *subjectConfig) {
		cfg.replayEnabled = true
		cfg.cacheSize = cacheSize
	}
}

// WithLogger sets a structured logger for handler errors.
func WithLogger(logger *slog.Logger) SubjectOption {
	return func(cfg *subjectConfig) { cfg.logger = logger }
}

// WithSyncDelivery forces synchronous, in-order handler delivery on the
// Subject's eventLoop goroutine rather than fanning each handler out onto
// its own goroutine. The action loop's ordering guarantee (§4.9) requires
// this: listeners observe events in the exact order they were emitted and
// in the order they were registered.
func WithSyncDelivery() SubjectOption {
	return func(cfg *subjectConfig) { cfg.syncDelivery = true }
}

// Emit publishes a value on topic. It never blocks longer than 5s; a stuck
// subscriber cannot wedge the loop indefinitely.
func Emit[T any](subject *Subject, topic string, value T) error {
	evt := event{topic: topic, message: value}
	select {
	case subject.events <- evt:
		return nil
	case <-time.After(5 * time.Second):
		return fmt.Errorf("failed to emit event: %v", value)
	}
}

// Subscribe registers a typed handler on topic. Handlers for the same topic
// fire in registration order. The returned Subscription's Unsubscribe
// removes it.
func Subscribe[T any](subject *Subject, topic string, handler func(context.Context, T) error, replay ...bool) Subscription {
	wantsReplay := len(replay) > 0 && replay[0]

	wrapped := HandlerFunc(func(ctx context.Context, data any) error {
		typed, ok := data.(T)
		if !ok {
			return fmt.Errorf("type assertion failed for %T, expected %T", data, *new(T))
		}
		return handler(ctx, typed)
	})

	subID := atomic.AddInt64(&subject.nextSubID, 1)
	sub := Subscription{
		Topic:       topic,
		CreatedAt:   time.Now().UnixNano(),
		Handler:     wrapped,
		ID:          fmt.Sprintf("%s-%d", topic, subID),
		WantsReplay: wantsReplay,
		SentEvents:  make(map[string]bool),
	}

	subject.addSubscription(sub)
	sub.Unsubscribe = func() { subject.removeSubscription(sub.Topic, sub.ID) }

	if subject.config.replayEnabled && wantsReplay {
		subject.replayEvents(sub)
	}
	return sub
}

// Complete shuts the subject down, waiting (with a bounded timeout) for the
// delivery loop to exit. Handlers started on their own goroutines are not
// waited for. Idempotent.
func Complete(s *Subject) {
	if s == nil {
		return
	}
	if atomic.CompareAndSwapInt32(&s.closed, 0, 1) {
		close(s.shutdown)
		done := make(chan struct{})
		go func() {
			s.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
		}
	}
}

type event struct {
	topic   string
	message any
}

// Subscription represents one handler registered on one topic.
type Subscription struct {
	Topic       string
	CreatedAt   int64
	Handler     HandlerFunc
	ID          string
	WantsReplay bool
	SentEvents  map[string]bool
	Unsubscribe func()
}

// subscriberMap preserves registration order per topic: later subscribers
// are appended, never reordered by map iteration.
type subscriberMap map[string][]Subscription

// Subject is a lock-free topic multiplexer: subscriber and cache state are
// swapped via copy-on-write atomic pointers so readers never block writers.
type Subject struct {
	subscribers atomic.Pointer[subscriberMap]
	cache       atomic.Pointer[[]event]
	nextSubID   int64
	eventCount  int64

	events   chan event
	shutdown chan struct{}

	config subjectConfig
	closed int32
	wg     sync.WaitGroup
}

// NewSubject creates a Subject and starts its delivery loop.
func NewSubject(opts ...SubjectOption) *Subject {
	cfg := subjectConfig{bufferSize: 512}
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Subject{
		events:   make(chan event, cfg.bufferSize),
		shutdown: make(chan struct{}),
		config:   cfg,
	}

	empty := make(subscriberMap)
	s.subscribers.Store(&empty)
	if cfg.replayEnabled {
		cache := make([]event, 0, cfg.cacheSize)
		s.cache.Store(&cache)
	}

	go s.eventLoop()
	return s
}

func (s *Subject) eventLoop() {
	s.wg.Add(1)
	defer s.wg.Done()

	for {
		select {
		case <-s.shutdown:
			return
		case evt := <-s.events:
			atomic.AddInt64(&s.eventCount, 1)
			if s.config.replayEnabled {
				s.addToCache(evt)
			}
			subs := s.subscribers.Load()
			for _, sub := range (*subs)[evt.topic] {
				s.sendToSubscriber(sub, evt, s.config.syncDelivery)
			}
		}
	}
}

func (s *Subject) addSubscription(sub Subscription) {
	for {
		old := s.subscribers.Load()
		next := s.copySubscribers(*old)
		next[sub.Topic] = append(next[sub.Topic], sub)
		if s.subscribers.CompareAndSwap(old, &next) {
			return
		}
	}
}

func (s *Subject) removeSubscription(topic, subID string) {
	for {
		old := s.subscribers.Load()
		next := s.copySubscribers(*old)
		list := next[topic]
		for i, sub := range list {
			if sub.ID == subID {
				next[topic] = append(list[:i:i], list[i+1:]...)
				break
			}
		}
		if len(next[topic]) == 0 {
			delete(next, topic)
		}
		if s.subscribers.CompareAndSwap(old, &next) {
			return
		}
	}
}

func (s *Subject) copySubscribers(original subscriberMap) subscriberMap {
	cp := make(subscriberMap, len(original))
	for topic, list := range original {
		cp[topic] = append([]Subscription(nil), list...)
	}
	return cp
}

func (s *Subject) addToCache(evt event) {
	for {
		old := s.cache.Load()
		next := make([]event, len(*old), len(*old)+1)
		copy(next, *old)
		if len(next) == s.config.cacheSize {
			next = next[1:]
		}
		next = append(next, evt)
		if s.cache.CompareAndSwap(old, &next) {
			return
		}
	}
}

func (s *Subject) replayEvents(sub Subscription) {
	if !s.config.replayEnabled {
		return
	}
	cache := s.cache.Load()
	for _, evt := range *cache {
		if evt.topic != sub.Topic {
			continue
		}
		eventID := fmt.Sprintf("%s-%v", evt.topic, evt.message)
		if !sub.SentEvents[eventID] {
			s.sendToSubscriber(sub, evt, true)
			sub.SentEvents[eventID] = true
		}
	}
}

// sendToSubscriber invokes handler for evt. A handler error never aborts
// delivery to the remaining subscribers on this topic — it is only logged.
func (s *Subject) sendToSubscriber(sub Subscription, evt event, sync bool) {
	deliver := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := sub.Handler(ctx, evt.message); err != nil && s.config.logger != nil {
			s.config.logger.Debug("event handler error",
				"topic", evt.topic, "error", err, "subscription_id", sub.ID)
		}
	}
	if sync {
		deliver()
	} else {
		go deliver()
	}
}
