// Package bus provides the in-process publish/subscribe channel that
// decouples entity mutation from reaction. Every engine mutation announces
// itself here; the watch layer listens and schedules debounced reloads.
package bus

import (
	"fmt"
	"sync"
	"time"

	"cargodesk/pkg/logger"
)

// TopicAll is the wildcard topic. Subscribers of TopicAll receive every
// event in addition to the event's own topic subscribers.
const TopicAll = "all"

// Event is delivered to every subscriber of its topic.
type Event struct {
	Topic     string    `json:"topic"`
	Action    string    `json:"action"`
	Payload   any       `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

// Handler receives published events. A returned error is logged and never
// propagated to the publisher or to sibling subscribers.
type Handler func(Event) error

type subscription struct {
	id      int
	handler Handler
}

// Bus is a synchronous topic-keyed event bus with a re-entrancy guard.
//
// The guard suppresses publishes issued from inside a subscriber callback of
// an in-flight publish. Without it, a subscriber reacting to a cascade by
// mutating entities would trigger an unbounded notification storm. The
// original heuristic used a wall-clock timer to release the guard; here the
// guard is call-depth tracked and releases deterministically when the outer
// publish returns. Suppression can drop events during a burst, which is
// acceptable because the watch layer reloads full snapshots rather than
// applying payloads.
//
// Delivery is synchronous and in subscription (insertion) order. The Bus is
// safe for concurrent Subscribe/Unsubscribe, but the depth guard assumes
// publishes are serialized by the engine's single-writer lock.
type Bus struct {
	mu         sync.Mutex
	subs       map[string][]subscription
	nextID     int
	depth      int
	suppressed int

	log *logger.Logger
}

// New creates an empty Bus.
func New(log *logger.Logger) *Bus {
	if log == nil {
		log = logger.Default()
	}
	return &Bus{
		subs: make(map[string][]subscription),
		log:  log.WithComponent("bus"),
	}
}

// Subscribe registers handler under topic and returns a function that
// removes exactly this registration. Multiple subscribers per topic are
// allowed; they are invoked in subscription order.
func (b *Bus) Subscribe(topic string, handler Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subs[topic] = append(b.subs[topic], subscription{id: id, handler: handler})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		list := b.subs[topic]
		for i, s := range list {
			if s.id == id {
				b.subs[topic] = append(list[:i:i], list[i+1:]...)
				return
			}
		}
	}
}

// Publish invokes every current subscriber of topic (and of TopicAll)
// synchronously. A publish issued from within a subscriber callback is
// suppressed by the re-entrancy guard.
func (b *Bus) Publish(topic, action string, payload any) {
	b.mu.Lock()
	if b.depth > 0 {
		b.suppressed++
		n := b.suppressed
		b.mu.Unlock()
		b.log.Debugw("nested publish suppressed", "topic", topic, "action", action, "total_suppressed", n)
		return
	}
	b.depth++

	event := Event{
		Topic:     topic,
		Action:    action,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}

	// Snapshot handlers so unsubscribing during delivery is safe.
	handlers := make([]Handler, 0, len(b.subs[topic])+len(b.subs[TopicAll]))
	for _, s := range b.subs[topic] {
		handlers = append(handlers, s.handler)
	}
	if topic != TopicAll {
		for _, s := range b.subs[TopicAll] {
			handlers = append(handlers, s.handler)
		}
	}
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		b.depth--
		b.mu.Unlock()
	}()

	for _, h := range handlers {
		b.deliver(h, event)
	}
}

// deliver invokes one handler, containing errors and panics.
func (b *Bus) deliver(h Handler, event Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Errorw("subscriber panicked",
				"topic", event.Topic, "action", event.Action, "panic", fmt.Sprint(r))
		}
	}()
	if err := h(event); err != nil {
		b.log.Errorw("subscriber failed",
			"topic", event.Topic, "action", event.Action, "error", err)
	}
}

// Suppressed returns how many publishes the re-entrancy guard has dropped
// since construction. Exposed for tests and the consistency dashboard.
func (b *Bus) Suppressed() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.suppressed
}

// SubscriberCount returns the number of live subscriptions for topic.
func (b *Bus) SubscriberCount(topic string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[topic])
}
