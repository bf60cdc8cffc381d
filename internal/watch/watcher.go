// Package watch provides debounced live views over engine collections. A
// Watcher subscribes to a collection's bus topic, reloads the full snapshot
// after a quiet period, and hands it to an observer. It replaces per-event
// payload application: cascades publish bursts of events, and reloading
// once per burst is both simpler and immune to suppressed events.
package watch

import (
	"context"
	"sync"
	"time"

	"cargodesk/internal/bus"
)

// DefaultDebounce is the quiet period between the first event of a burst
// and the reload it triggers.
const DefaultDebounce = 300 * time.Millisecond

// Loader fetches the full collection snapshot.
type Loader[T any] func(ctx context.Context) ([]T, error)

// Snapshot is the watcher's current view of a collection.
type Snapshot[T any] struct {
	Data        []T
	Loading     bool
	Err         error
	LastRefresh time.Time
}

// Watcher keeps a debounced live snapshot of one collection.
type Watcher[T any] struct {
	topic    string
	load     Loader[T]
	debounce time.Duration
	onChange func(Snapshot[T])

	mu     sync.Mutex
	snap   Snapshot[T]
	timer  *time.Timer
	closed bool

	unsubs []func()
}

// Option configures a Watcher.
type Option[T any] func(*Watcher[T])

// WithDebounce overrides the quiet period.
func WithDebounce[T any](d time.Duration) Option[T] {
	return func(w *Watcher[T]) { w.debounce = d }
}

// WithObserver registers a callback invoked after every completed reload
// (and the initial load). Called outside the watcher lock.
func WithObserver[T any](fn func(Snapshot[T])) Option[T] {
	return func(w *Watcher[T]) { w.onChange = fn }
}

// New builds a watcher over topic, performs the initial load synchronously,
// and subscribes to the topic and to the wildcard topic. Events only
// schedule reloads; payloads are never applied directly.
func New[T any](ctx context.Context, b *bus.Bus, topic string, load Loader[T], opts ...Option[T]) *Watcher[T] {
	w := &Watcher[T]{
		topic:    topic,
		load:     load,
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}

	w.Refresh(ctx)

	handler := func(bus.Event) error {
		w.scheduleRefresh()
		return nil
	}
	w.unsubs = append(w.unsubs, b.Subscribe(topic, handler))
	if topic != bus.TopicAll {
		w.unsubs = append(w.unsubs, b.Subscribe(bus.TopicAll, handler))
	}
	return w
}

// Snapshot returns the current view.
func (w *Watcher[T]) Snapshot() Snapshot[T] {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snap
}

// Refresh reloads immediately, bypassing the debounce. Any pending
// scheduled reload is cancelled and folded into this one.
func (w *Watcher[T]) Refresh(ctx context.Context) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.snap.Loading = true
	w.mu.Unlock()

	data, err := w.load(ctx)

	w.mu.Lock()
	w.snap = Snapshot[T]{
		Data:        data,
		Loading:     false,
		Err:         err,
		LastRefresh: time.Now().UTC(),
	}
	snap := w.snap
	cb := w.onChange
	w.mu.Unlock()

	if cb != nil {
		cb(snap)
	}
}

// scheduleRefresh arms (or re-arms) the debounce timer. A burst of events
// within the quiet period collapses into a single reload.
func (w *Watcher[T]) scheduleRefresh() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		w.Refresh(context.Background())
	})
}

// Close cancels the pending reload and removes the bus subscriptions.
func (w *Watcher[T]) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	unsubs := w.unsubs
	w.unsubs = nil
	w.mu.Unlock()

	for _, u := range unsubs {
		u()
	}
}
