package watch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"cargodesk/internal/bus"
	"cargodesk/pkg/logger"
)

type countingLoader struct {
	mu    sync.Mutex
	calls int
	data  []string
}

func (l *countingLoader) load(ctx context.Context) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	return l.data, nil
}

func (l *countingLoader) callCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

func TestWatcherInitialLoad(t *testing.T) {
	b := bus.New(logger.Nop())
	loader := &countingLoader{data: []string{"a", "b"}}

	w := New[string](context.Background(), b, "customers", loader.load)
	defer w.Close()

	snap := w.Snapshot()
	require.False(t, snap.Loading)
	require.NoError(t, snap.Err)
	require.Equal(t, []string{"a", "b"}, snap.Data)
	require.Equal(t, 1, loader.callCount())
}

func TestWatcherDebouncesBursts(t *testing.T) {
	b := bus.New(logger.Nop())
	loader := &countingLoader{}

	w := New[string](context.Background(), b, "customers", loader.load,
		WithDebounce[string](20*time.Millisecond))
	defer w.Close()
	require.Equal(t, 1, loader.callCount())

	// A burst of events within the quiet period collapses into one reload.
	for i := 0; i < 10; i++ {
		b.Publish("customers", "update", nil)
	}
	require.Eventually(t, func() bool {
		return loader.callCount() == 2
	}, time.Second, 5*time.Millisecond)

	// No further reloads once quiet.
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, 2, loader.callCount())
}

func TestWatcherReloadsOnWildcardEvents(t *testing.T) {
	b := bus.New(logger.Nop())
	loader := &countingLoader{}

	w := New[string](context.Background(), b, "customers", loader.load,
		WithDebounce[string](10*time.Millisecond))
	defer w.Close()

	// An event on a different topic still reaches the wildcard
	// subscription: cross-entity cascades must refresh dependent views.
	b.Publish("salesOrders", "update", nil)

	require.Eventually(t, func() bool {
		return loader.callCount() == 2
	}, time.Second, 5*time.Millisecond)
}

func TestWatcherRefreshBypassesDebounce(t *testing.T) {
	b := bus.New(logger.Nop())
	loader := &countingLoader{}

	w := New[string](context.Background(), b, "customers", loader.load,
		WithDebounce[string](time.Hour))
	defer w.Close()

	b.Publish("customers", "update", nil) // armed for an hour out
	w.Refresh(context.Background())
	require.Equal(t, 2, loader.callCount())

	// The pending timer was folded into the explicit refresh.
	time.Sleep(30 * time.Millisecond)
	require.Equal(t, 2, loader.callCount())
}

func TestWatcherCloseStopsReloads(t *testing.T) {
	b := bus.New(logger.Nop())
	loader := &countingLoader{}

	w := New[string](context.Background(), b, "customers", loader.load,
		WithDebounce[string](10*time.Millisecond))
	b.Publish("customers", "update", nil)
	w.Close()

	time.Sleep(50 * time.Millisecond)
	require.Equal(t, 1, loader.callCount())
	require.Equal(t, 0, b.SubscriberCount("customers"))
	require.Equal(t, 0, b.SubscriberCount(bus.TopicAll))
}

func TestWatcherObserverSeesSnapshots(t *testing.T) {
	b := bus.New(logger.Nop())
	loader := &countingLoader{data: []string{"x"}}

	var mu sync.Mutex
	var seen []Snapshot[string]
	w := New[string](context.Background(), b, "customers", loader.load,
		WithDebounce[string](10*time.Millisecond),
		WithObserver[string](func(s Snapshot[string]) {
			mu.Lock()
			seen = append(seen, s)
			mu.Unlock()
		}))
	defer w.Close()

	mu.Lock()
	require.Len(t, seen, 1)
	require.Equal(t, []string{"x"}, seen[0].Data)
	mu.Unlock()
}
