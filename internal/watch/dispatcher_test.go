package watch

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"cargodesk/internal/bus"
	"cargodesk/internal/core/apperror"
	"cargodesk/internal/domain"
	"cargodesk/internal/notify"
	"cargodesk/internal/sync"
	"cargodesk/pkg/logger"
	"cargodesk/pkg/sequence"
)

func newDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	e := sync.New(
		sync.NewMemoryStores(),
		bus.New(logger.Nop()),
		&notify.Capture{},
		sequence.New(sequence.NewMemoryCounter()),
		logger.Nop(),
		sync.WithClock(func() time.Time { return time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC) }),
		sync.WithCascadeDelay(time.Millisecond),
	)
	t.Cleanup(e.Close)
	return NewDispatcher(e)
}

func TestDispatcherCreateUpdateDelete(t *testing.T) {
	d := newDispatcher(t)
	ctx := context.Background()

	created, err := d.CreateEntity(ctx, "customers", json.RawMessage(`{"name":"Pacific Trading Co","status":"active"}`))
	require.NoError(t, err)
	c, ok := created.(*domain.Customer)
	require.True(t, ok, "got %T", created)
	require.NotEmpty(t, c.ID)

	updated, err := d.UpdateEntity(ctx, "customers", c.ID, json.RawMessage(`{"name":"Pacific Trading Ltd","status":"active"}`))
	require.NoError(t, err)
	require.Equal(t, "Pacific Trading Ltd", updated.(*domain.Customer).Name)

	require.NoError(t, d.DeleteEntity(ctx, "customers", c.ID))
	err = d.DeleteEntity(ctx, "customers", c.ID)
	require.True(t, apperror.IsNotFound(err), "got %v", err)
}

func TestDispatcherRejectsUnknownCollection(t *testing.T) {
	d := newDispatcher(t)
	ctx := context.Background()

	_, err := d.CreateEntity(ctx, "widgets", json.RawMessage(`{}`))
	require.True(t, apperror.IsValidation(err), "got %v", err)

	_, err = d.UpdateEntity(ctx, "widgets", "x", json.RawMessage(`{}`))
	require.True(t, apperror.IsValidation(err), "got %v", err)

	err = d.DeleteEntity(ctx, "widgets", "x")
	require.True(t, apperror.IsValidation(err), "got %v", err)
}

func TestDispatcherRefreshesAfterSuccessfulMutation(t *testing.T) {
	d := newDispatcher(t)
	ctx := context.Background()

	var refreshed int
	d.OnMutate("customers", func(context.Context) { refreshed++ })

	created, err := d.CreateEntity(ctx, "customers", json.RawMessage(`{"name":"Pacific Trading Co","status":"active"}`))
	require.NoError(t, err)
	require.Equal(t, 1, refreshed)

	// A failed operation must not refresh.
	_, err = d.CreateEntity(ctx, "customers", json.RawMessage(`{broken`))
	require.Error(t, err)
	require.Equal(t, 1, refreshed)

	require.NoError(t, d.DeleteEntity(ctx, "customers", created.(*domain.Customer).ID))
	require.Equal(t, 2, refreshed)
}

func TestDispatcherRejectsMalformedPayload(t *testing.T) {
	d := newDispatcher(t)

	_, err := d.CreateEntity(context.Background(), "customers", json.RawMessage(`{not json`))
	require.True(t, apperror.IsValidation(err), "got %v", err)
}
