// Package sync implements the cross-entity data synchronization and
// cascading-update engine. It is the single authoritative writer path: every
// entity mutation goes through an Engine method, which validates
// cross-references against the store, writes through, publishes on the event
// bus, and triggers cascading side effects.
//
// Within one mutation call the ordering is: validation happens-before the
// store write, which happens-before the publish, which happens-before
// dependent-record propagation. Cross-entity sequences are not atomic (the
// store has no transactions spanning collections); a crash between steps can
// leave e.g. a deleted order with a dangling shipment. This is a known,
// accepted gap.
package sync

import (
	"context"
	stdsync "sync"
	"time"

	"github.com/google/cel-go/cel"
	"go.opentelemetry.io/otel"
	oteltrace "go.opentelemetry.io/otel/trace"

	"cargodesk/internal/bus"
	"cargodesk/internal/core/apperror"
	"cargodesk/internal/domain"
	"cargodesk/internal/notify"
	"cargodesk/internal/store"
	"cargodesk/pkg/logger"
	"cargodesk/pkg/sequence"
)

// Stores bundles the per-entity collections the engine writes through.
type Stores struct {
	Customers        store.Collection[*domain.Customer]
	SalesOrders      store.Collection[*domain.SalesOrder]
	Cargo            store.Collection[*domain.Cargo]
	Shipments        store.Collection[*domain.Shipment]
	Invoices         store.Collection[*domain.Invoice]
	Vendors          store.Collection[*domain.Vendor]
	OperationalCosts store.Collection[*domain.OperationalCost]
	SellingCosts     store.Collection[*domain.SellingCost]
	HSCodes          store.Collection[*domain.HSCode]
	PurchaseOrders   store.Collection[*domain.PurchaseOrder]
	Redlines         store.Collection[*domain.Redline]
}

// DefaultCascadeDelay is how long the engine waits before running scheduled
// follow-ups (dashboard recompute, status notifications) after a status
// transition. The delay keeps recomputes out of the publish cycle that
// triggered them.
const DefaultCascadeDelay = 50 * time.Millisecond

// Engine is the sync engine. Construct with New and inject the store bundle,
// bus, and notifier — there is no package-level singleton.
//
// All mutating methods serialize on an internal mutex (single logical
// writer); cascade helpers run under the already-held lock. Bus subscribers
// must not call engine methods synchronously from a delivery — the watch
// layer schedules its reloads instead.
type Engine struct {
	stores   Stores
	bus      *bus.Bus
	notifier notify.Notifier
	seq      *sequence.Service
	log      *logger.Logger
	tracer   oteltrace.Tracer

	now          func() time.Time
	cascadeDelay time.Duration

	// autoApprove, when set, is evaluated at redline submit time.
	autoApprove cel.Program

	mu stdsync.Mutex

	// timers tracks scheduled follow-ups so Close can cancel them.
	timersMu stdsync.Mutex
	timers   map[int]*time.Timer
	timerSeq int
	closed   bool

	// lastCostOp is the single-slot rollback record for selling costs.
	lastCostOp *sellingCostOp

	// lastStats caches the most recent dashboard snapshot.
	lastStats *Stats
}

// Option configures an Engine.
type Option func(*Engine)

// WithCascadeDelay overrides the scheduled-cascade delay. Tests use small
// values; zero runs follow-ups on an immediate timer.
func WithCascadeDelay(d time.Duration) Option {
	return func(e *Engine) { e.cascadeDelay = d }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithAutoApprovePolicy installs a compiled redline auto-approval program.
// See CompileAutoApprovePolicy.
func WithAutoApprovePolicy(prog cel.Program) Option {
	return func(e *Engine) { e.autoApprove = prog }
}

// New creates a sync engine over the given collaborators.
func New(stores Stores, b *bus.Bus, notifier notify.Notifier, seq *sequence.Service, log *logger.Logger, opts ...Option) *Engine {
	if log == nil {
		log = logger.Default()
	}
	e := &Engine{
		stores:       stores,
		bus:          b,
		notifier:     notifier,
		seq:          seq,
		log:          log.WithComponent("sync"),
		tracer:       otel.Tracer("cargodesk/sync"),
		now:          func() time.Time { return time.Now().UTC() },
		cascadeDelay: DefaultCascadeDelay,
		timers:       make(map[int]*time.Timer),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Close cancels all pending scheduled follow-ups. Idempotent.
func (e *Engine) Close() {
	e.timersMu.Lock()
	defer e.timersMu.Unlock()
	e.closed = true
	for id, t := range e.timers {
		t.Stop()
		delete(e.timers, id)
	}
}

// schedule runs fn after the cascade delay on its own goroutine. The timer
// is tracked so Close can cancel it.
func (e *Engine) schedule(fn func()) {
	e.timersMu.Lock()
	defer e.timersMu.Unlock()
	if e.closed {
		return
	}
	e.timerSeq++
	id := e.timerSeq
	e.timers[id] = time.AfterFunc(e.cascadeDelay, func() {
		e.timersMu.Lock()
		delete(e.timers, id)
		e.timersMu.Unlock()
		fn()
	})
}

// span opens a tracing span for an engine operation.
func (e *Engine) span(ctx context.Context, op string) (context.Context, oteltrace.Span) {
	return e.tracer.Start(ctx, op)
}

// Deleted is the event payload for delete actions; only the id survives.
type Deleted struct {
	ID string `json:"id"`
}

// publish announces a committed mutation on the bus.
func (e *Engine) publish(topic, action string, payload any) {
	if e.bus != nil {
		e.bus.Publish(topic, action, payload)
	}
}

// success reports a successful primary operation.
func (e *Engine) success(msg string) {
	if e.notifier != nil {
		e.notifier.Success(msg)
	}
}

// fail reports a failed primary operation to the sink and returns the error
// (normalized to an AppError) for the caller. Errors are never swallowed on
// the primary path: they are notified and re-thrown.
func (e *Engine) fail(ctx context.Context, op string, err error) error {
	appErr, ok := apperror.AsAppError(err)
	if !ok {
		appErr = apperror.NewStore(op, err)
	}
	if e.notifier != nil {
		e.notifier.Error(appErr.Message)
	}
	e.log.WithContext(ctx).Warnw("operation failed", "op", op, "error", appErr.Error())
	return appErr
}

// sideEffectErr logs a failed cascading side effect. Side effects are
// best-effort: the committed primary mutation stands even when a cascade
// fails, because there is no cross-collection transaction to roll it back
// with. The asymmetry is deliberate and surfaced here rather than hidden.
func (e *Engine) sideEffectErr(ctx context.Context, op string, err error) {
	e.log.WithContext(ctx).Errorw("cascade side effect failed", "op", op, "error", err)
	if e.notifier != nil {
		e.notifier.Warning(op + " failed; related records may need attention")
	}
}

// --- foreign key resolution ---

// requireCustomer resolves a customer id, mapping absence to a reference error.
func (e *Engine) requireCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	c, err := e.stores.Customers.GetByID(ctx, id)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewReference("customer", "customerId", id)
		}
		return nil, err
	}
	return c, nil
}

// requireVendor resolves a vendor id, mapping absence to a reference error.
func (e *Engine) requireVendor(ctx context.Context, id string) (*domain.Vendor, error) {
	v, err := e.stores.Vendors.GetByID(ctx, id)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewReference("vendor", "vendorId", id)
		}
		return nil, err
	}
	return v, nil
}

// requireSalesOrder resolves a sales order id, mapping absence to a reference error.
func (e *Engine) requireSalesOrder(ctx context.Context, id string) (*domain.SalesOrder, error) {
	o, err := e.stores.SalesOrders.GetByID(ctx, id)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewReference("sales order", "salesOrderId", id)
		}
		return nil, err
	}
	return o, nil
}
