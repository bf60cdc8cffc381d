package sync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"cargodesk/internal/bus"
	"cargodesk/internal/core/apperror"
	"cargodesk/internal/core/id"
	"cargodesk/internal/core/types"
	"cargodesk/internal/domain"
	"cargodesk/internal/notify"
	"cargodesk/pkg/logger"
	"cargodesk/pkg/sequence"
)

var testNow = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

type testRig struct {
	engine   *Engine
	stores   Stores
	bus      *bus.Bus
	notifier *notify.Capture
}

func newTestRig(t *testing.T, opts ...Option) *testRig {
	t.Helper()
	stores := NewMemoryStores()
	b := bus.New(logger.Nop())
	capture := &notify.Capture{}
	opts = append([]Option{
		WithClock(func() time.Time { return testNow }),
		WithCascadeDelay(time.Millisecond),
	}, opts...)
	e := New(stores, b, capture, sequence.New(sequence.NewMemoryCounter()), logger.Nop(), opts...)
	t.Cleanup(e.Close)
	return &testRig{engine: e, stores: stores, bus: b, notifier: capture}
}

func (r *testRig) customer(t *testing.T, name string) *domain.Customer {
	t.Helper()
	c, err := r.engine.CreateCustomer(context.Background(), &domain.Customer{
		Name:   name,
		Status: domain.CustomerActive,
	})
	require.NoError(t, err)
	return c
}

func (r *testRig) vendor(t *testing.T, name string) *domain.Vendor {
	t.Helper()
	v, err := r.engine.CreateVendor(context.Background(), &domain.Vendor{
		Name:   name,
		Status: domain.VendorActive,
	})
	require.NoError(t, err)
	return v
}

func (r *testRig) order(t *testing.T, customerID, vendorID string) *domain.SalesOrder {
	t.Helper()
	o, err := r.engine.CreateSalesOrder(context.Background(), &domain.SalesOrder{
		CustomerID:    customerID,
		VendorID:      vendorID,
		Origin:        "Shanghai",
		Destination:   "Rotterdam",
		Status:        domain.OrderDraft,
		SellingPrice:  types.MustMoney("12500"),
		EstimatedCost: types.MustMoney("9800"),
	})
	require.NoError(t, err)
	return o
}

func TestCreateSalesOrderDenormalizesAndNumbers(t *testing.T) {
	r := newTestRig(t)
	c := r.customer(t, "Pacific Trading Co")
	v := r.vendor(t, "Evergreen Lines")

	o := r.order(t, c.ID, v.ID)

	require.Equal(t, "SO-2026-00001", o.OrderNumber)
	require.Equal(t, "Pacific Trading Co", o.CustomerName)
	require.Equal(t, "Evergreen Lines", o.VendorName)
	require.True(t, o.Margin.Equal(types.MustMoney("2700")), "margin = %s", o.Margin)
}

func TestCreateSalesOrderMissingCustomerPersistsNothing(t *testing.T) {
	r := newTestRig(t)

	_, err := r.engine.CreateSalesOrder(context.Background(), &domain.SalesOrder{
		CustomerID:  id.New(),
		Origin:      "Shanghai",
		Destination: "Rotterdam",
	})
	require.Error(t, err)
	require.True(t, apperror.IsReference(err), "got %v", err)

	orders, err := r.stores.SalesOrders.GetAll(context.Background())
	require.NoError(t, err)
	require.Empty(t, orders)
	require.NotEmpty(t, r.notifier.Errors, "failed primary operation must notify")
}

func TestDeleteCustomerBlockedByOrders(t *testing.T) {
	r := newTestRig(t)
	c := r.customer(t, "Pacific Trading Co")
	r.order(t, c.ID, "")

	err := r.engine.DeleteCustomer(context.Background(), c.ID)
	require.True(t, apperror.IsDependency(err), "got %v", err)
	appErr, _ := apperror.AsAppError(err)
	require.Equal(t, 1, appErr.Details["count"])

	// Customer must still exist.
	_, err = r.engine.GetCustomer(context.Background(), c.ID)
	require.NoError(t, err)
}

func TestCustomerRenameFansOut(t *testing.T) {
	r := newTestRig(t)
	ctx := context.Background()
	c := r.customer(t, "Old Name")
	o := r.order(t, c.ID, "")

	_, err := r.engine.CreateInvoice(ctx, &domain.Invoice{
		CustomerID:   c.ID,
		SalesOrderID: o.ID,
		Subtotal:     types.MustMoney("100"),
	})
	require.NoError(t, err)
	// Draft -> Order creates the selling cost snapshot carrying the name.
	_, err = r.engine.ChangeSalesOrderStatus(ctx, o.ID, domain.OrderOrder)
	require.NoError(t, err)

	upd := *c
	upd.Name = "New Name"
	_, err = r.engine.UpdateCustomer(ctx, c.ID, &upd)
	require.NoError(t, err)

	got, err := r.engine.GetSalesOrder(ctx, o.ID)
	require.NoError(t, err)
	require.Equal(t, "New Name", got.CustomerName)

	invoices, err := r.engine.GetInvoices(ctx)
	require.NoError(t, err)
	require.Equal(t, "New Name", invoices[0].CustomerName)

	costs, err := r.engine.GetSellingCosts(ctx)
	require.NoError(t, err)
	require.Len(t, costs, 1)
	require.Equal(t, "New Name", costs[0].CustomerName)
}

func TestConfirmGeneratesShipmentAndCosts(t *testing.T) {
	r := newTestRig(t)
	ctx := context.Background()
	c := r.customer(t, "Pacific Trading Co")
	v := r.vendor(t, "Evergreen Lines")
	o := r.order(t, c.ID, v.ID)

	confirmed, err := r.engine.ChangeSalesOrderStatus(ctx, o.ID, domain.OrderConfirmed)
	require.NoError(t, err)
	require.NotNil(t, confirmed.ShipmentDetails)
	require.NotEmpty(t, confirmed.ShipmentDetails.TrackingNumber)

	shipments, err := r.engine.GetShipments(ctx)
	require.NoError(t, err)
	require.Len(t, shipments, 1)
	require.Equal(t, o.ID, shipments[0].SalesOrderID)
	require.Equal(t, confirmed.ShipmentDetails.TrackingNumber, shipments[0].TrackingNumber)
	require.Equal(t, domain.ShipmentPreparing, shipments[0].Status)

	costs, err := r.engine.GetOperationalCosts(ctx)
	require.NoError(t, err)
	require.Len(t, costs, 4)

	total := types.Zero()
	categories := map[string]bool{}
	for _, cost := range costs {
		total = total.Add(cost.Amount)
		categories[cost.Category] = true
		require.Equal(t, domain.CostPending, cost.Status)
		require.NotNil(t, cost.DueDate)
	}
	// 65 + 15 + 10 + 10 percent of the estimate sums back to the estimate.
	require.True(t, total.Equal(o.EstimatedCost), "cost total = %s, want %s", total, o.EstimatedCost)
	for _, want := range []string{
		domain.CostOceanFreight, domain.CostDrayage,
		domain.CostCustomsDocs, domain.CostTerminalHandling,
	} {
		require.True(t, categories[want], "missing category %s", want)
	}

	for _, cost := range costs {
		if cost.Category == domain.CostOceanFreight {
			require.Equal(t, "OF-"+o.OrderNumber, cost.VendorInvoiceNo)
			require.True(t, cost.Amount.Equal(types.MustMoney("6370")), "ocean freight = %s", cost.Amount)
		}
	}
}

func TestConfirmTwiceIsIdempotent(t *testing.T) {
	r := newTestRig(t)
	ctx := context.Background()
	c := r.customer(t, "Pacific Trading Co")
	o := r.order(t, c.ID, "")

	first, err := r.engine.ChangeSalesOrderStatus(ctx, o.ID, domain.OrderConfirmed)
	require.NoError(t, err)
	second, err := r.engine.ChangeSalesOrderStatus(ctx, o.ID, domain.OrderConfirmed)
	require.NoError(t, err)

	require.Equal(t, first.ShipmentDetails.TrackingNumber, second.ShipmentDetails.TrackingNumber)

	shipments, err := r.engine.GetShipments(ctx)
	require.NoError(t, err)
	require.Len(t, shipments, 1)

	costs, err := r.engine.GetOperationalCosts(ctx)
	require.NoError(t, err)
	require.Len(t, costs, 4)
}

func TestUnknownStatusLabelRejected(t *testing.T) {
	r := newTestRig(t)
	c := r.customer(t, "Pacific Trading Co")
	o := r.order(t, c.ID, "")

	_, err := r.engine.ChangeSalesOrderStatus(context.Background(), o.ID, "Teleported")
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	require.Equal(t, apperror.CodeTransition, appErr.Code)
}

func TestOrderStatusCreatesSellingCostSnapshotOnce(t *testing.T) {
	r := newTestRig(t)
	ctx := context.Background()
	c := r.customer(t, "Pacific Trading Co")
	o := r.order(t, c.ID, "")

	_, err := r.engine.ChangeSalesOrderStatus(ctx, o.ID, domain.OrderOrder)
	require.NoError(t, err)
	_, err = r.engine.ChangeSalesOrderStatus(ctx, o.ID, domain.OrderOrder)
	require.NoError(t, err)

	costs, err := r.engine.GetSellingCosts(ctx)
	require.NoError(t, err)
	require.Len(t, costs, 1)
	require.Equal(t, o.ID, costs[0].SalesOrderID)
	require.True(t, costs[0].Margin.Equal(types.MustMoney("2700")))
}

func TestDeliveredSettlesInvoicesAndShipment(t *testing.T) {
	r := newTestRig(t)
	ctx := context.Background()
	c := r.customer(t, "Pacific Trading Co")
	o := r.order(t, c.ID, "")

	inv, err := r.engine.CreateInvoice(ctx, &domain.Invoice{
		CustomerID:   c.ID,
		SalesOrderID: o.ID,
		Subtotal:     types.MustMoney("12500"),
		Status:       domain.InvoiceSent,
	})
	require.NoError(t, err)

	for _, status := range []domain.OrderStatus{
		domain.OrderConfirmed, domain.OrderInTransit, domain.OrderDelivered,
	} {
		_, err = r.engine.ChangeSalesOrderStatus(ctx, o.ID, status)
		require.NoError(t, err)
	}

	paid, err := r.engine.GetInvoice(ctx, inv.ID)
	require.NoError(t, err)
	require.Equal(t, domain.InvoicePaid, paid.Status)
	require.True(t, paid.PaidAmount.Equal(paid.Total))
	require.NotNil(t, paid.PaidDate)

	shipments, err := r.engine.GetShipments(ctx)
	require.NoError(t, err)
	require.Len(t, shipments, 1)
	require.Equal(t, domain.ShipmentDelivered, shipments[0].Status)
	require.NotNil(t, shipments[0].ActualArrival)
}

func TestStatusChangePublishesEvent(t *testing.T) {
	r := newTestRig(t)
	ctx := context.Background()
	c := r.customer(t, "Pacific Trading Co")
	o := r.order(t, c.ID, "")

	var changes []StatusChange
	r.bus.Subscribe("salesOrders", func(e bus.Event) error {
		if e.Action == "statusChange" {
			changes = append(changes, e.Payload.(StatusChange))
		}
		return nil
	})

	_, err := r.engine.ChangeSalesOrderStatus(ctx, o.ID, domain.OrderOrder)
	require.NoError(t, err)

	require.Len(t, changes, 1)
	require.Equal(t, domain.OrderDraft, changes[0].From)
	require.Equal(t, domain.OrderOrder, changes[0].To)
	require.Equal(t, o.OrderNumber, changes[0].OrderNumber)
}

func TestDeleteSalesOrderBlockedByInvoiceAndCleansDependents(t *testing.T) {
	r := newTestRig(t)
	ctx := context.Background()
	c := r.customer(t, "Pacific Trading Co")
	o := r.order(t, c.ID, "")
	_, err := r.engine.ChangeSalesOrderStatus(ctx, o.ID, domain.OrderConfirmed)
	require.NoError(t, err)

	inv, err := r.engine.CreateInvoice(ctx, &domain.Invoice{
		CustomerID:   c.ID,
		SalesOrderID: o.ID,
		Subtotal:     types.MustMoney("100"),
	})
	require.NoError(t, err)

	err = r.engine.DeleteSalesOrder(ctx, o.ID)
	require.True(t, apperror.IsDependency(err), "got %v", err)

	require.NoError(t, r.engine.DeleteInvoice(ctx, inv.ID))
	require.NoError(t, r.engine.DeleteSalesOrder(ctx, o.ID))

	shipments, err := r.engine.GetShipments(ctx)
	require.NoError(t, err)
	require.Empty(t, shipments)
	costs, err := r.engine.GetOperationalCosts(ctx)
	require.NoError(t, err)
	require.Empty(t, costs)
}

func TestSellingCostRollback(t *testing.T) {
	r := newTestRig(t)
	ctx := context.Background()
	c := r.customer(t, "Pacific Trading Co")
	o := r.order(t, c.ID, "")

	_, err := r.engine.CreateSellingCost(ctx, &domain.SellingCost{
		SalesOrderID:  o.ID,
		SellingPrice:  types.MustMoney("12500"),
		EstimatedCost: types.MustMoney("9800"),
	})
	require.NoError(t, err)

	// Rolling back the create removes the record.
	_, err = r.engine.RollbackLastSellingCostChange(ctx)
	require.NoError(t, err)
	costs, err := r.engine.GetSellingCosts(ctx)
	require.NoError(t, err)
	require.Empty(t, costs)

	// The slot is single-use: a second rollback is an error.
	_, err = r.engine.RollbackLastSellingCostChange(ctx)
	require.Error(t, err)

	// Update then rollback restores the previous values.
	sc2, err := r.engine.CreateSellingCost(ctx, &domain.SellingCost{
		SalesOrderID:  o.ID,
		SellingPrice:  types.MustMoney("12500"),
		EstimatedCost: types.MustMoney("9800"),
	})
	require.NoError(t, err)
	upd := *sc2
	upd.SellingPrice = types.MustMoney("20000")
	_, err = r.engine.UpdateSellingCost(ctx, sc2.ID, &upd)
	require.NoError(t, err)

	restored, err := r.engine.RollbackLastSellingCostChange(ctx)
	require.NoError(t, err)
	require.True(t, restored.SellingPrice.Equal(types.MustMoney("12500")))
}

func TestConsistencyAuditFindsOrphans(t *testing.T) {
	r := newTestRig(t)
	ctx := context.Background()
	c := r.customer(t, "Pacific Trading Co")

	// Bypass the engine to plant dangling references, as external seeding
	// or a crash between cascade steps would.
	orphanInvoice := &domain.Invoice{
		InvoiceNumber: "INV-2026-00099",
		CustomerID:    c.ID,
		SalesOrderID:  id.New(),
		Status:        domain.InvoiceSent,
	}
	orphanInvoice.Stamp(id.New(), testNow)
	require.NoError(t, r.stores.Invoices.Create(ctx, orphanInvoice))

	orphanOrder := &domain.SalesOrder{
		OrderNumber: "SO-2026-00099",
		CustomerID:  id.New(),
		Origin:      "A",
		Destination: "B",
		Status:      domain.OrderDraft,
	}
	orphanOrder.Stamp(id.New(), testNow)
	require.NoError(t, r.stores.SalesOrders.Create(ctx, orphanOrder))

	issues, err := r.engine.ValidateDataConsistency(ctx)
	require.NoError(t, err)

	byType := map[string]int{}
	for _, issue := range issues {
		byType[issue.Type]++
	}
	require.Equal(t, 1, byType[IssueOrphanedInvoice])
	require.Equal(t, 1, byType[IssueOrphanedSalesOrder])
	require.Equal(t, 0, byType[IssueInvoiceMissingCustomer])
}

func TestDashboardAggregates(t *testing.T) {
	r := newTestRig(t)
	ctx := context.Background()
	c := r.customer(t, "Pacific Trading Co")
	o := r.order(t, c.ID, "")
	_, err := r.engine.ChangeSalesOrderStatus(ctx, o.ID, domain.OrderConfirmed)
	require.NoError(t, err)

	require.NoError(t, r.engine.RecomputeDashboard(ctx))
	stats, err := r.engine.Dashboard(ctx)
	require.NoError(t, err)

	require.Equal(t, 1, stats.Customers)
	require.Equal(t, 1, stats.SalesOrders)
	require.Equal(t, 1, stats.Shipments)
	require.Equal(t, 1, stats.ActiveShipments)
	require.Equal(t, 1, stats.OrdersByStatus[domain.OrderConfirmed])
	require.True(t, stats.TotalRevenue.Equal(types.MustMoney("12500")))
	require.True(t, stats.PendingCosts.Equal(types.MustMoney("9800")))
}

func TestScheduledFollowUpRecomputesDashboard(t *testing.T) {
	r := newTestRig(t)
	ctx := context.Background()
	c := r.customer(t, "Pacific Trading Co")
	o := r.order(t, c.ID, "")

	dashboardEvents := 0
	r.bus.Subscribe("dashboard", func(bus.Event) error {
		dashboardEvents++
		return nil
	})

	_, err := r.engine.ChangeSalesOrderStatus(ctx, o.ID, domain.OrderOrder)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return dashboardEvents >= 1
	}, time.Second, 5*time.Millisecond, "scheduled recompute did not run")
}

func TestCloseCancelsScheduledFollowUps(t *testing.T) {
	r := newTestRig(t, WithCascadeDelay(time.Hour))
	ctx := context.Background()
	c := r.customer(t, "Pacific Trading Co")
	o := r.order(t, c.ID, "")

	_, err := r.engine.ChangeSalesOrderStatus(ctx, o.ID, domain.OrderOrder)
	require.NoError(t, err)

	// Close must stop pending timers; nothing to assert beyond no panic
	// and idempotence.
	r.engine.Close()
	r.engine.Close()
}
