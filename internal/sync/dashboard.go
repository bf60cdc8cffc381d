package sync

import (
	"context"

	"cargodesk/internal/core/types"
	"cargodesk/internal/domain"
	"cargodesk/internal/store"
)

// Stats is the dashboard snapshot recomputed after every status transition
// (and on demand). Monetary aggregates exclude cancelled orders.
type Stats struct {
	Customers      int `json:"customers"`
	Vendors        int `json:"vendors"`
	SalesOrders    int `json:"salesOrders"`
	Shipments      int `json:"shipments"`
	Invoices       int `json:"invoices"`
	PurchaseOrders int `json:"purchaseOrders"`

	OrdersByStatus map[domain.OrderStatus]int `json:"ordersByStatus"`

	TotalRevenue  types.Money `json:"totalRevenue"`
	TotalCost     types.Money `json:"totalCost"`
	TotalMargin   types.Money `json:"totalMargin"`
	PendingCosts  types.Money `json:"pendingCosts"`
	UnpaidInvoice types.Money `json:"unpaidInvoiceTotal"`

	ActiveShipments int `json:"activeShipments"`
	OverdueInvoices int `json:"overdueInvoices"`
}

// Dashboard returns the last computed snapshot, computing one if none
// exists yet.
func (e *Engine) Dashboard(ctx context.Context) (*Stats, error) {
	e.mu.Lock()
	cached := e.lastStats
	e.mu.Unlock()
	if cached != nil {
		return cached, nil
	}
	if err := e.RecomputeDashboard(ctx); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastStats, nil
}

// RecomputeDashboard rebuilds the statistics snapshot from the store and
// publishes it on the dashboard topic.
func (e *Engine) RecomputeDashboard(ctx context.Context) error {
	ctx, span := e.span(ctx, "sync.RecomputeDashboard")
	defer span.End()
	e.mu.Lock()
	defer e.mu.Unlock()

	customers, err := e.stores.Customers.GetAll(ctx)
	if err != nil {
		return e.fail(ctx, "recompute dashboard", err)
	}
	vendors, err := e.stores.Vendors.GetAll(ctx)
	if err != nil {
		return e.fail(ctx, "recompute dashboard", err)
	}
	orders, err := e.stores.SalesOrders.GetAll(ctx)
	if err != nil {
		return e.fail(ctx, "recompute dashboard", err)
	}
	shipments, err := e.stores.Shipments.GetAll(ctx)
	if err != nil {
		return e.fail(ctx, "recompute dashboard", err)
	}
	invoices, err := e.stores.Invoices.GetAll(ctx)
	if err != nil {
		return e.fail(ctx, "recompute dashboard", err)
	}
	opCosts, err := e.stores.OperationalCosts.GetAll(ctx)
	if err != nil {
		return e.fail(ctx, "recompute dashboard", err)
	}
	pos, err := e.stores.PurchaseOrders.GetAll(ctx)
	if err != nil {
		return e.fail(ctx, "recompute dashboard", err)
	}

	s := &Stats{
		Customers:      len(customers),
		Vendors:        len(vendors),
		SalesOrders:    len(orders),
		Shipments:      len(shipments),
		Invoices:       len(invoices),
		PurchaseOrders: len(pos),
		OrdersByStatus: make(map[domain.OrderStatus]int),
		TotalRevenue:   types.Zero(),
		TotalCost:      types.Zero(),
		TotalMargin:    types.Zero(),
		PendingCosts:   types.Zero(),
		UnpaidInvoice:  types.Zero(),
	}
	for _, o := range orders {
		s.OrdersByStatus[o.Status]++
		if o.Status == domain.OrderCancelled {
			continue
		}
		s.TotalRevenue = s.TotalRevenue.Add(o.SellingPrice)
		s.TotalCost = s.TotalCost.Add(o.EstimatedCost)
		s.TotalMargin = s.TotalMargin.Add(o.Margin)
	}
	for _, sh := range shipments {
		if sh.Status == domain.ShipmentPreparing || sh.Status == domain.ShipmentInTransit {
			s.ActiveShipments++
		}
	}
	now := e.now()
	for _, inv := range invoices {
		if inv.Status == domain.InvoicePaid || inv.Status == domain.InvoiceCancelled {
			continue
		}
		s.UnpaidInvoice = s.UnpaidInvoice.Add(inv.Total.Sub(inv.PaidAmount))
		if inv.IsOverdue(now) {
			s.OverdueInvoices++
		}
	}
	for _, c := range opCosts {
		if c.Status == domain.CostPending {
			s.PendingCosts = s.PendingCosts.Add(c.Amount)
		}
	}

	e.lastStats = s
	e.publish(store.Dashboard, "update", s)
	return nil
}
