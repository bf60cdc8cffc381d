package sync

import (
	"context"
	"fmt"
	"time"

	"cargodesk/internal/core/apperror"
	"cargodesk/internal/core/id"
	"cargodesk/internal/core/types"
	"cargodesk/internal/domain"
	"cargodesk/internal/store"
	"cargodesk/pkg/sequence"
)

// StatusChange is the event payload published alongside an order status
// transition.
type StatusChange struct {
	OrderID     string             `json:"orderId"`
	OrderNumber string             `json:"orderNumber"`
	From        domain.OrderStatus `json:"from"`
	To          domain.OrderStatus `json:"to"`
}

// Cost split applied to an order's estimated cost on confirmation.
// Percentages sum to 100 so the generated lines sum to the estimate.
var confirmationCostSplit = []struct {
	category  string
	pct       int64
	invPrefix string
	dueDays   int
}{
	{domain.CostOceanFreight, 65, "OF", 30},
	{domain.CostDrayage, 15, "DR", 14},
	{domain.CostCustomsDocs, 10, "CD", 7},
	{domain.CostTerminalHandling, 10, "TH", 10},
}

// GetSalesOrders returns all sales orders.
func (e *Engine) GetSalesOrders(ctx context.Context) ([]*domain.SalesOrder, error) {
	return e.stores.SalesOrders.GetAll(ctx)
}

// GetSalesOrder returns one sales order by id.
func (e *Engine) GetSalesOrder(ctx context.Context, orderID string) (*domain.SalesOrder, error) {
	return e.stores.SalesOrders.GetByID(ctx, orderID)
}

// CreateSalesOrder validates references, denormalizes the customer and
// vendor names onto the order, assigns an order number, and persists.
// Reference failures happen before the write: nothing is persisted on error.
func (e *Engine) CreateSalesOrder(ctx context.Context, o *domain.SalesOrder) (*domain.SalesOrder, error) {
	ctx, span := e.span(ctx, "sync.CreateSalesOrder")
	defer span.End()
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := o.Validate(ctx); err != nil {
		return nil, e.fail(ctx, "create sales order", err)
	}
	cust, err := e.requireCustomer(ctx, o.CustomerID)
	if err != nil {
		return nil, e.fail(ctx, "create sales order", err)
	}
	o.CustomerName = cust.Name
	if o.VendorID != "" {
		v, err := e.requireVendor(ctx, o.VendorID)
		if err != nil {
			return nil, e.fail(ctx, "create sales order", err)
		}
		o.VendorName = v.Name
	}

	now := e.now()
	if o.OrderNumber == "" {
		num, err := e.seq.Next(ctx, sequence.DefaultConfig("SO"), now)
		if err != nil {
			return nil, e.fail(ctx, "create sales order", err)
		}
		o.OrderNumber = num
	}
	o.RecalculateMargin()
	o.Stamp(id.New(), now)
	if err := e.stores.SalesOrders.Create(ctx, o); err != nil {
		return nil, e.fail(ctx, "create sales order", err)
	}
	e.publish(store.SalesOrders, "create", o)
	e.success(fmt.Sprintf("Sales order %s created", o.OrderNumber))
	return o, nil
}

// UpdateSalesOrder replaces an order's mutable fields. The order number is
// immutable. If the update carries a status different from the stored one,
// the status transition cascades run as part of the same call.
func (e *Engine) UpdateSalesOrder(ctx context.Context, orderID string, upd *domain.SalesOrder) (*domain.SalesOrder, error) {
	ctx, span := e.span(ctx, "sync.UpdateSalesOrder")
	defer span.End()
	e.mu.Lock()
	defer e.mu.Unlock()

	existing, err := e.stores.SalesOrders.GetByID(ctx, orderID)
	if err != nil {
		return nil, e.fail(ctx, "update sales order", err)
	}
	upd.ID = orderID
	upd.CreatedAt = existing.CreatedAt
	upd.OrderNumber = existing.OrderNumber
	if err := upd.Validate(ctx); err != nil {
		return nil, e.fail(ctx, "update sales order", err)
	}
	cust, err := e.requireCustomer(ctx, upd.CustomerID)
	if err != nil {
		return nil, e.fail(ctx, "update sales order", err)
	}
	upd.CustomerName = cust.Name
	if upd.VendorID != "" {
		v, err := e.requireVendor(ctx, upd.VendorID)
		if err != nil {
			return nil, e.fail(ctx, "update sales order", err)
		}
		upd.VendorName = v.Name
	} else {
		upd.VendorName = ""
	}

	statusChanged := upd.Status != existing.Status
	oldStatus := existing.Status
	if statusChanged {
		e.prepareStatusCascades(upd)
	}
	upd.RecalculateMargin()
	upd.Touch(e.now())
	if err := e.stores.SalesOrders.Update(ctx, upd); err != nil {
		return nil, e.fail(ctx, "update sales order", err)
	}
	e.publish(store.SalesOrders, "update", upd)
	if statusChanged {
		e.runStatusCascades(ctx, upd, oldStatus)
	}
	e.success(fmt.Sprintf("Sales order %s updated", upd.OrderNumber))
	return upd, nil
}

// ChangeSalesOrderStatus moves an order to a new status and runs the
// transition cascades. Repeating the current status is legal and the
// cascades are idempotent, so a duplicate call creates no duplicate
// shipments or cost lines.
func (e *Engine) ChangeSalesOrderStatus(ctx context.Context, orderID string, to domain.OrderStatus) (*domain.SalesOrder, error) {
	ctx, span := e.span(ctx, "sync.ChangeSalesOrderStatus")
	defer span.End()
	e.mu.Lock()
	defer e.mu.Unlock()

	o, err := e.stores.SalesOrders.GetByID(ctx, orderID)
	if err != nil {
		return nil, e.fail(ctx, "change sales order status", err)
	}
	if !domain.ValidOrderStatus(to) {
		return nil, e.fail(ctx, "change sales order status",
			apperror.NewTransition("sales order", string(o.Status), string(to)))
	}

	from := o.Status
	o.Status = to
	e.prepareStatusCascades(o)
	o.Touch(e.now())
	if err := e.stores.SalesOrders.Update(ctx, o); err != nil {
		return nil, e.fail(ctx, "change sales order status", err)
	}
	e.publish(store.SalesOrders, "update", o)
	e.runStatusCascades(ctx, o, from)
	e.success(fmt.Sprintf("Sales order %s moved to %s", o.OrderNumber, to))
	return o, nil
}

// DeleteSalesOrder removes an order. Invoices referencing the order block
// the delete; derived shipments and cost records are cleaned up with it.
func (e *Engine) DeleteSalesOrder(ctx context.Context, orderID string) error {
	ctx, span := e.span(ctx, "sync.DeleteSalesOrder")
	defer span.End()
	e.mu.Lock()
	defer e.mu.Unlock()

	invoices, err := e.stores.Invoices.GetAll(ctx)
	if err != nil {
		return e.fail(ctx, "delete sales order", err)
	}
	n := 0
	for _, inv := range invoices {
		if inv.SalesOrderID == orderID {
			n++
		}
	}
	if n > 0 {
		return e.fail(ctx, "delete sales order", apperror.NewDependency("sales order", "invoice", n))
	}

	ok, err := e.stores.SalesOrders.Delete(ctx, orderID)
	if err != nil {
		return e.fail(ctx, "delete sales order", err)
	}
	if !ok {
		return e.fail(ctx, "delete sales order", apperror.NewNotFound("sales order", orderID))
	}
	e.publish(store.SalesOrders, "delete", Deleted{ID: orderID})

	e.cleanupOrderDependents(ctx, orderID)
	e.success("Sales order deleted")
	return nil
}

// cleanupOrderDependents removes derived shipments and cost records after
// an order delete. Best-effort: the order is already gone.
func (e *Engine) cleanupOrderDependents(ctx context.Context, orderID string) {
	shipments, err := e.stores.Shipments.GetAll(ctx)
	if err != nil {
		e.sideEffectErr(ctx, "shipment cleanup", err)
	} else {
		for _, s := range shipments {
			if s.SalesOrderID != orderID {
				continue
			}
			if _, err := e.stores.Shipments.Delete(ctx, s.ID); err != nil {
				e.sideEffectErr(ctx, "shipment cleanup "+s.ID, err)
				continue
			}
			e.publish(store.Shipments, "delete", Deleted{ID: s.ID})
		}
	}

	opCosts, err := e.stores.OperationalCosts.GetAll(ctx)
	if err != nil {
		e.sideEffectErr(ctx, "operational cost cleanup", err)
	} else {
		for _, c := range opCosts {
			if c.SalesOrderID != orderID {
				continue
			}
			if _, err := e.stores.OperationalCosts.Delete(ctx, c.ID); err != nil {
				e.sideEffectErr(ctx, "operational cost cleanup "+c.ID, err)
				continue
			}
			e.publish(store.OperationalCosts, "delete", Deleted{ID: c.ID})
		}
	}

	sellCosts, err := e.stores.SellingCosts.GetAll(ctx)
	if err != nil {
		e.sideEffectErr(ctx, "selling cost cleanup", err)
		return
	}
	for _, sc := range sellCosts {
		if sc.SalesOrderID != orderID {
			continue
		}
		if _, err := e.stores.SellingCosts.Delete(ctx, sc.ID); err != nil {
			e.sideEffectErr(ctx, "selling cost cleanup "+sc.ID, err)
			continue
		}
		e.publish(store.SellingCosts, "delete", Deleted{ID: sc.ID})
	}
}

// prepareStatusCascades applies the in-record effects of the order's new
// status before the write, so the persisted order already carries them.
func (e *Engine) prepareStatusCascades(o *domain.SalesOrder) {
	now := e.now()
	switch o.Status {
	case domain.OrderConfirmed:
		if o.ShipmentDetails == nil {
			o.ShipmentDetails = &domain.ShipmentDetails{}
		}
		if o.ShipmentDetails.TrackingNumber == "" {
			o.ShipmentDetails.TrackingNumber = "TRK-" + id.Short(10)
		}
		if o.ShipmentDetails.Status == "" {
			o.ShipmentDetails.Status = domain.ShipmentPreparing
		}
	case domain.OrderInTransit:
		if o.ShipmentDetails != nil {
			o.ShipmentDetails.Status = domain.ShipmentInTransit
		}
	case domain.OrderDelivered:
		if o.ShipmentDetails != nil {
			o.ShipmentDetails.Status = domain.ShipmentDelivered
			if o.ShipmentDetails.ActualArrival == nil {
				t := now
				o.ShipmentDetails.ActualArrival = &t
			}
		}
	case domain.OrderCancelled:
		if o.ShipmentDetails != nil {
			o.ShipmentDetails.Status = domain.ShipmentCancelled
		}
	}
}

// runStatusCascades runs the cross-entity side effects of a committed status
// transition. Called with the engine lock held, after the order write and
// its publish. Each cascade is idempotent and best-effort.
func (e *Engine) runStatusCascades(ctx context.Context, o *domain.SalesOrder, from domain.OrderStatus) {
	e.publish(store.SalesOrders, "statusChange", StatusChange{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		From:        from,
		To:          o.Status,
	})

	switch o.Status {
	case domain.OrderOrder:
		e.ensureSellingCostSnapshot(ctx, o)
	case domain.OrderConfirmed:
		e.ensureShipment(ctx, o)
		e.ensureOperationalCosts(ctx, o)
	case domain.OrderInTransit:
		e.propagateShipmentStatus(ctx, o, domain.ShipmentInTransit, false)
	case domain.OrderDelivered:
		e.propagateShipmentStatus(ctx, o, domain.ShipmentDelivered, true)
		e.settleOrderInvoices(ctx, o)
	case domain.OrderCancelled:
		e.propagateShipmentStatus(ctx, o, domain.ShipmentCancelled, false)
	}

	status := o.Status
	number := o.OrderNumber
	e.schedule(func() {
		if err := e.RecomputeDashboard(context.Background()); err != nil {
			e.log.Warnw("scheduled dashboard recompute failed", "error", err)
		}
		if e.notifier != nil {
			e.notifier.Info(fmt.Sprintf("Order %s is now %s", number, status))
		}
	})
}

// ensureShipment derives the authoritative shipment record for a confirmed
// order. Idempotent by sales order id: an order gets at most one derived
// shipment, kept in step with the order's tracking snapshot.
func (e *Engine) ensureShipment(ctx context.Context, o *domain.SalesOrder) {
	shipments, err := e.stores.Shipments.GetAll(ctx)
	if err != nil {
		e.sideEffectErr(ctx, "derive shipment", err)
		return
	}
	for _, s := range shipments {
		if s.SalesOrderID != o.ID {
			continue
		}
		if s.TrackingNumber != o.TrackingNumber() && o.TrackingNumber() != "" {
			s.TrackingNumber = o.TrackingNumber()
			s.Touch(e.now())
			if err := e.stores.Shipments.Update(ctx, s); err != nil {
				e.sideEffectErr(ctx, "derive shipment", err)
				return
			}
			e.publish(store.Shipments, "update", s)
		}
		return
	}

	s := &domain.Shipment{
		SalesOrderID:   o.ID,
		TrackingNumber: o.TrackingNumber(),
		Origin:         o.Origin,
		Destination:    o.Destination,
		Carrier:        o.VendorName,
		Status:         domain.ShipmentPreparing,
	}
	if o.ShipmentDetails != nil {
		s.ETD = o.ShipmentDetails.EstimatedDeparture
		s.ETA = o.ShipmentDetails.EstimatedArrival
	}
	s.Stamp(id.New(), e.now())
	if err := e.stores.Shipments.Create(ctx, s); err != nil {
		e.sideEffectErr(ctx, "derive shipment", err)
		return
	}
	e.publish(store.Shipments, "create", s)
}

// ensureOperationalCosts generates the standard payable cost lines for a
// confirmed order: a fixed percentage split of the estimated cost, one line
// per category, each with a synthesized vendor invoice number and a due
// date offset. Categories already present for the order are skipped.
func (e *Engine) ensureOperationalCosts(ctx context.Context, o *domain.SalesOrder) {
	existing, err := e.stores.OperationalCosts.GetAll(ctx)
	if err != nil {
		e.sideEffectErr(ctx, "generate operational costs", err)
		return
	}
	have := make(map[string]struct{})
	for _, c := range existing {
		if c.SalesOrderID == o.ID {
			have[c.Category] = struct{}{}
		}
	}

	now := e.now()
	for _, line := range confirmationCostSplit {
		if _, ok := have[line.category]; ok {
			continue
		}
		due := now.AddDate(0, 0, line.dueDays)
		c := &domain.OperationalCost{
			SalesOrderID:    o.ID,
			Category:        line.category,
			Description:     fmt.Sprintf("%s for %s", line.category, o.OrderNumber),
			Amount:          types.Percent(o.EstimatedCost, line.pct),
			VendorName:      o.VendorName,
			VendorInvoiceNo: fmt.Sprintf("%s-%s", line.invPrefix, o.OrderNumber),
			DueDate:         &due,
			Status:          domain.CostPending,
		}
		c.Stamp(id.New(), now)
		if err := e.stores.OperationalCosts.Create(ctx, c); err != nil {
			e.sideEffectErr(ctx, "generate operational cost "+line.category, err)
			continue
		}
		e.publish(store.OperationalCosts, "create", c)
	}
}

// ensureSellingCostSnapshot freezes the order economics into a selling cost
// record when the order becomes an Order. Idempotent by sales order id.
func (e *Engine) ensureSellingCostSnapshot(ctx context.Context, o *domain.SalesOrder) {
	existing, err := e.stores.SellingCosts.GetAll(ctx)
	if err != nil {
		e.sideEffectErr(ctx, "selling cost snapshot", err)
		return
	}
	for _, sc := range existing {
		if sc.SalesOrderID == o.ID {
			return
		}
	}

	sc := &domain.SellingCost{
		SalesOrderID:  o.ID,
		OrderNumber:   o.OrderNumber,
		CustomerName:  o.CustomerName,
		SellingPrice:  o.SellingPrice,
		EstimatedCost: o.EstimatedCost,
		Margin:        o.SellingPrice.Sub(o.EstimatedCost),
	}
	sc.Stamp(id.New(), e.now())
	if err := e.stores.SellingCosts.Create(ctx, sc); err != nil {
		e.sideEffectErr(ctx, "selling cost snapshot", err)
		return
	}
	e.publish(store.SellingCosts, "create", sc)
}

// propagateShipmentStatus keeps derived shipment records in step with the
// order's status.
func (e *Engine) propagateShipmentStatus(ctx context.Context, o *domain.SalesOrder, status domain.ShipmentStatus, arrived bool) {
	shipments, err := e.stores.Shipments.GetAll(ctx)
	if err != nil {
		e.sideEffectErr(ctx, "propagate shipment status", err)
		return
	}
	now := e.now()
	for _, s := range shipments {
		if s.SalesOrderID != o.ID || s.Status == status {
			continue
		}
		s.Status = status
		if arrived && s.ActualArrival == nil {
			t := now
			s.ActualArrival = &t
		}
		s.Touch(now)
		if err := e.stores.Shipments.Update(ctx, s); err != nil {
			e.sideEffectErr(ctx, "propagate shipment status "+s.ID, err)
			continue
		}
		e.publish(store.Shipments, "update", s)
	}
}

// settleOrderInvoices marks open invoices of a delivered order as paid.
func (e *Engine) settleOrderInvoices(ctx context.Context, o *domain.SalesOrder) {
	invoices, err := e.stores.Invoices.GetAll(ctx)
	if err != nil {
		e.sideEffectErr(ctx, "settle invoices", err)
		return
	}
	now := e.now()
	for _, inv := range invoices {
		if inv.SalesOrderID != o.ID {
			continue
		}
		if inv.Status == domain.InvoicePaid || inv.Status == domain.InvoiceCancelled {
			continue
		}
		inv.Status = domain.InvoicePaid
		inv.PaidAmount = inv.Total
		t := now
		inv.PaidDate = &t
		inv.Touch(now)
		if err := e.stores.Invoices.Update(ctx, inv); err != nil {
			e.sideEffectErr(ctx, "settle invoice "+inv.ID, err)
			continue
		}
		e.publish(store.Invoices, "update", inv)
	}
}

// nextDueDate is a convenience for invoice creation defaults.
func (e *Engine) nextDueDate(days int) *time.Time {
	t := e.now().AddDate(0, 0, days)
	return &t
}
