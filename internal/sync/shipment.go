package sync

import (
	"context"
	"fmt"
	"time"

	"cargodesk/internal/core/apperror"
	"cargodesk/internal/core/id"
	"cargodesk/internal/domain"
	"cargodesk/internal/store"
)

// GetShipments returns all shipments.
func (e *Engine) GetShipments(ctx context.Context) ([]*domain.Shipment, error) {
	return e.stores.Shipments.GetAll(ctx)
}

// GetShipment returns one shipment by id.
func (e *Engine) GetShipment(ctx context.Context, shipmentID string) (*domain.Shipment, error) {
	return e.stores.Shipments.GetByID(ctx, shipmentID)
}

// CreateShipment books a shipment manually. An empty tracking number gets a
// synthesized one; a sales order reference, if present, must resolve.
func (e *Engine) CreateShipment(ctx context.Context, s *domain.Shipment) (*domain.Shipment, error) {
	ctx, span := e.span(ctx, "sync.CreateShipment")
	defer span.End()
	e.mu.Lock()
	defer e.mu.Unlock()

	if s.TrackingNumber == "" {
		s.TrackingNumber = "TRK-" + id.Short(10)
	}
	if err := s.Validate(ctx); err != nil {
		return nil, e.fail(ctx, "create shipment", err)
	}
	if s.SalesOrderID != "" {
		if _, err := e.requireSalesOrder(ctx, s.SalesOrderID); err != nil {
			return nil, e.fail(ctx, "create shipment", err)
		}
	}
	s.Stamp(id.New(), e.now())
	if err := e.stores.Shipments.Create(ctx, s); err != nil {
		return nil, e.fail(ctx, "create shipment", err)
	}
	e.publish(store.Shipments, "create", s)
	e.success(fmt.Sprintf("Shipment %s booked", s.TrackingNumber))
	return s, nil
}

// UpdateShipment replaces a shipment record. When the shipment is derived
// from an order, the order's tracking snapshot is kept in step.
func (e *Engine) UpdateShipment(ctx context.Context, shipmentID string, upd *domain.Shipment) (*domain.Shipment, error) {
	ctx, span := e.span(ctx, "sync.UpdateShipment")
	defer span.End()
	e.mu.Lock()
	defer e.mu.Unlock()

	existing, err := e.stores.Shipments.GetByID(ctx, shipmentID)
	if err != nil {
		return nil, e.fail(ctx, "update shipment", err)
	}
	upd.ID = shipmentID
	upd.CreatedAt = existing.CreatedAt
	if err := upd.Validate(ctx); err != nil {
		return nil, e.fail(ctx, "update shipment", err)
	}
	if upd.SalesOrderID != "" {
		if _, err := e.requireSalesOrder(ctx, upd.SalesOrderID); err != nil {
			return nil, e.fail(ctx, "update shipment", err)
		}
	}
	upd.Touch(e.now())
	if err := e.stores.Shipments.Update(ctx, upd); err != nil {
		return nil, e.fail(ctx, "update shipment", err)
	}
	e.publish(store.Shipments, "update", upd)

	if upd.SalesOrderID != "" {
		e.mirrorShipmentOntoOrder(ctx, upd)
	}
	e.success(fmt.Sprintf("Shipment %s updated", upd.TrackingNumber))
	return upd, nil
}

// DeleteShipment removes a shipment and clears the owning order's tracking
// snapshot if the shipment was derived.
func (e *Engine) DeleteShipment(ctx context.Context, shipmentID string) error {
	ctx, span := e.span(ctx, "sync.DeleteShipment")
	defer span.End()
	e.mu.Lock()
	defer e.mu.Unlock()

	existing, err := e.stores.Shipments.GetByID(ctx, shipmentID)
	if err != nil {
		return e.fail(ctx, "delete shipment", err)
	}
	ok, err := e.stores.Shipments.Delete(ctx, shipmentID)
	if err != nil {
		return e.fail(ctx, "delete shipment", err)
	}
	if !ok {
		return e.fail(ctx, "delete shipment", apperror.NewNotFound("shipment", shipmentID))
	}
	e.publish(store.Shipments, "delete", Deleted{ID: shipmentID})

	if existing.SalesOrderID != "" {
		o, err := e.stores.SalesOrders.GetByID(ctx, existing.SalesOrderID)
		if err == nil && o.ShipmentDetails != nil && o.ShipmentDetails.TrackingNumber == existing.TrackingNumber {
			o.ShipmentDetails = nil
			o.Touch(e.now())
			if err := e.stores.SalesOrders.Update(ctx, o); err != nil {
				e.sideEffectErr(ctx, "clear order tracking snapshot", err)
			} else {
				e.publish(store.SalesOrders, "update", o)
			}
		}
	}
	e.success("Shipment deleted")
	return nil
}

// mirrorShipmentOntoOrder refreshes the order-owned tracking snapshot from
// its derived shipment.
func (e *Engine) mirrorShipmentOntoOrder(ctx context.Context, s *domain.Shipment) {
	o, err := e.stores.SalesOrders.GetByID(ctx, s.SalesOrderID)
	if err != nil {
		e.sideEffectErr(ctx, "mirror shipment onto order", err)
		return
	}
	if o.ShipmentDetails == nil {
		o.ShipmentDetails = &domain.ShipmentDetails{}
	}
	d := o.ShipmentDetails
	if d.TrackingNumber == s.TrackingNumber &&
		d.Status == s.Status &&
		equalTimePtr(d.EstimatedDeparture, s.ETD) &&
		equalTimePtr(d.EstimatedArrival, s.ETA) &&
		equalTimePtr(d.ActualArrival, s.ActualArrival) {
		return
	}
	d.TrackingNumber = s.TrackingNumber
	d.Status = s.Status
	d.EstimatedDeparture = s.ETD
	d.EstimatedArrival = s.ETA
	d.ActualArrival = s.ActualArrival
	o.Touch(e.now())
	if err := e.stores.SalesOrders.Update(ctx, o); err != nil {
		e.sideEffectErr(ctx, "mirror shipment onto order", err)
		return
	}
	e.publish(store.SalesOrders, "update", o)
}

func equalTimePtr(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
