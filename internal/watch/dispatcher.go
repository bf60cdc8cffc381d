package watch

import (
	"context"
	"encoding/json"

	"cargodesk/internal/core/apperror"
	"cargodesk/internal/domain"
	"cargodesk/internal/store"
	"cargodesk/internal/sync"
)

// Dispatcher routes generic by-name entity operations to the typed engine
// methods. Import tooling and the seed command work with collection names
// and raw JSON; everything else should call the engine directly.
type Dispatcher struct {
	engine     *sync.Engine
	refreshers map[string][]func(context.Context)
}

// NewDispatcher wraps an engine.
func NewDispatcher(engine *sync.Engine) *Dispatcher {
	return &Dispatcher{
		engine:     engine,
		refreshers: make(map[string][]func(context.Context)),
	}
}

// OnMutate registers a callback run after every successful operation on the
// collection. Watchers register their Refresh here so bulk imports see fresh
// snapshots without waiting out the debounce.
func (d *Dispatcher) OnMutate(collection string, fn func(context.Context)) {
	d.refreshers[collection] = append(d.refreshers[collection], fn)
}

func (d *Dispatcher) refresh(ctx context.Context, collection string) {
	for _, fn := range d.refreshers[collection] {
		fn(ctx)
	}
}

// CreateEntity decodes data into the collection's entity type and creates
// it through the engine. Returns the created entity.
func (d *Dispatcher) CreateEntity(ctx context.Context, collection string, data json.RawMessage) (any, error) {
	v, err := d.createEntity(ctx, collection, data)
	if err == nil {
		d.refresh(ctx, collection)
	}
	return v, err
}

func (d *Dispatcher) createEntity(ctx context.Context, collection string, data json.RawMessage) (any, error) {
	switch collection {
	case store.Customers:
		return decodeAnd(data, func(v *domain.Customer) (any, error) {
			return d.engine.CreateCustomer(ctx, v)
		})
	case store.Vendors:
		return decodeAnd(data, func(v *domain.Vendor) (any, error) {
			return d.engine.CreateVendor(ctx, v)
		})
	case store.SalesOrders:
		return decodeAnd(data, func(v *domain.SalesOrder) (any, error) {
			return d.engine.CreateSalesOrder(ctx, v)
		})
	case store.Cargo:
		return decodeAnd(data, func(v *domain.Cargo) (any, error) {
			return d.engine.CreateCargo(ctx, v)
		})
	case store.Shipments:
		return decodeAnd(data, func(v *domain.Shipment) (any, error) {
			return d.engine.CreateShipment(ctx, v)
		})
	case store.Invoices:
		return decodeAnd(data, func(v *domain.Invoice) (any, error) {
			return d.engine.CreateInvoice(ctx, v)
		})
	case store.OperationalCosts:
		return decodeAnd(data, func(v *domain.OperationalCost) (any, error) {
			return d.engine.CreateOperationalCost(ctx, v)
		})
	case store.SellingCosts:
		return decodeAnd(data, func(v *domain.SellingCost) (any, error) {
			return d.engine.CreateSellingCost(ctx, v)
		})
	case store.HSCodes:
		return decodeAnd(data, func(v *domain.HSCode) (any, error) {
			return d.engine.CreateHSCode(ctx, v)
		})
	case store.PurchaseOrders:
		return decodeAnd(data, func(v *domain.PurchaseOrder) (any, error) {
			return d.engine.CreatePurchaseOrder(ctx, v)
		})
	case store.Redlines:
		return decodeAnd(data, func(v *domain.Redline) (any, error) {
			return d.engine.SubmitRedline(ctx, v)
		})
	}
	return nil, apperror.NewValidation("unknown collection").WithDetail("collection", collection)
}

// UpdateEntity decodes data into the collection's entity type and updates
// the record with the given id.
func (d *Dispatcher) UpdateEntity(ctx context.Context, collection, id string, data json.RawMessage) (any, error) {
	v, err := d.updateEntity(ctx, collection, id, data)
	if err == nil {
		d.refresh(ctx, collection)
	}
	return v, err
}

func (d *Dispatcher) updateEntity(ctx context.Context, collection, id string, data json.RawMessage) (any, error) {
	switch collection {
	case store.Customers:
		return decodeAnd(data, func(v *domain.Customer) (any, error) {
			return d.engine.UpdateCustomer(ctx, id, v)
		})
	case store.Vendors:
		return decodeAnd(data, func(v *domain.Vendor) (any, error) {
			return d.engine.UpdateVendor(ctx, id, v)
		})
	case store.SalesOrders:
		return decodeAnd(data, func(v *domain.SalesOrder) (any, error) {
			return d.engine.UpdateSalesOrder(ctx, id, v)
		})
	case store.Cargo:
		return decodeAnd(data, func(v *domain.Cargo) (any, error) {
			return d.engine.UpdateCargo(ctx, id, v)
		})
	case store.Shipments:
		return decodeAnd(data, func(v *domain.Shipment) (any, error) {
			return d.engine.UpdateShipment(ctx, id, v)
		})
	case store.Invoices:
		return decodeAnd(data, func(v *domain.Invoice) (any, error) {
			return d.engine.UpdateInvoice(ctx, id, v)
		})
	case store.OperationalCosts:
		return decodeAnd(data, func(v *domain.OperationalCost) (any, error) {
			return d.engine.UpdateOperationalCost(ctx, id, v)
		})
	case store.SellingCosts:
		return decodeAnd(data, func(v *domain.SellingCost) (any, error) {
			return d.engine.UpdateSellingCost(ctx, id, v)
		})
	case store.HSCodes:
		return decodeAnd(data, func(v *domain.HSCode) (any, error) {
			return d.engine.UpdateHSCode(ctx, id, v)
		})
	case store.PurchaseOrders:
		return decodeAnd(data, func(v *domain.PurchaseOrder) (any, error) {
			return d.engine.UpdatePurchaseOrder(ctx, id, v)
		})
	}
	return nil, apperror.NewValidation("unknown collection").WithDetail("collection", collection)
}

// DeleteEntity deletes the record with the given id from the collection.
func (d *Dispatcher) DeleteEntity(ctx context.Context, collection, id string) error {
	if err := d.deleteEntity(ctx, collection, id); err != nil {
		return err
	}
	d.refresh(ctx, collection)
	return nil
}

func (d *Dispatcher) deleteEntity(ctx context.Context, collection, id string) error {
	switch collection {
	case store.Customers:
		return d.engine.DeleteCustomer(ctx, id)
	case store.Vendors:
		return d.engine.DeleteVendor(ctx, id)
	case store.SalesOrders:
		return d.engine.DeleteSalesOrder(ctx, id)
	case store.Cargo:
		return d.engine.DeleteCargo(ctx, id)
	case store.Shipments:
		return d.engine.DeleteShipment(ctx, id)
	case store.Invoices:
		return d.engine.DeleteInvoice(ctx, id)
	case store.OperationalCosts:
		return d.engine.DeleteOperationalCost(ctx, id)
	case store.SellingCosts:
		return d.engine.DeleteSellingCost(ctx, id)
	case store.HSCodes:
		return d.engine.DeleteHSCode(ctx, id)
	case store.PurchaseOrders:
		return d.engine.DeletePurchaseOrder(ctx, id)
	}
	return apperror.NewValidation("unknown collection").WithDetail("collection", collection)
}

func decodeAnd[T any](data json.RawMessage, create func(*T) (any, error)) (any, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, apperror.NewValidation("malformed entity payload").WithCause(err)
	}
	return create(&v)
}
