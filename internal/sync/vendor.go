package sync

import (
	"context"
	"fmt"

	"cargodesk/internal/core/apperror"
	"cargodesk/internal/core/id"
	"cargodesk/internal/domain"
	"cargodesk/internal/store"
)

// GetVendors returns all vendors.
func (e *Engine) GetVendors(ctx context.Context) ([]*domain.Vendor, error) {
	return e.stores.Vendors.GetAll(ctx)
}

// GetVendor returns one vendor by id.
func (e *Engine) GetVendor(ctx context.Context, vendorID string) (*domain.Vendor, error) {
	return e.stores.Vendors.GetByID(ctx, vendorID)
}

// CreateVendor validates and persists a new vendor.
func (e *Engine) CreateVendor(ctx context.Context, v *domain.Vendor) (*domain.Vendor, error) {
	ctx, span := e.span(ctx, "sync.CreateVendor")
	defer span.End()
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := v.Validate(ctx); err != nil {
		return nil, e.fail(ctx, "create vendor", err)
	}
	v.Stamp(id.New(), e.now())
	if err := e.stores.Vendors.Create(ctx, v); err != nil {
		return nil, e.fail(ctx, "create vendor", err)
	}
	e.publish(store.Vendors, "create", v)
	e.success(fmt.Sprintf("Vendor %q created", v.Name))
	return v, nil
}

// UpdateVendor replaces a vendor record. A rename fans out to sales orders
// and purchase orders carrying the denormalized vendor name.
func (e *Engine) UpdateVendor(ctx context.Context, vendorID string, upd *domain.Vendor) (*domain.Vendor, error) {
	ctx, span := e.span(ctx, "sync.UpdateVendor")
	defer span.End()
	e.mu.Lock()
	defer e.mu.Unlock()

	existing, err := e.stores.Vendors.GetByID(ctx, vendorID)
	if err != nil {
		return nil, e.fail(ctx, "update vendor", err)
	}
	upd.ID = vendorID
	upd.CreatedAt = existing.CreatedAt
	if err := upd.Validate(ctx); err != nil {
		return nil, e.fail(ctx, "update vendor", err)
	}
	upd.Touch(e.now())
	if err := e.stores.Vendors.Update(ctx, upd); err != nil {
		return nil, e.fail(ctx, "update vendor", err)
	}
	e.publish(store.Vendors, "update", upd)

	if existing.Name != upd.Name {
		e.propagateVendorRename(ctx, upd)
	}
	e.success(fmt.Sprintf("Vendor %q updated", upd.Name))
	return upd, nil
}

// DeleteVendor removes a vendor unless dependent records reference it.
func (e *Engine) DeleteVendor(ctx context.Context, vendorID string) error {
	ctx, span := e.span(ctx, "sync.DeleteVendor")
	defer span.End()
	e.mu.Lock()
	defer e.mu.Unlock()

	orders, err := e.stores.SalesOrders.GetAll(ctx)
	if err != nil {
		return e.fail(ctx, "delete vendor", err)
	}
	n := 0
	for _, o := range orders {
		if o.VendorID == vendorID {
			n++
		}
	}
	if n > 0 {
		return e.fail(ctx, "delete vendor", apperror.NewDependency("vendor", "sales order", n))
	}
	pos, err := e.stores.PurchaseOrders.GetAll(ctx)
	if err != nil {
		return e.fail(ctx, "delete vendor", err)
	}
	n = 0
	for _, po := range pos {
		if po.VendorID == vendorID {
			n++
		}
	}
	if n > 0 {
		return e.fail(ctx, "delete vendor", apperror.NewDependency("vendor", "purchase order", n))
	}

	ok, err := e.stores.Vendors.Delete(ctx, vendorID)
	if err != nil {
		return e.fail(ctx, "delete vendor", err)
	}
	if !ok {
		return e.fail(ctx, "delete vendor", apperror.NewNotFound("vendor", vendorID))
	}
	e.publish(store.Vendors, "delete", Deleted{ID: vendorID})
	e.success("Vendor deleted")
	return nil
}

// propagateVendorRename refreshes the cached vendor name on dependent records.
func (e *Engine) propagateVendorRename(ctx context.Context, v *domain.Vendor) {
	now := e.now()

	orders, err := e.stores.SalesOrders.GetAll(ctx)
	if err != nil {
		e.sideEffectErr(ctx, "rename propagation to sales orders", err)
	} else {
		for _, o := range orders {
			if o.VendorID != v.ID || o.VendorName == v.Name {
				continue
			}
			o.VendorName = v.Name
			o.Touch(now)
			if err := e.stores.SalesOrders.Update(ctx, o); err != nil {
				e.sideEffectErr(ctx, "rename propagation to sales order "+o.ID, err)
				continue
			}
			e.publish(store.SalesOrders, "update", o)
		}
	}

	pos, err := e.stores.PurchaseOrders.GetAll(ctx)
	if err != nil {
		e.sideEffectErr(ctx, "rename propagation to purchase orders", err)
		return
	}
	for _, po := range pos {
		if po.VendorID != v.ID || po.VendorName == v.Name {
			continue
		}
		po.VendorName = v.Name
		po.Touch(now)
		if err := e.stores.PurchaseOrders.Update(ctx, po); err != nil {
			e.sideEffectErr(ctx, "rename propagation to purchase order "+po.ID, err)
			continue
		}
		e.publish(store.PurchaseOrders, "update", po)
	}
}
