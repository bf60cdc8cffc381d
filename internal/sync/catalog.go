package sync

import (
	"context"
	"fmt"
	"strings"

	"cargodesk/internal/core/apperror"
	"cargodesk/internal/core/id"
	"cargodesk/internal/domain"
	"cargodesk/internal/store"
	"cargodesk/pkg/sequence"
)

// GetHSCodes returns the tariff code catalog.
func (e *Engine) GetHSCodes(ctx context.Context) ([]*domain.HSCode, error) {
	return e.stores.HSCodes.GetAll(ctx)
}

// CreateHSCode adds a tariff code. The code value is unique across the
// catalog; collisions are rejected as duplicate entries.
func (e *Engine) CreateHSCode(ctx context.Context, h *domain.HSCode) (*domain.HSCode, error) {
	ctx, span := e.span(ctx, "sync.CreateHSCode")
	defer span.End()
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := h.Validate(ctx); err != nil {
		return nil, e.fail(ctx, "create hs code", err)
	}
	existing, err := e.stores.HSCodes.GetAll(ctx)
	if err != nil {
		return nil, e.fail(ctx, "create hs code", err)
	}
	for _, other := range existing {
		if strings.EqualFold(other.Code, h.Code) {
			return nil, e.fail(ctx, "create hs code",
				apperror.NewDuplicate("hs code", "code", h.Code))
		}
	}
	h.Stamp(id.New(), e.now())
	if err := e.stores.HSCodes.Create(ctx, h); err != nil {
		return nil, e.fail(ctx, "create hs code", err)
	}
	e.publish(store.HSCodes, "create", h)
	e.success(fmt.Sprintf("HS code %s added", h.Code))
	return h, nil
}

// UpdateHSCode replaces a tariff code entry, keeping the code value unique.
func (e *Engine) UpdateHSCode(ctx context.Context, codeID string, upd *domain.HSCode) (*domain.HSCode, error) {
	ctx, span := e.span(ctx, "sync.UpdateHSCode")
	defer span.End()
	e.mu.Lock()
	defer e.mu.Unlock()

	existing, err := e.stores.HSCodes.GetByID(ctx, codeID)
	if err != nil {
		return nil, e.fail(ctx, "update hs code", err)
	}
	upd.ID = codeID
	upd.CreatedAt = existing.CreatedAt
	if err := upd.Validate(ctx); err != nil {
		return nil, e.fail(ctx, "update hs code", err)
	}
	all, err := e.stores.HSCodes.GetAll(ctx)
	if err != nil {
		return nil, e.fail(ctx, "update hs code", err)
	}
	for _, other := range all {
		if other.ID != codeID && strings.EqualFold(other.Code, upd.Code) {
			return nil, e.fail(ctx, "update hs code",
				apperror.NewDuplicate("hs code", "code", upd.Code))
		}
	}
	upd.Touch(e.now())
	if err := e.stores.HSCodes.Update(ctx, upd); err != nil {
		return nil, e.fail(ctx, "update hs code", err)
	}
	e.publish(store.HSCodes, "update", upd)
	e.success(fmt.Sprintf("HS code %s updated", upd.Code))
	return upd, nil
}

// DeleteHSCode removes a tariff code entry.
func (e *Engine) DeleteHSCode(ctx context.Context, codeID string) error {
	ctx, span := e.span(ctx, "sync.DeleteHSCode")
	defer span.End()
	e.mu.Lock()
	defer e.mu.Unlock()

	ok, err := e.stores.HSCodes.Delete(ctx, codeID)
	if err != nil {
		return e.fail(ctx, "delete hs code", err)
	}
	if !ok {
		return e.fail(ctx, "delete hs code", apperror.NewNotFound("hs code", codeID))
	}
	e.publish(store.HSCodes, "delete", Deleted{ID: codeID})
	e.success("HS code deleted")
	return nil
}

// GetPurchaseOrders returns all purchase orders.
func (e *Engine) GetPurchaseOrders(ctx context.Context) ([]*domain.PurchaseOrder, error) {
	return e.stores.PurchaseOrders.GetAll(ctx)
}

// CreatePurchaseOrder validates the vendor reference, denormalizes the
// vendor name, assigns a PO number, and persists. An explicitly supplied
// PO number must be unique.
func (e *Engine) CreatePurchaseOrder(ctx context.Context, po *domain.PurchaseOrder) (*domain.PurchaseOrder, error) {
	ctx, span := e.span(ctx, "sync.CreatePurchaseOrder")
	defer span.End()
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := po.Validate(ctx); err != nil {
		return nil, e.fail(ctx, "create purchase order", err)
	}
	v, err := e.requireVendor(ctx, po.VendorID)
	if err != nil {
		return nil, e.fail(ctx, "create purchase order", err)
	}
	po.VendorName = v.Name

	now := e.now()
	if po.PONumber == "" {
		num, err := e.seq.Next(ctx, sequence.DefaultConfig("PO"), now)
		if err != nil {
			return nil, e.fail(ctx, "create purchase order", err)
		}
		po.PONumber = num
	} else {
		all, err := e.stores.PurchaseOrders.GetAll(ctx)
		if err != nil {
			return nil, e.fail(ctx, "create purchase order", err)
		}
		for _, other := range all {
			if other.PONumber == po.PONumber {
				return nil, e.fail(ctx, "create purchase order",
					apperror.NewDuplicate("purchase order", "poNumber", po.PONumber))
			}
		}
	}
	if po.OrderDate == nil {
		t := now
		po.OrderDate = &t
	}
	po.Stamp(id.New(), now)
	if err := e.stores.PurchaseOrders.Create(ctx, po); err != nil {
		return nil, e.fail(ctx, "create purchase order", err)
	}
	e.publish(store.PurchaseOrders, "create", po)
	e.success(fmt.Sprintf("Purchase order %s created", po.PONumber))
	return po, nil
}

// UpdatePurchaseOrder replaces a purchase order. The PO number is immutable.
func (e *Engine) UpdatePurchaseOrder(ctx context.Context, poID string, upd *domain.PurchaseOrder) (*domain.PurchaseOrder, error) {
	ctx, span := e.span(ctx, "sync.UpdatePurchaseOrder")
	defer span.End()
	e.mu.Lock()
	defer e.mu.Unlock()

	existing, err := e.stores.PurchaseOrders.GetByID(ctx, poID)
	if err != nil {
		return nil, e.fail(ctx, "update purchase order", err)
	}
	upd.ID = poID
	upd.CreatedAt = existing.CreatedAt
	upd.PONumber = existing.PONumber
	if err := upd.Validate(ctx); err != nil {
		return nil, e.fail(ctx, "update purchase order", err)
	}
	v, err := e.requireVendor(ctx, upd.VendorID)
	if err != nil {
		return nil, e.fail(ctx, "update purchase order", err)
	}
	upd.VendorName = v.Name
	upd.Touch(e.now())
	if err := e.stores.PurchaseOrders.Update(ctx, upd); err != nil {
		return nil, e.fail(ctx, "update purchase order", err)
	}
	e.publish(store.PurchaseOrders, "update", upd)
	e.success(fmt.Sprintf("Purchase order %s updated", upd.PONumber))
	return upd, nil
}

// DeletePurchaseOrder removes a purchase order.
func (e *Engine) DeletePurchaseOrder(ctx context.Context, poID string) error {
	ctx, span := e.span(ctx, "sync.DeletePurchaseOrder")
	defer span.End()
	e.mu.Lock()
	defer e.mu.Unlock()

	ok, err := e.stores.PurchaseOrders.Delete(ctx, poID)
	if err != nil {
		return e.fail(ctx, "delete purchase order", err)
	}
	if !ok {
		return e.fail(ctx, "delete purchase order", apperror.NewNotFound("purchase order", poID))
	}
	e.publish(store.PurchaseOrders, "delete", Deleted{ID: poID})
	e.success("Purchase order deleted")
	return nil
}
