package sync

import (
	"context"

	"cargodesk/internal/core/apperror"
	"cargodesk/internal/core/id"
	"cargodesk/internal/domain"
	"cargodesk/internal/store"
)

// GetCargoList returns all standalone cargo records.
func (e *Engine) GetCargoList(ctx context.Context) ([]*domain.Cargo, error) {
	return e.stores.Cargo.GetAll(ctx)
}

// GetCargo returns one cargo record by id.
func (e *Engine) GetCargo(ctx context.Context, cargoID string) (*domain.Cargo, error) {
	return e.stores.Cargo.GetByID(ctx, cargoID)
}

// CreateCargo persists a cargo register entry. A sales order reference, if
// present, must resolve.
func (e *Engine) CreateCargo(ctx context.Context, c *domain.Cargo) (*domain.Cargo, error) {
	ctx, span := e.span(ctx, "sync.CreateCargo")
	defer span.End()
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := c.Validate(ctx); err != nil {
		return nil, e.fail(ctx, "create cargo", err)
	}
	if c.SalesOrderID != "" {
		if _, err := e.requireSalesOrder(ctx, c.SalesOrderID); err != nil {
			return nil, e.fail(ctx, "create cargo", err)
		}
	}
	c.Stamp(id.New(), e.now())
	if err := e.stores.Cargo.Create(ctx, c); err != nil {
		return nil, e.fail(ctx, "create cargo", err)
	}
	e.publish(store.Cargo, "create", c)
	e.success("Cargo recorded")
	return c, nil
}

// UpdateCargo replaces a cargo register entry.
func (e *Engine) UpdateCargo(ctx context.Context, cargoID string, upd *domain.Cargo) (*domain.Cargo, error) {
	ctx, span := e.span(ctx, "sync.UpdateCargo")
	defer span.End()
	e.mu.Lock()
	defer e.mu.Unlock()

	existing, err := e.stores.Cargo.GetByID(ctx, cargoID)
	if err != nil {
		return nil, e.fail(ctx, "update cargo", err)
	}
	upd.ID = cargoID
	upd.CreatedAt = existing.CreatedAt
	if err := upd.Validate(ctx); err != nil {
		return nil, e.fail(ctx, "update cargo", err)
	}
	if upd.SalesOrderID != "" {
		if _, err := e.requireSalesOrder(ctx, upd.SalesOrderID); err != nil {
			return nil, e.fail(ctx, "update cargo", err)
		}
	}
	upd.Touch(e.now())
	if err := e.stores.Cargo.Update(ctx, upd); err != nil {
		return nil, e.fail(ctx, "update cargo", err)
	}
	e.publish(store.Cargo, "update", upd)
	e.success("Cargo updated")
	return upd, nil
}

// DeleteCargo removes a cargo register entry.
func (e *Engine) DeleteCargo(ctx context.Context, cargoID string) error {
	ctx, span := e.span(ctx, "sync.DeleteCargo")
	defer span.End()
	e.mu.Lock()
	defer e.mu.Unlock()

	ok, err := e.stores.Cargo.Delete(ctx, cargoID)
	if err != nil {
		return e.fail(ctx, "delete cargo", err)
	}
	if !ok {
		return e.fail(ctx, "delete cargo", apperror.NewNotFound("cargo", cargoID))
	}
	e.publish(store.Cargo, "delete", Deleted{ID: cargoID})
	e.success("Cargo deleted")
	return nil
}
