package sync

import (
	"context"
	"fmt"

	"cargodesk/internal/core/apperror"
	"cargodesk/internal/core/id"
	"cargodesk/internal/domain"
	"cargodesk/internal/store"
)

// sellingCostOp is the single-slot undo record for the cost-management
// operations. Only the most recent selling cost mutation is reversible;
// recording a new one overwrites the slot, and a rollback consumes it.
type sellingCostOp struct {
	action string // "create", "update", "delete"
	before *domain.SellingCost
	after  *domain.SellingCost
}

// --- operational costs ---

// GetOperationalCosts returns all operational cost lines.
func (e *Engine) GetOperationalCosts(ctx context.Context) ([]*domain.OperationalCost, error) {
	return e.stores.OperationalCosts.GetAll(ctx)
}

// GetOperationalCost returns one operational cost by id.
func (e *Engine) GetOperationalCost(ctx context.Context, costID string) (*domain.OperationalCost, error) {
	return e.stores.OperationalCosts.GetByID(ctx, costID)
}

// CreateOperationalCost persists a manual payable cost line.
func (e *Engine) CreateOperationalCost(ctx context.Context, c *domain.OperationalCost) (*domain.OperationalCost, error) {
	ctx, span := e.span(ctx, "sync.CreateOperationalCost")
	defer span.End()
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := c.Validate(ctx); err != nil {
		return nil, e.fail(ctx, "create operational cost", err)
	}
	if c.SalesOrderID != "" {
		if _, err := e.requireSalesOrder(ctx, c.SalesOrderID); err != nil {
			return nil, e.fail(ctx, "create operational cost", err)
		}
	}
	c.Stamp(id.New(), e.now())
	if err := e.stores.OperationalCosts.Create(ctx, c); err != nil {
		return nil, e.fail(ctx, "create operational cost", err)
	}
	e.publish(store.OperationalCosts, "create", c)
	e.success(fmt.Sprintf("Cost line %q added", c.Category))
	return c, nil
}

// UpdateOperationalCost replaces a payable cost line.
func (e *Engine) UpdateOperationalCost(ctx context.Context, costID string, upd *domain.OperationalCost) (*domain.OperationalCost, error) {
	ctx, span := e.span(ctx, "sync.UpdateOperationalCost")
	defer span.End()
	e.mu.Lock()
	defer e.mu.Unlock()

	existing, err := e.stores.OperationalCosts.GetByID(ctx, costID)
	if err != nil {
		return nil, e.fail(ctx, "update operational cost", err)
	}
	upd.ID = costID
	upd.CreatedAt = existing.CreatedAt
	if err := upd.Validate(ctx); err != nil {
		return nil, e.fail(ctx, "update operational cost", err)
	}
	if upd.SalesOrderID != "" {
		if _, err := e.requireSalesOrder(ctx, upd.SalesOrderID); err != nil {
			return nil, e.fail(ctx, "update operational cost", err)
		}
	}
	upd.Touch(e.now())
	if err := e.stores.OperationalCosts.Update(ctx, upd); err != nil {
		return nil, e.fail(ctx, "update operational cost", err)
	}
	e.publish(store.OperationalCosts, "update", upd)
	e.success(fmt.Sprintf("Cost line %q updated", upd.Category))
	return upd, nil
}

// DeleteOperationalCost removes a payable cost line.
func (e *Engine) DeleteOperationalCost(ctx context.Context, costID string) error {
	ctx, span := e.span(ctx, "sync.DeleteOperationalCost")
	defer span.End()
	e.mu.Lock()
	defer e.mu.Unlock()

	ok, err := e.stores.OperationalCosts.Delete(ctx, costID)
	if err != nil {
		return e.fail(ctx, "delete operational cost", err)
	}
	if !ok {
		return e.fail(ctx, "delete operational cost", apperror.NewNotFound("operational cost", costID))
	}
	e.publish(store.OperationalCosts, "delete", Deleted{ID: costID})
	e.success("Cost line deleted")
	return nil
}

// MarkOperationalCostPaid flips a pending cost line to paid.
func (e *Engine) MarkOperationalCostPaid(ctx context.Context, costID string) (*domain.OperationalCost, error) {
	ctx, span := e.span(ctx, "sync.MarkOperationalCostPaid")
	defer span.End()
	e.mu.Lock()
	defer e.mu.Unlock()

	c, err := e.stores.OperationalCosts.GetByID(ctx, costID)
	if err != nil {
		return nil, e.fail(ctx, "mark operational cost paid", err)
	}
	if c.Status == domain.CostPaid {
		return c, nil
	}
	c.Status = domain.CostPaid
	c.Touch(e.now())
	if err := e.stores.OperationalCosts.Update(ctx, c); err != nil {
		return nil, e.fail(ctx, "mark operational cost paid", err)
	}
	e.publish(store.OperationalCosts, "update", c)
	e.success(fmt.Sprintf("Cost line %q marked paid", c.Category))
	return c, nil
}

// --- selling costs ---

// GetSellingCosts returns all selling cost snapshots.
func (e *Engine) GetSellingCosts(ctx context.Context) ([]*domain.SellingCost, error) {
	return e.stores.SellingCosts.GetAll(ctx)
}

// GetSellingCost returns one selling cost by id.
func (e *Engine) GetSellingCost(ctx context.Context, costID string) (*domain.SellingCost, error) {
	return e.stores.SellingCosts.GetByID(ctx, costID)
}

// CreateSellingCost persists a manual selling cost record and arms the
// rollback slot. The referenced sales order must resolve.
func (e *Engine) CreateSellingCost(ctx context.Context, sc *domain.SellingCost) (*domain.SellingCost, error) {
	ctx, span := e.span(ctx, "sync.CreateSellingCost")
	defer span.End()
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := sc.Validate(ctx); err != nil {
		return nil, e.fail(ctx, "create selling cost", err)
	}
	o, err := e.requireSalesOrder(ctx, sc.SalesOrderID)
	if err != nil {
		return nil, e.fail(ctx, "create selling cost", err)
	}
	if sc.OrderNumber == "" {
		sc.OrderNumber = o.OrderNumber
	}
	if sc.CustomerName == "" {
		sc.CustomerName = o.CustomerName
	}
	if sc.Margin.IsZero() {
		sc.Margin = sc.SellingPrice.Sub(sc.EstimatedCost)
	}
	sc.Stamp(id.New(), e.now())
	if err := e.stores.SellingCosts.Create(ctx, sc); err != nil {
		return nil, e.fail(ctx, "create selling cost", err)
	}
	e.lastCostOp = &sellingCostOp{action: "create", after: cloneSellingCost(sc)}
	e.publish(store.SellingCosts, "create", sc)
	e.success(fmt.Sprintf("Selling cost for %s recorded", sc.OrderNumber))
	return sc, nil
}

// UpdateSellingCost replaces a selling cost record and arms the rollback
// slot with the previous state.
func (e *Engine) UpdateSellingCost(ctx context.Context, costID string, upd *domain.SellingCost) (*domain.SellingCost, error) {
	ctx, span := e.span(ctx, "sync.UpdateSellingCost")
	defer span.End()
	e.mu.Lock()
	defer e.mu.Unlock()

	existing, err := e.stores.SellingCosts.GetByID(ctx, costID)
	if err != nil {
		return nil, e.fail(ctx, "update selling cost", err)
	}
	upd.ID = costID
	upd.CreatedAt = existing.CreatedAt
	if err := upd.Validate(ctx); err != nil {
		return nil, e.fail(ctx, "update selling cost", err)
	}
	if _, err := e.requireSalesOrder(ctx, upd.SalesOrderID); err != nil {
		return nil, e.fail(ctx, "update selling cost", err)
	}
	upd.Margin = upd.SellingPrice.Sub(upd.EstimatedCost)
	upd.Touch(e.now())
	if err := e.stores.SellingCosts.Update(ctx, upd); err != nil {
		return nil, e.fail(ctx, "update selling cost", err)
	}
	e.lastCostOp = &sellingCostOp{
		action: "update",
		before: cloneSellingCost(existing),
		after:  cloneSellingCost(upd),
	}
	e.publish(store.SellingCosts, "update", upd)
	e.success(fmt.Sprintf("Selling cost for %s updated", upd.OrderNumber))
	return upd, nil
}

// DeleteSellingCost removes a selling cost record and arms the rollback
// slot with the deleted state.
func (e *Engine) DeleteSellingCost(ctx context.Context, costID string) error {
	ctx, span := e.span(ctx, "sync.DeleteSellingCost")
	defer span.End()
	e.mu.Lock()
	defer e.mu.Unlock()

	existing, err := e.stores.SellingCosts.GetByID(ctx, costID)
	if err != nil {
		return e.fail(ctx, "delete selling cost", err)
	}
	ok, err := e.stores.SellingCosts.Delete(ctx, costID)
	if err != nil {
		return e.fail(ctx, "delete selling cost", err)
	}
	if !ok {
		return e.fail(ctx, "delete selling cost", apperror.NewNotFound("selling cost", costID))
	}
	e.lastCostOp = &sellingCostOp{action: "delete", before: cloneSellingCost(existing)}
	e.publish(store.SellingCosts, "delete", Deleted{ID: costID})
	e.success(fmt.Sprintf("Selling cost for %s deleted", existing.OrderNumber))
	return nil
}

// RollbackLastSellingCostChange undoes the most recent selling cost
// mutation. The slot holds exactly one operation and is consumed whether
// the rollback succeeds or fails; calling with an empty slot is a
// validation error.
func (e *Engine) RollbackLastSellingCostChange(ctx context.Context) (*domain.SellingCost, error) {
	ctx, span := e.span(ctx, "sync.RollbackLastSellingCostChange")
	defer span.End()
	e.mu.Lock()
	defer e.mu.Unlock()

	op := e.lastCostOp
	e.lastCostOp = nil
	if op == nil {
		return nil, e.fail(ctx, "rollback selling cost",
			apperror.NewValidation("no selling cost change to roll back"))
	}

	switch op.action {
	case "create":
		ok, err := e.stores.SellingCosts.Delete(ctx, op.after.ID)
		if err != nil {
			return nil, e.fail(ctx, "rollback selling cost", err)
		}
		if ok {
			e.publish(store.SellingCosts, "delete", Deleted{ID: op.after.ID})
		}
		e.success(fmt.Sprintf("Selling cost for %s rolled back", op.after.OrderNumber))
		return nil, nil
	case "update":
		restored := cloneSellingCost(op.before)
		restored.Touch(e.now())
		if err := e.stores.SellingCosts.Update(ctx, restored); err != nil {
			return nil, e.fail(ctx, "rollback selling cost", err)
		}
		e.publish(store.SellingCosts, "update", restored)
		e.success(fmt.Sprintf("Selling cost for %s rolled back", restored.OrderNumber))
		return restored, nil
	case "delete":
		restored := cloneSellingCost(op.before)
		if err := e.stores.SellingCosts.Create(ctx, restored); err != nil {
			return nil, e.fail(ctx, "rollback selling cost", err)
		}
		e.publish(store.SellingCosts, "create", restored)
		e.success(fmt.Sprintf("Selling cost for %s restored", restored.OrderNumber))
		return restored, nil
	default:
		return nil, e.fail(ctx, "rollback selling cost",
			apperror.NewInternal(fmt.Errorf("unknown rollback action %q", op.action)))
	}
}

func cloneSellingCost(sc *domain.SellingCost) *domain.SellingCost {
	c := *sc
	return &c
}
