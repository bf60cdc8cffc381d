package sync

import (
	"context"
	"fmt"

	"cargodesk/internal/core/apperror"
	"cargodesk/internal/core/id"
	"cargodesk/internal/core/types"
	"cargodesk/internal/domain"
	"cargodesk/internal/store"
)

// GetRedlines returns all change requests.
func (e *Engine) GetRedlines(ctx context.Context) ([]*domain.Redline, error) {
	return e.stores.Redlines.GetAll(ctx)
}

// GetRedline returns one change request by id.
func (e *Engine) GetRedline(ctx context.Context, redlineID string) (*domain.Redline, error) {
	return e.stores.Redlines.GetByID(ctx, redlineID)
}

// SubmitRedline files a change request against a sales order. The original
// value is snapshotted from the order at submit time. If an auto-approval
// policy is installed and matches, the redline is approved and applied in
// the same call.
func (e *Engine) SubmitRedline(ctx context.Context, r *domain.Redline) (*domain.Redline, error) {
	ctx, span := e.span(ctx, "sync.SubmitRedline")
	defer span.End()
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := r.Validate(ctx); err != nil {
		return nil, e.fail(ctx, "submit redline", err)
	}
	o, err := e.requireSalesOrder(ctx, r.SalesOrderID)
	if err != nil {
		return nil, e.fail(ctx, "submit redline", err)
	}

	now := e.now()
	r.OriginalValue = orderFieldValue(o, r.Field)
	r.Status = domain.RedlinePending
	r.AppendChange("submitted", "", r.Reason, now)
	r.Stamp(id.New(), now)
	if err := e.stores.Redlines.Create(ctx, r); err != nil {
		return nil, e.fail(ctx, "submit redline", err)
	}
	e.publish(store.Redlines, "create", r)

	if e.evalAutoApprove(r.Field, r.OriginalValue, r.RequestedValue, r.Reason) {
		if err := e.approveRedlineLocked(ctx, r, o, "auto-approval policy"); err != nil {
			e.sideEffectErr(ctx, "auto-approve redline", err)
		}
	}
	e.success(fmt.Sprintf("Change request for %s submitted", o.OrderNumber))
	return r, nil
}

// ApproveRedline approves a pending change request and applies the
// requested value to the order.
func (e *Engine) ApproveRedline(ctx context.Context, redlineID, reviewer string) (*domain.Redline, error) {
	ctx, span := e.span(ctx, "sync.ApproveRedline")
	defer span.End()
	e.mu.Lock()
	defer e.mu.Unlock()

	r, err := e.stores.Redlines.GetByID(ctx, redlineID)
	if err != nil {
		return nil, e.fail(ctx, "approve redline", err)
	}
	if r.Status != domain.RedlinePending {
		return nil, e.fail(ctx, "approve redline",
			apperror.NewTransition("redline", string(r.Status), string(domain.RedlineApproved)))
	}
	o, err := e.requireSalesOrder(ctx, r.SalesOrderID)
	if err != nil {
		return nil, e.fail(ctx, "approve redline", err)
	}
	if err := e.approveRedlineLocked(ctx, r, o, reviewer); err != nil {
		return nil, e.fail(ctx, "approve redline", err)
	}
	e.success(fmt.Sprintf("Change request for %s approved", o.OrderNumber))
	return r, nil
}

// approveRedlineLocked applies a redline under the held engine lock: the
// order field takes the requested value, then the redline is marked
// approved with its review trail.
func (e *Engine) approveRedlineLocked(ctx context.Context, r *domain.Redline, o *domain.SalesOrder, reviewer string) error {
	if err := applyOrderFieldValue(o, r.Field, r.RequestedValue); err != nil {
		return err
	}
	now := e.now()
	o.RecalculateMargin()
	o.Touch(now)
	if err := e.stores.SalesOrders.Update(ctx, o); err != nil {
		return err
	}
	e.publish(store.SalesOrders, "update", o)

	r.Status = domain.RedlineApproved
	r.ReviewedBy = reviewer
	t := now
	r.ReviewedAt = &t
	r.AppendChange("approved", reviewer, "", now)
	r.Touch(now)
	if err := e.stores.Redlines.Update(ctx, r); err != nil {
		return err
	}
	e.publish(store.Redlines, "update", r)
	return nil
}

// RejectRedline rejects a pending change request. The order is untouched.
func (e *Engine) RejectRedline(ctx context.Context, redlineID, reviewer, note string) (*domain.Redline, error) {
	ctx, span := e.span(ctx, "sync.RejectRedline")
	defer span.End()
	e.mu.Lock()
	defer e.mu.Unlock()

	r, err := e.stores.Redlines.GetByID(ctx, redlineID)
	if err != nil {
		return nil, e.fail(ctx, "reject redline", err)
	}
	if r.Status != domain.RedlinePending {
		return nil, e.fail(ctx, "reject redline",
			apperror.NewTransition("redline", string(r.Status), string(domain.RedlineRejected)))
	}
	now := e.now()
	r.Status = domain.RedlineRejected
	r.ReviewedBy = reviewer
	t := now
	r.ReviewedAt = &t
	r.AppendChange("rejected", reviewer, note, now)
	r.Touch(now)
	if err := e.stores.Redlines.Update(ctx, r); err != nil {
		return nil, e.fail(ctx, "reject redline", err)
	}
	e.publish(store.Redlines, "update", r)
	e.success("Change request rejected")
	return r, nil
}

// orderFieldValue reads a redline-targetable order field as a string.
func orderFieldValue(o *domain.SalesOrder, field string) string {
	switch field {
	case domain.RedlineFieldSellingPrice:
		return o.SellingPrice.String()
	case domain.RedlineFieldEstimatedCost:
		return o.EstimatedCost.String()
	case domain.RedlineFieldOrigin:
		return o.Origin
	case domain.RedlineFieldDestination:
		return o.Destination
	case domain.RedlineFieldServiceType:
		return o.ServiceType
	}
	return ""
}

// applyOrderFieldValue writes a redline-targetable order field from its
// string form. Monetary fields must parse as decimals.
func applyOrderFieldValue(o *domain.SalesOrder, field, value string) error {
	switch field {
	case domain.RedlineFieldSellingPrice:
		m, err := types.NewMoneyFromString(value)
		if err != nil {
			return apperror.NewValidation("requested selling price is not a valid amount").
				WithDetail("value", value)
		}
		o.SellingPrice = m
	case domain.RedlineFieldEstimatedCost:
		m, err := types.NewMoneyFromString(value)
		if err != nil {
			return apperror.NewValidation("requested estimated cost is not a valid amount").
				WithDetail("value", value)
		}
		o.EstimatedCost = m
	case domain.RedlineFieldOrigin:
		o.Origin = value
	case domain.RedlineFieldDestination:
		o.Destination = value
	case domain.RedlineFieldServiceType:
		o.ServiceType = value
	default:
		return apperror.NewValidation("redline targets an unknown order field").
			WithDetail("field", field)
	}
	return nil
}
