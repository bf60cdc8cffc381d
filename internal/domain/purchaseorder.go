package domain

import (
	"context"
	"time"

	"cargodesk/internal/core/apperror"
	"cargodesk/internal/core/entity"
	"cargodesk/internal/core/types"
)

// POStatus tracks a purchase order.
type POStatus string

const (
	POOpen      POStatus = "Open"
	POApproved  POStatus = "Approved"
	POClosed    POStatus = "Closed"
	POCancelled POStatus = "Cancelled"
)

// PurchaseOrder commits spend to a vendor. PONumber is unique across the
// collection; the engine rejects collisions with a duplicate-entry error.
type PurchaseOrder struct {
	entity.Record

	PONumber   string      `json:"poNumber"`
	VendorID   string      `json:"vendorId"`
	VendorName string      `json:"vendorName"`
	Amount     types.Money `json:"amount"`
	Status     POStatus    `json:"status"`
	OrderDate  *time.Time  `json:"orderDate,omitempty"`
}

// Validate implements entity.Validatable.
func (p *PurchaseOrder) Validate(ctx context.Context) error {
	if p.VendorID == "" {
		return apperror.NewValidation("purchase order requires a vendor").
			WithDetail("field", "vendorId")
	}
	if p.Amount.IsNegative() {
		return apperror.NewValidation("purchase order amount cannot be negative").
			WithDetail("field", "amount")
	}
	if p.Status == "" {
		p.Status = POOpen
	}
	switch p.Status {
	case POOpen, POApproved, POClosed, POCancelled:
	default:
		return apperror.NewValidation("invalid purchase order status").
			WithDetail("field", "status").
			WithDetail("value", string(p.Status))
	}
	return nil
}
