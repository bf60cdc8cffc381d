package domain

import (
	"context"
	"time"

	"cargodesk/internal/core/apperror"
	"cargodesk/internal/core/entity"
	"cargodesk/internal/core/types"
)

// CostStatus tracks payment of an operational cost line.
type CostStatus string

const (
	CostPending CostStatus = "Pending"
	CostPaid    CostStatus = "Paid"
)

// Cost categories auto-generated on order confirmation.
const (
	CostOceanFreight     = "Ocean Freight"
	CostDrayage          = "Drayage"
	CostCustomsDocs      = "Customs Documentation"
	CostTerminalHandling = "Terminal Handling"
)

// OperationalCost is a payable cost line, usually attached to a sales order.
// Confirmation of an order auto-generates a fixed set of these.
type OperationalCost struct {
	entity.Record

	SalesOrderID    string      `json:"salesOrderId,omitempty"`
	Category        string      `json:"category"`
	Description     string      `json:"description,omitempty"`
	Amount          types.Money `json:"amount"`
	VendorName      string      `json:"vendorName,omitempty"`
	VendorInvoiceNo string      `json:"vendorInvoiceNo,omitempty"`
	DueDate         *time.Time  `json:"dueDate,omitempty"`
	Status          CostStatus  `json:"status"`
}

// Validate implements entity.Validatable.
func (c *OperationalCost) Validate(ctx context.Context) error {
	if c.Category == "" {
		return apperror.NewValidation("operational cost requires a category").
			WithDetail("field", "category")
	}
	if c.Amount.IsNegative() {
		return apperror.NewValidation("cost amount cannot be negative").
			WithDetail("field", "amount")
	}
	if c.Status == "" {
		c.Status = CostPending
	}
	if c.Status != CostPending && c.Status != CostPaid {
		return apperror.NewValidation("invalid cost status").
			WithDetail("field", "status").
			WithDetail("value", string(c.Status))
	}
	return nil
}

// SellingCost is the per-order cost-management snapshot, created exactly
// once when an order moves Draft → Order. It freezes the order economics at
// that point; the engine keeps it idempotent by SalesOrderID.
type SellingCost struct {
	entity.Record

	SalesOrderID  string      `json:"salesOrderId"`
	OrderNumber   string      `json:"orderNumber,omitempty"`
	CustomerName  string      `json:"customerName,omitempty"`
	SellingPrice  types.Money `json:"sellingPrice"`
	EstimatedCost types.Money `json:"estimatedCost"`
	Margin        types.Money `json:"margin"`
	Notes         string      `json:"notes,omitempty"`
}

// Validate implements entity.Validatable.
func (s *SellingCost) Validate(ctx context.Context) error {
	if s.SalesOrderID == "" {
		return apperror.NewValidation("selling cost requires a sales order").
			WithDetail("field", "salesOrderId")
	}
	return nil
}
