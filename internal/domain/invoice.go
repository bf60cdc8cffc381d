package domain

import (
	"context"
	"time"

	"cargodesk/internal/core/apperror"
	"cargodesk/internal/core/entity"
	"cargodesk/internal/core/types"
)

// InvoiceStatus tracks an invoice through billing.
type InvoiceStatus string

const (
	InvoiceDraft     InvoiceStatus = "Draft"
	InvoiceSent      InvoiceStatus = "Sent"
	InvoicePaid      InvoiceStatus = "Paid"
	InvoiceOverdue   InvoiceStatus = "Overdue"
	InvoiceCancelled InvoiceStatus = "Cancelled"
)

// Invoice bills a customer, optionally tied to a sales order.
// CustomerName is a cached denormalized snapshot.
type Invoice struct {
	entity.Record

	InvoiceNumber string        `json:"invoiceNumber"`
	CustomerID    string        `json:"customerId"`
	CustomerName  string        `json:"customerName"`
	SalesOrderID  string        `json:"salesOrderId,omitempty"`
	Subtotal      types.Money   `json:"subtotal"`
	TaxAmount     types.Money   `json:"taxAmount"`
	Total         types.Money   `json:"total"`
	PaidAmount    types.Money   `json:"paidAmount"`
	Status        InvoiceStatus `json:"status"`
	DueDate       *time.Time    `json:"dueDate,omitempty"`
	PaidDate      *time.Time    `json:"paidDate,omitempty"`
}

// Validate implements entity.Validatable.
func (i *Invoice) Validate(ctx context.Context) error {
	if i.CustomerID == "" {
		return apperror.NewValidation("invoice requires a customer").
			WithDetail("field", "customerId")
	}
	if i.Status == "" {
		i.Status = InvoiceDraft
	}
	switch i.Status {
	case InvoiceDraft, InvoiceSent, InvoicePaid, InvoiceOverdue, InvoiceCancelled:
	default:
		return apperror.NewValidation("invalid invoice status").
			WithDetail("field", "status").
			WithDetail("value", string(i.Status))
	}
	if i.Subtotal.IsNegative() || i.TaxAmount.IsNegative() || i.Total.IsNegative() {
		return apperror.NewValidation("invoice amounts cannot be negative")
	}
	return nil
}

// IsOverdue reports whether the invoice is unpaid past its due date.
func (i *Invoice) IsOverdue(now time.Time) bool {
	return i.Status != InvoicePaid &&
		i.Status != InvoiceCancelled &&
		i.DueDate != nil &&
		i.DueDate.Before(now)
}
