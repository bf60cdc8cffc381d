package sync

import (
	"context"
	"fmt"

	"cargodesk/internal/core/apperror"
	"cargodesk/internal/core/id"
	"cargodesk/internal/domain"
	"cargodesk/internal/store"
	"cargodesk/pkg/sequence"
)

// GetInvoices returns all invoices.
func (e *Engine) GetInvoices(ctx context.Context) ([]*domain.Invoice, error) {
	return e.stores.Invoices.GetAll(ctx)
}

// GetInvoice returns one invoice by id.
func (e *Engine) GetInvoice(ctx context.Context, invoiceID string) (*domain.Invoice, error) {
	return e.stores.Invoices.GetByID(ctx, invoiceID)
}

// CreateInvoice validates references, denormalizes the customer name,
// assigns an invoice number, and persists. Reference failures happen before
// the write.
func (e *Engine) CreateInvoice(ctx context.Context, inv *domain.Invoice) (*domain.Invoice, error) {
	ctx, span := e.span(ctx, "sync.CreateInvoice")
	defer span.End()
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := inv.Validate(ctx); err != nil {
		return nil, e.fail(ctx, "create invoice", err)
	}
	cust, err := e.requireCustomer(ctx, inv.CustomerID)
	if err != nil {
		return nil, e.fail(ctx, "create invoice", err)
	}
	inv.CustomerName = cust.Name
	if inv.SalesOrderID != "" {
		if _, err := e.requireSalesOrder(ctx, inv.SalesOrderID); err != nil {
			return nil, e.fail(ctx, "create invoice", err)
		}
	}

	now := e.now()
	if inv.InvoiceNumber == "" {
		num, err := e.seq.Next(ctx, sequence.DefaultConfig("INV"), now)
		if err != nil {
			return nil, e.fail(ctx, "create invoice", err)
		}
		inv.InvoiceNumber = num
	}
	if inv.Total.IsZero() {
		inv.Total = inv.Subtotal.Add(inv.TaxAmount)
	}
	if inv.DueDate == nil {
		inv.DueDate = e.nextDueDate(30)
	}
	inv.Stamp(id.New(), now)
	if err := e.stores.Invoices.Create(ctx, inv); err != nil {
		return nil, e.fail(ctx, "create invoice", err)
	}
	e.publish(store.Invoices, "create", inv)
	e.success(fmt.Sprintf("Invoice %s created", inv.InvoiceNumber))
	return inv, nil
}

// UpdateInvoice replaces an invoice's mutable fields. The invoice number is
// immutable.
func (e *Engine) UpdateInvoice(ctx context.Context, invoiceID string, upd *domain.Invoice) (*domain.Invoice, error) {
	ctx, span := e.span(ctx, "sync.UpdateInvoice")
	defer span.End()
	e.mu.Lock()
	defer e.mu.Unlock()

	existing, err := e.stores.Invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, e.fail(ctx, "update invoice", err)
	}
	upd.ID = invoiceID
	upd.CreatedAt = existing.CreatedAt
	upd.InvoiceNumber = existing.InvoiceNumber
	if err := upd.Validate(ctx); err != nil {
		return nil, e.fail(ctx, "update invoice", err)
	}
	cust, err := e.requireCustomer(ctx, upd.CustomerID)
	if err != nil {
		return nil, e.fail(ctx, "update invoice", err)
	}
	upd.CustomerName = cust.Name
	if upd.SalesOrderID != "" {
		if _, err := e.requireSalesOrder(ctx, upd.SalesOrderID); err != nil {
			return nil, e.fail(ctx, "update invoice", err)
		}
	}
	if upd.Total.IsZero() {
		upd.Total = upd.Subtotal.Add(upd.TaxAmount)
	}
	upd.Touch(e.now())
	if err := e.stores.Invoices.Update(ctx, upd); err != nil {
		return nil, e.fail(ctx, "update invoice", err)
	}
	e.publish(store.Invoices, "update", upd)
	e.success(fmt.Sprintf("Invoice %s updated", upd.InvoiceNumber))
	return upd, nil
}

// DeleteInvoice removes an invoice.
func (e *Engine) DeleteInvoice(ctx context.Context, invoiceID string) error {
	ctx, span := e.span(ctx, "sync.DeleteInvoice")
	defer span.End()
	e.mu.Lock()
	defer e.mu.Unlock()

	ok, err := e.stores.Invoices.Delete(ctx, invoiceID)
	if err != nil {
		return e.fail(ctx, "delete invoice", err)
	}
	if !ok {
		return e.fail(ctx, "delete invoice", apperror.NewNotFound("invoice", invoiceID))
	}
	e.publish(store.Invoices, "delete", Deleted{ID: invoiceID})
	e.success("Invoice deleted")
	return nil
}

// RefreshOverdueInvoices sweeps open invoices past their due date into the
// Overdue status. Returns how many invoices were flagged.
func (e *Engine) RefreshOverdueInvoices(ctx context.Context) (int, error) {
	ctx, span := e.span(ctx, "sync.RefreshOverdueInvoices")
	defer span.End()
	e.mu.Lock()
	defer e.mu.Unlock()

	invoices, err := e.stores.Invoices.GetAll(ctx)
	if err != nil {
		return 0, e.fail(ctx, "refresh overdue invoices", err)
	}
	now := e.now()
	flagged := 0
	for _, inv := range invoices {
		if inv.Status == domain.InvoiceOverdue || !inv.IsOverdue(now) {
			continue
		}
		inv.Status = domain.InvoiceOverdue
		inv.Touch(now)
		if err := e.stores.Invoices.Update(ctx, inv); err != nil {
			e.sideEffectErr(ctx, "flag overdue invoice "+inv.ID, err)
			continue
		}
		flagged++
		e.publish(store.Invoices, "update", inv)
	}
	if flagged > 0 {
		e.notifierWarn(fmt.Sprintf("%d invoice(s) are overdue", flagged))
	}
	return flagged, nil
}

func (e *Engine) notifierWarn(msg string) {
	if e.notifier != nil {
		e.notifier.Warning(msg)
	}
}
