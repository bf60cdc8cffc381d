package sync

import (
	"context"
	"fmt"
)

// Audit issue types reported by ValidateDataConsistency.
const (
	IssueOrphanedSalesOrder     = "orphaned_sales_order"
	IssueInvoiceMissingCustomer = "invoice_missing_customer"
	IssueOrphanedInvoice        = "orphaned_invoice"
)

// Issue is one referential-integrity finding.
type Issue struct {
	Type    string `json:"type"`
	Entity  string `json:"entity"`
	ID      string `json:"id"`
	Message string `json:"message"`
}

// ValidateDataConsistency sweeps the store for dangling cross-references.
// The engine prevents these on the write path; the audit catches records
// seeded externally or left behind by a crash between cascade steps. An
// empty slice means the store is consistent.
func (e *Engine) ValidateDataConsistency(ctx context.Context) ([]Issue, error) {
	ctx, span := e.span(ctx, "sync.ValidateDataConsistency")
	defer span.End()
	e.mu.Lock()
	defer e.mu.Unlock()

	customers, err := e.stores.Customers.GetAll(ctx)
	if err != nil {
		return nil, e.fail(ctx, "consistency audit", err)
	}
	orders, err := e.stores.SalesOrders.GetAll(ctx)
	if err != nil {
		return nil, e.fail(ctx, "consistency audit", err)
	}
	invoices, err := e.stores.Invoices.GetAll(ctx)
	if err != nil {
		return nil, e.fail(ctx, "consistency audit", err)
	}

	customerIDs := make(map[string]struct{}, len(customers))
	for _, c := range customers {
		customerIDs[c.ID] = struct{}{}
	}
	orderIDs := make(map[string]struct{}, len(orders))
	for _, o := range orders {
		orderIDs[o.ID] = struct{}{}
	}

	issues := []Issue{}
	for _, o := range orders {
		if _, ok := customerIDs[o.CustomerID]; !ok {
			issues = append(issues, Issue{
				Type:    IssueOrphanedSalesOrder,
				Entity:  "salesOrder",
				ID:      o.ID,
				Message: fmt.Sprintf("sales order %s references missing customer %s", o.OrderNumber, o.CustomerID),
			})
		}
	}
	for _, inv := range invoices {
		if _, ok := customerIDs[inv.CustomerID]; !ok {
			issues = append(issues, Issue{
				Type:    IssueInvoiceMissingCustomer,
				Entity:  "invoice",
				ID:      inv.ID,
				Message: fmt.Sprintf("invoice %s references missing customer %s", inv.InvoiceNumber, inv.CustomerID),
			})
		}
		if inv.SalesOrderID != "" {
			if _, ok := orderIDs[inv.SalesOrderID]; !ok {
				issues = append(issues, Issue{
					Type:    IssueOrphanedInvoice,
					Entity:  "invoice",
					ID:      inv.ID,
					Message: fmt.Sprintf("invoice %s references missing sales order %s", inv.InvoiceNumber, inv.SalesOrderID),
				})
			}
		}
	}

	if len(issues) > 0 {
		e.notifierWarn(fmt.Sprintf("Consistency audit found %d issue(s)", len(issues)))
	}
	return issues, nil
}
