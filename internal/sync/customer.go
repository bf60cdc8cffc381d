package sync

import (
	"context"
	"fmt"

	"cargodesk/internal/core/apperror"
	"cargodesk/internal/core/id"
	"cargodesk/internal/domain"
	"cargodesk/internal/store"
)

// GetCustomers returns all customers.
func (e *Engine) GetCustomers(ctx context.Context) ([]*domain.Customer, error) {
	return e.stores.Customers.GetAll(ctx)
}

// GetCustomer returns one customer by id.
func (e *Engine) GetCustomer(ctx context.Context, customerID string) (*domain.Customer, error) {
	return e.stores.Customers.GetByID(ctx, customerID)
}

// CreateCustomer validates and persists a new customer.
func (e *Engine) CreateCustomer(ctx context.Context, c *domain.Customer) (*domain.Customer, error) {
	ctx, span := e.span(ctx, "sync.CreateCustomer")
	defer span.End()
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := c.Validate(ctx); err != nil {
		return nil, e.fail(ctx, "create customer", err)
	}
	c.Stamp(id.New(), e.now())
	if err := e.stores.Customers.Create(ctx, c); err != nil {
		return nil, e.fail(ctx, "create customer", err)
	}
	e.publish(store.Customers, "create", c)
	e.success(fmt.Sprintf("Customer %q created", c.Name))
	return c, nil
}

// UpdateCustomer replaces a customer record. A rename fans out to every
// record carrying the denormalized customer name (sales orders, invoices,
// selling cost snapshots).
func (e *Engine) UpdateCustomer(ctx context.Context, customerID string, upd *domain.Customer) (*domain.Customer, error) {
	ctx, span := e.span(ctx, "sync.UpdateCustomer")
	defer span.End()
	e.mu.Lock()
	defer e.mu.Unlock()

	existing, err := e.stores.Customers.GetByID(ctx, customerID)
	if err != nil {
		return nil, e.fail(ctx, "update customer", err)
	}
	upd.ID = customerID
	upd.CreatedAt = existing.CreatedAt
	if err := upd.Validate(ctx); err != nil {
		return nil, e.fail(ctx, "update customer", err)
	}
	upd.Touch(e.now())
	if err := e.stores.Customers.Update(ctx, upd); err != nil {
		return nil, e.fail(ctx, "update customer", err)
	}
	e.publish(store.Customers, "update", upd)

	if existing.Name != upd.Name {
		e.propagateCustomerRename(ctx, upd)
	}
	e.success(fmt.Sprintf("Customer %q updated", upd.Name))
	return upd, nil
}

// DeleteCustomer removes a customer unless dependent records reference it.
func (e *Engine) DeleteCustomer(ctx context.Context, customerID string) error {
	ctx, span := e.span(ctx, "sync.DeleteCustomer")
	defer span.End()
	e.mu.Lock()
	defer e.mu.Unlock()

	orders, err := e.stores.SalesOrders.GetAll(ctx)
	if err != nil {
		return e.fail(ctx, "delete customer", err)
	}
	if n := countOrdersForCustomer(orders, customerID); n > 0 {
		return e.fail(ctx, "delete customer", apperror.NewDependency("customer", "sales order", n))
	}
	invoices, err := e.stores.Invoices.GetAll(ctx)
	if err != nil {
		return e.fail(ctx, "delete customer", err)
	}
	if n := countInvoicesForCustomer(invoices, customerID); n > 0 {
		return e.fail(ctx, "delete customer", apperror.NewDependency("customer", "invoice", n))
	}

	ok, err := e.stores.Customers.Delete(ctx, customerID)
	if err != nil {
		return e.fail(ctx, "delete customer", err)
	}
	if !ok {
		return e.fail(ctx, "delete customer", apperror.NewNotFound("customer", customerID))
	}
	e.publish(store.Customers, "delete", Deleted{ID: customerID})
	e.success("Customer deleted")
	return nil
}

// propagateCustomerRename refreshes the cached customer name on dependent
// records. Runs under the engine lock; failures are per-record best-effort.
func (e *Engine) propagateCustomerRename(ctx context.Context, c *domain.Customer) {
	now := e.now()

	orders, err := e.stores.SalesOrders.GetAll(ctx)
	if err != nil {
		e.sideEffectErr(ctx, "rename propagation to sales orders", err)
		return
	}
	renamedOrders := make(map[string]struct{})
	for _, o := range orders {
		if o.CustomerID != c.ID || o.CustomerName == c.Name {
			continue
		}
		o.CustomerName = c.Name
		o.Touch(now)
		if err := e.stores.SalesOrders.Update(ctx, o); err != nil {
			e.sideEffectErr(ctx, "rename propagation to sales order "+o.ID, err)
			continue
		}
		renamedOrders[o.ID] = struct{}{}
		e.publish(store.SalesOrders, "update", o)
	}

	invoices, err := e.stores.Invoices.GetAll(ctx)
	if err != nil {
		e.sideEffectErr(ctx, "rename propagation to invoices", err)
	} else {
		for _, inv := range invoices {
			if inv.CustomerID != c.ID || inv.CustomerName == c.Name {
				continue
			}
			inv.CustomerName = c.Name
			inv.Touch(now)
			if err := e.stores.Invoices.Update(ctx, inv); err != nil {
				e.sideEffectErr(ctx, "rename propagation to invoice "+inv.ID, err)
				continue
			}
			e.publish(store.Invoices, "update", inv)
		}
	}

	// Selling cost snapshots carry no customer id, only the cached name;
	// they follow their order.
	costs, err := e.stores.SellingCosts.GetAll(ctx)
	if err != nil {
		e.sideEffectErr(ctx, "rename propagation to selling costs", err)
		return
	}
	for _, sc := range costs {
		if _, ok := renamedOrders[sc.SalesOrderID]; !ok || sc.CustomerName == c.Name {
			continue
		}
		sc.CustomerName = c.Name
		sc.Touch(now)
		if err := e.stores.SellingCosts.Update(ctx, sc); err != nil {
			e.sideEffectErr(ctx, "rename propagation to selling cost "+sc.ID, err)
			continue
		}
		e.publish(store.SellingCosts, "update", sc)
	}
}

func countOrdersForCustomer(orders []*domain.SalesOrder, customerID string) int {
	n := 0
	for _, o := range orders {
		if o.CustomerID == customerID {
			n++
		}
	}
	return n
}

func countInvoicesForCustomer(invoices []*domain.Invoice, customerID string) int {
	n := 0
	for _, inv := range invoices {
		if inv.CustomerID == customerID {
			n++
		}
	}
	return n
}
