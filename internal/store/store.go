// Package store defines the entity storage contract the sync engine depends
// on. Implementations live in subpackages (memory, postgres); the engine
// never assumes anything beyond this interface — in particular there are no
// cross-collection transactions, so multi-step engine sequences are not
// atomic as a whole.
package store

import (
	"context"
)

// Collection names double as event bus topics.
const (
	Customers        = "customers"
	SalesOrders      = "salesOrders"
	Cargo            = "cargo"
	Shipments        = "shipments"
	Invoices         = "invoices"
	Vendors          = "vendors"
	OperationalCosts = "operationalCosts"
	SellingCosts     = "sellingCosts"
	HSCodes          = "hsCodes"
	PurchaseOrders   = "purchaseOrders"
	Redlines         = "redlines"

	// Dashboard is a publish-only topic carrying recomputed statistics.
	Dashboard = "dashboard"
)

// Names lists every persisted collection (Dashboard is not persisted).
func Names() []string {
	return []string{
		Customers, SalesOrders, Cargo, Shipments, Invoices, Vendors,
		OperationalCosts, SellingCosts, HSCodes, PurchaseOrders, Redlines,
	}
}

// Keyed is satisfied by every stored entity via the embedded entity.Record.
type Keyed interface {
	Key() string
}

// Collection is key-addressed CRUD storage for one entity type.
//
// Each call is atomic from the store's perspective. GetByID and Update
// return a NOT_FOUND AppError when the id is absent; Delete reports absence
// through its bool instead.
type Collection[T Keyed] interface {
	GetAll(ctx context.Context) ([]T, error)
	GetByID(ctx context.Context, id string) (T, error)
	Create(ctx context.Context, item T) error
	Update(ctx context.Context, item T) error
	Delete(ctx context.Context, id string) (bool, error)
}
