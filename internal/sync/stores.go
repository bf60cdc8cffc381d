package sync

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"cargodesk/internal/domain"
	"cargodesk/internal/store"
	"cargodesk/internal/store/memory"
	"cargodesk/internal/store/postgres"
)

// NewMemoryStores returns a Stores bundle backed by in-memory collections.
// Used for single-process deployments and tests.
func NewMemoryStores() Stores {
	return Stores{
		Customers:        memory.NewCollection[*domain.Customer](store.Customers),
		SalesOrders:      memory.NewCollection[*domain.SalesOrder](store.SalesOrders),
		Cargo:            memory.NewCollection[*domain.Cargo](store.Cargo),
		Shipments:        memory.NewCollection[*domain.Shipment](store.Shipments),
		Invoices:         memory.NewCollection[*domain.Invoice](store.Invoices),
		Vendors:          memory.NewCollection[*domain.Vendor](store.Vendors),
		OperationalCosts: memory.NewCollection[*domain.OperationalCost](store.OperationalCosts),
		SellingCosts:     memory.NewCollection[*domain.SellingCost](store.SellingCosts),
		HSCodes:          memory.NewCollection[*domain.HSCode](store.HSCodes),
		PurchaseOrders:   memory.NewCollection[*domain.PurchaseOrder](store.PurchaseOrders),
		Redlines:         memory.NewCollection[*domain.Redline](store.Redlines),
	}
}

// NewPostgresStores returns a Stores bundle backed by JSONB document tables.
// postgres.EnsureSchema must have run before first use.
func NewPostgresStores(pool *pgxpool.Pool) Stores {
	return Stores{
		Customers:        postgres.NewCollection[*domain.Customer](pool, store.Customers),
		SalesOrders:      postgres.NewCollection[*domain.SalesOrder](pool, store.SalesOrders),
		Cargo:            postgres.NewCollection[*domain.Cargo](pool, store.Cargo),
		Shipments:        postgres.NewCollection[*domain.Shipment](pool, store.Shipments),
		Invoices:         postgres.NewCollection[*domain.Invoice](pool, store.Invoices),
		Vendors:          postgres.NewCollection[*domain.Vendor](pool, store.Vendors),
		OperationalCosts: postgres.NewCollection[*domain.OperationalCost](pool, store.OperationalCosts),
		SellingCosts:     postgres.NewCollection[*domain.SellingCost](pool, store.SellingCosts),
		HSCodes:          postgres.NewCollection[*domain.HSCode](pool, store.HSCodes),
		PurchaseOrders:   postgres.NewCollection[*domain.PurchaseOrder](pool, store.PurchaseOrders),
		Redlines:         postgres.NewCollection[*domain.Redline](pool, store.Redlines),
	}
}
