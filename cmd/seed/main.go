// Package main seeds demo data: a customer and vendor, an order walked
// through its lifecycle, and the catalog records around it.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"cargodesk/internal/bus"
	"cargodesk/internal/config"
	"cargodesk/internal/core/types"
	"cargodesk/internal/domain"
	"cargodesk/internal/notify"
	"cargodesk/internal/store/postgres"
	"cargodesk/internal/sync"
	"cargodesk/pkg/logger"
	"cargodesk/pkg/sequence"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(logger.Config{Level: cfg.Log.Level, Development: true})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	var stores sync.Stores
	if cfg.Store.Backend == "postgres" {
		pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.Store.DSN), log)
		if err != nil {
			log.Fatalw("failed to connect to database", "error", err)
		}
		defer pool.Close()
		if err := postgres.EnsureSchema(ctx, pool, log); err != nil {
			log.Fatalw("failed to ensure schema", "error", err)
		}
		stores = sync.NewPostgresStores(pool)
	} else {
		log.Warn("seeding the memory backend only affects this process")
		stores = sync.NewMemoryStores()
	}

	engine := sync.New(
		stores,
		bus.New(log),
		notify.NewLogNotifier(log),
		sequence.New(sequence.NewMemoryCounter()),
		log,
		sync.WithCascadeDelay(10*time.Millisecond),
	)
	defer engine.Close()

	if err := seed(ctx, engine); err != nil {
		log.Fatalw("seed failed", "error", err)
	}
	// Let scheduled dashboard recomputes fire before exit.
	time.Sleep(100 * time.Millisecond)
	log.Info("seed complete")
}

func seed(ctx context.Context, engine *sync.Engine) error {
	customer, err := engine.CreateCustomer(ctx, &domain.Customer{
		Name:          "Pacific Trading Co",
		Email:         "ops@pacifictrading.example",
		ContactPerson: "Mei Lin",
		CreditLimit:   types.MustMoney("250000"),
		Status:        domain.CustomerActive,
	})
	if err != nil {
		return err
	}
	vendor, err := engine.CreateVendor(ctx, &domain.Vendor{
		Name:        "Evergreen Lines",
		ServiceType: "Ocean Carrier",
		Email:       "bookings@evergreen.example",
		Status:      domain.VendorActive,
	})
	if err != nil {
		return err
	}

	for _, hs := range []*domain.HSCode{
		{Code: "8471.30", Description: "Portable computers", DutyRate: 0},
		{Code: "9403.60", Description: "Wooden furniture", DutyRate: 2.5},
	} {
		if _, err := engine.CreateHSCode(ctx, hs); err != nil {
			return err
		}
	}

	order, err := engine.CreateSalesOrder(ctx, &domain.SalesOrder{
		CustomerID:    customer.ID,
		VendorID:      vendor.ID,
		Origin:        "Shanghai",
		Destination:   "Rotterdam",
		ServiceType:   "FCL",
		Status:        domain.OrderDraft,
		SellingPrice:  types.MustMoney("12500"),
		EstimatedCost: types.MustMoney("9800"),
		CargoItems: []domain.CargoItem{
			{Description: "Laptops", HSCode: "8471.30", Quantity: 500, WeightKg: 1250},
		},
	})
	if err != nil {
		return err
	}

	if _, err := engine.CreateInvoice(ctx, &domain.Invoice{
		CustomerID:   customer.ID,
		SalesOrderID: order.ID,
		Subtotal:     types.MustMoney("12500"),
		TaxAmount:    types.MustMoney("0"),
		Status:       domain.InvoiceSent,
	}); err != nil {
		return err
	}

	// Walk the order through its lifecycle: snapshot, shipment and cost
	// generation, transit, settlement.
	for _, status := range []domain.OrderStatus{
		domain.OrderOrder,
		domain.OrderConfirmed,
		domain.OrderInTransit,
		domain.OrderDelivered,
	} {
		if _, err := engine.ChangeSalesOrderStatus(ctx, order.ID, status); err != nil {
			return err
		}
	}

	if _, err := engine.CreatePurchaseOrder(ctx, &domain.PurchaseOrder{
		VendorID: vendor.ID,
		Amount:   types.MustMoney("6370"),
		Status:   domain.POApproved,
	}); err != nil {
		return err
	}
	return nil
}
