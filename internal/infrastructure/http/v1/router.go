// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"cargodesk/internal/auth"
	"cargodesk/internal/domain"
	"cargodesk/internal/infrastructure/http/v1/handlers"
	"cargodesk/internal/infrastructure/http/v1/middleware"
	"cargodesk/internal/report"
	"cargodesk/internal/sync"
	"cargodesk/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	Engine  *sync.Engine
	Reports *report.Service
	Auth    *auth.Service

	// Pool is nil for the memory backend; only health checks use it.
	Pool *pgxpool.Pool

	Logger *logger.Logger
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	authHandler := handlers.NewAuthHandler(cfg.Auth)
	router.POST("/api/v1/auth/token", authHandler.Token)

	api := router.Group("/api/v1")
	api.Use(middleware.Auth(cfg.Auth))

	e := cfg.Engine
	handlers.Register(api, "/customers", handlers.CRUD[domain.Customer]{
		List:   e.GetCustomers,
		Get:    e.GetCustomer,
		Create: e.CreateCustomer,
		Update: e.UpdateCustomer,
		Delete: e.DeleteCustomer,
	})
	handlers.Register(api, "/vendors", handlers.CRUD[domain.Vendor]{
		List:   e.GetVendors,
		Get:    e.GetVendor,
		Create: e.CreateVendor,
		Update: e.UpdateVendor,
		Delete: e.DeleteVendor,
	})
	handlers.Register(api, "/sales-orders", handlers.CRUD[domain.SalesOrder]{
		List:   e.GetSalesOrders,
		Get:    e.GetSalesOrder,
		Create: e.CreateSalesOrder,
		Update: e.UpdateSalesOrder,
		Delete: e.DeleteSalesOrder,
	})
	handlers.Register(api, "/cargo", handlers.CRUD[domain.Cargo]{
		List:   e.GetCargoList,
		Get:    e.GetCargo,
		Create: e.CreateCargo,
		Update: e.UpdateCargo,
		Delete: e.DeleteCargo,
	})
	handlers.Register(api, "/shipments", handlers.CRUD[domain.Shipment]{
		List:   e.GetShipments,
		Get:    e.GetShipment,
		Create: e.CreateShipment,
		Update: e.UpdateShipment,
		Delete: e.DeleteShipment,
	})
	handlers.Register(api, "/invoices", handlers.CRUD[domain.Invoice]{
		List:   e.GetInvoices,
		Get:    e.GetInvoice,
		Create: e.CreateInvoice,
		Update: e.UpdateInvoice,
		Delete: e.DeleteInvoice,
	})
	handlers.Register(api, "/operational-costs", handlers.CRUD[domain.OperationalCost]{
		List:   e.GetOperationalCosts,
		Get:    e.GetOperationalCost,
		Create: e.CreateOperationalCost,
		Update: e.UpdateOperationalCost,
		Delete: e.DeleteOperationalCost,
	})
	handlers.Register(api, "/selling-costs", handlers.CRUD[domain.SellingCost]{
		List:   e.GetSellingCosts,
		Get:    e.GetSellingCost,
		Create: e.CreateSellingCost,
		Update: e.UpdateSellingCost,
		Delete: e.DeleteSellingCost,
	})
	handlers.Register(api, "/hs-codes", handlers.CRUD[domain.HSCode]{
		List:   e.GetHSCodes,
		Create: e.CreateHSCode,
		Update: e.UpdateHSCode,
		Delete: e.DeleteHSCode,
	})
	handlers.Register(api, "/purchase-orders", handlers.CRUD[domain.PurchaseOrder]{
		List:   e.GetPurchaseOrders,
		Create: e.CreatePurchaseOrder,
		Update: e.UpdatePurchaseOrder,
		Delete: e.DeletePurchaseOrder,
	})

	orderHandler := handlers.NewOrderHandler(e)
	api.POST("/sales-orders/:id/status", orderHandler.ChangeStatus)

	systemHandler := handlers.NewSystemHandler(e)
	api.GET("/dashboard", systemHandler.Dashboard)
	api.GET("/consistency", systemHandler.Consistency)
	api.POST("/selling-costs/rollback", systemHandler.RollbackSellingCost)
	api.POST("/invoices/refresh-overdue", systemHandler.RefreshOverdue)

	redlineHandler := handlers.NewRedlineHandler(e)
	redlines := api.Group("/redlines")
	{
		redlines.GET("", redlineHandler.List)
		redlines.GET("/:id", redlineHandler.Get)
		redlines.POST("", redlineHandler.Submit)
		redlines.POST("/:id/approve", redlineHandler.Approve)
		redlines.POST("/:id/reject", redlineHandler.Reject)
	}

	reportHandler := handlers.NewReportHandler(cfg.Reports)
	reportsGroup := api.Group("/reports")
	{
		reportsGroup.GET("/summary", reportHandler.Summary)
		reportsGroup.GET("/orders.xlsx", reportHandler.OrdersXLSX)
		reportsGroup.GET("/snapshot", reportHandler.Snapshot)
	}

	return router
}
