// Package main is the entry point for the cargodesk API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"

	"cargodesk/internal/auth"
	"cargodesk/internal/bus"
	"cargodesk/internal/config"
	v1 "cargodesk/internal/infrastructure/http/v1"
	"cargodesk/internal/notify"
	"cargodesk/internal/report"
	"cargodesk/internal/store"
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

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: !cfg.Log.JSON,
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Infow("starting cargodesk server", "store_backend", cfg.Store.Backend)

	// --- Store backend ---
	var stores sync.Stores
	var pool *pgxpool.Pool
	switch cfg.Store.Backend {
	case "postgres":
		poolCfg := postgres.DefaultPoolConfig(cfg.Store.DSN)
		poolCfg.MaxConns = cfg.Store.MaxConns
		poolCfg.MaxConnLifetime = cfg.Store.ConnLifetime
		pool, err = postgres.NewPool(ctx, poolCfg, log)
		if err != nil {
			log.Fatalw("failed to connect to database", "error", err)
		}
		defer pool.Close()
		if err := postgres.EnsureSchema(ctx, pool, log); err != nil {
			log.Fatalw("failed to ensure schema", "error", err)
		}
		stores = sync.NewPostgresStores(pool)
	default:
		stores = sync.NewMemoryStores()
	}

	// --- Numbering ---
	counter := sequence.NewMemoryCounter()
	seq := sequence.New(counter)
	if err := seedCounters(ctx, counter, stores); err != nil {
		log.Fatalw("failed to seed numbering counters", "error", err)
	}

	// --- Engine ---
	eventBus := bus.New(log)
	notifier := notify.NewLogNotifier(log)

	engineOpts := []sync.Option{
		sync.WithCascadeDelay(cfg.Sync.CascadeDelay),
	}
	if cfg.Redline.AutoApprove != "" {
		prog, err := sync.CompileAutoApprovePolicy(cfg.Redline.AutoApprove)
		if err != nil {
			log.Fatalw("failed to compile auto-approve policy", "error", err)
		}
		engineOpts = append(engineOpts, sync.WithAutoApprovePolicy(prog))
		log.Info("redline auto-approve policy installed")
	}
	engine := sync.New(stores, eventBus, notifier, seq, log, engineOpts...)
	defer engine.Close()

	// --- Auth ---
	authCfg := auth.DefaultConfig(cfg.Auth.JWTSecret, cfg.Auth.APIKeyHash)
	authCfg.TokenTTL = cfg.Auth.TokenTTL
	authService := auth.NewService(authCfg)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Engine:  engine,
		Reports: report.NewService(engine),
		Auth:    authService,
		Pool:    pool,
		Logger:  log,
	})

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		log.Infow("http server listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("http server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("forced shutdown", "error", err)
	}
	log.Info("server stopped")
}

// seedCounters raises the numbering counters past any numbers already in
// the store, so restarts never reissue a taken number.
func seedCounters(ctx context.Context, counter *sequence.MemoryCounter, stores sync.Stores) error {
	orders, err := stores.SalesOrders.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("load %s: %w", store.SalesOrders, err)
	}
	for _, o := range orders {
		counter.SeedFromNumber(sequence.DefaultConfig("SO"), o.CreatedAt, o.OrderNumber)
	}
	invoices, err := stores.Invoices.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("load %s: %w", store.Invoices, err)
	}
	for _, inv := range invoices {
		counter.SeedFromNumber(sequence.DefaultConfig("INV"), inv.CreatedAt, inv.InvoiceNumber)
	}
	pos, err := stores.PurchaseOrders.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("load %s: %w", store.PurchaseOrders, err)
	}
	for _, po := range pos {
		counter.SeedFromNumber(sequence.DefaultConfig("PO"), po.CreatedAt, po.PONumber)
	}
	return nil
}
