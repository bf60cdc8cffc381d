// Package report produces exports over the engine's data: an order book
// spreadsheet and a compressed full-store snapshot.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/xuri/excelize/v2"

	"cargodesk/internal/core/types"
	"cargodesk/internal/domain"
	"cargodesk/internal/store"
	"cargodesk/internal/sync"
)

// Service reads through the engine so exports see the same view as the API.
type Service struct {
	engine *sync.Engine
}

// NewService creates a report service.
func NewService(engine *sync.Engine) *Service {
	return &Service{engine: engine}
}

// Summary bundles the dashboard numbers with a per-service-type revenue
// breakdown. Cancelled orders are excluded, matching the dashboard.
type Summary struct {
	*sync.Stats
	RevenueByService map[string]types.Money `json:"revenueByService"`
}

// Summary computes the report summary from the engine's current view.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	stats, err := s.engine.Dashboard(ctx)
	if err != nil {
		return nil, fmt.Errorf("load dashboard: %w", err)
	}
	orders, err := s.engine.GetSalesOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("load sales orders: %w", err)
	}

	byService := make(map[string]types.Money)
	for _, o := range orders {
		if o.Status == domain.OrderCancelled {
			continue
		}
		key := o.ServiceType
		if key == "" {
			key = "Unspecified"
		}
		byService[key] = byService[key].Add(o.SellingPrice)
	}
	return &Summary{Stats: stats, RevenueByService: byService}, nil
}

var orderSheetHeader = []string{
	"Order Number", "Customer", "Vendor", "Origin", "Destination",
	"Service Type", "Status", "Selling Price", "Estimated Cost", "Margin",
	"Tracking Number",
}

// WriteOrdersXLSX writes the order book as a spreadsheet.
func (s *Service) WriteOrdersXLSX(ctx context.Context, w io.Writer) error {
	orders, err := s.engine.GetSalesOrders(ctx)
	if err != nil {
		return fmt.Errorf("load sales orders: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Orders"
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for col, h := range orderSheetHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	var totalPrice, totalCost, totalMargin types.Money
	for i, o := range orders {
		row := i + 2
		totalPrice = totalPrice.Add(o.SellingPrice)
		totalCost = totalCost.Add(o.EstimatedCost)
		totalMargin = totalMargin.Add(o.Margin)
		values := []any{
			o.OrderNumber, o.CustomerName, o.VendorName, o.Origin, o.Destination,
			o.ServiceType, string(o.Status),
			o.SellingPrice.InexactFloat64(),
			o.EstimatedCost.InexactFloat64(),
			o.Margin.InexactFloat64(),
			o.TrackingNumber(),
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return fmt.Errorf("cell name: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("write row %d: %w", row, err)
			}
		}
	}

	totalsRow := len(orders) + 2
	totals := map[int]any{
		1:  "Total",
		8:  totalPrice.InexactFloat64(),
		9:  totalCost.InexactFloat64(),
		10: totalMargin.InexactFloat64(),
	}
	for col, v := range totals {
		cell, err := excelize.CoordinatesToCellName(col, totalsRow)
		if err != nil {
			return fmt.Errorf("totals cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("write totals: %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// snapshot is the JSON document inside a snapshot archive.
type snapshot struct {
	Customers        []*domain.Customer        `json:"customers"`
	Vendors          []*domain.Vendor          `json:"vendors"`
	SalesOrders      []*domain.SalesOrder      `json:"salesOrders"`
	Cargo            []*domain.Cargo           `json:"cargo"`
	Shipments        []*domain.Shipment        `json:"shipments"`
	Invoices         []*domain.Invoice         `json:"invoices"`
	OperationalCosts []*domain.OperationalCost `json:"operationalCosts"`
	SellingCosts     []*domain.SellingCost     `json:"sellingCosts"`
	HSCodes          []*domain.HSCode          `json:"hsCodes"`
	PurchaseOrders   []*domain.PurchaseOrder   `json:"purchaseOrders"`
	Redlines         []*domain.Redline         `json:"redlines"`
}

// WriteSnapshotArchive writes the full store as gzip-compressed JSON, one
// key per collection. The archive is a point-in-time read, not a
// transactionally consistent dump.
func (s *Service) WriteSnapshotArchive(ctx context.Context, w io.Writer) error {
	var snap snapshot
	var err error

	load := func(name string, dst func() error) error {
		if err := dst(); err != nil {
			return fmt.Errorf("load %s: %w", name, err)
		}
		return nil
	}
	steps := []struct {
		name string
		fn   func() error
	}{
		{store.Customers, func() error { snap.Customers, err = s.engine.GetCustomers(ctx); return err }},
		{store.Vendors, func() error { snap.Vendors, err = s.engine.GetVendors(ctx); return err }},
		{store.SalesOrders, func() error { snap.SalesOrders, err = s.engine.GetSalesOrders(ctx); return err }},
		{store.Cargo, func() error { snap.Cargo, err = s.engine.GetCargoList(ctx); return err }},
		{store.Shipments, func() error { snap.Shipments, err = s.engine.GetShipments(ctx); return err }},
		{store.Invoices, func() error { snap.Invoices, err = s.engine.GetInvoices(ctx); return err }},
		{store.OperationalCosts, func() error { snap.OperationalCosts, err = s.engine.GetOperationalCosts(ctx); return err }},
		{store.SellingCosts, func() error { snap.SellingCosts, err = s.engine.GetSellingCosts(ctx); return err }},
		{store.HSCodes, func() error { snap.HSCodes, err = s.engine.GetHSCodes(ctx); return err }},
		{store.PurchaseOrders, func() error { snap.PurchaseOrders, err = s.engine.GetPurchaseOrders(ctx); return err }},
		{store.Redlines, func() error { snap.Redlines, err = s.engine.GetRedlines(ctx); return err }},
	}
	for _, step := range steps {
		if err := load(step.name, step.fn); err != nil {
			return err
		}
	}

	gz := gzip.NewWriter(w)
	enc := json.NewEncoder(gz)
	if err := enc.Encode(&snap); err != nil {
		gz.Close()
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("flush archive: %w", err)
	}
	return nil
}

// ReadSnapshotArchive decodes an archive produced by WriteSnapshotArchive.
func ReadSnapshotArchive(r io.Reader) (map[string]json.RawMessage, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer gz.Close()

	var doc map[string]json.RawMessage
	if err := json.NewDecoder(gz).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return doc, nil
}
