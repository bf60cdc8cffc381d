package report

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"cargodesk/internal/bus"
	"cargodesk/internal/core/types"
	"cargodesk/internal/domain"
	"cargodesk/internal/notify"
	"cargodesk/internal/store"
	"cargodesk/internal/sync"
	"cargodesk/pkg/logger"
	"cargodesk/pkg/sequence"
)

func newReportEngine(t *testing.T) *sync.Engine {
	t.Helper()
	e := sync.New(
		sync.NewMemoryStores(),
		bus.New(logger.Nop()),
		&notify.Capture{},
		sequence.New(sequence.NewMemoryCounter()),
		logger.Nop(),
		sync.WithClock(func() time.Time { return time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC) }),
		sync.WithCascadeDelay(time.Millisecond),
	)
	t.Cleanup(e.Close)
	return e
}

func seedOrder(t *testing.T, e *sync.Engine) *domain.SalesOrder {
	t.Helper()
	ctx := context.Background()
	c, err := e.CreateCustomer(ctx, &domain.Customer{Name: "Pacific Trading Co", Status: domain.CustomerActive})
	require.NoError(t, err)
	o, err := e.CreateSalesOrder(ctx, &domain.SalesOrder{
		CustomerID:    c.ID,
		Origin:        "Shanghai",
		Destination:   "Rotterdam",
		Status:        domain.OrderDraft,
		SellingPrice:  types.MustMoney("12500"),
		EstimatedCost: types.MustMoney("9800"),
	})
	require.NoError(t, err)
	return o
}

func TestWriteOrdersXLSX(t *testing.T) {
	e := newReportEngine(t)
	o := seedOrder(t, e)
	svc := NewService(e)

	var buf bytes.Buffer
	require.NoError(t, svc.WriteOrdersXLSX(context.Background(), &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Orders")
	require.NoError(t, err)
	require.Len(t, rows, 3, "header, one order, totals")
	require.Equal(t, orderSheetHeader, rows[0])
	require.Equal(t, o.OrderNumber, rows[1][0])
	require.Equal(t, "Pacific Trading Co", rows[1][1])
	require.Equal(t, "Total", rows[2][0])
	require.Equal(t, "12500", rows[2][7])
}

func TestSummaryBreaksRevenueDownByService(t *testing.T) {
	e := newReportEngine(t)
	seedOrder(t, e)
	svc := NewService(e)

	sum, err := svc.Summary(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, sum.SalesOrders)
	require.True(t, sum.RevenueByService["Unspecified"].Equal(types.MustMoney("12500")),
		"revenue = %s", sum.RevenueByService["Unspecified"])
}

func TestSnapshotArchiveRoundtrip(t *testing.T) {
	e := newReportEngine(t)
	o := seedOrder(t, e)
	svc := NewService(e)

	var buf bytes.Buffer
	require.NoError(t, svc.WriteSnapshotArchive(context.Background(), &buf))

	doc, err := ReadSnapshotArchive(&buf)
	require.NoError(t, err)

	var orders []*domain.SalesOrder
	require.NoError(t, json.Unmarshal(doc[store.SalesOrders], &orders))
	require.Len(t, orders, 1)
	require.Equal(t, o.OrderNumber, orders[0].OrderNumber)

	var customers []*domain.Customer
	require.NoError(t, json.Unmarshal(doc[store.Customers], &customers))
	require.Len(t, customers, 1)
}

func TestReadSnapshotArchiveRejectsPlainJSON(t *testing.T) {
	_, err := ReadSnapshotArchive(bytes.NewBufferString(`{"customers":[]}`))
	require.Error(t, err)
}
