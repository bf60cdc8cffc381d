package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cargodesk/internal/core/apperror"
	"cargodesk/internal/report"
)

// ReportHandler streams exports.
type ReportHandler struct {
	reports *report.Service
}

// NewReportHandler creates a report handler.
func NewReportHandler(reports *report.Service) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Summary returns the aggregate report numbers.
func (h *ReportHandler) Summary(c *gin.Context) {
	sum, err := h.reports.Summary(c.Request.Context())
	if err != nil {
		abortErr(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

// OrdersXLSX streams the order book spreadsheet.
func (h *ReportHandler) OrdersXLSX(c *gin.Context) {
	c.Header("Content-Disposition", `attachment; filename="orders.xlsx"`)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := h.reports.WriteOrdersXLSX(c.Request.Context(), c.Writer); err != nil {
		abortErr(c, apperror.NewInternal(err))
		return
	}
	c.Status(http.StatusOK)
}

// Snapshot streams the gzip-compressed store snapshot.
func (h *ReportHandler) Snapshot(c *gin.Context) {
	c.Header("Content-Disposition", `attachment; filename="snapshot.json.gz"`)
	c.Header("Content-Type", "application/gzip")
	if err := h.reports.WriteSnapshotArchive(c.Request.Context(), c.Writer); err != nil {
		abortErr(c, apperror.NewInternal(err))
		return
	}
	c.Status(http.StatusOK)
}
