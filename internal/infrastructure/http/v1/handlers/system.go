package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cargodesk/internal/sync"
)

// SystemHandler serves the dashboard, the consistency audit, and the
// selling cost rollback.
type SystemHandler struct {
	engine *sync.Engine
}

// NewSystemHandler creates a system handler.
func NewSystemHandler(engine *sync.Engine) *SystemHandler {
	return &SystemHandler{engine: engine}
}

// Dashboard returns the statistics snapshot.
func (h *SystemHandler) Dashboard(c *gin.Context) {
	stats, err := h.engine.Dashboard(c.Request.Context())
	if err != nil {
		abortErr(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Consistency runs the referential-integrity audit.
func (h *SystemHandler) Consistency(c *gin.Context) {
	issues, err := h.engine.ValidateDataConsistency(c.Request.Context())
	if err != nil {
		abortErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"issues": issues, "total": len(issues)})
}

// RollbackSellingCost undoes the last selling cost mutation.
func (h *SystemHandler) RollbackSellingCost(c *gin.Context) {
	restored, err := h.engine.RollbackLastSellingCostChange(c.Request.Context())
	if err != nil {
		abortErr(c, err)
		return
	}
	if restored == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, restored)
}

// RefreshOverdue sweeps invoices past their due date into Overdue.
func (h *SystemHandler) RefreshOverdue(c *gin.Context) {
	flagged, err := h.engine.RefreshOverdueInvoices(c.Request.Context())
	if err != nil {
		abortErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"flagged": flagged})
}
