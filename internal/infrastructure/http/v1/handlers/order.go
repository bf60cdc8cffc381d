package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cargodesk/internal/core/apperror"
	"cargodesk/internal/domain"
	"cargodesk/internal/sync"
)

// OrderHandler serves the sales-order operations beyond plain CRUD.
type OrderHandler struct {
	engine *sync.Engine
}

// NewOrderHandler creates an order handler.
func NewOrderHandler(engine *sync.Engine) *OrderHandler {
	return &OrderHandler{engine: engine}
}

type statusChangeRequest struct {
	Status string `json:"status" binding:"required"`
}

// ChangeStatus moves an order to a new status, running the cascades.
func (h *OrderHandler) ChangeStatus(c *gin.Context) {
	var req statusChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortErr(c, apperror.NewValidation("status is required").WithCause(err))
		return
	}
	order, err := h.engine.ChangeSalesOrderStatus(c.Request.Context(), c.Param("id"), domain.OrderStatus(req.Status))
	if err != nil {
		abortErr(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
