package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cargodesk/internal/core/apperror"
	"cargodesk/internal/domain"
	"cargodesk/internal/sync"
)

// RedlineHandler serves the change-request workflow.
type RedlineHandler struct {
	engine *sync.Engine
}

// NewRedlineHandler creates a redline handler.
func NewRedlineHandler(engine *sync.Engine) *RedlineHandler {
	return &RedlineHandler{engine: engine}
}

// List returns all change requests.
func (h *RedlineHandler) List(c *gin.Context) {
	redlines, err := h.engine.GetRedlines(c.Request.Context())
	if err != nil {
		abortErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": redlines, "total": len(redlines)})
}

// Get returns one change request.
func (h *RedlineHandler) Get(c *gin.Context) {
	r, err := h.engine.GetRedline(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortErr(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// Submit files a change request.
func (h *RedlineHandler) Submit(c *gin.Context) {
	var r domain.Redline
	if err := c.ShouldBindJSON(&r); err != nil {
		abortErr(c, apperror.NewValidation("malformed request body").WithCause(err))
		return
	}
	submitted, err := h.engine.SubmitRedline(c.Request.Context(), &r)
	if err != nil {
		abortErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, submitted)
}

type reviewRequest struct {
	Reviewer string `json:"reviewer"`
	Note     string `json:"note"`
}

// Approve approves a pending change request and applies it to the order.
func (h *RedlineHandler) Approve(c *gin.Context) {
	var req reviewRequest
	_ = c.ShouldBindJSON(&req)
	if req.Reviewer == "" {
		req.Reviewer = c.GetString("client")
	}
	r, err := h.engine.ApproveRedline(c.Request.Context(), c.Param("id"), req.Reviewer)
	if err != nil {
		abortErr(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// Reject rejects a pending change request.
func (h *RedlineHandler) Reject(c *gin.Context) {
	var req reviewRequest
	_ = c.ShouldBindJSON(&req)
	if req.Reviewer == "" {
		req.Reviewer = c.GetString("client")
	}
	r, err := h.engine.RejectRedline(c.Request.Context(), c.Param("id"), req.Reviewer, req.Note)
	if err != nil {
		abortErr(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}
