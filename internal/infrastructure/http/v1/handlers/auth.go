package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"cargodesk/internal/auth"
	"cargodesk/internal/core/apperror"
)

// AuthHandler exchanges API keys for access tokens.
type AuthHandler struct {
	service *auth.Service
}

// NewAuthHandler creates an auth handler.
func NewAuthHandler(service *auth.Service) *AuthHandler {
	return &AuthHandler{service: service}
}

type tokenRequest struct {
	APIKey string `json:"apiKey" binding:"required"`
	Client string `json:"client"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Token issues an access token for a valid API key.
func (h *AuthHandler) Token(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortErr(c, apperror.NewValidation("apiKey is required").WithCause(err))
		return
	}
	if err := h.service.VerifyAPIKey(req.APIKey); err != nil {
		abortErr(c, apperror.NewUnauthorized("invalid api key"))
		return
	}
	client := req.Client
	if client == "" {
		client = "api"
	}
	token, expiresAt, err := h.service.IssueToken(client)
	if err != nil {
		abortErr(c, apperror.NewInternal(err))
		return
	}
	c.JSON(http.StatusOK, tokenResponse{Token: token, ExpiresAt: expiresAt})
}
