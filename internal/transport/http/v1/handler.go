// Package v1 provides the administrative HTTP handlers for the relay.
package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/xenolt/chatrelay/internal/registry"
	"github.com/xenolt/chatrelay/internal/store"
)

// Handler handles administrative HTTP requests.
type Handler struct {
	registry *registry.Registry
	audit    store.Store
	logger   *zap.Logger
}

// NewHandler creates a new handler.
func NewHandler(reg *registry.Registry, audit store.Store, logger *zap.Logger) *Handler {
	return &Handler{
		registry: reg,
		audit:    audit,
		logger:   logger,
	}
}

// RegisterRoutes registers the admin routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/v1/sessions", h.CreateSession)
	e.GET("/v1/sessions", h.ListSessions)
	e.GET("/v1/sessions/:session_id", h.GetSession)
	e.GET("/v1/sessions/:session_id/qr", h.GetPairingArtifact)
	e.PUT("/v1/sessions/:session_id/prompt", h.SetPrompt)
	e.GET("/v1/sessions/:session_id/users/:user_id/history", h.GetUserHistory)
	e.DELETE("/v1/sessions/:session_id/users/:user_id/history", h.ClearUserHistory)

	e.GET("/health", h.Health)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": "0.1.0",
	})
}
