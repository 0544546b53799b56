// Package http provides the HTTP server for the relay's administrative API.
package http

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/xenolt/chatrelay/internal/registry"
	"github.com/xenolt/chatrelay/internal/store"
	v1 "github.com/xenolt/chatrelay/internal/transport/http/v1"
)

// NewServer creates and configures the admin HTTP server. publicDir is
// served statically for the pairing page; pass "" to disable.
func NewServer(reg *registry.Registry, audit store.Store, publicDir string, logger *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	if publicDir != "" {
		e.Static("/", publicDir)
	}

	handler := v1.NewHandler(reg, audit, logger)
	handler.RegisterRoutes(e)

	return e
}
