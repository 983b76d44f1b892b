// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package handlers implements the HTTP endpoints.
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"codeberg.org/oliverandrich/qrtrack/internal/database"
	"codeberg.org/oliverandrich/qrtrack/internal/repository"
	"github.com/labstack/echo/v4"
)

const healthTimeout = 2 * time.Second

// Handlers contains the handlers that need nothing but the database.
type Handlers struct {
	repo *repository.Repository
}

// New creates a new Handlers instance.
func New(repo *repository.Repository) *Handlers {
	return &Handlers{repo: repo}
}

// Health returns the health status. It reports 503 when the database
// cannot be reached.
func (h *Handlers) Health(c echo.Context) error {
	if h.repo != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), healthTimeout)
		defer cancel()
		if err := database.Ping(ctx, h.repo.DB()); err != nil {
			slog.Error("health_check_failed", "error", err)
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
			})
		}
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}
