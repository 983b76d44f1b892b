// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"

	"codeberg.org/oliverandrich/qrtrack/internal/services/redirect"
	"github.com/labstack/echo/v4"
)

// ScanHandlers serves the public tracking endpoint.
type ScanHandlers struct {
	redirect *redirect.Service
}

// NewScan creates a new ScanHandlers instance.
func NewScan(svc *redirect.Service) *ScanHandlers {
	return &ScanHandlers{redirect: svc}
}

// Scan records a visit and redirects to the code's destination.
func (h *ScanHandlers) Scan(c echo.Context) error {
	id, err := codeID(c)
	if err != nil {
		return respondError(c, err)
	}

	r := c.Request()
	target, err := h.redirect.Handle(r.Context(), id, r.RemoteAddr, r.Header.Get(echo.HeaderXForwardedFor))
	if err != nil {
		return respondError(c, err)
	}

	c.Response().Header().Set("Cache-Control", "no-store")
	return c.Redirect(http.StatusTemporaryRedirect, target.URL)
}
