// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"codeberg.org/oliverandrich/qrtrack/internal/i18n"
	"codeberg.org/oliverandrich/qrtrack/internal/middleware"
	authsvc "codeberg.org/oliverandrich/qrtrack/internal/services/auth"
	"codeberg.org/oliverandrich/qrtrack/internal/services/codes"
	"codeberg.org/oliverandrich/qrtrack/internal/services/redirect"
	"github.com/labstack/echo/v4"
)

// ErrorResponse is the body of every error reply. Message is localized and
// never carries internal detail.
type ErrorResponse struct {
	Error string `json:"error"`
}

type errorMapping struct {
	status    int
	messageID string
	data      map[string]any
}

var sizeLimits = map[string]any{"Min": codes.MinSize, "Max": codes.MaxSize}

var passwordLimits = map[string]any{"Min": authsvc.MinPasswordLength, "Max": authsvc.MaxPasswordLength}

// classify maps domain errors to a status and message. Unknown errors are
// internal.
func classify(err error) errorMapping {
	switch {
	case errors.Is(err, codes.ErrNotFound):
		return errorMapping{status: http.StatusNotFound, messageID: "error_not_found"}
	case errors.Is(err, codes.ErrInvalidURL):
		return errorMapping{status: http.StatusBadRequest, messageID: "error_invalid_url"}
	case errors.Is(err, codes.ErrInvalidSize):
		return errorMapping{status: http.StatusBadRequest, messageID: "error_invalid_size", data: sizeLimits}
	case errors.Is(err, authsvc.ErrInvalidEmail):
		return errorMapping{status: http.StatusBadRequest, messageID: "error_invalid_email"}
	case errors.Is(err, authsvc.ErrWeakPassword):
		return errorMapping{status: http.StatusBadRequest, messageID: "error_weak_password", data: passwordLimits}
	case errors.Is(err, authsvc.ErrUserExists):
		return errorMapping{status: http.StatusConflict, messageID: "error_user_exists"}
	case errors.Is(err, authsvc.ErrInvalidCredentials):
		return errorMapping{status: http.StatusUnauthorized, messageID: "error_invalid_credentials"}
	case errors.Is(err, redirect.ErrVisitNotRecorded):
		return errorMapping{status: http.StatusServiceUnavailable, messageID: "error_unavailable"}
	default:
		return errorMapping{status: http.StatusInternalServerError, messageID: "error_internal"}
	}
}

// respondError writes the localized error reply for err. Internal errors
// are logged with their detail, which is never sent to the client.
func respondError(c echo.Context, err error) error {
	m := classify(err)
	ctx := c.Request().Context()

	if m.status >= http.StatusInternalServerError {
		slog.Error("request_failed",
			"method", c.Request().Method,
			"path", c.Path(),
			"request_id", middleware.RequestID(ctx),
			"error", err,
		)
	}
	if m.status == http.StatusUnauthorized {
		c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
	}

	return c.JSON(m.status, ErrorResponse{Error: i18n.TData(ctx, m.messageID, m.data)})
}

// badRequest replies 400 for bodies that cannot be bound.
func badRequest(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: i18n.T(c.Request().Context(), "error_bad_request")})
}

// ErrorHandler replaces echo's default handler so that framework errors
// (unknown routes, oversized bodies, panics) use the same localized body.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	messageID := "error_internal"

	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		switch {
		case status == http.StatusNotFound:
			messageID = "error_not_found"
		case status == http.StatusUnauthorized:
			messageID = "error_unauthorized"
		case status == http.StatusServiceUnavailable:
			messageID = "error_unavailable"
		case status >= 400 && status < 500:
			messageID = "error_bad_request"
		}
	}

	if status >= http.StatusInternalServerError {
		slog.Error("unhandled_error", "path", c.Path(), "error", err)
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(status)
	} else {
		writeErr = c.JSON(status, ErrorResponse{Error: i18n.T(c.Request().Context(), messageID)})
	}
	if writeErr != nil {
		slog.Error("error_response_failed", "error", writeErr)
	}
}
