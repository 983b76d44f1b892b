// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"codeberg.org/oliverandrich/qrtrack/internal/config"
	"codeberg.org/oliverandrich/qrtrack/internal/handlers"
	"codeberg.org/oliverandrich/qrtrack/internal/i18n"
	"codeberg.org/oliverandrich/qrtrack/internal/middleware"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiddlewareEcho(t *testing.T, maxBodyMB int) *echo.Echo {
	t.Helper()
	require.NoError(t, i18n.Init())

	e := echo.New()
	e.HTTPErrorHandler = handlers.ErrorHandler
	setupMiddleware(e, &config.Config{Server: config.ServerConfig{MaxBodySize: maxBodyMB}})
	return e
}

func TestBodyLimit(t *testing.T) {
	assert.Equal(t, "1M", bodyLimit(0))
	assert.Equal(t, "1M", bodyLimit(-3))
	assert.Equal(t, "4M", bodyLimit(4))
}

func TestMiddleware_RemovesTrailingSlash(t *testing.T) {
	e := newMiddlewareEcho(t, 1)
	e.GET("/codes", func(c echo.Context) error {
		return c.String(http.StatusOK, "list")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/codes/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "list", rec.Body.String())
}

func TestMiddleware_RequestID(t *testing.T) {
	e := newMiddlewareEcho(t, 1)
	var seen string
	e.GET("/", func(c echo.Context) error {
		seen = middleware.RequestID(c.Request().Context())
		return c.NoContent(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(echo.HeaderXRequestID))
}

func TestMiddleware_SecureHeaders(t *testing.T) {
	e := newMiddlewareEcho(t, 1)
	e.GET("/", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", rec.Header().Get(echo.HeaderXContentTypeOptions))
	assert.Equal(t, "SAMEORIGIN", rec.Header().Get(echo.HeaderXFrameOptions))
}

func TestMiddleware_BodyLimit(t *testing.T) {
	e := newMiddlewareEcho(t, 1)
	e.POST("/", func(c echo.Context) error {
		var body map[string]any
		if err := c.Bind(&body); err != nil {
			return err
		}
		return c.NoContent(http.StatusNoContent)
	})

	big := `{"url":"` + strings.Repeat("a", 2<<20) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(big))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error"`)
}

func TestMiddleware_RecoversPanics(t *testing.T) {
	e := newMiddlewareEcho(t, 1)
	e.GET("/", func(echo.Context) error {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "boom")
}

func TestMiddleware_Locale(t *testing.T) {
	e := newMiddlewareEcho(t, 1)

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	req.Header.Set("Accept-Language", "de-DE,de;q=0.9")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Nicht gefunden."}`, rec.Body.String())
}
