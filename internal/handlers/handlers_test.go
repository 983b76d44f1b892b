// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"codeberg.org/oliverandrich/qrtrack/internal/handlers"
	"codeberg.org/oliverandrich/qrtrack/internal/i18n"
	"codeberg.org/oliverandrich/qrtrack/internal/testutil"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestMain(m *testing.M) {
	if err := i18n.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body handlers.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func TestNew(t *testing.T) {
	_, repo := testutil.NewTestDB(t)

	h := handlers.New(repo)

	assert.NotNil(t, h)
}

func TestHealth(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	h := handlers.New(repo)

	e := echo.New()
	c, rec := testutil.NewEchoContext(e, http.MethodGet, "/health", nil)

	err := h.Health(c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHealth_DatabaseDown(t *testing.T) {
	db, repo := testutil.NewTestDB(t)
	require.NoError(t, db.Close())
	h := handlers.New(repo)

	e := echo.New()
	c, rec := testutil.NewEchoContext(e, http.MethodGet, "/health", nil)

	err := h.Health(c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"unavailable"}`, rec.Body.String())
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		status   int
		expected string
	}{
		{"not found", echo.ErrNotFound, http.StatusNotFound, "Not found."},
		{"unauthorized", echo.ErrUnauthorized, http.StatusUnauthorized, "Authentication required."},
		{"too large", echo.ErrStatusRequestEntityTooLarge, http.StatusRequestEntityTooLarge, "The request could not be understood."},
		{"unexpected", assert.AnError, http.StatusInternalServerError, "Something went wrong. Please try again later."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			c, rec := testutil.NewEchoContext(e, http.MethodGet, "/", nil)

			handlers.ErrorHandler(tt.err, c)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.expected, decodeError(t, rec))
		})
	}
}

func TestErrorHandler_Localized(t *testing.T) {
	e := echo.New()
	c, rec := testutil.NewEchoContext(e, http.MethodGet, "/", nil)
	c.SetRequest(c.Request().WithContext(i18n.WithLocale(c.Request().Context(), language.German)))

	handlers.ErrorHandler(echo.ErrNotFound, c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Nicht gefunden.", decodeError(t, rec))
}

func TestErrorHandler_Head(t *testing.T) {
	e := echo.New()
	c, rec := testutil.NewEchoContext(e, http.MethodHead, "/", nil)

	handlers.ErrorHandler(echo.ErrNotFound, c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, rec.Body.String())
}
