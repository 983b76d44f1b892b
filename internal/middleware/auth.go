// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package middleware contains Echo middleware specific to this application.
package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"codeberg.org/oliverandrich/qrtrack/internal/auth"
	"codeberg.org/oliverandrich/qrtrack/internal/i18n"
	"codeberg.org/oliverandrich/qrtrack/internal/services/session"
	"codeberg.org/oliverandrich/qrtrack/internal/services/token"
	"github.com/labstack/echo/v4"
)

// TokenValidator verifies bearer tokens.
type TokenValidator interface {
	Validate(tokenString string) (*token.Claims, error)
}

// SessionParser reads the session cookie.
type SessionParser interface {
	Parse(r *http.Request) (*session.Data, error)
}

// RequireIdentity admits requests carrying a valid bearer token or session
// cookie and stores the identity in the request context. Everything else is
// rejected with 401 before reaching the handler. A present but invalid
// bearer token is rejected even if a session cookie is also sent.
func RequireIdentity(tokens TokenValidator, sessions SessionParser) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			r := c.Request()

			if raw, ok := bearerToken(r.Header.Get(echo.HeaderAuthorization)); ok {
				claims, err := tokens.Validate(raw)
				if err != nil {
					slog.Debug("token_rejected", "error", err)
					return unauthorized(c)
				}
				userID, err := claims.UserID()
				if err != nil {
					return unauthorized(c)
				}
				return serve(c, next, &auth.Identity{UserID: userID, Email: claims.Email, Method: auth.MethodBearer})
			}

			if sessions != nil {
				data, err := sessions.Parse(r)
				if err != nil {
					slog.Warn("session_parse_failed", "error", err)
				}
				if data != nil {
					return serve(c, next, &auth.Identity{UserID: data.UserID, Email: data.Email, Method: auth.MethodSession})
				}
			}

			return unauthorized(c)
		}
	}
}

func serve(c echo.Context, next echo.HandlerFunc, id *auth.Identity) error {
	c.SetRequest(c.Request().WithContext(auth.WithIdentity(c.Request().Context(), id)))
	return next(c)
}

// bearerToken extracts the token from an Authorization header. The second
// result is false when the header does not use the Bearer scheme.
func bearerToken(header string) (string, bool) {
	scheme, raw, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	return strings.TrimSpace(raw), true
}

func unauthorized(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
	return c.JSON(http.StatusUnauthorized, map[string]string{
		"error": i18n.T(c.Request().Context(), "error_unauthorized"),
	})
}
