// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"

	"codeberg.org/oliverandrich/qrtrack/internal/models"
	authsvc "codeberg.org/oliverandrich/qrtrack/internal/services/auth"
	"codeberg.org/oliverandrich/qrtrack/internal/services/session"
	"codeberg.org/oliverandrich/qrtrack/internal/services/token"
	"github.com/labstack/echo/v4"
)

// AuthHandlers contains handlers for registration and login.
type AuthHandlers struct {
	auth     *authsvc.Service
	tokens   *token.Manager
	sessions *session.Manager
}

// NewAuth creates a new AuthHandlers instance.
func NewAuth(auth *authsvc.Service, tokens *token.Manager, sessions *session.Manager) *AuthHandlers {
	return &AuthHandlers{
		auth:     auth,
		tokens:   tokens,
		sessions: sessions,
	}
}

// RegisterRequest is the request body for registration.
type RegisterRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	CreatedAt int64  `json:"createdAt"`
}

func newUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:        u.ID.String(),
		Email:     u.Email,
		CreatedAt: u.CreatedAt.UnixMilli(),
	}
}

// Register creates an account.
func (h *AuthHandlers) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}

	user, err := h.auth.Register(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusCreated, newUserResponse(user))
}

// LoginRequest accepts either JSON with email or the OAuth2 password form
// with username.
type LoginRequest struct {
	Email    string `json:"email" form:"email"`
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// TokenResponse is returned on successful login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Login verifies credentials, issues a bearer token and sets the session cookie.
func (h *AuthHandlers) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}
	email := req.Email
	if email == "" {
		email = req.Username
	}

	user, err := h.auth.Login(c.Request().Context(), email, req.Password)
	if err != nil {
		return respondError(c, err)
	}

	accessToken, err := h.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return respondError(c, err)
	}

	cookie, err := h.sessions.Create(user.ID, user.Email)
	if err != nil {
		return respondError(c, err)
	}
	c.SetCookie(cookie)

	return c.JSON(http.StatusOK, TokenResponse{
		AccessToken: accessToken,
		TokenType:   "bearer",
		ExpiresIn:   int64(h.tokens.Expiry().Seconds()),
	})
}

// Logout clears the session cookie. Bearer tokens stay valid until they expire.
func (h *AuthHandlers) Logout(c echo.Context) error {
	c.SetCookie(h.sessions.Clear())
	return c.NoContent(http.StatusNoContent)
}
