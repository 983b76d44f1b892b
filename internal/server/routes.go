// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"fmt"

	"codeberg.org/oliverandrich/qrtrack/internal/cache"
	"codeberg.org/oliverandrich/qrtrack/internal/config"
	"codeberg.org/oliverandrich/qrtrack/internal/handlers"
	"codeberg.org/oliverandrich/qrtrack/internal/middleware"
	"codeberg.org/oliverandrich/qrtrack/internal/qrimage"
	"codeberg.org/oliverandrich/qrtrack/internal/repository"
	authsvc "codeberg.org/oliverandrich/qrtrack/internal/services/auth"
	"codeberg.org/oliverandrich/qrtrack/internal/services/codes"
	"codeberg.org/oliverandrich/qrtrack/internal/services/geo"
	"codeberg.org/oliverandrich/qrtrack/internal/services/redirect"
	"codeberg.org/oliverandrich/qrtrack/internal/services/session"
	"codeberg.org/oliverandrich/qrtrack/internal/services/stats"
	"codeberg.org/oliverandrich/qrtrack/internal/services/token"
	"codeberg.org/oliverandrich/qrtrack/internal/sse"
	"github.com/labstack/echo/v4"
	"github.com/skip2/go-qrcode"
)

// routeDeps holds the wired services the routes are built from.
type routeDeps struct {
	repo     *repository.Repository
	auth     *authsvc.Service
	tokens   *token.Manager
	sessions *session.Manager
	codes    *codes.Service
	stats    *stats.Aggregator
	redirect *redirect.Service
	hub      *sse.Hub
	renderer qrimage.Renderer
	tracking func(id string) string
}

func newRouteDeps(cfg *config.Config, repo *repository.Repository, opts Options) (*routeDeps, error) {
	tokens, err := token.NewManager(&cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create token manager: %w", err)
	}
	sessions, err := session.NewManager(&cfg.Session, cfg.SecureCookies())
	if err != nil {
		return nil, fmt.Errorf("failed to create session manager: %w", err)
	}

	locator := opts.Locator
	if locator == nil {
		locator = geo.NewResolver(&cfg.Geo)
	}

	// Only the scan path benefits from the cache, but every code read and
	// write goes through it so updates invalidate.
	codeSvc := codes.NewService(cache.NewCodes(repo, opts.Cache))
	hub := sse.NewHub()

	return &routeDeps{
		repo:     repo,
		auth:     authsvc.NewService(repo),
		tokens:   tokens,
		sessions: sessions,
		codes:    codeSvc,
		stats:    stats.NewAggregator(codeSvc, repo),
		redirect: redirect.NewService(codeSvc, locator, repo, redirect.Options{
			StrictVisits: cfg.Scan.StrictVisits,
			Notifier:     hub,
		}),
		hub:      hub,
		renderer: qrimage.Renderer{Level: qrcode.Low},
		tracking: cfg.TrackingURL,
	}, nil
}

func setupRoutes(e *echo.Echo, deps *routeDeps) {
	h := handlers.New(deps.repo)
	e.GET("/health", h.Health)

	authHandler := handlers.NewAuth(deps.auth, deps.tokens, deps.sessions)
	a := e.Group("/auth")
	a.POST("/register", authHandler.Register)
	a.POST("/login", authHandler.Login)
	a.POST("/logout", authHandler.Logout)

	scanHandler := handlers.NewScan(deps.redirect)
	e.GET("/scan/:id", scanHandler.Scan)

	codeHandler := handlers.NewCodes(deps.codes, deps.stats, deps.renderer, deps.tracking)
	eventHandler := handlers.NewEvents(deps.codes, deps.hub, handlers.DefaultHeartbeat)
	g := e.Group("/codes", middleware.RequireIdentity(deps.tokens, deps.sessions))
	g.POST("", codeHandler.Create)
	g.GET("", codeHandler.List)
	g.GET("/:id", codeHandler.Get)
	g.PATCH("/:id", codeHandler.Update)
	g.GET("/:id/image", codeHandler.Image)
	g.GET("/:id/stats", codeHandler.Stats)
	g.GET("/:id/events", eventHandler.Events)
}
