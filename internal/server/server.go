// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package server assembles and runs the HTTP server.
package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"codeberg.org/oliverandrich/qrtrack/internal/cache"
	"codeberg.org/oliverandrich/qrtrack/internal/config"
	"codeberg.org/oliverandrich/qrtrack/internal/database"
	"codeberg.org/oliverandrich/qrtrack/internal/handlers"
	"codeberg.org/oliverandrich/qrtrack/internal/i18n"
	"codeberg.org/oliverandrich/qrtrack/internal/repository"
	"codeberg.org/oliverandrich/qrtrack/internal/services/redirect"
	"github.com/labstack/echo/v4"
	"github.com/urfave/cli/v3"
)

const shutdownTimeout = 10 * time.Second

// Options carries collaborators that replace the ones built from config.
type Options struct {
	// Locator resolves visit locations. Nil builds a geo.Resolver from cfg.Geo.
	Locator redirect.Locator
	// Cache fronts code lookups. Nil disables caching.
	Cache *cache.Cache
}

// Run starts the server with the given CLI command.
func Run(ctx context.Context, cmd *cli.Command) error {
	cfg := config.NewFromCLI(cmd)
	setupLogger(cfg.Log.Level, cfg.Log.Format)

	slog.Info("server_starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"base_url", cfg.Server.BaseURL,
	)

	// Database, migrations run on open
	db, err := database.Open(cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("database_close_failed", "error", closeErr)
		}
	}()

	if initErr := i18n.Init(); initErr != nil {
		return fmt.Errorf("failed to init i18n: %w", initErr)
	}

	// The cache is optional. An unreachable Redis is logged and skipped.
	codeCache, err := cache.Connect(ctx, &cfg.Cache)
	if err != nil {
		slog.Warn("cache_unavailable", "error", err)
	}
	if codeCache != nil {
		slog.Info("cache_enabled", "addr", cfg.Cache.RedisAddr, "ttl", cfg.Cache.TTL)
		defer func() {
			st := codeCache.Stats()
			slog.Info("cache_closed", "hits", st.Hits, "misses", st.Misses, "errors", st.Errors)
			_ = codeCache.Close()
		}()
	}

	e, err := New(cfg, repository.New(db), Options{Cache: codeCache})
	if err != nil {
		return err
	}

	return startWithGracefulShutdown(ctx, e, cfg)
}

// New builds the Echo instance with all services, middleware and routes.
func New(cfg *config.Config, repo *repository.Repository, opts Options) (*echo.Echo, error) {
	deps, err := newRouteDeps(cfg, repo, opts)
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handlers.ErrorHandler

	setupMiddleware(e, cfg)
	setupRoutes(e, deps)

	return e, nil
}

func startWithGracefulShutdown(ctx context.Context, e *echo.Echo, cfg *config.Config) error {
	tlsResult, err := SetupTLS(cfg)
	if err != nil {
		return fmt.Errorf("TLS setup failed: %w", err)
	}

	errChan := make(chan error, 2)

	// HTTP redirect server for ACME mode
	var httpServer *http.Server

	switch tlsResult.Mode {
	case TLSModeOff:
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		go func() {
			slog.Info("server_running", "url", cfg.Server.BaseURL)
			if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- err
			}
		}()

	case TLSModeACME:
		go func() {
			slog.Info("server_running", "url", cfg.Server.BaseURL)
			if err := startTLSServer(e, ":443", tlsResult.TLSConfig); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- err
			}
		}()

		httpServer = &http.Server{
			Addr:              ":80",
			Handler:           tlsResult.HTTPHandler,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			slog.Info("http_redirect_active", "addr", ":80")
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- err
			}
		}()

	case TLSModeManual:
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		go func() {
			slog.Info("server_running", "url", cfg.Server.BaseURL)
			if err := startTLSServer(e, addr, tlsResult.TLSConfig); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- err
			}
		}()
	}

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case <-sigCtx.Done():
		slog.Info("server_shutting_down")
	case err := <-errChan:
		slog.Error("server_error", "error", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("server_shutdown_failed", "error", err)
	}
	if httpServer != nil {
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("http_redirect_shutdown_failed", "error", err)
		}
	}

	slog.Info("server_stopped")
	return nil
}

// startTLSServer starts the Echo server with a custom TLS configuration.
func startTLSServer(e *echo.Echo, addr string, tlsConfig *tls.Config) error {
	lc := &net.ListenConfig{}
	ln, err := lc.Listen(context.Background(), "tcp", addr)
	if err != nil {
		return err
	}
	e.TLSListener = tls.NewListener(ln, tlsConfig)
	e.TLSServer.TLSConfig = tlsConfig
	return e.TLSServer.Serve(e.TLSListener)
}
