// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"fmt"
	"strings"

	"codeberg.org/oliverandrich/qrtrack/internal/config"
	"codeberg.org/oliverandrich/qrtrack/internal/middleware"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

func setupMiddleware(e *echo.Echo, cfg *config.Config) {
	e.Pre(echomw.RemoveTrailingSlash())

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestIDToContext())
	e.Use(middleware.RequestLogger())
	e.Use(echomw.Secure())
	e.Use(echomw.GzipWithConfig(echomw.GzipConfig{
		// Event streams flush per message
		Skipper: func(c echo.Context) bool {
			return strings.HasSuffix(c.Request().URL.Path, "/events")
		},
	}))
	e.Use(echomw.BodyLimit(bodyLimit(cfg.Server.MaxBodySize)))
	e.Use(middleware.Locale())
}

// bodyLimit formats the configured limit in megabytes, defaulting to 1M.
func bodyLimit(mb int) string {
	if mb <= 0 {
		mb = 1
	}
	return fmt.Sprintf("%dM", mb)
}
