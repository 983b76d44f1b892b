// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package geo resolves network addresses to a coarse location.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"codeberg.org/oliverandrich/qrtrack/internal/config"
	"codeberg.org/oliverandrich/qrtrack/internal/models"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultEndpoint is the ip-api.com JSON lookup prefix.
	DefaultEndpoint = "http://ip-api.com/json/"
	// DefaultTimeout bounds a single lookup, connect and response included.
	DefaultTimeout = 300 * time.Millisecond

	// UnknownAddress is the sentinel used when no requester address is observable.
	UnknownAddress = "unknown"
)

// Location is the result of a lookup. It is never partially empty.
type Location struct {
	Country  string `json:"country"`
	Timezone string `json:"timezone"`
}

var (
	// UnknownLocation is returned whenever a lookup is impossible or fails.
	UnknownLocation = Location{Country: models.Unknown, Timezone: models.Unknown}
	// LocalhostLocation is returned for loopback addresses.
	LocalhostLocation = Location{Country: "Localhost", Timezone: "UTC"}
)

// Resolver looks up addresses against an ip-api compatible endpoint.
// It is safe for concurrent use.
type Resolver struct {
	endpoint string
	client   *http.Client
	group    singleflight.Group
}

// NewResolver creates a resolver from cfg, applying defaults for empty values.
func NewResolver(cfg *config.GeoConfig) *Resolver {
	endpoint := DefaultEndpoint
	timeout := DefaultTimeout
	if cfg != nil {
		if cfg.Endpoint != "" {
			endpoint = cfg.Endpoint
		}
		if cfg.Timeout > 0 {
			timeout = cfg.Timeout
		}
	}

	return &Resolver{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

// IsLoopback reports whether address names the local machine.
func IsLoopback(address string) bool {
	switch strings.ToLower(strings.TrimSpace(address)) {
	case "127.0.0.1", "::1", "localhost":
		return true
	}
	return false
}

// Resolve returns the location of address. It never fails: any problem with
// the lookup yields UnknownLocation. Concurrent calls for the same address
// share one outbound request.
func (r *Resolver) Resolve(ctx context.Context, address string) Location {
	address = strings.TrimSpace(address)
	if IsLoopback(address) {
		return LocalhostLocation
	}
	if address == "" || strings.EqualFold(address, UnknownAddress) {
		return UnknownLocation
	}

	// The shared lookup runs on its own time budget so one impatient caller
	// cannot fail it for the others.
	ch := r.group.DoChan(address, func() (any, error) {
		return r.lookup(context.WithoutCancel(ctx), address), nil
	})

	select {
	case res := <-ch:
		return res.Val.(Location)
	case <-ctx.Done():
		slog.Debug("geo_lookup_abandoned", "address", address, "error", ctx.Err())
		return UnknownLocation
	}
}

type apiResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Country  string `json:"country"`
	Timezone string `json:"timezone"`
}

func (r *Resolver) lookup(ctx context.Context, address string) Location {
	loc, err := r.fetch(ctx, address)
	if err != nil {
		slog.Debug("geo_lookup_failed", "address", address, "error", err)
		return UnknownLocation
	}
	return loc
}

func (r *Resolver) fetch(ctx context.Context, address string) (Location, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.endpoint+url.PathEscape(address), nil)
	if err != nil {
		return Location{}, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return Location{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Location{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Location{}, fmt.Errorf("failed to decode response: %w", err)
	}
	if body.Status != "success" {
		return Location{}, fmt.Errorf("lookup status %q: %s", body.Status, body.Message)
	}

	return Location{
		Country:  orUnknown(body.Country),
		Timezone: orUnknown(body.Timezone),
	}, nil
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return models.Unknown
	}
	return s
}
