// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package redirect turns a scan into a recorded visit and a destination.
package redirect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"codeberg.org/oliverandrich/qrtrack/internal/models"
	"codeberg.org/oliverandrich/qrtrack/internal/services/codes"
	"codeberg.org/oliverandrich/qrtrack/internal/services/geo"
	"github.com/google/uuid"
)

// DefaultWriteTimeout bounds the visit insert once it has been started.
const DefaultWriteTimeout = 2 * time.Second

// ErrVisitNotRecorded is returned in strict mode when the visit could not be stored.
var ErrVisitNotRecorded = errors.New("visit not recorded")

// CodeLookup finds a code regardless of its owner.
type CodeLookup interface {
	Lookup(ctx context.Context, id uuid.UUID) (*models.Code, error)
}

// Locator resolves an address to a location and never fails.
type Locator interface {
	Resolve(ctx context.Context, address string) geo.Location
}

// VisitLog persists visits.
type VisitLog interface {
	AppendVisit(ctx context.Context, visit *models.Visit) (*models.Visit, error)
}

// Notifier is told about every visit that was stored.
type Notifier interface {
	NotifyVisit(visit *models.Visit)
}

// Options tune the failure policy of the service.
type Options struct {
	// StrictVisits fails the scan when the visit cannot be stored instead
	// of redirecting anyway.
	StrictVisits bool
	// WriteTimeout bounds the visit insert. Zero means DefaultWriteTimeout.
	WriteTimeout time.Duration
	// Notifier is optional.
	Notifier Notifier
}

// Target is where a scan should be sent.
type Target struct {
	URL    string
	CodeID uuid.UUID
	// Visit is nil when the visit could not be recorded.
	Visit *models.Visit
}

type Service struct {
	codes  CodeLookup
	geo    Locator
	visits VisitLog
	opts   Options
}

func NewService(codes CodeLookup, locator Locator, visits VisitLog, opts Options) *Service {
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = DefaultWriteTimeout
	}
	return &Service{codes: codes, geo: locator, visits: visits, opts: opts}
}

// Handle records a visit for codeID and returns the destination to redirect to.
// An unknown code yields codes.ErrNotFound and records nothing.
func (s *Service) Handle(ctx context.Context, codeID uuid.UUID, remoteAddr, forwardedFor string) (*Target, error) {
	code, err := s.codes.Lookup(ctx, codeID)
	if err != nil {
		if errors.Is(err, codes.ErrNotFound) {
			return nil, codes.ErrNotFound
		}
		return nil, fmt.Errorf("failed to look up code: %w", err)
	}

	address := EffectiveAddress(remoteAddr, forwardedFor)
	loc := s.geo.Resolve(ctx, address)

	visit, err := s.record(ctx, &models.Visit{
		CodeID:   code.ID,
		IP:       address,
		Country:  loc.Country,
		Timezone: loc.Timezone,
	})
	if err != nil {
		slog.Error("visit_append_failed", "code_id", code.ID, "error", err)
		if s.opts.StrictVisits {
			return nil, fmt.Errorf("%w: %w", ErrVisitNotRecorded, err)
		}
	} else if s.opts.Notifier != nil {
		s.opts.Notifier.NotifyVisit(visit)
	}

	return &Target{
		URL:    NormalizeDestination(code.URL),
		CodeID: code.ID,
		Visit:  visit,
	}, nil
}

// record detaches the insert from the request so a client that hangs up
// mid-write cannot abort it.
func (s *Service) record(ctx context.Context, visit *models.Visit) (*models.Visit, error) {
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.WriteTimeout)
	defer cancel()
	return s.visits.AppendVisit(writeCtx, visit)
}

// EffectiveAddress picks the requester address: the first X-Forwarded-For
// entry when present, else the host of the connection address, else "unknown".
func EffectiveAddress(remoteAddr, forwardedFor string) string {
	if forwardedFor != "" {
		first, _, _ := strings.Cut(forwardedFor, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}

	remoteAddr = strings.TrimSpace(remoteAddr)
	if remoteAddr == "" {
		return geo.UnknownAddress
	}
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		if host == "" {
			return geo.UnknownAddress
		}
		return host
	}
	return strings.Trim(remoteAddr, "[]")
}

// NormalizeDestination prefixes https:// unless the URL already carries an
// http or https scheme. The stored URL is never rewritten.
func NormalizeDestination(url string) string {
	lower := strings.ToLower(url)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return url
	}
	return "https://" + url
}
