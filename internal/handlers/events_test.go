// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers_test

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"codeberg.org/oliverandrich/qrtrack/internal/auth"
	"codeberg.org/oliverandrich/qrtrack/internal/handlers"
	"codeberg.org/oliverandrich/qrtrack/internal/models"
	"codeberg.org/oliverandrich/qrtrack/internal/repository"
	"codeberg.org/oliverandrich/qrtrack/internal/services/codes"
	"codeberg.org/oliverandrich/qrtrack/internal/sse"
	"codeberg.org/oliverandrich/qrtrack/internal/testutil"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type eventsFixture struct {
	srv   *httptest.Server
	hub   *sse.Hub
	repo  *repository.Repository
	owner *models.User
}

// newEventsFixture serves the events endpoint over a real listener so the
// stream can be read while the handler is still running.
func newEventsFixture(t *testing.T, heartbeat time.Duration) *eventsFixture {
	t.Helper()
	_, repo := testutil.NewTestDB(t)
	hub := sse.NewHub()
	owner := testutil.NewTestUser(t, repo, "owner@example.com")
	h := handlers.NewEvents(codes.NewService(repo), hub, heartbeat)

	e := echo.New()
	e.GET("/codes/:id/events", h.Events, func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := auth.WithIdentity(c.Request().Context(), &auth.Identity{UserID: owner.ID, Method: auth.MethodBearer})
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	})

	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	return &eventsFixture{srv: srv, hub: hub, repo: repo, owner: owner}
}

func (f *eventsFixture) open(t *testing.T, id string) (*http.Response, *bufio.Reader) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.srv.URL+"/codes/"+id+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	return resp, bufio.NewReader(resp.Body)
}

// readEvent returns the next non-empty block of lines.
func readEvent(t *testing.T, r *bufio.Reader) []string {
	t.Helper()
	var lines []string
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		if line == "" {
			if len(lines) > 0 {
				return lines
			}
			continue
		}
		lines = append(lines, line)
	}
}

func TestEventsHandler_StreamsVisits(t *testing.T) {
	f := newEventsFixture(t, time.Minute)
	code := testutil.NewTestCode(t, f.repo, f.owner.ID, "https://example.com")

	resp, r := f.open(t, code.ID.String())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, sse.ContentType, resp.Header.Get(echo.HeaderContentType))
	assert.Equal(t, []string{": connected"}, readEvent(t, r))

	visit, err := f.repo.AppendVisit(context.Background(), &models.Visit{CodeID: code.ID, IP: "203.0.113.5", Country: "Spain", Timezone: "Europe/Madrid"})
	require.NoError(t, err)
	f.hub.NotifyVisit(visit)

	lines := readEvent(t, r)
	require.Len(t, lines, 2)
	assert.Equal(t, "event: scan", lines[0])

	var got handlers.VisitResponse
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(lines[1], "data: ")), &got))
	assert.Equal(t, visit.ID.String(), got.ID)
	assert.Equal(t, "203.0.113.5", got.IP)
	assert.Equal(t, "Spain", got.Country)
}

func TestEventsHandler_Heartbeat(t *testing.T) {
	f := newEventsFixture(t, 20*time.Millisecond)
	code := testutil.NewTestCode(t, f.repo, f.owner.ID, "https://example.com")

	_, r := f.open(t, code.ID.String())
	assert.Equal(t, []string{": connected"}, readEvent(t, r))
	assert.Equal(t, []string{": heartbeat"}, readEvent(t, r))
}

func TestEventsHandler_UnsubscribesOnDisconnect(t *testing.T) {
	f := newEventsFixture(t, time.Minute)
	code := testutil.NewTestCode(t, f.repo, f.owner.ID, "https://example.com")

	resp, r := f.open(t, code.ID.String())
	readEvent(t, r)
	assert.Equal(t, 1, f.hub.ClientCount())

	require.NoError(t, resp.Body.Close())
	f.hub.NotifyVisit(&models.Visit{ID: uuid.New(), CodeID: code.ID, CreatedAt: models.Now()})

	assert.Eventually(t, func() bool { return f.hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestEventsHandler_ForeignCode(t *testing.T) {
	f := newEventsFixture(t, time.Minute)
	other := testutil.NewTestUser(t, f.repo, "other@example.com")
	code := testutil.NewTestCode(t, f.repo, other.ID, "https://example.com")

	resp, _ := f.open(t, code.ID.String())

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, 0, f.hub.ClientCount())
}
