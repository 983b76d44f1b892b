// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"codeberg.org/oliverandrich/qrtrack/internal/services/codes"
	"codeberg.org/oliverandrich/qrtrack/internal/sse"
	"github.com/labstack/echo/v4"
)

// DefaultHeartbeat is how often an idle event stream is kept alive.
const DefaultHeartbeat = 30 * time.Second

// EventHandlers streams live visits of an owned code.
type EventHandlers struct {
	codes     *codes.Service
	hub       *sse.Hub
	heartbeat time.Duration
}

// NewEvents creates a new EventHandlers instance.
func NewEvents(svc *codes.Service, hub *sse.Hub, heartbeat time.Duration) *EventHandlers {
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeat
	}
	return &EventHandlers{codes: svc, hub: hub, heartbeat: heartbeat}
}

// Events sends a "scan" event for every visit recorded while the client
// stays connected. Visits stored before the connection are not replayed.
func (h *EventHandlers) Events(c echo.Context) error {
	code, err := ownedCode(c, h.codes)
	if err != nil {
		return respondError(c, err)
	}

	ch := h.hub.Subscribe(code.ID)
	slog.Debug("feed_subscribed", "code_id", code.ID,
		"clients", h.hub.ClientCount(), "codes", h.hub.CodeCount())
	defer func() {
		h.hub.Unsubscribe(code.ID, ch)
		slog.Debug("feed_unsubscribed", "code_id", code.ID, "clients", h.hub.ClientCount())
	}()

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, sse.ContentType)
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if _, err := fmt.Fprint(w, sse.Connected); err != nil {
		return nil
	}
	w.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	ctx := c.Request().Context()
	for {
		var msg string
		select {
		case <-ctx.Done():
			return nil
		case visit, ok := <-ch:
			if !ok {
				return nil
			}
			data, err := json.Marshal(newVisitResponse(&visit))
			if err != nil {
				return err
			}
			msg = sse.FormatEvent("scan", string(data))
		case <-ticker.C:
			msg = sse.Heartbeat
		}

		// A failed write means the client is gone.
		if _, err := fmt.Fprint(w, msg); err != nil {
			return nil
		}
		w.Flush()
	}
}
