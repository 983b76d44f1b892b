// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package sse fans recorded visits out to live subscribers.
package sse

import (
	"sync"

	"codeberg.org/oliverandrich/qrtrack/internal/models"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// subscriberBuffer bounds how far a slow subscriber may lag before visits
// are dropped for it.
const subscriberBuffer = 16

// Hub manages subscribers per code. Several clients may follow the same code.
type Hub struct {
	subscribers map[uuid.UUID][]chan models.Visit
	mu          sync.RWMutex
}

// NewHub creates a new hub.
func NewHub() *Hub {
	return &Hub{subscribers: make(map[uuid.UUID][]chan models.Visit)}
}

// Subscribe registers a new subscriber for codeID and returns the channel
// visits are delivered on.
func (h *Hub) Subscribe(codeID uuid.UUID) chan models.Visit {
	ch := make(chan models.Visit, subscriberBuffer)

	h.mu.Lock()
	defer h.mu.Unlock()

	h.subscribers[codeID] = append(h.subscribers[codeID], ch)
	return ch
}

// Unsubscribe removes ch and closes it.
func (h *Hub) Unsubscribe(codeID uuid.UUID, ch chan models.Visit) {
	h.mu.Lock()
	defer h.mu.Unlock()

	remaining := lo.Filter(h.subscribers[codeID], func(c chan models.Visit, _ int) bool {
		return c != ch
	})
	if len(remaining) == 0 {
		delete(h.subscribers, codeID)
	} else {
		h.subscribers[codeID] = remaining
	}

	close(ch)
}

// NotifyVisit delivers visit to every subscriber of its code without
// blocking. Subscribers with a full buffer miss the visit.
func (h *Hub) NotifyVisit(visit *models.Visit) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.subscribers[visit.CodeID] {
		select {
		case ch <- *visit:
		default:
		}
	}
}

// ClientCount returns the total number of subscribers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return lo.SumBy(lo.Values(h.subscribers), func(chans []chan models.Visit) int {
		return len(chans)
	})
}

// CodeCount returns the number of codes with at least one subscriber.
func (h *Hub) CodeCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.subscribers)
}
