// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package sse

import (
	"sync"
	"testing"
	"time"

	"codeberg.org/oliverandrich/qrtrack/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_SubscribeAndUnsubscribe(t *testing.T) {
	hub := NewHub()
	code := uuid.New()

	ch := hub.Subscribe(code)
	require.NotNil(t, ch)
	assert.Equal(t, 1, hub.ClientCount())
	assert.Equal(t, 1, hub.CodeCount())

	// A second client following the same code
	ch2 := hub.Subscribe(code)
	assert.Equal(t, 2, hub.ClientCount())
	assert.Equal(t, 1, hub.CodeCount())

	hub.Unsubscribe(code, ch)
	assert.Equal(t, 1, hub.ClientCount())

	hub.Unsubscribe(code, ch2)
	assert.Equal(t, 0, hub.ClientCount())
	assert.Equal(t, 0, hub.CodeCount())

	_, open := <-ch
	assert.False(t, open)
}

func TestHub_NotifyVisit(t *testing.T) {
	hub := NewHub()
	code := uuid.New()
	other := uuid.New()

	ch1 := hub.Subscribe(code)
	ch2 := hub.Subscribe(code)
	chOther := hub.Subscribe(other)

	visit := &models.Visit{ID: uuid.New(), CodeID: code, IP: "203.0.113.1"}
	hub.NotifyVisit(visit)

	for _, ch := range []chan models.Visit{ch1, ch2} {
		select {
		case got := <-ch:
			assert.Equal(t, visit.ID, got.ID)
			assert.Equal(t, "203.0.113.1", got.IP)
		case <-time.After(100 * time.Millisecond):
			t.Fatal("expected visit")
		}
	}

	select {
	case <-chOther:
		t.Fatal("visit delivered to another code's subscriber")
	default:
	}
}

func TestHub_NotifyWithoutSubscribers(t *testing.T) {
	hub := NewHub()

	assert.NotPanics(t, func() {
		hub.NotifyVisit(&models.Visit{CodeID: uuid.New()})
	})
}

func TestHub_NonBlockingSend(t *testing.T) {
	hub := NewHub()
	code := uuid.New()
	ch := hub.Subscribe(code)

	done := make(chan struct{})
	go func() {
		for range subscriberBuffer + 5 {
			hub.NotifyVisit(&models.Visit{CodeID: code})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("NotifyVisit blocked on a full subscriber")
	}
	assert.Len(t, ch, subscriberBuffer)
}

func TestHub_ConcurrentAccess(t *testing.T) {
	hub := NewHub()
	code := uuid.New()

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			ch := hub.Subscribe(code)
			hub.Unsubscribe(code, ch)
		}()
		go func() {
			defer wg.Done()
			hub.NotifyVisit(&models.Visit{CodeID: code})
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, hub.ClientCount())
}
