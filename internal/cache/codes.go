// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package cache

import (
	"context"
	"log/slog"

	"codeberg.org/oliverandrich/qrtrack/internal/models"
	"github.com/google/uuid"
)

// CodeStore is the code persistence being decorated.
type CodeStore interface {
	CreateCode(ctx context.Context, code *models.Code) error
	GetCode(ctx context.Context, id uuid.UUID) (*models.Code, error)
	ListCodesByOwner(ctx context.Context, owner uuid.UUID) ([]models.Code, error)
	UpdateCode(ctx context.Context, code *models.Code) error
}

// Codes caches single-code lookups in front of a CodeStore. A nil cache
// passes every call straight through. Cache errors are logged and never
// surface to the caller.
type Codes struct {
	next  CodeStore
	cache *Cache
}

func NewCodes(next CodeStore, cache *Cache) *Codes {
	return &Codes{next: next, cache: cache}
}

func codeKey(id uuid.UUID) string {
	return "code:" + id.String()
}

func (c *Codes) CreateCode(ctx context.Context, code *models.Code) error {
	return c.next.CreateCode(ctx, code)
}

func (c *Codes) GetCode(ctx context.Context, id uuid.UUID) (*models.Code, error) {
	if c.cache == nil {
		return c.next.GetCode(ctx, id)
	}

	var cached models.Code
	found, err := c.cache.Get(ctx, codeKey(id), &cached)
	if err != nil {
		slog.Warn("cache_get_failed", "code_id", id, "error", err)
	}
	if found {
		return &cached, nil
	}

	code, err := c.next.GetCode(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, codeKey(id), code); err != nil {
		slog.Warn("cache_set_failed", "code_id", id, "error", err)
	}
	return code, nil
}

func (c *Codes) ListCodesByOwner(ctx context.Context, owner uuid.UUID) ([]models.Code, error) {
	return c.next.ListCodesByOwner(ctx, owner)
}

// UpdateCode writes through and drops the cached entry.
func (c *Codes) UpdateCode(ctx context.Context, code *models.Code) error {
	if err := c.next.UpdateCode(ctx, code); err != nil {
		return err
	}
	if c.cache != nil {
		if err := c.cache.Delete(ctx, codeKey(code.ID)); err != nil {
			slog.Warn("cache_invalidate_failed", "code_id", code.ID, "error", err)
		}
	}
	return nil
}
