// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package codes manages trackable codes on behalf of their owners.
package codes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"codeberg.org/oliverandrich/qrtrack/internal/models"
	"codeberg.org/oliverandrich/qrtrack/internal/repository"
	"github.com/google/uuid"
)

const (
	// DefaultColor is used when a code is created without a color.
	DefaultColor = "#000000"
	MinSize      = 1
	MaxSize      = 4096
)

var (
	// ErrNotFound is returned for codes that do not exist or belong to someone else.
	ErrNotFound    = errors.New("code not found")
	ErrInvalidURL  = errors.New("destination url is required")
	ErrInvalidSize = errors.New("size out of range")
)

// Store is the persistence the service needs. It is satisfied by
// *repository.Repository and by the caching decorator.
type Store interface {
	CreateCode(ctx context.Context, code *models.Code) error
	GetCode(ctx context.Context, id uuid.UUID) (*models.Code, error)
	ListCodesByOwner(ctx context.Context, owner uuid.UUID) ([]models.Code, error)
	UpdateCode(ctx context.Context, code *models.Code) error
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// CreateParams holds the fields of a new code.
type CreateParams struct {
	URL   string
	Color string
	Size  int
}

// UpdateParams holds a partial update. Nil fields are left unchanged.
type UpdateParams struct {
	URL   *string
	Color *string
	Size  *int
}

// Empty reports whether no field is set.
func (p UpdateParams) Empty() bool {
	return p.URL == nil && p.Color == nil && p.Size == nil
}

// Create stores a new code owned by owner.
func (s *Service) Create(ctx context.Context, owner uuid.UUID, params CreateParams) (*models.Code, error) {
	url := strings.TrimSpace(params.URL)
	if url == "" {
		return nil, ErrInvalidURL
	}
	if err := validateSize(params.Size); err != nil {
		return nil, err
	}

	code := &models.Code{
		URL:     url,
		Color:   normalizeColor(params.Color),
		Size:    params.Size,
		OwnerID: owner,
	}
	if err := s.store.CreateCode(ctx, code); err != nil {
		return nil, fmt.Errorf("failed to create code: %w", err)
	}

	slog.Info("code_created", "code_id", code.ID, "owner_id", owner)
	return code, nil
}

// Get returns the code with id if owner owns it. Missing and foreign codes
// are indistinguishable to the caller.
func (s *Service) Get(ctx context.Context, id, owner uuid.UUID) (*models.Code, error) {
	code, err := s.store.GetCode(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get code: %w", err)
	}
	if !models.OwnedBy(code, owner) {
		return nil, ErrNotFound
	}
	return code, nil
}

// Lookup returns the code with id regardless of owner. It is used by the
// public scan path only.
func (s *Service) Lookup(ctx context.Context, id uuid.UUID) (*models.Code, error) {
	code, err := s.store.GetCode(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get code: %w", err)
	}
	return code, nil
}

// List returns the owner's codes, newest first.
func (s *Service) List(ctx context.Context, owner uuid.UUID) ([]models.Code, error) {
	codes, err := s.store.ListCodesByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list codes: %w", err)
	}
	return codes, nil
}

// Update applies params to an owned code. The owner never changes and
// UpdatedAt only moves when at least one field is supplied.
func (s *Service) Update(ctx context.Context, id, owner uuid.UUID, params UpdateParams) (*models.Code, error) {
	code, err := s.Get(ctx, id, owner)
	if err != nil {
		return nil, err
	}
	if params.Empty() {
		return code, nil
	}

	if params.URL != nil {
		url := strings.TrimSpace(*params.URL)
		if url == "" {
			return nil, ErrInvalidURL
		}
		code.URL = url
	}
	if params.Color != nil {
		code.Color = normalizeColor(*params.Color)
	}
	if params.Size != nil {
		if err := validateSize(*params.Size); err != nil {
			return nil, err
		}
		code.Size = *params.Size
	}
	code.UpdatedAt = models.Now()

	if err := s.store.UpdateCode(ctx, code); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update code: %w", err)
	}

	slog.Info("code_updated", "code_id", code.ID, "owner_id", owner)
	return code, nil
}

func validateSize(size int) error {
	if size < MinSize || size > MaxSize {
		return ErrInvalidSize
	}
	return nil
}

func normalizeColor(color string) string {
	color = strings.TrimSpace(color)
	if color == "" {
		return DefaultColor
	}
	return color
}
