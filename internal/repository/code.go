// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"

	"codeberg.org/oliverandrich/qrtrack/internal/models"
	"github.com/google/uuid"
)

// CreateCode inserts a new code. ID and timestamps are assigned when zero.
func (r *Repository) CreateCode(ctx context.Context, code *models.Code) error {
	if code.ID == uuid.Nil {
		code.ID = uuid.New()
	}
	if code.CreatedAt.IsZero() {
		code.CreatedAt = models.Now()
	}
	if code.UpdatedAt.IsZero() {
		code.UpdatedAt = code.CreatedAt
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO codes (id, url, color, size, owner_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		code.ID, code.URL, code.Color, code.Size, code.OwnerID, code.CreatedAt, code.UpdatedAt)
	return err
}

// GetCode retrieves a code by ID regardless of its owner.
func (r *Repository) GetCode(ctx context.Context, id uuid.UUID) (*models.Code, error) {
	var code models.Code
	err := r.db.GetContext(ctx, &code, `SELECT * FROM codes WHERE id = ?`, id)
	if err != nil {
		return nil, wrapError(err)
	}
	return &code, nil
}

// ListCodesByOwner returns the owner's codes, newest first.
func (r *Repository) ListCodesByOwner(ctx context.Context, owner uuid.UUID) ([]models.Code, error) {
	codes := []models.Code{}
	err := r.db.SelectContext(ctx, &codes,
		`SELECT * FROM codes WHERE owner_id = ? ORDER BY created_at DESC, rowid DESC`, owner)
	if err != nil {
		return nil, err
	}
	return codes, nil
}

// UpdateCode writes the mutable fields of code. The owner is never changed.
func (r *Repository) UpdateCode(ctx context.Context, code *models.Code) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE codes SET url = ?, color = ?, size = ?, updated_at = ? WHERE id = ?`,
		code.URL, code.Color, code.Size, code.UpdatedAt, code.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
