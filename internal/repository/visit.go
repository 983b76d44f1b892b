// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"

	"codeberg.org/oliverandrich/qrtrack/internal/models"
	"github.com/google/uuid"
)

// AppendVisit inserts an immutable visit record. ID and CreatedAt are assigned
// when zero and empty locations are stored as models.Unknown.
// There is intentionally no update or delete counterpart.
func (r *Repository) AppendVisit(ctx context.Context, visit *models.Visit) (*models.Visit, error) {
	v := *visit
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = models.Now()
	}
	if v.Country == "" {
		v.Country = models.Unknown
	}
	if v.Timezone == "" {
		v.Timezone = models.Unknown
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO visits (id, code_id, ip, country, timezone, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		v.ID, v.CodeID, v.IP, v.Country, v.Timezone, v.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// CountVisits returns the number of visits committed for a code.
func (r *Repository) CountVisits(ctx context.Context, codeID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM visits WHERE code_id = ?`, codeID)
	return count, err
}

// ListVisits returns a code's visits, newest first. Equal timestamps are
// ordered by insertion, latest first.
func (r *Repository) ListVisits(ctx context.Context, codeID uuid.UUID) ([]models.Visit, error) {
	visits := []models.Visit{}
	err := r.db.SelectContext(ctx, &visits,
		`SELECT id, code_id, ip, country, timezone, created_at FROM visits
		 WHERE code_id = ? ORDER BY created_at DESC, rowid DESC`, codeID)
	if err != nil {
		return nil, err
	}
	return visits, nil
}
