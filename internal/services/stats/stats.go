// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package stats summarizes the visits of a code for its owner.
package stats

import (
	"context"
	"fmt"

	"codeberg.org/oliverandrich/qrtrack/internal/models"
	"github.com/google/uuid"
)

// CodeGetter resolves an owned code. Missing and foreign codes both yield
// codes.ErrNotFound.
type CodeGetter interface {
	Get(ctx context.Context, id, owner uuid.UUID) (*models.Code, error)
}

// VisitReader reads the visit log.
type VisitReader interface {
	CountVisits(ctx context.Context, codeID uuid.UUID) (int64, error)
	ListVisits(ctx context.Context, codeID uuid.UUID) ([]models.Visit, error)
}

// Stats is the visit summary of one code. The total and the list are read
// separately and may disagree under concurrent scans.
type Stats struct {
	CodeID      uuid.UUID
	TotalVisits int64
	Visits      []models.Visit
}

type Aggregator struct {
	codes  CodeGetter
	visits VisitReader
}

func NewAggregator(codes CodeGetter, visits VisitReader) *Aggregator {
	return &Aggregator{codes: codes, visits: visits}
}

// Aggregate returns the visit summary of codeID if caller owns it.
func (a *Aggregator) Aggregate(ctx context.Context, codeID, caller uuid.UUID) (*Stats, error) {
	code, err := a.codes.Get(ctx, codeID, caller)
	if err != nil {
		return nil, err
	}

	total, err := a.visits.CountVisits(ctx, code.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count visits: %w", err)
	}

	visits, err := a.visits.ListVisits(ctx, code.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list visits: %w", err)
	}
	if visits == nil {
		visits = []models.Visit{}
	}

	return &Stats{
		CodeID:      code.ID,
		TotalVisits: total,
		Visits:      visits,
	}, nil
}
