// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package models defines the persisted records of the tracking service.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Unknown is stored when a visit's location could not be resolved.
const Unknown = "Unknown"

// Code is one issued trackable artifact. OwnerID and CreatedAt never change after creation.
type Code struct { //nolint:govet // fieldalignment not critical for models
	ID        uuid.UUID `db:"id" json:"id"`
	URL       string    `db:"url" json:"url"`
	Color     string    `db:"color" json:"color"`
	Size      int       `db:"size" json:"size"`
	OwnerID   uuid.UUID `db:"owner_id" json:"owner_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// OwnedBy reports whether code exists and belongs to identity.
// It is the only ownership check used by read, update and stats paths.
func OwnedBy(code *Code, identity uuid.UUID) bool {
	return code != nil && identity != uuid.Nil && code.OwnerID == identity
}

// Visit is one immutable scan record.
type Visit struct { //nolint:govet // fieldalignment not critical for models
	ID        uuid.UUID `db:"id" json:"id"`
	CodeID    uuid.UUID `db:"code_id" json:"code_id"`
	IP        string    `db:"ip" json:"ip"`
	Country   string    `db:"country" json:"country"`
	Timezone  string    `db:"timezone" json:"timezone"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Now returns the current time in the precision used for stored timestamps.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
