// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package auth provides authentication context helpers.
package auth

import (
	"context"

	"codeberg.org/oliverandrich/qrtrack/internal/ctxkeys"
	"github.com/google/uuid"
)

// Method names how an identity was verified.
type Method string

const (
	MethodBearer  Method = "bearer"
	MethodSession Method = "session"
)

// Identity is a verified caller.
type Identity struct {
	UserID uuid.UUID
	Email  string
	Method Method
}

// WithIdentity stores id in ctx.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, ctxkeys.Identity{}, id)
}

// GetIdentity returns the verified identity from the context, or nil if not authenticated.
func GetIdentity(ctx context.Context) *Identity {
	if id, ok := ctx.Value(ctxkeys.Identity{}).(*Identity); ok {
		return id
	}
	return nil
}

// UserID returns the caller's user ID, or uuid.Nil if not authenticated.
func UserID(ctx context.Context) uuid.UUID {
	if id := GetIdentity(ctx); id != nil {
		return id.UserID
	}
	return uuid.Nil
}

// IsAuthenticated returns true if the context has a verified identity.
func IsAuthenticated(ctx context.Context) bool {
	return GetIdentity(ctx) != nil
}
