// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package ctxkeys defines typed context keys used across packages.
package ctxkeys

// Identity is the context key for the verified caller identity.
type Identity struct{}

// RequestID is the context key for the request ID assigned at the edge.
type RequestID struct{}
