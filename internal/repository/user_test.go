// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository_test

import (
	"context"
	"testing"

	"codeberg.org/oliverandrich/qrtrack/internal/models"
	"codeberg.org/oliverandrich/qrtrack/internal/repository"
	"codeberg.org/oliverandrich/qrtrack/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUser(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	user := &models.User{Email: "owner@example.com", PasswordHash: "hash"}
	err := repo.CreateUser(ctx, user)

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.False(t, user.CreatedAt.IsZero())
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	testutil.NewTestUser(t, repo, "owner@example.com")

	err := repo.CreateUser(ctx, &models.User{Email: "owner@example.com", PasswordHash: "hash"})

	assert.Error(t, err)
}

func TestGetUserByID(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	created := testutil.NewTestUser(t, repo, "owner@example.com")

	user, err := repo.GetUserByID(context.Background(), created.ID)

	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)
	assert.Equal(t, "owner@example.com", user.Email)
	assert.True(t, created.CreatedAt.Equal(user.CreatedAt))
}

func TestGetUserByID_NotFound(t *testing.T) {
	_, repo := testutil.NewTestDB(t)

	_, err := repo.GetUserByID(context.Background(), uuid.New())

	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestGetUserByEmail(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	created := testutil.NewTestUser(t, repo, "owner@example.com")

	user, err := repo.GetUserByEmail(context.Background(), "owner@example.com")

	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)
}

func TestGetUserByEmail_NotFound(t *testing.T) {
	_, repo := testutil.NewTestDB(t)

	_, err := repo.GetUserByEmail(context.Background(), "nobody@example.com")

	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestEmailExists(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	testutil.NewTestUser(t, repo, "owner@example.com")

	exists, err := repo.EmailExists(ctx, "owner@example.com")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.EmailExists(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.False(t, exists)
}
