// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package session_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"codeberg.org/oliverandrich/qrtrack/internal/config"
	"codeberg.org/oliverandrich/qrtrack/internal/services/session"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	hashKey  = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"
	blockKey = "fedcba9876543210fedcba9876543210fedcba9876543210fedcba9876543210"
	owner    = "owner@example.com"
)

var ownerID = uuid.MustParse("8c1f6a3e-2b4d-4e7a-9f10-3d5c7b9e1a24")

func sessionConfig(mutate ...func(*config.SessionConfig)) *config.SessionConfig {
	cfg := &config.SessionConfig{CookieName: "qrtrack_session", MaxAge: 3600, HashKey: hashKey}
	for _, m := range mutate {
		m(cfg)
	}
	return cfg
}

func newManager(t *testing.T, secure bool, mutate ...func(*config.SessionConfig)) *session.Manager {
	t.Helper()
	mgr, err := session.NewManager(sessionConfig(mutate...), secure)
	require.NoError(t, err)
	return mgr
}

func requestWith(cookie *http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/codes", nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return req
}

func TestNewManager_Keys(t *testing.T) {
	tests := []struct {
		name    string
		hash    string
		block   string
		wantErr string
	}{
		{"signed", hashKey, "", ""},
		{"signed and encrypted", hashKey, blockKey, ""},
		{"generated hash key", "", "", ""},
		{"hash key not hex", "zz", "", "invalid session hash key"},
		{"hash key too short", "0123456789abcdef", "", "must be 32 bytes"},
		{"block key not hex", hashKey, "zz", "invalid session block key"},
		{"block key too short", hashKey, "0123456789abcdef", "must be 32 bytes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mgr, err := session.NewManager(sessionConfig(func(c *config.SessionConfig) {
				c.HashKey = tt.hash
				c.BlockKey = tt.block
			}), false)

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, mgr)
		})
	}
}

func TestCreateAndParse(t *testing.T) {
	mgr := newManager(t, false)

	cookie, err := mgr.Create(ownerID, owner)
	require.NoError(t, err)

	assert.Equal(t, "qrtrack_session", cookie.Name)
	assert.Equal(t, "/", cookie.Path)
	assert.Equal(t, 3600, cookie.MaxAge)
	assert.True(t, cookie.HttpOnly)
	assert.False(t, cookie.Secure)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)

	data, err := mgr.Parse(requestWith(cookie))
	require.NoError(t, err)
	require.NotNil(t, data)
	assert.Equal(t, ownerID, data.UserID)
	assert.Equal(t, owner, data.Email)
	assert.WithinDuration(t, time.Now().Add(time.Hour), data.ExpiresAt, 5*time.Second)
}

func TestCreate_EncryptedHidesEmail(t *testing.T) {
	mgr := newManager(t, true, func(c *config.SessionConfig) { c.BlockKey = blockKey })

	cookie, err := mgr.Create(ownerID, owner)
	require.NoError(t, err)
	assert.True(t, cookie.Secure)
	assert.NotContains(t, cookie.Value, owner)

	data, err := mgr.Parse(requestWith(cookie))
	require.NoError(t, err)
	require.NotNil(t, data)
	assert.Equal(t, ownerID, data.UserID)
}

func TestParse_Rejected(t *testing.T) {
	mgr := newManager(t, false)
	valid, err := mgr.Create(ownerID, owner)
	require.NoError(t, err)

	otherKey := newManager(t, false, func(c *config.SessionConfig) { c.HashKey = blockKey })
	foreign, err := otherKey.Create(ownerID, owner)
	require.NoError(t, err)

	tests := []struct {
		name   string
		cookie *http.Cookie
	}{
		{"no cookie", nil},
		{"garbage", &http.Cookie{Name: "qrtrack_session", Value: "not-a-session"}},
		{"tampered", &http.Cookie{Name: valid.Name, Value: valid.Value[:len(valid.Value)-4] + "AAAA"}},
		{"signed with another key", foreign},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := mgr.Parse(requestWith(tt.cookie))
			require.NoError(t, err)
			assert.Nil(t, data)
		})
	}
}

func TestParse_Expired(t *testing.T) {
	mgr := newManager(t, false, func(c *config.SessionConfig) { c.MaxAge = 1 })

	cookie, err := mgr.Create(ownerID, owner)
	require.NoError(t, err)

	time.Sleep(2 * time.Second)

	data, err := mgr.Parse(requestWith(cookie))
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestClear(t *testing.T) {
	for _, secure := range []bool{false, true} {
		cookie := newManager(t, secure).Clear()

		assert.Equal(t, "qrtrack_session", cookie.Name)
		assert.Empty(t, cookie.Value)
		assert.Equal(t, -1, cookie.MaxAge)
		assert.True(t, cookie.HttpOnly)
		assert.Equal(t, secure, cookie.Secure)
	}
}
