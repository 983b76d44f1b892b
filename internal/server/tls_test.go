// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"testing"

	"codeberg.org/oliverandrich/qrtrack/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveTLSMode(t *testing.T) {
	free := func(int) bool { return true }
	busy := func(int) bool { return false }

	tests := []struct {
		name     string
		tls      config.TLSConfig
		host     string
		portFree func(int) bool
		expected TLSMode
	}{
		{"explicit off", config.TLSConfig{Mode: "off"}, "qr.example.com", free, TLSModeOff},
		{"explicit acme", config.TLSConfig{Mode: "ACME"}, "localhost", free, TLSModeACME},
		{"explicit manual", config.TLSConfig{Mode: "manual"}, "localhost", free, TLSModeManual},
		{"auto localhost", config.TLSConfig{Mode: "auto"}, "localhost", free, TLSModeOff},
		{"auto with cert files", config.TLSConfig{CertFile: "c.pem", KeyFile: "k.pem"}, "qr.example.com", free, TLSModeManual},
		{"auto with email", config.TLSConfig{Email: "ops@example.com"}, "qr.example.com", free, TLSModeACME},
		{"auto without email", config.TLSConfig{}, "qr.example.com", free, TLSModeOff},
		{"auto on ip host", config.TLSConfig{Email: "ops@example.com"}, "203.0.113.5", free, TLSModeOff},
		{"auto with busy ports", config.TLSConfig{Email: "ops@example.com"}, "qr.example.com", busy, TLSModeOff},
		{"unknown falls back to auto", config.TLSConfig{Mode: "selfsigned"}, "localhost", free, TLSModeOff},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{
				Server: config.ServerConfig{Host: tt.host, Port: 8080},
				TLS:    tt.tls,
			}
			assert.Equal(t, tt.expected, resolveTLSMode(cfg, tt.portFree))
		})
	}
}

func TestSetupTLS_Off(t *testing.T) {
	result, err := SetupTLS(&config.Config{
		Server: config.ServerConfig{Host: "localhost"},
		TLS:    config.TLSConfig{Mode: "off"},
	})

	require.NoError(t, err)
	assert.Equal(t, TLSModeOff, result.Mode)
	assert.Nil(t, result.TLSConfig)
}

func TestSetupTLS_ManualMissingFiles(t *testing.T) {
	_, err := SetupTLS(&config.Config{
		Server: config.ServerConfig{Host: "localhost"},
		TLS:    config.TLSConfig{Mode: "manual"},
	})
	require.Error(t, err)

	_, err = SetupTLS(&config.Config{
		Server: config.ServerConfig{Host: "localhost"},
		TLS:    config.TLSConfig{Mode: "manual", CertFile: "/nonexistent/cert.pem", KeyFile: "/nonexistent/key.pem"},
	})
	require.Error(t, err)
}
