// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"context"
	"crypto/sha256"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"codeberg.org/oliverandrich/qrtrack/internal/config"
	"golang.org/x/crypto/acme/autocert"
)

// TLSMode represents the resolved TLS mode.
type TLSMode string

const (
	TLSModeOff    TLSMode = "off"
	TLSModeACME   TLSMode = "acme"
	TLSModeManual TLSMode = "manual"
)

// TLSResult contains the resolved TLS configuration.
type TLSResult struct {
	TLSConfig   *tls.Config
	CertManager *autocert.Manager // nil unless ACME mode
	HTTPHandler http.Handler      // HTTP to HTTPS redirect and challenges (ACME only)
	Mode        TLSMode
}

// SetupTLS configures TLS based on the configuration.
func SetupTLS(cfg *config.Config) (*TLSResult, error) {
	mode := resolveTLSMode(cfg, isPortAvailable)

	switch mode {
	case TLSModeOff:
		slog.Info("tls_mode", "mode", mode)
		return &TLSResult{Mode: TLSModeOff}, nil

	case TLSModeACME:
		if err := validateACME(cfg); err != nil {
			return nil, err
		}
		slog.Info("tls_mode", "mode", mode, "host", cfg.Server.Host, "email", cfg.TLS.Email)
		return setupACME(cfg)

	case TLSModeManual:
		slog.Info("tls_mode", "mode", mode, "cert", cfg.TLS.CertFile, "key", cfg.TLS.KeyFile)
		return setupManual(cfg)

	default:
		return nil, fmt.Errorf("unknown TLS mode: %s", mode)
	}
}

// resolveTLSMode picks the mode. In auto mode localhost serves plain HTTP,
// cert files select manual mode and a public host name with an email uses
// ACME. Anything else falls back to plain HTTP, expecting a proxy in front.
func resolveTLSMode(cfg *config.Config, portFree func(int) bool) TLSMode {
	host := cfg.Server.Host

	switch mode := strings.ToLower(cfg.TLS.Mode); mode {
	case "off":
		return TLSModeOff
	case "acme":
		return TLSModeACME
	case "manual":
		return TLSModeManual
	case "auto", "":
	default:
		slog.Warn("unknown_tls_mode", "mode", mode)
	}

	if config.IsLocalhost(host) {
		return TLSModeOff
	}
	if cfg.TLS.CertFile != "" && cfg.TLS.KeyFile != "" {
		return TLSModeManual
	}
	if canUseACME(cfg, portFree) {
		return TLSModeACME
	}

	slog.Warn("tls_unavailable_serving_http", "host", host)
	return TLSModeOff
}

// validateACME checks requirements when ACME mode is explicitly selected.
func validateACME(cfg *config.Config) error {
	if cfg.Server.Port != 443 {
		slog.Warn("acme_port_ignored", "configured_port", cfg.Server.Port)
	}
	if cfg.TLS.Email == "" {
		return errors.New("ACME mode requires TLS_EMAIL to be set")
	}
	if !isPortAvailable(80) {
		return errors.New("ACME mode requires port 80 for HTTP-01 challenge (port in use)")
	}
	if !isPortAvailable(443) {
		return errors.New("ACME mode requires port 443 for HTTPS (port in use)")
	}
	return nil
}

// canUseACME checks if ACME mode is available during auto-detection.
func canUseACME(cfg *config.Config, portFree func(int) bool) bool {
	host := cfg.Server.Host

	if config.IsLocalhost(host) {
		return false
	}
	// Let's Encrypt doesn't issue certs for IPs
	if net.ParseIP(host) != nil {
		slog.Debug("acme_disabled", "reason", "ip_host")
		return false
	}
	if cfg.TLS.Email == "" {
		slog.Debug("acme_disabled", "reason", "no_email")
		return false
	}
	if !portFree(80) || !portFree(443) {
		slog.Debug("acme_disabled", "reason", "ports_in_use")
		return false
	}
	return true
}

// isPortAvailable checks if a port is available for binding.
func isPortAvailable(port int) bool {
	lc := &net.ListenConfig{}
	ln, err := lc.Listen(context.Background(), "tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return false
	}
	_ = ln.Close()
	return true
}

// setupACME configures Let's Encrypt with autocert.
func setupACME(cfg *config.Config) (*TLSResult, error) {
	certDir := filepath.Join(cfg.TLS.CertDir, "acme")
	if err := os.MkdirAll(certDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create ACME cert directory: %w", err)
	}

	manager := &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		Email:      cfg.TLS.Email,
		Cache:      autocert.DirCache(certDir),
		HostPolicy: autocert.HostWhitelist(cfg.Server.Host),
	}

	tlsConfig := manager.TLSConfig()
	tlsConfig.MinVersion = tls.VersionTLS12

	return &TLSResult{
		Mode:        TLSModeACME,
		TLSConfig:   tlsConfig,
		CertManager: manager,
		HTTPHandler: manager.HTTPHandler(nil),
	}, nil
}

// setupManual loads user-provided certificate files.
func setupManual(cfg *config.Config) (*TLSResult, error) {
	certFile := cfg.TLS.CertFile
	keyFile := cfg.TLS.KeyFile

	if certFile == "" || keyFile == "" {
		return nil, errors.New("manual TLS mode requires both cert-file and key-file")
	}

	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load certificate: %w", err)
	}

	slog.Info("certificate_loaded", "sha256", fingerprint(&cert))

	return &TLSResult{
		Mode: TLSModeManual,
		TLSConfig: &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		},
	}, nil
}

// fingerprint formats the SHA256 of the leaf certificate as colon-separated hex.
func fingerprint(cert *tls.Certificate) string {
	if len(cert.Certificate) == 0 {
		return ""
	}
	sum := sha256.Sum256(cert.Certificate[0])
	parts := make([]string, len(sum))
	for i, b := range sum {
		parts[i] = fmt.Sprintf("%02X", b)
	}
	return strings.Join(parts, ":")
}
