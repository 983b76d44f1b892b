// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package qrimage renders codes as PNG images.
package qrimage

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"codeberg.org/oliverandrich/qrtrack/internal/models"
	"github.com/skip2/go-qrcode"
	"golang.org/x/image/colornames"
)

// ContentType is the media type of rendered images.
const ContentType = "image/png"

var errEmptyContent = errors.New("tracking url is empty")

// Renderer draws QR images. The zero value is ready to use.
type Renderer struct {
	// Level is the error correction level. The zero value is qrcode.Low.
	Level qrcode.RecoveryLevel
}

// Render encodes trackingURL as a PNG of code.Size pixels using code.Color
// on white. Sizes below the symbol's module count are rounded up by the encoder.
func (r Renderer) Render(code *models.Code, trackingURL string) ([]byte, error) {
	if trackingURL == "" {
		return nil, errEmptyContent
	}

	qr, err := qrcode.New(trackingURL, r.Level)
	if err != nil {
		return nil, fmt.Errorf("failed to encode qr: %w", err)
	}
	qr.ForegroundColor = ParseColor(code.Color)
	qr.BackgroundColor = color.White

	png, err := qr.PNG(code.Size)
	if err != nil {
		return nil, fmt.Errorf("failed to render png: %w", err)
	}
	return png, nil
}

// ParseColor accepts #RGB, #RRGGBB or a CSS color name and falls back to black.
func ParseColor(s string) color.Color {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := colornames.Map[s]; ok {
		return c
	}

	hex, ok := strings.CutPrefix(s, "#")
	if !ok {
		return color.Black
	}
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color.Black
	}

	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.Black
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
}
