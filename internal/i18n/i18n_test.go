// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package i18n_test

import (
	"context"
	"testing"

	"codeberg.org/oliverandrich/qrtrack/internal/i18n"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestInit(t *testing.T) {
	require.NoError(t, i18n.Init())
	require.NoError(t, i18n.Init())
}

func TestT(t *testing.T) {
	require.NoError(t, i18n.Init())

	ctx := i18n.WithLocale(context.Background(), language.English)

	assert.Equal(t, "Not found.", i18n.T(ctx, "error_not_found"))
}

func TestT_German(t *testing.T) {
	require.NoError(t, i18n.Init())

	ctx := i18n.WithLocale(context.Background(), language.German)

	assert.Equal(t, "Nicht gefunden.", i18n.T(ctx, "error_not_found"))
}

func TestT_RegionalVariant(t *testing.T) {
	require.NoError(t, i18n.Init())

	ctx := i18n.WithLocale(context.Background(), i18n.MatchLanguage("de-AT"))

	assert.Equal(t, "de", i18n.GetLocale(ctx))
	assert.Equal(t, "Nicht gefunden.", i18n.T(ctx, "error_not_found"))
}

func TestT_UnknownKey(t *testing.T) {
	require.NoError(t, i18n.Init())

	ctx := i18n.WithLocale(context.Background(), language.English)

	result := i18n.T(ctx, "unknown_key_that_does_not_exist")
	assert.Equal(t, "unknown_key_that_does_not_exist", result)
}

func TestT_NoLocaleContext(t *testing.T) {
	require.NoError(t, i18n.Init())

	assert.Equal(t, "Authentication required.", i18n.T(context.Background(), "error_unauthorized"))
}

func TestTData(t *testing.T) {
	require.NoError(t, i18n.Init())

	ctx := i18n.WithLocale(context.Background(), language.English)

	result := i18n.TData(ctx, "error_invalid_size", map[string]any{"Min": 1, "Max": 4096})
	assert.Equal(t, "Size must be between 1 and 4096 pixels.", result)
}

func TestTranslationsComplete(t *testing.T) {
	require.NoError(t, i18n.Init())

	en := i18n.WithLocale(context.Background(), language.English)
	de := i18n.WithLocale(context.Background(), language.German)

	for _, id := range []string{
		"error_bad_request", "error_invalid_url", "error_invalid_email", "error_user_exists",
		"error_invalid_credentials", "error_unauthorized", "error_not_found", "error_internal",
		"error_unavailable",
	} {
		assert.NotEqual(t, id, i18n.T(en, id), "missing english message %s", id)
		assert.NotEqual(t, id, i18n.T(de, id), "missing german message %s", id)
		assert.NotEqual(t, i18n.T(en, id), i18n.T(de, id), "untranslated message %s", id)
	}
}

func TestMatchLanguage(t *testing.T) {
	tests := []struct {
		expected       language.Tag
		acceptLanguage string
	}{
		{language.English, "en"},
		{language.English, "en-US"},
		{language.German, "de"},
		{language.German, "de-DE"},
		{language.German, "de-AT"},
		{language.English, "fr"}, // fallback to English
		{language.English, ""},   // empty defaults to English
		{language.German, "de, en;q=0.9"},
		{language.English, "en, de;q=0.9"},
	}

	for _, tt := range tests {
		t.Run(tt.acceptLanguage, func(t *testing.T) {
			tag := i18n.MatchLanguage(tt.acceptLanguage)
			// Compare base language (ignore region)
			assert.Equal(t, tt.expected.String()[:2], tag.String()[:2])
		})
	}
}

func TestGetLocale_Default(t *testing.T) {
	assert.Equal(t, "en", i18n.GetLocale(context.Background()))
}
