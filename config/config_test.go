package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/brandsite")
	t.Setenv("AUTH_MODE", "header")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Render.Timeout)
	assert.Equal(t, 3, cfg.Revalidation.SupplementaryFetches)
	assert.Equal(t, "/api/revalidate", cfg.Render.RevalidatePath)
	assert.Equal(t, cfg.Render.BaseURL, cfg.Render.PublicSiteURL)
	assert.Equal(t, "/jane", cfg.Revalidation.PublicPath("jane"))
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("RENDER_TIMEOUT", "3")
	t.Setenv("REVALIDATION_SUPPLEMENTARY_TIMEOUT", "750ms")
	t.Setenv("PUBLIC_PATH_TEMPLATE", "/sites/{projectId}")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("SWEEPER_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3*time.Second, cfg.Render.Timeout)
	assert.Equal(t, 750*time.Millisecond, cfg.Revalidation.SupplementaryTimeout)
	assert.Equal(t, "/sites/jane", cfg.Revalidation.PublicPath("jane"))
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.True(t, cfg.Revalidation.SweeperEnabled)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	setRequired(t)
	t.Setenv("DB_MAX_CONNS", "lots")
	t.Setenv("RENDER_TIMEOUT", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Database.MaxConns)
	assert.Equal(t, 10*time.Second, cfg.Render.Timeout)
}

func TestValidate(t *testing.T) {
	t.Run("requires dsn", func(t *testing.T) {
		t.Setenv("DB_DSN", "")
		t.Setenv("AUTH_MODE", "header")
		_, err := Load()
		assert.ErrorContains(t, err, "DB_DSN")
	})

	t.Run("firebase needs credentials", func(t *testing.T) {
		setRequired(t)
		t.Setenv("AUTH_MODE", "firebase")
		t.Setenv("FIREBASE_CREDENTIALS_PATH", "")
		_, err := Load()
		assert.ErrorContains(t, err, "FIREBASE_CREDENTIALS_PATH")
	})

	t.Run("unknown auth mode", func(t *testing.T) {
		setRequired(t)
		t.Setenv("AUTH_MODE", "saml")
		_, err := Load()
		assert.ErrorContains(t, err, "AUTH_MODE")
	})

	t.Run("template needs placeholder", func(t *testing.T) {
		setRequired(t)
		t.Setenv("PUBLIC_PATH_TEMPLATE", "/static")
		_, err := Load()
		assert.ErrorContains(t, err, "PUBLIC_PATH_TEMPLATE")
	})
}

func TestLoadDatabase(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/brandsite")
	t.Setenv("AUTH_MODE", "firebase")
	t.Setenv("FIREBASE_CREDENTIALS_PATH", "")

	db, err := LoadDatabase()
	require.NoError(t, err, "auth settings are irrelevant to migrations")
	assert.Equal(t, "postgres://localhost/brandsite", db.DSN)

	t.Setenv("DB_DSN", "")
	_, err = LoadDatabase()
	assert.Error(t, err)
}
