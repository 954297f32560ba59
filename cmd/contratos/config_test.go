package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/contratos")
	t.Setenv("STORAGE_BACKEND", "s3")
	t.Setenv("PUBLIC_URL", "https://app.example.com/")

	cfg, err := loadConfig()
	require.NoError(t, err)

	assert.Equal(t, "https://app.example.com", cfg.PublicURL)
	assert.Equal(t, uint(8080), cfg.ServerPort)
	assert.Equal(t, "contratos", cfg.DatabaseSchema)
	assert.True(t, cfg.EnforceExtensionRules)
}

func TestLoadConfigRequiresStorageCredentials(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/contratos")
	t.Setenv("STORAGE_BACKEND", "supabase")
	t.Setenv("SUPABASE_PROJECT_ID", "")
	t.Setenv("SUPABASE_API_KEY", "")

	_, err := loadConfig()
	assert.ErrorContains(t, err, "SUPABASE_PROJECT_ID")
}

func TestLoadConfigUnknownBackend(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/contratos")
	t.Setenv("STORAGE_BACKEND", "ftp")

	_, err := loadConfig()
	assert.ErrorContains(t, err, "STORAGE_BACKEND")
}

func TestLoadConfigRequiresDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := loadConfig()
	assert.Error(t, err)
}
