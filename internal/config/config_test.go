package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)

	cfg := Default()
	cfg.Store.Driver = "memory"
	cfg.Defaults.UserID = "marek"
	cfg.Log.Level = "debug"
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "memory", got.Store.Driver)
	assert.Equal(t, "marek", got.Defaults.UserID)
	assert.Equal(t, "debug", got.Log.Level)
	assert.True(t, got.Imports.AuditLog)
}

func TestLoadOrDefault(t *testing.T) {
	dir := t.TempDir()

	got, err := LoadOrDefault(dir)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", got.Store.Driver)
	assert.Equal(t, "skarbnik.db", got.Store.Path)
	assert.Equal(t, "PLN", got.Defaults.Currency)

	cfg := Default()
	cfg.Defaults.UserID = "ania"
	require.NoError(t, Save(filepath.Join(dir, FileName), cfg))

	got, err = LoadOrDefault(dir)
	require.NoError(t, err)
	assert.Equal(t, "ania", got.Defaults.UserID)
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte("store: [not a mapping"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
