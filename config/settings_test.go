package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	m := NewManager(path)

	s, err := m.Load()
	require.NoError(t, err)
	assert.Equal(t, 7788, s.Server.Port)
	assert.Equal(t, ResolveModeLenient, s.Pipeline.ResolveMode)

	_, err = os.Stat(path)
	assert.NoError(t, err, "settings file should have been created")
}

func TestLoadBackfillsPartialConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	partial := map[string]any{
		"metadata": map[string]any{"tmdbApiKey": "abc123"},
		"pipeline": map[string]any{"maxParallel": 100},
	}
	b, err := json.Marshal(partial)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o644))

	s, err := NewManager(path).Load()
	require.NoError(t, err)
	assert.Equal(t, "abc123", s.Metadata.TMDBAPIKey)
	assert.Equal(t, "zh-CN", s.Metadata.Language)
	assert.Equal(t, 25, s.Pipeline.MaxParallel, "maxParallel clamps to 25")
	assert.Equal(t, 60, s.Cache.ResponseTTLMinutes)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.json")
	m := NewManager(path)

	s := DefaultSettings()
	s.Metadata.TMDBAPIKey = "key"
	s.GenreLabels = map[string]string{"16": "动画"}
	require.NoError(t, m.Save(s))

	loaded, err := m.Load()
	require.NoError(t, err)
	assert.Equal(t, "key", loaded.Metadata.TMDBAPIKey)
	assert.Equal(t, "动画", loaded.GenreLabels["16"])
}
