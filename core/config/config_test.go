package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.True(t, cfg.Server.Enabled)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "id", cfg.Feed.CursorParam)
	assert.Equal(t, 1.0, cfg.Feed.RequestsPerSecond)
	assert.Equal(t, 6, cfg.Feed.MaxAttempts)
	assert.Equal(t, 10, cfg.Stream.CheckpointPages)
	assert.Equal(t, "file", cfg.Cursor.Backend)
	assert.Equal(t, 1, cfg.Dedup.Generations)
	assert.Equal(t, []string{"unique", "unique_unidentified", "unique_foulborn", "idol"}, cfg.Detector.Variants)
	assert.Empty(t, cfg.Detector.Leagues)
	assert.Equal(t, "/itemModifier/", cfg.Output.ModifierPath)
	assert.Equal(t, 60, cfg.Catalog.RefreshMinutes)
	assert.False(t, cfg.Storage.Enabled)
}

func TestLoadConfigEnvironment(t *testing.T) {
	t.Setenv("FEED_USER_AGENT", "OAuth stash-ingest/1.0")
	t.Setenv("FEED_REQUESTS_PER_SECOND", "0.5")
	t.Setenv("STREAM_CHECKPOINT_ITEMS", "250")
	t.Setenv("DETECTOR_LEAGUES", "Settlers,Standard")
	t.Setenv("CURSOR_OVERRIDE", "123-456")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "OAuth stash-ingest/1.0", cfg.Feed.UserAgent)
	assert.Equal(t, 0.5, cfg.Feed.RequestsPerSecond)
	assert.Equal(t, 250, cfg.Stream.CheckpointItems)
	assert.Equal(t, []string{"Settlers", "Standard"}, cfg.Detector.Leagues)
	assert.Equal(t, "123-456", cfg.Cursor.Override)
}

func TestLoadConfigDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("OUTPUT_CHUNK_SIZE=42\nDEDUP_GENERATIONS=3\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("OUTPUT_CHUNK_SIZE")
		os.Unsetenv("DEDUP_GENERATIONS")
	})

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, 42, cfg.Output.ChunkSize)
	assert.Equal(t, 3, cfg.Dedup.Generations)
}
