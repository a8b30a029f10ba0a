package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", cfg.API.BaseURL)
	assert.Equal(t, 60, cfg.API.TimeoutSecs)
	assert.Equal(t, "user", cfg.Ingest.Source)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 1000, cfg.DevServer.ChunkSize)
	assert.Equal(t, 120, cfg.DevServer.ChunkOverlap)
}

func TestLoad_PartialFileKeepsValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("api:\n  base_url: https://rag.example.com\ningest:\n  source: wiki\ndevserver:\n  chunk_size: 50\n  chunk_overlap: 80\n")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://rag.example.com", cfg.API.BaseURL)
	assert.Equal(t, 60, cfg.API.TimeoutSecs)
	assert.Equal(t, "wiki", cfg.Ingest.Source)
	assert.Equal(t, 50, cfg.DevServer.ChunkSize)
	assert.Equal(t, 6, cfg.DevServer.ChunkOverlap)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api: [unclosed"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.API.BaseURL = "http://10.0.0.2:9000"
	cfg.Log.File = "/tmp/minirag.log"
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}
