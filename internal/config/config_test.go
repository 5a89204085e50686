package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("fills defaults for missing values", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9000\n"), 0o644))

		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, 9000, cfg.Server.Port)
		assert.Equal(t, BackendChromem, cfg.Store.Backend)
		assert.Equal(t, StrategyParagraph, cfg.RAG.Strategy)
		assert.Equal(t, 500, cfg.RAG.ChunkSize)
		assert.Equal(t, 100, cfg.RAG.ChunkOverlap)
		assert.Equal(t, 3, cfg.RAG.NResults)
		assert.InDelta(t, 1.2, cfg.RAG.DistanceThreshold, 0.001)
	})

	t.Run("rejects unknown strategy", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("rag:\n  strategy: sentences\n"), 0o644))

		_, err := LoadConfig(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown chunking strategy")
	})

	t.Run("missing file is an error", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	t.Run("clamps overlap at or above chunk size", func(t *testing.T) {
		cfg := Default()
		cfg.RAG.ChunkSize = 200
		cfg.RAG.ChunkOverlap = 300
		require.NoError(t, cfg.Validate())
		assert.Equal(t, 100, cfg.RAG.ChunkOverlap)
	})

	t.Run("resets out-of-range n_results", func(t *testing.T) {
		cfg := Default()
		cfg.RAG.NResults = 50
		require.NoError(t, cfg.Validate())
		assert.Equal(t, 3, cfg.RAG.NResults)
	})
}
