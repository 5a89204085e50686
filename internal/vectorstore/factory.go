package vectorstore

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"

	"research-rag/internal/config"
	"research-rag/internal/embedding"
)

// New selects the configured backend.
func New(ctx context.Context, cfg *config.StoreConfig, embedder *embeddings.EmbedderImpl) (Store, error) {
	switch cfg.Backend {
	case "", config.BackendChromem:
		return NewChromem(cfg, embedding.ChromemFunc(embedder))
	case config.BackendPostgres:
		return NewPostgres(ctx, cfg, embedder)
	default:
		return nil, fmt.Errorf("unknown store backend: %s", cfg.Backend)
	}
}
