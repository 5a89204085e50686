package vectorstore

import (
	"context"
	"fmt"
	"runtime"

	"github.com/philippgille/chromem-go"

	"research-rag/internal/config"
	"research-rag/internal/helper"
)

const compress = false

// ChromemStore is the embedded vector database backend.
type ChromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection
}

// NewChromem opens (or creates) the collection. chromem reports cosine
// similarity; Query converts it to a distance so the pipeline's
// lower-is-better threshold applies uniformly across backends.
func NewChromem(cfg *config.StoreConfig, embedFn chromem.EmbeddingFunc) (*ChromemStore, error) {
	var db *chromem.DB
	var err error
	if cfg.InMemory {
		db = chromem.NewDB()
	} else {
		if err = helper.CreateFolder(cfg.Path); err != nil {
			return nil, fmt.Errorf("failed to create db folder: %w", err)
		}
		db, err = chromem.NewPersistentDB(cfg.Path, compress)
		if err != nil {
			return nil, fmt.Errorf("failed to create database: %w", err)
		}
	}

	collection, err := db.GetOrCreateCollection(cfg.Collection, nil, embedFn)
	if err != nil {
		return nil, fmt.Errorf("failed to create/get collection: %w", err)
	}

	return &ChromemStore{db: db, collection: collection}, nil
}

func (s *ChromemStore) Upsert(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}
	batch := make([]chromem.Document, 0, len(docs))
	for _, d := range docs {
		batch = append(batch, chromem.Document{
			ID:       d.ID,
			Content:  d.Content,
			Metadata: d.Metadata,
		})
	}
	if err := s.collection.AddDocuments(ctx, batch, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %w", err)
	}
	return nil
}

func (s *ChromemStore) Query(ctx context.Context, text string, nResults int) ([]Result, error) {
	// chromem rejects nResults above the collection size.
	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if nResults > count {
		nResults = count
	}

	matches, err := s.collection.Query(ctx, text, nResults, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %w", err)
	}

	results := make([]Result, 0, len(matches))
	for _, m := range matches {
		results = append(results, Result{
			ID:       m.ID,
			Content:  m.Content,
			Metadata: m.Metadata,
			// Cosine distance. The threshold constant is calibrated
			// to this space.
			Distance: 1 - float64(m.Similarity),
		})
	}
	return results, nil
}

func (s *ChromemStore) Count(ctx context.Context) (int, error) {
	return s.collection.Count(), nil
}

func (s *ChromemStore) Close() error {
	return nil
}
