package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"research-rag/internal/config"
	"research-rag/internal/vectorstore"
)

type fakeStore struct {
	docs      map[string]vectorstore.Document
	upsertErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{docs: map[string]vectorstore.Document{}}
}

func (f *fakeStore) Upsert(ctx context.Context, docs []vectorstore.Document) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	for _, d := range docs {
		f.docs[d.ID] = d
	}
	return nil
}

func (f *fakeStore) Query(ctx context.Context, text string, nResults int) ([]vectorstore.Result, error) {
	return nil, nil
}

func (f *fakeStore) Count(ctx context.Context) (int, error) { return len(f.docs), nil }

func (f *fakeStore) Close() error { return nil }

func writeDoc(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestContentID(t *testing.T) {
	t.Run("is deterministic", func(t *testing.T) {
		a := ContentID("doc.pdf", 1, "Total Defence is a whole-of-society approach.")
		b := ContentID("doc.pdf", 1, "Total Defence is a whole-of-society approach.")
		assert.Equal(t, a, b)
		assert.Len(t, a, 64)
	})

	t.Run("changes with any input", func(t *testing.T) {
		base := ContentID("doc.pdf", 1, "some chunk text")
		assert.NotEqual(t, base, ContentID("other.pdf", 1, "some chunk text"))
		assert.NotEqual(t, base, ContentID("doc.pdf", 2, "some chunk text"))
		assert.NotEqual(t, base, ContentID("doc.pdf", 1, "different chunk text"))
	})

	t.Run("only the leading text matters", func(t *testing.T) {
		prefix := "exactly fifty characters of leading chunk text aaa"
		require.Len(t, prefix, 50)
		a := ContentID("doc.pdf", 1, prefix+" tail one")
		b := ContentID("doc.pdf", 1, prefix+" tail two")
		assert.Equal(t, a, b)
	})
}

func TestPipelineIngest(t *testing.T) {
	cfg := &config.RAGConfig{ChunkSize: 500, ChunkOverlap: 100, Strategy: config.StrategyParagraph}

	t.Run("stores one document per paragraph chunk", func(t *testing.T) {
		store := newFakeStore()
		path := writeDoc(t, "notes.txt", "Total Defence is a strategy.\n\n4IR refers to new tech.")

		result := NewPipeline(store, cfg).IngestFile(context.Background(), path)
		assert.Equal(t, StatusStored, result.Status)
		assert.Equal(t, 2, result.ChunksStored)
		require.Len(t, store.docs, 2)

		for _, doc := range store.docs {
			assert.Equal(t, "notes.txt", doc.Metadata["source"])
			assert.Equal(t, "1", doc.Metadata["page_num"])
			assert.Contains(t, []string{"page1_chunk0", "page1_chunk1"}, doc.Metadata["chunk_id"])
			assert.NotContains(t, doc.Metadata, "text")
		}
	})

	t.Run("re-ingestion does not grow the store", func(t *testing.T) {
		store := newFakeStore()
		path := writeDoc(t, "notes.txt", "Total Defence is a strategy.\n\n4IR refers to new tech.")
		pipeline := NewPipeline(store, cfg)

		first := pipeline.IngestFile(context.Background(), path)
		second := pipeline.IngestFile(context.Background(), path)

		assert.Equal(t, StatusStored, second.Status)
		assert.Equal(t, first.ChunksStored, second.ChunksStored)
		assert.Len(t, store.docs, 2)
	})

	t.Run("explicit source label overrides the path", func(t *testing.T) {
		store := newFakeStore()
		path := writeDoc(t, "upload-1234.txt", "Some uploaded content.")

		result := NewPipeline(store, cfg).Ingest(context.Background(), path, "report.pdf")
		assert.Equal(t, StatusStored, result.Status)
		for _, doc := range store.docs {
			assert.Equal(t, "report.pdf", doc.Metadata["source"])
		}
	})

	t.Run("missing file reports extract failure", func(t *testing.T) {
		store := newFakeStore()

		result := NewPipeline(store, cfg).IngestFile(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"))
		assert.Equal(t, StatusExtractFailed, result.Status)
		assert.Zero(t, result.ChunksStored)
		assert.Empty(t, store.docs)
	})

	t.Run("blank document reports empty", func(t *testing.T) {
		store := newFakeStore()
		path := writeDoc(t, "blank.txt", "   \n\n   ")

		result := NewPipeline(store, cfg).IngestFile(context.Background(), path)
		assert.Equal(t, StatusEmpty, result.Status)
		assert.Zero(t, result.ChunksStored)
	})

	t.Run("store failure is reported, not raised", func(t *testing.T) {
		store := newFakeStore()
		store.upsertErr = errors.New("connection refused")
		path := writeDoc(t, "notes.txt", "Some content.")

		result := NewPipeline(store, cfg).IngestFile(context.Background(), path)
		assert.Equal(t, StatusStoreFailed, result.Status)
		assert.Zero(t, result.ChunksStored)
	})

	t.Run("fixed strategy uses the configured window", func(t *testing.T) {
		store := newFakeStore()
		fixedCfg := &config.RAGConfig{ChunkSize: 40, ChunkOverlap: 10, Strategy: config.StrategyFixed}
		path := writeDoc(t, "long.txt", "one two three four five six seven eight nine ten eleven twelve thirteen fourteen")

		result := NewPipeline(store, fixedCfg).IngestFile(context.Background(), path)
		assert.Equal(t, StatusStored, result.Status)
		assert.Greater(t, result.ChunksStored, 1)
	})
}
