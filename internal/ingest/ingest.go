package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/rs/zerolog/log"

	"research-rag/internal/chunker"
	"research-rag/internal/config"
	"research-rag/internal/models"
	"research-rag/internal/parser"
	"research-rag/internal/vectorstore"
)

// Status disambiguates a zero chunk count: a failed extraction and a
// document that legitimately produced no chunks are different outcomes.
type Status string

const (
	StatusStored        Status = "stored"
	StatusEmpty         Status = "empty"
	StatusExtractFailed Status = "extract_failed"
	StatusStoreFailed   Status = "store_failed"
)

// Result reports one ingestion run.
type Result struct {
	Status       Status
	ChunksStored int
}

// Pipeline turns one document into stored chunks: extract, chunk per page,
// assign content ids, upsert the whole batch in one call.
type Pipeline struct {
	store vectorstore.Store
	cfg   *config.RAGConfig
	fixed *chunker.Chunker
}

func NewPipeline(store vectorstore.Store, cfg *config.RAGConfig) *Pipeline {
	return &Pipeline{
		store: store,
		cfg:   cfg,
		fixed: chunker.New(cfg.ChunkSize, cfg.ChunkOverlap),
	}
}

// IngestFile processes the document at path, using its base name as the
// source label.
func (p *Pipeline) IngestFile(ctx context.Context, path string) Result {
	return p.Ingest(ctx, path, filepath.Base(path))
}

// Ingest processes the document at path under an explicit source label.
// The label is what citations will show, so uploads pass the original
// file name rather than the temporary path. Extraction and storage
// failures are reported in the result, never raised.
func (p *Pipeline) Ingest(ctx context.Context, path, source string) Result {
	log.Info().Str("path", path).Str("source", source).Msg("processing document")

	extraction, err := parser.Extract(path)
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("extraction failed")
		return Result{Status: StatusExtractFailed}
	}

	chunks := p.chunkPages(source, extraction.Pages)
	if len(chunks) == 0 {
		log.Warn().Str("source", source).Msg("no chunks to store")
		return Result{Status: StatusEmpty}
	}
	log.Info().
		Int("chunks", len(chunks)).
		Int("pages", extraction.NumPages).
		Msg("created chunks")

	docs := make([]vectorstore.Document, 0, len(chunks))
	for _, c := range chunks {
		docs = append(docs, vectorstore.Document{
			ID:      ContentID(c.Source, c.PageNum, c.Text),
			Content: c.Text,
			Metadata: map[string]string{
				"page_num": strconv.Itoa(c.PageNum),
				"chunk_id": c.ChunkID,
				"source":   c.Source,
			},
		})
	}

	if err := p.store.Upsert(ctx, docs); err != nil {
		log.Error().Err(err).Str("source", source).Msg("failed to store chunks")
		return Result{Status: StatusStoreFailed}
	}

	log.Info().Int("chunks", len(docs)).Str("source", source).Msg("stored chunks")
	return Result{Status: StatusStored, ChunksStored: len(docs)}
}

// chunkPages applies the configured strategy to each page (1-based) and
// labels chunks page<N>_chunk<M> with M 0-based within the page.
func (p *Pipeline) chunkPages(source string, pages []string) []models.Chunk {
	var chunks []models.Chunk
	for i, page := range pages {
		pageNum := i + 1

		var pieces []string
		if p.cfg.Strategy == config.StrategyFixed {
			pieces = p.fixed.SplitFixed(page)
		} else {
			pieces = chunker.SplitParagraphs(page)
		}

		for j, text := range pieces {
			chunks = append(chunks, models.Chunk{
				Text:    text,
				Source:  source,
				PageNum: pageNum,
				ChunkID: fmt.Sprintf("page%d_chunk%d", pageNum, j),
			})
		}
	}
	return chunks
}
