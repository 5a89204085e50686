package rag

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"research-rag/internal/llm"
	"research-rag/internal/models"
	"research-rag/internal/vectorstore"
)

const (
	// DefaultDistanceThreshold is calibrated to the cosine-distance space
	// of the embedding backend and must be re-tuned if that changes.
	// Retrieved chunks at or above it are discarded entirely.
	DefaultDistanceThreshold = 1.2

	MinResults = 1
	MaxResults = 10
)

var (
	ErrEmptyQuestion   = errors.New("question cannot be empty")
	ErrInvalidNResults = errors.New("n_results must be between 1 and 10")
)

// Engine answers questions grounded in retrieved chunks. It is stateless
// across queries; concurrent calls are independent.
type Engine struct {
	store     vectorstore.Store
	generator llm.Generator
	threshold float64
}

func NewEngine(store vectorstore.Store, generator llm.Generator, threshold float64) *Engine {
	if threshold <= 0 {
		threshold = DefaultDistanceThreshold
	}
	return &Engine{store: store, generator: generator, threshold: threshold}
}

// Query runs one retrieve-filter-generate pass. The only errors it returns
// are input validation errors; retrieval and generation failures degrade
// to a fixed error answer so the caller always gets a usable result.
func (e *Engine) Query(ctx context.Context, question string, nResults int) (*models.AnswerResult, error) {
	if strings.TrimSpace(question) == "" {
		return nil, ErrEmptyQuestion
	}
	if nResults < MinResults || nResults > MaxResults {
		return nil, ErrInvalidNResults
	}

	log.Info().Str("question", question).Int("n_results", nResults).Msg("retrieving chunks")
	results, err := e.store.Query(ctx, question, nResults)
	if err != nil {
		log.Error().Err(err).Msg("retrieval failed")
		return errorResult(), nil
	}
	log.Info().Int("retrieved", len(results)).Msg("retrieved chunks")

	// Order-preserving filter, so surviving chunks stay best-match first.
	var kept []vectorstore.Result
	for _, r := range results {
		if r.Distance < e.threshold {
			kept = append(kept, r)
		}
	}

	if len(kept) == 0 {
		log.Warn().Float64("threshold", e.threshold).Msg("no chunks met distance threshold")
		return &models.AnswerResult{
			Status:        models.StatusNoContext,
			Answer:        models.NoContextAnswer,
			Sources:       []string{},
			ContextChunks: []string{},
		}, nil
	}

	prompt := fmt.Sprintf(models.AnswerPromptTemplate, formatContext(kept), question)

	log.Info().Int("chunks", len(kept)).Msg("calling model for generation")
	answer, err := e.generator.Generate(ctx, prompt, models.SystemInstruction)
	if err != nil {
		log.Error().Err(err).Msg("generation failed")
		return errorResult(), nil
	}

	contextChunks := make([]string, 0, len(kept))
	metadatas := make([]map[string]string, 0, len(kept))
	for _, r := range kept {
		contextChunks = append(contextChunks, r.Content)
		metadatas = append(metadatas, r.Metadata)
	}

	return &models.AnswerResult{
		Status:        models.StatusAnswered,
		Answer:        answer,
		Sources:       ExtractSources(metadatas),
		ContextChunks: contextChunks,
	}, nil
}

func errorResult() *models.AnswerResult {
	return &models.AnswerResult{
		Status:        models.StatusError,
		Answer:        models.GenericErrorAnswer,
		Sources:       []string{},
		ContextChunks: []string{},
	}
}

// formatContext concatenates the surviving chunks, best match first, each
// prefixed with its provenance.
func formatContext(results []vectorstore.Result) string {
	var b strings.Builder
	for _, r := range results {
		b.WriteString(fmt.Sprintf("Source: %s, Page %s\n%s\n\n",
			metaValue(r.Metadata, "source", "Unknown"),
			metaValue(r.Metadata, "page_num", "?"),
			r.Content,
		))
	}
	return b.String()
}

// ExtractSources formats citations as "<source> (Page <n>)", sorted by
// ascending page number and deduplicated with first occurrence winning.
func ExtractSources(metadatas []map[string]string) []string {
	sorted := make([]map[string]string, len(metadatas))
	copy(sorted, metadatas)
	sort.SliceStable(sorted, func(i, j int) bool {
		return pageNum(sorted[i]) < pageNum(sorted[j])
	})

	seen := make(map[string]struct{}, len(sorted))
	sources := make([]string, 0, len(sorted))
	for _, meta := range sorted {
		formatted := fmt.Sprintf("%s (Page %s)",
			metaValue(meta, "source", "Unknown"),
			metaValue(meta, "page_num", "?"),
		)
		if _, ok := seen[formatted]; ok {
			continue
		}
		seen[formatted] = struct{}{}
		sources = append(sources, formatted)
	}
	return sources
}

func pageNum(meta map[string]string) int {
	n, err := strconv.Atoi(meta["page_num"])
	if err != nil {
		return 0
	}
	return n
}

func metaValue(meta map[string]string, key, fallback string) string {
	if v, ok := meta[key]; ok && v != "" {
		return v
	}
	return fallback
}
