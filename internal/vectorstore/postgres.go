package vectorstore

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	_ "github.com/lib/pq"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"research-rag/internal/config"
)

type pgDocument struct {
	bun.BaseModel `bun:"table:documents,alias:d"`
	ID            int64  `bun:"id,pk,autoincrement"`
	ContentID     string `bun:"content_id,notnull,unique"`
	Content       string `bun:"content,notnull"`
	Source        string `bun:"source,notnull"`
	PageNum       int    `bun:"page_num,notnull"`
	ChunkID       string `bun:"chunk_id,notnull"`
	// Vector width must match the embedding model's output size.
	Embedding []float32 `bun:"embedding,notnull,type:vector(768)"`
}

type searchRow struct {
	pgDocument
	Distance float64 `bun:"distance,scanonly"`
}

// PostgresStore keeps chunks in a pgvector-enabled Postgres database.
// Unlike the chromem backend it embeds query and document text itself,
// so it needs the embedder directly.
type PostgresStore struct {
	db       *bun.DB
	embedder *embeddings.EmbedderImpl
}

func NewPostgres(ctx context.Context, cfg *config.StoreConfig, embedder *embeddings.EmbedderImpl) (*PostgresStore, error) {
	dsn := cfg.DSN + "?sslmode=disable"
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn), pgdriver.WithPassword(cfg.Password)))
	db := bun.NewDB(sqldb, pgdialect.New())
	if cfg.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	if _, err := db.NewCreateTable().Model((*pgDocument)(nil)).IfNotExists().Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize documents table: %w", err)
	}

	return &PostgresStore{db: db, embedder: embedder}, nil
}

func (s *PostgresStore) Upsert(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	rows := make([]pgDocument, 0, len(docs))
	for _, d := range docs {
		embedding, err := s.embedder.EmbedQuery(ctx, d.Content)
		if err != nil {
			return fmt.Errorf("failed to embed chunk: %w", err)
		}
		pageNum, _ := strconv.Atoi(d.Metadata["page_num"])
		rows = append(rows, pgDocument{
			ContentID: d.ID,
			Content:   d.Content,
			Source:    d.Metadata["source"],
			PageNum:   pageNum,
			ChunkID:   d.Metadata["chunk_id"],
			Embedding: embedding,
		})
	}

	_, err := s.db.NewInsert().
		Model(&rows).
		On("CONFLICT (content_id) DO UPDATE").
		Set("content = EXCLUDED.content").
		Set("source = EXCLUDED.source").
		Set("page_num = EXCLUDED.page_num").
		Set("chunk_id = EXCLUDED.chunk_id").
		Set("embedding = EXCLUDED.embedding").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to store documents: %w", err)
	}
	return nil
}

func (s *PostgresStore) Query(ctx context.Context, text string, nResults int) ([]Result, error) {
	queryEmbedding, err := s.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	var rows []searchRow
	if err := s.searchQuery(&rows, queryEmbedding, nResults).Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to search documents: %w", err)
	}

	results := make([]Result, 0, len(rows))
	for _, r := range rows {
		results = append(results, Result{
			ID:      r.ContentID,
			Content: r.Content,
			Metadata: map[string]string{
				"source":   r.Source,
				"page_num": strconv.Itoa(r.PageNum),
				"chunk_id": r.ChunkID,
			},
			Distance: r.Distance,
		})
	}
	return results, nil
}

// searchQuery ranks by pgvector's cosine distance (<=>) so both backends
// report distances in the same space and share one calibrated threshold.
func (s *PostgresStore) searchQuery(rows *[]searchRow, queryEmbedding []float32, nResults int) *bun.SelectQuery {
	return s.db.NewSelect().
		Model(rows).
		ColumnExpr("d.*").
		ColumnExpr("d.embedding <=> ? AS distance", queryEmbedding).
		OrderExpr("d.embedding <=> ?", queryEmbedding).
		Limit(nResults)
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	return s.db.NewSelect().Model((*pgDocument)(nil)).Count(ctx)
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
