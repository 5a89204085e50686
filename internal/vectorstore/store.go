package vectorstore

import "context"

// Document is one chunk prepared for storage. ID is the content-addressed
// key; storing the same ID again overwrites the previous entry.
type Document struct {
	ID       string
	Content  string
	Metadata map[string]string
}

// Result is one similarity match. Distance is lower-is-better and
// non-negative; results are ordered ascending by distance.
type Result struct {
	ID       string
	Content  string
	Metadata map[string]string
	Distance float64
}

// Store is the vector index shared by the ingestion and query pipelines.
// Implementations must be safe for concurrent reads.
type Store interface {
	// Upsert inserts or overwrites the batch by document ID.
	Upsert(ctx context.Context, docs []Document) error
	// Query returns up to nResults nearest chunks for the text.
	Query(ctx context.Context, text string, nResults int) ([]Result, error)
	Count(ctx context.Context) (int, error)
	Close() error
}
