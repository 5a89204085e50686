package models

// Chunk represents a parsed chunk with metadata
type Chunk struct {
	Text    string
	Source  string
	PageNum int
	ChunkID string // page<N>_chunk<M>, unique within a page
}

// AnswerStatus tags an AnswerResult so callers can tell "nothing relevant"
// apart from "backend failure" without parsing the answer text.
type AnswerStatus string

const (
	StatusAnswered  AnswerStatus = "answered"
	StatusNoContext AnswerStatus = "no_context"
	StatusError     AnswerStatus = "error"
)

// AnswerResult is the output of one query through the retrieval pipeline.
type AnswerResult struct {
	Status        AnswerStatus
	Answer        string
	Sources       []string
	ContextChunks []string
}
