package chunker

import (
	"strings"
)

const (
	DefaultChunkSize = 500 // characters
	DefaultOverlap   = 100 // characters
)

// SplitParagraphs splits text on blank-line boundaries. Each paragraph is
// trimmed and empty paragraphs are dropped, so blank pages yield no chunks.
func SplitParagraphs(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	var paragraphs []string
	for _, p := range strings.Split(text, "\n\n") {
		p = strings.TrimSpace(p)
		if p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return paragraphs
}

// Chunker splits text into fixed-size windows with a backward overlap.
type Chunker struct {
	ChunkSize int
	Overlap   int
}

// New normalizes the parameters: non-positive sizes fall back to defaults
// and an overlap at or above the chunk size is clamped to half the chunk
// size so the cursor always advances.
func New(chunkSize, overlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 2
	}
	return &Chunker{ChunkSize: chunkSize, Overlap: overlap}
}

// SplitFixed splits text into chunks of at most ChunkSize characters,
// re-reading Overlap characters between consecutive chunks. Chunks never
// end mid-word when the window contains a space, and the cursor snaps
// forward past a word boundary so the next chunk does not start mid-word.
// A single word longer than ChunkSize is kept whole.
func (c *Chunker) SplitFixed(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= c.ChunkSize {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(text) {
		end := start + c.ChunkSize
		winEnd := end
		if winEnd > len(text) {
			winEnd = len(text)
		}
		chunk := text[start:winEnd]

		// Truncate at the last space unless the window already reaches
		// the end of the text.
		if end < len(text) {
			if i := strings.LastIndex(chunk, " "); i != -1 {
				chunk = chunk[:i]
				end = start + i
			}
		}

		if trimmed := strings.TrimSpace(chunk); trimmed != "" {
			chunks = append(chunks, trimmed)
		}

		next := end - c.Overlap
		if next <= start {
			next = end
		}
		if next <= start {
			// The window collapsed to a leading space; step over it.
			next = start + 1
		}

		// Word-boundary correction: a cursor inside a word snaps forward
		// to just after the next space when that space is within the
		// overlap region.
		if next > 0 && next < len(text) {
			if sp := strings.Index(text[next:], " "); sp != -1 && sp < c.Overlap {
				next = next + sp + 1
			}
		}
		start = next
	}

	return chunks
}
