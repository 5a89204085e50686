package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// leadingTextLen is how much of the chunk text feeds the identity seed.
// Changing a chunk's leading text creates a new id and may orphan the old
// entry; re-ingesting unchanged content maps to the same id.
const leadingTextLen = 50

// ContentID derives the deterministic storage key for a chunk from its
// provenance and leading text.
func ContentID(source string, pageNum int, text string) string {
	lead := text
	if len(lead) > leadingTextLen {
		lead = lead[:leadingTextLen]
	}
	seed := fmt.Sprintf("%s-%d-%s", source, pageNum, lead)
	sum := sha256.Sum256([]byte(seed))
	return hex.EncodeToString(sum[:])
}
