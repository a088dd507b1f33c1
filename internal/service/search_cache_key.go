package service

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// searchCacheKeyLength truncates the hex digest; 32 hex chars (128 bits) is
// plenty for a short-TTL cache keyed alongside threshold and limit.
const searchCacheKeyLength = 32

// searchEmbeddingHash builds the search cache key hash from the first keyDims
// dimensions of the query embedding plus the search parameters. Hashing a
// prefix instead of the full vector keeps the key cheap; near-identical
// queries colliding is acceptable at a one-minute TTL. Dimensions are
// formatted at fixed precision so the key is stable across float formatting
// quirks.
func searchEmbeddingHash(embedding []float32, keyDims int, threshold float64, limit int) string {
	if keyDims > len(embedding) {
		keyDims = len(embedding)
	}

	var b strings.Builder

	for i := 0; i < keyDims; i++ {
		fmt.Fprintf(&b, "%.6f,", embedding[i])
	}

	fmt.Fprintf(&b, "t=%.4f,l=%d", threshold, limit)

	sum := sha256.Sum256([]byte(b.String()))

	return hex.EncodeToString(sum[:])[:searchCacheKeyLength]
}
