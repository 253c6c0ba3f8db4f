package storage

import (
	"math"
	"sort"

	"github.com/custodia-labs/localrag/internal/core/domain"
)

// Cosine returns the cosine similarity of two vectors of equal length.
// A zero vector has similarity 0 with everything.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Rank sorts hits by descending score, ties by ascending paragraph id,
// and keeps the first k.
func Rank(hits []domain.Hit, k int) []domain.Hit {
	if k <= 0 {
		return []domain.Hit{}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ParagraphID < hits[j].ParagraphID
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

// CheckDimensions verifies every paragraph embedding has length dims.
// When dims is 0 the first paragraph fixes it. The resulting
// dimensionality is returned.
func CheckDimensions(paragraphs []domain.Paragraph, dims int) (int, error) {
	for _, p := range paragraphs {
		if dims == 0 {
			dims = len(p.Embedding)
		}
		if len(p.Embedding) == 0 || len(p.Embedding) != dims {
			return dims, domain.ErrDimensionMismatch
		}
	}
	return dims, nil
}
