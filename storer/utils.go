package storer

import (
	"math"
	"sort"
)

// Rank scores records by cosine similarity to vector and returns the best limit, highest first.
// The input slice is not modified.
func Rank(records []Record, vector []float32, limit int) []Record {
	if limit < 1 {
		return nil
	}

	candidates := make([]Record, 0, len(records))
	for _, rec := range records {
		rec.Score = float32(CosineSimilarity(vector, rec.Embedding))
		candidates = append(candidates, rec)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	return candidates
}

func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// CopyMetadata returns a shallow copy so callers cannot reach stored maps.
func CopyMetadata(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
