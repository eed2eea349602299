package aggregation

import "math"

// ConsensusScore is the average pairwise cosine similarity between the
// flattened parameter vectors of every pair of updates, a rough signal of
// how far local models have diverged. Fewer than two updates are trivially
// consistent and score 1.0. A zero-norm vector has no direction, so any
// pair containing one scores 0.
func ConsensusScore(updates []Update) float64 {
	if len(updates) < 2 {
		return 1.0
	}

	vectors := make([][]float64, len(updates))
	for i, u := range updates {
		vectors[i] = u.Weights.Flatten()
	}

	var sum float64
	var pairs int
	for i := 0; i < len(vectors); i++ {
		for j := i + 1; j < len(vectors); j++ {
			sum += cosineSimilarity(vectors[i], vectors[j])
			pairs++
		}
	}

	return sum / float64(pairs)
}

func cosineSimilarity(a, b []float64) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
