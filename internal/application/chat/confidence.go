package chat

// confidenceScore maps the best retrieval similarity to an answer
// confidence. Monotone in similarity; each degraded stage multiplies by
// penalty (< 1), so degradation can only lower the score.
func confidenceScore(bestSimilarity float64, degrades int, penalty float64) float64 {
	score := clamp01(bestSimilarity)
	if penalty <= 0 || penalty >= 1 {
		penalty = 0.75
	}
	for i := 0; i < degrades; i++ {
		score *= penalty
	}
	return clamp01(score)
}

// needsHandoff applies the strict-below-threshold rule: a score exactly
// at the threshold does not hand off.
func needsHandoff(confidence, threshold float64) bool {
	return confidence < threshold
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
