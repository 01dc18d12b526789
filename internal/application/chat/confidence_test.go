package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfidenceScoreTracksSimilarity(t *testing.T) {
	assert.InDelta(t, 0.92, confidenceScore(0.92, 0, 0.75), 1e-9)
	assert.InDelta(t, 0.10, confidenceScore(0.10, 0, 0.75), 1e-9)
}

func TestConfidenceScoreClamps(t *testing.T) {
	assert.Equal(t, 1.0, confidenceScore(1.7, 0, 0.75))
	assert.Equal(t, 0.0, confidenceScore(-0.3, 0, 0.75))
}

func TestConfidenceScoreDegradationOnlyLowers(t *testing.T) {
	base := confidenceScore(0.8, 0, 0.75)
	one := confidenceScore(0.8, 1, 0.75)
	two := confidenceScore(0.8, 2, 0.75)

	assert.InDelta(t, 0.8*0.75, one, 1e-9)
	assert.InDelta(t, 0.8*0.75*0.75, two, 1e-9)
	assert.Greater(t, base, one)
	assert.Greater(t, one, two)
}

func TestConfidenceScoreInvalidPenaltyUsesDefault(t *testing.T) {
	assert.InDelta(t, 0.8*0.75, confidenceScore(0.8, 1, 0), 1e-9)
	assert.InDelta(t, 0.8*0.75, confidenceScore(0.8, 1, 1.5), 1e-9)
}

func TestNeedsHandoffStrictlyBelowThreshold(t *testing.T) {
	assert.True(t, needsHandoff(0.49, 0.5))
	assert.False(t, needsHandoff(0.5, 0.5))
	assert.False(t, needsHandoff(0.51, 0.5))
}
