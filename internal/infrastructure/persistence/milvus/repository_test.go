package milvus

import (
	"testing"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "campus-assist-api/internal/domain/entity"
)

func searchResult(ids []string, scores []float32) client.SearchResult {
	n := len(ids)
	sourceTypes := make([]string, n)
	categories := make([]string, n)
	sources := make([]string, n)
	keywords := make([]string, n)
	texts := make([]string, n)
	for i := range ids {
		sourceTypes[i] = "faq"
		categories[i] = "fees"
		sources[i] = "faqs.json"
		keywords[i] = "fee,deadline"
		texts[i] = "text for " + ids[i]
	}
	return client.SearchResult{
		ResultCount: n,
		Scores:      scores,
		Fields: client.ResultSet{
			entity.NewColumnVarChar("id", ids),
			entity.NewColumnVarChar("source_type", sourceTypes),
			entity.NewColumnVarChar("category", categories),
			entity.NewColumnVarChar("source", sources),
			entity.NewColumnVarChar("keywords", keywords),
			entity.NewColumnVarChar("text", texts),
		},
	}
}

func TestScoredFromResultKeepsCosineScores(t *testing.T) {
	// COSINE search scores are similarities, already sorted descending;
	// they must reach callers unchanged or a strong match would read as
	// a weak one.
	res := searchResult([]string{"faq_000", "faq_001"}, []float32{0.95, 0.2})

	scored := scoredFromResult(res)
	require.Len(t, scored, 2)

	assert.InDelta(t, 0.95, float64(scored[0].Similarity), 1e-6)
	assert.InDelta(t, 0.2, float64(scored[1].Similarity), 1e-6)
	assert.Greater(t, scored[0].Similarity, scored[1].Similarity)
}

func TestScoredFromResultDecodesFields(t *testing.T) {
	res := searchResult([]string{"faq_000"}, []float32{0.9})

	scored := scoredFromResult(res)
	require.Len(t, scored, 1)

	assert.Equal(t, "faq_000", scored[0].Chunk.ID)
	assert.Equal(t, domain.SourceTypeFAQ, scored[0].Chunk.SourceType)
	assert.Equal(t, "fees", scored[0].Chunk.Category)
	assert.Equal(t, "faqs.json", scored[0].Chunk.Source)
	assert.Equal(t, []string{"fee", "deadline"}, scored[0].Chunk.Keywords)
	assert.Equal(t, "text for faq_000", scored[0].Chunk.Text)
}

func TestScoredFromResultEmpty(t *testing.T) {
	scored := scoredFromResult(client.SearchResult{})
	assert.Empty(t, scored)
}
