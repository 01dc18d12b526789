package chat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-assist-api/internal/domain/entity"
)

func scoredChunk(id, category, text string, sim float32) entity.ScoredChunk {
	return entity.ScoredChunk{
		Chunk: entity.DocumentChunk{
			ID:         id,
			SourceType: entity.SourceTypeFAQ,
			Category:   category,
			Text:       text,
		},
		Similarity: sim,
	}
}

func TestBuildPromptLayout(t *testing.T) {
	chunks := []entity.ScoredChunk{
		scoredChunk("faq_000", "fees", "Question: Fee deadline?\nAnswer: July 15th.", 0.9),
	}
	turns := []entity.Turn{
		{UserText: "hello", AssistantText: "hi, how can I help?"},
	}

	prompt := buildPrompt(chunks, turns, "when is the fee deadline?", 6000)

	assert.Contains(t, prompt, "Context information:")
	assert.Contains(t, prompt, "[1] (FAQ: fees) Question: Fee deadline? Answer: July 15th.")
	assert.Contains(t, prompt, "Recent conversation:")
	assert.Contains(t, prompt, "User: hello")
	assert.Contains(t, prompt, "Assistant: hi, how can I help?")
	assert.True(t, strings.HasSuffix(prompt, "Current question: when is the fee deadline?"))

	// context precedes history precedes the question
	ctxIdx := strings.Index(prompt, "Context information:")
	histIdx := strings.Index(prompt, "Recent conversation:")
	qIdx := strings.Index(prompt, "Current question:")
	assert.Less(t, ctxIdx, histIdx)
	assert.Less(t, histIdx, qIdx)
}

func TestBuildPromptOmitsEmptySections(t *testing.T) {
	prompt := buildPrompt(nil, nil, "a question", 6000)
	assert.NotContains(t, prompt, "Context information:")
	assert.NotContains(t, prompt, "Recent conversation:")
	assert.Equal(t, "Current question: a question", prompt)
}

func TestBuildPromptTrimsWeakestChunksFirst(t *testing.T) {
	long := strings.Repeat("x", 200)
	chunks := []entity.ScoredChunk{
		scoredChunk("c1", "a", long, 0.9),
		scoredChunk("c2", "b", long, 0.7),
		scoredChunk("c3", "c", long, 0.5),
	}
	turns := []entity.Turn{
		{UserText: "earlier question", AssistantText: "earlier answer"},
	}

	prompt := buildPrompt(chunks, turns, "query", 500)

	// the lowest-similarity chunk goes before any history does
	assert.NotContains(t, prompt, "(FAQ: c)")
	assert.Contains(t, prompt, "Recent conversation:")
	assert.Contains(t, prompt, "Current question: query")
}

func TestBuildPromptNeverDropsQuery(t *testing.T) {
	long := strings.Repeat("y", 300)
	chunks := []entity.ScoredChunk{scoredChunk("c1", "a", long, 0.9)}
	turns := []entity.Turn{{UserText: long, AssistantText: long}}

	prompt := buildPrompt(chunks, turns, "the question survives", 10)

	require.Contains(t, prompt, "Current question: the question survives")
	assert.NotContains(t, prompt, "Context information:")
	assert.NotContains(t, prompt, "Recent conversation:")
}

func TestCompactOneLine(t *testing.T) {
	assert.Equal(t, "a b c", compactOneLine("a\r\nb\nc"))
	assert.Equal(t, "spaced out", compactOneLine("  spaced    out  "))
}
