package chat

import (
	"fmt"
	"strings"

	"campus-assist-api/internal/domain/entity"
)

// systemInstruction is the fixed instruction sent with every completion.
const systemInstruction = "You are a helpful campus assistant for a university. " +
	"Answer the student's question using only the provided context. " +
	"Be concise and factual. If the context does not contain the answer, " +
	"say you do not have that information and suggest contacting the " +
	"administration office."

// buildPrompt assembles the grounded prompt: labeled context chunks,
// recent turns, then the current question. When the assembly exceeds
// budgetRunes, the lowest-similarity chunks go first, then the oldest
// turns; the question itself is never dropped.
func buildPrompt(chunks []entity.ScoredChunk, turns []entity.Turn, query string, budgetRunes int) string {
	if budgetRunes <= 0 {
		budgetRunes = 6000
	}

	assemble := func(cs []entity.ScoredChunk, ts []entity.Turn) string {
		var b strings.Builder

		if len(cs) > 0 {
			b.WriteString("Context information:\n")
			for i, sc := range cs {
				label := chunkLabel(sc.Chunk)
				b.WriteString(fmt.Sprintf("[%d] (%s) %s\n", i+1, label, compactOneLine(sc.Chunk.Text)))
			}
			b.WriteString("\n")
		}

		if len(ts) > 0 {
			b.WriteString("Recent conversation:\n")
			for _, t := range ts {
				b.WriteString("User: " + compactOneLine(t.UserText) + "\n")
				b.WriteString("Assistant: " + compactOneLine(t.AssistantText) + "\n")
			}
			b.WriteString("\n")
		}

		b.WriteString("Current question: " + strings.TrimSpace(query))
		return b.String()
	}

	// chunks arrive sorted by descending similarity, so trimming from
	// the tail drops the weakest evidence first
	cs := chunks
	ts := turns
	prompt := assemble(cs, ts)
	for len([]rune(prompt)) > budgetRunes {
		if len(cs) > 0 {
			cs = cs[:len(cs)-1]
		} else if len(ts) > 0 {
			ts = ts[1:]
		} else {
			break
		}
		prompt = assemble(cs, ts)
	}
	return prompt
}

func chunkLabel(c entity.DocumentChunk) string {
	kind := "Context"
	switch c.SourceType {
	case entity.SourceTypeFAQ:
		kind = "FAQ"
	case entity.SourceTypeCircular:
		kind = "Circular"
	}
	if cat := strings.TrimSpace(c.Category); cat != "" {
		return kind + ": " + cat
	}
	return kind
}

func compactOneLine(s string) string {
	out := strings.ReplaceAll(s, "\r\n", "\n")
	out = strings.ReplaceAll(out, "\r", "\n")
	out = strings.ReplaceAll(out, "\n", " ")
	out = strings.TrimSpace(out)
	for strings.Contains(out, "  ") {
		out = strings.ReplaceAll(out, "  ", " ")
	}
	return out
}
