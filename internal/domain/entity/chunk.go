// Package entity defines domain entities.
package entity

// SourceType classifies where a knowledge chunk came from.
type SourceType string

const (
	SourceTypeFAQ      SourceType = "faq"
	SourceTypeCircular SourceType = "circular"
)

// DocumentChunk is one retrievable unit of the knowledge base.
// FAQ entries stay atomic; circular files are split into overlapping
// windows before they become chunks.
type DocumentChunk struct {
	ID         string     `json:"id"`
	SourceType SourceType `json:"source_type"`
	Category   string     `json:"category"`
	Source     string     `json:"source"`
	Text       string     `json:"text"`
	Keywords   []string   `json:"keywords,omitempty"`
	Vector     []float32  `json:"-"`
}

// ScoredChunk is a chunk returned from a similarity search. Similarity
// is cosine similarity regardless of backend: larger means closer.
type ScoredChunk struct {
	Chunk      DocumentChunk `json:"chunk"`
	Similarity float32       `json:"similarity"`
}
