// Package knowledge loads, chunks and indexes the campus knowledge base.
package knowledge

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"campus-assist-api/internal/domain/entity"
)

const (
	defaultChunkSizeRunes    = 500
	defaultChunkOverlapRunes = 50
)

// FAQEntry is one entry of data/faqs.json.
type FAQEntry struct {
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Category string   `json:"category"`
	Keywords []string `json:"keywords,omitempty"`
}

// Loader reads the knowledge base from disk and turns it into chunks.
// FAQ entries stay atomic; circular text files are window-split.
type Loader struct {
	dataDir           string
	chunkSizeRunes    int
	chunkOverlapRunes int
}

func NewLoader(dataDir string, chunkSizeRunes, chunkOverlapRunes int) *Loader {
	if chunkSizeRunes <= 0 {
		chunkSizeRunes = defaultChunkSizeRunes
	}
	if chunkOverlapRunes < 0 {
		chunkOverlapRunes = defaultChunkOverlapRunes
	}
	return &Loader{
		dataDir:           dataDir,
		chunkSizeRunes:    chunkSizeRunes,
		chunkOverlapRunes: chunkOverlapRunes,
	}
}

// Load reads faqs.json and circulars/*.txt under the data dir. Chunk ids
// are deterministic so re-ingesting the same corpus upserts in place.
func (l *Loader) Load() ([]*entity.DocumentChunk, error) {
	chunks := make([]*entity.DocumentChunk, 0, 64)

	faqChunks, err := l.loadFAQs(filepath.Join(l.dataDir, "faqs.json"))
	if err != nil {
		return nil, err
	}
	chunks = append(chunks, faqChunks...)

	circularChunks, err := l.loadCirculars(filepath.Join(l.dataDir, "circulars"))
	if err != nil {
		return nil, err
	}
	chunks = append(chunks, circularChunks...)

	return chunks, nil
}

func (l *Loader) loadFAQs(path string) ([]*entity.DocumentChunk, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var entries []FAQEntry
	if err := json.Unmarshal(content, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	chunks := make([]*entity.DocumentChunk, 0, len(entries))
	for i, e := range entries {
		q := strings.TrimSpace(e.Question)
		a := strings.TrimSpace(e.Answer)
		if q == "" && a == "" {
			continue
		}
		chunks = append(chunks, &entity.DocumentChunk{
			ID:         fmt.Sprintf("faq_%03d", i),
			SourceType: entity.SourceTypeFAQ,
			Category:   strings.TrimSpace(e.Category),
			Source:     "faqs.json",
			Text:       "Question: " + q + "\nAnswer: " + a,
			Keywords:   e.Keywords,
		})
	}
	return chunks, nil
}

func (l *Loader) loadCirculars(dir string) ([]*entity.DocumentChunk, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	chunks := make([]*entity.DocumentChunk, 0, len(entries))
	for _, de := range entries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".txt") {
			continue
		}
		path := filepath.Join(dir, de.Name())
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}

		base := strings.TrimSuffix(de.Name(), ".txt")
		parts := splitByRunes(string(content), l.chunkSizeRunes, l.chunkOverlapRunes)
		for n, part := range parts {
			chunks = append(chunks, &entity.DocumentChunk{
				ID:         fmt.Sprintf("circ_%s_%03d", base, n),
				SourceType: entity.SourceTypeCircular,
				Category:   categoryFromFilename(base),
				Source:     de.Name(),
				Text:       part,
			})
		}
	}
	return chunks, nil
}

// categoryFromFilename derives a category label from a circular's file
// name, e.g. "exam_schedule_2026" -> "exam schedule".
func categoryFromFilename(base string) string {
	fields := strings.Split(base, "_")
	kept := fields[:0]
	for _, f := range fields {
		if f == "" || isAllDigits(f) {
			continue
		}
		kept = append(kept, f)
	}
	if len(kept) == 0 {
		return "general"
	}
	return strings.Join(kept, " ")
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
