package knowledge

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-assist-api/internal/domain/entity"
)

func writeTestCorpus(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	faqs := `[
		{"question": "What is the fee deadline?", "answer": "July 15th.", "category": "fees", "keywords": ["fee"]},
		{"question": "", "answer": "", "category": "ignored"},
		{"question": "Library hours?", "answer": "8 AM to 10 PM.", "category": "library"}
	]`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "faqs.json"), []byte(faqs), 0o644))

	circDir := filepath.Join(dir, "circulars")
	require.NoError(t, os.Mkdir(circDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(circDir, "exam_schedule_2026.txt"),
		[]byte("Examinations begin on May 4th and end on May 22nd."), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(circDir, "notes.md"),
		[]byte("not a circular"), 0o644))

	return dir
}

func TestLoaderLoadsFAQsAndCirculars(t *testing.T) {
	dir := writeTestCorpus(t)
	loader := NewLoader(dir, 500, 50)

	chunks, err := loader.Load()
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	byID := make(map[string]*entity.DocumentChunk, len(chunks))
	for _, c := range chunks {
		byID[c.ID] = c
	}

	faq := byID["faq_000"]
	require.NotNil(t, faq)
	assert.Equal(t, entity.SourceTypeFAQ, faq.SourceType)
	assert.Equal(t, "fees", faq.Category)
	assert.Equal(t, "faqs.json", faq.Source)
	assert.Equal(t, "Question: What is the fee deadline?\nAnswer: July 15th.", faq.Text)
	assert.Equal(t, []string{"fee"}, faq.Keywords)

	// the empty entry is skipped but the index keeps counting
	require.NotNil(t, byID["faq_002"])

	circ := byID["circ_exam_schedule_2026_000"]
	require.NotNil(t, circ)
	assert.Equal(t, entity.SourceTypeCircular, circ.SourceType)
	assert.Equal(t, "exam schedule", circ.Category)
	assert.Equal(t, "exam_schedule_2026.txt", circ.Source)
}

func TestLoaderDeterministicIDs(t *testing.T) {
	dir := writeTestCorpus(t)
	loader := NewLoader(dir, 500, 50)

	first, err := loader.Load()
	require.NoError(t, err)
	second, err := loader.Load()
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
	}
}

func TestLoaderMissingCorpusIsEmpty(t *testing.T) {
	loader := NewLoader(t.TempDir(), 500, 50)
	chunks, err := loader.Load()
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestLoaderSplitsLongCirculars(t *testing.T) {
	dir := t.TempDir()
	circDir := filepath.Join(dir, "circulars")
	require.NoError(t, os.Mkdir(circDir, 0o755))

	long := make([]byte, 0, 1200)
	for i := 0; i < 1200; i++ {
		long = append(long, 'a')
	}
	require.NoError(t, os.WriteFile(filepath.Join(circDir, "long_notice.txt"), long, 0o644))

	loader := NewLoader(dir, 500, 50)
	chunks, err := loader.Load()
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)
	assert.Equal(t, "circ_long_notice_000", chunks[0].ID)
	assert.Equal(t, "long notice", chunks[0].Category)
}

func TestCategoryFromFilename(t *testing.T) {
	assert.Equal(t, "exam schedule", categoryFromFilename("exam_schedule_2026"))
	assert.Equal(t, "general", categoryFromFilename("2026"))
	assert.Equal(t, "hostel mess notice", categoryFromFilename("hostel_mess_notice"))
}
