package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-assist-api/internal/application/knowledge"
	"campus-assist-api/internal/domain/entity"
	"campus-assist-api/internal/domain/repository"
	"campus-assist-api/internal/infrastructure/persistence/memory"
	apperrors "campus-assist-api/pkg/errors"
)

type fakeTranslator struct {
	lang              string
	normalizeDegraded bool
	toPivotDegraded   bool
	fromPivotDegraded bool
}

func (f *fakeTranslator) Normalize(ctx context.Context, query, declared string) (string, bool) {
	return f.lang, f.normalizeDegraded
}

func (f *fakeTranslator) ToPivot(ctx context.Context, text, lang string) (string, bool) {
	if f.toPivotDegraded {
		return text, true
	}
	if lang == "en" {
		return text, false
	}
	return "[en] " + text, false
}

func (f *fakeTranslator) FromPivot(ctx context.Context, text, lang string) (string, bool) {
	if f.fromPivotDegraded {
		return text, true
	}
	if lang == "en" {
		return text, false
	}
	return "[" + lang + "] " + text, false
}

type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float64, len(texts))
	for i := range texts {
		out[i] = []float64{0.1, 0.2, 0.3}
	}
	return out, nil
}

type fakeIndex struct {
	results []entity.ScoredChunk
	err     error
}

func (f *fakeIndex) EnsureCollection(ctx context.Context) error { return nil }
func (f *fakeIndex) Upsert(ctx context.Context, chunks []*entity.DocumentChunk) error {
	return nil
}
func (f *fakeIndex) Search(ctx context.Context, vector []float32, topK int) ([]entity.ScoredChunk, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}
func (f *fakeIndex) ReplaceAll(ctx context.Context, chunks []*entity.DocumentChunk) error {
	return nil
}
func (f *fakeIndex) Count(ctx context.Context) (int64, error) {
	return int64(len(f.results)), nil
}

type fakeGenerator struct {
	out     string
	err     error
	calls   int
	prompts []string
}

func (f *fakeGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.out, nil
}

type fakeExchangeRepo struct {
	mu      sync.Mutex
	records []*entity.ExchangeRecord
}

func (f *fakeExchangeRepo) Create(ctx context.Context, record *entity.ExchangeRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, record)
	return nil
}

func (f *fakeExchangeRepo) ListRecent(ctx context.Context, limit int, language string) ([]*entity.ExchangeRecord, error) {
	return nil, nil
}

func (f *fakeExchangeRepo) Stats(ctx context.Context) (*repository.ExchangeStats, error) {
	return nil, nil
}

func feeChunk(sim float32) entity.ScoredChunk {
	return entity.ScoredChunk{
		Chunk: entity.DocumentChunk{
			ID:         "faq_000",
			SourceType: entity.SourceTypeFAQ,
			Category:   "fees",
			Source:     "faqs.json",
			Text:       "Question: What is the deadline for semester fee payment?\nAnswer: July 15th.",
		},
		Similarity: sim,
	}
}

func newTestPipeline(tr Translator, idx knowledge.VectorIndex, gen Generator, repo *fakeExchangeRepo) (*Pipeline, *Recorder) {
	sessions := memory.NewConversationStore(10)
	var recorder *Recorder
	if repo != nil {
		recorder = NewRecorder(repo, 8, time.Second)
	}
	p := NewPipeline(tr, &fakeEmbedder{}, idx, gen, sessions, recorder, Policy{
		TopK:             3,
		PromptTurns:      3,
		HandoffThreshold: 0.5,
		DegradedPenalty:  0.75,
	})
	return p, recorder
}

func TestAskAnswersInDeclaredLanguage(t *testing.T) {
	tr := &fakeTranslator{lang: "hi"}
	idx := &fakeIndex{results: []entity.ScoredChunk{feeChunk(0.92)}}
	gen := &fakeGenerator{out: "The fee deadline is July 15th."}
	repo := &fakeExchangeRepo{}
	p, recorder := newTestPipeline(tr, idx, gen, repo)

	out, err := p.Ask(context.Background(), ChatInput{
		Query:    "फीस की आखिरी तारीख क्या है?",
		Language: "hi",
	})
	require.NoError(t, err)

	assert.Equal(t, "hi", out.DetectedLanguage)
	assert.Equal(t, "Hindi", out.LanguageName)
	assert.Equal(t, "[en] फीस की आखिरी तारीख क्या है?", out.EnglishQuery)
	assert.Equal(t, "The fee deadline is July 15th.", out.EnglishResponse)
	assert.Equal(t, "[hi] The fee deadline is July 15th.", out.Response)
	assert.InDelta(t, 0.92, out.Confidence, 1e-6)
	assert.False(t, out.NeedsHumanHandoff)
	require.Len(t, out.Sources, 1)
	assert.Equal(t, "faq", out.Sources[0].Type)
	assert.Equal(t, "fees", out.Sources[0].Category)
	assert.True(t, strings.HasPrefix(out.SessionID, "session_"))
	assert.True(t, strings.HasPrefix(out.ConversationID, "conv_"))

	recorder.Close()
	repo.mu.Lock()
	defer repo.mu.Unlock()
	require.Len(t, repo.records, 1)
	assert.Equal(t, out.ConversationID, repo.records[0].ConversationID)
	assert.Equal(t, "hi", repo.records[0].Language)
	assert.False(t, repo.records[0].NeedsHumanReview)
}

func TestAskRejectsEmptyQuery(t *testing.T) {
	p, _ := newTestPipeline(&fakeTranslator{lang: "en"}, &fakeIndex{}, &fakeGenerator{out: "x"}, nil)

	_, err := p.Ask(context.Background(), ChatInput{Query: "   "})
	require.Error(t, err)
	appErr := apperrors.AsAppError(err)
	assert.Equal(t, apperrors.CodeInvalidParam, appErr.Code)
}

func TestAskEmptyIndexAnswersWithHandoff(t *testing.T) {
	idx := &fakeIndex{err: knowledge.ErrIndexEmpty}
	gen := &fakeGenerator{out: "x"}
	repo := &fakeExchangeRepo{}
	p, recorder := newTestPipeline(&fakeTranslator{lang: "en"}, idx, gen, repo)

	out, err := p.Ask(context.Background(), ChatInput{Query: "anything"})
	require.NoError(t, err, "an empty knowledge base degrades, it does not error")

	assert.Equal(t, noKnowledgeMessage, out.EnglishResponse)
	assert.Equal(t, 0.0, out.Confidence)
	assert.True(t, out.NeedsHumanHandoff)
	assert.Empty(t, out.Sources)
	assert.Zero(t, gen.calls, "nothing to ground a completion on")

	recorder.Close()
	repo.mu.Lock()
	defer repo.mu.Unlock()
	require.Len(t, repo.records, 1, "the exchange is still logged")
	assert.True(t, repo.records[0].NeedsHumanReview)
}

func TestAskDegradedTranslationLowersConfidence(t *testing.T) {
	tr := &fakeTranslator{lang: "ta", toPivotDegraded: true}
	idx := &fakeIndex{results: []entity.ScoredChunk{feeChunk(0.8)}}
	p, _ := newTestPipeline(tr, idx, &fakeGenerator{out: "answer"}, nil)

	out, err := p.Ask(context.Background(), ChatInput{Query: "கட்டண காலக்கெடு?", Language: "ta"})
	require.NoError(t, err)

	assert.InDelta(t, 0.8*0.75, out.Confidence, 1e-6)
	assert.False(t, out.NeedsHumanHandoff)
	// passthrough: the query went to retrieval untranslated
	assert.Equal(t, "கட்டண காலக்கெடு?", out.EnglishQuery)
}

func TestAskUnsupportedLanguageDegradesToPivot(t *testing.T) {
	tr := &fakeTranslator{lang: "en", normalizeDegraded: true}
	idx := &fakeIndex{results: []entity.ScoredChunk{feeChunk(0.9)}}
	p, _ := newTestPipeline(tr, idx, &fakeGenerator{out: "answer"}, nil)

	out, err := p.Ask(context.Background(), ChatInput{Query: "bonjour", Language: "fr"})
	require.NoError(t, err)

	assert.Equal(t, "en", out.DetectedLanguage)
	assert.InDelta(t, 0.9*0.75, out.Confidence, 1e-6)
}

func TestAskLowSimilarityTriggersHandoff(t *testing.T) {
	idx := &fakeIndex{results: []entity.ScoredChunk{feeChunk(0.2)}}
	p, _ := newTestPipeline(&fakeTranslator{lang: "en"}, idx, &fakeGenerator{out: "weak answer"}, nil)

	out, err := p.Ask(context.Background(), ChatInput{Query: "something obscure"})
	require.NoError(t, err)

	assert.InDelta(t, 0.2, out.Confidence, 1e-6)
	assert.True(t, out.NeedsHumanHandoff)
}

func TestAskGenerationFailureFallsBack(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("model unavailable")}
	idx := &fakeIndex{results: []entity.ScoredChunk{feeChunk(0.9)}}
	repo := &fakeExchangeRepo{}
	p, recorder := newTestPipeline(&fakeTranslator{lang: "en"}, idx, gen, repo)

	out, err := p.Ask(context.Background(), ChatInput{Query: "question"})
	require.NoError(t, err)

	assert.Equal(t, 2, gen.calls, "one retry before falling back")
	assert.Equal(t, fallbackMessage, out.EnglishResponse)
	assert.Equal(t, 0.0, out.Confidence)
	assert.True(t, out.NeedsHumanHandoff)

	recorder.Close()
	repo.mu.Lock()
	defer repo.mu.Unlock()
	require.Len(t, repo.records, 1)
	assert.True(t, repo.records[0].NeedsHumanReview)
}

func TestAskCommitsExchangeAsOneTurn(t *testing.T) {
	idx := &fakeIndex{results: []entity.ScoredChunk{feeChunk(0.9)}}
	p, _ := newTestPipeline(&fakeTranslator{lang: "en"}, idx, &fakeGenerator{out: "first answer"}, nil)

	out, err := p.Ask(context.Background(), ChatInput{Query: "first question", SessionID: "session_test1234"})
	require.NoError(t, err)
	assert.Equal(t, "session_test1234", out.SessionID)

	turns, err := p.sessions.RecentContext(context.Background(), "session_test1234", 10)
	require.NoError(t, err)
	require.Len(t, turns, 1, "one query commits exactly one exchange")
	assert.Equal(t, "first question", turns[0].UserText)
	assert.Equal(t, "first answer", turns[0].AssistantText)
}

func TestAskConcurrentQueriesNeverSplitExchanges(t *testing.T) {
	idx := &fakeIndex{results: []entity.ScoredChunk{feeChunk(0.9)}}
	p, _ := newTestPipeline(&fakeTranslator{lang: "en"}, idx, &fakeGenerator{out: "answer"}, nil)

	const queries = 8
	var wg sync.WaitGroup
	for i := 0; i < queries; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := p.Ask(context.Background(), ChatInput{
				Query:     fmt.Sprintf("question %d", i),
				SessionID: "session_shared",
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	turns, err := p.sessions.RecentContext(context.Background(), "session_shared", 10)
	require.NoError(t, err)
	require.Len(t, turns, queries)
	for _, turn := range turns {
		assert.Contains(t, turn.UserText, "question ")
		assert.Equal(t, "answer", turn.AssistantText, "every retained turn is a complete pair")
	}
}

func TestAskFeedsHistoryIntoPrompt(t *testing.T) {
	idx := &fakeIndex{results: []entity.ScoredChunk{feeChunk(0.9)}}
	gen := &fakeGenerator{out: "answer"}
	p, _ := newTestPipeline(&fakeTranslator{lang: "en"}, idx, gen, nil)

	_, err := p.Ask(context.Background(), ChatInput{Query: "first question", SessionID: "session_ctx"})
	require.NoError(t, err)
	_, err = p.Ask(context.Background(), ChatInput{Query: "and a follow-up?", SessionID: "session_ctx"})
	require.NoError(t, err)

	require.Len(t, gen.prompts, 2)
	assert.NotContains(t, gen.prompts[0], "Recent conversation:")
	assert.Contains(t, gen.prompts[1], "Recent conversation:")
	assert.Contains(t, gen.prompts[1], "User: first question")
	assert.Contains(t, gen.prompts[1], "Assistant: answer")
}

func TestAskTranslateBackFailureCarriesNote(t *testing.T) {
	tr := &fakeTranslator{lang: "hi", fromPivotDegraded: true}
	idx := &fakeIndex{results: []entity.ScoredChunk{feeChunk(0.9)}}
	p, _ := newTestPipeline(tr, idx, &fakeGenerator{out: "the answer"}, nil)

	out, err := p.Ask(context.Background(), ChatInput{Query: "सवाल", Language: "hi"})
	require.NoError(t, err)

	assert.Equal(t, "the answer", out.Response, "pivot answer kept verbatim")
	assert.Contains(t, out.TranslationNote, "Hindi")
	// translate-back runs after scoring, so the note does not move the score
	assert.InDelta(t, 0.9, out.Confidence, 1e-6)
}
