// Package chat implements the retrieval-answer pipeline: language
// normalization, pivot translation, retrieval, grounded generation,
// confidence scoring and the final commit.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/google/uuid"

	"campus-assist-api/internal/application/knowledge"
	"campus-assist-api/internal/domain/entity"
	"campus-assist-api/internal/domain/repository"
	apperrors "campus-assist-api/pkg/errors"
	"campus-assist-api/pkg/logger"
	"campus-assist-api/pkg/metrics"
)

// fallbackMessage is returned when answer generation fails outright.
const fallbackMessage = "I'm sorry, I'm having trouble answering your question right now. " +
	"Please try again in a moment or contact the student help desk for assistance."

// noKnowledgeMessage is returned when the knowledge base holds nothing
// to retrieve from.
const noKnowledgeMessage = "The knowledge base is not available right now, so I cannot " +
	"answer your question. Please try again later or contact the student help desk."

// Translator is the pipeline's dependency on the translation service.
type Translator interface {
	Normalize(ctx context.Context, query, declared string) (lang string, degraded bool)
	ToPivot(ctx context.Context, text, lang string) (string, bool)
	FromPivot(ctx context.Context, text, lang string) (string, bool)
}

// Generator is the pipeline's dependency on the chat model.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// Policy holds the tunable pipeline constants.
type Policy struct {
	TopK              int
	PromptTurns       int
	HandoffThreshold  float64
	DegradedPenalty   float64
	PromptBudgetRunes int
	CommitTimeout     time.Duration
}

func (p Policy) withDefaults() Policy {
	if p.TopK <= 0 {
		p.TopK = 3
	}
	if p.PromptTurns <= 0 {
		p.PromptTurns = 3
	}
	if p.HandoffThreshold <= 0 {
		p.HandoffThreshold = 0.5
	}
	if p.DegradedPenalty <= 0 || p.DegradedPenalty >= 1 {
		p.DegradedPenalty = 0.75
	}
	if p.PromptBudgetRunes <= 0 {
		p.PromptBudgetRunes = 6000
	}
	if p.CommitTimeout <= 0 {
		p.CommitTimeout = 10 * time.Second
	}
	return p
}

// Pipeline orchestrates one query end to end. Stages before the commit
// touch no persistent state; the commit runs on a detached context so a
// client disconnect cannot leave a half-written conversation.
type Pipeline struct {
	translator Translator
	embedder   embedding.Embedder
	index      knowledge.VectorIndex
	generator  Generator
	sessions   repository.ConversationStore
	recorder   *Recorder
	policy     Policy
}

func NewPipeline(
	translator Translator,
	embedder embedding.Embedder,
	index knowledge.VectorIndex,
	generator Generator,
	sessions repository.ConversationStore,
	recorder *Recorder,
	policy Policy,
) *Pipeline {
	return &Pipeline{
		translator: translator,
		embedder:   embedder,
		index:      index,
		generator:  generator,
		sessions:   sessions,
		recorder:   recorder,
		policy:     policy.withDefaults(),
	}
}

// Ask answers one query. Only validation failures return errors;
// everything else, an empty index included, degrades into an answer
// with lowered confidence and, past the threshold, a human handoff
// flag.
func (p *Pipeline) Ask(ctx context.Context, in ChatInput) (*ChatOutput, error) {
	query := strings.TrimSpace(in.Query)
	if query == "" {
		return nil, apperrors.ErrInvalidParam.WithDetail("query is required")
	}

	sessionID := strings.TrimSpace(in.SessionID)
	if sessionID == "" {
		sessionID = "session_" + shortID(8)
	}
	conversationID := "conv_" + shortID(12)

	ctx = logger.WithContext(ctx, logger.SessionIDKey, sessionID)
	ctx = logger.WithContext(ctx, logger.ConversationIDKey, conversationID)

	var stages stageLog

	// stage: language normalization
	lang, degraded := p.translator.Normalize(ctx, query, in.Language)
	if degraded {
		stages.degraded("language", "unsupported or undetected language")
	} else {
		stages.ok("language")
	}

	// stage: translate to pivot
	englishQuery, degraded := p.translator.ToPivot(ctx, query, lang)
	if degraded {
		stages.degraded("translate_in", "translation fell back to passthrough")
	} else {
		stages.ok("translate_in")
	}

	// stage: retrieve
	scored, err := p.retrieve(ctx, englishQuery)
	retrievalFailed := false
	fallback := fallbackMessage
	if err != nil {
		retrievalFailed = true
		if errors.Is(err, knowledge.ErrIndexEmpty) {
			stages.failed("retrieve", "knowledge index is empty")
			logger.Warn(ctx, "knowledge index is empty, answering with handoff fallback")
			fallback = noKnowledgeMessage
		} else {
			stages.failed("retrieve", err.Error())
			logger.Error(ctx, "retrieval failed", err)
		}
	} else {
		stages.ok("retrieve")
	}

	// stage: session context
	turns, err := p.sessions.RecentContext(ctx, sessionID, p.policy.PromptTurns)
	if err != nil {
		stages.degraded("context", "session context unavailable")
		logger.Warn(ctx, "session context unavailable", "error", err.Error())
		turns = nil
	} else {
		stages.ok("context")
	}

	// stage: generate
	englishResponse := ""
	generationFailed := false
	if retrievalFailed {
		englishResponse = fallback
		generationFailed = true
	} else {
		prompt := buildPrompt(scored, turns, englishQuery, p.policy.PromptBudgetRunes)
		englishResponse, err = p.generate(ctx, prompt)
		if err != nil {
			stages.failed("generate", err.Error())
			logger.Error(ctx, "generation failed", err)
			englishResponse = fallbackMessage
			generationFailed = true
		} else {
			stages.ok("generate")
		}
	}

	// stage: confidence and handoff
	bestSimilarity := 0.0
	if len(scored) > 0 {
		bestSimilarity = float64(scored[0].Similarity)
	}
	confidence := confidenceScore(bestSimilarity, stages.degradeCount(), p.policy.DegradedPenalty)
	if generationFailed {
		confidence = 0
	}
	handoff := needsHandoff(confidence, p.policy.HandoffThreshold)

	// stage: translate back; a failure here keeps the pivot-language
	// answer and tells the caller so
	response, degraded := p.translator.FromPivot(ctx, englishResponse, lang)
	translationNote := ""
	if degraded {
		stages.degraded("translate_out", "translation fell back to passthrough")
		translationNote = "This answer could not be translated to " +
			entity.LanguageName(lang) + " and is shown in English."
	} else {
		stages.ok("translate_out")
	}

	out := &ChatOutput{
		SessionID:         sessionID,
		ConversationID:    conversationID,
		OriginalQuery:     query,
		DetectedLanguage:  lang,
		LanguageName:      entity.LanguageName(lang),
		EnglishQuery:      englishQuery,
		Response:          response,
		EnglishResponse:   englishResponse,
		TranslationNote:   translationNote,
		Confidence:        confidence,
		NeedsHumanHandoff: handoff,
		Sources:           chunkSources(scored),
		Timestamp:         time.Now().UTC(),
	}

	// stage: commit, on a detached context
	p.commit(ctx, in.UserID, out)

	status := "ok"
	if generationFailed {
		status = "failed"
	} else if stages.degradeCount() > 0 {
		status = "degraded"
	}
	metrics.ChatRequestsTotal.WithLabelValues(lang, status).Inc()
	metrics.ChatConfidence.Observe(confidence)
	if handoff {
		metrics.ChatHandoffTotal.WithLabelValues(lang).Inc()
	}
	logger.Info(ctx, "chat answered",
		"language", lang,
		"confidence", confidence,
		"handoff", handoff,
		"status", status,
	)

	return out, nil
}

func (p *Pipeline) retrieve(ctx context.Context, englishQuery string) ([]entity.ScoredChunk, error) {
	if p.embedder == nil || p.index == nil {
		return nil, knowledge.ErrVectorDisabled
	}
	vectors, err := p.embedder.EmbedStrings(ctx, []string{englishQuery})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, errors.New("empty embedding result")
	}
	vec := make([]float32, 0, len(vectors[0]))
	for _, x := range vectors[0] {
		vec = append(vec, float32(x))
	}
	return p.index.Search(ctx, vec, p.policy.TopK)
}

func (p *Pipeline) generate(ctx context.Context, prompt string) (string, error) {
	out, err := p.generator.Generate(ctx, systemInstruction, prompt)
	if err == nil {
		return out, nil
	}
	// one retry before falling back
	return p.generator.Generate(ctx, systemInstruction, prompt)
}

// commit appends the exchange turn and queues the exchange record. Runs
// on a context detached from the request so a disconnecting client
// cannot interrupt it halfway. The query and answer travel as one turn,
// so concurrent queries on a session cannot interleave pairs.
func (p *Pipeline) commit(ctx context.Context, userID string, out *ChatOutput) {
	commitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.policy.CommitTimeout)
	defer cancel()

	if _, err := p.sessions.GetOrCreate(commitCtx, out.SessionID, userID); err != nil {
		logger.Error(commitCtx, "failed to ensure session", err)
	}
	if err := p.sessions.AppendTurn(commitCtx, out.SessionID, entity.Turn{
		UserText:      out.OriginalQuery,
		AssistantText: out.Response,
		Language:      out.DetectedLanguage,
		CreatedAt:     time.Now(),
	}); err != nil {
		logger.Error(commitCtx, "failed to append exchange turn", err)
	}

	if p.recorder != nil {
		sources, _ := json.Marshal(out.Sources)
		p.recorder.Record(&entity.ExchangeRecord{
			ConversationID:   out.ConversationID,
			SessionID:        out.SessionID,
			UserID:           userID,
			Language:         out.DetectedLanguage,
			OriginalQuery:    out.OriginalQuery,
			EnglishQuery:     out.EnglishQuery,
			Response:         out.Response,
			EnglishResponse:  out.EnglishResponse,
			Confidence:       out.Confidence,
			NeedsHumanReview: out.NeedsHumanHandoff,
			Sources:          sources,
			CreatedAt:        out.Timestamp,
		})
	}
}

func chunkSources(scored []entity.ScoredChunk) []entity.ChunkSource {
	if len(scored) == 0 {
		return nil
	}
	out := make([]entity.ChunkSource, 0, len(scored))
	for _, sc := range scored {
		out = append(out, entity.ChunkSource{
			Type:     string(sc.Chunk.SourceType),
			Category: sc.Chunk.Category,
			Source:   sc.Chunk.Source,
		})
	}
	return out
}

func shortID(n int) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	if n > 0 && n < len(id) {
		return id[:n]
	}
	return id
}
