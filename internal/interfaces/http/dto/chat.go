package dto

import (
	"time"

	"campus-assist-api/internal/application/chat"
	"campus-assist-api/internal/domain/entity"
)

// ChatRequest is one user query.
type ChatRequest struct {
	Query     string `json:"query" binding:"required"`
	SessionID string `json:"session_id,omitempty"`
	Language  string `json:"language,omitempty"`
	UserID    string `json:"user_id,omitempty"`
}

// ChunkSourceResponse cites one retrieved chunk.
type ChunkSourceResponse struct {
	Type     string `json:"type"`
	Category string `json:"category"`
	Source   string `json:"source,omitempty"`
}

// ChatResponse is the answered query.
type ChatResponse struct {
	SessionID         string                 `json:"session_id"`
	ConversationID    string                 `json:"conversation_id"`
	OriginalQuery     string                 `json:"original_query"`
	DetectedLanguage  string                 `json:"detected_language"`
	LanguageName      string                 `json:"language_name,omitempty"`
	EnglishQuery      string                 `json:"english_query,omitempty"`
	Response          string                 `json:"response"`
	EnglishResponse   string                 `json:"english_response,omitempty"`
	TranslationNote   string                 `json:"translation_note,omitempty"`
	Confidence        float64                `json:"confidence"`
	NeedsHumanHandoff bool                   `json:"needs_human_handoff"`
	Sources           []*ChunkSourceResponse `json:"sources,omitempty"`
	Timestamp         time.Time              `json:"timestamp"`
}

// ToChatResponse converts the pipeline output to its wire shape.
func ToChatResponse(out *chat.ChatOutput) *ChatResponse {
	if out == nil {
		return nil
	}
	return &ChatResponse{
		SessionID:         out.SessionID,
		ConversationID:    out.ConversationID,
		OriginalQuery:     out.OriginalQuery,
		DetectedLanguage:  out.DetectedLanguage,
		LanguageName:      out.LanguageName,
		EnglishQuery:      out.EnglishQuery,
		Response:          out.Response,
		EnglishResponse:   out.EnglishResponse,
		TranslationNote:   out.TranslationNote,
		Confidence:        out.Confidence,
		NeedsHumanHandoff: out.NeedsHumanHandoff,
		Sources:           toChunkSources(out.Sources),
		Timestamp:         out.Timestamp,
	}
}

func toChunkSources(sources []entity.ChunkSource) []*ChunkSourceResponse {
	if len(sources) == 0 {
		return nil
	}
	out := make([]*ChunkSourceResponse, 0, len(sources))
	for i := range sources {
		out = append(out, &ChunkSourceResponse{
			Type:     sources[i].Type,
			Category: sources[i].Category,
			Source:   sources[i].Source,
		})
	}
	return out
}
