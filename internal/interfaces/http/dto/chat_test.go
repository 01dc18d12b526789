package dto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-assist-api/internal/application/chat"
	"campus-assist-api/internal/domain/entity"
)

func TestToChatResponseWireShape(t *testing.T) {
	out := &chat.ChatOutput{
		SessionID:         "session_a",
		ConversationID:    "conv_1",
		OriginalQuery:     "फीस की आखिरी तारीख क्या है?",
		DetectedLanguage:  "hi",
		LanguageName:      "Hindi",
		EnglishQuery:      "what is the fee deadline?",
		Response:          "फीस की आखिरी तारीख 15 जुलाई है।",
		EnglishResponse:   "The fee deadline is July 15th.",
		Confidence:        0.92,
		NeedsHumanHandoff: false,
		Sources:           []entity.ChunkSource{{Type: "faq", Category: "fees", Source: "faqs.json"}},
	}

	raw, err := json.Marshal(ToChatResponse(out))
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))

	assert.Equal(t, "फीस की आखिरी तारीख क्या है?", fields["original_query"])
	assert.NotContains(t, fields, "query", "the echoed query is named original_query on the wire")
	assert.NotContains(t, fields, "translation_note", "note is omitted when translation succeeded")
	assert.Equal(t, "hi", fields["detected_language"])
	assert.Equal(t, false, fields["needs_human_handoff"])
}

func TestToChatResponseCarriesTranslationNote(t *testing.T) {
	out := &chat.ChatOutput{
		OriginalQuery:   "ප්‍රශ්නය",
		Response:        "The fee deadline is July 15th.",
		TranslationNote: "This answer could not be translated to Sinhala and is shown in English.",
	}

	raw, err := json.Marshal(ToChatResponse(out))
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.Contains(t, fields["translation_note"], "Sinhala")
}

func TestToChatResponseNil(t *testing.T) {
	assert.Nil(t, ToChatResponse(nil))
}
