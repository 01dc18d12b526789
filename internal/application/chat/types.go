package chat

import (
	"time"

	"campus-assist-api/internal/domain/entity"
)

// ChatInput is one user query entering the pipeline.
type ChatInput struct {
	Query     string
	SessionID string
	Language  string
	UserID    string
}

// ChatOutput is the answered query, carrying both the user-language and
// pivot-language forms for auditing.
type ChatOutput struct {
	SessionID         string
	ConversationID    string
	OriginalQuery     string
	DetectedLanguage  string
	LanguageName      string
	EnglishQuery      string
	Response          string
	EnglishResponse   string
	TranslationNote   string
	Confidence        float64
	NeedsHumanHandoff bool
	Sources           []entity.ChunkSource
	Timestamp         time.Time
}

// StageState classifies a stage outcome.
type StageState int

const (
	StateOk StageState = iota
	StateDegraded
	StateFailed
)

func (s StageState) String() string {
	switch s {
	case StateOk:
		return "ok"
	case StateDegraded:
		return "degraded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// StageResult records how one pipeline stage went. Degraded stages
// carry a reason and lower the final confidence.
type StageResult struct {
	Stage  string
	State  StageState
	Reason string
}

type stageLog []StageResult

func (l *stageLog) ok(stage string) {
	*l = append(*l, StageResult{Stage: stage, State: StateOk})
}

func (l *stageLog) degraded(stage, reason string) {
	*l = append(*l, StageResult{Stage: stage, State: StateDegraded, Reason: reason})
}

func (l *stageLog) failed(stage, reason string) {
	*l = append(*l, StageResult{Stage: stage, State: StateFailed, Reason: reason})
}

func (l stageLog) degradeCount() int {
	n := 0
	for _, r := range l {
		if r.State == StateDegraded {
			n++
		}
	}
	return n
}
