package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"

	"campus-assist-api/internal/config"
	"campus-assist-api/pkg/metrics"
)

// Generator produces grounded answers through the default chat model.
// An empty completion counts as a failure; callers decide whether to
// retry or fall back.
type Generator struct {
	factory  *EinoFactory
	provider string
	model    string
}

// NewGenerator creates a generator bound to the default provider.
func NewGenerator(factory *EinoFactory, cfg *config.LLMConfig) *Generator {
	provider := cfg.DefaultProvider
	modelName := ""
	if p, ok := cfg.Providers[provider]; ok {
		modelName = p.Model
	}
	return &Generator{
		factory:  factory,
		provider: provider,
		model:    modelName,
	}
}

// Generate runs one chat completion with a system instruction and a
// user prompt.
func (g *Generator) Generate(ctx context.Context, system, prompt string) (string, error) {
	chatModel, err := g.factory.Default(ctx)
	if err != nil {
		return "", err
	}

	start := time.Now()
	msg, err := chatModel.Generate(ctx, []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(prompt),
	})
	metrics.LLMCallDuration.WithLabelValues(g.provider, g.model).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.LLMCallTotal.WithLabelValues(g.provider, g.model, "error").Inc()
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	out := ""
	if msg != nil {
		out = strings.TrimSpace(msg.Content)
	}
	if out == "" {
		metrics.LLMCallTotal.WithLabelValues(g.provider, g.model, "empty").Inc()
		return "", fmt.Errorf("chat completion returned empty content")
	}

	metrics.LLMCallTotal.WithLabelValues(g.provider, g.model, "ok").Inc()
	return out, nil
}
