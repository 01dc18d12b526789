// Package translation provides language detection and pivot translation
// with retry, caching and graceful degradation.
package translation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"campus-assist-api/internal/domain/entity"
	"campus-assist-api/pkg/logger"
	"campus-assist-api/pkg/metrics"
)

// Client is the minimal dependency on the translation backend.
type Client interface {
	Detect(ctx context.Context, text string) (string, error)
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// Cache is the read-through cache dependency. May be nil.
type Cache interface {
	GetOrLoadSafe(ctx context.Context, key string, ttl time.Duration, loader func() (interface{}, error)) ([]byte, error)
}

// Service wraps the translation client with the supported-language
// gate, one retry on transient failure, and a cached read-through.
// Failures degrade to verbatim passthrough instead of erroring: a
// response in the wrong language beats no response, and the caller
// lowers confidence accordingly.
type Service struct {
	client     Client
	cache      Cache
	retries    int
	retryDelay time.Duration
	cacheTTL   time.Duration
}

func NewService(client Client, cache Cache, retries int, retryDelay, cacheTTL time.Duration) *Service {
	if retries < 0 {
		retries = 0
	}
	if retryDelay <= 0 {
		retryDelay = 200 * time.Millisecond
	}
	if cacheTTL <= 0 {
		cacheTTL = 24 * time.Hour
	}
	return &Service{
		client:     client,
		cache:      cache,
		retries:    retries,
		retryDelay: retryDelay,
		cacheTTL:   cacheTTL,
	}
}

// Normalize resolves the language of a query. A declared supported code
// wins; anything else falls back to detection, and anything still
// unsupported degrades to the pivot language.
func (s *Service) Normalize(ctx context.Context, query, declared string) (lang string, degraded bool) {
	declared = strings.TrimSpace(strings.ToLower(declared))
	if declared != "" {
		if entity.IsSupportedLanguage(declared) {
			return declared, false
		}
		logger.Warn(ctx, "declared language unsupported, falling back to pivot", "language", declared)
		return entity.PivotLanguage, true
	}

	detected, err := s.detect(ctx, query)
	if err != nil {
		logger.Warn(ctx, "language detection failed, assuming pivot", "error", err.Error())
		return entity.PivotLanguage, true
	}
	if !entity.IsSupportedLanguage(detected) {
		logger.Warn(ctx, "detected language unsupported, falling back to pivot", "language", detected)
		return entity.PivotLanguage, true
	}
	return detected, false
}

// ToPivot translates text into the pivot language. Returns the text
// verbatim with degraded=true when translation fails.
func (s *Service) ToPivot(ctx context.Context, text, lang string) (string, bool) {
	return s.translateDegradable(ctx, text, lang, entity.PivotLanguage, "to_pivot")
}

// FromPivot translates pivot-language text back to lang. Returns the
// text verbatim with degraded=true when translation fails.
func (s *Service) FromPivot(ctx context.Context, text, lang string) (string, bool) {
	return s.translateDegradable(ctx, text, entity.PivotLanguage, lang, "from_pivot")
}

func (s *Service) translateDegradable(ctx context.Context, text, source, target, direction string) (string, bool) {
	if source == target || strings.TrimSpace(text) == "" {
		return text, false
	}

	out, err := s.translateCached(ctx, text, source, target, direction)
	if err != nil {
		logger.Warn(ctx, "translation degraded to passthrough",
			"direction", direction, "source", source, "target", target, "error", err.Error())
		metrics.TranslationTotal.WithLabelValues(direction, "degraded").Inc()
		return text, true
	}
	return out, false
}

func (s *Service) translateCached(ctx context.Context, text, source, target, direction string) (string, error) {
	if s.cache == nil {
		return s.translateWithRetry(ctx, text, source, target, direction)
	}

	key := translationKey(text, source, target)
	raw, err := s.cache.GetOrLoadSafe(ctx, key, s.cacheTTL, func() (interface{}, error) {
		return s.translateWithRetry(ctx, text, source, target, direction)
	})
	if err != nil {
		return "", err
	}

	var out string
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("failed to decode cached translation: %w", err)
	}
	return out, nil
}

func (s *Service) translateWithRetry(ctx context.Context, text, source, target, direction string) (string, error) {
	start := time.Now()
	defer func() {
		metrics.TranslationDuration.WithLabelValues(direction).Observe(time.Since(start).Seconds())
	}()

	var lastErr error
	for attempt := 0; attempt <= s.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(s.retryDelay):
			}
		}
		out, err := s.client.Translate(ctx, text, source, target)
		if err == nil {
			metrics.TranslationTotal.WithLabelValues(direction, "ok").Inc()
			return out, nil
		}
		lastErr = err
	}
	metrics.TranslationTotal.WithLabelValues(direction, "error").Inc()
	return "", lastErr
}

func (s *Service) detect(ctx context.Context, text string) (string, error) {
	start := time.Now()
	defer func() {
		metrics.TranslationDuration.WithLabelValues("detect").Observe(time.Since(start).Seconds())
	}()

	var lastErr error
	for attempt := 0; attempt <= s.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(s.retryDelay):
			}
		}
		lang, err := s.client.Detect(ctx, text)
		if err == nil {
			metrics.TranslationTotal.WithLabelValues("detect", "ok").Inc()
			return lang, nil
		}
		lastErr = err
	}
	metrics.TranslationTotal.WithLabelValues("detect", "error").Inc()
	return "", lastErr
}

func translationKey(text, source, target string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("tr:%s:%s:%s", source, target, hex.EncodeToString(sum[:16]))
}
