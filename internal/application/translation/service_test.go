package translation

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	detectLang   string
	detectErr    error
	translateErr error
	failures     int // errors returned before Translate succeeds

	detectCalls    int
	translateCalls int
}

func (f *fakeClient) Detect(ctx context.Context, text string) (string, error) {
	f.detectCalls++
	if f.detectErr != nil {
		return "", f.detectErr
	}
	return f.detectLang, nil
}

func (f *fakeClient) Translate(ctx context.Context, text, source, target string) (string, error) {
	f.translateCalls++
	if f.translateErr != nil {
		return "", f.translateErr
	}
	if f.translateCalls <= f.failures {
		return "", errors.New("transient failure")
	}
	return "[" + target + "] " + text, nil
}

func newTestService(client Client) *Service {
	return NewService(client, nil, 1, time.Millisecond, time.Hour)
}

func TestNormalizeDeclaredSupportedWins(t *testing.T) {
	client := &fakeClient{detectLang: "ta"}
	svc := newTestService(client)

	lang, degraded := svc.Normalize(context.Background(), "query", "hi")
	assert.Equal(t, "hi", lang)
	assert.False(t, degraded)
	assert.Zero(t, client.detectCalls, "declared language skips detection")
}

func TestNormalizeDeclaredUnsupportedDegrades(t *testing.T) {
	svc := newTestService(&fakeClient{})

	lang, degraded := svc.Normalize(context.Background(), "bonjour", "fr")
	assert.Equal(t, "en", lang)
	assert.True(t, degraded)
}

func TestNormalizeDetects(t *testing.T) {
	svc := newTestService(&fakeClient{detectLang: "gu"})

	lang, degraded := svc.Normalize(context.Background(), "query", "")
	assert.Equal(t, "gu", lang)
	assert.False(t, degraded)
}

func TestNormalizeDetectionFailureDegrades(t *testing.T) {
	svc := newTestService(&fakeClient{detectErr: errors.New("detector down")})

	lang, degraded := svc.Normalize(context.Background(), "query", "")
	assert.Equal(t, "en", lang)
	assert.True(t, degraded)
}

func TestNormalizeDetectedUnsupportedDegrades(t *testing.T) {
	svc := newTestService(&fakeClient{detectLang: "de"})

	lang, degraded := svc.Normalize(context.Background(), "query", "")
	assert.Equal(t, "en", lang)
	assert.True(t, degraded)
}

func TestToPivotTranslates(t *testing.T) {
	svc := newTestService(&fakeClient{})

	out, degraded := svc.ToPivot(context.Background(), "text", "hi")
	assert.Equal(t, "[en] text", out)
	assert.False(t, degraded)
}

func TestToPivotSameLanguageSkipsClient(t *testing.T) {
	client := &fakeClient{}
	svc := newTestService(client)

	out, degraded := svc.ToPivot(context.Background(), "already english", "en")
	assert.Equal(t, "already english", out)
	assert.False(t, degraded)
	assert.Zero(t, client.translateCalls)
}

func TestToPivotRetriesOnce(t *testing.T) {
	client := &fakeClient{failures: 1}
	svc := newTestService(client)

	out, degraded := svc.ToPivot(context.Background(), "text", "hi")
	assert.Equal(t, "[en] text", out)
	assert.False(t, degraded)
	assert.Equal(t, 2, client.translateCalls)
}

func TestToPivotFailureDegradesToPassthrough(t *testing.T) {
	svc := newTestService(&fakeClient{translateErr: errors.New("service down")})

	out, degraded := svc.ToPivot(context.Background(), "original text", "hi")
	assert.Equal(t, "original text", out, "verbatim passthrough")
	assert.True(t, degraded)
}

func TestFromPivotFailureDegradesToPassthrough(t *testing.T) {
	svc := newTestService(&fakeClient{translateErr: errors.New("service down")})

	out, degraded := svc.FromPivot(context.Background(), "english answer", "ta")
	assert.Equal(t, "english answer", out)
	assert.True(t, degraded)
}

type fakeCache struct {
	store map[string][]byte
	hits  int
}

func (f *fakeCache) GetOrLoadSafe(ctx context.Context, key string, ttl time.Duration, loader func() (interface{}, error)) ([]byte, error) {
	if b, ok := f.store[key]; ok {
		f.hits++
		return b, nil
	}
	v, err := loader()
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if f.store == nil {
		f.store = map[string][]byte{}
	}
	f.store[key] = b
	return b, nil
}

func TestTranslationIsCached(t *testing.T) {
	client := &fakeClient{}
	cache := &fakeCache{}
	svc := NewService(client, cache, 1, time.Millisecond, time.Hour)

	first, degraded := svc.ToPivot(context.Background(), "text", "hi")
	require.False(t, degraded)
	second, degraded := svc.ToPivot(context.Background(), "text", "hi")
	require.False(t, degraded)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, client.translateCalls)
	assert.Equal(t, 1, cache.hits)
}
