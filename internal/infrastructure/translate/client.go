// Package translate provides the HTTP client for the translation service.
package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"campus-assist-api/internal/config"
)

// Client talks to the translation sidecar over JSON HTTP.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

type detectRequest struct {
	Text string `json:"text"`
}

type detectResponse struct {
	Language string `json:"language"`
}

type translateRequest struct {
	Text   string `json:"text"`
	Source string `json:"source"`
	Target string `json:"target"`
}

type translateResponse struct {
	TranslatedText string `json:"translated_text"`
}

func NewClient(cfg *config.TranslationConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		endpoint: cfg.Endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Detect returns the ISO 639-1 code of text's language.
func (c *Client) Detect(ctx context.Context, text string) (string, error) {
	var resp detectResponse
	if err := c.post(ctx, "/detect", &detectRequest{Text: text}, &resp); err != nil {
		return "", err
	}
	lang := strings.TrimSpace(strings.ToLower(resp.Language))
	if lang == "" {
		return "", fmt.Errorf("detect returned empty language")
	}
	return lang, nil
}

// Translate converts text from source to target language.
func (c *Client) Translate(ctx context.Context, text, source, target string) (string, error) {
	var resp translateResponse
	req := &translateRequest{Text: text, Source: source, Target: target}
	if err := c.post(ctx, "/translate", req, &resp); err != nil {
		return "", err
	}
	out := strings.TrimSpace(resp.TranslatedText)
	if out == "" {
		return "", fmt.Errorf("translate returned empty text")
	}
	return out, nil
}

func (c *Client) post(ctx context.Context, path string, in, out interface{}) error {
	reqBody, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := strings.TrimRight(c.endpoint, "/")
	if endpoint == "" {
		return fmt.Errorf("translation endpoint is empty")
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("invalid translation endpoint: %w", err)
	}
	u.Path = strings.TrimRight(u.Path, "/") + path

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("translation request failed: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return fmt.Errorf("translation request failed: status=%d", httpResp.StatusCode)
	}

	if err := json.NewDecoder(httpResp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
