package language

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// Translator converts text between languages. Translation is strictly best
// effort: the answer pipeline would rather reply in the wrong language than
// fail a send, so implementations return the input unchanged on error.
type Translator interface {
	Translate(ctx context.Context, text, target string) string
}

// NoopTranslator passes text through untouched; used when no translation
// endpoint is configured.
type NoopTranslator struct{}

func (NoopTranslator) Translate(_ context.Context, text, _ string) string {
	return text
}

// HTTPTranslator talks to a LibreTranslate-compatible endpoint.
type HTTPTranslator struct {
	endpoint   string
	httpClient *http.Client
}

// NewHTTPTranslator builds a translator against the given endpoint, for
// example "http://localhost:5000/translate".
func NewHTTPTranslator(endpoint string) *HTTPTranslator {
	return &HTTPTranslator{
		endpoint:   strings.TrimSpace(endpoint),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type translateRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
}

type translateResponse struct {
	TranslatedText string `json:"translatedText"`
}

// Translate requests a translation and falls back to the input text on any
// failure.
func (t *HTTPTranslator) Translate(ctx context.Context, text, target string) string {
	if t.endpoint == "" || strings.TrimSpace(text) == "" {
		return text
	}

	body, err := json.Marshal(translateRequest{Q: text, Source: "auto", Target: target})
	if err != nil {
		return text
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return text
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := t.httpClient.Do(req)
	if err != nil {
		log.Printf("[language] translation request failed: %v", err)
		return text
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		log.Printf("[language] translation endpoint returned %d", res.StatusCode)
		return text
	}

	var payload translateResponse
	if err := json.NewDecoder(io.LimitReader(res.Body, 1<<20)).Decode(&payload); err != nil {
		log.Printf("[language] decode translation failed: %v", err)
		return text
	}
	if payload.TranslatedText == "" {
		return text
	}
	return payload.TranslatedText
}
