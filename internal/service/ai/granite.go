package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// GraniteConfig holds the watsonx text-generation endpoint settings.
type GraniteConfig struct {
	URL       string
	APIKey    string
	ProjectID string
	ModelID   string
}

// Enabled reports whether the required credentials are present.
func (c GraniteConfig) Enabled() bool {
	return c.URL != "" && c.APIKey != "" && c.ProjectID != "" && c.ModelID != ""
}

// GraniteModel adapts the watsonx text-generation REST API to the eino chat
// model interface so it can sit inside a compose chain.
type GraniteModel struct {
	cfg        GraniteConfig
	httpClient *http.Client
}

var _ model.ChatModel = (*GraniteModel)(nil)

// NewGraniteModel builds a chat model against the watsonx REST API.
func NewGraniteModel(cfg GraniteConfig) (*GraniteModel, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("watsonx credentials missing, need URL, API key, project id and model id")
	}
	return &GraniteModel{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

type graniteParameters struct {
	MaxNewTokens      int     `json:"max_new_tokens"`
	Temperature       float64 `json:"temperature"`
	RepetitionPenalty float64 `json:"repetition_penalty"`
}

type graniteRequest struct {
	ModelID    string            `json:"model_id"`
	ProjectID  string            `json:"project_id"`
	Input      string            `json:"input"`
	Parameters graniteParameters `json:"parameters"`
}

type graniteResponse struct {
	Results []struct {
		GeneratedText string `json:"generated_text"`
	} `json:"results"`
}

// Generate flattens the chat messages into a single prompt and runs one
// text-generation call.
func (m *GraniteModel) Generate(ctx context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	payload := graniteRequest{
		ModelID:   m.cfg.ModelID,
		ProjectID: m.cfg.ProjectID,
		Input:     flattenMessages(input),
		Parameters: graniteParameters{
			MaxNewTokens:      200,
			Temperature:       0.5,
			RepetitionPenalty: 1.05,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode generation request: %w", err)
	}

	endpoint := strings.TrimRight(m.cfg.URL, "/") + "/ml/v1/text/generation?version=2023-05-29"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build generation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.cfg.APIKey)

	res, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call watsonx: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return nil, fmt.Errorf("watsonx returned %d: %s", res.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var parsed graniteResponse
	if err := json.NewDecoder(io.LimitReader(res.Body, 1<<20)).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode watsonx response: %w", err)
	}
	if len(parsed.Results) == 0 {
		return nil, fmt.Errorf("watsonx returned no results")
	}

	return schema.AssistantMessage(parsed.Results[0].GeneratedText, nil), nil
}

// Stream runs a single Generate and replays it as a one-element stream; the
// watsonx text-generation endpoint used here is request/response only.
func (m *GraniteModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

// BindTools is unsupported; the generation endpoint has no tool calling.
func (m *GraniteModel) BindTools(_ []*schema.ToolInfo) error {
	return fmt.Errorf("watsonx text generation does not support tools")
}

// flattenMessages renders a message list into the plain-text prompt the
// generation endpoint expects.
func flattenMessages(messages []*schema.Message) string {
	var b strings.Builder
	for _, msg := range messages {
		if msg == nil || msg.Content == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(msg.Content)
	}
	return b.String()
}
