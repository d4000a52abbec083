package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultBaseURL points at a locally running answer service.
const DefaultBaseURL = "http://localhost:5050"

// Response is the answer payload returned by the /chat endpoint.
type Response struct {
	Reply string `json:"reply"`
	Lang  string `json:"lang"`
}

type request struct {
	Query string `json:"query"`
	Lang  string `json:"lang"`
}

// Client issues one POST /chat per query. No retries: a failed send is
// surfaced to the user, who retries by sending again.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

// WithBaseURL overrides the answer service address.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(baseURL); trimmed != "" {
			c.baseURL = strings.TrimRight(trimmed, "/")
		}
	}
}

// WithHTTPClient swaps the underlying HTTP client, mainly for tests.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient builds a client against DefaultBaseURL unless overridden.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send submits one query with its language hint and returns the reply. A
// network-level failure comes back as *TransportError, a non-2xx status as
// *HTTPError.
func (c *Client) Send(ctx context.Context, query, lang string) (Response, error) {
	body, err := json.Marshal(request{Query: query, Lang: lang})
	if err != nil {
		return Response{}, fmt.Errorf("marshal chat request: %w", err)
	}

	url := c.baseURL + "/chat"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Response{}, fmt.Errorf("create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return Response{}, &TransportError{URL: url, Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return Response{}, &HTTPError{
			StatusCode: res.StatusCode,
			URL:        url,
			Body:       strings.TrimSpace(string(buf)),
		}
	}

	var payload Response
	if err := json.NewDecoder(io.LimitReader(res.Body, 1<<20)).Decode(&payload); err != nil {
		return Response{}, fmt.Errorf("decode chat response: %w", err)
	}
	return payload, nil
}
