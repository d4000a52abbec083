// Package outbreak annotates answers with live global case counts.
package outbreak

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// DefaultEndpoint is the public disease.sh worldwide summary.
const DefaultEndpoint = "https://disease.sh/v3/covid-19/all"

var triggerWords = []string{"covid", "outbreak", "dengue"}

// Client fetches global active case numbers. All failures are swallowed; an
// outbreak note is decoration, never a reason to fail an answer.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient builds a client; pass "" to use the public endpoint.
func NewClient(endpoint string) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Relevant reports whether the question mentions an outbreak topic.
func Relevant(question string) bool {
	low := strings.ToLower(question)
	for _, w := range triggerWords {
		if strings.Contains(low, w) {
			return true
		}
	}
	return false
}

// Note returns a note about current global active cases, or "" when the data
// cannot be fetched.
func (c *Client) Note(ctx context.Context) string {
	if c == nil {
		return ""
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return ""
	}
	res, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("[outbreak] fetch failed: %v", err)
		return ""
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		log.Printf("[outbreak] endpoint returned %d", res.StatusCode)
		return ""
	}

	var payload struct {
		Active json.Number `json:"active"`
	}
	if err := json.NewDecoder(io.LimitReader(res.Body, 1<<20)).Decode(&payload); err != nil {
		log.Printf("[outbreak] decode failed: %v", err)
		return ""
	}
	if payload.Active == "" {
		return ""
	}

	return fmt.Sprintf("Note: Global active COVID cases (approx): %s", payload.Active)
}
