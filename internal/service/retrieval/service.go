package retrieval

import (
	"context"
	"log"
	"strings"
)

// DefaultTopK is how many chunks back a typical answer.
const DefaultTopK = 3

// Service resolves a query to its most relevant corpus chunks. Both the index
// and the embedder are optional; when either is missing the service reports
// itself disabled and Retrieve returns no context.
type Service struct {
	index    *Index
	embedder Embedder
	topK     int
}

// NewService builds a retrieval service. Pass a nil index or embedder to run
// without retrieval; answers then fall back to the model alone.
func NewService(index *Index, embedder Embedder, topK int) *Service {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Service{index: index, embedder: embedder, topK: topK}
}

// Enabled reports whether the service can actually retrieve.
func (s *Service) Enabled() bool {
	return s != nil && s.index.Len() > 0 && s.embedder != nil
}

// ChunkCount returns the number of indexed chunks, 0 when disabled.
func (s *Service) ChunkCount() int {
	if s == nil {
		return 0
	}
	return s.index.Len()
}

// Retrieve embeds the query and returns the top matching chunk texts. A
// disabled service returns nil without error; embedding failures are logged
// and swallowed so the caller can still answer without context.
func (s *Service) Retrieve(ctx context.Context, query string) []string {
	if !s.Enabled() || strings.TrimSpace(query) == "" {
		return nil
	}

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		log.Printf("[retrieval] embedding failed, answering without context: %v", err)
		return nil
	}

	matches := s.index.Search(vec, s.topK)
	texts := make([]string, 0, len(matches))
	for _, m := range matches {
		texts = append(texts, m.Document.Text)
	}
	return texts
}
