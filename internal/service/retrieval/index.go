package retrieval

import (
	"encoding/gob"
	"fmt"
	"math"
	"os"
	"sort"
)

// Document is one indexed chunk of the source corpus.
type Document struct {
	Text   string
	Source string
	Part   int
}

// Index is a flat in-memory vector index searched by inner product. Vectors
// are normalized at build time, so inner product equals cosine similarity.
type Index struct {
	Dim       int
	Documents []Document
	Vectors   [][]float32
}

// Match pairs a document with its similarity score.
type Match struct {
	Document Document
	Score    float32
}

// LoadIndex reads a gob-encoded index from disk.
func LoadIndex(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open index %s: %w", path, err)
	}
	defer f.Close()

	var idx Index
	if err := gob.NewDecoder(f).Decode(&idx); err != nil {
		return nil, fmt.Errorf("decode index %s: %w", path, err)
	}
	if len(idx.Documents) != len(idx.Vectors) {
		return nil, fmt.Errorf("corrupt index %s: %d documents, %d vectors", path, len(idx.Documents), len(idx.Vectors))
	}
	return &idx, nil
}

// Len returns the number of indexed chunks.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.Documents)
}

// Search returns the k most similar documents to the query vector, best
// first. The query is normalized before scoring.
func (idx *Index) Search(query []float32, k int) []Match {
	if idx == nil || len(idx.Vectors) == 0 || len(query) != idx.Dim || k <= 0 {
		return nil
	}

	q := normalize(query)
	matches := make([]Match, 0, len(idx.Vectors))
	for i, vec := range idx.Vectors {
		matches = append(matches, Match{Document: idx.Documents[i], Score: dot(q, vec)})
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if k > len(matches) {
		k = len(matches)
	}
	return matches[:k]
}

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return v
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}
