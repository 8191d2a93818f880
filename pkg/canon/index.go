package canon

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/soundprediction/sympto/pkg/embedder"
)

// Index is an exact nearest-neighbor index over vocabulary terms. Vectors
// are L2-normalized so inner product equals cosine similarity.
type Index struct {
	Terms   []string    `json:"terms"`
	Vectors [][]float32 `json:"vectors"`
}

// Candidate is a scored vocabulary term.
type Candidate struct {
	Term  string  `json:"term"`
	Score float64 `json:"score"`
}

// BuildIndex embeds the terms and returns a ready index.
func BuildIndex(ctx context.Context, client embedder.Client, terms []string) (*Index, error) {
	if len(terms) == 0 {
		return nil, fmt.Errorf("cannot build index over empty term list")
	}

	vectors, err := client.Embed(ctx, terms)
	if err != nil {
		return nil, fmt.Errorf("failed to embed terms: %w", err)
	}
	if len(vectors) != len(terms) {
		return nil, fmt.Errorf("expected %d vectors, got %d", len(terms), len(vectors))
	}

	for i := range vectors {
		vectors[i] = embedder.NormalizeVector(vectors[i])
	}

	return &Index{Terms: terms, Vectors: vectors}, nil
}

// Search returns the k nearest terms to the (already normalized) query
// vector, best first. Ties break alphabetically for deterministic output.
func (idx *Index) Search(query []float32, k int) []Candidate {
	if k <= 0 || len(idx.Terms) == 0 {
		return nil
	}

	candidates := make([]Candidate, len(idx.Terms))
	for i, v := range idx.Vectors {
		candidates[i] = Candidate{Term: idx.Terms[i], Score: dot(query, v)}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Term < candidates[j].Term
	})

	if k > len(candidates) {
		k = len(candidates)
	}
	return candidates[:k]
}

// Save writes the index as JSON.
func (idx *Index) Save(path string) error {
	data, err := json.Marshal(idx)
	if err != nil {
		return fmt.Errorf("failed to marshal index: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write index: %w", err)
	}
	return nil
}

// LoadIndex reads an index from a JSON file and validates its shape.
func LoadIndex(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}
	idx := &Index{}
	if err := json.Unmarshal(data, idx); err != nil {
		return nil, fmt.Errorf("failed to parse index: %w", err)
	}
	if len(idx.Terms) != len(idx.Vectors) {
		return nil, fmt.Errorf("index terms (%d) and vectors (%d) out of sync", len(idx.Terms), len(idx.Vectors))
	}
	return idx, nil
}

func dot(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
