package rag

import (
	"context"
	"fmt"
	"sort"

	"github.com/soundprediction/sympto/pkg/embedder"
)

// Index is an exact-search vector index over reference documents.
type Index struct {
	docs    []Doc
	vectors [][]float32
	client  embedder.Client
}

// ScoredDoc is one retrieval hit.
type ScoredDoc struct {
	Doc   Doc
	Score float64
}

// BuildIndex embeds every document and returns a searchable index.
func BuildIndex(ctx context.Context, client embedder.Client, docs []Doc) (*Index, error) {
	if len(docs) == 0 {
		return &Index{client: client}, nil
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Text
	}

	vectors, err := client.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed documents: %w", err)
	}
	if len(vectors) != len(docs) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d documents", len(vectors), len(docs))
	}
	for i := range vectors {
		vectors[i] = embedder.NormalizeVector(vectors[i])
	}

	return &Index{docs: docs, vectors: vectors, client: client}, nil
}

// Len returns the number of indexed documents.
func (ix *Index) Len() int {
	return len(ix.docs)
}

// Search returns the k documents most similar to the query by cosine
// similarity, ties broken by disease name.
func (ix *Index) Search(ctx context.Context, query string, k int) ([]ScoredDoc, error) {
	if len(ix.docs) == 0 || k <= 0 {
		return nil, nil
	}

	qv, err := ix.client.EmbedSingle(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	qv = embedder.NormalizeVector(qv)

	hits := make([]ScoredDoc, len(ix.docs))
	for i, d := range ix.docs {
		hits[i] = ScoredDoc{Doc: d, Score: dot(qv, ix.vectors[i])}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Doc.Disease < hits[j].Doc.Disease
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
