// Package canon maps extracted symptom phrases onto canonical vocabulary
// terms using embedding similarity.
package canon

import (
	"context"
	"fmt"

	"github.com/soundprediction/sympto/pkg/embedder"
	"github.com/soundprediction/sympto/pkg/extract"
)

const (
	// DefaultAcceptThreshold is the minimum cosine similarity to accept
	// the top match.
	DefaultAcceptThreshold = 0.62
	// DefaultAmbiguityDelta is the minimum gap between the top two
	// scores; below it the match is ambiguous.
	DefaultAmbiguityDelta = 0.08
)

// Result is the outcome of canonicalizing a single phrase.
type Result struct {
	Input      string      `json:"input"`
	Normalized string      `json:"normalized"`
	Accepted   bool        `json:"accepted"`
	Match      string      `json:"match,omitempty"`
	Score      float64     `json:"score,omitempty"`
	Ambiguous  bool        `json:"ambiguous"`
	Candidates []Candidate `json:"candidates"`
}

// Canonicalizer resolves free-text symptom phrases to vocabulary terms.
type Canonicalizer struct {
	index  *Index
	client embedder.Client

	AcceptThreshold float64
	AmbiguityDelta  float64
}

// New creates a Canonicalizer over the given index.
func New(index *Index, client embedder.Client) *Canonicalizer {
	return &Canonicalizer{
		index:           index,
		client:          client,
		AcceptThreshold: DefaultAcceptThreshold,
		AmbiguityDelta:  DefaultAmbiguityDelta,
	}
}

// Canonicalize resolves a single phrase. k controls how many candidates are
// reported; the ambiguity check needs k >= 2.
func (c *Canonicalizer) Canonicalize(ctx context.Context, phrase string, k int) (*Result, error) {
	if k < 2 {
		k = 2
	}

	normalized := extract.NormalizeText(phrase)
	result := &Result{Input: phrase, Normalized: normalized}
	if normalized == "" {
		return result, nil
	}

	vec, err := c.client.EmbedSingle(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to embed phrase %q: %w", phrase, err)
	}
	vec = embedder.NormalizeVector(vec)

	candidates := c.index.Search(vec, k)
	result.Candidates = candidates
	if len(candidates) == 0 {
		return result, nil
	}

	top1 := candidates[0]
	if len(candidates) >= 2 {
		result.Ambiguous = top1.Score-candidates[1].Score < c.AmbiguityDelta
	}

	if top1.Score >= c.AcceptThreshold && !result.Ambiguous {
		result.Accepted = true
		result.Match = top1.Term
		result.Score = top1.Score
	}

	return result, nil
}

// CanonicalizeAll resolves each phrase and returns the accepted canonical
// terms, deduplicated in input order, alongside the per-phrase results.
func (c *Canonicalizer) CanonicalizeAll(ctx context.Context, phrases []string) ([]string, []*Result, error) {
	var accepted []string
	seen := make(map[string]bool)
	results := make([]*Result, 0, len(phrases))

	for _, p := range phrases {
		r, err := c.Canonicalize(ctx, p, 2)
		if err != nil {
			return nil, nil, err
		}
		results = append(results, r)
		if r.Accepted && !seen[r.Match] {
			seen[r.Match] = true
			accepted = append(accepted, r.Match)
		}
	}

	return accepted, results, nil
}

// Synonyms returns the k nearest vocabulary terms to the given term.
func (c *Canonicalizer) Synonyms(ctx context.Context, term string, k int) ([]Candidate, error) {
	vec, err := c.client.EmbedSingle(ctx, extract.NormalizeText(term))
	if err != nil {
		return nil, fmt.Errorf("failed to embed term %q: %w", term, err)
	}
	return c.index.Search(embedder.NormalizeVector(vec), k), nil
}
