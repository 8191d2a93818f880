// Package reason fuses the classifier and knowledge-graph engines into
// a single ranked prediction list.
package reason

import (
	"sort"

	"github.com/soundprediction/sympto/pkg/graph"
	"github.com/soundprediction/sympto/pkg/types"
)

// DefaultAlpha weights the classifier probability against the graph
// similarity score.
const DefaultAlpha = 0.6

// Fuse combines classifier predictions with graph matches as
// alpha*classifier + (1-alpha)*graph per disease. Diseases known to
// only one engine keep that engine's weighted score. The result is
// ordered by descending score, ties broken by disease name, and
// truncated to topK when topK is positive.
func Fuse(classifierPreds []types.Prediction, graphMatches []types.DiseaseMatch, alpha float64, topK int) []types.Prediction {
	if alpha < 0 || alpha > 1 {
		alpha = DefaultAlpha
	}

	type fused struct {
		score   float64
		matched []string
	}
	byDisease := make(map[string]*fused)

	for _, p := range classifierPreds {
		name := graph.NormalizeName(p.Disease)
		byDisease[name] = &fused{score: alpha * p.Score}
	}
	for _, m := range graphMatches {
		name := graph.NormalizeName(m.Disease)
		f := byDisease[name]
		if f == nil {
			f = &fused{}
			byDisease[name] = f
		}
		f.score += (1 - alpha) * m.Score
		f.matched = m.MatchedSymptoms
	}

	out := make([]types.Prediction, 0, len(byDisease))
	for name, f := range byDisease {
		out = append(out, types.Prediction{
			Disease:         name,
			Score:           f.score,
			Source:          types.SourceFused,
			MatchedSymptoms: f.matched,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Disease < out[j].Disease
	})
	if topK > 0 && len(out) > topK {
		out = out[:topK]
	}
	return out
}

// FromMatches converts graph matches into prediction form so a single
// engine can serve the same response shape as the fused path.
func FromMatches(matches []types.DiseaseMatch, topK int) []types.Prediction {
	out := make([]types.Prediction, 0, len(matches))
	for _, m := range matches {
		out = append(out, types.Prediction{
			Disease:         graph.NormalizeName(m.Disease),
			Score:           m.Score,
			Source:          types.SourceGraph,
			MatchedSymptoms: m.MatchedSymptoms,
		})
	}
	if topK > 0 && len(out) > topK {
		out = out[:topK]
	}
	return out
}
