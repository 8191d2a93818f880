package graph

import (
	"context"
	"sort"
	"strings"

	"github.com/soundprediction/sympto/pkg/types"
)

// RankOptions controls disease ranking behavior.
type RankOptions struct {
	// TopK limits the number of returned matches. Zero means no limit.
	TopK int

	// Jaccard selects intersection-over-union scoring. When false the
	// score is intersection over the input symptom count, which favors
	// recall for short symptom lists.
	Jaccard bool
}

// MatchSymptom reports whether an input symptom phrase matches a known
// symptom label. Matching is on normalized names and tolerates either
// side containing the other, so "severe headache" matches "headache".
func MatchSymptom(input, known string) bool {
	a := NormalizeName(input)
	b := NormalizeName(known)
	if a == "" || b == "" {
		return false
	}
	return a == b || strings.Contains(a, b) || strings.Contains(b, a)
}

// MatchSymptoms returns the subset of known symptom labels matched by
// the input phrases, preserving the known label spelling.
func MatchSymptoms(inputs, known []string) []string {
	matched := make([]string, 0)
	seen := make(map[string]bool)
	for _, k := range known {
		for _, in := range inputs {
			if MatchSymptom(in, k) {
				if !seen[k] {
					seen[k] = true
					matched = append(matched, k)
				}
				break
			}
		}
	}
	return matched
}

// RankDiseases scores every disease in the store against the input
// symptoms and returns matches ordered by descending score, then
// descending match count, then disease name. Inputs are first mapped
// into the store's symptom space, so one phrase can stand for several
// known symptoms and set arithmetic happens over symptoms, not phrases.
func RankDiseases(ctx context.Context, store Store, symptoms []string, opts RankOptions) ([]types.DiseaseMatch, error) {
	inputs := make([]string, 0, len(symptoms))
	for _, s := range symptoms {
		if n := NormalizeName(s); n != "" {
			inputs = append(inputs, n)
		}
	}
	if len(inputs) == 0 {
		return nil, nil
	}

	byDisease, err := store.AllDiseaseSymptoms(ctx)
	if err != nil {
		return nil, err
	}

	// Normalized name -> stored spelling, across every disease.
	labels := make(map[string]string)
	for _, known := range byDisease {
		for _, k := range known {
			labels[NormalizeName(k)] = k
		}
	}

	mapped := make(map[string]bool)
	for norm := range labels {
		for _, in := range inputs {
			if MatchSymptom(in, norm) {
				mapped[norm] = true
				break
			}
		}
	}
	if len(mapped) == 0 {
		return nil, nil
	}

	matches := make([]types.DiseaseMatch, 0, len(byDisease))
	for disease, known := range byDisease {
		knownSet := make(map[string]bool, len(known))
		for _, k := range known {
			knownSet[NormalizeName(k)] = true
		}

		matched := make([]string, 0, len(mapped))
		for norm := range mapped {
			if knownSet[norm] {
				matched = append(matched, labels[norm])
			}
		}
		if len(matched) == 0 {
			continue
		}

		var score float64
		if opts.Jaccard {
			union := len(knownSet)
			for norm := range mapped {
				if !knownSet[norm] {
					union++
				}
			}
			score = float64(len(matched)) / float64(union)
		} else {
			score = float64(len(matched)) / float64(len(mapped))
		}

		sort.Strings(matched)
		matches = append(matches, types.DiseaseMatch{
			Disease:         disease,
			Score:           score,
			MatchCount:      len(matched),
			MatchedSymptoms: matched,
			TotalDisease:    len(known),
			TotalInput:      len(mapped),
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		if matches[i].MatchCount != matches[j].MatchCount {
			return matches[i].MatchCount > matches[j].MatchCount
		}
		return matches[i].Disease < matches[j].Disease
	})

	if opts.TopK > 0 && len(matches) > opts.TopK {
		matches = matches[:opts.TopK]
	}
	return matches, nil
}
