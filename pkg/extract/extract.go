// Package extract pulls symptom mentions out of free-text patient
// descriptions, either by vocabulary phrase matching or with a language
// model.
package extract

import (
	"regexp"
	"sort"
	"strings"
)

var (
	punct      = regexp.MustCompile(`[^\w\s\-]`)
	whitespace = regexp.MustCompile(`\s+`)
	chunkSplit = regexp.MustCompile(`[.;,\n]| and | but | or `)
)

// DefaultMaxMatches caps the number of phrases returned per text.
const DefaultMaxMatches = 20

// NormalizeText lowercases, drops punctuation (keeping hyphens), and
// collapses whitespace.
func NormalizeText(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = punct.ReplaceAllString(s, " ")
	s = whitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// PhraseExtractor matches known symptom phrases against patient text.
type PhraseExtractor struct {
	// phrases sorted longest-first so "shortness of breath" wins over
	// "breath".
	phrases    []string
	MaxMatches int

	// Fallback controls whether unmatched text is split into candidate
	// chunks. Query paths want this on so canonicalization gets a shot
	// at novel phrasings; corpus aggregation wants it off.
	Fallback bool
}

// NewPhraseExtractor creates an extractor over the given vocabulary terms.
func NewPhraseExtractor(phrases []string) *PhraseExtractor {
	seen := make(map[string]bool)
	normalized := make([]string, 0, len(phrases))
	for _, p := range phrases {
		n := NormalizeText(p)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		normalized = append(normalized, n)
	}

	sort.Slice(normalized, func(i, j int) bool {
		if len(normalized[i]) != len(normalized[j]) {
			return len(normalized[i]) > len(normalized[j])
		}
		return normalized[i] < normalized[j]
	})

	return &PhraseExtractor{phrases: normalized, MaxMatches: DefaultMaxMatches, Fallback: true}
}

type span struct{ start, end int }

// Extract returns the unique symptom phrases found in text. Longer phrases
// are preferred and overlapping matches are suppressed. When nothing
// matches, the text is split into short chunks so canonicalization can
// still try to map them.
func (e *PhraseExtractor) Extract(text string) []string {
	normalized := NormalizeText(text)
	if normalized == "" {
		return nil
	}

	maxMatches := e.MaxMatches
	if maxMatches <= 0 {
		maxMatches = DefaultMaxMatches
	}

	var found []string
	var used []span

	for _, p := range e.phrases {
		pattern := regexp.MustCompile(`(?:^|\s)` + regexp.QuoteMeta(p) + `(?:$|\s)`)
		for _, loc := range pattern.FindAllStringIndex(normalized, -1) {
			s := span{start: loc[0], end: loc[1]}

			overlap := false
			for _, u := range used {
				if !(s.end <= u.start || s.start >= u.end) {
					overlap = true
					break
				}
			}
			if overlap {
				continue
			}

			used = append(used, s)
			found = append(found, p)

			if len(found) >= maxMatches {
				return found
			}
		}
	}

	if len(found) == 0 && e.Fallback {
		found = fallbackChunks(normalized, maxMatches)
	}

	return found
}

// fallbackChunks splits unmatched text into short candidate pieces.
func fallbackChunks(text string, maxMatches int) []string {
	var chunks []string
	for _, c := range chunkSplit.Split(text, -1) {
		c = strings.TrimSpace(c)
		if len(c) >= 2 && len(c) <= 60 {
			chunks = append(chunks, c)
		}
		if len(chunks) >= maxMatches {
			break
		}
	}
	return chunks
}
