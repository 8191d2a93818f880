// Package vocab mines symptom-phrase candidates from the corpus. The
// resulting vocabulary feeds phrase extraction and canonicalization.
package vocab

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
)

var nonAlpha = regexp.MustCompile(`[^a-z ]`)

// Normalize lowercases text and strips everything but letters and spaces.
func Normalize(text string) string {
	return nonAlpha.ReplaceAllString(strings.ToLower(text), "")
}

// Options controls candidate mining.
type Options struct {
	// MinCount is the occurrence count a candidate must exceed to be kept.
	MinCount int
	// MinLength is the minimum character length for a unigram.
	MinLength int
}

// DefaultOptions returns the mining thresholds used by the pipeline.
func DefaultOptions() Options {
	return Options{MinCount: 10, MinLength: 4}
}

// Vocabulary is the mined set of symptom-phrase candidates.
type Vocabulary struct {
	Terms []string `json:"terms"`
}

// Contains reports whether term is part of the vocabulary.
func (v *Vocabulary) Contains(term string) bool {
	for _, t := range v.Terms {
		if t == term {
			return true
		}
	}
	return false
}

// Mine extracts unigram and bigram candidates from the texts. Stopwords,
// short unigrams, and known filler bigrams are filtered; candidates seen
// MinCount times or fewer are dropped. The result is sorted.
func Mine(texts []string, opts Options) *Vocabulary {
	if opts.MinCount <= 0 {
		opts.MinCount = DefaultOptions().MinCount
	}
	if opts.MinLength <= 0 {
		opts.MinLength = DefaultOptions().MinLength
	}

	counts := make(map[string]int)

	for _, text := range texts {
		tokens := strings.Fields(Normalize(text))

		for i, w1 := range tokens {
			// A bad first token disqualifies the bigram too.
			if englishStopwords[w1] || len(w1) < opts.MinLength {
				continue
			}
			counts[w1]++

			if i < len(tokens)-1 {
				w2 := tokens[i+1]
				bigram := w1 + " " + w2
				if englishStopwords[w2] || stopPhrases[bigram] {
					continue
				}
				counts[bigram]++
			}
		}
	}

	var terms []string
	for term, count := range counts {
		if count > opts.MinCount {
			terms = append(terms, term)
		}
	}
	sort.Strings(terms)

	return &Vocabulary{Terms: terms}
}

// Save writes the vocabulary as JSON.
func (v *Vocabulary) Save(path string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal vocabulary: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write vocabulary: %w", err)
	}
	return nil
}

// Load reads a vocabulary from a JSON file.
func Load(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vocabulary: %w", err)
	}
	v := &Vocabulary{}
	if err := json.Unmarshal(data, v); err != nil {
		return nil, fmt.Errorf("failed to parse vocabulary: %w", err)
	}
	return v, nil
}
