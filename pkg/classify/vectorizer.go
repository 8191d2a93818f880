// Package classify implements the text classification engine: a TF-IDF
// vectorizer over word unigrams and bigrams feeding a multinomial
// logistic regression trained by gradient descent.
package classify

import (
	"math"
	"sort"
	"strings"

	"github.com/soundprediction/sympto/pkg/vocab"
)

// DefaultMaxFeatures caps the vectorizer vocabulary size.
const DefaultMaxFeatures = 5000

// Vector is a sparse feature vector keyed by feature index.
type Vector map[int]float64

// Vectorizer turns text into L2-normalized TF-IDF vectors over word
// unigrams and bigrams, english stopwords removed.
type Vectorizer struct {
	Vocabulary  map[string]int `json:"vocabulary"`
	IDF         []float64      `json:"idf"`
	MaxFeatures int            `json:"max_features"`
}

// NewVectorizer creates an unfitted vectorizer.
func NewVectorizer(maxFeatures int) *Vectorizer {
	if maxFeatures <= 0 {
		maxFeatures = DefaultMaxFeatures
	}
	return &Vectorizer{MaxFeatures: maxFeatures}
}

// tokenize splits normalized text into stopword-filtered word tokens.
func tokenize(text string) []string {
	fields := strings.Fields(vocab.Normalize(text))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < 2 || vocab.IsStopword(f) {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// terms expands tokens into unigram and bigram terms.
func terms(tokens []string) []string {
	out := make([]string, 0, len(tokens)*2)
	out = append(out, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		out = append(out, tokens[i]+" "+tokens[i+1])
	}
	return out
}

// Fit learns the vocabulary and IDF weights from the corpus. The
// vocabulary keeps the MaxFeatures most frequent terms, ties broken
// alphabetically so fitting is deterministic.
func (v *Vectorizer) Fit(texts []string) {
	termCounts := make(map[string]int)
	docCounts := make(map[string]int)

	for _, text := range texts {
		ts := terms(tokenize(text))
		seen := make(map[string]bool, len(ts))
		for _, t := range ts {
			termCounts[t]++
			if !seen[t] {
				seen[t] = true
				docCounts[t]++
			}
		}
	}

	kept := make([]string, 0, len(termCounts))
	for t := range termCounts {
		kept = append(kept, t)
	}
	sort.Slice(kept, func(i, j int) bool {
		if termCounts[kept[i]] != termCounts[kept[j]] {
			return termCounts[kept[i]] > termCounts[kept[j]]
		}
		return kept[i] < kept[j]
	})
	if len(kept) > v.MaxFeatures {
		kept = kept[:v.MaxFeatures]
	}
	sort.Strings(kept)

	n := float64(len(texts))
	v.Vocabulary = make(map[string]int, len(kept))
	v.IDF = make([]float64, len(kept))
	for i, t := range kept {
		v.Vocabulary[t] = i
		// smoothed idf, always positive
		v.IDF[i] = math.Log((1+n)/(1+float64(docCounts[t]))) + 1
	}
}

// Transform vectorizes a single text. Unknown terms are dropped; the
// result is L2-normalized. An empty vector is returned when nothing in
// the text is in vocabulary.
func (v *Vectorizer) Transform(text string) Vector {
	vec := make(Vector)
	for _, t := range terms(tokenize(text)) {
		if idx, ok := v.Vocabulary[t]; ok {
			vec[idx]++
		}
	}

	var norm float64
	for idx := range vec {
		vec[idx] *= v.IDF[idx]
		norm += vec[idx] * vec[idx]
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for idx := range vec {
			vec[idx] /= norm
		}
	}
	return vec
}

// TransformAll vectorizes every text.
func (v *Vectorizer) TransformAll(texts []string) []Vector {
	out := make([]Vector, len(texts))
	for i, t := range texts {
		out[i] = v.Transform(t)
	}
	return out
}

// FeatureNames returns vocabulary terms indexed by feature position.
func (v *Vectorizer) FeatureNames() []string {
	names := make([]string, len(v.Vocabulary))
	for t, i := range v.Vocabulary {
		names[i] = t
	}
	return names
}
