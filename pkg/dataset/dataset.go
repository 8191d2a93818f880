// Package dataset loads the symptom-to-disease corpus used to build the
// knowledge graph and train the classifier.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"os"
	"sort"
	"strings"
)

// Record is a single labeled symptom description.
type Record struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// Corpus holds the loaded dataset.
type Corpus struct {
	Records []Record
	// Skipped counts rows dropped for missing label or text.
	Skipped int
}

// Load reads a CSV corpus with "label" and "text" columns. Rows with a
// missing label or text are skipped and counted; exact duplicate rows are
// dropped.
func Load(path string) (*Corpus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	return Read(f)
}

// Read parses a corpus from r. The first row is treated as a header and
// used to locate the label and text columns.
func Read(r io.Reader) (*Corpus, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	labelIdx, textIdx := -1, -1
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "label":
			labelIdx = i
		case "text":
			textIdx = i
		}
	}
	if labelIdx < 0 || textIdx < 0 {
		return nil, fmt.Errorf("dataset header must contain label and text columns, got %v", header)
	}

	corpus := &Corpus{}
	seen := make(map[string]bool)

	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		if len(row) <= labelIdx || len(row) <= textIdx {
			corpus.Skipped++
			continue
		}

		label := strings.TrimSpace(row[labelIdx])
		text := strings.TrimSpace(row[textIdx])
		if label == "" || text == "" {
			corpus.Skipped++
			continue
		}

		key := label + "\x00" + text
		if seen[key] {
			continue
		}
		seen[key] = true

		corpus.Records = append(corpus.Records, Record{Label: label, Text: text})
	}

	return corpus, nil
}

// Labels returns the sorted set of distinct labels in the corpus.
func (c *Corpus) Labels() []string {
	set := make(map[string]bool)
	for _, r := range c.Records {
		set[r.Label] = true
	}
	labels := make([]string, 0, len(set))
	for l := range set {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}

// Texts returns the record texts in corpus order.
func (c *Corpus) Texts() []string {
	texts := make([]string, len(c.Records))
	for i, r := range c.Records {
		texts[i] = r.Text
	}
	return texts
}

// Split shuffles the corpus with the given seed and divides it into train
// and test subsets. testFraction outside (0,1) falls back to 0.2.
func (c *Corpus) Split(testFraction float64, seed int64) (train, test []Record) {
	if testFraction <= 0 || testFraction >= 1 {
		testFraction = 0.2
	}

	shuffled := make([]Record, len(c.Records))
	copy(shuffled, c.Records)

	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	testN := int(float64(len(shuffled)) * testFraction)
	return shuffled[testN:], shuffled[:testN]
}
