package graph

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/soundprediction/sympto/pkg/dataset"
	"github.com/soundprediction/sympto/pkg/types"
)

// Role assignment thresholds as fractions of a disease's record count.
// A symptom reported in a large share of a disease's records is primary,
// a moderate share secondary, anything below that a complication.
const (
	primaryFraction   = 0.30
	secondaryFraction = 0.10
)

// Extractor pulls symptom phrases out of free text.
type Extractor interface {
	Extract(text string) []string
}

// BuildResult summarizes a graph build run.
type BuildResult struct {
	Diseases      int `json:"diseases"`
	Symptoms      int `json:"symptoms"`
	Edges         int `json:"edges"`
	RecordsUsed   int `json:"records_used"`
	RecordsFailed int `json:"records_failed"`
}

// Builder populates a graph store from a labeled symptom corpus.
type Builder struct {
	store     Store
	extractor Extractor
	logger    *slog.Logger
}

// NewBuilder creates a graph builder writing into store.
func NewBuilder(store Store, extractor Extractor, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{store: store, extractor: extractor, logger: logger}
}

// Build aggregates symptom mentions per disease across the corpus,
// assigns symptom roles by how often each symptom appears in that
// disease's records, and upserts the resulting nodes and edges.
func (b *Builder) Build(ctx context.Context, corpus *dataset.Corpus) (*BuildResult, error) {
	type diseaseAgg struct {
		records  int
		symptoms map[string]int
	}

	agg := make(map[string]*diseaseAgg)
	result := &BuildResult{}

	for _, rec := range corpus.Records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		disease := NormalizeName(rec.Label)
		if disease == "" {
			result.RecordsFailed++
			continue
		}
		found := b.extractor.Extract(rec.Text)
		if len(found) == 0 {
			result.RecordsFailed++
			continue
		}

		da := agg[disease]
		if da == nil {
			da = &diseaseAgg{symptoms: make(map[string]int)}
			agg[disease] = da
		}
		da.records++
		result.RecordsUsed++

		seen := make(map[string]bool, len(found))
		for _, s := range found {
			name := NormalizeName(s)
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			da.symptoms[name]++
		}
	}

	diseases := make([]string, 0, len(agg))
	for d := range agg {
		diseases = append(diseases, d)
	}
	sort.Strings(diseases)

	symptomUUIDs := make(map[string]string)

	for _, disease := range diseases {
		da := agg[disease]

		ranked := rankedSymptoms(da.symptoms)
		diseaseNode := &types.Node{
			Uuid:        uuid.New().String(),
			Name:        disease,
			Kind:        types.DiseaseNode,
			PrefLabel:   disease,
			Explanation: explanationSentence(disease, ranked),
		}
		if err := b.store.UpsertNode(ctx, diseaseNode); err != nil {
			return nil, fmt.Errorf("upsert disease %q: %w", disease, err)
		}
		stored, err := b.store.GetDisease(ctx, disease)
		if err != nil {
			return nil, err
		}

		for _, symptom := range ranked {
			support := da.symptoms[symptom]
			symUUID, ok := symptomUUIDs[symptom]
			if !ok {
				node := &types.Node{
					Uuid:      uuid.New().String(),
					Name:      symptom,
					Kind:      types.SymptomNode,
					PrefLabel: symptom,
				}
				if err := b.store.UpsertNode(ctx, node); err != nil {
					return nil, fmt.Errorf("upsert symptom %q: %w", symptom, err)
				}
				got, err := b.store.GetSymptom(ctx, symptom)
				if err != nil {
					return nil, err
				}
				symUUID = got.Uuid
				symptomUUIDs[symptom] = symUUID
			}

			edge := &types.Edge{
				Uuid:        uuid.New().String(),
				DiseaseUUID: stored.Uuid,
				SymptomUUID: symUUID,
				Role:        assignRole(support, da.records),
				Support:     support,
			}
			if err := b.store.UpsertEdge(ctx, edge); err != nil {
				return nil, fmt.Errorf("upsert edge %s -> %s: %w", disease, symptom, err)
			}
			result.Edges++
		}

		b.logger.Debug("built disease",
			slog.String("disease", disease),
			slog.Int("records", da.records),
			slog.Int("symptoms", len(ranked)))
	}

	result.Diseases = len(diseases)
	result.Symptoms = len(symptomUUIDs)

	b.logger.Info("graph build complete",
		slog.Int("diseases", result.Diseases),
		slog.Int("symptoms", result.Symptoms),
		slog.Int("edges", result.Edges),
		slog.Int("records_used", result.RecordsUsed),
		slog.Int("records_failed", result.RecordsFailed))

	return result, nil
}

func assignRole(support, records int) types.SymptomRole {
	if records <= 0 {
		return types.RoleComplication
	}
	frac := float64(support) / float64(records)
	switch {
	case frac >= primaryFraction:
		return types.RolePrimary
	case frac >= secondaryFraction:
		return types.RoleSecondary
	default:
		return types.RoleComplication
	}
}

// rankedSymptoms orders symptoms by descending support, then name.
func rankedSymptoms(counts map[string]int) []string {
	names := make([]string, 0, len(counts))
	for n := range counts {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}

// explanationSentence renders a short natural-language description of a
// disease from its most supported symptoms.
func explanationSentence(disease string, ranked []string) string {
	top := ranked
	if len(top) > 5 {
		top = top[:5]
	}
	switch len(top) {
	case 0:
		return ""
	case 1:
		return fmt.Sprintf("%s is commonly associated with %s.", disease, top[0])
	default:
		head := strings.Join(top[:len(top)-1], ", ")
		return fmt.Sprintf("%s is commonly associated with %s and %s.", disease, head, top[len(top)-1])
	}
}
