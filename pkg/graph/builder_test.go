package graph

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/sympto/pkg/dataset"
	"github.com/soundprediction/sympto/pkg/extract"
	"github.com/soundprediction/sympto/pkg/types"
)

// buildTinyGraph seeds a store straight from a disease -> symptoms map.
func buildTinyGraph(ctx context.Context, store Store, data map[string][]string) error {
	i := 0
	symptomUUIDs := make(map[string]string)
	for disease, symptoms := range data {
		dUUID := fmt.Sprintf("d-%d", i)
		i++
		if err := store.UpsertNode(ctx, &types.Node{
			Uuid: dUUID, Name: disease, Kind: types.DiseaseNode, PrefLabel: disease,
		}); err != nil {
			return err
		}
		for _, s := range symptoms {
			sUUID, ok := symptomUUIDs[s]
			if !ok {
				sUUID = fmt.Sprintf("s-%d", len(symptomUUIDs))
				if err := store.UpsertNode(ctx, &types.Node{
					Uuid: sUUID, Name: s, Kind: types.SymptomNode, PrefLabel: s,
				}); err != nil {
					return err
				}
				symptomUUIDs[s] = sUUID
			}
			if err := store.UpsertEdge(ctx, &types.Edge{
				Uuid:        fmt.Sprintf("e-%s-%s", dUUID, sUUID),
				DiseaseUUID: dUUID,
				SymptomUUID: sUUID,
				Role:        types.RolePrimary,
				Support:     1,
			}); err != nil {
				return err
			}
		}
	}
	return nil
}

func TestBuilderBuild(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	extractor := extract.NewPhraseExtractor([]string{"fever", "headache", "nausea", "chills"})
	builder := NewBuilder(store, extractor, nil)

	corpus := &dataset.Corpus{Records: []dataset.Record{
		{Label: "influenza", Text: "I have a fever and chills"},
		{Label: "influenza", Text: "fever with a mild headache"},
		{Label: "influenza", Text: "running a fever again"},
		{Label: "migraine", Text: "pounding headache and nausea"},
		{Label: "migraine", Text: "the headache will not stop"},
	}}

	result, err := builder.Build(ctx, corpus)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Diseases)
	assert.Equal(t, 4, result.Symptoms)
	assert.Equal(t, 5, result.RecordsUsed)
	assert.Zero(t, result.RecordsFailed)

	symptoms, err := store.DiseaseSymptoms(ctx, "influenza")
	require.NoError(t, err)
	assert.Equal(t, []string{"chills", "fever", "headache"}, symptoms)

	// fever appears in 3/3 influenza records, so it is primary
	primary, err := store.DiseaseSymptoms(ctx, "influenza", types.RolePrimary)
	require.NoError(t, err)
	assert.Contains(t, primary, "fever")

	disease, err := store.GetDisease(ctx, "influenza")
	require.NoError(t, err)
	assert.Contains(t, disease.Explanation, "influenza is commonly associated with")
	assert.Contains(t, disease.Explanation, "fever")
}

func TestBuilderSkipsUnusableRecords(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	extractor := extract.NewPhraseExtractor([]string{"fever"})
	extractor.Fallback = false
	builder := NewBuilder(store, extractor, nil)

	corpus := &dataset.Corpus{Records: []dataset.Record{
		{Label: "influenza", Text: "a fever for days"},
		{Label: "", Text: "a fever for days"},
		{Label: "influenza", Text: "nothing recognizable here"},
	}}

	result, err := builder.Build(ctx, corpus)
	require.NoError(t, err)
	assert.Equal(t, 1, result.RecordsUsed)
	assert.Equal(t, 2, result.RecordsFailed)
}

func TestAssignRole(t *testing.T) {
	assert.Equal(t, types.RolePrimary, assignRole(3, 10))
	assert.Equal(t, types.RoleSecondary, assignRole(1, 10))
	assert.Equal(t, types.RoleComplication, assignRole(1, 50))
	assert.Equal(t, types.RoleComplication, assignRole(1, 0))
}

func TestExplanationSentence(t *testing.T) {
	assert.Empty(t, explanationSentence("flu", nil))
	assert.Equal(t,
		"flu is commonly associated with fever.",
		explanationSentence("flu", []string{"fever"}))
	assert.Equal(t,
		"flu is commonly associated with fever, chills and headache.",
		explanationSentence("flu", []string{"fever", "chills", "headache"}))
}
