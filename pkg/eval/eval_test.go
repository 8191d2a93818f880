package eval

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/sympto/pkg/dataset"
	"github.com/soundprediction/sympto/pkg/types"
)

// keywordPredictor predicts by keyword lookup, ranked answers canned.
func keywordPredictor(answers map[string][]string) PredictFunc {
	return func(ctx context.Context, text string) ([]types.Prediction, error) {
		for keyword, ranked := range answers {
			if strings.Contains(text, keyword) {
				preds := make([]types.Prediction, len(ranked))
				for i, d := range ranked {
					preds[i] = types.Prediction{Disease: d, Score: 1 - float64(i)*0.1}
				}
				return preds, nil
			}
		}
		return nil, errors.New("no match")
	}
}

func testSet() []dataset.Record {
	return []dataset.Record{
		{Label: "influenza", Text: "fever and chills"},
		{Label: "influenza", Text: "fever and aches"},
		{Label: "migraine", Text: "headache and nausea"},
		{Label: "migraine", Text: "headache with aura"},
	}
}

func TestEvaluate(t *testing.T) {
	predict := keywordPredictor(map[string][]string{
		"fever":    {"influenza", "migraine"},
		"headache": {"influenza", "migraine"}, // wrong at rank 1, right at rank 2
	})

	report, err := Evaluate(context.Background(), "graph", predict, testSet(), 2, nil)
	require.NoError(t, err)

	assert.Equal(t, 4, report.Records)
	assert.Zero(t, report.Failed)
	assert.InDelta(t, 0.5, report.Accuracy, 1e-9)
	assert.InDelta(t, 1.0, report.TopKAccuracy, 1e-9, "migraine is found at rank 2")

	require.Len(t, report.PerClass, 2)
	flu := report.PerClass[0]
	assert.Equal(t, "influenza", flu.Disease)
	assert.Equal(t, 2, flu.Support)
	// influenza predicted 4 times, correct twice
	assert.InDelta(t, 0.5, flu.Precision, 1e-9)
	assert.InDelta(t, 1.0, flu.Recall, 1e-9)

	mig := report.PerClass[1]
	assert.InDelta(t, 0.0, mig.Recall, 1e-9)
}

func TestEvaluateCountsFailures(t *testing.T) {
	predict := keywordPredictor(map[string][]string{"fever": {"influenza"}})

	report, err := Evaluate(context.Background(), "graph", predict, testSet(), 3, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Failed)
	assert.InDelta(t, 0.5, report.Accuracy, 1e-9)
}

func TestEvaluateEmptyTestSet(t *testing.T) {
	_, err := Evaluate(context.Background(), "graph", nil, nil, 3, nil)
	assert.Error(t, err)
}

func TestCompareOrdersByAccuracy(t *testing.T) {
	good := keywordPredictor(map[string][]string{
		"fever":    {"influenza"},
		"headache": {"migraine"},
	})
	bad := keywordPredictor(map[string][]string{
		"fever":    {"migraine"},
		"headache": {"influenza"},
	})

	cmp, err := Compare(context.Background(), map[string]PredictFunc{
		"classifier": bad,
		"hybrid":     good,
	}, testSet(), 1, nil)
	require.NoError(t, err)

	require.Len(t, cmp.Engines, 2)
	assert.Equal(t, "hybrid", cmp.Engines[0].Engine)
	assert.InDelta(t, 1.0, cmp.Engines[0].Accuracy, 1e-9)
	assert.Equal(t, "classifier", cmp.Engines[1].Engine)
}

func TestWriteYAML(t *testing.T) {
	predict := keywordPredictor(map[string][]string{"fever": {"influenza"}, "headache": {"migraine"}})
	report, err := Evaluate(context.Background(), "hybrid", predict, testSet(), 3, nil)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "report.yaml")
	require.NoError(t, WriteYAML(path, report))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "engine: hybrid")
	assert.Contains(t, string(data), "accuracy: 1")
}
