// Package eval measures diagnosis quality on held-out labeled records
// and renders comparison reports.
package eval

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/soundprediction/sympto/pkg/dataset"
	"github.com/soundprediction/sympto/pkg/graph"
	"github.com/soundprediction/sympto/pkg/types"
)

// PredictFunc returns ranked predictions for a patient description.
type PredictFunc func(ctx context.Context, text string) ([]types.Prediction, error)

// ClassReport holds per-disease metrics.
type ClassReport struct {
	Disease   string  `yaml:"disease" json:"disease"`
	Support   int     `yaml:"support" json:"support"`
	Precision float64 `yaml:"precision" json:"precision"`
	Recall    float64 `yaml:"recall" json:"recall"`
	F1        float64 `yaml:"f1" json:"f1"`
}

// Report summarizes one engine's performance on a test set.
type Report struct {
	Engine         string        `yaml:"engine" json:"engine"`
	Records        int           `yaml:"records" json:"records"`
	Failed         int           `yaml:"failed" json:"failed"`
	Accuracy       float64       `yaml:"accuracy" json:"accuracy"`
	TopKAccuracy   float64       `yaml:"top_k_accuracy" json:"top_k_accuracy"`
	K              int           `yaml:"k" json:"k"`
	MacroPrecision float64       `yaml:"macro_precision" json:"macro_precision"`
	MacroRecall    float64       `yaml:"macro_recall" json:"macro_recall"`
	MacroF1        float64       `yaml:"macro_f1" json:"macro_f1"`
	PerClass       []ClassReport `yaml:"per_class" json:"per_class"`
}

// Evaluate runs predict over every test record and scores the results.
// Records the predictor fails on count against accuracy and are tallied
// in Failed. Labels are compared on normalized names.
func Evaluate(ctx context.Context, engine string, predict PredictFunc, test []dataset.Record, k int, logger *slog.Logger) (*Report, error) {
	if len(test) == 0 {
		return nil, fmt.Errorf("eval: empty test set")
	}
	if k <= 0 {
		k = 3
	}
	if logger == nil {
		logger = slog.Default()
	}

	report := &Report{Engine: engine, Records: len(test), K: k}

	truePos := make(map[string]int)
	falsePos := make(map[string]int)
	falseNeg := make(map[string]int)
	support := make(map[string]int)

	var correct, topKCorrect int
	for i, rec := range test {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		label := graph.NormalizeName(rec.Label)
		support[label]++

		preds, err := predict(ctx, rec.Text)
		if err != nil || len(preds) == 0 {
			report.Failed++
			falseNeg[label]++
			if err != nil {
				logger.Debug("prediction failed", slog.Int("record", i), slog.String("error", err.Error()))
			}
			continue
		}

		top := graph.NormalizeName(preds[0].Disease)
		if top == label {
			correct++
			truePos[label]++
		} else {
			falsePos[top]++
			falseNeg[label]++
		}

		limit := k
		if limit > len(preds) {
			limit = len(preds)
		}
		for _, p := range preds[:limit] {
			if graph.NormalizeName(p.Disease) == label {
				topKCorrect++
				break
			}
		}
	}

	n := float64(len(test))
	report.Accuracy = float64(correct) / n
	report.TopKAccuracy = float64(topKCorrect) / n

	classes := make([]string, 0, len(support))
	for c := range support {
		classes = append(classes, c)
	}
	sort.Strings(classes)

	var sumP, sumR, sumF float64
	for _, c := range classes {
		tp := float64(truePos[c])
		fp := float64(falsePos[c])
		fn := float64(falseNeg[c])

		var precision, recall, f1 float64
		if tp+fp > 0 {
			precision = tp / (tp + fp)
		}
		if tp+fn > 0 {
			recall = tp / (tp + fn)
		}
		if precision+recall > 0 {
			f1 = 2 * precision * recall / (precision + recall)
		}

		sumP += precision
		sumR += recall
		sumF += f1
		report.PerClass = append(report.PerClass, ClassReport{
			Disease:   c,
			Support:   support[c],
			Precision: precision,
			Recall:    recall,
			F1:        f1,
		})
	}
	nc := float64(len(classes))
	report.MacroPrecision = sumP / nc
	report.MacroRecall = sumR / nc
	report.MacroF1 = sumF / nc

	logger.Info("evaluation complete",
		slog.String("engine", engine),
		slog.Float64("accuracy", report.Accuracy),
		slog.Float64("top_k_accuracy", report.TopKAccuracy),
		slog.Float64("macro_f1", report.MacroF1))

	return report, nil
}

// Comparison bundles per-engine reports on the same test set.
type Comparison struct {
	Records int      `yaml:"records" json:"records"`
	Engines []Report `yaml:"engines" json:"engines"`
}

// Compare evaluates each named engine on the same test records and
// orders the result by descending accuracy.
func Compare(ctx context.Context, engines map[string]PredictFunc, test []dataset.Record, k int, logger *slog.Logger) (*Comparison, error) {
	names := make([]string, 0, len(engines))
	for name := range engines {
		names = append(names, name)
	}
	sort.Strings(names)

	cmp := &Comparison{Records: len(test)}
	for _, name := range names {
		report, err := Evaluate(ctx, name, engines[name], test, k, logger)
		if err != nil {
			return nil, fmt.Errorf("eval: engine %q: %w", name, err)
		}
		cmp.Engines = append(cmp.Engines, *report)
	}

	sort.SliceStable(cmp.Engines, func(i, j int) bool {
		return cmp.Engines[i].Accuracy > cmp.Engines[j].Accuracy
	})
	return cmp, nil
}

// WriteYAML writes any report value to path as YAML.
func WriteYAML(path string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
