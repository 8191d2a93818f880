package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/soundprediction/sympto/pkg/dataset"
	"github.com/soundprediction/sympto/pkg/types"
)

// Classifier bundles a fitted vectorizer with a trained softmax model
// and predicts disease labels from free-text symptom descriptions.
type Classifier struct {
	Vectorizer *Vectorizer   `json:"vectorizer"`
	Model      *SoftmaxModel `json:"model"`
}

// TrainClassifier fits the vectorizer and model on a labeled corpus.
func TrainClassifier(ctx context.Context, corpus *dataset.Corpus, maxFeatures int, opts TrainOptions) (*Classifier, error) {
	opts.defaults()

	labels := corpus.Labels()
	if len(labels) < 2 {
		return nil, fmt.Errorf("classify: corpus has %d classes, need at least 2", len(labels))
	}
	labelIndex := make(map[string]int, len(labels))
	for i, l := range labels {
		labelIndex[l] = i
	}

	vectorizer := NewVectorizer(maxFeatures)
	vectorizer.Fit(corpus.Texts())

	vectors := make([]Vector, len(corpus.Records))
	y := make([]int, len(corpus.Records))
	for i, rec := range corpus.Records {
		vectors[i] = vectorizer.Transform(rec.Text)
		y[i] = labelIndex[rec.Label]
	}

	opts.Logger.Info("training classifier",
		slog.Int("records", len(corpus.Records)),
		slog.Int("classes", len(labels)),
		slog.Int("features", len(vectorizer.Vocabulary)))

	model, err := Train(ctx, vectors, y, labels, len(vectorizer.Vocabulary), opts)
	if err != nil {
		return nil, err
	}

	return &Classifier{Vectorizer: vectorizer, Model: model}, nil
}

// Classes returns the model's label set in training order.
func (c *Classifier) Classes() []string {
	return c.Model.Classes
}

// PredictProba returns the per-class probabilities for a text, aligned
// with Classes().
func (c *Classifier) PredictProba(text string) ([]float64, error) {
	if c.Vectorizer == nil || c.Model == nil {
		return nil, ErrNotTrained
	}
	return c.Model.PredictProba(c.Vectorizer.Transform(text))
}

// Predict returns the top-k predictions for a text ordered by
// descending probability, ties broken by class name.
func (c *Classifier) Predict(text string, k int) ([]types.Prediction, error) {
	probs, err := c.PredictProba(text)
	if err != nil {
		return nil, err
	}

	preds := make([]types.Prediction, len(probs))
	for i, p := range probs {
		preds[i] = types.Prediction{
			Disease: c.Model.Classes[i],
			Score:   p,
			Source:  types.SourceClassifier,
		}
	}
	sort.Slice(preds, func(i, j int) bool {
		if preds[i].Score != preds[j].Score {
			return preds[i].Score > preds[j].Score
		}
		return preds[i].Disease < preds[j].Disease
	})
	if k > 0 && len(preds) > k {
		preds = preds[:k]
	}
	return preds, nil
}

// TopFeatures returns the strongest positive features for a class.
func (c *Classifier) TopFeatures(class string, n int) []ClassWeight {
	return c.Model.TopWeights(class, c.Vectorizer.FeatureNames(), n)
}

// Save writes the classifier to path as JSON.
func (c *Classifier) Save(path string) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal classifier: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write classifier: %w", err)
	}
	return nil
}

// Load reads a classifier saved by Save.
func Load(path string) (*Classifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read classifier: %w", err)
	}
	var c Classifier
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse classifier: %w", err)
	}
	if c.Vectorizer == nil || c.Model == nil {
		return nil, ErrNotTrained
	}
	return &c, nil
}
