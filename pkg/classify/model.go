package classify

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sort"
)

// Training defaults.
const (
	DefaultMaxIter   = 1000
	DefaultLearnRate = 0.1
)

// ErrNotTrained is returned when predicting with an unfitted model.
var ErrNotTrained = errors.New("classify: model is not trained")

// TrainOptions tunes the gradient descent loop.
type TrainOptions struct {
	MaxIter   int
	LearnRate float64
	// Tolerance stops training early when the loss improvement per
	// iteration falls below it. Zero disables early stopping.
	Tolerance float64
	Logger    *slog.Logger
}

func (o *TrainOptions) defaults() {
	if o.MaxIter <= 0 {
		o.MaxIter = DefaultMaxIter
	}
	if o.LearnRate <= 0 {
		o.LearnRate = DefaultLearnRate
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// SoftmaxModel is a multinomial logistic regression over sparse
// feature vectors. Weights[c] holds the feature weights for class c;
// Bias[c] the intercept.
type SoftmaxModel struct {
	Classes  []string    `json:"classes"`
	Weights  [][]float64 `json:"weights"`
	Bias     []float64   `json:"bias"`
	Features int         `json:"features"`
}

// Train fits the model by full-batch gradient descent on cross-entropy
// loss. Labels index into the corpus classes; vectors and labels run
// in parallel.
func Train(ctx context.Context, vectors []Vector, labels []int, classes []string, features int, opts TrainOptions) (*SoftmaxModel, error) {
	if len(vectors) == 0 || len(vectors) != len(labels) {
		return nil, errors.New("classify: vectors and labels must be non-empty and aligned")
	}
	if len(classes) < 2 {
		return nil, errors.New("classify: need at least two classes")
	}
	opts.defaults()

	m := &SoftmaxModel{
		Classes:  classes,
		Weights:  make([][]float64, len(classes)),
		Bias:     make([]float64, len(classes)),
		Features: features,
	}
	for c := range m.Weights {
		m.Weights[c] = make([]float64, features)
	}

	n := float64(len(vectors))
	prevLoss := math.Inf(1)

	for iter := 0; iter < opts.MaxIter; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		gradW := make([]map[int]float64, len(classes))
		for c := range gradW {
			gradW[c] = make(map[int]float64)
		}
		gradB := make([]float64, len(classes))

		var loss float64
		for i, vec := range vectors {
			probs := m.scoreVector(vec)
			softmaxInPlace(probs)

			p := probs[labels[i]]
			if p < 1e-12 {
				p = 1e-12
			}
			loss -= math.Log(p)

			for c := range probs {
				diff := probs[c]
				if c == labels[i] {
					diff -= 1
				}
				if diff == 0 {
					continue
				}
				for idx, val := range vec {
					gradW[c][idx] += diff * val
				}
				gradB[c] += diff
			}
		}
		loss /= n

		step := opts.LearnRate
		for c := range m.Weights {
			for idx, g := range gradW[c] {
				m.Weights[c][idx] -= step * g / n
			}
			m.Bias[c] -= step * gradB[c] / n
		}

		if iter%100 == 0 {
			opts.Logger.Debug("training iteration",
				slog.Int("iter", iter),
				slog.Float64("loss", loss))
		}
		if opts.Tolerance > 0 && prevLoss-loss < opts.Tolerance {
			opts.Logger.Debug("converged", slog.Int("iter", iter), slog.Float64("loss", loss))
			break
		}
		prevLoss = loss
	}

	return m, nil
}

func (m *SoftmaxModel) scoreVector(vec Vector) []float64 {
	scores := make([]float64, len(m.Classes))
	for c := range m.Classes {
		s := m.Bias[c]
		w := m.Weights[c]
		for idx, val := range vec {
			s += w[idx] * val
		}
		scores[c] = s
	}
	return scores
}

func softmaxInPlace(scores []float64) {
	max := scores[0]
	for _, s := range scores[1:] {
		if s > max {
			max = s
		}
	}
	var sum float64
	for i, s := range scores {
		scores[i] = math.Exp(s - max)
		sum += scores[i]
	}
	for i := range scores {
		scores[i] /= sum
	}
}

// PredictProba returns the class probability distribution for a vector.
func (m *SoftmaxModel) PredictProba(vec Vector) ([]float64, error) {
	if len(m.Classes) == 0 || len(m.Weights) == 0 {
		return nil, ErrNotTrained
	}
	scores := m.scoreVector(vec)
	softmaxInPlace(scores)
	return scores, nil
}

// ClassWeight holds one feature's learned weight for a class.
type ClassWeight struct {
	Feature string  `json:"feature"`
	Weight  float64 `json:"weight"`
}

// TopWeights returns the n most positively weighted features for a
// class, the signals that push a text toward that diagnosis.
func (m *SoftmaxModel) TopWeights(class string, featureNames []string, n int) []ClassWeight {
	ci := -1
	for i, c := range m.Classes {
		if c == class {
			ci = i
			break
		}
	}
	if ci < 0 {
		return nil
	}

	weights := make([]ClassWeight, 0, len(featureNames))
	for idx, name := range featureNames {
		weights = append(weights, ClassWeight{Feature: name, Weight: m.Weights[ci][idx]})
	}
	sort.Slice(weights, func(i, j int) bool {
		if weights[i].Weight != weights[j].Weight {
			return weights[i].Weight > weights[j].Weight
		}
		return weights[i].Feature < weights[j].Feature
	})
	if len(weights) > n {
		weights = weights[:n]
	}
	return weights
}
