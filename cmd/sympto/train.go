package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/soundprediction/sympto/pkg/classify"
	"github.com/soundprediction/sympto/pkg/config"
	"github.com/soundprediction/sympto/pkg/dataset"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the text classifier on the labeled corpus",
	Long: `Train fits the TF-IDF vectorizer and logistic regression on the training
split of the corpus and writes the model to the configured model path.`,
	RunE: runTrain,
}

func init() {
	rootCmd.AddCommand(trainCmd)

	trainCmd.Flags().String("dataset", "", "Path to the labeled symptom CSV")
	trainCmd.Flags().String("model", "", "Output path for the trained model")
	trainCmd.Flags().Int("max-iter", 0, "Gradient descent iterations")
	trainCmd.Flags().Float64("learn-rate", 0, "Gradient descent learning rate")
}

func runTrain(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if v, _ := cmd.Flags().GetString("dataset"); v != "" {
		cfg.Dataset.Path = v
	}
	if v, _ := cmd.Flags().GetString("model"); v != "" {
		cfg.Classifier.ModelPath = v
	}
	if v, _ := cmd.Flags().GetInt("max-iter"); v > 0 {
		cfg.Classifier.MaxIter = v
	}
	if v, _ := cmd.Flags().GetFloat64("learn-rate"); v > 0 {
		cfg.Classifier.LearnRate = v
	}

	log := newLogger(cfg)

	corpus, err := dataset.Load(cfg.Dataset.Path)
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}

	train, test := corpus.Split(cfg.Dataset.TestFraction, cfg.Dataset.Seed)
	log.Info("corpus split",
		slog.Int("train", len(train)),
		slog.Int("test", len(test)))

	clf, err := classify.TrainClassifier(cmd.Context(), &dataset.Corpus{Records: train},
		cfg.Classifier.MaxFeatures, classify.TrainOptions{
			MaxIter:   cfg.Classifier.MaxIter,
			LearnRate: cfg.Classifier.LearnRate,
			Logger:    log,
		})
	if err != nil {
		return fmt.Errorf("training failed: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Classifier.ModelPath), 0o755); err != nil {
		return err
	}
	if err := clf.Save(cfg.Classifier.ModelPath); err != nil {
		return fmt.Errorf("failed to save model: %w", err)
	}

	// quick holdout accuracy so a bad run is visible immediately
	var correct int
	for _, rec := range test {
		preds, err := clf.Predict(rec.Text, 1)
		if err != nil || len(preds) == 0 {
			continue
		}
		if preds[0].Disease == rec.Label {
			correct++
		}
	}
	if len(test) > 0 {
		fmt.Printf("Holdout accuracy: %.3f (%d/%d)\n",
			float64(correct)/float64(len(test)), correct, len(test))
	}
	fmt.Printf("Model saved to %s\n", cfg.Classifier.ModelPath)
	return nil
}
