package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/soundprediction/sympto"
	"github.com/soundprediction/sympto/pkg/config"
	"github.com/soundprediction/sympto/pkg/dataset"
	"github.com/soundprediction/sympto/pkg/eval"
	"github.com/soundprediction/sympto/pkg/graph"
	"github.com/soundprediction/sympto/pkg/types"
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Evaluate the prediction engines on the holdout split",
	Long: `Eval scores each available engine on the test split of the corpus and
writes a comparison report. The graph is rebuilt from the training split so
holdout records never leak into it.`,
	RunE: runEval,
}

func init() {
	rootCmd.AddCommand(evalCmd)

	evalCmd.Flags().String("dataset", "", "Path to the labeled symptom CSV")
	evalCmd.Flags().String("report", "eval_report.yaml", "Output path for the YAML report")
	evalCmd.Flags().Int("top-k", 0, "K for top-k accuracy")
}

func runEval(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if v, _ := cmd.Flags().GetString("dataset"); v != "" {
		cfg.Dataset.Path = v
	}
	reportPath, _ := cmd.Flags().GetString("report")
	topK := cfg.Diagnosis.TopK
	if v, _ := cmd.Flags().GetInt("top-k"); v > 0 {
		topK = v
	}

	log := newLogger(cfg)

	corpus, err := dataset.Load(cfg.Dataset.Path)
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}
	train, test := corpus.Split(cfg.Dataset.TestFraction, cfg.Dataset.Seed)
	if len(test) == 0 {
		return fmt.Errorf("test split is empty, check dataset.test_fraction")
	}

	// in-memory graph from the training split only
	cfg.Graph.Driver = "memory"
	store, err := newStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close(cmd.Context())

	trainCorpus := &dataset.Corpus{Records: train}
	if err := buildEvalGraph(cmd, cfg, store, trainCorpus); err != nil {
		return err
	}

	client, err := newDiagnoser(cfg, store, log)
	if err != nil {
		return err
	}

	engines := map[string]eval.PredictFunc{
		string(sympto.EngineGraph): predictWith(client, sympto.EngineGraph, topK),
	}
	// classifier engines only when a trained model was loaded
	if _, err := client.Diagnose(cmd.Context(), "fever", sympto.Options{Engine: sympto.EngineClassifier, TopK: 1}); err == nil {
		engines[string(sympto.EngineClassifier)] = predictWith(client, sympto.EngineClassifier, topK)
		engines[string(sympto.EngineHybrid)] = predictWith(client, sympto.EngineHybrid, topK)
	} else {
		log.Warn("classifier unavailable, evaluating graph engine only")
	}

	cmp, err := eval.Compare(cmd.Context(), engines, test, topK, log)
	if err != nil {
		return err
	}

	if err := eval.WriteYAML(reportPath, cmp); err != nil {
		return err
	}

	for _, r := range cmp.Engines {
		fmt.Printf("%-12s accuracy=%.3f top%d=%.3f macroF1=%.3f\n",
			r.Engine, r.Accuracy, r.K, r.TopKAccuracy, r.MacroF1)
	}
	fmt.Printf("Report written to %s\n", reportPath)
	return nil
}

func predictWith(client *sympto.Client, engine sympto.Engine, topK int) eval.PredictFunc {
	return func(ctx context.Context, text string) ([]types.Prediction, error) {
		result, err := client.Diagnose(ctx, text, sympto.Options{Engine: engine, TopK: topK})
		if err != nil {
			return nil, err
		}
		return result.Predictions, nil
	}
}

func buildEvalGraph(cmd *cobra.Command, cfg *config.Config, store graph.Store, corpus *dataset.Corpus) error {
	extractor, err := loadExtractor(cfg)
	if err != nil {
		return err
	}
	strict := *extractor
	strict.Fallback = false

	builder := graph.NewBuilder(store, &strict, nil)
	_, err = builder.Build(cmd.Context(), corpus)
	return err
}
