package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/soundprediction/sympto"
	"github.com/soundprediction/sympto/pkg/config"
	"github.com/soundprediction/sympto/pkg/dataset"
	"github.com/soundprediction/sympto/pkg/graph"
)

var predictCmd = &cobra.Command{
	Use:   "predict [text]",
	Short: "Diagnose a symptom description from the command line",
	Long: `Predict runs the diagnosis pipeline on the given symptom description and
prints the ranked candidates as JSON.

With the in-memory graph driver the knowledge graph is rebuilt from the
corpus before predicting; a neo4j driver reuses the persisted graph.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPredict,
}

func init() {
	rootCmd.AddCommand(predictCmd)

	predictCmd.Flags().String("engine", "", "Engine to use (graph, classifier, hybrid)")
	predictCmd.Flags().Int("top-k", 0, "Number of candidates to return")
}

func runPredict(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if v, _ := cmd.Flags().GetString("engine"); v != "" {
		cfg.Diagnosis.Engine = v
	}
	if v, _ := cmd.Flags().GetInt("top-k"); v > 0 {
		cfg.Diagnosis.TopK = v
	}

	log := newLogger(cfg)

	store, err := newStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close(cmd.Context())

	if err := ensureGraph(cmd, cfg, store); err != nil {
		return err
	}

	client, err := newDiagnoser(cfg, store, log)
	if err != nil {
		return err
	}

	engine, err := sympto.ParseEngine(cfg.Diagnosis.Engine)
	if err != nil {
		return err
	}

	result, err := client.Diagnose(cmd.Context(), strings.Join(args, " "), sympto.Options{
		TopK:   cfg.Diagnosis.TopK,
		Engine: engine,
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// ensureGraph rebuilds the in-memory graph from the corpus. Persistent
// drivers are assumed to have been populated by 'sympto build'.
func ensureGraph(cmd *cobra.Command, cfg *config.Config, store graph.Store) error {
	if store.Provider() != graph.ProviderMemory {
		return nil
	}

	corpus, err := dataset.Load(cfg.Dataset.Path)
	if err != nil {
		return fmt.Errorf("failed to load dataset for graph rebuild: %w", err)
	}

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
