package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/soundprediction/sympto/pkg/canon"
	"github.com/soundprediction/sympto/pkg/config"
	"github.com/soundprediction/sympto/pkg/dataset"
	"github.com/soundprediction/sympto/pkg/extract"
	"github.com/soundprediction/sympto/pkg/graph"
	"github.com/soundprediction/sympto/pkg/vocab"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the symptom vocabulary and knowledge graph from the corpus",
	Long: `Build mines a symptom vocabulary from the labeled corpus, constructs the
disease-symptom knowledge graph from it, and optionally embeds the vocabulary
into a canonicalization index.

With the default in-memory graph driver the graph only lives for the duration
of the command; point the graph driver at neo4j to persist it.`,
	RunE: runBuild,
}

var buildEmbedIndex bool

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().String("dataset", "", "Path to the labeled symptom CSV")
	buildCmd.Flags().String("vocab", "", "Output path for the mined vocabulary")
	buildCmd.Flags().BoolVar(&buildEmbedIndex, "embed-index", false, "Also embed the vocabulary into a canonicalization index")
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if v, _ := cmd.Flags().GetString("dataset"); v != "" {
		cfg.Dataset.Path = v
	}
	if v, _ := cmd.Flags().GetString("vocab"); v != "" {
		cfg.Diagnosis.VocabPath = v
	}

	log := newLogger(cfg)

	corpus, err := dataset.Load(cfg.Dataset.Path)
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}
	log.Info("dataset loaded",
		slog.Int("records", len(corpus.Records)),
		slog.Int("skipped", corpus.Skipped),
		slog.Int("diseases", len(corpus.Labels())))

	mined := vocab.Mine(corpus.Texts(), vocab.DefaultOptions())
	if err := os.MkdirAll(filepath.Dir(cfg.Diagnosis.VocabPath), 0o755); err != nil {
		return err
	}
	if err := mined.Save(cfg.Diagnosis.VocabPath); err != nil {
		return fmt.Errorf("failed to save vocabulary: %w", err)
	}
	log.Info("vocabulary mined",
		slog.Int("terms", len(mined.Terms)),
		slog.String("path", cfg.Diagnosis.VocabPath))

	store, err := newStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close(cmd.Context())

	if err := store.CreateIndices(cmd.Context()); err != nil {
		return fmt.Errorf("failed to create indices: %w", err)
	}

	extractor := extract.NewPhraseExtractor(mined.Terms)
	extractor.Fallback = false

	builder := graph.NewBuilder(store, extractor, log)
	result, err := builder.Build(cmd.Context(), corpus)
	if err != nil {
		return fmt.Errorf("failed to build graph: %w", err)
	}

	fmt.Printf("Graph built: %d diseases, %d symptoms, %d edges (%d records used, %d unusable)\n",
		result.Diseases, result.Symptoms, result.Edges, result.RecordsUsed, result.RecordsFailed)

	if buildEmbedIndex {
		emb, err := newEmbedder(cfg)
		if err != nil {
			return fmt.Errorf("failed to create embedder: %w", err)
		}
		defer emb.Close()

		index, err := canon.BuildIndex(cmd.Context(), emb, mined.Terms)
		if err != nil {
			return fmt.Errorf("failed to build canonicalization index: %w", err)
		}
		if err := index.Save(canonIndexPath(cfg)); err != nil {
			return fmt.Errorf("failed to save canonicalization index: %w", err)
		}
		fmt.Printf("Canonicalization index saved to %s\n", canonIndexPath(cfg))
	}

	return nil
}
