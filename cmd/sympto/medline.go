package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/soundprediction/sympto/pkg/config"
	"github.com/soundprediction/sympto/pkg/dataset"
	"github.com/soundprediction/sympto/pkg/medline"
)

var medlineCmd = &cobra.Command{
	Use:   "medline",
	Short: "Fetch and summarize MedlinePlus health topics for the corpus diseases",
	Long: `Medline looks up each disease label from the corpus in the MedlinePlus
web service, condenses the topic text with the configured language model, and
appends the structured summaries to the output file.

Progress is checkpointed per disease; rerunning the command resumes where the
previous run stopped.`,
	RunE: runMedline,
}

func init() {
	rootCmd.AddCommand(medlineCmd)

	medlineCmd.Flags().String("dataset", "", "Path to the labeled symptom CSV")
	medlineCmd.Flags().String("output", "", "Output path for the summary JSONL")
	medlineCmd.Flags().String("checkpoint", "", "Checkpoint database directory")
}

func runMedline(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if v, _ := cmd.Flags().GetString("dataset"); v != "" {
		cfg.Dataset.Path = v
	}
	if v, _ := cmd.Flags().GetString("output"); v != "" {
		cfg.Medline.OutputPath = v
	}
	if v, _ := cmd.Flags().GetString("checkpoint"); v != "" {
		cfg.Medline.CheckpointPath = v
	}

	log := newLogger(cfg)

	corpus, err := dataset.Load(cfg.Dataset.Path)
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}
	diseases := corpus.Labels()
	if len(diseases) == 0 {
		return fmt.Errorf("no disease labels in dataset")
	}

	nlpClient, err := newNLPClient(cfg)
	if err != nil {
		return err
	}
	defer nlpClient.Close()

	if err := os.MkdirAll(cfg.Medline.CheckpointPath, 0o755); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Medline.OutputPath), 0o755); err != nil {
		return err
	}

	checkpoints, err := medline.OpenCheckpoints(cfg.Medline.CheckpointPath)
	if err != nil {
		return err
	}
	defer checkpoints.Close()

	runner := medline.NewRunner(
		medline.NewClient(cfg.Medline.BaseURL),
		medline.NewSummarizer(nlpClient),
		checkpoints,
		medline.RunnerOptions{
			OutputPath: cfg.Medline.OutputPath,
			Sleep:      medlineSleep(cfg),
			Logger:     log,
		},
	)

	result, err := runner.Run(cmd.Context(), diseases)
	if err != nil {
		return err
	}

	fmt.Printf("Medline run: %d processed, %d skipped, %d failed\n",
		result.Processed, result.Skipped, result.Failed)
	return nil
}
