package medline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"
)

// RunnerOptions configures a batch summarization run.
type RunnerOptions struct {
	// OutputPath receives one Summary per line as JSON.
	OutputPath string

	// Sleep is the pause between web service requests.
	Sleep time.Duration

	Logger *slog.Logger
}

// RunResult tallies a batch run.
type RunResult struct {
	Processed int `json:"processed"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// Runner drives fetch-then-summarize over a disease list with
// per-disease checkpointing.
type Runner struct {
	client      *Client
	summarizer  *Summarizer
	checkpoints *Checkpoints
	opts        RunnerOptions
}

// NewRunner assembles a batch runner.
func NewRunner(client *Client, summarizer *Summarizer, checkpoints *Checkpoints, opts RunnerOptions) *Runner {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Runner{client: client, summarizer: summarizer, checkpoints: checkpoints, opts: opts}
}

// Run processes each disease in order: already-done entries are
// skipped, failures are checkpointed with their error and counted, and
// successes are appended to the output file and marked done. The run
// stops early only on context cancellation.
func (r *Runner) Run(ctx context.Context, diseases []string) (*RunResult, error) {
	out, err := os.OpenFile(r.opts.OutputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open output file: %w", err)
	}
	defer out.Close()

	enc := json.NewEncoder(out)
	result := &RunResult{}

	for _, disease := range diseases {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		done, err := r.checkpoints.Done(disease)
		if err != nil {
			return result, err
		}
		if done {
			result.Skipped++
			continue
		}

		summary, err := r.processOne(ctx, disease)
		if err != nil {
			result.Failed++
			r.opts.Logger.Warn("disease failed",
				slog.String("disease", disease),
				slog.String("error", err.Error()))
			if cpErr := r.checkpoints.Put(&Entry{Disease: disease, Error: err.Error()}); cpErr != nil {
				return result, cpErr
			}
			continue
		}

		if err := enc.Encode(summary); err != nil {
			return result, fmt.Errorf("failed to write summary for %q: %w", disease, err)
		}
		if err := r.checkpoints.Put(&Entry{Disease: disease, Done: true}); err != nil {
			return result, err
		}
		result.Processed++

		if r.opts.Sleep > 0 {
			select {
			case <-time.After(r.opts.Sleep):
			case <-ctx.Done():
				return result, ctx.Err()
			}
		}
	}

	r.opts.Logger.Info("medline run complete",
		slog.Int("processed", result.Processed),
		slog.Int("skipped", result.Skipped),
		slog.Int("failed", result.Failed))
	return result, nil
}

// searchRetMax is how many candidate topics to request; the best-ranked
// hit is summarized.
const searchRetMax = 5

func (r *Runner) processOne(ctx context.Context, disease string) (*Summary, error) {
	topics, err := r.client.Search(ctx, disease, searchRetMax)
	if err != nil {
		return nil, err
	}
	if len(topics) == 0 {
		return nil, fmt.Errorf("no health topic found for %q", disease)
	}
	return r.summarizer.Summarize(ctx, disease, topics[0])
}
