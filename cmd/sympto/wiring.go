package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/soundprediction/sympto"
	"github.com/soundprediction/sympto/pkg/alert"
	"github.com/soundprediction/sympto/pkg/canon"
	"github.com/soundprediction/sympto/pkg/classify"
	"github.com/soundprediction/sympto/pkg/config"
	"github.com/soundprediction/sympto/pkg/embedder"
	"github.com/soundprediction/sympto/pkg/extract"
	"github.com/soundprediction/sympto/pkg/graph"
	"github.com/soundprediction/sympto/pkg/logger"
	"github.com/soundprediction/sympto/pkg/nlp"
	"github.com/soundprediction/sympto/pkg/rag"
	"github.com/soundprediction/sympto/pkg/telemetry"
	"github.com/soundprediction/sympto/pkg/vocab"
)

// newLogger builds the process logger, wrapping it with Parquet error
// telemetry when a path is configured.
func newLogger(cfg *config.Config) *slog.Logger {
	base := logger.New(cfg.Log.Level, cfg.Log.Format)
	if cfg.Telemetry.ParquetPath == "" {
		return base
	}
	if err := os.MkdirAll(cfg.Telemetry.ParquetPath, 0o755); err != nil {
		base.Warn("failed to create telemetry directory", slog.String("error", err.Error()))
		return base
	}
	handler, err := telemetry.NewParquetHandler(base.Handler(), cfg.Telemetry.ParquetPath)
	if err != nil {
		base.Warn("failed to initialize error telemetry", slog.String("error", err.Error()))
		return base
	}
	return slog.New(handler)
}

// newStore opens the configured graph store.
func newStore(cfg *config.Config) (graph.Store, error) {
	switch cfg.Graph.Driver {
	case "memory", "":
		return graph.NewMemoryStore(), nil
	case "neo4j":
		return graph.NewNeo4jStore(cfg.Graph.URI, cfg.Graph.Username, cfg.Graph.Password, cfg.Graph.Database)
	default:
		return nil, fmt.Errorf("unsupported graph driver: %s", cfg.Graph.Driver)
	}
}

// newNLPClient builds the language model client with retry and, when
// enabled, circuit breaking.
func newNLPClient(cfg *config.Config) (nlp.Client, error) {
	if cfg.NLP.APIKey == "" && cfg.NLP.BaseURL == "" {
		return nil, fmt.Errorf("nlp requires an API key or a base URL")
	}

	temperature := cfg.NLP.Temperature
	maxTokens := cfg.NLP.MaxTokens
	base := nlp.NewOpenAIClient(&nlp.Config{
		Model:       cfg.NLP.Model,
		APIKey:      cfg.NLP.APIKey,
		BaseURL:     cfg.NLP.BaseURL,
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
	})

	var client nlp.Client = nlp.NewRetryClient(base, nlp.DefaultRetryConfig())

	if cfg.CircuitBreaker.Enabled {
		var alerter alert.Alerter = &alert.NoOpAlerter{}
		if cfg.Alert.Enabled {
			alerter = alert.NewEmailAlerter(cfg.Alert)
		}
		client = nlp.NewCircuitBreakerClient(client, cfg.CircuitBreaker, alerter, "nlp")
	}
	return client, nil
}

// newEmbedder builds the configured embedding client.
func newEmbedder(cfg *config.Config) (embedder.Client, error) {
	switch cfg.Embedding.Provider {
	case "embedeverything", "":
		return embedder.NewEmbedEverythingClient(&embedder.Config{Model: cfg.Embedding.Model})
	case "openai":
		if cfg.Embedding.APIKey == "" {
			return nil, fmt.Errorf("openai embedding requires an API key")
		}
		return embedder.NewOpenAIClient(&embedder.Config{
			Model:   cfg.Embedding.Model,
			APIKey:  cfg.Embedding.APIKey,
			BaseURL: cfg.Embedding.BaseURL,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Embedding.Provider)
	}
}

// loadExtractor loads the mined vocabulary and builds the phrase
// extractor over it.
func loadExtractor(cfg *config.Config) (*extract.PhraseExtractor, error) {
	v, err := vocab.Load(cfg.Diagnosis.VocabPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load vocabulary (run 'sympto build' first): %w", err)
	}
	return extract.NewPhraseExtractor(v.Terms), nil
}

// newDiagnoser wires the full diagnosis client from configuration.
// The classifier and canonicalizer are optional: a missing model file
// leaves the graph engine available, and canonicalization is skipped
// when no index exists at the vocab path.
func newDiagnoser(cfg *config.Config, store graph.Store, log *slog.Logger) (*sympto.Client, error) {
	extractor, err := loadExtractor(cfg)
	if err != nil {
		return nil, err
	}

	engine, err := sympto.ParseEngine(cfg.Diagnosis.Engine)
	if err != nil {
		return nil, err
	}

	opts := []sympto.ClientOption{
		sympto.WithEngine(engine),
		sympto.WithAlpha(cfg.Diagnosis.ClassifierAlpha),
		sympto.WithLogger(log),
	}

	if clf, err := classify.Load(cfg.Classifier.ModelPath); err == nil {
		opts = append(opts, sympto.WithClassifier(clf))
	} else if engine != sympto.EngineGraph {
		log.Warn("classifier model unavailable, only the graph engine will work",
			slog.String("path", cfg.Classifier.ModelPath),
			slog.String("error", err.Error()))
	}

	if index, err := canon.LoadIndex(canonIndexPath(cfg)); err == nil {
		emb, embErr := newEmbedder(cfg)
		if embErr != nil {
			log.Warn("embedder unavailable, skipping canonicalization", slog.String("error", embErr.Error()))
		} else {
			opts = append(opts, sympto.WithCanonicalizer(canon.New(index, emb)))
		}
	}

	if explainer, err := newExplainer(cfg, store); err != nil {
		log.Warn("explainer unavailable, diagnoses will not carry explanations",
			slog.String("error", err.Error()))
	} else if explainer != nil {
		opts = append(opts, sympto.WithExplainer(explainer))
	}

	return sympto.NewClient(store, extractor, opts...)
}

// newExplainer builds the retrieval-grounded explainer over the current
// graph. Returns nil without error when no language model is configured.
func newExplainer(cfg *config.Config, store graph.Store) (*rag.Explainer, error) {
	if cfg.NLP.APIKey == "" && cfg.NLP.BaseURL == "" {
		return nil, nil
	}

	emb, err := newEmbedder(cfg)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	docs, err := rag.GenerateDocs(ctx, store)
	if err != nil {
		return nil, err
	}
	index, err := rag.BuildIndex(ctx, emb, docs)
	if err != nil {
		return nil, err
	}

	// Explanations run cold so they stay close to the retrieved context.
	ragCfg := *cfg
	ragCfg.NLP.Temperature = rag.DefaultTemperature
	llm, err := newNLPClient(&ragCfg)
	if err != nil {
		return nil, err
	}
	return rag.NewExplainer(index, llm, rag.DefaultTopDocs), nil
}

// canonIndexPath derives the canonical term index location from the
// vocabulary path.
func canonIndexPath(cfg *config.Config) string {
	return cfg.Diagnosis.VocabPath + ".index"
}

// medlineSleep converts the configured milliseconds to a duration.
func medlineSleep(cfg *config.Config) time.Duration {
	return time.Duration(cfg.Medline.SleepMillis) * time.Millisecond
}
