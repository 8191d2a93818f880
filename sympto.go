package sympto

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/soundprediction/sympto/pkg/canon"
	"github.com/soundprediction/sympto/pkg/classify"
	"github.com/soundprediction/sympto/pkg/extract"
	"github.com/soundprediction/sympto/pkg/graph"
	"github.com/soundprediction/sympto/pkg/rag"
	"github.com/soundprediction/sympto/pkg/reason"
	"github.com/soundprediction/sympto/pkg/types"
	"github.com/soundprediction/sympto/pkg/wikidata"
)

// Engine selects which prediction path answers a diagnosis request.
type Engine string

const (
	// EngineGraph ranks diseases by symptom overlap in the knowledge
	// graph only.
	EngineGraph Engine = "graph"

	// EngineClassifier uses the trained text classifier only.
	EngineClassifier Engine = "classifier"

	// EngineHybrid fuses both scores and is the default.
	EngineHybrid Engine = "hybrid"
)

// ParseEngine maps a string to an Engine.
func ParseEngine(s string) (Engine, error) {
	switch Engine(strings.ToLower(strings.TrimSpace(s))) {
	case EngineGraph:
		return EngineGraph, nil
	case EngineClassifier:
		return EngineClassifier, nil
	case EngineHybrid, "":
		return EngineHybrid, nil
	default:
		return "", fmt.Errorf("%w: %q", types.ErrUnknownEngine, s)
	}
}

// DefaultTopK is the number of candidate diseases returned when the
// caller does not ask for a specific count.
const DefaultTopK = 3

// Options tunes a single diagnosis request.
type Options struct {
	// TopK is the number of candidates to return. Zero means
	// DefaultTopK; negative is invalid.
	TopK int

	// Engine overrides the client's configured engine for this request.
	Engine Engine

	// Explain attaches a grounded natural-language explanation. It is
	// ignored when the client has no explainer.
	Explain bool
}

// Diagnosis is the full result of one request.
type Diagnosis struct {
	// Symptoms are the canonical symptom terms recognized in the text.
	Symptoms []string `json:"symptoms"`

	// Predictions are the ranked candidate diseases.
	Predictions []types.Prediction `json:"predictions"`

	// Engine is the engine that produced the predictions.
	Engine Engine `json:"engine"`

	// Explanation is present when requested and an explainer is wired.
	Explanation *rag.Explanation `json:"explanation,omitempty"`
}

// Diagnoser is the core capability of this package.
type Diagnoser interface {
	// Diagnose extracts symptoms from free text and returns ranked
	// candidate diseases.
	Diagnose(ctx context.Context, text string, opts Options) (*Diagnosis, error)

	// ExtractSymptoms returns the canonical symptom terms recognized
	// in free text without running any prediction engine.
	ExtractSymptoms(ctx context.Context, text string) ([]string, error)

	// DiseaseInfo returns graph knowledge plus best-effort external
	// enrichment for a disease.
	DiseaseInfo(ctx context.Context, name string) (*DiseaseDetail, error)

	// Close releases held resources.
	Close(ctx context.Context) error
}

// DiseaseDetail combines graph knowledge with external enrichment.
type DiseaseDetail struct {
	Name            string             `json:"name"`
	WikidataID      string             `json:"wikidata_id,omitempty"`
	Explanation     string             `json:"explanation,omitempty"`
	PrimarySymptoms []string           `json:"primary_symptoms,omitempty"`
	OtherSymptoms   []string           `json:"other_symptoms,omitempty"`
	External        *types.DiseaseInfo `json:"external,omitempty"`
}

// Client implements Diagnoser over a graph store, a trained classifier,
// and optional canonicalization, explanation, and enrichment helpers.
type Client struct {
	store         graph.Store
	classifier    *classify.Classifier
	extractor     *extract.PhraseExtractor
	canonicalizer *canon.Canonicalizer
	explainer     *rag.Explainer
	wikidata      *wikidata.Client
	engine        Engine
	alpha         float64
	logger        *slog.Logger
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithClassifier wires the trained text classifier. Without it the
// classifier and hybrid engines are unavailable.
func WithClassifier(c *classify.Classifier) ClientOption {
	return func(cl *Client) { cl.classifier = c }
}

// WithCanonicalizer wires embedding-based symptom canonicalization.
func WithCanonicalizer(c *canon.Canonicalizer) ClientOption {
	return func(cl *Client) { cl.canonicalizer = c }
}

// WithExplainer wires the retrieval-grounded explainer.
func WithExplainer(e *rag.Explainer) ClientOption {
	return func(cl *Client) { cl.explainer = e }
}

// WithWikidata wires external disease enrichment.
func WithWikidata(w *wikidata.Client) ClientOption {
	return func(cl *Client) { cl.wikidata = w }
}

// WithEngine sets the default engine.
func WithEngine(e Engine) ClientOption {
	return func(cl *Client) { cl.engine = e }
}

// WithAlpha sets the hybrid fusion weight given to the classifier.
func WithAlpha(alpha float64) ClientOption {
	return func(cl *Client) { cl.alpha = alpha }
}

// WithLogger sets the client logger.
func WithLogger(l *slog.Logger) ClientOption {
	return func(cl *Client) { cl.logger = l }
}

// NewClient creates a diagnosis client. The store and extractor are
// required; everything else is optional.
func NewClient(store graph.Store, extractor *extract.PhraseExtractor, opts ...ClientOption) (*Client, error) {
	if store == nil {
		return nil, fmt.Errorf("sympto: store is required")
	}
	if extractor == nil {
		return nil, fmt.Errorf("sympto: extractor is required")
	}

	c := &Client{
		store:     store,
		extractor: extractor,
		engine:    EngineHybrid,
		alpha:     reason.DefaultAlpha,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Diagnose implements Diagnoser.
func (c *Client) Diagnose(ctx context.Context, text string, opts Options) (*Diagnosis, error) {
	if strings.TrimSpace(text) == "" {
		return nil, types.ErrEmptyText
	}
	if opts.TopK < 0 {
		return nil, fmt.Errorf("%w: %d", types.ErrInvalidTopK, opts.TopK)
	}
	topK := opts.TopK
	if topK == 0 {
		topK = DefaultTopK
	}

	engine := opts.Engine
	if engine == "" {
		engine = c.engine
	}
	if engine != EngineGraph && engine != EngineClassifier && engine != EngineHybrid {
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownEngine, engine)
	}
	if engine != EngineGraph && c.classifier == nil {
		return nil, fmt.Errorf("sympto: engine %q needs a trained classifier", engine)
	}

	symptoms, err := c.recognizeSymptoms(ctx, text)
	if err != nil {
		return nil, err
	}

	result := &Diagnosis{Symptoms: symptoms, Engine: engine}

	switch engine {
	case EngineClassifier:
		preds, err := c.classifier.Predict(text, topK)
		if err != nil {
			return nil, err
		}
		result.Predictions = preds

	case EngineGraph:
		matches, err := graph.RankDiseases(ctx, c.store, symptoms, graph.RankOptions{TopK: topK, Jaccard: true})
		if err != nil {
			return nil, err
		}
		result.Predictions = reason.FromMatches(matches, topK)

	case EngineHybrid:
		preds, err := c.classifier.Predict(text, 0)
		if err != nil {
			return nil, err
		}
		matches, err := graph.RankDiseases(ctx, c.store, symptoms, graph.RankOptions{Jaccard: true})
		if err != nil {
			return nil, err
		}
		result.Predictions = reason.Fuse(preds, matches, c.alpha, topK)
	}

	if opts.Explain && c.explainer != nil && len(result.Predictions) > 0 {
		top := result.Predictions[0]
		explanation, err := c.explainer.Explain(ctx, result.Symptoms, top.Disease, top.Score)
		if err != nil {
			// Diagnosis stands on its own; explanation is best effort.
			c.logger.Warn("explanation failed", slog.String("error", err.Error()))
		} else {
			result.Explanation = explanation
		}
	}

	c.logger.Debug("diagnosis complete",
		slog.String("engine", string(engine)),
		slog.Int("symptoms", len(symptoms)),
		slog.Int("predictions", len(result.Predictions)))
	return result, nil
}

// ExtractSymptoms implements Diagnoser.
func (c *Client) ExtractSymptoms(ctx context.Context, text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, types.ErrEmptyText
	}
	return c.recognizeSymptoms(ctx, text)
}

// recognizeSymptoms extracts phrases and maps them to canonical terms
// when a canonicalizer is wired.
func (c *Client) recognizeSymptoms(ctx context.Context, text string) ([]string, error) {
	phrases := c.extractor.Extract(text)
	if c.canonicalizer == nil || len(phrases) == 0 {
		return phrases, nil
	}
	canonical, _, err := c.canonicalizer.CanonicalizeAll(ctx, phrases)
	if err != nil {
		return nil, fmt.Errorf("sympto: canonicalization failed: %w", err)
	}
	if len(canonical) == 0 {
		// Nothing cleared the acceptance threshold; fall back to the
		// raw phrases so graph matching still gets a chance.
		return phrases, nil
	}
	return canonical, nil
}

// DiseaseInfo implements Diagnoser.
func (c *Client) DiseaseInfo(ctx context.Context, name string) (*DiseaseDetail, error) {
	if strings.TrimSpace(name) == "" {
		return nil, types.ErrEmptyName
	}

	node, err := c.store.GetDisease(ctx, name)
	if err != nil {
		return nil, err
	}

	primary, err := c.store.DiseaseSymptoms(ctx, name, types.RolePrimary)
	if err != nil {
		return nil, err
	}
	other, err := c.store.DiseaseSymptoms(ctx, name, types.RoleSecondary, types.RoleComplication)
	if err != nil {
		return nil, err
	}

	detail := &DiseaseDetail{
		Name:            node.Name,
		WikidataID:      node.WikidataID,
		Explanation:     node.Explanation,
		PrimarySymptoms: primary,
		OtherSymptoms:   other,
	}

	if c.wikidata != nil {
		// Enrichment never fails the request; failures are logged and
		// the detail goes out without the external fields.
		if node.WikidataID == "" {
			qid, err := c.wikidata.EntityID(ctx, node.Name)
			switch {
			case err != nil:
				c.logger.Warn("wikidata id resolution failed",
					slog.String("disease", node.Name), slog.String("error", err.Error()))
			case qid != "":
				node.WikidataID = qid
				detail.WikidataID = qid
				if err := c.store.UpsertNode(ctx, node); err != nil {
					c.logger.Warn("failed to persist wikidata id",
						slog.String("disease", node.Name), slog.String("error", err.Error()))
				}
			}
		}

		info, err := c.wikidata.DiseaseInfo(ctx, node.Name)
		if err != nil {
			c.logger.Warn("wikidata enrichment failed",
				slog.String("disease", node.Name), slog.String("error", err.Error()))
		}
		detail.External = info
	}
	return detail, nil
}

// Close implements Diagnoser.
func (c *Client) Close(ctx context.Context) error {
	return c.store.Close(ctx)
}
