package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/soundprediction/sympto/pkg/nlp"
	"github.com/soundprediction/sympto/pkg/types"
)

// Retrieval and generation defaults. DefaultTemperature is what the
// explainer's model client should run at; the wiring that constructs
// the client is responsible for applying it.
const (
	DefaultTopDocs     = 3
	DefaultTemperature = 0.2
)

const explainSystemPrompt = `You are a medical explanation assistant. Always remind the user that this is not a medical diagnosis and that they should consult a clinician.`

// Explanation is a grounded natural-language answer with its sources.
type Explanation struct {
	Text    string   `json:"text"`
	Sources []string `json:"sources"`
}

// Explainer answers "why this condition" questions grounded in the
// disease reference documents. It only ever explains the disease it is
// given; it never predicts.
type Explainer struct {
	index   *Index
	client  nlp.Client
	topDocs int
}

// NewExplainer creates an explainer over the given index. The language
// model client should be configured with DefaultTemperature so answers
// stay close to the retrieved context.
func NewExplainer(index *Index, client nlp.Client, topDocs int) *Explainer {
	if topDocs <= 0 {
		topDocs = DefaultTopDocs
	}
	return &Explainer{index: index, client: client, topDocs: topDocs}
}

// Explain retrieves the reference documents closest to the predicted
// disease and asks the model to justify that single prediction against
// the reported symptoms.
func (e *Explainer) Explain(ctx context.Context, symptoms []string, disease string, confidence float64) (*Explanation, error) {
	if strings.TrimSpace(disease) == "" {
		return nil, types.ErrEmptyName
	}

	hits, err := e.index.Search(ctx, disease+" symptom explanation", e.topDocs)
	if err != nil {
		return nil, err
	}

	var contextBlock strings.Builder
	sources := make([]string, 0, len(hits))
	for i, h := range hits {
		fmt.Fprintf(&contextBlock, "[%d] %s\n", i+1, h.Doc.Text)
		sources = append(sources, h.Doc.Disease)
	}

	prompt := fmt.Sprintf(`Rules:
- ONLY explain the disease provided.
- DO NOT introduce new diseases.
- DO NOT give treatment advice.
- DO NOT make a diagnosis.
- Base your answer ONLY on the context.

User symptoms:
%s

Predicted disease:
%s (confidence: %.2f)

Context:
%s
Explain clearly why this disease matches the symptoms.`,
		strings.Join(symptoms, ", "), disease, confidence, contextBlock.String())

	resp, err := e.client.Chat(ctx, []types.Message{
		nlp.NewSystemMessage(explainSystemPrompt),
		nlp.NewUserMessage(prompt),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate explanation: %w", err)
	}

	return &Explanation{Text: strings.TrimSpace(resp.Content), Sources: sources}, nil
}
