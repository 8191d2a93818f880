package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/soundprediction/sympto/pkg/nlp"
	"github.com/soundprediction/sympto/pkg/types"
)

const extractSystemPrompt = `You are a clinical concept extraction assistant.
Extract the symptom mentions from the patient text.
Return STRICT JSON ONLY (no markdown, no backticks) with exactly this shape:
{"symptoms": ["<symptom phrase>", ...]}
Rules:
- Report only symptoms the patient describes, in their own words.
- Do NOT diagnose, do NOT name diseases, do NOT give advice.
- Use short lowercase phrases (1-4 words each).`

// LLMExtractor extracts symptom mentions with a language model. It is an
// alternative to PhraseExtractor for text outside the mined vocabulary.
type LLMExtractor struct {
	client     nlp.Client
	MaxMatches int
}

// NewLLMExtractor creates an extractor backed by the given chat client.
func NewLLMExtractor(client nlp.Client) *LLMExtractor {
	return &LLMExtractor{client: client, MaxMatches: DefaultMaxMatches}
}

// Extract prompts the model and parses its JSON reply into a list of
// normalized symptom phrases.
func (e *LLMExtractor) Extract(ctx context.Context, text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	out, err := e.client.ChatJSON(ctx, []types.Message{
		nlp.NewSystemMessage(extractSystemPrompt),
		nlp.NewUserMessage("Patient text:\n" + text),
	})
	if err != nil {
		return nil, fmt.Errorf("symptom extraction failed: %w", err)
	}

	var parsed struct {
		Symptoms []string `json:"symptoms"`
	}
	if err := json.Unmarshal([]byte(out), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse extraction output: %w", err)
	}

	maxMatches := e.MaxMatches
	if maxMatches <= 0 {
		maxMatches = DefaultMaxMatches
	}

	seen := make(map[string]bool)
	var symptoms []string
	for _, s := range parsed.Symptoms {
		n := NormalizeText(s)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		symptoms = append(symptoms, n)
		if len(symptoms) >= maxMatches {
			break
		}
	}
	return symptoms, nil
}
