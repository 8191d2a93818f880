package medline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/soundprediction/sympto/pkg/nlp"
	"github.com/soundprediction/sympto/pkg/types"
)

const summarySystemPrompt = `You are a medical summarization assistant.
Use ONLY the provided MedlinePlus summary text. Do NOT invent facts.
If something is not mentioned in the summary, say "Not specified in the source."
Write for a general audience.

Return STRICT JSON ONLY (no markdown, no backticks) with exactly these keys:
- explanation_100_words_max: string (<= 100 words)
- symptoms: array of strings
- treatment_options: string (<= 100 words)
- see_a_doctor: object with keys:
    - recommended: boolean
    - urgency: one of ["emergency", "urgent", "routine", "unclear"]
    - guidance: string`

// SeeADoctor is the care-seeking guidance portion of a summary.
type SeeADoctor struct {
	Recommended bool   `json:"recommended"`
	Urgency     string `json:"urgency"`
	Guidance    string `json:"guidance"`
}

// Urgency levels the model is allowed to emit.
const (
	UrgencyEmergency = "emergency"
	UrgencyUrgent    = "urgent"
	UrgencyRoutine   = "routine"
	UrgencyUnclear   = "unclear"
)

// Summary is the structured condensation of a health topic.
type Summary struct {
	Disease          string     `json:"disease"`
	Explanation      string     `json:"explanation_100_words_max"`
	Symptoms         []string   `json:"symptoms"`
	TreatmentOptions string     `json:"treatment_options"`
	SeeADoctor       SeeADoctor `json:"see_a_doctor"`
	Source           string     `json:"source,omitempty"`
}

// Summarizer turns raw topic text into Summary records via a language
// model that is held to strict JSON output.
type Summarizer struct {
	client nlp.Client
}

// NewSummarizer creates a summarizer over the given model client.
func NewSummarizer(client nlp.Client) *Summarizer {
	return &Summarizer{client: client}
}

// Summarize condenses a topic for a disease. Model output that is not
// valid JSON is repaired before parsing; output that cannot be parsed
// at all is an error so the batch runner can record and retry it.
func (s *Summarizer) Summarize(ctx context.Context, disease string, topic Topic) (*Summary, error) {
	if strings.TrimSpace(topic.Summary) == "" {
		return nil, fmt.Errorf("no source text for %q", disease)
	}

	prompt := fmt.Sprintf("DISEASE/CONDITION: %s\n\nMEDLINEPLUS FULL SUMMARY (SOURCE TEXT):\n%s\n\nNow output the JSON.", disease, topic.Summary)
	out, err := s.client.ChatJSON(ctx, []types.Message{
		nlp.NewSystemMessage(summarySystemPrompt),
		nlp.NewUserMessage(prompt),
	})
	if err != nil {
		return nil, fmt.Errorf("summary generation failed for %q: %w", disease, err)
	}

	var parsed struct {
		Explanation      string     `json:"explanation_100_words_max"`
		Symptoms         []string   `json:"symptoms"`
		TreatmentOptions string     `json:"treatment_options"`
		SeeADoctor       SeeADoctor `json:"see_a_doctor"`
	}
	if err := json.Unmarshal([]byte(out), &parsed); err != nil {
		return nil, fmt.Errorf("model returned unparseable summary for %q: %w", disease, err)
	}
	if strings.TrimSpace(parsed.Explanation) == "" {
		return nil, fmt.Errorf("model returned empty explanation for %q", disease)
	}

	symptoms := make([]string, 0, len(parsed.Symptoms))
	seen := make(map[string]bool)
	for _, sym := range parsed.Symptoms {
		sym = strings.ToLower(strings.TrimSpace(sym))
		if sym == "" || seen[sym] {
			continue
		}
		seen[sym] = true
		symptoms = append(symptoms, sym)
	}

	return &Summary{
		Disease:          disease,
		Explanation:      strings.TrimSpace(parsed.Explanation),
		Symptoms:         symptoms,
		TreatmentOptions: strings.TrimSpace(parsed.TreatmentOptions),
		SeeADoctor:       normalizeSeeADoctor(parsed.SeeADoctor),
		Source:           topic.URL,
	}, nil
}

// normalizeSeeADoctor clamps the urgency to the allowed values so
// downstream consumers can switch on it.
func normalizeSeeADoctor(s SeeADoctor) SeeADoctor {
	switch strings.ToLower(strings.TrimSpace(s.Urgency)) {
	case UrgencyEmergency:
		s.Urgency = UrgencyEmergency
	case UrgencyUrgent:
		s.Urgency = UrgencyUrgent
	case UrgencyRoutine:
		s.Urgency = UrgencyRoutine
	default:
		s.Urgency = UrgencyUnclear
	}
	s.Guidance = strings.TrimSpace(s.Guidance)
	return s
}
