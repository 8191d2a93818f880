package extract

import (
	"context"
	"testing"

	"github.com/soundprediction/sympto/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "dry cough at night", NormalizeText("  Dry cough, at night!  "))
	assert.Equal(t, "light-headed", NormalizeText("light-headed"))
	assert.Equal(t, "", NormalizeText("   "))
}

func TestPhraseExtractorPrefersLongerPhrases(t *testing.T) {
	e := NewPhraseExtractor([]string{"breath", "shortness of breath", "cough"})

	got := e.Extract("I've had shortness of breath and a cough for days.")

	assert.Contains(t, got, "shortness of breath")
	assert.Contains(t, got, "cough")
	// "breath" overlaps the longer match and must be suppressed
	assert.NotContains(t, got, "breath")
}

func TestPhraseExtractorWordBoundaries(t *testing.T) {
	e := NewPhraseExtractor([]string{"ache"})

	// "headache" must not match "ache"
	got := e.Extract("a terrible headache")
	assert.NotContains(t, got, "ache")
}

func TestPhraseExtractorFallbackChunks(t *testing.T) {
	e := NewPhraseExtractor([]string{"fever"})

	got := e.Extract("tight chest and woozy feeling")
	require.NotEmpty(t, got)
	assert.Contains(t, got, "tight chest")
	assert.Contains(t, got, "woozy feeling")
}

func TestPhraseExtractorEmptyInput(t *testing.T) {
	e := NewPhraseExtractor([]string{"fever"})
	assert.Nil(t, e.Extract("   "))
}

func TestPhraseExtractorMaxMatches(t *testing.T) {
	e := NewPhraseExtractor([]string{"fever", "cough", "rash"})
	e.MaxMatches = 2

	got := e.Extract("fever cough rash")
	assert.Len(t, got, 2)
}

// jsonClient returns a canned ChatJSON payload.
type jsonClient struct {
	payload string
	err     error
}

func (c *jsonClient) Chat(ctx context.Context, messages []types.Message) (*types.Response, error) {
	return &types.Response{Content: c.payload}, c.err
}

func (c *jsonClient) ChatJSON(ctx context.Context, messages []types.Message) (string, error) {
	return c.payload, c.err
}

func (c *jsonClient) Close() error { return nil }

func TestLLMExtractor(t *testing.T) {
	client := &jsonClient{payload: `{"symptoms": ["Dry Cough", "chest tightness", "dry cough", ""]}`}
	e := NewLLMExtractor(client)

	got, err := e.Extract(context.Background(), "I've been coughing and my chest feels tight")
	require.NoError(t, err)

	// Normalized, deduplicated, empties dropped
	assert.Equal(t, []string{"dry cough", "chest tightness"}, got)
}

func TestLLMExtractorEmptyText(t *testing.T) {
	e := NewLLMExtractor(&jsonClient{payload: `{"symptoms": []}`})

	got, err := e.Extract(context.Background(), "  ")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLLMExtractorBadJSON(t *testing.T) {
	e := NewLLMExtractor(&jsonClient{payload: `not json at all`})

	_, err := e.Extract(context.Background(), "some text")
	assert.Error(t, err)
}
