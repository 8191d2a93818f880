package rag

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/sympto/pkg/graph"
	"github.com/soundprediction/sympto/pkg/types"
)

// fakeEmbedder maps known substrings to fixed unit vectors.
type fakeEmbedder struct {
	axes map[string]int
}

func (f *fakeEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	vec := make([]float32, 4)
	for key, axis := range f.axes {
		if strings.Contains(strings.ToLower(text), key) {
			vec[axis] = 1
		}
	}
	return vec, nil
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := f.EmbedSingle(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (f *fakeEmbedder) Dimensions() int { return 4 }
func (f *fakeEmbedder) Close() error    { return nil }

// fakeChat echoes a canned explanation and records the prompt.
type fakeChat struct {
	lastMessages []types.Message
}

func (f *fakeChat) Chat(ctx context.Context, messages []types.Message) (*types.Response, error) {
	f.lastMessages = messages
	return &types.Response{Content: "The fever points to influenza. This is not a medical diagnosis."}, nil
}

func (f *fakeChat) ChatJSON(ctx context.Context, messages []types.Message) (string, error) {
	return "{}", nil
}

func (f *fakeChat) Close() error { return nil }

func seedGraph(t *testing.T) graph.Store {
	t.Helper()
	ctx := context.Background()
	store := graph.NewMemoryStore()

	nodes := []*types.Node{
		{Uuid: "d1", Name: "influenza", Kind: types.DiseaseNode, PrefLabel: "influenza",
			Explanation: "influenza is commonly associated with fever and chills."},
		{Uuid: "d2", Name: "migraine", Kind: types.DiseaseNode, PrefLabel: "migraine"},
		{Uuid: "s1", Name: "fever", Kind: types.SymptomNode, PrefLabel: "fever"},
		{Uuid: "s2", Name: "headache", Kind: types.SymptomNode, PrefLabel: "headache"},
	}
	for _, n := range nodes {
		require.NoError(t, store.UpsertNode(ctx, n))
	}
	edges := []*types.Edge{
		{Uuid: "e1", DiseaseUUID: "d1", SymptomUUID: "s1", Role: types.RolePrimary, Support: 5},
		{Uuid: "e2", DiseaseUUID: "d1", SymptomUUID: "s2", Role: types.RoleSecondary, Support: 2},
		{Uuid: "e3", DiseaseUUID: "d2", SymptomUUID: "s2", Role: types.RolePrimary, Support: 7},
	}
	for _, e := range edges {
		require.NoError(t, store.UpsertEdge(ctx, e))
	}
	return store
}

func TestGenerateDocs(t *testing.T) {
	ctx := context.Background()
	docs, err := GenerateDocs(ctx, seedGraph(t))
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "influenza", docs[0].Disease)
	assert.Contains(t, docs[0].Text, "Disease: influenza.")
	assert.Contains(t, docs[0].Text, "Primary symptoms: fever.")
	assert.Contains(t, docs[0].Text, "Secondary symptoms: headache.")
	assert.Contains(t, docs[0].Text, "commonly associated with fever and chills")

	assert.Equal(t, "migraine", docs[1].Disease)
	assert.NotContains(t, docs[1].Text, "Secondary symptoms")
}

func TestIndexSearch(t *testing.T) {
	ctx := context.Background()
	emb := &fakeEmbedder{axes: map[string]int{"influenza": 0, "migraine": 1, "fever": 2, "headache": 3}}

	docs, err := GenerateDocs(ctx, seedGraph(t))
	require.NoError(t, err)

	index, err := BuildIndex(ctx, emb, docs)
	require.NoError(t, err)
	assert.Equal(t, 2, index.Len())

	hits, err := index.Search(ctx, "burning fever", 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "influenza", hits[0].Doc.Disease)

	hits, err = index.Search(ctx, "headache", 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "migraine", hits[0].Doc.Disease, "migraine's only symptom is headache so it scores higher")
}

func TestExplain(t *testing.T) {
	ctx := context.Background()
	emb := &fakeEmbedder{axes: map[string]int{"influenza": 0, "migraine": 1, "fever": 2, "headache": 3}}
	chat := &fakeChat{}

	docs, err := GenerateDocs(ctx, seedGraph(t))
	require.NoError(t, err)
	index, err := BuildIndex(ctx, emb, docs)
	require.NoError(t, err)

	explainer := NewExplainer(index, chat, 1)
	out, err := explainer.Explain(ctx, []string{"high fever", "chills"}, "influenza", 0.9)
	require.NoError(t, err)

	assert.Contains(t, out.Text, "influenza")
	assert.Contains(t, out.Sources, "influenza")

	require.Len(t, chat.lastMessages, 2)
	assert.Contains(t, chat.lastMessages[0].Content, "medical explanation assistant")
	assert.Contains(t, chat.lastMessages[1].Content, "high fever, chills")
	assert.Contains(t, chat.lastMessages[1].Content, "influenza (confidence: 0.90)")
	assert.Contains(t, chat.lastMessages[1].Content, "ONLY explain the disease provided")
	assert.NotContains(t, chat.lastMessages[1].Content, "migraine",
		"only the predicted disease is offered to the model")
}

func TestExplainEmptyDisease(t *testing.T) {
	explainer := NewExplainer(&Index{}, &fakeChat{}, 3)
	_, err := explainer.Explain(context.Background(), []string{"fever"}, "  ", 0.5)
	assert.ErrorIs(t, err, types.ErrEmptyName)
}
