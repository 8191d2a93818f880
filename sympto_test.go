package sympto

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/sympto/pkg/classify"
	"github.com/soundprediction/sympto/pkg/dataset"
	"github.com/soundprediction/sympto/pkg/extract"
	"github.com/soundprediction/sympto/pkg/graph"
	"github.com/soundprediction/sympto/pkg/rag"
	"github.com/soundprediction/sympto/pkg/types"
	"github.com/soundprediction/sympto/pkg/wikidata"
)

func testStore(t *testing.T) graph.Store {
	t.Helper()
	ctx := context.Background()
	store := graph.NewMemoryStore()

	nodes := []*types.Node{
		{Uuid: "d1", Name: "influenza", Kind: types.DiseaseNode, PrefLabel: "influenza",
			Explanation: "influenza is commonly associated with fever and chills."},
		{Uuid: "d2", Name: "migraine", Kind: types.DiseaseNode, PrefLabel: "migraine"},
		{Uuid: "s1", Name: "fever", Kind: types.SymptomNode, PrefLabel: "fever"},
		{Uuid: "s2", Name: "chills", Kind: types.SymptomNode, PrefLabel: "chills"},
		{Uuid: "s3", Name: "headache", Kind: types.SymptomNode, PrefLabel: "headache"},
	}
	for _, n := range nodes {
		require.NoError(t, store.UpsertNode(ctx, n))
	}
	edges := []*types.Edge{
		{Uuid: "e1", DiseaseUUID: "d1", SymptomUUID: "s1", Role: types.RolePrimary, Support: 5},
		{Uuid: "e2", DiseaseUUID: "d1", SymptomUUID: "s2", Role: types.RoleSecondary, Support: 3},
		{Uuid: "e3", DiseaseUUID: "d2", SymptomUUID: "s3", Role: types.RolePrimary, Support: 7},
	}
	for _, e := range edges {
		require.NoError(t, store.UpsertEdge(ctx, e))
	}
	return store
}

func testExtractor() *extract.PhraseExtractor {
	e := extract.NewPhraseExtractor([]string{"fever", "chills", "headache"})
	e.Fallback = false
	return e
}

func testClassifier(t *testing.T) *classify.Classifier {
	t.Helper()
	corpus := &dataset.Corpus{Records: []dataset.Record{
		{Label: "influenza", Text: "high fever with chills and aches"},
		{Label: "influenza", Text: "fever chills and fatigue"},
		{Label: "influenza", Text: "sudden fever and chills"},
		{Label: "migraine", Text: "pounding headache with nausea"},
		{Label: "migraine", Text: "one sided headache and aura"},
		{Label: "migraine", Text: "headache worse in bright light"},
	}}
	clf, err := classify.TrainClassifier(context.Background(), corpus, 0, classify.TrainOptions{
		MaxIter:   300,
		LearnRate: 0.5,
	})
	require.NoError(t, err)
	return clf
}

func TestParseEngine(t *testing.T) {
	e, err := ParseEngine("graph")
	require.NoError(t, err)
	assert.Equal(t, EngineGraph, e)

	e, err = ParseEngine("")
	require.NoError(t, err)
	assert.Equal(t, EngineHybrid, e)

	_, err = ParseEngine("oracle")
	assert.ErrorIs(t, err, types.ErrUnknownEngine)
}

func TestDiagnoseGraphEngine(t *testing.T) {
	client, err := NewClient(testStore(t), testExtractor(), WithEngine(EngineGraph))
	require.NoError(t, err)

	result, err := client.Diagnose(context.Background(), "I have a fever and chills", Options{})
	require.NoError(t, err)

	assert.Equal(t, EngineGraph, result.Engine)
	// longest phrases are matched first
	assert.Equal(t, []string{"chills", "fever"}, result.Symptoms)
	require.NotEmpty(t, result.Predictions)
	assert.Equal(t, "influenza", result.Predictions[0].Disease)
	assert.Equal(t, types.SourceGraph, result.Predictions[0].Source)
	assert.Equal(t, []string{"chills", "fever"}, result.Predictions[0].MatchedSymptoms)
}

func TestDiagnoseClassifierEngine(t *testing.T) {
	client, err := NewClient(testStore(t), testExtractor(),
		WithClassifier(testClassifier(t)))
	require.NoError(t, err)

	result, err := client.Diagnose(context.Background(), "pounding headache and nausea",
		Options{Engine: EngineClassifier, TopK: 1})
	require.NoError(t, err)

	require.Len(t, result.Predictions, 1)
	assert.Equal(t, "migraine", result.Predictions[0].Disease)
	assert.Equal(t, types.SourceClassifier, result.Predictions[0].Source)
}

func TestDiagnoseHybridEngine(t *testing.T) {
	client, err := NewClient(testStore(t), testExtractor(),
		WithClassifier(testClassifier(t)))
	require.NoError(t, err)

	result, err := client.Diagnose(context.Background(), "fever and chills all week", Options{})
	require.NoError(t, err)

	assert.Equal(t, EngineHybrid, result.Engine)
	require.NotEmpty(t, result.Predictions)
	assert.Equal(t, "influenza", result.Predictions[0].Disease)
	assert.Equal(t, types.SourceFused, result.Predictions[0].Source)
	assert.LessOrEqual(t, len(result.Predictions), DefaultTopK)
}

func TestDiagnoseValidation(t *testing.T) {
	client, err := NewClient(testStore(t), testExtractor())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = client.Diagnose(ctx, "   ", Options{})
	assert.ErrorIs(t, err, types.ErrEmptyText)

	_, err = client.Diagnose(ctx, "fever", Options{TopK: -1})
	assert.ErrorIs(t, err, types.ErrInvalidTopK)

	_, err = client.Diagnose(ctx, "fever", Options{Engine: "oracle"})
	assert.ErrorIs(t, err, types.ErrUnknownEngine)

	// hybrid without a classifier
	_, err = client.Diagnose(ctx, "fever", Options{})
	assert.Error(t, err)
}

func TestDiseaseInfo(t *testing.T) {
	client, err := NewClient(testStore(t), testExtractor())
	require.NoError(t, err)

	detail, err := client.DiseaseInfo(context.Background(), "Influenza")
	require.NoError(t, err)

	assert.Equal(t, "influenza", detail.Name)
	assert.Equal(t, []string{"fever"}, detail.PrimarySymptoms)
	assert.Equal(t, []string{"chills"}, detail.OtherSymptoms)
	assert.Contains(t, detail.Explanation, "commonly associated")
	assert.Nil(t, detail.External)

	_, err = client.DiseaseInfo(context.Background(), "plague")
	assert.ErrorIs(t, err, types.ErrDiseaseNotFound)

	_, err = client.DiseaseInfo(context.Background(), " ")
	assert.ErrorIs(t, err, types.ErrEmptyName)
}

// flatEmbedder gives every text the same vector, so retrieval order
// falls back to disease-name ties.
type flatEmbedder struct{}

func (flatEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0}, nil
}

func (f flatEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func (flatEmbedder) Dimensions() int { return 2 }
func (flatEmbedder) Close() error    { return nil }

// recordingChat captures the prompt and answers with canned text.
type recordingChat struct {
	lastMessages []types.Message
}

func (r *recordingChat) Chat(ctx context.Context, messages []types.Message) (*types.Response, error) {
	r.lastMessages = messages
	return &types.Response{Content: "Fever and chills are typical of influenza. This is not a medical diagnosis."}, nil
}

func (r *recordingChat) ChatJSON(ctx context.Context, messages []types.Message) (string, error) {
	return "{}", nil
}

func (r *recordingChat) Close() error { return nil }

func TestDiagnoseExplainsTopPrediction(t *testing.T) {
	ctx := context.Background()
	store := testStore(t)

	docs, err := rag.GenerateDocs(ctx, store)
	require.NoError(t, err)
	index, err := rag.BuildIndex(ctx, flatEmbedder{}, docs)
	require.NoError(t, err)

	chat := &recordingChat{}
	client, err := NewClient(store, testExtractor(),
		WithEngine(EngineGraph),
		WithExplainer(rag.NewExplainer(index, chat, 1)))
	require.NoError(t, err)

	result, err := client.Diagnose(ctx, "fever and chills all week", Options{Explain: true})
	require.NoError(t, err)
	require.NotNil(t, result.Explanation)
	assert.Contains(t, result.Explanation.Text, "influenza")

	// only the best match is handed to the explainer
	require.Len(t, chat.lastMessages, 2)
	prompt := chat.lastMessages[1].Content
	assert.Contains(t, prompt, "influenza (confidence: 1.00)")
	assert.Contains(t, prompt, strings.Join(result.Symptoms, ", "))
}

func TestDiseaseInfoResolvesWikidataID(t *testing.T) {
	var entityQueries int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Query().Get("query"), "?desc") {
			w.Write([]byte(`{"results": {"bindings": [{"desc": {"value": "infectious disease"}}]}}`))
			return
		}
		entityQueries++
		w.Write([]byte(`{"results": {"bindings": [{"item": {"value": "http://www.wikidata.org/entity/Q2840"}}]}}`))
	}))
	defer server.Close()

	client, err := NewClient(testStore(t), testExtractor(),
		WithWikidata(wikidata.NewClient(wikidata.WithEndpoint(server.URL))))
	require.NoError(t, err)

	detail, err := client.DiseaseInfo(context.Background(), "influenza")
	require.NoError(t, err)
	assert.Equal(t, "Q2840", detail.WikidataID)
	require.NotNil(t, detail.External)
	assert.Equal(t, "infectious disease", detail.External.Description)

	// the resolved id is persisted on the node and not re-queried
	detail, err = client.DiseaseInfo(context.Background(), "influenza")
	require.NoError(t, err)
	assert.Equal(t, "Q2840", detail.WikidataID)
	assert.Equal(t, 1, entityQueries)
}

func TestNewClientRequiresStoreAndExtractor(t *testing.T) {
	_, err := NewClient(nil, testExtractor())
	assert.Error(t, err)
	_, err = NewClient(testStore(t), nil)
	assert.Error(t, err)
}
