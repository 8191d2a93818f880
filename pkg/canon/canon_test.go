package canon

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEmbedder returns fixed vectors per text.
type fakeEmbedder struct {
	vectors map[string][]float32
	dim     int
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, ok := f.vectors[t]
		if !ok {
			v = make([]float32, f.dim)
		}
		c := make([]float32, len(v))
		copy(c, v)
		out[i] = c
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	vs, err := f.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vs[0], nil
}

func (f *fakeEmbedder) Dimensions() int { return f.dim }
func (f *fakeEmbedder) Close() error    { return nil }

func testEmbedder() *fakeEmbedder {
	return &fakeEmbedder{
		dim: 3,
		vectors: map[string][]float32{
			"fever":               {1, 0, 0},
			"cough":               {0, 1, 0},
			"shortness of breath": {0, 0, 1},
			// close to fever but not identical
			"high temperature": {0.95, 0.05, 0},
			// halfway between fever and cough: ambiguous
			"feeling off": {0.7, 0.7, 0},
			// far from everything
			"purple toes": {-1, 0, 0},
		},
	}
}

func buildTestIndex(t *testing.T) (*Index, *fakeEmbedder) {
	t.Helper()
	emb := testEmbedder()
	idx, err := BuildIndex(context.Background(), emb, []string{"fever", "cough", "shortness of breath"})
	require.NoError(t, err)
	return idx, emb
}

func TestCanonicalizeAccepted(t *testing.T) {
	idx, emb := buildTestIndex(t)
	c := New(idx, emb)

	r, err := c.Canonicalize(context.Background(), "High Temperature!", 2)
	require.NoError(t, err)

	assert.True(t, r.Accepted)
	assert.False(t, r.Ambiguous)
	assert.Equal(t, "fever", r.Match)
	assert.Greater(t, r.Score, DefaultAcceptThreshold)
	assert.Len(t, r.Candidates, 2)
}

func TestCanonicalizeAmbiguous(t *testing.T) {
	idx, emb := buildTestIndex(t)
	c := New(idx, emb)

	r, err := c.Canonicalize(context.Background(), "feeling off", 2)
	require.NoError(t, err)

	assert.True(t, r.Ambiguous)
	assert.False(t, r.Accepted)
	assert.Empty(t, r.Match)
}

func TestCanonicalizeBelowThreshold(t *testing.T) {
	idx, emb := buildTestIndex(t)
	c := New(idx, emb)

	r, err := c.Canonicalize(context.Background(), "purple toes", 2)
	require.NoError(t, err)

	assert.False(t, r.Accepted)
}

func TestCanonicalizeEmptyPhrase(t *testing.T) {
	idx, emb := buildTestIndex(t)
	c := New(idx, emb)

	r, err := c.Canonicalize(context.Background(), "  !? ", 2)
	require.NoError(t, err)

	assert.False(t, r.Accepted)
	assert.Empty(t, r.Candidates)
}

func TestCanonicalizeAllDeduplicates(t *testing.T) {
	idx, emb := buildTestIndex(t)
	c := New(idx, emb)

	accepted, results, err := c.CanonicalizeAll(context.Background(),
		[]string{"high temperature", "fever", "purple toes"})
	require.NoError(t, err)

	assert.Equal(t, []string{"fever"}, accepted)
	assert.Len(t, results, 3)
}

func TestIndexSaveLoad(t *testing.T) {
	idx, _ := buildTestIndex(t)

	path := filepath.Join(t.TempDir(), "index.json")
	require.NoError(t, idx.Save(path))

	loaded, err := LoadIndex(path)
	require.NoError(t, err)
	assert.Equal(t, idx.Terms, loaded.Terms)
	assert.Len(t, loaded.Vectors, len(idx.Vectors))
}

func TestIndexSearchDeterministicTies(t *testing.T) {
	idx := &Index{
		Terms:   []string{"b term", "a term"},
		Vectors: [][]float32{{1, 0}, {1, 0}},
	}

	got := idx.Search([]float32{1, 0}, 2)
	assert.Equal(t, "a term", got[0].Term)
	assert.Equal(t, "b term", got[1].Term)
}
