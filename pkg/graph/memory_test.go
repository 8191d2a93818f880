package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/sympto/pkg/types"
)

func seedStore(t *testing.T) *MemoryStore {
	t.Helper()
	ctx := context.Background()
	store := NewMemoryStore()

	nodes := []*types.Node{
		{Uuid: "d-flu", Name: "Influenza", Kind: types.DiseaseNode, PrefLabel: "influenza"},
		{Uuid: "d-mig", Name: "Migraine", Kind: types.DiseaseNode, PrefLabel: "migraine"},
		{Uuid: "s-fev", Name: "fever", Kind: types.SymptomNode, PrefLabel: "fever"},
		{Uuid: "s-hea", Name: "headache", Kind: types.SymptomNode, PrefLabel: "headache"},
		{Uuid: "s-nau", Name: "nausea", Kind: types.SymptomNode, PrefLabel: "nausea"},
	}
	for _, n := range nodes {
		require.NoError(t, store.UpsertNode(ctx, n))
	}

	edges := []*types.Edge{
		{Uuid: "e1", DiseaseUUID: "d-flu", SymptomUUID: "s-fev", Role: types.RolePrimary, Support: 10},
		{Uuid: "e2", DiseaseUUID: "d-flu", SymptomUUID: "s-hea", Role: types.RoleSecondary, Support: 4},
		{Uuid: "e3", DiseaseUUID: "d-mig", SymptomUUID: "s-hea", Role: types.RolePrimary, Support: 12},
		{Uuid: "e4", DiseaseUUID: "d-mig", SymptomUUID: "s-nau", Role: types.RoleSecondary, Support: 5},
	}
	for _, e := range edges {
		require.NoError(t, store.UpsertEdge(ctx, e))
	}
	return store
}

func TestMemoryStoreGetDisease(t *testing.T) {
	ctx := context.Background()
	store := seedStore(t)

	node, err := store.GetDisease(ctx, "influenza")
	require.NoError(t, err)
	assert.Equal(t, "d-flu", node.Uuid)

	// lookup normalizes case and separators
	node, err = store.GetDisease(ctx, "INFLUENZA")
	require.NoError(t, err)
	assert.Equal(t, "d-flu", node.Uuid)

	_, err = store.GetDisease(ctx, "plague")
	assert.ErrorIs(t, err, types.ErrDiseaseNotFound)
}

func TestMemoryStoreUpsertMerges(t *testing.T) {
	ctx := context.Background()
	store := seedStore(t)

	err := store.UpsertNode(ctx, &types.Node{
		Uuid:        "d-flu-2",
		Name:        "Influenza",
		Kind:        types.DiseaseNode,
		PrefLabel:   "influenza",
		Explanation: "influenza is commonly associated with fever and headache.",
	})
	require.NoError(t, err)

	node, err := store.GetDisease(ctx, "influenza")
	require.NoError(t, err)
	assert.Equal(t, "d-flu", node.Uuid, "original uuid survives the merge")
	assert.NotEmpty(t, node.Explanation)
}

func TestMemoryStoreEdgeSupportAccumulates(t *testing.T) {
	ctx := context.Background()
	store := seedStore(t)

	err := store.UpsertEdge(ctx, &types.Edge{
		Uuid:        "e1-again",
		DiseaseUUID: "d-flu",
		SymptomUUID: "s-fev",
		Role:        types.RolePrimary,
		Support:     3,
	})
	require.NoError(t, err)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.EdgeCount, "re-upsert of the same edge does not add a new edge")
}

func TestMemoryStoreEdgeRequiresEndpoints(t *testing.T) {
	ctx := context.Background()
	store := seedStore(t)

	err := store.UpsertEdge(ctx, &types.Edge{
		Uuid:        "e-bad",
		DiseaseUUID: "no-such-disease",
		SymptomUUID: "s-fev",
		Role:        types.RolePrimary,
		Support:     1,
	})
	assert.ErrorIs(t, err, types.ErrDiseaseNotFound)
}

func TestMemoryStoreDiseaseSymptomsByRole(t *testing.T) {
	ctx := context.Background()
	store := seedStore(t)

	all, err := store.DiseaseSymptoms(ctx, "influenza")
	require.NoError(t, err)
	assert.Equal(t, []string{"fever", "headache"}, all)

	primary, err := store.DiseaseSymptoms(ctx, "influenza", types.RolePrimary)
	require.NoError(t, err)
	assert.Equal(t, []string{"fever"}, primary)

	_, err = store.DiseaseSymptoms(ctx, "plague")
	assert.ErrorIs(t, err, types.ErrDiseaseNotFound)
}

func TestMemoryStoreAllDiseaseSymptoms(t *testing.T) {
	ctx := context.Background()
	store := seedStore(t)

	m, err := store.AllDiseaseSymptoms(ctx)
	require.NoError(t, err)
	assert.Len(t, m, 2)
	assert.Equal(t, []string{"headache", "nausea"}, m["migraine"])
}

func TestMemoryStoreStats(t *testing.T) {
	ctx := context.Background()
	store := seedStore(t)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.DiseaseCount)
	assert.Equal(t, 3, stats.SymptomCount)
	assert.Equal(t, 4, stats.EdgeCount)
	assert.Equal(t, 2, stats.EdgesByRole[string(types.RolePrimary)])
}

func TestMemoryStoreClear(t *testing.T) {
	ctx := context.Background()
	store := seedStore(t)

	require.NoError(t, store.Clear(ctx))
	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.DiseaseCount)
	assert.Zero(t, stats.EdgeCount)
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "panic disorder", NormalizeName("Panic_Disorder"))
	assert.Equal(t, "back pain", NormalizeName("back-pain"))
	assert.Equal(t, "fever", NormalizeName("  Fever "))
}
