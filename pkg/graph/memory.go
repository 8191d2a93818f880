package graph

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/soundprediction/sympto/pkg/types"
)

// MemoryStore is an embedded Store implementation, safe for concurrent
// use. It is the default driver and the test double for Neo4j.
type MemoryStore struct {
	mu    sync.RWMutex
	nodes map[string]*types.Node // keyed by kind+"\x00"+normalized name
	edges map[string]*types.Edge // keyed by disease uuid+"\x00"+symptom uuid+"\x00"+role
	byID  map[string]*types.Node
}

// NewMemoryStore creates an empty in-memory graph store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nodes: make(map[string]*types.Node),
		edges: make(map[string]*types.Edge),
		byID:  make(map[string]*types.Node),
	}
}

func nodeKey(kind types.NodeKind, name string) string {
	return string(kind) + "\x00" + NormalizeName(name)
}

func edgeKey(e *types.Edge) string {
	return e.DiseaseUUID + "\x00" + e.SymptomUUID + "\x00" + string(e.Role)
}

// UpsertNode implements Store.
func (s *MemoryStore) UpsertNode(ctx context.Context, node *types.Node) error {
	if err := node.ValidateForCreate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := nodeKey(node.Kind, node.Name)
	if existing, ok := s.nodes[key]; ok {
		existing.PrefLabel = node.PrefLabel
		if node.Explanation != "" {
			existing.Explanation = node.Explanation
		}
		if node.WikidataID != "" {
			existing.WikidataID = node.WikidataID
		}
		if node.CUI != "" {
			existing.CUI = node.CUI
		}
		if node.Embedding != nil {
			existing.Embedding = node.Embedding
		}
		existing.UpdatedAt = time.Now().UTC()
		return nil
	}

	copied := *node
	copied.Name = NormalizeName(node.Name)
	if copied.CreatedAt.IsZero() {
		copied.CreatedAt = time.Now().UTC()
	}
	copied.UpdatedAt = copied.CreatedAt
	s.nodes[key] = &copied
	s.byID[copied.Uuid] = &copied
	return nil
}

// UpsertEdge implements Store.
func (s *MemoryStore) UpsertEdge(ctx context.Context, edge *types.Edge) error {
	if err := edge.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[edge.DiseaseUUID]; !ok {
		return types.ErrDiseaseNotFound
	}
	if _, ok := s.byID[edge.SymptomUUID]; !ok {
		return types.ErrSymptomNotFound
	}

	key := edgeKey(edge)
	if existing, ok := s.edges[key]; ok {
		existing.Support += edge.Support
		return nil
	}

	copied := *edge
	if copied.CreatedAt.IsZero() {
		copied.CreatedAt = time.Now().UTC()
	}
	s.edges[key] = &copied
	return nil
}

// GetDisease implements Store.
func (s *MemoryStore) GetDisease(ctx context.Context, name string) (*types.Node, error) {
	return s.getNode(types.DiseaseNode, name, types.ErrDiseaseNotFound)
}

// GetSymptom implements Store.
func (s *MemoryStore) GetSymptom(ctx context.Context, name string) (*types.Node, error) {
	return s.getNode(types.SymptomNode, name, types.ErrSymptomNotFound)
}

func (s *MemoryStore) getNode(kind types.NodeKind, name string, notFound error) (*types.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	node, ok := s.nodes[nodeKey(kind, name)]
	if !ok {
		return nil, notFound
	}
	copied := *node
	return &copied, nil
}

// Diseases implements Store.
func (s *MemoryStore) Diseases(ctx context.Context) ([]*types.Node, error) {
	return s.listNodes(types.DiseaseNode), nil
}

// Symptoms implements Store.
func (s *MemoryStore) Symptoms(ctx context.Context) ([]*types.Node, error) {
	return s.listNodes(types.SymptomNode), nil
}

func (s *MemoryStore) listNodes(kind types.NodeKind) []*types.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*types.Node
	for _, n := range s.nodes {
		if n.Kind == kind {
			copied := *n
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// DiseaseSymptoms implements Store.
func (s *MemoryStore) DiseaseSymptoms(ctx context.Context, disease string, roles ...types.SymptomRole) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	node, ok := s.nodes[nodeKey(types.DiseaseNode, disease)]
	if !ok {
		return nil, types.ErrDiseaseNotFound
	}

	wanted := make(map[types.SymptomRole]bool)
	if len(roles) == 0 {
		for _, r := range types.SymptomRoles {
			wanted[r] = true
		}
	} else {
		for _, r := range roles {
			wanted[r] = true
		}
	}

	set := make(map[string]bool)
	for _, e := range s.edges {
		if e.DiseaseUUID != node.Uuid || !wanted[e.Role] {
			continue
		}
		if sym, ok := s.byID[e.SymptomUUID]; ok {
			set[sym.Name] = true
		}
	}

	names := make([]string, 0, len(set))
	for n := range set {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

// AllDiseaseSymptoms implements Store.
func (s *MemoryStore) AllDiseaseSymptoms(ctx context.Context) (map[string][]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sets := make(map[string]map[string]bool)
	for _, e := range s.edges {
		disease, ok := s.byID[e.DiseaseUUID]
		if !ok {
			continue
		}
		symptom, ok := s.byID[e.SymptomUUID]
		if !ok {
			continue
		}
		if sets[disease.Name] == nil {
			sets[disease.Name] = make(map[string]bool)
		}
		sets[disease.Name][symptom.Name] = true
	}

	out := make(map[string][]string, len(sets))
	for disease, set := range sets {
		names := make([]string, 0, len(set))
		for n := range set {
			names = append(names, n)
		}
		sort.Strings(names)
		out[disease] = names
	}
	return out, nil
}

// Stats implements Store.
func (s *MemoryStore) Stats(ctx context.Context) (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &Stats{
		EdgesByRole: make(map[string]int),
		LastUpdated: time.Now().UTC(),
	}
	for _, n := range s.nodes {
		switch n.Kind {
		case types.DiseaseNode:
			stats.DiseaseCount++
		case types.SymptomNode:
			stats.SymptomCount++
		}
	}
	for _, e := range s.edges {
		stats.EdgeCount++
		stats.EdgesByRole[string(e.Role)]++
	}
	return stats, nil
}

// CreateIndices implements Store. The memory store keeps everything in
// maps already.
func (s *MemoryStore) CreateIndices(ctx context.Context) error {
	return nil
}

// Clear implements Store.
func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nodes = make(map[string]*types.Node)
	s.edges = make(map[string]*types.Edge)
	s.byID = make(map[string]*types.Node)
	return nil
}

// Provider implements Store.
func (s *MemoryStore) Provider() Provider {
	return ProviderMemory
}

// Close implements Store.
func (s *MemoryStore) Close(ctx context.Context) error {
	return nil
}
