// Package graph builds and queries the disease-symptom knowledge graph.
// Two drivers are provided: an embedded in-memory store and Neo4j.
package graph

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/soundprediction/sympto/pkg/types"
)

// Provider identifies a graph store implementation.
type Provider string

const (
	ProviderMemory Provider = "memory"
	ProviderNeo4j  Provider = "neo4j"
)

// Store defines the operations the pipeline needs from a graph database.
type Store interface {
	// UpsertNode inserts or updates a node keyed by (kind, name).
	UpsertNode(ctx context.Context, node *types.Node) error

	// UpsertEdge inserts or updates a disease-symptom edge.
	UpsertEdge(ctx context.Context, edge *types.Edge) error

	// GetDisease retrieves a disease node by normalized name.
	GetDisease(ctx context.Context, name string) (*types.Node, error)

	// GetSymptom retrieves a symptom node by normalized name.
	GetSymptom(ctx context.Context, name string) (*types.Node, error)

	// Diseases lists all disease nodes sorted by name.
	Diseases(ctx context.Context) ([]*types.Node, error)

	// Symptoms lists all symptom nodes sorted by name.
	Symptoms(ctx context.Context) ([]*types.Node, error)

	// DiseaseSymptoms returns the symptom names of a disease restricted
	// to the given roles; no roles means all roles.
	DiseaseSymptoms(ctx context.Context, disease string, roles ...types.SymptomRole) ([]string, error)

	// AllDiseaseSymptoms returns every disease mapped to its symptom set
	// across all roles.
	AllDiseaseSymptoms(ctx context.Context) (map[string][]string, error)

	// Stats returns node and edge counts.
	Stats(ctx context.Context) (*Stats, error)

	// CreateIndices creates database indices where supported.
	CreateIndices(ctx context.Context) error

	// Clear removes all nodes and edges.
	Clear(ctx context.Context) error

	// Provider reports the backing implementation.
	Provider() Provider

	// Close releases resources.
	Close(ctx context.Context) error
}

// Stats holds graph size counters.
type Stats struct {
	DiseaseCount int            `json:"disease_count"`
	SymptomCount int            `json:"symptom_count"`
	EdgeCount    int            `json:"edge_count"`
	EdgesByRole  map[string]int `json:"edges_by_role"`
	LastUpdated  time.Time      `json:"last_updated"`
}

var dashUnderscore = regexp.MustCompile(`[-_]+`)

// NormalizeName produces the matching key for node names: lowercase with
// dashes and underscores folded to single spaces.
func NormalizeName(name string) string {
	return strings.TrimSpace(dashUnderscore.ReplaceAllString(strings.ToLower(name), " "))
}
