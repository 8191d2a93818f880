package types

import (
	"errors"
	"time"
)

// Validation errors
var (
	ErrEmptyText       = errors.New("text cannot be empty")
	ErrEmptyName       = errors.New("name cannot be empty")
	ErrEmptyUUID       = errors.New("uuid cannot be empty")
	ErrInvalidTopK     = errors.New("top_k must be positive")
	ErrUnknownEngine   = errors.New("unknown diagnosis engine")
	ErrDiseaseNotFound = errors.New("disease not found")
	ErrSymptomNotFound = errors.New("symptom not found")
)

// NodeKind represents the kind of a knowledge graph node.
type NodeKind string

const (
	// DiseaseNode represents a disease or condition.
	DiseaseNode NodeKind = "disease"
	// SymptomNode represents a clinical symptom.
	SymptomNode NodeKind = "symptom"
)

// SymptomRole qualifies the relation between a disease and a symptom.
type SymptomRole string

const (
	// RolePrimary marks symptoms characteristic of the disease.
	RolePrimary SymptomRole = "primary"
	// RoleSecondary marks symptoms that commonly co-occur.
	RoleSecondary SymptomRole = "secondary"
	// RoleComplication marks symptoms of a progressed or complicated course.
	RoleComplication SymptomRole = "complication"
)

// SymptomRoles lists every role a disease-symptom edge can carry.
var SymptomRoles = []SymptomRole{RolePrimary, RoleSecondary, RoleComplication}

// Node represents a node in the medical knowledge graph.
type Node struct {
	Uuid      string    `json:"uuid" mapstructure:"uuid"`
	Name      string    `json:"name" mapstructure:"name"`
	Kind      NodeKind  `json:"kind" mapstructure:"kind"`
	CreatedAt time.Time `json:"created_at" mapstructure:"created_at"`
	UpdatedAt time.Time `json:"updated_at" mapstructure:"updated_at"`

	// PrefLabel is the human-readable preferred label. Name is the
	// normalized form used for matching.
	PrefLabel string `json:"pref_label,omitempty" mapstructure:"pref_label"`

	// Disease-specific fields
	Explanation string `json:"explanation,omitempty" mapstructure:"explanation"`
	WikidataID  string `json:"wikidata_id,omitempty" mapstructure:"wikidata_id"`
	CUI         string `json:"cui,omitempty" mapstructure:"cui"`

	// Embedding of the node name, when an embedder is configured.
	Embedding []float32 `json:"embedding,omitempty" mapstructure:"embedding"`

	Metadata map[string]interface{} `json:"metadata,omitempty" mapstructure:"metadata"`
}

// Validate checks if the Node has all required fields set.
func (n *Node) Validate() error {
	if n.Name == "" {
		return ErrEmptyName
	}
	return nil
}

// ValidateForCreate checks if the Node has all required fields for creation.
func (n *Node) ValidateForCreate() error {
	if n.Uuid == "" {
		return ErrEmptyUUID
	}
	return n.Validate()
}

// Edge links a disease to one of its symptoms with a given role.
type Edge struct {
	Uuid        string      `json:"uuid" mapstructure:"uuid"`
	DiseaseUUID string      `json:"disease_uuid" mapstructure:"disease_uuid"`
	SymptomUUID string      `json:"symptom_uuid" mapstructure:"symptom_uuid"`
	Role        SymptomRole `json:"role" mapstructure:"role"`
	// Support counts how many corpus records evidenced this relation.
	Support   int       `json:"support" mapstructure:"support"`
	CreatedAt time.Time `json:"created_at" mapstructure:"created_at"`
}

// Validate checks if the Edge has all required fields set.
func (e *Edge) Validate() error {
	if e.DiseaseUUID == "" || e.SymptomUUID == "" {
		return ErrEmptyUUID
	}
	return nil
}

// DiseaseMatch is a single row of a graph similarity ranking.
type DiseaseMatch struct {
	Disease         string   `json:"disease"`
	MatchedSymptoms []string `json:"matched_symptoms"`
	MatchCount      int      `json:"match_count"`
	Score           float64  `json:"score"`
	TotalDisease    int      `json:"total_disease_symptoms"`
	TotalInput      int      `json:"total_input_symptoms"`
}

// PredictionSource identifies which engine produced a prediction score.
type PredictionSource string

const (
	SourceClassifier PredictionSource = "classifier"
	SourceGraph      PredictionSource = "graph"
	SourceFused      PredictionSource = "fused"
)

// Prediction is a scored disease candidate. Predictions carry only
// canonical disease names, never raw patient text.
type Prediction struct {
	Disease         string           `json:"disease"`
	Score           float64          `json:"score"`
	Source          PredictionSource `json:"source"`
	MatchedSymptoms []string         `json:"matched_symptoms,omitempty"`
}

// DiseaseInfo holds best-effort external enrichment for a disease.
type DiseaseInfo struct {
	Description  string `json:"description,omitempty"`
	ImageURL     string `json:"image_url,omitempty"`
	WikipediaURL string `json:"wikipedia_url,omitempty"`
}
