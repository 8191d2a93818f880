package graph

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/soundprediction/sympto/pkg/types"
)

// Neo4jStore implements the Store interface for Neo4j databases.
type Neo4jStore struct {
	client   neo4j.DriverWithContext
	database string
}

// NewNeo4jStore creates a new Neo4j store instance.
func NewNeo4jStore(uri, username, password, database string) (*Neo4jStore, error) {
	client, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}

	if database == "" {
		database = "neo4j"
	}

	return &Neo4jStore{client: client, database: database}, nil
}

func (s *Neo4jStore) session(ctx context.Context) neo4j.SessionWithContext {
	return s.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: s.database})
}

func nodeLabel(kind types.NodeKind) string {
	if kind == types.DiseaseNode {
		return "Disease"
	}
	return "Symptom"
}

// UpsertNode implements Store.
func (s *Neo4jStore) UpsertNode(ctx context.Context, node *types.Node) error {
	if err := node.ValidateForCreate(); err != nil {
		return err
	}

	session := s.session(ctx)
	defer session.Close(ctx)

	query := fmt.Sprintf(`
		MERGE (n:%s {name: $name})
		ON CREATE SET n.uuid = $uuid, n.created_at = $now
		SET n.pref_label = $pref_label,
		    n.updated_at = $now,
		    n.explanation = CASE WHEN $explanation <> '' THEN $explanation ELSE n.explanation END,
		    n.wikidata_id = CASE WHEN $wikidata_id <> '' THEN $wikidata_id ELSE n.wikidata_id END,
		    n.cui = CASE WHEN $cui <> '' THEN $cui ELSE n.cui END
	`, nodeLabel(node.Kind))

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, query, map[string]any{
			"name":        NormalizeName(node.Name),
			"uuid":        node.Uuid,
			"pref_label":  node.PrefLabel,
			"explanation": node.Explanation,
			"wikidata_id": node.WikidataID,
			"cui":         node.CUI,
			"now":         time.Now().UTC(),
		})
	})
	if err != nil {
		return fmt.Errorf("failed to upsert node %q: %w", node.Name, err)
	}
	return nil
}

// UpsertEdge implements Store.
func (s *Neo4jStore) UpsertEdge(ctx context.Context, edge *types.Edge) error {
	if err := edge.Validate(); err != nil {
		return err
	}

	session := s.session(ctx)
	defer session.Close(ctx)

	query := `
		MATCH (d:Disease {uuid: $disease_uuid})
		MATCH (s:Symptom {uuid: $symptom_uuid})
		MERGE (d)-[r:HAS_SYMPTOM {role: $role}]->(s)
		ON CREATE SET r.uuid = $uuid, r.support = $support, r.created_at = $now
		ON MATCH SET r.support = r.support + $support
	`

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, map[string]any{
			"disease_uuid": edge.DiseaseUUID,
			"symptom_uuid": edge.SymptomUUID,
			"role":         string(edge.Role),
			"uuid":         edge.Uuid,
			"support":      edge.Support,
			"now":          time.Now().UTC(),
		})
		if err != nil {
			return nil, err
		}
		summary, err := res.Consume(ctx)
		if err != nil {
			return nil, err
		}
		return summary, nil
	})
	if err != nil {
		return fmt.Errorf("failed to upsert edge: %w", err)
	}
	return nil
}

// GetDisease implements Store.
func (s *Neo4jStore) GetDisease(ctx context.Context, name string) (*types.Node, error) {
	return s.getNode(ctx, types.DiseaseNode, name, types.ErrDiseaseNotFound)
}

// GetSymptom implements Store.
func (s *Neo4jStore) GetSymptom(ctx context.Context, name string) (*types.Node, error) {
	return s.getNode(ctx, types.SymptomNode, name, types.ErrSymptomNotFound)
}

func (s *Neo4jStore) getNode(ctx context.Context, kind types.NodeKind, name string, notFound error) (*types.Node, error) {
	session := s.session(ctx)
	defer session.Close(ctx)

	query := fmt.Sprintf(`
		MATCH (n:%s {name: $name})
		RETURN n.uuid AS uuid, n.name AS name, n.pref_label AS pref_label,
		       n.explanation AS explanation, n.wikidata_id AS wikidata_id,
		       n.cui AS cui
	`, nodeLabel(kind))

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, map[string]any{"name": NormalizeName(name)})
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		return records, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get node %q: %w", name, err)
	}

	records := result.([]*neo4j.Record)
	if len(records) == 0 {
		return nil, notFound
	}

	return nodeFromRecord(records[0], kind), nil
}

func nodeFromRecord(record *neo4j.Record, kind types.NodeKind) *types.Node {
	node := &types.Node{Kind: kind}
	if v, ok := record.Get("uuid"); ok {
		node.Uuid, _ = v.(string)
	}
	if v, ok := record.Get("name"); ok {
		node.Name, _ = v.(string)
	}
	if v, ok := record.Get("pref_label"); ok {
		node.PrefLabel, _ = v.(string)
	}
	if v, ok := record.Get("explanation"); ok {
		node.Explanation, _ = v.(string)
	}
	if v, ok := record.Get("wikidata_id"); ok {
		node.WikidataID, _ = v.(string)
	}
	if v, ok := record.Get("cui"); ok {
		node.CUI, _ = v.(string)
	}
	return node
}

// Diseases implements Store.
func (s *Neo4jStore) Diseases(ctx context.Context) ([]*types.Node, error) {
	return s.listNodes(ctx, types.DiseaseNode)
}

// Symptoms implements Store.
func (s *Neo4jStore) Symptoms(ctx context.Context) ([]*types.Node, error) {
	return s.listNodes(ctx, types.SymptomNode)
}

func (s *Neo4jStore) listNodes(ctx context.Context, kind types.NodeKind) ([]*types.Node, error) {
	session := s.session(ctx)
	defer session.Close(ctx)

	query := fmt.Sprintf(`
		MATCH (n:%s)
		RETURN n.uuid AS uuid, n.name AS name, n.pref_label AS pref_label,
		       n.explanation AS explanation, n.wikidata_id AS wikidata_id,
		       n.cui AS cui
		ORDER BY n.name
	`, nodeLabel(kind))

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, nil)
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list nodes: %w", err)
	}

	records := result.([]*neo4j.Record)
	nodes := make([]*types.Node, 0, len(records))
	for _, r := range records {
		nodes = append(nodes, nodeFromRecord(r, kind))
	}
	return nodes, nil
}

// DiseaseSymptoms implements Store.
func (s *Neo4jStore) DiseaseSymptoms(ctx context.Context, disease string, roles ...types.SymptomRole) ([]string, error) {
	session := s.session(ctx)
	defer session.Close(ctx)

	roleStrings := make([]string, 0, len(roles))
	for _, r := range roles {
		roleStrings = append(roleStrings, string(r))
	}
	if len(roleStrings) == 0 {
		for _, r := range types.SymptomRoles {
			roleStrings = append(roleStrings, string(r))
		}
	}

	query := `
		MATCH (d:Disease {name: $name})-[r:HAS_SYMPTOM]->(s:Symptom)
		WHERE r.role IN $roles
		RETURN DISTINCT s.name AS symptom
		ORDER BY symptom
	`

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, map[string]any{
			"name":  NormalizeName(disease),
			"roles": roleStrings,
		})
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get disease symptoms: %w", err)
	}

	records := result.([]*neo4j.Record)
	if len(records) == 0 {
		// Distinguish unknown disease from a disease with no symptoms
		if _, err := s.GetDisease(ctx, disease); err != nil {
			return nil, err
		}
	}

	names := make([]string, 0, len(records))
	for _, r := range records {
		if v, ok := r.Get("symptom"); ok {
			if name, ok := v.(string); ok {
				names = append(names, name)
			}
		}
	}
	return names, nil
}

// AllDiseaseSymptoms implements Store.
func (s *Neo4jStore) AllDiseaseSymptoms(ctx context.Context) (map[string][]string, error) {
	session := s.session(ctx)
	defer session.Close(ctx)

	query := `
		MATCH (d:Disease)-[:HAS_SYMPTOM]->(s:Symptom)
		RETURN d.name AS disease, collect(DISTINCT s.name) AS symptoms
	`

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, nil)
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get disease symptoms: %w", err)
	}

	out := make(map[string][]string)
	for _, r := range result.([]*neo4j.Record) {
		diseaseVal, _ := r.Get("disease")
		symptomsVal, _ := r.Get("symptoms")

		disease, ok := diseaseVal.(string)
		if !ok {
			continue
		}
		rawList, ok := symptomsVal.([]any)
		if !ok {
			continue
		}
		names := make([]string, 0, len(rawList))
		for _, v := range rawList {
			if name, ok := v.(string); ok {
				names = append(names, name)
			}
		}
		sort.Strings(names)
		out[disease] = names
	}
	return out, nil
}

// Stats implements Store.
func (s *Neo4jStore) Stats(ctx context.Context) (*Stats, error) {
	session := s.session(ctx)
	defer session.Close(ctx)

	query := `
		OPTIONAL MATCH (d:Disease) WITH count(d) AS diseases
		OPTIONAL MATCH (s:Symptom) WITH diseases, count(s) AS symptoms
		OPTIONAL MATCH ()-[r:HAS_SYMPTOM]->()
		RETURN diseases, symptoms, count(r) AS edges
	`
	roleQuery := `
		MATCH ()-[r:HAS_SYMPTOM]->()
		RETURN coalesce(r.role, 'primary') AS role, count(r) AS n
	`

	type statsResult struct {
		record *neo4j.Record
		roles  map[string]int
	}

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, nil)
		if err != nil {
			return nil, err
		}
		record, err := res.Single(ctx)
		if err != nil {
			return nil, err
		}

		roles := make(map[string]int)
		roleRes, err := tx.Run(ctx, roleQuery, nil)
		if err != nil {
			return nil, err
		}
		roleRecords, err := roleRes.Collect(ctx)
		if err != nil {
			return nil, err
		}
		for _, rr := range roleRecords {
			role, _ := rr.Get("role")
			n, _ := rr.Get("n")
			if name, ok := role.(string); ok {
				if count, ok := n.(int64); ok {
					roles[name] = int(count)
				}
			}
		}
		return &statsResult{record: record, roles: roles}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}

	res := result.(*statsResult)
	stats := &Stats{
		EdgesByRole: res.roles,
		LastUpdated: time.Now().UTC(),
	}
	if v, ok := res.record.Get("diseases"); ok {
		if n, ok := v.(int64); ok {
			stats.DiseaseCount = int(n)
		}
	}
	if v, ok := res.record.Get("symptoms"); ok {
		if n, ok := v.(int64); ok {
			stats.SymptomCount = int(n)
		}
	}
	if v, ok := res.record.Get("edges"); ok {
		if n, ok := v.(int64); ok {
			stats.EdgeCount = int(n)
		}
	}
	return stats, nil
}

// CreateIndices implements Store.
func (s *Neo4jStore) CreateIndices(ctx context.Context) error {
	session := s.session(ctx)
	defer session.Close(ctx)

	statements := []string{
		"CREATE CONSTRAINT disease_name IF NOT EXISTS FOR (d:Disease) REQUIRE d.name IS UNIQUE",
		"CREATE CONSTRAINT symptom_name IF NOT EXISTS FOR (s:Symptom) REQUIRE s.name IS UNIQUE",
		"CREATE INDEX disease_uuid IF NOT EXISTS FOR (d:Disease) ON (d.uuid)",
		"CREATE INDEX symptom_uuid IF NOT EXISTS FOR (s:Symptom) ON (s.uuid)",
	}

	for _, stmt := range statements {
		_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			return tx.Run(ctx, stmt, nil)
		})
		if err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

// Clear implements Store.
func (s *Neo4jStore) Clear(ctx context.Context) error {
	session := s.session(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, "MATCH (n) WHERE n:Disease OR n:Symptom DETACH DELETE n", nil)
	})
	if err != nil {
		return fmt.Errorf("failed to clear graph: %w", err)
	}
	return nil
}

// Provider implements Store.
func (s *Neo4jStore) Provider() Provider {
	return ProviderNeo4j
}

// Close implements Store.
func (s *Neo4jStore) Close(ctx context.Context) error {
	return s.client.Close(ctx)
}
