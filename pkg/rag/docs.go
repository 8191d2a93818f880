// Package rag generates per-disease reference documents from the
// knowledge graph and answers questions grounded in the retrieved ones.
package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/soundprediction/sympto/pkg/graph"
	"github.com/soundprediction/sympto/pkg/types"
)

// Doc is one retrievable reference document.
type Doc struct {
	Disease string `json:"disease"`
	Text    string `json:"text"`
}

// GenerateDocs renders one document per disease in the store, listing
// its symptoms grouped by role plus any stored explanation.
func GenerateDocs(ctx context.Context, store graph.Store) ([]Doc, error) {
	diseases, err := store.Diseases(ctx)
	if err != nil {
		return nil, err
	}

	docs := make([]Doc, 0, len(diseases))
	for _, d := range diseases {
		var b strings.Builder
		fmt.Fprintf(&b, "Disease: %s.", d.Name)

		for _, role := range types.SymptomRoles {
			symptoms, err := store.DiseaseSymptoms(ctx, d.Name, role)
			if err != nil {
				return nil, err
			}
			if len(symptoms) == 0 {
				continue
			}
			fmt.Fprintf(&b, " %s: %s.", roleHeading(role), strings.Join(symptoms, ", "))
		}

		if d.Explanation != "" {
			fmt.Fprintf(&b, " %s", d.Explanation)
		}

		docs = append(docs, Doc{Disease: d.Name, Text: b.String()})
	}
	return docs, nil
}

func roleHeading(role types.SymptomRole) string {
	switch role {
	case types.RolePrimary:
		return "Primary symptoms"
	case types.RoleSecondary:
		return "Secondary symptoms"
	default:
		return "Complications"
	}
}
