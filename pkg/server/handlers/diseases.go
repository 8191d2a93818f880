package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/soundprediction/sympto"
	"github.com/soundprediction/sympto/pkg/graph"
	"github.com/soundprediction/sympto/pkg/server/dto"
	"github.com/soundprediction/sympto/pkg/types"
)

// DiseaseHandler serves knowledge graph lookups
type DiseaseHandler struct {
	store     graph.Store
	diagnoser sympto.Diagnoser
}

// NewDiseaseHandler creates a new disease handler
func NewDiseaseHandler(store graph.Store, diagnoser sympto.Diagnoser) *DiseaseHandler {
	return &DiseaseHandler{store: store, diagnoser: diagnoser}
}

// ListDiseases handles GET /api/v1/diseases
func (h *DiseaseHandler) ListDiseases(c *gin.Context) {
	nodes, err := h.store.Diseases(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	names := make([]string, 0, len(nodes))
	for _, n := range nodes {
		names = append(names, n.Name)
	}
	c.JSON(http.StatusOK, gin.H{"diseases": names, "count": len(names)})
}

// ListSymptoms handles GET /api/v1/symptoms
func (h *DiseaseHandler) ListSymptoms(c *gin.Context) {
	nodes, err := h.store.Symptoms(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	names := make([]string, 0, len(nodes))
	for _, n := range nodes {
		names = append(names, n.Name)
	}
	c.JSON(http.StatusOK, gin.H{"symptoms": names, "count": len(names)})
}

// GetDiseaseSymptoms handles GET /api/v1/diseases/:name/symptoms
func (h *DiseaseHandler) GetDiseaseSymptoms(c *gin.Context) {
	name := c.Param("name")

	var roles []types.SymptomRole
	if role := c.Query("role"); role != "" {
		roles = append(roles, types.SymptomRole(role))
	}

	symptoms, err := h.store.DiseaseSymptoms(c.Request.Context(), name, roles...)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"disease": graph.NormalizeName(name), "symptoms": symptoms})
}

// GetDiseaseInfo handles GET /api/v1/diseases/:name/info
func (h *DiseaseHandler) GetDiseaseInfo(c *gin.Context) {
	detail, err := h.diagnoser.DiseaseInfo(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// GetStats handles GET /api/v1/stats
func (h *DiseaseHandler) GetStats(c *gin.Context) {
	stats, err := h.store.Stats(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *DiseaseHandler) fail(c *gin.Context, err error) {
	status := statusForError(err)
	c.JSON(status, dto.ErrorResponse{
		Error:   "request failed",
		Message: err.Error(),
		Code:    status,
	})
}
