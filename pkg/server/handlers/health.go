// Package handlers implements the HTTP endpoint handlers.
package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/soundprediction/sympto/pkg/graph"
)

// Build information - can be set at build time using ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// HealthHandler handles health check requests
type HealthHandler struct {
	store graph.Store
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(store graph.Store) *HealthHandler {
	return &HealthHandler{store: store}
}

// HealthCheck handles GET /health - basic liveness check
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "sympto",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   Version,
	})
}

// ReadinessCheck handles GET /ready - verifies the graph store answers
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	response := gin.H{
		"status":    "ready",
		"service":   "sympto",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    gin.H{},
	}
	checks := response["checks"].(gin.H)
	allHealthy := true

	if h.store != nil {
		start := time.Now()
		stats, err := h.store.Stats(ctx)
		duration := time.Since(start)

		if err != nil {
			checks["graph"] = gin.H{
				"status":   "unhealthy",
				"error":    err.Error(),
				"duration": duration.String(),
			}
			allHealthy = false
		} else {
			checks["graph"] = gin.H{
				"status":   "healthy",
				"provider": string(h.store.Provider()),
				"diseases": stats.DiseaseCount,
				"duration": duration.String(),
			}
		}
	} else {
		checks["graph"] = gin.H{
			"status": "unhealthy",
			"error":  "graph store not initialized",
		}
		allHealthy = false
	}

	status := http.StatusOK
	if !allHealthy {
		response["status"] = "not ready"
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, response)
}

// LivenessCheck handles GET /live - process is up
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
