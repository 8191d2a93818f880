package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/soundprediction/sympto"
	"github.com/soundprediction/sympto/pkg/server/dto"
	"github.com/soundprediction/sympto/pkg/types"
)

// DiagnoseHandler handles diagnosis requests
type DiagnoseHandler struct {
	diagnoser sympto.Diagnoser
	logger    *slog.Logger
}

// NewDiagnoseHandler creates a new diagnose handler
func NewDiagnoseHandler(diagnoser sympto.Diagnoser, logger *slog.Logger) *DiagnoseHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DiagnoseHandler{diagnoser: diagnoser, logger: logger}
}

// Diagnose handles POST /api/v1/diagnose
func (h *DiagnoseHandler) Diagnose(c *gin.Context) {
	var req dto.DiagnoseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
			Code:    http.StatusBadRequest,
		})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation failed",
			Message: err.Error(),
			Code:    http.StatusBadRequest,
		})
		return
	}

	engine, err := sympto.ParseEngine(req.Engine)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation failed",
			Message: err.Error(),
			Code:    http.StatusBadRequest,
		})
		return
	}

	result, err := h.diagnoser.Diagnose(c.Request.Context(), req.Text, sympto.Options{
		TopK:    req.TopK,
		Engine:  engine,
		Explain: req.Explain,
	})
	if err != nil {
		status := statusForError(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("diagnosis failed", slog.String("error", err.Error()))
		}
		c.JSON(status, dto.ErrorResponse{
			Error:   "diagnosis failed",
			Message: err.Error(),
			Code:    status,
		})
		return
	}

	c.JSON(http.StatusOK, dto.DiagnoseResponse{
		Symptoms:    result.Symptoms,
		Predictions: result.Predictions,
		Engine:      string(result.Engine),
		Explanation: result.Explanation,
		Disclaimer:  dto.Disclaimer,
	})
}

// Extract handles POST /api/v1/symptoms/extract
func (h *DiagnoseHandler) Extract(c *gin.Context) {
	var req dto.ExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
			Code:    http.StatusBadRequest,
		})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation failed",
			Message: err.Error(),
			Code:    http.StatusBadRequest,
		})
		return
	}

	symptoms, err := h.diagnoser.ExtractSymptoms(c.Request.Context(), req.Text)
	if err != nil {
		status := statusForError(err)
		c.JSON(status, dto.ErrorResponse{
			Error:   "extraction failed",
			Message: err.Error(),
			Code:    status,
		})
		return
	}
	if symptoms == nil {
		symptoms = []string{}
	}

	c.JSON(http.StatusOK, dto.ExtractResponse{Symptoms: symptoms})
}

// statusForError maps domain errors to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, types.ErrEmptyText),
		errors.Is(err, types.ErrEmptyName),
		errors.Is(err, types.ErrInvalidTopK),
		errors.Is(err, types.ErrUnknownEngine):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrDiseaseNotFound),
		errors.Is(err, types.ErrSymptomNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
