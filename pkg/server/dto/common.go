package dto

import (
	"errors"
	"strings"

	"github.com/soundprediction/sympto/pkg/rag"
	"github.com/soundprediction/sympto/pkg/types"
)

// MaxTextLength bounds patient descriptions accepted over HTTP.
const MaxTextLength = 10000

// ErrTextTooLong is returned when a description exceeds MaxTextLength.
var ErrTextTooLong = errors.New("text exceeds maximum length")

// DiagnoseRequest is the POST /diagnose body.
type DiagnoseRequest struct {
	Text    string `json:"text" binding:"required"`
	TopK    int    `json:"top_k,omitempty"`
	Engine  string `json:"engine,omitempty"`
	Explain bool   `json:"explain,omitempty"`
}

// Validate performs validation on DiagnoseRequest
func (r *DiagnoseRequest) Validate() error {
	if strings.TrimSpace(r.Text) == "" {
		return errors.New("text cannot be empty")
	}
	if len(r.Text) > MaxTextLength {
		return ErrTextTooLong
	}
	if r.TopK < 0 {
		return errors.New("top_k cannot be negative")
	}
	switch strings.ToLower(strings.TrimSpace(r.Engine)) {
	case "", "graph", "classifier", "hybrid":
	default:
		return errors.New("engine must be graph, classifier, or hybrid")
	}
	return nil
}

// DiagnoseResponse is the POST /diagnose reply.
type DiagnoseResponse struct {
	Symptoms    []string           `json:"symptoms"`
	Predictions []types.Prediction `json:"predictions"`
	Engine      string             `json:"engine"`
	Explanation *rag.Explanation   `json:"explanation,omitempty"`
	Disclaimer  string             `json:"disclaimer"`
}

// Disclaimer accompanies every diagnosis response.
const Disclaimer = "This is decision support, not a medical diagnosis. Consult a clinician."

// ExtractRequest is the POST /extract body.
type ExtractRequest struct {
	Text string `json:"text" binding:"required"`
}

// Validate performs validation on ExtractRequest
func (r *ExtractRequest) Validate() error {
	if strings.TrimSpace(r.Text) == "" {
		return errors.New("text cannot be empty")
	}
	if len(r.Text) > MaxTextLength {
		return ErrTextTooLong
	}
	return nil
}

// ExtractResponse is the POST /extract reply.
type ExtractResponse struct {
	Symptoms []string `json:"symptoms"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}
