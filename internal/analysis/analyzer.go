// Package analysis talks to the external symptom analysis service.
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/terra-clan/health-assistant/internal/models"
)

// ValidationMessage is shown when there is nothing to analyze
const ValidationMessage = "Please describe your symptoms or select some from the common symptoms list"

// ErrValidation is returned when neither a description nor a symptom is given
var ErrValidation = errors.New("symptom description or selection is required")

// TransportError reports a failed call to the analysis service. Its message
// is meant to be shown to the user as is.
type TransportError struct {
	Status string // HTTP status line, empty when no response was received
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != "" {
		return "Error from server: " + e.Status
	}
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Analyzer submits symptom text for analysis
type Analyzer interface {
	Analyze(ctx context.Context, text string) (*models.AnalysisResult, error)
}

// HTTPAnalyzer is the JSON-over-HTTP Analyzer
type HTTPAnalyzer struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPAnalyzer creates an analyzer posting to endpoint
func NewHTTPAnalyzer(endpoint, apiKey string, timeout time.Duration) *HTTPAnalyzer {
	return &HTTPAnalyzer{
		endpoint: endpoint,
		apiKey:   apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type analyzeRequest struct {
	Text   string `json:"text"`
	APIKey string `json:"api_key"`
}

// Analyze posts text to the service and decodes the reply
func (a *HTTPAnalyzer) Analyze(ctx context.Context, text string) (*models.AnalysisResult, error) {
	if text == "" {
		return nil, ErrValidation
	}

	body, err := json.Marshal(analyzeRequest{Text: text, APIKey: a.apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &TransportError{
			Status: resp.Status,
			Err:    fmt.Errorf("analysis API error: %s - %s", resp.Status, string(respBody)),
		}
	}

	var result models.AnalysisResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &TransportError{Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	return &result, nil
}

// BuildText joins the description and the selected symptom names with ", ",
// dropping empty parts. A whitespace-only description counts as empty.
func BuildText(description string, selected []models.Symptom) string {
	parts := make([]string, 0, len(selected)+1)
	if d := strings.TrimSpace(description); d != "" {
		parts = append(parts, d)
	}
	for _, s := range selected {
		if s.Name != "" {
			parts = append(parts, s.Name)
		}
	}
	return strings.Join(parts, ", ")
}

// Request validates the form input and runs the analysis
func Request(ctx context.Context, a Analyzer, description string, selected []models.Symptom) (*models.AnalysisResult, error) {
	text := BuildText(description, selected)
	if text == "" {
		return nil, ErrValidation
	}
	return a.Analyze(ctx, text)
}
