// Package client is a Go SDK for the health-assistant HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/terra-clan/health-assistant/internal/models"
	"github.com/terra-clan/health-assistant/internal/wizard"
)

// Client is a Go SDK for health-assistant API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new health-assistant client
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError is an error reported by the server
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (HTTP %d): %s - %s", e.StatusCode, e.Code, e.Message)
}

type envelope[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Health checks if the service is healthy
func (c *Client) Health(ctx context.Context) error {
	_, err := c.doRequest(ctx, http.MethodGet, "/health", nil, "")
	return err
}

// Catalog

// VitalsQuestions returns the general vitals questionnaire
func (c *Client) VitalsQuestions(ctx context.Context) ([]wizard.Question[models.VitalValue], error) {
	data, err := call[struct {
		Questions []wizard.Question[models.VitalValue] `json:"questions"`
	}](ctx, c, http.MethodGet, "/api/v1/catalog/vitals", nil)
	if err != nil {
		return nil, err
	}
	return data.Questions, nil
}

// IssuesQuestions returns the symptom-category triage questionnaire
func (c *Client) IssuesQuestions(ctx context.Context) ([]wizard.Question[string], error) {
	data, err := call[struct {
		Questions []wizard.Question[string] `json:"questions"`
	}](ctx, c, http.MethodGet, "/api/v1/catalog/issues", nil)
	if err != nil {
		return nil, err
	}
	return data.Questions, nil
}

// Symptoms returns the common-symptoms pick list
func (c *Client) Symptoms(ctx context.Context) ([]models.Symptom, error) {
	data, err := call[struct {
		Symptoms []models.Symptom `json:"symptoms"`
	}](ctx, c, http.MethodGet, "/api/v1/catalog/symptoms", nil)
	if err != nil {
		return nil, err
	}
	return data.Symptoms, nil
}

// Sessions

// CreateSession opens an assessment session of the given kind
func (c *Client) CreateSession(ctx context.Context, kind models.AssessmentKind) (*models.Session, error) {
	return call[*models.Session](ctx, c, http.MethodPost, "/api/v1/sessions", models.CreateSessionRequest{Kind: kind})
}

// GetSession retrieves a session by ID
func (c *Client) GetSession(ctx context.Context, id string) (*models.Session, error) {
	return call[*models.Session](ctx, c, http.MethodGet, sessionPath(id, ""), nil)
}

// ListSessions lists sessions, optionally filtered by kind
func (c *Client) ListSessions(ctx context.Context, kind models.AssessmentKind) ([]*models.Session, error) {
	path := "/api/v1/sessions"
	if kind != "" {
		path += "?kind=" + url.QueryEscape(string(kind))
	}

	data, err := call[struct {
		Sessions []*models.Session `json:"sessions"`
	}](ctx, c, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return data.Sessions, nil
}

// DeleteSession deletes a session
func (c *Client) DeleteSession(ctx context.Context, id string) error {
	_, err := call[map[string]string](ctx, c, http.MethodDelete, sessionPath(id, ""), nil)
	return err
}

// StartSession restarts the questionnaire from its first question
func (c *Client) StartSession(ctx context.Context, id string) (*models.Session, error) {
	return call[*models.Session](ctx, c, http.MethodPost, sessionPath(id, "/start"), nil)
}

// Answer submits the option at index option for the current question
func (c *Client) Answer(ctx context.Context, id string, option int) (*models.Session, error) {
	return call[*models.Session](ctx, c, http.MethodPost, sessionPath(id, "/answers"), models.AnswerRequest{Option: option})
}

// ResetSession clears all answers and results
func (c *Client) ResetSession(ctx context.Context, id string) (*models.Session, error) {
	return call[*models.Session](ctx, c, http.MethodPost, sessionPath(id, "/reset"), nil)
}

// Dashboard returns the vitals dashboard of a session
func (c *Client) Dashboard(ctx context.Context, id string) (*models.Dashboard, error) {
	return call[*models.Dashboard](ctx, c, http.MethodGet, sessionPath(id, "/dashboard"), nil)
}

// Symptom form

// SetDescription replaces the free-text symptom description
func (c *Client) SetDescription(ctx context.Context, id, text string) (*models.Session, error) {
	return call[*models.Session](ctx, c, http.MethodPut, sessionPath(id, "/description"), models.DescriptionRequest{Text: text})
}

// SelectSymptom adds a common symptom to the form
func (c *Client) SelectSymptom(ctx context.Context, id, symptomID string) (*models.Session, error) {
	return call[*models.Session](ctx, c, http.MethodPost, sessionPath(id, "/symptoms"), models.SelectSymptomRequest{SymptomID: symptomID})
}

// Analyze starts the symptom analysis. The returned session reports it pending.
func (c *Client) Analyze(ctx context.Context, id string) (*models.Session, error) {
	return call[*models.Session](ctx, c, http.MethodPost, sessionPath(id, "/analysis"), nil)
}

// CancelAnalysis aborts a pending analysis
func (c *Client) CancelAnalysis(ctx context.Context, id string) (*models.Session, error) {
	return call[*models.Session](ctx, c, http.MethodDelete, sessionPath(id, "/analysis"), nil)
}

// WaitForAnalysis polls the session until its analysis settles
func (c *Client) WaitForAnalysis(ctx context.Context, id string, interval time.Duration) (*models.Session, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		s, err := c.GetSession(ctx, id)
		if err != nil {
			return nil, err
		}
		if s.Symptoms == nil || s.Symptoms.Analysis.Status != models.AnalysisPending {
			return s, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Transcribe converts a recording to text. A non-empty sessionID also stores
// the transcript as that session's description.
func (c *Client) Transcribe(ctx context.Context, filename string, audio io.Reader, sessionID string) (string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("audio", filename)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, audio); err != nil {
		return "", fmt.Errorf("failed to read audio: %w", err)
	}
	if sessionID != "" {
		if err := writer.WriteField("session_id", sessionID); err != nil {
			return "", err
		}
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/api/v1/voice/transcribe", body, writer.FormDataContentType())
	if err != nil {
		return "", err
	}

	data, err := decode[models.TranscriptionResponse](resp)
	if err != nil {
		return "", err
	}
	return data.Text, nil
}

// Appointments

// SearchDoctors lists doctors whose name or specialty matches query
func (c *Client) SearchDoctors(ctx context.Context, query string) ([]models.Doctor, error) {
	data, err := call[struct {
		Doctors []models.Doctor `json:"doctors"`
	}](ctx, c, http.MethodGet, "/api/v1/doctors?q="+url.QueryEscape(query), nil)
	if err != nil {
		return nil, err
	}
	return data.Doctors, nil
}

// GetDoctor retrieves a doctor by ID
func (c *Client) GetDoctor(ctx context.Context, id string) (*models.Doctor, error) {
	return call[*models.Doctor](ctx, c, http.MethodGet, "/api/v1/doctors/"+url.PathEscape(id), nil)
}

// TimeSlots lists bookable times. With doctorID and date set, only free
// slots are returned.
func (c *Client) TimeSlots(ctx context.Context, doctorID, date string) ([]string, error) {
	q := url.Values{}
	if doctorID != "" {
		q.Set("doctor_id", doctorID)
	}
	if date != "" {
		q.Set("date", date)
	}
	path := "/api/v1/appointments/slots"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	data, err := call[struct {
		Slots []string `json:"slots"`
	}](ctx, c, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return data.Slots, nil
}

// Book reserves an appointment
func (c *Client) Book(ctx context.Context, req models.CreateBookingRequest) (*models.Booking, error) {
	return call[*models.Booking](ctx, c, http.MethodPost, "/api/v1/appointments", req)
}

// GetBooking retrieves an appointment by ID
func (c *Client) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	return call[*models.Booking](ctx, c, http.MethodGet, "/api/v1/appointments/"+url.PathEscape(id), nil)
}

// CancelBooking cancels an appointment
func (c *Client) CancelBooking(ctx context.Context, id string) (*models.Booking, error) {
	return call[*models.Booking](ctx, c, http.MethodDelete, "/api/v1/appointments/"+url.PathEscape(id), nil)
}

func sessionPath(id, suffix string) string {
	return "/api/v1/sessions/" + url.PathEscape(id) + suffix
}

// call sends payload as JSON and decodes the data of the response envelope
func call[T any](ctx context.Context, c *Client, method, path string, payload interface{}) (T, error) {
	var zero T

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return zero, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	resp, err := c.doRequest(ctx, method, path, body, "application/json")
	if err != nil {
		return zero, err
	}
	return decode[T](resp)
}

func decode[T any](resp []byte) (T, error) {
	var result envelope[T]
	if err := json.Unmarshal(resp, &result); err != nil {
		var zero T
		return zero, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return result.Data, nil
}

// doRequest performs an HTTP request. Non-2xx responses become *APIError.
func (c *Client) doRequest(ctx context.Context, method, path string, body io.Reader, contentType string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}

		var result envelope[json.RawMessage]
		if json.Unmarshal(respBody, &result) == nil && result.Error != nil {
			apiErr.Code = result.Error.Code
			apiErr.Message = result.Error.Message
		}
		return nil, apiErr
	}

	return respBody, nil
}
