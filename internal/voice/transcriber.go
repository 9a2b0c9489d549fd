// Package voice turns recorded speech into symptom description text.
package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// ErrUnsupportedCapability is returned when no transcription service is configured
var ErrUnsupportedCapability = errors.New("speech recognition is not supported")

// ErrEmptyAudio is returned for a zero-length upload
var ErrEmptyAudio = errors.New("audio is empty")

// TransportError reports a failed call to the transcription service
type TransportError struct {
	Status string // HTTP status line, empty when no response was received
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != "" {
		return "speech service error: " + e.Status
	}
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Transcriber converts audio to text
type Transcriber interface {
	Transcribe(ctx context.Context, filename string, audio []byte) (string, error)
}

// Unavailable is the Transcriber used when voice input is disabled
type Unavailable struct{}

// Transcribe always fails with ErrUnsupportedCapability
func (Unavailable) Transcribe(context.Context, string, []byte) (string, error) {
	return "", ErrUnsupportedCapability
}

// WhisperClient posts audio to a Whisper-style speech-to-text endpoint
type WhisperClient struct {
	endpoint   string
	httpClient *http.Client
}

// NewWhisperClient creates a transcriber for endpoint
func NewWhisperClient(endpoint string, timeout time.Duration) *WhisperClient {
	return &WhisperClient{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type sttResponse struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

// Transcribe uploads audio as the multipart field "file"
func (c *WhisperClient) Transcribe(ctx context.Context, filename string, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", ErrEmptyAudio
	}
	if filename == "" {
		filename = "audio.wav"
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(audio); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &TransportError{Err: fmt.Errorf("STT request failed: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &TransportError{
			Status: resp.Status,
			Err:    fmt.Errorf("STT API error: %s - %s", resp.Status, string(respBody)),
		}
	}

	var result sttResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", &TransportError{Err: fmt.Errorf("failed to decode STT response: %w", err)}
	}

	return result.Text, nil
}
