package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/terra-clan/health-assistant/internal/analysis"
	"github.com/terra-clan/health-assistant/internal/appointments"
	"github.com/terra-clan/health-assistant/internal/assessment"
	"github.com/terra-clan/health-assistant/internal/voice"
	"github.com/terra-clan/health-assistant/internal/wizard"
)

// Response helpers

type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *apiError   `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: false,
		Error: &apiError{
			Code:    code,
			Message: message,
		},
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// respondDomainError maps service errors to HTTP statuses. Anything unknown is
// logged and reported as an internal error with the given fallback message.
func respondDomainError(w http.ResponseWriter, err error, fallback string) {
	var te *analysis.TransportError
	var vte *voice.TransportError

	switch {
	case errors.Is(err, assessment.ErrSessionNotFound):
		respondError(w, http.StatusNotFound, "not_found", "session not found")
	case errors.Is(err, assessment.ErrSymptomNotFound):
		respondError(w, http.StatusNotFound, "not_found", "symptom not found")
	case errors.Is(err, appointments.ErrDoctorNotFound):
		respondError(w, http.StatusNotFound, "not_found", "doctor not found")
	case errors.Is(err, appointments.ErrBookingNotFound):
		respondError(w, http.StatusNotFound, "not_found", "appointment not found")

	case errors.Is(err, assessment.ErrInvalidKind),
		errors.Is(err, assessment.ErrWrongKind),
		errors.Is(err, wizard.ErrInvalidAnswer),
		errors.Is(err, appointments.ErrInvalidBooking),
		errors.Is(err, voice.ErrEmptyAudio):
		respondError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, analysis.ErrValidation):
		respondError(w, http.StatusBadRequest, "validation_error", analysis.ValidationMessage)

	case errors.Is(err, wizard.ErrNotInProgress),
		errors.Is(err, wizard.ErrComplete),
		errors.Is(err, assessment.ErrAnalysisPending),
		errors.Is(err, assessment.ErrNoAnalysisActive),
		errors.Is(err, appointments.ErrSlotUnavailable):
		respondError(w, http.StatusConflict, "conflict", err.Error())

	case errors.Is(err, voice.ErrUnsupportedCapability):
		respondError(w, http.StatusNotImplemented, "unsupported", err.Error())
	case errors.As(err, &te):
		respondError(w, http.StatusBadGateway, "upstream_error", te.Error())
	case errors.As(err, &vte):
		slog.Warn("transcription failed", "error", vte.Err)
		respondError(w, http.StatusBadGateway, "upstream_error", vte.Error())

	default:
		slog.Error(fallback, "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", fallback)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	return true
}

// Health handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.services.Sessions.Ping(r.Context()); err != nil {
		respondError(w, http.StatusServiceUnavailable, "not_ready", "service not ready")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}
