package api

import (
	"io"
	"net/http"

	"github.com/terra-clan/health-assistant/internal/models"
)

const maxAudioBytes = 10 << 20

// handleTranscribe converts an uploaded recording to text. When session_id is
// given the transcript also becomes that session's symptom description.
func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAudioBytes)
	if err := r.ParseMultipartForm(maxAudioBytes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "expected multipart form with an audio file")
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", "audio file is required")
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "failed to read audio")
		return
	}

	text, err := s.services.Transcriber.Transcribe(r.Context(), header.Filename, audio)
	if err != nil {
		respondDomainError(w, err, "failed to transcribe audio")
		return
	}

	if id := r.FormValue("session_id"); id != "" {
		if _, err := s.services.Sessions.SetDescription(r.Context(), id, text); err != nil {
			respondDomainError(w, err, "failed to update description")
			return
		}
	}

	respondJSON(w, http.StatusOK, models.TranscriptionResponse{Text: text})
}
