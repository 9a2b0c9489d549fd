package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/health-assistant/internal/models"
)

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req models.CreateSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.Kind == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "kind is required")
		return
	}

	session, err := s.services.Sessions.Create(r.Context(), req.Kind)
	if err != nil {
		respondDomainError(w, err, "failed to create session")
		return
	}

	respondJSON(w, http.StatusCreated, session)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	kind := models.AssessmentKind(r.URL.Query().Get("kind"))
	if kind != "" && !kind.Valid() {
		respondError(w, http.StatusBadRequest, "validation_error", "unknown assessment kind")
		return
	}

	sessions, err := s.services.Sessions.List(r.Context(), kind)
	if err != nil {
		respondDomainError(w, err, "failed to list sessions")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"sessions": sessions,
		"total":    len(sessions),
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.services.Sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, err, "failed to get session")
		return
	}
	respondJSON(w, http.StatusOK, session)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.services.Sessions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondDomainError(w, err, "failed to delete session")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "session deleted",
	})
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.services.Sessions.Start(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, err, "failed to start session")
		return
	}
	respondJSON(w, http.StatusOK, session)
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req models.AnswerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	session, err := s.services.Sessions.Answer(r.Context(), chi.URLParam(r, "id"), req.Option)
	if err != nil {
		respondDomainError(w, err, "failed to record answer")
		return
	}
	respondJSON(w, http.StatusOK, session)
}

func (s *Server) handleResetSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.services.Sessions.Reset(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, err, "failed to reset session")
		return
	}
	respondJSON(w, http.StatusOK, session)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := s.services.Sessions.Dashboard(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, err, "failed to build dashboard")
		return
	}
	respondJSON(w, http.StatusOK, dashboard)
}

// Symptom form handlers

func (s *Server) handleSetDescription(w http.ResponseWriter, r *http.Request) {
	var req models.DescriptionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	session, err := s.services.Sessions.SetDescription(r.Context(), chi.URLParam(r, "id"), req.Text)
	if err != nil {
		respondDomainError(w, err, "failed to update description")
		return
	}
	respondJSON(w, http.StatusOK, session)
}

func (s *Server) handleSelectSymptom(w http.ResponseWriter, r *http.Request) {
	var req models.SelectSymptomRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.SymptomID == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "symptom_id is required")
		return
	}

	session, err := s.services.Sessions.SelectSymptom(r.Context(), chi.URLParam(r, "id"), req.SymptomID)
	if err != nil {
		respondDomainError(w, err, "failed to select symptom")
		return
	}
	respondJSON(w, http.StatusOK, session)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	session, err := s.services.Sessions.Analyze(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, err, "failed to start analysis")
		return
	}
	respondJSON(w, http.StatusAccepted, session)
}

func (s *Server) handleCancelAnalysis(w http.ResponseWriter, r *http.Request) {
	session, err := s.services.Sessions.CancelAnalysis(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, err, "failed to cancel analysis")
		return
	}
	respondJSON(w, http.StatusOK, session)
}
