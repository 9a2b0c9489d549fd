package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/health-assistant/internal/models"
	"github.com/terra-clan/health-assistant/internal/triage"
)

// Catalog handlers

func (s *Server) handleVitalsCatalog(w http.ResponseWriter, r *http.Request) {
	questions := s.services.Catalog.VitalsQuestions()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"questions": questions,
		"total":     len(questions),
	})
}

func (s *Server) handleIssuesCatalog(w http.ResponseWriter, r *http.Request) {
	questions := s.services.Catalog.IssuesQuestions()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"questions": questions,
		"total":     len(questions),
	})
}

type recommendationEntry struct {
	Category models.Tag `json:"category"`
	Title    string     `json:"title"`
	models.RecommendationPair
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	table := s.services.Catalog.Recommendations()

	// Issue order keeps the listing stable
	entries := make([]recommendationEntry, 0, len(table))
	for _, q := range s.services.Catalog.IssuesQuestions() {
		pair, ok := table[q.Tag]
		if !ok {
			continue
		}
		entries = append(entries, recommendationEntry{
			Category:           q.Tag,
			Title:              triage.Title(q.Tag),
			RecommendationPair: pair,
		})
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"recommendations": entries,
		"total":           len(entries),
	})
}

func (s *Server) handleSymptoms(w http.ResponseWriter, r *http.Request) {
	symptoms := s.services.Catalog.Symptoms()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"symptoms": symptoms,
		"total":    len(symptoms),
	})
}

// Doctor directory handlers

func (s *Server) handleSearchDoctors(w http.ResponseWriter, r *http.Request) {
	doctors := s.services.Appointments.Search(r.URL.Query().Get("q"))
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"doctors": doctors,
		"total":   len(doctors),
	})
}

func (s *Server) handleGetDoctor(w http.ResponseWriter, r *http.Request) {
	doctor, err := s.services.Appointments.GetDoctor(chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, err, "failed to get doctor")
		return
	}
	respondJSON(w, http.StatusOK, doctor)
}
