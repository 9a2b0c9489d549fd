package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/health-assistant/internal/models"
)

// handleTimeSlots lists the bookable times. With doctor_id and date set, slots
// already taken are left out.
func (s *Server) handleTimeSlots(w http.ResponseWriter, r *http.Request) {
	doctorID := r.URL.Query().Get("doctor_id")
	date := r.URL.Query().Get("date")

	slots := s.services.Appointments.TimeSlots()
	if doctorID != "" && date != "" {
		var err error
		slots, err = s.services.Appointments.AvailableSlots(r.Context(), doctorID, date)
		if err != nil {
			respondDomainError(w, err, "failed to list slots")
			return
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"slots": slots,
		"total": len(slots),
	})
}

func (s *Server) handleBook(w http.ResponseWriter, r *http.Request) {
	var req models.CreateBookingRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	booking, err := s.services.Appointments.Book(r.Context(), req)
	if err != nil {
		respondDomainError(w, err, "failed to book appointment")
		return
	}
	respondJSON(w, http.StatusCreated, booking)
}

func (s *Server) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	booking, err := s.services.Appointments.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, err, "failed to get appointment")
		return
	}
	respondJSON(w, http.StatusOK, booking)
}

func (s *Server) handleCancelBooking(w http.ResponseWriter, r *http.Request) {
	booking, err := s.services.Appointments.Cancel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, err, "failed to cancel appointment")
		return
	}
	respondJSON(w, http.StatusOK, booking)
}
