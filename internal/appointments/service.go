// Package appointments books consultation slots against the static doctor
// directory.
package appointments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/terra-clan/health-assistant/internal/models"
	"github.com/terra-clan/health-assistant/internal/storage"
)

// Common errors
var (
	ErrDoctorNotFound  = errors.New("doctor not found")
	ErrSlotUnavailable = errors.New("slot is not available")
	ErrBookingNotFound = errors.New("booking not found")
	ErrInvalidBooking  = errors.New("doctor, date and time are required")
)

// Directory supplies the doctors and the bookable times of day
type Directory interface {
	Doctors() []models.Doctor
	TimeSlots() []string
}

// Service manages appointment bookings
type Service struct {
	directory Directory
	bookings  storage.Repository[*models.Booking]

	// serializes availability checks with booking creation
	mu sync.Mutex
}

// NewService creates a booking service
func NewService(directory Directory, bookings storage.Repository[*models.Booking]) *Service {
	return &Service{
		directory: directory,
		bookings:  bookings,
	}
}

// Search returns doctors whose name or specialty contains query, ignoring case.
// An empty query returns the whole directory.
func (s *Service) Search(query string) []models.Doctor {
	doctors := s.directory.Doctors()

	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return doctors
	}

	var result []models.Doctor
	for _, d := range doctors {
		if strings.Contains(strings.ToLower(d.Name), q) || strings.Contains(strings.ToLower(d.Specialty), q) {
			result = append(result, d)
		}
	}
	return result
}

// GetDoctor retrieves a doctor by id
func (s *Service) GetDoctor(id string) (*models.Doctor, error) {
	for _, d := range s.directory.Doctors() {
		if d.ID == id {
			return &d, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", id, ErrDoctorNotFound)
}

// TimeSlots returns every bookable time of day
func (s *Service) TimeSlots() []string {
	return s.directory.TimeSlots()
}

// AvailableSlots returns the free times of doctorID on date
func (s *Service) AvailableSlots(ctx context.Context, doctorID, date string) ([]string, error) {
	doctor, err := s.GetDoctor(doctorID)
	if err != nil {
		return nil, err
	}
	if !doctor.IsAvailableOn(date) {
		return []string{}, nil
	}

	s.mu.Lock()
	taken, err := s.takenSlots(ctx, doctorID, date)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	free := make([]string, 0)
	for _, slot := range s.directory.TimeSlots() {
		if !taken[slot] {
			free = append(free, slot)
		}
	}
	return free, nil
}

// Book reserves a slot and returns the confirmed booking
func (s *Service) Book(ctx context.Context, req models.CreateBookingRequest) (*models.Booking, error) {
	if req.DoctorID == "" || req.Date == "" || req.Time == "" {
		return nil, ErrInvalidBooking
	}

	doctor, err := s.GetDoctor(req.DoctorID)
	if err != nil {
		return nil, err
	}
	if !doctor.IsAvailableOn(req.Date) {
		return nil, fmt.Errorf("%s is not available on %s: %w", doctor.Name, req.Date, ErrSlotUnavailable)
	}
	if !contains(s.directory.TimeSlots(), req.Time) {
		return nil, fmt.Errorf("%s is not a bookable time: %w", req.Time, ErrSlotUnavailable)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	taken, err := s.takenSlots(ctx, doctor.ID, req.Date)
	if err != nil {
		return nil, err
	}
	if taken[req.Time] {
		return nil, fmt.Errorf("%s on %s at %s is already booked: %w", doctor.Name, req.Date, req.Time, ErrSlotUnavailable)
	}

	booking := &models.Booking{
		ID:         uuid.New().String()[:12],
		DoctorID:   doctor.ID,
		DoctorName: doctor.Name,
		Specialty:  doctor.Specialty,
		Location:   doctor.Location,
		Date:       req.Date,
		Time:       req.Time,
		Status:     models.BookingConfirmed,
		CreatedAt:  time.Now(),
	}

	if err := s.bookings.Create(ctx, booking.ID, booking); err != nil {
		return nil, fmt.Errorf("failed to save booking: %w", err)
	}

	slog.Info("appointment booked",
		"id", booking.ID,
		"doctor", doctor.ID,
		"date", booking.Date,
		"time", booking.Time,
	)

	b := *booking
	return &b, nil
}

// Get retrieves a booking by id
func (s *Service) Get(ctx context.Context, id string) (*models.Booking, error) {
	booking, err := s.bookings.Get(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", id, ErrBookingNotFound)
		}
		return nil, err
	}

	s.mu.Lock()
	b := *booking
	s.mu.Unlock()
	return &b, nil
}

// Cancel releases the slot held by a booking. Cancelling twice is a no-op.
func (s *Service) Cancel(ctx context.Context, id string) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	booking, err := s.bookings.Get(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", id, ErrBookingNotFound)
		}
		return nil, err
	}

	if booking.IsActive() {
		now := time.Now()
		booking.Status = models.BookingCancelled
		booking.CancelledAt = &now
		if err := s.bookings.Update(ctx, id, booking); err != nil {
			return nil, fmt.Errorf("failed to update booking: %w", err)
		}
		slog.Info("appointment cancelled", "id", id, "doctor", booking.DoctorID)
	}

	b := *booking
	return &b, nil
}

// takenSlots returns the times already booked for doctorID on date
func (s *Service) takenSlots(ctx context.Context, doctorID, date string) (map[string]bool, error) {
	active, err := s.bookings.List(ctx, func(b *models.Booking) bool {
		return b.IsActive() && b.DoctorID == doctorID && b.Date == date
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}

	taken := make(map[string]bool, len(active))
	for _, b := range active {
		taken[b.Time] = true
	}
	return taken, nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
