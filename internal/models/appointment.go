package models

import (
	"time"
)

// Doctor is an entry of the static doctor directory
type Doctor struct {
	ID             string   `json:"id" yaml:"id"`
	Name           string   `json:"name" yaml:"name"`
	Specialty      string   `json:"specialty" yaml:"specialty"`
	Image          string   `json:"image" yaml:"image"`
	Location       string   `json:"location" yaml:"location"`
	AvailableDates []string `json:"available_dates" yaml:"available_dates"` // YYYY-MM-DD
}

// IsAvailableOn returns true if the doctor sees patients on date
func (d *Doctor) IsAvailableOn(date string) bool {
	for _, a := range d.AvailableDates {
		if a == date {
			return true
		}
	}
	return false
}

// BookingStatus represents the current state of a booking
type BookingStatus string

const (
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

// Booking is a confirmed appointment slot
type Booking struct {
	ID          string        `json:"id"`
	DoctorID    string        `json:"doctor_id"`
	DoctorName  string        `json:"doctor_name"`
	Specialty   string        `json:"specialty"`
	Location    string        `json:"location"`
	Date        string        `json:"date"`
	Time        string        `json:"time"`
	Status      BookingStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	CancelledAt *time.Time    `json:"cancelled_at,omitempty"`
}

// IsActive returns true if the booking still holds its slot
func (b *Booking) IsActive() bool {
	return b.Status == BookingConfirmed
}

// CreateBookingRequest represents a request to book an appointment
type CreateBookingRequest struct {
	DoctorID string `json:"doctor_id"`
	Date     string `json:"date"`
	Time     string `json:"time"`
}
