package models

import "time"

// Reservation is one requested or booked occupation of a court for a date
// and time range. EndTime may be empty for legacy single-slot records; for
// blocking purposes such a reservation covers exactly one interval.
type Reservation struct {
	ID         int64     `json:"id"`
	UserID     string    `json:"user_id,omitempty"` // empty for anonymous bookings
	Name       string    `json:"name"`
	Phone      string    `json:"phone,omitempty"`
	Email      string    `json:"email,omitempty"`
	NationalID string    `json:"national_id"`
	Date       string    `json:"date"`       // YYYY-MM-DD
	StartTime  string    `json:"start_time"` // HH:MM
	EndTime    string    `json:"end_time,omitempty"`
	Weekday    string    `json:"weekday"`
	Status     string    `json:"status"` // pending, confirmed, rejected
	Notes      string    `json:"notes,omitempty"`
	Court      string    `json:"court"`
	Sport      string    `json:"sport"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Version    int64     `json:"version"`
}

// IsSingleSlot reports whether the reservation occupies one interval only.
func (r *Reservation) IsSingleSlot() bool {
	return r.EndTime == ""
}

// Blocking reports whether the reservation counts against availability.
// Rejected reservations are kept in storage but never cover a slot.
func (r *Reservation) Blocking() bool {
	return r.Status != StatusRejected
}

// ReservationDraft carries the user-supplied fields of a new reservation
// before validation fills in defaults and the store assigns identity.
type ReservationDraft struct {
	UserID     string `json:"user_id,omitempty"`
	Name       string `json:"name"`
	Phone      string `json:"phone,omitempty"`
	Email      string `json:"email,omitempty"`
	NationalID string `json:"national_id"`
	Date       string `json:"date"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time,omitempty"`
	Notes      string `json:"notes,omitempty"`
	Court      string `json:"court,omitempty"`
	Sport      string `json:"sport,omitempty"`
}

// SelectionRange is a confirmed user pick handed to the booking flow.
type SelectionRange struct {
	Date      string `json:"date"`
	Court     string `json:"court"`
	StartSlot string `json:"start_slot"`
	EndSlot   string `json:"end_slot"`
}
