package availability

import (
	"tripledoble/internal/models"
	"tripledoble/internal/schedule"
)

// Snapshot is an immutable view of the reservation set used to answer
// availability queries. The resolver never reads ambient state: callers
// build a Snapshot from the store (or the cached copy of it) and every
// query is a pure function over that value.
type Snapshot struct {
	grid         []string
	cfg          schedule.Config
	reservations []models.Reservation
}

// NewSnapshot builds a snapshot over the given reservations and slot grid.
// The reservation slice is copied so later store refreshes cannot mutate
// answers already being computed.
func NewSnapshot(reservations []models.Reservation, cfg schedule.Config, grid []string) Snapshot {
	rs := make([]models.Reservation, len(reservations))
	copy(rs, reservations)
	return Snapshot{grid: grid, cfg: cfg, reservations: rs}
}

// Reservations returns the reservations backing the snapshot.
func (s Snapshot) Reservations() []models.Reservation {
	return s.reservations
}

// ConfirmedOnly derives a snapshot that sees confirmed reservations only,
// optionally excluding one reservation id. Used by the admin confirm guard:
// a pending request must not collide with already-confirmed bookings, and
// the request being confirmed must not block itself.
func (s Snapshot) ConfirmedOnly(excludeID int64) Snapshot {
	filtered := make([]models.Reservation, 0, len(s.reservations))
	for _, r := range s.reservations {
		if r.Status != models.StatusConfirmed {
			continue
		}
		if excludeID != 0 && r.ID == excludeID {
			continue
		}
		filtered = append(filtered, r)
	}
	return Snapshot{grid: s.grid, cfg: s.cfg, reservations: filtered}
}

// covers reports whether reservation r occupies (date, slot). The covered
// span is [start, end); a reservation without an end time occupies exactly
// one interval. Rejected reservations never cover anything.
func (s Snapshot) covers(r models.Reservation, date, slot string) bool {
	if !r.Blocking() {
		return false
	}
	if r.Date != date {
		return false
	}

	if r.IsSingleSlot() {
		return r.StartTime == slot
	}

	for _, occupied := range schedule.SlotsInRange(s.grid, r.StartTime, r.EndTime) {
		if occupied == slot {
			return true
		}
	}
	return false
}

// SlotAvailable reports whether a court can be booked at (date, slot).
// A slot is taken when a blocking reservation occupies the court itself or
// any court that blocks it (main vs. annexes, see models.CourtBlocks).
//
// An empty court applies the legacy single-court behavior: the slot is
// available only when no reservation on any court covers it, which is a
// strictly more conservative answer.
func (s Snapshot) SlotAvailable(date, slot, court string) bool {
	if court != "" && !models.ValidCourt(court) {
		// Unrecognized court: degrade to unavailable rather than crash or
		// hand out a slot nothing can honor.
		return false
	}
	for _, r := range s.reservations {
		if !s.covers(r, date, slot) {
			continue
		}
		if court == "" {
			return false
		}
		if models.CourtBlocks(reservationCourt(r), court) {
			return false
		}
	}
	return true
}

// RangeAvailable reports whether every slot in [startSlot, endSlot) is
// available for the court. All-or-nothing: no partial-range booking.
func (s Snapshot) RangeAvailable(date, startSlot, endSlot, court string) bool {
	slots := schedule.SlotsInRange(s.grid, startSlot, endSlot)
	if len(slots) == 0 {
		return false
	}
	for _, slot := range slots {
		if !s.SlotAvailable(date, slot, court) {
			return false
		}
	}
	return true
}

// ReservationAt returns the reservation whose occupation makes (date, slot)
// unavailable for the court, or nil when the slot is free. With an empty
// court the first covering reservation on any court is returned.
func (s Snapshot) ReservationAt(date, slot, court string) *models.Reservation {
	for i, r := range s.reservations {
		if !s.covers(r, date, slot) {
			continue
		}
		if court == "" || models.CourtBlocks(reservationCourt(r), court) {
			return &s.reservations[i]
		}
	}
	return nil
}

// BlockedCourts returns the set of courts rendered unavailable at
// (date, slot) by the covering reservations, so the calendar can explain
// why a cell is blocked and which booking causes it.
func (s Snapshot) BlockedCourts(date, slot string) map[string]bool {
	blocked := make(map[string]bool)
	for _, r := range s.reservations {
		if !s.covers(r, date, slot) {
			continue
		}
		from := reservationCourt(r)
		for _, court := range models.Courts() {
			if models.CourtBlocks(from, court) {
				blocked[court] = true
			}
		}
	}
	return blocked
}

// reservationCourt applies the legacy default: records created before the
// annexes existed carry no court and mean the main court.
func reservationCourt(r models.Reservation) string {
	if r.Court == "" {
		return models.CourtMain
	}
	return r.Court
}
