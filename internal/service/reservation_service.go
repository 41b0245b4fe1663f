package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"tripledoble/internal/availability"
	"tripledoble/internal/domain"
	"tripledoble/internal/events"
	"tripledoble/internal/metrics"
	"tripledoble/internal/models"
	"tripledoble/internal/pricing"
	"tripledoble/internal/schedule"

	"github.com/rs/zerolog"
)

type ReservationService struct {
	repo           domain.Repository
	eventBus       domain.EventPublisher
	scheduleCfg    schedule.Config
	grid           []string
	rates          pricing.Rates
	maxBookingDays int
	logger         *zerolog.Logger

	mu       sync.RWMutex
	snapshot availability.Snapshot
	loaded   bool
}

func NewReservationService(
	repo domain.Repository,
	eventBus domain.EventPublisher,
	scheduleCfg schedule.Config,
	rates pricing.Rates,
	maxBookingDays int,
	logger *zerolog.Logger,
) (*ReservationService, error) {
	grid, err := schedule.Slots(scheduleCfg)
	if err != nil {
		return nil, err
	}
	if maxBookingDays <= 0 {
		maxBookingDays = 365
	}
	return &ReservationService{
		repo:           repo,
		eventBus:       eventBus,
		scheduleCfg:    scheduleCfg,
		grid:           grid,
		rates:          rates,
		maxBookingDays: maxBookingDays,
		logger:         logger,
	}, nil
}

// ScheduleConfig returns the opening-hours configuration the grid was built
// from.
func (s *ReservationService) ScheduleConfig() schedule.Config {
	return s.scheduleCfg
}

// Grid returns the day's slot starts.
func (s *ReservationService) Grid() []string {
	out := make([]string, len(s.grid))
	copy(out, s.grid)
	return out
}

// Snapshot returns the cached availability snapshot, loading it on first use.
func (s *ReservationService) Snapshot(ctx context.Context) (availability.Snapshot, error) {
	s.mu.RLock()
	if s.loaded {
		snap := s.snapshot
		s.mu.RUnlock()
		return snap, nil
	}
	s.mu.RUnlock()

	if err := s.RefreshSnapshot(ctx); err != nil {
		return availability.Snapshot{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot, nil
}

// RefreshSnapshot rebuilds the snapshot from storage. Called after every
// write and by the background resync worker.
func (s *ReservationService) RefreshSnapshot(ctx context.Context) error {
	reservations, err := s.repo.GetAllReservations(ctx)
	if err != nil {
		return err
	}

	flat := make([]models.Reservation, 0, len(reservations))
	for _, r := range reservations {
		flat = append(flat, *r)
	}

	s.mu.Lock()
	s.snapshot = availability.NewSnapshot(flat, s.scheduleCfg, s.grid)
	s.loaded = true
	s.mu.Unlock()
	return nil
}

func (s *ReservationService) validateDate(date string) error {
	parsed, err := time.Parse("2006-01-02", date)
	if err != nil {
		return &ValidationError{Field: "date", Message: "must be YYYY-MM-DD"}
	}

	today := time.Now().Truncate(24 * time.Hour)
	if parsed.Before(today.AddDate(0, 0, -1)) {
		return ErrPastDate
	}
	if parsed.After(today.AddDate(0, 0, s.maxBookingDays)) {
		return ErrDateTooFar
	}
	return nil
}

func (s *ReservationService) ValidateDraft(draft *models.ReservationDraft) error {
	if strings.TrimSpace(draft.Name) == "" {
		return &ValidationError{Field: "name", Message: "is required"}
	}
	if nid := strings.TrimSpace(draft.NationalID); !validNationalID(nid) {
		return &ValidationError{Field: "national_id", Message: "must be 8 digits"}
	}
	if strings.TrimSpace(draft.Phone) == "" && strings.TrimSpace(draft.Email) == "" {
		return &ValidationError{Field: "phone", Message: "or email is required"}
	}
	if err := s.validateDate(draft.Date); err != nil {
		return err
	}
	if draft.Court != "" && !models.ValidCourt(draft.Court) {
		return &ValidationError{Field: "court", Message: "is not a known court"}
	}
	if draft.Sport != "" && !models.ValidSport(draft.Sport) {
		return &ValidationError{Field: "sport", Message: "is not a bookable sport"}
	}
	if schedule.SlotIndex(s.grid, draft.StartTime) == -1 {
		return &ValidationError{Field: "start_time", Message: "is not on the slot grid"}
	}
	if draft.EndTime != "" {
		slots := schedule.SlotsInRange(s.grid, draft.StartTime, draft.EndTime)
		if len(slots) == 0 {
			return &ValidationError{Field: "end_time", Message: "does not form a valid range"}
		}
	}
	return nil
}

// CreateReservation validates the draft, checks availability against the
// current snapshot and inserts under the store's transactional conflict
// check. The new reservation starts pending.
func (s *ReservationService) CreateReservation(ctx context.Context, draft *models.ReservationDraft) (*models.Reservation, error) {
	if err := s.ValidateDraft(draft); err != nil {
		return nil, err
	}

	court := draft.Court
	if court == "" {
		court = models.CourtMain
	}
	sport := draft.Sport
	if sport == "" {
		sport = models.SportBasketball
	}

	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	end := draft.EndTime
	if end == "" {
		end, err = schedule.SlotEnd(draft.StartTime, s.scheduleCfg)
		if err != nil {
			return nil, err
		}
	}
	if !snap.RangeAvailable(draft.Date, draft.StartTime, end, court) {
		metrics.IncRangeConflict()
		return nil, ErrRangeUnavailable
	}

	parsed, _ := time.Parse("2006-01-02", draft.Date)
	r := &models.Reservation{
		UserID:     draft.UserID,
		Name:       strings.TrimSpace(draft.Name),
		Phone:      strings.TrimSpace(draft.Phone),
		Email:      strings.TrimSpace(draft.Email),
		NationalID: strings.TrimSpace(draft.NationalID),
		Date:       draft.Date,
		StartTime:  draft.StartTime,
		EndTime:    draft.EndTime,
		Weekday:    spanishWeekday(parsed),
		Status:     models.StatusPending,
		Notes:      draft.Notes,
		Court:      court,
		Sport:      sport,
	}

	if err := s.repo.CreateReservationChecked(ctx, r); err != nil {
		return nil, err
	}

	if err := s.RefreshSnapshot(ctx); err != nil {
		s.logger.Error().Err(err).Msg("snapshot refresh after create failed")
	}

	metrics.IncReservation(models.StatusPending)
	s.publishEvent(events.EventReservationCreated, r, "user")
	return r, nil
}

// ConfirmReservation transitions pending to confirmed. Before committing it
// re-validates the reservation's range against all other confirmed
// reservations; a clash blocks the confirm so two confirmed reservations can
// never overlap.
func (s *ReservationService) ConfirmReservation(ctx context.Context, id, version int64, adminID string) error {
	r, err := s.repo.GetReservation(ctx, id)
	if err != nil {
		return err
	}

	snap, err := s.Snapshot(ctx)
	if err != nil {
		return err
	}

	end := r.EndTime
	if end == "" {
		end, err = schedule.SlotEnd(r.StartTime, s.scheduleCfg)
		if err != nil {
			return err
		}
	}
	confirmed := snap.ConfirmedOnly(r.ID)
	if !confirmed.RangeAvailable(r.Date, r.StartTime, end, r.Court) {
		metrics.IncRangeConflict()
		return ErrConfirmConflict
	}

	if err := s.repo.UpdateReservationStatusWithVersion(ctx, id, version, models.StatusConfirmed); err != nil {
		return err
	}

	if err := s.RefreshSnapshot(ctx); err != nil {
		s.logger.Error().Err(err).Msg("snapshot refresh after confirm failed")
	}

	metrics.IncReservation(models.StatusConfirmed)
	r.Status = models.StatusConfirmed
	s.publishEvent(events.EventReservationConfirmed, r, adminID)
	return nil
}

func (s *ReservationService) RejectReservation(ctx context.Context, id, version int64, adminID string) error {
	if err := s.repo.UpdateReservationStatusWithVersion(ctx, id, version, models.StatusRejected); err != nil {
		return err
	}

	if err := s.RefreshSnapshot(ctx); err != nil {
		s.logger.Error().Err(err).Msg("snapshot refresh after reject failed")
	}

	metrics.IncReservation(models.StatusRejected)
	if r, err := s.repo.GetReservation(ctx, id); err == nil {
		s.publishEvent(events.EventReservationRejected, r, adminID)
	}
	return nil
}

// DeleteReservation removes a reservation. Admins may delete any record;
// other callers only their own, and only while it is still pending.
func (s *ReservationService) DeleteReservation(ctx context.Context, id int64, requesterID string, isAdmin bool) error {
	r, err := s.repo.GetReservation(ctx, id)
	if err != nil {
		return err
	}
	if !isAdmin {
		if r.UserID == "" || r.UserID != requesterID {
			return ErrUnauthorized
		}
		if r.Status != models.StatusPending {
			return ErrUnauthorized
		}
	}

	if err := s.repo.DeleteReservation(ctx, id); err != nil {
		return err
	}

	if err := s.RefreshSnapshot(ctx); err != nil {
		s.logger.Error().Err(err).Msg("snapshot refresh after delete failed")
	}

	s.publishEvent(events.EventReservationDeleted, r, requesterID)
	return nil
}

func (s *ReservationService) GetReservation(ctx context.Context, id int64) (*models.Reservation, error) {
	return s.repo.GetReservation(ctx, id)
}

func (s *ReservationService) GetReservationsByDateRange(ctx context.Context, startDate, endDate string) ([]*models.Reservation, error) {
	return s.repo.GetReservationsByDateRange(ctx, startDate, endDate)
}

func (s *ReservationService) GetPendingReservations(ctx context.Context) ([]*models.Reservation, error) {
	return s.repo.GetReservationsByStatus(ctx, models.StatusPending)
}

func (s *ReservationService) GetReservationsByStatus(ctx context.Context, status string) ([]*models.Reservation, error) {
	return s.repo.GetReservationsByStatus(ctx, status)
}

func (s *ReservationService) GetUserReservations(ctx context.Context, userID string) ([]*models.Reservation, error) {
	return s.repo.GetUserReservations(ctx, userID)
}

// Quote prices a candidate booking. Membership is resolved by the caller.
func (s *ReservationService) Quote(_ context.Context, court, startSlot, endSlot string, isMember bool) pricing.Quote {
	return pricing.ForBooking(s.rates, court, startSlot, endSlot, isMember, s.logger)
}

func (s *ReservationService) publishEvent(eventType string, r *models.Reservation, changedBy string) {
	if s.eventBus == nil {
		return
	}

	payload := events.ReservationEventPayload{
		ReservationID: r.ID,
		UserID:        r.UserID,
		Name:          r.Name,
		Phone:         r.Phone,
		Date:          r.Date,
		StartTime:     r.StartTime,
		EndTime:       r.EndTime,
		Court:         r.Court,
		Sport:         r.Sport,
		Status:        r.Status,
		ChangedBy:     changedBy,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("reservation_id", r.ID).Msg("publish event error")
	}
}

var spanishWeekdays = [...]string{"Domingo", "Lunes", "Martes", "Miércoles", "Jueves", "Viernes", "Sábado"}

func spanishWeekday(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return spanishWeekdays[int(t.Weekday())]
}

func validNationalID(nid string) bool {
	if len(nid) != 8 {
		return false
	}
	for _, c := range nid {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
