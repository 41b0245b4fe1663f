package service

import (
	"context"
	"testing"

	"tripledoble/internal/database"
	"tripledoble/internal/events"
	"tripledoble/internal/models"
	"tripledoble/internal/pricing"
	"tripledoble/internal/schedule"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedEvent struct {
	Type    string
	Payload events.ReservationEventPayload
}

type captureBus struct {
	published []capturedEvent
}

func (b *captureBus) PublishJSON(eventType string, payload interface{}) error {
	p, _ := payload.(events.ReservationEventPayload)
	b.published = append(b.published, capturedEvent{Type: eventType, Payload: p})
	return nil
}

func newService(t *testing.T) (*ReservationService, *database.DB, *captureBus) {
	t.Helper()
	logger := zerolog.Nop()
	db, err := database.New(":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	bus := &captureBus{}
	svc, err := NewReservationService(db, bus, schedule.DefaultConfig(), pricing.DefaultRates(), 100000, &logger)
	require.NoError(t, err)
	return svc, db, bus
}

func draft(date, start, end, court string) *models.ReservationDraft {
	return &models.ReservationDraft{
		Name:       "Juan Pérez",
		Phone:      "977510600",
		NationalID: "12345678",
		Date:       date,
		StartTime:  start,
		EndTime:    end,
		Court:      court,
		Sport:      models.SportBasketball,
	}
}

func TestValidateDraft(t *testing.T) {
	svc, _, _ := newService(t)

	t.Run("Valid", func(t *testing.T) {
		assert.NoError(t, svc.ValidateDraft(draft("2099-06-01", "10:00", "12:00", models.CourtAnnex1)))
	})

	t.Run("MissingName", func(t *testing.T) {
		d := draft("2099-06-01", "10:00", "", models.CourtAnnex1)
		d.Name = "  "
		err := svc.ValidateDraft(d)
		assert.True(t, IsValidation(err))
	})

	t.Run("MissingContact", func(t *testing.T) {
		d := draft("2099-06-01", "10:00", "", models.CourtAnnex1)
		d.Phone = ""
		assert.True(t, IsValidation(svc.ValidateDraft(d)))
	})

	t.Run("EmailInsteadOfPhone", func(t *testing.T) {
		d := draft("2099-06-01", "10:00", "", models.CourtAnnex1)
		d.Phone = ""
		d.Email = "juan@example.com"
		assert.NoError(t, svc.ValidateDraft(d))
	})

	t.Run("BadNationalID", func(t *testing.T) {
		d := draft("2099-06-01", "10:00", "", models.CourtAnnex1)
		d.NationalID = "1234"
		assert.True(t, IsValidation(svc.ValidateDraft(d)))

		d.NationalID = "1234567a"
		assert.True(t, IsValidation(svc.ValidateDraft(d)))
	})

	t.Run("BadDate", func(t *testing.T) {
		assert.True(t, IsValidation(svc.ValidateDraft(draft("01/06/2099", "10:00", "", models.CourtAnnex1))))
	})

	t.Run("PastDate", func(t *testing.T) {
		err := svc.ValidateDraft(draft("2020-01-01", "10:00", "", models.CourtAnnex1))
		assert.ErrorIs(t, err, ErrPastDate)
	})

	t.Run("TooFarAhead", func(t *testing.T) {
		err := svc.ValidateDraft(draft("2999-01-01", "10:00", "", models.CourtAnnex1))
		assert.ErrorIs(t, err, ErrDateTooFar)
	})

	t.Run("UnknownCourt", func(t *testing.T) {
		assert.True(t, IsValidation(svc.ValidateDraft(draft("2099-06-01", "10:00", "", "cancha-4"))))
	})

	t.Run("OffGridStart", func(t *testing.T) {
		assert.True(t, IsValidation(svc.ValidateDraft(draft("2099-06-01", "10:15", "", models.CourtAnnex1))))
	})

	t.Run("ReversedRange", func(t *testing.T) {
		assert.True(t, IsValidation(svc.ValidateDraft(draft("2099-06-01", "12:00", "10:00", models.CourtAnnex1))))
	})
}

func TestCreateReservation(t *testing.T) {
	svc, _, bus := newService(t)
	ctx := context.Background()

	r, err := svc.CreateReservation(ctx, draft("2099-06-01", "10:00", "12:00", models.CourtAnnex1))
	require.NoError(t, err)
	assert.NotZero(t, r.ID)
	assert.Equal(t, models.StatusPending, r.Status)
	assert.Equal(t, "Lunes", r.Weekday)

	require.Len(t, bus.published, 1)
	assert.Equal(t, events.EventReservationCreated, bus.published[0].Type)
	assert.Equal(t, r.ID, bus.published[0].Payload.ReservationID)

	t.Run("OverlapRejected", func(t *testing.T) {
		_, err := svc.CreateReservation(ctx, draft("2099-06-01", "11:00", "13:00", models.CourtAnnex1))
		assert.ErrorIs(t, err, ErrRangeUnavailable)
	})

	t.Run("CrossCourtBlocked", func(t *testing.T) {
		_, err := svc.CreateReservation(ctx, draft("2099-06-01", "10:00", "11:00", models.CourtMain))
		assert.ErrorIs(t, err, ErrRangeUnavailable)
	})

	t.Run("SiblingAnnexFree", func(t *testing.T) {
		r2, err := svc.CreateReservation(ctx, draft("2099-06-01", "10:00", "11:00", models.CourtAnnex2))
		require.NoError(t, err)
		assert.Equal(t, models.CourtAnnex2, r2.Court)
	})

	t.Run("DefaultsApplied", func(t *testing.T) {
		d := draft("2099-06-02", "10:00", "", "")
		d.Sport = ""
		r, err := svc.CreateReservation(ctx, d)
		require.NoError(t, err)
		assert.Equal(t, models.CourtMain, r.Court)
		assert.Equal(t, models.SportBasketball, r.Sport)
	})
}

func TestConfirmReservation(t *testing.T) {
	svc, db, bus := newService(t)
	ctx := context.Background()

	t.Run("Confirms", func(t *testing.T) {
		r, err := svc.CreateReservation(ctx, draft("2099-06-01", "10:00", "11:00", models.CourtAnnex1))
		require.NoError(t, err)

		require.NoError(t, svc.ConfirmReservation(ctx, r.ID, r.Version, "admin-1"))

		got, err := db.GetReservation(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusConfirmed, got.Status)

		last := bus.published[len(bus.published)-1]
		assert.Equal(t, events.EventReservationConfirmed, last.Type)
		assert.Equal(t, "admin-1", last.Payload.ChangedBy)
	})

	t.Run("GuardBlocksOverlappingConfirm", func(t *testing.T) {
		// Two pending requests for the same annex slot can coexist; after the
		// first is confirmed, the second must not be confirmable. The second
		// is created directly since the service-level create already rejects
		// overlaps.
		first, err := svc.CreateReservation(ctx, draft("2099-06-05", "10:00", "12:00", models.CourtAnnex1))
		require.NoError(t, err)

		second := &models.Reservation{
			Name: "Rival", Phone: "1", Date: "2099-06-05",
			StartTime: "11:00", EndTime: "13:00",
			Court: models.CourtAnnex1, Status: models.StatusPending,
		}
		require.NoError(t, db.CreateReservation(ctx, second))
		require.NoError(t, svc.RefreshSnapshot(ctx))

		require.NoError(t, svc.ConfirmReservation(ctx, first.ID, first.Version, "admin-1"))

		err = svc.ConfirmReservation(ctx, second.ID, second.Version, "admin-1")
		assert.ErrorIs(t, err, ErrConfirmConflict)

		got, err := db.GetReservation(ctx, second.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, got.Status)
	})

	t.Run("PendingDoesNotBlockConfirm", func(t *testing.T) {
		// A lone pending reservation confirms fine even when other pending
		// ones exist elsewhere.
		r, err := svc.CreateReservation(ctx, draft("2099-06-06", "10:00", "11:00", models.CourtAnnex2))
		require.NoError(t, err)
		assert.NoError(t, svc.ConfirmReservation(ctx, r.ID, r.Version, "admin-1"))
	})

	t.Run("StaleVersion", func(t *testing.T) {
		r, err := svc.CreateReservation(ctx, draft("2099-06-07", "10:00", "11:00", models.CourtAnnex1))
		require.NoError(t, err)
		require.NoError(t, svc.ConfirmReservation(ctx, r.ID, r.Version, "admin-1"))

		err = svc.ConfirmReservation(ctx, r.ID, r.Version, "admin-2")
		assert.ErrorIs(t, err, database.ErrConcurrentModification)
	})
}

func TestRejectFreesSlot(t *testing.T) {
	svc, _, bus := newService(t)
	ctx := context.Background()

	r, err := svc.CreateReservation(ctx, draft("2099-06-01", "10:00", "12:00", models.CourtMain))
	require.NoError(t, err)

	require.NoError(t, svc.RejectReservation(ctx, r.ID, r.Version, "admin-1"))

	last := bus.published[len(bus.published)-1]
	assert.Equal(t, events.EventReservationRejected, last.Type)

	// The freed range is immediately bookable again.
	_, err = svc.CreateReservation(ctx, draft("2099-06-01", "10:00", "12:00", models.CourtAnnex1))
	assert.NoError(t, err)
}

func TestDeleteReservation(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	d := draft("2099-06-01", "10:00", "11:00", models.CourtAnnex1)
	d.UserID = "auth-1"
	r, err := svc.CreateReservation(ctx, d)
	require.NoError(t, err)

	t.Run("StrangerDenied", func(t *testing.T) {
		err := svc.DeleteReservation(ctx, r.ID, "auth-2", false)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("OwnerAllowed", func(t *testing.T) {
		assert.NoError(t, svc.DeleteReservation(ctx, r.ID, "auth-1", false))
	})

	t.Run("AdminDeletesAnonymous", func(t *testing.T) {
		anon, err := svc.CreateReservation(ctx, draft("2099-06-02", "10:00", "11:00", models.CourtAnnex1))
		require.NoError(t, err)

		err = svc.DeleteReservation(ctx, anon.ID, "somebody", false)
		assert.ErrorIs(t, err, ErrUnauthorized)

		assert.NoError(t, svc.DeleteReservation(ctx, anon.ID, "admin-1", true))
	})

	t.Run("OwnerDeniedOnceConfirmed", func(t *testing.T) {
		d := draft("2099-06-03", "10:00", "11:00", models.CourtAnnex1)
		d.UserID = "auth-1"
		confirmed, err := svc.CreateReservation(ctx, d)
		require.NoError(t, err)
		require.NoError(t, svc.ConfirmReservation(ctx, confirmed.ID, confirmed.Version, "admin-1"))

		err = svc.DeleteReservation(ctx, confirmed.ID, "auth-1", false)
		assert.ErrorIs(t, err, ErrUnauthorized)

		// Админ всё ещё может удалить подтверждённую запись.
		assert.NoError(t, svc.DeleteReservation(ctx, confirmed.ID, "admin-1", true))
	})
}

func TestSnapshotTracksWrites(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	snap, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.True(t, snap.SlotAvailable("2099-06-01", "10:00", models.CourtAnnex1))

	_, err = svc.CreateReservation(ctx, draft("2099-06-01", "10:00", "11:00", models.CourtAnnex1))
	require.NoError(t, err)

	snap, err = svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.False(t, snap.SlotAvailable("2099-06-01", "10:00", models.CourtAnnex1))
	assert.False(t, snap.SlotAvailable("2099-06-01", "10:00", models.CourtMain))
	assert.True(t, snap.SlotAvailable("2099-06-01", "10:00", models.CourtAnnex2))
}

func TestQuote(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	q := svc.Quote(ctx, models.CourtAnnex1, "10:00", "13:00", false)
	assert.Equal(t, 150, q.Total)

	q = svc.Quote(ctx, models.CourtMain, "10:00", "12:00", true)
	assert.Equal(t, 140, q.Total)
}
