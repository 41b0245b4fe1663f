package database

import (
	"context"
	"testing"

	"tripledoble/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func testReservation(date, start, end, court string) *models.Reservation {
	return &models.Reservation{
		Name:      "Juan Pérez",
		Phone:     "977510600",
		Date:      date,
		StartTime: start,
		EndTime:   end,
		Status:    models.StatusPending,
		Court:     court,
		Sport:     models.SportBasketball,
	}
}

func TestCreateAndGetReservation(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	r := testReservation("2025-06-01", "10:00", "12:00", models.CourtAnnex1)
	r.Email = "juan@example.com"
	r.NationalID = "45678912"
	r.Notes = "cumpleaños"

	err := db.CreateReservation(ctx, r)
	require.NoError(t, err)
	assert.NotZero(t, r.ID)
	assert.Equal(t, int64(1), r.Version)

	got, err := db.GetReservation(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "Juan Pérez", got.Name)
	assert.Equal(t, "2025-06-01", got.Date)
	assert.Equal(t, "10:00", got.StartTime)
	assert.Equal(t, "12:00", got.EndTime)
	assert.Equal(t, models.CourtAnnex1, got.Court)
	assert.Equal(t, "cumpleaños", got.Notes)
}

func TestGetReservationNotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.GetReservation(context.Background(), 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateReservationChecked(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	t.Run("FirstWins", func(t *testing.T) {
		first := testReservation("2025-06-01", "10:00", "12:00", models.CourtAnnex1)
		require.NoError(t, db.CreateReservationChecked(ctx, first))

		overlap := testReservation("2025-06-01", "11:00", "13:00", models.CourtAnnex1)
		err := db.CreateReservationChecked(ctx, overlap)
		assert.ErrorIs(t, err, ErrNotAvailable)
	})

	t.Run("AnnexesDoNotCompete", func(t *testing.T) {
		sibling := testReservation("2025-06-01", "10:00", "12:00", models.CourtAnnex2)
		assert.NoError(t, db.CreateReservationChecked(ctx, sibling))
	})

	t.Run("MainBlockedByAnnex", func(t *testing.T) {
		main := testReservation("2025-06-01", "11:00", "12:00", models.CourtMain)
		err := db.CreateReservationChecked(ctx, main)
		assert.ErrorIs(t, err, ErrNotAvailable)
	})

	t.Run("AdjacentIntervalsCoexist", func(t *testing.T) {
		after := testReservation("2025-06-01", "12:00", "13:00", models.CourtAnnex1)
		assert.NoError(t, db.CreateReservationChecked(ctx, after))
	})

	t.Run("RejectedDoesNotBlock", func(t *testing.T) {
		rejected := testReservation("2025-06-02", "10:00", "12:00", models.CourtMain)
		rejected.Status = models.StatusRejected
		require.NoError(t, db.CreateReservation(ctx, rejected))

		again := testReservation("2025-06-02", "10:00", "12:00", models.CourtMain)
		assert.NoError(t, db.CreateReservationChecked(ctx, again))
	})

	t.Run("SingleSlotOccupiesOneHour", func(t *testing.T) {
		single := testReservation("2025-06-03", "10:00", "", models.CourtAnnex1)
		require.NoError(t, db.CreateReservationChecked(ctx, single))

		next := testReservation("2025-06-03", "11:00", "12:00", models.CourtAnnex1)
		assert.NoError(t, db.CreateReservationChecked(ctx, next))
	})
}

func TestOptimisticLocking(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	r := testReservation("2025-06-01", "10:00", "11:00", models.CourtMain)
	require.NoError(t, db.CreateReservation(ctx, r))
	assert.Equal(t, int64(1), r.Version)

	// Successful update
	err := db.UpdateReservationStatusWithVersion(ctx, r.ID, r.Version, models.StatusConfirmed)
	require.NoError(t, err)

	// Stale version loses
	err = db.UpdateReservationStatusWithVersion(ctx, r.ID, r.Version, models.StatusRejected)
	assert.ErrorIs(t, err, ErrConcurrentModification)

	// Re-read and retry
	updated, err := db.GetReservation(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Version)
	assert.Equal(t, models.StatusConfirmed, updated.Status)
	err = db.UpdateReservationStatusWithVersion(ctx, updated.ID, updated.Version, models.StatusRejected)
	require.NoError(t, err)
}

func TestUpdateReservationStatus(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	r := testReservation("2025-06-01", "10:00", "11:00", models.CourtMain)
	require.NoError(t, db.CreateReservation(ctx, r))

	require.NoError(t, db.UpdateReservationStatus(ctx, r.ID, models.StatusConfirmed))
	got, err := db.GetReservation(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, got.Status)

	assert.ErrorIs(t, db.UpdateReservationStatus(ctx, 9999, models.StatusConfirmed), ErrNotFound)
}

func TestDeleteReservation(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	r := testReservation("2025-06-01", "10:00", "11:00", models.CourtMain)
	require.NoError(t, db.CreateReservation(ctx, r))

	require.NoError(t, db.DeleteReservation(ctx, r.ID))
	_, err := db.GetReservation(ctx, r.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, db.DeleteReservation(ctx, r.ID), ErrNotFound)
}

func TestGetReservationsByDateRange(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	dates := []string{"2025-06-01", "2025-06-03", "2025-06-07"}
	for _, d := range dates {
		require.NoError(t, db.CreateReservation(ctx, testReservation(d, "10:00", "11:00", models.CourtAnnex1)))
	}

	got, err := db.GetReservationsByDateRange(ctx, "2025-06-01", "2025-06-05")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2025-06-01", got[0].Date)
	assert.Equal(t, "2025-06-03", got[1].Date)
}

func TestGetReservationsByStatus(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	pending := testReservation("2025-06-01", "10:00", "11:00", models.CourtAnnex1)
	require.NoError(t, db.CreateReservation(ctx, pending))

	confirmed := testReservation("2025-06-01", "14:00", "15:00", models.CourtAnnex2)
	confirmed.Status = models.StatusConfirmed
	require.NoError(t, db.CreateReservation(ctx, confirmed))

	got, err := db.GetReservationsByStatus(ctx, models.StatusPending)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, pending.ID, got[0].ID)
}

func TestGetUserReservations(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	// The two-week cutoff drops long-past reservations.
	stale := testReservation("2000-01-01", "10:00", "11:00", models.CourtAnnex1)
	stale.UserID = "auth-123"
	require.NoError(t, db.CreateReservation(ctx, stale))

	other := testReservation("2099-01-01", "14:00", "15:00", models.CourtAnnex2)
	other.UserID = "auth-456"
	require.NoError(t, db.CreateReservation(ctx, other))

	future := testReservation("2099-01-01", "10:00", "11:00", models.CourtAnnex1)
	future.UserID = "auth-123"
	require.NoError(t, db.CreateReservation(ctx, future))

	got, err := db.GetUserReservations(ctx, "auth-123")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, future.ID, got[0].ID)
}

func TestGetDailyReservations(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.CreateReservation(ctx, testReservation("2025-06-01", "10:00", "11:00", models.CourtAnnex1)))
	require.NoError(t, db.CreateReservation(ctx, testReservation("2025-06-01", "14:00", "15:00", models.CourtAnnex2)))
	require.NoError(t, db.CreateReservation(ctx, testReservation("2025-06-02", "10:00", "11:00", models.CourtMain)))

	daily, err := db.GetDailyReservations(ctx, "2025-06-01", "2025-06-02")
	require.NoError(t, err)
	assert.Len(t, daily["2025-06-01"], 2)
	assert.Len(t, daily["2025-06-02"], 1)
}
