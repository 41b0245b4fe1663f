package selection

import (
	"testing"

	"tripledoble/internal/availability"
	"tripledoble/internal/models"
	"tripledoble/internal/schedule"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDate = "2025-06-01"

func newMachine(t *testing.T) (*Machine, schedule.Config, []string) {
	t.Helper()
	cfg := schedule.DefaultConfig()
	grid, err := schedule.Slots(cfg)
	require.NoError(t, err)
	return NewMachine(cfg, grid), cfg, grid
}

func emptySnap(t *testing.T) availability.Snapshot {
	t.Helper()
	cfg := schedule.DefaultConfig()
	grid, err := schedule.Slots(cfg)
	require.NoError(t, err)
	return availability.NewSnapshot(nil, cfg, grid)
}

func snapWith(t *testing.T, rs ...models.Reservation) availability.Snapshot {
	t.Helper()
	cfg := schedule.DefaultConfig()
	grid, err := schedule.Slots(cfg)
	require.NoError(t, err)
	return availability.NewSnapshot(rs, cfg, grid)
}

func TestClickAnchors(t *testing.T) {
	m, _, _ := newMachine(t)
	s := emptySnap(t)

	emitted, err := m.Click(s, testDate, models.CourtAnnex1, "09:00")
	require.NoError(t, err)
	assert.Nil(t, emitted)
	assert.Equal(t, StateAnchored, m.State())
	assert.Equal(t, "09:00", m.Anchor().StartSlot)
}

func TestClickOccupiedSlotStaysIdle(t *testing.T) {
	m, _, _ := newMachine(t)
	s := snapWith(t, models.Reservation{
		Date: testDate, StartTime: "09:00",
		Court: models.CourtAnnex1, Status: models.StatusConfirmed,
	})

	emitted, err := m.Click(s, testDate, models.CourtAnnex1, "09:00")
	require.NoError(t, err)
	assert.Nil(t, emitted)
	assert.Equal(t, StateIdle, m.State())
}

func TestDoubleClickEmitsSingleInterval(t *testing.T) {
	m, _, _ := newMachine(t)
	s := emptySnap(t)

	_, err := m.Click(s, testDate, models.CourtMain, "14:00")
	require.NoError(t, err)

	emitted, err := m.Click(s, testDate, models.CourtMain, "14:00")
	require.NoError(t, err)
	require.NotNil(t, emitted)
	assert.Equal(t, models.SelectionRange{
		Date: testDate, Court: models.CourtMain, StartSlot: "14:00", EndSlot: "15:00",
	}, *emitted)
	assert.Equal(t, StateIdle, m.State())
}

func TestForwardRangeConfirm(t *testing.T) {
	m, _, _ := newMachine(t)
	s := emptySnap(t)

	_, err := m.Click(s, testDate, models.CourtAnnex2, "09:00")
	require.NoError(t, err)

	emitted, err := m.Click(s, testDate, models.CourtAnnex2, "11:00")
	require.NoError(t, err)
	require.NotNil(t, emitted)
	// End is the end of the later slot, so three intervals are occupied.
	assert.Equal(t, "09:00", emitted.StartSlot)
	assert.Equal(t, "12:00", emitted.EndSlot)
}

func TestBackwardPick(t *testing.T) {
	m, _, _ := newMachine(t)
	s := emptySnap(t)

	_, err := m.Click(s, testDate, models.CourtAnnex2, "11:00")
	require.NoError(t, err)

	emitted, err := m.Click(s, testDate, models.CourtAnnex2, "09:00")
	require.NoError(t, err)
	require.NotNil(t, emitted)
	assert.Equal(t, "09:00", emitted.StartSlot)
	assert.Equal(t, "12:00", emitted.EndSlot)
}

func TestHoverPreview(t *testing.T) {
	t.Run("ValidSpan", func(t *testing.T) {
		m, _, _ := newMachine(t)
		s := emptySnap(t)

		_, err := m.Click(s, testDate, models.CourtAnnex1, "09:00")
		require.NoError(t, err)

		p, ok := m.Hover(s, testDate, models.CourtAnnex1, "11:00")
		require.True(t, ok)
		assert.True(t, p.Valid)
		assert.Equal(t, []string{"09:00", "10:00", "11:00"}, p.Slots)
		assert.Equal(t, "12:00", p.EndSlot)
	})

	t.Run("OccupiedMiddleInvalidates", func(t *testing.T) {
		m, _, _ := newMachine(t)
		s := snapWith(t, models.Reservation{
			Date: testDate, StartTime: "10:00",
			Court: models.CourtAnnex1, Status: models.StatusConfirmed,
		})

		_, err := m.Click(s, testDate, models.CourtAnnex1, "09:00")
		require.NoError(t, err)

		p, ok := m.Hover(s, testDate, models.CourtAnnex1, "11:00")
		require.True(t, ok)
		assert.False(t, p.Valid)

		// Hovering the occupied slot itself is equally invalid.
		p, ok = m.Hover(s, testDate, models.CourtAnnex1, "10:00")
		require.True(t, ok)
		assert.False(t, p.Valid)
	})

	t.Run("NoPreviewWhileIdle", func(t *testing.T) {
		m, _, _ := newMachine(t)
		_, ok := m.Hover(emptySnap(t), testDate, models.CourtAnnex1, "11:00")
		assert.False(t, ok)
	})

	t.Run("NoPreviewAcrossDates", func(t *testing.T) {
		m, _, _ := newMachine(t)
		s := emptySnap(t)
		_, err := m.Click(s, testDate, models.CourtAnnex1, "09:00")
		require.NoError(t, err)

		_, ok := m.Hover(s, "2025-06-02", models.CourtAnnex1, "11:00")
		assert.False(t, ok)
	})

	t.Run("RecomputedFromLiveData", func(t *testing.T) {
		m, _, _ := newMachine(t)
		free := emptySnap(t)

		_, err := m.Click(free, testDate, models.CourtAnnex1, "09:00")
		require.NoError(t, err)

		p, ok := m.Hover(free, testDate, models.CourtAnnex1, "10:00")
		require.True(t, ok)
		assert.True(t, p.Valid)

		// The reservation set changed underneath; the next tick must see it.
		taken := snapWith(t, models.Reservation{
			Date: testDate, StartTime: "10:00",
			Court: models.CourtAnnex1, Status: models.StatusPending,
		})
		p, ok = m.Hover(taken, testDate, models.CourtAnnex1, "10:00")
		require.True(t, ok)
		assert.False(t, p.Valid)
	})
}

func TestConfirmOverConflictResets(t *testing.T) {
	m, _, _ := newMachine(t)
	s := snapWith(t, models.Reservation{
		Date: testDate, StartTime: "10:00",
		Court: models.CourtAnnex1, Status: models.StatusConfirmed,
	})

	_, err := m.Click(s, testDate, models.CourtAnnex1, "09:00")
	require.NoError(t, err)

	emitted, err := m.Click(s, testDate, models.CourtAnnex1, "11:00")
	assert.ErrorIs(t, err, ErrRangeConflict)
	assert.Nil(t, emitted)
	assert.Equal(t, StateIdle, m.State())
}

func TestReanchorOnOtherDateOrCourt(t *testing.T) {
	m, _, _ := newMachine(t)
	s := emptySnap(t)

	_, err := m.Click(s, testDate, models.CourtAnnex1, "09:00")
	require.NoError(t, err)

	// Clicking a different court discards and re-anchors there.
	emitted, err := m.Click(s, testDate, models.CourtMain, "15:00")
	require.NoError(t, err)
	assert.Nil(t, emitted)
	assert.Equal(t, StateAnchored, m.State())
	assert.Equal(t, models.CourtMain, m.Anchor().Court)
	assert.Equal(t, "15:00", m.Anchor().StartSlot)
}

func TestCancel(t *testing.T) {
	m, _, _ := newMachine(t)
	s := emptySnap(t)

	_, err := m.Click(s, testDate, models.CourtAnnex1, "09:00")
	require.NoError(t, err)

	m.Cancel()
	assert.Equal(t, StateIdle, m.State())

	_, ok := m.Hover(s, testDate, models.CourtAnnex1, "10:00")
	assert.False(t, ok)
}

func TestRestore(t *testing.T) {
	m, _, _ := newMachine(t)
	m.Restore(Anchor{Date: testDate, Court: models.CourtAnnex2, StartSlot: "18:00"})

	assert.Equal(t, StateAnchored, m.State())

	emitted, err := m.Click(emptySnap(t), testDate, models.CourtAnnex2, "19:00")
	require.NoError(t, err)
	require.NotNil(t, emitted)
	assert.Equal(t, "18:00", emitted.StartSlot)
	assert.Equal(t, "20:00", emitted.EndSlot)
}
