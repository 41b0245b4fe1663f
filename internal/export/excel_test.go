package export

import (
	"testing"
	"time"

	"tripledoble/internal/models"
	"tripledoble/internal/schedule"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWeeklySchedule(t *testing.T) {
	logger := zerolog.Nop()
	e, err := New(t.TempDir(), schedule.DefaultConfig(), &logger)
	require.NoError(t, err)

	weekStart := time.Date(2099, 6, 1, 0, 0, 0, 0, time.UTC) // a Monday
	reservations := []*models.Reservation{
		{
			Name: "Juan Pérez", Phone: "977510600",
			Date: "2099-06-01", StartTime: "10:00", EndTime: "12:00",
			Court: models.CourtAnnex1, Status: models.StatusConfirmed,
		},
		{
			Name: "María López", Phone: "922803684",
			Date: "2099-06-03", StartTime: "14:00",
			Court: models.CourtMain, Status: models.StatusPending,
		},
		{
			Name: "Fuera de semana", Phone: "1",
			Date: "2099-06-10", StartTime: "10:00",
			Court: models.CourtMain, Status: models.StatusConfirmed,
		},
	}

	path, err := e.WeeklySchedule(reservations, weekStart)
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	for _, court := range models.Courts() {
		idx, err := f.GetSheetIndex(models.CourtName(court))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, idx, 0, court)
	}

	annex := models.CourtName(models.CourtAnnex1)

	title, err := f.GetCellValue(annex, "A1")
	require.NoError(t, err)
	assert.Contains(t, title, "01.06.2099 - 07.06.2099")

	hora, err := f.GetCellValue(annex, "A2")
	require.NoError(t, err)
	assert.Equal(t, "Hora", hora)

	// 10:00 is the third grid slot, so row 5; Monday is column B.
	cell, err := f.GetCellValue(annex, "B5")
	require.NoError(t, err)
	assert.Contains(t, cell, "Juan Pérez")

	// The two-hour span also covers the 11:00 row.
	cell, err = f.GetCellValue(annex, "B6")
	require.NoError(t, err)
	assert.Contains(t, cell, "Juan Pérez")

	// 12:00 is past the range end.
	cell, err = f.GetCellValue(annex, "B7")
	require.NoError(t, err)
	assert.Empty(t, cell)

	// The annex booking blocks the main court sheet too.
	main := models.CourtName(models.CourtMain)
	cell, err = f.GetCellValue(main, "B5")
	require.NoError(t, err)
	assert.Contains(t, cell, "Bloqueado por Cancha Anexa 1")

	// Wednesday pending booking on the main court, 14:00 row.
	cell, err = f.GetCellValue(main, "D9")
	require.NoError(t, err)
	assert.Contains(t, cell, "María López")

	// Annexes do not see each other's bookings.
	annex2 := models.CourtName(models.CourtAnnex2)
	cell, err = f.GetCellValue(annex2, "B5")
	require.NoError(t, err)
	assert.Empty(t, cell)

	// Next week's booking stays off this export.
	cell, err = f.GetCellValue(main, "B5")
	require.NoError(t, err)
	assert.NotContains(t, cell, "Fuera de semana")
}
