// Package export renders the weekly reservation schedule to an .xlsx file,
// one sheet per court, slot rows by weekday columns.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"tripledoble/internal/availability"
	"tripledoble/internal/models"
	"tripledoble/internal/schedule"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

type Exporter struct {
	dir    string
	cfg    schedule.Config
	grid   []string
	logger *zerolog.Logger
}

func New(dir string, cfg schedule.Config, logger *zerolog.Logger) (*Exporter, error) {
	grid, err := schedule.Slots(cfg)
	if err != nil {
		return nil, err
	}
	return &Exporter{
		dir:    dir,
		cfg:    cfg,
		grid:   grid,
		logger: logger,
	}, nil
}

// WeeklySchedule writes the grid for the seven days starting at weekStart and
// returns the file path. Pending cells are marked yellow, confirmed red, free
// cells stay unfilled.
func (e *Exporter) WeeklySchedule(reservations []*models.Reservation, weekStart time.Time) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %v", err)
	}

	flat := make([]models.Reservation, 0, len(reservations))
	for _, r := range reservations {
		flat = append(flat, *r)
	}
	snap := availability.NewSnapshot(flat, e.cfg, e.grid)

	f := excelize.NewFile()
	defer f.Close()

	for _, court := range models.Courts() {
		if err := e.writeCourtSheet(f, snap, court, weekStart); err != nil {
			return "", err
		}
	}
	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("semana_%s.xlsx", weekStart.Format("2006-01-02"))
	filePath := filepath.Join(e.dir, fileName)
	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %v", err)
	}

	e.logger.Info().Str("file_path", filePath).Msg("weekly schedule exported")
	return filePath, nil
}

func (e *Exporter) writeCourtSheet(f *excelize.File, snap availability.Snapshot, court string, weekStart time.Time) error {
	sheetName := models.CourtName(court)
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	weekEnd := weekStart.AddDate(0, 0, 6)
	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("%s: %s - %s",
		sheetName, weekStart.Format("02.01.2006"), weekEnd.Format("02.01.2006")))
	lastCol, _ := excelize.CoordinatesToCellName(8, 1)
	_ = f.MergeCell(sheetName, "A1", lastCol)

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheetName, "A1", "A1", titleStyle)

	e.writeDayHeaders(f, sheetName, weekStart)

	for i, slot := range e.grid {
		row := i + 3
		slotEnd, err := schedule.SlotEnd(slot, e.cfg)
		if err != nil {
			slotEnd = ""
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		_ = f.SetCellValue(sheetName, cell, fmt.Sprintf("%s - %s", slot, slotEnd))

		for day := 0; day < 7; day++ {
			date := weekStart.AddDate(0, 0, day).Format("2006-01-02")
			cell, _ := excelize.CoordinatesToCellName(day+2, row)
			e.writeSlotCell(f, sheetName, cell, snap, date, slot, court)
		}
	}

	_ = f.SetColWidth(sheetName, "A", "A", 15)
	_ = f.SetColWidth(sheetName, "B", "H", 25)
	return nil
}

func (e *Exporter) writeDayHeaders(f *excelize.File, sheetName string, weekStart time.Time) {
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})

	cell, _ := excelize.CoordinatesToCellName(1, 2)
	_ = f.SetCellValue(sheetName, cell, "Hora")
	_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)

	for day := 0; day < 7; day++ {
		date := weekStart.AddDate(0, 0, day)
		cell, _ := excelize.CoordinatesToCellName(day+2, 2)
		_ = f.SetCellValue(sheetName, cell, fmt.Sprintf("%s %s", dayName(date), date.Format("02.01")))
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}
}

func (e *Exporter) writeSlotCell(f *excelize.File, sheetName, cell string, snap availability.Snapshot, date, slot, court string) {
	r := snap.ReservationAt(date, slot, court)
	if r == nil {
		return
	}

	value := fmt.Sprintf("%s (%s)", r.Name, r.Phone)
	if rc := r.Court; rc != "" && rc != court {
		value = fmt.Sprintf("Bloqueado por %s\n%s", models.CourtName(rc), value)
	}
	if r.Notes != "" {
		value += fmt.Sprintf("\n💬 %s", r.Notes)
	}
	_ = f.SetCellValue(sheetName, cell, value)

	fill := "#FFEB9C"
	if r.Status == models.StatusConfirmed {
		fill = "#FFC7CE"
	}
	style, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{fill}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "left",
			Vertical:   "top",
			WrapText:   true,
		},
	})
	if err == nil {
		_ = f.SetCellStyle(sheetName, cell, cell, style)
	}
}

var dayNames = [...]string{"Dom", "Lun", "Mar", "Mié", "Jue", "Vie", "Sáb"}

func dayName(t time.Time) string {
	return dayNames[int(t.Weekday())]
}
