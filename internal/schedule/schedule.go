package schedule

import (
	"errors"
	"fmt"
)

// ErrInvalidWindow means the configured opening window cannot produce a slot
// grid (open >= close, bad HH:MM strings or a non-positive interval).
var ErrInvalidWindow = errors.New("schedule: opening window is invalid")

// Config governs slot generation for a day.
type Config struct {
	OpenTime        string   `yaml:"open_time"`
	CloseTime       string   `yaml:"close_time"`
	IntervalMinutes int      `yaml:"interval_minutes"`
	Weekdays        []string `yaml:"weekdays"`
}

// DefaultConfig returns the facility defaults: 08:00-22:00, hourly slots.
func DefaultConfig() Config {
	return Config{
		OpenTime:        "08:00",
		CloseTime:       "22:00",
		IntervalMinutes: 60,
		Weekdays:        []string{"Lunes", "Martes", "Miércoles", "Jueves", "Viernes", "Sábado", "Domingo"},
	}
}

// Validate checks the window before slot generation. Generation must never
// loop forever on a malformed config.
func (c Config) Validate() error {
	open, err := ParseClock(c.OpenTime)
	if err != nil {
		return fmt.Errorf("%w: open_time %q", ErrInvalidWindow, c.OpenTime)
	}
	close_, err := ParseClock(c.CloseTime)
	if err != nil {
		return fmt.Errorf("%w: close_time %q", ErrInvalidWindow, c.CloseTime)
	}
	if open >= close_ {
		return fmt.Errorf("%w: open %s >= close %s", ErrInvalidWindow, c.OpenTime, c.CloseTime)
	}
	if c.IntervalMinutes <= 0 {
		return fmt.Errorf("%w: interval %d", ErrInvalidWindow, c.IntervalMinutes)
	}
	return nil
}

// ParseClock converts an HH:MM string to minutes since midnight.
func ParseClock(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("parse clock %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("parse clock %q: out of range", s)
	}
	return h*60 + m, nil
}

// FormatClock renders minutes since midnight as zero-padded HH:MM.
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// Slots generates the ordered list of bookable start times for a day:
// starting at OpenTime, advancing by IntervalMinutes, stopping strictly
// before CloseTime. The sequence is recomputed on every call.
func Slots(cfg Config) ([]string, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	open, _ := ParseClock(cfg.OpenTime)
	close_, _ := ParseClock(cfg.CloseTime)

	var slots []string
	for t := open; t < close_; t += cfg.IntervalMinutes {
		slots = append(slots, FormatClock(t))
	}
	return slots, nil
}

// SlotEnd returns the end time of a slot, one interval after its start.
// Minute overflow carries into the hour component.
func SlotEnd(slot string, cfg Config) (string, error) {
	start, err := ParseClock(slot)
	if err != nil {
		return "", err
	}
	return FormatClock(start + cfg.IntervalMinutes), nil
}

// SlotIndex returns the position of slot in the generated grid, or -1 when
// the slot does not lie on the grid.
func SlotIndex(grid []string, slot string) int {
	for i, s := range grid {
		if s == slot {
			return i
		}
	}
	return -1
}

// SlotsInRange returns the grid slots from start up to but excluding end.
// The end time marks where occupation stops; it is not itself occupied.
// Slots off the grid yield an empty range.
func SlotsInRange(grid []string, start, end string) []string {
	from := SlotIndex(grid, start)
	if from == -1 {
		return nil
	}

	to := SlotIndex(grid, end)
	if to == -1 {
		// The range end may be the close of the last slot, which is not a
		// grid entry; treat any end past the last slot as the grid's end.
		if endMin, err := ParseClock(end); err == nil {
			if lastMin, err := ParseClock(grid[len(grid)-1]); err == nil && endMin > lastMin {
				to = len(grid)
			}
		}
		if to == -1 {
			return nil
		}
	}

	if to <= from {
		return nil
	}
	out := make([]string, to-from)
	copy(out, grid[from:to])
	return out
}
