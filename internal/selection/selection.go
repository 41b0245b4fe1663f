package selection

import (
	"errors"

	"tripledoble/internal/availability"
	"tripledoble/internal/models"
	"tripledoble/internal/schedule"
)

// ErrRangeConflict is returned when a confirm lands on a range that is no
// longer fully available. The machine resets to idle; the user re-selects.
var ErrRangeConflict = errors.New("selection: range no longer available")

// State names for the two-click slot picker.
const (
	StateIdle     = "idle"
	StateAnchored = "anchored"
)

// Anchor is the first click of a two-click selection.
type Anchor struct {
	Date      string
	Court     string
	StartSlot string
}

// Preview is the non-committing candidate range computed on hover. Slots
// holds the occupied span (end-exclusive of EndSlot, which is the end time
// of the later of the two picked slots).
type Preview struct {
	StartSlot string
	EndSlot   string
	Slots     []string
	Valid     bool
}

// Machine is the explicit finite-state machine behind the calendar's
// two-click range selection. Every event takes the current Snapshot so
// validity is always recomputed from live data; no verdict is cached
// across ticks.
type Machine struct {
	cfg    schedule.Config
	grid   []string
	state  string
	anchor Anchor
}

// NewMachine builds an idle machine over the given slot grid.
func NewMachine(cfg schedule.Config, grid []string) *Machine {
	return &Machine{cfg: cfg, grid: grid, state: StateIdle}
}

// State returns the current state name.
func (m *Machine) State() string {
	return m.state
}

// Anchor returns the anchored first click; valid only while anchored.
func (m *Machine) Anchor() Anchor {
	return m.anchor
}

// Cancel unconditionally returns the machine to idle.
func (m *Machine) Cancel() {
	m.state = StateIdle
	m.anchor = Anchor{}
}

// Restore puts the machine back into the anchored state, used when the
// session is rehydrated from the state repository between updates.
func (m *Machine) Restore(anchor Anchor) {
	m.anchor = anchor
	m.state = StateAnchored
}

// Hover computes the preview for a hovered slot while anchored. Hovering on
// a different date or court, or while idle, yields no preview. Picking
// backward is supported: the candidate span is the min/max index span
// between anchor and hovered slot, and the previewed end time is the end of
// the later of the two.
func (m *Machine) Hover(snap availability.Snapshot, date, court, slot string) (Preview, bool) {
	if m.state != StateAnchored {
		return Preview{}, false
	}
	if date != m.anchor.Date || court != m.anchor.Court {
		return Preview{}, false
	}

	return m.preview(snap, slot)
}

// Click feeds a cell click into the machine. The returned SelectionRange is
// non-nil only when a range was confirmed and emitted; the machine is then
// idle again. A confirm over an invalid range resets to idle and returns
// ErrRangeConflict.
func (m *Machine) Click(snap availability.Snapshot, date, court, slot string) (*models.SelectionRange, error) {
	if m.state == StateIdle {
		if !snap.SlotAvailable(date, slot, court) {
			return nil, nil
		}
		m.anchor = Anchor{Date: date, Court: court, StartSlot: slot}
		m.state = StateAnchored
		return nil, nil
	}

	// Clicking another date or court discards the selection and re-anchors
	// at the new slot.
	if date != m.anchor.Date || court != m.anchor.Court {
		m.Cancel()
		return m.Click(snap, date, court, slot)
	}

	// Same slot twice: a single-interval booking.
	if slot == m.anchor.StartSlot {
		end, err := schedule.SlotEnd(slot, m.cfg)
		if err != nil {
			m.Cancel()
			return nil, err
		}
		if !snap.SlotAvailable(date, slot, court) {
			m.Cancel()
			return nil, ErrRangeConflict
		}
		emitted := &models.SelectionRange{Date: date, Court: court, StartSlot: slot, EndSlot: end}
		m.Cancel()
		return emitted, nil
	}

	p, ok := m.preview(snap, slot)
	if !ok || !p.Valid {
		m.Cancel()
		return nil, ErrRangeConflict
	}

	emitted := &models.SelectionRange{
		Date:      m.anchor.Date,
		Court:     m.anchor.Court,
		StartSlot: p.StartSlot,
		EndSlot:   p.EndSlot,
	}
	m.Cancel()
	return emitted, nil
}

func (m *Machine) preview(snap availability.Snapshot, slot string) (Preview, bool) {
	anchorIdx := schedule.SlotIndex(m.grid, m.anchor.StartSlot)
	hoverIdx := schedule.SlotIndex(m.grid, slot)
	if anchorIdx == -1 || hoverIdx == -1 {
		return Preview{}, false
	}

	from, to := anchorIdx, hoverIdx
	if to < from {
		from, to = to, from
	}

	// The occupied span runs through the later slot; its end time is that
	// slot's end.
	end, err := schedule.SlotEnd(m.grid[to], m.cfg)
	if err != nil {
		return Preview{}, false
	}

	slots := schedule.SlotsInRange(m.grid, m.grid[from], end)
	valid := snap.RangeAvailable(m.anchor.Date, m.grid[from], end, m.anchor.Court)

	return Preview{
		StartSlot: m.grid[from],
		EndSlot:   end,
		Slots:     slots,
		Valid:     valid,
	}, true
}
