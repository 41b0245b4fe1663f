package models

// Court identifiers. The facility has exactly three courts: the full main
// court and two half-court annexes painted on the same floor, which is why
// occupying the main court physically excludes both annexes and vice versa.
const (
	CourtMain   = "main"
	CourtAnnex1 = "annex-1"
	CourtAnnex2 = "annex-2"
)

var courtNames = map[string]string{
	CourtMain:   "Cancha Principal",
	CourtAnnex1: "Cancha Anexa 1",
	CourtAnnex2: "Cancha Anexa 2",
}

// Courts lists the valid court identifiers in display order.
func Courts() []string {
	return []string{CourtMain, CourtAnnex1, CourtAnnex2}
}

// ValidCourt reports whether id names one of the three courts.
func ValidCourt(id string) bool {
	_, ok := courtNames[id]
	return ok
}

// CourtName returns the display name for a court id, or the id itself when
// unrecognized.
func CourtName(id string) string {
	if name, ok := courtNames[id]; ok {
		return name
	}
	return id
}

// CourtBlocks reports whether a reservation on court a renders court b
// unavailable for the same slot. A court always blocks itself; the main
// court blocks both annexes and either annex blocks the main court; the two
// annexes never block each other.
func CourtBlocks(a, b string) bool {
	if a == b {
		return true
	}
	if a == CourtMain {
		return b == CourtAnnex1 || b == CourtAnnex2
	}
	if a == CourtAnnex1 || a == CourtAnnex2 {
		return b == CourtMain
	}
	return false
}
