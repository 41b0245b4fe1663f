package pricing

import (
	"fmt"

	"tripledoble/internal/models"
	"tripledoble/internal/schedule"

	"github.com/rs/zerolog"
)

// Rates is the hourly rate card in soles. Rates depend only on the court
// and membership status, never on the time of day.
type Rates struct {
	AnnexMember    int `yaml:"annex_member"`
	AnnexNonMember int `yaml:"annex_non_member"`
	MainMember     int `yaml:"main_member"`
	MainNonMember  int `yaml:"main_non_member"`
}

// DefaultRates returns the facility rate card.
func DefaultRates() Rates {
	return Rates{
		AnnexMember:    40,
		AnnexNonMember: 50,
		MainMember:     70,
		MainNonMember:  80,
	}
}

// Quote is the price of one booking with its display breakdown.
type Quote struct {
	Total      int    `json:"total"`
	HourlyRate int    `json:"hourly_rate"`
	Hours      int    `json:"hours"`
	Breakdown  string `json:"breakdown"`
}

// HourlyRate returns the per-hour rate for a court and membership status.
// An unrecognized court yields 0; callers must treat that as a data error,
// not a free booking.
func (r Rates) HourlyRate(court string, isMember bool) int {
	switch court {
	case models.CourtAnnex1, models.CourtAnnex2:
		if isMember {
			return r.AnnexMember
		}
		return r.AnnexNonMember
	case models.CourtMain:
		if isMember {
			return r.MainMember
		}
		return r.MainNonMember
	default:
		return 0
	}
}

// BilledHours computes the number of billed hours between two HH:MM times,
// rounded up with a minimum of one hour. An absent end means one hour.
func BilledHours(startSlot, endSlot string) int {
	if endSlot == "" {
		return 1
	}

	start, err := schedule.ParseClock(startSlot)
	if err != nil {
		return 1
	}
	end, err := schedule.ParseClock(endSlot)
	if err != nil {
		return 1
	}

	diff := end - start
	if diff <= 0 {
		return 1
	}
	hours := (diff + 59) / 60
	if hours < 1 {
		hours = 1
	}
	return hours
}

// ForBooking prices a (court, range, membership) tuple. There is no
// partial-hour proration and no mixed-rate splitting inside one booking.
func ForBooking(rates Rates, court, startSlot, endSlot string, isMember bool, logger *zerolog.Logger) Quote {
	rate := rates.HourlyRate(court, isMember)
	if rate == 0 {
		if logger != nil {
			logger.Warn().Str("court", court).Msg("pricing query for unknown court")
		}
		return Quote{Breakdown: "unknown court"}
	}

	hours := BilledHours(startSlot, endSlot)
	label := "hora"
	if hours != 1 {
		label = "horas"
	}

	return Quote{
		Total:      rate * hours,
		HourlyRate: rate,
		Hours:      hours,
		Breakdown:  fmt.Sprintf("S/ %d por hora × %d %s", rate, hours, label),
	}
}
