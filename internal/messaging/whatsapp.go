// Package messaging builds WhatsApp deep links carrying a prefilled booking
// summary. The facility takes payment proof over WhatsApp, so after a
// reservation is stored the client is redirected to a wa.me URL with the
// summary already typed out.
package messaging

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"tripledoble/internal/models"
)

// Номер WhatsApp комплекса (PROD)
const DefaultNumber = "51977510600"

type Builder struct {
	number string
}

// NewBuilder accepts the destination number in international format, with or
// without a leading plus.
func NewBuilder(number string) *Builder {
	number = strings.TrimPrefix(strings.TrimSpace(number), "+")
	if number == "" {
		number = DefaultNumber
	}
	return &Builder{number: number}
}

// BookingLink returns the wa.me URL with the reservation summary prefilled.
func (b *Builder) BookingLink(r *models.Reservation) string {
	return fmt.Sprintf("https://wa.me/%s?text=%s", b.number, encodeText(BookingMessage(r)))
}

// ContactLink returns a bare chat link to an arbitrary phone number, used for
// admin-side "reply to client" buttons.
func ContactLink(phone string) string {
	return "https://wa.me/" + strings.TrimPrefix(strings.TrimSpace(phone), "+")
}

// BookingMessage renders the summary the client sends to the facility. Lines
// for phone and notes only appear when set.
func BookingMessage(r *models.Reservation) string {
	schedule := r.StartTime
	if r.EndTime != "" {
		schedule = r.StartTime + " - " + r.EndTime
	}

	email := r.Email
	if email == "" {
		email = "No proporcionado"
	}

	var sb strings.Builder
	sb.WriteString("Deseo confirmar mi reserva para:\n\n")
	fmt.Fprintf(&sb, "• Fecha: %s\n", FormatSpanishDate(r.Date))
	fmt.Fprintf(&sb, "• Horario: %s\n", schedule)
	fmt.Fprintf(&sb, "• Cancha: %s\n", models.CourtName(r.Court))
	fmt.Fprintf(&sb, "• Deporte: %s\n", models.SportName(r.Sport))
	fmt.Fprintf(&sb, "• A nombre de: %s\n", r.Name)
	fmt.Fprintf(&sb, "• Correo de la reserva: %s\n", email)
	fmt.Fprintf(&sb, "• DNI: %s\n", r.NationalID)
	if r.Phone != "" {
		fmt.Fprintf(&sb, "• Telefono: %s\n", r.Phone)
	}
	if r.Notes != "" {
		fmt.Fprintf(&sb, "• Notas: %s\n", r.Notes)
	}
	return sb.String()
}

var spanishMonths = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

var spanishDays = [...]string{
	"domingo", "lunes", "martes", "miércoles", "jueves", "viernes", "sábado",
}

// FormatSpanishDate renders an ISO date as "lunes, 1 de junio de 2099". An
// unparseable input is returned as is.
func FormatSpanishDate(date string) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	return fmt.Sprintf("%s, %d de %s de %d",
		spanishDays[int(t.Weekday())], t.Day(), spanishMonths[int(t.Month())-1], t.Year())
}

// encodeText percent-encodes message text for the query string. QueryEscape
// turns spaces into '+', which WhatsApp shows literally, so they are rewritten
// to %20.
func encodeText(text string) string {
	return strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
}
