package messaging

import (
	"net/url"
	"strings"
	"testing"

	"tripledoble/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullReservation() *models.Reservation {
	return &models.Reservation{
		Name:       "Juan Pérez",
		Phone:      "977510600",
		Email:      "juan@example.com",
		NationalID: "12345678",
		Date:       "2099-06-01",
		StartTime:  "10:00",
		EndTime:    "12:00",
		Court:      models.CourtAnnex1,
		Sport:      models.SportBasketball,
		Notes:      "Traemos balón propio",
	}
}

func TestBookingMessage(t *testing.T) {
	msg := BookingMessage(fullReservation())

	assert.True(t, strings.HasPrefix(msg, "Deseo confirmar mi reserva para:\n\n"))
	assert.Contains(t, msg, "• Fecha: lunes, 1 de junio de 2099\n")
	assert.Contains(t, msg, "• Horario: 10:00 - 12:00\n")
	assert.Contains(t, msg, "• Cancha: Cancha Anexa 1\n")
	assert.Contains(t, msg, "• Deporte: Básquet\n")
	assert.Contains(t, msg, "• A nombre de: Juan Pérez\n")
	assert.Contains(t, msg, "• Correo de la reserva: juan@example.com\n")
	assert.Contains(t, msg, "• DNI: 12345678\n")
	assert.Contains(t, msg, "• Telefono: 977510600\n")
	assert.Contains(t, msg, "• Notas: Traemos balón propio\n")
}

func TestBookingMessageOptionalLines(t *testing.T) {
	r := fullReservation()
	r.Phone = ""
	r.Email = ""
	r.Notes = ""
	r.EndTime = ""

	msg := BookingMessage(r)

	assert.Contains(t, msg, "• Horario: 10:00\n")
	assert.Contains(t, msg, "• Correo de la reserva: No proporcionado\n")
	assert.NotContains(t, msg, "Telefono")
	assert.NotContains(t, msg, "Notas")
}

func TestBookingLink(t *testing.T) {
	b := NewBuilder("+51977510600")
	link := b.BookingLink(fullReservation())

	require.True(t, strings.HasPrefix(link, "https://wa.me/51977510600?text="), link)
	assert.NotContains(t, link, "+")

	parsed, err := url.Parse(link)
	require.NoError(t, err)
	text := parsed.Query().Get("text")
	assert.Equal(t, BookingMessage(fullReservation()), text)
}

func TestBuilderDefaultNumber(t *testing.T) {
	b := NewBuilder("")
	link := b.BookingLink(fullReservation())
	assert.True(t, strings.HasPrefix(link, "https://wa.me/"+DefaultNumber+"?"))
}

func TestContactLink(t *testing.T) {
	assert.Equal(t, "https://wa.me/51922803684", ContactLink("+51922803684"))
	assert.Equal(t, "https://wa.me/51922803684", ContactLink("51922803684"))
}

func TestFormatSpanishDateInvalid(t *testing.T) {
	assert.Equal(t, "not-a-date", FormatSpanishDate("not-a-date"))
}
