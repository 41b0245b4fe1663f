package bot

import (
	"errors"

	"tripledoble/internal/database"
	"tripledoble/internal/service"
)

func getErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var ve *service.ValidationError
	if errors.As(err, &ve) {
		return "⚠️ Datos incompletos: " + ve.Error()
	}

	if errors.Is(err, service.ErrRangeUnavailable) || errors.Is(err, database.ErrNotAvailable) {
		return "⚠️ Ese horario ya está ocupado. Elige otro horario o cancha."
	}

	if errors.Is(err, service.ErrPastDate) {
		return "⚠️ No se puede reservar en una fecha pasada."
	}

	if errors.Is(err, service.ErrDateTooFar) {
		return "⚠️ Esa fecha está demasiado lejos. Elige una fecha más cercana."
	}

	if errors.Is(err, database.ErrConcurrentModification) {
		return "⚠️ La reserva cambió mientras la procesabas. Inténtalo de nuevo."
	}

	if errors.Is(err, database.ErrNotFound) {
		return "⚠️ Esa reserva ya no existe."
	}

	return "❌ Ocurrió un error al procesar la solicitud. Inténtalo más tarde."
}
