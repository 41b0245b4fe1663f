package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"tripledoble/internal/database"
	"tripledoble/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

func (b *Bot) handleCallbackQuery(ctx context.Context, update tgbotapi.Update) {
	callback := update.CallbackQuery
	data := callback.Data
	userID := callback.From.ID

	l := zerolog.Ctx(ctx)
	l.Debug().
		Int64("user_id", userID).
		Str("data", data).
		Msg("Handling callback query")

	// Отвечаем на callback сразу, чтобы убрать "часики"
	if err := b.tgService.AnswerCallback(callback.ID, ""); err != nil {
		b.logger.Error().Err(err).Msg("answer callback failed")
	}

	if !b.isAdmin(userID) {
		return
	}

	switch {
	case strings.HasPrefix(data, "confirm:"), strings.HasPrefix(data, "reject:"):
		b.handleDecision(ctx, update)

	case strings.HasPrefix(data, "pending:"):
		page, err := strconv.Atoi(strings.TrimPrefix(data, "pending:"))
		if err != nil {
			b.logger.Error().Err(err).Str("data", data).Msg("parse pending page failed")
			return
		}
		b.sendPendingPage(ctx, callback.Message.Chat.ID, callback.Message.MessageID, page)

	case strings.HasPrefix(data, "court:"):
		b.handleCourtCallback(ctx, update, strings.TrimPrefix(data, "court:"))

	case strings.HasPrefix(data, "pick:"):
		b.handlePickCallback(ctx, update, strings.TrimPrefix(data, "pick:"))

	case data == "walkin_confirm":
		b.finalizeWalkIn(ctx, update)

	case data == "walkin_cancel":
		b.cancelWalkIn(ctx, update)

	case data == "noop":

	default:
		b.logger.Warn().Str("callback_data", data).Msg("Unknown callback data")
	}
}

// handleDecision applies a confirm/reject button press. The version baked
// into the button keeps two admins from deciding the same reservation twice.
func (b *Bot) handleDecision(ctx context.Context, update tgbotapi.Update) {
	callback := update.CallbackQuery

	parts := strings.Split(callback.Data, ":")
	if len(parts) != 3 {
		b.logger.Error().Str("data", callback.Data).Msg("malformed decision callback")
		return
	}
	decision := parts[0]

	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		b.logger.Error().Err(err).Str("data", callback.Data).Msg("parse reservation id failed")
		return
	}
	version, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		b.logger.Error().Err(err).Str("data", callback.Data).Msg("parse version failed")
		return
	}

	adminID := fmt.Sprintf("tg:%d", callback.From.ID)

	switch decision {
	case "confirm":
		err = b.reservations.ConfirmReservation(ctx, id, version, adminID)
	case "reject":
		err = b.reservations.RejectReservation(ctx, id, version, adminID)
	default:
		return
	}

	outcome := "ok"
	var result string
	switch {
	case err == nil:
		if decision == "confirm" {
			result = fmt.Sprintf("✅ Reserva #%d confirmada por %s.", id, callback.From.FirstName)
		} else {
			result = fmt.Sprintf("❌ Reserva #%d rechazada por %s.", id, callback.From.FirstName)
		}

	case errors.Is(err, service.ErrConfirmConflict):
		outcome = "conflict"
		result = fmt.Sprintf("⚠️ No se pudo confirmar la reserva #%d: ya hay una reserva confirmada en ese horario.", id)

	case errors.Is(err, database.ErrConcurrentModification):
		outcome = "stale"
		result = fmt.Sprintf("⚠️ La reserva #%d ya fue procesada por otro administrador.", id)

	case errors.Is(err, database.ErrNotFound):
		outcome = "not_found"
		result = fmt.Sprintf("⚠️ La reserva #%d ya no existe.", id)

	default:
		outcome = "error"
		b.logger.Error().Err(err).Int64("reservation_id", id).Str("decision", decision).Msg("decision failed")
		result = getErrorMessage(err)
	}

	if b.metrics != nil {
		b.metrics.DecisionsTotal.WithLabelValues(decision, outcome).Inc()
	}

	// Заменяем клавиатуру итогом, чтобы кнопки нельзя было нажать повторно
	text := callback.Message.Text + "\n\n" + result
	if _, err := b.tgService.EditMessage(callback.Message.Chat.ID, callback.Message.MessageID, text, nil); err != nil {
		b.logger.Error().Err(err).Msg("edit decision message failed")
		b.sendMessage(callback.Message.Chat.ID, result)
	}
}
