package bot

import (
	"encoding/json"
	"fmt"
	"strings"

	"tripledoble/internal/events"
	"tripledoble/internal/messaging"
	"tripledoble/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// subscribeEvents wires the bot to the in-process event bus so every new
// reservation request reaches the admins while they chat.
func (b *Bot) subscribeEvents() {
	b.eventBus.Subscribe(events.EventReservationCreated, func(event *events.Event) error {
		var payload events.ReservationEventPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			b.logger.Error().Err(err).Msg("decode reservation event")
			return err
		}
		b.notifyAdmins(payload)
		return nil
	})
}

func (b *Bot) notifyAdmins(p events.ReservationEventPayload) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🆕 *Nueva reserva #%d*\n\n", p.ReservationID))
	sb.WriteString(fmt.Sprintf("📅 %s\n", messaging.FormatSpanishDate(p.Date)))
	sb.WriteString(fmt.Sprintf("🕒 %s\n", formatRange(p.StartTime, p.EndTime)))
	sb.WriteString(fmt.Sprintf("🏀 %s · %s\n", models.CourtName(p.Court), models.SportName(p.Sport)))
	sb.WriteString(fmt.Sprintf("👤 %s\n", p.Name))
	if p.Phone != "" {
		sb.WriteString(fmt.Sprintf("📱 %s\n", p.Phone))
	}

	// Свежая заявка всегда имеет версию 1; если кто-то успел решить раньше,
	// оптимистическая блокировка отклонит второй клик.
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Confirmar", fmt.Sprintf("confirm:%d:1", p.ReservationID)),
			tgbotapi.NewInlineKeyboardButtonData("❌ Rechazar", fmt.Sprintf("reject:%d:1", p.ReservationID)),
		),
	)
	if p.Phone != "" {
		keyboard.InlineKeyboard = append(keyboard.InlineKeyboard, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("💬 WhatsApp", messaging.ContactLink(p.Phone)),
		))
	}

	for _, adminID := range b.config.Admins {
		msg := tgbotapi.NewMessage(adminID, sb.String())
		msg.ParseMode = models.ParseModeMarkdown
		msg.ReplyMarkup = keyboard
		if _, err := b.tgService.Send(msg); err != nil {
			b.logger.Error().Err(err).Int64("admin_id", adminID).Msg("notify admin failed")
			continue
		}
		if b.metrics != nil {
			b.metrics.NotificationsTotal.Inc()
		}
	}
}

func formatRange(start, end string) string {
	if end == "" {
		return start
	}
	return start + " - " + end
}
