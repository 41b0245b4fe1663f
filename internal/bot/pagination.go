package bot

import (
	"context"
	"fmt"
	"strings"

	"tripledoble/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// sendPendingPage renders one page of the pending queue with per-item
// decision buttons. messageID 0 sends a new message, otherwise the existing
// list message is edited in place.
func (b *Bot) sendPendingPage(ctx context.Context, chatID int64, messageID, page int) {
	pending, err := b.reservations.GetPendingReservations(ctx)
	if err != nil {
		b.logger.Error().Err(err).Msg("pending list failed")
		b.sendMessage(chatID, getErrorMessage(err))
		return
	}

	if len(pending) == 0 {
		if messageID != 0 {
			b.tgService.EditMessage(chatID, messageID, "✅ No hay reservas pendientes.", nil)
		} else {
			b.sendMessage(chatID, "✅ No hay reservas pendientes.")
		}
		return
	}

	perPage := b.config.Bot.PaginationSize
	if perPage <= 0 {
		perPage = models.DefaultPendingPageSize
	}

	totalPages := (len(pending) + perPage - 1) / perPage
	if page < 0 {
		page = 0
	}
	if page >= totalPages {
		page = totalPages - 1
	}

	startIdx := page * perPage
	endIdx := startIdx + perPage
	if endIdx > len(pending) {
		endIdx = len(pending)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("⏳ *Reservas pendientes: %d*\n", len(pending)))
	if totalPages > 1 {
		sb.WriteString(fmt.Sprintf("Página %d de %d\n", page+1, totalPages))
	}
	sb.WriteString("\n")

	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, r := range pending[startIdx:endIdx] {
		sb.WriteString(fmt.Sprintf("*#%d* %s\n", r.ID, r.Name))
		sb.WriteString(fmt.Sprintf("   📅 %s · %s\n", r.Date, formatRange(r.StartTime, r.EndTime)))
		sb.WriteString(fmt.Sprintf("   🏀 %s · %s\n", models.CourtName(r.Court), models.SportName(r.Sport)))
		if r.Phone != "" {
			sb.WriteString(fmt.Sprintf("   📱 %s\n", r.Phone))
		}
		sb.WriteString("\n")

		keyboard = append(keyboard, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("✅ #%d", r.ID),
				fmt.Sprintf("confirm:%d:%d", r.ID, r.Version),
			),
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("❌ #%d", r.ID),
				fmt.Sprintf("reject:%d:%d", r.ID, r.Version),
			),
		))
	}

	var navButtons []tgbotapi.InlineKeyboardButton
	if page > 0 {
		navButtons = append(navButtons, tgbotapi.NewInlineKeyboardButtonData("⬅️ Anterior", fmt.Sprintf("pending:%d", page-1)))
	}
	if endIdx < len(pending) {
		navButtons = append(navButtons, tgbotapi.NewInlineKeyboardButtonData("Siguiente ➡️", fmt.Sprintf("pending:%d", page+1)))
	}
	if len(navButtons) > 0 {
		keyboard = append(keyboard, navButtons)
	}

	markup := tgbotapi.NewInlineKeyboardMarkup(keyboard...)

	if messageID != 0 {
		if _, err := b.tgService.EditMessage(chatID, messageID, sb.String(), &markup); err != nil {
			b.logger.Error().Err(err).Msg("edit pending page failed")
		}
		return
	}

	b.sendMarkdownKeyboard(chatID, sb.String(), markup)
}
