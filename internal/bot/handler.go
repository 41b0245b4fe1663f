package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tripledoble/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

const helpText = `🏟 *Triple Doble - Panel de administración*

/pending - reservas pendientes de decisión
/week - resumen de los próximos 7 días
/export - horario semanal en Excel
/reservar - registrar una reserva presencial
/cancelar - abandonar el diálogo actual
/help - este mensaje`

func (b *Bot) handleMessage(ctx context.Context, update tgbotapi.Update) {
	userID := update.Message.From.ID
	chatID := update.Message.Chat.ID
	text := update.Message.Text
	l := zerolog.Ctx(ctx)

	l.Debug().
		Int64("user_id", userID).
		Str("username", update.Message.From.UserName).
		Str("text", text).
		Msg("Handling message")

	b.trackUser(ctx, update.Message.From)

	if !b.isAdmin(userID) {
		if text == "/start" || text == "/help" {
			b.sendMessage(chatID, "👋 Este bot es la herramienta interna de los administradores del complejo. Para reservar una cancha usa la página web o escríbenos por WhatsApp.")
		}
		return
	}

	switch {
	case text == "/start" || text == "/help":
		b.sendMarkdown(chatID, helpText)

	case text == "/pending":
		b.sendPendingPage(ctx, chatID, 0, 0)

	case text == "/week":
		b.handleWeekSummary(ctx, chatID)

	case text == "/export":
		b.handleExport(ctx, chatID)

	case strings.HasPrefix(text, "/reservar"):
		b.startWalkIn(ctx, update, strings.TrimSpace(strings.TrimPrefix(text, "/reservar")))

	case text == "/cancelar":
		if err := b.stateService.ClearUserSession(ctx, userID); err != nil {
			b.logger.Error().Err(err).Int64("user_id", userID).Msg("clear session failed")
		}
		b.sendMessage(chatID, "Diálogo cancelado.")

	default:
		b.handleDialogStep(ctx, update)
	}
}

// trackUser keeps the users table in sync with whoever talks to the bot.
func (b *Bot) trackUser(ctx context.Context, from *tgbotapi.User) {
	if from == nil {
		return
	}

	user := &models.User{
		TelegramID: from.ID,
		AuthID:     fmt.Sprintf("tg:%d", from.ID),
		Name:       strings.TrimSpace(from.FirstName + " " + from.LastName),
	}
	if err := b.userService.SaveUser(ctx, user); err != nil {
		b.logger.Error().Err(err).Int64("telegram_id", from.ID).Msg("save user failed")
	}
}

// handleDialogStep routes a plain text message into the walk-in dialog when
// a session is open; otherwise the message is ignored.
func (b *Bot) handleDialogStep(ctx context.Context, update tgbotapi.Update) {
	userID := update.Message.From.ID
	chatID := update.Message.Chat.ID
	text := strings.TrimSpace(update.Message.Text)

	session, err := b.stateService.GetUserSession(ctx, userID)
	if err != nil {
		b.logger.Error().Err(err).Int64("user_id", userID).Msg("get session failed")
		return
	}
	if session == nil {
		return
	}

	switch session.CurrentStep {
	case models.StepEnteringName:
		if len(text) < 2 {
			b.sendMessage(chatID, "El nombre es demasiado corto. Escribe el nombre completo del cliente.")
			return
		}
		session.Data["name"] = text
		b.setStep(ctx, userID, models.StepEnteringPhone, session.Data)
		b.sendMessage(chatID, "📱 Teléfono del cliente (9 dígitos):")

	case models.StepEnteringPhone:
		session.Data["phone"] = text
		b.setStep(ctx, userID, models.StepEnteringDoc, session.Data)
		b.sendMessage(chatID, "🪪 DNI del cliente (8 dígitos):")

	case models.StepEnteringDoc:
		session.Data["national_id"] = text
		b.setStep(ctx, userID, models.StepConfirming, session.Data)
		b.sendWalkInSummary(ctx, chatID, session.Data)

	default:
		// В шаге выбора слотов текст не ожидается
	}
}

func (b *Bot) setStep(ctx context.Context, userID int64, step string, data map[string]interface{}) {
	if err := b.stateService.SetUserSession(ctx, userID, step, data); err != nil {
		b.logger.Error().Err(err).Int64("user_id", userID).Str("step", step).Msg("set session failed")
	}
}

// handleWeekSummary renders a per-day digest of the next seven days.
func (b *Bot) handleWeekSummary(ctx context.Context, chatID int64) {
	from := time.Now().Format("2006-01-02")
	to := time.Now().AddDate(0, 0, 6).Format("2006-01-02")

	reservations, err := b.reservations.GetReservationsByDateRange(ctx, from, to)
	if err != nil {
		b.logger.Error().Err(err).Msg("week summary failed")
		b.sendMessage(chatID, getErrorMessage(err))
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📅 *Semana %s - %s*\n\n", from, to))

	if len(reservations) == 0 {
		sb.WriteString("Sin reservas para los próximos 7 días.")
	}

	byDate := map[string][]*models.Reservation{}
	for _, r := range reservations {
		byDate[r.Date] = append(byDate[r.Date], r)
	}

	for i := 0; i < 7; i++ {
		date := time.Now().AddDate(0, 0, i).Format("2006-01-02")
		day := byDate[date]
		if len(day) == 0 {
			continue
		}

		var pending, confirmed int
		for _, r := range day {
			switch r.Status {
			case models.StatusPending:
				pending++
			case models.StatusConfirmed:
				confirmed++
			}
		}

		sb.WriteString(fmt.Sprintf("*%s* - %d reservas (✅ %d, ⏳ %d)\n", date, len(day), confirmed, pending))
		for _, r := range day {
			if r.Status == models.StatusRejected {
				continue
			}
			sb.WriteString(fmt.Sprintf("  %s %s · %s · %s\n",
				statusEmoji(r.Status), formatRange(r.StartTime, r.EndTime), models.CourtName(r.Court), r.Name))
		}
		sb.WriteString("\n")
	}

	b.sendMarkdown(chatID, sb.String())
}

// handleExport builds the weekly xlsx for the coming seven days and sends it
// back as a document.
func (b *Bot) handleExport(ctx context.Context, chatID int64) {
	if b.exporter == nil {
		b.sendMessage(chatID, "La exportación no está configurada.")
		return
	}

	weekStart := time.Now()
	from := weekStart.Format("2006-01-02")
	to := weekStart.AddDate(0, 0, 6).Format("2006-01-02")

	reservations, err := b.reservations.GetReservationsByDateRange(ctx, from, to)
	if err != nil {
		b.logger.Error().Err(err).Msg("export query failed")
		b.sendMessage(chatID, getErrorMessage(err))
		return
	}

	filePath, err := b.exporter.WeeklySchedule(reservations, weekStart)
	if err != nil {
		b.logger.Error().Err(err).Msg("weekly export failed")
		b.sendMessage(chatID, "❌ No se pudo generar el archivo de exportación.")
		return
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(filePath))
	doc.Caption = fmt.Sprintf("📊 Horario semanal %s - %s", from, to)
	if _, err := b.tgService.Send(doc); err != nil {
		b.logger.Error().Err(err).Str("file_path", filePath).Msg("send document failed")
		b.sendMessage(chatID, "❌ No se pudo enviar el archivo.")
	}
}

func (b *Bot) sendMarkdown(chatID int64, text string) {
	if _, err := b.tgService.SendMarkdown(chatID, text); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("send markdown failed")
	}
}

func statusEmoji(status string) string {
	switch status {
	case models.StatusConfirmed:
		return "✅"
	case models.StatusRejected:
		return "❌"
	default:
		return "⏳"
	}
}
