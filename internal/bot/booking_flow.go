package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tripledoble/internal/models"
	"tripledoble/internal/schedule"
	"tripledoble/internal/selection"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Walk-in flow: a reservation taken over the counter or by phone is entered
// by the admin through the same slot picker the site uses. The picker state
// lives in the session repository so the dialog survives bot restarts.

func (b *Bot) startWalkIn(ctx context.Context, update tgbotapi.Update, arg string) {
	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID

	date := time.Now().Format("2006-01-02")
	if arg != "" {
		parsed, err := time.Parse("2006-01-02", arg)
		if err != nil {
			b.sendMessage(chatID, "Formato de fecha inválido. Usa /reservar AAAA-MM-DD, por ejemplo /reservar 2026-09-15.")
			return
		}
		date = parsed.Format("2006-01-02")
	}

	b.setStep(ctx, userID, models.StepSelectingSlots, map[string]interface{}{
		"date": date,
	})

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🏀 "+models.CourtName(models.CourtMain), "court:"+models.CourtMain),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(models.CourtName(models.CourtAnnex1), "court:"+models.CourtAnnex1),
			tgbotapi.NewInlineKeyboardButtonData(models.CourtName(models.CourtAnnex2), "court:"+models.CourtAnnex2),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❌ Cancelar", "walkin_cancel"),
		),
	)

	text := fmt.Sprintf("📋 *Reserva presencial* para %s\n\nElige la cancha:", date)
	b.sendMarkdownKeyboard(chatID, text, keyboard)
}

func (b *Bot) handleCourtCallback(ctx context.Context, update tgbotapi.Update, court string) {
	callback := update.CallbackQuery
	userID := callback.From.ID

	if !models.ValidCourt(court) {
		return
	}

	session, err := b.stateService.GetUserSession(ctx, userID)
	if err != nil || session == nil {
		b.sendMessage(callback.Message.Chat.ID, "La sesión expiró. Empieza de nuevo con /reservar.")
		return
	}

	session.Data["court"] = court
	delete(session.Data, "anchor")
	b.setStep(ctx, userID, models.StepSelectingSlots, session.Data)

	b.editSlotGrid(ctx, callback.Message.Chat.ID, callback.Message.MessageID, session.GetString("date"), court, "")
}

// editSlotGrid redraws the picker message: one button per grid slot, busy
// slots marked, the anchored slot highlighted.
func (b *Bot) editSlotGrid(ctx context.Context, chatID int64, messageID int, date, court, anchor string) {
	grid, err := schedule.Slots(b.config.Schedule)
	if err != nil {
		b.logger.Error().Err(err).Msg("slot grid generation failed")
		return
	}

	snap, err := b.reservations.Snapshot(ctx)
	if err != nil {
		b.logger.Error().Err(err).Msg("snapshot read failed")
		b.sendMessage(chatID, getErrorMessage(err))
		return
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, slot := range grid {
		label := slot
		data := "pick:" + slot
		switch {
		case slot == anchor:
			label = "🔹 " + slot
		case !snap.SlotAvailable(date, slot, court):
			label = "✖ " + slot
			data = "noop"
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, data))
		if len(row) == 4 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("❌ Cancelar", "walkin_cancel"),
	))

	text := fmt.Sprintf("📋 *Reserva presencial* - %s, %s\n\n", date, models.CourtName(court))
	if anchor == "" {
		text += "Toca el horario de inicio:"
	} else {
		text += fmt.Sprintf("Inicio: *%s*. Toca el horario final (el mismo para una sola hora):", anchor)
	}

	keyboard := tgbotapi.NewInlineKeyboardMarkup(rows...)
	if _, err := b.tgService.EditMessage(chatID, messageID, text, &keyboard); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("edit slot grid failed")
	}
}

func (b *Bot) handlePickCallback(ctx context.Context, update tgbotapi.Update, slot string) {
	callback := update.CallbackQuery
	userID := callback.From.ID
	chatID := callback.Message.Chat.ID

	session, err := b.stateService.GetUserSession(ctx, userID)
	if err != nil || session == nil || session.CurrentStep != models.StepSelectingSlots {
		b.sendMessage(chatID, "La sesión expiró. Empieza de nuevo con /reservar.")
		return
	}

	date := session.GetString("date")
	court := session.GetString("court")

	grid, err := schedule.Slots(b.config.Schedule)
	if err != nil {
		b.logger.Error().Err(err).Msg("slot grid generation failed")
		return
	}

	snap, err := b.reservations.Snapshot(ctx)
	if err != nil {
		b.logger.Error().Err(err).Msg("snapshot read failed")
		b.sendMessage(chatID, getErrorMessage(err))
		return
	}

	machine := selection.NewMachine(b.config.Schedule, grid)
	if anchor := session.GetString("anchor"); anchor != "" {
		machine.Restore(selection.Anchor{Date: date, Court: court, StartSlot: anchor})
	}

	emitted, err := machine.Click(snap, date, court, slot)
	if err != nil {
		if errors.Is(err, selection.ErrRangeConflict) {
			delete(session.Data, "anchor")
			b.setStep(ctx, userID, models.StepSelectingSlots, session.Data)
			b.sendMessage(chatID, "⚠️ Ese rango ya no está disponible. Elige de nuevo.")
			b.editSlotGrid(ctx, chatID, callback.Message.MessageID, date, court, "")
			return
		}
		b.logger.Error().Err(err).Msg("slot pick failed")
		return
	}

	if emitted == nil {
		// Первый клик: якорь поставлен или занятый слот проигнорирован
		if machine.State() == selection.StateAnchored {
			session.Data["anchor"] = machine.Anchor().StartSlot
			b.setStep(ctx, userID, models.StepSelectingSlots, session.Data)
			b.editSlotGrid(ctx, chatID, callback.Message.MessageID, date, court, machine.Anchor().StartSlot)
		}
		return
	}

	session.Data["start_time"] = emitted.StartSlot
	session.Data["end_time"] = emitted.EndSlot
	delete(session.Data, "anchor")
	b.setStep(ctx, userID, models.StepEnteringName, session.Data)

	summary := fmt.Sprintf("Rango elegido: *%s - %s*, %s, %s.\n\n👤 Nombre completo del cliente:",
		emitted.StartSlot, emitted.EndSlot, models.CourtName(court), date)
	if _, err := b.tgService.EditMessage(chatID, callback.Message.MessageID, summary, nil); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("edit message failed")
	}
}

func (b *Bot) sendWalkInSummary(ctx context.Context, chatID int64, data map[string]interface{}) {
	session := &models.SelectionSession{Data: data}
	court := session.GetString("court")
	start := session.GetString("start_time")
	end := session.GetString("end_time")

	quote := b.reservations.Quote(ctx, court, start, end, false)

	var sb strings.Builder
	sb.WriteString("📋 *Revisa la reserva*\n\n")
	sb.WriteString(fmt.Sprintf("📅 %s\n", session.GetString("date")))
	sb.WriteString(fmt.Sprintf("🕒 %s - %s\n", start, end))
	sb.WriteString(fmt.Sprintf("🏀 %s\n", models.CourtName(court)))
	sb.WriteString(fmt.Sprintf("👤 %s\n", session.GetString("name")))
	sb.WriteString(fmt.Sprintf("📱 %s\n", session.GetString("phone")))
	sb.WriteString(fmt.Sprintf("🪪 %s\n", session.GetString("national_id")))
	sb.WriteString(fmt.Sprintf("💰 S/ %d (%s)\n", quote.Total, quote.Breakdown))

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Registrar", "walkin_confirm"),
			tgbotapi.NewInlineKeyboardButtonData("❌ Cancelar", "walkin_cancel"),
		),
	)

	b.sendMarkdownKeyboard(chatID, sb.String(), keyboard)
}

func (b *Bot) finalizeWalkIn(ctx context.Context, update tgbotapi.Update) {
	callback := update.CallbackQuery
	userID := callback.From.ID
	chatID := callback.Message.Chat.ID

	session, err := b.stateService.GetUserSession(ctx, userID)
	if err != nil || session == nil || session.CurrentStep != models.StepConfirming {
		b.sendMessage(chatID, "La sesión expiró. Empieza de nuevo con /reservar.")
		return
	}

	draft := &models.ReservationDraft{
		Name:       session.GetString("name"),
		Phone:      session.GetString("phone"),
		NationalID: session.GetString("national_id"),
		Date:       session.GetString("date"),
		StartTime:  session.GetString("start_time"),
		EndTime:    session.GetString("end_time"),
		Court:      session.GetString("court"),
		Notes:      "Reserva presencial",
	}

	reservation, err := b.reservations.CreateReservation(ctx, draft)
	if err != nil {
		b.logger.Error().Err(err).Msg("walk-in create failed")
		b.sendMessage(chatID, getErrorMessage(err))
		return
	}

	if err := b.stateService.ClearUserSession(ctx, userID); err != nil {
		b.logger.Error().Err(err).Int64("user_id", userID).Msg("clear session failed")
	}

	text := fmt.Sprintf("✅ Reserva #%d registrada como pendiente. Confírmala desde la notificación o con /pending.", reservation.ID)
	if _, err := b.tgService.EditMessage(chatID, callback.Message.MessageID, text, nil); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("edit message failed")
	}
}

func (b *Bot) cancelWalkIn(ctx context.Context, update tgbotapi.Update) {
	callback := update.CallbackQuery

	if err := b.stateService.ClearUserSession(ctx, callback.From.ID); err != nil {
		b.logger.Error().Err(err).Int64("user_id", callback.From.ID).Msg("clear session failed")
	}

	if _, err := b.tgService.EditMessage(callback.Message.Chat.ID, callback.Message.MessageID, "Reserva presencial cancelada.", nil); err != nil {
		b.logger.Error().Err(err).Msg("edit message failed")
	}
}
