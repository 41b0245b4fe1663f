package domain

import (
	"context"
	"time"

	"tripledoble/internal/availability"
	"tripledoble/internal/models"
	"tripledoble/internal/pricing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Repository interface {
	GetReservation(ctx context.Context, id int64) (*models.Reservation, error)
	CreateReservation(ctx context.Context, r *models.Reservation) error
	CreateReservationChecked(ctx context.Context, r *models.Reservation) error
	UpdateReservationStatus(ctx context.Context, id int64, status string) error
	UpdateReservationStatusWithVersion(ctx context.Context, id, fromVersion int64, status string) error
	UpdateReservationNotes(ctx context.Context, id int64, notes string) error
	DeleteReservation(ctx context.Context, id int64) error
	GetReservationsByDate(ctx context.Context, date string) ([]*models.Reservation, error)
	GetReservationsByDateRange(ctx context.Context, startDate, endDate string) ([]*models.Reservation, error)
	GetReservationsByStatus(ctx context.Context, status string) ([]*models.Reservation, error)
	GetUserReservations(ctx context.Context, userID string) ([]*models.Reservation, error)
	GetAllReservations(ctx context.Context) ([]*models.Reservation, error)
	GetDailyReservations(ctx context.Context, startDate, endDate string) (map[string][]*models.Reservation, error)

	GetUserByAuthID(ctx context.Context, authID string) (*models.User, error)
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	CreateOrUpdateUser(ctx context.Context, user *models.User) error
	UpdateUserRole(ctx context.Context, authID, role string) error
	UpdateUserMembership(ctx context.Context, authID string, isMember bool, expiry time.Time) error
	UpdateUserActivity(ctx context.Context, authID string) error
	GetAllUsers(ctx context.Context) ([]*models.User, error)
	GetUsersByRole(ctx context.Context, role string) ([]*models.User, error)
	GetActiveUsers(ctx context.Context, days int) ([]*models.User, error)
}

type StateRepository interface {
	GetSession(ctx context.Context, userID int64) (*models.SelectionSession, error)
	SetSession(ctx context.Context, session *models.SelectionSession) error
	ClearSession(ctx context.Context, userID int64) error
	CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error)
}

type StateManager interface {
	GetUserSession(ctx context.Context, userID int64) (*models.SelectionSession, error)
	SetUserSession(ctx context.Context, userID int64, step string, data map[string]interface{}) error
	ClearUserSession(ctx context.Context, userID int64) error
	CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	GetSelf() tgbotapi.User
	StopReceivingUpdates()
}

type TelegramService interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	SendMessage(chatID int64, text string) (tgbotapi.Message, error)
	SendMarkdown(chatID int64, text string) (tgbotapi.Message, error)
	SendWithInlineKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error)
	EditMessage(chatID int64, messageID int, text string, keyboard *tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error)
	AnswerCallback(callbackID string, text string) error
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	GetSelf() tgbotapi.User
	StopReceivingUpdates()
}

type ReservationService interface {
	ValidateDraft(draft *models.ReservationDraft) error
	CreateReservation(ctx context.Context, draft *models.ReservationDraft) (*models.Reservation, error)
	ConfirmReservation(ctx context.Context, id, version int64, adminID string) error
	RejectReservation(ctx context.Context, id, version int64, adminID string) error
	DeleteReservation(ctx context.Context, id int64, requesterID string, isAdmin bool) error
	GetReservation(ctx context.Context, id int64) (*models.Reservation, error)
	GetReservationsByDateRange(ctx context.Context, startDate, endDate string) ([]*models.Reservation, error)
	GetPendingReservations(ctx context.Context) ([]*models.Reservation, error)
	GetUserReservations(ctx context.Context, userID string) ([]*models.Reservation, error)
	Snapshot(ctx context.Context) (availability.Snapshot, error)
	RefreshSnapshot(ctx context.Context) error
	Quote(ctx context.Context, court, startSlot, endSlot string, isMember bool) pricing.Quote
}

type UserService interface {
	IsAdmin(ctx context.Context, authID string) bool
	IsAdminTelegram(telegramID int64) bool
	IsBlacklisted(telegramID int64) bool
	IsMember(ctx context.Context, authID string) bool
	SaveUser(ctx context.Context, user *models.User) error
	UpdateUserActivity(ctx context.Context, authID string) error
	GetAllUsers(ctx context.Context) ([]*models.User, error)
	GetActiveUsers(ctx context.Context, days int) ([]*models.User, error)
	GetAdmins(ctx context.Context) ([]*models.User, error)
	GetUserByAuthID(ctx context.Context, authID string) (*models.User, error)
}
