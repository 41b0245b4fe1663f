package models

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusRejected  = "rejected"
)

const (
	SportBasketball = "basketball"
	SportVolleyball = "volleyball"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

const ParseModeMarkdown = "Markdown"

// Шаги диалога бронирования в боте
const (
	StepSelectingSlots = "selecting_slots"
	StepEnteringName   = "entering_name"
	StepEnteringPhone  = "entering_phone"
	StepEnteringDoc    = "entering_doc"
	StepConfirming     = "confirming"
)

const (
	// DefaultRedisTTL время жизни состояния выбора в Redis
	DefaultRedisTTL = 24 * 60 * 60 // 24 часа в секундах

	// RateLimitMessages количество сообщений в окне
	RateLimitMessages = 20

	// RateLimitWindow окно ограничения частоты сообщений
	RateLimitWindow = 60 // 1 минута в секундах

	// DefaultPendingPageSize размер страницы списка заявок в боте
	DefaultPendingPageSize = 5

	// SnapshotResyncInterval периодическая пересинхронизация снапшота (секунды)
	SnapshotResyncInterval = 5 * 60
)

// ValidSport reports whether id names a bookable sport.
func ValidSport(id string) bool {
	return id == SportBasketball || id == SportVolleyball
}

// SportName returns the display name of a sport id.
func SportName(id string) string {
	switch id {
	case SportBasketball:
		return "Básquet"
	case SportVolleyball:
		return "Vóley"
	default:
		return id
	}
}
