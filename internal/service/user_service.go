package service

import (
	"context"
	"time"

	"tripledoble/internal/config"
	"tripledoble/internal/domain"
	"tripledoble/internal/models"

	"github.com/rs/zerolog"
)

type UserService struct {
	repo         domain.Repository
	config       *config.Config
	logger       *zerolog.Logger
	adminsMap    map[int64]bool
	blacklistMap map[int64]bool
}

func NewUserService(repo domain.Repository, config *config.Config, logger *zerolog.Logger) *UserService {
	adminsMap := make(map[int64]bool)
	for _, id := range config.Admins {
		adminsMap[id] = true
	}

	blacklistMap := make(map[int64]bool)
	for _, id := range config.Blacklist {
		blacklistMap[id] = true
	}

	return &UserService{
		repo:         repo,
		config:       config,
		logger:       logger,
		adminsMap:    adminsMap,
		blacklistMap: blacklistMap,
	}
}

// IsAdmin resolves the role stored for an auth id. Unknown users are never
// admins.
func (s *UserService) IsAdmin(ctx context.Context, authID string) bool {
	if authID == "" {
		return false
	}
	user, err := s.repo.GetUserByAuthID(ctx, authID)
	if err != nil {
		return false
	}
	return user.Role == models.RoleAdmin
}

// IsAdminTelegram checks the static admin list from config, used by the bot
// where identity is a Telegram id.
func (s *UserService) IsAdminTelegram(telegramID int64) bool {
	return s.adminsMap[telegramID]
}

func (s *UserService) IsBlacklisted(telegramID int64) bool {
	return s.blacklistMap[telegramID]
}

// IsMember reports whether the user currently has the member rate.
func (s *UserService) IsMember(ctx context.Context, authID string) bool {
	if authID == "" {
		return false
	}
	user, err := s.repo.GetUserByAuthID(ctx, authID)
	if err != nil {
		return false
	}
	return user.MembershipActive(time.Now())
}

func (s *UserService) SaveUser(ctx context.Context, user *models.User) error {
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	if user.TelegramID != 0 && s.IsAdminTelegram(user.TelegramID) {
		user.Role = models.RoleAdmin
	}
	return s.repo.CreateOrUpdateUser(ctx, user)
}

func (s *UserService) UpdateUserActivity(ctx context.Context, authID string) error {
	return s.repo.UpdateUserActivity(ctx, authID)
}

func (s *UserService) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	return s.repo.GetAllUsers(ctx)
}

func (s *UserService) GetActiveUsers(ctx context.Context, days int) ([]*models.User, error) {
	return s.repo.GetActiveUsers(ctx, days)
}

func (s *UserService) GetAdmins(ctx context.Context) ([]*models.User, error) {
	return s.repo.GetUsersByRole(ctx, models.RoleAdmin)
}

func (s *UserService) GetUserByAuthID(ctx context.Context, authID string) (*models.User, error) {
	return s.repo.GetUserByAuthID(ctx, authID)
}
