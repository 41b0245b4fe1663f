package service

import (
	"context"
	"time"

	"tripledoble/internal/domain"
	"tripledoble/internal/models"

	"github.com/rs/zerolog"
)

// StateService wraps the session repository with logging and convenience
// mutation helpers for the bot's slot-picker flow.
type StateService struct {
	stateRepo domain.StateRepository
	logger    *zerolog.Logger
}

func NewStateService(stateRepo domain.StateRepository, logger *zerolog.Logger) *StateService {
	return &StateService{
		stateRepo: stateRepo,
		logger:    logger,
	}
}

func (s *StateService) GetUserSession(ctx context.Context, userID int64) (*models.SelectionSession, error) {
	session, err := s.stateRepo.GetSession(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to get user session")
		return nil, err
	}

	return session, nil
}

func (s *StateService) SetUserSession(ctx context.Context, userID int64, step string, data map[string]interface{}) error {
	session := &models.SelectionSession{
		UserID:      userID,
		CurrentStep: step,
		Data:        data,
	}
	return s.stateRepo.SetSession(ctx, session)
}

func (s *StateService) ClearUserSession(ctx context.Context, userID int64) error {
	return s.stateRepo.ClearSession(ctx, userID)
}

func (s *StateService) UpdateUserSessionData(ctx context.Context, userID int64, key string, value interface{}) error {
	session, err := s.stateRepo.GetSession(ctx, userID)
	if err != nil {
		return err
	}
	if session == nil {
		session = &models.SelectionSession{
			UserID: userID,
			Data:   make(map[string]interface{}),
		}
	}

	if session.Data == nil {
		session.Data = make(map[string]interface{})
	}
	session.Data[key] = value

	return s.stateRepo.SetSession(ctx, session)
}

func (s *StateService) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	return s.stateRepo.CheckRateLimit(ctx, userID, limit, window)
}
