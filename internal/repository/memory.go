package repository

import (
	"context"
	"sync"
	"time"

	"tripledoble/internal/models"
)

type MemoryStateRepository struct {
	sessions   sync.Map
	rateLimits sync.Map
	ttl        time.Duration
}

func NewMemoryStateRepository(ttl time.Duration) *MemoryStateRepository {
	return &MemoryStateRepository{
		ttl: ttl,
	}
}

func (r *MemoryStateRepository) GetSession(ctx context.Context, userID int64) (*models.SelectionSession, error) {
	val, ok := r.sessions.Load(userID)
	if !ok {
		return nil, nil
	}
	return val.(*models.SelectionSession), nil
}

func (r *MemoryStateRepository) SetSession(ctx context.Context, session *models.SelectionSession) error {
	r.sessions.Store(session.UserID, session)
	return nil
}

func (r *MemoryStateRepository) ClearSession(ctx context.Context, userID int64) error {
	r.sessions.Delete(userID)
	return nil
}

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

func (r *MemoryStateRepository) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	val, ok := r.rateLimits.Load(userID)

	var entry *rateLimitEntry
	if !ok {
		entry = &rateLimitEntry{
			count:     1,
			expiresAt: now.Add(window),
		}
	} else {
		entry = val.(*rateLimitEntry)
		if now.After(entry.expiresAt) {
			entry.count = 1
			entry.expiresAt = now.Add(window)
		} else {
			entry.count++
		}
	}

	r.rateLimits.Store(userID, entry)
	return entry.count <= limit, nil
}
