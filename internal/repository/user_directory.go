package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/task-board/internal/domain"
)

// UserDirectory resolves assignee display data for the task read side.
type UserDirectory interface {
	Summary(ctx context.Context, userID string) (domain.UserSummary, error)
	Invalidate(ctx context.Context, userID string)
}

type cachedUserDirectory struct {
	users UserRepository
	cache *redis.Client
	ttl   time.Duration
}

// NewUserDirectory builds a read-through directory over the user repository.
// A nil cache client disables caching; cache failures degrade to direct reads.
func NewUserDirectory(users UserRepository, cache *redis.Client, ttl time.Duration) UserDirectory {
	return &cachedUserDirectory{users: users, cache: cache, ttl: ttl}
}

func (d *cachedUserDirectory) Summary(ctx context.Context, userID string) (domain.UserSummary, error) {
	key := cacheKey(userID)

	if d.cache != nil {
		if raw, err := d.cache.Get(ctx, key).Bytes(); err == nil {
			var summary domain.UserSummary
			if err := json.Unmarshal(raw, &summary); err == nil {
				return summary, nil
			}
		}
	}

	user, err := d.users.GetByID(ctx, userID)
	if err != nil {
		return domain.UserSummary{}, err
	}
	summary := user.Summary()

	if d.cache != nil {
		if raw, err := json.Marshal(summary); err == nil {
			// best effort; a write failure only costs the next lookup
			_ = d.cache.Set(ctx, key, raw, d.ttl).Err()
		}
	}
	return summary, nil
}

func (d *cachedUserDirectory) Invalidate(ctx context.Context, userID string) {
	if d.cache != nil {
		_ = d.cache.Del(ctx, cacheKey(userID)).Err()
	}
}

func cacheKey(userID string) string {
	return "user_summary:" + userID
}
