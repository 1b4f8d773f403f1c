package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/99minutos/shop-admin/internal/core/domain"
	"github.com/99minutos/shop-admin/internal/core/ports"
)

// RefreshSessionStore keeps refresh credentials as expiring keys.
// Key format: refresh:<token> → account id
type RefreshSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRefreshSessionStore creates a store whose entries expire after ttl.
func NewRefreshSessionStore(client *redis.Client, ttl time.Duration) *RefreshSessionStore {
	return &RefreshSessionStore{client: client, ttl: ttl}
}

func (s *RefreshSessionStore) Put(ctx context.Context, session ports.RefreshSession) error {
	if err := s.client.Set(ctx, s.key(session.Token), session.AccountID, s.ttl).Err(); err != nil {
		return fmt.Errorf("put refresh session: %w", err)
	}
	return nil
}

func (s *RefreshSessionStore) Take(ctx context.Context, token string) (*ports.RefreshSession, error) {
	accountID, err := s.client.GetDel(ctx, s.key(token)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrSessionExpired
	}
	if err != nil {
		return nil, fmt.Errorf("take refresh session: %w", err)
	}
	return &ports.RefreshSession{Token: token, AccountID: accountID}, nil
}

func (s *RefreshSessionStore) Delete(ctx context.Context, token string) error {
	return s.client.Del(ctx, s.key(token)).Err()
}

func (s *RefreshSessionStore) key(token string) string {
	return fmt.Sprintf("refresh:%s", token)
}
