package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/99minutos/shop-admin/internal/core/domain"
)

// DefaultTokenKey is the single key holding the console's access token.
const DefaultTokenKey = "shopadmin:session:access_token"

// TokenStore mirrors the access token into one Redis key with no expiry; the
// server decides when the token stops being honoured.
type TokenStore struct {
	client *redis.Client
	key    string
}

// NewTokenStore returns a TokenStore using key, or DefaultTokenKey when key
// is empty.
func NewTokenStore(client *redis.Client, key string) *TokenStore {
	if key == "" {
		key = DefaultTokenKey
	}
	return &TokenStore{client: client, key: key}
}

func (s *TokenStore) Load(ctx context.Context) (string, error) {
	token, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) || (err == nil && token == "") {
		return "", domain.ErrTokenNotFound
	}
	if err != nil {
		return "", fmt.Errorf("load token: %w", err)
	}
	return token, nil
}

func (s *TokenStore) Save(ctx context.Context, token string) error {
	if err := s.client.Set(ctx, s.key, token, 0).Err(); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

func (s *TokenStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	return nil
}
