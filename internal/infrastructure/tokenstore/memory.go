package tokenstore

import (
	"context"
	"sync"

	"github.com/99minutos/shop-admin/internal/core/domain"
)

// MemoryStore keeps the token for the life of the process. Err, when set, is
// returned from every call so tests can simulate a failing durable store.
type MemoryStore struct {
	mu    sync.Mutex
	token string
	Err   error
}

// NewMemoryStore returns a store pre-loaded with token (may be empty).
func NewMemoryStore(token string) *MemoryStore {
	return &MemoryStore{token: token}
}

func (s *MemoryStore) Load(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return "", s.Err
	}
	if s.token == "" {
		return "", domain.ErrTokenNotFound
	}
	return s.token, nil
}

func (s *MemoryStore) Save(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.token = token
	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.token = ""
	return nil
}

// Peek returns the stored token without the not-found translation.
func (s *MemoryStore) Peek() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}
