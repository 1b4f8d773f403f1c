package memory

import (
	"context"
	"time"

	"github.com/99minutos/shop-admin/internal/core/domain"
	"github.com/99minutos/shop-admin/internal/core/ports"
)

// SessionStore implements ports.RefreshSessionStore with lazy expiry.
type SessionStore struct {
	s   *Store
	ttl time.Duration
}

func (r *SessionStore) Put(_ context.Context, session ports.RefreshSession) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.refresh[session.Token] = refreshEntry{
		accountID: session.AccountID,
		expiresAt: r.s.now().Add(r.ttl),
	}
	return nil
}

func (r *SessionStore) Take(_ context.Context, token string) (*ports.RefreshSession, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	entry, ok := r.s.refresh[token]
	delete(r.s.refresh, token)
	if !ok || (r.ttl > 0 && r.s.now().After(entry.expiresAt)) {
		return nil, domain.ErrSessionExpired
	}
	return &ports.RefreshSession{Token: token, AccountID: entry.accountID}, nil
}

func (r *SessionStore) Delete(_ context.Context, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.refresh, token)
	return nil
}
