package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/99minutos/shop-admin/internal/core/domain"
)

// Bootstrap restores a session at process start. A durable token is trusted
// only after a successful refresh and profile fetch; any failure clears it and
// leaves the session anonymous. Bootstrap runs once per Manager; later calls
// return the first outcome. Ready is closed when it completes.
func (m *Manager) Bootstrap(ctx context.Context, fetch ProfileFunc) (*domain.User, error) {
	m.bootOnce.Do(func() {
		m.bootUser, m.bootErr = m.bootstrap(ctx, fetch)
		close(m.ready)
	})
	return m.bootUser, m.bootErr
}

func (m *Manager) bootstrap(ctx context.Context, fetch ProfileFunc) (*domain.User, error) {
	token, err := m.store.Load(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrTokenNotFound) {
			m.log.Warn().Err(err).Msg("durable token unreadable, starting anonymous")
		}
		m.Clear(ctx)
		return nil, domain.ErrNotAuthenticated
	}

	m.mu.Lock()
	m.token = token
	m.mu.Unlock()

	if _, err := m.Refresh(ctx); err != nil {
		m.abandon(ctx)
		return nil, fmt.Errorf("%w: %w", domain.ErrNotAuthenticated, err)
	}

	user, err := fetch(ctx)
	if err != nil || user == nil {
		if err == nil {
			err = errors.New("empty profile")
		}
		m.log.Warn().Err(err).Msg("profile fetch failed during bootstrap")
		m.abandon(ctx)
		return nil, fmt.Errorf("%w: %w", domain.ErrNotAuthenticated, err)
	}

	m.mu.Lock()
	u := *user
	m.user = &u
	m.mu.Unlock()

	m.log.Info().Str("user_id", user.ID).Str("role", user.Role).Msg("session restored")
	return user, nil
}

// abandon revokes the server-side session on a best-effort basis and clears
// local state.
func (m *Manager) abandon(ctx context.Context) {
	if err := m.Logout(ctx); err != nil {
		m.log.Debug().Err(err).Msg("best-effort logout after failed bootstrap")
	}
}

// Ready is closed once Bootstrap has completed, successfully or not.
// Role-gated work waits on it so it never sees a half-restored session.
func (m *Manager) Ready() <-chan struct{} {
	return m.ready
}

// WaitReady blocks until Bootstrap completes or ctx is done.
func (m *Manager) WaitReady(ctx context.Context) error {
	select {
	case <-m.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
