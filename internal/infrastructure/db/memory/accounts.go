package memory

import (
	"context"
	"strings"

	"github.com/99minutos/shop-admin/internal/core/domain"
)

// AccountRepository implements ports.AccountRepository. Emails are unique
// case-insensitively.
type AccountRepository struct{ s *Store }

func (r *AccountRepository) Create(_ context.Context, a *domain.Account) (*domain.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.accounts {
		if strings.EqualFold(existing.Email, a.Email) {
			return nil, domain.ErrUserExists
		}
	}
	created := *a
	created.ID = newID()
	r.s.accounts[created.ID] = created
	r.s.accountIDs = append(r.s.accountIDs, created.ID)
	return &created, nil
}

func (r *AccountRepository) FindByEmail(_ context.Context, email string) (*domain.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, a := range r.s.accounts {
		if strings.EqualFold(a.Email, email) {
			return &a, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *AccountRepository) FindByID(_ context.Context, id string) (*domain.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	a, ok := r.s.accounts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &a, nil
}

// ListByRole returns matching accounts oldest first.
func (r *AccountRepository) ListByRole(_ context.Context, role string) ([]domain.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []domain.Account
	for _, id := range r.s.accountIDs {
		if a := r.s.accounts[id]; a.Role == role {
			out = append(out, a)
		}
	}
	return out, nil
}
