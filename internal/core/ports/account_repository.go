package ports

import (
	"context"

	"github.com/99minutos/shop-admin/internal/core/domain"
)

// AccountRepository persists user accounts for the stub server.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) (*domain.Account, error)
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	FindByID(ctx context.Context, id string) (*domain.Account, error)
	ListByRole(ctx context.Context, role string) ([]domain.Account, error)
}

// RefreshSession binds an opaque refresh credential to an account.
type RefreshSession struct {
	Token     string
	AccountID string
}

// RefreshSessionStore keeps refresh credentials until they expire or are
// revoked.
type RefreshSessionStore interface {
	Put(ctx context.Context, session RefreshSession) error
	// Take returns the session and removes it, so each credential is
	// exchanged once.
	Take(ctx context.Context, token string) (*RefreshSession, error)
	Delete(ctx context.Context, token string) error
}
