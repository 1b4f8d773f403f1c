package ports

import (
	"context"

	"github.com/99minutos/shop-admin/internal/core/domain"
)

// RegisterInput is the DTO passed from the transport layer to AuthService.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Role     string
}

// IssuedSession is the outcome of a successful register, login or refresh.
// RefreshToken travels back to the browser in a cookie only.
type IssuedSession struct {
	User         domain.User
	AccessToken  string
	RefreshToken string
}

// AuthService issues and revokes credentials.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*IssuedSession, error)
	Login(ctx context.Context, email, password string) (*IssuedSession, error)
	// Refresh exchanges a refresh credential for a new access token and a
	// rotated refresh credential.
	Refresh(ctx context.Context, refreshToken string) (*IssuedSession, error)
	Logout(ctx context.Context, refreshToken string) error
	CurrentUser(ctx context.Context, id string) (*domain.User, error)
}
