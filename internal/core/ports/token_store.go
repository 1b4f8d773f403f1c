package ports

import "context"

// TokenStore is the durable mirror of the session's access token. It holds a
// single value. Load returns domain.ErrTokenNotFound when nothing is stored.
type TokenStore interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}
