package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/99minutos/shop-admin/internal/core/domain"
	"github.com/99minutos/shop-admin/internal/core/ports"
)

// AuthService implements registration, login and the refresh-token exchange.
// Access tokens are HS256 JWTs carrying the account id as subject; refresh
// tokens are opaque and single-use.
type AuthService struct {
	accounts  ports.AccountRepository
	sessions  ports.RefreshSessionStore
	jwtSecret string
	accessTTL time.Duration
	log       zerolog.Logger
}

func NewAuthService(
	accounts ports.AccountRepository,
	sessions ports.RefreshSessionStore,
	jwtSecret string,
	accessTTL time.Duration,
	log zerolog.Logger,
) *AuthService {
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	return &AuthService{
		accounts:  accounts,
		sessions:  sessions,
		jwtSecret: jwtSecret,
		accessTTL: accessTTL,
		log:       log,
	}
}

func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*ports.IssuedSession, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Username == "" || in.Email == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: username, email and password are required", domain.ErrInvalidInput)
	}
	if in.Role == "" {
		in.Role = domain.RoleUser
	}
	switch in.Role {
	case domain.RoleAdmin, domain.RoleOperator, domain.RoleUser:
	default:
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, in.Role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	created, err := s.accounts.Create(ctx, &domain.Account{
		User:         domain.User{Username: in.Username, Email: in.Email, Role: in.Role},
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", created.ID).Str("role", created.Role).Msg("account registered")
	return s.issue(ctx, created)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.IssuedSession, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	account, err := s.accounts.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return s.issue(ctx, account)
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*ports.IssuedSession, error) {
	if refreshToken == "" {
		return nil, domain.ErrSessionExpired
	}
	session, err := s.sessions.Take(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	account, err := s.accounts.FindByID(ctx, session.AccountID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrSessionExpired
	}
	if err != nil {
		return nil, err
	}
	return s.issue(ctx, account)
}

func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.sessions.Delete(ctx, refreshToken)
}

func (s *AuthService) CurrentUser(ctx context.Context, id string) (*domain.User, error) {
	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	user := account.User
	return &user, nil
}

func (s *AuthService) issue(ctx context.Context, account *domain.Account) (*ports.IssuedSession, error) {
	access, err := s.generateToken(account)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refresh := uuid.NewString()
	if err := s.sessions.Put(ctx, ports.RefreshSession{Token: refresh, AccountID: account.ID}); err != nil {
		return nil, err
	}

	return &ports.IssuedSession{
		User:         account.User,
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

func (s *AuthService) generateToken(account *domain.Account) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      account.ID,
		"username": account.Username,
		"role":     account.Role,
		"iat":      now.Unix(),
		"exp":      now.Add(s.accessTTL).Unix(),
		"jti":      uuid.NewString(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}
