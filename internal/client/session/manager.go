// Package session owns the console's access token: it is the only component
// that talks to the auth endpoints and the only writer of the token.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/99minutos/shop-admin/internal/core/domain"
	"github.com/99minutos/shop-admin/internal/core/ports"
	"github.com/99minutos/shop-admin/internal/metrics"
)

const (
	pathRegister = "/auth/register"
	pathLogin    = "/auth/login"
	pathRefresh  = "/auth/refresh-token"
	pathLogout   = "/auth/logout"
)

// ProfileFunc fetches the signed-in principal. Bootstrap receives it so the
// session stays independent of the request facade.
type ProfileFunc func(ctx context.Context) (*domain.User, error)

// Manager holds the session. The HTTP client it is given must carry a cookie
// jar: the refresh credential is a same-site cookie set by the server on login
// and never handled here directly.
type Manager struct {
	baseURL  string
	http     *http.Client
	store    ports.TokenStore
	log      zerolog.Logger
	validate *validator.Validate

	// storeMu orders durable writes the same way as the in-memory
	// transitions they mirror. It is taken before mu.
	storeMu sync.Mutex

	mu    sync.RWMutex
	token string
	user  *domain.User
	state domain.SessionState
	// epoch advances on every login, register and clear. A refresh only
	// installs its token if the epoch is unchanged since it started.
	epoch uint64

	refreshes singleflight.Group

	bootOnce sync.Once
	bootUser *domain.User
	bootErr  error
	ready    chan struct{}
}

// NewManager returns a Manager in the uninitialized state.
func NewManager(baseURL string, client *http.Client, store ports.TokenStore, log zerolog.Logger) *Manager {
	if client == nil {
		client = http.DefaultClient
	}
	return &Manager{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     client,
		store:    store,
		log:      log,
		validate: validator.New(),
		state:    domain.SessionUninitialized,
		ready:    make(chan struct{}),
	}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshResponse struct {
	AccessToken string `json:"accessToken" validate:"required"`
}

// Register creates an account and signs it in. role may be empty to let the
// server pick its default.
func (m *Manager) Register(ctx context.Context, username, email, password, role string) (*domain.AuthResult, error) {
	return m.authenticate(ctx, "register", pathRegister, registerRequest{
		Username: username,
		Email:    email,
		Password: password,
		Role:     role,
	})
}

// Login verifies credentials and signs the user in.
func (m *Manager) Login(ctx context.Context, email, password string) (*domain.AuthResult, error) {
	return m.authenticate(ctx, "login", pathLogin, loginRequest{Email: email, Password: password})
}

func (m *Manager) authenticate(ctx context.Context, op, path string, body any) (*domain.AuthResult, error) {
	raw, status, err := m.post(ctx, path, body, "")
	if err != nil || !successful(status) {
		m.log.Warn().Str("op", op).Int("status", status).Err(err).Msg("authentication rejected")
		return nil, authFailure(op, status, raw, err)
	}

	var result domain.AuthResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, &domain.AuthError{Op: op, Detail: "malformed response", Err: err}
	}
	if err := m.validate.Struct(&result); err != nil {
		return nil, &domain.AuthError{Op: op, Detail: "incomplete response", Err: err}
	}

	user := result.User
	m.establish(ctx, result.AccessToken, &user)
	m.log.Info().Str("op", op).Str("user_id", user.ID).Str("role", user.Role).Msg("session authenticated")
	return &result, nil
}

// Refresh exchanges the ambient refresh cookie for a new access token, stores
// it and returns it. Concurrent callers share one exchange. On failure the
// caller must treat the session as gone and call Clear.
func (m *Manager) Refresh(ctx context.Context) (string, error) {
	// The exchange outlives any single caller's cancellation because its
	// result is shared.
	shared := context.WithoutCancel(ctx)
	v, err, _ := m.refreshes.Do("refresh", func() (any, error) {
		return m.refresh(shared)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (m *Manager) refresh(ctx context.Context) (string, error) {
	m.mu.RLock()
	epoch := m.epoch
	m.mu.RUnlock()

	raw, status, err := m.post(ctx, pathRefresh, struct{}{}, "")
	if err != nil || !successful(status) {
		metrics.SessionRefreshTotal.WithLabelValues("failure").Inc()
		m.log.Warn().Int("status", status).Err(err).Msg("token refresh rejected")
		return "", authFailure("refresh", status, raw, err)
	}

	var resp refreshResponse
	if err := json.Unmarshal(raw, &resp); err == nil {
		err = m.validate.Struct(&resp)
	}
	if err != nil {
		metrics.SessionRefreshTotal.WithLabelValues("failure").Inc()
		return "", &domain.AuthError{Op: "refresh", Detail: "malformed response", Err: err}
	}

	if !m.install(ctx, resp.AccessToken, nil, &epoch) {
		// A logout or a new sign-in won the race; the exchanged token is stale.
		if token := m.CurrentToken(); token != "" {
			m.log.Debug().Msg("refresh superseded by a new sign-in")
			return token, nil
		}
		metrics.SessionRefreshTotal.WithLabelValues("failure").Inc()
		m.log.Info().Msg("session ended during refresh, token discarded")
		return "", &domain.AuthError{Op: "refresh", Detail: "session ended", Err: domain.ErrNotAuthenticated}
	}

	metrics.SessionRefreshTotal.WithLabelValues("success").Inc()
	m.log.Debug().Msg("access token refreshed")
	return resp.AccessToken, nil
}

// Logout asks the server to revoke the refresh credential and then clears the
// local session whatever the outcome. The returned error only describes the
// server call.
func (m *Manager) Logout(ctx context.Context) error {
	token := m.CurrentToken()
	raw, status, err := m.post(ctx, pathLogout, struct{}{}, token)
	m.Clear(ctx)

	if err != nil {
		m.log.Warn().Err(err).Msg("logout request failed, local session cleared")
		return &domain.RequestError{Method: http.MethodPost, URL: m.baseURL + pathLogout, Err: err}
	}
	if !successful(status) {
		m.log.Warn().Int("status", status).Msg("logout rejected, local session cleared")
		return &domain.RequestError{
			Method:     http.MethodPost,
			URL:        m.baseURL + pathLogout,
			StatusCode: status,
			Message:    domain.MessageFromBody(raw),
			Body:       raw,
		}
	}
	return nil
}

// Clear drops the token and principal and moves the session to anonymous.
// The durable copy is removed after the in-memory one.
func (m *Manager) Clear(ctx context.Context) {
	m.storeMu.Lock()
	defer m.storeMu.Unlock()

	m.mu.Lock()
	prev := m.state
	m.token = ""
	m.user = nil
	m.state = domain.SessionAnonymous
	m.epoch++
	m.mu.Unlock()

	if err := m.store.Clear(ctx); err != nil {
		m.log.Warn().Err(err).Msg("failed to clear durable token")
	}
	if prev != domain.SessionAnonymous {
		metrics.SessionTransitionsTotal.WithLabelValues(string(domain.SessionAnonymous)).Inc()
		m.log.Info().Str("from", string(prev)).Msg("session cleared")
	}
}

// establish installs the token and principal of a fresh sign-in.
func (m *Manager) establish(ctx context.Context, token string, user *domain.User) {
	m.install(ctx, token, user, nil)
}

// install puts a token (and principal, when known) in memory first and mirrors
// the token durably second. With a non-nil since, the token is dropped unless
// the epoch still equals *since; install reports whether it was kept.
func (m *Manager) install(ctx context.Context, token string, user *domain.User, since *uint64) bool {
	m.storeMu.Lock()
	defer m.storeMu.Unlock()

	m.mu.Lock()
	if since != nil && *since != m.epoch {
		m.mu.Unlock()
		return false
	}
	prev := m.state
	m.token = token
	if user != nil {
		m.user = user
	}
	m.state = domain.SessionAuthenticated
	if since == nil {
		m.epoch++
	}
	m.mu.Unlock()

	if err := m.store.Save(ctx, token); err != nil {
		m.log.Warn().Err(err).Msg("failed to persist token")
	}
	if prev != domain.SessionAuthenticated {
		metrics.SessionTransitionsTotal.WithLabelValues(string(domain.SessionAuthenticated)).Inc()
	}
	return true
}

// CurrentToken returns the access token, or "" when none is held.
func (m *Manager) CurrentToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// IsAuthenticated reports whether a token is held. The token is not checked
// against the server; expiry is discovered on first use.
func (m *Manager) IsAuthenticated() bool {
	return m.CurrentToken() != ""
}

// User returns a copy of the signed-in principal, or nil.
func (m *Manager) User() *domain.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

// State returns the lifecycle state.
func (m *Manager) State() domain.SessionState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

func (m *Manager) post(ctx context.Context, path string, body any, bearer string) ([]byte, int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, 0, fmt.Errorf("encode %s body: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := m.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read %s response: %w", path, err)
	}
	return raw, resp.StatusCode, nil
}

func successful(status int) bool {
	return status >= 200 && status < 300
}

func authFailure(op string, status int, raw []byte, cause error) *domain.AuthError {
	if cause == nil {
		cause = &domain.RequestError{
			Method:     http.MethodPost,
			StatusCode: status,
			Message:    domain.MessageFromBody(raw),
			Body:       raw,
		}
	}
	return &domain.AuthError{Op: op, Detail: domain.MessageFromBody(raw), Err: cause}
}

// RequirePanel checks that user may open panel.
func RequirePanel(user *domain.User, panel domain.Panel) error {
	if user == nil {
		return domain.ErrNotAuthenticated
	}
	if !panel.Allows(user.Role) {
		return fmt.Errorf("%w: %s panel, role %q", domain.ErrPanelForbidden, panel, user.Role)
	}
	return nil
}

// IsAuthError reports whether err is an authentication failure.
func IsAuthError(err error) bool {
	return errors.Is(err, domain.ErrAuthenticationFailed)
}
