package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/99minutos/shop-admin/internal/core/domain"
	"github.com/99minutos/shop-admin/internal/infrastructure/tokenstore"
	"github.com/99minutos/shop-admin/internal/metrics"
)

// authAPI is a scripted auth backend. Handlers left nil answer 404.
type authAPI struct {
	login    http.HandlerFunc
	register http.HandlerFunc
	refresh  http.HandlerFunc
	logout   http.HandlerFunc

	refreshCalls atomic.Int32
	logoutCalls  atomic.Int32
	lastBearer   atomic.Value
}

func (a *authAPI) start(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	route := func(path string, h *http.HandlerFunc, counter *atomic.Int32) {
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			if counter != nil {
				counter.Add(1)
			}
			a.lastBearer.Store(r.Header.Get("Authorization"))
			if *h == nil {
				http.NotFound(w, r)
				return
			}
			(*h)(w, r)
		})
	}
	route(pathLogin, &a.login, nil)
	route(pathRegister, &a.register, nil)
	route(pathRefresh, &a.refresh, &a.refreshCalls)
	route(pathLogout, &a.logout, &a.logoutCalls)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func authOK(token string, user domain.User) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, domain.AuthResult{User: user, AccessToken: token})
	}
}

func refreshOK(token string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"accessToken": token})
	}
}

func status(code int, msg string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, code, map[string]string{"message": msg})
	}
}

var admin = domain.User{ID: "u-1", Username: "root", Email: "root@shop.test", Role: domain.RoleAdmin}

func newTestManager(t *testing.T, api *authAPI, store *tokenstore.MemoryStore) *Manager {
	t.Helper()
	srv := api.start(t)
	return NewManager(srv.URL, srv.Client(), store, zerolog.Nop())
}

func TestLogin_StoresTokenAndUser(t *testing.T) {
	api := &authAPI{login: authOK("T1", admin)}
	store := tokenstore.NewMemoryStore("")
	m := newTestManager(t, api, store)

	res, err := m.Login(context.Background(), "root@shop.test", "secret")
	require.NoError(t, err)

	assert.Equal(t, "T1", res.AccessToken)
	assert.Equal(t, "T1", m.CurrentToken())
	assert.Equal(t, "T1", store.Peek())
	assert.True(t, m.IsAuthenticated())
	assert.Equal(t, domain.SessionAuthenticated, m.State())
	require.NotNil(t, m.User())
	assert.Equal(t, admin, *m.User())
}

func TestRegister_FailureKeepsServerDetail(t *testing.T) {
	api := &authAPI{register: status(http.StatusBadRequest, "email already registered")}
	store := tokenstore.NewMemoryStore("")
	m := newTestManager(t, api, store)

	_, err := m.Register(context.Background(), "bob", "bob@shop.test", "pw", "")
	require.Error(t, err)

	var authErr *domain.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "register", authErr.Op)
	assert.Equal(t, "email already registered", authErr.Detail)
	assert.ErrorIs(t, err, domain.ErrAuthenticationFailed)
	assert.True(t, IsAuthError(err))
	assert.True(t, domain.IsStatus(err, http.StatusBadRequest))

	assert.Empty(t, m.CurrentToken())
	assert.Empty(t, store.Peek())
	assert.Equal(t, domain.SessionUninitialized, m.State())
}

func TestLogin_IncompleteResponseIsAuthError(t *testing.T) {
	api := &authAPI{login: func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"user": admin})
	}}
	m := newTestManager(t, api, tokenstore.NewMemoryStore(""))

	_, err := m.Login(context.Background(), "root@shop.test", "secret")

	var authErr *domain.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "login", authErr.Op)
	assert.False(t, m.IsAuthenticated())
}

func TestLogin_DurableStoreFailureIsNotFatal(t *testing.T) {
	api := &authAPI{login: authOK("T1", admin)}
	store := tokenstore.NewMemoryStore("")
	store.Err = errors.New("disk full")
	m := newTestManager(t, api, store)

	_, err := m.Login(context.Background(), "root@shop.test", "secret")
	require.NoError(t, err)
	assert.Equal(t, "T1", m.CurrentToken())
}

func TestRefresh_StoresNewToken(t *testing.T) {
	api := &authAPI{refresh: refreshOK("T2")}
	store := tokenstore.NewMemoryStore("T1")
	m := newTestManager(t, api, store)

	before := testutil.ToFloat64(metrics.SessionRefreshTotal.WithLabelValues("success"))

	token, err := m.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "T2", token)
	assert.Equal(t, "T2", m.CurrentToken())
	assert.Equal(t, "T2", store.Peek())
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.SessionRefreshTotal.WithLabelValues("success")))
}

func TestRefresh_RejectedIsAuthError(t *testing.T) {
	api := &authAPI{refresh: status(http.StatusUnauthorized, "refresh token expired")}
	m := newTestManager(t, api, tokenstore.NewMemoryStore(""))

	_, err := m.Refresh(context.Background())

	var authErr *domain.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "refresh", authErr.Op)
}

func TestRefresh_ConcurrentCallersShareOneExchange(t *testing.T) {
	release := make(chan struct{})
	api := &authAPI{refresh: func(w http.ResponseWriter, r *http.Request) {
		<-release
		refreshOK("T2")(w, r)
	}}
	m := newTestManager(t, api, tokenstore.NewMemoryStore(""))

	const callers = 8
	var wg sync.WaitGroup
	tokens := make([]string, callers)
	errs := make([]error, callers)
	for i := range callers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i], errs[i] = m.Refresh(context.Background())
		}(i)
	}

	require.Eventually(t, func() bool { return api.refreshCalls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), api.refreshCalls.Load())
	for i := range callers {
		require.NoError(t, errs[i])
		assert.Equal(t, "T2", tokens[i])
	}
}

func TestRefresh_InFlightDuringLogoutIsDiscarded(t *testing.T) {
	release := make(chan struct{})
	api := &authAPI{
		login: authOK("T1", admin),
		refresh: func(w http.ResponseWriter, r *http.Request) {
			<-release
			refreshOK("T2")(w, r)
		},
		logout: status(http.StatusOK, "logged out"),
	}
	store := tokenstore.NewMemoryStore("")
	m := newTestManager(t, api, store)

	_, err := m.Login(context.Background(), "root@shop.test", "secret")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := m.Refresh(context.Background())
		done <- err
	}()
	require.Eventually(t, func() bool { return api.refreshCalls.Load() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, m.Logout(context.Background()))
	close(release)

	err = <-done
	assert.True(t, IsAuthError(err))
	assert.False(t, m.IsAuthenticated())
	assert.Empty(t, store.Peek())
	assert.Nil(t, m.User())
	assert.Equal(t, domain.SessionAnonymous, m.State())
}

func TestRefresh_InFlightDuringLoginKeepsNewSignIn(t *testing.T) {
	release := make(chan struct{})
	api := &authAPI{
		login: authOK("T3", admin),
		refresh: func(w http.ResponseWriter, r *http.Request) {
			<-release
			refreshOK("T2")(w, r)
		},
	}
	store := tokenstore.NewMemoryStore("T1")
	m := newTestManager(t, api, store)

	type result struct {
		token string
		err   error
	}
	done := make(chan result, 1)
	go func() {
		token, err := m.Refresh(context.Background())
		done <- result{token, err}
	}()
	require.Eventually(t, func() bool { return api.refreshCalls.Load() == 1 }, time.Second, 5*time.Millisecond)

	_, err := m.Login(context.Background(), "root@shop.test", "secret")
	require.NoError(t, err)
	close(release)

	res := <-done
	require.NoError(t, res.err)
	assert.Equal(t, "T3", res.token)
	assert.Equal(t, "T3", m.CurrentToken())
	assert.Equal(t, "T3", store.Peek())
}

func TestLogout_SendsBearerAndClears(t *testing.T) {
	api := &authAPI{login: authOK("T1", admin), logout: status(http.StatusOK, "logged out")}
	store := tokenstore.NewMemoryStore("")
	m := newTestManager(t, api, store)

	_, err := m.Login(context.Background(), "root@shop.test", "secret")
	require.NoError(t, err)

	require.NoError(t, m.Logout(context.Background()))
	assert.Equal(t, "Bearer T1", api.lastBearer.Load())
	assert.Empty(t, m.CurrentToken())
	assert.Empty(t, store.Peek())
	assert.Nil(t, m.User())
	assert.Equal(t, domain.SessionAnonymous, m.State())
}

func TestLogout_ClearsWhenServerUnreachable(t *testing.T) {
	srv := httptest.NewServer(authOK("T1", admin))
	store := tokenstore.NewMemoryStore("")
	m := NewManager(srv.URL, srv.Client(), store, zerolog.Nop())

	_, err := m.Login(context.Background(), "root@shop.test", "secret")
	require.NoError(t, err)
	srv.Close()

	err = m.Logout(context.Background())

	var reqErr *domain.RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Zero(t, reqErr.StatusCode)
	assert.False(t, m.IsAuthenticated())
	assert.Empty(t, store.Peek())
	assert.Equal(t, domain.SessionAnonymous, m.State())
}

func TestLogout_ClearsWhenServerRejects(t *testing.T) {
	api := &authAPI{login: authOK("T1", admin), logout: status(http.StatusInternalServerError, "boom")}
	m := newTestManager(t, api, tokenstore.NewMemoryStore(""))

	_, err := m.Login(context.Background(), "root@shop.test", "secret")
	require.NoError(t, err)

	err = m.Logout(context.Background())
	assert.True(t, domain.IsStatus(err, http.StatusInternalServerError))
	assert.False(t, m.IsAuthenticated())
}

func TestRequirePanel(t *testing.T) {
	tests := []struct {
		name  string
		user  *domain.User
		panel domain.Panel
		want  error
	}{
		{"admin opens admin", &domain.User{Role: domain.RoleAdmin}, domain.PanelAdmin, nil},
		{"admin opens operator", &domain.User{Role: domain.RoleAdmin}, domain.PanelOperator, nil},
		{"operator opens operator", &domain.User{Role: domain.RoleOperator}, domain.PanelOperator, nil},
		{"operator denied admin", &domain.User{Role: domain.RoleOperator}, domain.PanelAdmin, domain.ErrPanelForbidden},
		{"user denied operator", &domain.User{Role: domain.RoleUser}, domain.PanelOperator, domain.ErrPanelForbidden},
		{"anonymous", nil, domain.PanelOperator, domain.ErrNotAuthenticated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := RequirePanel(tt.user, tt.panel)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
