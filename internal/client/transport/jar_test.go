package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/99minutos/shop-admin/internal/client/session"
	"github.com/99minutos/shop-admin/internal/core/domain"
	"github.com/99minutos/shop-admin/internal/infrastructure/tokenstore"
)

// cookieAPI only refreshes when the refresh cookie set at login comes back.
func cookieAPI(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, _ *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "refreshToken", Value: "R1", Path: "/", HttpOnly: true})
		writeJSON(w, http.StatusOK, domain.AuthResult{User: domain.User{ID: "u-1"}, AccessToken: "T1"})
	})
	mux.HandleFunc("/auth/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie("refreshToken")
		if err != nil || c.Value != "R1" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "missing refresh token"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"accessToken": "T2"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFileJar_RefreshCookieSurvivesRestart(t *testing.T) {
	srv := cookieAPI(t)
	path := filepath.Join(t.TempDir(), "cookies.json")
	ctx := context.Background()

	jar, err := NewJar(path)
	require.NoError(t, err)
	first := session.NewManager(srv.URL, NewHTTPClient(time.Second, jar), tokenstore.NewMemoryStore(""), zerolog.Nop())
	_, err = first.Login(ctx, "root@shop.test", "secret")
	require.NoError(t, err)
	assert.FileExists(t, path)

	reloaded, err := NewJar(path)
	require.NoError(t, err)
	second := session.NewManager(srv.URL, NewHTTPClient(time.Second, reloaded), tokenstore.NewMemoryStore(""), zerolog.Nop())

	token, err := second.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, "T2", token)
}

func TestNewJar_WithoutPathIsInMemory(t *testing.T) {
	srv := cookieAPI(t)
	jar, err := NewJar("")
	require.NoError(t, err)
	_, isFile := jar.(*FileJar)
	assert.False(t, isFile)

	mgr := session.NewManager(srv.URL, NewHTTPClient(time.Second, jar), tokenstore.NewMemoryStore(""), zerolog.Nop())
	_, err = mgr.Login(context.Background(), "root@shop.test", "secret")
	require.NoError(t, err)
	_, err = mgr.Refresh(context.Background())
	assert.NoError(t, err)
}

func TestNewJar_MissingFileIsEmpty(t *testing.T) {
	jar, err := NewJar(filepath.Join(t.TempDir(), "nested", "cookies.json"))
	require.NoError(t, err)
	assert.NotNil(t, jar)
}
