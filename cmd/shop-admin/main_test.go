package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/99minutos/shop-admin/internal/api"
	"github.com/99minutos/shop-admin/internal/api/handler"
	"github.com/99minutos/shop-admin/internal/core/domain"
	"github.com/99minutos/shop-admin/internal/core/service"
	"github.com/99minutos/shop-admin/internal/infrastructure/db/memory"
)

func startStub(t *testing.T) *httptest.Server {
	t.Helper()
	store := memory.NewStore()
	log := zerolog.Nop()
	auth := service.NewAuthService(store.Accounts(), store.Sessions(time.Hour), "cli-secret", time.Minute, log)
	catalog := service.NewCatalogService(store.Products(), store.Categories(), log)
	orders := service.NewOrderService(store.Orders(), store.Accounts(), store.Products(), log)
	seeder := service.NewSeeder(auth, store.Accounts(), catalog, store.Orders(), log)
	require.NoError(t, seeder.EnsureAccount(context.Background(), "admin", "admin@shop.local", "admin1", domain.RoleAdmin))
	require.NoError(t, seeder.Demo(context.Background()))

	srv := httptest.NewServer(api.NewRouter(api.Deps{
		Auth: auth, Catalog: catalog, Orders: orders,
		JWTSecret: "cli-secret",
		Cookie:    handler.CookieConfig{TTL: time.Hour},
	}, log))
	t.Cleanup(srv.Close)
	return srv
}

// cli runs the console against srv with its state kept under dir.
func cli(t *testing.T, srv *httptest.Server, dir string, args ...string) (int, string, string) {
	t.Helper()
	t.Setenv("API_BASE_URL", srv.URL)
	t.Setenv("TOKEN_STORE", "file")
	t.Setenv("TOKEN_FILE", filepath.Join(dir, "session.json"))
	t.Setenv("COOKIE_FILE", filepath.Join(dir, "cookies.json"))
	t.Setenv("LOG_LEVEL", "disabled")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestCLI_SessionSurvivesRestart(t *testing.T) {
	srv := startStub(t)
	dir := t.TempDir()

	code, _, stderr := cli(t, srv, dir, "login", "admin@shop.local", "admin1")
	require.Equal(t, 0, code, stderr)

	code, out, stderr := cli(t, srv, dir, "whoami")
	require.Equal(t, 0, code, stderr)
	var user domain.User
	require.NoError(t, json.Unmarshal([]byte(out), &user))
	assert.Equal(t, domain.RoleAdmin, user.Role)

	code, out, stderr = cli(t, srv, dir, "admin", "stats")
	require.Equal(t, 0, code, stderr)
	var stats domain.AdminStats
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.EqualValues(t, 3, stats.TotalOrders)

	code, _, stderr = cli(t, srv, dir, "logout")
	require.Equal(t, 0, code, stderr)

	code, _, stderr = cli(t, srv, dir, "whoami")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "whoami failed: not signed in")
}

func TestCLI_PanelGate(t *testing.T) {
	srv := startStub(t)
	dir := t.TempDir()

	code, _, stderr := cli(t, srv, dir, "login", "operator@shop.local", "operator")
	require.Equal(t, 0, code, stderr)

	code, _, stderr = cli(t, srv, dir, "admin", "stats")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "admin stats failed: your role cannot open this panel")

	code, out, stderr := cli(t, srv, dir, "operator", "products", "-limit", "2")
	require.Equal(t, 0, code, stderr)
	var page domain.Page[domain.Product]
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	assert.Len(t, page.Data, 2)
}

func TestCLI_OperatorEditsProducts(t *testing.T) {
	srv := startStub(t)
	dir := t.TempDir()

	code, _, stderr := cli(t, srv, dir, "login", "operator@shop.local", "operator")
	require.Equal(t, 0, code, stderr)

	code, out, stderr := cli(t, srv, dir, "operator", "products", "-limit", "1")
	require.Equal(t, 0, code, stderr)
	var page domain.Page[domain.Product]
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	require.Len(t, page.Data, 1)
	category := page.Data[0].Category.ID

	code, out, stderr = cli(t, srv, dir, "operator", "product-create",
		"-title", "Wool Scarf", "-description", "Warm", "-price", "15", "-stock", "3",
		"-category", category, "-colours", "grey,navy")
	require.Equal(t, 0, code, stderr)
	var created domain.ProductResult
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	assert.Equal(t, "wool-scarf", created.Product.Slug)
	assert.Equal(t, []string{"grey", "navy"}, created.Product.Colours)

	code, out, stderr = cli(t, srv, dir, "operator", "product-update", created.Product.ID,
		"-title", "Wool Scarf", "-description", "Warm", "-price", "12.5", "-stock", "3",
		"-category", category)
	require.Equal(t, 0, code, stderr)
	var updated domain.ProductResult
	require.NoError(t, json.Unmarshal([]byte(out), &updated))
	assert.Equal(t, 12.5, updated.Product.Price)

	code, _, stderr = cli(t, srv, dir, "operator", "product-delete", created.Product.ID)
	assert.Equal(t, 2, code, stderr)
}

func TestCLI_ServerMessageInNotice(t *testing.T) {
	srv := startStub(t)
	dir := t.TempDir()

	code, _, stderr := cli(t, srv, dir, "login", "admin@shop.local", "wrong")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "login failed: invalid credentials")
}

func TestCLI_Usage(t *testing.T) {
	srv := startStub(t)
	dir := t.TempDir()

	code, _, stderr := cli(t, srv, dir, "login", "only-email")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "usage: shop-admin")

	code, _, _ = cli(t, srv, dir, "admin", "bogus")
	assert.Equal(t, 2, code)
}

func TestFailureNotice(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"auth detail", &domain.AuthError{Op: "login", Detail: "email taken"}, "register failed: email taken"},
		{"auth without detail", &domain.AuthError{Op: "refresh"}, "register failed: please sign in again"},
		{"status message", &domain.RequestError{StatusCode: 409, Message: "resource already exists"}, "register failed: resource already exists"},
		{"bare status", &domain.RequestError{StatusCode: 502}, "register failed: Bad Gateway"},
		{"transport", &domain.RequestError{Err: errors.New("dial tcp")}, "register failed: server unreachable"},
		{"validation", &domain.ValidationError{Field: "name", Reason: "failed required"}, "register failed: validation failed: name failed required"},
		{"unclassified", errors.New("boom"), "register failed: " + genericFailure},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, failureNotice("register", tc.err))
		})
	}
}

func TestParseInterspersed(t *testing.T) {
	fs := newFlagSet("register")
	role := fs.String("role", "", "")

	pos, err := parseInterspersed(fs, []string{"alice", "-role", "operator", "a@x.io", "pw"})
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "a@x.io", "pw"}, pos)
	assert.Equal(t, "operator", *role)
}
