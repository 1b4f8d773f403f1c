package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/shop-admin/internal/api/handler"
	"github.com/99minutos/shop-admin/internal/core/domain"
	"github.com/99minutos/shop-admin/internal/core/ports"
	"github.com/99minutos/shop-admin/internal/core/service"
	"github.com/99minutos/shop-admin/internal/infrastructure/db/memory"
)

const testSecret = "router-secret"

func newTestServer(t *testing.T) (*httptest.Server, *service.AuthService) {
	t.Helper()
	store := memory.NewStore()
	log := zerolog.Nop()

	auth := service.NewAuthService(store.Accounts(), store.Sessions(time.Hour), testSecret, time.Minute, log)
	catalog := service.NewCatalogService(store.Products(), store.Categories(), log)
	orders := service.NewOrderService(store.Orders(), store.Accounts(), store.Products(), log)

	e := NewRouter(Deps{
		Auth:      auth,
		Catalog:   catalog,
		Orders:    orders,
		JWTSecret: testSecret,
		Cookie:    handler.CookieConfig{TTL: time.Hour},
	}, log)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return srv, auth
}

func tokenFor(t *testing.T, auth *service.AuthService, email, role string) string {
	t.Helper()
	issued, err := auth.Register(context.Background(), ports.RegisterInput{
		Username: role, Email: email, Password: "secret1", Role: role,
	})
	if err != nil {
		t.Fatalf("register %s: %v", role, err)
	}
	return issued.AccessToken
}

func do(t *testing.T, method, url, token, body string) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	return resp, raw
}

func TestRouter_RoleGates(t *testing.T) {
	srv, auth := newTestServer(t)
	admin := tokenFor(t, auth, "admin@test.local", domain.RoleAdmin)
	operator := tokenFor(t, auth, "op@test.local", domain.RoleOperator)
	user := tokenFor(t, auth, "user@test.local", domain.RoleUser)

	cases := []struct {
		name   string
		method string
		path   string
		token  string
		body   string
		want   int
	}{
		{"public products", http.MethodGet, "/products", "", "", http.StatusOK},
		{"public categories", http.MethodGet, "/category", "", "", http.StatusOK},
		{"logout needs token", http.MethodPost, "/auth/logout", "", "", http.StatusUnauthorized},
		{"logout", http.MethodPost, "/auth/logout", user, "", http.StatusOK},
		{"current user needs token", http.MethodGet, "/users/current", "", "", http.StatusUnauthorized},
		{"current user", http.MethodGet, "/users/current", user, "", http.StatusOK},
		{"admin lists orders", http.MethodGet, "/operator/orders", admin, "", http.StatusOK},
		{"operator cannot list all orders", http.MethodGet, "/operator/orders", operator, "", http.StatusForbidden},
		{"operator lists own orders", http.MethodGet, "/operator/my-orders", operator, "", http.StatusOK},
		{"user cannot list own orders", http.MethodGet, "/operator/my-orders", user, "", http.StatusForbidden},
		{"operator cannot read stats", http.MethodGet, "/operator/admin/stats", operator, "", http.StatusForbidden},
		{"admin reads stats", http.MethodGet, "/operator/admin/stats", admin, "", http.StatusOK},
		{"operator cannot create category", http.MethodPost, "/category/create", operator, `{"name":"Hats"}`, http.StatusForbidden},
		{"admin creates category", http.MethodPost, "/category/create", admin, `{"name":"Hats"}`, http.StatusCreated},
		{"unknown order", http.MethodGet, "/operator/orders/nope", admin, "", http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := do(t, tc.method, srv.URL+tc.path, tc.token, tc.body)
			if resp.StatusCode != tc.want {
				t.Fatalf("expected %d, got %d: %s", tc.want, resp.StatusCode, body)
			}
		})
	}
}

func TestRouter_ErrorEnvelope(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := do(t, http.MethodGet, srv.URL+"/operator/orders", "garbage", "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	var env handler.ErrorResponse
	if err := json.Unmarshal(body, &env); err != nil {
		t.Fatalf("invalid json %s: %v", body, err)
	}
	if env.Message != "invalid token" {
		t.Fatalf("unexpected message %q", env.Message)
	}
}

func TestRouter_DuplicateCategoryIsConflict(t *testing.T) {
	srv, auth := newTestServer(t)
	admin := tokenFor(t, auth, "admin@test.local", domain.RoleAdmin)

	if resp, body := do(t, http.MethodPost, srv.URL+"/category/create", admin, `{"name":"Shoes"}`); resp.StatusCode != http.StatusCreated {
		t.Fatalf("first create: %d %s", resp.StatusCode, body)
	}
	resp, _ := do(t, http.MethodPost, srv.URL+"/category/create", admin, `{"name":"Shoes"}`)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}

func TestRouter_ToolingEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, path := range []string{"/health", "/health/ready", "/swagger/doc.json"} {
		if resp, body := do(t, http.MethodGet, srv.URL+path, "", ""); resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d: %s", path, resp.StatusCode, body)
		}
	}

	resp, body := do(t, http.MethodGet, srv.URL+"/metrics", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("metrics: expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "shopadmin_stub") {
		t.Fatalf("expected request metrics in exposition")
	}
}
