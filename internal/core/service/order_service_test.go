package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/99minutos/shop-admin/internal/core/domain"
	"github.com/99minutos/shop-admin/internal/core/ports"
	"github.com/99minutos/shop-admin/internal/infrastructure/db/memory"
)

type orderFixture struct {
	orders   *OrderService
	auth     *AuthService
	store    *memory.Store
	operator domain.User
}

// newOrderFixture seeds the demo data and returns the seeded operator.
func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	store := memory.NewStore()
	log := zerolog.Nop()
	auth := NewAuthService(store.Accounts(), store.Sessions(0), "secret", 0, log)
	catalog := NewCatalogService(store.Products(), store.Categories(), log)
	seeder := NewSeeder(auth, store.Accounts(), catalog, store.Orders(), log)
	if err := seeder.Demo(context.Background()); err != nil {
		t.Fatalf("seed demo: %v", err)
	}
	op, err := store.Accounts().FindByEmail(context.Background(), "operator@shop.local")
	if err != nil {
		t.Fatalf("find operator: %v", err)
	}
	return &orderFixture{
		orders:   NewOrderService(store.Orders(), store.Accounts(), store.Products(), log),
		auth:     auth,
		store:    store,
		operator: op.User,
	}
}

func (f *orderFixture) firstOrder(t *testing.T) domain.Order {
	t.Helper()
	page, err := f.orders.List(context.Background(), ports.OrderFilter{})
	if err != nil || len(page.Data) == 0 {
		t.Fatalf("list orders: %v", err)
	}
	return page.Data[0]
}

func TestOrderService_Stats(t *testing.T) {
	f := newOrderFixture(t)

	stats, err := f.orders.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalOrders != 3 || stats.TotalProducts != 3 {
		t.Fatalf("unexpected totals %+v", stats)
	}
	if stats.OrdersByStatus.Pending != 1 || stats.OrdersByStatus.Confirmed != 1 || stats.OrdersByStatus.Delivered != 1 {
		t.Fatalf("unexpected breakdown %+v", stats.OrdersByStatus)
	}
	// 19.99*1 + 89.5*2 + 120*3
	if want := 558.99; stats.TotalRevenue < want-0.001 || stats.TotalRevenue > want+0.001 {
		t.Fatalf("expected revenue %.2f, got %.2f", want, stats.TotalRevenue)
	}
}

func TestOrderService_UpdateStatus(t *testing.T) {
	f := newOrderFixture(t)
	order := f.firstOrder(t)

	updated, err := f.orders.UpdateStatus(context.Background(), order.ID, domain.OrderPending)
	if err != nil || updated.Status != domain.OrderPending {
		t.Fatalf("UpdateStatus: %+v, %v", updated, err)
	}
	if _, err := f.orders.UpdateStatus(context.Background(), order.ID, "shipped"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := f.orders.UpdateStatus(context.Background(), "missing", domain.OrderDelivered); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestOrderService_AssignAndListMine(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	order := f.firstOrder(t)

	assigned, err := f.orders.Assign(ctx, order.ID, f.operator.ID)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if assigned.Operator == nil || assigned.Operator.ID != f.operator.ID {
		t.Fatalf("unexpected operator %+v", assigned.Operator)
	}

	mine, err := f.orders.List(ctx, ports.OrderFilter{OperatorID: f.operator.ID})
	if err != nil {
		t.Fatalf("List mine: %v", err)
	}
	if len(mine.Data) != 1 || mine.Data[0].ID != order.ID || mine.Pagination.Total != 1 {
		t.Fatalf("unexpected page %+v", mine)
	}
}

func TestOrderService_AssignRejects(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	order := f.firstOrder(t)

	user, err := f.auth.Register(ctx, ports.RegisterInput{Username: "u", Email: "u@shop.local", Password: "pw"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	cases := []struct {
		name       string
		orderID    string
		operatorID string
		want       error
	}{
		{"missing ids", "", "", domain.ErrInvalidInput},
		{"not an operator", order.ID, user.User.ID, domain.ErrInvalidInput},
		{"unknown operator", order.ID, "missing", domain.ErrNotFound},
		{"unknown order", "missing", f.operator.ID, domain.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.orders.Assign(ctx, tc.orderID, tc.operatorID); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestOrderService_Operators(t *testing.T) {
	f := newOrderFixture(t)

	ops, err := f.orders.Operators(context.Background())
	if err != nil {
		t.Fatalf("Operators: %v", err)
	}
	if len(ops) != 1 || ops[0].Email != "operator@shop.local" {
		t.Fatalf("unexpected operators %+v", ops)
	}
}

func TestSeeder_EnsureAccountIsIdempotent(t *testing.T) {
	f := newOrderFixture(t)
	log := zerolog.Nop()
	catalog := NewCatalogService(f.store.Products(), f.store.Categories(), log)
	seeder := NewSeeder(f.auth, f.store.Accounts(), catalog, f.store.Orders(), log)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := seeder.EnsureAccount(ctx, "admin", "admin@shop.local", "admin", domain.RoleAdmin); err != nil {
			t.Fatalf("EnsureAccount #%d: %v", i+1, err)
		}
	}
	if err := seeder.EnsureAccount(ctx, "admin", "", "", domain.RoleAdmin); err != nil {
		t.Fatalf("EnsureAccount without credentials should be a no-op: %v", err)
	}

	admins, err := f.store.Accounts().ListByRole(ctx, domain.RoleAdmin)
	if err != nil || len(admins) != 1 {
		t.Fatalf("expected one admin, got %d (%v)", len(admins), err)
	}
}
