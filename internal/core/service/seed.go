package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/shop-admin/internal/core/domain"
	"github.com/99minutos/shop-admin/internal/core/ports"
)

// Seeder fills an empty store with an admin account and, optionally, a small
// demo catalog with orders. Orders have no create endpoint, so seeding is the
// only way they appear.
type Seeder struct {
	auth     ports.AuthService
	accounts ports.AccountRepository
	catalog  ports.CatalogService
	orders   ports.OrderRepository
	log      zerolog.Logger
}

func NewSeeder(
	auth ports.AuthService,
	accounts ports.AccountRepository,
	catalog ports.CatalogService,
	orders ports.OrderRepository,
	log zerolog.Logger,
) *Seeder {
	return &Seeder{auth: auth, accounts: accounts, catalog: catalog, orders: orders, log: log}
}

// EnsureAccount registers an account unless the email is already taken.
func (s *Seeder) EnsureAccount(ctx context.Context, username, email, password, role string) error {
	if email == "" || password == "" {
		return nil
	}
	_, err := s.accounts.FindByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	_, err = s.auth.Register(ctx, ports.RegisterInput{
		Username: username,
		Email:    email,
		Password: password,
		Role:     role,
	})
	if err != nil && !errors.Is(err, domain.ErrUserExists) {
		return fmt.Errorf("seed %s account: %w", role, err)
	}
	s.log.Info().Str("email", email).Str("role", role).Msg("seeded account")
	return nil
}

// Demo inserts two categories, three products, one operator and one order per
// status.
func (s *Seeder) Demo(ctx context.Context) error {
	if err := s.EnsureAccount(ctx, "operator", "operator@shop.local", "operator", domain.RoleOperator); err != nil {
		return err
	}

	apparel, err := s.catalog.CreateCategory(ctx, "Apparel")
	if err != nil {
		return fmt.Errorf("seed category: %w", err)
	}
	shoes, err := s.catalog.CreateCategory(ctx, "Shoes")
	if err != nil {
		return fmt.Errorf("seed category: %w", err)
	}

	inputs := []ports.ProductInput{
		{Title: "Cotton Tee", Price: 19.99, CountInStock: 40, CategoryID: apparel.ID, Colours: []string{"white", "black"}, Sizes: []string{"S", "M", "L"}, StockStatus: true, FreeDelivery: true},
		{Title: "Denim Jacket", Price: 89.5, CountInStock: 8, CategoryID: apparel.ID, Sizes: []string{"M", "L"}, StockStatus: true, ReturnDelivery: true},
		{Title: "Trail Runner", Price: 120, CountInStock: 0, CategoryID: shoes.ID, Sizes: []string{"42", "43"}},
	}
	products := make([]*domain.Product, 0, len(inputs))
	for _, in := range inputs {
		p, err := s.catalog.CreateProduct(ctx, in)
		if err != nil {
			return fmt.Errorf("seed product: %w", err)
		}
		products = append(products, p)
	}

	now := time.Now().UTC()
	for i, status := range domain.OrderStatuses {
		p := products[i%len(products)]
		qty := i + 1
		_, err := s.orders.Insert(ctx, &domain.Order{
			Products:    []domain.OrderLine{{Product: *p, Quantity: qty, Price: p.Price}},
			TotalAmount: p.Price * float64(qty),
			Status:      status,
			BillingDetails: domain.BillingDetails{
				FirstName:     "Demo",
				StreetAddress: fmt.Sprintf("%d Market St", 100+i),
				City:          "Springfield",
				Phone:         "555-0100",
				Email:         "buyer@shop.local",
			},
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return fmt.Errorf("seed order: %w", err)
		}
	}

	s.log.Info().Int("products", len(products)).Int("orders", len(domain.OrderStatuses)).Msg("seeded demo data")
	return nil
}
