package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/99minutos/shop-admin/internal/core/domain"
	"github.com/99minutos/shop-admin/internal/core/ports"
)

type OrderService struct {
	orders   ports.OrderRepository
	accounts ports.AccountRepository
	products ports.ProductRepository
	log      zerolog.Logger
}

func NewOrderService(
	orders ports.OrderRepository,
	accounts ports.AccountRepository,
	products ports.ProductRepository,
	log zerolog.Logger,
) *OrderService {
	return &OrderService{orders: orders, accounts: accounts, products: products, log: log}
}

func (s *OrderService) List(ctx context.Context, filter ports.OrderFilter) (*domain.Page[domain.Order], error) {
	filter.Page = normalizePage(filter.Page)
	items, total, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return newPage(items, total, filter.Page), nil
}

func (s *OrderService) Get(ctx context.Context, id string) (*domain.Order, error) {
	return s.orders.FindByID(ctx, id)
}

// UpdateStatus sets any known status. Transitions are not ordered.
func (s *OrderService) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, status)
	}
	order, err := s.orders.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("order_id", id).Str("status", string(status)).Msg("order status updated")
	return order, nil
}

func (s *OrderService) Assign(ctx context.Context, orderID, operatorID string) (*domain.Order, error) {
	if orderID == "" || operatorID == "" {
		return nil, fmt.Errorf("%w: orderId and operatorId are required", domain.ErrInvalidInput)
	}
	account, err := s.accounts.FindByID(ctx, operatorID)
	if err != nil {
		return nil, err
	}
	if account.Role != domain.RoleOperator {
		return nil, fmt.Errorf("%w: account %s is not an operator", domain.ErrInvalidInput, operatorID)
	}

	order, err := s.orders.Assign(ctx, orderID, operatorOf(account))
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("order_id", orderID).Str("operator_id", operatorID).Msg("order assigned")
	return order, nil
}

func (s *OrderService) Operators(ctx context.Context) ([]domain.Operator, error) {
	accounts, err := s.accounts.ListByRole(ctx, domain.RoleOperator)
	if err != nil {
		return nil, fmt.Errorf("list operators: %w", err)
	}
	ops := make([]domain.Operator, 0, len(accounts))
	for i := range accounts {
		ops = append(ops, operatorOf(&accounts[i]))
	}
	return ops, nil
}

func (s *OrderService) Stats(ctx context.Context) (*domain.AdminStats, error) {
	counts, revenue, err := s.orders.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("order stats: %w", err)
	}
	products, err := s.products.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}
	return &domain.AdminStats{
		TotalOrders:    counts.Pending + counts.Confirmed + counts.Delivered,
		TotalProducts:  products,
		TotalRevenue:   revenue,
		OrdersByStatus: counts,
	}, nil
}

func operatorOf(a *domain.Account) domain.Operator {
	return domain.Operator{ID: a.ID, Username: a.Username, Email: a.Email, CreatedAt: a.CreatedAt}
}
