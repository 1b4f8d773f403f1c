package ports

import (
	"context"

	"github.com/99minutos/shop-admin/internal/core/domain"
)

// OrderService handles order fulfilment and the admin dashboard summary.
type OrderService interface {
	List(ctx context.Context, filter OrderFilter) (*domain.Page[domain.Order], error)
	Get(ctx context.Context, id string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error)
	Assign(ctx context.Context, orderID, operatorID string) (*domain.Order, error)
	Operators(ctx context.Context) ([]domain.Operator, error)
	Stats(ctx context.Context) (*domain.AdminStats, error)
}
