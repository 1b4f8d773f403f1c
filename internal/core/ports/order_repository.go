package ports

import (
	"context"

	"github.com/99minutos/shop-admin/internal/core/domain"
)

// OrderFilter narrows an order listing. An empty OperatorID lists every order.
type OrderFilter struct {
	OperatorID string
	Page       PageRequest
}

// OrderRepository persists orders.
type OrderRepository interface {
	Insert(ctx context.Context, o *domain.Order) (*domain.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]domain.Order, int64, error)
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error)
	Assign(ctx context.Context, id string, operator domain.Operator) (*domain.Order, error)
	Stats(ctx context.Context) (domain.StatusCounts, float64, error)
}
