package ports

import (
	"context"

	"github.com/99minutos/shop-admin/internal/core/domain"
)

// PageRequest is a 1-based page selection.
type PageRequest struct {
	Page  int
	Limit int
}

// Skip returns the number of records before the requested page.
func (p PageRequest) Skip() int {
	if p.Page <= 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// ProductRepository persists products. Category is stored by id and
// populated on read.
type ProductRepository interface {
	List(ctx context.Context, page PageRequest) ([]domain.Product, int64, error)
	FindByID(ctx context.Context, id string) (*domain.Product, error)
	Create(ctx context.Context, p *domain.Product) (*domain.Product, error)
	Update(ctx context.Context, p *domain.Product) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}

// CategoryRepository persists categories.
type CategoryRepository interface {
	List(ctx context.Context, page PageRequest) ([]domain.Category, int64, error)
	FindByID(ctx context.Context, id string) (*domain.Category, error)
	Create(ctx context.Context, c *domain.Category) (*domain.Category, error)
	Update(ctx context.Context, c *domain.Category) (*domain.Category, error)
	Delete(ctx context.Context, id string) error
}
