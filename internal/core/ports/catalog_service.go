package ports

import (
	"context"

	"github.com/99minutos/shop-admin/internal/core/domain"
)

// ProductInput carries the decoded product form. Images holds the stored
// names of uploaded files.
type ProductInput struct {
	Title          string
	Description    string
	Price          float64
	OldPrice       *float64
	CountInStock   int
	CategoryID     string
	Rating         *float64
	NumReviews     *int
	Colours        []string
	Sizes          []string
	StockStatus    bool
	FreeDelivery   bool
	ReturnDelivery bool
	Images         []string
}

// CatalogService manages products and categories.
type CatalogService interface {
	ListProducts(ctx context.Context, page PageRequest) (*domain.Page[domain.Product], error)
	CreateProduct(ctx context.Context, in ProductInput) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id string, in ProductInput) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error

	ListCategories(ctx context.Context, page PageRequest) (*domain.Page[domain.Category], error)
	CreateCategory(ctx context.Context, name string) (*domain.Category, error)
	UpdateCategory(ctx context.Context, id, name string) (*domain.Category, error)
	DeleteCategory(ctx context.Context, id string) error
}
