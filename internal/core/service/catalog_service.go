package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/99minutos/shop-admin/internal/core/domain"
	"github.com/99minutos/shop-admin/internal/core/ports"
)

type CatalogService struct {
	products   ports.ProductRepository
	categories ports.CategoryRepository
	log        zerolog.Logger
}

func NewCatalogService(products ports.ProductRepository, categories ports.CategoryRepository, log zerolog.Logger) *CatalogService {
	return &CatalogService{products: products, categories: categories, log: log}
}

func (s *CatalogService) ListProducts(ctx context.Context, page ports.PageRequest) (*domain.Page[domain.Product], error) {
	page = normalizePage(page)
	items, total, err := s.products.List(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return newPage(items, total, page), nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, in ports.ProductInput) (*domain.Product, error) {
	category, err := s.checkProduct(ctx, in)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	p := &domain.Product{CreatedAt: now}
	applyProductInput(p, in, *category, now)

	created, err := s.products.Create(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	s.log.Info().Str("product_id", created.ID).Str("slug", created.Slug).Msg("product created")
	return created, nil
}

// UpdateProduct replaces every field of the product. Images are kept when the
// update carries none.
func (s *CatalogService) UpdateProduct(ctx context.Context, id string, in ports.ProductInput) (*domain.Product, error) {
	existing, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	category, err := s.checkProduct(ctx, in)
	if err != nil {
		return nil, err
	}
	if len(in.Images) == 0 {
		in.Images = existing.Images
	}

	applyProductInput(existing, in, *category, time.Now().UTC())
	updated, err := s.products.Update(ctx, existing)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id string) error {
	return s.products.Delete(ctx, id)
}

func (s *CatalogService) checkProduct(ctx context.Context, in ports.ProductInput) (*domain.Category, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	}
	if in.Price < 0 || in.CountInStock < 0 {
		return nil, fmt.Errorf("%w: price and countInStock must not be negative", domain.ErrInvalidInput)
	}
	if in.CategoryID == "" {
		return nil, fmt.Errorf("%w: category is required", domain.ErrInvalidInput)
	}
	category, err := s.categories.FindByID(ctx, in.CategoryID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: unknown category %q", domain.ErrInvalidInput, in.CategoryID)
	}
	if err != nil {
		return nil, err
	}
	return category, nil
}

func applyProductInput(p *domain.Product, in ports.ProductInput, category domain.Category, now time.Time) {
	p.Title = strings.TrimSpace(in.Title)
	p.Slug = Slugify(p.Title)
	p.Description = in.Description
	p.Price = in.Price
	p.OldPrice = in.OldPrice
	p.CountInStock = in.CountInStock
	p.Category = category
	p.Colours = nonNil(in.Colours)
	p.Sizes = nonNil(in.Sizes)
	p.Images = nonNil(in.Images)
	p.StockStatus = in.StockStatus
	p.DeliveryOptions = domain.DeliveryOptions{
		FreeDelivery:   in.FreeDelivery,
		ReturnDelivery: in.ReturnDelivery,
	}
	if in.Rating != nil {
		p.Rating = *in.Rating
	}
	if in.NumReviews != nil {
		p.NumReviews = *in.NumReviews
	}
	p.UpdatedAt = now
}

func (s *CatalogService) ListCategories(ctx context.Context, page ports.PageRequest) (*domain.Page[domain.Category], error) {
	page = normalizePage(page)
	items, total, err := s.categories.List(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return newPage(items, total, page), nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, name string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	now := time.Now().UTC()
	created, err := s.categories.Create(ctx, &domain.Category{
		Name:      name,
		Slug:      Slugify(name),
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("category_id", created.ID).Str("slug", created.Slug).Msg("category created")
	return created, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id, name string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	existing, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	existing.Name = name
	existing.Slug = Slugify(name)
	existing.UpdatedAt = time.Now().UTC()
	return s.categories.Update(ctx, existing)
}

func (s *CatalogService) DeleteCategory(ctx context.Context, id string) error {
	return s.categories.Delete(ctx, id)
}

// Slugify lowercases s and joins its alphanumeric runs with hyphens.
func Slugify(s string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			pendingDash = false
			continue
		}
		pendingDash = true
	}
	return b.String()
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
