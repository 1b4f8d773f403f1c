package memory

import (
	"context"
	"strings"

	"github.com/99minutos/shop-admin/internal/core/domain"
	"github.com/99minutos/shop-admin/internal/core/ports"
)

// CategoryRepository implements ports.CategoryRepository. Names are unique
// case-insensitively.
type CategoryRepository struct{ s *Store }

func (r *CategoryRepository) List(_ context.Context, page ports.PageRequest) ([]domain.Category, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	ids := newestFirst(r.s.categoryIDs, page)
	out := make([]domain.Category, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.s.categories[id])
	}
	return out, int64(len(r.s.categoryIDs)), nil
}

func (r *CategoryRepository) FindByID(_ context.Context, id string) (*domain.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.categories[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

func (r *CategoryRepository) Create(_ context.Context, c *domain.Category) (*domain.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.nameTaken(c.Name, "") {
		return nil, domain.ErrConflict
	}
	created := *c
	created.ID = newID()
	r.s.categories[created.ID] = created
	r.s.categoryIDs = append(r.s.categoryIDs, created.ID)
	return &created, nil
}

func (r *CategoryRepository) Update(_ context.Context, c *domain.Category) (*domain.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.categories[c.ID]; !ok {
		return nil, domain.ErrNotFound
	}
	if r.nameTaken(c.Name, c.ID) {
		return nil, domain.ErrConflict
	}
	r.s.categories[c.ID] = *c
	updated := *c
	return &updated, nil
}

func (r *CategoryRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.categories[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.categories, id)
	r.s.categoryIDs = removeID(r.s.categoryIDs, id)
	return nil
}

// nameTaken must be called with the lock held.
func (r *CategoryRepository) nameTaken(name, exceptID string) bool {
	for id, c := range r.s.categories {
		if id != exceptID && strings.EqualFold(c.Name, name) {
			return true
		}
	}
	return false
}

// ProductRepository implements ports.ProductRepository. The category is
// stored by id and populated on read, so renames show up immediately.
type ProductRepository struct{ s *Store }

func (r *ProductRepository) List(_ context.Context, page ports.PageRequest) ([]domain.Product, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	ids := newestFirst(r.s.productIDs, page)
	out := make([]domain.Product, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.populate(r.s.products[id]))
	}
	return out, int64(len(r.s.productIDs)), nil
}

func (r *ProductRepository) FindByID(_ context.Context, id string) (*domain.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	p = r.populate(p)
	return &p, nil
}

func (r *ProductRepository) Create(_ context.Context, p *domain.Product) (*domain.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	created := copyProduct(*p)
	created.ID = newID()
	r.s.products[created.ID] = created
	r.s.productIDs = append(r.s.productIDs, created.ID)
	out := r.populate(created)
	return &out, nil
}

func (r *ProductRepository) Update(_ context.Context, p *domain.Product) (*domain.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.products[p.ID]; !ok {
		return nil, domain.ErrNotFound
	}
	r.s.products[p.ID] = copyProduct(*p)
	out := r.populate(r.s.products[p.ID])
	return &out, nil
}

func (r *ProductRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.products[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.products, id)
	r.s.productIDs = removeID(r.s.productIDs, id)
	return nil
}

func (r *ProductRepository) Count(_ context.Context) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.s.products)), nil
}

// populate must be called with the lock held. A deleted category leaves the
// bare id behind.
func (r *ProductRepository) populate(p domain.Product) domain.Product {
	p = copyProduct(p)
	if c, ok := r.s.categories[p.Category.ID]; ok {
		p.Category = c
	} else {
		p.Category = domain.Category{ID: p.Category.ID}
	}
	return p
}

func copyProduct(p domain.Product) domain.Product {
	p.Images = cloneStrings(p.Images)
	p.Colours = cloneStrings(p.Colours)
	p.Sizes = cloneStrings(p.Sizes)
	if p.OldPrice != nil {
		v := *p.OldPrice
		p.OldPrice = &v
	}
	return p
}
