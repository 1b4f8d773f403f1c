package memory

import (
	"context"

	"github.com/99minutos/shop-admin/internal/core/domain"
	"github.com/99minutos/shop-admin/internal/core/ports"
)

// OrderRepository implements ports.OrderRepository.
type OrderRepository struct{ s *Store }

func (r *OrderRepository) Insert(_ context.Context, o *domain.Order) (*domain.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	created := copyOrder(*o)
	created.ID = newID()
	r.s.orders[created.ID] = created
	r.s.orderIDs = append(r.s.orderIDs, created.ID)
	out := copyOrder(created)
	return &out, nil
}

func (r *OrderRepository) List(_ context.Context, filter ports.OrderFilter) ([]domain.Order, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	matching := r.s.orderIDs
	if filter.OperatorID != "" {
		matching = nil
		for _, id := range r.s.orderIDs {
			if op := r.s.orders[id].Operator; op != nil && op.ID == filter.OperatorID {
				matching = append(matching, id)
			}
		}
	}

	ids := newestFirst(matching, filter.Page)
	out := make([]domain.Order, 0, len(ids))
	for _, id := range ids {
		out = append(out, copyOrder(r.s.orders[id]))
	}
	return out, int64(len(matching)), nil
}

func (r *OrderRepository) FindByID(_ context.Context, id string) (*domain.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	o, ok := r.s.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	o = copyOrder(o)
	return &o, nil
}

func (r *OrderRepository) UpdateStatus(_ context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	return r.mutate(id, func(o *domain.Order) { o.Status = status })
}

func (r *OrderRepository) Assign(_ context.Context, id string, operator domain.Operator) (*domain.Order, error) {
	return r.mutate(id, func(o *domain.Order) { o.Operator = &operator })
}

func (r *OrderRepository) Stats(_ context.Context) (domain.StatusCounts, float64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var counts domain.StatusCounts
	var revenue float64
	for _, o := range r.s.orders {
		switch o.Status {
		case domain.OrderPending:
			counts.Pending++
		case domain.OrderConfirmed:
			counts.Confirmed++
		case domain.OrderDelivered:
			counts.Delivered++
		}
		revenue += o.TotalAmount
	}
	return counts, revenue, nil
}

func (r *OrderRepository) mutate(id string, fn func(*domain.Order)) (*domain.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	fn(&o)
	o.UpdatedAt = r.s.now().UTC()
	r.s.orders[id] = o
	out := copyOrder(o)
	return &out, nil
}

func copyOrder(o domain.Order) domain.Order {
	o.Products = append([]domain.OrderLine(nil), o.Products...)
	if o.Operator != nil {
		op := *o.Operator
		o.Operator = &op
	}
	if o.User != nil {
		u := *o.User
		o.User = &u
	}
	return o
}
