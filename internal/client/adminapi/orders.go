package adminapi

import (
	"context"
	"net/http"

	"github.com/99minutos/shop-admin/internal/core/domain"
)

type statusRequest struct {
	Status domain.OrderStatus `json:"status" validate:"required,oneof=pending confirmed delivered"`
}

type assignRequest struct {
	OrderID    string `json:"orderId"    validate:"required"`
	OperatorID string `json:"operatorId" validate:"required"`
}

// ListOrders returns one page of every order (admin view).
func (c *Client) ListOrders(ctx context.Context, q PageQuery) (*domain.Page[domain.Order], error) {
	return c.listOrders(ctx, "/operator/orders", q)
}

// ListMyOrders returns one page of the orders assigned to the caller.
func (c *Client) ListMyOrders(ctx context.Context, q PageQuery) (*domain.Page[domain.Order], error) {
	return c.listOrders(ctx, "/operator/my-orders", q)
}

func (c *Client) listOrders(ctx context.Context, path string, q PageQuery) (*domain.Page[domain.Order], error) {
	q = q.withDefaults(defaultPageLimit)
	if err := c.check(q); err != nil {
		return nil, err
	}
	var page domain.Page[domain.Order]
	if err := c.getJSON(ctx, path, pageValues(q), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetOrder returns one order.
func (c *Client) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	if err := c.checkID("id", id); err != nil {
		return nil, err
	}
	var order domain.Order
	if err := c.getJSON(ctx, "/operator/orders/"+escape(id), nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateOrderStatus sets an order's status. Any known status is accepted;
// the server decides whether the transition is allowed.
func (c *Client) UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	if err := c.checkID("id", id); err != nil {
		return nil, err
	}
	body := statusRequest{Status: status}
	if err := c.check(body); err != nil {
		return nil, err
	}
	var order domain.Order
	if err := c.sendJSON(ctx, http.MethodPut, "/operator/orders/"+escape(id)+"/status", body, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// AssignOrder sets the operator handling an order, replacing any previous one.
func (c *Client) AssignOrder(ctx context.Context, orderID, operatorID string) (*domain.Order, error) {
	body := assignRequest{OrderID: orderID, OperatorID: operatorID}
	if err := c.check(body); err != nil {
		return nil, err
	}
	var order domain.Order
	if err := c.sendJSON(ctx, http.MethodPost, "/operator/orders/assign", body, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// ListOperators returns every account with the operator role.
func (c *Client) ListOperators(ctx context.Context) ([]domain.Operator, error) {
	var ops []domain.Operator
	if err := c.getJSON(ctx, "/operator/operators", nil, &ops); err != nil {
		return nil, err
	}
	return ops, nil
}

// AdminStats returns the dashboard totals.
func (c *Client) AdminStats(ctx context.Context) (*domain.AdminStats, error) {
	var stats domain.AdminStats
	if err := c.getJSON(ctx, "/operator/admin/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}
