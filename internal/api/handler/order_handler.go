package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/shop-admin/internal/api/metrics"
	"github.com/99minutos/shop-admin/internal/core/domain"
	"github.com/99minutos/shop-admin/internal/core/ports"
)

const defaultOrderLimit = 10

type OrderHandler struct {
	orders ports.OrderService
}

func NewOrderHandler(orders ports.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

type statusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed delivered"`
}

type assignRequest struct {
	OrderID    string `json:"orderId"    validate:"required"`
	OperatorID string `json:"operatorId" validate:"required"`
}

// ListOrders returns one page of every order.
//
// @Summary      List all orders
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number"
// @Param        limit  query     int  false  "Page size"
// @Success      200    {object}  domain.Page[domain.Order]
// @Failure      403    {object}  ErrorResponse
// @Router       /operator/orders [get]
func (h *OrderHandler) ListOrders(c echo.Context) error {
	page, err := pageParams(c, defaultOrderLimit)
	if err != nil {
		return err
	}
	result, err := h.orders.List(c.Request().Context(), ports.OrderFilter{Page: page})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// ListMyOrders returns one page of the orders assigned to the caller.
//
// @Summary      List my orders
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number"
// @Param        limit  query     int  false  "Page size"
// @Success      200    {object}  domain.Page[domain.Order]
// @Router       /operator/my-orders [get]
func (h *OrderHandler) ListMyOrders(c echo.Context) error {
	userID, _, err := principal(c)
	if err != nil {
		return err
	}
	page, err := pageParams(c, defaultOrderLimit)
	if err != nil {
		return err
	}
	result, err := h.orders.List(c.Request().Context(), ports.OrderFilter{OperatorID: userID, Page: page})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// GetOrder
//
// @Summary      Get order
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  domain.Order
// @Failure      404  {object}  ErrorResponse
// @Router       /operator/orders/{id} [get]
func (h *OrderHandler) GetOrder(c echo.Context) error {
	order, err := h.orders.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, order)
}

// UpdateStatus sets an order's status.
//
// @Summary      Update order status
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string         true  "Order ID"
// @Param        body  body      statusRequest  true  "New status"
// @Success      200   {object}  domain.Order
// @Failure      400   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Router       /operator/orders/{id}/status [put]
func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	order, err := h.orders.UpdateStatus(c.Request().Context(), c.Param("id"), domain.OrderStatus(req.Status))
	if err != nil {
		return err
	}
	metrics.OrderStatusChangesTotal.WithLabelValues(req.Status).Inc()
	return c.JSON(http.StatusOK, order)
}

// Assign hands an order to an operator.
//
// @Summary      Assign order
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      assignRequest  true  "Assignment"
// @Success      200   {object}  domain.Order
// @Failure      400   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Router       /operator/orders/assign [post]
func (h *OrderHandler) Assign(c echo.Context) error {
	var req assignRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	order, err := h.orders.Assign(c.Request().Context(), req.OrderID, req.OperatorID)
	if err != nil {
		return err
	}
	metrics.OrderAssignmentsTotal.Inc()
	return c.JSON(http.StatusOK, order)
}

// ListOperators
//
// @Summary      List operators
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  domain.Operator
// @Router       /operator/operators [get]
func (h *OrderHandler) ListOperators(c echo.Context) error {
	ops, err := h.orders.Operators(c.Request().Context())
	if err != nil {
		return err
	}
	if ops == nil {
		ops = []domain.Operator{}
	}
	return c.JSON(http.StatusOK, ops)
}

// Stats returns the admin dashboard totals.
//
// @Summary      Admin stats
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.AdminStats
// @Router       /operator/admin/stats [get]
func (h *OrderHandler) Stats(c echo.Context) error {
	stats, err := h.orders.Stats(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}
