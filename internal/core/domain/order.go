package domain

import (
	"encoding/json"
	"time"
)

// OrderStatus is the fulfilment state of an order. The server decides which
// transitions are legal; the client enforces only membership in the set.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderDelivered OrderStatus = "delivered"
)

// OrderStatuses lists every known status in display order.
var OrderStatuses = []OrderStatus{OrderPending, OrderConfirmed, OrderDelivered}

// Valid reports whether s is one of the known statuses.
func (s OrderStatus) Valid() bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// OrderLine is one product entry of an order.
type OrderLine struct {
	Product  Product `json:"product"  validate:"-"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// BillingDetails is the buyer's contact and address block.
type BillingDetails struct {
	FirstName     string `json:"firstName"`
	CompanyName   string `json:"companyName,omitempty"`
	StreetAddress string `json:"streetAddress"`
	Apartment     string `json:"apartment,omitempty"`
	City          string `json:"city"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
}

// Operator is a staff account that orders can be assigned to.
type Operator struct {
	ID        string    `json:"_id"      validate:"required"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// Order is a customer order.
type Order struct {
	ID             string         `json:"_id"      validate:"required"`
	Products       []OrderLine    `json:"products"`
	TotalAmount    float64        `json:"totalAmount"`
	Status         OrderStatus    `json:"status"   validate:"omitempty,oneof=pending confirmed delivered"`
	BillingDetails BillingDetails `json:"billingDetails"`
	Operator       *Operator      `json:"operator,omitempty"`
	User           *User          `json:"user,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// StatusCounts breaks order totals down by status.
type StatusCounts struct {
	Pending   int64 `json:"pending"`
	Confirmed int64 `json:"confirmed"`
	Delivered int64 `json:"delivered"`
}

// AdminStats is the admin dashboard summary.
type AdminStats struct {
	TotalOrders    int64        `json:"totalOrders"`
	TotalProducts  int64        `json:"totalProducts"`
	TotalRevenue   float64      `json:"totalRevenue"`
	OrdersByStatus StatusCounts `json:"ordersByStatus"`
}

// UnmarshalJSON accepts either an operator object or a bare id string.
func (o *Operator) UnmarshalJSON(b []byte) error {
	var id string
	if err := json.Unmarshal(b, &id); err == nil {
		*o = Operator{ID: id}
		return nil
	}
	type plain Operator
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*o = Operator(p)
	return nil
}
