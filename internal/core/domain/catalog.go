package domain

import (
	"encoding/json"
	"time"
)

// Category groups products. The server derives Slug from Name.
type Category struct {
	ID        string    `json:"_id"  validate:"required"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// UnmarshalJSON accepts either a full category object or a bare id string,
// since unpopulated references arrive as ids.
func (c *Category) UnmarshalJSON(b []byte) error {
	var id string
	if err := json.Unmarshal(b, &id); err == nil {
		*c = Category{ID: id}
		return nil
	}
	type plain Category
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*c = Category(p)
	return nil
}

// DeliveryOptions flags shipping extras offered for a product.
type DeliveryOptions struct {
	FreeDelivery   bool `json:"freeDelivery"`
	ReturnDelivery bool `json:"returnDelivery"`
}

// Product is a catalog item.
type Product struct {
	ID              string          `json:"_id"  validate:"required"`
	Title           string          `json:"title"`
	Slug            string          `json:"slug"`
	Description     string          `json:"description"`
	Price           float64         `json:"price"`
	OldPrice        *float64        `json:"oldPrice,omitempty"`
	Images          []string        `json:"images"`
	Colours         []string        `json:"colours"`
	Sizes           []string        `json:"sizes"`
	StockStatus     bool            `json:"stockStatus"`
	CountInStock    int             `json:"countInStock"`
	Rating          float64         `json:"rating"`
	NumReviews      int             `json:"numReviews"`
	Category        Category        `json:"category"        validate:"-"`
	DeliveryOptions DeliveryOptions `json:"deliveryOptions"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// ProductResult is returned by product create and update.
type ProductResult struct {
	Message string  `json:"message"`
	Product Product `json:"product"`
}

// Image is one binary attachment of a product form.
type Image struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ProductForm is the multipart payload for product create and update. The
// server is the only validator of its fields.
type ProductForm struct {
	Title          string
	Description    string
	Price          float64
	OldPrice       *float64
	CountInStock   int
	Category       string
	Rating         *float64
	NumReviews     *int
	Colours        []string
	Sizes          []string
	StockStatus    bool
	FreeDelivery   bool
	ReturnDelivery bool
	Images         []Image
}

// Pagination describes where a page sits in the full result set.
type Pagination struct {
	Page  int   `json:"page"  validate:"gte=1"`
	Limit int   `json:"limit" validate:"gte=1"`
	Total int64 `json:"total" validate:"gte=0"`
	Pages int   `json:"pages" validate:"gte=0"`
}

// Page is one page of a listing.
type Page[T any] struct {
	Data       []T        `json:"data"       validate:"dive"`
	Pagination Pagination `json:"pagination"`
}

// TotalPages returns the page count for total records at limit per page.
func TotalPages(total int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}
