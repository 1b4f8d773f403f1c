package adminapi

import (
	"context"
	"net/http"
	"strconv"

	"github.com/99minutos/shop-admin/internal/client/transport"
	"github.com/99minutos/shop-admin/internal/core/domain"
)

type categoryRequest struct {
	Name string `json:"name" validate:"required"`
}

// ListProducts returns one page of products. The listing is public but the
// token is still attached when held.
func (c *Client) ListProducts(ctx context.Context, q PageQuery) (*domain.Page[domain.Product], error) {
	q = q.withDefaults(defaultPageLimit)
	if err := c.check(q); err != nil {
		return nil, err
	}
	var page domain.Page[domain.Product]
	if err := c.getJSON(ctx, "/products", pageValues(q), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// CreateProduct uploads a new product as a multipart form.
func (c *Client) CreateProduct(ctx context.Context, form domain.ProductForm) (*domain.ProductResult, error) {
	return c.submitProduct(ctx, http.MethodPost, "/products", form)
}

// UpdateProduct replaces a product's fields and images.
func (c *Client) UpdateProduct(ctx context.Context, id string, form domain.ProductForm) (*domain.ProductResult, error) {
	if err := c.checkID("id", id); err != nil {
		return nil, err
	}
	return c.submitProduct(ctx, http.MethodPut, "/products/"+escape(id), form)
}

func (c *Client) submitProduct(ctx context.Context, method, path string, form domain.ProductForm) (*domain.ProductResult, error) {
	fields, order, files := productFields(form)
	req, err := transport.NewMultipartRequest(method, c.endpoint(path, nil), fields, order, files)
	if err != nil {
		return nil, err
	}
	resp, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}
	var result domain.ProductResult
	if err := c.decode(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// DeleteProduct removes a product.
func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	if err := c.checkID("id", id); err != nil {
		return err
	}
	_, err := c.send(ctx, transport.NewRequest(http.MethodDelete, c.endpoint("/products/"+escape(id), nil)))
	return err
}

// ListCategories returns one page of categories, 100 per page by default.
func (c *Client) ListCategories(ctx context.Context, q PageQuery) (*domain.Page[domain.Category], error) {
	q = q.withDefaults(defaultCategoryLimit)
	if err := c.check(q); err != nil {
		return nil, err
	}
	var page domain.Page[domain.Category]
	if err := c.getJSON(ctx, "/category", pageValues(q), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// CreateCategory adds a category; the server derives its slug.
func (c *Client) CreateCategory(ctx context.Context, name string) (*domain.Category, error) {
	body := categoryRequest{Name: name}
	if err := c.check(body); err != nil {
		return nil, err
	}
	var cat domain.Category
	if err := c.sendJSON(ctx, http.MethodPost, "/category/create", body, &cat); err != nil {
		return nil, err
	}
	return &cat, nil
}

// UpdateCategory renames a category.
func (c *Client) UpdateCategory(ctx context.Context, id, name string) (*domain.Category, error) {
	if err := c.checkID("id", id); err != nil {
		return nil, err
	}
	body := categoryRequest{Name: name}
	if err := c.check(body); err != nil {
		return nil, err
	}
	var cat domain.Category
	if err := c.sendJSON(ctx, http.MethodPut, "/category/"+escape(id), body, &cat); err != nil {
		return nil, err
	}
	return &cat, nil
}

// DeleteCategory removes a category.
func (c *Client) DeleteCategory(ctx context.Context, id string) error {
	if err := c.checkID("id", id); err != nil {
		return err
	}
	_, err := c.send(ctx, transport.NewRequest(http.MethodDelete, c.endpoint("/category/"+escape(id), nil)))
	return err
}

// productFields flattens a form into multipart fields. Repeated values
// become repeated parts; booleans are sent as "true"/"false".
func productFields(f domain.ProductForm) (map[string][]string, []string, []transport.FormFile) {
	fields := map[string][]string{
		"title":          {f.Title},
		"description":    {f.Description},
		"price":          {formatFloat(f.Price)},
		"countInStock":   {strconv.Itoa(f.CountInStock)},
		"category":       {f.Category},
		"colours":        f.Colours,
		"sizes":          f.Sizes,
		"stockStatus":    {strconv.FormatBool(f.StockStatus)},
		"freeDelivery":   {strconv.FormatBool(f.FreeDelivery)},
		"returnDelivery": {strconv.FormatBool(f.ReturnDelivery)},
	}
	if f.OldPrice != nil {
		fields["oldPrice"] = []string{formatFloat(*f.OldPrice)}
	}
	if f.Rating != nil {
		fields["rating"] = []string{formatFloat(*f.Rating)}
	}
	if f.NumReviews != nil {
		fields["numReviews"] = []string{strconv.Itoa(*f.NumReviews)}
	}

	order := []string{
		"title", "description", "price", "oldPrice", "countInStock", "category",
		"rating", "numReviews", "colours", "sizes",
		"stockStatus", "freeDelivery", "returnDelivery",
	}

	files := make([]transport.FormFile, 0, len(f.Images))
	for _, img := range f.Images {
		files = append(files, transport.FormFile{
			Field:       "images",
			Filename:    img.Filename,
			ContentType: img.ContentType,
			Data:        img.Data,
		})
	}
	return fields, order, files
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
