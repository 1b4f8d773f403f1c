package handler

import (
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/99minutos/shop-admin/internal/api/metrics"
	"github.com/99minutos/shop-admin/internal/core/domain"
	"github.com/99minutos/shop-admin/internal/core/ports"
)

const (
	defaultProductLimit  = 10
	defaultCategoryLimit = 100

	// uploadPrefix is the public path under which stored image names live.
	uploadPrefix = "/uploads/"
	// maxFormMemory bounds the in-memory part of a product form.
	maxFormMemory = 10 << 20
)

type CatalogHandler struct {
	catalog ports.CatalogService
}

func NewCatalogHandler(catalog ports.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

type categoryRequest struct {
	Name string `json:"name" validate:"required"`
}

// ListProducts returns one page of products.
//
// @Summary      List products
// @Tags         products
// @Produce      json
// @Param        page   query     int  false  "Page number"
// @Param        limit  query     int  false  "Page size"
// @Success      200    {object}  domain.Page[domain.Product]
// @Router       /products [get]
func (h *CatalogHandler) ListProducts(c echo.Context) error {
	page, err := pageParams(c, defaultProductLimit)
	if err != nil {
		return err
	}
	result, err := h.catalog.ListProducts(c.Request().Context(), page)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// CreateProduct stores a product from a multipart form.
//
// @Summary      Create product
// @Tags         products
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Success      201  {object}  domain.ProductResult
// @Failure      400  {object}  ErrorResponse
// @Router       /products [post]
func (h *CatalogHandler) CreateProduct(c echo.Context) error {
	in, err := productInput(c)
	if err != nil {
		return err
	}
	p, err := h.catalog.CreateProduct(c.Request().Context(), in)
	if err != nil {
		return err
	}
	metrics.CatalogChangesTotal.WithLabelValues("product", "create").Inc()
	return c.JSON(http.StatusCreated, domain.ProductResult{Message: "product created", Product: *p})
}

// UpdateProduct replaces a product from a multipart form.
//
// @Summary      Update product
// @Tags         products
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  domain.ProductResult
// @Failure      404  {object}  ErrorResponse
// @Router       /products/{id} [put]
func (h *CatalogHandler) UpdateProduct(c echo.Context) error {
	in, err := productInput(c)
	if err != nil {
		return err
	}
	p, err := h.catalog.UpdateProduct(c.Request().Context(), c.Param("id"), in)
	if err != nil {
		return err
	}
	metrics.CatalogChangesTotal.WithLabelValues("product", "update").Inc()
	return c.JSON(http.StatusOK, domain.ProductResult{Message: "product updated", Product: *p})
}

// DeleteProduct
//
// @Summary      Delete product
// @Tags         products
// @Security     BearerAuth
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  messageResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /products/{id} [delete]
func (h *CatalogHandler) DeleteProduct(c echo.Context) error {
	if err := h.catalog.DeleteProduct(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	metrics.CatalogChangesTotal.WithLabelValues("product", "delete").Inc()
	return c.JSON(http.StatusOK, messageResponse{Message: "product deleted"})
}

// ListCategories returns one page of categories.
//
// @Summary      List categories
// @Tags         categories
// @Produce      json
// @Param        page   query     int  false  "Page number"
// @Param        limit  query     int  false  "Page size"
// @Success      200    {object}  domain.Page[domain.Category]
// @Router       /category [get]
func (h *CatalogHandler) ListCategories(c echo.Context) error {
	page, err := pageParams(c, defaultCategoryLimit)
	if err != nil {
		return err
	}
	result, err := h.catalog.ListCategories(c.Request().Context(), page)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// CreateCategory
//
// @Summary      Create category
// @Tags         categories
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      categoryRequest  true  "Category"
// @Success      201   {object}  domain.Category
// @Failure      409   {object}  ErrorResponse
// @Router       /category/create [post]
func (h *CatalogHandler) CreateCategory(c echo.Context) error {
	var req categoryRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	cat, err := h.catalog.CreateCategory(c.Request().Context(), req.Name)
	if err != nil {
		return err
	}
	metrics.CatalogChangesTotal.WithLabelValues("category", "create").Inc()
	return c.JSON(http.StatusCreated, cat)
}

// UpdateCategory
//
// @Summary      Rename category
// @Tags         categories
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string           true  "Category ID"
// @Param        body  body      categoryRequest  true  "Category"
// @Success      200   {object}  domain.Category
// @Failure      404   {object}  ErrorResponse
// @Router       /category/{id} [put]
func (h *CatalogHandler) UpdateCategory(c echo.Context) error {
	var req categoryRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	cat, err := h.catalog.UpdateCategory(c.Request().Context(), c.Param("id"), req.Name)
	if err != nil {
		return err
	}
	metrics.CatalogChangesTotal.WithLabelValues("category", "update").Inc()
	return c.JSON(http.StatusOK, cat)
}

// DeleteCategory
//
// @Summary      Delete category
// @Tags         categories
// @Security     BearerAuth
// @Param        id   path      string  true  "Category ID"
// @Success      200  {object}  messageResponse
// @Router       /category/{id} [delete]
func (h *CatalogHandler) DeleteCategory(c echo.Context) error {
	if err := h.catalog.DeleteCategory(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	metrics.CatalogChangesTotal.WithLabelValues("category", "delete").Inc()
	return c.JSON(http.StatusOK, messageResponse{Message: "category deleted"})
}

// productInput decodes the multipart product form. Image bytes are not
// kept; each upload gets a stored name under uploadPrefix.
func productInput(c echo.Context) (ports.ProductInput, error) {
	var in ports.ProductInput
	if err := c.Request().ParseMultipartForm(maxFormMemory); err != nil {
		return in, badRequest("invalid multipart form")
	}
	form := c.Request().MultipartForm

	get := func(key string) string {
		if v := form.Value[key]; len(v) > 0 {
			return strings.TrimSpace(v[0])
		}
		return ""
	}

	var err error
	in.Title = get("title")
	in.Description = get("description")
	in.CategoryID = get("category")
	if in.Price, err = parseFloat("price", get("price")); err != nil {
		return in, err
	}
	if in.CountInStock, err = parseInt("countInStock", get("countInStock")); err != nil {
		return in, err
	}
	if v := get("oldPrice"); v != "" {
		f, err := parseFloat("oldPrice", v)
		if err != nil {
			return in, err
		}
		in.OldPrice = &f
	}
	if v := get("rating"); v != "" {
		f, err := parseFloat("rating", v)
		if err != nil {
			return in, err
		}
		in.Rating = &f
	}
	if v := get("numReviews"); v != "" {
		n, err := parseInt("numReviews", v)
		if err != nil {
			return in, err
		}
		in.NumReviews = &n
	}
	in.Colours = splitValues(form.Value["colours"])
	in.Sizes = splitValues(form.Value["sizes"])
	in.StockStatus = get("stockStatus") == "true"
	in.FreeDelivery = get("freeDelivery") == "true"
	in.ReturnDelivery = get("returnDelivery") == "true"

	for _, fh := range form.File["images"] {
		in.Images = append(in.Images, uploadPrefix+uuid.NewString()+strings.ToLower(filepath.Ext(fh.Filename)))
	}
	return in, nil
}

func parseFloat(field, v string) (float64, error) {
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, badRequest("%s must be a number", field)
	}
	return f, nil
}

func parseInt(field, v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, badRequest("%s must be an integer", field)
	}
	return n, nil
}

// splitValues flattens repeated form values, also splitting comma lists.
func splitValues(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
