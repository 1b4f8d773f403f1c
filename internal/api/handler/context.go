package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/shop-admin/internal/api/middleware"
	"github.com/99minutos/shop-admin/internal/core/ports"
)

// principal extracts the claims injected by the Auth middleware. An empty
// user id means the middleware did not run.
func principal(c echo.Context) (userID, role string, err error) {
	userID, _ = c.Get(middleware.KeyUserID).(string)
	role, _ = c.Get(middleware.KeyRole).(string)
	if userID == "" {
		return "", "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return userID, role, nil
}

// pageParams reads page and limit from the query string. Absent values take
// page 1 and defaultLimit.
func pageParams(c echo.Context, defaultLimit int) (ports.PageRequest, error) {
	page := ports.PageRequest{Page: 1, Limit: defaultLimit}
	if v := c.QueryParam("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return page, badRequest("page must be a positive integer")
		}
		page.Page = n
	}
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return page, badRequest("limit must be a positive integer")
		}
		page.Limit = n
	}
	return page, nil
}
