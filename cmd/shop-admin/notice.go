package main

import (
	"errors"
	"net/http"

	"github.com/99minutos/shop-admin/internal/core/domain"
)

const genericFailure = "something went wrong, try again"

// failureNotice renders the one-line message shown when op fails. Errors the
// console does not recognise get the generic text.
func failureNotice(op string, err error) string {
	return op + " failed: " + reason(err)
}

func reason(err error) string {
	var (
		authErr *domain.AuthError
		reqErr  *domain.RequestError
		valErr  *domain.ValidationError
	)
	switch {
	case errors.Is(err, domain.ErrPanelForbidden):
		return "your role cannot open this panel"
	case errors.Is(err, domain.ErrNotAuthenticated):
		return "not signed in"
	case errors.As(err, &authErr):
		if authErr.Detail != "" {
			return authErr.Detail
		}
		return "please sign in again"
	case errors.As(err, &valErr):
		return valErr.Error()
	case errors.As(err, &reqErr):
		if reqErr.StatusCode == 0 {
			return "server unreachable"
		}
		if reqErr.Message != "" {
			return reqErr.Message
		}
		return http.StatusText(reqErr.StatusCode)
	}
	return genericFailure
}
