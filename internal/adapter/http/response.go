package http

import (
	"errors"
	"net/http"

	loanDomain "kopacash/internal/domain/loan"
	"kopacash/internal/domain/settings"
	"kopacash/internal/domain/transaction"
	userDomain "kopacash/internal/domain/user"
	"kopacash/internal/payment"

	"github.com/labstack/echo/v4"
)

// Response is the envelope every route answers with.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func respond(c echo.Context, code int, message string, data any) error {
	return c.JSON(code, Response{Success: code < 400, Message: message, Data: data})
}

func fail(c echo.Context, code int, message string) error {
	return respond(c, code, message, nil)
}

// writeErr maps domain errors onto HTTP status codes. Unknown errors stay
// opaque 500s so internals never leak through the envelope.
func writeErr(c echo.Context, err error) error {
	switch {
	case errors.Is(err, loanDomain.ErrValidation),
		errors.Is(err, loanDomain.ErrNotEligible),
		errors.Is(err, payment.ErrUnknownMethod),
		errors.Is(err, payment.ErrBadCallback):
		return fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, loanDomain.ErrNotFound),
		errors.Is(err, userDomain.ErrNotFound),
		errors.Is(err, transaction.ErrNotFound),
		errors.Is(err, settings.ErrNotFound):
		return fail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, loanDomain.ErrStateConflict),
		errors.Is(err, loanDomain.ErrCriteriaNotMet),
		errors.Is(err, settings.ErrNotEditable):
		return fail(c, http.StatusConflict, err.Error())
	case errors.Is(err, payment.ErrProviderTimeout):
		return fail(c, http.StatusGatewayTimeout, err.Error())
	case errors.Is(err, payment.ErrProvider):
		return fail(c, http.StatusBadGateway, err.Error())
	}
	return fail(c, http.StatusInternalServerError, "internal error")
}

// Identity headers placed by the upstream gateway; authentication itself
// is an external collaborator.
const (
	HeaderUserID   = "X-User-Id"
	HeaderUserRole = "X-User-Role"
)

func callerID(c echo.Context) string { return c.Request().Header.Get(HeaderUserID) }

func isAdmin(c echo.Context) bool {
	return c.Request().Header.Get(HeaderUserRole) == userDomain.RoleAdmin
}

// RequireUser rejects requests without a caller identity.
func RequireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if callerID(c) == "" {
			return fail(c, http.StatusUnauthorized, "missing caller identity")
		}
		return next(c)
	}
}

// RequireAdmin guards the admin surface.
func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if callerID(c) == "" {
			return fail(c, http.StatusUnauthorized, "missing caller identity")
		}
		if !isAdmin(c) {
			return fail(c, http.StatusForbidden, "admin role required")
		}
		return next(c)
	}
}
