package http

import (
	"net/http"

	"kopacash/internal/usecase/eligibility"
	"kopacash/internal/usecase/loan"

	"github.com/labstack/echo/v4"
)

type UserHandler struct {
	loans       *loan.Usecase
	eligibility *eligibility.Service
}

func NewUserHandler(loans *loan.Usecase, el *eligibility.Service) *UserHandler {
	return &UserHandler{loans: loans, eligibility: el}
}

// Eligibility reports what the calling user could currently borrow.
func (h *UserHandler) Eligibility(c echo.Context) error {
	res, err := h.eligibility.Check(c.Request().Context(), callerID(c))
	if err != nil {
		return writeErr(c, err)
	}
	return respond(c, http.StatusOK, "", res)
}

// Loans lists the calling user's loan history, newest first.
func (h *UserHandler) Loans(c echo.Context) error {
	out, err := h.loans.ListByUser(c.Request().Context(), callerID(c))
	if err != nil {
		return writeErr(c, err)
	}
	return respond(c, http.StatusOK, "", out)
}

// Transactions lists the calling user's payment history, newest first.
func (h *UserHandler) Transactions(c echo.Context) error {
	out, err := h.loans.TransactionsByUser(c.Request().Context(), callerID(c))
	if err != nil {
		return writeErr(c, err)
	}
	return respond(c, http.StatusOK, "", out)
}
