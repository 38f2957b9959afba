package http

import (
	"errors"
	"io"
	"log"
	"net/http"

	loanDomain "kopacash/internal/domain/loan"
	"kopacash/internal/payment"
	"kopacash/internal/usecase/loan"

	"github.com/labstack/echo/v4"
)

type LoanHandler struct{ uc *loan.Usecase }

func NewLoanHandler(uc *loan.Usecase) *LoanHandler { return &LoanHandler{uc: uc} }

type applyReq struct {
	Amount        float64 `json:"amount"         validate:"required,gt=0,dec2"`
	PhoneNumber   string  `json:"phone_number"   validate:"required,phone254"`
	Description   string  `json:"description"    validate:"omitempty,max=500"`
	PaymentMethod string  `json:"payment_method" validate:"omitempty,oneof=mpesa airtel card bank mock"`
}

// Apply submits a loan application for the calling user and initiates the
// processing-fee charge.
func (h *LoanHandler) Apply(c echo.Context) error {
	var req applyReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return respond(c, http.StatusUnprocessableEntity, "validation failed", ToFieldErrors(err))
	}

	dto, err := h.uc.Create(c.Request().Context(), loan.CreateInput{
		UserID:        callerID(c),
		Amount:        req.Amount,
		PhoneNumber:   req.PhoneNumber,
		Description:   req.Description,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		return writeErr(c, err)
	}
	msg := "Loan application submitted"
	if dto.FeePending {
		msg = "Loan application created, complete the fee payment on your phone"
	}
	return respond(c, http.StatusCreated, msg, dto)
}

type payFeeReq struct {
	PaymentMethod string `json:"payment_method" validate:"omitempty,oneof=mpesa airtel card bank mock"`
	AccountRef    string `json:"account_ref"    validate:"omitempty,max=64"`
}

func (h *LoanHandler) PayFee(c echo.Context) error {
	var req payFeeReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return respond(c, http.StatusUnprocessableEntity, "validation failed", ToFieldErrors(err))
	}

	dto, err := h.uc.PayFee(c.Request().Context(), loan.PayFeeInput{
		LoanID:        c.Param("loan_id"),
		UserID:        callerID(c),
		PaymentMethod: req.PaymentMethod,
		AccountRef:    req.AccountRef,
	})
	if err != nil {
		return writeErr(c, err)
	}
	msg := "Fee payment settled"
	if !dto.FeePaid {
		msg = "Fee payment initiated, confirm on your phone"
	}
	return respond(c, http.StatusOK, msg, dto)
}

// StkCallback receives the provider's asynchronous fee-payment result.
// Unknown references are acknowledged anyway: the provider retries on
// non-2xx and a retry cannot make an unknown reference known.
func (h *LoanHandler) StkCallback(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return fail(c, http.StatusBadRequest, "unreadable body")
	}
	cb, err := payment.NormalizeCallback(body)
	if err != nil {
		return writeErr(c, err)
	}

	if err := h.uc.ResolveFeeCallback(c.Request().Context(), cb); err != nil {
		if errors.Is(err, loanDomain.ErrNotFound) {
			log.Printf("http: payment callback for unknown reference %s", cb.Reference)
			return respond(c, http.StatusOK, "acknowledged", nil)
		}
		return writeErr(c, err)
	}
	return respond(c, http.StatusOK, "acknowledged", nil)
}

// DisbursementCallback applies the provider's payout completion signal.
func (h *LoanHandler) DisbursementCallback(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return fail(c, http.StatusBadRequest, "unreadable body")
	}
	cb, err := payment.NormalizeCallback(body)
	if err != nil {
		return writeErr(c, err)
	}

	dto, err := h.uc.CompleteDisbursement(c.Request().Context(), cb.Reference, cb.Success)
	if err != nil {
		if errors.Is(err, loanDomain.ErrNotFound) {
			log.Printf("http: disbursement callback for unknown reference %s", cb.Reference)
			return respond(c, http.StatusOK, "acknowledged", nil)
		}
		return writeErr(c, err)
	}
	return respond(c, http.StatusOK, "acknowledged", dto)
}

// Get returns one loan. Owners see their own loans; admins see any.
func (h *LoanHandler) Get(c echo.Context) error {
	dto, err := h.uc.Get(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return writeErr(c, err)
	}
	if !isAdmin(c) && dto.UserID != callerID(c) {
		return fail(c, http.StatusNotFound, loanDomain.ErrNotFound.Error())
	}
	return respond(c, http.StatusOK, "", dto)
}
