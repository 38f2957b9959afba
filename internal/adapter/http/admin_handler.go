package http

import (
	"errors"
	"net/http"
	"strconv"

	loanDomain "kopacash/internal/domain/loan"
	"kopacash/internal/usecase/admin"

	"github.com/labstack/echo/v4"
)

type AdminHandler struct{ uc *admin.Usecase }

func NewAdminHandler(uc *admin.Usecase) *AdminHandler { return &AdminHandler{uc: uc} }

func (h *AdminHandler) Approve(c echo.Context) error {
	dto, err := h.uc.Approve(c.Request().Context(), c.Param("loan_id"), callerID(c))
	if err != nil {
		return writeErr(c, err)
	}
	return respond(c, http.StatusOK, "Loan approved", dto)
}

func (h *AdminHandler) AutoApprove(c echo.Context) error {
	dto, crit, err := h.uc.AutoApprove(c.Request().Context(), c.Param("loan_id"), callerID(c))
	if err != nil {
		if errors.Is(err, loanDomain.ErrCriteriaNotMet) {
			// The breakdown tells the reviewer which checks failed.
			return respond(c, http.StatusConflict, "auto-approval criteria not met", crit)
		}
		return writeErr(c, err)
	}
	return respond(c, http.StatusOK, "Loan auto-approved", map[string]any{
		"loan":     dto,
		"criteria": crit,
	})
}

func (h *AdminHandler) SpecialApprove(c echo.Context) error {
	dto, err := h.uc.SpecialApprove(c.Request().Context(), c.Param("loan_id"), callerID(c))
	if err != nil {
		return writeErr(c, err)
	}
	return respond(c, http.StatusOK, "Loan specially approved", dto)
}

type rejectReq struct {
	Reason string `json:"reason" validate:"required,min=3,max=500"`
}

func (h *AdminHandler) Reject(c echo.Context) error {
	var req rejectReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return respond(c, http.StatusUnprocessableEntity, "validation failed", ToFieldErrors(err))
	}

	dto, err := h.uc.Reject(c.Request().Context(), c.Param("loan_id"), callerID(c), req.Reason)
	if err != nil {
		return writeErr(c, err)
	}
	return respond(c, http.StatusOK, "Loan rejected", dto)
}

func (h *AdminHandler) Disburse(c echo.Context) error {
	dto, err := h.uc.InitiateDisbursement(c.Request().Context(), c.Param("loan_id"), callerID(c))
	if err != nil {
		return writeErr(c, err)
	}
	return respond(c, http.StatusOK, "Disbursement initiated", dto)
}

func (h *AdminHandler) Refund(c echo.Context) error {
	dto, err := h.uc.ProcessRefund(c.Request().Context(), c.Param("loan_id"), callerID(c))
	if err != nil {
		return writeErr(c, err)
	}
	return respond(c, http.StatusOK, "Refund processed", dto)
}

func (h *AdminHandler) MarkDefaulted(c echo.Context) error {
	dto, err := h.uc.MarkDefaulted(c.Request().Context(), c.Param("loan_id"), callerID(c))
	if err != nil {
		return writeErr(c, err)
	}
	return respond(c, http.StatusOK, "Loan marked defaulted", dto)
}

func (h *AdminHandler) Queue(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	out, err := h.uc.Queue(c.Request().Context(), limit)
	if err != nil {
		return writeErr(c, err)
	}
	return respond(c, http.StatusOK, "", out)
}

func (h *AdminHandler) LoanTransactions(c echo.Context) error {
	out, err := h.uc.LoanTransactions(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return writeErr(c, err)
	}
	return respond(c, http.StatusOK, "", out)
}

func (h *AdminHandler) Stats(c echo.Context) error {
	out, err := h.uc.Stats(c.Request().Context())
	if err != nil {
		return writeErr(c, err)
	}
	return respond(c, http.StatusOK, "", out)
}

func (h *AdminHandler) Settings(c echo.Context) error {
	out, err := h.uc.ListSettings(c.Request().Context())
	if err != nil {
		return writeErr(c, err)
	}
	return respond(c, http.StatusOK, "", out)
}

type updateSettingReq struct {
	Value string `json:"value" validate:"required,max=255"`
}

func (h *AdminHandler) UpdateSetting(c echo.Context) error {
	var req updateSettingReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return respond(c, http.StatusUnprocessableEntity, "validation failed", ToFieldErrors(err))
	}

	out, err := h.uc.UpdateSetting(c.Request().Context(), c.Param("key"), req.Value, callerID(c))
	if err != nil {
		return writeErr(c, err)
	}
	return respond(c, http.StatusOK, "Setting updated", out)
}
