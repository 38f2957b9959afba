package admin

import (
	"context"

	"kopacash/internal/domain/loan"
	"kopacash/internal/domain/settings"
	"kopacash/internal/domain/transaction"
	"kopacash/internal/domain/uow"
	"kopacash/internal/notify"
	loanUC "kopacash/internal/usecase/loan"
)

// Usecase is the admin decision engine: a thin orchestration layer over
// the loan state machine. It owns no state; it delegates every transition
// and raises the notification/audit side channels, whose failures never
// affect the transition result.
type Usecase struct {
	loans  *loanUC.Usecase
	uow    uow.UnitOfWork
	events *notify.Dispatcher
}

func NewUsecase(loans *loanUC.Usecase, u uow.UnitOfWork, ev *notify.Dispatcher) *Usecase {
	if ev == nil {
		ev = notify.NewDispatcher(nil, nil)
	}
	return &Usecase{loans: loans, uow: u, events: ev}
}

func (u *Usecase) Approve(ctx context.Context, loanID, adminID string) (*loanUC.LoanDTO, error) {
	dto, err := u.loans.Approve(ctx, loanID, adminID)
	if err != nil {
		return nil, err
	}
	u.events.Notify(notify.Event{
		Type:    notify.EventLoanApproved,
		UserID:  dto.UserID,
		LoanID:  dto.LoanID,
		Amount:  dto.Amount,
		Message: "Your loan application has been approved",
	})
	u.events.Audit(notify.AuditRecord{
		ActorID:    adminID,
		Action:     "LOAN_APPROVED",
		Resource:   "loan",
		ResourceID: dto.LoanID,
		Details:    map[string]any{"amount": dto.Amount, "user_id": dto.UserID},
	})
	return dto, nil
}

func (u *Usecase) AutoApprove(ctx context.Context, loanID, adminID string) (*loanUC.LoanDTO, *loanUC.AutoApprovalCriteria, error) {
	dto, crit, err := u.loans.AutoApprove(ctx, loanID)
	if err != nil {
		return nil, crit, err
	}
	u.events.Notify(notify.Event{
		Type:    notify.EventLoanAutoApproved,
		UserID:  dto.UserID,
		LoanID:  dto.LoanID,
		Amount:  dto.Amount,
		Message: "Your loan has been automatically approved",
		Meta:    map[string]any{"auto_approved": true},
	})
	u.events.Audit(notify.AuditRecord{
		ActorID:    adminID,
		Action:     "LOAN_AUTO_APPROVED",
		Resource:   "loan",
		ResourceID: dto.LoanID,
		Details:    map[string]any{"amount": dto.Amount, "criteria": crit},
	})
	return dto, crit, nil
}

func (u *Usecase) SpecialApprove(ctx context.Context, loanID, adminID string) (*loanUC.LoanDTO, error) {
	dto, err := u.loans.SpecialApprove(ctx, loanID, adminID)
	if err != nil {
		return nil, err
	}
	u.events.Notify(notify.Event{
		Type:    notify.EventLoanSpecialApproved,
		UserID:  dto.UserID,
		LoanID:  dto.LoanID,
		Amount:  dto.Amount,
		Message: "Your loan has been specially approved by our admin team",
		Meta:    map[string]any{"special_approved": true},
	})
	u.events.Audit(notify.AuditRecord{
		ActorID:    adminID,
		Action:     "LOAN_SPECIAL_APPROVED",
		Resource:   "loan",
		ResourceID: dto.LoanID,
		Details:    map[string]any{"amount": dto.Amount, "fee_paid": dto.FeePaid},
	})
	return dto, nil
}

func (u *Usecase) Reject(ctx context.Context, loanID, adminID, reason string) (*loanUC.LoanDTO, error) {
	dto, err := u.loans.Reject(ctx, loanID, reason)
	if err != nil {
		return nil, err
	}
	u.events.Notify(notify.Event{
		Type:    notify.EventLoanRejected,
		UserID:  dto.UserID,
		LoanID:  dto.LoanID,
		Amount:  dto.Amount,
		Message: "Your loan application was rejected: " + reason,
	})
	u.events.Audit(notify.AuditRecord{
		ActorID:    adminID,
		Action:     "LOAN_REJECTED",
		Resource:   "loan",
		ResourceID: dto.LoanID,
		Details: map[string]any{
			"reason":        reason,
			"refund_status": dto.RejectionRefundStatus,
		},
	})
	return dto, nil
}

func (u *Usecase) InitiateDisbursement(ctx context.Context, loanID, adminID string) (*loanUC.LoanDTO, error) {
	dto, err := u.loans.InitiateDisbursement(ctx, loanID)
	if err != nil {
		return dto, err
	}
	u.events.Audit(notify.AuditRecord{
		ActorID:    adminID,
		Action:     "LOAN_DISBURSEMENT_INITIATED",
		Resource:   "loan",
		ResourceID: loanID,
		Details:    map[string]any{"amount": dto.Amount, "transaction_id": dto.DisbursementTransactionID},
	})
	return dto, nil
}

func (u *Usecase) ProcessRefund(ctx context.Context, loanID, adminID string) (*loanUC.LoanDTO, error) {
	dto, err := u.loans.ProcessRefund(ctx, loanID)
	if err != nil {
		return nil, err
	}
	u.events.Audit(notify.AuditRecord{
		ActorID:    adminID,
		Action:     "LOAN_REFUND_PROCESSED",
		Resource:   "loan",
		ResourceID: loanID,
		Details: map[string]any{
			"refund_status":         dto.RejectionRefundStatus,
			"refund_transaction_id": dto.RejectionRefundTransactionID,
		},
	})
	return dto, nil
}

func (u *Usecase) MarkDefaulted(ctx context.Context, loanID, adminID string) (*loanUC.LoanDTO, error) {
	dto, err := u.loans.MarkDefaulted(ctx, loanID)
	if err != nil {
		return nil, err
	}
	u.events.Audit(notify.AuditRecord{
		ActorID:    adminID,
		Action:     "LOAN_DEFAULTED",
		Resource:   "loan",
		ResourceID: loanID,
		Details:    map[string]any{"amount": dto.Amount},
	})
	return dto, nil
}

func (u *Usecase) Queue(ctx context.Context, limit int) ([]loanUC.LoanDTO, error) {
	return u.loans.Queue(ctx, limit)
}

// LoanTransactions is the per-loan ledger view for the review screen.
func (u *Usecase) LoanTransactions(ctx context.Context, loanID string) ([]transaction.Transaction, error) {
	return u.loans.TransactionsByLoan(ctx, loanID)
}

// Stats are the dashboard counts.
type Stats struct {
	Total    int64 `json:"total"`
	Pending  int64 `json:"pending"`
	Approved int64 `json:"approved"`
	Rejected int64 `json:"rejected"`
}

func (u *Usecase) Stats(ctx context.Context) (*Stats, error) {
	var out Stats
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		for _, c := range []struct {
			status loan.Status
			dst    *int64
		}{
			{loan.StatusPending, &out.Pending},
			{loan.StatusApproved, &out.Approved},
			{loan.StatusRejected, &out.Rejected},
		} {
			n, err := r.Loans.CountByStatus(ctx, c.status)
			if err != nil {
				return err
			}
			*c.dst = n
		}
		out.Total = out.Pending + out.Approved + out.Rejected
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (u *Usecase) ListSettings(ctx context.Context) ([]settings.Setting, error) {
	var out []settings.Setting
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		var err error
		out, err = r.Settings.List(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateSetting changes one editable setting and audits old/new values.
func (u *Usecase) UpdateSetting(ctx context.Context, key, value, adminID string) (*settings.Setting, error) {
	var out *settings.Setting
	var oldValue string
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		s, err := r.Settings.Get(ctx, key)
		if err != nil {
			return err
		}
		if !s.IsEditable {
			return settings.ErrNotEditable
		}
		oldValue = s.Value
		s.Value = value
		s.LastModifiedBy = adminID
		if err := r.Settings.Save(ctx, s); err != nil {
			return err
		}
		out = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	u.events.Audit(notify.AuditRecord{
		ActorID:    adminID,
		Action:     "SETTINGS_UPDATED",
		Resource:   "settings",
		ResourceID: key,
		Details:    map[string]any{"old_value": oldValue, "new_value": value},
	})
	return out, nil
}
