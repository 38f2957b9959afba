package loan

import (
	"context"
	"fmt"
	"log"
	"time"

	domain "kopacash/internal/domain/loan"
	"kopacash/internal/domain/settings"
	"kopacash/internal/domain/transaction"
	"kopacash/internal/domain/uow"
	"kopacash/internal/notify"
	"kopacash/internal/payment"
	"kopacash/internal/usecase/eligibility"
	"kopacash/pkg/id"
)

// Gateway is the slice of the payment registry the state machine drives.
type Gateway interface {
	Charge(ctx context.Context, m payment.Method, accountRef string, amount float64, reference string) (*payment.ChargeResult, error)
	Refund(ctx context.Context, m payment.Method, amount float64, accountRef, reason string) (*payment.RefundResult, error)
	Disburse(ctx context.Context, m payment.Method, accountRef string, amount float64, reference string) (*payment.DisburseResult, error)
}

// Usecase owns the loan lifecycle. Every state transition runs as one unit
// of work with the loan row locked; gateway calls happen between
// transactions so provider latency never holds row locks.
type Usecase struct {
	uow     uow.UnitOfWork
	gateway Gateway
	events  *notify.Dispatcher
}

func NewUsecase(u uow.UnitOfWork, g Gateway, ev *notify.Dispatcher) *Usecase {
	if ev == nil {
		ev = notify.NewDispatcher(nil, nil)
	}
	return &Usecase{uow: u, gateway: g, events: ev}
}

// Create validates the application, persists the loan in pending/unpaid and
// initiates the fee charge. If the charge cannot even be initiated (or a
// synchronous method declines), the loan record is rolled back — a dangling
// unpaid application is never left behind.
func (u *Usecase) Create(ctx context.Context, in CreateInput) (*ApplicationDTO, error) {
	method, err := payment.ParseMethod(in.PaymentMethod)
	if err != nil {
		return nil, fmt.Errorf("%w: unsupported payment method %q", domain.ErrValidation, in.PaymentMethod)
	}
	if in.UserID == "" || in.PhoneNumber == "" {
		return nil, fmt.Errorf("%w: user id and phone number are required", domain.ErrValidation)
	}
	if in.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", domain.ErrValidation)
	}

	var l *domain.Loan
	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		usr, err := r.Users.GetByUserIDForUpdate(ctx, in.UserID)
		if err != nil {
			return err
		}
		cfg, err := settings.Resolve(ctx, r.Settings)
		if err != nil {
			return err
		}
		active, err := r.Loans.CountActiveByUserID(ctx, in.UserID)
		if err != nil {
			return err
		}
		res := eligibility.Evaluate(eligibility.Input{
			IsCitizen:         usr.IsCitizen,
			CreditScore:       usr.CreditScore,
			TotalLoansApplied: usr.TotalLoansApplied,
			LoanLimit:         usr.LoanLimit,
			ActiveLoans:       active,
		})
		if !res.Eligible {
			return fmt.Errorf("%w: %s", domain.ErrNotEligible, res.Reason)
		}
		if in.Amount < cfg.MinLoanAmount || in.Amount > cfg.MaxLoanAmount {
			return fmt.Errorf("%w: amount must be between %.0f and %.0f", domain.ErrValidation, cfg.MinLoanAmount, cfg.MaxLoanAmount)
		}
		if in.Amount > res.MaxAmount {
			return fmt.Errorf("%w: amount exceeds your current limit of %.0f", domain.ErrValidation, res.MaxAmount)
		}

		l = &domain.Loan{
			LoanID:             id.NewID32(),
			UserID:             in.UserID,
			Amount:             in.Amount,
			FeeAmount:          cfg.FeeFor(in.Amount),
			PhoneNumber:        in.PhoneNumber,
			Description:        in.Description,
			Status:             domain.StatusPending,
			PaymentMethod:      string(method),
			DisbursementStatus: domain.DisbursementPending,
		}
		if err := r.Loans.Create(ctx, l); err != nil {
			return err
		}
		usr.TotalLoansApplied++
		return r.Users.Save(ctx, usr)
	})
	if err != nil {
		return nil, err
	}

	res, chargeErr := u.gateway.Charge(ctx, method, in.PhoneNumber, l.FeeAmount, l.LoanID)
	if chargeErr != nil || (res.Synchronous && !res.Success) {
		u.rollbackApplication(ctx, l.LoanID, in.UserID)
		if chargeErr != nil {
			return nil, chargeErr
		}
		return nil, fmt.Errorf("%w: charge declined", payment.ErrProvider)
	}

	feePaid := res.Synchronous && res.Success
	err = u.uow.WithinLoanTx(ctx, l.LoanID, func(r uow.Repos, fresh *domain.Loan) error {
		fresh.PaymentRef = res.TransactionID
		if feePaid {
			fresh.FeePaid = true
			fresh.FeeReceipt = res.TransactionID
		}
		if err := r.Loans.SaveVersioned(ctx, fresh); err != nil {
			return err
		}
		l = fresh
		txStatus := transaction.StatusPending
		if feePaid {
			txStatus = transaction.StatusSuccess
		}
		return r.Transactions.Create(ctx, &transaction.Transaction{
			TransactionID:    id.NewID32(),
			UserID:           in.UserID,
			LoanID:           l.LoanID,
			Amount:           l.FeeAmount,
			PhoneNumber:      in.PhoneNumber,
			Purpose:          transaction.PurposeFee,
			Status:           txStatus,
			Reference:        res.TransactionID,
			ProviderResponse: res.Raw,
		})
	})
	if err != nil {
		return nil, err
	}

	if feePaid {
		u.events.Notify(notify.Event{
			Type:    notify.EventLoanSubmitted,
			UserID:  in.UserID,
			LoanID:  l.LoanID,
			Amount:  l.Amount,
			Message: "New loan application submitted with fee paid",
		})
	}

	return &ApplicationDTO{
		Loan:          *toDTO(l),
		TransactionID: res.TransactionID,
		FeeAmount:     l.FeeAmount,
		PaymentMethod: string(method),
		FeePending:    !feePaid,
	}, nil
}

// rollbackApplication deletes a just-created loan and restores the user's
// applied counter after a failed charge initiation. Best effort: the loan
// creation already committed, so failures here are logged, not returned.
func (u *Usecase) rollbackApplication(ctx context.Context, loanID, userID string) {
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		fresh, err := r.Loans.GetByLoanIDForUpdate(ctx, loanID)
		if err != nil {
			return err
		}
		if err := r.Loans.Delete(ctx, fresh); err != nil {
			return err
		}
		usr, err := r.Users.GetByUserIDForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if usr.TotalLoansApplied > 0 {
			usr.TotalLoansApplied--
		}
		return r.Users.Save(ctx, usr)
	})
	if err != nil {
		log.Printf("loan: rollback of %s after charge failure did not complete: %v", loanID, err)
	}
}

// ResolveFeeCallback applies an asynchronous fee-payment result. Safe under
// at-least-once, possibly reordered delivery: a loan whose fee is already
// resolved is left untouched and no side effects repeat.
func (u *Usecase) ResolveFeeCallback(ctx context.Context, cb *payment.CallbackResult) error {
	var submitted *domain.Loan
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		l, err := r.Loans.GetByPaymentRefForUpdate(ctx, cb.Reference)
		if err != nil {
			return err
		}
		if l.FeePaid || l.Status != domain.StatusPending {
			return nil // already resolved; duplicate delivery is a no-op
		}

		t, terr := r.Transactions.GetByReference(ctx, cb.Reference)
		if terr != nil {
			t = nil
		}

		if cb.Success {
			l.FeePaid = true
			l.FeeReceipt = cb.Receipt
			if err := r.Loans.SaveVersioned(ctx, l); err != nil {
				return err
			}
			if t != nil && !t.Resolved() {
				t.Status = transaction.StatusSuccess
				if err := r.Transactions.Save(ctx, t); err != nil {
					return err
				}
			}
			submitted = l
			return nil
		}

		// Unpaid, payment-failed application is discarded rather than retried.
		if err := r.Loans.Delete(ctx, l); err != nil {
			return err
		}
		usr, err := r.Users.GetByUserIDForUpdate(ctx, l.UserID)
		if err != nil {
			return err
		}
		if usr.TotalLoansApplied > 0 {
			usr.TotalLoansApplied--
		}
		if err := r.Users.Save(ctx, usr); err != nil {
			return err
		}
		if t != nil && !t.Resolved() {
			t.Status = transaction.StatusFailed
			return r.Transactions.Save(ctx, t)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if submitted != nil {
		u.events.Notify(notify.Event{
			Type:    notify.EventLoanSubmitted,
			UserID:  submitted.UserID,
			LoanID:  submitted.LoanID,
			Amount:  submitted.Amount,
			Message: "New loan application submitted with fee paid",
		})
	}
	return nil
}

// PayFee charges the application fee for an existing loan (used when the
// fee was not settled at application time, e.g. after a special approval).
func (u *Usecase) PayFee(ctx context.Context, in PayFeeInput) (*LoanDTO, error) {
	method, err := payment.ParseMethod(in.PaymentMethod)
	if err != nil {
		return nil, fmt.Errorf("%w: unsupported payment method %q", domain.ErrValidation, in.PaymentMethod)
	}

	var snap *domain.Loan
	err = u.uow.WithinLoanTx(ctx, in.LoanID, func(r uow.Repos, l *domain.Loan) error {
		if l.UserID != in.UserID {
			return domain.ErrNotFound
		}
		if l.FeePaid {
			return fmt.Errorf("%w: fee already paid", domain.ErrStateConflict)
		}
		if l.Status != domain.StatusPending && l.Status != domain.StatusApproved {
			return fmt.Errorf("%w: loan is %s", domain.ErrStateConflict, l.Status)
		}
		snap = l
		return nil
	})
	if err != nil {
		return nil, err
	}

	accountRef := in.AccountRef
	if accountRef == "" {
		accountRef = snap.PhoneNumber
	}
	res, err := u.gateway.Charge(ctx, method, accountRef, snap.FeeAmount, snap.LoanID)
	if err != nil {
		return nil, err
	}

	feePaid := res.Synchronous && res.Success
	var out *LoanDTO
	err = u.uow.WithinLoanTx(ctx, in.LoanID, func(r uow.Repos, l *domain.Loan) error {
		if l.FeePaid {
			out = toDTO(l)
			return nil
		}
		l.PaymentRef = res.TransactionID
		if feePaid {
			l.FeePaid = true
			l.FeeReceipt = res.TransactionID
		}
		if err := r.Loans.SaveVersioned(ctx, l); err != nil {
			return err
		}
		out = toDTO(l)
		txStatus := transaction.StatusPending
		if feePaid {
			txStatus = transaction.StatusSuccess
		}
		return r.Transactions.Create(ctx, &transaction.Transaction{
			TransactionID:    id.NewID32(),
			UserID:           in.UserID,
			LoanID:           l.LoanID,
			Amount:           l.FeeAmount,
			PhoneNumber:      accountRef,
			Purpose:          transaction.PurposeFee,
			Status:           txStatus,
			Reference:        res.TransactionID,
			ProviderResponse: res.Raw,
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns the loan by its public id.
func (u *Usecase) Get(ctx context.Context, loanID string) (*LoanDTO, error) {
	var out *LoanDTO
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		l, err := r.Loans.GetByLoanID(ctx, loanID)
		if err != nil {
			return err
		}
		out = toDTO(l)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Queue lists pending loans oldest-first for the admin review queue.
func (u *Usecase) Queue(ctx context.Context, limit int) ([]LoanDTO, error) {
	if limit <= 0 || limit > 50 {
		limit = 50
	}
	var out []LoanDTO
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		loans, err := r.Loans.ListPendingFIFO(ctx, limit)
		if err != nil {
			return err
		}
		out = make([]LoanDTO, 0, len(loans))
		for i := range loans {
			out = append(out, *toDTO(&loans[i]))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListByUser returns a user's loan history, newest first.
func (u *Usecase) ListByUser(ctx context.Context, userID string) ([]LoanDTO, error) {
	var out []LoanDTO
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		loans, err := r.Loans.ListByUserID(ctx, userID)
		if err != nil {
			return err
		}
		out = make([]LoanDTO, 0, len(loans))
		for i := range loans {
			out = append(out, *toDTO(&loans[i]))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// TransactionsByUser returns the user's money-movement history, newest
// first: fee charges, refunds and disbursements alike.
func (u *Usecase) TransactionsByUser(ctx context.Context, userID string) ([]transaction.Transaction, error) {
	var out []transaction.Transaction
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		var err error
		out, err = r.Transactions.ListByUserID(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// TransactionsByLoan returns every movement recorded against one loan,
// oldest first. An unknown loan surfaces ErrNotFound, not an empty list.
func (u *Usecase) TransactionsByLoan(ctx context.Context, loanID string) ([]transaction.Transaction, error) {
	var out []transaction.Transaction
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		if _, err := r.Loans.GetByLoanID(ctx, loanID); err != nil {
			return err
		}
		var err error
		out, err = r.Transactions.ListByLoanID(ctx, loanID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func nowUTC() *time.Time {
	t := time.Now().UTC()
	return &t
}
