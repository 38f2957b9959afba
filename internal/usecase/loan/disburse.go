package loan

import (
	"context"
	"fmt"
	"log"

	domain "kopacash/internal/domain/loan"
	"kopacash/internal/domain/transaction"
	"kopacash/internal/domain/uow"
	"kopacash/internal/notify"
	"kopacash/internal/payment"
	"kopacash/pkg/id"
)

// InitiateDisbursement starts the payout of an approved loan. The
// disbursement status flips to processing BEFORE the gateway is called, so
// a concurrent duplicate initiation is rejected, not raced. A gateway
// failure reverts to failed; processing is never left dangling.
func (u *Usecase) InitiateDisbursement(ctx context.Context, loanID string) (*LoanDTO, error) {
	var snap *domain.Loan
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *domain.Loan) error {
		if l.Status != domain.StatusApproved {
			return fmt.Errorf("%w: loan must be approved before disbursement", domain.ErrStateConflict)
		}
		if l.DisbursementStatus != domain.DisbursementPending {
			return fmt.Errorf("%w: disbursement already %s", domain.ErrStateConflict, l.DisbursementStatus)
		}
		l.DisbursementStatus = domain.DisbursementProcessing
		if err := r.Loans.SaveVersioned(ctx, l); err != nil {
			return err
		}
		snap = l
		return nil
	})
	if err != nil {
		return nil, err
	}

	res, gwErr := u.gateway.Disburse(ctx, payment.Method(snap.PaymentMethod), snap.PhoneNumber, snap.Amount, snap.LoanID)
	succeeded := gwErr == nil && res.Success
	if gwErr != nil {
		log.Printf("loan: disbursement initiation for %s failed: %v", loanID, gwErr)
	}

	var out *LoanDTO
	err = u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *domain.Loan) error {
		if !succeeded {
			l.DisbursementStatus = domain.DisbursementFailed
			if err := r.Loans.SaveVersioned(ctx, l); err != nil {
				return err
			}
			out = toDTO(l)
			return nil
		}
		// Stays processing until the completion signal lands.
		l.DisbursementTransactionID = res.TransactionID
		if err := r.Loans.SaveVersioned(ctx, l); err != nil {
			return err
		}
		out = toDTO(l)
		return r.Transactions.Create(ctx, &transaction.Transaction{
			TransactionID:    id.NewID32(),
			UserID:           l.UserID,
			LoanID:           l.LoanID,
			Amount:           l.Amount,
			PhoneNumber:      l.PhoneNumber,
			Purpose:          transaction.PurposeDisbursement,
			Status:           transaction.StatusPending,
			Reference:        res.TransactionID,
			ProviderResponse: res.Raw,
		})
	})
	if err != nil {
		return nil, err
	}
	if !succeeded {
		if gwErr != nil {
			return out, gwErr
		}
		return out, fmt.Errorf("%w: disbursement declined", payment.ErrProvider)
	}
	return out, nil
}

// CompleteDisbursement applies the provider's completion signal for a
// processing disbursement, located by its gateway reference. Duplicate or
// late signals on an already-settled disbursement are no-ops.
func (u *Usecase) CompleteDisbursement(ctx context.Context, reference string, success bool) (*LoanDTO, error) {
	var out *LoanDTO
	var disbursed *domain.Loan
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		l, err := r.Loans.GetByDisbursementRefForUpdate(ctx, reference)
		if err != nil {
			return err
		}
		if l.DisbursementStatus != domain.DisbursementProcessing {
			out = toDTO(l)
			return nil
		}
		if success {
			l.DisbursementStatus = domain.DisbursementCompleted
			l.DisbursedAt = nowUTC()
			disbursed = l
		} else {
			l.DisbursementStatus = domain.DisbursementFailed
		}
		if err := r.Loans.SaveVersioned(ctx, l); err != nil {
			return err
		}
		out = toDTO(l)

		t, terr := r.Transactions.GetByReference(ctx, reference)
		if terr != nil || t.Resolved() {
			return nil
		}
		if success {
			t.Status = transaction.StatusSuccess
		} else {
			t.Status = transaction.StatusFailed
		}
		return r.Transactions.Save(ctx, t)
	})
	if err != nil {
		return nil, err
	}

	if disbursed != nil {
		u.events.Notify(notify.Event{
			Type:    notify.EventLoanDisbursed,
			UserID:  disbursed.UserID,
			LoanID:  disbursed.LoanID,
			Amount:  disbursed.Amount,
			Message: "Loan disbursed to your mobile money account",
		})
	}
	return out, nil
}
