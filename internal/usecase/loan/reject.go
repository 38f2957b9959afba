package loan

import (
	"context"
	"fmt"
	"log"
	"strings"

	domain "kopacash/internal/domain/loan"
	"kopacash/internal/domain/transaction"
	"kopacash/internal/domain/uow"
	"kopacash/internal/payment"
	"kopacash/pkg/id"
)

// refundSnapshot captures what the refund attempt needs once the rejection
// itself has committed.
type refundSnapshot struct {
	loanID         string
	userID         string
	feeAmount      float64
	phoneNumber    string
	method         payment.Method
	originalFeeRef string
	reason         string
}

// Reject moves a pending loan to rejected. If the fee was paid, a refund is
// initiated immediately: success lands rejectionRefundStatus=processed,
// failure lands failed for later manual retry via ProcessRefund. The
// rejection itself stands either way.
func (u *Usecase) Reject(ctx context.Context, loanID, reason string) (*LoanDTO, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, fmt.Errorf("%w: rejection reason is required", domain.ErrValidation)
	}

	var snap *refundSnapshot
	var out *LoanDTO
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *domain.Loan) error {
		if l.Status != domain.StatusPending {
			return fmt.Errorf("%w: loan is %s, not pending", domain.ErrStateConflict, l.Status)
		}
		l.Status = domain.StatusRejected
		l.RejectionReason = reason
		if l.FeePaid {
			l.RejectionRefundStatus = domain.RefundPending
			l.RefundInitiatedAt = nowUTC()
			snap = &refundSnapshot{
				loanID:         l.LoanID,
				userID:         l.UserID,
				feeAmount:      l.FeeAmount,
				phoneNumber:    l.PhoneNumber,
				method:         payment.Method(l.PaymentMethod),
				originalFeeRef: l.PaymentRef,
				reason:         fmt.Sprintf("Refund for rejected loan %s", l.LoanID),
			}
		}
		if err := r.Loans.SaveVersioned(ctx, l); err != nil {
			return err
		}
		out = toDTO(l)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if snap == nil {
		return out, nil
	}
	return u.executeRefund(ctx, snap)
}

// ProcessRefund manually repeats the refund attempt for a rejected loan
// whose earlier refund failed. Guarded so it can never run twice on a loan
// whose refund already processed.
func (u *Usecase) ProcessRefund(ctx context.Context, loanID string) (*LoanDTO, error) {
	var snap *refundSnapshot
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *domain.Loan) error {
		if l.Status != domain.StatusRejected {
			return fmt.Errorf("%w: refunds apply to rejected loans only, loan is %s", domain.ErrStateConflict, l.Status)
		}
		if !l.FeePaid {
			return fmt.Errorf("%w: no fee was paid for this loan", domain.ErrStateConflict)
		}
		if l.RejectionRefundStatus == domain.RefundProcessed {
			return fmt.Errorf("%w: refund already processed", domain.ErrStateConflict)
		}
		if l.RejectionRefundStatus != domain.RefundFailed {
			return fmt.Errorf("%w: refund is %s, retry applies to failed refunds only", domain.ErrStateConflict, l.RejectionRefundStatus)
		}
		l.RejectionRefundStatus = domain.RefundPending
		if l.RefundInitiatedAt == nil {
			l.RefundInitiatedAt = nowUTC()
		}
		if err := r.Loans.SaveVersioned(ctx, l); err != nil {
			return err
		}
		snap = &refundSnapshot{
			loanID:         l.LoanID,
			userID:         l.UserID,
			feeAmount:      l.FeeAmount,
			phoneNumber:    l.PhoneNumber,
			method:         payment.Method(l.PaymentMethod),
			originalFeeRef: l.PaymentRef,
			reason:         "Loan application rejected",
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return u.executeRefund(ctx, snap)
}

// executeRefund calls the gateway and settles the refund outcome in a
// second transaction. The ledger records the attempt either way.
func (u *Usecase) executeRefund(ctx context.Context, snap *refundSnapshot) (*LoanDTO, error) {
	res, gwErr := u.gateway.Refund(ctx, snap.method, snap.feeAmount, snap.phoneNumber, snap.reason)
	succeeded := gwErr == nil && res.Success
	if gwErr != nil {
		log.Printf("loan: refund attempt for %s failed: %v", snap.loanID, gwErr)
	}

	var out *LoanDTO
	err := u.uow.WithinLoanTx(ctx, snap.loanID, func(r uow.Repos, l *domain.Loan) error {
		txStatus := transaction.StatusFailed
		if succeeded {
			l.RejectionRefundStatus = domain.RefundProcessed
			l.RejectionRefundTransactionID = res.TransactionID
			txStatus = transaction.StatusSuccess
		} else {
			l.RejectionRefundStatus = domain.RefundFailed
		}
		if err := r.Loans.SaveVersioned(ctx, l); err != nil {
			return err
		}
		out = toDTO(l)

		t := &transaction.Transaction{
			TransactionID:         id.NewID32(),
			UserID:                snap.userID,
			LoanID:                snap.loanID,
			Amount:                snap.feeAmount,
			PhoneNumber:           snap.phoneNumber,
			Purpose:               transaction.PurposeRefund,
			Status:                txStatus,
			IsRefund:              true,
			OriginalTransactionID: snap.originalFeeRef,
			RefundReason:          snap.reason,
		}
		if succeeded {
			t.Reference = res.TransactionID
			t.ProviderResponse = res.Raw
		}
		return r.Transactions.Create(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
