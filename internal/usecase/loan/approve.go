package loan

import (
	"context"
	"fmt"

	domain "kopacash/internal/domain/loan"
	"kopacash/internal/domain/uow"
)

// Credit-score deltas per approval path, capped at user.CreditScoreMax.
const (
	scoreDeltaManual  = 50
	scoreDeltaAuto    = 25
	scoreDeltaSpecial = 100
)

// Approve moves a pending, fee-paid loan to approved, stamping the approver
// and crediting the owner. Loan status, credit score and approved counter
// change in one transaction: either all apply or none do.
func (u *Usecase) Approve(ctx context.Context, loanID, adminID string) (*LoanDTO, error) {
	var out *LoanDTO
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *domain.Loan) error {
		if l.Status != domain.StatusPending {
			return fmt.Errorf("%w: loan is %s, not pending", domain.ErrStateConflict, l.Status)
		}
		if !l.FeePaid {
			return fmt.Errorf("%w: fee must be paid before approval", domain.ErrStateConflict)
		}

		l.Status = domain.StatusApproved
		l.ApprovedBy = adminID
		l.ApprovalDate = nowUTC()
		if err := r.Loans.SaveVersioned(ctx, l); err != nil {
			return err
		}

		usr, err := r.Users.GetByUserIDForUpdate(ctx, l.UserID)
		if err != nil {
			return err
		}
		usr.AdjustCreditScore(scoreDeltaManual)
		usr.TotalLoansApproved++
		if err := r.Users.Save(ctx, usr); err != nil {
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

// AutoApprove applies the rule-based approval path. On a criteria failure
// the breakdown says which checks failed; the loan is untouched.
func (u *Usecase) AutoApprove(ctx context.Context, loanID string) (*LoanDTO, *AutoApprovalCriteria, error) {
	var out *LoanDTO
	var crit AutoApprovalCriteria
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *domain.Loan) error {
		if l.Status != domain.StatusPending {
			return fmt.Errorf("%w: loan is %s, not pending", domain.ErrStateConflict, l.Status)
		}

		usr, err := r.Users.GetByUserIDForUpdate(ctx, l.UserID)
		if err != nil {
			return err
		}
		pending, err := r.Loans.CountPendingByUserID(ctx, l.UserID)
		if err != nil {
			return err
		}

		crit = AutoApprovalCriteria{
			FeePaid:        l.FeePaid,
			ValidID:        usr.IsCitizen && usr.NationalID != "",
			GoodCredit:     usr.CreditScore >= 600,
			NoPendingLoans: pending == 1, // only this loan
		}
		if !crit.Met() {
			return domain.ErrCriteriaNotMet
		}

		l.Status = domain.StatusApproved
		l.IsAutoApproved = true
		l.AutoApprovedAt = nowUTC()
		l.ApprovalDate = l.AutoApprovedAt
		if err := r.Loans.SaveVersioned(ctx, l); err != nil {
			return err
		}

		usr.AdjustCreditScore(scoreDeltaAuto)
		usr.TotalLoansApproved++
		if err := r.Users.Save(ctx, usr); err != nil {
			return err
		}
		out = toDTO(l)
		return nil
	})
	if err != nil {
		return nil, &crit, err
	}
	return out, &crit, nil
}

// SpecialApprove is the administrative override: only the pending guard
// applies, the fee-paid and credit checks are deliberately bypassed.
func (u *Usecase) SpecialApprove(ctx context.Context, loanID, adminID string) (*LoanDTO, error) {
	var out *LoanDTO
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *domain.Loan) error {
		if l.Status != domain.StatusPending {
			return fmt.Errorf("%w: loan is %s, not pending", domain.ErrStateConflict, l.Status)
		}

		l.Status = domain.StatusApproved
		l.IsSpecialApproved = true
		l.SpecialApprovedAt = nowUTC()
		l.ApprovedBy = adminID
		l.ApprovalDate = l.SpecialApprovedAt
		if err := r.Loans.SaveVersioned(ctx, l); err != nil {
			return err
		}

		usr, err := r.Users.GetByUserIDForUpdate(ctx, l.UserID)
		if err != nil {
			return err
		}
		usr.AdjustCreditScore(scoreDeltaSpecial)
		usr.TotalLoansApproved++
		if err := r.Users.Save(ctx, usr); err != nil {
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

// MarkDefaulted records a delinquent approved loan.
func (u *Usecase) MarkDefaulted(ctx context.Context, loanID string) (*LoanDTO, error) {
	var out *LoanDTO
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *domain.Loan) error {
		if l.Status != domain.StatusApproved {
			return fmt.Errorf("%w: only approved loans can default, loan is %s", domain.ErrStateConflict, l.Status)
		}
		l.Status = domain.StatusDefaulted
		if err := r.Loans.SaveVersioned(ctx, l); err != nil {
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
