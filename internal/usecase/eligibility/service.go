package eligibility

import (
	"context"

	"kopacash/internal/domain/uow"
)

// Service resolves a user snapshot and their active-loan count into an
// eligibility decision. Read-only; requires no locking beyond normal read
// consistency.
type Service struct{ uow uow.UnitOfWork }

func NewService(u uow.UnitOfWork) *Service { return &Service{uow: u} }

func (s *Service) Check(ctx context.Context, userID string) (*Result, error) {
	var out Result
	err := s.uow.WithinTx(ctx, func(r uow.Repos) error {
		u, err := r.Users.GetByUserID(ctx, userID)
		if err != nil {
			return err
		}
		active, err := r.Loans.CountActiveByUserID(ctx, userID)
		if err != nil {
			return err
		}
		out = Evaluate(Input{
			IsCitizen:         u.IsCitizen,
			CreditScore:       u.CreditScore,
			TotalLoansApplied: u.TotalLoansApplied,
			LoanLimit:         u.LoanLimit,
			ActiveLoans:       active,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
