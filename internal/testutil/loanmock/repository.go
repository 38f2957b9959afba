package loanmock

import (
	"context"

	domain "kopacash/internal/domain/loan"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
// Fill in the function fields a test needs; unfilled getters return
// ErrNotFound, unfilled writers succeed.
type Repo struct {
	CreateFn                        func(ctx context.Context, l *domain.Loan) error
	DeleteFn                        func(ctx context.Context, l *domain.Loan) error
	SaveFn                          func(ctx context.Context, l *domain.Loan) error
	SaveVersionedFn                 func(ctx context.Context, l *domain.Loan) error
	GetByLoanIDFn                   func(ctx context.Context, loanID string) (*domain.Loan, error)
	GetByLoanIDForUpdateFn          func(ctx context.Context, loanID string) (*domain.Loan, error)
	GetByPaymentRefForUpdateFn      func(ctx context.Context, ref string) (*domain.Loan, error)
	GetByDisbursementRefForUpdateFn func(ctx context.Context, ref string) (*domain.Loan, error)
	CountActiveByUserIDFn           func(ctx context.Context, userID string) (int64, error)
	CountPendingByUserIDFn          func(ctx context.Context, userID string) (int64, error)
	CountByStatusFn                 func(ctx context.Context, status domain.Status) (int64, error)
	ListPendingFIFOFn               func(ctx context.Context, limit int) ([]domain.Loan, error)
	ListByUserIDFn                  func(ctx context.Context, userID string) ([]domain.Loan, error)
}

func (m *Repo) Create(ctx context.Context, l *domain.Loan) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, l)
	}
	return nil
}

func (m *Repo) Delete(ctx context.Context, l *domain.Loan) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, l)
	}
	return nil
}

func (m *Repo) Save(ctx context.Context, l *domain.Loan) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, l)
	}
	return nil
}

func (m *Repo) SaveVersioned(ctx context.Context, l *domain.Loan) error {
	if m.SaveVersionedFn != nil {
		return m.SaveVersionedFn(ctx, l)
	}
	l.Version++
	return nil
}

func (m *Repo) GetByLoanID(ctx context.Context, loanID string) (*domain.Loan, error) {
	if m.GetByLoanIDFn != nil {
		return m.GetByLoanIDFn(ctx, loanID)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) GetByLoanIDForUpdate(ctx context.Context, loanID string) (*domain.Loan, error) {
	if m.GetByLoanIDForUpdateFn != nil {
		return m.GetByLoanIDForUpdateFn(ctx, loanID)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) GetByPaymentRefForUpdate(ctx context.Context, ref string) (*domain.Loan, error) {
	if m.GetByPaymentRefForUpdateFn != nil {
		return m.GetByPaymentRefForUpdateFn(ctx, ref)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) GetByDisbursementRefForUpdate(ctx context.Context, ref string) (*domain.Loan, error) {
	if m.GetByDisbursementRefForUpdateFn != nil {
		return m.GetByDisbursementRefForUpdateFn(ctx, ref)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) CountActiveByUserID(ctx context.Context, userID string) (int64, error) {
	if m.CountActiveByUserIDFn != nil {
		return m.CountActiveByUserIDFn(ctx, userID)
	}
	return 0, nil
}

func (m *Repo) CountPendingByUserID(ctx context.Context, userID string) (int64, error) {
	if m.CountPendingByUserIDFn != nil {
		return m.CountPendingByUserIDFn(ctx, userID)
	}
	return 0, nil
}

func (m *Repo) CountByStatus(ctx context.Context, status domain.Status) (int64, error) {
	if m.CountByStatusFn != nil {
		return m.CountByStatusFn(ctx, status)
	}
	return 0, nil
}

func (m *Repo) ListPendingFIFO(ctx context.Context, limit int) ([]domain.Loan, error) {
	if m.ListPendingFIFOFn != nil {
		return m.ListPendingFIFOFn(ctx, limit)
	}
	return nil, nil
}

func (m *Repo) ListByUserID(ctx context.Context, userID string) ([]domain.Loan, error) {
	if m.ListByUserIDFn != nil {
		return m.ListByUserIDFn(ctx, userID)
	}
	return nil, nil
}
