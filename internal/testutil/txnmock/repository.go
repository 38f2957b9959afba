package txnmock

import (
	"context"

	domain "kopacash/internal/domain/transaction"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
// Without overrides it records nothing and finds nothing.
type Repo struct {
	CreateFn         func(ctx context.Context, t *domain.Transaction) error
	SaveFn           func(ctx context.Context, t *domain.Transaction) error
	GetByReferenceFn func(ctx context.Context, ref string) (*domain.Transaction, error)
	ListByLoanIDFn   func(ctx context.Context, loanID string) ([]domain.Transaction, error)
	ListByUserIDFn   func(ctx context.Context, userID string) ([]domain.Transaction, error)
}

func (m *Repo) Create(ctx context.Context, t *domain.Transaction) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, t)
	}
	return nil
}

func (m *Repo) Save(ctx context.Context, t *domain.Transaction) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, t)
	}
	return nil
}

func (m *Repo) GetByReference(ctx context.Context, ref string) (*domain.Transaction, error) {
	if m.GetByReferenceFn != nil {
		return m.GetByReferenceFn(ctx, ref)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) ListByLoanID(ctx context.Context, loanID string) ([]domain.Transaction, error) {
	if m.ListByLoanIDFn != nil {
		return m.ListByLoanIDFn(ctx, loanID)
	}
	return nil, nil
}

func (m *Repo) ListByUserID(ctx context.Context, userID string) ([]domain.Transaction, error) {
	if m.ListByUserIDFn != nil {
		return m.ListByUserIDFn(ctx, userID)
	}
	return nil, nil
}

// Recorder collects every created and saved row in memory. Useful when a
// test only cares that ledger rows were appended and resolved.
type Recorder struct {
	Repo
	Created []*domain.Transaction
	Saved   []*domain.Transaction
}

func (r *Recorder) Create(ctx context.Context, t *domain.Transaction) error {
	r.Created = append(r.Created, t)
	return nil
}

func (r *Recorder) Save(ctx context.Context, t *domain.Transaction) error {
	r.Saved = append(r.Saved, t)
	return nil
}
