package loan

import "context"

type Repository interface {
	Create(ctx context.Context, l *Loan) error
	Delete(ctx context.Context, l *Loan) error
	Save(ctx context.Context, l *Loan) error
	// SaveVersioned persists l only if the stored version still matches
	// l.Version, bumping it on success. A lost race returns ErrStateConflict.
	SaveVersioned(ctx context.Context, l *Loan) error

	GetByLoanID(ctx context.Context, loanID string) (*Loan, error)
	GetByLoanIDForUpdate(ctx context.Context, loanID string) (*Loan, error)
	// GetByPaymentRefForUpdate resolves a fee-payment callback reference to
	// its loan, locking the row.
	GetByPaymentRefForUpdate(ctx context.Context, ref string) (*Loan, error)
	GetByDisbursementRefForUpdate(ctx context.Context, ref string) (*Loan, error)

	CountActiveByUserID(ctx context.Context, userID string) (int64, error)
	CountPendingByUserID(ctx context.Context, userID string) (int64, error)
	CountByStatus(ctx context.Context, status Status) (int64, error)
	// ListPendingFIFO returns pending loans oldest-first (the admin queue).
	ListPendingFIFO(ctx context.Context, limit int) ([]Loan, error)
	ListByUserID(ctx context.Context, userID string) ([]Loan, error)
}
