package transaction

import "context"

type Repository interface {
	Create(ctx context.Context, t *Transaction) error
	Save(ctx context.Context, t *Transaction) error
	GetByReference(ctx context.Context, ref string) (*Transaction, error)
	ListByLoanID(ctx context.Context, loanID string) ([]Transaction, error)
	ListByUserID(ctx context.Context, userID string) ([]Transaction, error)
}
