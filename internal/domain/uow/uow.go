package uow

import (
	"context"

	"kopacash/internal/domain/loan"
	"kopacash/internal/domain/settings"
	"kopacash/internal/domain/transaction"
	"kopacash/internal/domain/user"
)

// Repos is the repository set bound to one transaction.
type Repos struct {
	Loans        loan.Repository
	Users        user.Repository
	Transactions transaction.Repository
	Settings     settings.Repository
}

type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// convenience: lock the loan row first, then pass it in
	WithinLoanTx(ctx context.Context, loanID string, fn func(r Repos, l *loan.Loan) error) error
}
