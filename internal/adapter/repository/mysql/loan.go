package mysql

import (
	"context"
	"errors"

	loanDomain "kopacash/internal/domain/loan"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LoanRepository struct{ db *gorm.DB }

func NewLoanRepository(db *gorm.DB) *LoanRepository { return &LoanRepository{db: db} }

func (r *LoanRepository) Create(ctx context.Context, l *loanDomain.Loan) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *LoanRepository) Delete(ctx context.Context, l *loanDomain.Loan) error {
	return r.db.WithContext(ctx).Delete(l).Error
}

func (r *LoanRepository) Save(ctx context.Context, l *loanDomain.Loan) error {
	return r.db.WithContext(ctx).Save(l).Error
}

// SaveVersioned is the optimistic write: the UPDATE only lands if nobody
// bumped the version since the caller read the row.
func (r *LoanRepository) SaveVersioned(ctx context.Context, l *loanDomain.Loan) error {
	prev := l.Version
	l.Version = prev + 1
	res := r.db.WithContext(ctx).
		Model(&loanDomain.Loan{}).
		Where("id = ? AND version = ?", l.ID, prev).
		Select("*").
		Omit("id", "created_at").
		Updates(l)
	if res.Error != nil {
		l.Version = prev
		return res.Error
	}
	if res.RowsAffected == 0 {
		l.Version = prev
		return loanDomain.ErrStateConflict
	}
	return nil
}

func (r *LoanRepository) GetByLoanID(ctx context.Context, loanID string) (*loanDomain.Loan, error) {
	return r.one(ctx, r.db, "loan_id = ?", loanID)
}

func (r *LoanRepository) GetByLoanIDForUpdate(ctx context.Context, loanID string) (*loanDomain.Loan, error) {
	return r.one(ctx, r.locked(), "loan_id = ?", loanID)
}

func (r *LoanRepository) GetByPaymentRefForUpdate(ctx context.Context, ref string) (*loanDomain.Loan, error) {
	return r.one(ctx, r.locked(), "payment_ref = ?", ref)
}

func (r *LoanRepository) GetByDisbursementRefForUpdate(ctx context.Context, ref string) (*loanDomain.Loan, error) {
	return r.one(ctx, r.locked(), "disbursement_transaction_id = ?", ref)
}

func (r *LoanRepository) CountActiveByUserID(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&loanDomain.Loan{}).
		Where("user_id = ? AND status IN ?", userID,
			[]loanDomain.Status{loanDomain.StatusPending, loanDomain.StatusApproved}).
		Count(&n).Error
	return n, err
}

func (r *LoanRepository) CountPendingByUserID(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&loanDomain.Loan{}).
		Where("user_id = ? AND status = ?", userID, loanDomain.StatusPending).
		Count(&n).Error
	return n, err
}

func (r *LoanRepository) CountByStatus(ctx context.Context, status loanDomain.Status) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&loanDomain.Loan{}).
		Where("status = ?", status).
		Count(&n).Error
	return n, err
}

func (r *LoanRepository) ListPendingFIFO(ctx context.Context, limit int) ([]loanDomain.Loan, error) {
	var out []loanDomain.Loan
	err := r.db.WithContext(ctx).
		Where("status = ?", loanDomain.StatusPending).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

func (r *LoanRepository) ListByUserID(ctx context.Context, userID string) ([]loanDomain.Loan, error) {
	var out []loanDomain.Loan
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	return out, err
}

func (r *LoanRepository) one(ctx context.Context, db *gorm.DB, query string, arg any) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	res := db.WithContext(ctx).Where(query, arg).First(&out)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, loanDomain.ErrNotFound
		}
		return nil, res.Error
	}
	return &out, nil
}

// locked adds FOR UPDATE. sqlite has no row locks, so the clause is
// skipped there; in-memory test databases serialize writes anyway.
func (r *LoanRepository) locked() *gorm.DB {
	if r.db.Dialector.Name() == "sqlite" {
		return r.db
	}
	return r.db.Clauses(clause.Locking{Strength: "UPDATE"})
}
