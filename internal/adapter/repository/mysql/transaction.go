package mysql

import (
	"context"
	"errors"

	txnDomain "kopacash/internal/domain/transaction"

	"gorm.io/gorm"
)

type TransactionRepository struct{ db *gorm.DB }

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(ctx context.Context, t *txnDomain.Transaction) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *TransactionRepository) Save(ctx context.Context, t *txnDomain.Transaction) error {
	return r.db.WithContext(ctx).Save(t).Error
}

func (r *TransactionRepository) GetByReference(ctx context.Context, ref string) (*txnDomain.Transaction, error) {
	var out txnDomain.Transaction
	res := r.db.WithContext(ctx).Where("reference = ?", ref).First(&out)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, txnDomain.ErrNotFound
		}
		return nil, res.Error
	}
	return &out, nil
}

func (r *TransactionRepository) ListByLoanID(ctx context.Context, loanID string) ([]txnDomain.Transaction, error) {
	var out []txnDomain.Transaction
	err := r.db.WithContext(ctx).
		Where("loan_id = ?", loanID).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	return out, err
}

func (r *TransactionRepository) ListByUserID(ctx context.Context, userID string) ([]txnDomain.Transaction, error) {
	var out []txnDomain.Transaction
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	return out, err
}
