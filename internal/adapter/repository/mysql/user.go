package mysql

import (
	"context"
	"errors"

	userDomain "kopacash/internal/domain/user"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) *UserRepository { return &UserRepository{db: db} }

func (r *UserRepository) Create(ctx context.Context, u *userDomain.User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *UserRepository) Save(ctx context.Context, u *userDomain.User) error {
	return r.db.WithContext(ctx).Save(u).Error
}

func (r *UserRepository) GetByUserID(ctx context.Context, userID string) (*userDomain.User, error) {
	return r.one(ctx, r.db, userID)
}

func (r *UserRepository) GetByUserIDForUpdate(ctx context.Context, userID string) (*userDomain.User, error) {
	db := r.db
	if db.Dialector.Name() != "sqlite" {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return r.one(ctx, db, userID)
}

func (r *UserRepository) one(ctx context.Context, db *gorm.DB, userID string) (*userDomain.User, error) {
	var out userDomain.User
	res := db.WithContext(ctx).Where("user_id = ?", userID).First(&out)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, userDomain.ErrNotFound
		}
		return nil, res.Error
	}
	return &out, nil
}
