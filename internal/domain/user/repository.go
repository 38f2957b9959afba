package user

import "context"

type Repository interface {
	Create(ctx context.Context, u *User) error
	Save(ctx context.Context, u *User) error
	GetByUserID(ctx context.Context, userID string) (*User, error)
	// GetByUserIDForUpdate locks the row; used when the state machine
	// mutates credit score and counters alongside a loan transition.
	GetByUserIDForUpdate(ctx context.Context, userID string) (*User, error)
}
