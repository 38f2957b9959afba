package settings

import (
	"context"
	"errors"
)

type Repository interface {
	Get(ctx context.Context, key string) (*Setting, error)
	Save(ctx context.Context, s *Setting) error
	List(ctx context.Context) ([]Setting, error)
}

// Resolve builds the LoanSettings snapshot from the store, applying
// Defaults() for missing or malformed keys. Read errors other than
// not-found are surfaced.
func Resolve(ctx context.Context, repo Repository) (LoanSettings, error) {
	out := Defaults()
	read := func(key string, dst *float64) error {
		s, err := repo.Get(ctx, key)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil
			}
			return err
		}
		*dst = ParseNumber(s.Value, *dst)
		return nil
	}
	if err := read(KeyMinLoanAmount, &out.MinLoanAmount); err != nil {
		return out, err
	}
	if err := read(KeyMaxLoanAmount, &out.MaxLoanAmount); err != nil {
		return out, err
	}
	if err := read(KeyApplicationFee, &out.ApplicationFee); err != nil {
		return out, err
	}
	if err := read(KeyApplicationFeePercent, &out.ApplicationFeePercent); err != nil {
		return out, err
	}
	return out, nil
}
