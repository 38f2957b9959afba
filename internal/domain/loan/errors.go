package loan

import "errors"

var (
	ErrNotFound = errors.New("loan not found")
	// ErrValidation covers bad input (amount out of range, missing reason).
	ErrValidation = errors.New("loan validation failed")
	// ErrStateConflict is an illegal transition: the loan is not in the
	// state the operation requires, or a concurrent writer got there first.
	ErrStateConflict = errors.New("loan state conflict")
	// ErrCriteriaNotMet signals an auto-approval attempt that failed one or
	// more rule checks; callers receive the per-criterion breakdown alongside.
	ErrCriteriaNotMet = errors.New("auto-approval criteria not met")
	// ErrNotEligible is returned at creation when the eligibility gate fails.
	ErrNotEligible = errors.New("user not eligible for a loan")
)
