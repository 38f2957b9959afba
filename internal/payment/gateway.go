package payment

import (
	"context"
	"errors"
)

var (
	// ErrProvider wraps any payment-backend failure.
	ErrProvider = errors.New("payment provider error")
	// ErrProviderTimeout is returned when a call exceeds the bounded timeout.
	ErrProviderTimeout = errors.New("payment provider timeout")
	ErrUnknownMethod   = errors.New("unknown payment method")
)

// Method selects a payment backend variant.
type Method string

const (
	// MethodMpesa is the STK-push flow: the charge is initiated and the
	// real result arrives later on the callback route.
	MethodMpesa Method = "mpesa"
	// MethodAirtel is a mobile-money direct debit, also asynchronous.
	MethodAirtel Method = "airtel"
	MethodCard   Method = "card"
	MethodBank   Method = "bank"
	MethodMock   Method = "mock"
)

func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case MethodMpesa, MethodAirtel, MethodCard, MethodBank, MethodMock:
		return Method(s), nil
	case "":
		return MethodMpesa, nil
	}
	return "", ErrUnknownMethod
}

// ChargeResult is the uniform shape of a charge initiation.
// When Synchronous is true, Success is authoritative immediately.
// Otherwise the outcome arrives later through NormalizeCallback.
type ChargeResult struct {
	TransactionID string
	Synchronous   bool
	Success       bool
	Raw           string
}

type RefundResult struct {
	TransactionID string
	Success       bool
	Raw           string
}

type DisburseResult struct {
	TransactionID string
	Success       bool
	Raw           string
}

// CallbackResult is a provider callback normalized into the common shape.
// The state machine only ever sees these fields.
type CallbackResult struct {
	Reference string
	Success   bool
	Amount    float64
	Receipt   string
}

// Gateway is the contract every payment variant implements.
//
// Refund is treated as synchronous at this boundary even though real
// mobile-money reversal APIs confirm asynchronously; the raw payload is
// persisted so a later confirmation path can reconcile a refund reported
// processed before the provider actually settled it.
type Gateway interface {
	Charge(ctx context.Context, accountRef string, amount float64, reference string) (*ChargeResult, error)
	Refund(ctx context.Context, amount float64, accountRef, reason string) (*RefundResult, error)
	Disburse(ctx context.Context, accountRef string, amount float64, reference string) (*DisburseResult, error)
}
