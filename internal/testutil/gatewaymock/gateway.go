package gatewaymock

import (
	"context"

	"kopacash/internal/payment"
)

// Gateway is a function-backed payment gateway. Without overrides every
// call succeeds synchronously, which matches the mock provider's behavior.
type Gateway struct {
	ChargeFn   func(ctx context.Context, m payment.Method, accountRef string, amount float64, reference string) (*payment.ChargeResult, error)
	RefundFn   func(ctx context.Context, m payment.Method, amount float64, accountRef, reason string) (*payment.RefundResult, error)
	DisburseFn func(ctx context.Context, m payment.Method, accountRef string, amount float64, reference string) (*payment.DisburseResult, error)

	Charges   int
	Refunds   int
	Disbursed int
}

func (g *Gateway) Charge(ctx context.Context, m payment.Method, accountRef string, amount float64, reference string) (*payment.ChargeResult, error) {
	g.Charges++
	if g.ChargeFn != nil {
		return g.ChargeFn(ctx, m, accountRef, amount, reference)
	}
	return &payment.ChargeResult{
		TransactionID: "chg-" + reference,
		Synchronous:   true,
		Success:       true,
	}, nil
}

func (g *Gateway) Refund(ctx context.Context, m payment.Method, amount float64, accountRef, reason string) (*payment.RefundResult, error) {
	g.Refunds++
	if g.RefundFn != nil {
		return g.RefundFn(ctx, m, amount, accountRef, reason)
	}
	return &payment.RefundResult{TransactionID: "rfn-" + accountRef, Success: true}, nil
}

func (g *Gateway) Disburse(ctx context.Context, m payment.Method, accountRef string, amount float64, reference string) (*payment.DisburseResult, error) {
	g.Disbursed++
	if g.DisburseFn != nil {
		return g.DisburseFn(ctx, m, accountRef, amount, reference)
	}
	return &payment.DisburseResult{TransactionID: "dsb-" + reference, Success: true}, nil
}
