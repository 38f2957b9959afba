package payment

import (
	"context"
	"errors"
	"time"
)

const defaultCallTimeout = 15 * time.Second

// Registry routes methods to their gateway and bounds every call with a
// timeout so the state machine never holds a loan in an ambiguous state
// waiting on a provider.
type Registry struct {
	gateways map[Method]Gateway
	timeout  time.Duration
}

func NewRegistry(timeout time.Duration) *Registry {
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	r := &Registry{gateways: map[Method]Gateway{}, timeout: timeout}
	r.Register(MethodMpesa, NewSTKGateway())
	r.Register(MethodAirtel, NewDirectDebitGateway())
	r.Register(MethodCard, NewCardGateway())
	r.Register(MethodBank, NewBankGateway())
	r.Register(MethodMock, NewMockGateway())
	return r
}

func (r *Registry) Register(m Method, g Gateway) { r.gateways[m] = g }

func (r *Registry) gateway(m Method) (Gateway, error) {
	g, ok := r.gateways[m]
	if !ok {
		return nil, ErrUnknownMethod
	}
	return g, nil
}

func (r *Registry) Charge(ctx context.Context, m Method, accountRef string, amount float64, reference string) (*ChargeResult, error) {
	g, err := r.gateway(m)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	res, err := g.Charge(ctx, accountRef, amount, reference)
	return res, mapErr(ctx, err)
}

func (r *Registry) Refund(ctx context.Context, m Method, amount float64, accountRef, reason string) (*RefundResult, error) {
	g, err := r.gateway(m)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	res, err := g.Refund(ctx, amount, accountRef, reason)
	return res, mapErr(ctx, err)
}

func (r *Registry) Disburse(ctx context.Context, m Method, accountRef string, amount float64, reference string) (*DisburseResult, error) {
	g, err := r.gateway(m)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	res, err := g.Disburse(ctx, accountRef, amount, reference)
	return res, mapErr(ctx, err)
}

// mapErr folds provider failures into the two-error taxonomy the state
// machine branches on.
func mapErr(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrProviderTimeout
	}
	if errors.Is(err, ErrProviderTimeout) || errors.Is(err, ErrProvider) {
		return err
	}
	return errors.Join(ErrProvider, err)
}
