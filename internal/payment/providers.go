package payment

import (
	"context"
	"encoding/json"
	"time"

	"kopacash/pkg/id"
)

// STKGateway models the M-Pesa STK-push flow. Charge only registers the
// checkout request; the payer confirms on-device and the result lands on
// the callback route later.
type STKGateway struct{}

func NewSTKGateway() *STKGateway { return &STKGateway{} }

func (g *STKGateway) Charge(ctx context.Context, accountRef string, amount float64, reference string) (*ChargeResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	checkoutID := id.NewRef("ws_co")
	raw, _ := json.Marshal(map[string]any{
		"CheckoutRequestID":   checkoutID,
		"MerchantRequestID":   id.NewRef("mr"),
		"ResponseCode":        "0",
		"ResponseDescription": "Success. Request accepted for processing",
		"CustomerMessage":     "Success. Request accepted for processing",
	})
	return &ChargeResult{
		TransactionID: checkoutID,
		Synchronous:   false,
		Raw:           string(raw),
	}, nil
}

func (g *STKGateway) Refund(ctx context.Context, amount float64, accountRef, reason string) (*RefundResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	txID := id.NewRef("ref")
	raw, _ := json.Marshal(map[string]any{
		"ConversationID": txID,
		"ResponseCode":   "0",
		"Reason":         reason,
	})
	return &RefundResult{TransactionID: txID, Success: true, Raw: string(raw)}, nil
}

func (g *STKGateway) Disburse(ctx context.Context, accountRef string, amount float64, reference string) (*DisburseResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	txID := id.NewRef("b2c")
	raw, _ := json.Marshal(map[string]any{
		"ConversationID":           txID,
		"OriginatorConversationID": reference,
		"ResponseCode":             "0",
	})
	return &DisburseResult{TransactionID: txID, Success: true, Raw: string(raw)}, nil
}

// DirectDebitGateway is the Airtel Money variant: also asynchronous, same
// callback contract.
type DirectDebitGateway struct{}

func NewDirectDebitGateway() *DirectDebitGateway { return &DirectDebitGateway{} }

func (g *DirectDebitGateway) Charge(ctx context.Context, accountRef string, amount float64, reference string) (*ChargeResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	txID := id.NewRef("dd")
	raw, _ := json.Marshal(map[string]any{"transaction_id": txID, "status": "INITIATED"})
	return &ChargeResult{TransactionID: txID, Synchronous: false, Raw: string(raw)}, nil
}

func (g *DirectDebitGateway) Refund(ctx context.Context, amount float64, accountRef, reason string) (*RefundResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	txID := id.NewRef("ddref")
	return &RefundResult{TransactionID: txID, Success: true, Raw: `{"status":"SUCCESS"}`}, nil
}

func (g *DirectDebitGateway) Disburse(ctx context.Context, accountRef string, amount float64, reference string) (*DisburseResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	txID := id.NewRef("ddout")
	return &DisburseResult{TransactionID: txID, Success: true, Raw: `{"status":"SUCCESS"}`}, nil
}

// CardGateway settles synchronously: the charge outcome is known before
// Charge returns.
type CardGateway struct{}

func NewCardGateway() *CardGateway { return &CardGateway{} }

func (g *CardGateway) Charge(ctx context.Context, accountRef string, amount float64, reference string) (*ChargeResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	txID := id.NewRef("card")
	raw, _ := json.Marshal(map[string]any{"transactionId": txID, "status": "completed", "timestamp": time.Now().UTC().Format(time.RFC3339)})
	return &ChargeResult{TransactionID: txID, Synchronous: true, Success: true, Raw: string(raw)}, nil
}

func (g *CardGateway) Refund(ctx context.Context, amount float64, accountRef, reason string) (*RefundResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	txID := id.NewRef("cardref")
	return &RefundResult{TransactionID: txID, Success: true, Raw: `{"status":"completed"}`}, nil
}

func (g *CardGateway) Disburse(ctx context.Context, accountRef string, amount float64, reference string) (*DisburseResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	txID := id.NewRef("cardout")
	return &DisburseResult{TransactionID: txID, Success: true, Raw: `{"status":"completed"}`}, nil
}

// BankGateway settles synchronously at this boundary (transfer verified
// out-of-band).
type BankGateway struct{}

func NewBankGateway() *BankGateway { return &BankGateway{} }

func (g *BankGateway) Charge(ctx context.Context, accountRef string, amount float64, reference string) (*ChargeResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	txID := id.NewRef("bank")
	raw, _ := json.Marshal(map[string]any{"transactionId": txID, "status": "pending_verification"})
	return &ChargeResult{TransactionID: txID, Synchronous: true, Success: true, Raw: string(raw)}, nil
}

func (g *BankGateway) Refund(ctx context.Context, amount float64, accountRef, reason string) (*RefundResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	txID := id.NewRef("bankref")
	return &RefundResult{TransactionID: txID, Success: true, Raw: `{"status":"completed"}`}, nil
}

func (g *BankGateway) Disburse(ctx context.Context, accountRef string, amount float64, reference string) (*DisburseResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	txID := id.NewRef("bankout")
	return &DisburseResult{TransactionID: txID, Success: true, Raw: `{"status":"completed"}`}, nil
}

// MockGateway always succeeds synchronously; used in demos and tests.
type MockGateway struct{}

func NewMockGateway() *MockGateway { return &MockGateway{} }

func (g *MockGateway) Charge(ctx context.Context, accountRef string, amount float64, reference string) (*ChargeResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	txID := id.NewRef("mock")
	raw, _ := json.Marshal(map[string]any{"transactionId": txID, "status": "completed", "message": "Payment processed successfully (Demo Mode)"})
	return &ChargeResult{TransactionID: txID, Synchronous: true, Success: true, Raw: string(raw)}, nil
}

func (g *MockGateway) Refund(ctx context.Context, amount float64, accountRef, reason string) (*RefundResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	txID := id.NewRef("mockref")
	return &RefundResult{TransactionID: txID, Success: true, Raw: `{"status":"completed"}`}, nil
}

func (g *MockGateway) Disburse(ctx context.Context, accountRef string, amount float64, reference string) (*DisburseResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	txID := id.NewRef("mockout")
	return &DisburseResult{TransactionID: txID, Success: true, Raw: `{"status":"completed"}`}, nil
}
