package loan

import (
	"context"
	"errors"
	"testing"

	domain "kopacash/internal/domain/loan"
	"kopacash/internal/domain/transaction"
	"kopacash/internal/payment"
)

func TestInitiateDisbursement_ProcessingBeforeGateway(t *testing.T) {
	f := newFixture(t)
	f.seedUser("u1", 650, 3)
	f.seedLoan("l1", "u1", domain.StatusApproved, true)

	// The committed status must already read processing while the provider
	// call is in flight.
	f.gw.DisburseFn = func(ctx context.Context, m payment.Method, accountRef string, amount float64, reference string) (*payment.DisburseResult, error) {
		if f.loans["l1"].DisbursementStatus != domain.DisbursementProcessing {
			t.Errorf("loan not marked processing before the gateway call")
		}
		return &payment.DisburseResult{TransactionID: "DISB-1", Success: true}, nil
	}

	out, err := f.uc.InitiateDisbursement(context.Background(), "l1")
	if err != nil {
		t.Fatalf("InitiateDisbursement: %v", err)
	}
	if out.DisbursementStatus != string(domain.DisbursementProcessing) {
		t.Errorf("disbursement should stay processing until completion, got %s", out.DisbursementStatus)
	}
	if out.DisbursementTransactionID != "DISB-1" {
		t.Errorf("gateway reference not recorded: %+v", out)
	}
	if len(f.txns.Created) != 1 {
		t.Fatalf("want 1 ledger row, got %d", len(f.txns.Created))
	}
	row := f.txns.Created[0]
	if row.Purpose != transaction.PurposeDisbursement || row.Status != transaction.StatusPending {
		t.Errorf("unexpected ledger row: %+v", row)
	}
	if row.Amount != 20_000 {
		t.Errorf("disbursement amount = %v, want the principal", row.Amount)
	}
}

func TestInitiateDisbursement_GatewayFailureReverts(t *testing.T) {
	f := newFixture(t)
	f.seedUser("u1", 650, 3)
	f.seedLoan("l1", "u1", domain.StatusApproved, true)
	f.gw.DisburseFn = func(ctx context.Context, m payment.Method, accountRef string, amount float64, reference string) (*payment.DisburseResult, error) {
		return nil, payment.ErrProviderTimeout
	}

	out, err := f.uc.InitiateDisbursement(context.Background(), "l1")
	if !errors.Is(err, payment.ErrProviderTimeout) {
		t.Fatalf("expected provider timeout, got %v", err)
	}
	if out == nil || out.DisbursementStatus != string(domain.DisbursementFailed) {
		t.Fatalf("disbursement should land failed, got %+v", out)
	}
	if f.loans["l1"].DisbursementStatus != domain.DisbursementFailed {
		t.Errorf("stored loan left in %s", f.loans["l1"].DisbursementStatus)
	}
	if len(f.txns.Created) != 0 {
		t.Errorf("no ledger row for an uninitiated payout, got %d", len(f.txns.Created))
	}
}

func TestInitiateDisbursement_Guards(t *testing.T) {
	tests := []struct {
		name  string
		setup func(l *domain.Loan)
	}{
		{
			name:  "not approved",
			setup: func(l *domain.Loan) { l.Status = domain.StatusPending },
		},
		{
			name:  "already processing",
			setup: func(l *domain.Loan) { l.DisbursementStatus = domain.DisbursementProcessing },
		},
		{
			name:  "already completed",
			setup: func(l *domain.Loan) { l.DisbursementStatus = domain.DisbursementCompleted },
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.seedUser("u1", 650, 3)
			l := f.seedLoan("l1", "u1", domain.StatusApproved, true)
			tc.setup(l)

			_, err := f.uc.InitiateDisbursement(context.Background(), "l1")
			if !errors.Is(err, domain.ErrStateConflict) {
				t.Fatalf("expected ErrStateConflict, got %v", err)
			}
			if f.gw.Disbursed != 0 {
				t.Errorf("gateway must not be touched on a guard failure")
			}
		})
	}
}

func TestCompleteDisbursement_SuccessThenDuplicate(t *testing.T) {
	f := newFixture(t)
	f.seedUser("u1", 650, 3)
	l := f.seedLoan("l1", "u1", domain.StatusApproved, true)
	l.DisbursementStatus = domain.DisbursementProcessing
	l.DisbursementTransactionID = "DISB-1"

	out, err := f.uc.CompleteDisbursement(context.Background(), "DISB-1", true)
	if err != nil {
		t.Fatalf("CompleteDisbursement: %v", err)
	}
	if out.DisbursementStatus != string(domain.DisbursementCompleted) || out.DisbursedAt == nil {
		t.Fatalf("unexpected dto: %+v", out)
	}
	v := f.loans["l1"].Version

	// Late or duplicate signals are no-ops.
	again, err := f.uc.CompleteDisbursement(context.Background(), "DISB-1", true)
	if err != nil {
		t.Fatalf("duplicate completion: %v", err)
	}
	if again.DisbursementStatus != string(domain.DisbursementCompleted) {
		t.Errorf("duplicate changed status to %s", again.DisbursementStatus)
	}
	if f.loans["l1"].Version != v {
		t.Errorf("duplicate completion mutated the loan")
	}
}

func TestCompleteDisbursement_Failure(t *testing.T) {
	f := newFixture(t)
	f.seedUser("u1", 650, 3)
	l := f.seedLoan("l1", "u1", domain.StatusApproved, true)
	l.DisbursementStatus = domain.DisbursementProcessing
	l.DisbursementTransactionID = "DISB-1"

	out, err := f.uc.CompleteDisbursement(context.Background(), "DISB-1", false)
	if err != nil {
		t.Fatalf("CompleteDisbursement: %v", err)
	}
	if out.DisbursementStatus != string(domain.DisbursementFailed) || out.DisbursedAt != nil {
		t.Fatalf("unexpected dto: %+v", out)
	}
}

func TestCompleteDisbursement_UnknownReference(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.CompleteDisbursement(context.Background(), "DISB-nope", true)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
