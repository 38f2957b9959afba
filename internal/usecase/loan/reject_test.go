package loan

import (
	"context"
	"errors"
	"testing"

	domain "kopacash/internal/domain/loan"
	"kopacash/internal/domain/transaction"
	"kopacash/internal/payment"
)

func TestReject_RequiresReason(t *testing.T) {
	f := newFixture(t)
	f.seedLoan("l1", "u1", domain.StatusPending, true)

	for _, reason := range []string{"", "   "} {
		_, err := f.uc.Reject(context.Background(), "l1", reason)
		if !errors.Is(err, domain.ErrValidation) {
			t.Errorf("reason %q: expected ErrValidation, got %v", reason, err)
		}
	}
}

func TestReject_UnpaidFeeNoRefund(t *testing.T) {
	f := newFixture(t)
	f.seedUser("u1", 650, 3)
	f.seedLoan("l1", "u1", domain.StatusPending, false)

	out, err := f.uc.Reject(context.Background(), "l1", "incomplete documents")
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if out.Status != "rejected" || out.RejectionReason != "incomplete documents" {
		t.Errorf("unexpected dto: %+v", out)
	}
	if out.RejectionRefundStatus != "" {
		t.Errorf("no refund should apply without a paid fee, got %q", out.RejectionRefundStatus)
	}
	if f.gw.Refunds != 0 {
		t.Errorf("gateway refund must not be called")
	}
}

func TestReject_PaidFeeRefundProcessed(t *testing.T) {
	f := newFixture(t)
	f.seedUser("u1", 650, 3)
	l := f.seedLoan("l1", "u1", domain.StatusPending, true)
	l.PaymentRef = "ws_co-orig"

	out, err := f.uc.Reject(context.Background(), "l1", "risk policy")
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if out.RejectionRefundStatus != string(domain.RefundProcessed) {
		t.Fatalf("refund status = %q, want processed", out.RejectionRefundStatus)
	}
	if out.RejectionRefundTransactionID == "" {
		t.Errorf("refund transaction id missing")
	}
	if f.gw.Refunds != 1 {
		t.Errorf("gateway refunds = %d, want 1", f.gw.Refunds)
	}

	if len(f.txns.Created) != 1 {
		t.Fatalf("want 1 ledger row, got %d", len(f.txns.Created))
	}
	row := f.txns.Created[0]
	if row.Purpose != transaction.PurposeRefund || row.Status != transaction.StatusSuccess {
		t.Errorf("unexpected ledger row: %+v", row)
	}
	if !row.IsRefund || row.OriginalTransactionID != "ws_co-orig" {
		t.Errorf("refund linkage missing: %+v", row)
	}
}

func TestReject_RefundFailureStandsRejected(t *testing.T) {
	f := newFixture(t)
	f.seedUser("u1", 650, 3)
	f.seedLoan("l1", "u1", domain.StatusPending, true)
	f.gw.RefundFn = func(ctx context.Context, m payment.Method, amount float64, accountRef, reason string) (*payment.RefundResult, error) {
		return nil, payment.ErrProvider
	}

	out, err := f.uc.Reject(context.Background(), "l1", "risk policy")
	if err != nil {
		t.Fatalf("a failed refund must not fail the rejection: %v", err)
	}
	if out.Status != "rejected" {
		t.Errorf("status = %s", out.Status)
	}
	if out.RejectionRefundStatus != string(domain.RefundFailed) {
		t.Fatalf("refund status = %q, want failed", out.RejectionRefundStatus)
	}

	if len(f.txns.Created) != 1 || f.txns.Created[0].Status != transaction.StatusFailed {
		t.Fatalf("want one failed ledger row, got %+v", f.txns.Created)
	}
}

func TestReject_OnlyPending(t *testing.T) {
	f := newFixture(t)
	f.seedLoan("l1", "u1", domain.StatusApproved, true)

	_, err := f.uc.Reject(context.Background(), "l1", "too late")
	if !errors.Is(err, domain.ErrStateConflict) {
		t.Fatalf("expected ErrStateConflict, got %v", err)
	}
}

func TestProcessRefund_RetryAfterFailure(t *testing.T) {
	f := newFixture(t)
	f.seedUser("u1", 650, 3)
	l := f.seedLoan("l1", "u1", domain.StatusRejected, true)
	l.RejectionRefundStatus = domain.RefundFailed
	l.PaymentRef = "ws_co-orig"

	out, err := f.uc.ProcessRefund(context.Background(), "l1")
	if err != nil {
		t.Fatalf("ProcessRefund: %v", err)
	}
	if out.RejectionRefundStatus != string(domain.RefundProcessed) {
		t.Fatalf("refund status = %q, want processed", out.RejectionRefundStatus)
	}

	// Re-running on a processed refund must conflict.
	_, err = f.uc.ProcessRefund(context.Background(), "l1")
	if !errors.Is(err, domain.ErrStateConflict) {
		t.Fatalf("expected ErrStateConflict on double refund, got %v", err)
	}
	if f.gw.Refunds != 1 {
		t.Errorf("gateway refunds = %d, want exactly 1", f.gw.Refunds)
	}
}

func TestProcessRefund_RejectsInFlightRefund(t *testing.T) {
	f := newFixture(t)
	f.seedUser("u1", 650, 3)
	l := f.seedLoan("l1", "u1", domain.StatusRejected, true)
	l.RejectionRefundStatus = domain.RefundPending

	// A refund that is still pending belongs to a running attempt. Retrying
	// it must conflict rather than issue a second gateway refund.
	_, err := f.uc.ProcessRefund(context.Background(), "l1")
	if !errors.Is(err, domain.ErrStateConflict) {
		t.Fatalf("expected ErrStateConflict, got %v", err)
	}
	if f.gw.Refunds != 0 {
		t.Errorf("gateway refunds = %d, want 0", f.gw.Refunds)
	}
}

func TestProcessRefund_Guards(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *fixture)
	}{
		{
			name: "not rejected",
			setup: func(f *fixture) {
				f.seedLoan("l1", "u1", domain.StatusPending, true)
			},
		},
		{
			name: "no fee paid",
			setup: func(f *fixture) {
				f.seedLoan("l1", "u1", domain.StatusRejected, false)
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.seedUser("u1", 650, 3)
			tc.setup(f)

			_, err := f.uc.ProcessRefund(context.Background(), "l1")
			if !errors.Is(err, domain.ErrStateConflict) {
				t.Fatalf("expected ErrStateConflict, got %v", err)
			}
			if f.gw.Refunds != 0 {
				t.Errorf("gateway must not be touched on a guard failure")
			}
		})
	}
}
