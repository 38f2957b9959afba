package admin

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "kopacash/internal/domain/loan"
	settingsDomain "kopacash/internal/domain/settings"
	"kopacash/internal/domain/uow"
	userDomain "kopacash/internal/domain/user"
	"kopacash/internal/notify"
	"kopacash/internal/testutil/gatewaymock"
	"kopacash/internal/testutil/loanmock"
	"kopacash/internal/testutil/settingsmock"
	"kopacash/internal/testutil/txnmock"
	"kopacash/internal/testutil/uowmock"
	"kopacash/internal/testutil/usermock"
	loanUC "kopacash/internal/usecase/loan"
)

// Channel-backed sinks so the asynchronous dispatch can be awaited.
type chanNotifier struct{ ch chan notify.Event }

func (n chanNotifier) Notify(e notify.Event) error {
	n.ch <- e
	return nil
}

type chanAudit struct{ ch chan notify.AuditRecord }

func (a chanAudit) Record(r notify.AuditRecord) error {
	a.ch <- r
	return nil
}

type fixture struct {
	loans    map[string]*domain.Loan
	users    map[string]*userDomain.User
	settings *settingsmock.Repo
	events   chan notify.Event
	audits   chan notify.AuditRecord
	uc       *Usecase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		loans:    map[string]*domain.Loan{},
		users:    map[string]*userDomain.User{},
		settings: &settingsmock.Repo{},
		events:   make(chan notify.Event, 8),
		audits:   make(chan notify.AuditRecord, 8),
	}

	loanRepo := &loanmock.Repo{
		GetByLoanIDForUpdateFn: func(ctx context.Context, loanID string) (*domain.Loan, error) {
			if l, ok := f.loans[loanID]; ok {
				cp := *l
				return &cp, nil
			}
			return nil, domain.ErrNotFound
		},
		SaveVersionedFn: func(ctx context.Context, l *domain.Loan) error {
			l.Version++
			f.loans[l.LoanID] = l
			return nil
		},
		CountPendingByUserIDFn: func(ctx context.Context, userID string) (int64, error) {
			var n int64
			for _, l := range f.loans {
				if l.UserID == userID && l.Status == domain.StatusPending {
					n++
				}
			}
			return n, nil
		},
		CountByStatusFn: func(ctx context.Context, status domain.Status) (int64, error) {
			var n int64
			for _, l := range f.loans {
				if l.Status == status {
					n++
				}
			}
			return n, nil
		},
	}
	userRepo := &usermock.Repo{
		GetByUserIDForUpdateFn: func(ctx context.Context, userID string) (*userDomain.User, error) {
			if u, ok := f.users[userID]; ok {
				return u, nil
			}
			return nil, userDomain.ErrNotFound
		},
	}

	u := uowmock.New(uow.Repos{
		Loans:        loanRepo,
		Users:        userRepo,
		Transactions: &txnmock.Recorder{},
		Settings:     f.settings,
	})
	ev := notify.NewDispatcher(chanNotifier{f.events}, chanAudit{f.audits})
	loans := loanUC.NewUsecase(u, &gatewaymock.Gateway{}, ev)
	f.uc = NewUsecase(loans, u, ev)
	return f
}

func (f *fixture) awaitEvent(t *testing.T) notify.Event {
	t.Helper()
	select {
	case e := <-f.events:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return notify.Event{}
	}
}

func (f *fixture) awaitAudit(t *testing.T) notify.AuditRecord {
	t.Helper()
	select {
	case r := <-f.audits:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for audit record")
		return notify.AuditRecord{}
	}
}

func TestApprove_EmitsNotificationAndAudit(t *testing.T) {
	f := newFixture(t)
	f.users["u1"] = &userDomain.User{UserID: "u1", CreditScore: 650}
	f.loans["l1"] = &domain.Loan{
		LoanID: "l1", UserID: "u1", Amount: 20_000,
		Status: domain.StatusPending, FeePaid: true,
	}

	dto, err := f.uc.Approve(context.Background(), "l1", "admin-1")
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if dto.Status != "approved" {
		t.Errorf("status = %s", dto.Status)
	}

	e := f.awaitEvent(t)
	if e.Type != notify.EventLoanApproved || e.LoanID != "l1" || e.UserID != "u1" {
		t.Errorf("unexpected event: %+v", e)
	}
	r := f.awaitAudit(t)
	if r.Action != "LOAN_APPROVED" || r.ActorID != "admin-1" || r.ResourceID != "l1" {
		t.Errorf("unexpected audit record: %+v", r)
	}
	if r.At.IsZero() {
		t.Errorf("audit timestamp not stamped")
	}
}

func TestApprove_FailureEmitsNothing(t *testing.T) {
	f := newFixture(t)
	f.loans["l1"] = &domain.Loan{LoanID: "l1", UserID: "u1", Status: domain.StatusApproved}

	_, err := f.uc.Approve(context.Background(), "l1", "admin-1")
	if !errors.Is(err, domain.ErrStateConflict) {
		t.Fatalf("expected ErrStateConflict, got %v", err)
	}
	select {
	case e := <-f.events:
		t.Fatalf("no event expected, got %+v", e)
	case r := <-f.audits:
		t.Fatalf("no audit record expected, got %+v", r)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestReject_AuditCarriesReasonAndRefund(t *testing.T) {
	f := newFixture(t)
	f.users["u1"] = &userDomain.User{UserID: "u1", CreditScore: 650}
	f.loans["l1"] = &domain.Loan{
		LoanID: "l1", UserID: "u1", Amount: 20_000, FeeAmount: 50,
		Status: domain.StatusPending, FeePaid: true, PaymentMethod: "mock",
	}

	dto, err := f.uc.Reject(context.Background(), "l1", "admin-1", "risk policy")
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if dto.RejectionRefundStatus != string(domain.RefundProcessed) {
		t.Errorf("refund status = %q", dto.RejectionRefundStatus)
	}

	e := f.awaitEvent(t)
	if e.Type != notify.EventLoanRejected {
		t.Errorf("unexpected event: %+v", e)
	}
	r := f.awaitAudit(t)
	if r.Action != "LOAN_REJECTED" {
		t.Fatalf("unexpected audit record: %+v", r)
	}
	if r.Details["reason"] != "risk policy" {
		t.Errorf("audit missing the reason: %+v", r.Details)
	}
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	for i, st := range []domain.Status{
		domain.StatusPending, domain.StatusPending,
		domain.StatusApproved, domain.StatusRejected,
	} {
		id := string(rune('a' + i))
		f.loans[id] = &domain.Loan{LoanID: id, Status: st}
	}

	got, err := f.uc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	want := Stats{Total: 4, Pending: 2, Approved: 1, Rejected: 1}
	if *got != want {
		t.Errorf("stats = %+v, want %+v", *got, want)
	}
}

func TestUpdateSetting(t *testing.T) {
	f := newFixture(t)
	f.settings.Store = map[string]*settingsDomain.Setting{
		settingsDomain.KeyMaxLoanAmount: {
			Key: settingsDomain.KeyMaxLoanAmount, Value: "500000", IsEditable: true,
		},
		"schemaVersion": {Key: "schemaVersion", Value: "3", IsEditable: false},
	}

	got, err := f.uc.UpdateSetting(context.Background(), settingsDomain.KeyMaxLoanAmount, "250000", "admin-1")
	if err != nil {
		t.Fatalf("UpdateSetting: %v", err)
	}
	if got.Value != "250000" || got.LastModifiedBy != "admin-1" {
		t.Errorf("unexpected setting: %+v", got)
	}
	r := f.awaitAudit(t)
	if r.Action != "SETTINGS_UPDATED" || r.Details["old_value"] != "500000" || r.Details["new_value"] != "250000" {
		t.Errorf("unexpected audit record: %+v", r)
	}

	// Read-only settings refuse edits.
	_, err = f.uc.UpdateSetting(context.Background(), "schemaVersion", "4", "admin-1")
	if !errors.Is(err, settingsDomain.ErrNotEditable) {
		t.Fatalf("expected ErrNotEditable, got %v", err)
	}

	// Unknown keys surface not-found.
	_, err = f.uc.UpdateSetting(context.Background(), "nope", "1", "admin-1")
	if !errors.Is(err, settingsDomain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
