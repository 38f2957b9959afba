package mysql

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "kopacash/internal/domain/loan"
	settingsDomain "kopacash/internal/domain/settings"
	userDomain "kopacash/internal/domain/user"
	"kopacash/pkg/id"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// --- SQLite-friendly schemas only for tests (no ENUM) ---

type loanSQLite struct {
	ID                           uint64         `gorm:"primaryKey;column:id"`
	LoanID                       string         `gorm:"size:32;column:loan_id"`
	UserID                       string         `gorm:"size:32;column:user_id"`
	Amount                       float64        `gorm:"column:amount"`
	FeeAmount                    float64        `gorm:"column:fee_amount"`
	FeePaid                      bool           `gorm:"column:fee_paid"`
	PhoneNumber                  string         `gorm:"column:phone_number"`
	Description                  string         `gorm:"column:description"`
	Status                       string         `gorm:"type:text;column:status"` // ← no enum
	PaymentMethod                string         `gorm:"column:payment_method"`
	PaymentRef                   string         `gorm:"column:payment_ref"`
	FeeReceipt                   string         `gorm:"column:fee_receipt"`
	IsAutoApproved               bool           `gorm:"column:is_auto_approved"`
	AutoApprovedAt               *time.Time     `gorm:"column:auto_approved_at"`
	IsSpecialApproved            bool           `gorm:"column:is_special_approved"`
	SpecialApprovedAt            *time.Time     `gorm:"column:special_approved_at"`
	ApprovedBy                   string         `gorm:"column:approved_by"`
	ApprovalDate                 *time.Time     `gorm:"column:approval_date"`
	RejectionReason              string         `gorm:"column:rejection_reason"`
	RejectionRefundStatus        string         `gorm:"column:rejection_refund_status"`
	RejectionRefundTransactionID string         `gorm:"column:rejection_refund_transaction_id"`
	RefundInitiatedAt            *time.Time     `gorm:"column:refund_initiated_at"`
	DisbursementStatus           string         `gorm:"column:disbursement_status"`
	DisbursementTransactionID    string         `gorm:"column:disbursement_transaction_id"`
	DisbursedAt                  *time.Time     `gorm:"column:disbursed_at"`
	Version                      uint64         `gorm:"column:version"`
	CreatedAt                    time.Time      `gorm:"column:created_at"`
	UpdatedAt                    time.Time      `gorm:"column:updated_at"`
	DeletedAt                    gorm.DeletedAt `gorm:"column:deleted_at"`
}

func (loanSQLite) TableName() string { return "loans" }

type transactionSQLite struct {
	ID                    uint64         `gorm:"primaryKey;column:id"`
	TransactionID         string         `gorm:"size:32;column:transaction_id"`
	UserID                string         `gorm:"size:32;column:user_id"`
	LoanID                string         `gorm:"size:32;column:loan_id"`
	Amount                float64        `gorm:"column:amount"`
	PhoneNumber           string         `gorm:"column:phone_number"`
	Purpose               string         `gorm:"column:purpose"`
	Status                string         `gorm:"type:text;column:status"` // ← no enum
	Reference             string         `gorm:"column:reference"`
	ProviderResponse      string         `gorm:"column:provider_response"`
	IsRefund              bool           `gorm:"column:is_refund"`
	OriginalTransactionID string         `gorm:"column:original_transaction_id"`
	RefundReason          string         `gorm:"column:refund_reason"`
	CreatedAt             time.Time      `gorm:"column:created_at"`
	UpdatedAt             time.Time      `gorm:"column:updated_at"`
	DeletedAt             gorm.DeletedAt `gorm:"column:deleted_at"`
}

func (transactionSQLite) TableName() string { return "transactions" }

// openTestDB creates an in-memory sqlite DB and migrates the sqlite-safe
// shadows for the enum-bearing tables; users and settings carry no enums
// so their domain models migrate as-is.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&loanSQLite{}, &transactionSQLite{},
		&userDomain.User{}, &settingsDomain.Setting{}); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return db
}

func makeLoan(loanID, userID string) *domain.Loan {
	return &domain.Loan{
		LoanID:             loanID,
		UserID:             userID,
		Amount:             25_000.00,
		FeeAmount:          50.00,
		PhoneNumber:        "254712345678",
		Status:             domain.StatusPending,
		PaymentMethod:      "mpesa",
		DisbursementStatus: domain.DisbursementPending,
	}
}

func TestCreateAndGetByLoanID(t *testing.T) {
	db := openTestDB(t)
	repo := NewLoanRepository(db)
	ctx := context.Background()

	loanID := id.NewID32()
	userID := id.NewID32()

	l := makeLoan(loanID, userID)
	if err := repo.Create(ctx, l); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if l.ID == 0 {
		t.Fatalf("Create did not set auto-increment ID")
	}

	got, err := repo.GetByLoanID(ctx, loanID)
	if err != nil {
		t.Fatalf("GetByLoanID: %v", err)
	}
	if got.LoanID != loanID || got.UserID != userID {
		t.Errorf("unexpected loan: %+v", got)
	}
}

func TestGetByLoanID_NotFound(t *testing.T) {
	db := openTestDB(t)
	repo := NewLoanRepository(db)
	ctx := context.Background()

	_, err := repo.GetByLoanID(ctx, "eeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveVersioned_BumpsAndConflicts(t *testing.T) {
	db := openTestDB(t)
	repo := NewLoanRepository(db)
	ctx := context.Background()

	l := makeLoan(id.NewID32(), id.NewID32())
	if err := repo.Create(ctx, l); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Two readers pick up version 0.
	first, err := repo.GetByLoanID(ctx, l.LoanID)
	if err != nil {
		t.Fatal(err)
	}
	second, err := repo.GetByLoanID(ctx, l.LoanID)
	if err != nil {
		t.Fatal(err)
	}

	first.Status = domain.StatusApproved
	if err := repo.SaveVersioned(ctx, first); err != nil {
		t.Fatalf("first SaveVersioned: %v", err)
	}
	if first.Version != 1 {
		t.Fatalf("version not bumped, got %d", first.Version)
	}

	// The stale writer must lose.
	second.Status = domain.StatusRejected
	err = repo.SaveVersioned(ctx, second)
	if !errors.Is(err, domain.ErrStateConflict) {
		t.Fatalf("expected ErrStateConflict, got %v", err)
	}
	if second.Version != 0 {
		t.Fatalf("loser's version mutated, got %d", second.Version)
	}

	got, err := repo.GetByLoanID(ctx, l.LoanID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.StatusApproved || got.Version != 1 {
		t.Fatalf("unexpected stored row: status=%s version=%d", got.Status, got.Version)
	}
}

func TestGetByPaymentRefForUpdate(t *testing.T) {
	db := openTestDB(t)
	repo := NewLoanRepository(db)
	ctx := context.Background()

	l := makeLoan(id.NewID32(), id.NewID32())
	l.PaymentRef = "ws_co-abc123"
	if err := repo.Create(ctx, l); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByPaymentRefForUpdate(ctx, "ws_co-abc123")
	if err != nil {
		t.Fatalf("GetByPaymentRefForUpdate: %v", err)
	}
	if got.LoanID != l.LoanID {
		t.Errorf("resolved wrong loan: %+v", got)
	}

	if _, err := repo.GetByPaymentRefForUpdate(ctx, "ws_co-unknown"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown ref, got %v", err)
	}
}

func TestGetByDisbursementRefForUpdate(t *testing.T) {
	db := openTestDB(t)
	repo := NewLoanRepository(db)
	ctx := context.Background()

	l := makeLoan(id.NewID32(), id.NewID32())
	l.Status = domain.StatusApproved
	l.DisbursementStatus = domain.DisbursementProcessing
	l.DisbursementTransactionID = "DISB-1736123456-a1b2c3d4"
	if err := repo.Create(ctx, l); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByDisbursementRefForUpdate(ctx, "DISB-1736123456-a1b2c3d4")
	if err != nil {
		t.Fatalf("GetByDisbursementRefForUpdate: %v", err)
	}
	if got.LoanID != l.LoanID {
		t.Errorf("resolved wrong loan: %+v", got)
	}
}

func TestCountActiveByUserID(t *testing.T) {
	db := openTestDB(t)
	repo := NewLoanRepository(db)
	ctx := context.Background()

	userID := id.NewID32()
	for _, st := range []domain.Status{
		domain.StatusPending, domain.StatusApproved,
		domain.StatusRejected, domain.StatusPaid,
	} {
		l := makeLoan(id.NewID32(), userID)
		l.Status = st
		if err := repo.Create(ctx, l); err != nil {
			t.Fatalf("seed %s: %v", st, err)
		}
	}
	// Another user's pending loan must not count.
	other := makeLoan(id.NewID32(), id.NewID32())
	if err := repo.Create(ctx, other); err != nil {
		t.Fatal(err)
	}

	n, err := repo.CountActiveByUserID(ctx, userID)
	if err != nil {
		t.Fatalf("CountActiveByUserID: %v", err)
	}
	if n != 2 {
		t.Fatalf("want 2 active (pending+approved), got %d", n)
	}

	p, err := repo.CountPendingByUserID(ctx, userID)
	if err != nil {
		t.Fatalf("CountPendingByUserID: %v", err)
	}
	if p != 1 {
		t.Fatalf("want 1 pending, got %d", p)
	}
}

func TestListPendingFIFO(t *testing.T) {
	db := openTestDB(t)
	repo := NewLoanRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()

	// Seed out of order; the queue must come back oldest-first.
	for i, seed := range []struct {
		loanID string
		status string
		age    time.Duration
	}{
		{"cccccccccccccccccccccccccccccccc", "pending", 1 * time.Hour},
		{"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", "pending", 3 * time.Hour},
		{"dddddddddddddddddddddddddddddddd", "approved", 4 * time.Hour},
		{"bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb", "pending", 2 * time.Hour},
	} {
		if err := db.Create(&loanSQLite{
			LoanID: seed.loanID, UserID: id.NewID32(),
			Amount: float64(1000 * (i + 1)), Status: seed.status,
			CreatedAt: now.Add(-seed.age),
		}).Error; err != nil {
			t.Fatal(err)
		}
	}

	got, err := repo.ListPendingFIFO(ctx, 10)
	if err != nil {
		t.Fatalf("ListPendingFIFO: %v", err)
	}
	want := []string{
		"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		"bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
		"cccccccccccccccccccccccccccccccc",
	}
	if len(got) != len(want) {
		t.Fatalf("want %d pending, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].LoanID != want[i] {
			t.Errorf("position %d: want %s got %s", i, want[i], got[i].LoanID)
		}
	}

	// Limit applies.
	limited, err := repo.ListPendingFIFO(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 2 || limited[0].LoanID != want[0] {
		t.Fatalf("limit not honored: %+v", limited)
	}
}

func TestDeleteHidesLoan(t *testing.T) {
	db := openTestDB(t)
	repo := NewLoanRepository(db)
	ctx := context.Background()

	l := makeLoan(id.NewID32(), id.NewID32())
	if err := repo.Create(ctx, l); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Delete(ctx, l); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.GetByLoanID(ctx, l.LoanID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
