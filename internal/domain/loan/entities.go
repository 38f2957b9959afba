package loan

import (
	"time"

	"gorm.io/gorm"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusPaid      Status = "paid"
	StatusDefaulted Status = "defaulted"
)

type DisbursementStatus string

const (
	DisbursementPending    DisbursementStatus = "pending"
	DisbursementProcessing DisbursementStatus = "processing"
	DisbursementCompleted  DisbursementStatus = "completed"
	DisbursementFailed     DisbursementStatus = "failed"
)

type RefundStatus string

const (
	// RefundNone is the zero value: no refund applies to this loan.
	RefundNone      RefundStatus = ""
	RefundPending   RefundStatus = "pending"
	RefundProcessed RefundStatus = "processed"
	RefundFailed    RefundStatus = "failed"
)

type Loan struct {
	ID     uint64 `gorm:"primaryKey;column:id" json:"-"`
	LoanID string `gorm:"size:32;uniqueIndex:ux_loans_loan_id_active" json:"loan_id"`
	UserID string `gorm:"size:32;index:idx_loans_user_status" json:"user_id"`

	Amount      float64 `gorm:"type:decimal(18,2)" json:"amount"`
	FeeAmount   float64 `gorm:"type:decimal(18,2)" json:"fee_amount"`
	FeePaid     bool    `gorm:"default:false" json:"fee_paid"`
	PhoneNumber string  `gorm:"size:15" json:"phone_number"`
	Description string  `gorm:"type:text" json:"description"`

	Status        Status `gorm:"type:enum('pending','approved','rejected','paid','defaulted');default:'pending';index:idx_loans_user_status" json:"status"`
	PaymentMethod string `gorm:"size:24" json:"payment_method"`

	// Fee payment linkage: PaymentRef is the reference handed to the
	// gateway at initiation (callbacks resolve by it), FeeReceipt the
	// provider receipt once the charge settles.
	PaymentRef string `gorm:"size:64;index:idx_loans_payment_ref" json:"payment_ref"`
	FeeReceipt string `gorm:"size:64" json:"fee_receipt,omitempty"`

	IsAutoApproved    bool       `gorm:"default:false" json:"is_auto_approved"`
	AutoApprovedAt    *time.Time `json:"auto_approved_at,omitempty"`
	IsSpecialApproved bool       `gorm:"default:false" json:"is_special_approved"`
	SpecialApprovedAt *time.Time `json:"special_approved_at,omitempty"`
	ApprovedBy        string     `gorm:"size:32" json:"approved_by,omitempty"`
	ApprovalDate      *time.Time `json:"approval_date,omitempty"`

	RejectionReason              string       `gorm:"type:text" json:"rejection_reason,omitempty"`
	RejectionRefundStatus        RefundStatus `gorm:"size:16;default:''" json:"rejection_refund_status,omitempty"`
	RejectionRefundTransactionID string       `gorm:"size:64" json:"rejection_refund_transaction_id,omitempty"`
	RefundInitiatedAt            *time.Time   `json:"refund_initiated_at,omitempty"`

	DisbursementStatus        DisbursementStatus `gorm:"size:16;default:'pending'" json:"disbursement_status"`
	DisbursementTransactionID string             `gorm:"size:64;index:idx_loans_disb_ref" json:"disbursement_transaction_id,omitempty"`
	DisbursedAt               *time.Time         `json:"disbursed_at,omitempty"`

	// Version backs the compare-and-swap on every state transition so two
	// admin actions on one loan serialize instead of racing.
	Version uint64 `gorm:"default:0" json:"-"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Loan) TableName() string { return "loans" }

// Active reports whether the loan counts against the one-active-loan-per-user
// rule (pending or approved).
func (l *Loan) Active() bool {
	return l.Status == StatusPending || l.Status == StatusApproved
}
