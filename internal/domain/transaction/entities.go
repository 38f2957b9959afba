package transaction

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("transaction not found")

type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Purpose tags what the money movement was for.
type Purpose string

const (
	PurposeFee          Purpose = "fee"
	PurposeRefund       Purpose = "refund"
	PurposeDisbursement Purpose = "disbursement"
)

// Transaction is one attempted money movement. Rows are appended at
// initiation and resolved exactly once; after success/failed they are
// never mutated again.
type Transaction struct {
	ID            uint64 `gorm:"primaryKey;column:id" json:"-"`
	TransactionID string `gorm:"size:32;uniqueIndex:ux_txns_txn_id" json:"transaction_id"`

	UserID string `gorm:"size:32;index" json:"user_id"`
	LoanID string `gorm:"size:32;index" json:"loan_id,omitempty"`

	Amount      float64 `gorm:"type:decimal(18,2)" json:"amount"`
	PhoneNumber string  `gorm:"size:32" json:"phone_number"`
	Purpose     Purpose `gorm:"size:16" json:"purpose"`
	Status      Status  `gorm:"type:enum('pending','success','failed');default:'pending';index" json:"status"`

	// Reference is the id the gateway knows this movement by.
	Reference string `gorm:"size:64;index:idx_txns_reference" json:"reference"`
	// ProviderResponse keeps the raw normalized provider payload for audit
	// and later reconciliation.
	ProviderResponse string `gorm:"type:text" json:"provider_response,omitempty"`

	IsRefund              bool   `gorm:"default:false" json:"is_refund"`
	OriginalTransactionID string `gorm:"size:64" json:"original_transaction_id,omitempty"`
	RefundReason          string `gorm:"type:text" json:"refund_reason,omitempty"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Transaction) TableName() string { return "transactions" }

// Resolved reports whether the row reached a terminal status.
func (t *Transaction) Resolved() bool {
	return t.Status == StatusSuccess || t.Status == StatusFailed
}
