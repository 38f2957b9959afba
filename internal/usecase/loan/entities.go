package loan

import (
	"time"

	domain "kopacash/internal/domain/loan"
)

type CreateInput struct {
	UserID        string  `json:"user_id"`
	Amount        float64 `json:"amount"`
	PhoneNumber   string  `json:"phone_number"`
	Description   string  `json:"description"`
	PaymentMethod string  `json:"payment_method"`
}

type PayFeeInput struct {
	LoanID        string
	UserID        string
	PaymentMethod string
	AccountRef    string
}

type LoanDTO struct {
	LoanID      string  `json:"loan_id"`
	UserID      string  `json:"user_id"`
	Amount      float64 `json:"amount"`
	FeeAmount   float64 `json:"fee_amount"`
	FeePaid     bool    `json:"fee_paid"`
	PhoneNumber string  `json:"phone_number"`
	Description string  `json:"description,omitempty"`

	Status        string `json:"status"`
	PaymentMethod string `json:"payment_method"`

	IsAutoApproved    bool       `json:"is_auto_approved"`
	IsSpecialApproved bool       `json:"is_special_approved"`
	ApprovedBy        string     `json:"approved_by,omitempty"`
	ApprovalDate      *time.Time `json:"approval_date,omitempty"`

	RejectionReason              string `json:"rejection_reason,omitempty"`
	RejectionRefundStatus        string `json:"rejection_refund_status,omitempty"`
	RejectionRefundTransactionID string `json:"rejection_refund_transaction_id,omitempty"`

	DisbursementStatus        string     `json:"disbursement_status"`
	DisbursementTransactionID string     `json:"disbursement_transaction_id,omitempty"`
	DisbursedAt               *time.Time `json:"disbursed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// ApplicationDTO is the response of a loan application: the created loan
// plus what the frontend needs to track the fee payment.
type ApplicationDTO struct {
	Loan          LoanDTO `json:"loan"`
	TransactionID string  `json:"transaction_id"`
	FeeAmount     float64 `json:"fee_amount"`
	PaymentMethod string  `json:"payment_method"`
	// FeePending is true for asynchronous methods: the application is not
	// submitted for review until the payment callback lands.
	FeePending bool `json:"fee_pending"`
}

// AutoApprovalCriteria is the machine-readable breakdown returned when an
// auto-approval attempt fails one or more checks.
type AutoApprovalCriteria struct {
	FeePaid        bool `json:"fee_paid"`
	ValidID        bool `json:"valid_id"`
	GoodCredit     bool `json:"good_credit"`
	NoPendingLoans bool `json:"no_pending_loans"`
}

func (c AutoApprovalCriteria) Met() bool {
	return c.FeePaid && c.ValidID && c.GoodCredit && c.NoPendingLoans
}

func toDTO(l *domain.Loan) *LoanDTO {
	return &LoanDTO{
		LoanID:                       l.LoanID,
		UserID:                       l.UserID,
		Amount:                       l.Amount,
		FeeAmount:                    l.FeeAmount,
		FeePaid:                      l.FeePaid,
		PhoneNumber:                  l.PhoneNumber,
		Description:                  l.Description,
		Status:                       string(l.Status),
		PaymentMethod:                l.PaymentMethod,
		IsAutoApproved:               l.IsAutoApproved,
		IsSpecialApproved:            l.IsSpecialApproved,
		ApprovedBy:                   l.ApprovedBy,
		ApprovalDate:                 l.ApprovalDate,
		RejectionReason:              l.RejectionReason,
		RejectionRefundStatus:        string(l.RejectionRefundStatus),
		RejectionRefundTransactionID: l.RejectionRefundTransactionID,
		DisbursementStatus:           string(l.DisbursementStatus),
		DisbursementTransactionID:    l.DisbursementTransactionID,
		DisbursedAt:                  l.DisbursedAt,
		CreatedAt:                    l.CreatedAt,
	}
}
