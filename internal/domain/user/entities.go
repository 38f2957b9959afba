package user

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("user not found")

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

const (
	// CreditScoreMax caps every credit-score adjustment.
	CreditScoreMax = 1000
	CreditScoreMin = 0
)

type User struct {
	ID     uint64 `gorm:"primaryKey;column:id" json:"-"`
	UserID string `gorm:"size:32;uniqueIndex:ux_users_user_id_active" json:"user_id"`

	FullName   string `gorm:"size:120" json:"full_name"`
	Email      string `gorm:"size:120;index" json:"email"`
	NationalID string `gorm:"size:20" json:"national_id"`
	IsCitizen  bool   `gorm:"default:false" json:"is_citizen"`

	CreditScore        int     `gorm:"default:500" json:"credit_score"`
	LoanLimit          float64 `gorm:"type:decimal(18,2);default:50000" json:"loan_limit"`
	TotalLoansApplied  int     `gorm:"default:0" json:"total_loans_applied"`
	TotalLoansApproved int     `gorm:"default:0" json:"total_loans_approved"`

	Role     string `gorm:"size:16;default:'user'" json:"role"`
	IsActive bool   `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "users" }

// AdjustCreditScore applies delta clamped to [CreditScoreMin, CreditScoreMax].
func (u *User) AdjustCreditScore(delta int) {
	s := u.CreditScore + delta
	if s > CreditScoreMax {
		s = CreditScoreMax
	}
	if s < CreditScoreMin {
		s = CreditScoreMin
	}
	u.CreditScore = s
}
