package settings

import (
	"errors"
	"strconv"
	"time"
)

var (
	ErrNotFound = errors.New("setting not found")
	// ErrNotEditable guards settings flagged read-only.
	ErrNotEditable = errors.New("setting is not editable")
)

// Consumed keys. Anything else is opaque admin-managed configuration.
const (
	KeyMinLoanAmount         = "minLoanAmount"
	KeyMaxLoanAmount         = "maxLoanAmount"
	KeyApplicationFee        = "applicationFee"
	KeyApplicationFeePercent = "applicationFeePercent"
)

type Setting struct {
	ID             uint64    `gorm:"primaryKey;column:id" json:"-"`
	Key            string    `gorm:"size:64;uniqueIndex:ux_settings_key" json:"key"`
	Value          string    `gorm:"size:255" json:"value"`
	Description    string    `gorm:"type:text" json:"description,omitempty"`
	Category       string    `gorm:"size:32;default:'general';index" json:"category"`
	IsEditable     bool      `gorm:"default:true" json:"is_editable"`
	LastModifiedBy string    `gorm:"size:32" json:"last_modified_by,omitempty"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Setting) TableName() string { return "system_settings" }

// LoanSettings is the configuration snapshot the state machine and the
// eligibility evaluator consume. Resolved once per operation; call sites
// never re-query individual keys.
type LoanSettings struct {
	MinLoanAmount float64
	MaxLoanAmount float64
	// ApplicationFee is the fixed fee. If ApplicationFeePercent > 0 the
	// percentage of the principal takes precedence.
	ApplicationFee        float64
	ApplicationFeePercent float64
}

// Defaults mirrors the hardcoded fallbacks used when a key is absent.
func Defaults() LoanSettings {
	return LoanSettings{
		MinLoanAmount:         1000,
		MaxLoanAmount:         500000,
		ApplicationFee:        50,
		ApplicationFeePercent: 0,
	}
}

// FeeFor computes the application fee for a principal amount.
func (s LoanSettings) FeeFor(amount float64) float64 {
	if s.ApplicationFeePercent > 0 {
		return amount * s.ApplicationFeePercent / 100
	}
	return s.ApplicationFee
}

// ParseNumber reads a numeric setting value; malformed values fall back.
func ParseNumber(raw string, fallback float64) float64 {
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}
