package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Shift is one cash drawer session on a terminal. expected_cash is computed
// at close time: opening_cash + the sum of the shift's non-voided sales.
type Shift struct {
	ID            int             `gorm:"primary_key" json:"id"`
	PosId         int             `gorm:"index;not null" json:"pos_id"`
	BusinessDayId int             `gorm:"index;not null" json:"business_day_id"`
	EmployeeId    *int            `json:"employee_id"`
	Status        ShiftStatus     `gorm:"type:enum('active','closed');not null;default:'active';index" json:"status"`
	OpeningCash   decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"opening_cash"`
	ExpectedCash  decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"expected_cash"`
	StartTime     time.Time       `gorm:"not null" json:"start_time"`
	EndTime       *time.Time      `json:"end_time"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}
