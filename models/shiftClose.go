package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ShiftClose is the append-only audit record written when a shift closes.
// cash_difference is signed: closing_cash - expected_cash.
type ShiftClose struct {
	ID               int             `gorm:"primary_key" json:"id"`
	ShiftId          int             `gorm:"index;not null" json:"shift_id"`
	ClosingCash      decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"closing_cash"`
	CashDifference   decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"cash_difference"`
	TransactionCount int             `gorm:"not null;default:0" json:"transaction_count"`
	TotalSales       decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"total_sales"`
	ClosedBy         string          `gorm:"size:50;not null" json:"closed_by"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
}
