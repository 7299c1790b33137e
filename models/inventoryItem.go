package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InventoryItem feeds the uncounted-inventory closure warning: items with
// requires_daily_count must have been counted on the business date.
type InventoryItem struct {
	ID                 int             `gorm:"primary_key" json:"id"`
	Name               string          `gorm:"size:100;not null" json:"name"`
	Unit               string          `gorm:"size:20" json:"unit"`
	CurrentStock       decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"current_stock"`
	RequiresDailyCount *bool           `gorm:"not null;default:false" json:"requires_daily_count"`
	LastCountedAt      *time.Time      `json:"last_counted_at"`
	CreatedAt          time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}
