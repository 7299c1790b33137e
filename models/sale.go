package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale is a single POS ticket. processed marks hand-off to downstream
// accounting; is_voided excludes the ticket from cash expectations.
type Sale struct {
	ID            int              `gorm:"primary_key" json:"id"`
	TransactionId string           `gorm:"size:50;uniqueIndex;not null" json:"transaction_id"`
	BusinessDayId int              `gorm:"index;not null" json:"business_day_id"`
	ShiftId       int              `gorm:"index;not null" json:"shift_id"`
	PosId         int              `gorm:"index;not null" json:"pos_id"`
	EmployeeId    *int             `json:"employee_id"`
	CustomerCount *int             `json:"customer_count"`
	Subtotal      decimal.Decimal  `gorm:"type:decimal(10,2);not null;default:0" json:"subtotal"`
	Tax           decimal.Decimal  `gorm:"type:decimal(10,2);not null;default:0" json:"tax"`
	TotalAmount   decimal.Decimal  `gorm:"type:decimal(10,2);not null;default:0" json:"total_amount"`
	PaymentMethod *PaymentMethod   `gorm:"type:enum('cash','card')" json:"payment_method"`
	CashReceived  decimal.Decimal  `gorm:"type:decimal(10,2);not null;default:0" json:"cash_received"`
	CardAmount    decimal.Decimal  `gorm:"type:decimal(10,2);not null;default:0" json:"card_amount"`
	Processed     *bool            `gorm:"not null;default:false;index" json:"processed"`
	IsVoided      *bool            `gorm:"not null;default:false" json:"is_voided"`
	SaleTime      time.Time        `gorm:"not null" json:"sale_time"`
	CreatedAt     time.Time        `gorm:"autoCreateTime" json:"created_at"`
}
