package models

import (
	"context"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/restodata/resto_backend/config"
	"github.com/restodata/resto_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BusinessDay is the settlement unit: one row per calendar date.
// Status is mutated only by the day-close workflow; a closed day never
// reopens.
type BusinessDay struct {
	ID           int               `gorm:"primary_key" json:"id"`
	BusinessDate time.Time         `gorm:"uniqueIndex;not null" json:"business_date"`
	Status       BusinessDayStatus `gorm:"type:enum('open','closed');not null;default:'open'" json:"status"`
	ClosedAt     *time.Time        `json:"closed_at"`

	// MaxAllowedDifference is historical data carried per day. The closure
	// check reads its limit from AppConfig instead; see workflow.ClosureLimits.
	MaxAllowedDifference decimal.Decimal `gorm:"type:decimal(10,2);default:25.00" json:"max_allowed_difference"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewBusinessDay struct {
	BusinessDate         time.Time        `json:"business_date" binding:"required"`
	MaxAllowedDifference *decimal.Decimal `json:"max_allowed_difference"`
}

var ErrBusinessDayExists = errors.New("business day already exists for this date")

// GetBusinessDayByDate looks a day up by its calendar date.
func GetBusinessDayByDate(ctx context.Context, date time.Time) (*BusinessDay, error) {
	db := config.GetDB()
	return FindBusinessDayByDate(db.WithContext(ctx), date)
}

// FindBusinessDayByDate is the tx-scoped lookup used inside workflow
// transactions so the day row is read under the same snapshot as the
// aggregates.
func FindBusinessDayByDate(tx *gorm.DB, date time.Time) (*BusinessDay, error) {
	var day BusinessDay
	if err := tx.Where("business_date = ?", date).First(&day).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrBusinessDayNotFound
		}
		return nil, err
	}
	return &day, nil
}

// OpenBusinessDay provisions the day row for a calendar date. This is the
// explicit first half of the open-then-close recovery used by callers that
// hit ErrBusinessDayNotFound on close.
func OpenBusinessDay(ctx context.Context, input *NewBusinessDay) (*BusinessDay, error) {

	day := BusinessDay{
		BusinessDate:         input.BusinessDate,
		Status:               BusinessDayStatusOpen,
		MaxAllowedDifference: utils.DereferencePtr(input.MaxAllowedDifference, decimal.NewFromInt(25)),
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&day).Error; err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
			return nil, ErrBusinessDayExists
		}
		return nil, err
	}

	return &day, nil
}
