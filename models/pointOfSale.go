package models

import (
	"context"
	"errors"
	"time"

	"github.com/restodata/resto_backend/config"
	"github.com/restodata/resto_backend/utils"
	"gorm.io/gorm"
)

// PointOfSale is a terminal registered for a business day. Disabled
// terminals are excluded from the pos-without-shifts closure check.
type PointOfSale struct {
	ID             int        `gorm:"primary_key" json:"id"`
	BusinessDayId  int        `gorm:"index;not null" json:"business_day_id"`
	PosNumber      int        `gorm:"not null" json:"pos_number"`
	PosName        string     `gorm:"size:100;not null" json:"pos_name"`
	IsEnabled      *bool      `gorm:"not null;default:true" json:"is_enabled"`
	DisabledAt     *time.Time `json:"disabled_at"`
	ReasonDisabled *string    `gorm:"size:255" json:"reason_disabled"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

type PosStatusInput struct {
	Enabled *bool   `json:"enabled" binding:"required"`
	Reason  *string `json:"reason"`
}

// SetPointOfSaleStatus enables or disables a terminal. Disabling stamps
// disabled_at and keeps the operator-supplied reason for the audit trail.
func SetPointOfSaleStatus(ctx context.Context, id int, input *PosStatusInput) (*PointOfSale, error) {
	db := config.GetDB()

	var pos PointOfSale
	if err := db.WithContext(ctx).First(&pos, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}

	enabled := utils.DereferencePtr(input.Enabled)
	updates := map[string]interface{}{
		"IsEnabled":      enabled,
		"ReasonDisabled": input.Reason,
	}
	if enabled {
		updates["DisabledAt"] = nil
		updates["ReasonDisabled"] = nil
	} else {
		now := time.Now().UTC()
		updates["DisabledAt"] = &now
	}

	if err := db.WithContext(ctx).Model(&pos).Updates(updates).Error; err != nil {
		return nil, err
	}

	return &pos, nil
}
