package models

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/restodata/resto_backend/utils"
	"gorm.io/gorm"
)

const (
	OutboxPublishStatusPending    = "PENDING"
	OutboxPublishStatusProcessing = "PROCESSING"
	OutboxPublishStatusSent       = "SENT"
	OutboxPublishStatusFailed     = "FAILED"
	OutboxPublishStatusDead       = "DEAD"
)

// DayCloseMessageRecord is the transactional outbox row written inside the
// day-close transaction. The dispatcher publishes it to Pub/Sub after
// commit, so the close never blocks on (or rolls back because of) the
// broker.
type DayCloseMessageRecord struct {
	ID            int       `gorm:"primary_key" json:"id"`
	BusinessDayId int       `gorm:"index;not null" json:"business_day_id"`
	BusinessDate  time.Time `gorm:"not null" json:"business_date"`
	ClosedAt      time.Time `gorm:"not null" json:"closed_at"`
	Forced        bool      `gorm:"not null;default:false" json:"forced"`
	CorrelationId string    `gorm:"size:64" json:"correlation_id"`

	PublishStatus      string     `gorm:"size:20;not null;default:'PENDING';index" json:"publish_status"`
	PublishAttempts    int        `gorm:"not null;default:0" json:"publish_attempts"`
	LastPublishError   *string    `gorm:"size:512" json:"last_publish_error"`
	NextAttemptAt      *time.Time `json:"next_attempt_at"`
	LockedAt           *time.Time `json:"locked_at"`
	LockedBy           *string    `gorm:"size:64" json:"locked_by"`
	PublishedMessageId *string    `gorm:"size:128" json:"published_message_id"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// EnqueueDayCloseMessage writes the outbox row inside the caller's
// transaction. It must be called with the same tx that commits the
// status transition.
func EnqueueDayCloseMessage(ctx context.Context, tx *gorm.DB, day *BusinessDay, closedAt time.Time, forced bool) error {
	record := DayCloseMessageRecord{
		BusinessDayId: day.ID,
		BusinessDate:  day.BusinessDate,
		ClosedAt:      closedAt,
		Forced:        forced,
		PublishStatus: OutboxPublishStatusPending,
		CorrelationId: correlationIdFromContextOrNew(ctx),
	}
	return tx.Create(&record).Error
}

func correlationIdFromContextOrNew(ctx context.Context) string {
	if ctx != nil {
		if v, ok := utils.GetCorrelationIdFromContext(ctx); ok && v != "" {
			return v
		}
	}
	return uuid.NewString()
}
