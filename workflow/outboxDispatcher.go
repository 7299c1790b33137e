package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/restodata/resto_backend/config"
	"github.com/restodata/resto_backend/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OutboxDispatcher publishes committed day-close events to Pub/Sub.
// Rows are claimed with SKIP LOCKED so multiple instances can run it;
// failures back off and poison rows go terminal after MaxAttempts.
type OutboxDispatcher struct {
	DB           *gorm.DB
	Logger       *logrus.Logger
	Topic        string
	LocalId      string
	DispatcherID string

	BatchSize      int
	PollInterval   time.Duration
	LockTimeout    time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
}

func NewOutboxDispatcher(db *gorm.DB, logger *logrus.Logger, cfg *config.AppConfig) *OutboxDispatcher {
	return &OutboxDispatcher{
		DB:             db,
		Logger:         logger,
		Topic:          cfg.DayCloseTopic,
		LocalId:        cfg.LocalId,
		DispatcherID:   uuid.NewString(),
		BatchSize:      20,
		PollInterval:   2 * time.Second,
		LockTimeout:    30 * time.Second,
		MaxAttempts:    20,
		InitialBackoff: 5 * time.Second,
	}
}

func (d *OutboxDispatcher) Run(ctx context.Context) {
	if d.Topic == "" {
		if d.Logger != nil {
			d.Logger.Warn("outbox dispatcher disabled: PUBSUB_TOPIC not configured")
		}
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		d.dispatchOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-time.After(d.PollInterval):
		}
	}
}

func (d *OutboxDispatcher) dispatchOnce(ctx context.Context) {
	now := time.Now().UTC()
	staleBefore := now.Add(-d.LockTimeout)
	db := d.DB
	if db == nil {
		return
	}

	var claimed []models.DayCloseMessageRecord
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Eligible:
		// - PENDING / FAILED and ready to retry
		// - PROCESSING with a stale lock (dispatcher crashed mid-batch)
		q := tx.
			Where(`
				(
					publish_status IN ? AND (next_attempt_at IS NULL OR next_attempt_at <= ?)
				)
				OR
				(
					publish_status = ? AND locked_at IS NOT NULL AND locked_at <= ?
				)
			`, []string{models.OutboxPublishStatusPending, models.OutboxPublishStatusFailed}, now, models.OutboxPublishStatusProcessing, staleBefore).
			Order("id ASC").
			Limit(d.BatchSize).
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
		if err := q.Find(&claimed).Error; err != nil {
			return err
		}
		for i := range claimed {
			// Poison rows go terminal.
			if d.MaxAttempts > 0 && claimed[i].PublishAttempts >= d.MaxAttempts {
				msg := fmt.Sprintf("max publish attempts exceeded (%d)", d.MaxAttempts)
				claimed[i].PublishStatus = models.OutboxPublishStatusDead
				if err := tx.Model(&models.DayCloseMessageRecord{}).Where("id = ?", claimed[i].ID).Updates(map[string]interface{}{
					"publish_status":     models.OutboxPublishStatusDead,
					"last_publish_error": &msg,
					"next_attempt_at":    nil,
					"locked_at":          nil,
					"locked_by":          nil,
				}).Error; err != nil {
					return err
				}
				continue
			}

			claimed[i].PublishStatus = models.OutboxPublishStatusProcessing
			if err := tx.Model(&models.DayCloseMessageRecord{}).Where("id = ?", claimed[i].ID).Updates(map[string]interface{}{
				"publish_status":   models.OutboxPublishStatusProcessing,
				"locked_at":        &now,
				"locked_by":        d.DispatcherID,
				"publish_attempts": gorm.Expr("publish_attempts + 1"),
			}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		config.LogError(d.Logger, "workflow", "dispatchOnce", "claim outbox rows", nil, err)
		return
	}

	for i := range claimed {
		record := &claimed[i]
		if record.PublishStatus != models.OutboxPublishStatusProcessing {
			continue
		}
		d.publishOne(ctx, record)
	}
}

func (d *OutboxDispatcher) publishOne(ctx context.Context, record *models.DayCloseMessageRecord) {
	pubCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msgID, err := config.PublishDayClose(pubCtx, d.Topic, config.DayCloseMessage{
		ID:            record.ID,
		LocalId:       d.LocalId,
		BusinessDate:  record.BusinessDate,
		ClosedAt:      record.ClosedAt,
		Forced:        record.Forced,
		CorrelationId: record.CorrelationId,
	})
	if err != nil {
		backoff := d.InitialBackoff * time.Duration(1<<min(record.PublishAttempts, 6))
		nextAttempt := time.Now().UTC().Add(backoff)
		errMsg := err.Error()
		if len(errMsg) > 500 {
			errMsg = errMsg[:500]
		}
		if uerr := d.DB.Model(&models.DayCloseMessageRecord{}).Where("id = ?", record.ID).Updates(map[string]interface{}{
			"publish_status":     models.OutboxPublishStatusFailed,
			"last_publish_error": &errMsg,
			"next_attempt_at":    &nextAttempt,
			"locked_at":          nil,
			"locked_by":          nil,
		}).Error; uerr != nil {
			config.LogError(d.Logger, "workflow", "publishOne", "mark failed", record.ID, uerr)
		}
		config.LogError(d.Logger, "workflow", "publishOne", "publish day close", record.ID, err)
		return
	}

	if uerr := d.DB.Model(&models.DayCloseMessageRecord{}).Where("id = ?", record.ID).Updates(map[string]interface{}{
		"publish_status":       models.OutboxPublishStatusSent,
		"published_message_id": &msgID,
		"next_attempt_at":      nil,
		"locked_at":            nil,
		"locked_by":            nil,
	}).Error; uerr != nil {
		config.LogError(d.Logger, "workflow", "publishOne", "mark sent", record.ID, uerr)
		return
	}

	if d.Logger != nil {
		d.Logger.WithFields(logrus.Fields{
			"module":        "workflow",
			"record_id":     record.ID,
			"business_date": record.BusinessDate.Format("2006-01-02"),
			"message_id":    msgID,
		}).Info("day close event published")
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
