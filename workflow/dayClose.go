package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/restodata/resto_backend/config"
	"github.com/restodata/resto_backend/models"
	"github.com/restodata/resto_backend/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// DayCloseService owns the open -> closed transition. It is the only writer
// of BusinessDay.status.
type DayCloseService struct {
	DB        *gorm.DB
	Logger    *logrus.Logger
	Cfg       *config.AppConfig
	Evaluator *ClosureEvaluator
}

func NewDayCloseService(db *gorm.DB, logger *logrus.Logger, cfg *config.AppConfig, evaluator *ClosureEvaluator) *DayCloseService {
	return &DayCloseService{DB: db, Logger: logger, Cfg: cfg, Evaluator: evaluator}
}

type DayCloseResult struct {
	BusinessDate time.Time `json:"business_date"`
	ClosedAt     time.Time `json:"closed_at"`
	Forced       bool      `json:"forced"`
}

// CloseBusinessDay attempts the open -> closed transition for the given
// date.
//
// Concurrent attempts for the same date are serialized twice over: a
// best-effort redis lock keeps instances from piling up, and a MySQL
// advisory lock on the posting connection is authoritative. The UPDATE
// itself is still guarded on status='open' so a racing closer surfaces as
// AlreadyClosedError rather than a double transition.
//
// force bypasses the blocking gate only. It never runs remediation: a
// forced close leaves pending sales and open shifts exactly as they were.
func (s *DayCloseService) CloseBusinessDay(ctx context.Context, date time.Time, force bool) (*DayCloseResult, error) {
	lockKey := "day-close:" + date.Format(utils.BusinessDateLayout)

	// Redis lock is a best-effort optimization; reliability must not depend
	// on it. ErrNotObtained falls through to the advisory lock, which blocks.
	if locker := config.GetRedisLock(); locker != nil {
		lock, err := locker.Obtain(ctx, lockKey, 30*time.Second, nil)
		if err == nil {
			defer lock.Release(context.Background())
		} else if !errors.Is(err, redislock.ErrNotObtained) {
			config.LogError(s.Logger, "workflow", "CloseBusinessDay", "redislock.Obtain", lockKey, err)
		}
	}

	var result *DayCloseResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := acquireDayCloseLock(tx, lockKey); err != nil {
			return err
		}
		defer releaseDayCloseLock(tx, lockKey)

		day, err := models.FindBusinessDayByDate(tx, date)
		if err != nil {
			return err
		}

		snap, err := collectClosureSnapshot(tx, day)
		if err != nil {
			return err
		}
		verdict := buildClosureVerdict(day, snap, s.Evaluator.Limits)
		blocking := verdict.BlockingIssueCodes()

		if err := resolveCloseAttempt(day, blocking, force); err != nil {
			return err
		}

		closedAt := time.Now().UTC()
		forced := force && len(blocking) > 0

		res := tx.Model(&models.BusinessDay{}).
			Where("id = ? AND status = ?", day.ID, models.BusinessDayStatusOpen).
			Updates(map[string]interface{}{
				"Status":   models.BusinessDayStatusClosed,
				"ClosedAt": &closedAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Lost a race despite the locks; report the committed close.
			fresh, ferr := models.FindBusinessDayByDate(tx, date)
			if ferr != nil {
				return ferr
			}
			return &utils.AlreadyClosedError{
				BusinessDate: fresh.BusinessDate,
				ClosedAt:     utils.DereferencePtr(fresh.ClosedAt),
			}
		}

		if err := models.EnqueueDayCloseMessage(ctx, tx, day, closedAt, forced); err != nil {
			return err
		}

		result = &DayCloseResult{
			BusinessDate: day.BusinessDate,
			ClosedAt:     closedAt,
			Forced:       forced,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{
			"module":        "workflow",
			"business_date": result.BusinessDate.Format(utils.BusinessDateLayout),
			"forced":        result.Forced,
		}).Info("business day closed")
	}

	return result, nil
}

// resolveCloseAttempt is the pure gate decision: closed days conflict,
// blocked days need force, everything else proceeds.
func resolveCloseAttempt(day *models.BusinessDay, blocking []string, force bool) error {
	if day.Status == models.BusinessDayStatusClosed {
		return &utils.AlreadyClosedError{
			BusinessDate: day.BusinessDate,
			ClosedAt:     utils.DereferencePtr(day.ClosedAt),
		}
	}
	if len(blocking) > 0 && !force {
		return &utils.ClosureBlockedError{Issues: blocking}
	}
	return nil
}

// acquireDayCloseLock serializes day closing per date across instances using
// MySQL advisory locks.
// NOTE: GET_LOCK is connection-scoped, so this must run on the same
// transaction connection that commits the transition.
func acquireDayCloseLock(tx *gorm.DB, lockName string) error {
	var ok int
	if err := tx.Raw("SELECT GET_LOCK(?, 30)", lockName).Scan(&ok).Error; err != nil {
		return err
	}
	if ok != 1 {
		return fmt.Errorf("could not acquire day close lock %q", lockName)
	}
	return nil
}

func releaseDayCloseLock(tx *gorm.DB, lockName string) {
	var _ok int
	_ = tx.Raw("SELECT RELEASE_LOCK(?)", lockName).Scan(&_ok).Error
}
