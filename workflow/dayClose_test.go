package workflow

import (
	"errors"
	"testing"
	"time"

	"github.com/restodata/resto_backend/models"
	"github.com/restodata/resto_backend/utils"
)

func openDay() *models.BusinessDay {
	return &models.BusinessDay{
		ID:           1,
		BusinessDate: time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC),
		Status:       models.BusinessDayStatusOpen,
	}
}

func closedDay() *models.BusinessDay {
	closedAt := time.Date(2025, 3, 15, 23, 45, 0, 0, time.UTC)
	day := openDay()
	day.Status = models.BusinessDayStatusClosed
	day.ClosedAt = &closedAt
	return day
}

func TestCloseAttemptOnCleanOpenDay(t *testing.T) {
	if err := resolveCloseAttempt(openDay(), nil, false); err != nil {
		t.Fatalf("clean open day should close, got %v", err)
	}
}

func TestCloseAttemptOnClosedDayConflicts(t *testing.T) {
	for _, force := range []bool{false, true} {
		err := resolveCloseAttempt(closedDay(), nil, force)
		var alreadyClosed *utils.AlreadyClosedError
		if !errors.As(err, &alreadyClosed) {
			t.Fatalf("force=%v: err = %v, want AlreadyClosedError", force, err)
		}
		if alreadyClosed.ClosedAt.IsZero() {
			t.Errorf("force=%v: ClosedAt should carry the original close time", force)
		}
	}
}

func TestCloseAttemptBlockedWithoutForce(t *testing.T) {
	blocking := []string{"open_shifts", "unprocessed_transactions"}

	err := resolveCloseAttempt(openDay(), blocking, false)
	var blocked *utils.ClosureBlockedError
	if !errors.As(err, &blocked) {
		t.Fatalf("err = %v, want ClosureBlockedError", err)
	}
	if len(blocked.Issues) != 2 {
		t.Errorf("issues = %v, want both blocking codes", blocked.Issues)
	}
}

func TestCloseAttemptBlockedWithForceProceeds(t *testing.T) {
	blocking := []string{"open_shifts"}
	if err := resolveCloseAttempt(openDay(), blocking, true); err != nil {
		t.Fatalf("force should bypass blocking issues, got %v", err)
	}
}

func TestAlreadyClosedBeatsBlocked(t *testing.T) {
	// A closed day with lingering issues still answers conflict, not blocked.
	err := resolveCloseAttempt(closedDay(), []string{"open_shifts"}, false)
	var alreadyClosed *utils.AlreadyClosedError
	if !errors.As(err, &alreadyClosed) {
		t.Fatalf("err = %v, want AlreadyClosedError", err)
	}
}
