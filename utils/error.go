package utils

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrorRecordNotFound = errors.New("record not found")

// ErrBusinessDayNotFound is returned when no business day row exists for the
// requested calendar date. Callers that want auto-provisioning must open the
// day explicitly and retry; the close path never creates rows.
var ErrBusinessDayNotFound = errors.New("business day not found")

// AlreadyClosedError signals an idempotent conflict: the day was closed
// earlier and the original closing timestamp is preserved for the caller.
type AlreadyClosedError struct {
	BusinessDate time.Time
	ClosedAt     time.Time
}

func (e *AlreadyClosedError) Error() string {
	return fmt.Sprintf("business day %s already closed at %s",
		e.BusinessDate.Format("2006-01-02"), e.ClosedAt.Format(time.RFC3339))
}

// ClosureBlockedError carries issue type codes only, not full check detail.
// The closure-status path exposes the full verdict; the close attempt stays
// deliberately terse.
type ClosureBlockedError struct {
	Issues []string
}

func (e *ClosureBlockedError) Error() string {
	return "cannot close business day: " + strings.Join(e.Issues, ", ")
}

// ValidationError marks malformed caller input (for example an unparseable
// business date) as distinct from store failures.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}
