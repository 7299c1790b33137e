package utils

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const BusinessDateLayout = "2006-01-02"

// ParseBusinessDate parses a strict YYYY-MM-DD calendar date. "today"
// resolution belongs to the transport boundary, never in here.
func ParseBusinessDate(s string) (time.Time, error) {
	d, err := time.Parse(BusinessDateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, &ValidationError{Reason: "invalid business date, expected YYYY-MM-DD"}
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC), nil
}

// RoundCash rounds a cash amount to cents.
func RoundCash(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

func NewTrue() *bool {
	b := true
	return &b
}

func NewFalse() *bool {
	b := false
	return &b
}

func DereferencePtr[T any](ptr *T, def ...T) T {
	if ptr != nil {
		return *ptr
	}
	var zero T
	if len(def) > 0 {
		return def[0]
	}
	return zero
}
