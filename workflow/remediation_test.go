package workflow

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestForceCloseFiguresAssumeExact(t *testing.T) {
	opening := decimal.NewFromInt(75)
	sales := decimal.NewFromInt(140)

	expected, actual, difference := forceCloseFigures(opening, sales, nil)

	if !expected.Equal(decimal.NewFromInt(215)) {
		t.Errorf("expected cash = %s, want 215", expected)
	}
	if !actual.Equal(expected) {
		t.Errorf("assume-exact: actual = %s, want %s", actual, expected)
	}
	if !difference.IsZero() {
		t.Errorf("assume-exact: difference = %s, want 0", difference)
	}
}

func TestForceCloseFiguresWithCount(t *testing.T) {
	opening := decimal.NewFromInt(75)
	sales := decimal.NewFromInt(140)
	count := decimal.RequireFromString("210.50")

	expected, actual, difference := forceCloseFigures(opening, sales, &count)

	if !expected.Equal(decimal.NewFromInt(215)) {
		t.Errorf("expected cash = %s, want 215", expected)
	}
	if !actual.Equal(count) {
		t.Errorf("actual = %s, want the operator count %s", actual, count)
	}
	if !difference.Equal(decimal.RequireFromString("-4.50")) {
		t.Errorf("difference = %s, want -4.50 (actual minus expected)", difference)
	}
}

func TestForceCloseFiguresOverage(t *testing.T) {
	opening := decimal.NewFromInt(100)
	sales := decimal.RequireFromString("242.50")
	count := decimal.RequireFromString("345.00")

	_, _, difference := forceCloseFigures(opening, sales, &count)

	if !difference.Equal(decimal.RequireFromString("2.50")) {
		t.Errorf("difference = %s, want 2.50", difference)
	}
}

func TestForceCloseFiguresRoundsToCents(t *testing.T) {
	opening := decimal.RequireFromString("10.005")
	sales := decimal.RequireFromString("0.004")
	count := decimal.RequireFromString("10.019")

	expected, actual, difference := forceCloseFigures(opening, sales, &count)

	if expected.Exponent() < -2 {
		t.Errorf("expected cash %s not rounded to cents", expected)
	}
	if actual.Exponent() < -2 {
		t.Errorf("actual cash %s not rounded to cents", actual)
	}
	if !difference.Equal(actual.Sub(expected)) {
		t.Errorf("difference %s inconsistent with actual %s and expected %s", difference, actual, expected)
	}
}
