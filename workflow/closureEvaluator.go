package workflow

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/restodata/resto_backend/config"
	"github.com/restodata/resto_backend/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type ClosureIssueType string

const (
	IssueUnprocessedTransactions ClosureIssueType = "unprocessed_transactions"
	IssuePosWithoutShifts        ClosureIssueType = "pos_without_shifts"
	IssueOpenShifts              ClosureIssueType = "open_shifts"
	IssueExcessiveCashDiffs      ClosureIssueType = "excessive_cash_differences"
	IssueUncountedInventory      ClosureIssueType = "uncounted_inventory"
	IssueIncompleteSalesData     ClosureIssueType = "incomplete_sales_data"
)

type IssueSeverity string

const (
	SeverityHigh   IssueSeverity = "high"
	SeverityMedium IssueSeverity = "medium"
)

type PosRef struct {
	PosNumber int    `json:"pos_number"`
	PosName   string `json:"pos_name"`
}

type ShiftCashDifference struct {
	ShiftId    int             `json:"shift_id"`
	Difference decimal.Decimal `json:"difference"`
}

type ClosureIssue struct {
	Type            ClosureIssueType      `json:"type"`
	Message         string                `json:"message"`
	Severity        IssueSeverity         `json:"severity"`
	Count           int                   `json:"count"`
	Amount          *decimal.Decimal      `json:"amount,omitempty"`
	TotalDifference *decimal.Decimal      `json:"total_difference,omitempty"`
	PosList         []PosRef              `json:"pos_list,omitempty"`
	ProblemShifts   []ShiftCashDifference `json:"problem_shifts,omitempty"`
}

type ClosureSummary struct {
	TotalErrors   int                      `json:"total_errors"`
	TotalWarnings int                      `json:"total_warnings"`
	CurrentStatus models.BusinessDayStatus `json:"current_status"`
}

// ClosureVerdict is the structured result of the closure check battery.
// Errors block closure; warnings never do.
type ClosureVerdict struct {
	BusinessDate   time.Time      `json:"business_date"`
	CanClose       bool           `json:"can_close"`
	ClosureBlocked bool           `json:"closure_blocked"`
	Summary        ClosureSummary `json:"summary"`
	Errors         []ClosureIssue `json:"errors"`
	Warnings       []ClosureIssue `json:"warnings"`
}

// BlockingIssueCodes returns the terse issue type codes used by the close
// attempt path. Full detail stays on the closure-status path.
func (v *ClosureVerdict) BlockingIssueCodes() []string {
	codes := make([]string, 0, len(v.Errors))
	for _, issue := range v.Errors {
		codes = append(codes, string(issue.Type))
	}
	return codes
}

type ClosureLimits struct {
	CashDifferenceLimit decimal.Decimal
}

// ClosureEvaluator runs the integrity check battery for one business day.
// All checks are read-only and evaluated against a single snapshot.
type ClosureEvaluator struct {
	DB     *gorm.DB
	Logger *logrus.Logger
	Limits ClosureLimits
}

func NewClosureEvaluator(db *gorm.DB, logger *logrus.Logger, cfg *config.AppConfig) *ClosureEvaluator {
	return &ClosureEvaluator{
		DB:     db,
		Logger: logger,
		Limits: ClosureLimits{CashDifferenceLimit: cfg.CashDifferenceLimit},
	}
}

// closureSnapshot is everything the check battery needs, fetched in one
// read-only transaction. Threshold decisions happen afterwards in
// buildClosureVerdict so they stay testable without a database.
type closureSnapshot struct {
	UnprocessedCount     int
	UnprocessedAmount    decimal.Decimal
	PosWithoutShifts     []PosRef
	OpenShiftCount       int
	ShiftCashDifferences []ShiftCashDifference
	UncountedInventory   int
	IncompleteSales      int
}

// Evaluate runs all six checks for the given date and returns the verdict.
// Returns utils.ErrBusinessDayNotFound if the day was never opened.
func (e *ClosureEvaluator) Evaluate(ctx context.Context, date time.Time) (*ClosureVerdict, error) {
	var verdict *ClosureVerdict

	err := e.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		day, err := models.FindBusinessDayByDate(tx, date)
		if err != nil {
			return err
		}
		snap, err := collectClosureSnapshot(tx, day)
		if err != nil {
			return err
		}
		verdict = buildClosureVerdict(day, snap, e.Limits)
		return nil
	}, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, err
	}

	if e.Logger != nil {
		e.Logger.WithFields(logrus.Fields{
			"module":        "workflow",
			"business_date": date.Format("2006-01-02"),
			"can_close":     verdict.CanClose,
			"errors":        verdict.Summary.TotalErrors,
			"warnings":      verdict.Summary.TotalWarnings,
		}).Info("closure status evaluated")
	}

	return verdict, nil
}

func collectClosureSnapshot(tx *gorm.DB, day *models.BusinessDay) (*closureSnapshot, error) {
	snap := &closureSnapshot{}

	// Check 1: unprocessed transactions.
	var unprocessed struct {
		Count  int
		Amount decimal.Decimal
	}
	if err := tx.Raw(`
SELECT COUNT(*) AS count, COALESCE(SUM(total_amount), 0) AS amount
FROM sales
WHERE business_day_id = ? AND processed = false
`, day.ID).Scan(&unprocessed).Error; err != nil {
		return nil, err
	}
	snap.UnprocessedCount = unprocessed.Count
	snap.UnprocessedAmount = unprocessed.Amount

	// Check 2: enabled POS with no shift rows at all.
	if err := tx.Raw(`
SELECT p.pos_number, p.pos_name
FROM point_of_sales p
	LEFT JOIN shifts s ON s.pos_id = p.id
WHERE p.business_day_id = ? AND p.is_enabled = true AND s.id IS NULL
`, day.ID).Scan(&snap.PosWithoutShifts).Error; err != nil {
		return nil, err
	}

	// Check 3: shifts still active.
	var openShifts int64
	if err := tx.Model(&models.Shift{}).
		Where("business_day_id = ? AND status = ?", day.ID, models.ShiftStatusActive).
		Count(&openShifts).Error; err != nil {
		return nil, err
	}
	snap.OpenShiftCount = int(openShifts)

	// Check 4 input: every shift-close difference for the day. The limit is
	// applied in buildClosureVerdict, not in SQL.
	if err := tx.Raw(`
SELECT sc.shift_id, sc.cash_difference AS difference
FROM shift_closes sc
	JOIN shifts s ON s.id = sc.shift_id
WHERE s.business_day_id = ?
`, day.ID).Scan(&snap.ShiftCashDifferences).Error; err != nil {
		return nil, err
	}

	// Check 5: daily-count inventory not counted on the business date.
	var uncounted int64
	if err := tx.Model(&models.InventoryItem{}).
		Where("requires_daily_count = true AND (last_counted_at IS NULL OR DATE(last_counted_at) < ?)", day.BusinessDate).
		Count(&uncounted).Error; err != nil {
		return nil, err
	}
	snap.UncountedInventory = int(uncounted)

	// Check 6: sales with missing or inconsistent data.
	var incomplete int64
	if err := tx.Model(&models.Sale{}).
		Where(`business_day_id = ? AND (
			employee_id IS NULL OR
			customer_count IS NULL OR
			payment_method IS NULL OR
			(payment_method = 'cash' AND cash_received = 0) OR
			(payment_method = 'card' AND card_amount = 0)
		)`, day.ID).
		Count(&incomplete).Error; err != nil {
		return nil, err
	}
	snap.IncompleteSales = int(incomplete)

	return snap, nil
}

// buildClosureVerdict assembles the verdict from a snapshot. Pure: the
// checks are independent and order does not matter.
func buildClosureVerdict(day *models.BusinessDay, snap *closureSnapshot, limits ClosureLimits) *ClosureVerdict {
	verdict := &ClosureVerdict{
		BusinessDate: day.BusinessDate,
		CanClose:     true,
		Errors:       []ClosureIssue{},
		Warnings:     []ClosureIssue{},
	}

	if snap.UnprocessedCount > 0 {
		amount := snap.UnprocessedAmount
		verdict.Errors = append(verdict.Errors, ClosureIssue{
			Type:     IssueUnprocessedTransactions,
			Message:  fmt.Sprintf("%d unprocessed transactions", snap.UnprocessedCount),
			Severity: SeverityHigh,
			Count:    snap.UnprocessedCount,
			Amount:   &amount,
		})
	}

	if len(snap.PosWithoutShifts) > 0 {
		verdict.Errors = append(verdict.Errors, ClosureIssue{
			Type:     IssuePosWithoutShifts,
			Message:  fmt.Sprintf("%d enabled POS without shifts", len(snap.PosWithoutShifts)),
			Severity: SeverityHigh,
			Count:    len(snap.PosWithoutShifts),
			PosList:  snap.PosWithoutShifts,
		})
	}

	if snap.OpenShiftCount > 0 {
		verdict.Errors = append(verdict.Errors, ClosureIssue{
			Type:     IssueOpenShifts,
			Message:  fmt.Sprintf("%d shifts still open", snap.OpenShiftCount),
			Severity: SeverityHigh,
			Count:    snap.OpenShiftCount,
		})
	}

	totalDifference := decimal.Zero
	var offenders []ShiftCashDifference
	for _, d := range snap.ShiftCashDifferences {
		totalDifference = totalDifference.Add(d.Difference.Abs())
		if d.Difference.Abs().GreaterThan(limits.CashDifferenceLimit) {
			offenders = append(offenders, d)
		}
	}
	if len(offenders) > 0 {
		verdict.Errors = append(verdict.Errors, ClosureIssue{
			Type:            IssueExcessiveCashDiffs,
			Message:         fmt.Sprintf("%d shifts with cash difference over %s", len(offenders), limits.CashDifferenceLimit),
			Severity:        SeverityHigh,
			Count:           len(offenders),
			TotalDifference: &totalDifference,
			ProblemShifts:   offenders,
		})
	}

	if snap.UncountedInventory > 0 {
		verdict.Warnings = append(verdict.Warnings, ClosureIssue{
			Type:     IssueUncountedInventory,
			Message:  fmt.Sprintf("%d inventory items not counted today", snap.UncountedInventory),
			Severity: SeverityMedium,
			Count:    snap.UncountedInventory,
		})
	}

	if snap.IncompleteSales > 0 {
		verdict.Warnings = append(verdict.Warnings, ClosureIssue{
			Type:     IssueIncompleteSalesData,
			Message:  fmt.Sprintf("%d sales with missing data", snap.IncompleteSales),
			Severity: SeverityMedium,
			Count:    snap.IncompleteSales,
		})
	}

	verdict.CanClose = len(verdict.Errors) == 0
	verdict.ClosureBlocked = !verdict.CanClose
	verdict.Summary = ClosureSummary{
		TotalErrors:   len(verdict.Errors),
		TotalWarnings: len(verdict.Warnings),
		CurrentStatus: day.Status,
	}

	return verdict
}
