package workflow

import (
	"testing"
	"time"

	"github.com/restodata/resto_backend/models"
	"github.com/shopspring/decimal"
)

// NOTE: These tests are intentionally DB-free. They validate the verdict
// semantics over a fixed snapshot: which conditions block, which only warn,
// and how the cash difference limit is applied. The snapshot queries
// themselves are covered by the integration tests in models.

func testLimits() ClosureLimits {
	return ClosureLimits{CashDifferenceLimit: decimal.NewFromInt(25)}
}

func testDay() *models.BusinessDay {
	return &models.BusinessDay{
		ID:           1,
		BusinessDate: time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC),
		Status:       models.BusinessDayStatusOpen,
	}
}

func issueTypes(issues []ClosureIssue) []ClosureIssueType {
	types := make([]ClosureIssueType, 0, len(issues))
	for _, issue := range issues {
		types = append(types, issue.Type)
	}
	return types
}

func TestCleanDayCanClose(t *testing.T) {
	verdict := buildClosureVerdict(testDay(), &closureSnapshot{}, testLimits())

	if !verdict.CanClose {
		t.Fatalf("clean day should be closable, got errors %v", issueTypes(verdict.Errors))
	}
	if verdict.ClosureBlocked {
		t.Error("clean day should not be blocked")
	}
	if verdict.Summary.TotalErrors != 0 || verdict.Summary.TotalWarnings != 0 {
		t.Errorf("summary = %+v, want zero errors and warnings", verdict.Summary)
	}
	if verdict.Summary.CurrentStatus != models.BusinessDayStatusOpen {
		t.Errorf("current status = %s, want open", verdict.Summary.CurrentStatus)
	}
}

func TestEachBlockingConditionBlocksAlone(t *testing.T) {
	cases := []struct {
		name string
		snap closureSnapshot
		want ClosureIssueType
	}{
		{
			name: "unprocessed transactions",
			snap: closureSnapshot{UnprocessedCount: 3, UnprocessedAmount: decimal.NewFromInt(120)},
			want: IssueUnprocessedTransactions,
		},
		{
			name: "pos without shifts",
			snap: closureSnapshot{PosWithoutShifts: []PosRef{{PosNumber: 2, PosName: "Patio"}}},
			want: IssuePosWithoutShifts,
		},
		{
			name: "open shifts",
			snap: closureSnapshot{OpenShiftCount: 1},
			want: IssueOpenShifts,
		},
		{
			name: "excessive cash difference",
			snap: closureSnapshot{ShiftCashDifferences: []ShiftCashDifference{
				{ShiftId: 7, Difference: decimal.RequireFromString("-30.00")},
			}},
			want: IssueExcessiveCashDiffs,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			verdict := buildClosureVerdict(testDay(), &tc.snap, testLimits())
			if verdict.CanClose {
				t.Fatal("expected closure to be blocked")
			}
			if len(verdict.Errors) != 1 {
				t.Fatalf("errors = %v, want exactly one", issueTypes(verdict.Errors))
			}
			if verdict.Errors[0].Type != tc.want {
				t.Errorf("error type = %s, want %s", verdict.Errors[0].Type, tc.want)
			}
			codes := verdict.BlockingIssueCodes()
			if len(codes) != 1 || codes[0] != string(tc.want) {
				t.Errorf("blocking codes = %v, want [%s]", codes, tc.want)
			}
		})
	}
}

func TestCashDifferenceLimitIsExclusive(t *testing.T) {
	// A difference of exactly the limit passes; one cent over blocks.
	atLimit := closureSnapshot{ShiftCashDifferences: []ShiftCashDifference{
		{ShiftId: 1, Difference: decimal.RequireFromString("25.00")},
		{ShiftId: 2, Difference: decimal.RequireFromString("-25.00")},
	}}
	verdict := buildClosureVerdict(testDay(), &atLimit, testLimits())
	if !verdict.CanClose {
		t.Errorf("difference at the limit should not block, got %v", issueTypes(verdict.Errors))
	}

	overLimit := closureSnapshot{ShiftCashDifferences: []ShiftCashDifference{
		{ShiftId: 1, Difference: decimal.RequireFromString("25.01")},
	}}
	verdict = buildClosureVerdict(testDay(), &overLimit, testLimits())
	if verdict.CanClose {
		t.Error("difference one cent over the limit should block")
	}
}

func TestCashDifferenceUsesAbsoluteValue(t *testing.T) {
	snap := closureSnapshot{ShiftCashDifferences: []ShiftCashDifference{
		{ShiftId: 1, Difference: decimal.RequireFromString("-26.00")},
		{ShiftId: 2, Difference: decimal.RequireFromString("10.00")},
	}}
	verdict := buildClosureVerdict(testDay(), &snap, testLimits())

	if verdict.CanClose {
		t.Fatal("shortage of 26.00 should block")
	}
	issue := verdict.Errors[0]
	if issue.Count != 1 {
		t.Errorf("offender count = %d, want 1", issue.Count)
	}
	if issue.TotalDifference == nil || !issue.TotalDifference.Equal(decimal.RequireFromString("36.00")) {
		t.Errorf("total difference = %v, want 36.00 (sum of absolute values)", issue.TotalDifference)
	}
	if len(issue.ProblemShifts) != 1 || issue.ProblemShifts[0].ShiftId != 1 {
		t.Errorf("problem shifts = %+v, want only shift 1", issue.ProblemShifts)
	}
}

func TestWarningsNeverBlock(t *testing.T) {
	snap := closureSnapshot{
		UncountedInventory: 4,
		IncompleteSales:    2,
	}
	verdict := buildClosureVerdict(testDay(), &snap, testLimits())

	if !verdict.CanClose {
		t.Fatalf("warnings must not block closure, got errors %v", issueTypes(verdict.Errors))
	}
	if len(verdict.Warnings) != 2 {
		t.Fatalf("warnings = %v, want 2", issueTypes(verdict.Warnings))
	}
	if verdict.Summary.TotalWarnings != 2 {
		t.Errorf("summary warnings = %d, want 2", verdict.Summary.TotalWarnings)
	}
	if len(verdict.BlockingIssueCodes()) != 0 {
		t.Errorf("blocking codes = %v, want none", verdict.BlockingIssueCodes())
	}
}

func TestConditionsAccumulateIndependently(t *testing.T) {
	snap := closureSnapshot{
		UnprocessedCount:   3,
		UnprocessedAmount:  decimal.NewFromInt(120),
		OpenShiftCount:     1,
		UncountedInventory: 2,
	}
	verdict := buildClosureVerdict(testDay(), &snap, testLimits())

	if len(verdict.Errors) != 2 {
		t.Fatalf("errors = %v, want unprocessed_transactions and open_shifts", issueTypes(verdict.Errors))
	}
	if len(verdict.Warnings) != 1 {
		t.Fatalf("warnings = %v, want uncounted_inventory", issueTypes(verdict.Warnings))
	}
	if verdict.Summary.TotalErrors != 2 || verdict.Summary.TotalWarnings != 1 {
		t.Errorf("summary = %+v, want 2 errors and 1 warning", verdict.Summary)
	}
}

func TestUnprocessedIssueCarriesAmount(t *testing.T) {
	snap := closureSnapshot{UnprocessedCount: 3, UnprocessedAmount: decimal.RequireFromString("120.00")}
	verdict := buildClosureVerdict(testDay(), &snap, testLimits())

	issue := verdict.Errors[0]
	if issue.Count != 3 {
		t.Errorf("count = %d, want 3", issue.Count)
	}
	if issue.Amount == nil || !issue.Amount.Equal(decimal.RequireFromString("120.00")) {
		t.Errorf("amount = %v, want 120.00", issue.Amount)
	}
	if issue.Severity != SeverityHigh {
		t.Errorf("severity = %s, want high", issue.Severity)
	}
}
