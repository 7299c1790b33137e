package models_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/restodata/resto_backend/config"
	"github.com/restodata/resto_backend/models"
	"github.com/restodata/resto_backend/utils"
	"github.com/restodata/resto_backend/workflow"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Full settlement cycle against real MySQL + redis: a mid-afternoon day
// with pending tickets and an open drawer is blocked, the remediation
// endpoints repair it, and the close commits exactly once with an outbox
// row in the same transaction.
func TestDayCloseFullCycle(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	// Wire env for config.Connect* helpers.
	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "resto_test")
	t.Setenv("CASH_DIFFERENCE_LIMIT", "25.00")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	models.MigrateTable()

	db := config.GetDB()
	if db == nil {
		t.Fatalf("db is nil after ConnectDatabaseWithRetry")
	}

	logger := logrus.New()
	cfg := config.LoadAppConfig()
	evaluator := workflow.NewClosureEvaluator(db, logger, cfg)
	remediation := workflow.NewRemediationService(db, logger)
	dayClose := workflow.NewDayCloseService(db, logger, cfg, evaluator)

	date := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	day, err := models.OpenBusinessDay(ctx, &models.NewBusinessDay{BusinessDate: date})
	if err != nil {
		t.Fatalf("OpenBusinessDay: %v", err)
	}

	pos := models.PointOfSale{BusinessDayId: day.ID, PosNumber: 1, PosName: "Front Counter", IsEnabled: utils.NewTrue()}
	if err := db.WithContext(ctx).Create(&pos).Error; err != nil {
		t.Fatalf("create pos: %v", err)
	}

	employee := 101
	customers := 2
	shift := models.Shift{
		PosId:         pos.ID,
		BusinessDayId: day.ID,
		EmployeeId:    &employee,
		Status:        models.ShiftStatusActive,
		OpeningCash:   decimal.NewFromInt(75),
		StartTime:     date.Add(8 * time.Hour),
	}
	if err := db.WithContext(ctx).Create(&shift).Error; err != nil {
		t.Fatalf("create shift: %v", err)
	}

	cash := models.PaymentMethodCash
	mkSale := func(txn, total string, processed bool) models.Sale {
		amount := decimal.RequireFromString(total)
		return models.Sale{
			TransactionId: txn,
			BusinessDayId: day.ID,
			ShiftId:       shift.ID,
			PosId:         pos.ID,
			EmployeeId:    &employee,
			CustomerCount: &customers,
			Subtotal:      amount,
			TotalAmount:   amount,
			PaymentMethod: &cash,
			CashReceived:  amount,
			Processed:     &processed,
			IsVoided:      utils.NewFalse(),
			SaleTime:      date.Add(12 * time.Hour),
		}
	}
	sales := []models.Sale{
		// $140 of processed cash sales on the open drawer.
		mkSale("TXN-1", "85.00", true),
		mkSale("TXN-2", "55.00", true),
		// Three pending tickets totaling $120.
		mkSale("TXN-3", "45.00", false),
		mkSale("TXN-4", "35.00", false),
		mkSale("TXN-5", "40.00", false),
	}
	// A voided ticket must not move any expectation.
	voided := mkSale("TXN-6", "18.00", true)
	voided.IsVoided = utils.NewTrue()
	sales = append(sales, voided)

	for i := range sales {
		if err := db.WithContext(ctx).Create(&sales[i]).Error; err != nil {
			t.Fatalf("create sale %s: %v", sales[i].TransactionId, err)
		}
	}

	// 1) Status: blocked by unprocessed transactions and the open shift.
	verdict, err := evaluator.Evaluate(ctx, date)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if verdict.CanClose {
		t.Fatalf("day with pending tickets and open shift must be blocked")
	}
	codes := verdict.BlockingIssueCodes()
	wantCodes := map[string]bool{"unprocessed_transactions": false, "open_shifts": false}
	for _, c := range codes {
		if _, ok := wantCodes[c]; ok {
			wantCodes[c] = true
		}
	}
	for c, seen := range wantCodes {
		if !seen {
			t.Fatalf("blocking codes %v missing %s", codes, c)
		}
	}

	// 2) Close without force: 422 semantics, nothing committed.
	if _, err := dayClose.CloseBusinessDay(ctx, date, false); err == nil {
		t.Fatalf("close of a blocked day must fail")
	} else {
		var blocked *utils.ClosureBlockedError
		if !errors.As(err, &blocked) {
			t.Fatalf("err = %v, want ClosureBlockedError", err)
		}
	}

	// 3) Remediate: flip pending tickets, then force close the drawer.
	pending, err := remediation.ProcessPendingTransactions(ctx)
	if err != nil {
		t.Fatalf("ProcessPendingTransactions: %v", err)
	}
	if pending.Count != 3 {
		t.Fatalf("processed %d pending tickets, want 3", pending.Count)
	}
	var pendingTotal decimal.Decimal
	for _, item := range pending.Items {
		pendingTotal = pendingTotal.Add(item.TotalAmount)
	}
	if !pendingTotal.Equal(decimal.RequireFromString("120.00")) {
		t.Fatalf("pending total = %s, want 120.00", pendingTotal)
	}

	// Idempotent: second run finds nothing.
	again, err := remediation.ProcessPendingTransactions(ctx)
	if err != nil {
		t.Fatalf("ProcessPendingTransactions(again): %v", err)
	}
	if again.Count != 0 {
		t.Fatalf("second remediation run processed %d tickets, want 0", again.Count)
	}

	forced, err := remediation.ForceCloseShifts(ctx, nil)
	if err != nil {
		t.Fatalf("ForceCloseShifts: %v", err)
	}
	if forced.Count != 1 {
		t.Fatalf("force closed %d shifts, want 1", forced.Count)
	}
	// Opening 75 + non-voided sales (140 + 120) = 335 expected; the
	// assume-exact policy records a zero difference.
	item := forced.Items[0]
	if !item.ExpectedCash.Equal(decimal.RequireFromString("335.00")) {
		t.Fatalf("expected cash = %s, want 335.00", item.ExpectedCash)
	}
	if !item.Difference.IsZero() {
		t.Fatalf("assume-exact difference = %s, want 0", item.Difference)
	}

	var closeRows int64
	if err := db.Model(&models.ShiftClose{}).Where("shift_id = ?", shift.ID).Count(&closeRows).Error; err != nil {
		t.Fatalf("count shift closes: %v", err)
	}
	if closeRows != 1 {
		t.Fatalf("shift close rows = %d, want exactly 1", closeRows)
	}

	// 4) Close for real.
	result, err := dayClose.CloseBusinessDay(ctx, date, false)
	if err != nil {
		t.Fatalf("CloseBusinessDay: %v", err)
	}
	if result.Forced {
		t.Fatalf("clean close must not be marked forced")
	}

	fresh, err := models.GetBusinessDayByDate(ctx, date)
	if err != nil {
		t.Fatalf("GetBusinessDayByDate: %v", err)
	}
	if fresh.Status != models.BusinessDayStatusClosed || fresh.ClosedAt == nil {
		t.Fatalf("day after close = %+v, want closed with ClosedAt set", fresh)
	}

	// The outbox row commits with the transition.
	var outbox models.DayCloseMessageRecord
	if err := db.Where("business_day_id = ?", day.ID).First(&outbox).Error; err != nil {
		t.Fatalf("fetch outbox row: %v", err)
	}
	if outbox.PublishStatus != models.OutboxPublishStatusPending {
		t.Fatalf("outbox status = %s, want PENDING", outbox.PublishStatus)
	}
	if outbox.Forced {
		t.Fatalf("outbox row marked forced for a clean close")
	}

	// 5) Closing again conflicts.
	_, err = dayClose.CloseBusinessDay(ctx, date, false)
	var alreadyClosed *utils.AlreadyClosedError
	if !errors.As(err, &alreadyClosed) {
		t.Fatalf("second close err = %v, want AlreadyClosedError", err)
	}
	if !alreadyClosed.ClosedAt.Equal(*fresh.ClosedAt) {
		t.Fatalf("conflict ClosedAt = %s, want %s", alreadyClosed.ClosedAt, *fresh.ClosedAt)
	}
}

// Forced close of a blocked day commits and flags the outbox message.
func TestDayCloseForcedBypassesBlockingIssues(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "resto_test")

	config.ConnectDatabaseWithRetry()
	models.MigrateTable()

	db := config.GetDB()
	logger := logrus.New()
	cfg := config.LoadAppConfig()
	evaluator := workflow.NewClosureEvaluator(db, logger, cfg)
	dayClose := workflow.NewDayCloseService(db, logger, cfg, evaluator)

	date := time.Date(2025, 3, 16, 0, 0, 0, 0, time.UTC)
	day, err := models.OpenBusinessDay(ctx, &models.NewBusinessDay{BusinessDate: date})
	if err != nil {
		t.Fatalf("OpenBusinessDay: %v", err)
	}

	pos := models.PointOfSale{BusinessDayId: day.ID, PosNumber: 1, PosName: "Front Counter", IsEnabled: utils.NewTrue()}
	if err := db.WithContext(ctx).Create(&pos).Error; err != nil {
		t.Fatalf("create pos: %v", err)
	}
	employee := 101
	shift := models.Shift{
		PosId:         pos.ID,
		BusinessDayId: day.ID,
		EmployeeId:    &employee,
		Status:        models.ShiftStatusActive,
		OpeningCash:   decimal.NewFromInt(50),
		StartTime:     date.Add(8 * time.Hour),
	}
	if err := db.WithContext(ctx).Create(&shift).Error; err != nil {
		t.Fatalf("create shift: %v", err)
	}

	result, err := dayClose.CloseBusinessDay(ctx, date, true)
	if err != nil {
		t.Fatalf("forced CloseBusinessDay: %v", err)
	}
	if !result.Forced {
		t.Fatalf("close over an open shift with force must be marked forced")
	}

	// Force bypasses the gate only: the shift is untouched.
	var freshShift models.Shift
	if err := db.First(&freshShift, shift.ID).Error; err != nil {
		t.Fatalf("fetch shift: %v", err)
	}
	if freshShift.Status != models.ShiftStatusActive {
		t.Fatalf("forced close must not close shifts, shift status = %s", freshShift.Status)
	}

	var outbox models.DayCloseMessageRecord
	if err := db.Where("business_day_id = ?", day.ID).First(&outbox).Error; err != nil {
		t.Fatalf("fetch outbox row: %v", err)
	}
	if !outbox.Forced {
		t.Fatalf("outbox row for a forced close must be flagged forced")
	}
}

func startRedisContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("resto-test-redis-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-p", "127.0.0.1:0:6379",
		"redis:7-alpine",
	)
	if err != nil {
		t.Fatalf("start redis container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "6379/tcp")
	if err != nil {
		t.Fatalf("redis docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "redis-cli", "ping")
		if err == nil {
			return name, port
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatalf("redis did not become ready")
	return "", ""
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("resto-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=resto_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent")
		if err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}
