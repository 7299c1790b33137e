package workflow

import (
	"context"
	"time"

	"github.com/restodata/resto_backend/models"
	"github.com/restodata/resto_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func lockForUpdate() clause.Locking {
	return clause.Locking{Strength: "UPDATE"}
}

// ForceCloseOperator is the closer identity stamped on ShiftClose rows
// created by the remediation path.
const ForceCloseOperator = "ADMIN_FORCE"

// RemediationService repairs the two blocking conditions an operator can
// fix in bulk: pending sales and shifts left open. Both operations are
// idempotent in intent: a second run finds nothing to do.
type RemediationService struct {
	DB     *gorm.DB
	Logger *logrus.Logger
}

func NewRemediationService(db *gorm.DB, logger *logrus.Logger) *RemediationService {
	return &RemediationService{DB: db, Logger: logger}
}

type ProcessedTransaction struct {
	ID            int             `json:"id"`
	TransactionId string          `json:"transaction_id"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
}

type ProcessPendingResult struct {
	Count int                    `json:"count"`
	Items []ProcessedTransaction `json:"items"`
}

// ProcessPendingTransactions flips every sale with processed=false to
// processed. Monetary fields are untouched. The select and update run in
// one transaction so the returned items are exactly the flipped rows.
func (s *RemediationService) ProcessPendingTransactions(ctx context.Context) (*ProcessPendingResult, error) {
	result := &ProcessPendingResult{Items: []ProcessedTransaction{}}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var pending []models.Sale
		if err := tx.
			Select("id", "transaction_id", "total_amount").
			Where("processed = ?", false).
			Order("id ASC").
			Clauses(lockForUpdate()).
			Find(&pending).Error; err != nil {
			return err
		}
		if len(pending) == 0 {
			return nil
		}

		ids := make([]int, 0, len(pending))
		for _, sale := range pending {
			ids = append(ids, sale.ID)
			result.Items = append(result.Items, ProcessedTransaction{
				ID:            sale.ID,
				TransactionId: sale.TransactionId,
				TotalAmount:   sale.TotalAmount,
			})
		}

		if err := tx.Model(&models.Sale{}).
			Where("id IN ?", ids).
			Update("processed", true).Error; err != nil {
			return err
		}
		result.Count = len(ids)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.Logger != nil && result.Count > 0 {
		s.Logger.WithFields(logrus.Fields{
			"module": "workflow",
			"count":  result.Count,
		}).Info("processed pending transactions")
	}

	return result, nil
}

// ForceCloseInput supplies the physical cash counts per shift id. Shifts
// without a count use the assume-exact policy: closing cash equals the
// computed expectation and the recorded difference is zero.
type ForceCloseInput struct {
	CashCounts map[int]decimal.Decimal
}

type ForcedShiftClose struct {
	ShiftId      int             `json:"shift_id"`
	PosId        int             `json:"pos_id"`
	ExpectedCash decimal.Decimal `json:"expected_cash"`
	ActualCash   decimal.Decimal `json:"actual_cash"`
	Difference   decimal.Decimal `json:"difference"`
}

type ForceCloseResult struct {
	Count int                `json:"count"`
	Items []ForcedShiftClose `json:"items"`
}

// ForceCloseShifts closes every active shift. Per shift, the status update
// and the ShiftClose audit row commit in one transaction: an evaluator can
// never observe a closed shift without its audit record.
func (s *RemediationService) ForceCloseShifts(ctx context.Context, input *ForceCloseInput) (*ForceCloseResult, error) {
	if input == nil {
		input = &ForceCloseInput{}
	}
	result := &ForceCloseResult{Items: []ForcedShiftClose{}}

	var openShifts []models.Shift
	if err := s.DB.WithContext(ctx).
		Where("status = ?", models.ShiftStatusActive).
		Order("id ASC").
		Find(&openShifts).Error; err != nil {
		return nil, err
	}

	for i := range openShifts {
		shift := &openShifts[i]

		var closed *ForcedShiftClose
		err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var salesTotal decimal.Decimal
			if err := tx.Raw(`
SELECT COALESCE(SUM(total_amount), 0)
FROM sales
WHERE shift_id = ? AND is_voided = false
`, shift.ID).Scan(&salesTotal).Error; err != nil {
				return err
			}
			var txnCount int64
			if err := tx.Model(&models.Sale{}).
				Where("shift_id = ? AND is_voided = ?", shift.ID, false).
				Count(&txnCount).Error; err != nil {
				return err
			}

			var cashCount *decimal.Decimal
			if c, ok := input.CashCounts[shift.ID]; ok {
				cashCount = &c
			}
			expected, actual, difference := forceCloseFigures(shift.OpeningCash, salesTotal, cashCount)

			endTime := time.Now().UTC()
			res := tx.Model(&models.Shift{}).
				Where("id = ? AND status = ?", shift.ID, models.ShiftStatusActive).
				Updates(map[string]interface{}{
					"Status":       models.ShiftStatusClosed,
					"EndTime":      &endTime,
					"ExpectedCash": expected,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				// closed concurrently between the listing and this tx
				return nil
			}

			shiftClose := models.ShiftClose{
				ShiftId:          shift.ID,
				ClosingCash:      actual,
				CashDifference:   difference,
				TransactionCount: int(txnCount),
				TotalSales:       salesTotal,
				ClosedBy:         ForceCloseOperator,
			}
			if err := tx.Create(&shiftClose).Error; err != nil {
				return err
			}

			closed = &ForcedShiftClose{
				ShiftId:      shift.ID,
				PosId:        shift.PosId,
				ExpectedCash: expected,
				ActualCash:   actual,
				Difference:   difference,
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		if closed != nil {
			result.Items = append(result.Items, *closed)
		}
	}
	result.Count = len(result.Items)

	if s.Logger != nil && result.Count > 0 {
		s.Logger.WithFields(logrus.Fields{
			"module": "workflow",
			"count":  result.Count,
		}).Info("force closed shifts")
	}

	return result, nil
}

// forceCloseFigures computes the closing cash figures for a forced close.
// cashCount is the operator's physical count; nil means assume-exact.
func forceCloseFigures(openingCash, salesTotal decimal.Decimal, cashCount *decimal.Decimal) (expected, actual, difference decimal.Decimal) {
	expected = utils.RoundCash(openingCash.Add(salesTotal))
	if cashCount == nil {
		return expected, expected, decimal.Zero
	}
	actual = utils.RoundCash(*cashCount)
	difference = actual.Sub(expected)
	return expected, actual, difference
}
