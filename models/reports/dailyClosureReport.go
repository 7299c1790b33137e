package reports

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/restodata/resto_backend/config"
	"github.com/restodata/resto_backend/models"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

type DailyClosureRow struct {
	ShiftId          int              `json:"shift_id"`
	PosNumber        int              `json:"pos_number"`
	PosName          string           `json:"pos_name"`
	OpeningCash      decimal.Decimal  `json:"opening_cash"`
	ExpectedCash     decimal.Decimal  `json:"expected_cash"`
	ClosingCash      decimal.Decimal  `json:"closing_cash"`
	CashDifference   decimal.Decimal  `json:"cash_difference"`
	TransactionCount int              `json:"transaction_count"`
	TotalSales       decimal.Decimal  `json:"total_sales"`
	ClosedBy         string           `json:"closed_by"`
	EndTime          *time.Time       `json:"end_time"`
}

// DailyClosureReport is the settlement sheet for one business day: every
// closed shift's cash figures plus day totals.
type DailyClosureReport struct {
	BusinessDate        time.Time                `json:"business_date"`
	Status              models.BusinessDayStatus `json:"status"`
	ClosedAt            *time.Time               `json:"closed_at"`
	TotalSales          decimal.Decimal          `json:"total_sales"`
	TotalCashDifference decimal.Decimal          `json:"total_cash_difference"`
	Rows                []*DailyClosureRow       `json:"rows"`
}

func GetDailyClosureReport(ctx context.Context, date time.Time) (*DailyClosureReport, error) {
	day, err := models.GetBusinessDayByDate(ctx, date)
	if err != nil {
		return nil, err
	}

	report := &DailyClosureReport{
		BusinessDate: day.BusinessDate,
		Status:       day.Status,
		ClosedAt:     day.ClosedAt,
		Rows:         []*DailyClosureRow{},
	}

	sql := `
SELECT
	s.id AS shift_id,
	p.pos_number,
	p.pos_name,
	s.opening_cash,
	s.expected_cash,
	sc.closing_cash,
	sc.cash_difference,
	sc.transaction_count,
	sc.total_sales,
	sc.closed_by,
	s.end_time
FROM
	shifts s
	JOIN point_of_sales p ON p.id = s.pos_id
	JOIN shift_closes sc ON sc.shift_id = s.id
WHERE
	s.business_day_id = ?
ORDER BY
	p.pos_number, s.id
`
	db := config.GetDB()
	if err := db.WithContext(ctx).Raw(sql, day.ID).Scan(&report.Rows).Error; err != nil {
		return nil, err
	}

	for _, row := range report.Rows {
		report.TotalSales = report.TotalSales.Add(row.TotalSales)
		report.TotalCashDifference = report.TotalCashDifference.Add(row.CashDifference.Abs())
	}

	return report, nil
}

// WriteExcel renders the report as an xlsx workbook.
func (r *DailyClosureReport) WriteExcel(w io.Writer) error {
	f := excelize.NewFile()
	const sheet = "Sheet1"

	headers := []string{
		"Shift", "POS #", "POS Name", "Opening Cash", "Expected Cash",
		"Closing Cash", "Cash Difference", "Transactions", "Total Sales", "Closed By",
	}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		f.SetCellValue(sheet, cell, h)
	}

	for i, row := range r.Rows {
		rowNo := i + 2
		f.SetCellValue(sheet, "A"+fmt.Sprint(rowNo), row.ShiftId)
		f.SetCellValue(sheet, "B"+fmt.Sprint(rowNo), row.PosNumber)
		f.SetCellValue(sheet, "C"+fmt.Sprint(rowNo), row.PosName)
		f.SetCellValue(sheet, "D"+fmt.Sprint(rowNo), row.OpeningCash.String())
		f.SetCellValue(sheet, "E"+fmt.Sprint(rowNo), row.ExpectedCash.String())
		f.SetCellValue(sheet, "F"+fmt.Sprint(rowNo), row.ClosingCash.String())
		f.SetCellValue(sheet, "G"+fmt.Sprint(rowNo), row.CashDifference.String())
		f.SetCellValue(sheet, "H"+fmt.Sprint(rowNo), row.TransactionCount)
		f.SetCellValue(sheet, "I"+fmt.Sprint(rowNo), row.TotalSales.String())
		f.SetCellValue(sheet, "J"+fmt.Sprint(rowNo), row.ClosedBy)
	}

	totalsRow := len(r.Rows) + 3
	f.SetCellValue(sheet, "C"+fmt.Sprint(totalsRow), "Totals")
	f.SetCellValue(sheet, "G"+fmt.Sprint(totalsRow), r.TotalCashDifference.String())
	f.SetCellValue(sheet, "I"+fmt.Sprint(totalsRow), r.TotalSales.String())

	return f.Write(w)
}
