package models

import (
	"context"
	"time"

	"github.com/restodata/resto_backend/config"
	"github.com/restodata/resto_backend/utils"
	"github.com/shopspring/decimal"
)

type PosSalesBreakdown struct {
	PosNumber    int             `json:"pos_number"`
	PosName      string          `json:"pos_name"`
	Transactions int             `json:"transactions"`
	Sales        decimal.Decimal `json:"sales"`
}

// DailySalesSummary is the manager-facing rollup of one day's tickets.
// Every monetary figure is scanned straight into decimal.Decimal at the
// store boundary; no float or text plumbing.
type DailySalesSummary struct {
	BusinessDate      time.Time            `json:"business_date"`
	TotalTransactions int                  `json:"total_transactions"`
	TotalSales        decimal.Decimal      `json:"total_sales"`
	AverageTicket     decimal.Decimal      `json:"average_ticket"`
	CashSales         decimal.Decimal      `json:"cash_sales"`
	CardSales         decimal.Decimal      `json:"card_sales"`
	VoidedAmount      decimal.Decimal      `json:"voided_amount"`
	VoidedCount       int                  `json:"voided_count"`
	UnprocessedCount  int                  `json:"unprocessed_count"`
	ByPos             []*PosSalesBreakdown `json:"by_pos"`
}

const salesSummaryCacheTTL = 30 * time.Second

// GetDailySalesSummary aggregates the day's sales and per-POS breakdown.
// Results are cached briefly in redis; the cache is best-effort and a
// redis failure falls through to the database.
func GetDailySalesSummary(ctx context.Context, date time.Time) (*DailySalesSummary, error) {

	cacheKey := "salesSummary:" + date.Format(utils.BusinessDateLayout)
	var cached DailySalesSummary
	if exists, err := config.GetRedisObject(cacheKey, &cached); err == nil && exists {
		return &cached, nil
	}

	db := config.GetDB()

	summary := DailySalesSummary{BusinessDate: date}

	totalsSQL := `
SELECT
	COUNT(s.id) AS total_transactions,
	COALESCE(SUM(s.total_amount), 0) AS total_sales,
	COALESCE(AVG(s.total_amount), 0) AS average_ticket,
	COALESCE(SUM(CASE WHEN s.payment_method = 'cash' THEN s.total_amount ELSE 0 END), 0) AS cash_sales,
	COALESCE(SUM(CASE WHEN s.payment_method = 'card' THEN s.total_amount ELSE 0 END), 0) AS card_sales,
	COALESCE(SUM(CASE WHEN s.is_voided = true THEN s.total_amount ELSE 0 END), 0) AS voided_amount,
	COUNT(CASE WHEN s.is_voided = true THEN 1 END) AS voided_count,
	COUNT(CASE WHEN s.processed = false THEN 1 END) AS unprocessed_count
FROM
	sales s
	JOIN business_days d ON d.id = s.business_day_id
WHERE
	d.business_date = ?
`
	var totals struct {
		TotalTransactions int
		TotalSales        decimal.Decimal
		AverageTicket     decimal.Decimal
		CashSales         decimal.Decimal
		CardSales         decimal.Decimal
		VoidedAmount      decimal.Decimal
		VoidedCount       int
		UnprocessedCount  int
	}
	if err := db.WithContext(ctx).Raw(totalsSQL, date).Scan(&totals).Error; err != nil {
		return nil, err
	}
	summary.TotalTransactions = totals.TotalTransactions
	summary.TotalSales = totals.TotalSales
	summary.AverageTicket = totals.AverageTicket
	summary.CashSales = totals.CashSales
	summary.CardSales = totals.CardSales
	summary.VoidedAmount = totals.VoidedAmount
	summary.VoidedCount = totals.VoidedCount
	summary.UnprocessedCount = totals.UnprocessedCount

	byPosSQL := `
SELECT
	p.pos_number,
	p.pos_name,
	COUNT(s.id) AS transactions,
	COALESCE(SUM(s.total_amount), 0) AS sales
FROM
	sales s
	JOIN point_of_sales p ON p.id = s.pos_id
	JOIN business_days d ON d.id = s.business_day_id
WHERE
	d.business_date = ?
GROUP BY
	p.pos_number, p.pos_name
ORDER BY
	sales DESC
`
	if err := db.WithContext(ctx).Raw(byPosSQL, date).Scan(&summary.ByPos).Error; err != nil {
		return nil, err
	}

	_ = config.SetRedisObject(cacheKey, &summary, salesSummaryCacheTTL)

	return &summary, nil
}
