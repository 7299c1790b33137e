// seed-demo provisions one demo business day for today with a realistic
// mid-afternoon state: one shift already closed cleanly, one still active,
// a few unprocessed tickets, and an inventory item missing its daily count.
// Running the closure check against the seeded day exercises every
// blocking and warning condition path.
//
// Usage (from backend directory):
//   DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed-demo
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/restodata/resto_backend/config"
	"github.com/restodata/resto_backend/models"
	"github.com/restodata/resto_backend/utils"
	"github.com/shopspring/decimal"
)

func main() {
	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	models.MigrateTable()

	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	day, err := models.OpenBusinessDay(ctx, &models.NewBusinessDay{BusinessDate: today})
	if err == models.ErrBusinessDayExists {
		fmt.Fprintf(os.Stderr, "business day %s already seeded\n", today.Format(utils.BusinessDateLayout))
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open business day: %v\n", err)
		os.Exit(1)
	}

	posMain := models.PointOfSale{BusinessDayId: day.ID, PosNumber: 1, PosName: "Front Counter", IsEnabled: utils.NewTrue()}
	posPatio := models.PointOfSale{BusinessDayId: day.ID, PosNumber: 2, PosName: "Patio", IsEnabled: utils.NewTrue()}
	for _, pos := range []*models.PointOfSale{&posMain, &posPatio} {
		if err := db.WithContext(ctx).Create(pos).Error; err != nil {
			fmt.Fprintf(os.Stderr, "failed to create pos %d: %v\n", pos.PosNumber, err)
			os.Exit(1)
		}
	}

	morningStart := today.Add(8 * time.Hour)
	morningEnd := today.Add(14 * time.Hour)
	employee := 101

	// Morning shift on the front counter, closed cleanly with a $2.50 overage.
	morning := models.Shift{
		PosId:         posMain.ID,
		BusinessDayId: day.ID,
		EmployeeId:    &employee,
		Status:        models.ShiftStatusClosed,
		OpeningCash:   decimal.NewFromInt(100),
		ExpectedCash:  decimal.RequireFromString("342.50"),
		StartTime:     morningStart,
		EndTime:       &morningEnd,
	}
	if err := db.WithContext(ctx).Create(&morning).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to create morning shift: %v\n", err)
		os.Exit(1)
	}
	morningClose := models.ShiftClose{
		ShiftId:          morning.ID,
		ClosingCash:      decimal.RequireFromString("345.00"),
		CashDifference:   decimal.RequireFromString("2.50"),
		TransactionCount: 12,
		TotalSales:       decimal.RequireFromString("242.50"),
		ClosedBy:         "maria.g",
	}
	if err := db.WithContext(ctx).Create(&morningClose).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to create morning shift close: %v\n", err)
		os.Exit(1)
	}

	// Afternoon shift still active: $75 opening float plus $140 of cash
	// sales so far, so its expected cash at close time is $215.
	employee2 := 102
	afternoon := models.Shift{
		PosId:         posMain.ID,
		BusinessDayId: day.ID,
		EmployeeId:    &employee2,
		Status:        models.ShiftStatusActive,
		OpeningCash:   decimal.NewFromInt(75),
		StartTime:     morningEnd,
	}
	if err := db.WithContext(ctx).Create(&afternoon).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to create afternoon shift: %v\n", err)
		os.Exit(1)
	}

	cash := models.PaymentMethodCash
	card := models.PaymentMethodCard
	customers := 2

	sales := []models.Sale{
		// Processed afternoon tickets, $140 of cash sales on the active shift.
		saleRow(day.ID, afternoon.ID, posMain.ID, "TXN-2001", "85.00", &cash, &employee2, &customers, true, false),
		saleRow(day.ID, afternoon.ID, posMain.ID, "TXN-2002", "55.00", &cash, &employee2, &customers, true, false),
		saleRow(day.ID, afternoon.ID, posMain.ID, "TXN-2003", "32.75", &card, &employee2, &customers, true, false),
		// Three unprocessed tickets totaling $120.00.
		saleRow(day.ID, afternoon.ID, posMain.ID, "TXN-2004", "45.00", &card, &employee2, &customers, false, false),
		saleRow(day.ID, afternoon.ID, posMain.ID, "TXN-2005", "35.00", &card, &employee2, &customers, false, false),
		saleRow(day.ID, afternoon.ID, posMain.ID, "TXN-2006", "40.00", &card, &employee2, &customers, false, false),
		// One voided ticket; excluded from every total.
		saleRow(day.ID, afternoon.ID, posMain.ID, "TXN-2007", "18.00", &cash, &employee2, &customers, true, true),
		// One ticket with missing data (no employee, no payment method).
		saleRow(day.ID, afternoon.ID, posMain.ID, "TXN-2008", "22.00", nil, nil, nil, true, false),
	}
	for i := range sales {
		if err := db.WithContext(ctx).Create(&sales[i]).Error; err != nil {
			fmt.Fprintf(os.Stderr, "failed to create sale %s: %v\n", sales[i].TransactionId, err)
			os.Exit(1)
		}
	}

	yesterday := today.Add(-24 * time.Hour)
	items := []models.InventoryItem{
		{Name: "House Blend Beans", Unit: "kg", RequiresDailyCount: utils.NewTrue(), LastCountedAt: &now},
		{Name: "Whole Milk", Unit: "l", RequiresDailyCount: utils.NewTrue(), LastCountedAt: &yesterday},
		{Name: "Paper Cups", Unit: "pc", RequiresDailyCount: utils.NewFalse()},
	}
	for i := range items {
		if err := db.WithContext(ctx).Create(&items[i]).Error; err != nil {
			fmt.Fprintf(os.Stderr, "failed to create inventory item %q: %v\n", items[i].Name, err)
			os.Exit(1)
		}
	}

	fmt.Printf("Seeded business day %s: 2 POS, 1 closed shift, 1 active shift, %d sales\n",
		today.Format(utils.BusinessDateLayout), len(sales))
}

func saleRow(dayID, shiftID, posID int, txn, total string, method *models.PaymentMethod, employee, customers *int, processed, voided bool) models.Sale {
	amount := decimal.RequireFromString(total)
	sale := models.Sale{
		TransactionId: txn,
		BusinessDayId: dayID,
		ShiftId:       shiftID,
		PosId:         posID,
		EmployeeId:    employee,
		CustomerCount: customers,
		Subtotal:      utils.RoundCash(amount.Div(decimal.RequireFromString("1.08"))),
		TotalAmount:   amount,
		PaymentMethod: method,
		Processed:     &processed,
		IsVoided:      &voided,
		SaleTime:      time.Now().UTC(),
	}
	sale.Tax = sale.TotalAmount.Sub(sale.Subtotal)
	if method != nil && *method == models.PaymentMethodCash {
		sale.CashReceived = amount
	}
	if method != nil && *method == models.PaymentMethodCard {
		sale.CardAmount = amount
	}
	return sale
}
