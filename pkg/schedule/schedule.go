package schedule

import (
	"time"

	"github.com/mcclellann/emiLedger/pkg/models"
	"github.com/shopspring/decimal"
)

// LabelLayout formats a month label, e.g. "January 2025".
const LabelLayout = "January 2006"

// MonthlyInstallment returns ceil((principal + profit) / tenure). A
// non-positive tenure yields zero.
func MonthlyInstallment(principal, profit decimal.Decimal, tenure int) decimal.Decimal {
	if tenure <= 0 {
		return decimal.Zero
	}
	return principal.Add(profit).Div(decimal.NewFromInt(int64(tenure))).Ceil()
}

// BuildSchedule generates tenure flat installments starting at the month of
// start. A zero start anchors the schedule on the current date.
func BuildSchedule(start models.Date, tenure int, installment decimal.Decimal) []models.PaymentEntry {
	if tenure <= 0 {
		return []models.PaymentEntry{}
	}
	anchor := start.Time
	if start.IsZero() {
		anchor = time.Now()
	}

	entries := make([]models.PaymentEntry, 0, tenure)
	for i := 0; i < tenure; i++ {
		entries = append(entries, models.PaymentEntry{
			MonthLabel: MonthLabel(anchor, i),
			Amount:     installment,
			Status:     models.PaymentStatusDue,
		})
	}
	return entries
}

// MonthLabel names the month offset months after anchor. The day is pinned
// to the 1st so that a 31st start never skips a short month.
func MonthLabel(anchor time.Time, offset int) string {
	first := time.Date(anchor.Year(), anchor.Month(), 1, 0, 0, 0, 0, time.UTC)
	return first.AddDate(0, offset, 0).Format(LabelLayout)
}
