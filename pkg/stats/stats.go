package stats

import (
	"github.com/mcclellann/emiLedger/pkg/models"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Compute reduces the ledger to its summary counters. The average profit
// percentage is rounded half away from zero (half-up for non-negative
// totals) and is 0 when nothing has been financed.
func Compute(records []models.CustomerRecord) models.Stats {
	s := models.Stats{
		TotalCustomers: len(records),
		TotalAmount:    decimal.Zero,
		TotalProfit:    decimal.Zero,
		TotalPaid:      decimal.Zero,
		TotalDue:       decimal.Zero,
	}

	for _, r := range records {
		s.TotalAmount = s.TotalAmount.Add(r.Amount)
		s.TotalProfit = s.TotalProfit.Add(r.Profit)
		for _, p := range r.Payments {
			switch {
			case p.Status.Settled():
				s.TotalPaid = s.TotalPaid.Add(p.Amount)
			default:
				s.TotalDue = s.TotalDue.Add(p.Amount)
			}
		}
	}

	if s.TotalAmount.GreaterThan(decimal.Zero) {
		s.AvgProfitPercent = s.TotalProfit.Div(s.TotalAmount).Mul(hundred).Round(0).IntPart()
	}
	return s
}
