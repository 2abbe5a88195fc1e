package stats

import (
	"testing"

	"github.com/mcclellann/emiLedger/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func entries(amount int64, statuses ...models.PaymentStatus) []models.PaymentEntry {
	out := make([]models.PaymentEntry, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, models.PaymentEntry{Amount: decimal.NewFromInt(amount), Status: s})
	}
	return out
}

func sampleLedger() []models.CustomerRecord {
	return []models.CustomerRecord{
		{
			ID:       "a",
			Amount:   decimal.NewFromInt(15000),
			Profit:   decimal.NewFromInt(2500),
			Payments: entries(1945, models.PaymentStatusPaid, models.PaymentStatusAuto, models.PaymentStatusDue),
		},
		{
			ID:       "b",
			Amount:   decimal.NewFromInt(12000),
			Profit:   decimal.NewFromInt(2000),
			Payments: entries(2334, models.PaymentStatusDue, models.PaymentStatusDue),
		},
	}
}

func TestCompute_Empty(t *testing.T) {
	s := Compute(nil)
	assert.Equal(t, 0, s.TotalCustomers)
	assert.True(t, s.TotalAmount.IsZero())
	assert.True(t, s.TotalProfit.IsZero())
	assert.Equal(t, int64(0), s.AvgProfitPercent)
	assert.True(t, s.TotalPaid.IsZero())
	assert.True(t, s.TotalDue.IsZero())
}

func TestCompute_Totals(t *testing.T) {
	s := Compute(sampleLedger())

	assert.Equal(t, 2, s.TotalCustomers)
	assert.True(t, s.TotalAmount.Equal(decimal.NewFromInt(27000)), "amount %s", s.TotalAmount)
	assert.True(t, s.TotalProfit.Equal(decimal.NewFromInt(4500)), "profit %s", s.TotalProfit)
	// 4500 / 27000 = 16.67% -> 17
	assert.Equal(t, int64(17), s.AvgProfitPercent)
	assert.True(t, s.TotalPaid.Equal(decimal.NewFromInt(3890)), "paid %s", s.TotalPaid)
	assert.True(t, s.TotalDue.Equal(decimal.NewFromInt(1945+2*2334)), "due %s", s.TotalDue)
}

func TestCompute_UnknownStatusCountsAsDue(t *testing.T) {
	s := Compute([]models.CustomerRecord{{
		Amount:   decimal.NewFromInt(1000),
		Payments: entries(100, models.PaymentStatusPaid, "", "overdue"),
	}})
	assert.True(t, s.TotalPaid.Equal(decimal.NewFromInt(100)), "paid %s", s.TotalPaid)
	assert.True(t, s.TotalDue.Equal(decimal.NewFromInt(200)), "due %s", s.TotalDue)
}

func TestCompute_RoundsHalfUp(t *testing.T) {
	s := Compute([]models.CustomerRecord{{Amount: decimal.NewFromInt(200), Profit: decimal.NewFromInt(25)}})
	// 12.5% -> 13
	assert.Equal(t, int64(13), s.AvgProfitPercent)
}

func TestCompute_OrderIndependent(t *testing.T) {
	ledger := sampleLedger()
	reversed := []models.CustomerRecord{ledger[1], ledger[0]}
	a, b := Compute(ledger), Compute(reversed)
	assert.Equal(t, a.TotalCustomers, b.TotalCustomers)
	assert.Equal(t, a.AvgProfitPercent, b.AvgProfitPercent)
	assert.True(t, a.TotalAmount.Equal(b.TotalAmount))
	assert.True(t, a.TotalProfit.Equal(b.TotalProfit))
	assert.True(t, a.TotalPaid.Equal(b.TotalPaid))
	assert.True(t, a.TotalDue.Equal(b.TotalDue))
}

func TestCompute_DoesNotMutateInput(t *testing.T) {
	ledger := sampleLedger()
	before := ledger[0].Payments[2].Status
	Compute(ledger)
	assert.Equal(t, before, ledger[0].Payments[2].Status)
}
