package schedule

import (
	"testing"
	"time"

	"github.com/mcclellann/emiLedger/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDate(t *testing.T, s string) models.Date {
	t.Helper()
	d, err := models.ParseDate(s)
	require.NoError(t, err)
	return d
}

func TestMonthlyInstallment(t *testing.T) {
	cases := []struct {
		principal, profit int64
		tenure            int
		want              int64
	}{
		{15000, 2500, 9, 1945},
		{12000, 2000, 6, 2334},
		{1200, 0, 12, 100},
		{1000, 0, 0, 0},
	}
	for _, c := range cases {
		got := MonthlyInstallment(decimal.NewFromInt(c.principal), decimal.NewFromInt(c.profit), c.tenure)
		assert.True(t, got.Equal(decimal.NewFromInt(c.want)), "principal=%d profit=%d tenure=%d: got %s", c.principal, c.profit, c.tenure, got)
	}
}

func TestBuildSchedule_CountAndStatus(t *testing.T) {
	amount := decimal.NewFromInt(750)
	for tenure := 1; tenure <= 24; tenure++ {
		entries := BuildSchedule(mustDate(t, "2025-03-10"), tenure, amount)
		require.Len(t, entries, tenure)
		for _, e := range entries {
			assert.Equal(t, models.PaymentStatusDue, e.Status)
			assert.True(t, e.Amount.Equal(amount))
		}
	}
}

func TestBuildSchedule_YearRollover(t *testing.T) {
	entries := BuildSchedule(mustDate(t, "2024-11-01"), 3, decimal.NewFromInt(100))
	require.Len(t, entries, 3)
	assert.Equal(t, "November 2024", entries[0].MonthLabel)
	assert.Equal(t, "December 2024", entries[1].MonthLabel)
	assert.Equal(t, "January 2025", entries[2].MonthLabel)
}

func TestBuildSchedule_EndOfMonthStart(t *testing.T) {
	entries := BuildSchedule(mustDate(t, "2025-01-31"), 3, decimal.NewFromInt(100))
	assert.Equal(t, "January 2025", entries[0].MonthLabel)
	assert.Equal(t, "February 2025", entries[1].MonthLabel)
	assert.Equal(t, "March 2025", entries[2].MonthLabel)
}

func TestBuildSchedule_NonPositiveTenure(t *testing.T) {
	assert.Empty(t, BuildSchedule(mustDate(t, "2025-01-01"), 0, decimal.NewFromInt(100)))
	assert.Empty(t, BuildSchedule(mustDate(t, "2025-01-01"), -3, decimal.NewFromInt(100)))
}

func TestBuildSchedule_ZeroStartUsesToday(t *testing.T) {
	entries := BuildSchedule(models.Date{}, 1, decimal.NewFromInt(100))
	require.Len(t, entries, 1)
	assert.Equal(t, time.Now().Format(LabelLayout), entries[0].MonthLabel)
}

func TestBuildSchedule_Scenario(t *testing.T) {
	emi := MonthlyInstallment(decimal.NewFromInt(12000), decimal.NewFromInt(2000), 6)
	require.True(t, emi.Equal(decimal.NewFromInt(2334)))

	entries := BuildSchedule(mustDate(t, "2025-01-01"), 6, emi)
	want := []string{"January 2025", "February 2025", "March 2025", "April 2025", "May 2025", "June 2025"}
	require.Len(t, entries, len(want))
	for i, label := range want {
		assert.Equal(t, label, entries[i].MonthLabel)
		assert.Equal(t, models.PaymentStatusDue, entries[i].Status)
	}
}
