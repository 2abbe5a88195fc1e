package ledger

import (
	"context"
	"testing"

	"github.com/mcclellann/emiLedger/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput(t *testing.T) CustomerInput {
	t.Helper()
	start, err := models.ParseDate("2025-01-01")
	require.NoError(t, err)
	return CustomerInput{
		InvestorName: " Sunita Roy ",
		CustomerName: "Maya Ghosh",
		DeviceModel:  "Samsung A32",
		Amount:       decimal.NewFromInt(12000),
		Profit:       decimal.NewFromInt(2000),
		Tenure:       6,
		StartDate:    start,
	}
}

func TestValidate_CombinesFailures(t *testing.T) {
	in := CustomerInput{CustomerName: "   ", Amount: decimal.NewFromInt(-5)}
	err := in.Validate()

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, []string{"Name", "Device", "Amount", "Tenure"}, verr.Fields)
	assert.Equal(t, "Please fill required fields (Name, Device, Amount, Tenure)", err.Error())
}

func TestValidate_RejectsOversizedTenure(t *testing.T) {
	in := validInput(t)
	in.Tenure = 2000000000
	err := in.Validate()

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"Tenure"}, verr.Fields)

	in.Tenure = MaxTenure
	assert.NoError(t, in.Validate())
}

func TestSaveCustomer_OversizedTenureNeverBuildsSchedule(t *testing.T) {
	l, ms := newTestLedger(t)
	in := validInput(t)
	in.Tenure = 2000000000

	_, err := l.SaveCustomer(context.Background(), "", in)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Zero(t, ms.puts)
}

func TestValidate_TrimsAndDefaultsStatus(t *testing.T) {
	in := validInput(t)
	require.NoError(t, in.Validate())
	assert.Equal(t, "Sunita Roy", in.InvestorName)
	assert.Equal(t, "active", in.Status)
}

func TestSaveCustomer_Create(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	rec, err := l.SaveCustomer(ctx, "", validInput(t))
	require.NoError(t, err)

	assert.Equal(t, "c_1", rec.ID)
	assert.Equal(t, fixedNow, rec.CreatedAt)
	assert.True(t, rec.MonthlyEMI.Equal(decimal.NewFromInt(2334)), "emi %s", rec.MonthlyEMI)
	require.Len(t, rec.Payments, 6)
	assert.Equal(t, "January 2025", rec.Payments[0].MonthLabel)
	assert.Equal(t, "June 2025", rec.Payments[5].MonthLabel)
	for _, p := range rec.Payments {
		assert.Equal(t, models.PaymentStatusDue, p.Status)
	}

	list, err := l.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, rec.ID, list[0].ID)
}

func TestSaveCustomer_DefaultsStartDateToToday(t *testing.T) {
	l, _ := newTestLedger(t)
	in := validInput(t)
	in.StartDate = models.Date{}

	rec, err := l.SaveCustomer(context.Background(), "", in)
	require.NoError(t, err)
	assert.Equal(t, "2025-01-01", rec.StartDate.String())
}

func TestSaveCustomer_InvalidLeavesLedgerUntouched(t *testing.T) {
	l, ms := newTestLedger(t)
	in := validInput(t)
	in.Tenure = 0

	_, err := l.SaveCustomer(context.Background(), "", in)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Zero(t, ms.puts)
}

func TestSaveCustomer_EditRegeneratesSchedule(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	created, err := l.SaveCustomer(ctx, "", validInput(t))
	require.NoError(t, err)
	require.NoError(t, l.MarkPayment(ctx, created.ID, 0, models.PaymentStatusPaid))

	edit := validInput(t)
	edit.Tenure = 9
	edit.Amount = decimal.NewFromInt(15000)
	edit.Profit = decimal.NewFromInt(2500)
	edited, err := l.SaveCustomer(ctx, created.ID, edit)
	require.NoError(t, err)

	assert.Equal(t, created.ID, edited.ID)
	assert.Equal(t, created.CreatedAt, edited.CreatedAt)
	assert.True(t, edited.MonthlyEMI.Equal(decimal.NewFromInt(1945)))
	require.Len(t, edited.Payments, 9)
	assert.Equal(t, models.PaymentStatusDue, edited.Payments[0].Status, "edit discards earlier marks")
}

func TestSaveCustomer_EditMissing(t *testing.T) {
	l, _ := newTestLedger(t)
	_, err := l.SaveCustomer(context.Background(), "ghost", validInput(t))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSeedIfEmpty(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, l.SeedIfEmpty(ctx))
	list, err := l.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Arjun Sen", list[0].CustomerName)
	assert.True(t, list[0].MonthlyEMI.Equal(decimal.NewFromInt(1945)))

	require.NoError(t, l.SeedIfEmpty(ctx))
	list, err = l.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2, "seeding an existing ledger does nothing")
}

func TestFilter(t *testing.T) {
	records := []models.CustomerRecord{
		{ID: "1", CustomerName: "Arjun Sen", DeviceModel: "iPhone 12", InvestorName: "Ramesh Das", Status: "active"},
		{ID: "2", CustomerName: "Maya Ghosh", DeviceModel: "Samsung A32", InvestorName: "Sunita Roy", Status: "closed"},
		{ID: "3", CustomerName: "Ravi", DeviceModel: "iphone 13", InvestorName: "Sunita Roy", Status: "active"},
	}

	ids := func(rs []models.CustomerRecord) []string {
		out := []string{}
		for _, r := range rs {
			out = append(out, r.ID)
		}
		return out
	}

	assert.Equal(t, []string{"1", "2", "3"}, ids(Filter(records, "", "")))
	assert.Equal(t, []string{"1", "3"}, ids(Filter(records, "IPHONE", "")))
	assert.Equal(t, []string{"2", "3"}, ids(Filter(records, "sunita", "")))
	assert.Equal(t, []string{"3"}, ids(Filter(records, "sunita", "active")))
	assert.Empty(t, Filter(records, "nokia", ""))
	assert.Len(t, records, 3, "filtering never touches the input")
}

func TestRecent(t *testing.T) {
	records := make([]models.CustomerRecord, 8)
	assert.Len(t, Recent(records, RecentLimit), 6)
	assert.Len(t, Recent(records[:2], RecentLimit), 2)
	assert.Empty(t, Recent(records, -1))
}
