package ledger

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mcclellann/emiLedger/pkg/models"
	"github.com/mcclellann/emiLedger/pkg/schedule"
	"github.com/shopspring/decimal"
)

const defaultStatus = "active"

// MaxTenure caps a repayment plan at fifty years of monthly installments.
const MaxTenure = 600

// ErrValidation is wrapped by every *ValidationError.
var ErrValidation = errors.New("validation failed")

// ValidationError lists every form field that failed, reported as one error.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "Please fill required fields (" + strings.Join(e.Fields, ", ") + ")"
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// CustomerInput is what the add/edit form submits.
type CustomerInput struct {
	InvestorName string          `json:"investorName"`
	CustomerName string          `json:"customerName" validate:"required"`
	DeviceModel  string          `json:"deviceModel" validate:"required"`
	Amount       decimal.Decimal `json:"amount" validate:"gt=0"`
	Profit       decimal.Decimal `json:"profit"`
	Tenure       int             `json:"tenure" validate:"gt=0,lte=600"`
	StartDate    models.Date     `json:"startDate"`
	Status       string          `json:"status"`
	Notes        string          `json:"notes"`
}

var fieldLabels = map[string]string{
	"CustomerName": "Name",
	"DeviceModel":  "Device",
	"Amount":       "Amount",
	"Tenure":       "Tenure",
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return v
}

func (in *CustomerInput) normalize() {
	in.InvestorName = strings.TrimSpace(in.InvestorName)
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.DeviceModel = strings.TrimSpace(in.DeviceModel)
	in.Notes = strings.TrimSpace(in.Notes)
	in.Status = strings.TrimSpace(in.Status)
	if in.Status == "" {
		in.Status = defaultStatus
	}
}

// Validate trims the input and rejects it when name, device, amount or
// tenure is missing or out of range.
func (in *CustomerInput) Validate() error {
	in.normalize()
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	verr := &ValidationError{}
	for _, fe := range fieldErrs {
		label, ok := fieldLabels[fe.Field()]
		if !ok {
			label = fe.Field()
		}
		verr.Fields = append(verr.Fields, label)
	}
	return verr
}

// BuildRecord derives the installment and schedule for in. The start date
// defaults to today. ID and CreatedAt are left for the caller.
func BuildRecord(in CustomerInput, now time.Time) models.CustomerRecord {
	start := in.StartDate
	if start.IsZero() {
		start = models.NewDate(now)
	}
	emi := schedule.MonthlyInstallment(in.Amount, in.Profit, in.Tenure)
	return models.CustomerRecord{
		InvestorName: in.InvestorName,
		CustomerName: in.CustomerName,
		DeviceModel:  in.DeviceModel,
		Amount:       in.Amount,
		Profit:       in.Profit,
		Tenure:       in.Tenure,
		MonthlyEMI:   emi,
		StartDate:    start,
		Status:       in.Status,
		Notes:        in.Notes,
		Payments:     schedule.BuildSchedule(start, in.Tenure, emi),
	}
}

// SaveCustomer validates in and either creates a new customer (empty id) or
// replaces every form field of an existing one. Editing regenerates the
// schedule, so earlier paid/auto marks are discarded.
func (l *Ledger) SaveCustomer(ctx context.Context, id string, in CustomerInput) (models.CustomerRecord, error) {
	if err := in.Validate(); err != nil {
		return models.CustomerRecord{}, err
	}
	now := l.now()
	rec := BuildRecord(in, now)

	if id == "" {
		rec.ID = l.newID()
		rec.CreatedAt = now
		if err := l.Create(ctx, rec); err != nil {
			return models.CustomerRecord{}, err
		}
		return rec, nil
	}

	if err := l.Update(ctx, id, replaceAll(rec)); err != nil {
		return models.CustomerRecord{}, err
	}
	return l.Get(ctx, id)
}

func replaceAll(rec models.CustomerRecord) models.CustomerPatch {
	return models.CustomerPatch{
		InvestorName: &rec.InvestorName,
		CustomerName: &rec.CustomerName,
		DeviceModel:  &rec.DeviceModel,
		Amount:       &rec.Amount,
		Profit:       &rec.Profit,
		Tenure:       &rec.Tenure,
		MonthlyEMI:   &rec.MonthlyEMI,
		StartDate:    &rec.StartDate,
		Status:       &rec.Status,
		Notes:        &rec.Notes,
		Payments:     &rec.Payments,
	}
}

// SeedIfEmpty adds two sample customers to an empty ledger.
func (l *Ledger) SeedIfEmpty(ctx context.Context) error {
	now := l.now()
	samples := []CustomerInput{
		{
			InvestorName: "Ramesh Das", CustomerName: "Arjun Sen", DeviceModel: "iPhone 12",
			Amount: decimal.NewFromInt(15000), Profit: decimal.NewFromInt(2500), Tenure: 9,
			Status: defaultStatus, Notes: "EMI every month",
		},
		{
			InvestorName: "Sunita Roy", CustomerName: "Maya Ghosh", DeviceModel: "Samsung A32",
			Amount: decimal.NewFromInt(12000), Profit: decimal.NewFromInt(2000), Tenure: 6,
			Status: defaultStatus, Notes: "Good payer",
		},
	}

	seeded := false
	err := l.withWrite(ctx, func(records []models.CustomerRecord) ([]models.CustomerRecord, bool) {
		if len(records) > 0 {
			return records, false
		}
		for _, in := range samples {
			rec := BuildRecord(in, now)
			rec.ID = l.newID()
			rec.CreatedAt = now
			records = append(records, rec)
		}
		seeded = true
		return records, true
	})
	if err != nil {
		return fmt.Errorf("failed to seed ledger: %w", err)
	}
	if seeded {
		l.log.WithField("count", len(samples)).Info("seeded sample customers")
	}
	return nil
}
