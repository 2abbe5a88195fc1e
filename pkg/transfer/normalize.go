package transfer

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mcclellann/emiLedger/pkg/models"
	"github.com/shopspring/decimal"
)

// Canonical field names of an imported customer row.
const (
	fieldID           = "id"
	fieldInvestorName = "investorName"
	fieldCustomerName = "customerName"
	fieldDeviceModel  = "deviceModel"
	fieldAmount       = "amount"
	fieldProfit       = "profit"
	fieldTenure       = "tenure"
	fieldMonthlyEMI   = "monthlyEmi"
	fieldStartDate    = "startDate"
	fieldStatus       = "status"
	fieldNotes        = "notes"
	fieldPayments     = "payments"
	fieldCreatedAt    = "createdAt"

	fieldMonthLabel = "monthLabel"
)

// fieldAliases lists, per canonical field, every name older exports used for
// it. The first alias holding a non-empty value wins.
var fieldAliases = map[string][]string{
	fieldID:           {"id", "ID", "Id"},
	fieldInvestorName: {"investorName", "investor", "Investor"},
	fieldCustomerName: {"customerName", "customer", "Customer"},
	fieldDeviceModel:  {"deviceModel", "device", "Device", "phone", "Phone"},
	fieldAmount:       {"amount", "Amount"},
	fieldProfit:       {"profit", "Profit"},
	fieldTenure:       {"tenure", "Tenure"},
	fieldMonthlyEMI:   {"monthlyEmi", "MonthlyEMI", "monthlyEMI"},
	fieldStartDate:    {"startDate", "StartDate"},
	fieldStatus:       {"status", "Status"},
	fieldNotes:        {"notes", "Notes"},
	fieldPayments:     {"payments", "Payments"},
	fieldCreatedAt:    {"createdAt", "CreatedAt"},

	fieldMonthLabel: {"monthLabel", "MonthLabel", "month", "Month"},
}

// row is one imported object keyed by whatever names its source used.
type row map[string]any

func (r row) lookup(field string) (any, bool) {
	for _, name := range fieldAliases[field] {
		v, ok := r[name]
		if !ok || isEmpty(v) {
			continue
		}
		return v, true
	}
	return nil, false
}

func (r row) str(field string) string {
	v, ok := r.lookup(field)
	if !ok {
		return ""
	}
	return strings.TrimSpace(toString(v))
}

func (r row) number(field string) decimal.Decimal {
	v, ok := r.lookup(field)
	if !ok {
		return decimal.Zero
	}
	return toDecimal(v)
}

func isEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	}
	return false
}

func toString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}

// toDecimal coerces v to a number; anything non-numeric becomes zero.
func toDecimal(v any) decimal.Decimal {
	switch x := v.(type) {
	case float64:
		return decimal.NewFromFloat(x)
	case bool:
		if x {
			return decimal.NewFromInt(1)
		}
		return decimal.Zero
	default:
		d, err := decimal.NewFromString(strings.TrimSpace(toString(v)))
		if err != nil {
			return decimal.Zero
		}
		return d
	}
}

// rowOptions controls the parts of normalisation that differ between JSON
// and spreadsheet imports.
type rowOptions struct {
	now   time.Time
	newID func() string
	// fresh ignores any id and createdAt found in the row.
	fresh bool
}

func normalizeRow(r row, opts rowOptions) (models.CustomerRecord, error) {
	rec := models.CustomerRecord{
		InvestorName: r.str(fieldInvestorName),
		CustomerName: r.str(fieldCustomerName),
		DeviceModel:  r.str(fieldDeviceModel),
		Amount:       r.number(fieldAmount),
		Profit:       r.number(fieldProfit),
		Tenure:       int(r.number(fieldTenure).IntPart()),
		MonthlyEMI:   r.number(fieldMonthlyEMI),
		Status:       r.str(fieldStatus),
		Notes:        r.str(fieldNotes),
	}
	if rec.Status == "" {
		rec.Status = "active"
	}
	if d, err := models.ParseDate(r.str(fieldStartDate)); err == nil {
		rec.StartDate = d
	}

	payments, err := normalizePayments(r)
	if err != nil {
		return models.CustomerRecord{}, err
	}
	rec.Payments = payments

	rec.CreatedAt = opts.now
	if !opts.fresh {
		rec.ID = r.str(fieldID)
		if ts := r.str(fieldCreatedAt); ts != "" {
			if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
				rec.CreatedAt = t
			}
		}
	}
	if rec.ID == "" {
		rec.ID = opts.newID()
	}
	return rec, nil
}

// normalizePayments accepts either an array or a string holding a JSON array.
func normalizePayments(r row) ([]models.PaymentEntry, error) {
	v, ok := r.lookup(fieldPayments)
	if !ok {
		return []models.PaymentEntry{}, nil
	}

	var items []any
	switch x := v.(type) {
	case []any:
		items = x
	case string:
		s := strings.TrimSpace(x)
		if !strings.HasPrefix(s, "[") {
			return []models.PaymentEntry{}, nil
		}
		dec := json.NewDecoder(strings.NewReader(s))
		dec.UseNumber()
		if err := dec.Decode(&items); err != nil {
			return nil, fmt.Errorf("%w: payments column is not valid JSON: %v", ErrImportFormat, err)
		}
	default:
		return []models.PaymentEntry{}, nil
	}

	out := make([]models.PaymentEntry, 0, len(items))
	for _, item := range items {
		m, _ := item.(map[string]any)
		p := row(m)
		out = append(out, models.PaymentEntry{
			MonthLabel: p.str(fieldMonthLabel),
			Amount:     p.number(fieldAmount),
			Status:     models.ParsePaymentStatus(strings.ToLower(p.str(fieldStatus))),
		})
	}
	return out, nil
}
