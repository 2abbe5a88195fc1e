// Package models holds the ledger's record types.
//
// Importing it sets decimal.MarshalJSONWithoutQuotes for the whole process,
// so every decimal.Decimal marshals as a bare JSON number.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Exports are read back by older tooling that expects plain JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// CustomerRecord is one financed device: who bought it, who funded it and
// how it is being repaid.
type CustomerRecord struct {
	ID           string          `json:"id"`
	InvestorName string          `json:"investorName"`
	CustomerName string          `json:"customerName"`
	DeviceModel  string          `json:"deviceModel"`
	Amount       decimal.Decimal `json:"amount"`     // Principal financed by the investor
	Profit       decimal.Decimal `json:"profit"`     // Markup charged on top of the principal
	Tenure       int             `json:"tenure"`     // Months
	MonthlyEMI   decimal.Decimal `json:"monthlyEmi"` // ceil((amount + profit) / tenure)
	StartDate    Date            `json:"startDate"`
	Status       string          `json:"status"` // e.g., "active", "closed"
	Notes        string          `json:"notes"`
	Payments     []PaymentEntry  `json:"payments"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// Clone returns a copy that shares no payment slice with r.
func (r CustomerRecord) Clone() CustomerRecord {
	out := r
	if r.Payments != nil {
		out.Payments = make([]PaymentEntry, len(r.Payments))
		copy(out.Payments, r.Payments)
	}
	return out
}

type PaymentStatus string

const (
	PaymentStatusDue  PaymentStatus = "due"
	PaymentStatusPaid PaymentStatus = "paid"
	PaymentStatusAuto PaymentStatus = "auto" // collected through auto-debit
)

// Settled reports whether the installment counts as collected.
func (s PaymentStatus) Settled() bool {
	return s == PaymentStatusPaid || s == PaymentStatusAuto
}

// ParsePaymentStatus maps free-form input onto a known status. Anything
// unrecognised is treated as still due.
func ParsePaymentStatus(s string) PaymentStatus {
	switch PaymentStatus(s) {
	case PaymentStatusPaid:
		return PaymentStatusPaid
	case PaymentStatusAuto:
		return PaymentStatusAuto
	default:
		return PaymentStatusDue
	}
}

// PaymentEntry is one month of a repayment schedule.
type PaymentEntry struct {
	MonthLabel string          `json:"monthLabel"` // e.g., "January 2025"
	Amount     decimal.Decimal `json:"amount"`
	Status     PaymentStatus   `json:"status"`
}

// CustomerPatch carries the fields to replace on an existing record. Nil
// fields are left untouched; Payments, when set, replaces the whole schedule.
type CustomerPatch struct {
	InvestorName *string
	CustomerName *string
	DeviceModel  *string
	Amount       *decimal.Decimal
	Profit       *decimal.Decimal
	Tenure       *int
	MonthlyEMI   *decimal.Decimal
	StartDate    *Date
	Status       *string
	Notes        *string
	Payments     *[]PaymentEntry
}

// Apply writes every non-nil field of p onto r.
func (p CustomerPatch) Apply(r *CustomerRecord) {
	if p.InvestorName != nil {
		r.InvestorName = *p.InvestorName
	}
	if p.CustomerName != nil {
		r.CustomerName = *p.CustomerName
	}
	if p.DeviceModel != nil {
		r.DeviceModel = *p.DeviceModel
	}
	if p.Amount != nil {
		r.Amount = *p.Amount
	}
	if p.Profit != nil {
		r.Profit = *p.Profit
	}
	if p.Tenure != nil {
		r.Tenure = *p.Tenure
	}
	if p.MonthlyEMI != nil {
		r.MonthlyEMI = *p.MonthlyEMI
	}
	if p.StartDate != nil {
		r.StartDate = *p.StartDate
	}
	if p.Status != nil {
		r.Status = *p.Status
	}
	if p.Notes != nil {
		r.Notes = *p.Notes
	}
	if p.Payments != nil {
		r.Payments = *p.Payments
	}
}

// Stats summarises the whole ledger.
type Stats struct {
	TotalCustomers   int             `json:"totalCustomers"`
	TotalAmount      decimal.Decimal `json:"totalAmount"`
	TotalProfit      decimal.Decimal `json:"totalProfit"`
	AvgProfitPercent int64           `json:"avgProfitPercent"`
	TotalPaid        decimal.Decimal `json:"totalPaid"`
	TotalDue         decimal.Decimal `json:"totalDue"`
}
