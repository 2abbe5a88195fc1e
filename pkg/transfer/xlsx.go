package transfer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/mcclellann/emiLedger/pkg/models"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Customers"

var xlsxHeader = []string{
	"Investor", "Customer", "Device", "Amount", "Profit", "Tenure",
	"MonthlyEMI", "StartDate", "Status", "Notes", "Payments",
}

// ExportXLSX writes one row per customer with the schedule flattened into a
// JSON string column.
func ExportXLSX(records []models.CustomerRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]interface{}, len(xlsxHeader))
	for i, h := range xlsxHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	for i, r := range records {
		payments := r.Payments
		if payments == nil {
			payments = []models.PaymentEntry{}
		}
		paymentsJSON, err := json.Marshal(payments)
		if err != nil {
			return nil, fmt.Errorf("failed to encode payments of %s: %w", r.ID, err)
		}
		cells := []interface{}{
			r.InvestorName,
			r.CustomerName,
			r.DeviceModel,
			r.Amount.InexactFloat64(),
			r.Profit.InexactFloat64(),
			r.Tenure,
			r.MonthlyEMI.InexactFloat64(),
			r.StartDate.String(),
			r.Status,
			r.Notes,
			string(paymentsJSON),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheetName, cell, &cells); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// ImportXLSX reads the first sheet of a workbook. The header row names the
// columns; every customer gets a fresh identifier and creation time.
func ImportXLSX(data []byte, now time.Time, newID func() string) ([]models.CustomerRecord, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImportFormat, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrImportFormat)
	}
	// raw values keep number formats such as "#,##0" from leaking into amounts
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImportFormat, err)
	}

	out := []models.CustomerRecord{}
	if len(rows) == 0 {
		return out, nil
	}

	header := rows[0]
	opts := rowOptions{now: now, newID: newID, fresh: true}
	for i, cells := range rows[1:] {
		r := row{}
		blank := true
		for c, value := range cells {
			if c >= len(header) || strings.TrimSpace(header[c]) == "" {
				continue
			}
			if strings.TrimSpace(value) != "" {
				blank = false
			}
			name := strings.TrimSpace(header[c])
			if isDateColumn(name) {
				value = serialToDate(value)
			}
			r[name] = value
		}
		if blank {
			continue
		}
		rec, err := normalizeRow(r, opts)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func isDateColumn(name string) bool {
	return slices.Contains(fieldAliases[fieldStartDate], name)
}

// serialToDate turns a raw date cell (an Excel serial day number) into the
// ISO form the normaliser parses. Anything else is returned unchanged.
func serialToDate(value string) string {
	serial, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return value
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return value
	}
	return t.Format("2006-01-02")
}
