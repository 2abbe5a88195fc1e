package transfer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/mcclellann/emiLedger/pkg/models"
)

// ErrImportFormat is wrapped by every import that cannot be understood.
var ErrImportFormat = errors.New("invalid import format")

const (
	backupPrefix  = "mobixpress_customers_backup_"
	stampLayout   = "2006-01-02-15-04-05"
	XLSXFilename  = "mobixpress_customers.xlsx"
	JSONMediaType = "application/json"
	XLSXMediaType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ExportFilename names a JSON backup taken at now.
func ExportFilename(now time.Time) string {
	return backupPrefix + now.UTC().Format(stampLayout) + ".json"
}

// ExportJSON serialises the full ledger as an indented JSON array.
func ExportJSON(records []models.CustomerRecord) ([]byte, error) {
	if records == nil {
		records = []models.CustomerRecord{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode ledger: %w", err)
	}
	return data, nil
}

// ImportJSON reads a JSON array of customers in any historical layout.
// Identifiers and creation times are kept when present.
func ImportJSON(data []byte, now time.Time, newID func() string) ([]models.CustomerRecord, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var top any
	if err := dec.Decode(&top); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImportFormat, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after JSON value", ErrImportFormat)
	}
	items, ok := top.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected a JSON array", ErrImportFormat)
	}

	opts := rowOptions{now: now, newID: newID}
	out := make([]models.CustomerRecord, 0, len(items))
	for i, item := range items {
		m, _ := item.(map[string]any)
		rec, err := normalizeRow(row(m), opts)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out = append(out, rec)
	}
	return out, nil
}
