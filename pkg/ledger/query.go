package ledger

import (
	"strings"

	"github.com/mcclellann/emiLedger/pkg/models"
)

// RecentLimit is how many customers the recent view shows.
const RecentLimit = 6

// Filter keeps records whose customer name, device model or investor name
// contains query (case-insensitive) and whose status equals status. An
// empty query or status matches everything. Order is preserved.
func Filter(records []models.CustomerRecord, query, status string) []models.CustomerRecord {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]models.CustomerRecord, 0, len(records))
	for _, r := range records {
		if status != "" && r.Status != status {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(r.CustomerName), q) &&
			!strings.Contains(strings.ToLower(r.DeviceModel), q) &&
			!strings.Contains(strings.ToLower(r.InvestorName), q) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Recent returns at most n records from the front of the ledger.
func Recent(records []models.CustomerRecord, n int) []models.CustomerRecord {
	if n < 0 {
		n = 0
	}
	if len(records) > n {
		return records[:n]
	}
	return records
}
