package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mcclellann/emiLedger/pkg/models"
	"github.com/mcclellann/emiLedger/pkg/store"
	"github.com/sirupsen/logrus"
)

// DefaultStorageKey is the key the whole ledger lives under.
const DefaultStorageKey = "mobixpress_customers_v1"

var (
	// ErrNotFound is returned by read accessors. Mutations on a missing id
	// are silent no-ops instead.
	ErrNotFound = errors.New("customer not found")
	// ErrInvalidPaymentStatus rejects anything but a forward transition.
	ErrInvalidPaymentStatus = errors.New("payment status must be paid or auto")
)

// Ledger owns the persisted list of customer records. Every operation reads
// the full list from storage, changes it and writes it back while holding
// mu, so two cycles never interleave.
type Ledger struct {
	mu      sync.Mutex
	storage store.Storage
	key     string
	log     *logrus.Logger
	now     func() time.Time
	newID   func() string
}

// NewLedger creates a Ledger persisting under key in s.
func NewLedger(s store.Storage, key string, log *logrus.Logger) *Ledger {
	if key == "" {
		key = DefaultStorageKey
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Ledger{
		storage: s,
		key:     key,
		log:     log,
		now:     time.Now,
		newID:   NewID,
	}
}

// NewID returns an opaque random customer identifier.
func NewID() string {
	return uuid.NewString()
}

// load decodes the stored list. A missing or corrupt value is an empty
// ledger; only a failing storage backend is reported.
func (l *Ledger) load(ctx context.Context) ([]models.CustomerRecord, error) {
	raw, err := l.storage.Get(ctx, l.key)
	if err != nil {
		if errors.Is(err, store.ErrKeyNotFound) {
			return []models.CustomerRecord{}, nil
		}
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}

	var records []models.CustomerRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		l.log.WithError(err).WithField("key", l.key).Warn("stored ledger is unreadable, treating it as empty")
		return []models.CustomerRecord{}, nil
	}
	if records == nil {
		records = []models.CustomerRecord{}
	}
	return records, nil
}

func (l *Ledger) save(ctx context.Context, records []models.CustomerRecord) error {
	raw, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode ledger: %w", err)
	}
	if err := l.storage.Put(ctx, l.key, raw); err != nil {
		return fmt.Errorf("failed to write ledger: %w", err)
	}
	return nil
}

// withWrite runs one read-modify-write cycle. fn reports whether it changed
// anything; unchanged ledgers are not written back.
func (l *Ledger) withWrite(ctx context.Context, fn func([]models.CustomerRecord) ([]models.CustomerRecord, bool)) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.load(ctx)
	if err != nil {
		return err
	}
	out, changed := fn(records)
	if !changed {
		return nil
	}
	return l.save(ctx, out)
}

func indexOf(records []models.CustomerRecord, id string) int {
	for i := range records {
		if records[i].ID == id {
			return i
		}
	}
	return -1
}

// Create inserts rec at the front of the ledger. The caller supplies the id.
func (l *Ledger) Create(ctx context.Context, rec models.CustomerRecord) error {
	err := l.withWrite(ctx, func(records []models.CustomerRecord) ([]models.CustomerRecord, bool) {
		out := make([]models.CustomerRecord, 0, len(records)+1)
		out = append(out, rec.Clone())
		return append(out, records...), true
	})
	if err != nil {
		return fmt.Errorf("failed to store customer: %w", err)
	}
	l.log.WithField("id", rec.ID).Info("customer saved")
	return nil
}

// Update replaces the patched fields of the record with id. Nothing happens
// if no such record exists.
func (l *Ledger) Update(ctx context.Context, id string, patch models.CustomerPatch) error {
	found := false
	err := l.withWrite(ctx, func(records []models.CustomerRecord) ([]models.CustomerRecord, bool) {
		i := indexOf(records, id)
		if i < 0 {
			return records, false
		}
		found = true
		patch.Apply(&records[i])
		return records, true
	})
	if err != nil {
		return fmt.Errorf("failed to update customer %s: %w", id, err)
	}
	if found {
		l.log.WithField("id", id).Info("customer updated")
	} else {
		l.log.WithField("id", id).Debug("update skipped, customer not found")
	}
	return nil
}

// Delete removes the record with id if present.
func (l *Ledger) Delete(ctx context.Context, id string) error {
	found := false
	err := l.withWrite(ctx, func(records []models.CustomerRecord) ([]models.CustomerRecord, bool) {
		i := indexOf(records, id)
		if i < 0 {
			return records, false
		}
		found = true
		return append(records[:i], records[i+1:]...), true
	})
	if err != nil {
		return fmt.Errorf("failed to delete customer %s: %w", id, err)
	}
	if found {
		l.log.WithField("id", id).Info("customer removed")
	}
	return nil
}

// MarkPayment settles month index of the record with id. Missing records,
// out-of-range indexes and already settled months are left alone.
func (l *Ledger) MarkPayment(ctx context.Context, id string, index int, status models.PaymentStatus) error {
	if !status.Settled() {
		return fmt.Errorf("%w: got %q", ErrInvalidPaymentStatus, status)
	}

	var label string
	err := l.withWrite(ctx, func(records []models.CustomerRecord) ([]models.CustomerRecord, bool) {
		i := indexOf(records, id)
		if i < 0 {
			return records, false
		}
		payments := records[i].Payments
		if index < 0 || index >= len(payments) {
			return records, false
		}
		if payments[index].Status.Settled() {
			return records, false
		}
		payments[index].Status = status
		label = payments[index].MonthLabel
		return records, true
	})
	if err != nil {
		return fmt.Errorf("failed to mark payment for customer %s: %w", id, err)
	}
	if label != "" {
		l.log.WithFields(logrus.Fields{"id": id, "month": label, "status": status}).Info("payment marked")
	}
	return nil
}

// List returns the whole ledger, newest first.
func (l *Ledger) List(ctx context.Context) ([]models.CustomerRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load(ctx)
}

// Get returns the record with id.
func (l *Ledger) Get(ctx context.Context, id string) (models.CustomerRecord, error) {
	records, err := l.List(ctx)
	if err != nil {
		return models.CustomerRecord{}, err
	}
	i := indexOf(records, id)
	if i < 0 {
		return models.CustomerRecord{}, ErrNotFound
	}
	return records[i], nil
}

// Replace swaps the entire ledger for records, as an import does.
func (l *Ledger) Replace(ctx context.Context, records []models.CustomerRecord) error {
	if records == nil {
		records = []models.CustomerRecord{}
	}
	err := l.withWrite(ctx, func([]models.CustomerRecord) ([]models.CustomerRecord, bool) {
		return records, true
	})
	if err != nil {
		return fmt.Errorf("failed to replace ledger: %w", err)
	}
	l.log.WithField("count", len(records)).Info("ledger replaced")
	return nil
}

// Clear wipes the persisted ledger.
func (l *Ledger) Clear(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.storage.Delete(ctx, l.key); err != nil {
		return fmt.Errorf("failed to clear ledger: %w", err)
	}
	l.log.Warn("all customers removed")
	return nil
}
