package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/mcclellann/emiLedger/pkg/ledger"
	"github.com/mcclellann/emiLedger/pkg/models"
	"github.com/mcclellann/emiLedger/pkg/stats"
	"github.com/mcclellann/emiLedger/pkg/store"
	"github.com/mcclellann/emiLedger/pkg/transfer"
	"github.com/sirupsen/logrus"
)

const maxUploadBytes = 32 << 20

// Server holds the ledger instance.
type Server struct {
	ledger  *ledger.Ledger
	storage store.Storage
	log     *logrus.Logger
	now     func() time.Time
}

func NewServer(s store.Storage, key string, log *logrus.Logger) *Server {
	return &Server{
		ledger:  ledger.NewLedger(s, key, log),
		storage: s,
		log:     log,
		now:     time.Now,
	}
}

// Close releases the storage backend behind the ledger.
func (s *Server) Close() error {
	return s.storage.Close()
}

// Routes wires every endpoint onto a fresh router.
func (s *Server) Routes() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/health", s.healthHandler).Methods("GET")
	router.HandleFunc("/stats", s.statsHandler).Methods("GET")

	router.HandleFunc("/customers", s.listCustomersHandler).Methods("GET")
	router.HandleFunc("/customers", s.createCustomerHandler).Methods("POST")
	router.HandleFunc("/customers", s.clearCustomersHandler).Methods("DELETE")
	router.HandleFunc("/customers/recent", s.recentCustomersHandler).Methods("GET")
	router.HandleFunc("/customers/{id}", s.getCustomerHandler).Methods("GET")
	router.HandleFunc("/customers/{id}", s.updateCustomerHandler).Methods("PUT")
	router.HandleFunc("/customers/{id}", s.deleteCustomerHandler).Methods("DELETE")
	router.HandleFunc("/customers/{id}/payments/{index:[0-9]+}", s.markPaymentHandler).Methods("POST")

	router.HandleFunc("/export/json", s.exportJSONHandler).Methods("GET")
	router.HandleFunc("/export/xlsx", s.exportXLSXHandler).Methods("GET")
	router.HandleFunc("/import/json", s.importJSONHandler).Methods("POST")
	router.HandleFunc("/import/xlsx", s.importXLSXHandler).Methods("POST")

	return router
}

// notification is the body of every mutation that has nothing else to return.
type notification struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func notify(w http.ResponseWriter, status int, title, message string) {
	writeJSON(w, status, notification{Title: title, Message: message})
}

// fail maps domain errors onto HTTP statuses.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ledger.ErrValidation):
		notify(w, http.StatusBadRequest, "Validation", err.Error())
	case errors.Is(err, ledger.ErrInvalidPaymentStatus):
		notify(w, http.StatusBadRequest, "Payment", err.Error())
	case errors.Is(err, transfer.ErrImportFormat):
		notify(w, http.StatusBadRequest, "Import Failed", err.Error())
	case errors.Is(err, ledger.ErrNotFound):
		notify(w, http.StatusNotFound, "Not Found", "Customer not found")
	default:
		s.log.WithError(err).WithFields(logrus.Fields{"method": r.Method, "path": r.URL.Path}).Error("request failed")
		notify(w, http.StatusInternalServerError, "Error", err.Error())
	}
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "online"})
}

func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	records, err := s.ledger.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats.Compute(records))
}

func (s *Server) listCustomersHandler(w http.ResponseWriter, r *http.Request) {
	records, err := s.ledger.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	q := r.URL.Query()
	writeJSON(w, http.StatusOK, ledger.Filter(records, q.Get("q"), q.Get("status")))
}

func (s *Server) recentCustomersHandler(w http.ResponseWriter, r *http.Request) {
	records, err := s.ledger.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ledger.Recent(records, ledger.RecentLimit))
}

func (s *Server) getCustomerHandler(w http.ResponseWriter, r *http.Request) {
	rec, err := s.ledger.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) createCustomerHandler(w http.ResponseWriter, r *http.Request) {
	var in ledger.CustomerInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rec, err := s.ledger.SaveCustomer(r.Context(), "", in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) updateCustomerHandler(w http.ResponseWriter, r *http.Request) {
	var in ledger.CustomerInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rec, err := s.ledger.SaveCustomer(r.Context(), mux.Vars(r)["id"], in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) deleteCustomerHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, err := s.ledger.Get(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.ledger.Delete(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	notify(w, http.StatusOK, "Deleted", "Customer removed")
}

func (s *Server) markPaymentHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]
	index, err := strconv.Atoi(vars["index"])
	if err != nil {
		http.Error(w, "Invalid month index", http.StatusBadRequest)
		return
	}

	var req struct {
		Status models.PaymentStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if _, err := s.ledger.Get(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.ledger.MarkPayment(r.Context(), id, index, req.Status); err != nil {
		s.fail(w, r, err)
		return
	}

	rec, err := s.ledger.Get(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) clearCustomersHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("confirm") != "yes" {
		notify(w, http.StatusBadRequest, "Confirm", "This will remove ALL customers permanently. Repeat with confirm=yes.")
		return
	}
	if err := s.ledger.Clear(r.Context()); err != nil {
		s.fail(w, r, err)
		return
	}
	notify(w, http.StatusOK, "Cleared", "All customers removed")
}

func (s *Server) exportJSONHandler(w http.ResponseWriter, r *http.Request) {
	records, err := s.ledger.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	data, err := transfer.ExportJSON(records)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	attach(w, transfer.JSONMediaType, transfer.ExportFilename(s.now()), data)
}

func (s *Server) exportXLSXHandler(w http.ResponseWriter, r *http.Request) {
	records, err := s.ledger.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	data, err := transfer.ExportXLSX(records)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	attach(w, transfer.XLSXMediaType, transfer.XLSXFilename, data)
}

func attach(w http.ResponseWriter, mediaType, filename string, data []byte) {
	w.Header().Set("Content-Type", mediaType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *Server) importJSONHandler(w http.ResponseWriter, r *http.Request) {
	data, err := readUpload(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	records, err := transfer.ImportJSON(data, s.now(), ledger.NewID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.ledger.Replace(r.Context(), records); err != nil {
		s.fail(w, r, err)
		return
	}
	notify(w, http.StatusOK, "Imported", fmt.Sprintf("Data imported successfully (%d customers)", len(records)))
}

func (s *Server) importXLSXHandler(w http.ResponseWriter, r *http.Request) {
	data, err := readUpload(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	records, err := transfer.ImportXLSX(data, s.now(), ledger.NewID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.ledger.Replace(r.Context(), records); err != nil {
		s.fail(w, r, err)
		return
	}
	notify(w, http.StatusOK, "Imported", fmt.Sprintf("Excel file restored (%d customers)", len(records)))
}

// readUpload returns the uploaded file, sent either as a multipart "file"
// field or as the raw request body.
func readUpload(r *http.Request) ([]byte, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			return nil, fmt.Errorf("invalid upload: %w", err)
		}
		f, _, err := r.FormFile("file")
		if err != nil {
			return nil, fmt.Errorf("missing file field: %w", err)
		}
		defer f.Close()
		return io.ReadAll(io.LimitReader(f, maxUploadBytes))
	}
	return io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
}
