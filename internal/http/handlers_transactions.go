package http

import (
	"errors"
	"html/template"
	"net/http"
	"sync/atomic"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/report"
	"fintrack/internal/store"
)

// handleTransactions dispatches the /transactions endpoint: POST creates a
// record, DELETE removes one, GET renders the history partial.
func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateTransaction(w, r)
	case http.MethodDelete:
		s.handleDeleteTransaction(w, r)
	case http.MethodGet:
		s.handleHistory(w, r)
	default:
		MethodNotAllowedError("GET, POST, DELETE").Write(w)
	}
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	owner := auth.OwnerFromContext(r.Context())

	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		s.logger.ErrorContext(r.Context(), "Parse body error",
			log.FieldError, err, log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
		BadRequestError("Invalid request format").Write(w)
		return
	}

	source := parser.Get("source")
	amountStr := parser.Get("amount")
	typeStr := parser.Get("type")
	dateStr := parser.Get("date")
	description := parser.Get("description")

	cents, err := core.ParseDecimalToCents(amountStr)
	if err != nil {
		UnprocessableEntityError("Invalid amount").Write(w)
		return
	}

	date := core.Date{Time: time.Now().UTC().Truncate(24 * time.Hour)}
	if dateStr != "" {
		date, err = core.ParseDate(dateStr)
		if err != nil {
			UnprocessableEntityError("Invalid date").Write(w)
			return
		}
	}

	tx := core.Transaction{
		Owner:       owner,
		Source:      source,
		Amount:      core.Money{Cents: cents},
		Type:        core.TransactionType(typeStr),
		Date:        date,
		Description: description,
	}

	stored, err := s.serviceFor(owner).Create(r.Context(), tx)
	if err != nil {
		if isValidationError(err) {
			UnprocessableEntityError("Invalid data: " + err.Error()).Write(w)
			return
		}
		log.NewStructuredLogger(log.FromContext(r.Context())).
			LogError(r.Context(), "Failed to save transaction", err, log.ComponentTransaction, log.OpCreate,
				log.NewFields().WithTransaction("", tx.Source, string(tx.Type), tx.Amount.Cents))
		InternalServerError("Error saving transaction").Write(w)
		return
	}

	atomic.AddInt64(&s.appMetrics.totalTransactions, 1)
	s.invalidateSnapshot(owner)

	log.NewStructuredLogger(log.FromContext(r.Context())).
		LogTransactionCreated(r.Context(), stored.ID, stored.Source, string(stored.Type), stored.Amount.Cents)

	NewHTMXResponse().
		TriggerTransactionCreated(stored.ID, string(stored.Type)).
		TriggerFormReset().
		BodyHTML(`<div class="success">Saved ` + template.HTMLEscapeString(stored.Source) +
			` ` + template.HTMLEscapeString(formatEuros(stored.Amount.Cents)) + `</div>`).
		Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	owner := auth.OwnerFromContext(r.Context())

	id := sanitizeInput(r.URL.Query().Get("id"))
	if id == "" {
		BadRequestError("Missing transaction id").Write(w)
		return
	}

	if err := s.serviceFor(owner).Delete(r.Context(), id, owner); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			NotFoundError("Transaction not found").Write(w)
			return
		}
		s.logger.ErrorContext(r.Context(), "Failed to delete transaction",
			log.FieldError, err,
			log.FieldTransactionID, id,
			log.FieldOwner, owner,
			log.FieldOperation, log.OpDelete)
		InternalServerError("Error deleting transaction").Write(w)
		return
	}

	s.invalidateSnapshot(owner)

	s.logger.InfoContext(r.Context(), "Transaction deleted",
		log.FieldTransactionID, id,
		log.FieldOwner, owner,
		log.FieldOperation, log.OpDelete)

	// Empty body so hx-swap="outerHTML" removes the row.
	NewHTMXResponse().
		TriggerTransactionDeleted(id).
		Write(w)
}

// handleHistory renders the raw record list, newest first. Records that fail
// the reportable check still appear here; the optional search term filters
// down to reportable matches.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	owner := auth.OwnerFromContext(r.Context())

	records, err := s.snapshot(r.Context(), owner)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "History snapshot error",
			log.FieldError, err, log.FieldOwner, owner)
		_, _ = w.Write([]byte(`<div class="error">Error loading history</div>`))
		return
	}

	term := sanitizeInput(r.URL.Query().Get("q"))
	if term != "" {
		records = report.FilterSearch(records, term)
	}

	type row struct {
		ID          string
		Date        string
		Source      string
		Type        string
		Amount      string
		Description string
	}
	data := struct {
		Query string
		Rows  []row
	}{Query: term}
	for _, rec := range records {
		dateStr := ""
		if !rec.Date.IsZero() {
			dateStr = rec.Date.String()
		}
		data.Rows = append(data.Rows, row{
			ID:          rec.ID,
			Date:        dateStr,
			Source:      rec.Source,
			Type:        string(rec.Type),
			Amount:      formatEuros(rec.Amount.Cents),
			Description: rec.Description,
		})
	}

	if s.templates == nil {
		_, _ = w.Write([]byte(`<div class="placeholder">` +
			template.HTMLEscapeString(formatEuros(0)) + `</div>`))
		return
	}
	if err := s.templates.ExecuteTemplate(w, "history_table.html", data); err != nil {
		s.logger.ErrorContext(r.Context(), "History template execution failed",
			log.FieldError, err, "template", "history_table.html")
		_, _ = w.Write([]byte(`<div class="error">Error rendering history</div>`))
	}
}

// handleSummaryCards renders the current-month totals partial.
func (s *Server) handleSummaryCards(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	owner := auth.OwnerFromContext(r.Context())

	records, err := s.snapshot(r.Context(), owner)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Summary snapshot error",
			log.FieldError, err, log.FieldOwner, owner)
		_, _ = w.Write([]byte(`<div class="error">Error loading summary</div>`))
		return
	}

	summary := report.MonthSummary(records, time.Now().UTC())
	data := struct {
		Income  string
		Expense string
		Balance string
	}{
		Income:  formatEuros(summary.Income.Cents),
		Expense: formatEuros(summary.Expense.Cents),
		Balance: formatEuros(summary.Balance.Cents),
	}

	if s.templates == nil {
		_, _ = w.Write([]byte(`<div class="placeholder">Balance: ` +
			template.HTMLEscapeString(data.Balance) + `</div>`))
		return
	}
	if err := s.templates.ExecuteTemplate(w, "summary_cards.html", data); err != nil {
		s.logger.ErrorContext(r.Context(), "Summary template execution failed",
			log.FieldError, err, "template", "summary_cards.html")
		_, _ = w.Write([]byte(`<div class="error">Error rendering summary</div>`))
	}
}

// isValidationError reports whether the error came from domain validation
// rather than the store machinery.
func isValidationError(err error) bool {
	return errors.Is(err, core.ErrInvalidAmount) ||
		errors.Is(err, core.ErrInvalidDate) ||
		errors.Is(err, core.ErrInvalidType) ||
		errors.Is(err, core.ErrEmptySource) ||
		errors.Is(err, core.ErrSourceTooLong) ||
		errors.Is(err, core.ErrDescriptionLong) ||
		errors.Is(err, store.ErrNoOwner)
}
