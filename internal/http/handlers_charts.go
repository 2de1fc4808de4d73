package http

import (
	"net/http"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/report"
)

// chartRecords loads the owner's snapshot for a chart endpoint, writing the
// error envelope on failure. The bool reports whether the caller may proceed.
func (s *Server) chartRecords(w http.ResponseWriter, r *http.Request) ([]core.Transaction, bool) {
	owner := auth.OwnerFromContext(r.Context())
	records, err := s.snapshot(r.Context(), owner)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Chart snapshot error",
			log.FieldError, err, log.FieldOwner, owner, log.FieldPath, r.URL.Path)
		jsonError(w, http.StatusInternalServerError, "error loading records")
		return nil, false
	}
	return records, true
}

// handleChartSummary returns the current-month totals as units.
func (s *Server) handleChartSummary(w http.ResponseWriter, r *http.Request) {
	records, ok := s.chartRecords(w, r)
	if !ok {
		return
	}

	summary := report.MonthSummary(records, time.Now().UTC())
	jsonOK(w, map[string]float64{
		"income":  summary.Income.Units(),
		"expense": summary.Expense.Units(),
		"balance": summary.Balance.Units(),
	})
}

// handleChartOverview returns the year or single-month bucket series for the
// main chart. The month query parameter selects the view.
func (s *Server) handleChartOverview(w http.ResponseWriter, r *http.Request) {
	monthIndex, err := parseMonthIndex(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, ok := s.chartRecords(w, r)
	if !ok {
		return
	}

	buckets := report.Overview(records, time.Now().UTC(), monthIndex)
	labels := make([]string, len(buckets))
	income := make([]float64, len(buckets))
	expense := make([]float64, len(buckets))
	balance := make([]float64, len(buckets))
	for i, b := range buckets {
		labels[i] = b.Label
		income[i] = b.Income.Units()
		expense[i] = b.Expense.Units()
		balance[i] = b.Balance.Units()
	}

	jsonOK(w, map[string]interface{}{
		"labels":  labels,
		"income":  income,
		"expense": expense,
		"balance": balance,
	})
}

// handleChartComparison returns last month vs this month totals.
func (s *Server) handleChartComparison(w http.ResponseWriter, r *http.Request) {
	records, ok := s.chartRecords(w, r)
	if !ok {
		return
	}

	points := report.MonthComparison(records, time.Now().UTC())
	labels := make([]string, len(points))
	income := make([]float64, len(points))
	expense := make([]float64, len(points))
	for i, p := range points {
		labels[i] = p.Name
		income[i] = p.Income.Units()
		expense[i] = p.Expense.Units()
	}

	jsonOK(w, map[string]interface{}{
		"labels":  labels,
		"income":  income,
		"expense": expense,
	})
}

// handleChartActivity returns the bubble diameters for the activity panel.
func (s *Server) handleChartActivity(w http.ResponseWriter, r *http.Request) {
	records, ok := s.chartRecords(w, r)
	if !ok {
		return
	}

	sizes := report.ActivitySizes(report.MonthSummary(records, time.Now().UTC()))
	jsonOK(w, map[string]float64{
		"income":  sizes.Income,
		"expense": sizes.Expense,
		"balance": sizes.Balance,
	})
}

// handleChartIncomeTrend returns the income sequence with trend badges,
// oldest first.
func (s *Server) handleChartIncomeTrend(w http.ResponseWriter, r *http.Request) {
	records, ok := s.chartRecords(w, r)
	if !ok {
		return
	}

	income := report.SortChronological(report.OnlyType(report.FilterSearch(records, ""), core.Income))
	badges := report.IncomeTrend(income)

	type point struct {
		ID     string  `json:"id"`
		Date   string  `json:"date"`
		Source string  `json:"source"`
		Amount float64 `json:"amount"`
		Trend  string  `json:"trend"`
		Up     bool    `json:"up"`
		Down   bool    `json:"down"`
	}
	points := make([]point, len(income))
	for i, rec := range income {
		points[i] = point{
			ID:     rec.ID,
			Date:   rec.Date.String(),
			Source: rec.Source,
			Amount: rec.Amount.Units(),
			Trend:  badges[i].Label,
			Up:     badges[i].Up,
			Down:   badges[i].Down,
		}
	}

	jsonOK(w, points)
}
