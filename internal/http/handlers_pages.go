package http

import (
	"net/http"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/report"
)

var monthSelectorLabels = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if s.templates == nil {
		s.logger.ErrorContext(r.Context(), "Templates not loaded",
			log.FieldPath, r.URL.Path,
			log.FieldComponent, log.ComponentTemplate)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	owner := auth.OwnerFromContext(r.Context())
	data := struct {
		Owner  string
		Today  string
		Months []string
	}{
		Owner:  owner,
		Today:  time.Now().UTC().Format(core.DateLayout),
		Months: monthSelectorLabels,
	}

	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		s.logger.ErrorContext(r.Context(), "Index template execution failed",
			log.FieldError, err, "template", "index.html")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// handleIncomePage renders the income history with trend badges.
func (s *Server) handleIncomePage(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	owner := auth.OwnerFromContext(r.Context())
	records, err := s.snapshot(r.Context(), owner)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Income page snapshot error",
			log.FieldError, err, log.FieldOwner, owner)
		http.Error(w, "error loading income records", http.StatusInternalServerError)
		return
	}

	income := report.SortChronological(report.OnlyType(report.FilterSearch(records, ""), core.Income))
	badges := report.IncomeTrend(income)

	type row struct {
		ID     string
		Date   string
		Source string
		Amount string
		Badge  report.TrendBadge
	}
	data := struct {
		Owner string
		Rows  []row
	}{Owner: owner}
	// Newest first on the page, badges computed oldest first.
	for i := len(income) - 1; i >= 0; i-- {
		data.Rows = append(data.Rows, row{
			ID:     income[i].ID,
			Date:   income[i].Date.String(),
			Source: income[i].Source,
			Amount: formatEuros(income[i].Amount.Cents),
			Badge:  badges[i],
		})
	}

	if err := s.templates.ExecuteTemplate(w, "income.html", data); err != nil {
		s.logger.ErrorContext(r.Context(), "Income template execution failed",
			log.FieldError, err, "template", "income.html")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if errResp := RequirePOST(r); errResp != nil {
		errResp.Write(w)
		return
	}
	if errResp := ParseFormOrFail(r); errResp != nil {
		errResp.Write(w)
		return
	}

	email := sanitizeInput(r.Form.Get("email"))
	token, err := s.sessions.Login(email)
	if err != nil {
		s.logger.WarnContext(r.Context(), "Login rejected", log.FieldError, err)
		UnprocessableEntityError("Invalid email address").Write(w)
		return
	}

	auth.SetSessionCookie(w, token, auth.DefaultTTL)
	s.logger.InfoContext(r.Context(), "Owner logged in", log.FieldOwner, email)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if errResp := RequirePOST(r); errResp != nil {
		errResp.Write(w)
		return
	}

	if c, err := r.Cookie(auth.SessionCookie); err == nil {
		s.sessions.Logout(c.Value)
	}
	auth.ClearSessionCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
