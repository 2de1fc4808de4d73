// Package report derives dashboard aggregates from a transaction snapshot.
//
// Every function here is pure: the full record list plus a reference time go
// in, bucket sums come out. Nothing is cached or incremental; callers
// re-derive on each render. Records failing core.Transaction.IsReportable are
// skipped by every computation.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"fintrack/internal/core"
)

// YearView selects the twelve-month overview; 0..11 select a single month.
const YearView = -1

var monthLabels = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

type (
	// Summary holds the current-calendar-month totals for the cards.
	Summary struct {
		Income  core.Money
		Expense core.Money
		Balance core.Money
	}

	// Bucket is one aggregation slot of the overview chart: a calendar
	// month in year view, a day of month in month view.
	Bucket struct {
		Label   string
		Income  core.Money
		Expense core.Money
		Balance core.Money
	}

	// ComparisonPoint is one side of the last-month / this-month chart.
	ComparisonPoint struct {
		Name    string
		Income  core.Money
		Expense core.Money
	}

	// Activity carries the bubble diameters for the activity panel.
	Activity struct {
		Income  float64
		Expense float64
		Balance float64
	}

	// TrendBadge labels one income record relative to its chronological
	// predecessor.
	TrendBadge struct {
		Label string
		Up    bool
		Down  bool
	}
)

// Trend badge labels for the non-percentage cases.
const (
	TrendNew      = "New Entry"
	TrendNA       = "N/A"
	TrendNoChange = "No Change"
)

// MonthSummary sums reportable income and expense for the calendar month and
// year of now.
func MonthSummary(records []core.Transaction, now time.Time) Summary {
	var s Summary
	year, month := now.Year(), now.Month()
	for _, r := range records {
		if !r.IsReportable() {
			continue
		}
		if r.Date.Time.Year() != year || r.Date.Time.Month() != month {
			continue
		}
		switch r.Type {
		case core.Income:
			s.Income = s.Income.Add(r.Amount)
		case core.Expense:
			s.Expense = s.Expense.Add(r.Amount)
		}
	}
	s.Balance = s.Income.Sub(s.Expense)
	return s
}

// MonthComparison returns the last-month and this-month buckets, in that
// order. Windows are explicit half-open date ranges rather than month-index
// matches, so January's last-month bucket includes December of the previous
// year.
func MonthComparison(records []core.Transaction, now time.Time) []ComparisonPoint {
	thisStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	lastStart := thisStart.AddDate(0, -1, 0)
	nextStart := thisStart.AddDate(0, 1, 0)

	last := ComparisonPoint{Name: "Last Month"}
	cur := ComparisonPoint{Name: "This Month"}
	for _, r := range records {
		if !r.IsReportable() {
			continue
		}
		d := r.Date.Time
		var p *ComparisonPoint
		switch {
		case !d.Before(thisStart) && d.Before(nextStart):
			p = &cur
		case !d.Before(lastStart) && d.Before(thisStart):
			p = &last
		default:
			continue
		}
		switch r.Type {
		case core.Income:
			p.Income = p.Income.Add(r.Amount)
		case core.Expense:
			p.Expense = p.Expense.Add(r.Amount)
		}
	}
	return []ComparisonPoint{last, cur}
}

// Overview buckets reportable records of the current year. monthIndex ==
// YearView yields one bucket per calendar month; 0..11 yields one bucket per
// day of that month, sized by the actual day count of the month in now's
// year. Buckets are pre-seeded to zero so empty periods still chart.
func Overview(records []core.Transaction, now time.Time, monthIndex int) []Bucket {
	year := now.Year()
	if monthIndex == YearView {
		buckets := make([]Bucket, 12)
		for i := range buckets {
			buckets[i].Label = monthLabels[i]
		}
		for _, r := range records {
			if !r.IsReportable() || r.Date.Time.Year() != year {
				continue
			}
			addTo(&buckets[int(r.Date.Time.Month())-1], r)
		}
		finishBalances(buckets)
		return buckets
	}

	days := daysInMonth(year, monthIndex)
	buckets := make([]Bucket, days)
	for i := range buckets {
		buckets[i].Label = fmt.Sprintf("%d", i+1)
	}
	for _, r := range records {
		if !r.IsReportable() || r.Date.Time.Year() != year {
			continue
		}
		if int(r.Date.Time.Month())-1 != monthIndex {
			continue
		}
		addTo(&buckets[r.Date.Time.Day()-1], r)
	}
	finishBalances(buckets)
	return buckets
}

func addTo(b *Bucket, r core.Transaction) {
	switch r.Type {
	case core.Income:
		b.Income = b.Income.Add(r.Amount)
	case core.Expense:
		b.Expense = b.Expense.Add(r.Amount)
	}
}

func finishBalances(buckets []Bucket) {
	for i := range buckets {
		buckets[i].Balance = buckets[i].Income.Sub(buckets[i].Expense)
	}
}

// daysInMonth returns the day count of the given zero-based month of year.
func daysInMonth(year, monthIndex int) int {
	return time.Date(year, time.Month(monthIndex+2), 0, 0, 0, 0, 0, time.UTC).Day()
}

// Bubble sizing constants from the activity panel layout.
const (
	activityScale   = 120
	activityOffset  = 40
	activityDefault = 80
	incomeFloor     = 60
	expenseFloor    = 50
	balanceFloor    = 50
)

// ActivitySizes converts the three summary magnitudes into proportional,
// floor-clamped bubble diameters. A zero total yields a fixed default for
// all three.
func ActivitySizes(s Summary) Activity {
	total := s.Income.Cents + s.Expense.Cents + s.Balance.Abs().Cents
	if total == 0 {
		return Activity{Income: activityDefault, Expense: activityDefault, Balance: activityDefault}
	}
	size := func(cents int64, floor float64) float64 {
		v := float64(cents)/float64(total)*activityScale + activityOffset
		if v < floor {
			return floor
		}
		return v
	}
	return Activity{
		Income:  size(s.Income.Cents, incomeFloor),
		Expense: size(s.Expense.Cents, expenseFloor),
		Balance: size(s.Balance.Abs().Cents, balanceFloor),
	}
}

// IncomeTrend labels each record against its immediate chronological
// predecessor. Records are compared in the order given; callers pass the
// income sequence sorted oldest first. The first record is flagged new, any
// comparison involving a zero amount is flagged not applicable, equal
// amounts are flagged unchanged, and everything else gets a signed
// percentage with direction.
func IncomeTrend(records []core.Transaction) []TrendBadge {
	badges := make([]TrendBadge, len(records))
	for i, r := range records {
		if i == 0 {
			badges[i] = TrendBadge{Label: TrendNew}
			continue
		}
		cur := r.Amount.Cents
		prev := records[i-1].Amount.Cents
		if cur == 0 || prev == 0 {
			badges[i] = TrendBadge{Label: TrendNA}
			continue
		}
		if cur == prev {
			badges[i] = TrendBadge{Label: TrendNoChange}
			continue
		}
		change := float64(cur-prev) / float64(prev) * 100
		if change > 0 {
			badges[i] = TrendBadge{Label: fmt.Sprintf("▲ %.1f%%", change), Up: true}
		} else {
			badges[i] = TrendBadge{Label: fmt.Sprintf("▼ %.1f%%", -change), Down: true}
		}
	}
	return badges
}

// FilterSearch returns the reportable records whose source or description
// contains term, case-insensitively. An empty term keeps every reportable
// record.
func FilterSearch(records []core.Transaction, term string) []core.Transaction {
	term = strings.ToLower(strings.TrimSpace(term))
	out := make([]core.Transaction, 0, len(records))
	for _, r := range records {
		if !r.IsReportable() {
			continue
		}
		if term == "" ||
			strings.Contains(strings.ToLower(r.Source), term) ||
			strings.Contains(strings.ToLower(r.Description), term) {
			out = append(out, r)
		}
	}
	return out
}

// SortChronological orders records oldest first by date, then by creation
// time. Used by the income trend view; the history table shows the store's
// newest-first order instead.
func SortChronological(records []core.Transaction) []core.Transaction {
	out := append([]core.Transaction(nil), records...)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Time.Equal(out[j].Date.Time) {
			return out[i].Date.Time.Before(out[j].Date.Time)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// OnlyType filters records to the given transaction type, keeping order.
func OnlyType(records []core.Transaction, t core.TransactionType) []core.Transaction {
	out := make([]core.Transaction, 0, len(records))
	for _, r := range records {
		if r.Type == t {
			out = append(out, r)
		}
	}
	return out
}
