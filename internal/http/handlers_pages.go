package http

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"finboard/internal/core"
	"finboard/internal/report"
)

// page carries the fields every rendered page shares.
type page struct {
	Title   string
	Active  string
	User    string
	Warning string
	Saved   string
}

func monthLabel(year, month int) string {
	return fmt.Sprintf("%s %d", time.Month(month).String(), year)
}

// trendRow is a TrendPoint with precomputed bar widths for the template.
type trendRow struct {
	report.TrendPoint
	Label        string
	IncomeWidth  int
	ExpenseWidth int
}

func trendRows(points []report.TrendPoint) []trendRow {
	var max int64
	for _, p := range points {
		if p.Income.Cents > max {
			max = p.Income.Cents
		}
		if p.Expenses.Cents > max {
			max = p.Expenses.Cents
		}
	}
	rows := make([]trendRow, 0, len(points))
	for _, p := range points {
		rows = append(rows, trendRow{
			TrendPoint:   p,
			Label:        monthLabel(p.Year, p.Month),
			IncomeWidth:  barWidth(p.Income.Cents, max),
			ExpenseWidth: barWidth(p.Expenses.Cents, max),
		})
	}
	return rows
}

// shareRow is a CategoryShare with a precomputed bar width.
type shareRow struct {
	report.CategoryShare
	Width int
}

func shareRows(shares []report.CategoryShare) []shareRow {
	var max int64
	for _, c := range shares {
		if c.Amount.Cents > max {
			max = c.Amount.Cents
		}
	}
	rows := make([]shareRow, 0, len(shares))
	for _, c := range shares {
		rows = append(rows, shareRow{CategoryShare: c, Width: barWidth(c.Amount.Cents, max)})
	}
	return rows
}

// loadAll fetches the three tables concurrently. Warnings are collected,
// not fatal; a degraded table arrives empty.
func (s *Server) loadAll(r *http.Request, user string) (tx []core.Transaction, inv []core.Invoice, rec []core.RecurringExpense, warning string) {
	var txWarn, invWarn, recWarn error
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error { tx, txWarn = s.records.LoadTransactions(ctx, user); return nil })
	g.Go(func() error { inv, invWarn = s.records.LoadInvoices(ctx, user); return nil })
	g.Go(func() error { rec, recWarn = s.records.LoadRecurring(ctx, user); return nil })
	_ = g.Wait()
	return tx, inv, rec, warningOf(txWarn, invWarn, recWarn)
}

type overviewPage struct {
	page
	Month        report.MonthlySummary
	MonthLabel   string
	Trend        []trendRow
	TopExpenses  []shareRow
	Invoices     report.InvoiceRollup
	Recurring    report.RecurringSummary
	Allocation   report.AllocationSplit
	HasTrendData bool
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	user := currentUser(r)
	tx, inv, rec, warning := s.loadAll(r, user)

	now := time.Now()
	trend := report.Trend(tx)
	if len(trend) > 6 {
		trend = trend[len(trend)-6:]
	}
	top := report.Breakdown(tx, core.Expense)
	if len(top) > 5 {
		top = top[:5]
	}

	s.render(w, r, "overview.html", overviewPage{
		page:         page{Title: "Overview", Active: "overview", User: user, Warning: warning},
		Month:        report.Summary(tx, now.Year(), int(now.Month())),
		MonthLabel:   monthLabel(now.Year(), int(now.Month())),
		Trend:        trendRows(trend),
		TopExpenses:  shareRows(top),
		Invoices:     report.Invoices(inv),
		Recurring:    report.Recurring(rec),
		Allocation:   report.Allocate(tx, now.Year()),
		HasTrendData: len(trend) > 0,
	})
}

type incomeExpensesPage struct {
	page
	Trend []trendRow
}

func (s *Server) handleIncomeExpenses(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	tx, warn := s.records.LoadTransactions(r.Context(), user)
	s.render(w, r, "income_expenses.html", incomeExpensesPage{
		page:  page{Title: "Income vs Expenses", Active: "income-expenses", User: user, Warning: warningOf(warn)},
		Trend: trendRows(report.Trend(tx)),
	})
}

type categoriesPage struct {
	page
	Expenses []shareRow
	Income   []shareRow
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	tx, warn := s.records.LoadTransactions(r.Context(), user)
	s.render(w, r, "categories.html", categoriesPage{
		page:     page{Title: "Categories", Active: "categories", User: user, Warning: warningOf(warn)},
		Expenses: shareRows(report.Breakdown(tx, core.Expense)),
		Income:   shareRows(report.Breakdown(tx, core.Income)),
	})
}

type allocationsPage struct {
	page
	Year           int
	Allocation     report.AllocationSplit
	IncomeBySource []shareRow
}

func (s *Server) handleAllocations(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	tx, warn := s.records.LoadTransactions(r.Context(), user)

	year := time.Now().Year()
	if y, err := strconv.Atoi(r.URL.Query().Get("year")); err == nil && y >= 2000 && y <= 2100 {
		year = y
	}

	inYear := make([]core.Transaction, 0, len(tx))
	for _, t := range tx {
		if t.Date.Year() == year {
			inYear = append(inYear, t)
		}
	}

	s.render(w, r, "allocations.html", allocationsPage{
		page:           page{Title: "Allocations", Active: "allocations", User: user, Warning: warningOf(warn)},
		Year:           year,
		Allocation:     report.Allocate(tx, year),
		IncomeBySource: shareRows(report.Breakdown(inYear, core.Income)),
	})
}
