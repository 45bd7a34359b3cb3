// Package report computes the dashboard's derived values. Every function
// is pure: given loaded tables it returns aggregates and never touches
// storage. Ratio math uses decimals so percentages survive rounding;
// division by zero is defined to yield 0, never an error.
package report

import (
	"sort"

	"github.com/shopspring/decimal"

	"finboard/internal/core"
)

// Allocation rules. These are fixed by design, not configuration: the
// dashboard models one freelancer's standing split.
const (
	payIntervalDays = 14
	daysInYear      = 365
	// payPeriodsPerYear = 26 biweekly draws.
	payPeriodsPerYear = daysInYear / payIntervalDays
	ownerDrawCents    = 3000_00
)

var (
	taxRate          = decimal.RequireFromString("0.40")
	reinvestmentRate = decimal.RequireFromString("0.20")
	savingsRate      = decimal.RequireFromString("0.10")
	hundred          = decimal.NewFromInt(100)

	// savingsFloorCents: suggestions below this are noise, not advice.
	savingsFloorCents = int64(50_00)
)

type (
	// MonthlySummary are the headline numbers for one calendar month.
	MonthlySummary struct {
		Year, Month int
		Income      core.Money
		Expenses    core.Money
		Profit      core.Money
		// ProfitMargin is profit/income as a percentage, 0 when income is 0.
		ProfitMargin decimal.Decimal
	}

	// TrendPoint is one month in the income-vs-expenses series.
	TrendPoint struct {
		Year, Month  int
		Income       core.Money
		Expenses     core.Money
		Profit       core.Money
		ProfitMargin decimal.Decimal
	}

	// CategoryShare is one category's slice of a grouped total.
	CategoryShare struct {
		Category string
		Amount   core.Money
		// Percent of the grouped total, 0 when the total is 0.
		Percent decimal.Decimal
	}

	// AllocationSplit divides year-to-date income into the fixed reserves.
	AllocationSplit struct {
		YTDIncome    core.Money
		Taxes        core.Money
		Reinvestment core.Money
		OwnerPay     core.Money
		// NetCushion may go negative; the fixed draw is independent of income.
		NetCushion core.Money
	}

	// StatusRollup aggregates invoices sharing one status.
	StatusRollup struct {
		Status core.InvoiceStatus
		Count  int
		Sum    core.Money
	}

	// InvoiceRollup summarizes the invoice table.
	InvoiceRollup struct {
		TotalCount int
		Total      core.Money
		ByStatus   []StatusRollup
		// Outstanding covers statuses Sent and Due.
		OutstandingCount int
		Outstanding      core.Money
		OverdueCount     int
		Overdue          core.Money
		Paid             core.Money
		PaidByClient     []CategoryShare
	}

	// SavingsSuggestion proposes switching a monthly vendor to annual
	// billing, assuming a 10% discount.
	SavingsSuggestion struct {
		Vendor        string
		AnnualSavings core.Money
	}

	// RecurringSummary totals the recurring expense table.
	RecurringSummary struct {
		MonthlyTotal core.Money
		AnnualTotal  core.Money
		// Annualized = monthly*12 + annual.
		Annualized  core.Money
		ByFrequency []CategoryShare
		Suggestions []SavingsSuggestion
	}
)

func money(cents int64) core.Money { return core.Money{Cents: cents} }

func cents(m core.Money) decimal.Decimal { return decimal.New(m.Cents, -2) }

// percent returns part/total*100 rounded to two places, 0 for a zero total.
func percent(part, total int64) decimal.Decimal {
	if total == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(part).Div(decimal.NewFromInt(total)).Mul(hundred).Round(2)
}

// Summary computes the headline numbers for the given calendar month.
func Summary(rows []core.Transaction, year, month int) MonthlySummary {
	s := MonthlySummary{Year: year, Month: month}
	for _, t := range rows {
		if t.Date.Year() != year || t.Date.Month() != month {
			continue
		}
		switch t.Type {
		case core.Income:
			s.Income.Cents += t.Amount.Cents
		case core.Expense:
			s.Expenses.Cents += t.Amount.Cents
		}
	}
	s.Profit = money(s.Income.Cents - s.Expenses.Cents)
	s.ProfitMargin = percent(s.Profit.Cents, s.Income.Cents)
	return s
}

// Trend returns the per-month income/expense/profit series over all rows,
// sorted chronologically.
func Trend(rows []core.Transaction) []TrendPoint {
	type key struct{ y, m int }
	byMonth := make(map[key]*TrendPoint)
	for _, t := range rows {
		k := key{t.Date.Year(), t.Date.Month()}
		p, ok := byMonth[k]
		if !ok {
			p = &TrendPoint{Year: k.y, Month: k.m}
			byMonth[k] = p
		}
		switch t.Type {
		case core.Income:
			p.Income.Cents += t.Amount.Cents
		case core.Expense:
			p.Expenses.Cents += t.Amount.Cents
		}
	}
	out := make([]TrendPoint, 0, len(byMonth))
	for _, p := range byMonth {
		p.Profit = money(p.Income.Cents - p.Expenses.Cents)
		p.ProfitMargin = percent(p.Profit.Cents, p.Income.Cents)
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out
}

// Breakdown groups rows of the given type by category, sorted by amount
// descending, each with its percentage of the grouped total.
func Breakdown(rows []core.Transaction, txType core.TransactionType) []CategoryShare {
	sums := make(map[string]int64)
	for _, t := range rows {
		if t.Type != txType {
			continue
		}
		sums[t.Category] += t.Amount.Cents
	}
	var total int64
	for _, c := range sums {
		total += c
	}
	out := make([]CategoryShare, 0, len(sums))
	for cat, c := range sums {
		out = append(out, CategoryShare{
			Category: cat,
			Amount:   money(c),
			Percent:  percent(c, total),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount.Cents != out[j].Amount.Cents {
			return out[i].Amount.Cents > out[j].Amount.Cents
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// Allocate splits the year's income into the fixed reserves. The owner
// draw is a constant 26 periods x 3000 regardless of income, so the
// cushion can go negative — that is a reading of the numbers, not an error.
func Allocate(rows []core.Transaction, year int) AllocationSplit {
	var ytd int64
	for _, t := range rows {
		if t.Type == core.Income && t.Date.Year() == year {
			ytd += t.Amount.Cents
		}
	}
	income := decimal.New(ytd, -2)
	taxes := income.Mul(taxRate).Round(2).Shift(2).IntPart()
	reinvest := income.Mul(reinvestmentRate).Round(2).Shift(2).IntPart()
	ownerPay := int64(payPeriodsPerYear) * ownerDrawCents

	return AllocationSplit{
		YTDIncome:    money(ytd),
		Taxes:        money(taxes),
		Reinvestment: money(reinvest),
		OwnerPay:     money(ownerPay),
		NetCushion:   money(ytd - taxes - reinvest - ownerPay),
	}
}

// Invoices rolls up the invoice table by status. Outstanding means the
// money is still expected: statuses Sent and Due.
func Invoices(rows []core.Invoice) InvoiceRollup {
	r := InvoiceRollup{TotalCount: len(rows)}
	counts := make(map[core.InvoiceStatus]*StatusRollup)
	paidByClient := make(map[string]int64)
	for _, inv := range rows {
		r.Total.Cents += inv.Amount.Cents
		sr, ok := counts[inv.Status]
		if !ok {
			sr = &StatusRollup{Status: inv.Status}
			counts[inv.Status] = sr
		}
		sr.Count++
		sr.Sum.Cents += inv.Amount.Cents

		switch inv.Status {
		case core.StatusSent, core.StatusDue:
			r.OutstandingCount++
			r.Outstanding.Cents += inv.Amount.Cents
		case core.StatusOverdue:
			r.OverdueCount++
			r.Overdue.Cents += inv.Amount.Cents
		case core.StatusPaid:
			r.Paid.Cents += inv.Amount.Cents
			paidByClient[inv.Client] += inv.Amount.Cents
		}
	}
	for _, status := range []core.InvoiceStatus{core.StatusSent, core.StatusDue, core.StatusPaid, core.StatusOverdue} {
		if sr, ok := counts[status]; ok {
			r.ByStatus = append(r.ByStatus, *sr)
		} else {
			r.ByStatus = append(r.ByStatus, StatusRollup{Status: status})
		}
	}
	for client, c := range paidByClient {
		r.PaidByClient = append(r.PaidByClient, CategoryShare{
			Category: client,
			Amount:   money(c),
			Percent:  percent(c, r.Paid.Cents),
		})
	}
	sort.Slice(r.PaidByClient, func(i, j int) bool {
		if r.PaidByClient[i].Amount.Cents != r.PaidByClient[j].Amount.Cents {
			return r.PaidByClient[i].Amount.Cents > r.PaidByClient[j].Amount.Cents
		}
		return r.PaidByClient[i].Category < r.PaidByClient[j].Category
	})
	return r
}

// Recurring totals the recurring table and surfaces annual-payment
// savings suggestions for monthly vendors where the 10% discount would
// exceed the floor.
func Recurring(rows []core.RecurringExpense) RecurringSummary {
	var s RecurringSummary
	for _, r := range rows {
		switch r.Frequency {
		case core.Monthly:
			s.MonthlyTotal.Cents += r.Amount.Cents
		case core.Annual:
			s.AnnualTotal.Cents += r.Amount.Cents
		}
	}
	s.Annualized = money(s.MonthlyTotal.Cents*12 + s.AnnualTotal.Cents)

	freqTotal := s.MonthlyTotal.Cents + s.AnnualTotal.Cents
	s.ByFrequency = []CategoryShare{
		{Category: string(core.Monthly), Amount: s.MonthlyTotal, Percent: percent(s.MonthlyTotal.Cents, freqTotal)},
		{Category: string(core.Annual), Amount: s.AnnualTotal, Percent: percent(s.AnnualTotal.Cents, freqTotal)},
	}

	for _, r := range rows {
		if r.Frequency != core.Monthly {
			continue
		}
		annual := decimal.New(r.Amount.Cents*12, -2)
		savings := annual.Mul(savingsRate).Round(2).Shift(2).IntPart()
		if savings > savingsFloorCents {
			s.Suggestions = append(s.Suggestions, SavingsSuggestion{
				Vendor:        r.Vendor,
				AnnualSavings: money(savings),
			})
		}
	}
	return s
}
