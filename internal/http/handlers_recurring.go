package http

import (
	"net/http"
	"strings"

	"finboard/internal/core"
	"finboard/internal/log"
	"finboard/internal/report"
)

type recurringPage struct {
	page
	Summary     report.RecurringSummary
	Rows        []core.RecurringExpense
	Frequencies []core.Frequency
	DueMonths   []string
	Form        map[string]string
	Errors      map[string]string
}

func (s *Server) handleRecurring(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.renderRecurring(w, r, http.StatusOK, nil, nil)
	case http.MethodPost:
		s.createRecurring(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) renderRecurring(w http.ResponseWriter, r *http.Request, status int, form, fieldErrors map[string]string) {
	user := currentUser(r)
	rows, warn := s.records.LoadRecurring(r.Context(), user)

	data := recurringPage{
		page: page{
			Title: "Recurring Expenses", Active: "recurring", User: user,
			Warning: warningOf(warn),
			Saved:   savedMessage(r, "Recurring expense recorded."),
		},
		Summary:     report.Recurring(rows),
		Rows:        rows,
		Frequencies: []core.Frequency{core.Monthly, core.Annual},
		DueMonths:   core.DueMonths,
		Form:        form,
		Errors:      fieldErrors,
	}
	if status == http.StatusOK {
		s.render(w, r, "recurring.html", data)
		return
	}
	s.renderStatus(w, r, status, "recurring.html", data)
}

func validMonth(m string) bool {
	for _, name := range core.DueMonths {
		if m == name {
			return true
		}
	}
	return false
}

func (s *Server) createRecurring(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	form := map[string]string{
		"vendor":    strings.TrimSpace(r.PostFormValue("vendor")),
		"frequency": strings.TrimSpace(r.PostFormValue("frequency")),
		"amount":    strings.TrimSpace(r.PostFormValue("amount")),
		"due_month": strings.TrimSpace(r.PostFormValue("due_month")),
		"notes":     strings.TrimSpace(r.PostFormValue("notes")),
	}

	fieldErrors := make(map[string]string)
	rec := core.RecurringExpense{
		Vendor:    form["vendor"],
		Frequency: core.Frequency(form["frequency"]),
		DueMonth:  form["due_month"],
		Notes:     form["notes"],
	}
	if rec.Vendor == "" {
		fieldErrors["vendor"] = "Vendor name is required."
	}
	if err := rec.Frequency.Validate(); err != nil {
		fieldErrors["frequency"] = "Pick Monthly or Annual."
	}
	if cents, err := core.ParseDecimalToCents(form["amount"]); err != nil || cents <= 0 {
		fieldErrors["amount"] = "Amount must be a positive number."
	} else {
		rec.Amount = core.Money{Cents: cents}
	}
	if !validMonth(rec.DueMonth) {
		fieldErrors["due_month"] = "Pick a month."
	}

	if len(fieldErrors) > 0 {
		s.renderRecurring(w, r, http.StatusUnprocessableEntity, form, fieldErrors)
		return
	}

	if err := s.records.AppendRecurring(r.Context(), currentUser(r), rec); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Recurring append failed",
			log.FieldError, err.Error(), log.FieldUser, currentUser(r), log.FieldOperation, log.OpAppend)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	s.metrics.rowsAppended.Add(1)
	http.Redirect(w, r, "/recurring?saved=1", http.StatusSeeOther)
}
