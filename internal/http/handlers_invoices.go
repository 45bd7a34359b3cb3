package http

import (
	"net/http"
	"strings"
	"time"

	"finboard/internal/core"
	"finboard/internal/log"
	"finboard/internal/report"
)

type invoiceRow struct {
	core.Invoice
	// PastDue is computed at render time for highlighting; the stored
	// status is never rewritten.
	PastDue bool
}

type invoicesPage struct {
	page
	Rollup   report.InvoiceRollup
	Rows     []invoiceRow
	ByClient []shareRow
	Statuses []core.InvoiceStatus
	Form     map[string]string
	Errors   map[string]string
}

func (s *Server) handleInvoices(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.renderInvoices(w, r, http.StatusOK, nil, nil)
	case http.MethodPost:
		s.createInvoice(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) renderInvoices(w http.ResponseWriter, r *http.Request, status int, form, fieldErrors map[string]string) {
	user := currentUser(r)
	invoices, warn := s.records.LoadInvoices(r.Context(), user)

	today := time.Now()
	rows := make([]invoiceRow, 0, len(invoices))
	for _, inv := range invoices {
		pastDue := (inv.Status == core.StatusSent || inv.Status == core.StatusDue) &&
			inv.DueDate.Before(today)
		rows = append(rows, invoiceRow{Invoice: inv, PastDue: pastDue})
	}

	rollup := report.Invoices(invoices)
	data := invoicesPage{
		page: page{
			Title: "Client Invoices", Active: "invoices", User: user,
			Warning: warningOf(warn),
			Saved:   savedMessage(r, "Invoice recorded."),
		},
		Rollup:   rollup,
		Rows:     rows,
		ByClient: shareRows(rollup.PaidByClient),
		Statuses: []core.InvoiceStatus{core.StatusSent, core.StatusDue, core.StatusPaid, core.StatusOverdue},
		Form:     form,
		Errors:   fieldErrors,
	}
	if status == http.StatusOK {
		s.render(w, r, "invoices.html", data)
		return
	}
	s.renderStatus(w, r, status, "invoices.html", data)
}

func (s *Server) createInvoice(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	form := map[string]string{
		"client":       strings.TrimSpace(r.PostFormValue("client")),
		"project":      strings.TrimSpace(r.PostFormValue("project")),
		"amount":       strings.TrimSpace(r.PostFormValue("amount")),
		"invoice_sent": strings.TrimSpace(r.PostFormValue("invoice_sent")),
		"due_date":     strings.TrimSpace(r.PostFormValue("due_date")),
		"status":       strings.TrimSpace(r.PostFormValue("status")),
	}

	fieldErrors := make(map[string]string)
	inv := core.Invoice{
		Client:  form["client"],
		Project: form["project"],
		Status:  core.InvoiceStatus(form["status"]),
	}
	if inv.Client == "" {
		fieldErrors["client"] = "Client name is required."
	}
	if inv.Project == "" {
		fieldErrors["project"] = "Project name is required."
	}
	if cents, err := core.ParseDecimalToCents(form["amount"]); err != nil || cents <= 0 {
		fieldErrors["amount"] = "Amount must be a positive number."
	} else {
		inv.Amount = core.Money{Cents: cents}
	}
	if sent, err := core.ParseDate(form["invoice_sent"]); err != nil {
		fieldErrors["invoice_sent"] = "Sent date must be YYYY-MM-DD."
	} else {
		inv.InvoiceSent = sent
	}
	if due, err := core.ParseDate(form["due_date"]); err != nil {
		fieldErrors["due_date"] = "Due date must be YYYY-MM-DD."
	} else {
		inv.DueDate = due
	}
	if err := inv.Status.Validate(); err != nil {
		fieldErrors["status"] = "Pick a status."
	}
	if fieldErrors["invoice_sent"] == "" && fieldErrors["due_date"] == "" &&
		!inv.DueDate.After(inv.InvoiceSent.Time) {
		fieldErrors["due_date"] = "Due date must be after the sent date."
	}

	if len(fieldErrors) > 0 {
		s.renderInvoices(w, r, http.StatusUnprocessableEntity, form, fieldErrors)
		return
	}

	if err := s.records.AppendInvoice(r.Context(), currentUser(r), inv); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Invoice append failed",
			log.FieldError, err.Error(), log.FieldUser, currentUser(r), log.FieldOperation, log.OpAppend)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	s.metrics.rowsAppended.Add(1)
	http.Redirect(w, r, "/invoices?saved=1", http.StatusSeeOther)
}

// savedMessage maps the post-redirect ?saved=1 flag to a banner text.
func savedMessage(r *http.Request, msg string) string {
	if r.URL.Query().Get("saved") == "1" {
		return msg
	}
	return ""
}
