package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"finboard/internal/core"
	"finboard/internal/log"
	"finboard/internal/store"
)

// maxUploadBytes caps CSV uploads; the tables are small by nature.
const maxUploadBytes = 10 << 20

type entryPage struct {
	page
	Types       []core.TransactionType
	Kinds       []store.Kind
	ImportError string
	Imported    string
	Form        map[string]string
	Errors      map[string]string
}

func (s *Server) handleEntry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	s.renderEntry(w, r, http.StatusOK, "", nil, nil)
}

func (s *Server) renderEntry(w http.ResponseWriter, r *http.Request, status int, importError string, form, fieldErrors map[string]string) {
	var imported string
	if n := r.URL.Query().Get("imported"); n != "" {
		imported = fmt.Sprintf("Imported %s rows into %s.", n, r.URL.Query().Get("kind"))
	}
	data := entryPage{
		page: page{
			Title: "Data Entry", Active: "entry", User: currentUser(r),
			Saved: savedMessage(r, "Transaction recorded."),
		},
		Types:       []core.TransactionType{core.Income, core.Expense},
		Kinds:       []store.Kind{store.KindTransactions, store.KindInvoices, store.KindRecurring},
		ImportError: importError,
		Imported:    imported,
		Form:        form,
		Errors:      fieldErrors,
	}
	if status == http.StatusOK {
		s.render(w, r, "entry.html", data)
		return
	}
	s.renderStatus(w, r, status, "entry.html", data)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	form := map[string]string{
		"date":        strings.TrimSpace(r.PostFormValue("date")),
		"type":        strings.TrimSpace(r.PostFormValue("type")),
		"category":    strings.TrimSpace(r.PostFormValue("category")),
		"amount":      strings.TrimSpace(r.PostFormValue("amount")),
		"description": strings.TrimSpace(r.PostFormValue("description")),
	}

	fieldErrors := make(map[string]string)
	tx := core.Transaction{
		Type:        core.TransactionType(form["type"]),
		Category:    form["category"],
		Description: form["description"],
	}
	if date, err := core.ParseDate(form["date"]); err != nil {
		fieldErrors["date"] = "Date must be YYYY-MM-DD."
	} else {
		tx.Date = date
	}
	if err := tx.Type.Validate(); err != nil {
		fieldErrors["type"] = "Pick Income or Expense."
	}
	if tx.Category == "" {
		fieldErrors["category"] = "Category is required."
	}
	if tx.Description == "" {
		fieldErrors["description"] = "Description is required."
	}
	if cents, err := core.ParseDecimalToCents(form["amount"]); err != nil || cents <= 0 {
		fieldErrors["amount"] = "Amount must be a positive number."
	} else {
		tx.Amount = core.Money{Cents: cents}
	}

	if len(fieldErrors) > 0 {
		s.renderEntry(w, r, http.StatusUnprocessableEntity, "", form, fieldErrors)
		return
	}

	if err := s.records.AppendTransaction(r.Context(), currentUser(r), tx); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Transaction append failed",
			log.FieldError, err.Error(), log.FieldUser, currentUser(r), log.FieldOperation, log.OpAppend)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	s.metrics.rowsAppended.Add(1)
	http.Redirect(w, r, "/entry?saved=1", http.StatusSeeOther)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.renderEntry(w, r, http.StatusUnprocessableEntity, "Upload too large or not a valid form.", nil, nil)
		return
	}

	kind, err := store.ParseKind(r.PostFormValue("kind"))
	if err != nil {
		s.renderEntry(w, r, http.StatusUnprocessableEntity, err.Error(), nil, nil)
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		s.renderEntry(w, r, http.StatusUnprocessableEntity, "Choose a CSV file to import.", nil, nil)
		return
	}
	defer file.Close()

	user := currentUser(r)
	var n int
	switch kind {
	case store.KindTransactions:
		n, err = s.records.ImportTransactions(r.Context(), user, file)
	case store.KindInvoices:
		n, err = s.records.ImportInvoices(r.Context(), user, file)
	case store.KindRecurring:
		n, err = s.records.ImportRecurring(r.Context(), user, file)
	}
	if err != nil {
		var missing *store.MissingColumnsError
		if errors.As(err, &missing) || errors.Is(err, store.ErrMalformed) || errors.Is(err, store.ErrEmpty) {
			// Rejected import, table untouched.
			s.renderEntry(w, r, http.StatusUnprocessableEntity, err.Error(), nil, nil)
			return
		}
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Import failed",
			log.FieldError, err.Error(), log.FieldUser, user,
			log.FieldKind, string(kind), log.FieldOperation, log.OpImport)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	s.metrics.imports.Add(1)
	http.Redirect(w, r, fmt.Sprintf("/entry?imported=%d&kind=%s", n, kind), http.StatusSeeOther)
}
