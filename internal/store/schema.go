package store

import (
	"errors"
	"fmt"
	"strings"

	"finboard/internal/core"
)

// Kind identifies one of the three per-user tables.
type Kind string

const (
	KindTransactions Kind = "transactions"
	KindInvoices     Kind = "invoices"
	KindRecurring    Kind = "recurring"
)

// ParseKind maps a user-supplied kind name to a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindTransactions:
		return KindTransactions, nil
	case KindInvoices:
		return KindInvoices, nil
	case KindRecurring:
		return KindRecurring, nil
	}
	return "", fmt.Errorf("unknown table kind %q (want transactions, invoices or recurring)", s)
}

// Filename returns the CSV file name for the kind inside a user namespace.
// The invoice table keeps its historical "clients.csv" name.
func (k Kind) Filename() string {
	switch k {
	case KindInvoices:
		return "clients.csv"
	case KindRecurring:
		return "recurring.csv"
	default:
		return "transactions.csv"
	}
}

// Load warnings. Load never fails hard: it reports one of these and hands
// back an empty table so callers can render the "no data" state.
var (
	ErrMissing   = errors.New("data file does not exist")
	ErrEmpty     = errors.New("data file is empty")
	ErrMalformed = errors.New("data file is malformed")
)

// MissingColumnsError rejects a bulk import whose header lacks required
// columns. It names every missing column, not just the first.
type MissingColumnsError struct {
	Kind    Kind
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("%s import rejected: missing required columns: %s",
		e.Kind, strings.Join(e.Columns, ", "))
}

// codec binds a table kind to its fixed column set and row conversions.
// Required columns must match the CSV header by exact name; extra columns
// in imported files are ignored.
type codec[T any] struct {
	kind     Kind
	required []string
	optional []string
	parse    func(get func(col string) string) (T, error)
	format   func(T) []string
}

var transactionCodec = codec[core.Transaction]{
	kind:     KindTransactions,
	required: []string{"Date", "Type", "Category", "Amount", "Description"},
	parse: func(get func(string) string) (core.Transaction, error) {
		date, err := core.ParseDate(get("Date"))
		if err != nil {
			return core.Transaction{}, fmt.Errorf("column Date: %w", err)
		}
		txType := core.TransactionType(strings.TrimSpace(get("Type")))
		if err := txType.Validate(); err != nil {
			return core.Transaction{}, fmt.Errorf("column Type: %w", err)
		}
		cents, err := core.ParseDecimalToCents(get("Amount"))
		if err != nil {
			return core.Transaction{}, fmt.Errorf("column Amount: %w", err)
		}
		return core.Transaction{
			Date:        date,
			Type:        txType,
			Category:    strings.TrimSpace(get("Category")),
			Amount:      core.Money{Cents: cents},
			Description: strings.TrimSpace(get("Description")),
		}, nil
	},
	format: func(t core.Transaction) []string {
		return []string{t.Date.String(), string(t.Type), t.Category, t.Amount.String(), t.Description}
	},
}

var invoiceCodec = codec[core.Invoice]{
	kind:     KindInvoices,
	required: []string{"Client", "Project", "Amount", "Invoice_Sent", "Due_Date", "Status"},
	parse: func(get func(string) string) (core.Invoice, error) {
		sent, err := core.ParseDate(get("Invoice_Sent"))
		if err != nil {
			return core.Invoice{}, fmt.Errorf("column Invoice_Sent: %w", err)
		}
		due, err := core.ParseDate(get("Due_Date"))
		if err != nil {
			return core.Invoice{}, fmt.Errorf("column Due_Date: %w", err)
		}
		cents, err := core.ParseDecimalToCents(get("Amount"))
		if err != nil {
			return core.Invoice{}, fmt.Errorf("column Amount: %w", err)
		}
		status := core.InvoiceStatus(strings.TrimSpace(get("Status")))
		if err := status.Validate(); err != nil {
			return core.Invoice{}, fmt.Errorf("column Status: %w", err)
		}
		return core.Invoice{
			Client:      strings.TrimSpace(get("Client")),
			Project:     strings.TrimSpace(get("Project")),
			Amount:      core.Money{Cents: cents},
			InvoiceSent: sent,
			DueDate:     due,
			Status:      status,
		}, nil
	},
	format: func(i core.Invoice) []string {
		return []string{i.Client, i.Project, i.Amount.String(), i.InvoiceSent.String(), i.DueDate.String(), string(i.Status)}
	},
}

var recurringCodec = codec[core.RecurringExpense]{
	kind:     KindRecurring,
	required: []string{"Vendor", "Frequency", "Amount", "Due_Month"},
	optional: []string{"Notes"},
	parse: func(get func(string) string) (core.RecurringExpense, error) {
		freq := core.Frequency(strings.TrimSpace(get("Frequency")))
		if err := freq.Validate(); err != nil {
			return core.RecurringExpense{}, fmt.Errorf("column Frequency: %w", err)
		}
		cents, err := core.ParseDecimalToCents(get("Amount"))
		if err != nil {
			return core.RecurringExpense{}, fmt.Errorf("column Amount: %w", err)
		}
		return core.RecurringExpense{
			Vendor:    strings.TrimSpace(get("Vendor")),
			Frequency: freq,
			Amount:    core.Money{Cents: cents},
			DueMonth:  strings.TrimSpace(get("Due_Month")),
			Notes:     strings.TrimSpace(get("Notes")),
		}, nil
	},
	format: func(r core.RecurringExpense) []string {
		return []string{r.Vendor, string(r.Frequency), r.Amount.String(), r.DueMonth, r.Notes}
	},
}

// header returns the full column list written to disk (required + optional).
func (c codec[T]) header() []string {
	return append(append([]string(nil), c.required...), c.optional...)
}
