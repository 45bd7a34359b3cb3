package core

import (
	"errors"
	"testing"
)

func TestTransactionValidate(t *testing.T) {
	valid := Transaction{
		Date:        NewDate(2024, 1, 15),
		Type:        Income,
		Category:    "Client Work",
		Amount:      Money{Cents: 500000},
		Description: "Project Alpha",
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid transaction rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Transaction)
		want   error
	}{
		{"zero date", func(tx *Transaction) { tx.Date = Date{} }, ErrInvalidDate},
		{"bad type", func(tx *Transaction) { tx.Type = "Transfer" }, ErrInvalidType},
		{"empty category", func(tx *Transaction) { tx.Category = "  " }, ErrEmptyCategory},
		{"empty description", func(tx *Transaction) { tx.Description = "" }, ErrEmptyDescription},
		{"zero amount", func(tx *Transaction) { tx.Amount = Money{} }, ErrInvalidAmount},
	}
	for _, tc := range cases {
		tx := valid
		tc.mutate(&tx)
		if err := tx.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("%s: got %v, want %v", tc.name, err, tc.want)
		}
	}
}

func TestInvoiceValidate(t *testing.T) {
	valid := Invoice{
		Client:      "ABC Corp",
		Project:     "Website Redesign",
		Amount:      Money{Cents: 800000},
		InvoiceSent: NewDate(2024, 1, 10),
		DueDate:     NewDate(2024, 2, 10),
		Status:      StatusPaid,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid invoice rejected: %v", err)
	}

	// Due date equal to sent date must be rejected: the rule is strictly after.
	same := valid
	same.DueDate = same.InvoiceSent
	if err := same.Validate(); !errors.Is(err, ErrDueBeforeSent) {
		t.Fatalf("due==sent: got %v, want %v", err, ErrDueBeforeSent)
	}
	before := valid
	before.DueDate = NewDate(2024, 1, 5)
	if err := before.Validate(); !errors.Is(err, ErrDueBeforeSent) {
		t.Fatalf("due<sent: got %v, want %v", err, ErrDueBeforeSent)
	}
	badStatus := valid
	badStatus.Status = "Pending"
	if err := badStatus.Validate(); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("bad status: got %v, want %v", err, ErrInvalidStatus)
	}
}

func TestRecurringExpenseValidate(t *testing.T) {
	valid := RecurringExpense{
		Vendor:    "Adobe",
		Frequency: Monthly,
		Amount:    Money{Cents: 9900},
		DueMonth:  "January",
		Notes:     "Creative Suite",
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid recurring expense rejected: %v", err)
	}

	noNotes := valid
	noNotes.Notes = ""
	if err := noNotes.Validate(); err != nil {
		t.Fatalf("empty notes should be allowed: %v", err)
	}

	badFreq := valid
	badFreq.Frequency = "Weekly"
	if err := badFreq.Validate(); !errors.Is(err, ErrInvalidFrequency) {
		t.Fatalf("bad frequency: got %v, want %v", err, ErrInvalidFrequency)
	}
	badMonth := valid
	badMonth.DueMonth = "Januray"
	if err := badMonth.Validate(); !errors.Is(err, ErrInvalidDueMonth) {
		t.Fatalf("bad due month: got %v, want %v", err, ErrInvalidDueMonth)
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-01-15")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if d.Year() != 2024 || d.Month() != 1 || d.Day() != 15 {
		t.Fatalf("unexpected date parts: %v", d)
	}
	if d.String() != "2024-01-15" {
		t.Fatalf("round trip: %q", d.String())
	}
	if _, err := ParseDate("15/01/2024"); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}
