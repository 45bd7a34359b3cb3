package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionType = "Income"
	Expense TransactionType = "Expense"
)

const (
	StatusSent    InvoiceStatus = "Sent"
	StatusDue     InvoiceStatus = "Due"
	StatusPaid    InvoiceStatus = "Paid"
	StatusOverdue InvoiceStatus = "Overdue"
)

const (
	Monthly Frequency = "Monthly"
	Annual  Frequency = "Annual"
)

type (
	TransactionType string

	InvoiceStatus string

	Frequency string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Transaction is a single one-off income or expense row.
	Transaction struct {
		Date        Date
		Type        TransactionType
		Category    string
		Amount      Money
		Description string
	}

	// Invoice tracks money owed by a client for a project. Status is
	// user-set; there is no automatic Sent->Overdue transition.
	Invoice struct {
		Client      string
		Project     string
		Amount      Money
		InvoiceSent Date
		DueDate     Date
		Status      InvoiceStatus
	}

	// RecurringExpense is a cost repeating on a fixed monthly or annual
	// cadence, tracked separately from one-off transactions.
	RecurringExpense struct {
		Vendor    string
		Frequency Frequency
		Amount    Money
		DueMonth  string
		Notes     string
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidDate      = errors.New("invalid date")
	ErrEmptyCategory    = errors.New("empty category")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyClient      = errors.New("empty client name")
	ErrEmptyProject     = errors.New("empty project name")
	ErrEmptyVendor      = errors.New("empty vendor name")
	ErrInvalidType      = errors.New("type must be Income or Expense")
	ErrInvalidStatus    = errors.New("status must be Sent, Due, Paid or Overdue")
	ErrInvalidFrequency = errors.New("frequency must be Monthly or Annual")
	ErrInvalidDueMonth  = errors.New("invalid due month")
	ErrDueBeforeSent    = errors.New("due date must be after invoice sent date")
)

// DateLayout is the wire format for dates in the CSV files.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD date string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// String renders the date in the CSV wire format.
func (d Date) String() string {
	return d.Format(DateLayout)
}

// Year returns the calendar year.
func (d Date) Year() int {
	return d.Time.Year()
}

// Month returns the calendar month (1-12).
func (d Date) Month() int {
	return int(d.Time.Month())
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (t TransactionType) Validate() error {
	switch t {
	case Income, Expense:
		return nil
	}
	return ErrInvalidType
}

func (s InvoiceStatus) Validate() error {
	switch s {
	case StatusSent, StatusDue, StatusPaid, StatusOverdue:
		return nil
	}
	return ErrInvalidStatus
}

func (f Frequency) Validate() error {
	switch f {
	case Monthly, Annual:
		return nil
	}
	return ErrInvalidFrequency
}

// DueMonths lists the accepted values for RecurringExpense.DueMonth.
var DueMonths = []string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

func validDueMonth(m string) bool {
	for _, name := range DueMonths {
		if m == name {
			return true
		}
	}
	return false
}

// Validate enforces the form-input rules: non-empty category and
// description, a positive amount and a valid type.
func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if err := t.Type.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if strings.TrimSpace(t.Description) == "" {
		return ErrEmptyDescription
	}
	if t.Amount.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (i Invoice) Validate() error {
	if strings.TrimSpace(i.Client) == "" {
		return ErrEmptyClient
	}
	if strings.TrimSpace(i.Project) == "" {
		return ErrEmptyProject
	}
	if i.Amount.Cents <= 0 {
		return ErrInvalidAmount
	}
	if err := i.InvoiceSent.Validate(); err != nil {
		return err
	}
	if err := i.DueDate.Validate(); err != nil {
		return err
	}
	if !i.DueDate.After(i.InvoiceSent.Time) {
		return ErrDueBeforeSent
	}
	return i.Status.Validate()
}

func (r RecurringExpense) Validate() error {
	if strings.TrimSpace(r.Vendor) == "" {
		return ErrEmptyVendor
	}
	if err := r.Frequency.Validate(); err != nil {
		return err
	}
	if r.Amount.Cents <= 0 {
		return ErrInvalidAmount
	}
	if !validDueMonth(r.DueMonth) {
		return ErrInvalidDueMonth
	}
	// Notes may be empty.
	return nil
}
