package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"finboard/internal/core"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := New(t.TempDir(), nil)
	if err := s.Provision("alice"); err != nil {
		t.Fatalf("provision: %v", err)
	}
	return s
}

func sampleTransaction() core.Transaction {
	return core.Transaction{
		Date:        core.NewDate(2024, 1, 15),
		Type:        core.Income,
		Category:    "Client Work",
		Amount:      core.Money{Cents: 500000},
		Description: "Project Alpha",
	}
}

func TestProvisionCreatesHeaderFiles(t *testing.T) {
	root := t.TempDir()
	s := New(root, nil)
	if err := s.Provision("bob"); err != nil {
		t.Fatalf("provision: %v", err)
	}
	for kind, want := range map[Kind]string{
		KindTransactions: "Date,Type,Category,Amount,Description",
		KindInvoices:     "Client,Project,Amount,Invoice_Sent,Due_Date,Status",
		KindRecurring:    "Vendor,Frequency,Amount,Due_Month,Notes",
	} {
		b, err := os.ReadFile(filepath.Join(root, "bob", kind.Filename()))
		if err != nil {
			t.Fatalf("%s file missing: %v", kind, err)
		}
		if got := strings.TrimSpace(string(b)); got != want {
			t.Fatalf("%s header = %q, want %q", kind, got, want)
		}
	}

	// Provision over an existing namespace must not truncate data.
	ctx := context.Background()
	if err := s.AppendTransaction(ctx, "bob", sampleTransaction()); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := s.Provision("bob"); err != nil {
		t.Fatalf("re-provision: %v", err)
	}
	rows, err := s.LoadTransactions(ctx, "bob")
	if err != nil || len(rows) != 1 {
		t.Fatalf("rows after re-provision = %d (warn=%v), want 1", len(rows), err)
	}
}

func TestAppendThenReload(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	before, err := s.LoadTransactions(ctx, "alice")
	if err != nil {
		t.Fatalf("initial load warned: %v", err)
	}

	tx := sampleTransaction()
	if err := s.AppendTransaction(ctx, "alice", tx); err != nil {
		t.Fatalf("append: %v", err)
	}

	after, err := s.LoadTransactions(ctx, "alice")
	if err != nil {
		t.Fatalf("reload warned: %v", err)
	}
	if len(after) != len(before)+1 {
		t.Fatalf("row count = %d, want %d", len(after), len(before)+1)
	}
	got := after[len(after)-1]
	if got.Date.String() != "2024-01-15" || got.Type != core.Income ||
		got.Category != "Client Work" || got.Amount.Cents != 500000 ||
		got.Description != "Project Alpha" {
		t.Fatalf("reloaded row does not match input: %+v", got)
	}
}

func TestAppendRejectsInvalidRow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	bad := sampleTransaction()
	bad.Amount = core.Money{}
	if err := s.AppendTransaction(ctx, "alice", bad); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	rows, _ := s.LoadTransactions(ctx, "alice")
	if len(rows) != 0 {
		t.Fatalf("invalid row reached the file: %d rows", len(rows))
	}
}

func TestLoadMissingEmptyMalformed(t *testing.T) {
	root := t.TempDir()
	s := New(root, nil)
	ctx := context.Background()

	// Missing namespace entirely.
	rows, err := s.LoadTransactions(ctx, "ghost")
	if !errors.Is(err, ErrMissing) {
		t.Fatalf("missing file: got %v, want ErrMissing", err)
	}
	if len(rows) != 0 {
		t.Fatalf("missing file must yield empty table, got %d rows", len(rows))
	}

	// Zero-byte file.
	if err := os.MkdirAll(filepath.Join(root, "ghost"), 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(root, "ghost", KindTransactions.Filename())
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := s.LoadTransactions(ctx, "ghost"); !errors.Is(err, ErrEmpty) {
		t.Fatalf("empty file: got %v, want ErrEmpty", err)
	}

	// Unparseable row value.
	content := "Date,Type,Category,Amount,Description\n2024-01-15,Income,Work,not-a-number,x\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	rows, err = s.LoadTransactions(ctx, "ghost")
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("malformed row: got %v, want ErrMalformed", err)
	}
	if len(rows) != 0 {
		t.Fatalf("malformed file must yield empty table, got %d rows", len(rows))
	}

	// Header missing a required column.
	content = "Date,Type,Amount,Description\n2024-01-15,Income,10,x\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := s.LoadTransactions(ctx, "ghost"); !errors.Is(err, ErrMalformed) {
		t.Fatalf("short header: got %v, want ErrMalformed", err)
	}
}

func TestImportMissingColumnsLeavesTableUnchanged(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.AppendInvoice(ctx, "alice", core.Invoice{
		Client:      "ABC Corp",
		Project:     "Website Redesign",
		Amount:      core.Money{Cents: 800000},
		InvoiceSent: core.NewDate(2024, 1, 10),
		DueDate:     core.NewDate(2024, 2, 10),
		Status:      core.StatusPaid,
	}); err != nil {
		t.Fatalf("seed append: %v", err)
	}

	upload := "Client,Amount\nXYZ Inc,1200\n"
	_, err := s.ImportInvoices(ctx, "alice", strings.NewReader(upload))
	var mce *MissingColumnsError
	if !errors.As(err, &mce) {
		t.Fatalf("expected MissingColumnsError, got %v", err)
	}
	for _, col := range []string{"Project", "Invoice_Sent", "Due_Date", "Status"} {
		found := false
		for _, m := range mce.Columns {
			if m == col {
				found = true
			}
		}
		if !found {
			t.Fatalf("error does not name missing column %s: %v", col, mce.Columns)
		}
	}

	rows, warn := s.LoadInvoices(ctx, "alice")
	if warn != nil || len(rows) != 1 {
		t.Fatalf("table changed by rejected import: rows=%d warn=%v", len(rows), warn)
	}
}

func TestImportMergesAndIgnoresExtraColumns(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	upload := "Ignored,Date,Type,Category,Amount,Description\n" +
		"x,2024-01-15,Income,Client Work,5000,Project Alpha\n" +
		"y,2024-02-01,Expense,Meals,45,Business Lunch\n"
	n, err := s.ImportTransactions(ctx, "alice", strings.NewReader(upload))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if n != 2 {
		t.Fatalf("imported %d rows, want 2", n)
	}

	rows, warn := s.LoadTransactions(ctx, "alice")
	if warn != nil || len(rows) != 2 {
		t.Fatalf("rows=%d warn=%v, want 2 rows", len(rows), warn)
	}
	if rows[1].Category != "Meals" || rows[1].Amount.Cents != 4500 {
		t.Fatalf("unexpected merged row: %+v", rows[1])
	}
}

func TestImportRejectsBadRowWholly(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	upload := "Date,Type,Category,Amount,Description\n" +
		"2024-01-15,Income,Work,100,ok\n" +
		"2024-01-16,Income,Work,oops,bad\n"
	if _, err := s.ImportTransactions(ctx, "alice", strings.NewReader(upload)); err == nil {
		t.Fatal("expected error for unparseable row")
	}
	rows, _ := s.LoadTransactions(ctx, "alice")
	if len(rows) != 0 {
		t.Fatalf("partial import happened: %d rows", len(rows))
	}
}

func TestImportRecurringWithoutNotesColumn(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	upload := "Vendor,Frequency,Amount,Due_Month\nAWS,Monthly,50,January\n"
	n, err := s.ImportRecurring(ctx, "alice", strings.NewReader(upload))
	if err != nil || n != 1 {
		t.Fatalf("import: n=%d err=%v", n, err)
	}
	rows, warn := s.LoadRecurring(ctx, "alice")
	if warn != nil || len(rows) != 1 || rows[0].Notes != "" {
		t.Fatalf("rows=%v warn=%v", rows, warn)
	}
}

func TestCacheInvalidatedAfterWrite(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.LoadTransactions(ctx, "alice"); err != nil {
		t.Fatalf("load: %v", err)
	}
	// Second load should be served from cache.
	if _, err := s.LoadTransactions(ctx, "alice"); err != nil {
		t.Fatalf("load: %v", err)
	}
	hits, _ := s.CacheStats()
	if hits == 0 {
		t.Fatal("expected a cache hit on repeated load")
	}

	if err := s.AppendTransaction(ctx, "alice", sampleTransaction()); err != nil {
		t.Fatalf("append: %v", err)
	}
	rows, err := s.LoadTransactions(ctx, "alice")
	if err != nil || len(rows) != 1 {
		t.Fatalf("stale read after append: rows=%d err=%v", len(rows), err)
	}
}

func TestExternalEditDetectedByModTime(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.LoadTransactions(ctx, "alice"); err != nil {
		t.Fatalf("load: %v", err)
	}

	// Simulate an out-of-band edit with a distinct mtime.
	path := s.path("alice", KindTransactions)
	content := "Date,Type,Category,Amount,Description\n2024-03-01,Expense,Software,99,Editor license\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	future := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatal(err)
	}

	rows, err := s.LoadTransactions(ctx, "alice")
	if err != nil || len(rows) != 1 || rows[0].Category != "Software" {
		t.Fatalf("external edit not picked up: rows=%v err=%v", rows, err)
	}
}
