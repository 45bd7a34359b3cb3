// Package store is the record store: it owns the per-user CSV files for
// transactions, client invoices and recurring expenses.
//
// Writes are full-file rewrites with no partial-write protection; a crash
// mid-write may corrupt the file. Concurrent processes are not serialized
// (last writer wins). Within one process a mutex serializes writers.
package store

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"finboard/internal/cache"
	"finboard/internal/core"
	"finboard/internal/log"
)

// Store reads and writes the three tables under root/<username>/.
type Store struct {
	root   string
	logger *log.Logger

	mu sync.Mutex

	txCache  *cache.FileCache[[]core.Transaction]
	invCache *cache.FileCache[[]core.Invoice]
	recCache *cache.FileCache[[]core.RecurringExpense]
}

// New creates a Store rooted at the given data directory.
func New(root string, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Store{
		root:     root,
		logger:   logger.WithComponent(log.ComponentStore),
		txCache:  cache.New[[]core.Transaction](),
		invCache: cache.New[[]core.Invoice](),
		recCache: cache.New[[]core.RecurringExpense](),
	}
}

// Provision creates the namespace directory for a user with the three
// table files, writing a header row into any file that does not exist yet.
func (s *Store) Provision(username string) error {
	dir := filepath.Join(s.root, username)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create namespace %s: %w", username, err)
	}
	for _, k := range []Kind{KindTransactions, KindInvoices, KindRecurring} {
		path := filepath.Join(dir, k.Filename())
		if _, err := os.Stat(path); err == nil {
			continue
		}
		var header []string
		switch k {
		case KindTransactions:
			header = transactionCodec.header()
		case KindInvoices:
			header = invoiceCodec.header()
		case KindRecurring:
			header = recurringCodec.header()
		}
		if err := writeRecords(path, header, nil); err != nil {
			return fmt.Errorf("provision %s for %s: %w", k, username, err)
		}
	}
	return nil
}

func (s *Store) path(username string, k Kind) string {
	return filepath.Join(s.root, username, k.Filename())
}

// CacheStats reports cumulative hit and miss counts across the three
// table caches.
func (s *Store) CacheStats() (hits, misses int64) {
	for _, stat := range []func() (int64, int64){s.txCache.Stats, s.invCache.Stats, s.recCache.Stats} {
		h, m := stat()
		hits += h
		misses += m
	}
	return hits, misses
}

// LoadTransactions returns the user's transaction table. On a missing,
// empty or malformed file it returns an empty table together with a
// warning error wrapping ErrMissing, ErrEmpty or ErrMalformed; callers
// surface the warning and render the empty state.
func (s *Store) LoadTransactions(ctx context.Context, username string) ([]core.Transaction, error) {
	return load(ctx, s, transactionCodec, s.txCache, username)
}

// LoadInvoices returns the user's client invoice table; same warning
// contract as LoadTransactions.
func (s *Store) LoadInvoices(ctx context.Context, username string) ([]core.Invoice, error) {
	return load(ctx, s, invoiceCodec, s.invCache, username)
}

// LoadRecurring returns the user's recurring expense table; same warning
// contract as LoadTransactions.
func (s *Store) LoadRecurring(ctx context.Context, username string) ([]core.RecurringExpense, error) {
	return load(ctx, s, recurringCodec, s.recCache, username)
}

// AppendTransaction appends one validated row and rewrites the file.
func (s *Store) AppendTransaction(ctx context.Context, username string, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	return appendRow(ctx, s, transactionCodec, s.txCache, username, t)
}

// AppendInvoice appends one validated row and rewrites the file.
func (s *Store) AppendInvoice(ctx context.Context, username string, i core.Invoice) error {
	if err := i.Validate(); err != nil {
		return err
	}
	return appendRow(ctx, s, invoiceCodec, s.invCache, username, i)
}

// AppendRecurring appends one validated row and rewrites the file.
func (s *Store) AppendRecurring(ctx context.Context, username string, r core.RecurringExpense) error {
	if err := r.Validate(); err != nil {
		return err
	}
	return appendRow(ctx, s, recurringCodec, s.recCache, username, r)
}

// ImportTransactions merges an uploaded CSV into the transaction table.
// The upload must contain every required column (extra columns are
// ignored); otherwise the whole import is rejected and the table is left
// unchanged. Returns the number of merged rows.
func (s *Store) ImportTransactions(ctx context.Context, username string, r io.Reader) (int, error) {
	return importCSV(ctx, s, transactionCodec, s.txCache, username, r)
}

// ImportInvoices merges an uploaded CSV into the invoice table; same
// contract as ImportTransactions.
func (s *Store) ImportInvoices(ctx context.Context, username string, r io.Reader) (int, error) {
	return importCSV(ctx, s, invoiceCodec, s.invCache, username, r)
}

// ImportRecurring merges an uploaded CSV into the recurring table; the
// Notes column is optional, matching the historical import contract.
func (s *Store) ImportRecurring(ctx context.Context, username string, r io.Reader) (int, error) {
	return importCSV(ctx, s, recurringCodec, s.recCache, username, r)
}

// load implements the lenient read path shared by the three tables.
func load[T any](ctx context.Context, s *Store, c codec[T], fc *cache.FileCache[[]T], username string) ([]T, error) {
	path := s.path(username, c.kind)

	fi, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", c.kind, ErrMissing)
		}
		return nil, fmt.Errorf("%s: stat %s: %w", c.kind, path, ErrMalformed)
	}
	if rows, ok := fc.Get(path, fi.ModTime()); ok {
		return rows, nil
	}

	header, records, err := readRecords(path)
	if err != nil {
		s.logger.WarnContext(ctx, "Load degraded to empty table",
			log.FieldKind, string(c.kind), log.FieldUser, username, log.FieldError, err.Error())
		return nil, fmt.Errorf("%s: %w", c.kind, err)
	}

	idx, missing := columnIndex(header, c.required, c.optional)
	if len(missing) > 0 {
		s.logger.WarnContext(ctx, "Load degraded to empty table",
			log.FieldKind, string(c.kind), log.FieldUser, username,
			log.FieldError, fmt.Sprintf("header missing columns %v", missing))
		return nil, fmt.Errorf("%s: header missing columns %v: %w", c.kind, missing, ErrMalformed)
	}

	rows, err := decodeRows(c, idx, records)
	if err != nil {
		s.logger.WarnContext(ctx, "Load degraded to empty table",
			log.FieldKind, string(c.kind), log.FieldUser, username, log.FieldError, err.Error())
		return nil, fmt.Errorf("%s: %w", c.kind, err)
	}

	fc.Set(path, fi.ModTime(), rows)
	return rows, nil
}

func appendRow[T any](ctx context.Context, s *Store, c codec[T], fc *cache.FileCache[[]T], username string, row T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// A malformed existing file degrades to an empty table here, so the
	// rewrite drops its rows — same as the original full-file behavior.
	existing, warn := load(ctx, s, c, fc, username)
	if warn != nil {
		s.logger.WarnContext(ctx, "Appending over degraded table",
			log.FieldKind, string(c.kind), log.FieldUser, username, log.FieldError, warn.Error())
	}
	existing = append(existing, row)

	path := s.path(username, c.kind)
	if err := writeAll(path, c, existing); err != nil {
		return fmt.Errorf("append %s row: %w", c.kind, err)
	}
	fc.Invalidate(path)

	s.logger.InfoContext(ctx, "Row appended",
		log.FieldKind, string(c.kind), log.FieldUser, username, log.FieldRows, len(existing))
	return nil
}

func importCSV[T any](ctx context.Context, s *Store, c codec[T], fc *cache.FileCache[[]T], username string, r io.Reader) (int, error) {
	header, records, err := parseCSV(r)
	if err != nil {
		return 0, fmt.Errorf("parse %s upload: %w", c.kind, err)
	}

	idx, missing := columnIndex(header, c.required, c.optional)
	if len(missing) > 0 {
		return 0, &MissingColumnsError{Kind: c.kind, Columns: missing}
	}

	incoming, err := decodeRows(c, idx, records)
	if err != nil {
		// No partial import: one bad row rejects the batch.
		return 0, fmt.Errorf("parse %s upload: %w", c.kind, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, warn := load(ctx, s, c, fc, username)
	if warn != nil {
		s.logger.WarnContext(ctx, "Importing over degraded table",
			log.FieldKind, string(c.kind), log.FieldUser, username, log.FieldError, warn.Error())
	}
	merged := append(existing, incoming...)

	path := s.path(username, c.kind)
	if err := writeAll(path, c, merged); err != nil {
		return 0, fmt.Errorf("import %s rows: %w", c.kind, err)
	}
	fc.Invalidate(path)

	s.logger.InfoContext(ctx, "Import merged",
		log.FieldKind, string(c.kind), log.FieldUser, username, log.FieldRows, len(incoming))
	return len(incoming), nil
}

func decodeRows[T any](c codec[T], idx map[string]int, records [][]string) ([]T, error) {
	rows := make([]T, 0, len(records))
	for n, rec := range records {
		get := func(col string) string {
			i, ok := idx[col]
			if !ok || i >= len(rec) {
				return ""
			}
			return rec[i]
		}
		row, err := c.parse(get)
		if err != nil {
			// Line numbers are 1-based and include the header row.
			return nil, fmt.Errorf("line %d: %v: %w", n+2, err, ErrMalformed)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// columnIndex maps column names to positions, reporting required columns
// absent from the header. Extra columns are ignored.
func columnIndex(header, required, optional []string) (map[string]int, []string) {
	pos := make(map[string]int, len(header))
	for i, name := range header {
		if _, ok := pos[name]; !ok {
			pos[name] = i
		}
	}
	idx := make(map[string]int)
	var missing []string
	for _, col := range required {
		i, ok := pos[col]
		if !ok {
			missing = append(missing, col)
			continue
		}
		idx[col] = i
	}
	for _, col := range optional {
		if i, ok := pos[col]; ok {
			idx[col] = i
		}
	}
	return idx, missing
}

func readRecords(path string) (header []string, records [][]string, err error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, ErrMissing
		}
		return nil, nil, fmt.Errorf("open %s: %w", path, ErrMalformed)
	}
	defer f.Close()
	return parseCSV(f)
}

func parseCSV(r io.Reader) (header []string, records [][]string, err error) {
	all, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("%v: %w", err, ErrMalformed)
	}
	if len(all) == 0 {
		return nil, nil, ErrEmpty
	}
	return all[0], all[1:], nil
}

func writeAll[T any](path string, c codec[T], rows []T) error {
	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		records = append(records, c.format(row))
	}
	return writeRecords(path, c.header(), records)
}

func writeRecords(path string, header []string, records [][]string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("open for write: %w", err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		return fmt.Errorf("write header: %w", err)
	}
	if err := w.WriteAll(records); err != nil {
		f.Close()
		return fmt.Errorf("write rows: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("flush: %w", err)
	}
	return f.Close()
}
