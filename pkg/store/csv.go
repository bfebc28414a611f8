package store

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"simplib/pkg/models"
)

const (
	BooksFile     = "books.csv"
	BorrowersFile = "borrowers.csv"
	LoansFile     = "loans.csv"
)

var (
	bookColumns     = []string{"id", "name", "author", "category", "active"}
	borrowerColumns = []string{"id", "name", "surname", "phone", "active"}
	loanColumns     = []string{"id", "loaner_id", "book_id", "loan_date", "return_date"}
)

// CSVStore keeps each table in its own file under dir. Writes go to a temp
// file in the same directory and are renamed over the target.
type CSVStore struct {
	dir string
	mu  sync.RWMutex
}

func NewCSVStore(dir string) (*CSVStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &CSVStore{dir: dir}, nil
}

// Files lists the table files in a fixed order.
func (s *CSVStore) Files() []string {
	return []string{
		filepath.Join(s.dir, BooksFile),
		filepath.Join(s.dir, BorrowersFile),
		filepath.Join(s.dir, LoansFile),
	}
}

func (s *CSVStore) Load(ctx context.Context) (models.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ds models.Dataset

	rows, err := s.readTable(BooksFile)
	if err != nil {
		return ds, err
	}
	if ds.Books, err = decodeBooks(rows); err != nil {
		return ds, fmt.Errorf("%s: %w", BooksFile, err)
	}

	if rows, err = s.readTable(BorrowersFile); err != nil {
		return ds, err
	}
	if ds.Borrowers, err = decodeBorrowers(rows); err != nil {
		return ds, fmt.Errorf("%s: %w", BorrowersFile, err)
	}

	if rows, err = s.readTable(LoansFile); err != nil {
		return ds, err
	}
	if ds.Loans, err = decodeLoans(rows); err != nil {
		return ds, fmt.Errorf("%s: %w", LoansFile, err)
	}

	return ds, nil
}

func (s *CSVStore) SaveBooks(ctx context.Context, books []models.Book) error {
	records := make([][]string, 0, len(books))
	for _, b := range books {
		records = append(records, []string{
			strconv.Itoa(b.ID), b.Name, b.Author, b.Category, formatBool(b.Active),
		})
	}
	return s.writeTable(BooksFile, bookColumns, records)
}

func (s *CSVStore) SaveBorrowers(ctx context.Context, borrowers []models.Borrower) error {
	records := make([][]string, 0, len(borrowers))
	for _, b := range borrowers {
		records = append(records, []string{
			strconv.Itoa(b.ID), b.Name, b.Surname, b.Phone, formatBool(b.Active),
		})
	}
	return s.writeTable(BorrowersFile, borrowerColumns, records)
}

func (s *CSVStore) SaveLoans(ctx context.Context, loans []models.Loan) error {
	records := make([][]string, 0, len(loans))
	for _, l := range loans {
		returned := ""
		if l.ReturnDate != nil {
			returned = models.FormatDate(*l.ReturnDate)
		}
		records = append(records, []string{
			l.ID, strconv.Itoa(l.LoanerID), strconv.Itoa(l.BookID), models.FormatDate(l.LoanDate), returned,
		})
	}
	return s.writeTable(LoansFile, loanColumns, records)
}

// table is a CSV body addressed by header name, so column order and
// optional columns in older files do not matter.
type table struct {
	index map[string]int
	rows  [][]string
}

func (t table) get(row []string, col string) (string, bool) {
	i, ok := t.index[col]
	if !ok || i >= len(row) {
		return "", false
	}
	return strings.TrimSpace(row[i]), true
}

func (s *CSVStore) readTable(name string) (table, error) {
	f, err := os.Open(filepath.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return table{}, nil
	}
	if err != nil {
		return table{}, fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return table{}, nil
	}
	if err != nil {
		return table{}, fmt.Errorf("read %s header: %w", name, err)
	}
	t := table{index: make(map[string]int, len(header))}
	for i, h := range header {
		t.index[strings.TrimPrefix(strings.TrimSpace(h), "\ufeff")] = i
	}
	if t.rows, err = r.ReadAll(); err != nil {
		return table{}, fmt.Errorf("read %s: %w", name, err)
	}
	return t, nil
}

func (s *CSVStore) writeTable(name string, header []string, records [][]string) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(records); err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return writeFileAtomic(filepath.Join(s.dir, name), buf.Bytes())
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

func decodeBooks(t table) ([]models.Book, error) {
	books := make([]models.Book, 0, len(t.rows))
	for i, row := range t.rows {
		raw, _ := t.get(row, "id")
		id, err := parseID(raw)
		if err != nil {
			return nil, fmt.Errorf("line %d: id: %w", i+2, err)
		}
		b := models.Book{ID: id, Active: true}
		b.Name, _ = t.get(row, "name")
		b.Author, _ = t.get(row, "author")
		b.Category, _ = t.get(row, "category")
		if raw, ok := t.get(row, "active"); ok && raw != "" {
			if b.Active, err = strconv.ParseBool(raw); err != nil {
				return nil, fmt.Errorf("line %d: active: %w", i+2, err)
			}
		}
		books = append(books, b)
	}
	return books, nil
}

func decodeBorrowers(t table) ([]models.Borrower, error) {
	borrowers := make([]models.Borrower, 0, len(t.rows))
	for i, row := range t.rows {
		raw, _ := t.get(row, "id")
		id, err := parseID(raw)
		if err != nil {
			return nil, fmt.Errorf("line %d: id: %w", i+2, err)
		}
		b := models.Borrower{ID: id, Active: true}
		b.Name, _ = t.get(row, "name")
		b.Surname, _ = t.get(row, "surname")
		b.Phone, _ = t.get(row, "phone")
		if raw, ok := t.get(row, "active"); ok && raw != "" {
			if b.Active, err = strconv.ParseBool(raw); err != nil {
				return nil, fmt.Errorf("line %d: active: %w", i+2, err)
			}
		}
		borrowers = append(borrowers, b)
	}
	return borrowers, nil
}

func decodeLoans(t table) ([]models.Loan, error) {
	loans := make([]models.Loan, 0, len(t.rows))
	for i, row := range t.rows {
		var (
			l   models.Loan
			err error
		)
		l.ID, _ = t.get(row, "id")
		raw, _ := t.get(row, "loaner_id")
		if l.LoanerID, err = parseID(raw); err != nil {
			return nil, fmt.Errorf("line %d: loaner_id: %w", i+2, err)
		}
		raw, _ = t.get(row, "book_id")
		if l.BookID, err = parseID(raw); err != nil {
			return nil, fmt.Errorf("line %d: book_id: %w", i+2, err)
		}
		raw, _ = t.get(row, "loan_date")
		if l.LoanDate, err = models.ParseDate(raw); err != nil {
			return nil, fmt.Errorf("line %d: loan_date: %w", i+2, err)
		}
		if raw, ok := t.get(row, "return_date"); ok && raw != "" {
			var returned time.Time
			if returned, err = models.ParseDate(raw); err != nil {
				return nil, fmt.Errorf("line %d: return_date: %w", i+2, err)
			}
			l.ReturnDate = &returned
		}
		loans = append(loans, l)
	}
	return loans, nil
}

// parseID accepts "7" and the "7.0" spreadsheets tend to produce.
func parseID(s string) (int, error) {
	if id, err := strconv.Atoi(s); err == nil {
		return id, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int(f)) {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return int(f), nil
}

func formatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
