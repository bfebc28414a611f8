// Package stats turns the loan log into reporting figures: a denormalized
// history, leaderboards, summary numbers and time/category rollups.
package stats

import (
	"strings"
	"time"

	"simplib/pkg/metrics"
	"simplib/pkg/models"
)

// UnknownBorrower stands in for a borrower id that no longer resolves.
const UnknownBorrower = "Unknown borrower"

// HistoryRow is one loan joined with its book and borrower. BookName and
// Author are empty when the book id does not resolve. DurationDays is nil
// for open loans until FillOpenDurations runs.
type HistoryRow struct {
	LoanID          string     `json:"loan_id"`
	LoanerID        int        `json:"loaner_id"`
	BookID          int        `json:"book_id"`
	BorrowerName    string     `json:"borrower_name"`
	BorrowerSurname string     `json:"borrower_surname"`
	BookName        string     `json:"book_name"`
	Author          string     `json:"author"`
	LoanDate        time.Time  `json:"loan_date"`
	ReturnDate      *time.Time `json:"return_date"`
	DurationDays    *int       `json:"duration_days"`
	bookFound       bool
}

func (r HistoryRow) BorrowerFullName() string {
	return strings.TrimSpace(r.BorrowerName + " " + r.BorrowerSurname)
}

// History left-joins every loan with the catalog and the roster, keeping
// the loan log order.
func History(ds models.Dataset) []HistoryRow {
	books := make(map[int]models.Book, len(ds.Books))
	for _, b := range ds.Books {
		books[b.ID] = b
	}
	borrowers := make(map[int]models.Borrower, len(ds.Borrowers))
	for _, b := range ds.Borrowers {
		borrowers[b.ID] = b
	}

	rows := make([]HistoryRow, 0, len(ds.Loans))
	for _, l := range ds.Loans {
		r := HistoryRow{
			LoanID:     l.ID,
			LoanerID:   l.LoanerID,
			BookID:     l.BookID,
			LoanDate:   l.LoanDate,
			ReturnDate: l.ReturnDate,
		}
		if b, ok := borrowers[l.LoanerID]; ok {
			r.BorrowerName, r.BorrowerSurname = b.Name, b.Surname
		} else {
			r.BorrowerName = UnknownBorrower
		}
		if b, ok := books[l.BookID]; ok {
			r.BookName, r.Author, r.bookFound = b.Name, b.Author, true
		}
		if l.ReturnDate != nil {
			d := models.DaysBetween(l.LoanDate, *l.ReturnDate)
			r.DurationDays = &d
		}
		rows = append(rows, r)
	}
	return rows
}

// FillOpenDurations sets the running duration of open loans as of today.
// rows is modified in place and returned.
func FillOpenDurations(rows []HistoryRow, today time.Time) []HistoryRow {
	for i := range rows {
		if rows[i].DurationDays != nil {
			continue
		}
		d := metrics.Duration(models.Loan{LoanDate: rows[i].LoanDate}, today)
		rows[i].DurationDays = &d
	}
	return rows
}

// Search keeps the rows whose borrower full name, book name or author
// contains term, ignoring case. An empty term keeps everything.
func Search(rows []HistoryRow, term string) []HistoryRow {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return rows
	}
	out := make([]HistoryRow, 0)
	for _, r := range rows {
		if containsFold(r.BorrowerName+" "+r.BorrowerSurname, term) ||
			containsFold(r.BookName, term) ||
			containsFold(r.Author, term) {
			out = append(out, r)
		}
	}
	return out
}

func containsFold(s, lowerTerm string) bool {
	return strings.Contains(strings.ToLower(s), lowerTerm)
}
