package models

import (
	"strings"
	"time"
)

// DateLayout is the DD/MM/YYYY layout used in data files and on the wire.
const DateLayout = "02/01/2006"

type Book struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Author   string `json:"author"`
	Category string `json:"category"`
	Active   bool   `json:"active"`
}

type Borrower struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Surname string `json:"surname"`
	Phone   string `json:"phone"`
	Active  bool   `json:"active"`
}

func (b Borrower) FullName() string {
	return strings.TrimSpace(b.Name + " " + b.Surname)
}

// Loan is active while ReturnDate is nil. ID is empty for rows written
// before loans carried their own identifier.
type Loan struct {
	ID         string     `json:"id"`
	LoanerID   int        `json:"loaner_id"`
	BookID     int        `json:"book_id"`
	LoanDate   time.Time  `json:"loan_date"`
	ReturnDate *time.Time `json:"return_date"`
}

func (l Loan) Active() bool {
	return l.ReturnDate == nil
}

// Dataset is a read snapshot of all three tables. It is only valid for the
// request that loaded it.
type Dataset struct {
	Books     []Book
	Borrowers []Borrower
	Loans     []Loan
}

func (d Dataset) BookByID(id int) (Book, bool) {
	for _, b := range d.Books {
		if b.ID == id {
			return b, true
		}
	}
	return Book{}, false
}

func (d Dataset) BorrowerByID(id int) (Borrower, bool) {
	for _, b := range d.Borrowers {
		if b.ID == id {
			return b, true
		}
	}
	return Borrower{}, false
}

// NextBookID returns max(id)+1, or 1 for an empty catalog.
func (d Dataset) NextBookID() int {
	next := 1
	for _, b := range d.Books {
		if b.ID >= next {
			next = b.ID + 1
		}
	}
	return next
}

// NextBorrowerID returns max(id)+1, or 1 for an empty roster.
func (d Dataset) NextBorrowerID() int {
	next := 1
	for _, b := range d.Borrowers {
		if b.ID >= next {
			next = b.ID + 1
		}
	}
	return next
}

// Day truncates t to its calendar date in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// DaysBetween counts whole calendar days from `from` to `to`.
func DaysBetween(from, to time.Time) int {
	return int(Day(to).Sub(Day(from)).Hours() / 24)
}
