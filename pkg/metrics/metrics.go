package metrics

import (
	"time"

	"simplib/pkg/models"
)

// LateAfterDays is the longest an active loan may run before it counts as late.
const LateAfterDays = 30

type Summary struct {
	TotalBorrowers  int `json:"total_borrowers"`
	ActiveBorrowers int `json:"active_borrowers"`
	LateBorrowers   int `json:"late_borrowers"`
	ActiveLoans     int `json:"active_loans"`
	LateLoans       int `json:"late_loans"`
	TotalBooks      int `json:"total_books"`
	BorrowedBooks   int `json:"borrowed_books"`
	LateBooks       int `json:"late_books"`
	AvailableBooks  int `json:"available_books"`
}

// Duration is the length of a loan in whole days: up to today while active,
// up to the return date once closed.
func Duration(l models.Loan, today time.Time) int {
	if l.ReturnDate != nil {
		return models.DaysBetween(l.LoanDate, *l.ReturnDate)
	}
	return models.DaysBetween(l.LoanDate, today)
}

func IsLate(l models.Loan, today time.Time) bool {
	return l.Active() && Duration(l, today) > LateAfterDays
}

// Compute derives the dashboard counts. Retired books and borrowers are
// counted too; the totals are table sizes.
func Compute(ds models.Dataset, today time.Time) Summary {
	var (
		activeBorrowers = map[int]struct{}{}
		lateBorrowers   = map[int]struct{}{}
		borrowedBooks   = map[int]struct{}{}
		lateBooks       = map[int]struct{}{}
		s               Summary
	)

	for _, l := range ds.Loans {
		if !l.Active() {
			continue
		}
		s.ActiveLoans++
		activeBorrowers[l.LoanerID] = struct{}{}
		borrowedBooks[l.BookID] = struct{}{}
		if IsLate(l, today) {
			s.LateLoans++
			lateBorrowers[l.LoanerID] = struct{}{}
			lateBooks[l.BookID] = struct{}{}
		}
	}

	s.TotalBorrowers = len(ds.Borrowers)
	s.ActiveBorrowers = len(activeBorrowers)
	s.LateBorrowers = len(lateBorrowers)
	s.TotalBooks = len(ds.Books)
	s.BorrowedBooks = len(borrowedBooks)
	s.LateBooks = len(lateBooks)
	s.AvailableBooks = s.TotalBooks - s.BorrowedBooks
	return s
}

// LoanView is an active loan joined with its book and borrower. Name fields
// stay empty when the reference no longer resolves.
type LoanView struct {
	LoanID          string    `json:"loan_id"`
	LoanerID        int       `json:"loaner_id"`
	BookID          int       `json:"book_id"`
	BookName        string    `json:"book_name"`
	Author          string    `json:"author"`
	BorrowerName    string    `json:"borrower_name"`
	BorrowerSurname string    `json:"borrower_surname"`
	Phone           string    `json:"phone"`
	LoanDate        time.Time `json:"loan_date"`
	DurationDays    int       `json:"duration_days"`
	Late            bool      `json:"late"`
}

func ActiveLoans(ds models.Dataset, today time.Time) []LoanView {
	books := make(map[int]models.Book, len(ds.Books))
	for _, b := range ds.Books {
		books[b.ID] = b
	}
	borrowers := make(map[int]models.Borrower, len(ds.Borrowers))
	for _, b := range ds.Borrowers {
		borrowers[b.ID] = b
	}

	views := make([]LoanView, 0)
	for _, l := range ds.Loans {
		if !l.Active() {
			continue
		}
		book := books[l.BookID]
		borrower := borrowers[l.LoanerID]
		d := Duration(l, today)
		views = append(views, LoanView{
			LoanID:          l.ID,
			LoanerID:        l.LoanerID,
			BookID:          l.BookID,
			BookName:        book.Name,
			Author:          book.Author,
			BorrowerName:    borrower.Name,
			BorrowerSurname: borrower.Surname,
			Phone:           borrower.Phone,
			LoanDate:        l.LoanDate,
			DurationDays:    d,
			Late:            d > LateAfterDays,
		})
	}
	return views
}

func LateLoans(ds models.Dataset, today time.Time) []LoanView {
	late := make([]LoanView, 0)
	for _, v := range ActiveLoans(ds, today) {
		if v.Late {
			late = append(late, v)
		}
	}
	return late
}

// AvailableForLoan lists books with no active loan, in catalog order.
func AvailableForLoan(ds models.Dataset) []models.Book {
	loaned := make(map[int]struct{})
	for _, l := range ds.Loans {
		if l.Active() {
			loaned[l.BookID] = struct{}{}
		}
	}
	available := make([]models.Book, 0, len(ds.Books))
	for _, b := range ds.Books {
		if _, ok := loaned[b.ID]; ok {
			continue
		}
		available = append(available, b)
	}
	return available
}
