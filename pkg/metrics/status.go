package metrics

import (
	"time"

	"simplib/pkg/models"
)

type State string

const (
	StateAvailable State = "available"
	StateOnLoan    State = "on_loan"
	StateLate      State = "late"
)

// BookStatus is a catalog row with its current availability. Borrower and
// DurationDays are set only while the book is out.
type BookStatus struct {
	models.Book
	State        State  `json:"state"`
	Borrower     string `json:"borrower,omitempty"`
	DurationDays int    `json:"duration_days,omitempty"`
}

// BorrowerStatus is a roster row with the state of its longest running
// active loan, if any.
type BorrowerStatus struct {
	models.Borrower
	State        State `json:"state"`
	ActiveLoans  int   `json:"active_loans"`
	DurationDays int   `json:"duration_days,omitempty"`
}

func BookStatuses(ds models.Dataset, today time.Time) []BookStatus {
	out := make([]BookStatus, 0, len(ds.Books))
	byBook := make(map[int]LoanView)
	for _, v := range ActiveLoans(ds, today) {
		if prev, ok := byBook[v.BookID]; !ok || v.DurationDays > prev.DurationDays {
			byBook[v.BookID] = v
		}
	}

	for _, b := range ds.Books {
		st := BookStatus{Book: b, State: StateAvailable}
		if v, ok := byBook[b.ID]; ok {
			st.State = stateOf(v)
			st.Borrower = joinName(v.BorrowerName, v.BorrowerSurname)
			st.DurationDays = v.DurationDays
		}
		out = append(out, st)
	}
	return out
}

func BorrowerStatuses(ds models.Dataset, today time.Time) []BorrowerStatus {
	out := make([]BorrowerStatus, 0, len(ds.Borrowers))
	longest := make(map[int]LoanView)
	counts := make(map[int]int)
	for _, v := range ActiveLoans(ds, today) {
		counts[v.LoanerID]++
		if prev, ok := longest[v.LoanerID]; !ok || v.DurationDays > prev.DurationDays {
			longest[v.LoanerID] = v
		}
	}

	for _, b := range ds.Borrowers {
		st := BorrowerStatus{Borrower: b, State: StateAvailable, ActiveLoans: counts[b.ID]}
		if v, ok := longest[b.ID]; ok {
			st.State = stateOf(v)
			st.DurationDays = v.DurationDays
		}
		out = append(out, st)
	}
	return out
}

func stateOf(v LoanView) State {
	if v.Late {
		return StateLate
	}
	return StateOnLoan
}

func joinName(name, surname string) string {
	return models.Borrower{Name: name, Surname: surname}.FullName()
}
