package stats

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"simplib/pkg/models"
)

type Summary struct {
	TotalLoans           int     `json:"total_loans"`
	MeanDurationDays     float64 `json:"mean_duration_days"`
	MeanLoansPerBorrower float64 `json:"mean_loans_per_borrower"`
}

// Summarize averages closed-loan durations only; open rows are ignored even
// if FillOpenDurations has run on them. Borrowers are counted as the groups
// of borrowerBoard.
func Summarize(rows []HistoryRow, borrowerBoard []Entry) Summary {
	s := Summary{TotalLoans: len(rows)}

	var total, closed int
	for _, r := range rows {
		if r.ReturnDate == nil || r.DurationDays == nil {
			continue
		}
		total += *r.DurationDays
		closed++
	}
	if closed > 0 {
		s.MeanDurationDays = float64(total) / float64(closed)
	}

	if len(borrowerBoard) > 0 {
		var loans int
		for _, e := range borrowerBoard {
			loans += e.Count
		}
		s.MeanLoansPerBorrower = float64(loans) / float64(len(borrowerBoard))
	}
	return s
}

type MonthCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// earliestLoanDate filters out placeholder dates such as 01/01/1900.
var earliestLoanDate = time.Date(1900, time.January, 2, 0, 0, 0, 0, time.UTC)

// MonthlyLoans buckets loans by YYYY-MM and keeps buckets with more than
// minCount loans, oldest month first.
func MonthlyLoans(loans []models.Loan, minCount int) []MonthCount {
	counts := make(map[string]int)
	for _, l := range loans {
		if models.Day(l.LoanDate).Before(earliestLoanDate) {
			continue
		}
		counts[l.LoanDate.Format("2006-01")]++
	}

	out := make([]MonthCount, 0, len(counts))
	for month, n := range counts {
		if n > minCount {
			out = append(out, MonthCount{Month: month, Count: n})
		}
	}
	slices.SortFunc(out, func(a, b MonthCount) int { return cmp.Compare(a.Month, b.Month) })
	return out
}

type CategoryShare struct {
	Category string  `json:"category"`
	Count    int     `json:"count"`
	Percent  float64 `json:"percent"`
}

// Categories counts active books per category, dropping blank and excluded
// categories and any category with minCount books or fewer. Percent is of
// the books that survive the filter. Categories sort by name.
func Categories(books []models.Book, minCount int, excluded string) []CategoryShare {
	counts := make(map[string]int)
	for _, b := range books {
		category := strings.TrimSpace(b.Category)
		if !b.Active || category == "" || category == excluded {
			continue
		}
		counts[category]++
	}

	var total int
	out := make([]CategoryShare, 0, len(counts))
	for category, n := range counts {
		if n > minCount {
			out = append(out, CategoryShare{Category: category, Count: n})
			total += n
		}
	}
	for i := range out {
		out[i].Percent = float64(out[i].Count) / float64(total) * 100
	}
	slices.SortFunc(out, func(a, b CategoryShare) int { return cmp.Compare(a.Category, b.Category) })
	return out
}
