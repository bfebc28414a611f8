package stats

import "simplib/pkg/models"

// UnknownCategory is the placeholder category the catalog files use for
// books nobody has classified.
const UnknownCategory = "לא ידוע"

// Thresholds for the rollups. The defaults are what the statistics page has
// always shown.
type Thresholds struct {
	MonthlyMinLoans  int
	CategoryMinBooks int
	UnknownCategory  string
}

func DefaultThresholds() Thresholds {
	return Thresholds{MonthlyMinLoans: 25, CategoryMinBooks: 10, UnknownCategory: UnknownCategory}
}

type Report struct {
	Summary      Summary         `json:"summary"`
	TopBorrowers []Entry         `json:"top_borrowers"`
	TopBooks     []Entry         `json:"top_books"`
	MonthlyLoans []MonthCount    `json:"monthly_loans"`
	Categories   []CategoryShare `json:"categories"`
}

// Build assembles everything the statistics page shows.
func Build(ds models.Dataset, th Thresholds) Report {
	rows := History(ds)
	borrowers := BorrowerLeaderboard(rows)
	return Report{
		Summary:      Summarize(rows, borrowers),
		TopBorrowers: borrowers,
		TopBooks:     BookLeaderboard(rows),
		MonthlyLoans: MonthlyLoans(ds.Loans, th.MonthlyMinLoans),
		Categories:   Categories(ds.Books, th.CategoryMinBooks, th.UnknownCategory),
	}
}
