package stats

import (
	"cmp"
	"slices"
)

// Entry is one leaderboard line. For borrowers Name/Second are name and
// surname; for books they are title and author.
type Entry struct {
	Name   string `json:"name"`
	Second string `json:"second"`
	Count  int    `json:"count"`
}

// BorrowerLeaderboard counts loans per (name, surname). Rows for unknown
// borrowers group under UnknownBorrower.
func BorrowerLeaderboard(rows []HistoryRow) []Entry {
	return rank(rows, func(r HistoryRow) (Entry, bool) {
		return Entry{Name: r.BorrowerName, Second: r.BorrowerSurname}, true
	})
}

// BookLeaderboard counts loans per (title, author). Loans of books missing
// from the catalog are left out.
func BookLeaderboard(rows []HistoryRow) []Entry {
	return rank(rows, func(r HistoryRow) (Entry, bool) {
		return Entry{Name: r.BookName, Second: r.Author}, r.bookFound
	})
}

// rank groups rows by key and orders by count descending, then by
// (Name, Second) ascending.
func rank(rows []HistoryRow, key func(HistoryRow) (Entry, bool)) []Entry {
	type groupKey struct{ name, second string }

	counts := make(map[groupKey]int)
	for _, r := range rows {
		e, ok := key(r)
		if !ok {
			continue
		}
		counts[groupKey{e.Name, e.Second}]++
	}

	board := make([]Entry, 0, len(counts))
	for k, n := range counts {
		board = append(board, Entry{Name: k.name, Second: k.second, Count: n})
	}
	slices.SortFunc(board, func(a, b Entry) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.Second, b.Second)
	})
	return board
}

// Top returns at most n entries from the head of board.
func Top(board []Entry, n int) []Entry {
	if n < 0 || len(board) <= n {
		return board
	}
	return board[:n]
}
