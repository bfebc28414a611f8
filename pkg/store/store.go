// Package store persists the three library tables. Implementations own no
// business rules: they load whole tables and replace whole tables.
package store

import (
	"context"

	"simplib/pkg/models"
)

type Store interface {
	Load(ctx context.Context) (models.Dataset, error)
	SaveBooks(ctx context.Context, books []models.Book) error
	SaveBorrowers(ctx context.Context, borrowers []models.Borrower) error
	SaveLoans(ctx context.Context, loans []models.Loan) error
}
