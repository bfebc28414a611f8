package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"simplib/pkg/database"
	"simplib/pkg/models"
)

// GormStore keeps the tables in sqlite or postgres. Every save replaces the
// whole table inside one transaction.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) DB() *gorm.DB { return s.db }

func (s *GormStore) Load(ctx context.Context) (models.Dataset, error) {
	var (
		ds        models.Dataset
		books     []database.BookRow
		borrowers []database.BorrowerRow
		loans     []database.LoanRow
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Order("position").Find(&books).Error; err != nil {
			return fmt.Errorf("load books: %w", err)
		}
		if err := tx.Order("position").Find(&borrowers).Error; err != nil {
			return fmt.Errorf("load borrowers: %w", err)
		}
		if err := tx.Order("position").Find(&loans).Error; err != nil {
			return fmt.Errorf("load loans: %w", err)
		}
		return nil
	})
	if err != nil {
		return ds, err
	}

	ds.Books = make([]models.Book, 0, len(books))
	for _, r := range books {
		ds.Books = append(ds.Books, models.Book{ID: r.ID, Name: r.Name, Author: r.Author, Category: r.Category, Active: r.Active})
	}
	ds.Borrowers = make([]models.Borrower, 0, len(borrowers))
	for _, r := range borrowers {
		ds.Borrowers = append(ds.Borrowers, models.Borrower{ID: r.ID, Name: r.Name, Surname: r.Surname, Phone: r.Phone, Active: r.Active})
	}
	ds.Loans = make([]models.Loan, 0, len(loans))
	for _, r := range loans {
		l := models.Loan{ID: r.LoanID, LoanerID: r.LoanerID, BookID: r.BookID, LoanDate: models.Day(r.LoanDate)}
		if r.ReturnDate != nil {
			returned := models.Day(*r.ReturnDate)
			l.ReturnDate = &returned
		}
		ds.Loans = append(ds.Loans, l)
	}
	return ds, nil
}

func (s *GormStore) SaveBooks(ctx context.Context, books []models.Book) error {
	rows := make([]database.BookRow, 0, len(books))
	for i, b := range books {
		rows = append(rows, database.BookRow{ID: b.ID, Position: i, Name: b.Name, Author: b.Author, Category: b.Category, Active: b.Active})
	}
	return replaceRows(ctx, s.db, &database.BookRow{}, rows)
}

func (s *GormStore) SaveBorrowers(ctx context.Context, borrowers []models.Borrower) error {
	rows := make([]database.BorrowerRow, 0, len(borrowers))
	for i, b := range borrowers {
		rows = append(rows, database.BorrowerRow{ID: b.ID, Position: i, Name: b.Name, Surname: b.Surname, Phone: b.Phone, Active: b.Active})
	}
	return replaceRows(ctx, s.db, &database.BorrowerRow{}, rows)
}

func (s *GormStore) SaveLoans(ctx context.Context, loans []models.Loan) error {
	rows := make([]database.LoanRow, 0, len(loans))
	for i, l := range loans {
		rows = append(rows, database.LoanRow{
			Position:   i,
			LoanID:     l.ID,
			LoanerID:   l.LoanerID,
			BookID:     l.BookID,
			LoanDate:   l.LoanDate,
			ReturnDate: l.ReturnDate,
		})
	}
	return replaceRows(ctx, s.db, &database.LoanRow{}, rows)
}

// replaceRows swaps the whole table for rows in one transaction.
func replaceRows[T any](ctx context.Context, db *gorm.DB, model any, rows []T) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
			return fmt.Errorf("clear table: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(&rows, 200).Error; err != nil {
			return fmt.Errorf("insert rows: %w", err)
		}
		return nil
	})
}
