package lending

import (
	"context"
	"time"

	"simplib/pkg/liberr"
	"simplib/pkg/models"
)

// CreateLoan records bookID as lent to loanerID on loanDate. Both ids must
// resolve and the book must not already be out. Whether the borrower or the
// book is retired is not checked.
func (c *Controller) CreateLoan(ctx context.Context, bookID, loanerID int, loanDate time.Time) (models.Loan, error) {
	if loanDate.IsZero() {
		return models.Loan{}, liberr.Validation("loan date is required")
	}

	var loan models.Loan
	err := c.mutate(ctx, func(ds *models.Dataset) error {
		book, ok := ds.BookByID(bookID)
		if !ok {
			return liberr.Validation("book %d does not exist", bookID)
		}
		if _, ok := ds.BorrowerByID(loanerID); !ok {
			return liberr.Validation("borrower %d does not exist", loanerID)
		}
		if hasActiveLoan(ds.Loans, func(l models.Loan) bool { return l.BookID == bookID }) {
			return liberr.Conflict("%q is already on loan", book.Name)
		}

		loan = models.Loan{
			ID:       c.newID(),
			LoanerID: loanerID,
			BookID:   bookID,
			LoanDate: models.Day(loanDate),
		}
		return c.saveLoans(ctx, append(ds.Loans, loan))
	})
	if err != nil {
		return models.Loan{}, err
	}

	c.log.Info(ctx, "loan created", "loan_id", loan.ID, "book_id", bookID, "loaner_id", loanerID)
	return loan, nil
}

// ReturnLoan closes the active loan identified by (loanerID, bookID,
// loanDate). More than one active match is rejected; use ReturnLoanByID then.
func (c *Controller) ReturnLoan(ctx context.Context, loanerID, bookID int, loanDate, returnDate time.Time) (models.Loan, error) {
	if loanDate.IsZero() {
		return models.Loan{}, liberr.Validation("loan date is required")
	}
	if err := checkReturnDate(loanDate, returnDate); err != nil {
		return models.Loan{}, err
	}

	var loan models.Loan
	err := c.mutate(ctx, func(ds *models.Dataset) error {
		match := -1
		for i, l := range ds.Loans {
			if !l.Active() || l.LoanerID != loanerID || l.BookID != bookID || !models.Day(l.LoanDate).Equal(models.Day(loanDate)) {
				continue
			}
			if match >= 0 {
				return liberr.Conflict("more than one active loan of book %d to borrower %d on %s", bookID, loanerID, models.FormatDate(loanDate))
			}
			match = i
		}
		if match < 0 {
			return liberr.NotFound("no active loan of book %d to borrower %d on %s", bookID, loanerID, models.FormatDate(loanDate))
		}

		loan = closeLoan(ds.Loans, match, returnDate)
		return c.saveLoans(ctx, ds.Loans)
	})
	if err != nil {
		return models.Loan{}, err
	}

	c.log.Info(ctx, "loan returned", "loan_id", loan.ID, "book_id", bookID, "loaner_id", loanerID)
	return loan, nil
}

// ReturnLoanByID closes the loan with the given id.
func (c *Controller) ReturnLoanByID(ctx context.Context, loanID string, returnDate time.Time) (models.Loan, error) {
	if loanID == "" {
		return models.Loan{}, liberr.Validation("loan id is required")
	}

	var loan models.Loan
	err := c.mutate(ctx, func(ds *models.Dataset) error {
		for i, l := range ds.Loans {
			if l.ID != loanID {
				continue
			}
			if !l.Active() {
				return liberr.Conflict("loan %s was already returned on %s", loanID, models.FormatDate(*l.ReturnDate))
			}
			if err := checkReturnDate(l.LoanDate, returnDate); err != nil {
				return err
			}
			loan = closeLoan(ds.Loans, i, returnDate)
			return c.saveLoans(ctx, ds.Loans)
		}
		return liberr.NotFound("loan %s does not exist", loanID)
	})
	if err != nil {
		return models.Loan{}, err
	}

	c.log.Info(ctx, "loan returned", "loan_id", loan.ID, "book_id", loan.BookID, "loaner_id", loan.LoanerID)
	return loan, nil
}

func checkReturnDate(loanDate, returnDate time.Time) error {
	if returnDate.IsZero() {
		return liberr.Validation("return date is required")
	}
	if models.Day(returnDate).Before(models.Day(loanDate)) {
		return liberr.Validation("return date %s is before loan date %s", models.FormatDate(returnDate), models.FormatDate(loanDate))
	}
	return nil
}

func closeLoan(loans []models.Loan, i int, returnDate time.Time) models.Loan {
	returned := models.Day(returnDate)
	loans[i].ReturnDate = &returned
	return loans[i]
}
