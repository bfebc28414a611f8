package lending

import (
	"context"
	"strings"

	"simplib/pkg/liberr"
	"simplib/pkg/models"
)

type BorrowerUpdate struct {
	Name    *string
	Surname *string
	Phone   *string
	Active  *bool
}

// AddBorrower registers a borrower, or brings back a retired one with the
// same (name, surname).
func (c *Controller) AddBorrower(ctx context.Context, name, surname, phone string) (borrower models.Borrower, reinstated bool, err error) {
	name, surname, phone = strings.TrimSpace(name), strings.TrimSpace(surname), strings.TrimSpace(phone)
	if name == "" || surname == "" {
		return models.Borrower{}, false, liberr.Validation("borrower name and surname are required")
	}

	err = c.mutate(ctx, func(ds *models.Dataset) error {
		i, err := findRetiredBorrower(ds.Borrowers, name, surname)
		if err != nil {
			return err
		}
		if i >= 0 {
			ds.Borrowers[i].Active = true
			borrower, reinstated = ds.Borrowers[i], true
			return c.saveBorrowers(ctx, ds.Borrowers)
		}

		borrower = models.Borrower{ID: ds.NextBorrowerID(), Name: name, Surname: surname, Phone: phone, Active: true}
		return c.saveBorrowers(ctx, append(ds.Borrowers, borrower))
	})
	if err != nil {
		return models.Borrower{}, false, err
	}

	c.log.Info(ctx, "borrower added", "loaner_id", borrower.ID, "reinstated", reinstated)
	return borrower, reinstated, nil
}

func (c *Controller) RetireBorrower(ctx context.Context, id int) (models.Borrower, error) {
	var borrower models.Borrower
	err := c.mutate(ctx, func(ds *models.Dataset) error {
		i := borrowerIndex(ds.Borrowers, id)
		if i < 0 {
			return liberr.NotFound("borrower %d does not exist", id)
		}
		if hasActiveLoan(ds.Loans, func(l models.Loan) bool { return l.LoanerID == id }) {
			return liberr.Conflict("%s has books on loan and cannot be retired", ds.Borrowers[i].FullName())
		}
		borrower = ds.Borrowers[i]
		if !borrower.Active {
			return nil
		}
		ds.Borrowers[i].Active = false
		borrower.Active = false
		return c.saveBorrowers(ctx, ds.Borrowers)
	})
	if err != nil {
		return models.Borrower{}, err
	}

	c.log.Info(ctx, "borrower retired", "loaner_id", id)
	return borrower, nil
}

func (c *Controller) ReinstateBorrower(ctx context.Context, name, surname string) (models.Borrower, error) {
	var borrower models.Borrower
	err := c.mutate(ctx, func(ds *models.Dataset) error {
		i, err := findRetiredBorrower(ds.Borrowers, name, surname)
		if err != nil {
			return err
		}
		if i < 0 {
			return liberr.NotFound("no retired borrower %q %q", name, surname)
		}
		ds.Borrowers[i].Active = true
		borrower = ds.Borrowers[i]
		return c.saveBorrowers(ctx, ds.Borrowers)
	})
	if err != nil {
		return models.Borrower{}, err
	}

	c.log.Info(ctx, "borrower reinstated", "loaner_id", borrower.ID)
	return borrower, nil
}

func (c *Controller) UpdateBorrower(ctx context.Context, id int, u BorrowerUpdate) (models.Borrower, error) {
	var borrower models.Borrower
	err := c.mutate(ctx, func(ds *models.Dataset) error {
		i := borrowerIndex(ds.Borrowers, id)
		if i < 0 {
			return liberr.NotFound("borrower %d does not exist", id)
		}

		b := ds.Borrowers[i]
		if u.Name != nil {
			b.Name = strings.TrimSpace(*u.Name)
		}
		if u.Surname != nil {
			b.Surname = strings.TrimSpace(*u.Surname)
		}
		if u.Phone != nil {
			b.Phone = strings.TrimSpace(*u.Phone)
		}
		if u.Active != nil {
			b.Active = *u.Active
		}

		if b.Name == "" || b.Surname == "" {
			return liberr.Validation("borrower name and surname are required")
		}
		if ds.Borrowers[i].Active && !b.Active &&
			hasActiveLoan(ds.Loans, func(l models.Loan) bool { return l.LoanerID == id }) {
			return liberr.Conflict("%s has books on loan and cannot be retired", b.FullName())
		}
		if b.Active {
			for j, other := range ds.Borrowers {
				if j != i && other.Active && sameKey(other.Name, b.Name) && sameKey(other.Surname, b.Surname) {
					return liberr.Conflict("%s already exists", b.FullName())
				}
			}
		}

		ds.Borrowers[i] = b
		borrower = b
		return c.saveBorrowers(ctx, ds.Borrowers)
	})
	if err != nil {
		return models.Borrower{}, err
	}

	c.log.Info(ctx, "borrower updated", "loaner_id", id)
	return borrower, nil
}

func findRetiredBorrower(borrowers []models.Borrower, name, surname string) (int, error) {
	found := -1
	for i, b := range borrowers {
		if !sameKey(b.Name, name) || !sameKey(b.Surname, surname) {
			continue
		}
		if b.Active {
			return -1, liberr.Conflict("%s already exists", b.FullName())
		}
		if found < 0 {
			found = i
		}
	}
	return found, nil
}

func borrowerIndex(borrowers []models.Borrower, id int) int {
	for i, b := range borrowers {
		if b.ID == id {
			return i
		}
	}
	return -1
}
