package lending

import (
	"context"
	"strings"

	"simplib/pkg/liberr"
	"simplib/pkg/models"
)

// BookUpdate carries the edited fields of a catalog row; nil leaves a field
// as it is.
type BookUpdate struct {
	Name     *string
	Author   *string
	Category *string
	Active   *bool
}

// AddBook adds a book to the catalog. Adding a retired (name, author) pair
// brings the old row back instead and reports reinstated=true.
func (c *Controller) AddBook(ctx context.Context, name, author, category string) (book models.Book, reinstated bool, err error) {
	name, author, category = strings.TrimSpace(name), strings.TrimSpace(author), strings.TrimSpace(category)
	if name == "" || author == "" {
		return models.Book{}, false, liberr.Validation("book name and author are required")
	}

	err = c.mutate(ctx, func(ds *models.Dataset) error {
		i, err := findRetiredBook(ds.Books, name, author)
		if err != nil {
			return err
		}
		if i >= 0 {
			ds.Books[i].Active = true
			book, reinstated = ds.Books[i], true
			return c.saveBooks(ctx, ds.Books)
		}

		book = models.Book{ID: ds.NextBookID(), Name: name, Author: author, Category: category, Active: true}
		return c.saveBooks(ctx, append(ds.Books, book))
	})
	if err != nil {
		return models.Book{}, false, err
	}

	c.log.Info(ctx, "book added", "book_id", book.ID, "reinstated", reinstated)
	return book, reinstated, nil
}

// RetireBook marks a book inactive. A book that is out on loan stays.
func (c *Controller) RetireBook(ctx context.Context, id int) (models.Book, error) {
	var book models.Book
	err := c.mutate(ctx, func(ds *models.Dataset) error {
		i := bookIndex(ds.Books, id)
		if i < 0 {
			return liberr.NotFound("book %d does not exist", id)
		}
		if hasActiveLoan(ds.Loans, func(l models.Loan) bool { return l.BookID == id }) {
			return liberr.Conflict("%q is on loan and cannot be retired", ds.Books[i].Name)
		}
		book = ds.Books[i]
		if !book.Active {
			return nil
		}
		ds.Books[i].Active = false
		book.Active = false
		return c.saveBooks(ctx, ds.Books)
	})
	if err != nil {
		return models.Book{}, err
	}

	c.log.Info(ctx, "book retired", "book_id", id)
	return book, nil
}

// ReinstateBook flips a retired (name, author) row back to active, keeping
// its id.
func (c *Controller) ReinstateBook(ctx context.Context, name, author string) (models.Book, error) {
	var book models.Book
	err := c.mutate(ctx, func(ds *models.Dataset) error {
		i, err := findRetiredBook(ds.Books, name, author)
		if err != nil {
			return err
		}
		if i < 0 {
			return liberr.NotFound("no retired book %q by %q", name, author)
		}
		ds.Books[i].Active = true
		book = ds.Books[i]
		return c.saveBooks(ctx, ds.Books)
	})
	if err != nil {
		return models.Book{}, err
	}

	c.log.Info(ctx, "book reinstated", "book_id", book.ID)
	return book, nil
}

// UpdateBook edits a catalog row in place. Deactivating goes through the
// same loan check as RetireBook, and the edited row must not collide with
// another active book.
func (c *Controller) UpdateBook(ctx context.Context, id int, u BookUpdate) (models.Book, error) {
	var book models.Book
	err := c.mutate(ctx, func(ds *models.Dataset) error {
		i := bookIndex(ds.Books, id)
		if i < 0 {
			return liberr.NotFound("book %d does not exist", id)
		}

		b := ds.Books[i]
		if u.Name != nil {
			b.Name = strings.TrimSpace(*u.Name)
		}
		if u.Author != nil {
			b.Author = strings.TrimSpace(*u.Author)
		}
		if u.Category != nil {
			b.Category = strings.TrimSpace(*u.Category)
		}
		if u.Active != nil {
			b.Active = *u.Active
		}

		if b.Name == "" || b.Author == "" {
			return liberr.Validation("book name and author are required")
		}
		if ds.Books[i].Active && !b.Active &&
			hasActiveLoan(ds.Loans, func(l models.Loan) bool { return l.BookID == id }) {
			return liberr.Conflict("%q is on loan and cannot be retired", b.Name)
		}
		if b.Active {
			for j, other := range ds.Books {
				if j != i && other.Active && sameKey(other.Name, b.Name) && sameKey(other.Author, b.Author) {
					return liberr.Conflict("%q by %q already exists", b.Name, b.Author)
				}
			}
		}

		ds.Books[i] = b
		book = b
		return c.saveBooks(ctx, ds.Books)
	})
	if err != nil {
		return models.Book{}, err
	}

	c.log.Info(ctx, "book updated", "book_id", id)
	return book, nil
}

// findRetiredBook returns the index of the first retired row matching
// (name, author), or -1. An active match is a conflict.
func findRetiredBook(books []models.Book, name, author string) (int, error) {
	found := -1
	for i, b := range books {
		if !sameKey(b.Name, name) || !sameKey(b.Author, author) {
			continue
		}
		if b.Active {
			return -1, liberr.Conflict("%q by %q already exists", b.Name, b.Author)
		}
		if found < 0 {
			found = i
		}
	}
	return found, nil
}

func bookIndex(books []models.Book, id int) int {
	for i, b := range books {
		if b.ID == id {
			return i
		}
	}
	return -1
}
