// Package lending applies the state-changing library operations: loans,
// returns, and the add/retire/reinstate cycle of books and borrowers.
//
// Every mutation runs under one writer lock and follows the same steps:
// reload all tables, validate, mutate, persist the affected table whole.
// A rejected operation writes nothing.
package lending

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"simplib/pkg/logging"
	"simplib/pkg/models"
	"simplib/pkg/store"
)

type Controller struct {
	store store.Store
	log   logging.Logger
	now   func() time.Time
	newID func() string

	mu sync.Mutex
}

type Option func(*Controller)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

func NewController(s store.Store, log logging.Logger, opts ...Option) *Controller {
	c := &Controller{
		store: s,
		log:   log,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Today is the current calendar date according to the controller's clock.
func (c *Controller) Today() time.Time {
	return models.Day(c.now())
}

// Snapshot loads the current state for read-only use.
func (c *Controller) Snapshot(ctx context.Context) (models.Dataset, error) {
	ds, err := c.store.Load(ctx)
	if err != nil {
		return ds, fmt.Errorf("load data: %w", err)
	}
	return ds, nil
}

func (c *Controller) mutate(ctx context.Context, fn func(ds *models.Dataset) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ds, err := c.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load data: %w", err)
	}
	return fn(&ds)
}

func (c *Controller) saveBooks(ctx context.Context, books []models.Book) error {
	if err := c.store.SaveBooks(ctx, books); err != nil {
		return fmt.Errorf("save books: %w", err)
	}
	return nil
}

func (c *Controller) saveBorrowers(ctx context.Context, borrowers []models.Borrower) error {
	if err := c.store.SaveBorrowers(ctx, borrowers); err != nil {
		return fmt.Errorf("save borrowers: %w", err)
	}
	return nil
}

func (c *Controller) saveLoans(ctx context.Context, loans []models.Loan) error {
	if err := c.store.SaveLoans(ctx, loans); err != nil {
		return fmt.Errorf("save loans: %w", err)
	}
	return nil
}

func hasActiveLoan(loans []models.Loan, match func(models.Loan) bool) bool {
	for _, l := range loans {
		if l.Active() && match(l) {
			return true
		}
	}
	return false
}

func sameKey(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
