package lending

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simplib/pkg/liberr"
	"simplib/pkg/logging"
	"simplib/pkg/models"
	"simplib/pkg/store"
)

func day(s string) time.Time {
	t, err := models.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func ptr[T any](v T) *T { return &v }

type fixture struct {
	dir   string
	store *store.CSVStore
	ctrl  *Controller
}

func setup(t *testing.T, ds models.Dataset) fixture {
	t.Helper()
	dir := t.TempDir()
	s, err := store.NewCSVStore(dir)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s.SaveBooks(ctx, ds.Books))
	require.NoError(t, s.SaveBorrowers(ctx, ds.Borrowers))
	require.NoError(t, s.SaveLoans(ctx, ds.Loans))

	ctrl := NewController(s, logging.Discard(), WithClock(func() time.Time { return day("01/02/2024").Add(15 * time.Hour) }))
	return fixture{dir: dir, store: s, ctrl: ctrl}
}

func (f fixture) load(t *testing.T) models.Dataset {
	t.Helper()
	ds, err := f.store.Load(context.Background())
	require.NoError(t, err)
	return ds
}

// files returns the raw table files so tests can assert nothing was written.
func (f fixture) files(t *testing.T) map[string]string {
	t.Helper()
	out := make(map[string]string)
	for _, name := range []string{store.BooksFile, store.BorrowersFile, store.LoansFile} {
		b, err := os.ReadFile(filepath.Join(f.dir, name))
		require.NoError(t, err)
		out[name] = string(b)
	}
	return out
}

func seed() models.Dataset {
	return models.Dataset{
		Books: []models.Book{
			{ID: 1, Name: "Dune", Author: "Herbert", Category: "Sci-Fi", Active: true},
			{ID: 2, Name: "Emma", Author: "Austen", Category: "Classic", Active: true},
			{ID: 4, Name: "Ulysses", Author: "Joyce", Active: false},
		},
		Borrowers: []models.Borrower{
			{ID: 5, Name: "Dana", Surname: "Levi", Phone: "050", Active: true},
			{ID: 6, Name: "Omer", Surname: "Katz", Active: false},
		},
		Loans: []models.Loan{
			{ID: "l1", LoanerID: 5, BookID: 2, LoanDate: day("10/01/2024")},
		},
	}
}

func TestToday(t *testing.T) {
	f := setup(t, seed())
	assert.Equal(t, day("01/02/2024"), f.ctrl.Today())
}

func TestCreateLoan(t *testing.T) {
	f := setup(t, seed())
	ctx := context.Background()

	loan, err := f.ctrl.CreateLoan(ctx, 1, 5, day("01/02/2024"))
	require.NoError(t, err)
	assert.NotEmpty(t, loan.ID)
	assert.True(t, loan.Active())

	ds := f.load(t)
	require.Len(t, ds.Loans, 2)
	assert.Equal(t, loan, ds.Loans[1])
}

func TestCreateLoan_TwiceIsRejected(t *testing.T) {
	f := setup(t, seed())
	ctx := context.Background()

	_, err := f.ctrl.CreateLoan(ctx, 1, 5, day("01/02/2024"))
	require.NoError(t, err)
	before := f.files(t)

	_, err = f.ctrl.CreateLoan(ctx, 1, 5, day("01/02/2024"))
	var conflict *liberr.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, before, f.files(t))
	assert.Len(t, f.load(t).Loans, 2)
}

func TestCreateLoan_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		bookID   int
		loanerID int
		date     time.Time
		want     error
	}{
		{"zero date", 1, 5, time.Time{}, liberr.ErrValidation},
		{"unknown book", 99, 5, day("01/02/2024"), liberr.ErrValidation},
		{"unknown borrower", 1, 99, day("01/02/2024"), liberr.ErrValidation},
		{"book already out", 2, 5, day("01/02/2024"), liberr.ErrConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t, seed())
			before := f.files(t)

			_, err := f.ctrl.CreateLoan(context.Background(), tt.bookID, tt.loanerID, tt.date)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, before, f.files(t))
		})
	}
}

func TestCreateLoan_RetiredEntitiesAreNotChecked(t *testing.T) {
	f := setup(t, seed())

	_, err := f.ctrl.CreateLoan(context.Background(), 4, 6, day("01/02/2024"))
	assert.NoError(t, err)
}

func TestReturnLoan(t *testing.T) {
	f := setup(t, seed())

	loan, err := f.ctrl.ReturnLoan(context.Background(), 5, 2, day("10/01/2024"), day("20/01/2024"))
	require.NoError(t, err)
	require.NotNil(t, loan.ReturnDate)
	assert.Equal(t, day("20/01/2024"), *loan.ReturnDate)

	ds := f.load(t)
	assert.False(t, ds.Loans[0].Active())
}

func TestReturnLoan_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		loanerID int
		bookID   int
		loanDate time.Time
		returned time.Time
		want     error
	}{
		{"no match", 5, 1, day("10/01/2024"), day("20/01/2024"), liberr.ErrNotFound},
		{"wrong date", 5, 2, day("11/01/2024"), day("20/01/2024"), liberr.ErrNotFound},
		{"return before loan", 5, 2, day("10/01/2024"), day("09/01/2024"), liberr.ErrValidation},
		{"zero return date", 5, 2, day("10/01/2024"), time.Time{}, liberr.ErrValidation},
		{"zero loan date", 5, 2, time.Time{}, day("20/01/2024"), liberr.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t, seed())
			before := f.files(t)

			_, err := f.ctrl.ReturnLoan(context.Background(), tt.loanerID, tt.bookID, tt.loanDate, tt.returned)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, before, f.files(t))
		})
	}
}

func TestReturnLoan_AmbiguousMatchIsRejected(t *testing.T) {
	ds := seed()
	ds.Loans = append(ds.Loans, models.Loan{ID: "l2", LoanerID: 5, BookID: 2, LoanDate: day("10/01/2024")})
	f := setup(t, ds)

	_, err := f.ctrl.ReturnLoan(context.Background(), 5, 2, day("10/01/2024"), day("20/01/2024"))
	assert.ErrorIs(t, err, liberr.ErrConflict)

	loan, err := f.ctrl.ReturnLoanByID(context.Background(), "l2", day("20/01/2024"))
	require.NoError(t, err)
	assert.Equal(t, "l2", loan.ID)

	got := f.load(t)
	assert.True(t, got.Loans[0].Active())
	assert.False(t, got.Loans[1].Active())
}

func TestReturnLoanByID_Rejections(t *testing.T) {
	f := setup(t, seed())
	ctx := context.Background()

	_, err := f.ctrl.ReturnLoanByID(ctx, "", day("20/01/2024"))
	assert.ErrorIs(t, err, liberr.ErrValidation)

	_, err = f.ctrl.ReturnLoanByID(ctx, "missing", day("20/01/2024"))
	assert.ErrorIs(t, err, liberr.ErrNotFound)

	_, err = f.ctrl.ReturnLoanByID(ctx, "l1", day("01/01/2024"))
	assert.ErrorIs(t, err, liberr.ErrValidation)

	_, err = f.ctrl.ReturnLoanByID(ctx, "l1", day("20/01/2024"))
	require.NoError(t, err)
	_, err = f.ctrl.ReturnLoanByID(ctx, "l1", day("21/01/2024"))
	assert.ErrorIs(t, err, liberr.ErrConflict)
}

type failingStore struct {
	store.Store
}

func (failingStore) Load(context.Context) (models.Dataset, error) {
	return models.Dataset{}, errors.New("disk on fire")
}

func TestStoreErrorsAreNotClassified(t *testing.T) {
	ctrl := NewController(failingStore{}, logging.Discard())

	_, err := ctrl.CreateLoan(context.Background(), 1, 1, day("01/01/2024"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, liberr.ErrValidation)
	assert.NotErrorIs(t, err, liberr.ErrConflict)
	assert.NotErrorIs(t, err, liberr.ErrNotFound)
	assert.Contains(t, err.Error(), "disk on fire")
}

func TestCreateLoan_ConcurrentCallsLendOnce(t *testing.T) {
	f := setup(t, seed())
	ctx := context.Background()

	const callers = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.ctrl.CreateLoan(ctx, 1, 5, day("01/02/2024"))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, liberr.ErrConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, callers-1, conflicts)

	active := 0
	for _, l := range f.load(t).Loans {
		if l.BookID == 1 && l.Active() {
			active++
		}
	}
	assert.Equal(t, 1, active)
}
