package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simplib/pkg/config"
	"simplib/pkg/logging"
	"simplib/pkg/store"
)

func testConfig(t *testing.T, driver string) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		StoreDriver:      driver,
		DataDir:          filepath.Join(dir, "data"),
		SQLitePath:       filepath.Join(dir, "library.db"),
		BackupDir:        filepath.Join(dir, "backups"),
		BackupInterval:   time.Minute,
		BackupKeep:       2,
		MonthlyMinLoans:  25,
		CategoryMinBooks: 10,
		UnknownCategory:  "unknown",
	}
}

func TestNew_CSV(t *testing.T) {
	cfg := testConfig(t, "csv")
	a, err := New(cfg, logging.Discard())
	require.NoError(t, err)
	defer a.Close()

	assert.IsType(t, &store.CSVStore{}, a.Store)
	assert.NoError(t, a.Health())
	assert.Equal(t, 25, a.Thresholds().MonthlyMinLoans)

	ctx := context.Background()
	_, _, err = a.Controller.AddBook(ctx, "Dune", "Herbert", "")
	require.NoError(t, err)

	r, err := a.Rotator(ctx)
	require.NoError(t, err)
	require.NotNil(t, r)
	snapshot, err := r.RunOnce(ctx)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(snapshot, store.BooksFile))
}

func TestNew_SQLite(t *testing.T) {
	cfg := testConfig(t, "sqlite")
	a, err := New(cfg, logging.Discard())
	require.NoError(t, err)
	defer a.Close()

	assert.IsType(t, &store.GormStore{}, a.Store)
	assert.NoError(t, a.Health())

	ctx := context.Background()
	_, _, err = a.Controller.AddBorrower(ctx, "Dana", "Levi", "")
	require.NoError(t, err)

	r, err := a.Rotator(ctx)
	require.NoError(t, err)
	snapshot, err := r.RunOnce(ctx)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(snapshot, "library.db"))
}

func TestNew_UnknownDriver(t *testing.T) {
	_, err := New(testConfig(t, "mongo"), logging.Discard())
	assert.Error(t, err)
}
