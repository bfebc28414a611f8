package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simplib/pkg/liberr"
	"simplib/pkg/metrics"
)

func run(t *testing.T, dataDir string, args ...string) (string, error) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--driver", "csv", "--data-dir", dataDir}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func setupEnv(t *testing.T) string {
	dir := t.TempDir()
	t.Setenv("BACKUP_DIR", filepath.Join(dir, "backups"))
	t.Setenv("BACKUP_INTERVAL", "1h")
	t.Setenv("BACKUP_KEEP", "2")
	t.Setenv("S3_BUCKET", "")
	return filepath.Join(dir, "data")
}

func TestLoanWorkflow(t *testing.T) {
	data := setupEnv(t)

	out, err := run(t, data, "books", "add", "Dune", "Herbert", "--category", "scifi")
	require.NoError(t, err)
	assert.Equal(t, "added book 1: Dune - Herbert\n", out)

	out, err = run(t, data, "borrowers", "add", "Dana", "Levi", "--phone", "050-1234567")
	require.NoError(t, err)
	assert.Equal(t, "added borrower 1: Dana Levi\n", out)

	out, err = run(t, data, "loans", "create", "1", "1", "--date", "01/01/2024")
	require.NoError(t, err)
	m := regexp.MustCompile(`^loan (\S+): book 1 to borrower 1 on 01/01/2024\n$`).FindStringSubmatch(out)
	require.Len(t, m, 2, out)
	loanID := m[1]

	_, err = run(t, data, "loans", "create", "1", "1", "--date", "02/01/2024")
	assert.Error(t, err)

	out, err = run(t, data, "loans", "active", "--late")
	require.NoError(t, err)
	assert.Contains(t, out, loanID)
	assert.Contains(t, out, "050-1234567")

	out, err = run(t, data, "metrics")
	require.NoError(t, err)
	var summary metrics.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, 1, summary.ActiveLoans)
	assert.Equal(t, 1, summary.LateLoans)
	assert.Equal(t, 0, summary.AvailableBooks)

	out, err = run(t, data, "loans", "return", loanID, "--date", "20/01/2024")
	require.NoError(t, err)
	assert.Equal(t, "returned loan "+loanID+" on 20/01/2024\n", out)

	out, err = run(t, data, "history", "-q", "dune")
	require.NoError(t, err)
	assert.Contains(t, out, "20/01/2024")
	assert.Contains(t, out, "19")

	out, err = run(t, data, "books", "retire", "1")
	require.NoError(t, err)
	assert.Equal(t, "retired book 1: Dune - Herbert\n", out)

	out, err = run(t, data, "books", "list")
	require.NoError(t, err)
	assert.NotContains(t, out, "Dune")

	out, err = run(t, data, "books", "list", "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "retired")
}

func TestReturnByMatch(t *testing.T) {
	data := setupEnv(t)

	_, err := run(t, data, "books", "add", "Emma", "Austen")
	require.NoError(t, err)
	_, err = run(t, data, "borrowers", "add", "Omer", "Katz")
	require.NoError(t, err)
	_, err = run(t, data, "loans", "create", "1", "1", "--date", "05/03/2024")
	require.NoError(t, err)

	_, err = run(t, data, "loans", "return", "--book", "1")
	assert.Error(t, err)

	out, err := run(t, data, "loans", "return", "--book", "1", "--loaner", "1", "--loan-date", "05/03/2024", "--date", "06/03/2024")
	require.NoError(t, err)
	assert.Contains(t, out, "on 06/03/2024")
}

func TestReturnByMatch_NoActiveLoan(t *testing.T) {
	data := setupEnv(t)

	_, err := run(t, data, "books", "add", "Emma", "Austen")
	require.NoError(t, err)
	_, err = run(t, data, "borrowers", "add", "Omer", "Katz")
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		_, err = run(t, data, "loans", "return", "--book", "1", "--loaner", "1", "--loan-date", "05/03/2024")
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, liberr.ErrNotFound)
}

func TestBackup(t *testing.T) {
	data := setupEnv(t)

	_, err := run(t, data, "books", "add", "Dune", "Herbert")
	require.NoError(t, err)

	out, err := run(t, data, "backup")
	require.NoError(t, err)
	snapshot := out[:len(out)-1]
	_, err = os.Stat(filepath.Join(snapshot, "books.csv"))
	assert.NoError(t, err)
}

func TestInvalidArguments(t *testing.T) {
	data := setupEnv(t)

	_, err := run(t, data, "books", "retire", "abc")
	assert.Error(t, err)

	_, err = run(t, data, "loans", "create", "1", "1", "--date", "2024-01-01")
	assert.Error(t, err)

	_, err = run(t, data, "--driver", "mongo", "metrics")
	assert.Error(t, err)
}
