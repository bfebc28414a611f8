package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"simplib/pkg/models"
)

func TestWriteBooksXLSX(t *testing.T) {
	books := []models.Book{
		{ID: 1, Name: "Dune", Author: "Herbert", Category: "Sci-Fi", Active: true},
		{ID: 2, Name: "Emma", Author: "Austen", Active: true},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteBooksXLSX(&buf, books))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{BooksSheet}, f.GetSheetList())
	rows, err := f.GetRows(BooksSheet)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"name", "author"},
		{"Dune", "Herbert"},
		{"Emma", "Austen"},
	}, rows)
}

func TestWriteBooksXLSX_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteBooksXLSX(&buf, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(BooksSheet)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"name", "author"}}, rows)
}
