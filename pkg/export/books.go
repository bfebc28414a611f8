// Package export renders catalog lists as spreadsheets for printing.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"simplib/pkg/models"
)

const (
	BooksSheet      = "Books"
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// WriteBooksXLSX writes one row per book with its name and author, under a
// bold header row.
func WriteBooksXLSX(w io.Writer, books []models.Book) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", BooksSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	if err := f.SetSheetRow(BooksSheet, "A1", &[]any{"name", "author"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := f.SetCellStyle(BooksSheet, "A1", "B1", bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i, b := range books {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(BooksSheet, cell, &[]any{b.Name, b.Author}); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.SetColWidth(BooksSheet, "A", "B", 40); err != nil {
		return err
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
