// Package testutil builds submission workbooks for tests.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"homeport-qualifier/internal/models"
)

// Submission describes the contents of a generated workbook. Cells maps an
// address to its value on the submission sheet.
type Submission struct {
	SheetName string
	Cells     map[string]interface{}
}

// NewSubmission returns a refinance submission with empty tables.
func NewSubmission() *Submission {
	return &Submission{
		SheetName: models.DefaultSheetName,
		Cells: map[string]interface{}{
			"E6":  "123 Main St",
			"E7":  "Refinance",
			"E12": 100000,
			"E13": 120000,
			"E15": 5000,
		},
	}
}

// Set stores a cell value.
func (s *Submission) Set(axis string, value interface{}) *Submission {
	s.Cells[axis] = value
	return s
}

// Table writes a header row and data rows starting at topLeft.
func (s *Submission) Table(topLeft string, headers []string, rows ...[]interface{}) *Submission {
	col, row, err := excelize.CellNameToCoordinates(topLeft)
	if err != nil {
		panic(err)
	}
	for i, h := range headers {
		axis, _ := excelize.CoordinatesToCellName(col+i, row)
		s.Cells[axis] = h
	}
	for r, values := range rows {
		for i, v := range values {
			axis, _ := excelize.CoordinatesToCellName(col+i, row+1+r)
			s.Cells[axis] = v
		}
	}
	return s
}

// Write saves the workbook under a temporary directory and returns its path.
func (s *Submission) Write(t testing.TB) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	if s.SheetName != "Sheet1" {
		if _, err := f.NewSheet(s.SheetName); err != nil {
			t.Fatalf("failed to create sheet: %v", err)
		}
		if err := f.DeleteSheet("Sheet1"); err != nil {
			t.Fatalf("failed to delete default sheet: %v", err)
		}
	}

	for axis, v := range s.Cells {
		if err := f.SetCellValue(s.SheetName, axis, v); err != nil {
			t.Fatalf("failed to set %s: %v", axis, err)
		}
	}

	path := filepath.Join(t.TempDir(), "submission.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("failed to save workbook: %v", err)
	}
	return path
}
