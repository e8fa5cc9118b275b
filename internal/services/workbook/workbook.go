// Package workbook provides read-only access to spreadsheet cells and
// rectangular ranges.
package workbook

import (
	"errors"
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"

	"homeport-qualifier/internal/models"
)

// ErrClosed is returned when reading from a closed workbook.
var ErrClosed = errors.New("workbook is closed")

// CellSource is anything that can return the cached value of a cell.
type CellSource interface {
	CellValue(sheet, axis string) (string, error)
}

// Workbook is an opened spreadsheet. It exposes values only; formula cells
// return their cached result.
type Workbook struct {
	path   string
	file   *excelize.File
	sheets map[string]bool
}

// Open opens the workbook at path.
func Open(path string) (*Workbook, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", models.ErrWorkbookNotFound, path)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", models.ErrWorkbookNotFound, path)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) || errors.Is(err, os.ErrPermission) {
			return nil, fmt.Errorf("%w: %s", models.ErrWorkbookNotFound, path)
		}
		return nil, fmt.Errorf("%w: %s: %v", models.ErrWorkbookFormat, path, err)
	}

	sheets := make(map[string]bool)
	for _, name := range f.GetSheetList() {
		sheets[name] = true
	}

	return &Workbook{
		path:   path,
		file:   f,
		sheets: sheets,
	}, nil
}

// Path returns the file the workbook was opened from.
func (w *Workbook) Path() string {
	return w.path
}

// SheetNames returns the sheet names in workbook order.
func (w *Workbook) SheetNames() []string {
	return w.file.GetSheetList()
}

// HasSheet reports whether the workbook contains the named sheet.
func (w *Workbook) HasSheet(sheet string) bool {
	return w.sheets[sheet]
}

// CellValue returns the raw cached value of a cell, or "" when it is empty.
func (w *Workbook) CellValue(sheet, axis string) (string, error) {
	if w.file == nil {
		return "", ErrClosed
	}
	if !w.sheets[sheet] {
		return "", fmt.Errorf("%w: sheet %q does not exist", models.ErrWorkbookFormat, sheet)
	}

	value, err := w.file.GetCellValue(sheet, axis, excelize.Options{RawCellValue: true})
	if err != nil {
		return "", fmt.Errorf("%w: read %s!%s: %v", models.ErrWorkbookFormat, sheet, axis, err)
	}
	return value, nil
}

// Close releases the underlying file.
func (w *Workbook) Close() error {
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}
