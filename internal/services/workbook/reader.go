package workbook

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"homeport-qualifier/internal/models"
)

// CellRange is an inclusive rectangle of 1-based coordinates.
type CellRange struct {
	MinCol, MinRow int
	MaxCol, MaxRow int
}

// ParseRange parses "A1" or "A1:C5". Corners may be given in any order.
func ParseRange(loc string) (CellRange, error) {
	loc = strings.TrimSpace(loc)
	parts := strings.Split(strings.ReplaceAll(loc, "$", ""), ":")
	if loc == "" || len(parts) > 2 {
		return CellRange{}, fmt.Errorf("%w: %q", models.ErrInvalidLocation, loc)
	}

	col1, row1, err := excelize.CellNameToCoordinates(parts[0])
	if err != nil {
		return CellRange{}, fmt.Errorf("%w: %q: %v", models.ErrInvalidLocation, loc, err)
	}
	col2, row2 := col1, row1
	if len(parts) == 2 {
		col2, row2, err = excelize.CellNameToCoordinates(parts[1])
		if err != nil {
			return CellRange{}, fmt.Errorf("%w: %q: %v", models.ErrInvalidLocation, loc, err)
		}
	}

	return CellRange{
		MinCol: min(col1, col2),
		MinRow: min(row1, row2),
		MaxCol: max(col1, col2),
		MaxRow: max(row1, row2),
	}, nil
}

// IsRange reports whether loc names more than a single cell address.
func IsRange(loc string) bool {
	return strings.Contains(loc, ":")
}

// readGrid returns the cell values of r row by row.
func readGrid(src CellSource, sheet string, r CellRange) ([][]string, error) {
	grid := make([][]string, 0, r.MaxRow-r.MinRow+1)
	for row := r.MinRow; row <= r.MaxRow; row++ {
		values := make([]string, 0, r.MaxCol-r.MinCol+1)
		for col := r.MinCol; col <= r.MaxCol; col++ {
			axis, err := excelize.CoordinatesToCellName(col, row)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", models.ErrInvalidLocation, err)
			}
			v, err := src.CellValue(sheet, axis)
			if err != nil {
				return nil, err
			}
			values = append(values, v)
		}
		grid = append(grid, values)
	}
	return grid, nil
}

// Record is a flat set of named cell values.
type Record map[string]string

// ReadMapping reads every mapped location into one record. A single cell is
// stored under its field name; a range is expanded row by row into field1,
// field2, ... in reading order.
func ReadMapping(src CellSource, sheet string, mapping models.CellMapping) (Record, error) {
	record := make(Record, len(mapping))

	for _, loc := range mapping {
		r, err := ParseRange(loc.Location)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", loc.Field, err)
		}

		if !IsRange(loc.Location) {
			axis, _ := excelize.CoordinatesToCellName(r.MinCol, r.MinRow)
			v, err := src.CellValue(sheet, axis)
			if err != nil {
				return nil, err
			}
			record[loc.Field] = v
			continue
		}

		grid, err := readGrid(src, sheet, r)
		if err != nil {
			return nil, err
		}
		idx := 1
		for _, row := range grid {
			for _, v := range row {
				record[loc.Field+strconv.Itoa(idx)] = v
				idx++
			}
		}
	}

	return record, nil
}

// TabularExtract is a header-keyed table read from a range.
type TabularExtract struct {
	Columns []string
	Rows    [][]string
	// Warnings lists duplicate header names; the later column wins on lookup.
	Warnings []string
}

// Empty reports whether the extract has no records.
func (t *TabularExtract) Empty() bool {
	return t == nil || len(t.Rows) == 0
}

// ColumnIndex returns the index of the named column, or -1. With duplicate
// names the last column is returned.
func (t *TabularExtract) ColumnIndex(name string) int {
	for i := len(t.Columns) - 1; i >= 0; i-- {
		if t.Columns[i] == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the named column exists.
func (t *TabularExtract) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// Value returns the cell of row i in the named column.
func (t *TabularExtract) Value(i int, column string) (string, bool) {
	idx := t.ColumnIndex(column)
	if idx < 0 || i < 0 || i >= len(t.Rows) {
		return "", false
	}
	return t.Rows[i][idx], true
}

// NormalizeHeaders collapses internal whitespace runs in column names to a
// single space and refreshes the duplicate warnings.
func (t *TabularExtract) NormalizeHeaders() {
	for i, c := range t.Columns {
		t.Columns[i] = strings.Join(strings.Fields(c), " ")
	}
	t.Warnings = duplicateWarnings(t.Columns)
}

// ReadTable reads a range whose first row holds column headers. Headers are
// trimmed and blank ones become "Column_<i>". Columns and rows that are empty
// across all data cells are dropped.
func ReadTable(src CellSource, sheet, rng string) (*TabularExtract, error) {
	r, err := ParseRange(rng)
	if err != nil {
		return nil, err
	}

	grid, err := readGrid(src, sheet, r)
	if err != nil {
		return nil, err
	}
	if len(grid) < 2 {
		return &TabularExtract{}, nil
	}

	headers := make([]string, len(grid[0]))
	for i, h := range grid[0] {
		h = strings.TrimSpace(h)
		if h == "" {
			h = "Column_" + strconv.Itoa(i)
		}
		headers[i] = h
	}
	data := grid[1:]

	keep := make([]int, 0, len(headers))
	for col := range headers {
		for _, row := range data {
			if row[col] != "" {
				keep = append(keep, col)
				break
			}
		}
	}

	out := &TabularExtract{Columns: make([]string, 0, len(keep))}
	for _, col := range keep {
		out.Columns = append(out.Columns, headers[col])
	}

	for _, row := range data {
		values := make([]string, len(keep))
		nonEmpty := false
		for i, col := range keep {
			values[i] = row[col]
			if row[col] != "" {
				nonEmpty = true
			}
		}
		if nonEmpty {
			out.Rows = append(out.Rows, values)
		}
	}

	if len(out.Rows) == 0 {
		return &TabularExtract{}, nil
	}

	out.Warnings = duplicateWarnings(out.Columns)
	return out, nil
}

func duplicateWarnings(columns []string) []string {
	var warnings []string
	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		if seen[c] {
			warnings = append(warnings, fmt.Sprintf("duplicate column %q: later column shadows earlier", c))
			continue
		}
		seen[c] = true
	}
	return warnings
}
