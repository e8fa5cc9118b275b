package workbook_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"homeport-qualifier/internal/models"
	"homeport-qualifier/internal/services/workbook"
	"homeport-qualifier/internal/testutil"
)

func TestOpen_NotFound(t *testing.T) {
	_, err := workbook.Open(filepath.Join(t.TempDir(), "missing.xlsx"))
	assert.True(t, errors.Is(err, models.ErrWorkbookNotFound))
}

func TestOpen_Directory(t *testing.T) {
	_, err := workbook.Open(t.TempDir())
	assert.ErrorIs(t, err, models.ErrWorkbookNotFound)
}

func TestOpen_NotAWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("plain text"), 0o600))

	_, err := workbook.Open(path)
	assert.ErrorIs(t, err, models.ErrWorkbookFormat)
}

func TestWorkbook_CellValue(t *testing.T) {
	path := testutil.NewSubmission().
		Set("B2", 200.5).
		Set("C3", "  padded  ").
		Write(t)

	wb, err := workbook.Open(path)
	require.NoError(t, err)
	defer wb.Close()

	assert.Equal(t, path, wb.Path())
	assert.True(t, wb.HasSheet(models.DefaultSheetName))
	assert.Equal(t, []string{models.DefaultSheetName}, wb.SheetNames())

	v, err := wb.CellValue(models.DefaultSheetName, "E12")
	require.NoError(t, err)
	assert.Equal(t, "100000", v)

	v, err = wb.CellValue(models.DefaultSheetName, "B2")
	require.NoError(t, err)
	assert.Equal(t, "200.5", v)

	v, err = wb.CellValue(models.DefaultSheetName, "C3")
	require.NoError(t, err)
	assert.Equal(t, "  padded  ", v)

	v, err = wb.CellValue(models.DefaultSheetName, "Z99")
	require.NoError(t, err)
	assert.Equal(t, "", v)
}

func TestWorkbook_MissingSheet(t *testing.T) {
	wb, err := workbook.Open(testutil.NewSubmission().Write(t))
	require.NoError(t, err)
	defer wb.Close()

	_, err = wb.CellValue("Version#2", "A1")
	assert.ErrorIs(t, err, models.ErrWorkbookFormat)
}

func TestWorkbook_Closed(t *testing.T) {
	wb, err := workbook.Open(testutil.NewSubmission().Write(t))
	require.NoError(t, err)
	require.NoError(t, wb.Close())
	require.NoError(t, wb.Close())

	_, err = wb.CellValue(models.DefaultSheetName, "E6")
	assert.ErrorIs(t, err, workbook.ErrClosed)
}

func TestWorkbook_FormulaReturnsCachedValue(t *testing.T) {
	f := excelize.NewFile()
	sheet := models.DefaultSheetName
	require.NoError(t, f.SetSheetName("Sheet1", sheet))
	require.NoError(t, f.SetCellValue(sheet, "A1", 60000))
	require.NoError(t, f.SetCellValue(sheet, "A2", 40000))
	require.NoError(t, f.SetCellValue(sheet, "E12", 100000))
	require.NoError(t, f.SetCellFormula(sheet, "E12", "SUM(A1:A2)"))

	path := filepath.Join(t.TempDir(), "formula.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	wb, err := workbook.Open(path)
	require.NoError(t, err)
	defer wb.Close()

	v, err := wb.CellValue(sheet, "E12")
	require.NoError(t, err)
	assert.Equal(t, "100000", v)
	assert.NotContains(t, v, "SUM")
}
