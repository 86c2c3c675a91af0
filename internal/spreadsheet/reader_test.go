package spreadsheet

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeXLSX(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestRead_CSV(t *testing.T) {
	data := "\ufeffItem,Unit Price,Date\nChicken Wings,$12.50,2024-03-01\n,,\nNachos,\"1,200.00\",\n"

	sheet, err := Read("vendor.csv", strings.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, "vendor.csv", sheet.Name)
	assert.Equal(t, []string{"Item", "Unit Price", "Date"}, sheet.Headers)
	require.Len(t, sheet.Rows, 2)
	assert.Equal(t, 2, sheet.Rows[0].Number)
	assert.Equal(t, "Chicken Wings", sheet.Rows[0].Get("Item"))
	assert.Equal(t, 4, sheet.Rows[1].Number)
	assert.Equal(t, "1,200.00", sheet.Rows[1].Get("Unit Price"))
	assert.Equal(t, "", sheet.Rows[1].Get("Missing"))
}

func TestRead_XLSX(t *testing.T) {
	data := writeXLSX(t, [][]interface{}{
		{"Product", "Price"},
		{"Burger", 9.5},
		{"Fries", 4},
	})

	sheet, err := Read("Vendor.XLSX", bytes.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, []string{"Product", "Price"}, sheet.Headers)
	require.Len(t, sheet.Rows, 2)
	assert.Equal(t, "Burger", sheet.Rows[0].Get("Product"))
	assert.Equal(t, "9.5", sheet.Rows[0].Get("Price"))
}

func TestRead_Headers(t *testing.T) {
	t.Run("blank and duplicate headers are renamed", func(t *testing.T) {
		sheet, err := Read("a.csv", strings.NewReader("Name,,Name\nx,y,z\n"))
		require.NoError(t, err)
		assert.Equal(t, []string{"Name", "Column 2", "Name (2)"}, sheet.Headers)
		assert.Equal(t, "z", sheet.Rows[0].Get("Name (2)"))
	})

	t.Run("empty sheet", func(t *testing.T) {
		_, err := Read("a.csv", strings.NewReader(""))
		assert.ErrorIs(t, err, ErrEmptySheet)
	})

	t.Run("blank header row", func(t *testing.T) {
		_, err := Read("a.csv", strings.NewReader(" , \nx,y\n"))
		assert.ErrorIs(t, err, ErrEmptySheet)
	})
}

func TestRead_UnsupportedFormat(t *testing.T) {
	_, err := Read("notes.pdf", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestReadFile(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := ReadFile("x.csv", filepath.Join(t.TempDir(), "x.csv"))
		assert.Error(t, err)
	})
}

func TestSheet_Sample(t *testing.T) {
	sheet, err := Read("a.csv", strings.NewReader("A\n1\n2\n3\n"))
	require.NoError(t, err)

	assert.Len(t, sheet.Sample(2), 2)
	assert.Len(t, sheet.Sample(10), 3)
	assert.Equal(t, "1", sheet.Sample(1)[0]["A"])
}

func TestRead_InvalidXLSX(t *testing.T) {
	_, err := Read("broken.xlsx", strings.NewReader("not a zip"))
	assert.ErrorIs(t, err, ErrInvalidSheet)
}
