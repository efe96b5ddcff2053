package fetcher

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func createTestXLSX(t *testing.T, sheets map[string][][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	for name, rows := range sheets {
		sheet, err := f.AddSheet(name)
		require.NoError(t, err)
		for _, rowData := range rows {
			row := sheet.AddRow()
			for _, cellData := range rowData {
				cell := row.AddCell()
				cell.SetString(cellData)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "test.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestReadXLSX_Header(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Sheet1": {
			{"Account Name", "GAAP", "Forecast"},
			{"Acme", "100", "Commit"},
			{"Globex", "200", "Upside"},
		},
	})

	tbl, err := ReadXLSX(path, XLSXOptions{Header: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"Account Name", "GAAP", "Forecast"}, tbl.Header)
	require.Equal(t, 2, tbl.Len())
	assert.Equal(t, "Globex", tbl.Cell(1, 0))
}

func TestReadXLSX_RawGrid(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Sheet1": {{"a", "b"}, {"c", "d"}},
	})

	tbl, err := ReadXLSX(path, XLSXOptions{})
	require.NoError(t, err)
	assert.Empty(t, tbl.Header)
	assert.Equal(t, 2, tbl.Len())
}

func TestReadXLSX_SheetName(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"First":  {{"a", "b"}},
		"Second": {{"x", "y"}, {"1", "2"}},
	})

	tbl, err := ReadXLSX(path, XLSXOptions{SheetName: "Second"})
	require.NoError(t, err)
	require.Equal(t, 2, tbl.Len())
	assert.Equal(t, []string{"x", "y"}, tbl.Rows[0])
}

func TestReadXLSX_SheetNameNotFound(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{"Sheet1": {{"a"}}})

	_, err := ReadXLSX(path, XLSXOptions{SheetName: "Missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestReadXLSX_SheetIndexOutOfRange(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{"Sheet1": {{"a"}}})

	_, err := ReadXLSX(path, XLSXOptions{SheetIndex: 5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestReadXLSXBytes(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Sheet1": {{"Source", "ALL"}, {"Q2 Target", "115000000"}},
	})
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	tbl, err := ReadXLSXBytes(data, XLSXOptions{Header: true})
	require.NoError(t, err)
	assert.Equal(t, 1, tbl.Column("ALL"))
	assert.Equal(t, "115000000", tbl.Cell(0, 1))
}

func TestReadXLSXBytes_NotAWorkbook(t *testing.T) {
	_, err := ReadXLSXBytes([]byte("not a zip"), XLSXOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xlsx")
}
