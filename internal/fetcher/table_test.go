package fetcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name    string
		want    Format
		wantErr bool
	}{
		{name: "pipeline.csv", want: FormatCSV},
		{name: "PIPELINE.CSV", want: FormatCSV},
		{name: "pacing.xlsx", want: FormatXLSX},
		{name: "pacing.xls", wantErr: true},
		{name: "notes", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectFormat(tt.name)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "unsupported file type")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTableCell_OutOfRange(t *testing.T) {
	tbl := &Table{Rows: [][]string{{"a", " b "}, {"c"}}}
	assert.Equal(t, "b", tbl.Cell(0, 1))
	assert.Equal(t, "", tbl.Cell(1, 1))
	assert.Equal(t, "", tbl.Cell(5, 0))
	assert.Equal(t, "", tbl.Cell(-1, 0))
	assert.Equal(t, -1, tbl.Column("a"))
}

func TestTablePromote(t *testing.T) {
	raw := &Table{Rows: [][]string{{"Source", "ALL"}, {"Q2 Target", "10"}}}
	promoted := raw.Promote()

	assert.Equal(t, []string{"Source", "ALL"}, promoted.Header)
	assert.Equal(t, 1, promoted.Len())
	// original grid unchanged
	assert.Equal(t, 2, raw.Len())
	// already-headed tables are returned as is
	assert.Same(t, promoted, promoted.Promote())
}

func TestTableLen_Nil(t *testing.T) {
	var tbl *Table
	assert.Equal(t, 0, tbl.Len())
}

func TestLoadFile_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.csv")
	require.NoError(t, writeTestFile(path, "GAAP,Forecast\n100,commit\n"))

	tbl, err := LoadFile(context.Background(), path, LoadOptions{Header: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"GAAP", "Forecast"}, tbl.Header)
	assert.Equal(t, "commit", tbl.Cell(0, 1))
}

func TestLoadFile_XLSX(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Pacing": {{"", "Target"}, {"", "1000"}},
	})

	tbl, err := LoadFile(context.Background(), path, LoadOptions{Sheet: "Pacing"})
	require.NoError(t, err)
	assert.Equal(t, "Target", tbl.Cell(0, 1))
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(context.Background(), filepath.Join(t.TempDir(), "nope.csv"), LoadOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open")
}

func TestLoadReader(t *testing.T) {
	tbl, err := LoadReader(context.Background(), "upload.csv", strings.NewReader("a,b\n1,2\n"), LoadOptions{Header: true})
	require.NoError(t, err)
	assert.Equal(t, 1, tbl.Len())

	path := createTestXLSX(t, map[string][][]string{"Sheet1": {{"a"}, {"1"}}})
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	tbl, err = LoadBytes(context.Background(), "upload.xlsx", data, LoadOptions{Header: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, tbl.Header)

	_, err = LoadReader(context.Background(), "upload.pdf", strings.NewReader(""), LoadOptions{})
	require.Error(t, err)
}
