package fetcher

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// Format is a supported tabular file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// Table is a rectangular-ish grid of string cells. Header is empty for raw
// grids such as positional pacing sheets.
type Table struct {
	Header []string   `json:"header,omitempty" yaml:"header,omitempty"`
	Rows   [][]string `json:"rows" yaml:"rows"`
}

// LoadOptions controls how a file is turned into a Table.
type LoadOptions struct {
	Header bool   // first row is the header
	Sheet  string // XLSX sheet name (default: first sheet)
}

func newTable(rows [][]string, header bool) *Table {
	t := &Table{Rows: rows}
	if header && len(rows) > 0 {
		t.Header = make([]string, len(rows[0]))
		for i, h := range rows[0] {
			t.Header[i] = strings.TrimSpace(h)
		}
		t.Rows = rows[1:]
	}
	return t
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Column returns the index of the header named name, or -1.
func (t *Table) Column(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// Cell returns the trimmed cell at (row, col), or "" when out of range.
func (t *Table) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return ""
	}
	return strings.TrimSpace(t.Rows[row][col])
}

// Promote returns a copy of a raw grid whose first row is used as the header.
func (t *Table) Promote() *Table {
	if len(t.Header) > 0 {
		return t
	}
	return newTable(t.Rows, true)
}

// DetectFormat picks a Format from a file name's extension.
func DetectFormat(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	default:
		return "", eris.Errorf("fetcher: unsupported file type %q (want .csv or .xlsx)", filepath.Ext(name))
	}
}

// LoadFile reads a CSV or XLSX file from disk.
func LoadFile(ctx context.Context, path string, opts LoadOptions) (*Table, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	if format == FormatXLSX {
		t, err := ReadXLSX(path, XLSXOptions{SheetName: opts.Sheet, Header: opts.Header})
		if err != nil {
			return nil, eris.Wrapf(err, "fetcher: load %s", path)
		}
		return t, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	t, err := ReadCSV(ctx, f, opts.Header)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: load %s", path)
	}
	return t, nil
}

// LoadReader reads an uploaded CSV or XLSX body. name is used only to detect
// the format.
func LoadReader(ctx context.Context, name string, r io.Reader, opts LoadOptions) (*Table, error) {
	format, err := DetectFormat(name)
	if err != nil {
		return nil, err
	}

	if format == FormatXLSX {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, eris.Wrapf(err, "fetcher: read upload %s", name)
		}
		return ReadXLSXBytes(data, XLSXOptions{SheetName: opts.Sheet, Header: opts.Header})
	}

	return ReadCSV(ctx, r, opts.Header)
}

// LoadBytes is LoadReader over an in-memory body.
func LoadBytes(ctx context.Context, name string, data []byte, opts LoadOptions) (*Table, error) {
	return LoadReader(ctx, name, bytes.NewReader(data), opts)
}
