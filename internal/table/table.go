// Package table loads uploaded delimited text and workbook files into an
// in-memory table of typed cells.
package table

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Format identifies how raw bytes are parsed.
type Format string

const (
	FormatDelimited Format = "csv"
	FormatWorkbook  Format = "xlsx"
)

// ErrParse is matched by every error Load returns for malformed input.
var ErrParse = errors.New("parse error")

// ParseError reports a structural failure while loading a table.
type ParseError struct {
	Format Format
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse %s: %s: %v", e.Format, e.Reason, e.Err)
	}
	return fmt.Sprintf("parse %s: %s", e.Format, e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrParse) true for any *ParseError.
func (e *ParseError) Is(target error) bool { return target == ErrParse }

func parseErr(f Format, reason string, err error) *ParseError {
	return &ParseError{Format: f, Reason: reason, Err: err}
}

// LoadOptions tunes the readers. The zero value reads comma separated UTF-8.
type LoadOptions struct {
	// Delimiter for delimited text. If 0, ',' is used.
	Delimiter rune
	// Encoding of delimited text: "", "utf-8", "gbk" or "gb18030".
	Encoding string
}

// Table is an ordered set of uniquely named columns and rows of typed cells.
// Every row has exactly len(Columns) cells.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]Value

	index map[string]int
}

// New builds a table from a header and raw string records. Header names are
// made unique and records are padded with Missing to the header width.
// Records wider than the header are rejected.
func New(name string, header []string, records [][]string) (*Table, error) {
	t := &Table{Name: name, Columns: uniqueColumns(header)}
	t.buildIndex()
	t.Rows = make([][]Value, 0, len(records))
	for i, rec := range records {
		if len(rec) > len(t.Columns) {
			return nil, fmt.Errorf("row %d: expected %d fields, saw %d", i+1, len(t.Columns), len(rec))
		}
		row := make([]Value, len(t.Columns))
		for j, raw := range rec {
			row[j] = Infer(raw)
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func (t *Table) buildIndex() {
	t.index = make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		t.index[c] = i
	}
}

// Index returns the position of a column by exact name. It never writes to
// t; tables built as literals fall back to a scan of Columns.
func (t *Table) Index(name string) (int, bool) {
	if t.index != nil {
		i, ok := t.index[name]
		return i, ok
	}
	for i, c := range t.Columns {
		if c == name {
			return i, true
		}
	}
	return -1, false
}

// Column returns the cells of the named column, or nil if it does not exist.
func (t *Table) Column(name string) []Value {
	idx, ok := t.Index(name)
	if !ok {
		return nil
	}
	out := make([]Value, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row[idx]
	}
	return out
}

// ColumnType labels a column by the kinds of its cells:
// integer, float, text or empty.
func (t *Table) ColumnType(idx int) string {
	var ints, floats, texts, missing int
	for _, row := range t.Rows {
		switch row[idx].Kind {
		case Integer:
			ints++
		case Float:
			floats++
		case Text:
			texts++
		default:
			missing++
		}
	}
	switch {
	case texts > 0:
		return "text"
	case ints+floats == 0:
		return "empty"
	case floats == 0 && missing == 0:
		return "integer"
	default:
		return "float"
	}
}

// uniqueColumns trims names, names blank headers "Unnamed: i" and suffixes
// repeats with ".1", ".2", ...
func uniqueColumns(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]bool, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		base := name
		for n := 1; seen[name]; n++ {
			name = base + "." + strconv.Itoa(n)
		}
		seen[name] = true
		out[i] = name
	}
	return out
}

// Load parses raw bytes in the given format. The first row is the header;
// workbooks are read from their first sheet only.
func Load(data []byte, format Format, opt LoadOptions) (*Table, error) {
	if len(data) == 0 {
		return nil, parseErr(format, "empty file", nil)
	}
	switch format {
	case FormatDelimited:
		return loadDelimited(data, opt)
	case FormatWorkbook:
		return loadWorkbook(data)
	default:
		return nil, parseErr(format, "unsupported format", nil)
	}
}
