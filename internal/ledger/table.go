package ledger

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
)

// Table is a rectangular table with a fixed header row. Cells are kept as
// exact text so values round-trip byte-for-byte through CSV; the row
// checksum depends on that.
type Table struct {
	Path    string
	Columns []string
	Rows    [][]string
}

// NewTable creates an empty in-memory table with the given header.
func NewTable(path string, columns []string) *Table {
	return &Table{Path: path, Columns: append([]string(nil), columns...)}
}

// LoadTable reads a CSV file into a Table.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read table: %w", err)
	}

	r := csv.NewReader(bytes.NewReader(data))
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse table %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("table %s has no header row", path)
	}

	return &Table{Path: path, Columns: records[0], Rows: records[1:]}, nil
}

// Save writes the table back to its path, header first.
func (t *Table) Save() error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(t.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range t.Rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush table: %w", err)
	}
	if err := os.WriteFile(t.Path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("save table %s: %w", t.Path, err)
	}
	return nil
}

// ColumnIndex returns the position of a named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Cell returns the text of a named cell. Missing columns read as empty.
func (t *Table) Cell(row int, column string) string {
	i := t.ColumnIndex(column)
	if i < 0 || row < 0 || row >= len(t.Rows) {
		return ""
	}
	return t.Rows[row][i]
}

// SetCell replaces the text of a named cell.
func (t *Table) SetCell(row int, column, value string) {
	i := t.ColumnIndex(column)
	if i < 0 || row < 0 || row >= len(t.Rows) {
		return
	}
	t.Rows[row][i] = value
}

// Kind classifies a cell's inferred type, mirroring how the tabular store
// types columns: bool literals before numbers, integers before floats.
type Kind int

const (
	KindEmpty Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	}
	return "str"
}

// KindOf infers the type of a cell from its text.
func KindOf(cell string) Kind {
	s := strings.TrimSpace(cell)
	if s == "" {
		return KindEmpty
	}
	switch s {
	case "True", "true", "TRUE", "False", "false", "FALSE":
		return KindBool
	}
	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		return KindInt
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return KindFloat
	}
	return KindString
}

// ParseChecksum reads a checksum cell. Empty cells mean "never computed"
// and read as NaN.
func ParseChecksum(cell string) (float64, error) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("checksum cell %q is not a number", cell)
	}
	return v, nil
}

// FormatChecksum renders a checksum for the CSV. Values are integral and
// bounded, so one decimal digit round-trips exactly.
func FormatChecksum(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}
