package quality

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ColumnKind classifies what a column's cells are expected to look like.
type ColumnKind int

const (
	KindString ColumnKind = iota
	KindNumeric
	KindDate
	KindEmail
	KindPhone
)

func (k ColumnKind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindDate:
		return "date"
	case KindEmail:
		return "email"
	case KindPhone:
		return "phone"
	default:
		return "string"
	}
}

// Table is a full in-memory view of one parsed CSV: ordered column names
// plus row-major string cells. Empty strings are nulls.
type Table struct {
	Columns []string
	Rows    [][]string
}

func NewTable(columns []string, rows [][]string) *Table {
	return &Table{Columns: columns, Rows: rows}
}

func (t *Table) RowCount() int {
	return len(t.Rows)
}

func (t *Table) ColumnCount() int {
	return len(t.Columns)
}

// Cell returns the cell at (row, col), or "" when the row is ragged.
func (t *Table) Cell(row, col int) string {
	if col < len(t.Rows[row]) {
		return t.Rows[row][col]
	}
	return ""
}

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9][0-9 \-()]{6,}$`)
)

var cellDateFormats = []string{"2006-01-02", "02/01/2006", "01/02/2006"}

func isNumericCell(cell string) bool {
	_, err := strconv.ParseFloat(strings.ReplaceAll(cell, ",", ""), 64)
	return err == nil
}

func isDateCell(cell string) bool {
	for _, layout := range cellDateFormats {
		if _, err := time.Parse(layout, cell); err == nil {
			return true
		}
	}
	return false
}

func isEmailCell(cell string) bool {
	return emailPattern.MatchString(cell)
}

func isPhoneCell(cell string) bool {
	return phonePattern.MatchString(cell)
}

// cellKind classifies a single non-empty cell.
func cellKind(cell string) ColumnKind {
	switch {
	case isNumericCell(cell):
		return KindNumeric
	case isDateCell(cell):
		return KindDate
	case isEmailCell(cell):
		return KindEmail
	case isPhoneCell(cell):
		return KindPhone
	default:
		return KindString
	}
}

// InferColumnKind picks the dominant kind among a column's non-null cells.
// An all-null column counts as string.
func (t *Table) InferColumnKind(col int) ColumnKind {
	counts := make(map[ColumnKind]int)
	for row := range t.Rows {
		cell := t.Cell(row, col)
		if cell == "" {
			continue
		}
		counts[cellKind(cell)]++
	}

	best := KindString
	bestCount := 0
	for kind, count := range counts {
		if count > bestCount {
			best = kind
			bestCount = count
		}
	}
	return best
}

// NullRatio reports the fraction of null cells in a column.
func (t *Table) NullRatio(col int) float64 {
	if len(t.Rows) == 0 {
		return 0
	}
	nulls := 0
	for row := range t.Rows {
		if t.Cell(row, col) == "" {
			nulls++
		}
	}
	return float64(nulls) / float64(len(t.Rows))
}

// matchesKind reports whether a non-empty cell is well-formed for a kind.
// Plain strings have no format to violate.
func matchesKind(cell string, kind ColumnKind) bool {
	switch kind {
	case KindNumeric:
		return isNumericCell(cell)
	case KindDate:
		return isDateCell(cell)
	case KindEmail:
		return isEmailCell(cell)
	case KindPhone:
		return isPhoneCell(cell)
	default:
		return true
	}
}
