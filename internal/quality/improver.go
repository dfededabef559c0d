package quality

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Null-ratio gates for the column improvement actions.
const (
	dropThreshold   = 0.8
	fillThreshold   = 0.5
	interpThreshold = 0.3
)

// Improver applies data-quality improvement actions to a table. Actions are
// applied in a fixed order, each gated on the column's null ratio, and every
// applied action is recorded in the improvement log. The log is the only
// audit trail; there is no rollback.
type Improver struct {
	logger *logrus.Logger
}

func NewImprover(logger *logrus.Logger) *Improver {
	if logger == nil {
		logger = logrus.New()
	}
	return &Improver{logger: logger}
}

// Improve returns an improved copy of the table and the log of applied
// actions. The input table is left untouched.
func (im *Improver) Improve(table *Table) (*Table, []string) {
	t := cloneTable(table)
	log := []string{}

	t, log = im.dropSparseColumns(t, log)
	log = im.fillDefaults(t, log)
	log = im.interpolate(t, log)
	t, log = im.dropDuplicateRows(t, log)
	log = im.coerceDates(t, log)
	log = im.stripInvalidCells(t, log)

	for _, action := range log {
		im.logger.WithField("action", action).Debug("Applied quality improvement")
	}
	return t, log
}

// dropSparseColumns removes columns that are more than 80% null.
func (im *Improver) dropSparseColumns(t *Table, log []string) (*Table, []string) {
	keep := make([]int, 0, t.ColumnCount())
	for col := range t.Columns {
		if t.NullRatio(col) > dropThreshold {
			log = append(log, fmt.Sprintf("dropped_column:%s", t.Columns[col]))
			continue
		}
		keep = append(keep, col)
	}
	if len(keep) == t.ColumnCount() {
		return t, log
	}

	columns := make([]string, len(keep))
	for i, col := range keep {
		columns[i] = t.Columns[col]
	}
	rows := make([][]string, len(t.Rows))
	for r := range t.Rows {
		row := make([]string, len(keep))
		for i, col := range keep {
			row[i] = t.Cell(r, col)
		}
		rows[r] = row
	}
	return NewTable(columns, rows), log
}

// fillDefaults fills columns with 50-80% nulls with a type-appropriate
// default: zero for numeric columns, "Unknown" for everything else.
func (im *Improver) fillDefaults(t *Table, log []string) []string {
	for col := range t.Columns {
		ratio := t.NullRatio(col)
		if ratio <= fillThreshold || ratio > dropThreshold {
			continue
		}

		def := "Unknown"
		if t.InferColumnKind(col) == KindNumeric {
			def = "0"
		}
		for row := range t.Rows {
			if t.Cell(row, col) == "" {
				setCell(t, row, col, def)
			}
		}
		log = append(log, fmt.Sprintf("filled_defaults:%s", t.Columns[col]))
	}
	return log
}

// interpolate forward-fills then backward-fills columns with 30-50% nulls.
func (im *Improver) interpolate(t *Table, log []string) []string {
	for col := range t.Columns {
		ratio := t.NullRatio(col)
		if ratio <= interpThreshold || ratio > fillThreshold {
			continue
		}

		last := ""
		for row := range t.Rows {
			if cell := t.Cell(row, col); cell != "" {
				last = cell
			} else if last != "" {
				setCell(t, row, col, last)
			}
		}
		next := ""
		for row := len(t.Rows) - 1; row >= 0; row-- {
			if cell := t.Cell(row, col); cell != "" {
				next = cell
			} else if next != "" {
				setCell(t, row, col, next)
			}
		}
		log = append(log, fmt.Sprintf("forward_filled:%s", t.Columns[col]))
	}
	return log
}

// dropDuplicateRows removes exact duplicate rows, keeping first occurrences.
// This action is unconditional.
func (im *Improver) dropDuplicateRows(t *Table, log []string) (*Table, []string) {
	seen := make(map[string]bool, len(t.Rows))
	kept := make([][]string, 0, len(t.Rows))
	dropped := 0
	for _, row := range t.Rows {
		key := strings.Join(row, "\x1f")
		if seen[key] {
			dropped++
			continue
		}
		seen[key] = true
		kept = append(kept, row)
	}
	if dropped > 0 {
		t = NewTable(t.Columns, kept)
		log = append(log, fmt.Sprintf("dropped_duplicates:%d", dropped))
	}
	return t, log
}

// coerceDates rewrites every parseable cell of date-like columns into
// canonical ISO form.
func (im *Improver) coerceDates(t *Table, log []string) []string {
	for col := range t.Columns {
		if t.InferColumnKind(col) != KindDate {
			continue
		}

		changed := false
		for row := range t.Rows {
			cell := t.Cell(row, col)
			if cell == "" {
				continue
			}
			for _, layout := range cellDateFormats {
				if parsed, err := time.Parse(layout, cell); err == nil {
					iso := parsed.Format("2006-01-02")
					if iso != cell {
						setCell(t, row, col, iso)
						changed = true
					}
					break
				}
			}
		}
		if changed {
			log = append(log, fmt.Sprintf("coerced_dates:%s", t.Columns[col]))
		}
	}
	return log
}

// stripInvalidCells blanks cells in email and phone columns that fail their
// format validation.
func (im *Improver) stripInvalidCells(t *Table, log []string) []string {
	for col := range t.Columns {
		kind := t.InferColumnKind(col)
		if kind != KindEmail && kind != KindPhone {
			continue
		}

		stripped := false
		for row := range t.Rows {
			cell := t.Cell(row, col)
			if cell == "" {
				continue
			}
			if !matchesKind(cell, kind) {
				setCell(t, row, col, "")
				stripped = true
			}
		}
		if stripped {
			log = append(log, fmt.Sprintf("stripped_invalid:%s", t.Columns[col]))
		}
	}
	return log
}

func cloneTable(t *Table) *Table {
	rows := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		rows[i] = append([]string(nil), row...)
	}
	columns := append([]string(nil), t.Columns...)
	return NewTable(columns, rows)
}

// setCell grows ragged rows as needed before writing.
func setCell(t *Table, row, col int, value string) {
	for len(t.Rows[row]) <= col {
		t.Rows[row] = append(t.Rows[row], "")
	}
	t.Rows[row][col] = value
}
