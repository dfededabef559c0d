package quality

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// column builds a single-column table from cell values.
func column(name string, cells ...string) *Table {
	rows := make([][]string, len(cells))
	for i, cell := range cells {
		rows[i] = []string{cell}
	}
	return NewTable([]string{name}, rows)
}

func TestImprove_DropsSparseColumns(t *testing.T) {
	im := NewImprover(nil)

	// 9 of 10 cells null: above the 80% drop gate.
	table := NewTable(
		[]string{"id", "sparse"},
		[][]string{
			{"1", "x"}, {"2", ""}, {"3", ""}, {"4", ""}, {"5", ""},
			{"6", ""}, {"7", ""}, {"8", ""}, {"9", ""}, {"10", ""},
		},
	)

	improved, log := im.Improve(table)
	assert.Equal(t, []string{"id"}, improved.Columns)
	assert.Contains(t, log, "dropped_column:sparse")
	// The original table is untouched.
	assert.Len(t, table.Columns, 2)
}

func TestImprove_FillsDefaults(t *testing.T) {
	im := NewImprover(nil)

	// 6 of 10 nulls: inside the 50-80% fill band.
	numeric := column("price", "100", "200", "300", "400", "", "", "", "", "", "")
	improved, log := im.Improve(numeric)
	assert.Contains(t, log, "filled_defaults:price")
	assert.Equal(t, "0", improved.Cell(4, 0))

	text := column("name", "a", "b", "c", "d", "", "", "", "", "", "")
	improved, log = im.Improve(text)
	assert.Contains(t, log, "filled_defaults:name")
	assert.Equal(t, "Unknown", improved.Cell(4, 0))
}

func TestImprove_Interpolates(t *testing.T) {
	im := NewImprover(nil)

	// 4 of 10 nulls: inside the 30-50% interpolation band. The leading null
	// has no predecessor, so the backward pass fills it.
	table := NewTable(
		[]string{"id", "price"},
		[][]string{
			{"T001", ""}, {"T002", "100"}, {"T003", ""}, {"T004", "200"},
			{"T005", ""}, {"T006", "300"}, {"T007", "400"}, {"T008", "500"},
			{"T009", "600"}, {"T010", ""},
		},
	)
	improved, log := im.Improve(table)
	require.Contains(t, log, "forward_filled:price")

	assert.Equal(t, "100", improved.Cell(0, 1))
	assert.Equal(t, "100", improved.Cell(2, 1))
	assert.Equal(t, "200", improved.Cell(4, 1))
	assert.Equal(t, "600", improved.Cell(9, 1))
}

func TestImprove_BelowThresholdUntouched(t *testing.T) {
	im := NewImprover(nil)

	// 2 of 10 nulls: below every column gate, so nulls stay. Row ids are
	// unique so the unconditional dedup pass has nothing to drop.
	table := NewTable(
		[]string{"id", "price"},
		[][]string{
			{"T001", "100"}, {"T002", ""}, {"T003", "200"}, {"T004", "300"},
			{"T005", "400"}, {"T006", ""}, {"T007", "500"}, {"T008", "600"},
			{"T009", "700"}, {"T010", "800"},
		},
	)
	improved, log := im.Improve(table)
	assert.Empty(t, log)
	assert.Equal(t, "", improved.Cell(1, 1))
}

func TestImprove_DropsDuplicateRows(t *testing.T) {
	im := NewImprover(nil)

	table := NewTable(
		[]string{"id", "price"},
		[][]string{
			{"T001", "100"},
			{"T002", "200"},
			{"T001", "100"},
			{"T001", "100"},
		},
	)

	improved, log := im.Improve(table)
	assert.Equal(t, 2, improved.RowCount())
	assert.Contains(t, log, "dropped_duplicates:2")
	// First occurrence survives, in order.
	assert.Equal(t, "T001", improved.Cell(0, 0))
	assert.Equal(t, "T002", improved.Cell(1, 0))
}

func TestImprove_CoercesDates(t *testing.T) {
	im := NewImprover(nil)

	table := column("date", "2024-03-15", "15/03/2024", "16/03/2024", "2024-03-17")
	improved, log := im.Improve(table)
	assert.Contains(t, log, "coerced_dates:date")
	assert.Equal(t, "2024-03-15", improved.Cell(1, 0))
	assert.Equal(t, "2024-03-16", improved.Cell(2, 0))
}

func TestImprove_StripsInvalidEmails(t *testing.T) {
	im := NewImprover(nil)

	table := column("email", "a@example.com", "b@example.com", "c@example.com", "not-an-email")
	improved, log := im.Improve(table)
	assert.Contains(t, log, "stripped_invalid:email")
	assert.Equal(t, "", improved.Cell(3, 0))
	assert.Equal(t, "a@example.com", improved.Cell(0, 0))
}

func TestImprove_CleanTableEmptyLog(t *testing.T) {
	im := NewImprover(nil)

	table := NewTable(
		[]string{"id", "price", "date"},
		[][]string{
			{"T001", "1000000", "2024-03-15"},
			{"T002", "2500000", "2024-03-16"},
		},
	)

	improved, log := im.Improve(table)
	assert.NotNil(t, log)
	assert.Empty(t, log)
	assert.Equal(t, table.Rows, improved.Rows)
}
