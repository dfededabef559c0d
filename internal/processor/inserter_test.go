package processor

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"propcalc/server/internal/models"
)

// failingWriter fails whole-batch writes for chosen batch numbers, and
// single-row writes for chosen transaction ids.
type failingWriter struct {
	calls     int
	batches   [][]*models.Transaction
	failCalls map[int]bool
	failRows  map[string]bool
}

func (w *failingWriter) WriteBatch(batch []*models.Transaction) (int64, error) {
	w.calls++
	w.batches = append(w.batches, batch)
	if w.failCalls[w.calls] {
		return 0, errors.New("constraint violation")
	}
	for _, txn := range batch {
		if w.failRows[txn.TransactionID] {
			return 0, errors.New("bad row")
		}
	}
	return int64(len(batch)), nil
}

func makeTransactions(n int) []*models.Transaction {
	records := make([]*models.Transaction, n)
	for i := range records {
		records[i] = &models.Transaction{TransactionID: fmt.Sprintf("T%04d", i)}
	}
	return records
}

func TestInsertAll_BatchesInOrder(t *testing.T) {
	writer := &failingWriter{}
	inserter := NewInserter(writer, 100, false, nil)

	stats := inserter.InsertAll(makeTransactions(1000))

	assert.Equal(t, 10, writer.calls)
	assert.Equal(t, 10, stats.BulkWrites)
	assert.Equal(t, 1000, stats.RowsInserted)
	assert.Equal(t, 0, stats.RowsFailed)
	assert.Equal(t, 0, stats.BatchesFailed)

	// Row order is preserved across batch boundaries.
	assert.Equal(t, "T0000", writer.batches[0][0].TransactionID)
	assert.Equal(t, "T0100", writer.batches[1][0].TransactionID)
	assert.Equal(t, "T0999", writer.batches[9][99].TransactionID)
}

func TestInsertAll_PartialFinalBatch(t *testing.T) {
	writer := &failingWriter{}
	inserter := NewInserter(writer, 100, false, nil)

	stats := inserter.InsertAll(makeTransactions(250))

	assert.Equal(t, 3, writer.calls)
	assert.Len(t, writer.batches[2], 50)
	assert.Equal(t, 250, stats.RowsInserted)
}

func TestInsertAll_FailedBatchDoesNotAffectSiblings(t *testing.T) {
	writer := &failingWriter{failCalls: map[int]bool{7: true}}
	inserter := NewInserter(writer, 100, false, nil)

	stats := inserter.InsertAll(makeTransactions(1000))

	assert.Equal(t, 900, stats.RowsInserted)
	assert.Equal(t, 100, stats.RowsFailed)
	assert.Equal(t, 1, stats.BatchesFailed)
	assert.Equal(t, 10, stats.BulkWrites)
}

func TestInsertAll_RowFallback(t *testing.T) {
	// With fallback on, a failed batch is retried row by row and only the
	// poisoned row is lost.
	writer := &failingWriter{failRows: map[string]bool{"T0042": true}}
	inserter := NewInserter(writer, 100, true, nil)

	stats := inserter.InsertAll(makeTransactions(200))

	assert.Equal(t, 199, stats.RowsInserted)
	assert.Equal(t, 1, stats.RowsFailed)
	assert.Equal(t, 1, stats.BatchesFailed)
	// 2 bulk writes plus 100 single-row retries for the failed batch.
	assert.Equal(t, 102, writer.calls)
}

func TestInsertAll_Empty(t *testing.T) {
	writer := &failingWriter{}
	inserter := NewInserter(writer, 100, false, nil)

	stats := inserter.InsertAll(nil)
	assert.Zero(t, stats.BulkWrites)
	assert.Zero(t, stats.RowsInserted)
}
