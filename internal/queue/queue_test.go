package queue

import (
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"propcalc/server/internal/models"
)

func TestNewTransactionQueue(t *testing.T) {
	logger := logrus.New()
	q := NewTransactionQueue(10, logger)
	assert.NotNil(t, q)
	assert.Equal(t, 10, q.maxSize)
	assert.False(t, q.IsClosed())
}

func TestTransactionQueue_Push(t *testing.T) {
	logger := logrus.New()
	q := NewTransactionQueue(2, logger)

	// Test successful push
	batch := []*models.Transaction{{TransactionID: "T001"}}
	err := q.Push(batch)
	assert.NoError(t, err)
	assert.Equal(t, 1, q.Len())

	// Test queue full
	for i := 0; i < 2; i++ {
		batch := []*models.Transaction{{TransactionID: "T002"}}
		_ = q.Push(batch)
	}
	err = q.Push(batch)
	assert.Equal(t, ErrQueueFull, err)

	// Test closed queue
	q.Close()
	err = q.Push(batch)
	assert.Equal(t, ErrQueueClosed, err)
}

func TestTransactionQueue_Subscribe(t *testing.T) {
	logger := logrus.New()
	q := NewTransactionQueue(10, logger)

	var processed []*models.Transaction
	var mu sync.Mutex

	// Add handler
	q.Subscribe(func(batch []*models.Transaction) error {
		mu.Lock()
		processed = append(processed, batch...)
		mu.Unlock()
		return nil
	})

	// Start queue
	q.Start()

	// Push items
	testBatch := []*models.Transaction{{TransactionID: "T001"}, {TransactionID: "T002"}}
	err := q.Push(testBatch)
	assert.NoError(t, err)

	// Wait for processing
	time.Sleep(100 * time.Millisecond)

	// Verify processing
	mu.Lock()
	assert.Equal(t, 2, len(processed))
	assert.Equal(t, "T001", processed[0].TransactionID)
	assert.Equal(t, "T002", processed[1].TransactionID)
	mu.Unlock()
}

func TestTransactionQueue_Close(t *testing.T) {
	logger := logrus.New()
	q := NewTransactionQueue(10, logger)

	// Test first close
	err := q.Close()
	assert.NoError(t, err)
	assert.True(t, q.IsClosed())

	// Test second close (should be no-op)
	err = q.Close()
	assert.NoError(t, err)
}

func TestTransactionQueue_ProcessBatch(t *testing.T) {
	logger := logrus.New()
	q := NewTransactionQueue(10, logger)

	var wg sync.WaitGroup
	processedBatches := 0
	var mu sync.Mutex

	// Add multiple handlers
	for i := 0; i < 3; i++ {
		wg.Add(1)
		q.Subscribe(func(batch []*models.Transaction) error {
			mu.Lock()
			processedBatches++
			mu.Unlock()
			wg.Done()
			return nil
		})
	}

	// Start queue
	q.Start()

	// Push a batch
	testBatch := []*models.Transaction{{TransactionID: "T001"}}
	err := q.Push(testBatch)
	assert.NoError(t, err)

	// Wait for all handlers
	wg.Wait()

	// Verify all handlers processed the batch
	mu.Lock()
	assert.Equal(t, 3, processedBatches)
	mu.Unlock()
}
