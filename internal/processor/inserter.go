package processor

import (
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"propcalc/server/internal/database"
	"propcalc/server/internal/models"
)

// BulkWriter performs one bulk database write per batch and reports how many
// rows actually landed.
type BulkWriter interface {
	WriteBatch(batch []*models.Transaction) (int64, error)
}

// GormWriter writes batches through a gorm transaction with
// insert-or-ignore semantics on the natural key.
type GormWriter struct {
	db *gorm.DB
}

func NewGormWriter(db *gorm.DB) *GormWriter {
	return &GormWriter{db: db}
}

func (w *GormWriter) WriteBatch(batch []*models.Transaction) (int64, error) {
	var inserted int64
	err := w.db.Transaction(func(tx *gorm.DB) error {
		n, err := database.UpsertTransactions(tx, batch)
		if err != nil {
			return err
		}
		inserted = n
		return nil
	})
	return inserted, err
}

// InsertStats aggregates the result of inserting one source's records.
type InsertStats struct {
	BulkWrites    int
	RowsInserted  int
	RowsFailed    int
	BatchesFailed int
}

// Inserter groups validated records into fixed-size batches, in row order,
// and performs one bulk write per batch. A failed batch is logged and
// counted; sibling batches are unaffected. With row fallback enabled, a
// failed batch is retried row by row so a single bad row costs only itself.
type Inserter struct {
	writer      BulkWriter
	batchSize   int
	rowFallback bool
	logger      *logrus.Logger
}

func NewInserter(writer BulkWriter, batchSize int, rowFallback bool, logger *logrus.Logger) *Inserter {
	if logger == nil {
		logger = logrus.New()
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Inserter{
		writer:      writer,
		batchSize:   batchSize,
		rowFallback: rowFallback,
		logger:      logger,
	}
}

// InsertAll writes every record, batch by batch, and returns the aggregate
// counts. It never returns an error: batch failures are part of the stats.
func (i *Inserter) InsertAll(records []*models.Transaction) InsertStats {
	var stats InsertStats

	for start := 0; start < len(records); start += i.batchSize {
		end := start + i.batchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[start:end]

		stats.BulkWrites++
		inserted, err := i.writer.WriteBatch(batch)
		if err == nil {
			stats.RowsInserted += int(inserted)
			continue
		}

		i.logger.WithError(err).WithFields(logrus.Fields{
			"batch_start": start,
			"batch_size":  len(batch),
		}).Error("Batch insert failed")
		stats.BatchesFailed++

		if !i.rowFallback {
			stats.RowsFailed += len(batch)
			continue
		}

		for _, record := range batch {
			inserted, err := i.writer.WriteBatch([]*models.Transaction{record})
			if err != nil {
				stats.RowsFailed++
				continue
			}
			stats.RowsInserted += int(inserted)
		}
	}

	return stats
}
