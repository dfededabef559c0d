package ingest

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"propcalc/server/config"
	"propcalc/server/internal/database"
	"propcalc/server/internal/fetcher"
	"propcalc/server/internal/geometry"
	"propcalc/server/internal/models"
	"propcalc/server/internal/parser"
	"propcalc/server/internal/processor"
	"propcalc/server/internal/quality"
)

// Stage is where a source's run currently is. Once a run enters
// StageInserting there are no whole-pipeline retries; only the fetch step
// retries internally.
type Stage int

const (
	StagePending Stage = iota
	StageFetching
	StageParsing
	StageValidating
	StageInserting
	StageCompleted
	StageFailed
)

func (s Stage) String() string {
	switch s {
	case StagePending:
		return "pending"
	case StageFetching:
		return "fetching"
	case StageParsing:
		return "parsing"
	case StageValidating:
		return "validating"
	case StageInserting:
		return "inserting"
	case StageCompleted:
		return "completed"
	case StageFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Pipeline ingests one CSV source end to end: fetch, parse, validate,
// batch-insert, quality report. Fetch and schema failures abort the run;
// row and batch failures are tallied and reported.
type Pipeline struct {
	fetcher    *fetcher.Fetcher
	db         *database.Database
	inserter   *processor.Inserter
	scorer     *quality.Scorer
	improver   *quality.Improver
	boundaries *geometry.AreaIndex
	logger     *logrus.Logger
}

func NewPipeline(
	f *fetcher.Fetcher,
	db *database.Database,
	inserter *processor.Inserter,
	scorer *quality.Scorer,
	improver *quality.Improver,
	boundaries *geometry.AreaIndex,
	logger *logrus.Logger,
) *Pipeline {
	if logger == nil {
		logger = logrus.New()
	}
	return &Pipeline{
		fetcher:    f,
		db:         db,
		inserter:   inserter,
		scorer:     scorer,
		improver:   improver,
		boundaries: boundaries,
		logger:     logger,
	}
}

// Run ingests one source and returns its processing result plus the quality
// report for the parsed table (nil when the run dies before rows exist).
func (p *Pipeline) Run(ctx context.Context, runID string, source config.Source) (models.ProcessingResult, *models.QualityReport) {
	result := models.ProcessingResult{
		RunID:     runID,
		Source:    source.Name,
		Stage:     StagePending.String(),
		StartedAt: time.Now().UTC(),
	}
	started := time.Now()

	p.logger.WithFields(logrus.Fields{
		"run_id": runID,
		"source": source.Name,
		"url":    source.URL,
	}).Info("Starting ingestion run")

	result.Stage = StageFetching.String()
	stream, err := p.fetcher.Stream(ctx, source.URL)
	if err != nil {
		return p.fail(result, started, err), nil
	}
	defer stream.Close()

	result.Stage = StageParsing.String()
	records, err := parser.NewRecordStream(source.Name, source.Schema, stream)
	if err != nil {
		return p.fail(result, started, err), nil
	}

	var report *models.QualityReport
	if source.Schema == config.SchemaAreas {
		result, report = p.runAreas(runID, source, records, result, started)
	} else {
		result, report = p.runTransactions(runID, source, records, result, started)
	}

	if report != nil {
		if err := p.db.SaveQualityReport(*report); err != nil {
			p.logger.WithError(err).Warn("Failed to persist quality report")
		}
	}
	return result, report
}

// runAreas bulk-loads the area lookup table.
func (p *Pipeline) runAreas(runID string, source config.Source, records *parser.RecordStream, result models.ProcessingResult, started time.Time) (models.ProcessingResult, *models.QualityReport) {
	var areas []models.Area
	var rawRows [][]string

	result.Stage = StageValidating.String()
	for {
		row, raw, err := records.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		var rowErr *parser.RowError
		if errors.As(err, &rowErr) {
			result.RowsProcessed++
			result.RowsFailed++
			continue
		}
		if err != nil {
			// Stream errors are sticky; retrying the read would loop forever.
			return p.fail(result, started, err), nil
		}

		result.RowsProcessed++
		rawRows = append(rawRows, raw)
		area, ok := parser.ParseAreaRow(row)
		if !ok {
			result.RowsFailed++
			continue
		}
		areas = append(areas, area)
	}

	result.Stage = StageInserting.String()
	if err := p.db.UpsertAreas(areas); err != nil {
		return p.fail(result, started, err), nil
	}
	result.RowsInserted = len(areas)

	report := p.qualityReport(runID, source.Name, records.Header(), rawRows, len(areas))
	return p.complete(result, started), report
}

// runTransactions streams, validates, and batch-inserts transaction rows in
// file order.
func (p *Pipeline) runTransactions(runID string, source config.Source, records *parser.RecordStream, result models.ProcessingResult, started time.Time) (models.ProcessingResult, *models.QualityReport) {
	areas, err := p.db.LoadAreas()
	if err != nil {
		p.logger.WithError(err).Warn("Failed to load area lookup table, resolving no area names")
	}
	rowParser := parser.NewParser(source.Schema, parser.NewAreaTable(areas), p.logger)

	var accepted []*models.Transaction
	var rawRows [][]string

	result.Stage = StageValidating.String()
	for {
		row, raw, err := records.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		var rowErr *parser.RowError
		if errors.As(err, &rowErr) {
			result.RowsProcessed++
			result.RowsFailed++
			continue
		}
		if err != nil {
			// Stream errors are sticky; retrying the read would loop forever.
			return p.fail(result, started, err), nil
		}

		result.RowsProcessed++
		rawRows = append(rawRows, raw)

		txn, rejection := rowParser.ParseRow(records.Row(), row)
		if rejection != nil {
			result.RowsFailed++
			p.logger.WithFields(logrus.Fields{
				"source": source.Name,
				"row":    rejection.Row,
				"reason": rejection.Reason,
			}).Debug("Rejected row")
			continue
		}

		p.enrichCoordinates(txn)
		accepted = append(accepted, txn)
	}

	result.Stage = StageInserting.String()
	stats := p.inserter.InsertAll(accepted)
	result.RowsInserted = stats.RowsInserted
	result.RowsFailed += stats.RowsFailed
	result.BatchesFailed = stats.BatchesFailed

	report := p.qualityReport(runID, source.Name, records.Header(), rawRows, len(accepted))
	return p.complete(result, started), report
}

// enrichCoordinates attaches the area boundary centroid when one is loaded.
func (p *Pipeline) enrichCoordinates(txn *models.Transaction) {
	if p.boundaries == nil || p.boundaries.Len() == 0 {
		return
	}
	if lat, lon, ok := p.boundaries.Centroid(txn.Location); ok {
		txn.Latitude = &lat
		txn.Longitude = &lon
	}
}

func (p *Pipeline) qualityReport(runID, source string, header []string, rawRows [][]string, validRows int) *models.QualityReport {
	table := quality.NewTable(header, rawRows)
	_, improvements := p.improver.Improve(table)
	report := p.scorer.Report(runID, source, table, validRows, improvements)
	return &report
}

func (p *Pipeline) fail(result models.ProcessingResult, started time.Time, err error) models.ProcessingResult {
	result.Success = false
	result.Error = err.Error()
	result.Elapsed = time.Since(started)
	p.logger.WithError(err).WithFields(logrus.Fields{
		"source": result.Source,
		"stage":  result.Stage,
	}).Error("Ingestion run failed")
	result.Stage = StageFailed.String()
	return result
}

func (p *Pipeline) complete(result models.ProcessingResult, started time.Time) models.ProcessingResult {
	result.Success = true
	result.Stage = StageCompleted.String()
	result.Elapsed = time.Since(started)
	p.logger.WithFields(logrus.Fields{
		"source":    result.Source,
		"processed": result.RowsProcessed,
		"inserted":  result.RowsInserted,
		"failed":    result.RowsFailed,
		"elapsed":   result.Elapsed.String(),
	}).Info("Ingestion run completed")
	return result
}
