package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"propcalc/server/config"
	"propcalc/server/internal/database"
	"propcalc/server/internal/models"
	"propcalc/server/internal/notify"
)

// RunReport is the JSON document written per run, summarizing every
// source's outcome and quality report.
type RunReport struct {
	RunID     string                    `json:"run_id"`
	StartedAt time.Time                 `json:"started_at"`
	Elapsed   string                    `json:"elapsed"`
	Results   []models.ProcessingResult `json:"results"`
	Reports   []models.QualityReport    `json:"reports"`
}

// Manager runs ingestion for a set of sources. Lookup sources run first so
// transaction parsing can resolve area names; the rest run concurrently,
// bounded by the configured gate. A failed source never aborts its
// siblings.
type Manager struct {
	pipeline  *Pipeline
	db        *database.Database
	notifier  *notify.Service
	cfg       *config.Config
	logger    *logrus.Logger
	runMutex  sync.Mutex
	idMutex   sync.RWMutex
	lastRunID string
}

func NewManager(pipeline *Pipeline, db *database.Database, notifier *notify.Service, cfg *config.Config, logger *logrus.Logger) *Manager {
	if logger == nil {
		logger = logrus.New()
	}
	return &Manager{
		pipeline: pipeline,
		db:       db,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
	}
}

// RunAll ingests every source and returns one result per source. Only one
// whole-catalog run executes at a time.
func (m *Manager) RunAll(ctx context.Context, sources []config.Source) []models.ProcessingResult {
	m.runMutex.Lock()
	defer m.runMutex.Unlock()

	runID := uuid.NewString()
	m.idMutex.Lock()
	m.lastRunID = runID
	m.idMutex.Unlock()
	started := time.Now()

	m.logger.WithFields(logrus.Fields{
		"run_id":  runID,
		"sources": len(sources),
	}).Info("Starting catalog run")

	var lookups, rest []config.Source
	for _, src := range sources {
		if src.Schema == config.SchemaAreas {
			lookups = append(lookups, src)
		} else {
			rest = append(rest, src)
		}
	}

	var (
		mu      sync.Mutex
		results []models.ProcessingResult
		reports []models.QualityReport
	)
	record := func(result models.ProcessingResult, report *models.QualityReport) {
		mu.Lock()
		results = append(results, result)
		if report != nil {
			reports = append(reports, *report)
		}
		mu.Unlock()

		if err := m.db.SaveProcessingResult(result); err != nil {
			m.logger.WithError(err).Warn("Failed to persist processing result")
		}
		if m.notifier != nil {
			m.notifier.NotifyRun(result, report)
		}
	}

	// Lookup tables first, sequentially, so sibling sources can resolve
	// against them.
	for _, src := range lookups {
		result, report := m.pipeline.Run(ctx, runID, src)
		record(result, report)
	}

	maxConcurrent := m.cfg.Ingestion.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	semaphore := make(chan struct{}, maxConcurrent)
	var wg sync.WaitGroup

	for _, src := range rest {
		wg.Add(1)
		go func(src config.Source) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			result, report := m.pipeline.Run(ctx, runID, src)
			record(result, report)
		}(src)
	}
	wg.Wait()

	if err := m.writeRunReport(RunReport{
		RunID:     runID,
		StartedAt: started.UTC(),
		Elapsed:   time.Since(started).String(),
		Results:   results,
		Reports:   reports,
	}); err != nil {
		m.logger.WithError(err).Warn("Failed to write run report")
	}

	return results
}

// LastRunID returns the id of the most recently started catalog run.
func (m *Manager) LastRunID() string {
	m.idMutex.RLock()
	defer m.idMutex.RUnlock()
	return m.lastRunID
}

func (m *Manager) writeRunReport(report RunReport) error {
	if err := os.MkdirAll(m.cfg.Ingestion.ReportDir, 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	data, err := json.MarshalIndent(report, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal run report: %w", err)
	}

	path := filepath.Join(m.cfg.Ingestion.ReportDir, report.RunID+".json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write run report: %w", err)
	}

	m.logger.WithField("path", path).Info("Wrote run report")
	return nil
}
