package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"propcalc/server/config"
	"propcalc/server/internal/ingest"
)

// Scheduler triggers periodic catalog ingestion runs: one at startup, then
// one per configured interval. Runs never overlap; the manager serializes
// whole-catalog runs internally.
type Scheduler struct {
	manager  *ingest.Manager
	cfg      *config.Config
	logger   *logrus.Logger
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewScheduler creates a new scheduler
func NewScheduler(manager *ingest.Manager, cfg *config.Config, logger *logrus.Logger) *Scheduler {
	if logger == nil {
		logger = logrus.New()
	}
	return &Scheduler{
		manager:  manager,
		cfg:      cfg,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start begins the scheduled runs
func (s *Scheduler) Start() {
	if s.cfg.Ingestion.Interval <= 0 {
		s.logger.Info("Scheduler disabled")
		return
	}
	s.wg.Add(1)
	go s.run()
}

func (s *Scheduler) run() {
	defer s.wg.Done()

	// Startup run before the first tick
	s.logger.Info("Running startup ingestion")
	s.runOnce()

	interval := time.Duration(s.cfg.Ingestion.Interval) * time.Minute
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.logger.Info("Running scheduled ingestion")
			s.runOnce()
		}
	}
}

func (s *Scheduler) runOnce() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.manager.RunAll(ctx, config.GetSources())
	}()

	select {
	case <-done:
	case <-s.stopChan:
		cancel()
		<-done
	}
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	close(s.stopChan)
	s.wg.Wait()
}
