package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/karloscodes/cartridge"

	"shortn/internal/config"
)

const (
	cleanupInterval = 24 * time.Hour
	geoDBInterval   = time.Hour
)

// job is one periodic task of the scheduler.
type job struct {
	name     string
	interval time.Duration
	run      func() error
}

// Scheduler runs the background jobs. Executions of the same job never
// overlap: a tick that arrives while that job is still running is skipped.
// Different jobs run independently.
type Scheduler struct {
	dbManager cartridge.DBManager
	logger    *slog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	cfg       *config.Config

	mu         sync.Mutex
	enabled    bool
	isRunning  bool
	processing map[string]bool
	wg         sync.WaitGroup

	clickProcessor *ClickProcessorJob
	cleanupJob     *CleanupJob
	geoDBReloader  *GeoDBReloaderJob
}

func NewScheduler(dbManager cartridge.DBManager, logger *slog.Logger) (*Scheduler, error) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := config.GetConfig()

	return &Scheduler{
		dbManager:      dbManager,
		logger:         logger,
		ctx:            ctx,
		cancel:         cancel,
		cfg:            cfg,
		enabled:        true,
		processing:     make(map[string]bool),
		clickProcessor: NewClickProcessorJob(dbManager, logger),
		cleanupJob:     NewCleanupJob(dbManager, logger, cfg),
		geoDBReloader:  NewGeoDBReloaderJob(logger, cfg),
	}, nil
}

func (s *Scheduler) jobs() []job {
	clickInterval := time.Duration(s.cfg.JobIntervalSeconds) * time.Second
	if clickInterval <= 0 {
		clickInterval = 30 * time.Second
	}
	return []job{
		{name: "click_processor", interval: clickInterval, run: s.clickProcessor.Run},
		{name: "cleanup", interval: cleanupInterval, run: s.cleanupJob.Run},
		{name: "geodb_reloader", interval: geoDBInterval, run: s.geoDBReloader.Run},
	}
}

// executeJobSafely runs a job unless its previous execution is still running
func (s *Scheduler) executeJobSafely(jobName string, jobFunc func() error) {
	s.mu.Lock()
	if s.processing == nil {
		s.processing = make(map[string]bool)
	}
	if s.processing[jobName] {
		s.logger.Debug("Skipping job execution - previous run still in progress", slog.String("job", jobName))
		s.mu.Unlock()
		return
	}
	s.processing[jobName] = true
	s.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Panic recovered in background job",
				slog.String("job", jobName),
				slog.Any("panic", r))
		}

		s.mu.Lock()
		delete(s.processing, jobName)
		s.mu.Unlock()
	}()

	if err := jobFunc(); err != nil {
		s.logger.Error("Error executing job", slog.String("job", jobName), slog.Any("error", err))
	}
}

// Start begins all background jobs.
// Implements cartridge.BackgroundWorker interface.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.enabled {
		s.logger.Info("Background jobs are disabled.")
		return nil
	}
	if s.isRunning {
		s.logger.Info("Background jobs already running.")
		return nil
	}

	s.logger.Info("Starting background jobs...")
	s.isRunning = true

	for _, j := range s.jobs() {
		s.startJob(j)
	}
	return nil
}

func (s *Scheduler) startJob(j job) {
	s.logger.Info("Starting job", slog.String("job", j.name), slog.Duration("interval", j.interval))
	ticker := time.NewTicker(j.interval)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer ticker.Stop()

		s.executeJobSafely(j.name, j.run)
		for {
			select {
			case <-ticker.C:
				s.executeJobSafely(j.name, j.run)
			case <-s.ctx.Done():
				s.logger.Info("Job stopped", slog.String("job", j.name))
				return
			}
		}
	}()
}

// Stop halts all background jobs and waits for running executions to return.
// Implements cartridge.BackgroundWorker interface.
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background jobs...")

	s.mu.Lock()
	s.enabled = false
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()

	s.mu.Lock()
	s.isRunning = false
	s.mu.Unlock()
	s.logger.Info("Background jobs stopped")
}

// IsRunning returns whether jobs are currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// ProcessClicks runs the click processor once, outside the schedule.
func (s *Scheduler) ProcessClicks() error {
	return s.clickProcessor.Run()
}
