package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// IntegrityWorker is a background worker that periodically runs the integrity check
type IntegrityWorker struct {
	integrityService *IntegrityService
	logger           zerolog.Logger
	interval         time.Duration
	stopCh           chan struct{}
	doneCh           chan struct{}
	mu               sync.Mutex
	running          bool
}

// IntegrityWorkerConfig holds configuration for the integrity worker
type IntegrityWorkerConfig struct {
	Interval time.Duration // How often to run the check
}

// DefaultIntegrityWorkerConfig returns sensible defaults
func DefaultIntegrityWorkerConfig() IntegrityWorkerConfig {
	return IntegrityWorkerConfig{
		Interval: 24 * time.Hour,
	}
}

// NewIntegrityWorker creates a new integrity worker
func NewIntegrityWorker(
	integrityService *IntegrityService,
	logger zerolog.Logger,
	config IntegrityWorkerConfig,
) *IntegrityWorker {
	if config.Interval <= 0 {
		config.Interval = DefaultIntegrityWorkerConfig().Interval
	}

	return &IntegrityWorker{
		integrityService: integrityService,
		logger:           logger.With().Str("component", "integrity_worker").Logger(),
		interval:         config.Interval,
		stopCh:           make(chan struct{}),
		doneCh:           make(chan struct{}),
	}
}

// Start begins the periodic integrity check
func (w *IntegrityWorker) Start(ctx context.Context) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	w.logger.Info().
		Dur("interval", w.interval).
		Msg("Starting integrity worker")

	go w.run(ctx)
}

// Stop gracefully stops the integrity worker
func (w *IntegrityWorker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.mu.Unlock()

	w.logger.Info().Msg("Stopping integrity worker")
	close(w.stopCh)
	<-w.doneCh
	w.logger.Info().Msg("Integrity worker stopped")
}

// run is the main loop for the integrity worker
func (w *IntegrityWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	// Run immediately on startup
	w.runCheck(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.mu.Lock()
			w.running = false
			w.mu.Unlock()
			return
		case <-w.stopCh:
			w.mu.Lock()
			w.running = false
			w.mu.Unlock()
			return
		case <-ticker.C:
			w.runCheck(ctx)
		}
	}
}

// runCheck runs one check, stopping early when the worker is asked to stop
func (w *IntegrityWorker) runCheck(ctx context.Context) {
	checkCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		select {
		case <-w.stopCh:
			cancel()
		case <-checkCtx.Done():
		}
	}()

	startTime := time.Now()
	report, err := w.integrityService.Check(checkCtx)
	if err != nil {
		w.logger.Error().Err(err).Msg("Scheduled integrity check failed")
		return
	}

	w.logger.Debug().
		Str("run_id", report.ID).
		Int("total_issues", report.TotalIssues()).
		Dur("elapsed", time.Since(startTime)).
		Msg("Scheduled integrity check finished")
}

// IsRunning returns whether the worker is currently running
func (w *IntegrityWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}
