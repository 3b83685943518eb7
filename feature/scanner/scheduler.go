package scanner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"snapshot-catalog/feature/catalog/models"

	"go.uber.org/zap"
)

// Scheduler status codes.
const (
	StatusStarted        = "started"
	StatusAlreadyRunning = "already_running"
	StatusDisabled       = "disabled"
	StatusError          = "error"
	StatusStopped        = "stopped"
	StatusAlreadyStopped = "already_stopped"
)

// errorCooldown is how long the loop waits after a failed pass before
// resuming the schedule.
const errorCooldown = 5 * time.Minute

// preflightTimeout bounds the bucket check performed before the loop spawns.
const preflightTimeout = 10 * time.Second

// Runner executes one reconciliation pass. Implemented by Engine; faked in
// tests.
type Runner interface {
	RunOnce(ctx context.Context, scanType string) (*RunResult, error)
}

// StatusResult reports the outcome of a scheduler lifecycle operation.
type StatusResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Scheduler owns the background scan loop. One long-lived goroutine runs
// scheduled passes at the configured interval; manual passes via ScanNow run
// independently and may overlap with it, since the engine's upsert contract makes
// that safe.
type Scheduler struct {
	engine  Runner
	gateway *Gateway
	logger  *zap.Logger

	interval time.Duration
	cooldown time.Duration
	enabled  bool

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewScheduler creates a scheduler for the given engine.
func NewScheduler(engine Runner, gateway *Gateway, cfg Config, logger *zap.Logger) *Scheduler {
	interval := time.Duration(cfg.IntervalHours) * time.Hour
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	return &Scheduler{
		engine:   engine,
		gateway:  gateway,
		logger:   logger,
		interval: interval,
		cooldown: errorCooldown,
		enabled:  cfg.ScanOnStartup,
	}
}

// Start spawns the background scan loop.
//
// Starting an already-running scheduler is a no-op, as is starting one with
// scan-on-startup disabled. The bucket is checked synchronously first so an
// unusable store surfaces to the caller instead of killing the loop right
// after it spawns.
func (s *Scheduler) Start() StatusResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return StatusResult{Status: StatusAlreadyRunning, Message: "scanner is already running"}
	}
	if !s.enabled {
		s.logger.Info("Scan on startup disabled")
		return StatusResult{Status: StatusDisabled, Message: "scan on startup is disabled"}
	}

	ctx, cancel := context.WithTimeout(context.Background(), preflightTimeout)
	err := s.gateway.Ping(ctx)
	cancel()
	if err != nil {
		s.logger.Error("Scanner failed to start", zap.Error(err))
		return StatusResult{Status: StatusError, Message: fmt.Sprintf("scanner failed to start: %v", err)}
	}

	loopCtx, loopCancel := context.WithCancel(context.Background())
	s.cancel = loopCancel
	s.running = true
	s.wg.Add(1)
	go s.loop(loopCtx)

	s.logger.Info("Snapshot scanner started", zap.Duration("interval", s.interval))
	return StatusResult{Status: StatusStarted, Message: "snapshot scanner started successfully"}
}

// Stop cancels the loop and waits for it to terminate. A pass already in
// flight finishes closing its scan run; only the interval wait is
// interrupted immediately.
func (s *Scheduler) Stop() StatusResult {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return StatusResult{Status: StatusAlreadyStopped, Message: "scanner is not running"}
	}
	cancel := s.cancel
	s.running = false
	s.cancel = nil
	s.mu.Unlock()

	cancel()
	s.wg.Wait()

	s.logger.Info("Snapshot scanner stopped")
	return StatusResult{Status: StatusStopped, Message: "scanner stopped successfully"}
}

// IsRunning reports whether the background loop is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// ScanNow runs a single manual pass, independently of the background loop.
func (s *Scheduler) ScanNow(ctx context.Context) (*RunResult, error) {
	s.logger.Info("Running manual snapshot scan")
	return s.engine.RunOnce(ctx, models.ScanTypeManual)
}

// loop is the background schedule: an immediate pass on entry, then one pass
// per interval. A failed pass logs, cools down, and the loop resumes rather
// than terminating.
func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	s.logger.Info("Scanner loop started")

	s.runScheduledPass(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Scanner loop ended")
			return
		case <-time.After(s.interval):
		}

		if !s.runScheduledPass(ctx) {
			select {
			case <-ctx.Done():
				s.logger.Info("Scanner loop ended")
				return
			case <-time.After(s.cooldown):
			}
		}
	}
}

// runScheduledPass executes one scheduled pass and reports success.
func (s *Scheduler) runScheduledPass(ctx context.Context) bool {
	if _, err := s.engine.RunOnce(ctx, models.ScanTypeScheduled); err != nil {
		s.logger.Error("Scheduled scan failed", zap.Error(err))
		return false
	}
	return true
}
