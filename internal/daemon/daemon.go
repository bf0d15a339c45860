package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"dealflow/internal/config"
	"dealflow/internal/logging"
	"dealflow/internal/reminders"
	"dealflow/internal/scheduler"
)

// ScanRunner runs the daily reminder scan.
type ScanRunner interface {
	RunDailyScan(ctx context.Context) reminders.Result
}

// Daemon serves the API and fires the daily scan.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	scanner  ScanRunner
	schedule *scheduler.Daily
	api      *apiServer

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Status represents daemon runtime information.
type Status struct {
	Running          bool      `json:"running"`
	LockFilePath     string    `json:"lock_file_path"`
	HistoryPath      string    `json:"history_path"`
	APIAddress       string    `json:"api_address,omitempty"`
	RemindersEnabled bool      `json:"reminders_enabled"`
	NextScan         time.Time `json:"next_scan,omitzero"`
}

// New constructs a daemon. handler may be nil to run without the API.
func New(cfg *config.Config, handler http.Handler, scanner ScanRunner, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || scanner == nil {
		return nil, errors.New("daemon requires config and scanner")
	}
	logger = logging.NewComponentLogger(logger, "daemon")
	hour, minute := cfg.RunAtClock()
	lockPath := cfg.LockPath()
	return &Daemon{
		cfg:      cfg,
		logger:   logger,
		scanner:  scanner,
		schedule: scheduler.NewDaily(hour, minute, logger),
		api:      newAPIServer(cfg.Paths.APIBind, handler, logger),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock, opens the API listener and starts the
// schedule.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}
	if err := d.cfg.EnsureDirectories(); err != nil {
		return err
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another dealflow daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.api.start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return err
	}
	d.cancel = cancel

	if d.cfg.Reminders.Enabled {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.schedule.Run(runCtx, "daily_scan", d.scan)
		}()
	} else {
		d.logger.Info("daily scan disabled", logging.String("reason", "reminders.enabled = false"))
	}

	d.running.Store(true)
	d.logger.Info("dealflow daemon started", logging.String("lock", d.lockPath))
	return nil
}

func (d *Daemon) scan(ctx context.Context) error {
	result := d.scanner.RunDailyScan(ctx)
	if result.Success {
		return nil
	}
	if result.Error != "" {
		return fmt.Errorf("%s: %s", result.Message, result.Error)
	}
	return errors.New(result.Message)
}

// Stop stops the schedule and listener and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	d.wg.Wait()
	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release daemon lock", "daemon_unlock_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove "+d.lockPath+" if no daemon is running"),
			logging.String(logging.FieldImpact, "next start may report an existing instance"),
		)
	}
	d.running.Store(false)
	d.logger.Info("dealflow daemon stopped")
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	status := Status{
		Running:          d.running.Load(),
		LockFilePath:     d.lockPath,
		HistoryPath:      d.cfg.HistoryPath(),
		APIAddress:       d.api.address(),
		RemindersEnabled: d.cfg.Reminders.Enabled,
	}
	if status.RemindersEnabled {
		status.NextScan = d.schedule.Next(time.Now())
	}
	return status
}
