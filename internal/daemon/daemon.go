// Package daemon implements the rendersync scheduler loop.
package daemon

import (
	"context"
	"time"

	"go.uber.org/zap"

	"rendersync/internal/usecase"
)

// Config holds daemon scheduling configuration.
type Config struct {
	SyncInterval        time.Duration // how often to run a sync cycle
	BackupHour          int           // local hour [0,23] for the daily backup
	BackupCheckInterval time.Duration // how often to check whether backup is due
}

// DefaultConfig returns the daemon schedule for the given sync interval and
// backup hour.
func DefaultConfig(syncInterval time.Duration, backupHour int) Config {
	return Config{
		SyncInterval:        syncInterval,
		BackupHour:          backupHour,
		BackupCheckInterval: time.Minute,
	}
}

// Daemon drives guard-gated sync cycles on an interval and one backup per
// day. Each cycle is independent; a BUSY verdict just means the tick is a
// no-op and the next tick tries again.
type Daemon struct {
	config  Config
	runner  *usecase.Runner
	watcher *MarkerWatcher // optional, logs render start/stop transitions
	logger  *zap.Logger
	now     func() time.Time

	lastBackupDay string // YYYY-MM-DD of the last completed backup
}

// New creates a new daemon.
func New(config Config, runner *usecase.Runner, watcher *MarkerWatcher, logger *zap.Logger) *Daemon {
	return &Daemon{
		config:  config,
		runner:  runner,
		watcher: watcher,
		logger:  logger,
		now:     time.Now,
	}
}

// Run starts the scheduler loop. This blocks until the context is canceled.
func (d *Daemon) Run(ctx context.Context) error {
	d.logger.Info("rendersync daemon started",
		zap.Duration("sync_interval", d.config.SyncInterval),
		zap.Int("backup_hour", d.config.BackupHour))

	if d.watcher != nil {
		go d.watcher.Run(ctx)
	}

	// Run a sync cycle immediately on startup.
	d.runSync(ctx)

	syncTicker := time.NewTicker(d.config.SyncInterval)
	backupTicker := time.NewTicker(d.config.BackupCheckInterval)
	defer func() {
		syncTicker.Stop()
		backupTicker.Stop()
	}()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("rendersync daemon stopping")
			return ctx.Err()

		case <-syncTicker.C:
			d.runSync(ctx)

		case <-backupTicker.C:
			d.maybeRunBackup(ctx)
		}
	}
}

func (d *Daemon) runSync(ctx context.Context) {
	if _, err := d.runner.RunSync(ctx); err != nil {
		// Already logged by the runner; the next tick retries.
		return
	}
}

// maybeRunBackup runs the backup once per day when the configured hour
// arrives. A failed backup is retried on the next check tick.
func (d *Daemon) maybeRunBackup(ctx context.Context) {
	now := d.now()
	if now.Hour() != d.config.BackupHour {
		return
	}

	today := now.Format("2006-01-02")
	if d.lastBackupDay == today {
		return
	}

	rec, err := d.runner.RunBackup(ctx)
	if err != nil {
		return
	}
	if rec.Busy {
		// Guard said no; try again on the next tick within the hour.
		return
	}

	d.lastBackupDay = today
}
