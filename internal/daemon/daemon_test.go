package daemon

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"rendersync/internal/config"
	"rendersync/internal/domain"
	"rendersync/internal/usecase"
)

// TestDefaultConfig verifies schedule defaults.
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig(10*time.Minute, 2)

	assert.Equal(t, 10*time.Minute, cfg.SyncInterval)
	assert.Equal(t, 2, cfg.BackupHour)
	assert.Equal(t, time.Minute, cfg.BackupCheckInterval)
}

// busyGuard always reports an active render.
type busyGuard struct{}

func (busyGuard) Check(ctx context.Context) domain.Decision {
	return domain.BusyBecause(domain.ReasonEngineProcess, "generic", "ffmpeg")
}

// idleGuard always reports idle.
type idleGuard struct{}

func (idleGuard) Check(ctx context.Context) domain.Decision { return domain.Idle() }

// countingArchiver records invocations.
type countingArchiver struct{ calls int }

func (a *countingArchiver) Archive(ctx context.Context, root, destDir string, excludes []string) (*domain.BackupResult, error) {
	a.calls++
	return &domain.BackupResult{ArchivePath: "/backups/x.zip"}, nil
}

type noopSyncer struct{}

func (noopSyncer) Sync(ctx context.Context) (*domain.SyncResult, error) {
	return &domain.SyncResult{}, nil
}

type noopFS struct{}

func (noopFS) Exists(string) bool         { return true }
func (noopFS) ExpandHome(p string) string { return p }

func newTestDaemon(guard domain.ActivityGuard, archiver domain.Archiver, backupHour int, now time.Time) *Daemon {
	runner := usecase.NewRunner(guard, noopSyncer{}, archiver, nil, noopFS{},
		"/project", config.BackupConfig{Dir: "/backups"}, zap.NewNop())

	d := New(DefaultConfig(time.Minute, backupHour), runner, nil, zap.NewNop())
	d.now = func() time.Time { return now }
	return d
}

// TestDaemon_BackupRunsAtConfiguredHour verifies the daily backup fires in
// the configured hour and only once per day.
func TestDaemon_BackupRunsAtConfiguredHour(t *testing.T) {
	archiver := &countingArchiver{}
	at2am := time.Date(2025, 6, 15, 2, 3, 0, 0, time.UTC)
	d := newTestDaemon(idleGuard{}, archiver, 2, at2am)

	d.maybeRunBackup(context.Background())
	assert.Equal(t, 1, archiver.calls)
	assert.Equal(t, "2025-06-15", d.lastBackupDay)

	// Same day, same hour: no second run.
	d.maybeRunBackup(context.Background())
	assert.Equal(t, 1, archiver.calls)
}

// TestDaemon_BackupSkippedOutsideHour verifies nothing runs at other hours.
func TestDaemon_BackupSkippedOutsideHour(t *testing.T) {
	archiver := &countingArchiver{}
	at9am := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)
	d := newTestDaemon(idleGuard{}, archiver, 2, at9am)

	d.maybeRunBackup(context.Background())
	assert.Zero(t, archiver.calls)
}

// TestDaemon_BusyBackupRetriesWithinHour verifies a guard-skipped backup is
// not marked done, so the next check tick retries.
func TestDaemon_BusyBackupRetriesWithinHour(t *testing.T) {
	archiver := &countingArchiver{}
	at2am := time.Date(2025, 6, 15, 2, 10, 0, 0, time.UTC)
	d := newTestDaemon(busyGuard{}, archiver, 2, at2am)

	d.maybeRunBackup(context.Background())
	assert.Zero(t, archiver.calls)
	assert.Empty(t, d.lastBackupDay)
}

// TestDaemon_NextDayBackupRunsAgain verifies the once-per-day latch resets.
func TestDaemon_NextDayBackupRunsAgain(t *testing.T) {
	archiver := &countingArchiver{}
	at2am := time.Date(2025, 6, 15, 2, 0, 0, 0, time.UTC)
	d := newTestDaemon(idleGuard{}, archiver, 2, at2am)

	d.maybeRunBackup(context.Background())
	assert.Equal(t, 1, archiver.calls)

	d.now = func() time.Time { return at2am.AddDate(0, 0, 1) }
	d.maybeRunBackup(context.Background())
	assert.Equal(t, 2, archiver.calls)
}

// TestStaticPrefix pins glob-to-directory derivation for the marker watcher.
func TestStaticPrefix(t *testing.T) {
	tests := []struct {
		pattern string
		want    string
	}{
		{"output/shorts/**/progress*.json", "output/shorts"},
		{"output/progress*.json", "output"},
		{"output/long/progress.json", "output/long"},
		{"*.json", "."},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, staticPrefix(tt.pattern), tt.pattern)
	}
}

// TestDaemon_RunStopsOnCancel verifies the loop honors context cancellation.
func TestDaemon_RunStopsOnCancel(t *testing.T) {
	d := newTestDaemon(busyGuard{}, &countingArchiver{}, 2, time.Now())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("daemon did not stop on cancel")
	}
}
