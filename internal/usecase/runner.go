package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"rendersync/internal/config"
	"rendersync/internal/domain"
)

// Runner executes guard-gated cycles. Both sync and backup ask the guard
// first; a BUSY verdict is a successful no-op, never an error.
type Runner struct {
	guard    domain.ActivityGuard
	syncer   domain.Syncer
	archiver domain.Archiver
	history  domain.HistoryStore
	fs       domain.FileSystem
	repoRoot string
	backup   config.BackupConfig
	logger   *zap.Logger
}

// NewRunner creates a cycle runner.
func NewRunner(
	guard domain.ActivityGuard,
	syncer domain.Syncer,
	archiver domain.Archiver,
	history domain.HistoryStore,
	fs domain.FileSystem,
	repoRoot string,
	backup config.BackupConfig,
	logger *zap.Logger,
) *Runner {
	return &Runner{
		guard:    guard,
		syncer:   syncer,
		archiver: archiver,
		history:  history,
		fs:       fs,
		repoRoot: repoRoot,
		backup:   backup,
		logger:   logger,
	}
}

// RunSync performs one guard-gated sync cycle and records it.
func (r *Runner) RunSync(ctx context.Context) (domain.CycleRecord, error) {
	start := time.Now()
	decision := r.guard.Check(ctx)

	rec := domain.CycleRecord{
		Kind:      domain.CycleSync,
		StartedAt: start,
		Busy:      decision.Busy,
		Reason:    decision.Reason,
		Detail:    decision.Detail,
	}

	if decision.Busy {
		r.logger.Info("sync skipped, render in progress",
			zap.String("reason", string(decision.Reason)),
			zap.String("detail", decision.Detail))
		rec.DurationMs = time.Since(start).Milliseconds()
		r.record(ctx, rec)
		return rec, nil
	}

	result, err := r.syncer.Sync(ctx)
	if err != nil {
		rec.Err = err.Error()
		r.logger.Error("sync failed", zap.Error(err))
	}
	if result != nil {
		rec.CommitHash = result.CommitHash
		rec.Pushed = result.Pushed
	}

	rec.DurationMs = time.Since(start).Milliseconds()
	r.record(ctx, rec)
	return rec, err
}

// RunBackup performs one guard-gated backup cycle and records it.
func (r *Runner) RunBackup(ctx context.Context) (domain.CycleRecord, error) {
	start := time.Now()
	decision := r.guard.Check(ctx)

	rec := domain.CycleRecord{
		Kind:      domain.CycleBackup,
		StartedAt: start,
		Busy:      decision.Busy,
		Reason:    decision.Reason,
		Detail:    decision.Detail,
	}

	if decision.Busy {
		r.logger.Info("backup skipped, render in progress",
			zap.String("reason", string(decision.Reason)),
			zap.String("detail", decision.Detail))
		rec.DurationMs = time.Since(start).Milliseconds()
		r.record(ctx, rec)
		return rec, nil
	}

	destDir := r.fs.ExpandHome(r.backup.Dir)
	result, err := r.archiver.Archive(ctx, r.repoRoot, destDir, r.backup.Excludes)
	if err != nil {
		rec.Err = err.Error()
		r.logger.Error("backup failed", zap.Error(err))
	}
	if result != nil {
		rec.Detail = result.ArchivePath
		r.logger.Info("backup written",
			zap.String("archive", result.ArchivePath),
			zap.Int("files", result.FileCount),
			zap.Int64("bytes", result.Bytes))
	}

	rec.DurationMs = time.Since(start).Milliseconds()
	r.record(ctx, rec)
	return rec, err
}

func (r *Runner) record(ctx context.Context, rec domain.CycleRecord) {
	if r.history == nil {
		return
	}
	if err := r.history.RecordCycle(ctx, rec); err != nil {
		r.logger.Warn("failed to record cycle", zap.Error(err))
	}
}
