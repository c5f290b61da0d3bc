// Package usecase contains application business logic.
package usecase

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"rendersync/internal/domain"
)

// GuardSettings configures a Guard instance. All state is passed in at
// construction; the guard itself is stateless per invocation.
type GuardSettings struct {
	Root      string        // working tree root the marker globs are relative to
	Staleness time.Duration // markers younger than this count as evidence
	FailOpen  bool          // IDLE instead of BUSY when the process table is unreadable
}

// Guard implements domain.ActivityGuard. It decides BUSY/IDLE from a single
// bounded pass over marker files and one process-table snapshot. False
// positives (skipping a sync that would have been safe) are the accepted
// failure mode; false negatives are not.
type Guard struct {
	settings GuardSettings
	profiles domain.ProfileStore
	markers  domain.MarkerScanner
	procs    domain.ProcessInspector
	logger   *zap.Logger
	now      func() time.Time
}

// NewGuard creates a new activity guard.
func NewGuard(
	settings GuardSettings,
	profiles domain.ProfileStore,
	markers domain.MarkerScanner,
	procs domain.ProcessInspector,
	logger *zap.Logger,
) *Guard {
	return &Guard{
		settings: settings,
		profiles: profiles,
		markers:  markers,
		procs:    procs,
		logger:   logger,
		now:      time.Now,
	}
}

// NewGuardWithClock creates a guard with a fixed clock (for testing).
func NewGuardWithClock(
	settings GuardSettings,
	profiles domain.ProfileStore,
	markers domain.MarkerScanner,
	procs domain.ProcessInspector,
	logger *zap.Logger,
	now func() time.Time,
) *Guard {
	g := NewGuard(settings, profiles, markers, procs, logger)
	g.now = now
	return g
}

// Check returns the guard's verdict. Evidence is evaluated in order:
// fresh markers, then engine process names, then interpreter command lines.
// The first hit short-circuits to BUSY. Check holds no lock, so a render may
// start right after an IDLE verdict; the caller's next cycle covers that.
func (g *Guard) Check(ctx context.Context) domain.Decision {
	now := g.now()
	profiles := g.profiles.GetAll()

	// Pass 1: marker freshness.
	for _, p := range profiles {
		if len(p.MarkerPatterns) == 0 {
			continue
		}
		found, err := g.markers.Scan(g.settings.Root, p.MarkerPatterns)
		if err != nil {
			// Absence of evidence, not a failure.
			g.logger.Warn("marker scan failed",
				zap.String("profile", p.ID),
				zap.Error(err))
			continue
		}
		for _, m := range found {
			if m.Age(now) < g.settings.Staleness {
				g.logger.Info("busy: fresh progress marker",
					zap.String("profile", p.ID),
					zap.String("marker", m.Path),
					zap.Duration("age", m.Age(now)))
				return domain.BusyBecause(domain.ReasonFreshMarker, p.ID, m.Path)
			}
		}
	}

	snapshot, err := g.procs.Snapshot(ctx)
	if err != nil {
		if g.settings.FailOpen {
			g.logger.Warn("process table unavailable, assuming idle (fail-open)",
				zap.Error(err))
			return domain.Idle()
		}
		g.logger.Warn("process table unavailable, assuming busy (fail-closed)",
			zap.Error(err))
		return domain.BusyBecause(domain.ReasonSnapshotUnavailable, "", err.Error())
	}

	// Pass 2: render-engine process names (exact match).
	for _, p := range profiles {
		for _, engine := range p.EngineNames {
			want := normalizeProcName(engine)
			for _, proc := range snapshot {
				if normalizeProcName(proc.Name) == want {
					g.logger.Info("busy: render engine running",
						zap.String("profile", p.ID),
						zap.String("process", proc.Name),
						zap.Int("pid", proc.PID))
					return domain.BusyBecause(domain.ReasonEngineProcess, p.ID, proc.Name)
				}
			}
		}
	}

	// Pass 3: interpreter command lines.
	for _, p := range profiles {
		if len(p.InterpreterNames) == 0 || len(p.ScriptPatterns) == 0 {
			continue
		}
		interpreters := make(map[string]bool, len(p.InterpreterNames))
		for _, name := range p.InterpreterNames {
			interpreters[normalizeProcName(name)] = true
		}
		for _, proc := range snapshot {
			if !interpreters[normalizeProcName(proc.Name)] {
				continue
			}
			cmd := normalizeCmdline(proc.Cmdline)
			for _, pattern := range p.ScriptPatterns {
				if strings.Contains(cmd, normalizeCmdline(pattern)) {
					g.logger.Info("busy: render script running",
						zap.String("profile", p.ID),
						zap.String("process", proc.Name),
						zap.Int("pid", proc.PID),
						zap.String("pattern", pattern))
					return domain.BusyBecause(domain.ReasonScriptProcess, p.ID, pattern)
				}
			}
		}
	}

	return domain.Idle()
}

// normalizeProcName folds case and drops a Windows ".exe" suffix so engine
// and interpreter lists stay platform-neutral.
func normalizeProcName(name string) string {
	return strings.TrimSuffix(strings.ToLower(name), ".exe")
}

// normalizeCmdline folds case and path separators; script patterns are
// written with forward slashes.
func normalizeCmdline(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), "\\", "/")
}

// Ensure Guard implements domain.ActivityGuard.
var _ domain.ActivityGuard = (*Guard)(nil)
