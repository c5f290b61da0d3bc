package daemon

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"rendersync/internal/domain"
)

// MarkerWatcher logs render start/stop transitions by watching the marker
// directories for writes. It is observability only: the activity guard never
// consults it and keeps making point-in-time checks.
type MarkerWatcher struct {
	root  string
	dirs  []string
	quiet time.Duration // silence after which a burst counts as ended
	log   *zap.Logger
}

// NewMarkerWatcher derives the watchable directories from the profiles'
// marker glob patterns (the static prefix before the first glob metacharacter).
func NewMarkerWatcher(root string, profiles domain.ProfileStore, quiet time.Duration, log *zap.Logger) *MarkerWatcher {
	if quiet <= 0 {
		quiet = 5 * time.Minute
	}
	seen := make(map[string]bool)
	var dirs []string
	for _, p := range profiles.GetAll() {
		for _, pattern := range p.MarkerPatterns {
			dir := filepath.Join(root, staticPrefix(pattern))
			if !seen[dir] {
				seen[dir] = true
				dirs = append(dirs, dir)
			}
		}
	}
	return &MarkerWatcher{root: root, dirs: dirs, quiet: quiet, log: log}
}

// Run watches until the context is canceled. Directories that do not exist
// yet are skipped; a watcher that cannot start at all is logged and dropped,
// never fatal to the daemon.
func (w *MarkerWatcher) Run(ctx context.Context) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.log.Warn("marker watcher unavailable", zap.Error(err))
		return
	}
	defer watcher.Close()

	watching := 0
	for _, dir := range w.dirs {
		if err := watcher.Add(dir); err != nil {
			w.log.Debug("not watching marker dir",
				zap.String("dir", dir),
				zap.Error(err))
			continue
		}
		watching++
	}
	if watching == 0 {
		w.log.Debug("no marker directories exist yet, watcher idle")
	}

	var (
		active    bool
		lastEvent time.Time
	)

	idleTicker := time.NewTicker(w.quiet / 2)
	defer idleTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			lastEvent = time.Now()
			if !active {
				active = true
				w.log.Info("render activity detected",
					zap.String("path", event.Name))
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.log.Debug("marker watcher error", zap.Error(err))

		case <-idleTicker.C:
			if active && time.Since(lastEvent) > w.quiet {
				active = false
				w.log.Info("render activity ended",
					zap.Duration("quiet", w.quiet))
			}
		}
	}
}

// staticPrefix returns the directory part of a glob pattern before its first
// metacharacter.
func staticPrefix(pattern string) string {
	idx := strings.IndexAny(pattern, "*?[{")
	if idx < 0 {
		return filepath.Dir(pattern)
	}
	cut := strings.LastIndex(pattern[:idx], "/")
	if cut < 0 {
		return "."
	}
	return pattern[:cut]
}
