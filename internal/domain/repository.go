package domain

import "context"

// ProcessInspector takes a point-in-time snapshot of the OS process table.
// Implementation: uses gopsutil for cross-platform support.
type ProcessInspector interface {
	// Snapshot returns all visible processes with name and command line.
	// A process whose metadata cannot be read is skipped, not an error.
	Snapshot(ctx context.Context) ([]ProcessInfo, error)
}

// MarkerScanner enumerates progress-marker files under a project root.
type MarkerScanner interface {
	// Scan resolves glob patterns relative to root. Patterns matching nothing
	// (including missing directories) yield zero results, not an error.
	Scan(root string, patterns []string) ([]MarkerFile, error)
}

// ActivityGuard answers "is it safe to mutate the working tree right now?".
// The check is a single bounded snapshot; it never blocks, never mutates,
// and never fails - an unobservable information source is handled by policy
// (fail-open or fail-closed), not by an error return.
type ActivityGuard interface {
	Check(ctx context.Context) Decision
}

// Syncer commits local changes and pushes them to the configured remote.
type Syncer interface {
	Sync(ctx context.Context) (*SyncResult, error)
}

// Archiver writes a ZIP snapshot of a directory tree.
type Archiver interface {
	// Archive walks root, skips paths matching the exclusion globs, and
	// writes the remainder to an archive under destDir.
	Archive(ctx context.Context, root, destDir string, excludes []string) (*BackupResult, error)
}

// HistoryStore persists one record per scheduler cycle.
type HistoryStore interface {
	RecordCycle(ctx context.Context, rec CycleRecord) error

	// RecentCycles returns up to limit records, newest first.
	RecentCycles(ctx context.Context, limit int) ([]CycleRecord, error)

	Close() error
}

// ProfileStore provides access to the registered render profiles.
// Implementation: hardcoded defaults (future: per-project config file).
type ProfileStore interface {
	// GetAll returns all registered profiles.
	GetAll() []Profile

	// GetByID returns the profile for a specific pipeline category.
	GetByID(id string) (*Profile, error)

	// List returns IDs of all registered profiles.
	List() []string
}

// FileSystem handles the small set of filesystem operations the use cases
// need behind an interface (so tests can fake them).
type FileSystem interface {
	// Exists checks if a path exists.
	Exists(path string) bool

	// ExpandHome expands ~ to the user's home directory.
	ExpandHome(path string) string
}
