// Package domain contains core business entities and interfaces.
// This is the innermost layer in Clean Architecture - no external dependencies.
package domain

import "time"

// BusyReason explains why the activity guard reported BUSY.
type BusyReason string

const (
	// ReasonNone means no evidence of activity was found (IDLE).
	ReasonNone BusyReason = ""

	// ReasonFreshMarker means a progress-marker file was modified within the
	// staleness window.
	ReasonFreshMarker BusyReason = "fresh_marker"

	// ReasonEngineProcess means a render-engine process (e.g. ffmpeg) is running.
	ReasonEngineProcess BusyReason = "engine_process"

	// ReasonScriptProcess means an interpreter process is running a
	// render-related script.
	ReasonScriptProcess BusyReason = "script_process"

	// ReasonSnapshotUnavailable means the process table could not be enumerated
	// and the guard is configured fail-closed.
	ReasonSnapshotUnavailable BusyReason = "snapshot_unavailable"
)

// Decision is the guard's point-in-time verdict. It is computed fresh on every
// check and never cached.
type Decision struct {
	Busy      bool
	Reason    BusyReason
	Detail    string // marker path, process name, or command-line fragment
	ProfileID string // profile that produced the evidence, if any
	CheckedAt time.Time
}

// Idle returns an IDLE decision.
func Idle() Decision {
	return Decision{Busy: false, Reason: ReasonNone, CheckedAt: time.Now()}
}

// BusyBecause returns a BUSY decision with the given evidence.
func BusyBecause(reason BusyReason, profileID, detail string) Decision {
	return Decision{
		Busy:      true,
		Reason:    reason,
		Detail:    detail,
		ProfileID: profileID,
		CheckedAt: time.Now(),
	}
}

// MarkerFile is a progress-marker file written by an external render job.
// Its modification time is used as a liveness heartbeat.
type MarkerFile struct {
	Path    string
	ModTime time.Time
}

// Age returns how long ago the marker was last written.
func (m MarkerFile) Age(now time.Time) time.Duration {
	return now.Sub(m.ModTime)
}

// ProcessInfo is one entry of a point-in-time process-table snapshot.
type ProcessInfo struct {
	PID     int
	Name    string
	Cmdline string
}

// Profile bundles the activity evidence for one render pipeline category.
type Profile struct {
	ID               string
	Name             string
	MarkerPatterns   []string // glob patterns relative to the project root
	EngineNames      []string // process names matched exactly (case-folded)
	InterpreterNames []string // interpreters whose command lines are inspected
	ScriptPatterns   []string // case-insensitive command-line substrings
}

// SyncResult captures what happened during a single sync cycle.
type SyncResult struct {
	CommitHash    string
	FilesChanged  int
	Pulled        bool
	Pushed        bool
	RemoteMissing bool // no remote configured; commit-only mode
	ExecutedAt    time.Time
	DurationMs    int64
}

// BackupResult captures the outcome of one archive run.
type BackupResult struct {
	ArchivePath  string
	FileCount    int
	SkippedCount int
	Bytes        int64
	ExecutedAt   time.Time
	DurationMs   int64
}

// CycleKind distinguishes history entries.
type CycleKind string

const (
	CycleSync   CycleKind = "sync"
	CycleBackup CycleKind = "backup"
)

// CycleRecord is one row of the cycle history: a guard decision plus whatever
// the sync or backup engine did with it.
type CycleRecord struct {
	ID         int64
	Kind       CycleKind
	StartedAt  time.Time
	Busy       bool
	Reason     BusyReason
	Detail     string
	CommitHash string
	Pushed     bool
	Err        string
	DurationMs int64
}
