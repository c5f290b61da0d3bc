// Package infra implements infrastructure concerns (process, filesystem, storage).
package infra

import (
	"context"

	"github.com/shirou/gopsutil/v3/process"

	"rendersync/internal/domain"
)

// ProcessInspectorImpl implements domain.ProcessInspector using gopsutil.
type ProcessInspectorImpl struct{}

// NewProcessInspector creates a new process inspector.
func NewProcessInspector() domain.ProcessInspector {
	return &ProcessInspectorImpl{}
}

// Snapshot enumerates all visible processes once and returns.
// A process whose name cannot be read (exited, access denied) is skipped;
// a missing command line degrades to name-only matching for that entry.
func (pi *ProcessInspectorImpl) Snapshot(ctx context.Context) ([]domain.ProcessInfo, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}

	snapshot := make([]domain.ProcessInfo, 0, len(procs))
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue // Process may have exited
		}

		cmdline, err := p.CmdlineWithContext(ctx)
		if err != nil {
			cmdline = ""
		}

		snapshot = append(snapshot, domain.ProcessInfo{
			PID:     int(p.Pid),
			Name:    name,
			Cmdline: cmdline,
		})
	}

	return snapshot, nil
}

// Ensure ProcessInspectorImpl implements domain.ProcessInspector.
var _ domain.ProcessInspector = (*ProcessInspectorImpl)(nil)
