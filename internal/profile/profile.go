// Package profile implements the Strategy pattern for per-pipeline activity
// evidence. Each render pipeline category (shorts, long-form) contributes the
// marker globs and process patterns the guard should treat as "busy".
package profile

import (
	"time"

	"rendersync/internal/domain"
)

// DefaultSyncInterval is 10 minutes (low churn, low CPU usage).
const DefaultSyncInterval = 10 * time.Minute

// RenderProfile defines the strategy interface for one pipeline category.
type RenderProfile interface {
	// ID returns a unique identifier (e.g. "shorts", "longform").
	ID() string

	// Name returns a human-readable name for display.
	Name() string

	// MarkerPatterns returns progress-marker glob patterns, relative to the
	// project root. A fresh match means a job is writing output.
	MarkerPatterns() []string

	// EngineNames returns render-engine process names. A running process with
	// one of these names (matched exactly, case-folded, ".exe" ignored) means
	// an encode is in flight.
	EngineNames() []string

	// InterpreterNames returns interpreter process names whose command lines
	// should be inspected.
	InterpreterNames() []string

	// ScriptPatterns returns case-insensitive substrings identifying
	// render-related scripts on an interpreter's command line.
	ScriptPatterns() []string
}

// ToProfile converts a RenderProfile to a domain.Profile entity.
func ToProfile(rp RenderProfile) domain.Profile {
	return domain.Profile{
		ID:               rp.ID(),
		Name:             rp.Name(),
		MarkerPatterns:   rp.MarkerPatterns(),
		EngineNames:      rp.EngineNames(),
		InterpreterNames: rp.InterpreterNames(),
		ScriptPatterns:   rp.ScriptPatterns(),
	}
}
