// Package fixtures provides test helpers for integration tests.
package fixtures

import (
	"os"
	"path/filepath"
	"time"
)

// FakeRenderProject builds a directory tree mimicking a render project:
// pipeline sources, output directories, and optional progress markers.
type FakeRenderProject struct {
	Root string
}

// NewFakeRenderProject creates a fake project generator rooted at root.
func NewFakeRenderProject(root string) *FakeRenderProject {
	return &FakeRenderProject{Root: root}
}

// Create lays out the pipeline sources and empty output directories.
func (f *FakeRenderProject) Create() error {
	files := map[string]string{
		"main.py":                      "print('pipeline entry')",
		"scripts/src/renderer.py":      "print('render')",
		"scripts/src/orchestrator.py":  "print('orchestrate')",
		"scripts/src/shorts.py":        "print('shorts')",
		"scripts/src/ffmpeg_tools.py":  "print('tools')",
		"assets/music/track01.listing": "placeholder",
	}
	for rel, content := range files {
		path := filepath.Join(f.Root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return err
		}
	}

	dirs := []string{
		"output/shorts",
		"output/long",
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(f.Root, d), 0o755); err != nil {
			return err
		}
	}
	return nil
}

// WriteMarker writes a progress marker at rel with the given age.
func (f *FakeRenderProject) WriteMarker(rel string, age time.Duration) error {
	path := filepath.Join(f.Root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(`{"stage":"encode","pct":42}`), 0o644); err != nil {
		return err
	}
	mtime := time.Now().Add(-age)
	return os.Chtimes(path, mtime, mtime)
}

// RemoveMarkers deletes every output directory, markers included.
func (f *FakeRenderProject) RemoveMarkers() error {
	return os.RemoveAll(filepath.Join(f.Root, "output"))
}

// AddOutputArtifact drops a generated file the backup must exclude.
func (f *FakeRenderProject) AddOutputArtifact(rel string) error {
	path := filepath.Join(f.Root, "output", rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte("binary artifact"), 0o644)
}
