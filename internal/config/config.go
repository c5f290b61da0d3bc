// Package config loads the rendersync configuration file and supplies
// defaults for every field, so a missing file is a valid zero setup.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// RepoConfig describes the git working tree to keep in sync.
type RepoConfig struct {
	Root         string `yaml:"root"`
	Branch       string `yaml:"branch"`
	Remote       string `yaml:"remote"`
	AuthorName   string `yaml:"author_name"`
	AuthorEmail  string `yaml:"author_email"`
	CommitPrefix string `yaml:"commit_prefix"`
}

// GuardConfig tunes the activity guard.
type GuardConfig struct {
	StalenessSeconds int `yaml:"staleness_seconds"`

	// FailOpen controls what happens when the process table cannot be
	// enumerated at all: true assumes IDLE (the original scripts' behavior),
	// false assumes BUSY. Default false - a guard that exists to prevent
	// corruption should not treat blindness as safety.
	FailOpen bool `yaml:"fail_open"`
}

// Staleness returns the marker staleness window as a duration.
func (g GuardConfig) Staleness() time.Duration {
	return time.Duration(g.StalenessSeconds) * time.Second
}

// SyncConfig tunes the sync scheduler.
type SyncConfig struct {
	IntervalMinutes int `yaml:"interval_minutes"`
}

// Interval returns the sync interval as a duration.
func (s SyncConfig) Interval() time.Duration {
	return time.Duration(s.IntervalMinutes) * time.Minute
}

// BackupConfig tunes the nightly archive.
type BackupConfig struct {
	Dir      string   `yaml:"dir"`
	Hour     int      `yaml:"hour"` // local hour [0,23] at which the daily backup runs
	Excludes []string `yaml:"excludes"`
}

// HistoryConfig locates the cycle history database.
type HistoryConfig struct {
	Path string `yaml:"path"`
}

// LogConfig locates the daemon log file.
type LogConfig struct {
	File string `yaml:"file"`
}

// Config is the full rendersync configuration, passed explicitly to every
// component. There is no process-wide configuration state.
type Config struct {
	Repo    RepoConfig    `yaml:"repo"`
	Guard   GuardConfig   `yaml:"guard"`
	Sync    SyncConfig    `yaml:"sync"`
	Backup  BackupConfig  `yaml:"backup"`
	History HistoryConfig `yaml:"history"`
	Log     LogConfig     `yaml:"log"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Repo: RepoConfig{
			Root:         ".",
			Branch:       "main",
			Remote:       "origin",
			AuthorName:   "rendersync",
			AuthorEmail:  "rendersync@localhost",
			CommitPrefix: "auto-sync",
		},
		Guard: GuardConfig{
			StalenessSeconds: 300,
			FailOpen:         false,
		},
		Sync: SyncConfig{
			IntervalMinutes: 10,
		},
		Backup: BackupConfig{
			Dir:  "~/backups",
			Hour: 2,
			Excludes: []string{
				".git/**",
				"output/**",
				"**/__pycache__/**",
				"**/*.tmp",
				".cache/**",
			},
		},
		History: HistoryConfig{
			Path: "~/.rendersync/history.db",
		},
		Log: LogConfig{
			File: "~/.rendersync/rendersync.log",
		},
	}
}

// Load reads the YAML file at path over the defaults. A missing file is not
// an error; a malformed one is.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects values the schedulers cannot work with.
func (c *Config) Validate() error {
	if c.Guard.StalenessSeconds < 0 {
		return fmt.Errorf("guard.staleness_seconds must be >= 0, got %d", c.Guard.StalenessSeconds)
	}
	if c.Sync.IntervalMinutes <= 0 {
		return fmt.Errorf("sync.interval_minutes must be > 0, got %d", c.Sync.IntervalMinutes)
	}
	if c.Backup.Hour < 0 || c.Backup.Hour > 23 {
		return fmt.Errorf("backup.hour must be in [0,23], got %d", c.Backup.Hour)
	}
	if c.Repo.Branch == "" {
		return fmt.Errorf("repo.branch must not be empty")
	}
	return nil
}

// DefaultPath returns the conventional config file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "rendersync.yaml"
	}
	return filepath.Join(home, ".rendersync", "config.yaml")
}
