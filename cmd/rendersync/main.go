// Package main is the CLI entry point for rendersync.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"rendersync/internal/config"
	"rendersync/internal/daemon"
	"rendersync/internal/domain"
	"rendersync/internal/infra"
	"rendersync/internal/profile"
	"rendersync/internal/usecase"
)

var (
	// Version info (set via ldflags)
	Version   = "0.1.0"
	Commit    = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "rendersync",
	Short: "Guarded auto-commit, push and backup for a render working tree",
	Long: `rendersync keeps a video-render project continuously committed and pushed,
and takes a daily ZIP backup, without ever touching the working tree while a
render or encode job is in flight.

Before every sync or backup cycle an activity guard inspects progress-marker
files and the process table; if a job looks active, the cycle is skipped and
retried on the next tick.`,
	Version: Version,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the sync daemon (foreground)",
	Long: `Runs the scheduler loop: a guard-gated sync cycle every interval and one
guard-gated backup per day at the configured hour. Intended to be started by
the OS service manager or a terminal multiplexer.`,
	RunE: runRun,
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run a single guard-gated sync cycle",
	RunE:  runSync,
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Print the activity guard's BUSY/IDLE verdict",
	Long: `Performs one point-in-time guard check and prints the verdict with the
evidence that produced it. A BUSY verdict is a normal outcome, not an error.`,
	RunE: runCheck,
}

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Run a single guard-gated backup",
	RunE:  runBackup,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recent sync and backup cycles",
	RunE:  runStatus,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run:   runVersion,
}

var (
	configPath  string
	statusLimit int
	jsonOutput  bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "Path to config file")
	statusCmd.Flags().IntVar(&statusLimit, "limit", 10, "Number of cycles to show")
	versionCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output version info as JSON")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
}

// components bundles everything a command needs, wired from config.
type components struct {
	cfg     *config.Config
	fs      domain.FileSystem
	guard   *usecase.Guard
	runner  *usecase.Runner
	history domain.HistoryStore
	logger  *zap.Logger
}

func (c *components) Close() {
	if c.history != nil {
		_ = c.history.Close()
	}
	_ = c.logger.Sync()
}

// buildComponents wires the full component graph. withHistory is false for
// read-only commands like check.
func buildComponents(logger *zap.Logger, withHistory bool) (*components, error) {
	fs := infra.NewFileSystem()

	cfg, err := config.Load(fs.ExpandHome(configPath))
	if err != nil {
		return nil, err
	}
	root := fs.ExpandHome(cfg.Repo.Root)

	profiles := profile.NewProfileStore()
	guard := usecase.NewGuard(
		usecase.GuardSettings{
			Root:      root,
			Staleness: cfg.Guard.Staleness(),
			FailOpen:  cfg.Guard.FailOpen,
		},
		profiles,
		infra.NewMarkerScanner(),
		infra.NewProcessInspector(),
		logger,
	)

	var history domain.HistoryStore
	if withHistory {
		history, err = infra.NewSQLiteHistory(fs.ExpandHome(cfg.History.Path))
		if err != nil {
			return nil, err
		}
	}

	repoCfg := cfg.Repo
	repoCfg.Root = root
	syncer := usecase.NewGitSyncer(repoCfg, logger)
	archiver := infra.NewZipArchiver(logger)
	runner := usecase.NewRunner(guard, syncer, archiver, history, fs, root, cfg.Backup, logger)

	return &components{
		cfg:     cfg,
		fs:      fs,
		guard:   guard,
		runner:  runner,
		history: history,
		logger:  logger,
	}, nil
}

func runRun(cmd *cobra.Command, args []string) error {
	fs := infra.NewFileSystem()
	cfg, err := config.Load(fs.ExpandHome(configPath))
	if err != nil {
		return err
	}

	logger := createLogger(fs.ExpandHome(cfg.Log.File))
	c, err := buildComponents(logger, true)
	if err != nil {
		return err
	}
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("received shutdown signal")
		cancel()
	}()

	watcher := daemon.NewMarkerWatcher(
		c.fs.ExpandHome(c.cfg.Repo.Root),
		profile.NewProfileStore(),
		c.cfg.Guard.Staleness(),
		logger,
	)

	d := daemon.New(
		daemon.DefaultConfig(c.cfg.Sync.Interval(), c.cfg.Backup.Hour),
		c.runner,
		watcher,
		logger,
	)

	err = d.Run(ctx)
	if err == context.Canceled {
		return nil
	}
	return err
}

func runSync(cmd *cobra.Command, args []string) error {
	logger, _ := zap.NewDevelopment()
	c, err := buildComponents(logger, true)
	if err != nil {
		return err
	}
	defer c.Close()

	rec, err := c.runner.RunSync(cmd.Context())
	if err != nil {
		return err
	}

	if rec.Busy {
		fmt.Printf("Skipped: render in progress (%s: %s)\n", rec.Reason, rec.Detail)
		return nil
	}
	if rec.CommitHash != "" {
		fmt.Printf("Committed %s\n", rec.CommitHash)
	} else {
		fmt.Println("Nothing to commit")
	}
	if rec.Pushed {
		fmt.Println("Pushed to remote")
	}
	return nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	logger := zap.NewNop()
	c, err := buildComponents(logger, false)
	if err != nil {
		return err
	}
	defer c.Close()

	decision := c.guard.Check(cmd.Context())
	if decision.Busy {
		fmt.Printf("BUSY (%s", decision.Reason)
		if decision.Detail != "" {
			fmt.Printf(": %s", decision.Detail)
		}
		fmt.Println(")")
	} else {
		fmt.Println("IDLE")
	}
	return nil
}

func runBackup(cmd *cobra.Command, args []string) error {
	logger, _ := zap.NewDevelopment()
	c, err := buildComponents(logger, true)
	if err != nil {
		return err
	}
	defer c.Close()

	rec, err := c.runner.RunBackup(cmd.Context())
	if err != nil {
		return err
	}

	if rec.Busy {
		fmt.Printf("Skipped: render in progress (%s: %s)\n", rec.Reason, rec.Detail)
		return nil
	}
	fmt.Printf("Backup written: %s\n", rec.Detail)
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	logger := zap.NewNop()
	c, err := buildComponents(logger, true)
	if err != nil {
		return err
	}
	defer c.Close()

	cycles, err := c.history.RecentCycles(cmd.Context(), statusLimit)
	if err != nil {
		return err
	}

	if len(cycles) == 0 {
		fmt.Println("No cycles recorded yet.")
		return nil
	}

	fmt.Println("\n=== Recent Cycles ===")
	for _, rec := range cycles {
		outcome := "ok"
		switch {
		case rec.Err != "":
			outcome = "error: " + rec.Err
		case rec.Busy:
			outcome = fmt.Sprintf("skipped (%s)", rec.Reason)
		case rec.Kind == domain.CycleSync && rec.CommitHash != "":
			outcome = "committed " + rec.CommitHash[:min(8, len(rec.CommitHash))]
			if rec.Pushed {
				outcome += ", pushed"
			}
		case rec.Kind == domain.CycleBackup:
			outcome = rec.Detail
		}
		fmt.Printf("%s  %-6s  %s\n",
			rec.StartedAt.Format("2006-01-02 15:04:05"), rec.Kind, outcome)
	}
	fmt.Println("=====================")
	return nil
}

func runVersion(cmd *cobra.Command, args []string) {
	if jsonOutput {
		fmt.Printf(`{"version":"%s","commit":"%s","build_time":"%s"}`+"\n",
			Version, Commit, BuildTime)
	} else {
		fmt.Printf("rendersync %s (commit: %s, built: %s)\n",
			Version, Commit, BuildTime)
	}
}

// createLogger builds the daemon logger writing to the configured file,
// falling back to stderr when the file cannot be opened.
func createLogger(logFile string) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if logFile != "" {
		if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err == nil {
			cfg.OutputPaths = []string{logFile}
			cfg.ErrorOutputPaths = []string{logFile}
		}
	}
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		logger, _ = zap.NewProduction()
	}
	return logger
}

