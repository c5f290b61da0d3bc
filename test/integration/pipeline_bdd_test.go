//go:build integration

package integration

import (
	"archive/zip"
	"context"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"rendersync/internal/config"
	"rendersync/internal/domain"
	"rendersync/internal/infra"
	"rendersync/internal/profile"
	"rendersync/internal/usecase"
	"rendersync/test/fixtures"
)

// newPipelineRunner wires real components end to end: git syncer in
// commit-only mode (no remote configured), zip archiver, sqlite history.
// quietProfile keeps the real process inspector from matching anything a
// developer's machine might be running.
func newPipelineRunner(project *fixtures.FakeRenderProject, backupDir, historyPath string) (*usecase.Runner, domain.HistoryStore) {
	logger := zap.NewNop()

	store := profile.NewProfileStoreWith(
		profile.NewRegistryWithProfiles(quietProfile{}))

	guard := usecase.NewGuard(
		usecase.GuardSettings{Root: project.Root, Staleness: 300 * time.Second},
		store,
		infra.NewMarkerScanner(),
		infra.NewProcessInspector(),
		logger,
	)

	syncer := usecase.NewGitSyncer(config.RepoConfig{
		Root:         project.Root,
		Branch:       "main",
		Remote:       "origin",
		AuthorName:   "rendersync",
		AuthorEmail:  "rendersync@localhost",
		CommitPrefix: "auto-sync",
	}, logger)

	history, err := infra.NewSQLiteHistory(historyPath)
	Expect(err).NotTo(HaveOccurred())

	backup := config.BackupConfig{
		Dir:      backupDir,
		Hour:     2,
		Excludes: []string{".git/**", "output/**"},
	}

	runner := usecase.NewRunner(guard, syncer,
		infra.NewZipArchiver(logger), history, infra.NewFileSystem(),
		project.Root, backup, logger)
	return runner, history
}

var _ = Describe("Guard-gated pipeline", func() {
	var (
		project   *fixtures.FakeRenderProject
		backupDir string
		runner    *usecase.Runner
		history   domain.HistoryStore
	)

	BeforeEach(func() {
		project = fixtures.NewFakeRenderProject(GinkgoT().TempDir())
		Expect(project.Create()).To(Succeed())
		_, err := git.PlainInit(project.Root, false)
		Expect(err).NotTo(HaveOccurred())

		backupDir = GinkgoT().TempDir()
		historyPath := filepath.Join(GinkgoT().TempDir(), "history.db")
		runner, history = newPipelineRunner(project, backupDir, historyPath)
	})

	AfterEach(func() {
		Expect(history.Close()).To(Succeed())
	})

	Describe("sync cycle", func() {
		Context("with an idle project and uncommitted sources", func() {
			It("commits everything and records the cycle", func() {
				rec, err := runner.RunSync(context.Background())
				Expect(err).NotTo(HaveOccurred())
				Expect(rec.Busy).To(BeFalse())
				Expect(rec.CommitHash).NotTo(BeEmpty())

				repo, err := git.PlainOpen(project.Root)
				Expect(err).NotTo(HaveOccurred())
				head, err := repo.Head()
				Expect(err).NotTo(HaveOccurred())
				Expect(head.Name().Short()).To(Equal("main"))
				Expect(head.Hash().String()).To(Equal(rec.CommitHash))

				recent, err := history.RecentCycles(context.Background(), 10)
				Expect(err).NotTo(HaveOccurred())
				Expect(recent).To(HaveLen(1))
				Expect(recent[0].Kind).To(Equal(domain.CycleSync))
				Expect(recent[0].CommitHash).To(Equal(rec.CommitHash))
			})
		})

		Context("while a render is writing progress", func() {
			It("skips the commit and records a busy cycle", func() {
				Expect(project.WriteMarker("output/long/progress.json", time.Second)).To(Succeed())

				rec, err := runner.RunSync(context.Background())
				Expect(err).NotTo(HaveOccurred())
				Expect(rec.Busy).To(BeTrue())
				Expect(rec.Reason).To(Equal(domain.ReasonFreshMarker))
				Expect(rec.CommitHash).To(BeEmpty())

				repo, err := git.PlainOpen(project.Root)
				Expect(err).NotTo(HaveOccurred())
				_, err = repo.Head()
				Expect(err).To(HaveOccurred(), "no commit should exist")
			})
		})

		Context("run twice on an unchanged tree", func() {
			It("commits only once", func() {
				first, err := runner.RunSync(context.Background())
				Expect(err).NotTo(HaveOccurred())
				Expect(first.CommitHash).NotTo(BeEmpty())

				second, err := runner.RunSync(context.Background())
				Expect(err).NotTo(HaveOccurred())
				Expect(second.CommitHash).To(BeEmpty())
			})
		})
	})

	Describe("backup cycle", func() {
		Context("with an idle project", func() {
			It("writes an archive without the excluded output", func() {
				Expect(project.AddOutputArtifact("long/final.mp4")).To(Succeed())

				rec, err := runner.RunBackup(context.Background())
				Expect(err).NotTo(HaveOccurred())
				Expect(rec.Busy).To(BeFalse())
				Expect(rec.Detail).To(HaveSuffix(".zip"))

				reader, err := zip.OpenReader(rec.Detail)
				Expect(err).NotTo(HaveOccurred())
				defer reader.Close()

				names := make([]string, 0, len(reader.File))
				for _, f := range reader.File {
					names = append(names, f.Name)
				}
				Expect(names).To(ContainElement("scripts/src/renderer.py"))
				Expect(names).NotTo(ContainElement("output/long/final.mp4"))
			})
		})

		Context("while a render is writing progress", func() {
			It("skips the archive", func() {
				Expect(project.WriteMarker("output/shorts/ep1/progress.json", time.Second)).To(Succeed())

				rec, err := runner.RunBackup(context.Background())
				Expect(err).NotTo(HaveOccurred())
				Expect(rec.Busy).To(BeTrue())

				matches, err := filepath.Glob(filepath.Join(backupDir, "*.zip"))
				Expect(err).NotTo(HaveOccurred())
				Expect(matches).To(BeEmpty())
			})
		})
	})

	Describe("cycle history", func() {
		It("keeps sync and backup cycles newest first", func() {
			_, err := runner.RunSync(context.Background())
			Expect(err).NotTo(HaveOccurred())
			_, err = runner.RunBackup(context.Background())
			Expect(err).NotTo(HaveOccurred())

			recent, err := history.RecentCycles(context.Background(), 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(recent).To(HaveLen(2))
			Expect(recent[0].Kind).To(Equal(domain.CycleBackup))
			Expect(recent[1].Kind).To(Equal(domain.CycleSync))
		})
	})
})
