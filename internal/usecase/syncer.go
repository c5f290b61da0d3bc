package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"go.uber.org/zap"

	"rendersync/internal/config"
	"rendersync/internal/domain"
)

// ErrDiverged is returned when the local branch and the remote cannot be
// reconciled by a fast-forward. The local commit is kept; pushing is left to
// a human.
var ErrDiverged = errors.New("local and remote branches have diverged")

// GitSyncer implements domain.Syncer on go-git: stage everything, commit,
// fast-forward pull, push. A repository without the configured remote runs
// in commit-only mode.
type GitSyncer struct {
	cfg    config.RepoConfig
	logger *zap.Logger
}

// NewGitSyncer creates a new git syncer.
func NewGitSyncer(cfg config.RepoConfig, logger *zap.Logger) *GitSyncer {
	return &GitSyncer{cfg: cfg, logger: logger}
}

// Sync runs one commit/pull/push cycle. The caller is expected to have asked
// the activity guard first; Sync itself does no busy-checking.
func (s *GitSyncer) Sync(ctx context.Context) (*domain.SyncResult, error) {
	start := time.Now()

	repo, err := git.PlainOpen(s.cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to open repository at %s: %w", s.cfg.Root, err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to get worktree: %w", err)
	}

	if err := s.ensureBranch(repo, wt); err != nil {
		return nil, err
	}

	result := &domain.SyncResult{ExecutedAt: start}

	status, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("failed to get worktree status: %w", err)
	}

	if !status.IsClean() {
		if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
			return nil, fmt.Errorf("failed to stage changes: %w", err)
		}

		msg := fmt.Sprintf("%s: %s", s.cfg.CommitPrefix, start.Format("2006-01-02 15:04:05"))
		hash, err := wt.Commit(msg, &git.CommitOptions{
			Author: &object.Signature{
				Name:  s.cfg.AuthorName,
				Email: s.cfg.AuthorEmail,
				When:  start,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to commit: %w", err)
		}

		result.CommitHash = hash.String()
		result.FilesChanged = len(status)
		s.logger.Info("committed local changes",
			zap.String("commit", result.CommitHash),
			zap.Int("files", result.FilesChanged))
	}

	if _, err := repo.Remote(s.cfg.Remote); err != nil {
		if errors.Is(err, git.ErrRemoteNotFound) {
			result.RemoteMissing = true
			result.DurationMs = time.Since(start).Milliseconds()
			s.logger.Warn("remote not configured, commit-only mode",
				zap.String("remote", s.cfg.Remote))
			return result, nil
		}
		return nil, fmt.Errorf("failed to inspect remote %s: %w", s.cfg.Remote, err)
	}

	pulled, err := s.pull(ctx, wt)
	if err != nil {
		result.DurationMs = time.Since(start).Milliseconds()
		return result, err
	}
	result.Pulled = pulled

	if err := s.push(ctx, repo); err != nil {
		result.DurationMs = time.Since(start).Milliseconds()
		return result, err
	}
	result.Pushed = true

	result.DurationMs = time.Since(start).Milliseconds()
	return result, nil
}

// ensureBranch makes sure the configured branch is checked out, creating it
// when missing. On an unborn repository HEAD is pointed at the branch so the
// first commit lands there.
func (s *GitSyncer) ensureBranch(repo *git.Repository, wt *git.Worktree) error {
	want := plumbing.NewBranchReferenceName(s.cfg.Branch)

	head, err := repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			// Unborn HEAD: first commit will create the branch.
			return repo.Storer.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, want))
		}
		return fmt.Errorf("failed to resolve HEAD: %w", err)
	}

	if head.Name() == want {
		return nil
	}

	_, refErr := repo.Reference(want, true)
	create := errors.Is(refErr, plumbing.ErrReferenceNotFound)

	if err := wt.Checkout(&git.CheckoutOptions{Branch: want, Create: create}); err != nil {
		return fmt.Errorf("failed to checkout branch %s: %w", s.cfg.Branch, err)
	}

	s.logger.Info("switched to sync branch",
		zap.String("branch", s.cfg.Branch),
		zap.Bool("created", create))
	return nil
}

// pull brings in remote changes fast-forward only. A merge that would need a
// merge commit aborts the cycle with ErrDiverged.
func (s *GitSyncer) pull(ctx context.Context, wt *git.Worktree) (bool, error) {
	err := wt.PullContext(ctx, &git.PullOptions{
		RemoteName:    s.cfg.Remote,
		ReferenceName: plumbing.NewBranchReferenceName(s.cfg.Branch),
		SingleBranch:  true,
	})
	switch {
	case err == nil:
		s.logger.Info("pulled remote changes")
		return true, nil
	case errors.Is(err, git.NoErrAlreadyUpToDate):
		return false, nil
	case errors.Is(err, git.ErrNonFastForwardUpdate):
		return false, fmt.Errorf("pull from %s: %w", s.cfg.Remote, ErrDiverged)
	case errors.Is(err, transport.ErrEmptyRemoteRepository):
		// Nothing to pull from a brand-new remote.
		return false, nil
	case errors.Is(err, plumbing.ErrReferenceNotFound):
		// Remote exists but does not have our branch yet.
		return false, nil
	default:
		return false, fmt.Errorf("failed to pull from %s: %w", s.cfg.Remote, err)
	}
}

func (s *GitSyncer) push(ctx context.Context, repo *git.Repository) error {
	err := repo.PushContext(ctx, &git.PushOptions{RemoteName: s.cfg.Remote})
	switch {
	case err == nil:
		s.logger.Info("pushed to remote",
			zap.String("remote", s.cfg.Remote),
			zap.String("branch", s.cfg.Branch))
		return nil
	case errors.Is(err, git.NoErrAlreadyUpToDate):
		return nil
	case errors.Is(err, git.ErrNonFastForwardUpdate):
		return fmt.Errorf("push to %s: %w", s.cfg.Remote, ErrDiverged)
	default:
		return fmt.Errorf("failed to push to %s: %w", s.cfg.Remote, err)
	}
}

// Ensure GitSyncer implements domain.Syncer.
var _ domain.Syncer = (*GitSyncer)(nil)
