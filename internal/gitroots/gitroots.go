// Package gitroots keeps remote documentation sources checked out under a
// local workspace. Each configured repository contributes one directory that
// callers append to the locator's search roots.
package gitroots

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"git.home.luguber.info/inful/docbrowse/internal/config"
	"git.home.luguber.info/inful/docbrowse/internal/logfields"
	"git.home.luguber.info/inful/docbrowse/internal/metrics"
)

// Syncer clones and updates the configured repositories.
type Syncer struct {
	workspace string
	repos     []config.Repository
	recorder  metrics.Recorder
}

// New creates a Syncer rooted at the workspace directory.
func New(workspace string, repos []config.Repository, recorder metrics.Recorder) *Syncer {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Syncer{workspace: workspace, repos: repos, recorder: recorder}
}

// Roots returns the search-root directory for every configured repository,
// whether or not it has been synced yet, preserving configuration order.
func (s *Syncer) Roots() []string {
	roots := make([]string, 0, len(s.repos))
	for _, repo := range s.repos {
		roots = append(roots, s.docsDir(repo))
	}
	return roots
}

func (s *Syncer) docsDir(repo config.Repository) string {
	dir := filepath.Join(s.workspace, repo.Name)
	if repo.DocsDir != "" {
		dir = filepath.Join(dir, filepath.FromSlash(repo.DocsDir))
	}
	return dir
}

// Sync clones or updates every repository. Individual failures are logged
// and counted but do not abort the remaining repositories; the first error
// is returned after all repositories were attempted.
func (s *Syncer) Sync(ctx context.Context) error {
	if len(s.repos) == 0 {
		return nil
	}
	if err := os.MkdirAll(s.workspace, 0o755); err != nil {
		return fmt.Errorf("failed to create workspace: %w", err)
	}

	var firstErr error
	for _, repo := range s.repos {
		start := time.Now()
		err := s.syncOne(ctx, repo)
		s.recorder.ObserveSyncDuration(repo.Name, time.Since(start), err == nil)
		if err != nil {
			slog.Error("Repository sync failed", logfields.Repository(repo.Name), logfields.Error(err))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		slog.Info("Repository synced", logfields.Repository(repo.Name), logfields.Path(s.docsDir(repo)))
	}
	return firstErr
}

func (s *Syncer) syncOne(ctx context.Context, repo config.Repository) error {
	repoPath := filepath.Join(s.workspace, repo.Name)
	if _, err := os.Stat(filepath.Join(repoPath, ".git")); err != nil {
		return s.clone(ctx, repo, repoPath)
	}
	return s.update(ctx, repo, repoPath)
}

func (s *Syncer) clone(ctx context.Context, repo config.Repository, repoPath string) error {
	slog.Debug("Cloning repository", logfields.Repository(repo.Name), logfields.URL(repo.URL))
	if err := os.RemoveAll(repoPath); err != nil {
		return fmt.Errorf("failed to remove existing directory: %w", err)
	}
	opts := &git.CloneOptions{URL: repo.URL, Depth: 1}
	if repo.Branch != "" {
		opts.ReferenceName = plumbing.ReferenceName("refs/heads/" + repo.Branch)
		opts.SingleBranch = true
	}
	if _, err := git.PlainCloneContext(ctx, repoPath, false, opts); err != nil {
		return fmt.Errorf("failed to clone repository %s: %w", repo.URL, err)
	}
	return nil
}

func (s *Syncer) update(ctx context.Context, repo config.Repository, repoPath string) error {
	repository, err := git.PlainOpen(repoPath)
	if err != nil {
		// A corrupt checkout is recovered by recloning.
		slog.Warn("Repository open failed, recloning", logfields.Repository(repo.Name), logfields.Error(err))
		return s.clone(ctx, repo, repoPath)
	}
	wt, err := repository.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}
	pullOpts := &git.PullOptions{Force: true}
	if repo.Branch != "" {
		pullOpts.ReferenceName = plumbing.ReferenceName("refs/heads/" + repo.Branch)
		pullOpts.SingleBranch = true
	}
	if err := wt.PullContext(ctx, pullOpts); err != nil && err != git.NoErrAlreadyUpToDate {
		return fmt.Errorf("failed to update repository %s: %w", repo.URL, err)
	}
	return nil
}
