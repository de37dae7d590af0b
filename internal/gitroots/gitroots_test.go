package gitroots

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docbrowse/internal/config"
)

// makeSourceRepo creates a local git repository with one committed doc file,
// usable as a file:// clone source.
func makeSourceRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	docs := filepath.Join(dir, "docs")
	require.NoError(t, os.MkdirAll(docs, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(docs, "Guide.md"), []byte("# Guide\n"), 0o644))

	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add(".")
	require.NoError(t, err)
	_, err = wt.Commit("add docs", &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.org"},
	})
	require.NoError(t, err)
	return dir
}

func TestRoots_OrderAndDocsDir(t *testing.T) {
	ws := t.TempDir()
	s := New(ws, []config.Repository{
		{Name: "a", URL: "u", DocsDir: "docs"},
		{Name: "b", URL: "u"},
	}, nil)

	roots := s.Roots()
	require.Equal(t, []string{
		filepath.Join(ws, "a", "docs"),
		filepath.Join(ws, "b"),
	}, roots)
}

func TestSync_NoRepositoriesIsNoop(t *testing.T) {
	s := New(t.TempDir(), nil, nil)
	require.NoError(t, s.Sync(context.Background()))
}

func TestSync_CloneAndUpdate(t *testing.T) {
	source := makeSourceRepo(t)
	ws := t.TempDir()
	s := New(ws, []config.Repository{
		{Name: "guides", URL: source, DocsDir: "docs"},
	}, nil)

	require.NoError(t, s.Sync(context.Background()))
	require.FileExists(t, filepath.Join(ws, "guides", "docs", "Guide.md"))

	// Second sync takes the update path and must tolerate "already up to date".
	require.NoError(t, s.Sync(context.Background()))
}

func TestSync_BadRepositoryReturnsError(t *testing.T) {
	ws := t.TempDir()
	s := New(ws, []config.Repository{
		{Name: "broken", URL: filepath.Join(t.TempDir(), "does-not-exist")},
	}, nil)

	require.Error(t, s.Sync(context.Background()))
}
