// Package sampler reads a point-in-time status of a git repository without
// running git: the checked out branch and tip, the changed files, and the
// merge or rebase markers git leaves in the repository directory.
package sampler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/storage/filesystem"

	"github.com/tierone/deckhand/pkg/changes"
)

// ErrNotRepository is returned when the directory has no .git directory.
var ErrNotRepository = errors.New("not a git repository")

// Sampler produces status results for repositories on disk.
type Sampler struct{}

// New creates a sampler.
func New() *Sampler {
	return &Sampler{}
}

// Sample opens the repository whose working tree is at dir and samples it.
func (s *Sampler) Sample(ctx context.Context, dir string) (*changes.StatusResult, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to stat repository: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: %w", dir, ErrNotRepository)
	}
	return s.SampleFS(ctx, osfs.New(dir))
}

// SampleFS samples a repository whose working tree is the root of fs and
// whose git directory is fs/.git.
func (s *Sampler) SampleFS(ctx context.Context, fs billy.Filesystem) (*changes.StatusResult, error) {
	if _, err := fs.Stat(git.GitDirName); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotRepository
		}
		return nil, fmt.Errorf("failed to stat git directory: %w", err)
	}

	dotGit, err := fs.Chroot(git.GitDirName)
	if err != nil {
		return nil, fmt.Errorf("failed to chroot to git directory: %w", err)
	}

	storage := filesystem.NewStorage(dotGit, cache.NewObjectLRUDefault())
	repo, err := git.Open(storage, fs)
	if err != nil {
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}

	return SampleRepository(ctx, repo, dotGit)
}

// SampleRepository samples an open repository. dotGit is the repository's
// git directory; when nil, merge and rebase markers are not reported.
func SampleRepository(ctx context.Context, repo *git.Repository, dotGit billy.Filesystem) (*changes.StatusResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &changes.StatusResult{}

	branch, tip, err := readHead(repo)
	if err != nil {
		return nil, err
	}
	result.CurrentBranch = branch
	result.CurrentTip = tip

	if dotGit != nil {
		result.MergeHeadFound = exists(dotGit, "MERGE_HEAD")

		rs, err := readRebaseState(dotGit)
		if err != nil {
			return nil, err
		}
		result.RebaseInternalState = rs
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	files, err := readFiles(repo)
	if err != nil {
		return nil, err
	}
	result.Files = files

	return result, nil
}

// readHead returns the checked out branch and commit. The branch is empty on
// a detached HEAD and the tip is empty on an unborn branch.
func readHead(repo *git.Repository) (string, string, error) {
	ref, err := repo.Reference(plumbing.HEAD, false)
	if err != nil {
		return "", "", fmt.Errorf("failed to read HEAD: %w", err)
	}

	var branch string
	if ref.Type() == plumbing.SymbolicReference && ref.Target().IsBranch() {
		branch = ref.Target().Short()
	}

	head, err := repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return branch, "", nil
	}
	if err != nil {
		return "", "", fmt.Errorf("failed to resolve HEAD: %w", err)
	}

	return branch, head.Hash().String(), nil
}

func readFiles(repo *git.Repository) ([]changes.WorkingDirectoryFile, error) {
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to get worktree: %w", err)
	}

	st, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("failed to get status: %w", err)
	}

	paths := make([]string, 0, len(st))
	for p := range st {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	files := make([]changes.WorkingDirectoryFile, 0, len(paths))
	for _, p := range paths {
		status, ok := MapStatus(*st[p])
		if !ok {
			continue
		}
		files = append(files, changes.NewWorkingDirectoryFile(p, status))
	}
	return files, nil
}

// MapStatus converts a go-git file status to a changed-file status. It
// returns false for files that are unchanged.
func MapStatus(fs git.FileStatus) (changes.FileStatus, bool) {
	s, w := fs.Staging, fs.Worktree

	switch {
	case s == git.UpdatedButUnmerged || w == git.UpdatedButUnmerged:
		return changes.StatusConflicted, true
	case s == git.Untracked || w == git.Untracked || s == git.Added:
		return changes.StatusNew, true
	case s == git.Deleted || w == git.Deleted:
		return changes.StatusDeleted, true
	case s == git.Renamed || w == git.Renamed:
		return changes.StatusRenamed, true
	case s == git.Copied || w == git.Copied:
		return changes.StatusCopied, true
	case s == git.Modified || w == git.Modified:
		return changes.StatusModified, true
	default:
		return 0, false
	}
}

// readRebaseState reads the files git keeps while a rebase is stopped. The
// interactive and merge backends use rebase-merge, the apply backend uses
// rebase-apply.
func readRebaseState(dotGit billy.Filesystem) (*changes.RebaseInternalState, error) {
	for _, dir := range []string{"rebase-merge", "rebase-apply"} {
		if !exists(dotGit, dir) {
			continue
		}

		headName, err := readTrimmed(dotGit, path.Join(dir, "head-name"))
		if err != nil {
			return nil, err
		}
		origHead, err := readTrimmed(dotGit, path.Join(dir, "orig-head"))
		if err != nil {
			return nil, err
		}
		if headName == "" || origHead == "" {
			continue
		}
		onto, err := readTrimmed(dotGit, path.Join(dir, "onto"))
		if err != nil {
			return nil, err
		}

		return &changes.RebaseInternalState{
			TargetBranch:      strings.TrimPrefix(headName, "refs/heads/"),
			OriginalBranchTip: origHead,
			BaseBranchTip:     onto,
		}, nil
	}
	return nil, nil
}

// readTrimmed returns the trimmed contents of a file, or an empty string if
// it does not exist.
func readTrimmed(fs billy.Filesystem, name string) (string, error) {
	f, err := fs.Open(name)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", name, err)
	}
	return strings.TrimSpace(string(data)), nil
}

func exists(fs billy.Filesystem, name string) bool {
	_, err := fs.Stat(name)
	return err == nil
}
