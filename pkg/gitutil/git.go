// Package gitutil provides the repository-root discovery and candidate-path
// listing the Workspace Runner needs: staged files, all tracked files, and
// git-hook-script install/uninstall. It intentionally does not cover diff
// generation, stash, or branch/remote inspection — none of that is reachable
// from a hook-scheduling run.
package gitutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Repository is a thin handle on a discovered git repository, used by the
// Workspace Runner to bound discovery and by the Workspace Discoverer as
// the upward-walk and downward-walk boundary.
type Repository struct {
	repo *git.Repository
	Root string
}

// NewRepository opens the git repository containing path ("" for cwd).
func NewRepository(path string) (*Repository, error) {
	root, err := FindGitRoot(path)
	if err != nil {
		return nil, err
	}

	repo, err := git.PlainOpen(root)
	if err != nil {
		return nil, fmt.Errorf("failed to open git repository: %w", err)
	}

	return &Repository{Root: root, repo: repo}, nil
}

// FindGitRoot walks upward from path (or cwd) until it finds a ".git" entry.
func FindGitRoot(path string) (string, error) {
	if path == "" {
		var err error
		path, err = os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get current directory: %w", err)
		}
	}

	path, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	for {
		gitDir := filepath.Join(path, ".git")
		if info, statErr := os.Stat(gitDir); statErr == nil {
			if info.IsDir() {
				return path, nil
			}
			// Worktree: .git is a file pointing at the real gitdir.
			if content, readErr := os.ReadFile(gitDir); readErr == nil { // #nosec G304 -- reading git metadata
				if strings.HasPrefix(strings.TrimSpace(string(content)), "gitdir: ") {
					return path, nil
				}
			}
		}

		parent := filepath.Dir(path)
		if parent == path {
			return "", fmt.Errorf("not in a git repository")
		}
		path = parent
	}
}

// IsInRepository reports whether the current directory is inside a git
// repository.
func IsInRepository() bool {
	_, err := FindGitRoot("")
	return err == nil
}

// GetStagedFiles returns repository-relative paths staged in the index,
// the Workspace Runner's default candidate path set.
func (r *Repository) GetStagedFiles() ([]string, error) {
	worktree, err := r.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to get worktree: %w", err)
	}

	status, err := worktree.Status()
	if err != nil {
		return nil, fmt.Errorf("failed to get status: %w", err)
	}

	var files []string
	for file, fileStatus := range status {
		if fileStatus.Staging == git.Added ||
			fileStatus.Staging == git.Modified ||
			fileStatus.Staging == git.Copied {
			files = append(files, file)
		}
	}
	return files, nil
}

// GetAllFiles returns every tracked file (HEAD tree) plus anything staged,
// used for --all-files runs.
func (r *Repository) GetAllFiles() ([]string, error) {
	worktree, err := r.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to get worktree: %w", err)
	}

	status, err := worktree.Status()
	if err != nil {
		return nil, fmt.Errorf("failed to get status: %w", err)
	}

	fileSet := make(map[string]bool)
	for file, fileStatus := range status {
		if fileStatus.Staging != git.Unmodified &&
			fileStatus.Staging != git.Untracked &&
			fileStatus.Staging != git.Deleted {
			fileSet[file] = true
		}
	}
	r.addHeadFilesToSet(fileSet)

	files := make([]string, 0, len(fileSet))
	for file := range fileSet {
		files = append(files, file)
	}
	return files, nil
}

func (r *Repository) addHeadFilesToSet(fileSet map[string]bool) {
	head, err := r.repo.Head()
	if err != nil {
		return
	}
	commit, err := r.repo.CommitObject(head.Hash())
	if err != nil {
		return
	}
	tree, err := commit.Tree()
	if err != nil {
		return
	}
	//nolint:errcheck // best-effort file collection
	tree.Files().ForEach(func(f *object.File) error {
		fileSet[f.Name] = true
		return nil
	})
}

// IsConfigStaged reports whether path is present in the staged file set,
// used by the config-staged precondition check.
func (r *Repository) IsConfigStaged(path string) (bool, error) {
	staged, err := r.GetStagedFiles()
	if err != nil {
		return false, err
	}
	rel, err := filepath.Rel(r.Root, path)
	if err != nil {
		return false, err
	}
	rel = filepath.ToSlash(rel)
	for _, f := range staged {
		if f == rel {
			return true, nil
		}
	}
	return false, nil
}

// InstallHook writes a git hook script into .git/hooks.
func (r *Repository) InstallHook(hookName, script string) error {
	hooksDir := filepath.Join(r.Root, ".git", "hooks")
	if err := os.MkdirAll(hooksDir, 0o750); err != nil {
		return fmt.Errorf("failed to create hooks directory: %w", err)
	}

	hookPath := filepath.Join(hooksDir, hookName)
	if err := os.WriteFile(hookPath, []byte(script), 0o600); err != nil {
		return fmt.Errorf("failed to write hook file: %w", err)
	}

	// #nosec G302 -- hook scripts must be executable
	if err := os.Chmod(hookPath, 0o700); err != nil {
		return fmt.Errorf("failed to make hook executable: %w", err)
	}
	return nil
}

// UninstallHook removes a git hook script.
func (r *Repository) UninstallHook(hookName string) error {
	hookPath := filepath.Join(r.Root, ".git", "hooks", hookName)
	if err := os.Remove(hookPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove hook: %w", err)
	}
	return nil
}

// HasHook reports whether a hook script is already installed.
func (r *Repository) HasHook(hookName string) bool {
	_, err := os.Stat(filepath.Join(r.Root, ".git", "hooks", hookName))
	return err == nil
}
