// Package workspace discovers and orders the set of projects (directories
// carrying their own hook config) that a run should operate over.
package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hookwave/hookwave/pkg/config"
)

// ErrNoConfig is returned when no project config file can be found.
var ErrNoConfig = errors.New("no hookwave config file found")

// Project is one directory in the workspace carrying its own config file.
type Project struct {
	ConfigPath   string
	Root         string // absolute path to the project directory
	RelativePath string // relative to the workspace root, slash-separated
	Depth        int
	Idx          int
	Config       *config.Config
}

// RootPath implements filter.ProjectOwner.
func (p *Project) RootPath() string { return p.Root }

// IsOrphan implements filter.ProjectOwner.
func (p *Project) IsOrphan() bool { return p.Config != nil && p.Config.Orphan }

// Workspace is the discovered, ordered set of projects for a run.
type Workspace struct {
	Root     string
	Projects []*Project // sorted deepest-first, per Discover
}

// DiscoverOptions configures Discover.
type DiscoverOptions struct {
	// ExplicitConfig, if set, short-circuits discovery to a single project
	// rooted at that config file's directory.
	ExplicitConfig string
	// StartDir is the directory to begin the upward walk from. Must be
	// absolute.
	StartDir string
	// GitRoot is the path of the repository's .git entry. The upward walk
	// stops at its parent directory (the repository's working-tree root) and
	// never looks above it.
	GitRoot string
}

// Discover finds the workspace root and every nested project beneath it.
func Discover(opts DiscoverOptions) (*Workspace, error) {
	if opts.ExplicitConfig != "" {
		proj, err := loadProject(opts.ExplicitConfig, 0, 0, "")
		if err != nil {
			return nil, err
		}
		return &Workspace{Root: filepath.Dir(opts.ExplicitConfig), Projects: []*Project{proj}}, nil
	}

	root, err := findWorkspaceRoot(opts.StartDir, opts.GitRoot)
	if err != nil {
		return nil, err
	}

	projects, err := collectProjects(root, opts.GitRoot)
	if err != nil {
		return nil, err
	}

	sortDeepestFirst(projects)
	for i, p := range projects {
		p.Idx = i
	}

	return &Workspace{Root: root, Projects: projects}, nil
}

// findWorkspaceRoot walks upward from startDir, stopping at the first
// ancestor (bounded by gitRoot's parent) that contains a recognized config
// file.
func findWorkspaceRoot(startDir, gitRoot string) (string, error) {
	gitParent := filepath.Dir(gitRoot)
	dir := startDir
	for {
		if p := config.FindConfigFile(dir); p != "" {
			return dir, nil
		}
		if dir == gitParent || dir == "/" || dir == "." {
			return "", ErrNoConfig
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNoConfig
		}
		dir = parent
	}
}

// collectProjects walks every directory under root (bounded by gitRoot,
// never crossing into a nested .git directory) and loads a Project for
// each one that carries a config file.
func collectProjects(root, gitRoot string) ([]*Project, error) {
	var projects []*Project

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root {
				if _, statErr := os.Stat(filepath.Join(path, ".git")); statErr == nil {
					return filepath.SkipDir
				}
			}
			return nil
		}
		if !isConfigFileName(d.Name()) {
			return nil
		}

		dir := filepath.Dir(path)
		rel, relErr := filepath.Rel(root, dir)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			rel = ""
		}
		depth := 0
		if rel != "" {
			depth = strings.Count(rel, "/") + 1
		}

		proj, loadErr := loadProject(path, depth, 0, rel)
		if loadErr != nil {
			return fmt.Errorf("loading project %s: %w", path, loadErr)
		}
		projects = append(projects, proj)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return projects, nil
}

func isConfigFileName(name string) bool {
	for _, n := range config.ConfigFileNames {
		if name == n {
			return true
		}
	}
	return false
}

func loadProject(configPath string, depth, idx int, relativePath string) (*Project, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return &Project{
		ConfigPath:   configPath,
		Root:         filepath.Dir(configPath),
		RelativePath: relativePath,
		Depth:        depth,
		Idx:          idx,
		Config:       cfg,
	}, nil
}

// sortDeepestFirst orders projects by depth descending, then relative path
// ascending, matching the Rust workspace discoverer this is grounded on.
func sortDeepestFirst(projects []*Project) {
	sort.SliceStable(projects, func(i, j int) bool {
		if projects[i].Depth != projects[j].Depth {
			return projects[i].Depth > projects[j].Depth
		}
		return projects[i].RelativePath < projects[j].RelativePath
	})
}
