// Package engine implements the Workspace Runner (C8): the component that
// ties workspace discovery, selection, filtering, scheduling and output
// aggregation into one end-to-end run.
package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/hookwave/hookwave/pkg/aggregator"
	"github.com/hookwave/hookwave/pkg/chunk"
	"github.com/hookwave/hookwave/pkg/classify"
	"github.com/hookwave/hookwave/pkg/config"
	"github.com/hookwave/hookwave/pkg/filter"
	"github.com/hookwave/hookwave/pkg/gitutil"
	"github.com/hookwave/hookwave/pkg/provision"
	"github.com/hookwave/hookwave/pkg/runner"
	"github.com/hookwave/hookwave/pkg/scheduler"
	"github.com/hookwave/hookwave/pkg/selector"
	"github.com/hookwave/hookwave/pkg/workspace"
)

// PathSource selects which candidate file set a run starts from, mirroring
// the CLI's three file-selection modes.
type PathSource int

const (
	// PathSourceStaged is the default: files staged in the git index.
	PathSourceStaged PathSource = iota
	// PathSourceAll is every tracked file (--all-files).
	PathSourceAll
	// PathSourceExplicit is a caller-supplied file list (--files).
	PathSourceExplicit
)

// Options configures one Workspace Runner pass.
type Options struct {
	StartDir       string // absolute; defaults to cwd when empty
	ExplicitConfig string // single-config mode, bypasses workspace discovery

	PathSource  PathSource
	Files       []string // used when PathSource == PathSourceExplicit
	Directories []string // restricts the run to files under these directories, additive to Files

	IncludeTokens []string
	SkipTokens    []string

	Concurrency int
	FailFast    bool          // global --fail-fast (ORed with per-project/per-hook fail_fast)
	Timeout     time.Duration // per-invocation exec timeout, 0 for none

	Verbose   bool
	ColorMode aggregator.ColorMode

	ChunkOpts chunk.Options
	Env       map[string]string

	// CheckConfigsStaged, when true, fails the run before scheduling if any
	// discovered project's config file is not staged.
	CheckConfigsStaged bool
}

// Result is the outcome of a full Workspace Runner pass.
type Result struct {
	ExitCode int
	Summary  string // rendered multi-project summary table, "" if one project
}

// Run discovers the workspace, computes per-project file batches, prunes
// via the Selector Engine, and schedules each project's invocations in
// deepest-first, sequential order.
func Run(ctx context.Context, opts Options) (Result, error) {
	startDir := opts.StartDir
	if startDir == "" {
		var err error
		startDir, err = filepathAbsCwd()
		if err != nil {
			return Result{ExitCode: 1}, err
		}
	}

	repo, err := gitutil.NewRepository(startDir)
	if err != nil {
		return Result{ExitCode: 1}, fmt.Errorf("workspace runner: %w", err)
	}

	ws, err := workspace.Discover(workspace.DiscoverOptions{
		ExplicitConfig: opts.ExplicitConfig,
		StartDir:       startDir,
		GitRoot:        filepath.Join(repo.Root, ".git"),
	})
	if err != nil {
		return Result{ExitCode: 1}, fmt.Errorf("workspace discovery: %w", err)
	}

	if opts.CheckConfigsStaged {
		if unstaged, checkErr := unstagedConfigs(repo, ws); checkErr != nil {
			return Result{ExitCode: 1}, checkErr
		} else if len(unstaged) > 0 {
			return Result{ExitCode: 1}, fmt.Errorf(
				"config file(s) not staged, run `git add` first: %s", strings.Join(unstaged, ", "))
		}
	}

	candidates, err := candidatePaths(repo, opts)
	if err != nil {
		return Result{ExitCode: 1}, fmt.Errorf("collecting candidate files: %w", err)
	}

	classifier := classify.New()
	matcher := filter.New(classifier)

	pairs := allPairs(ws)
	selected := selector.Resolve(opts.IncludeTokens, opts.SkipTokens, pairs)
	selectedSet := make(map[selector.Pair]struct{}, len(selected))
	for _, p := range selected {
		selectedSet[p] = struct{}{}
	}

	agg := aggregator.New(opts.ColorMode, opts.Verbose)
	concurrency := scheduler.ConcurrencyFromEnv(opts.Concurrency)

	prov := provision.NoopProvisioner{}
	run := &provisioningRunner{inner: runner.NewDispatcher(opts.Timeout), prov: prov}

	claims := claimsByProject(ws.Projects, candidates)

	exitCode := 0
	for _, project := range ws.Projects {
		invocations := buildInvocations(matcher, project, claims[project.Root])
		invocations = filterSelected(invocations, project.RelativePath, selectedSet)
		if len(invocations) == 0 {
			continue
		}

		failFast := opts.FailFast || (project.Config != nil && project.Config.FailFast) || anyHookFailFast(invocations)

		// Non-verbose output reports in completion order, so it streams via
		// the callback as each invocation actually finishes. Verbose output
		// reports in start (dispatch) order, so it's printed afterward from
		// the returned slice instead, which Schedule returns in dispatch
		// order regardless of concurrency.
		var onComplete func(scheduler.Result)
		if !opts.Verbose {
			onComplete = func(r scheduler.Result) { agg.Report(project.RelativePath, r) }
		}

		results := scheduler.Schedule(ctx, run, invocations, scheduler.Options{
			Concurrency: concurrency,
			FailFast:    failFast,
			ChunkOpts:   opts.ChunkOpts,
			Env:         opts.Env,
		}, onComplete)

		for _, r := range results {
			if opts.Verbose {
				agg.Report(project.RelativePath, r)
			}
			if !r.Passed() && r.Status != scheduler.StatusSkipped {
				exitCode = 1
			}
		}
	}

	return Result{ExitCode: exitCode, Summary: agg.Summary()}, nil
}

func filepathAbsCwd() (string, error) {
	return filepath.Abs(".")
}

// unstagedConfigs returns every project config path not currently staged.
func unstagedConfigs(repo *gitutil.Repository, ws *workspace.Workspace) ([]string, error) {
	var out []string
	for _, p := range ws.Projects {
		staged, err := repo.IsConfigStaged(p.ConfigPath)
		if err != nil {
			return nil, err
		}
		if !staged {
			out = append(out, p.ConfigPath)
		}
	}
	return out, nil
}

// candidatePaths resolves the run's candidate file set according to
// opts.PathSource, normalized to absolute, slash-separated, sorted paths.
func candidatePaths(repo *gitutil.Repository, opts Options) ([]string, error) {
	var raw []string
	var err error

	switch {
	case len(opts.Directories) > 0:
		all, allErr := repo.GetAllFiles()
		if allErr != nil {
			return nil, allErr
		}
		raw = filterUnderDirectories(all, opts.Directories)
		raw = append(raw, opts.Files...)
	case opts.PathSource == PathSourceAll:
		raw, err = repo.GetAllFiles()
	case opts.PathSource == PathSourceExplicit || len(opts.Files) > 0:
		raw = opts.Files
	default:
		raw, err = repo.GetStagedFiles()
	}
	if err != nil {
		return nil, err
	}

	// Candidates are normalized to absolute paths: project claim matching
	// compares against Project.Root (absolute), and the Classifier reads
	// file content by path, so every downstream consumer needs a path the
	// filesystem can resolve regardless of process cwd.
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		abs := p
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(repo.Root, p)
		}
		out = append(out, filepath.ToSlash(filepath.Clean(abs)))
	}
	sort.Strings(out)
	return out, nil
}

func filterUnderDirectories(files, dirs []string) []string {
	normDirs := make([]string, len(dirs))
	for i, d := range dirs {
		normDirs[i] = strings.TrimSuffix(filepath.ToSlash(filepath.Clean(d)), "/")
	}
	var out []string
	for _, f := range files {
		sf := filepath.ToSlash(f)
		for _, d := range normDirs {
			if sf == d || strings.HasPrefix(sf, d+"/") {
				out = append(out, f)
				break
			}
		}
	}
	return out
}

// allPairs enumerates every (project, hook) identity in the workspace, used
// by the Selector Engine.
func allPairs(ws *workspace.Workspace) []selector.Pair {
	var pairs []selector.Pair
	for _, p := range ws.Projects {
		if p.Config == nil {
			continue
		}
		for _, repo := range p.Config.Repos {
			for _, h := range repo.Hooks {
				pairs = append(pairs, selector.Pair{ProjectPath: p.RelativePath, HookID: h.ID})
			}
		}
	}
	return pairs
}

// claimsByProject computes, once per candidate, which projects claim it
// under the orphan-aware claim rule, and returns the resulting file set
// keyed by project root. projects must be sorted deepest-first
// (workspace.Discover's invariant).
func claimsByProject(projects []*workspace.Project, candidates []string) map[string][]string {
	out := make(map[string][]string, len(projects))
	for _, c := range candidates {
		for _, owner := range filter.ProjectClaim(projects, c) {
			out[owner.Root] = append(out[owner.Root], c)
		}
	}
	return out
}

// buildInvocations flattens project's hooks (across repos, in file order,
// for positional-priority fallback) and computes each hook's file batch.
func buildInvocations(matcher *filter.Filter, project *workspace.Project, claimed []string) []scheduler.Invocation {
	if project.Config == nil {
		return nil
	}

	var invocations []scheduler.Invocation
	idx := 0
	for _, repo := range project.Config.Repos {
		for _, hook := range repo.Hooks {
			files := matchedFiles(matcher, *project.Config, hook, claimed)
			filesMatched := len(files) > 0
			if !filesMatched && !hook.AlwaysRun {
				idx++
				continue
			}
			if !runner.ShouldPassFilenames(hook) {
				files = nil
			} else {
				files = relativeToProject(project.Root, files)
			}
			invocations = append(invocations, scheduler.Invocation{
				ProjectRoot:  project.Root,
				ProjectID:    project.RelativePath,
				Hook:         hook,
				Files:        files,
				FilesMatched: filesMatched,
				Priority:     hook.EffectivePriority(uint32(idx)), //nolint:gosec // idx bounded by hook count
				Idx:          idx,
			})
			idx++
		}
	}
	return invocations
}

// relativeToProject converts absolute candidate paths to paths relative to
// root, so the Runner (whose exec.Cmd.Dir is the project root) receives
// arguments it can resolve directly.
func relativeToProject(root string, abs []string) []string {
	out := make([]string, 0, len(abs))
	for _, a := range abs {
		rel, err := filepath.Rel(root, a)
		if err != nil {
			rel = a
		}
		out = append(out, filepath.ToSlash(rel))
	}
	return out
}

func matchedFiles(matcher *filter.Filter, cfg config.Config, hook config.Hook, candidates []string) []string {
	var out []string
	for _, c := range candidates {
		if matcher.Matches(cfg, hook, c) {
			out = append(out, c)
		}
	}
	return out
}

// filterSelected drops invocations whose (project, hook-id) pair was not
// selected by the Selector Engine.
func filterSelected(
	invocations []scheduler.Invocation,
	projectPath string,
	selected map[selector.Pair]struct{},
) []scheduler.Invocation {
	var out []scheduler.Invocation
	for _, inv := range invocations {
		if _, ok := selected[selector.Pair{ProjectPath: projectPath, HookID: inv.Hook.ID}]; ok {
			out = append(out, inv)
		}
	}
	return out
}

func anyHookFailFast(invocations []scheduler.Invocation) bool {
	for _, inv := range invocations {
		if inv.Hook.FailFast {
			return true
		}
	}
	return false
}

// provisioningRunner wraps a runner.Runner, rejecting hooks whose language
// the provisioner does not support with a synthetic failing result instead
// of attempting to exec a toolchain that was never set up.
type provisioningRunner struct {
	inner runner.Runner
	prov  provision.Provisioner
}

func (p *provisioningRunner) Run(
	ctx context.Context,
	hook config.Hook,
	projectRoot string,
	batch []string,
	env map[string]string,
) runner.Result {
	language := hook.Language
	if language == "" {
		language = "system"
	}
	if !p.prov.Supports(language) {
		return runner.Result{
			ExitCode:   1,
			Stderr:     fmt.Sprintf("provisioning error: language %q is not supported by this module's environment provisioner", language),
			SpawnError: fmt.Errorf("unsupported language %q", language),
		}
	}
	return p.inner.Run(ctx, hook, projectRoot, batch, env)
}
