// Package scheduler executes a project's hook invocations in ascending
// priority waves, bounded by a global concurrency limit, with fail-fast and
// require-serial support. This is the heart of the orchestrator.
//
// Waves are a deliberately simpler alternative to a full dependency DAG:
// every hook in one priority tier runs before any hook in the next, but
// hooks within a tier have no ordering relationship. A DAG scheduler would
// let a hook declare direct dependencies on others regardless of tier, at
// the cost of cycle detection and a less predictable wall-clock profile;
// nothing here currently needs that expressiveness.
package scheduler

import (
	"context"
	"os"
	"runtime"
	"sort"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/hookwave/hookwave/pkg/chunk"
	"github.com/hookwave/hookwave/pkg/config"
	"github.com/hookwave/hookwave/pkg/runner"
)

// Status is the terminal state of an Invocation.
type Status int

const (
	StatusPending Status = iota
	StatusRunning
	StatusSuccess
	StatusFailure
	StatusCancelled
	StatusSkipped
)

// Invocation is one scheduling unit: a hook paired with its file batch.
type Invocation struct {
	ProjectRoot string
	ProjectID   string // relative path, used only for result reporting
	Hook        config.Hook
	Files       []string
	// FilesMatched reports whether the hook's filters actually matched one
	// or more candidate files, independent of Files: a pass_filenames=false
	// hook still runs on a match, but its Files is always nil, so reporting
	// code needs this to tell "ran because it matched something" apart from
	// "ran only because always_run".
	FilesMatched bool
	Priority     uint32
	Idx          int // positional index, used as priority tiebreak and as the fallback priority
}

// Result is the outcome of one Invocation.
type Result struct {
	Invocation Invocation
	Status     Status
	Chunks     []runner.Result
}

// Passed reports whether every chunk of the invocation succeeded.
func (r Result) Passed() bool {
	if r.Status != StatusSuccess {
		return false
	}
	for _, c := range r.Chunks {
		if !c.Success() {
			return false
		}
	}
	return true
}

// Options configures one Schedule call.
type Options struct {
	Concurrency int // C; <=0 means 1
	FailFast    bool
	ChunkOpts   chunk.Options
	Env         map[string]string
}

// ConcurrencyFromEnv resolves the global concurrency limit C: defaultC when
// positive, else runtime.NumCPU(); either is forced down to 1 when
// PREK_NO_CONCURRENCY or PRE_COMMIT_NO_CONCURRENCY is set truthy.
func ConcurrencyFromEnv(defaultC int) int {
	if truthy(os.Getenv("PREK_NO_CONCURRENCY")) || truthy(os.Getenv("PRE_COMMIT_NO_CONCURRENCY")) {
		return 1
	}
	if defaultC <= 0 {
		return runtime.NumCPU()
	}
	return defaultC
}

func truthy(s string) bool {
	if s == "" {
		return false
	}
	b, err := strconv.ParseBool(s)
	return err == nil && b
}

// Schedule runs invocations in priority-ascending waves, under r, returning
// one Result per invocation in dispatch order: ascending priority, then
// positional index.
//
// If onComplete is non-nil, it is additionally called once per invocation
// at the moment that invocation's outcome actually becomes known — in true
// completion order, which can differ from the returned slice's order
// whenever more than one invocation in a wave runs concurrently. Callers
// that need completion-ordered reporting (e.g. non-verbose output) should
// use onComplete rather than the returned slice; callers that want
// start/dispatch order (e.g. verbose output) should use the returned slice.
func Schedule(
	ctx context.Context,
	r runner.Runner,
	invocations []Invocation,
	opts Options,
	onComplete func(Result),
) []Result {
	if len(invocations) == 0 {
		return nil
	}
	if onComplete == nil {
		onComplete = func(Result) {}
	}

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	waves := partitionByPriority(invocations)

	results := make([]Result, 0, len(invocations))
	var failed bool
	serialMutexes := make(map[string]*sync.Mutex)
	var serialMu sync.Mutex
	lockFor := func(key string) *sync.Mutex {
		serialMu.Lock()
		defer serialMu.Unlock()
		m, ok := serialMutexes[key]
		if !ok {
			m = &sync.Mutex{}
			serialMutexes[key] = m
		}
		return m
	}

	for _, wave := range waves {
		if failed {
			for _, inv := range wave {
				res := Result{Invocation: inv, Status: StatusSkipped}
				results = append(results, res)
				onComplete(res)
			}
			continue
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(concurrency)

		waveResults := make([]Result, len(wave))
		for i, inv := range wave {
			i, inv := i, inv
			g.Go(func() error {
				var res Result
				if gctx.Err() != nil {
					res = Result{Invocation: inv, Status: StatusCancelled}
				} else {
					var mu *sync.Mutex
					if inv.Hook.RequireSerial {
						mu = lockFor(inv.ProjectRoot + "\x00" + inv.Hook.ID)
						mu.Lock()
						defer mu.Unlock()
					}
					res = runInvocation(gctx, r, inv, opts)
				}
				waveResults[i] = res
				onComplete(res)
				return nil
			})
		}
		_ = g.Wait()

		for i := range wave {
			results = append(results, waveResults[i])
			if !waveResults[i].Passed() && opts.FailFast {
				failed = true
			}
		}
	}

	return results
}

// runInvocation runs inv's hook to completion, chunking its file batch when
// the batch is non-empty and the hook accepts filenames. The caller (the
// Workspace Runner) decides whether an invocation with an empty batch
// should exist at all (always_run); the scheduler always executes whatever
// invocation it is given.
func runInvocation(ctx context.Context, r runner.Runner, inv Invocation, opts Options) Result {
	var chunks [][]string
	if len(inv.Files) > 0 && runner.ShouldPassFilenames(inv.Hook) {
		chunks = chunk.Split(inv.Files, opts.ChunkOpts)
	}
	if len(chunks) == 0 {
		chunks = [][]string{nil}
	}

	var outcomes []runner.Result
	// Every chunk runs regardless of an earlier chunk's outcome, so the
	// caller always sees the full diagnostic output; only cancellation
	// stops the loop early.
	ok := true
	for _, batch := range chunks {
		if ctx.Err() != nil {
			return Result{Invocation: inv, Status: StatusCancelled, Chunks: outcomes}
		}
		res := r.Run(ctx, inv.Hook, inv.ProjectRoot, batch, opts.Env)
		outcomes = append(outcomes, res)
		if !res.Success() {
			ok = false
		}
	}

	status := StatusSuccess
	if !ok {
		status = StatusFailure
	}
	return Result{Invocation: inv, Status: status, Chunks: outcomes}
}

func partitionByPriority(invocations []Invocation) [][]Invocation {
	sorted := make([]Invocation, len(invocations))
	copy(sorted, invocations)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Priority != sorted[j].Priority {
			return sorted[i].Priority < sorted[j].Priority
		}
		return sorted[i].Idx < sorted[j].Idx
	})

	var waves [][]Invocation
	i := 0
	for i < len(sorted) {
		j := i + 1
		for j < len(sorted) && sorted[j].Priority == sorted[i].Priority {
			j++
		}
		waves = append(waves, sorted[i:j])
		i = j
	}
	return waves
}
