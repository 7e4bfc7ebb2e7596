// Package runner implements the Hook Runner contract: executing one hook
// against one file batch and reporting its outcome. Concrete backends cover
// the language kinds that need no external toolchain provisioning; anything
// else is an external collaborator's concern.
package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/hookwave/hookwave/pkg/config"
)

// Result is the outcome of one invocation (or one chunk of an invocation).
type Result struct {
	ExitCode      int
	Stdout        string
	Stderr        string
	Duration      time.Duration
	TimedOut      bool
	SpawnError    error
	FilesModified bool
}

// Success reports whether the invocation should be considered passing.
func (r Result) Success() bool {
	return r.SpawnError == nil && !r.TimedOut && r.ExitCode == 0
}

// Runner runs one hook invocation against a file batch. Implementations
// must be safe to call concurrently for different hook instances.
type Runner interface {
	Run(ctx context.Context, hook config.Hook, projectRoot string, batch []string, env map[string]string) Result
}

// formatterHookIDs recognizes formatters whose exit code 1 alongside
// modification-indicating output means "fixed it" rather than "failed".
var formatterHookIDs = map[string]bool{
	"black": true, "autopep8": true, "yapf": true, "isort": true,
	"prettier": true, "eslint": true, "rustfmt": true, "gofmt": true,
	"clang-format": true, "terraform_fmt": true, "goimports": true,
}

func isFormatterHook(hook config.Hook) bool {
	if formatterHookIDs[hook.ID] {
		return true
	}
	entry := strings.ToLower(hook.Entry)
	for id := range formatterHookIDs {
		if strings.Contains(entry, id) {
			return true
		}
	}
	return false
}

func outputIndicatesModification(output string) bool {
	lower := strings.ToLower(output)
	for _, marker := range []string{"reformatted", "fixed", "would reformat", "formatting"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// Dispatcher builds an *exec.Cmd for a hook's language and runs it,
// applying timeout handling, env composition and formatter-aware success
// determination the way a conforming Hook Runner must.
type Dispatcher struct {
	Timeout time.Duration
}

// NewDispatcher returns a Dispatcher with the given per-invocation timeout
// (zero means no timeout).
func NewDispatcher(timeout time.Duration) *Dispatcher {
	return &Dispatcher{Timeout: timeout}
}

// Run implements Runner. The working directory is always the project's
// root, never the workspace root, so nested-project hooks see their own
// local file layout.
func (d *Dispatcher) Run(ctx context.Context, hook config.Hook, projectRoot string, batch []string, env map[string]string) Result {
	cmd, err := d.build(hook, projectRoot, batch)
	if err != nil {
		return Result{SpawnError: err, ExitCode: 1}
	}

	cmd.Dir = projectRoot
	cmd.Env = mergeEnv(os.Environ(), env)

	runCtx := ctx
	var cancel context.CancelFunc
	if d.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, d.Timeout)
		defer cancel()
	}

	start := time.Now()
	timed := exec.CommandContext(runCtx, cmd.Path, cmd.Args[1:]...)
	timed.Dir = cmd.Dir
	timed.Env = cmd.Env
	// On timeout or cancellation the child first receives SIGTERM; if it
	// has not exited after the grace period it is killed.
	timed.Cancel = func() error { return timed.Process.Signal(syscall.SIGTERM) }
	timed.WaitDelay = 5 * time.Second

	var stdout, stderr strings.Builder
	timed.Stdout = &stdout
	timed.Stderr = &stderr

	runErr := timed.Run()
	duration := time.Since(start)

	result := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: duration,
	}

	if runErr == nil {
		return result
	}

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		result.TimedOut = true
		result.ExitCode = 1
		return result
	}

	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		if result.ExitCode == 1 && isFormatterHook(hook) && outputIndicatesModification(result.Stdout+result.Stderr) {
			result.FilesModified = true
		}
		return result
	}

	result.SpawnError = runErr
	result.ExitCode = 1
	return result
}

func mergeEnv(base []string, overrides map[string]string) []string {
	if len(overrides) == 0 {
		return base
	}
	out := make([]string, len(base), len(base)+len(overrides))
	copy(out, base)
	for k, v := range overrides {
		out = append(out, fmt.Sprintf("%s=%s", k, v))
	}
	return out
}

func (d *Dispatcher) build(hook config.Hook, projectRoot string, batch []string) (*exec.Cmd, error) {
	language := hook.Language
	if language == "" {
		language = "system"
	}

	args := append(append([]string{}, hook.Args...), batch...)

	switch language {
	case "system":
		return exec.Command(hook.Entry, args...), nil
	case "script":
		path := hook.Entry
		if !strings.HasPrefix(path, "/") {
			path = projectRoot + "/" + path
		}
		return exec.Command(path, args...), nil
	case "fail":
		return exec.Command("false"), fmt.Errorf("hook %q is an intentional failure marker", hook.ID)
	case "golang":
		return exec.Command("go", append([]string{"run", hook.Entry}, args...)...), nil
	case "docker":
		dockerArgs := append([]string{"run", "--rm", "-v", projectRoot + ":/src", "-w", "/src", hook.Entry}, args...)
		return exec.Command("docker", dockerArgs...), nil
	case "docker_image":
		return exec.Command("docker", append([]string{"run", "--rm", hook.Entry}, args...)...), nil
	default:
		return nil, fmt.Errorf("language %q requires an environment provisioner, not covered by this module", language)
	}
}

// ShouldPassFilenames reports whether a hook's matched files should be
// appended to its invocation.
func ShouldPassFilenames(hook config.Hook) bool {
	if hook.PassFilenames != nil {
		return *hook.PassFilenames
	}
	return hook.Language != "docker" && hook.Language != "docker_image"
}
