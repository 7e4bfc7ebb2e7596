// Package aggregator buffers per-invocation output and renders status lines
// and failure detail, the way a conforming Output Aggregator must: grouped
// by project, atomic per invocation, in completion order unless verbose.
package aggregator

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"

	"github.com/hookwave/hookwave/pkg/config"
	"github.com/hookwave/hookwave/pkg/scheduler"
)

var (
	passedColor   = color.New(color.BgGreen, color.FgBlack)
	failedColor   = color.New(color.BgRed, color.FgWhite)
	skippedColor  = color.New(color.BgCyan, color.FgBlack)
	cancelledColor = color.New(color.BgYellow, color.FgBlack)
	detailColor   = color.New(color.Faint, color.FgWhite)
)

// ColorMode mirrors the --color flag's three settings.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// Aggregator renders scheduler results directly to stdout via fmt.Printf,
// one project at a time, in workspace execution order.
type Aggregator struct {
	colorMode ColorMode
	verbose   bool

	mu              sync.Mutex
	headerPrinted   map[string]bool
	projectSummary  map[string]*summary
	projectOrder    []string
}

type summary struct {
	passed, failed, skipped, cancelled int
}

// New returns an Aggregator.
func New(colorMode ColorMode, verbose bool) *Aggregator {
	return &Aggregator{
		colorMode:      colorMode,
		verbose:        verbose,
		headerPrinted:  make(map[string]bool),
		projectSummary: make(map[string]*summary),
	}
}

func (a *Aggregator) shouldUseColor() bool {
	switch a.colorMode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	default:
		return !color.NoColor
	}
}

// Report prints one invocation's result. Callers invoke it once per
// completed invocation: non-verbose runs pass it as Schedule's onComplete
// callback, so lines appear in completion order; verbose runs call it for
// each entry of Schedule's returned slice once the project's Schedule call
// has returned, so lines appear in dispatch order.
func (a *Aggregator) Report(projectID string, result scheduler.Result) {
	a.mu.Lock()
	defer a.mu.Unlock()

	useColor := a.shouldUseColor()
	color.NoColor = !useColor

	if !a.headerPrinted[projectID] {
		label := projectID
		if label == "" {
			label = "."
		}
		fmt.Printf("Running hooks for '%s':\n", label)
		a.headerPrinted[projectID] = true
		a.projectOrder = append(a.projectOrder, projectID)
	}

	s, ok := a.projectSummary[projectID]
	if !ok {
		s = &summary{}
		a.projectSummary[projectID] = s
	}

	hook := result.Invocation.Hook
	name := hook.Name
	if name == "" {
		name = hook.ID
	}

	switch result.Status {
	case scheduler.StatusSkipped:
		s.skipped++
		a.printSkipped(name, hook, useColor)
	case scheduler.StatusCancelled:
		s.cancelled++
		a.printStatusLine(name, "Cancelled", cancelledColor, useColor)
	case scheduler.StatusSuccess:
		s.passed++
		a.printSuccess(name, hook, result, useColor)
	default:
		s.failed++
		a.printFailure(name, hook, result, useColor)
	}
}

const lineWidth = 79

func dots(name, statusText string) string {
	n := lineWidth - len(name) - len(statusText)
	if n < 1 {
		n = 1
	}
	return strings.Repeat(".", n)
}

func (a *Aggregator) printStatusLine(name, statusText string, c *color.Color, useColor bool) {
	d := dots(name, statusText)
	if useColor {
		fmt.Printf("%s%s%s\n", name, d, c.Sprint(statusText))
	} else {
		fmt.Printf("%s%s%s\n", name, d, statusText)
	}
}

func (a *Aggregator) printSuccess(name string, hook config.Hook, result scheduler.Result, useColor bool) {
	if !result.Invocation.FilesMatched && !hook.AlwaysRun {
		return
	}
	a.printStatusLine(name, "Passed", passedColor, useColor)
	if !a.verbose {
		return
	}
	a.printDetails(hook.ID, totalDuration(result), useColor)
	a.printBody(result, useColor)
}

func (a *Aggregator) printFailure(name string, hook config.Hook, result scheduler.Result, useColor bool) {
	statusText := "Failed"
	if anyTimedOut(result) {
		statusText = "Failed (timeout)"
	}
	a.printStatusLine(name, statusText, failedColor, useColor)
	a.printFailureDetails(hook, result, useColor)
	a.printBody(result, useColor)
}

// printSkipped reports an invocation the scheduler never ran because an
// earlier wave in the same project failed under fail-fast — the only way
// scheduler.StatusSkipped occurs.
func (a *Aggregator) printSkipped(name string, hook config.Hook, useColor bool) {
	prefix := "(fail fast)"
	full := prefix + "Skipped"
	d := dots(name, full)
	if useColor {
		fmt.Printf("%s%s%s%s\n", name, d, prefix, skippedColor.Sprint("Skipped"))
	} else {
		fmt.Printf("%s%s%sSkipped\n", name, d, prefix)
	}
	if a.verbose {
		a.printDetailLine(fmt.Sprintf("- hook id: %s", hook.ID), useColor)
	}
}

func (a *Aggregator) printDetails(hookID string, duration time.Duration, useColor bool) {
	a.printDetailLine(fmt.Sprintf("- hook id: %s", hookID), useColor)
	a.printDetailLine(fmt.Sprintf("- duration: %s", formatDuration(duration)), useColor)
}

func (a *Aggregator) printFailureDetails(hook config.Hook, result scheduler.Result, useColor bool) {
	a.printDetailLine(fmt.Sprintf("- hook id: %s", hook.ID), useColor)
	d := totalDuration(result)
	if a.verbose || hook.Verbose {
		if anyTimedOut(result) {
			a.printDetailLine(fmt.Sprintf("- duration: %s (timeout)", formatDuration(d)), useColor)
		} else {
			a.printDetailLine(fmt.Sprintf("- duration: %s", formatDuration(d)), useColor)
		}
	}
	if code := lastExitCode(result); code != 0 {
		a.printDetailLine(fmt.Sprintf("- exit code: %d", code), useColor)
	}
}

func (a *Aggregator) printDetailLine(line string, useColor bool) {
	if useColor {
		fmt.Printf("%s\n", detailColor.Sprint(line))
	} else {
		fmt.Println(line)
	}
}

func (a *Aggregator) printBody(result scheduler.Result, useColor bool) {
	body := combinedOutput(result)
	if body == "" {
		return
	}
	if useColor {
		fmt.Printf("\n%s\n\n", body)
	} else {
		fmt.Printf("\n%s\n\n", strings.TrimSpace(body))
	}
}

func combinedOutput(result scheduler.Result) string {
	var b strings.Builder
	for _, c := range result.Chunks {
		b.WriteString(c.Stdout)
		b.WriteString(c.Stderr)
	}
	return strings.TrimRight(b.String(), "\n\r\t ")
}

func totalDuration(result scheduler.Result) time.Duration {
	var total time.Duration
	for _, c := range result.Chunks {
		total += c.Duration
	}
	return total
}

func anyTimedOut(result scheduler.Result) bool {
	for _, c := range result.Chunks {
		if c.TimedOut {
			return true
		}
	}
	return false
}

func lastExitCode(result scheduler.Result) int {
	for i := len(result.Chunks) - 1; i >= 0; i-- {
		if result.Chunks[i].ExitCode != 0 {
			return result.Chunks[i].ExitCode
		}
	}
	return 0
}

// formatDuration matches the original tool's rounding: sub-5ms collapses to
// "0s", sub-1s shows two decimals, sub-1m shows one decimal, else minutes.
func formatDuration(d time.Duration) string {
	seconds := d.Seconds()
	switch {
	case seconds < 0.005:
		return "0s"
	case seconds < 1.0:
		return fmt.Sprintf("%.2fs", seconds)
	case seconds < 60.0:
		return fmt.Sprintf("%.1fs", seconds)
	default:
		m := int(seconds) / 60
		s := int(seconds) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
}

var summaryTableStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	Padding(0, 1)

var summaryHeaderStyle = lipgloss.NewStyle().Bold(true)

// Summary renders a per-project rollup table with lipgloss, after all
// projects have finished. It is the multi-project addition the
// single-project teacher formatter never needed.
func (a *Aggregator) Summary() string {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.projectOrder) <= 1 {
		return ""
	}

	rows := make([]string, 0, len(a.projectOrder)+1)
	rows = append(rows, summaryHeaderStyle.Render(fmt.Sprintf("%-30s %6s %6s %6s", "project", "passed", "failed", "skipped")))
	for _, id := range a.projectOrder {
		s := a.projectSummary[id]
		label := id
		if label == "" {
			label = "."
		}
		rows = append(rows, fmt.Sprintf("%-30s %6d %6d %6d", label, s.passed, s.failed, s.skipped))
	}
	return summaryTableStyle.Render(strings.Join(rows, "\n"))
}
