// Package filter decides, for a given hook and a given candidate file,
// whether the hook should see that file, and which ancestor projects in a
// workspace a file belongs to.
package filter

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dlclark/regexp2"

	"github.com/hookwave/hookwave/pkg/classify"
	"github.com/hookwave/hookwave/pkg/config"
)

// patternCache compiles files_re/exclude_re patterns with regexp2, the way
// a run-scoped cache avoids recompiling the same pattern for every file a
// hook is tested against. regexp2 (rather than stdlib regexp) is used
// because prek-style hook configs rely on lookaround and backreferences
// that RE2 cannot express.
type patternCache struct {
	mu    sync.Mutex
	cache map[string]*regexp2.Regexp
}

func newPatternCache() *patternCache {
	return &patternCache{cache: make(map[string]*regexp2.Regexp)}
}

func (c *patternCache) compile(pattern string) (*regexp2.Regexp, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if re, ok := c.cache[pattern]; ok {
		return re, nil
	}
	re, err := regexp2.Compile(pattern, regexp2.None)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	c.cache[pattern] = re
	return re, nil
}

func (c *patternCache) matches(pattern, s string) bool {
	if pattern == "" {
		return false
	}
	re, err := c.compile(pattern)
	if err != nil {
		return false
	}
	ok, err := re.MatchString(s)
	return err == nil && ok
}

// Filter evaluates a hook's files/exclude/types predicates against
// classified candidate files. One Filter is shared across a run.
type Filter struct {
	patterns   *patternCache
	classifier *classify.Classifier
}

// New returns a Filter backed by classifier.
func New(classifier *classify.Classifier) *Filter {
	return &Filter{patterns: newPatternCache(), classifier: classifier}
}

// Matches reports whether path should be passed to hook, combining the
// project-level and hook-level files/exclude/types filters as prek does:
// project filters narrow the candidate set first, then the hook's own
// filters narrow it further.
func (f *Filter) Matches(project config.Config, hook config.Hook, path string) bool {
	if project.Files != "" && !f.matchesInclude(project.Files, path) {
		return false
	}
	if project.ExcludeRegex != "" && f.matchesExclude(project.ExcludeRegex, path) {
		return false
	}
	if hook.Files != "" && !f.matchesInclude(hook.Files, path) {
		return false
	}
	if hook.ExcludeRegex != "" && f.matchesExclude(hook.ExcludeRegex, path) {
		return false
	}
	if len(hook.Types) == 0 && len(hook.TypesOr) == 0 && len(hook.ExcludeTypes) == 0 {
		return true
	}

	tags, err := f.classifier.Classify(path)
	if err != nil {
		return false
	}
	if len(hook.Types) > 0 && !tags.Superset(hook.Types) {
		return false
	}
	if len(hook.TypesOr) > 0 && !tags.Intersects(hook.TypesOr) {
		return false
	}
	if len(hook.ExcludeTypes) > 0 && tags.Intersects(hook.ExcludeTypes) {
		return false
	}
	return true
}

// matchesInclude tries pattern against the full relative path and, failing
// that, the basename, so a files pattern like `^main\.go$` can match
// regardless of which directory main.go lives in.
func (f *Filter) matchesInclude(pattern, path string) bool {
	if f.patterns.matches(pattern, path) {
		return true
	}
	return f.patterns.matches(pattern, filepath.Base(path))
}

// matchesExclude tries pattern only against the full relative path: unlike
// files/files_re, exclude/exclude_re has no basename fallback, so
// `^foo\.go$` excludes only a root-level foo.go, not pkg/sub/foo.go too.
func (f *Filter) matchesExclude(pattern, path string) bool {
	return f.patterns.matches(pattern, path)
}

// ProjectOwner is the minimal view of a workspace project ProjectClaim
// needs, so that pkg/filter does not import the workspace package.
type ProjectOwner interface {
	RootPath() string
	IsOrphan() bool
}

// ProjectClaim returns, from candidates ordered deepest-first, every
// project that should receive path: every ancestor project of path, unless
// an intervening descendant project (closer to path) is marked orphan, in
// which case the walk stops there and no shallower ancestor claims it.
func ProjectClaim[P ProjectOwner](candidates []P, path string) []P {
	abs := filepath.ToSlash(path)

	var owners []P
	for _, p := range candidates {
		root := filepath.ToSlash(p.RootPath())
		if !isUnder(root, abs) {
			continue
		}
		owners = append(owners, p)
	}

	// candidates is assumed sorted deepest-first; stop at the first
	// orphan project encountered walking from deepest to shallowest.
	var claimed []P
	for _, p := range owners {
		claimed = append(claimed, p)
		if p.IsOrphan() {
			break
		}
	}
	return claimed
}

func isUnder(root, path string) bool {
	if root == "." || root == "" {
		return true
	}
	root = strings.TrimSuffix(root, "/")
	return path == root || strings.HasPrefix(path, root+"/")
}
