// Package selector implements the include/skip token grammar used to prune
// the (project, hook) pairs a run operates over.
package selector

import (
	"os"
	"path"
	"strings"
)

// Kind classifies a parsed token.
type Kind int

const (
	KindHookID Kind = iota
	KindProjectPath
)

// Token is a parsed selector token.
type Token struct {
	Kind  Kind
	Value string // hook id, or normalized project path
}

// ParseToken applies the grammar from the selector engine:
//
//	token := project_path [":" hook_id] | ":" hook_id | "./" project_path | hook_id
//
// A bare token that is neither ":"-prefixed nor "./"-prefixed is ambiguous
// between a hook id and a project path; Resolve disambiguates it by trying
// hook ids first.
func ParseToken(s string) (projectPart, hookPart string, explicit Kind, ambiguous bool) {
	if strings.HasPrefix(s, ":") {
		return "", strings.TrimPrefix(s, ":"), KindHookID, false
	}
	if strings.HasPrefix(s, "./") {
		return normalizePath(strings.TrimPrefix(s, "./")), "", KindProjectPath, false
	}
	if idx := strings.Index(s, ":"); idx >= 0 {
		return normalizePath(s[:idx]), s[idx+1:], KindProjectPath, false
	}
	// Bare token: ambiguous, resolved by Resolve trying hook-id-first.
	return "", s, KindHookID, true
}

func normalizePath(p string) string {
	p = path.Clean(filepathToSlash(p))
	if p == "." {
		return ""
	}
	return strings.TrimPrefix(p, "/")
}

func filepathToSlash(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}

// Pair is a (project, hook) identity the selector operates over.
type Pair struct {
	ProjectPath string // normalized, slash-separated, relative to workspace root
	HookID      string
}

// Resolve computes the final set of selected pairs from include and skip
// token lists, plus any skip tokens layered in from the environment
// (PREK_SKIP / SKIP). Both sets are evaluated independently of token order,
// so the result is commutative over skip-token ordering.
func Resolve(includeTokens, skipTokens []string, all []Pair) []Pair {
	skipTokens = append(append([]string{}, skipTokens...), envSkipTokens()...)

	included := matchSet(includeTokens, all, true)
	skipped := matchSet(skipTokens, all, false)

	var out []Pair
	seen := make(map[Pair]struct{})
	for _, p := range all {
		if _, ok := included[p]; !ok {
			continue
		}
		if _, ok := skipped[p]; ok {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// matchSet returns the subset of all matched by tokens. When tokens is
// empty and defaultAll is true, every pair matches (the "no include tokens
// means everything is selected" rule).
func matchSet(tokens []string, all []Pair, defaultAll bool) map[Pair]struct{} {
	result := make(map[Pair]struct{})
	if len(tokens) == 0 {
		if defaultAll {
			for _, p := range all {
				result[p] = struct{}{}
			}
		}
		return result
	}

	hookIDs := make(map[string]struct{})
	for _, p := range all {
		hookIDs[p.HookID] = struct{}{}
	}

	for _, tok := range tokens {
		projectPart, hookPart, kind, ambiguous := ParseToken(tok)

		switch {
		case kind == KindHookID && projectPart == "" && !ambiguous:
			// ":hook_id" — exact hook id match across all projects.
			matchHookID(result, all, hookPart)
		case kind == KindProjectPath && hookPart == "":
			// "./project_path" or "project_path" disambiguated as a path —
			// selects the project and all descendants.
			matchProjectPrefix(result, all, projectPart)
		case kind == KindProjectPath && hookPart != "":
			// "project_path:hook_id"
			matchProjectHook(result, all, projectPart, hookPart)
		case ambiguous:
			if _, isHook := hookIDs[hookPart]; isHook {
				matchHookID(result, all, hookPart)
			} else {
				matchProjectPrefix(result, all, normalizePath(hookPart))
			}
		}
	}
	return result
}

func matchHookID(result map[Pair]struct{}, all []Pair, hookID string) {
	for _, p := range all {
		if p.HookID == hookID {
			result[p] = struct{}{}
		}
	}
}

func matchProjectPrefix(result map[Pair]struct{}, all []Pair, projectPath string) {
	for _, p := range all {
		if isPrefixPath(projectPath, p.ProjectPath) {
			result[p] = struct{}{}
		}
	}
}

func matchProjectHook(result map[Pair]struct{}, all []Pair, projectPath, hookID string) {
	for _, p := range all {
		if isPrefixPath(projectPath, p.ProjectPath) && p.HookID == hookID {
			result[p] = struct{}{}
		}
	}
}

func isPrefixPath(prefix, full string) bool {
	if prefix == "" {
		return true
	}
	return full == prefix || strings.HasPrefix(full, prefix+"/")
}

// envSkipTokens reads PREK_SKIP, falling back to SKIP, both comma-separated.
func envSkipTokens() []string {
	raw := os.Getenv("PREK_SKIP")
	if raw == "" {
		raw = os.Getenv("SKIP")
	}
	if raw == "" {
		return nil
	}
	var out []string
	for _, t := range strings.Split(raw, ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
