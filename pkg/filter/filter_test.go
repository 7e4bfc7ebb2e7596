package filter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hookwave/hookwave/pkg/classify"
	"github.com/hookwave/hookwave/pkg/config"
)

func TestFilter_FilesAndExclude(t *testing.T) {
	dir := t.TempDir()
	goFile := filepath.Join(dir, "main.go")
	require.NoError(t, os.WriteFile(goFile, []byte("package main\n"), 0o644))

	f := New(classify.New())
	hook := config.Hook{Files: `\.go$`, ExcludeRegex: `_test\.go$`}

	assert.True(t, f.Matches(config.Config{}, hook, goFile))
	assert.False(t, f.Matches(config.Config{}, hook, filepath.Join(dir, "main_test.go")))
	assert.False(t, f.Matches(config.Config{}, hook, filepath.Join(dir, "README.md")))
}

func TestFilter_Types(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "script.py")
	require.NoError(t, os.WriteFile(path, []byte("print(1)\n"), 0o644))

	f := New(classify.New())
	hook := config.Hook{Types: []string{"python"}}
	assert.True(t, f.Matches(config.Config{}, hook, path))

	hook2 := config.Hook{ExcludeTypes: []string{"python"}}
	assert.False(t, f.Matches(config.Config{}, hook2, path))
}

func TestFilter_ExcludeHasNoBasenameFallback(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "pkg", "sub", "foo.go")
	require.NoError(t, os.MkdirAll(filepath.Dir(nested), 0o755))
	require.NoError(t, os.WriteFile(nested, []byte("package sub\n"), 0o644))

	f := New(classify.New())
	hook := config.Hook{ExcludeRegex: `^foo\.go$`}

	// A root-relative exclude pattern must not exclude a same-named file
	// nested in a subdirectory by matching its basename.
	assert.True(t, f.Matches(config.Config{}, hook, nested))
}

func TestFilter_IncludeStillHasBasenameFallback(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "pkg", "sub", "foo.go")
	require.NoError(t, os.MkdirAll(filepath.Dir(nested), 0o755))
	require.NoError(t, os.WriteFile(nested, []byte("package sub\n"), 0o644))

	f := New(classify.New())
	hook := config.Hook{Files: `^foo\.go$`}

	assert.True(t, f.Matches(config.Config{}, hook, nested))
}

func TestFilter_ProjectLevelNarrowing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vendor", "lib.go")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("package lib\n"), 0o644))

	f := New(classify.New())
	project := config.Config{ExcludeRegex: `vendor/`}
	hook := config.Hook{Files: `\.go$`}
	assert.False(t, f.Matches(project, hook, path))
}

type fakeProject struct {
	root   string
	orphan bool
}

func (p fakeProject) RootPath() string { return p.root }
func (p fakeProject) IsOrphan() bool   { return p.orphan }
func (p fakeProject) Depth() int       { return 0 }

func TestProjectClaim_OrphanCutsOffAncestors(t *testing.T) {
	candidates := []fakeProject{
		{root: "a/b", orphan: true},
		{root: "a", orphan: false},
	}
	claimed := ProjectClaim(candidates, "a/b/file.go")
	require.Len(t, claimed, 1)
	assert.Equal(t, "a/b", claimed[0].root)
}

func TestProjectClaim_NonOrphanClaimsAllAncestors(t *testing.T) {
	candidates := []fakeProject{
		{root: "a/b", orphan: false},
		{root: "a", orphan: false},
	}
	claimed := ProjectClaim(candidates, "a/b/file.go")
	require.Len(t, claimed, 2)
}
