package engine

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func initRepoWithConfig(t *testing.T, configYAML string) string {
	t.Helper()
	dir := t.TempDir()
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(), "GIT_AUTHOR_NAME=t", "GIT_AUTHOR_EMAIL=t@t.com",
			"GIT_COMMITTER_NAME=t", "GIT_COMMITTER_EMAIL=t@t.com")
		require.NoError(t, cmd.Run())
	}
	run("init", "-q")

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hookwave.yaml"), []byte(configYAML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n"), 0o644))

	cmd := exec.Command("git", "add", "-A")
	cmd.Dir = dir
	require.NoError(t, cmd.Run())

	return dir
}

func TestRun_PassingHookOnAllFiles(t *testing.T) {
	dir := initRepoWithConfig(t, `
repos:
  - repo: local
    hooks:
      - id: always-pass
        name: Always Pass
        entry: "true"
        language: system
        files: \.go$
`)

	res, err := Run(context.Background(), Options{
		StartDir:   dir,
		PathSource: PathSourceAll,
	})
	require.NoError(t, err)
	require.Equal(t, 0, res.ExitCode)
}

func TestRun_FailingHookSetsNonZeroExit(t *testing.T) {
	dir := initRepoWithConfig(t, `
repos:
  - repo: local
    hooks:
      - id: always-fail
        name: Always Fail
        entry: "false"
        language: system
        files: \.go$
`)

	res, err := Run(context.Background(), Options{
		StartDir:   dir,
		PathSource: PathSourceAll,
	})
	require.NoError(t, err)
	require.Equal(t, 1, res.ExitCode)
}

func TestRun_SkipTokenExcludesHook(t *testing.T) {
	dir := initRepoWithConfig(t, `
repos:
  - repo: local
    hooks:
      - id: always-fail
        name: Always Fail
        entry: "false"
        language: system
        files: \.go$
`)

	res, err := Run(context.Background(), Options{
		StartDir:   dir,
		PathSource: PathSourceAll,
		SkipTokens: []string{"always-fail"},
	})
	require.NoError(t, err)
	require.Equal(t, 0, res.ExitCode)
}

func TestRun_NoFilesMatchedNoAlwaysRun_NoInvocation(t *testing.T) {
	dir := initRepoWithConfig(t, `
repos:
  - repo: local
    hooks:
      - id: py-only
        name: Python Only
        entry: "false"
        language: system
        files: \.py$
`)

	res, err := Run(context.Background(), Options{
		StartDir:   dir,
		PathSource: PathSourceAll,
	})
	require.NoError(t, err)
	require.Equal(t, 0, res.ExitCode)
}

func TestRun_AlwaysRunWithoutMatchedFiles(t *testing.T) {
	dir := initRepoWithConfig(t, `
repos:
  - repo: local
    hooks:
      - id: py-only-always
        name: Python Only Always
        entry: "false"
        language: system
        files: \.py$
        always_run: true
`)

	res, err := Run(context.Background(), Options{
		StartDir:   dir,
		PathSource: PathSourceAll,
	})
	require.NoError(t, err)
	require.Equal(t, 1, res.ExitCode)
}

func TestRun_UnsupportedLanguageSurfacesAsFailure(t *testing.T) {
	dir := initRepoWithConfig(t, `
repos:
  - repo: local
    hooks:
      - id: needs-python
        name: Needs Python
        entry: some-python-tool
        language: python
        files: \.go$
`)

	res, err := Run(context.Background(), Options{
		StartDir:   dir,
		PathSource: PathSourceAll,
	})
	require.NoError(t, err)
	require.Equal(t, 1, res.ExitCode)
}
