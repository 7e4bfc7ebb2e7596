package classify

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestClassify_ExtensionTags(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "main.go", "package main\n")

	c := New()
	tags, err := c.Classify(path)
	require.NoError(t, err)
	assert.True(t, tags.Has("go"))
	assert.True(t, tags.Has("text"))
	assert.False(t, tags.Has("python"))
}

func TestClassify_Shebang(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "run", "#!/usr/bin/env python3\nprint('hi')\n")

	c := New()
	tags, err := c.Classify(path)
	require.NoError(t, err)
	assert.True(t, tags.Has("python"))
}

func TestClassify_BinaryDetection(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blob.bin")
	require.NoError(t, os.WriteFile(path, []byte{0x00, 0x01, 0x02, 0xff, 0xfe}, 0o644))

	c := New()
	tags, err := c.Classify(path)
	require.NoError(t, err)
	assert.True(t, tags.Has("binary"))
	assert.False(t, tags.Has("text"))
}

func TestClassify_SpecialNames(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "Dockerfile", "FROM scratch\n")

	c := New()
	tags, err := c.Classify(path)
	require.NoError(t, err)
	assert.True(t, tags.Has("dockerfile"))
}

func TestClassify_CachesResult(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "main.go", "package main\n")

	c := New()
	first, err := c.Classify(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("package main\nfunc main(){}\n"), 0o644))
	second, err := c.Classify(path)
	require.NoError(t, err)
	assert.Equal(t, first, second, "second classification should be served from cache")
}

func TestTagSet_SupersetAndIntersects(t *testing.T) {
	s := newTagSet("go", "text")
	assert.True(t, s.Superset([]string{"go"}))
	assert.False(t, s.Superset([]string{"go", "python"}))
	assert.True(t, s.Intersects([]string{"python", "go"}))
	assert.False(t, s.Intersects([]string{"python", "rust"}))
}
