package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.NotEmpty(t, cfg.Repos)
	assert.NotEmpty(t, cfg.DefaultStages)
	assert.Contains(t, cfg.DefaultStages, "commit")
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		config  *Config
		name    string
		wantErr bool
	}{
		{
			name: "valid local hook",
			config: &Config{
				Repos: []Repo{{Repo: "local", Hooks: []Hook{{ID: "fmt"}}}},
			},
			wantErr: false,
		},
		{
			name: "missing repo identifier",
			config: &Config{
				Repos: []Repo{{Hooks: []Hook{{ID: "fmt"}}}},
			},
			wantErr: true,
		},
		{
			name: "remote repo missing rev",
			config: &Config{
				Repos: []Repo{{Repo: "https://example.com/hooks", Hooks: []Hook{{ID: "fmt"}}}},
			},
			wantErr: true,
		},
		{
			name: "no hooks in repo",
			config: &Config{
				Repos: []Repo{{Repo: "local"}},
			},
			wantErr: true,
		},
		{
			name: "hook missing id",
			config: &Config{
				Repos: []Repo{{Repo: "local", Hooks: []Hook{{}}}},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestHookEffectivePriority(t *testing.T) {
	var p uint32 = 5
	h := Hook{Priority: &p}
	assert.Equal(t, uint32(5), h.EffectivePriority(2))

	h2 := Hook{}
	assert.Equal(t, uint32(2), h2.EffectivePriority(2))
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".hookwave.yaml")
	content := `
repos:
  - repo: local
    hooks:
      - id: fmt
        entry: gofmt
        language: system
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Repos, 1)
	assert.Equal(t, "fmt", cfg.Repos[0].Hooks[0].ID)
}

func TestLoadConfig_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".hookwave.yaml")
	require.NoError(t, os.WriteFile(path, []byte("  \n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestFindConfigFile(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, "", FindConfigFile(dir))

	path := filepath.Join(dir, ".hookwave.yaml")
	require.NoError(t, os.WriteFile(path, []byte("repos: []\n"), 0o644))
	assert.Equal(t, path, FindConfigFile(dir))
}
