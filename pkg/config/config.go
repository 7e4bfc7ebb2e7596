// Package config parses and validates hookwave's project and workspace
// configuration files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConfigFileNames are the recognized project config file names, checked in
// this order so a YAML extension is preferred over a YML one.
var ConfigFileNames = []string{".hookwave.yaml", ".hookwave.yml"}

// Config represents a single project's configuration file.
type Config struct {
	DefaultLanguageVersion map[string]string `yaml:"default_language_version,omitempty"`
	Files                  string            `yaml:"files,omitempty"`
	ExcludeRegex           string            `yaml:"exclude,omitempty"`
	MinimumPrekVersion     string            `yaml:"minimum_prek_version,omitempty"`
	Repos                  []Repo            `yaml:"repos"`
	DefaultStages          []string          `yaml:"default_stages,omitempty"`
	FailFast               bool              `yaml:"fail_fast,omitempty"`
	Orphan                 bool              `yaml:"orphan,omitempty"`
}

// Repo is a group of hooks. Repo == "local" defines hooks inline;
// Repo == "meta" refers to hookwave's own built-in meta hooks. Any other
// value names a repository that must already be resolved by an external
// collaborator (this module does not clone or cache remote repositories).
type Repo struct {
	Repo  string `yaml:"repo"`
	Rev   string `yaml:"rev,omitempty"`
	Hooks []Hook `yaml:"hooks"`
}

// Hook is a single hook definition.
type Hook struct {
	PassFilenames           *bool    `yaml:"pass_filenames,omitempty"`
	Priority                *uint32  `yaml:"priority,omitempty"`
	ID                      string   `yaml:"id"`
	Name                    string   `yaml:"name,omitempty"`
	Entry                   string   `yaml:"entry,omitempty"`
	Language                string   `yaml:"language,omitempty"`
	Files                   string   `yaml:"files,omitempty"`
	ExcludeRegex            string   `yaml:"exclude,omitempty"`
	LogFile                 string   `yaml:"log_file,omitempty"`
	Description             string   `yaml:"description,omitempty"`
	LanguageVersion         string   `yaml:"language_version,omitempty"`
	MinimumPreCommitVersion string   `yaml:"minimum_pre_commit_version,omitempty"`
	Types                   []string `yaml:"types,omitempty"`
	TypesOr                 []string `yaml:"types_or,omitempty"`
	ExcludeTypes            []string `yaml:"exclude_types,omitempty"`
	AdditionalDeps          []string `yaml:"additional_dependencies,omitempty"`
	Args                    []string `yaml:"args,omitempty"`
	Stages                  []string `yaml:"stages,omitempty"`
	AlwaysRun               bool     `yaml:"always_run,omitempty"`
	Verbose                 bool     `yaml:"verbose,omitempty"`
	RequireSerial           bool     `yaml:"require_serial,omitempty"`
	FailFast                bool     `yaml:"fail_fast,omitempty"`
}

// EffectivePriority returns the hook's declared priority, or fallback
// (typically its positional index within the project) when none was set.
func (h Hook) EffectivePriority(fallback uint32) uint32 {
	if h.Priority != nil {
		return *h.Priority
	}
	return fallback
}

// Load reads and parses a project config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from workspace discovery, not raw user input
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if strings.TrimSpace(string(data)) == "" {
		return nil, fmt.Errorf("config file %s is empty", path)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return &cfg, nil
}

// LoadHooksManifest loads hook definitions from a repository's hook
// manifest file (the local-hooks equivalent of a `.hookwave-hooks.yaml`).
func LoadHooksManifest(path string) ([]Hook, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("hook manifest not found: %s", path)
	}

	data, err := os.ReadFile(path) // #nosec G304 -- path comes from workspace discovery, not raw user input
	if err != nil {
		return nil, fmt.Errorf("failed to read hook manifest: %w", err)
	}

	var hooks []Hook
	if err := yaml.Unmarshal(data, &hooks); err != nil {
		return nil, fmt.Errorf("failed to parse hook manifest: %w", err)
	}

	return hooks, nil
}

// Validate checks structural invariants of a loaded config. It does not
// resolve or reach out to remote repositories; Repo.Repo values other than
// "local"/"meta" are assumed already resolved by the caller.
func (c *Config) Validate() error {
	for i, repo := range c.Repos {
		if repo.Repo == "" {
			return fmt.Errorf("repo %d: repository identifier is required", i)
		}
		if repo.Rev == "" && repo.Repo != "local" && repo.Repo != "meta" {
			return fmt.Errorf("repo %d: revision is required", i)
		}
		if len(repo.Hooks) == 0 {
			return fmt.Errorf("repo %d: no hooks configured", i)
		}
		for j, hook := range repo.Hooks {
			if hook.ID == "" {
				return fmt.Errorf("repo %d, hook %d: hook ID is required", i, j)
			}
		}
	}
	return nil
}

// DefaultConfig returns a minimal starting configuration, used by the
// sample-config command.
func DefaultConfig() *Config {
	return &Config{
		DefaultStages: []string{"commit"},
		Repos: []Repo{
			{
				Repo: "local",
				Hooks: []Hook{
					{ID: "trailing-whitespace", Name: "trailing whitespace", Entry: "trailing-whitespace-fixer", Language: "system"},
					{ID: "end-of-file-fixer", Name: "end of file fixer", Entry: "end-of-file-fixer", Language: "system"},
				},
			},
		},
	}
}

// FindConfigFile returns the first recognized config file name present in
// dir, or "" if none exists.
func FindConfigFile(dir string) string {
	for _, name := range ConfigFileNames {
		p := filepath.Join(dir, name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}
