// Package provision documents the environment-provisioner contract: the
// external collaborator responsible for installing language toolchains and
// virtual environments for hooks whose language needs one. This module does
// not implement toolchain installation; it only ships the interface a
// concrete provisioner must satisfy plus a no-op/system stub that lets the
// Runner backends that don't need provisioning (system, script, fail,
// docker, golang) operate without one.
package provision

import "context"

// Environment describes a provisioned hook environment: a directory plus
// the PATH-like bin directory a Runner should prepend when invoking the
// hook's entry point.
type Environment struct {
	Path    string
	BinPath string
}

// Provisioner sets up (or verifies) the environment a hook's language
// needs before the Runner invokes it. Implementations must be safe for
// concurrent setup of the same toolchain version (single-flight).
type Provisioner interface {
	// Provision returns the environment for language/version, installing
	// additionalDeps as needed. cacheDir is the shared on-disk location for
	// provisioned environments across runs.
	Provision(ctx context.Context, language, version string, additionalDeps []string, cacheDir string) (Environment, error)

	// Supports reports whether this provisioner handles language at all.
	Supports(language string) bool
}

// NoopProvisioner is the only implementation this module ships: it
// supports the backends pkg/runner already executes without setup
// (system, script, fail, docker, golang, and the unversioned default) and
// rejects everything else, surfacing as a provisioning error.
type NoopProvisioner struct{}

var systemLanguages = map[string]bool{
	"":             true,
	"system":       true,
	"script":       true,
	"fail":         true,
	"docker":       true,
	"docker_image": true,
	"golang":       true,
}

// Supports implements Provisioner.
func (NoopProvisioner) Supports(language string) bool {
	return systemLanguages[language]
}

// Provision implements Provisioner. For supported languages there is
// nothing to set up: the toolchain is assumed present on PATH. Anything
// else is rejected — a real provisioner is an external collaborator this
// module does not ship.
func (NoopProvisioner) Provision(_ context.Context, language, _ string, _ []string, _ string) (Environment, error) {
	if systemLanguages[language] {
		return Environment{}, nil
	}
	return Environment{}, &UnsupportedLanguageError{Language: language}
}

// UnsupportedLanguageError reports a hook language this provisioner cannot
// set up; pkg/engine surfaces it as a synthetic failing invocation.
type UnsupportedLanguageError struct {
	Language string
}

func (e *UnsupportedLanguageError) Error() string {
	return "language " + e.Language + " requires an environment provisioner not implemented by this module"
}
