// Package main provides the hookwave command-line tool.
package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/mitchellh/cli"

	"github.com/hookwave/hookwave/internal/commands"
)

// Version information set by GoReleaser
var (
	version = "dev"
	commit  = "none"    //nolint:unused // Set by GoReleaser
	date    = "unknown" //nolint:unused // Set by GoReleaser
	builtBy = "unknown" //nolint:unused // Set by GoReleaser
)

func main() {
	c := cli.NewCLI("hookwave", version)
	c.Args = os.Args[1:]
	c.HelpFunc = customHelpFunc
	c.Commands = map[string]cli.CommandFactory{
		"install":         commands.InstallCommandFactory,
		"run":             commands.RunCommandFactory,
		"sample-config":   commands.SampleConfigCommandFactory,
		"uninstall":       commands.UninstallCommandFactory,
		"validate-config": commands.ValidateConfigCommandFactory,
		"help":            commands.HelpCommandFactory,
	}

	exitStatus, err := c.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(exitStatus)
}

// customHelpFunc renders the top-level command listing.
func customHelpFunc(cmdFactories map[string]cli.CommandFactory) string {
	var commandNames []string
	for name := range cmdFactories {
		if name != "help" {
			commandNames = append(commandNames, name)
		}
	}
	sort.Strings(commandNames)

	usageLine := "usage: hookwave [-h] [--version]\n"
	usageLine += "                {" + strings.Join(commandNames, ",") + "}\n                ...\n"

	helpText := usageLine + `
A priority-scheduled pre-commit hook runner for single and multi-project
workspaces.

positional arguments:
  {` + strings.Join(commandNames, ",") + `}
    install             Install the git hook script
    run                 Run the configured hooks
    sample-config       Produce a sample .hookwave.yaml file
    uninstall           Uninstall the git hook script
    validate-config     Validate .hookwave.yaml files

optional arguments:
  -h, --help            show this help message and exit
  --version             show program's version number and exit
`

	return helpText
}
