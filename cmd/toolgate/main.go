// Package main is the entry point for the toolgate CLI, the command and path
// security gateway for agent tool execution.
package main

import (
	"fmt"
	"os"

	"toolgate/cmd/toolgate/commands"
)

// version is injected at build time via ldflags.
var version = "dev"

func main() {
	rootCmd := commands.NewRootCmd(version)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
