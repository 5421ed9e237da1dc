// Package main is the entry point for the dbakit CLI application.
// It provides SQL Server administration commands over a TDS connection.
package main

import (
	"dbakit/cli/cmd"
)

// main is the entry point for the dbakit CLI application.
// It initializes and executes the command-line interface.
func main() {
	cmd.Execute()
}
