// Package cli implements the braincrab command-line binary: a cobra root
// command with run and repl subcommands, grounded on the wiring pattern
// in charm-llm/cmd/root.go (this module's sibling in the source pack).
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "braincrab",
	Short: "Run BF programs from a file or interactively",
	Long: `braincrab executes BF: a tape machine with a linear byte-cell
array, a single data pointer, wrapping 8-bit cells, and the eight
instructions < > + - . , [ ].

Run a script from disk with "braincrab run <path>", or drop into a
line-by-line interactive prompt with "braincrab repl".`,
}

func init() {
	rootCmd.AddCommand(runCmd, replCmd)
}

// Execute runs the root command, printing any error to stderr and
// exiting non-zero (spec.md §6: "Exit codes: 0 success, non-zero on
// parse/compile/I/O error, stderr carries the diagnostic").
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
