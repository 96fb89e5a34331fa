package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"braincrab/internal/bf"
)

var runCmd = &cobra.Command{
	Use:   "run <path>",
	Short: "Run a BF file",
	Args:  cobra.ExactArgs(1),
	RunE:  runRun,
}

// runRun reads a BF source file, parses it to BF tokens (non-token
// characters are comments), and executes it through the interpreter
// (spec.md §6: "run <path>").
func runRun(cmd *cobra.Command, args []string) error {
	script, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("braincrab: reading %s: %w", args[0], err)
	}

	program, err := bf.Parse(string(script))
	if err != nil {
		return fmt.Errorf("braincrab: %s: %w", args[0], err)
	}

	interp := bf.NewInterpreter(os.Stdin, os.Stdout)
	if err := interp.Run(program); err != nil {
		return fmt.Errorf("braincrab: running %s: %w", args[0], err)
	}
	return nil
}
