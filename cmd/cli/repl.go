package cli

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"braincrab/internal/bf"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Execute BF code line by line",
	Long: `repl reads one line at a time from stdin. Type any BF code directly,
pressing Enter after each line. Once a line's code finishes executing, the
prompt returns so further lines can be entered.`,
	RunE: runRepl,
}

// runRepl implements spec.md §6's repl loop: parse each line; end of
// input or an empty parse (a blank or comment-only line) exits cleanly; a
// parse error is reported on stderr and the loop continues; otherwise the
// line runs and a trailing newline separates it from the next prompt.
func runRepl(cmd *cobra.Command, args []string) error {
	interp := bf.NewInterpreter(os.Stdin, os.Stdout)
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print(promptStyle.Render("bf> "))
		if !scanner.Scan() {
			return nil
		}
		line := scanner.Text()

		program, err := bf.Parse(line)
		if err != nil {
			fmt.Fprintln(os.Stderr, errorStyle.Render(err.Error()))
			continue
		}
		if len(program.Instructions) == 0 {
			return nil
		}

		if err := interp.Run(program); err != nil {
			fmt.Fprintln(os.Stderr, errorStyle.Render(err.Error()))
			continue
		}
		fmt.Println()
	}
}
