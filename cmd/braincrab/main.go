// Command braincrab runs BF programs: either a file given on the command
// line, or one line at a time from an interactive prompt.
package main

import "braincrab/cmd/cli"

func main() {
	cli.Execute()
}
