// Command geminitutor runs AI tutoring lessons in the terminal.
package main

import "github.com/diogo/geminitutor/internal/commands"

func main() {
	commands.Execute()
}
