// Package cli implements the localqa command tree.
package cli

import (
	"fmt"
	"io"
	"os"
)

// Options are the persistent flags shared by every command.
type Options struct {
	ConfigPath string
	ModelsDir  string
	LogLevel   string
	LogFormat  string
}

// Output streams; tests swap them.
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// MainWithArgs runs the CLI with args (without the program name) and returns
// the process exit code: 0 on success, 1 on error, 2 on usage errors.
func MainWithArgs(args []string) int {
	root := buildRootCmd(&Options{})
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(stderr, err.Error())
		if isUsageError(err) {
			return 2
		}
		return 1
	}
	return 0
}

// usageError marks argument and flag errors.
type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func isUsageError(err error) bool {
	_, ok := err.(usageError)
	return ok
}
