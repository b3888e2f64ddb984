// Package main is the entry point for the lutra CLI.
package main

import (
	"errors"
	"fmt"
	"os"
)

func main() {
	err := newRootCmd().Execute()
	if err == nil {
		return
	}
	var exit *exitError
	if errors.As(err, &exit) {
		// Output for this invocation was already written.
		os.Exit(exit.code)
	}
	fmt.Fprintln(os.Stderr, "lutra:", err)
	os.Exit(1)
}
