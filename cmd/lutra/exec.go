package main

import (
	"context"
	"os/signal"
	"syscall"

	"lutra/internal/config"
	"lutra/pkg/runtime"
)

// runExec runs an arbitrary command line under the managed runtime and
// blocks until it exits. SIGINT and SIGTERM stop the child's process group
// before lutra returns; a nonzero child exit becomes lutra's exit code.
func runExec(command string, paths *config.Paths, settings config.Settings) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var env []string
	if settings.System.RuntimeEnabled {
		env = runtime.Env(paths.RuntimeDir)
	}

	m, err := runtime.StartShell(command, runtime.Options{Env: env})
	if err != nil {
		return err
	}
	if err := m.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			// Interrupted; Wait already stopped the child.
			return nil
		}
		code := m.ExitCode()
		if code <= 0 {
			code = 1
		}
		return &exitError{code: code}
	}
	return nil
}
