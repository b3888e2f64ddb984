package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/pflag"

	"lutra/internal/config"
	"lutra/pkg/action"
	"lutra/pkg/dispatch"
	"lutra/pkg/installer"
	"lutra/pkg/launcher"
	"lutra/pkg/library"
	"lutra/pkg/service"
	"lutra/pkg/shell"
	"lutra/pkg/single"
)

// runAction routes an action invocation through the single-instance
// coordinator: the first instance becomes the primary and runs the whole
// pipeline plus the shell, later instances forward their command line to
// it.
func runAction(opts *rootOptions, uri string, paths *config.Paths, settings config.Settings, log *slog.Logger) error {
	instance, err := single.Acquire(paths.LockPath)
	if err != nil {
		return err
	}
	if !instance.Primary {
		log.Debug("primary already running, forwarding", "socket", paths.SocketPath)
		return forward(paths.SocketPath)
	}
	defer func() { _ = instance.Release() }()

	return runPrimary(opts, uri, paths, settings, log)
}

// forward ships this invocation to the running primary, streams its output,
// and adopts its exit code.
func forward(socketPath string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	inv := single.NewInvocation(os.Args[1:])
	code, err := single.Forward(ctx, socketPath, inv, os.Stdout, os.Stderr)
	if err != nil {
		return fmt.Errorf("forward to primary: %w", err)
	}
	if code != 0 {
		return &exitError{code: code}
	}
	return nil
}

// runPrimary is the life of the primary instance: open the library, wire
// the dispatch pipeline, run the initial invocation, then serve forwarded
// invocations while the shell owns the terminal.
func runPrimary(opts *rootOptions, uri string, paths *config.Paths, settings config.Settings, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := paths.EnsureDirs(); err != nil {
		return err
	}
	if _, err := os.Stat(paths.SettingsPath); errors.Is(err, fs.ErrNotExist) {
		// First run: write the defaults so there is a file to edit.
		if err := config.SaveSettings(paths.SettingsPath, settings); err != nil {
			log.Warn("cannot write default settings", "err", err)
		}
	}

	lib, err := library.Open(paths.DBPath)
	if err != nil {
		return err
	}
	defer func() { _ = lib.Close() }()

	client := service.NewClient(settings.Website.URL, filepath.Join(paths.CacheDir, "auth-token"), log)
	inst := installer.New(lib, client, paths.GamesDir, filepath.Join(paths.Home, "install"), log)
	launch := launcher.New(lib, paths.GamesDir, paths.RuntimeDir, settings.System.RuntimeEnabled, log)

	// The shell activates rows through the same dispatcher that serves
	// URIs, so enter on a game behaves exactly like `lutra <slug>`.
	var disp *dispatch.Dispatcher
	sh := shell.New(lib, paths.DBPath, func(ctx context.Context, game library.Game) {
		req := &action.Request{Identifier: game.Slug}
		if _, err := disp.Dispatch(ctx, req); err != nil {
			log.Error("dispatch failed", "slug", game.Slug, "err", err)
		}
	}, log)
	disp = dispatch.New(lib, inst, launch, sh, sh, log)

	// Refresh external services in the background; the shell picks new
	// rows up through the database watcher.
	go syncServices(ctx, lib, client, settings, log)

	srv := single.NewServer(paths.SocketPath, forwardedHandler(disp, sh, log))
	if err := srv.Listen(); err != nil {
		return err
	}
	go func() {
		if err := srv.Serve(ctx); err != nil {
			log.Error("instance server failed", "err", err)
		}
	}()
	defer func() { _ = srv.Close() }()

	// The initial invocation runs before the shell takes the terminal, so
	// prompts and errors still reach the user directly.
	req, err := action.Build(uri, action.Flags{
		InstallerFile: opts.installerFile,
		Reinstall:     opts.reinstall,
	})
	if err != nil {
		return err
	}
	if !req.Empty() {
		if _, err := disp.Dispatch(ctx, req); err != nil {
			return err
		}
	}

	err = sh.Run(ctx)
	stop()
	return err
}

// syncServices imports Steam manifests and, with a stored token, the
// lutris.net remote library.
func syncServices(ctx context.Context, lib *library.Library, client *service.Client, settings config.Settings, log *slog.Logger) {
	if n, err := service.ImportSteam(ctx, lib, steamDirs(settings), log); err != nil {
		log.Warn("steam import failed", "err", err)
	} else if n > 0 {
		log.Info("imported steam games", "count", n)
	}

	if n, err := client.SyncLibrary(ctx, lib); err != nil {
		log.Warn("lutris.net sync failed", "err", err)
	} else if n > 0 {
		log.Info("synced lutris.net library", "count", n)
	}
}

// forwardedHandler runs invocations relayed by secondary instances. Output
// written here streams back to the secondary; the window is raised
// afterwards either way.
func forwardedHandler(disp *dispatch.Dispatcher, sh *shell.Shell, log *slog.Logger) single.Handler {
	return func(ctx context.Context, inv single.Invocation, stdout, stderr io.Writer) int {
		defer sh.Present()

		uri, flags, err := parseForwarded(inv.Args)
		if err != nil {
			fmt.Fprintln(stderr, "lutra:", err)
			return 1
		}
		flags.Dir = inv.Dir

		req, err := action.Build(uri, flags)
		if err != nil {
			fmt.Fprintln(stderr, "lutra:", err)
			return 1
		}
		log.Info("forwarded invocation", "id", inv.ID, "args", strings.Join(inv.Args, " "))
		if req.Empty() {
			return 0
		}
		if _, err := disp.Dispatch(ctx, req); err != nil {
			fmt.Fprintln(stderr, "lutra:", err)
			return 1
		}
		return 0
	}
}

// parseForwarded extracts the action flags from a forwarded command line.
// Text-mode flags never reach the primary; anything unrecognized is
// ignored so version skew between instances stays harmless.
func parseForwarded(args []string) (string, action.Flags, error) {
	fs := pflag.NewFlagSet("forwarded", pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.Usage = func() {}
	installerFile := fs.StringP("install", "i", "", "")
	reinstall := fs.Bool("reinstall", false, "")
	fs.BoolP("debug", "d", false, "")

	if err := fs.Parse(args); err != nil {
		return "", action.Flags{}, fmt.Errorf("parse forwarded args: %w", err)
	}

	uri := ""
	if rest := fs.Args(); len(rest) > 0 {
		uri = rest[0]
	}
	return uri, action.Flags{InstallerFile: *installerFile, Reinstall: *reinstall}, nil
}
