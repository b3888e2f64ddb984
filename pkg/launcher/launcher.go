// Package launcher starts installed games and records their play sessions.
// A game's command line comes from the config YAML written at install time;
// the process runs supervised by pkg/runtime, so stopping lutra or deleting
// a configured killswitch file also stops the game. It implements the run
// collaborator of the dispatcher.
package launcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"lutra/internal/logging"
	"lutra/pkg/library"
	"lutra/pkg/runtime"
)

// gameConfig is the per-game config YAML written at install time. Runner
// sections and other unknown keys are ignored here.
type gameConfig struct {
	Game   gameSection   `yaml:"game"`
	System systemSection `yaml:"system"`
}

type gameSection struct {
	Exe        string `yaml:"exe"`
	Args       string `yaml:"args"`
	WorkingDir string `yaml:"working_dir"`
}

type systemSection struct {
	Env           map[string]string `yaml:"env"`
	PrefixCommand string            `yaml:"prefix_command"`
	Killswitch    string            `yaml:"killswitch"`
}

func loadConfig(path string) (*gameConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read game config: %w", err)
	}
	var cfg gameConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse game config %s: %w", path, err)
	}
	return &cfg, nil
}

// Launcher starts installed games by library id.
type Launcher struct {
	lib        *library.Library
	gamesDir   string
	runtimeDir string
	useRuntime bool
	log        *slog.Logger

	mu      sync.Mutex
	running map[int64]*runtime.Monitored
	wg      sync.WaitGroup
}

// New creates a Launcher. useRuntime puts the managed runtime's libraries on
// the loader path of launched games.
func New(lib *library.Library, gamesDir, runtimeDir string, useRuntime bool, log *slog.Logger) *Launcher {
	if log == nil {
		log = logging.NewNop()
	}
	return &Launcher{
		lib:        lib,
		gamesDir:   gamesDir,
		runtimeDir: runtimeDir,
		useRuntime: useRuntime,
		log:        log,
		running:    make(map[int64]*runtime.Monitored),
	}
}

// Run starts the game with the given library id and returns once the
// process is up; the session is recorded when the game exits. Running an
// unknown, uninstalled, or missing game is an error. A second Run while the
// game is alive is a no-op.
func (l *Launcher) Run(ctx context.Context, gameID int64) error {
	game, err := l.lib.GameByField(ctx, library.FieldID, strconv.FormatInt(gameID, 10))
	if err != nil {
		return err
	}
	if game == nil {
		return fmt.Errorf("no game with id %d", gameID)
	}
	if !game.Installed {
		return fmt.Errorf("%s is not installed", game.Slug)
	}

	l.mu.Lock()
	if _, ok := l.running[gameID]; ok {
		l.mu.Unlock()
		l.log.Info("game already running", "slug", game.Slug)
		return nil
	}
	l.mu.Unlock()

	m, err := l.launch(game)
	if err != nil {
		return err
	}

	l.mu.Lock()
	l.running[gameID] = m
	l.mu.Unlock()
	l.log.Info("game started", "slug", game.Slug, "runner", game.Runner)

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		<-m.Done()
		l.mu.Lock()
		delete(l.running, gameID)
		l.mu.Unlock()
		if err := l.lib.UpdatePlayed(context.Background(), gameID, time.Now(), m.Duration()); err != nil {
			l.log.Warn("recording play session", "slug", game.Slug, "err", err)
		}
		l.log.Info("game exited", "slug", game.Slug, "exit", m.ExitCode())
	}()
	return nil
}

// launch builds and starts the game process.
func (l *Launcher) launch(game *library.Game) (*runtime.Monitored, error) {
	// Steam games hand off to the Steam client, no config file involved.
	if game.Runner == "steam" && game.ServiceID != "" {
		return runtime.Start("steam", []string{"steam://rungameid/" + game.ServiceID}, runtime.Options{})
	}

	if game.ConfigPath == "" {
		return nil, fmt.Errorf("%s has no game config", game.Slug)
	}
	cfg, err := loadConfig(filepath.Join(l.gamesDir, game.ConfigPath+".yml"))
	if err != nil {
		return nil, err
	}

	exe := cfg.Game.Exe
	if exe == "" {
		return nil, fmt.Errorf("config for %s names no executable", game.Slug)
	}
	if !filepath.IsAbs(exe) && game.Directory != "" {
		exe = filepath.Join(game.Directory, exe)
	}
	if _, err := os.Stat(exe); err != nil {
		return nil, fmt.Errorf("executable for %s not found: %s", game.Slug, exe)
	}

	workingDir := cfg.Game.WorkingDir
	if workingDir == "" {
		workingDir = game.Directory
	}
	if workingDir == "" {
		workingDir = filepath.Dir(exe)
	}

	opts := runtime.Options{
		Dir:        workingDir,
		Env:        l.gameEnv(cfg),
		Killswitch: cfg.System.Killswitch,
	}

	if cfg.System.PrefixCommand != "" {
		command := cfg.System.PrefixCommand + " " + shellQuote(exe)
		if cfg.Game.Args != "" {
			command += " " + cfg.Game.Args
		}
		return runtime.StartShell(command, opts)
	}
	return runtime.Start(exe, strings.Fields(cfg.Game.Args), opts)
}

// gameEnv builds the extra environment for a game: its configured env in
// stable order, then the managed runtime's loader path when enabled.
func (l *Launcher) gameEnv(cfg *gameConfig) []string {
	keys := make([]string, 0, len(cfg.System.Env))
	for k := range cfg.System.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	env := make([]string, 0, len(keys)+1)
	for _, k := range keys {
		env = append(env, k+"="+cfg.System.Env[k])
	}
	if l.useRuntime {
		env = append(env, runtime.Env(l.runtimeDir)...)
	}
	return env
}

// shellQuote makes a path safe to splice into a sh -c command line.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// Running reports whether the game is currently running.
func (l *Launcher) Running(gameID int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.running[gameID]
	return ok
}

// StopAll stops every running game and waits until their sessions are
// recorded. Called on shutdown.
func (l *Launcher) StopAll() {
	l.mu.Lock()
	ms := make([]*runtime.Monitored, 0, len(l.running))
	for _, m := range l.running {
		ms = append(ms, m)
	}
	l.mu.Unlock()
	for _, m := range ms {
		_ = m.Stop()
	}
	l.wg.Wait()
}

// WaitAll blocks until every launched game has exited and its session is
// recorded.
func (l *Launcher) WaitAll() {
	l.wg.Wait()
}
