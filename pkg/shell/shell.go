// Package shell is the interactive terminal frontend. It lists the library
// in a table, lets the user play or install games, and hosts the
// install-or-play prompt the dispatcher raises for installed games.
//
// The shell doubles as the dispatcher's Frontend and Confirmer. Before the
// UI is running (or without a terminal) prompts degrade to a plain stdin
// question, or to cancel when stdin is not a TTY.
package shell

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"lutra/internal/logging"
	"lutra/pkg/dispatch"
	"lutra/pkg/library"
)

// Activator runs or installs a game the user selected. The shell calls it
// from a background goroutine on enter.
type Activator func(ctx context.Context, game library.Game)

// Shell owns the terminal UI. Safe for concurrent use; Present, Error and
// InstallOrPlay may be called from any goroutine.
type Shell struct {
	lib      *library.Library
	dbPath   string
	activate Activator
	log      *slog.Logger

	mu      sync.Mutex
	program *tea.Program
}

// New builds a shell over the given library. dbPath is the database file to
// watch for changes; activate handles row activation and may be nil for a
// browse-only shell.
func New(lib *library.Library, dbPath string, activate Activator, log *slog.Logger) *Shell {
	if log == nil {
		log = logging.NewNop()
	}
	return &Shell{
		lib:      lib,
		dbPath:   dbPath,
		activate: activate,
		log:      log,
	}
}

// Run starts the UI and blocks until the user quits or ctx is canceled.
func (s *Shell) Run(ctx context.Context) error {
	watcher := initWatcher(s.dbPath, s.log)
	if watcher != nil {
		defer watcher.Close()
	}

	p := tea.NewProgram(
		newModel(s.lib, s.activate, watcher, s.dbPath),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	s.mu.Lock()
	s.program = p
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.program = nil
		s.mu.Unlock()
	}()

	if _, err := p.Run(); err != nil {
		if ctx.Err() != nil {
			return nil // shutdown, not a failure
		}
		return fmt.Errorf("running shell: %w", err)
	}
	return nil
}

// Present raises the shell and refreshes its listing. Called for requests
// that carry nothing to act on.
func (s *Shell) Present() {
	s.send(presentMsg{})
}

// Error surfaces a non-fatal failure to the user. Falls back to stderr when
// the UI is not running.
func (s *Shell) Error(err error) {
	s.mu.Lock()
	p := s.program
	s.mu.Unlock()
	if p == nil {
		s.log.Error("dispatch failed", "err", err)
		fmt.Fprintln(os.Stderr, "lutra:", err)
		return
	}
	p.Send(noticeMsg{err: err})
}

// InstallOrPlay asks what to do with an already-installed game. With the UI
// running the prompt is a modal; otherwise it is a plain terminal question,
// and cancel when no terminal is attached.
func (s *Shell) InstallOrPlay(ctx context.Context, game *library.Game) (dispatch.Choice, error) {
	s.mu.Lock()
	p := s.program
	s.mu.Unlock()
	if p == nil {
		return s.promptTerminal(game)
	}

	reply := make(chan dispatch.Choice, 1)
	p.Send(confirmMsg{game: game, reply: reply})
	select {
	case choice := <-reply:
		return choice, nil
	case <-ctx.Done():
		return dispatch.ChoiceCancel, ctx.Err()
	}
}

func (s *Shell) promptTerminal(game *library.Game) (dispatch.Choice, error) {
	if !isatty.IsTerminal(os.Stdin.Fd()) {
		return dispatch.ChoiceCancel, nil
	}
	fmt.Printf("%s is already installed. [P]lay, [i]nstall again or [c]ancel? ", game.Name)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return dispatch.ChoiceCancel, nil
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "", "p", "play", "y":
		return dispatch.ChoicePlay, nil
	case "i", "install":
		return dispatch.ChoiceInstall, nil
	default:
		return dispatch.ChoiceCancel, nil
	}
}

func (s *Shell) send(msg tea.Msg) {
	s.mu.Lock()
	p := s.program
	s.mu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}
