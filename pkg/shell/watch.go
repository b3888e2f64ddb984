package shell

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
)

// dbChangeMsg is sent when the library database changes on disk.
type dbChangeMsg struct{}

const debounceDuration = 100 * time.Millisecond

// initWatcher creates a watcher for the directory holding the library
// database. Returns nil when watching is unavailable; the shell then
// refreshes only on demand.
func initWatcher(dbPath string, log *slog.Logger) *fsnotify.Watcher {
	dir := filepath.Dir(dbPath)
	if _, err := os.Stat(dir); err != nil {
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Warn("fsnotify unavailable, refresh with r", "err", err)
		return nil
	}
	if err := watcher.Add(dir); err != nil {
		log.Warn("cannot watch library directory, refresh with r", "dir", dir, "err", err)
		watcher.Close()
		return nil
	}
	return watcher
}

// runWatcher returns a command that blocks until a debounced change to the
// database file arrives, then emits dbChangeMsg. SQLite touches sidecar
// files next to the database, so any event whose path starts with dbPath
// counts.
func runWatcher(watcher *fsnotify.Watcher, dbPath string) tea.Cmd {
	if watcher == nil {
		return nil
	}
	return func() tea.Msg {
		var debounce *time.Timer
		var debounceC <-chan time.Time
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if !strings.HasPrefix(event.Name, dbPath) {
					continue
				}
				if debounce == nil {
					debounce = time.NewTimer(debounceDuration)
					debounceC = debounce.C
				} else {
					if !debounce.Stop() {
						select {
						case <-debounce.C:
						default:
						}
					}
					debounce.Reset(debounceDuration)
				}
			case <-debounceC:
				return dbChangeMsg{}
			case _, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
			}
		}
	}
}
