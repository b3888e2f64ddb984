package runtime

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// watchKillswitch stops the process when path is removed. The watch sits on
// the parent directory because watching a file directly loses the watch on
// some editors' replace-by-rename.
func (m *Monitored) watchKillswitch(path string) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Name != path {
				continue
			}
			if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				_ = m.Stop()
				return
			}
		case _, ok := <-watcher.Errors:
			if !ok {
				return
			}
		case <-m.done:
			return
		}
	}
}
