// Package single makes lutra a single-instance application. The first
// invocation takes a file lock and becomes the primary: it serves a Unix
// socket and runs the whole pipeline. Every later invocation loses the lock,
// forwards its command line over the socket, streams back the primary's
// output, and exits with the primary's exit code.
//
// Text-only commands never come through here; they run in whatever process
// the user started.
package single

import (
	"fmt"

	"github.com/gofrs/flock"
)

// Instance is the result of an election. Primary tells the caller which
// side it is on; the primary holds the lock until Release.
type Instance struct {
	Primary bool
	lock    *flock.Flock
}

// Acquire tries to become the primary instance by taking lockPath. It never
// blocks: when the lock is held elsewhere the returned Instance simply has
// Primary false.
func Acquire(lockPath string) (*Instance, error) {
	l := flock.New(lockPath)
	locked, err := l.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire instance lock %s: %w", lockPath, err)
	}
	return &Instance{Primary: locked, lock: l}, nil
}

// Release gives up the primary lock. A no-op for secondaries.
func (i *Instance) Release() error {
	if !i.Primary {
		return nil
	}
	return i.lock.Unlock()
}
