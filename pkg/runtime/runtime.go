// Package runtime spawns and supervises game processes. Every child runs in
// its own process group so stopping a game also stops its descendants (wine,
// wrapper scripts, the lot), with SIGTERM first and SIGKILL after a grace
// period. An optional killswitch file stops the process the moment the file
// disappears.
package runtime

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"
)

const defaultGrace = 3 * time.Second

// Options configure a monitored process.
type Options struct {
	Dir        string
	Env        []string      // extra KEY=VALUE entries appended to the parent env
	Stdout     io.Writer     // defaults to os.Stdout
	Stderr     io.Writer     // defaults to os.Stderr
	Killswitch string        // stop the process when this file disappears
	Grace      time.Duration // SIGTERM to SIGKILL grace, default 3s
}

// Monitored is a running child process. Create one with Start or StartShell.
type Monitored struct {
	cmd      *exec.Cmd
	grace    time.Duration
	started  time.Time
	done     chan struct{}
	stopOnce sync.Once

	mu       sync.Mutex
	finished time.Time
	waitErr  error
}

// Start launches name with args in its own process group and begins
// monitoring it.
func Start(name string, args []string, opts Options) (*Monitored, error) {
	cmd := exec.Command(name, args...)
	return start(cmd, opts)
}

// StartShell runs a command line through /bin/sh -c, for invocations that
// arrive as a single string. The process group covers everything the shell
// spawns.
func StartShell(command string, opts Options) (*Monitored, error) {
	cmd := exec.Command("/bin/sh", "-c", command)
	return start(cmd, opts)
}

func start(cmd *exec.Cmd, opts Options) (*Monitored, error) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Dir = opts.Dir
	if len(opts.Env) > 0 {
		cmd.Env = append(os.Environ(), opts.Env...)
	}
	cmd.Stdout = opts.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	cmd.Stderr = opts.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	grace := opts.Grace
	if grace <= 0 {
		grace = defaultGrace
	}

	m := &Monitored{
		cmd:   cmd,
		grace: grace,
		done:  make(chan struct{}),
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", cmd.Path, err)
	}
	m.started = time.Now()

	// Reap the child in the background to avoid zombies.
	go func() {
		err := cmd.Wait()
		m.mu.Lock()
		m.waitErr = err
		m.finished = time.Now()
		m.mu.Unlock()
		close(m.done)
	}()

	if opts.Killswitch != "" {
		if _, err := os.Stat(opts.Killswitch); err == nil {
			go m.watchKillswitch(opts.Killswitch)
		}
	}

	return m, nil
}

// Wait blocks until the process exits or ctx is canceled. On cancellation
// the process is stopped (group TERM, grace, KILL) before Wait returns
// ctx.Err(), so an interrupted caller never leaves the child running.
func (m *Monitored) Wait(ctx context.Context) error {
	select {
	case <-m.done:
		return m.err()
	case <-ctx.Done():
		_ = m.Stop()
		<-m.done
		return ctx.Err()
	}
}

// Stop terminates the process group with SIGTERM, waits out the grace
// period, and SIGKILLs whatever is left. Safe to call more than once and
// after the process has exited.
func (m *Monitored) Stop() error {
	m.stopOnce.Do(func() {
		pgid := m.cmd.Process.Pid
		if err := syscall.Kill(-pgid, syscall.SIGTERM); err != nil {
			// Process group already gone.
			return
		}
		select {
		case <-m.done:
		case <-time.After(m.grace):
			_ = syscall.Kill(-pgid, syscall.SIGKILL)
		}
	})
	return nil
}

// Done returns a channel closed when the process has exited.
func (m *Monitored) Done() <-chan struct{} {
	return m.done
}

// Duration reports how long the process has been running, or its total
// lifetime once it has exited.
func (m *Monitored) Duration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.finished.IsZero() {
		return time.Since(m.started)
	}
	return m.finished.Sub(m.started)
}

// ExitCode returns the process exit code, or -1 while it is still running
// or when it was killed by a signal.
func (m *Monitored) ExitCode() int {
	select {
	case <-m.done:
	default:
		return -1
	}
	return m.cmd.ProcessState.ExitCode()
}

func (m *Monitored) err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.waitErr
}
