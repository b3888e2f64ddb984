package single //nolint:testpackage // internal test needs access to unexported socket helpers

import (
	"path/filepath"
	"testing"
)

func TestAcquire_FirstWinsSecondLoses(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "lutra.lock")

	primary, err := Acquire(lockPath)
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	if !primary.Primary {
		t.Fatal("first instance should be primary")
	}

	secondary, err := Acquire(lockPath)
	if err != nil {
		t.Fatalf("second acquire: %v", err)
	}
	if secondary.Primary {
		t.Fatal("second instance must not be primary while the lock is held")
	}

	if err := primary.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}

	third, err := Acquire(lockPath)
	if err != nil {
		t.Fatalf("third acquire: %v", err)
	}
	if !third.Primary {
		t.Fatal("lock release should let the next instance become primary")
	}
	_ = third.Release()
}

func TestRelease_SecondaryIsNoop(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "lutra.lock")

	primary, err := Acquire(lockPath)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer func() { _ = primary.Release() }()

	secondary, err := Acquire(lockPath)
	if err != nil {
		t.Fatalf("second acquire: %v", err)
	}
	if err := secondary.Release(); err != nil {
		t.Fatalf("secondary release should be a no-op, got %v", err)
	}

	// The primary must still hold the lock after the secondary's Release.
	another, err := Acquire(lockPath)
	if err != nil {
		t.Fatalf("third acquire: %v", err)
	}
	if another.Primary {
		t.Fatal("secondary Release must not drop the primary's lock")
	}
}
