// Package filelock provides advisory locking of the session state file over
// two platform lock families: whole-file flock and byte-range region locks.
package filelock

import (
	"errors"
	"fmt"
)

// Mode is the kind of lock requested.
type Mode int

const (
	Shared Mode = iota
	Exclusive
)

func (m Mode) String() string {
	if m == Exclusive {
		return "exclusive"
	}
	return "shared"
}

// File is the part of *os.File a backend needs.
type File interface {
	Fd() uintptr
	Seek(offset int64, whence int) (int64, error)
}

// Backend acquires and releases advisory locks on open files.
type Backend interface {
	Acquire(f File, mode Mode) error
	Release(f File) error
	Name() string
	// TrueShared reports whether Shared locks admit concurrent holders.
	// When false, Shared is served by an exclusive lock.
	TrueShared() bool
}

// ErrUnsupported is returned when the requested backend has no primitive on this host.
var ErrUnsupported = errors.New("lock backend not supported on this platform")

// WithLock holds a lock of the given mode on f while fn runs. The lock is
// released exactly once on every exit path, panics included; a release
// failure is joined to fn's error.
func WithLock(b Backend, f File, mode Mode, fn func() error) (err error) {
	if err := b.Acquire(f, mode); err != nil {
		return fmt.Errorf("acquire %s lock (%s): %w", mode, b.Name(), err)
	}
	defer func() {
		if rerr := b.Release(f); rerr != nil {
			err = errors.Join(err, fmt.Errorf("release lock (%s): %w", b.Name(), rerr))
		}
	}()
	return fn()
}
