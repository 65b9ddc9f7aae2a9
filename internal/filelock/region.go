package filelock

import (
	"errors"
	"io"
	"math"
)

// RegionLength is the number of bytes covered by a region lock.
const RegionLength int64 = math.MaxInt32

// RegionOp is an operation of the byte-range lock primitive.
type RegionOp int

const (
	// RegionLock blocks until an exclusive lock is held.
	RegionLock RegionOp = iota
	// RegionTryLock makes a bounded number of attempts and then fails.
	RegionTryLock
	RegionUnlock
)

// RegionLocker locks length bytes of a file starting at offset. Some
// implementations move the file cursor as a side effect.
type RegionLocker interface {
	Region(fd uintptr, op RegionOp, offset, length int64) error
}

// RegionBackend locks a fixed byte range anchored at offset 0.
//
// The platform family behind it has no shared mode: Shared is served by the
// try-lock operation, which is still exclusive, so readers exclude each
// other. TrueShared reports false.
//
// The cursor is saved before and restored after every primitive call, so
// callers never observe cursor movement caused by locking.
type RegionBackend struct {
	locker RegionLocker
}

// NewRegionBackend creates a backend over the given primitive.
func NewRegionBackend(l RegionLocker) *RegionBackend {
	return &RegionBackend{locker: l}
}

func (b *RegionBackend) Name() string { return "region" }

func (b *RegionBackend) TrueShared() bool { return false }

func (b *RegionBackend) Acquire(f File, mode Mode) error {
	op := RegionTryLock
	if mode == Exclusive {
		op = RegionLock
	}
	return b.apply(f, op)
}

func (b *RegionBackend) Release(f File) error {
	return b.apply(f, RegionUnlock)
}

func (b *RegionBackend) apply(f File, op RegionOp) error {
	pos, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	lockErr := b.locker.Region(f.Fd(), op, 0, RegionLength)
	if _, err := f.Seek(pos, io.SeekStart); err != nil {
		return errors.Join(lockErr, err)
	}
	return lockErr
}
