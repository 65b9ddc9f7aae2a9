//go:build unix

package filelock

import (
	"errors"

	"golang.org/x/sys/unix"
)

func init() {
	nativeFlock = unixFlock
}

func unixFlock(fd uintptr, op FlockOp) error {
	how := unix.LOCK_UN
	switch op {
	case FlockShared:
		how = unix.LOCK_SH
	case FlockExclusive:
		how = unix.LOCK_EX
	}
	for {
		err := unix.Flock(int(fd), how)
		if !errors.Is(err, unix.EINTR) {
			return err
		}
	}
}
