//go:build windows

package filelock

import (
	"time"

	"golang.org/x/sys/windows"
)

const (
	tryAttempts = 10
	tryInterval = time.Second
)

func init() {
	nativeRegion = windowsRegion{}
}

type windowsRegion struct{}

func (windowsRegion) Region(fd uintptr, op RegionOp, offset, length int64) error {
	h := windows.Handle(fd)
	ol := &windows.Overlapped{Offset: uint32(offset), OffsetHigh: uint32(offset >> 32)}
	low, high := uint32(length), uint32(length>>32)

	switch op {
	case RegionLock:
		return windows.LockFileEx(h, windows.LOCKFILE_EXCLUSIVE_LOCK, 0, low, high, ol)
	case RegionTryLock:
		var err error
		for i := 0; i < tryAttempts; i++ {
			err = windows.LockFileEx(h, windows.LOCKFILE_EXCLUSIVE_LOCK|windows.LOCKFILE_FAIL_IMMEDIATELY, 0, low, high, ol)
			if err == nil {
				return nil
			}
			time.Sleep(tryInterval)
		}
		return err
	default:
		return windows.UnlockFileEx(h, 0, low, high, ol)
	}
}
