package filelock

import (
	"fmt"
	"runtime"
)

// Backend kinds accepted by Select.
const (
	KindAuto   = "auto"
	KindFlock  = "flock"
	KindRegion = "region"
)

// nativeFlock and nativeRegion are the host primitives; either is nil when
// the host does not provide it.
var (
	nativeFlock  FlockFunc
	nativeRegion RegionLocker
)

// Select returns the backend for kind. KindAuto (or "") picks region locking
// on Windows and flock everywhere else. It is meant to be called once at
// startup and the result injected where needed.
func Select(kind string) (Backend, error) {
	if kind == "" || kind == KindAuto {
		kind = KindFlock
		if runtime.GOOS == "windows" {
			kind = KindRegion
		}
	}
	switch kind {
	case KindFlock:
		if nativeFlock == nil {
			return nil, fmt.Errorf("%s on %s: %w", kind, runtime.GOOS, ErrUnsupported)
		}
		return NewFlockBackend(nativeFlock), nil
	case KindRegion:
		if nativeRegion == nil {
			return nil, fmt.Errorf("%s on %s: %w", kind, runtime.GOOS, ErrUnsupported)
		}
		return NewRegionBackend(nativeRegion), nil
	default:
		return nil, fmt.Errorf("unknown lock backend %q", kind)
	}
}
