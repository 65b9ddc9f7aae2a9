package filelock

// FlockOp is an operation of the whole-file lock primitive.
type FlockOp int

const (
	FlockShared FlockOp = iota
	FlockExclusive
	FlockUnlock
)

// FlockFunc applies a whole-file advisory lock operation to a descriptor.
type FlockFunc func(fd uintptr, op FlockOp) error

// FlockBackend locks the whole file through a flock-style primitive.
// Shared and exclusive map directly onto the primitive and the file cursor
// is never touched.
type FlockBackend struct {
	flock FlockFunc
}

// NewFlockBackend creates a backend over the given primitive.
func NewFlockBackend(fn FlockFunc) *FlockBackend {
	return &FlockBackend{flock: fn}
}

func (b *FlockBackend) Name() string { return "flock" }

func (b *FlockBackend) TrueShared() bool { return true }

func (b *FlockBackend) Acquire(f File, mode Mode) error {
	op := FlockShared
	if mode == Exclusive {
		op = FlockExclusive
	}
	return b.flock(f.Fd(), op)
}

func (b *FlockBackend) Release(f File) error {
	return b.flock(f.Fd(), FlockUnlock)
}
