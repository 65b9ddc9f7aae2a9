package filelock

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFile struct {
	fd  uintptr
	pos int64
}

func (f *fakeFile) Fd() uintptr { return f.fd }

func (f *fakeFile) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		f.pos = offset
	case io.SeekCurrent:
		f.pos += offset
	default:
		return 0, errors.New("unsupported whence")
	}
	return f.pos, nil
}

type regionCall struct {
	fd     uintptr
	op     RegionOp
	offset int64
	length int64
}

// recordingRegion moves the cursor on every call, the way the platform
// primitive does, so cursor restoration is observable.
type recordingRegion struct {
	file  *fakeFile
	calls []regionCall
	err   error
}

func (r *recordingRegion) Region(fd uintptr, op RegionOp, offset, length int64) error {
	r.calls = append(r.calls, regionCall{fd, op, offset, length})
	r.file.pos += 1000
	return r.err
}

func TestRegionBackend_CallSequence(t *testing.T) {
	f := &fakeFile{fd: 42, pos: 7}
	prim := &recordingRegion{file: f}
	b := NewRegionBackend(prim)

	require.NoError(t, b.Acquire(f, Exclusive))
	assert.Equal(t, int64(7), f.pos, "cursor restored after acquire")
	require.NoError(t, b.Release(f))
	assert.Equal(t, int64(7), f.pos, "cursor restored after release")

	require.NoError(t, b.Acquire(f, Shared))
	require.NoError(t, b.Release(f))

	assert.Equal(t, []regionCall{
		{42, RegionLock, 0, RegionLength},
		{42, RegionUnlock, 0, RegionLength},
		{42, RegionTryLock, 0, RegionLength},
		{42, RegionUnlock, 0, RegionLength},
	}, prim.calls)
	assert.False(t, b.TrueShared())
}

func TestRegionBackend_ReleaseCoversAcquiredRange(t *testing.T) {
	f := &fakeFile{fd: 3}
	prim := &recordingRegion{file: f}
	b := NewRegionBackend(prim)

	require.NoError(t, b.Acquire(f, Exclusive))
	f.pos = 512 // caller read or wrote while holding the lock
	require.NoError(t, b.Release(f))

	require.Len(t, prim.calls, 2)
	assert.Equal(t, prim.calls[0].offset, prim.calls[1].offset)
	assert.Equal(t, int64(512), f.pos)
}

func TestRegionBackend_ErrorStillRestoresCursor(t *testing.T) {
	f := &fakeFile{fd: 3, pos: 11}
	prim := &recordingRegion{file: f, err: errors.New("locked")}
	b := NewRegionBackend(prim)

	err := b.Acquire(f, Shared)
	assert.EqualError(t, err, "locked")
	assert.Equal(t, int64(11), f.pos)
}

func TestFlockBackend_MapsModes(t *testing.T) {
	var ops []FlockOp
	b := NewFlockBackend(func(fd uintptr, op FlockOp) error {
		assert.Equal(t, uintptr(9), fd)
		ops = append(ops, op)
		return nil
	})
	f := &fakeFile{fd: 9, pos: 5}

	require.NoError(t, b.Acquire(f, Shared))
	require.NoError(t, b.Release(f))
	require.NoError(t, b.Acquire(f, Exclusive))
	require.NoError(t, b.Release(f))

	assert.Equal(t, []FlockOp{FlockShared, FlockUnlock, FlockExclusive, FlockUnlock}, ops)
	assert.Equal(t, int64(5), f.pos, "flock never touches the cursor")
	assert.True(t, b.TrueShared())
}

func TestWithLock_ReleasesOnEveryPath(t *testing.T) {
	f := &fakeFile{fd: 1}
	prim := &recordingRegion{file: f}
	b := NewRegionBackend(prim)

	boom := errors.New("boom")
	err := WithLock(b, f, Exclusive, func() error { return boom })
	assert.ErrorIs(t, err, boom)
	require.Len(t, prim.calls, 2)
	assert.Equal(t, RegionUnlock, prim.calls[1].op)

	assert.Panics(t, func() {
		_ = WithLock(b, f, Shared, func() error { panic("bad") })
	})
	require.Len(t, prim.calls, 4)
	assert.Equal(t, RegionUnlock, prim.calls[3].op)
}

func TestWithLock_AcquireFailureSkipsFn(t *testing.T) {
	b := NewFlockBackend(func(uintptr, FlockOp) error { return errors.New("busy") })
	called := false
	err := WithLock(b, &fakeFile{}, Exclusive, func() error { called = true; return nil })
	require.Error(t, err)
	assert.False(t, called)
	assert.Contains(t, err.Error(), "exclusive")
}

func TestWithLock_JoinsReleaseError(t *testing.T) {
	b := NewFlockBackend(func(_ uintptr, op FlockOp) error {
		if op == FlockUnlock {
			return errors.New("unlock failed")
		}
		return nil
	})
	err := WithLock(b, &fakeFile{}, Shared, func() error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unlock failed")
}

func TestSelect(t *testing.T) {
	_, err := Select("bogus")
	assert.Error(t, err)

	b, err := Select(KindAuto)
	require.NoError(t, err)
	if runtime.GOOS == "windows" {
		assert.Equal(t, "region", b.Name())
	} else {
		assert.Equal(t, "flock", b.Name())
		_, err := Select(KindRegion)
		assert.ErrorIs(t, err, ErrUnsupported)
	}
}

func TestNativeBackend_RealFile(t *testing.T) {
	b, err := Select(KindAuto)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "state.json")
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	require.NoError(t, err)
	defer f.Close()

	require.NoError(t, WithLock(b, f, Exclusive, func() error {
		_, err := f.WriteString(`{"1":{}}`)
		return err
	}))
	require.NoError(t, WithLock(b, f, Shared, func() error { return nil }))
}
