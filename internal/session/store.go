// Package session persists per-chat session state in a single JSON file
// shared by every handler goroutine, serialized with advisory file locks.
package session

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"github.com/google/uuid"

	"CCLSentinel/internal/filelock"
	"CCLSentinel/internal/metrics"
	"CCLSentinel/internal/model"
)

// StorageError reports a failed read or write of the state file. The
// correlation id is logged alongside the cause and can be shown to users.
type StorageError struct {
	Op            string
	Path          string
	CorrelationID string
	Err           error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("session %s %s (ref %s): %v", e.Op, e.Path, e.CorrelationID, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Fields selects which session fields Set overwrites; nil fields are kept.
type Fields struct {
	Start     *string
	End       *string
	Normalize *bool
}

// Store reads and writes the state file. Reads hold a shared lock, writes an
// exclusive lock, and each operation is one critical section on one handle.
type Store struct {
	path string
	lock filelock.Backend
}

// NewStore creates a Store over path using the given lock backend.
func NewStore(path string, lock filelock.Backend) *Store {
	return &Store{path: path, lock: lock}
}

// Path returns the state file location.
func (s *Store) Path() string { return s.path }

// Get returns the session for chatID. A missing file or unknown chat yields
// the zero SessionState.
func (s *Store) Get(chatID int64) (model.SessionState, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return model.SessionState{}, nil
	}
	if err != nil {
		return model.SessionState{}, s.fail("read", err)
	}
	defer f.Close()

	var state model.SessionState
	err = filelock.WithLock(s.lock, f, filelock.Shared, func() error {
		doc, err := readDocument(f)
		if err != nil {
			return err
		}
		state = doc[key(chatID)]
		return nil
	})
	if err != nil {
		return model.SessionState{}, s.fail("read", err)
	}
	return state, nil
}

// Set merges the non-nil fields into chatID's session and returns the result.
func (s *Store) Set(chatID int64, fields Fields) (model.SessionState, error) {
	return s.Update(chatID, func(st *model.SessionState) {
		if fields.Start != nil {
			st.Start = *fields.Start
		}
		if fields.End != nil {
			st.End = *fields.End
		}
		if fields.Normalize != nil {
			st.Normalize = *fields.Normalize
		}
	})
}

// ToggleNormalize flips chatID's normalize flag and returns the new session.
func (s *Store) ToggleNormalize(chatID int64) (model.SessionState, error) {
	return s.Update(chatID, func(st *model.SessionState) { st.Normalize = !st.Normalize })
}

// Update applies fn to chatID's session inside a single exclusive critical
// section and persists the whole document. Other chats are left untouched.
// A corrupt document is reported and never overwritten.
func (s *Store) Update(chatID int64, fn func(*model.SessionState)) (model.SessionState, error) {
	f, err := os.OpenFile(s.path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return model.SessionState{}, s.fail("write", err)
	}
	defer f.Close()

	var state model.SessionState
	err = filelock.WithLock(s.lock, f, filelock.Exclusive, func() error {
		doc, err := readDocument(f)
		if err != nil {
			return err
		}
		state = doc[key(chatID)]
		fn(&state)
		doc[key(chatID)] = state
		return writeDocument(f, doc)
	})
	if err != nil {
		return model.SessionState{}, s.fail("write", err)
	}
	return state, nil
}

func (s *Store) fail(op string, err error) error {
	se := &StorageError{Op: op, Path: s.path, CorrelationID: uuid.NewString(), Err: err}
	metrics.StorageErrors.Inc()
	log.Printf("[ERROR] session %s failed ref=%s path=%s: %v", op, se.CorrelationID, s.path, err)
	return se
}

func readDocument(f *os.File) (document, error) {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return decodeDocument(data)
}

func writeDocument(f *os.File, doc document) error {
	data, err := encodeDocument(doc)
	if err != nil {
		return err
	}
	if err := f.Truncate(0); err != nil {
		return err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

func key(chatID int64) string { return strconv.FormatInt(chatID, 10) }
