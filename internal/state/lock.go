package state

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// ErrLockBusy reports that the per-session lock could not be acquired
// within the retry budget. Callers proceed best-effort: an invocation has a
// bounded lifetime and must never hang the host event it answers.
var ErrLockBusy = errors.New("session lock busy")

const (
	lockAttempts  = 8
	lockBaseDelay = 10 * time.Millisecond
	lockStaleAge  = 10 * time.Second
)

// AcquireLock takes the single-writer lock for one session id. Locks for
// distinct sessions never contend (one lock file per id). The returned
// release function is safe to call on every exit path.
//
// The lock is an O_CREATE|O_EXCL file carrying a uuid owner token and the
// holder pid; a crashed invocation's leftover lock is taken over once it
// exceeds a staleness age.
func (s *Store) AcquireLock(sessionID string) (release func(), err error) {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return func() {}, fmt.Errorf("create state root: %w", err)
	}

	path := filepath.Join(s.root, sessionID+".lock")
	token := uuid.NewString()
	body := fmt.Sprintf("%s\npid=%d\n", token, os.Getpid())

	for attempt := 0; attempt < lockAttempts; attempt++ {
		if attempt > 0 {
			s.clock.Sleep(lockBaseDelay * time.Duration(attempt))
		}

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			f.WriteString(body)
			f.Close()
			return func() { releaseLock(path, token) }, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return func() {}, fmt.Errorf("create lock file: %w", err)
		}

		// held by someone else; break a stale lock from a dead invocation
		if info, statErr := os.Stat(path); statErr == nil {
			if s.clock.Now().Sub(info.ModTime()) > lockStaleAge {
				s.breakStaleLock(path, token)
			}
		}
	}

	return func() {}, ErrLockBusy
}

// breakStaleLock removes a lock left behind by a dead invocation. The file
// is first renamed to a contender-private name, so of two contenders that
// both observed staleness only one claims it; plain remove-after-stat would
// let the loser delete the winner's freshly created lock. Staleness is
// re-checked after the claim in case the holder replaced the file between
// our stat and the rename, and a live lock grabbed that way is put back.
func (s *Store) breakStaleLock(path, token string) {
	claimed := path + ".stale." + token
	if os.Rename(path, claimed) != nil {
		return // another contender claimed it first
	}
	if info, err := os.Stat(claimed); err == nil && s.clock.Now().Sub(info.ModTime()) <= lockStaleAge {
		_ = os.Rename(claimed, path)
		return
	}
	_ = os.Remove(claimed)
}

// releaseLock removes the lock only when we still own it; a stale-lock
// takeover by another invocation must not be clobbered.
func releaseLock(path, token string) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return
	}
	if len(raw) >= len(token) && string(raw[:len(token)]) == token {
		_ = os.Remove(path)
	}
}
