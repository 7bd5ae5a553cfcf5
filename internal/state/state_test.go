package state

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dazzle-tools/sesslog/internal/hostevent"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "state"), clock.NewMock())
}

func TestLoadOrCreateFirstRun(t *testing.T) {
	s := newTestStore(t)

	st, created, err := s.LoadOrCreate("sess-1", "/home/dev/project")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "sess-1", st.SessionID)
	assert.Equal(t, "/home/dev/project", st.OriginalCWD)
	assert.Equal(t, "/home/dev/project", st.CWD)
	assert.Equal(t, 0, st.RunNumber)
	assert.False(t, st.Started)
}

func TestPersistAndReload(t *testing.T) {
	s := newTestStore(t)

	st, _, err := s.LoadOrCreate("sess-1", "/home/dev/project")
	require.NoError(t, err)
	st.Started = true
	st.RunNumber = 3
	st.Name = "my-project"
	require.NoError(t, s.Persist(st))

	reloaded, created, err := s.LoadOrCreate("sess-1", "/home/dev/elsewhere")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 3, reloaded.RunNumber)
	assert.True(t, reloaded.Started)
	assert.Equal(t, "my-project", reloaded.Name)
	// cwd follows the invocation, original_cwd never moves
	assert.Equal(t, "/home/dev/elsewhere", reloaded.CWD)
	assert.Equal(t, "/home/dev/project", reloaded.OriginalCWD)
	assert.NotEmpty(t, reloaded.UpdatedAt)
}

func TestPersistWritesAuxiliaries(t *testing.T) {
	s := newTestStore(t)

	st, _, _ := s.LoadOrCreate("sess-1", "/p")
	st.Started = true
	st.RunNumber = 2
	require.NoError(t, s.Persist(st))

	n, ok := s.CachedRunNumber("sess-1")
	assert.True(t, ok)
	assert.Equal(t, 2, n)

	_, err := os.Stat(filepath.Join(s.Root(), "sess-1.started"))
	assert.NoError(t, err)
}

func TestCorruptStateIsQuarantined(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.MkdirAll(s.Root(), 0o755))
	path := filepath.Join(s.Root(), "sess-1.json")
	require.NoError(t, os.WriteFile(path, []byte("{half a rec"), 0o644))

	st, created, err := s.LoadOrCreate("sess-1", "/p")
	require.NoError(t, err)
	assert.True(t, created, "corrupt record is first-run")
	assert.False(t, st.Started)

	// the bad bytes survive for forensics
	_, err = os.Stat(path + ".corrupt")
	assert.NoError(t, err)
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestForeignRecordIsQuarantined(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.MkdirAll(s.Root(), 0o755))
	path := filepath.Join(s.Root(), "sess-1.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"session_id":"someone-else"}`), 0o644))

	_, created, err := s.LoadOrCreate("sess-1", "/p")
	require.NoError(t, err)
	assert.True(t, created)
	_, err = os.Stat(path + ".corrupt")
	assert.NoError(t, err)
}

func TestList(t *testing.T) {
	s := newTestStore(t)
	for _, id := range []string{"a", "b", "c"} {
		st, _, _ := s.LoadOrCreate(id, "/p")
		require.NoError(t, s.Persist(st))
	}
	// noise that must be skipped
	require.NoError(t, os.WriteFile(filepath.Join(s.Root(), "a.run"), []byte("1"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(s.Root(), "junk.json.corrupt"), []byte("x"), 0o644))

	states, err := s.List()
	require.NoError(t, err)
	assert.Len(t, states, 3)
}

func TestAdvance(t *testing.T) {
	t.Run("first session start", func(t *testing.T) {
		st := &SessionState{SessionID: "s"}
		newRun, anomaly := Advance(st, hostevent.KindSessionStart)
		assert.True(t, newRun)
		assert.False(t, anomaly)
		assert.True(t, st.Started)
		assert.Equal(t, 1, st.RunNumber)
	})

	t.Run("second session start is a resume", func(t *testing.T) {
		st := &SessionState{SessionID: "s", Started: true, RunNumber: 1}
		newRun, anomaly := Advance(st, hostevent.KindSessionStart)
		assert.True(t, newRun)
		assert.False(t, anomaly)
		assert.Equal(t, 2, st.RunNumber)
		assert.True(t, st.Started)
	})

	t.Run("tool event leaves run number alone", func(t *testing.T) {
		st := &SessionState{SessionID: "s", Started: true, RunNumber: 4}
		newRun, anomaly := Advance(st, hostevent.KindPostToolUse)
		assert.False(t, newRun)
		assert.False(t, anomaly)
		assert.Equal(t, 4, st.RunNumber)
	})

	t.Run("tool event before session start synthesizes a run", func(t *testing.T) {
		st := &SessionState{SessionID: "s"}
		newRun, anomaly := Advance(st, hostevent.KindPostToolUse)
		assert.True(t, newRun)
		assert.True(t, anomaly)
		assert.True(t, st.Started)
		assert.Equal(t, 1, st.RunNumber)
	})

	t.Run("lifecycle event is a no-op", func(t *testing.T) {
		st := &SessionState{SessionID: "s", Started: true, RunNumber: 2}
		newRun, anomaly := Advance(st, hostevent.KindOther)
		assert.False(t, newRun)
		assert.False(t, anomaly)
		assert.Equal(t, 2, st.RunNumber)
	})
}

func TestAcquireLock(t *testing.T) {
	t.Run("acquire and release", func(t *testing.T) {
		s := NewStore(filepath.Join(t.TempDir(), "state"), clock.New())

		release, err := s.AcquireLock("sess-1")
		require.NoError(t, err)

		lockPath := filepath.Join(s.Root(), "sess-1.lock")
		_, statErr := os.Stat(lockPath)
		assert.NoError(t, statErr)

		release()
		_, statErr = os.Stat(lockPath)
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("contended lock reports busy", func(t *testing.T) {
		s := NewStore(filepath.Join(t.TempDir(), "state"), clock.New())

		release, err := s.AcquireLock("sess-1")
		require.NoError(t, err)
		defer release()

		_, err = s.AcquireLock("sess-1")
		assert.ErrorIs(t, err, ErrLockBusy)
	})

	t.Run("distinct sessions never contend", func(t *testing.T) {
		s := NewStore(filepath.Join(t.TempDir(), "state"), clock.New())

		var wg sync.WaitGroup
		errs := make([]error, 4)
		for i, id := range []string{"a", "b", "c", "d"} {
			wg.Add(1)
			go func(i int, id string) {
				defer wg.Done()
				release, err := s.AcquireLock(id)
				errs[i] = err
				release()
			}(i, id)
		}
		wg.Wait()
		for _, err := range errs {
			assert.NoError(t, err)
		}
	})

	t.Run("stale lock is taken over", func(t *testing.T) {
		s := NewStore(filepath.Join(t.TempDir(), "state"), clock.New())
		require.NoError(t, os.MkdirAll(s.Root(), 0o755))

		lockPath := filepath.Join(s.Root(), "sess-1.lock")
		require.NoError(t, os.WriteFile(lockPath, []byte("dead-owner\npid=0\n"), 0o644))
		ancient := time.Now().Add(-time.Minute)
		require.NoError(t, os.Chtimes(lockPath, ancient, ancient))

		release, err := s.AcquireLock("sess-1")
		require.NoError(t, err)
		release()
	})

	t.Run("breaking a stale lock leaves no claim file behind", func(t *testing.T) {
		s := NewStore(filepath.Join(t.TempDir(), "state"), clock.New())
		require.NoError(t, os.MkdirAll(s.Root(), 0o755))

		lockPath := filepath.Join(s.Root(), "sess-1.lock")
		require.NoError(t, os.WriteFile(lockPath, []byte("dead-owner\npid=0\n"), 0o644))
		ancient := time.Now().Add(-time.Minute)
		require.NoError(t, os.Chtimes(lockPath, ancient, ancient))

		s.breakStaleLock(lockPath, "contender-token")

		_, err := os.Stat(lockPath)
		assert.True(t, os.IsNotExist(err))
		entries, err := os.ReadDir(s.Root())
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("breaking never removes a fresh lock", func(t *testing.T) {
		s := NewStore(filepath.Join(t.TempDir(), "state"), clock.New())
		require.NoError(t, os.MkdirAll(s.Root(), 0o755))

		// a holder replaced the stale file after this contender's stat
		lockPath := filepath.Join(s.Root(), "sess-1.lock")
		require.NoError(t, os.WriteFile(lockPath, []byte("live-owner\npid=1\n"), 0o644))

		s.breakStaleLock(lockPath, "contender-token")

		raw, err := os.ReadFile(lockPath)
		require.NoError(t, err)
		assert.Equal(t, "live-owner\npid=1\n", string(raw))
	})
}
