// Package state persists per-session records across stateless hook
// invocations. Every invocation reconstructs continuity from these files:
// the process itself remembers nothing.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
)

// SessionState is the durable record for one session identifier.
type SessionState struct {
	SessionID      string `json:"session_id"`
	Name           string `json:"name,omitempty"`
	OriginalCWD    string `json:"original_cwd"`
	CWD            string `json:"cwd"`
	LogDir         string `json:"log_dir,omitempty"`
	TranscriptPath string `json:"transcript_path,omitempty"`
	RunNumber      int    `json:"run_number"`
	Started        bool   `json:"started"`
	UpdatedAt      string `json:"updated_at"`
}

// Store reads and writes SessionState records under one state root.
type Store struct {
	root  string
	clock clock.Clock
}

// NewStore creates a store rooted at dir. The directory is created lazily
// on first persist.
func NewStore(dir string, clk clock.Clock) *Store {
	if clk == nil {
		clk = clock.New()
	}
	return &Store{root: dir, clock: clk}
}

// Root returns the state root directory.
func (s *Store) Root() string { return s.root }

func (s *Store) statePath(sessionID string) string {
	return filepath.Join(s.root, sessionID+".json")
}

func (s *Store) runCachePath(sessionID string) string {
	return filepath.Join(s.root, sessionID+".run")
}

func (s *Store) startedMarkerPath(sessionID string) string {
	return filepath.Join(s.root, sessionID+".started")
}

// LoadOrCreate returns the persisted state for sessionID, or a fresh record
// when none exists. A missing state file is first-run, not an error. An
// unreadable record is quarantined under a .corrupt suffix and likewise
// treated as first-run, so one bad write never wedges the session.
func (s *Store) LoadOrCreate(sessionID, cwd string) (st *SessionState, created bool, err error) {
	path := s.statePath(sessionID)

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s.fresh(sessionID, cwd), true, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read session state: %w", err)
	}

	st = &SessionState{}
	if err := json.Unmarshal(raw, st); err != nil {
		s.quarantine(path)
		return s.fresh(sessionID, cwd), true, nil
	}
	if st.SessionID != sessionID {
		// record was copied or tampered with; identity is immutable
		s.quarantine(path)
		return s.fresh(sessionID, cwd), true, nil
	}

	// cwd moves with every invocation; the original never does
	if cwd != "" {
		st.CWD = cwd
	}
	if st.OriginalCWD == "" {
		st.OriginalCWD = st.CWD
	}
	return st, false, nil
}

// Load returns the persisted state, or nil when none exists.
func (s *Store) Load(sessionID string) (*SessionState, error) {
	raw, err := os.ReadFile(s.statePath(sessionID))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	st := &SessionState{}
	if err := json.Unmarshal(raw, st); err != nil {
		return nil, fmt.Errorf("decode session state: %w", err)
	}
	return st, nil
}

// List returns every readable session record in the store, skipping
// quarantined and auxiliary files.
func (s *Store) List() ([]*SessionState, error) {
	entries, err := os.ReadDir(s.root)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var states []*SessionState
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		st, err := s.Load(strings.TrimSuffix(name, ".json"))
		if err != nil || st == nil {
			continue
		}
		states = append(states, st)
	}
	return states, nil
}

// Persist writes the record atomically: temp file in the same directory,
// then rename, so a concurrent reader never observes a torn record. The
// .run fast-path cache and the .started marker are refreshed alongside.
func (s *Store) Persist(st *SessionState) error {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("create state root: %w", err)
	}

	st.UpdatedAt = s.clock.Now().UTC().Format(time.RFC3339)

	b, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session state: %w", err)
	}
	b = append(b, '\n')

	path := s.statePath(st.SessionID)
	tmp, err := os.CreateTemp(s.root, st.SessionID+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp state file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}

	// best-effort auxiliaries; the JSON record is authoritative
	_ = os.WriteFile(s.runCachePath(st.SessionID), []byte(strconv.Itoa(st.RunNumber)), 0o644)
	if st.Started {
		if _, err := os.Stat(s.startedMarkerPath(st.SessionID)); errors.Is(err, os.ErrNotExist) {
			_ = os.WriteFile(s.startedMarkerPath(st.SessionID), []byte(st.UpdatedAt+"\n"), 0o644)
		}
	}
	return nil
}

// CachedRunNumber reads the .run fast-path cache; ok is false when the
// cache is missing or unreadable and the JSON record must be consulted.
func (s *Store) CachedRunNumber(sessionID string) (int, bool) {
	raw, err := os.ReadFile(s.runCachePath(sessionID))
	if err != nil {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

func (s *Store) fresh(sessionID, cwd string) *SessionState {
	return &SessionState{
		SessionID:   sessionID,
		OriginalCWD: cwd,
		CWD:         cwd,
		RunNumber:   0,
		Started:     false,
	}
}

// quarantine preserves an unreadable record for forensic inspection
// instead of silently overwriting it.
func (s *Store) quarantine(path string) {
	dst := path + ".corrupt"
	if _, err := os.Stat(dst); err == nil {
		dst = fmt.Sprintf("%s.%d.corrupt", path, s.clock.Now().Unix())
	}
	_ = os.Rename(path, dst)
}
