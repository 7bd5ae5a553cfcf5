// Package dispatch routes one host event through the engine in a fixed
// order: resolve the working directory, load or create session state,
// advance the run number, perform the kind-specific work, persist. Every
// step degrades rather than aborts; the host's tool-call flow must never be
// blocked by a logging failure.
package dispatch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/dazzle-tools/sesslog/internal/channel"
	"github.com/dazzle-tools/sesslog/internal/config"
	"github.com/dazzle-tools/sesslog/internal/hostevent"
	"github.com/dazzle-tools/sesslog/internal/logdir"
	"github.com/dazzle-tools/sesslog/internal/naming"
	"github.com/dazzle-tools/sesslog/internal/pathnorm"
	"github.com/dazzle-tools/sesslog/internal/state"
	"github.com/dazzle-tools/sesslog/internal/translink"
)

// Dispatcher wires the engine's components for one invocation.
type Dispatcher struct {
	cfg     *config.Config
	store   *state.Store
	logRoot string
	user    string
	clock   clock.Clock
	log     *zap.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithClock injects a clock, used by tests to pin timestamps.
func WithClock(clk clock.Clock) Option {
	return func(d *Dispatcher) { d.clock = clk }
}

// WithLogger attaches a debug logger.
func WithLogger(l *zap.Logger) Option {
	return func(d *Dispatcher) { d.log = l }
}

// WithUser overrides the username folded into log directory names.
func WithUser(u string) Option {
	return func(d *Dispatcher) { d.user = u }
}

// New builds a Dispatcher from resolved configuration roots.
func New(cfg *config.Config, opts ...Option) (*Dispatcher, error) {
	stateRoot, err := cfg.StateRoot()
	if err != nil {
		return nil, fmt.Errorf("resolve state root: %w", err)
	}
	logRoot, err := cfg.LogRoot()
	if err != nil {
		return nil, fmt.Errorf("resolve log root: %w", err)
	}

	d := &Dispatcher{
		cfg:     cfg,
		logRoot: logRoot,
		user:    currentUser(),
		clock:   clock.New(),
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.store = state.NewStore(stateRoot, d.clock)
	return d, nil
}

// Store exposes the session state store for operator commands.
func (d *Dispatcher) Store() *state.Store { return d.store }

// LogRoot returns the root directory holding per-session log directories.
func (d *Dispatcher) LogRoot() string { return d.logRoot }

// Dispatch processes one host event end to end. The returned error is
// advisory; callers still reply continue=true to the host.
func (d *Dispatcher) Dispatch(ev *hostevent.Event) error {
	canonical, err := pathnorm.Normalize(ev.CWD)
	if err != nil {
		// empty cwd; state keeps whatever it had
		d.log.Debug("cwd not normalizable", zap.String("raw", ev.CWD), zap.Error(err))
		canonical = ""
	}

	release, err := d.store.AcquireLock(ev.SessionID)
	if err != nil {
		if !errors.Is(err, state.ErrLockBusy) {
			return fmt.Errorf("acquire session lock: %w", err)
		}
		// bounded lifetime beats strict serialization; proceed unlocked
		d.log.Warn("session lock busy, proceeding best effort",
			zap.String("session_id", ev.SessionID))
	} else {
		defer release()
	}

	st, created, err := d.store.LoadOrCreate(ev.SessionID, canonical)
	if err != nil {
		return fmt.Errorf("load session state: %w", err)
	}
	if created {
		d.log.Debug("created session state", zap.String("session_id", st.SessionID))
	}

	kind := ev.Kind()
	newRun, anomaly := state.Advance(st, kind)
	if anomaly {
		d.log.Warn("tool event arrived before session start, synthesizing run",
			zap.String("session_id", st.SessionID),
			zap.Int("run_number", st.RunNumber))
	}

	now := d.clock.Now()

	switch kind {
	case hostevent.KindSessionStart:
		d.onSessionStart(st, ev, canonical)
	case hostevent.KindPostToolUse:
		if anomaly {
			// synthesized run still needs a named directory
			d.onSessionStart(st, ev, canonical)
		}
		d.onToolUse(st, ev, now, newRun)
		newRun = false
	}

	if newRun && st.LogDir != "" {
		d.writeRunMarker(st, now)
	}

	// the host may report a new transcript on any event kind
	d.refreshTranscript(st, ev)

	if err := d.store.Persist(st); err != nil {
		return fmt.Errorf("persist session state: %w", err)
	}
	return nil
}

// onSessionStart derives the session name on first sight and reconciles
// the log directory with it.
func (d *Dispatcher) onSessionStart(st *state.SessionState, ev *hostevent.Event, canonical string) {
	if st.Name == "" && canonical != "" {
		st.Name = naming.Derive(canonical)
	}

	target := filepath.Join(d.logRoot, logdir.DirName(st.Name, st.SessionID, d.user))

	// stale LogDir means the derivation changed while the session was
	// idle; move before creating the target so Move does not see a
	// pre-existing destination
	if st.LogDir != "" && st.LogDir != target {
		if _, err := os.Stat(st.LogDir); err == nil {
			_ = os.MkdirAll(d.logRoot, 0o755)
			if err := logdir.Move(st.LogDir, target); err != nil {
				d.log.Warn("log directory move failed, keeping old path",
					zap.String("from", st.LogDir), zap.String("to", target), zap.Error(err))
				target = st.LogDir
			}
		}
	}

	if err := os.MkdirAll(target, 0o755); err != nil {
		d.log.Warn("cannot create log directory", zap.String("dir", target), zap.Error(err))
		return
	}
	st.LogDir = target
}

// refreshTranscript records the latest transcript path the host reported
// and keeps the discovery link inside the log directory pointing at it.
func (d *Dispatcher) refreshTranscript(st *state.SessionState, ev *hostevent.Event) {
	if ev.TranscriptPath == "" {
		return
	}
	st.TranscriptPath = ev.TranscriptPath
	if st.LogDir == "" {
		return
	}
	mech, err := translink.Ensure(st.LogDir, ev.TranscriptPath)
	if err != nil {
		d.log.Warn("transcript link not created", zap.Error(err))
	} else {
		d.log.Debug("transcript link ensured", zap.String("mechanism", mech))
	}
}

// onToolUse formats and appends the record(s) for one completed tool call.
func (d *Dispatcher) onToolUse(st *state.SessionState, ev *hostevent.Event, now time.Time, newRun bool) {
	if st.LogDir == "" {
		d.log.Warn("no log directory, dropping record", zap.String("session_id", st.SessionID))
		return
	}

	// the run boundary belongs in the logs even when the record that
	// triggered it is filtered out below
	if newRun {
		d.writeRunMarker(st, now)
	}

	category := hostevent.Categorize(ev.ToolName)
	if !d.cfg.ShouldLog(string(category)) {
		d.log.Debug("category filtered", zap.String("tool", ev.ToolName))
		return
	}

	w := channel.NewWriter(st.LogDir, d.cfg.Rotation.ThresholdBytes)

	switch category {
	case hostevent.CategoryTask:
		d.append(w, channel.Task, channel.FormatTaskRecord(ev, d.cfg, now), now)
	case hostevent.CategoryBash:
		if reason, failed := d.detectFailure(ev); failed {
			rec := channel.FormatFailureRecord(ev, d.cfg, now, reason, ev.ResponseString("stderr"))
			d.append(w, channel.ToolCall, rec, now)
		} else {
			d.append(w, channel.ToolCall, channel.FormatToolRecord(ev, d.cfg, now), now)
		}
		d.append(w, channel.Shell, channel.FormatShellRecord(ev, d.cfg, now), now)
	default:
		d.append(w, channel.ToolCall, channel.FormatToolRecord(ev, d.cfg, now), now)
	}
}

func (d *Dispatcher) append(w *channel.Writer, c channel.Channel, record string, now time.Time) {
	if err := w.Append(c, record, now); err != nil {
		d.log.Warn("append failed", zap.String("channel", string(c)), zap.Error(err))
	}
}

func (d *Dispatcher) writeRunMarker(st *state.SessionState, now time.Time) {
	w := channel.NewWriter(st.LogDir, d.cfg.Rotation.ThresholdBytes)
	marker := channel.RunMarker(st.RunNumber, now, st.Name)
	d.append(w, channel.ToolCall, marker, now)
	d.append(w, channel.Shell, marker, now)
}

func currentUser() string {
	for _, key := range []string{"USER", "USERNAME", "LOGNAME"} {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return "user"
}
