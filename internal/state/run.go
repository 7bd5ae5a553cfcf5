package state

import "github.com/dazzle-tools/sesslog/internal/hostevent"

// Advance applies run-numbering semantics for one event.
//
// A session-start on a never-started record is the first run; on an
// already-started record it is a resume, detected purely from the persisted
// flag; the host's own resume signaling is not trusted. A tool event on a
// never-started record is a dispatch ordering anomaly: a minimal run is
// synthesized so logging can proceed rather than dropping the event.
//
// newRun reports that a run boundary marker should be emitted; anomaly
// reports the ordering problem for the caller to log.
func Advance(st *SessionState, kind hostevent.Kind) (newRun, anomaly bool) {
	switch kind {
	case hostevent.KindSessionStart:
		if !st.Started {
			st.Started = true
			st.RunNumber = 1
		} else {
			st.RunNumber++
		}
		return true, false
	case hostevent.KindPostToolUse:
		if !st.Started {
			st.Started = true
			if st.RunNumber < 1 {
				st.RunNumber = 1
			}
			return true, true
		}
		return false, false
	default:
		return false, false
	}
}
