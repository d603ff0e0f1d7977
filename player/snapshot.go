package player

import (
	"github.com/xeptore/reactordj/catalog"
	"github.com/xeptore/reactordj/ptr"
)

// Snapshot is a read-only copy of the session state for UI collaborators.
// Version grows with every change, so consumers can drop stale snapshots.
type Snapshot struct {
	SessionID    string          `json:"session_id"`
	Version      uint64          `json:"version"`
	Tracks       []catalog.Track `json:"tracks"`
	FilteredView []catalog.Entry `json:"filtered_view"`
	ActiveIndex  int             `json:"active_index"`
	Active       *catalog.Track  `json:"active"`
	PlayState    PlayState       `json:"play_state"`
	Pending      bool            `json:"pending"`
	Volume       float64         `json:"volume"`
	FilterText   string          `json:"filter_text"`
	LastError    error           `json:"-"`
	ErrorMessage string          `json:"error,omitempty"`
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		SessionID:    s.id,
		Version:      s.version,
		Tracks:       s.catalog.Tracks(),
		FilteredView: s.catalog.Filter(s.filter),
		ActiveIndex:  s.activeIndexLocked(),
		Active:       nil,
		PlayState:    s.state,
		Pending:      s.pending,
		Volume:       s.volume,
		FilterText:   s.filter,
		LastError:    s.lastErr,
		ErrorMessage: "",
	}
	if snap.ActiveIndex >= 0 {
		snap.Active = ptr.Of(s.catalog.At(snap.ActiveIndex))
	}
	if nil != s.lastErr {
		snap.ErrorMessage = s.lastErr.Error()
	}
	return snap
}
