package models

import "time"

// Phase is the discovery state machine position.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseReady   Phase = "ready"
	PhaseFailed  Phase = "failed"
)

// UIState is everything the page needs to render the discovery panel.
//
//	idle    -> Current == nil, ErrorMessage == ""
//	loading -> a discovery is in flight
//	ready   -> Current != nil, ErrorMessage == ""
//	failed  -> Current == nil, ErrorMessage != ""
type UIState struct {
	Phase        Phase      `json:"phase"`
	Current      *Candidate `json:"current,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	Attempts     int        `json:"attempts"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Loading reports whether a discovery is in flight.
func (s UIState) Loading() bool {
	return s.Phase == PhaseLoading
}

// Snapshot is a consistent copy of the UI state and the ban list.
// Version grows with every change so clients can drop stale updates.
type Snapshot struct {
	State   UIState   `json:"state"`
	Bans    []BanRule `json:"bans"`
	Version uint64    `json:"version"`
}

// IsBanned reports whether the (t, value) pair is in the snapshot's ban list.
func (s Snapshot) IsBanned(t AttributeType, value string) bool {
	for _, r := range s.Bans {
		if r.Type == t && r.Value == value {
			return true
		}
	}
	return false
}
