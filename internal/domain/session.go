package domain

import "time"

// Phase is the authoritative operating phase of one instrument session.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseConfiguring
	PhaseValidating
	PhaseLoaded
	PhaseRunning
	PhasePaused
	PhaseCleaning
	PhaseCompleted
	PhaseFaulted
	PhaseAborted
)

// String returns a human-readable representation of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "Idle"
	case PhaseConfiguring:
		return "Configuring"
	case PhaseValidating:
		return "Validating"
	case PhaseLoaded:
		return "Loaded"
	case PhaseRunning:
		return "Running"
	case PhasePaused:
		return "Paused"
	case PhaseCleaning:
		return "Cleaning"
	case PhaseCompleted:
		return "Completed"
	case PhaseFaulted:
		return "Faulted"
	case PhaseAborted:
		return "Aborted"
	default:
		return "Unknown"
	}
}

// Terminal reports whether the phase ends the session. A terminal session
// requires a fresh session (new transport handle) to proceed.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseFaulted || p == PhaseAborted
}

// SessionSnapshot is an immutable view of a session handed to callers and
// notifiers. Pointers reference copies owned by the snapshot.
type SessionSnapshot struct {
	Mode        Mode               `json:"mode"`
	Phase       Phase              `json:"phase"`
	LastConfig  *RunConfiguration  `json:"last_config,omitempty"`
	LastResult  *TransactionResult `json:"last_result,omitempty"`
	FaultReason string             `json:"fault_reason,omitempty"`
}

// SessionRecord is the journaled outcome of one finished session.
type SessionRecord struct {
	Mode        string    `json:"mode"`
	Phase       string    `json:"phase"`
	FaultReason string    `json:"fault_reason,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	EndedAt     time.Time `json:"ended_at"`
}
