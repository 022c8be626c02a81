package balance

import (
	"time"

	"github.com/google/uuid"
)

// State is the scheduling state of a tracked claimable balance.
// Transitions follow the listed order; Failed may re-enter PreFetching
// on retry. Succeeded is terminal and triggers removal.
type State string

const (
	StatePending     State = "pending"
	StatePreFetching State = "prefetching"
	StateReady       State = "ready"
	StateSubmitting  State = "submitting"
	StateSucceeded   State = "succeeded"
	StateFailed      State = "failed"
)

// allowedTransitions encodes the state machine
var allowedTransitions = map[State][]State{
	StatePending:     {StatePreFetching, StateReady},
	StatePreFetching: {StateReady},
	StateReady:       {StateSubmitting},
	StateSubmitting:  {StateSucceeded, StateFailed},
	StateFailed:      {StatePreFetching},
}

// CanTransition reports whether from → to is a legal state change
func CanTransition(from, to State) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a state admits no further transitions
func (s State) IsTerminal() bool {
	return s == StateSucceeded
}

// TaskKind identifies the scheduler task types armed per balance
type TaskKind string

const (
	TaskPreFetch TaskKind = "prefetch"
	TaskSubmit   TaskKind = "submit"
	TaskRetry    TaskKind = "retry"
)

// Balance is a tracked claimable balance
type Balance struct {
	ID           string    `json:"id"`
	WalletID     uuid.UUID `json:"wallet_id"`
	Amount       string    `json:"amount"`
	UnlockAt     time.Time `json:"unlock_at"`
	State        State     `json:"state"`
	Attempts     int       `json:"attempts"`
	LastError    string    `json:"last_error,omitempty"`
	DiscoveredAt time.Time `json:"discovered_at"`
}
