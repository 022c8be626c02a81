package balance

import (
	"sync"

	"github.com/google/uuid"

	"github.com/kislikjeka/piclaim/pkg/logger"
)

// TaskHandle is an armed scheduler task that can be cancelled.
// Cancellation is idempotent and never runs the task body.
type TaskHandle interface {
	Stop() bool
}

type key struct {
	walletID  uuid.UUID
	balanceID string
}

type tracked struct {
	balance Balance
	tasks   map[TaskKind]TaskHandle
}

// Registry is the set of currently-tracked claimable balances, keyed by
// (walletID, balanceID). It owns the scheduling state machine and the
// armed task handles; callers never see the underlying map.
type Registry struct {
	mu      sync.Mutex
	entries map[key]*tracked
	logger  *logger.Logger
}

// NewRegistry creates a new balance registry
func NewRegistry(log *logger.Logger) *Registry {
	return &Registry{
		entries: make(map[key]*tracked),
		logger:  log.WithField("component", "balances"),
	}
}

// Insert adds a newly-observed balance in state Pending. Returns false
// if the (walletID, balanceID) pair is already tracked, de-duplicating
// repeats across polls.
func (r *Registry) Insert(b Balance) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key{walletID: b.WalletID, balanceID: b.ID}
	if _, exists := r.entries[k]; exists {
		return false
	}

	b.State = StatePending
	r.entries[k] = &tracked{
		balance: b,
		tasks:   make(map[TaskKind]TaskHandle),
	}
	return true
}

// Get returns a copy of a tracked balance
func (r *Registry) Get(walletID uuid.UUID, balanceID string) (Balance, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.entries[key{walletID: walletID, balanceID: balanceID}]
	if !ok {
		return Balance{}, false
	}
	return t.balance, true
}

// List returns a snapshot of all tracked balances
func (r *Registry) List() []Balance {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Balance, 0, len(r.entries))
	for _, t := range r.entries {
		out = append(out, t.balance)
	}
	return out
}

// ListByWallet returns a snapshot of the balances tracked for one wallet
func (r *Registry) ListByWallet(walletID uuid.UUID) []Balance {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Balance
	for k, t := range r.entries {
		if k.walletID == walletID {
			out = append(out, t.balance)
		}
	}
	return out
}

// Transition performs a compare-and-swap state change under the lock.
// It fails when the balance is gone, the current state differs from
// `from`, or the transition is not legal.
func (r *Registry) Transition(walletID uuid.UUID, balanceID string, from, to State) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.entries[key{walletID: walletID, balanceID: balanceID}]
	if !ok || t.balance.State != from || !CanTransition(from, to) {
		return false
	}
	t.balance.State = to
	return true
}

// MarkFailed records a failure message alongside the Submitting → Failed
// transition
func (r *Registry) MarkFailed(walletID uuid.UUID, balanceID string, errMsg string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.entries[key{walletID: walletID, balanceID: balanceID}]
	if !ok || t.balance.State != StateSubmitting {
		return false
	}
	t.balance.State = StateFailed
	t.balance.LastError = errMsg
	return true
}

// NextAttempt advances the retry counter and returns the new attempt
// index (1 for the first retry)
func (r *Registry) NextAttempt(walletID uuid.UUID, balanceID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.entries[key{walletID: walletID, balanceID: balanceID}]
	if !ok {
		return 0
	}
	t.balance.Attempts++
	return t.balance.Attempts
}

// Arm stores the handle of a scheduled task, stopping any previously
// armed task of the same kind so at most one is armed at a time.
// Returns false (and leaves the handle unstored) if the balance is no
// longer tracked; the caller must then stop the handle itself.
func (r *Registry) Arm(walletID uuid.UUID, balanceID string, kind TaskKind, handle TaskHandle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.entries[key{walletID: walletID, balanceID: balanceID}]
	if !ok {
		return false
	}
	if prev, exists := t.tasks[kind]; exists {
		prev.Stop()
	}
	t.tasks[kind] = handle
	return true
}

// Remove evicts a balance and cancels every task armed for it
func (r *Registry) Remove(walletID uuid.UUID, balanceID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removeLocked(key{walletID: walletID, balanceID: balanceID})
}

// RemoveWallet evicts every balance tracked for a wallet, cancelling
// their tasks, and returns the ids of the evicted balances
func (r *Registry) RemoveWallet(walletID uuid.UUID) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed []string
	for k := range r.entries {
		if k.walletID == walletID {
			removed = append(removed, k.balanceID)
			r.removeLocked(k)
		}
	}
	return removed
}

// Size returns the number of tracked balances
func (r *Registry) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *Registry) removeLocked(k key) bool {
	t, ok := r.entries[k]
	if !ok {
		return false
	}
	for _, handle := range t.tasks {
		handle.Stop()
	}
	delete(r.entries, k)
	return true
}
