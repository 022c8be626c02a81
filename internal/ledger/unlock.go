package ledger

import (
	"time"

	"github.com/benbjohnson/clock"

	"github.com/kislikjeka/piclaim/pkg/logger"
)

// FallbackUnlockDelay is the conservative sentinel applied to records
// whose predicate tree carries no interpretable time lock. Such balances
// stay scheduled rather than being dropped.
const FallbackUnlockDelay = 24 * time.Hour

// Resolver computes the unlock instant of a claimable balance from its
// claimant predicate trees. Resolution is deterministic for a fixed clock
// and never fails: malformed or non-interpretable records map to a
// sentinel 24 hours out.
type Resolver struct {
	clock  clock.Clock
	logger *logger.Logger
}

// NewResolver creates a new unlock resolver
func NewResolver(clk clock.Clock, log *logger.Logger) *Resolver {
	return &Resolver{
		clock:  clk,
		logger: log.WithField("component", "unlock"),
	}
}

// Resolve returns the unlock instant for a claimable balance record.
// The second return value reports whether the predicate tree was
// interpretable; when false the instant is the 24-hour sentinel.
func (r *Resolver) Resolve(record ClaimableBalance) (time.Time, bool) {
	now := r.clock.Now().UTC()

	earliest := time.Time{}
	for _, claimant := range record.Claimants {
		t, ok := unlockBound(claimant.Predicate, now)
		if !ok {
			continue
		}
		if earliest.IsZero() || t.Before(earliest) {
			earliest = t
		}
	}

	if earliest.IsZero() {
		r.logger.Warn("claimable balance has no interpretable time lock, applying 24h fallback",
			"balance_id", record.ID,
			"claimants", len(record.Claimants))
		return now.Add(FallbackUnlockDelay), false
	}

	return earliest, true
}

// unlockBound walks a predicate tree and returns the lower time bound it
// imposes on claiming, if any. A `not` wrapping a before-clause is the
// canonical time lock: not(abs_before T) admits claims at or after T.
func unlockBound(p Predicate, now time.Time) (time.Time, bool) {
	switch p.Kind() {
	case PredicateNot:
		return lockedUntil(*p.Not, now)
	case PredicateAnd:
		// Every branch must be satisfied: the most restrictive bound wins.
		latest := time.Time{}
		for _, branch := range p.And {
			if t, ok := unlockBound(branch, now); ok && t.After(latest) {
				latest = t
			}
		}
		if latest.IsZero() {
			return time.Time{}, false
		}
		return latest, true
	case PredicateOr:
		// Any branch admits the claim: a branch without a bound means the
		// balance is claimable immediately, so no lower bound applies.
		earliest := time.Time{}
		for _, branch := range p.Or {
			t, ok := unlockBound(branch, now)
			if !ok {
				return time.Time{}, false
			}
			if earliest.IsZero() || t.Before(earliest) {
				earliest = t
			}
		}
		if earliest.IsZero() {
			return time.Time{}, false
		}
		return earliest, true
	}
	// Unconditional, bare before-clauses (expiry windows) and unknown
	// shapes impose no lower bound.
	return time.Time{}, false
}

// lockedUntil interprets the inner predicate of a `not` clause
func lockedUntil(inner Predicate, now time.Time) (time.Time, bool) {
	switch inner.Kind() {
	case PredicateAbsBefore:
		return inner.AbsBefore.UTC(), true
	case PredicateRelBefore:
		// Relative bounds are normalized to absolute time at resolution.
		return now.Add(*inner.RelBefore), true
	case PredicateOr:
		// not(or(a, b)) locks until both branches are past: latest wins.
		latest := time.Time{}
		for _, branch := range inner.Or {
			if t, ok := lockedUntil(branch, now); ok && t.After(latest) {
				latest = t
			}
		}
		if latest.IsZero() {
			return time.Time{}, false
		}
		return latest, true
	case PredicateAnd:
		// not(and(a, b)) unlocks when either branch lapses: earliest wins.
		earliest := time.Time{}
		for _, branch := range inner.And {
			if t, ok := lockedUntil(branch, now); ok && (earliest.IsZero() || t.Before(earliest)) {
				earliest = t
			}
		}
		if earliest.IsZero() {
			return time.Time{}, false
		}
		return earliest, true
	}
	return time.Time{}, false
}
