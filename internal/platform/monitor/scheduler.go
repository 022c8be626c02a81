package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kislikjeka/piclaim/internal/ledger"
	"github.com/kislikjeka/piclaim/internal/platform/balance"
	"github.com/kislikjeka/piclaim/internal/platform/wallet"
)

type pairKey struct {
	walletID  uuid.UUID
	balanceID string
}

// pairLock returns the mutex serialising all task bodies for one
// tracked balance, so pre-fetch, submit and retry never overlap
func (s *Service) pairLock(k pairKey) *sync.Mutex {
	v, _ := s.runLocks.LoadOrStore(k, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// scheduleBalance arms the pre-fetch and submit tasks for a newly
// tracked balance. The sequence number is pre-fetched shortly before
// the unlock instant; the submission fires just after it. When the
// unlock is imminent or past the pre-fetch is skipped and the balance
// goes straight to Ready.
func (s *Service) scheduleBalance(ctx context.Context, walletID uuid.UUID, balanceID string, unlockAt time.Time) {
	now := s.clock.Now()

	prepAt := unlockAt.Add(-s.cfg.PrepLead)
	if prepAt.After(now) {
		timer := s.clock.AfterFunc(prepAt.Sub(now), func() {
			s.runPreFetch(ctx, walletID, balanceID)
		})
		if !s.balances.Arm(walletID, balanceID, balance.TaskPreFetch, timer) {
			timer.Stop()
			return
		}
	} else {
		s.balances.Transition(walletID, balanceID, balance.StatePending, balance.StateReady)
	}

	delay := unlockAt.Add(s.cfg.PostDelay).Sub(now)
	if delay < 0 {
		delay = 0
	}
	timer := s.clock.AfterFunc(delay, func() {
		s.runSubmit(ctx, walletID, balanceID)
	})
	if !s.balances.Arm(walletID, balanceID, balance.TaskSubmit, timer) {
		timer.Stop()
	}
}

// runPreFetch warms the sequence cache for the wallet just before the
// unlock instant. A failed pre-fetch is not fatal, the submission
// fetches on its own.
func (s *Service) runPreFetch(ctx context.Context, walletID uuid.UUID, balanceID string) {
	k := pairKey{walletID: walletID, balanceID: balanceID}
	mu := s.pairLock(k)
	mu.Lock()
	defer mu.Unlock()

	if ctx.Err() != nil {
		return
	}
	if _, ok := s.balances.Get(walletID, balanceID); !ok {
		return
	}
	w, err := s.wallets.GetByID(ctx, walletID)
	if err != nil || w.Status != wallet.StatusActive {
		return
	}
	if !s.balances.Transition(walletID, balanceID, balance.StatePending, balance.StatePreFetching) {
		return
	}

	if _, err := s.seqs.Prime(ctx, w.Address); err != nil {
		s.logger.Warn("sequence pre-fetch failed",
			"wallet", wallet.MaskAddress(w.Address), "error", err)
	}
	s.balances.Transition(walletID, balanceID, balance.StatePreFetching, balance.StateReady)
}

// runSubmit signs and submits the claim transaction. It is the body of
// both the scheduled submission and every retry.
func (s *Service) runSubmit(ctx context.Context, walletID uuid.UUID, balanceID string) {
	k := pairKey{walletID: walletID, balanceID: balanceID}
	mu := s.pairLock(k)
	mu.Lock()
	defer mu.Unlock()

	if ctx.Err() != nil {
		return
	}
	b, ok := s.balances.Get(walletID, balanceID)
	if !ok || b.State.IsTerminal() {
		return
	}
	w, err := s.wallets.GetByID(ctx, walletID)
	if err != nil || w.Status != wallet.StatusActive {
		return
	}

	switch b.State {
	case balance.StatePending:
		s.balances.Transition(walletID, balanceID, balance.StatePending, balance.StateReady)
	case balance.StatePreFetching:
		s.balances.Transition(walletID, balanceID, balance.StatePreFetching, balance.StateReady)
	case balance.StateFailed:
		s.balances.Transition(walletID, balanceID, balance.StateFailed, balance.StatePreFetching)
		s.balances.Transition(walletID, balanceID, balance.StatePreFetching, balance.StateReady)
	}
	if !s.balances.Transition(walletID, balanceID, balance.StateReady, balance.StateSubmitting) {
		return
	}

	seq, err := s.seqs.Get(ctx, w.Address)
	if err != nil {
		s.handleSubmitFailure(ctx, w, balanceID,
			ledger.NewError(ledger.KindTransient, "sequence fetch failed", err))
		return
	}

	signed, err := s.builder.Build(w, balanceID, b.Amount, seq)
	if err != nil {
		s.handleBuildFailure(ctx, w, balanceID, err)
		return
	}

	result, err := s.gateway.SubmitTransaction(ctx, signed.Blob)
	if err != nil {
		s.handleSubmitFailure(ctx, w, balanceID, err)
		return
	}

	s.balances.Transition(walletID, balanceID, balance.StateSubmitting, balance.StateSucceeded)
	s.balances.Remove(walletID, balanceID)
	s.runLocks.Delete(k)

	masked := wallet.MaskAddress(w.Address)
	s.ring.Success(fmt.Sprintf("claimed %s for %s (tx %s)",
		b.Amount, masked, shortID(result.Hash)), &walletID)
	s.logger.Info("balance claimed",
		"wallet", masked,
		"balance_id", shortID(balanceID),
		"tx_hash", result.Hash,
		"ledger", result.Ledger)
}

// handleSubmitFailure applies the retry policy for a failed submission
func (s *Service) handleSubmitFailure(ctx context.Context, w *wallet.Wallet, balanceID string, err error) {
	walletID := w.ID
	s.balances.MarkFailed(walletID, balanceID, err.Error())
	masked := wallet.MaskAddress(w.Address)

	switch ledger.KindOf(err) {
	case ledger.KindBadSequence:
		// another submission consumed the number, refetch and go again
		s.seqs.Invalidate(w.Address)
		s.ring.Warning(fmt.Sprintf("sequence collision for %s, retrying balance %s",
			masked, shortID(balanceID)), &walletID)
		s.logger.Warn("bad sequence on submit", "wallet", masked, "balance_id", shortID(balanceID))
		s.armRetry(ctx, walletID, balanceID, s.cfg.FastRetry)

	case ledger.KindBadAuth:
		s.ring.Error(fmt.Sprintf("signature rejected for %s, wallet quarantined", masked), &walletID)
		s.logger.Error("bad auth on submit",
			"wallet", masked, "balance_id", shortID(balanceID), "error", err)
		s.quarantine(ctx, walletID, masked)

	case ledger.KindLogic:
		s.ring.Error(fmt.Sprintf("balance %s is not claimable: %v", shortID(balanceID), err), &walletID)
		s.logger.Warn("unclaimable balance evicted",
			"wallet", masked, "balance_id", shortID(balanceID), "error", err)
		s.balances.Remove(walletID, balanceID)
		s.runLocks.Delete(pairKey{walletID: walletID, balanceID: balanceID})

	default:
		attempt := s.balances.NextAttempt(walletID, balanceID)
		delay := s.cfg.backoffDelay(attempt)
		s.ring.Warning(fmt.Sprintf("submit failed for balance %s (attempt %d), retrying in %s",
			shortID(balanceID), attempt, delay), &walletID)
		s.logger.Warn("transient submit failure",
			"wallet", masked, "balance_id", shortID(balanceID),
			"attempt", attempt, "retry_in", delay, "error", err)
		s.armRetry(ctx, walletID, balanceID, delay)
	}
}

// handleBuildFailure deals with local signing problems. A key that no
// longer signs for the account quarantines the wallet, anything else
// evicts the balance.
func (s *Service) handleBuildFailure(ctx context.Context, w *wallet.Wallet, balanceID string, err error) {
	walletID := w.ID
	s.balances.MarkFailed(walletID, balanceID, err.Error())
	masked := wallet.MaskAddress(w.Address)

	if errors.Is(err, wallet.ErrAuthMismatch) {
		s.ring.Error(fmt.Sprintf("signing key mismatch for %s, wallet quarantined", masked), &walletID)
		s.logger.Error("signing key mismatch", "wallet", masked, "balance_id", shortID(balanceID))
		s.quarantine(ctx, walletID, masked)
		return
	}

	s.ring.Error(fmt.Sprintf("cannot build claim for balance %s: %v", shortID(balanceID), err), &walletID)
	s.logger.Error("claim build failed",
		"wallet", masked, "balance_id", shortID(balanceID), "error", err)
	s.balances.Remove(walletID, balanceID)
	s.runLocks.Delete(pairKey{walletID: walletID, balanceID: balanceID})
}

func (s *Service) armRetry(ctx context.Context, walletID uuid.UUID, balanceID string, delay time.Duration) {
	timer := s.clock.AfterFunc(delay, func() {
		s.runSubmit(ctx, walletID, balanceID)
	})
	if !s.balances.Arm(walletID, balanceID, balance.TaskRetry, timer) {
		timer.Stop()
	}
}

func (s *Service) quarantine(ctx context.Context, walletID uuid.UUID, masked string) {
	if err := s.wallets.UpdateStatus(ctx, walletID, wallet.StatusQuarantined); err != nil {
		s.logger.Error("quarantine failed", "wallet", masked, "error", err)
	}
}
