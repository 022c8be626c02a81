package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/kislikjeka/piclaim/internal/platform/balance"
	"github.com/kislikjeka/piclaim/internal/platform/logring"
	"github.com/kislikjeka/piclaim/internal/platform/wallet"
	"github.com/kislikjeka/piclaim/pkg/logger"
)

// Service supervises the per-wallet poll loops and the claim scheduler.
// Each watched wallet gets its own polling goroutine; discovered
// balances are tracked in the registry and driven through the claim
// state machine by clock tasks.
type Service struct {
	cfg      Config
	clock    clock.Clock
	gateway  LedgerClient
	seqs     SequenceCache
	builder  TransactionBuilder
	resolver UnlockResolver
	wallets  WalletStore
	balances *balance.Registry
	ring     *logring.Ring
	logger   *logger.Logger

	mu      sync.Mutex
	pollers map[uuid.UUID]context.CancelFunc
	ctx     context.Context
	cancel  context.CancelFunc
	running bool

	wg       sync.WaitGroup
	runLocks sync.Map // pairKey -> *sync.Mutex
}

// Dependencies bundles the collaborators of the monitor service
type Dependencies struct {
	Gateway   LedgerClient
	Sequences SequenceCache
	Builder   TransactionBuilder
	Resolver  UnlockResolver
	Wallets   WalletStore
	Balances  *balance.Registry
	Ring      *logring.Ring
	Clock     clock.Clock
	Logger    *logger.Logger
}

// NewService creates the monitor service
func NewService(cfg Config, deps Dependencies) *Service {
	return &Service{
		cfg:      cfg.normalized(),
		clock:    deps.Clock,
		gateway:  deps.Gateway,
		seqs:     deps.Sequences,
		builder:  deps.Builder,
		resolver: deps.Resolver,
		wallets:  deps.Wallets,
		balances: deps.Balances,
		ring:     deps.Ring,
		logger:   deps.Logger.WithField("component", "monitor"),
		pollers:  make(map[uuid.UUID]context.CancelFunc),
	}
}

// Run starts polling for every active wallet already in the store and
// blocks, sweeping all wallets on a fixed interval until the context is
// cancelled or Stop is called.
func (s *Service) Run(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.ctx, s.cancel = context.WithCancel(ctx)
	runCtx := s.ctx
	s.mu.Unlock()

	s.logger.Info("monitor started",
		"poll_interval", s.cfg.PollInterval,
		"sweep_interval", s.cfg.SweepInterval)

	s.resumeWallets(runCtx)

	ticker := s.clock.Ticker(s.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-runCtx.Done():
			s.logger.Info("monitor stopping")
			return
		case <-ticker.C:
			s.sweep(runCtx)
		}
	}
}

// Stop cancels all polling and waits for the poll goroutines to drain
func (s *Service) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
}

// WatchWallet starts the poll loop for a wallet. The first poll runs
// immediately. Watching an already-watched wallet is a no-op.
func (s *Service) WatchWallet(w *wallet.Wallet) {
	parent := s.taskCtx()

	s.mu.Lock()
	if _, exists := s.pollers[w.ID]; exists {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(parent)
	s.pollers[w.ID] = cancel
	s.mu.Unlock()

	s.logger.Info("watching wallet", "wallet", wallet.MaskAddress(w.Address))
	s.ring.Info(fmt.Sprintf("monitoring %s", wallet.MaskAddress(w.Address)), &w.ID)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.pollLoop(ctx, w.ID)
	}()
}

// UnwatchWallet stops the wallet's poll loop, evicts its tracked
// balances and cancels every task armed for them. Once it returns no
// scheduled work for the wallet will run.
func (s *Service) UnwatchWallet(walletID uuid.UUID) {
	s.mu.Lock()
	cancel, ok := s.pollers[walletID]
	delete(s.pollers, walletID)
	s.mu.Unlock()
	if ok {
		cancel()
	}

	removed := s.balances.RemoveWallet(walletID)
	for _, id := range removed {
		s.runLocks.Delete(pairKey{walletID: walletID, balanceID: id})
	}
	s.logger.Info("unwatched wallet", "wallet_id", walletID, "balances_dropped", len(removed))
}

// resumeWallets re-arms polling for wallets persisted across restarts
func (s *Service) resumeWallets(ctx context.Context) {
	ws, err := s.wallets.List(ctx)
	if err != nil {
		s.logger.Error("wallet resume failed", "error", err)
		return
	}
	for _, w := range ws {
		if w.Status != wallet.StatusActive {
			continue
		}
		s.WatchWallet(w)
	}
}

// sweep re-polls every active wallet as a safety net for drifted or
// missed schedules
func (s *Service) sweep(ctx context.Context) {
	ws, err := s.wallets.List(ctx)
	if err != nil {
		s.logger.Warn("sweep wallet list failed", "error", err)
		return
	}
	for _, w := range ws {
		if ctx.Err() != nil {
			return
		}
		if w.Status != wallet.StatusActive {
			continue
		}
		s.pollWallet(ctx, w.ID)
	}
}

func (s *Service) pollLoop(ctx context.Context, walletID uuid.UUID) {
	s.pollWallet(ctx, walletID)

	ticker := s.clock.Ticker(s.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.pollWallet(ctx, walletID)
		}
	}
}

// pollWallet fetches the wallet's claimable balances and schedules any
// newly observed ones. Repeats across polls de-duplicate on the
// (wallet, balance) pair.
func (s *Service) pollWallet(ctx context.Context, walletID uuid.UUID) {
	w, err := s.wallets.GetByID(ctx, walletID)
	if err != nil || w.Status != wallet.StatusActive {
		return
	}
	masked := wallet.MaskAddress(w.Address)

	records, err := s.gateway.ClaimableBalances(ctx, w.Address)
	if err != nil {
		s.logger.Warn("claimable balance poll failed", "wallet", masked, "error", err)
		return
	}

	for _, rec := range records {
		unlockAt, exact := s.resolver.Resolve(rec)
		inserted := s.balances.Insert(balance.Balance{
			ID:           rec.ID,
			WalletID:     w.ID,
			Amount:       rec.Amount,
			UnlockAt:     unlockAt,
			DiscoveredAt: s.clock.Now(),
		})
		if !inserted {
			continue
		}
		if !exact {
			s.ring.Warning(fmt.Sprintf("no interpretable unlock for balance %s, rechecking at %s",
				shortID(rec.ID), unlockAt.UTC().Format(time.RFC3339)), &w.ID)
		}
		s.ring.Info(fmt.Sprintf("tracking balance %s (%s) unlocking at %s",
			shortID(rec.ID), rec.Amount, unlockAt.UTC().Format(time.RFC3339)), &w.ID)
		s.logger.Info("balance tracked",
			"wallet", masked,
			"balance_id", shortID(rec.ID),
			"amount", rec.Amount,
			"unlock_at", unlockAt.UTC())
		s.scheduleBalance(ctx, w.ID, rec.ID, unlockAt)
	}
}

func (s *Service) taskCtx() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx != nil {
		return s.ctx
	}
	return context.Background()
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
