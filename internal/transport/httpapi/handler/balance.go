package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stellar/go/keypair"

	"github.com/kislikjeka/piclaim/internal/ledger"
	"github.com/kislikjeka/piclaim/internal/platform/balance"
)

// LedgerGatewayInterface is the slice of the ledger gateway exposed for
// passthrough queries
type LedgerGatewayInterface interface {
	ClaimableBalances(ctx context.Context, claimant string) ([]ledger.ClaimableBalance, error)
	AccountSequence(ctx context.Context, address string) (int64, error)
}

// ResponseCache caches serialized passthrough responses. Optional.
type ResponseCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte)
}

// BalanceHandler serves the tracked balance snapshots and the ledger
// passthrough endpoints
type BalanceHandler struct {
	gateway  LedgerGatewayInterface
	registry *balance.Registry
	cache    ResponseCache
}

// NewBalanceHandler creates a new balance handler. cache may be nil.
func NewBalanceHandler(gateway LedgerGatewayInterface, registry *balance.Registry, cache ResponseCache) *BalanceHandler {
	return &BalanceHandler{
		gateway:  gateway,
		registry: registry,
		cache:    cache,
	}
}

// MonitoredBalancesResponse represents the tracked balance list
type MonitoredBalancesResponse struct {
	Balances []balance.Balance `json:"balances"`
}

// ClaimableBalancesResponse represents the passthrough balance list
type ClaimableBalancesResponse struct {
	Records []ledger.ClaimableBalance `json:"records"`
}

// SequenceResponse represents the passthrough sequence lookup
type SequenceResponse struct {
	Address  string `json:"address"`
	Sequence int64  `json:"sequence"`
}

// GetMonitoredBalances handles GET /monitored-balances
func (h *BalanceHandler) GetMonitoredBalances(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, MonitoredBalancesResponse{Balances: h.registry.List()})
}

// GetMonitoredBalancesByWallet handles GET /monitored-balances/{walletId}
func (h *BalanceHandler) GetMonitoredBalancesByWallet(w http.ResponseWriter, r *http.Request) {
	walletID, err := uuid.Parse(chi.URLParam(r, "walletId"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid wallet ID")
		return
	}

	balances := h.registry.ListByWallet(walletID)
	if balances == nil {
		balances = []balance.Balance{}
	}
	respondWithJSON(w, http.StatusOK, MonitoredBalancesResponse{Balances: balances})
}

// GetClaimableBalances handles GET /claimable-balances/{address}
func (h *BalanceHandler) GetClaimableBalances(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")
	if _, err := keypair.ParseAddress(address); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid ledger address")
		return
	}

	cacheKey := "claimable:" + address
	if h.cache != nil {
		if body, ok := h.cache.Get(r.Context(), cacheKey); ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write(body)
			return
		}
	}

	records, err := h.gateway.ClaimableBalances(r.Context(), address)
	if err != nil {
		respondWithError(w, http.StatusBadGateway, "ledger query failed")
		return
	}
	if records == nil {
		records = []ledger.ClaimableBalance{}
	}

	body, err := json.Marshal(ClaimableBalancesResponse{Records: records})
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to encode response")
		return
	}
	if h.cache != nil {
		h.cache.Set(r.Context(), cacheKey, body)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// GetSequence handles GET /sequence/{address}
func (h *BalanceHandler) GetSequence(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")
	if _, err := keypair.ParseAddress(address); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid ledger address")
		return
	}

	seq, err := h.gateway.AccountSequence(r.Context(), address)
	if err != nil {
		respondWithError(w, http.StatusBadGateway, "ledger query failed")
		return
	}

	respondWithJSON(w, http.StatusOK, SequenceResponse{Address: address, Sequence: seq})
}
