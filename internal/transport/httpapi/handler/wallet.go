package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kislikjeka/piclaim/internal/platform/wallet"
)

// WalletServiceInterface defines the interface for wallet operations
type WalletServiceInterface interface {
	Enroll(ctx context.Context, address, secret, destination string) (*wallet.Wallet, error)
	List(ctx context.Context) ([]*wallet.Wallet, error)
	Remove(ctx context.Context, id uuid.UUID) error
}

// MonitorInterface starts and stops the per-wallet monitoring loops
type MonitorInterface interface {
	WatchWallet(w *wallet.Wallet)
	UnwatchWallet(walletID uuid.UUID)
}

// WalletHandler handles wallet enrollment HTTP requests
type WalletHandler struct {
	walletService WalletServiceInterface
	monitor       MonitorInterface
}

// NewWalletHandler creates a new wallet handler
func NewWalletHandler(walletService WalletServiceInterface, monitor MonitorInterface) *WalletHandler {
	return &WalletHandler{
		walletService: walletService,
		monitor:       monitor,
	}
}

// MonitorWalletRequest represents the wallet enrollment request.
// The secret is consumed for signing and never echoed back.
type MonitorWalletRequest struct {
	Address     string `json:"address"`
	Secret      string `json:"secret"`
	Destination string `json:"destination"`
}

// WalletResponse represents a wallet response
type WalletResponse struct {
	ID          string `json:"id"`
	Address     string `json:"address"`
	Destination string `json:"destination"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
}

// MonitorWalletResponse wraps the enrolled wallet
type MonitorWalletResponse struct {
	Wallet WalletResponse `json:"wallet"`
}

// WalletsListResponse represents the response for listing wallets
type WalletsListResponse struct {
	Wallets []WalletResponse `json:"wallets"`
}

// MonitorWallet handles POST /monitor-wallet
func (h *WalletHandler) MonitorWallet(w http.ResponseWriter, r *http.Request) {
	var req MonitorWalletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	enrolled, err := h.walletService.Enroll(r.Context(), req.Address, req.Secret, req.Destination)
	if err != nil {
		switch {
		case errors.Is(err, wallet.ErrInvalidAddress):
			respondWithError(w, http.StatusBadRequest, "invalid wallet address")
		case errors.Is(err, wallet.ErrInvalidSecret):
			respondWithError(w, http.StatusBadRequest, "invalid secret key")
		case errors.Is(err, wallet.ErrInvalidDestination):
			respondWithError(w, http.StatusBadRequest, "invalid destination address")
		case errors.Is(err, wallet.ErrAuthMismatch):
			respondWithError(w, http.StatusBadRequest, "secret key does not sign for this address")
		case errors.Is(err, wallet.ErrDuplicateAddress):
			respondWithError(w, http.StatusConflict, "wallet is already monitored")
		default:
			respondWithError(w, http.StatusInternalServerError, "failed to enroll wallet")
		}
		return
	}

	h.monitor.WatchWallet(enrolled)

	respondWithJSON(w, http.StatusCreated, MonitorWalletResponse{Wallet: toWalletResponse(enrolled)})
}

// GetWallets handles GET /wallets
func (h *WalletHandler) GetWallets(w http.ResponseWriter, r *http.Request) {
	wallets, err := h.walletService.List(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to fetch wallets")
		return
	}

	responses := make([]WalletResponse, 0, len(wallets))
	for _, wlt := range wallets {
		responses = append(responses, toWalletResponse(wlt))
	}

	respondWithJSON(w, http.StatusOK, WalletsListResponse{Wallets: responses})
}

// StopMonitoring handles DELETE /stop-monitoring/{walletId}
func (h *WalletHandler) StopMonitoring(w http.ResponseWriter, r *http.Request) {
	walletID, err := uuid.Parse(chi.URLParam(r, "walletId"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid wallet ID")
		return
	}

	if err := h.walletService.Remove(r.Context(), walletID); err != nil {
		if errors.Is(err, wallet.ErrWalletNotFound) {
			respondWithError(w, http.StatusNotFound, "wallet not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "failed to remove wallet")
		return
	}

	h.monitor.UnwatchWallet(walletID)

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
}

func toWalletResponse(wlt *wallet.Wallet) WalletResponse {
	return WalletResponse{
		ID:          wlt.ID.String(),
		Address:     wlt.Address,
		Destination: wlt.Destination,
		Status:      string(wlt.Status),
		CreatedAt:   wlt.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
