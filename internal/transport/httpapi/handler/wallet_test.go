package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stellar/go/keypair"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kislikjeka/piclaim/internal/platform/wallet"
	"github.com/kislikjeka/piclaim/pkg/logger"
)

type stubMonitor struct {
	watched   []uuid.UUID
	unwatched []uuid.UUID
}

func (m *stubMonitor) WatchWallet(w *wallet.Wallet) {
	m.watched = append(m.watched, w.ID)
}

func (m *stubMonitor) UnwatchWallet(id uuid.UUID) {
	m.unwatched = append(m.unwatched, id)
}

func newWalletHandler() (*WalletHandler, *wallet.Service, *stubMonitor) {
	log := logger.New("test", io.Discard)
	svc := wallet.NewService(wallet.NewMemoryRepository(), log)
	mon := &stubMonitor{}
	return NewWalletHandler(svc, mon), svc, mon
}

func enrollBody(t *testing.T) (MonitorWalletRequest, string) {
	t.Helper()
	kp := keypair.MustRandom()
	req := MonitorWalletRequest{
		Address:     kp.Address(),
		Secret:      kp.Seed(),
		Destination: keypair.MustRandom().Address(),
	}
	body, err := json.Marshal(req)
	require.NoError(t, err)
	return req, string(body)
}

func TestMonitorWallet(t *testing.T) {
	h, _, mon := newWalletHandler()
	req, body := enrollBody(t)

	r := httptest.NewRequest(http.MethodPost, "/monitor-wallet", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	h.MonitorWallet(w, r)

	require.Equal(t, http.StatusCreated, w.Code)

	var resp MonitorWalletResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, req.Address, resp.Wallet.Address)
	assert.Equal(t, req.Destination, resp.Wallet.Destination)
	assert.Equal(t, string(wallet.StatusActive), resp.Wallet.Status)
	assert.NotContains(t, w.Body.String(), req.Secret, "secret must never be echoed")

	require.Len(t, mon.watched, 1)
	assert.Equal(t, resp.Wallet.ID, mon.watched[0].String())
}

func TestMonitorWalletValidation(t *testing.T) {
	kp := keypair.MustRandom()
	dest := keypair.MustRandom().Address()

	tests := []struct {
		name string
		req  MonitorWalletRequest
		want int
	}{
		{
			name: "bad address",
			req:  MonitorWalletRequest{Address: "nope", Secret: kp.Seed(), Destination: dest},
			want: http.StatusBadRequest,
		},
		{
			name: "bad secret",
			req:  MonitorWalletRequest{Address: kp.Address(), Secret: "nope", Destination: dest},
			want: http.StatusBadRequest,
		},
		{
			name: "bad destination",
			req:  MonitorWalletRequest{Address: kp.Address(), Secret: kp.Seed(), Destination: "nope"},
			want: http.StatusBadRequest,
		},
		{
			name: "secret signs for a different account",
			req:  MonitorWalletRequest{Address: kp.Address(), Secret: keypair.MustRandom().Seed(), Destination: dest},
			want: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _, mon := newWalletHandler()
			body, _ := json.Marshal(tt.req)

			r := httptest.NewRequest(http.MethodPost, "/monitor-wallet", bytes.NewBuffer(body))
			w := httptest.NewRecorder()
			h.MonitorWallet(w, r)

			assert.Equal(t, tt.want, w.Code)
			assert.Empty(t, mon.watched, "rejected wallets are not watched")
		})
	}
}

func TestMonitorWalletDuplicate(t *testing.T) {
	h, _, _ := newWalletHandler()
	_, body := enrollBody(t)

	r := httptest.NewRequest(http.MethodPost, "/monitor-wallet", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	h.MonitorWallet(w, r)
	require.Equal(t, http.StatusCreated, w.Code)

	r = httptest.NewRequest(http.MethodPost, "/monitor-wallet", bytes.NewBufferString(body))
	w = httptest.NewRecorder()
	h.MonitorWallet(w, r)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestGetWallets(t *testing.T) {
	h, svc, _ := newWalletHandler()

	kp := keypair.MustRandom()
	_, err := svc.Enroll(context.Background(), kp.Address(), kp.Seed(), keypair.MustRandom().Address())
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/wallets", nil)
	w := httptest.NewRecorder()
	h.GetWallets(w, r)

	require.Equal(t, http.StatusOK, w.Code)

	var resp WalletsListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Wallets, 1)
	assert.Equal(t, kp.Address(), resp.Wallets[0].Address)
	assert.NotContains(t, w.Body.String(), kp.Seed())
}

func TestStopMonitoring(t *testing.T) {
	h, svc, mon := newWalletHandler()

	kp := keypair.MustRandom()
	enrolled, err := svc.Enroll(context.Background(), kp.Address(), kp.Seed(), keypair.MustRandom().Address())
	require.NoError(t, err)

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("walletId", enrolled.ID.String())
	r := httptest.NewRequest(http.MethodDelete, "/stop-monitoring/"+enrolled.ID.String(), nil)
	r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	w := httptest.NewRecorder()
	h.StopMonitoring(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, mon.unwatched, 1)
	assert.Equal(t, enrolled.ID, mon.unwatched[0])

	wallets, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, wallets)
}

func TestStopMonitoringUnknownWallet(t *testing.T) {
	h, _, mon := newWalletHandler()

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("walletId", uuid.NewString())
	r := httptest.NewRequest(http.MethodDelete, "/stop-monitoring/x", nil)
	r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	w := httptest.NewRecorder()
	h.StopMonitoring(w, r)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, mon.unwatched)
}
