package pinet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kislikjeka/piclaim/internal/ledger"
	"github.com/kislikjeka/piclaim/pkg/logger"
)

const (
	defaultBaseURL = "https://api.mainnet.minepi.com"
	defaultTimeout = 15 * time.Second
)

// Client is an HTTP client for a Pi Network Horizon-compatible ledger API.
// It is a thin capability: one HTTP call per method, no retry policy.
// Failures come back classified as *ledger.Error so callers can drive
// their retry policy from the Kind alone.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *logger.Logger

	// Sequence fetches are serialized per address; submissions are not.
	seqMu    sync.Mutex
	seqLocks map[string]*sync.Mutex
}

// NewClient creates a new ledger API client
func NewClient(baseURL string, timeout time.Duration, log *logger.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:  strings.TrimRight(baseURL, "/"),
		logger:   log.WithField("component", "pinet"),
		seqLocks: make(map[string]*sync.Mutex),
	}
}

// ClaimableBalances fetches all claimable balances claimable by the given
// address, following pagination is not required: the endpoint returns the
// full record set for a single claimant.
func (c *Client) ClaimableBalances(ctx context.Context, claimant string) ([]ledger.ClaimableBalance, error) {
	reqURL := fmt.Sprintf("%s/claimable_balances/?claimant=%s", c.baseURL, url.QueryEscape(claimant))

	body, err := c.get(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	var resp claimableBalancesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, ledger.NewError(ledger.KindTransient, "failed to decode claimable balances response", err)
	}

	c.logger.Debug("fetched claimable balances", "claimant", claimant, "count", len(resp.Embedded.Records))
	return resp.Embedded.Records, nil
}

// AccountSequence fetches the current sequence number of an account.
// Concurrent fetches for the same address are serialized so at most one
// request per address is in flight.
func (c *Client) AccountSequence(ctx context.Context, address string) (int64, error) {
	c.lockAddress(address)
	defer c.unlockAddress(address)

	reqURL := fmt.Sprintf("%s/accounts/%s", c.baseURL, url.PathEscape(address))

	body, err := c.get(ctx, reqURL)
	if err != nil {
		return 0, err
	}

	var resp accountResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, ledger.NewError(ledger.KindTransient, "failed to decode account response", err)
	}

	seq, err := strconv.ParseInt(resp.Sequence, 10, 64)
	if err != nil {
		return 0, ledger.NewError(ledger.KindTransient, fmt.Sprintf("invalid sequence %q", resp.Sequence), err)
	}

	c.logger.Debug("fetched account sequence", "address", address, "sequence", seq)
	return seq, nil
}

// SubmitTransaction submits a signed base64 transaction envelope. A 2xx
// response with a truthy outcome flag is the only success; every rejection
// is mapped to a classified *ledger.Error.
func (c *Client) SubmitTransaction(ctx context.Context, blob string) (*ledger.SubmitResult, error) {
	reqURL := c.baseURL + "/transactions"

	payload, err := json.Marshal(submitRequest{Tx: blob})
	if err != nil {
		return nil, ledger.NewError(ledger.KindTransient, "failed to marshal submit request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(payload))
	if err != nil {
		return nil, ledger.NewError(ledger.KindTransient, "failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, ledger.NewError(ledger.KindTransient, "transaction submission failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, ledger.NewError(ledger.KindTransient, "failed to read submission response", err)
	}

	var sr submitResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, &ledger.Error{
			Kind:       ledger.KindTransient,
			StatusCode: resp.StatusCode,
			Message:    "unrecognized submission response shape",
			Err:        err,
		}
	}

	c.logger.Debug("transaction submitted",
		"status_code", resp.StatusCode,
		"hash", sr.Hash,
		"successful", sr.Successful,
		"duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if !sr.Successful {
			return nil, &ledger.Error{
				Kind:       ledger.KindTransient,
				StatusCode: resp.StatusCode,
				Message:    "ledger accepted the transaction but reported it unsuccessful",
			}
		}
		return &ledger.SubmitResult{Hash: sr.Hash, Ledger: sr.Ledger, Successful: true}, nil
	}

	if resp.StatusCode >= 500 {
		return nil, &ledger.Error{
			Kind:       ledger.KindTransient,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("ledger returned %d", resp.StatusCode),
		}
	}

	// 4xx: classify from the structured result codes
	kind := ledger.KindTransient
	txCode := ""
	var opCodes []string
	if sr.Extras != nil {
		txCode = sr.Extras.ResultCodes.Transaction
		opCodes = sr.Extras.ResultCodes.Operations
		kind = ledger.ClassifyResultCodes(txCode, opCodes)
	}

	message := sr.Detail
	if message == "" {
		message = sr.Title
	}
	if message == "" {
		message = fmt.Sprintf("transaction rejected with status %d", resp.StatusCode)
	}

	return nil, &ledger.Error{
		Kind:       kind,
		StatusCode: resp.StatusCode,
		ResultCode: txCode,
		Message:    message,
	}
}

// get performs a GET request and returns the body on 2xx
func (c *Client) get(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, ledger.NewError(ledger.KindTransient, "failed to create request", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, ledger.NewError(ledger.KindTransient, "ledger request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, ledger.NewError(ledger.KindTransient, "failed to read ledger response", err)
	}

	c.logger.Debug("ledger request",
		"url", reqURL,
		"status_code", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode != http.StatusOK {
		return nil, &ledger.Error{
			Kind:       ledger.KindTransient,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("ledger returned %d for %s", resp.StatusCode, reqURL),
		}
	}

	return body, nil
}

func (c *Client) lockAddress(address string) {
	c.seqMu.Lock()
	mu, ok := c.seqLocks[address]
	if !ok {
		mu = &sync.Mutex{}
		c.seqLocks[address] = mu
	}
	c.seqMu.Unlock()
	mu.Lock()
}

func (c *Client) unlockAddress(address string) {
	c.seqMu.Lock()
	mu := c.seqLocks[address]
	c.seqMu.Unlock()
	if mu != nil {
		mu.Unlock()
	}
}
