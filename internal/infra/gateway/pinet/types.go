package pinet

import (
	"github.com/kislikjeka/piclaim/internal/ledger"
)

// claimableBalancesResponse is the envelope of GET /claimable_balances/
type claimableBalancesResponse struct {
	Embedded struct {
		Records []ledger.ClaimableBalance `json:"records"`
	} `json:"_embedded"`
}

// accountResponse is the subset of GET /accounts/{address} we consume
type accountResponse struct {
	ID       string `json:"id"`
	Sequence string `json:"sequence"`
}

// submitRequest is the body of POST /transactions
type submitRequest struct {
	Tx string `json:"tx"`
}

// submitResponse is the body of a transaction submission response. The
// extras block is only present on rejections.
type submitResponse struct {
	Hash       string `json:"hash"`
	Ledger     int64  `json:"ledger"`
	Successful bool   `json:"successful"`
	Title      string `json:"title"`
	Detail     string `json:"detail"`
	Extras     *struct {
		ResultCodes struct {
			Transaction string   `json:"transaction"`
			Operations  []string `json:"operations"`
		} `json:"result_codes"`
	} `json:"extras"`
}
