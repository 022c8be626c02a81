package ledger

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a ledger interaction failure. The claim scheduler's
// retry policy is driven entirely by this classification; callers never
// inspect error strings.
type ErrorKind string

const (
	// KindBadSequence is a tx_bad_seq rejection: the submitted sequence
	// number was stale. Recoverable with a fresh sequence fetch.
	KindBadSequence ErrorKind = "bad_sequence"

	// KindBadAuth is a tx_bad_auth rejection: the signature did not
	// satisfy the source account. Terminal for the balance.
	KindBadAuth ErrorKind = "bad_auth"

	// KindLogic is an operation-level rejection (balance gone,
	// destination unfunded). Terminal for the balance.
	KindLogic ErrorKind = "logic"

	// KindTransient covers network failures, 5xx responses, timeouts
	// and unrecognized result shapes. Retried with backoff.
	KindTransient ErrorKind = "transient"
)

// Error is a classified ledger failure
type Error struct {
	Kind       ErrorKind
	StatusCode int    // HTTP status of the ledger response, 0 for network errors
	ResultCode string // transaction result code when present, e.g. "tx_bad_seq"
	Message    string
	Err        error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.ResultCode != "" {
		return fmt.Sprintf("ledger %s (%s): %s", e.Kind, e.ResultCode, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("ledger %s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("ledger %s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a classified ledger error
func NewError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the classification from an error. Errors that did not
// originate from the ledger client default to transient.
func KindOf(err error) ErrorKind {
	var lerr *Error
	if errors.As(err, &lerr) {
		return lerr.Kind
	}
	return KindTransient
}

// Transaction result codes with a dedicated policy
const (
	resultBadSeq       = "tx_bad_seq"
	resultBadAuth      = "tx_bad_auth"
	resultBadAuthExtra = "tx_bad_auth_extra"
	resultFailed       = "tx_failed"
)

// logicOpCodes are operation result codes that indicate the transaction
// can never succeed as built: the balance is gone or the destination
// cannot receive the payment.
var logicOpCodes = map[string]struct{}{
	"op_does_not_exist":     {},
	"op_no_claimable_balance": {},
	"op_cannot_claim":       {},
	"op_no_destination":     {},
	"op_not_claimant":       {},
	"op_no_trust":           {},
	"op_line_full":          {},
}

// ClassifyResultCodes maps the structured result_codes of a rejected
// transaction to an error kind
func ClassifyResultCodes(txCode string, opCodes []string) ErrorKind {
	switch txCode {
	case resultBadSeq:
		return KindBadSequence
	case resultBadAuth, resultBadAuthExtra:
		return KindBadAuth
	case resultFailed:
		for _, code := range opCodes {
			if _, ok := logicOpCodes[code]; ok {
				return KindLogic
			}
		}
		return KindTransient
	}
	return KindTransient
}
