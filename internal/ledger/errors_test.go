package ledger_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kislikjeka/piclaim/internal/ledger"
)

func TestClassifyResultCodes(t *testing.T) {
	tests := []struct {
		name    string
		txCode  string
		opCodes []string
		want    ledger.ErrorKind
	}{
		{"bad sequence", "tx_bad_seq", nil, ledger.KindBadSequence},
		{"bad auth", "tx_bad_auth", nil, ledger.KindBadAuth},
		{"bad auth extra", "tx_bad_auth_extra", nil, ledger.KindBadAuth},
		{"claim on missing balance", "tx_failed", []string{"op_does_not_exist"}, ledger.KindLogic},
		{"not a claimant", "tx_failed", []string{"op_not_claimant"}, ledger.KindLogic},
		{"unfunded destination", "tx_failed", []string{"op_success", "op_no_destination"}, ledger.KindLogic},
		{"failed with unknown op code", "tx_failed", []string{"op_something_new"}, ledger.KindTransient},
		{"failed without op codes", "tx_failed", nil, ledger.KindTransient},
		{"insufficient fee is transient", "tx_insufficient_fee", nil, ledger.KindTransient},
		{"empty result code", "", nil, ledger.KindTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ledger.ClassifyResultCodes(tt.txCode, tt.opCodes))
		})
	}
}

func TestKindOf(t *testing.T) {
	badSeq := ledger.NewError(ledger.KindBadSequence, "stale sequence", nil)
	assert.Equal(t, ledger.KindBadSequence, ledger.KindOf(badSeq))

	// Classification survives wrapping.
	wrapped := fmt.Errorf("submit failed: %w", badSeq)
	assert.Equal(t, ledger.KindBadSequence, ledger.KindOf(wrapped))

	// Anything else defaults to transient.
	assert.Equal(t, ledger.KindTransient, ledger.KindOf(errors.New("connection reset")))
	assert.Equal(t, ledger.KindTransient, ledger.KindOf(nil))
}

func TestError_Message(t *testing.T) {
	err := &ledger.Error{
		Kind:       ledger.KindBadAuth,
		StatusCode: 400,
		ResultCode: "tx_bad_auth",
		Message:    "transaction rejected",
	}
	assert.Contains(t, err.Error(), "tx_bad_auth")
	assert.Contains(t, err.Error(), "bad_auth")
}
