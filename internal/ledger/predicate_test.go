package ledger_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kislikjeka/piclaim/internal/ledger"
)

func TestPredicate_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		json string
		want ledger.PredicateKind
	}{
		{
			name: "unconditional",
			json: `{"unconditional": true}`,
			want: ledger.PredicateUnconditional,
		},
		{
			name: "abs_before",
			json: `{"abs_before": "2026-03-01T12:00:00Z"}`,
			want: ledger.PredicateAbsBefore,
		},
		{
			name: "rel_before seconds as string",
			json: `{"rel_before": "3600"}`,
			want: ledger.PredicateRelBefore,
		},
		{
			name: "not wrapping abs_before",
			json: `{"not": {"abs_before": "2026-03-01T12:00:00Z"}}`,
			want: ledger.PredicateNot,
		},
		{
			name: "and of two branches",
			json: `{"and": [{"unconditional": true}, {"abs_before": "2026-03-01T12:00:00Z"}]}`,
			want: ledger.PredicateAnd,
		},
		{
			name: "or of two branches",
			json: `{"or": [{"unconditional": true}, {"abs_before": "2026-03-01T12:00:00Z"}]}`,
			want: ledger.PredicateOr,
		},
		{
			name: "empty object maps to unknown",
			json: `{}`,
			want: ledger.PredicateUnknown,
		},
		{
			name: "unrecognized key maps to unknown",
			json: `{"beforeAbsoluteTime": "123456"}`,
			want: ledger.PredicateUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p ledger.Predicate
			err := json.Unmarshal([]byte(tt.json), &p)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Kind())
		})
	}
}

func TestPredicate_UnmarshalJSON_Values(t *testing.T) {
	var p ledger.Predicate
	require.NoError(t, json.Unmarshal([]byte(`{"abs_before": "2026-03-01T12:00:00Z"}`), &p))
	require.NotNil(t, p.AbsBefore)
	assert.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), *p.AbsBefore)

	var rel ledger.Predicate
	require.NoError(t, json.Unmarshal([]byte(`{"rel_before": "7200"}`), &rel))
	require.NotNil(t, rel.RelBefore)
	assert.Equal(t, 2*time.Hour, *rel.RelBefore)
}

func TestPredicate_UnmarshalJSON_Invalid(t *testing.T) {
	var p ledger.Predicate
	assert.Error(t, json.Unmarshal([]byte(`{"abs_before": "not-a-time"}`), &p))
	assert.Error(t, json.Unmarshal([]byte(`{"rel_before": "not-a-number"}`), &p))
}

func TestPredicate_RoundTripNested(t *testing.T) {
	in := `{"not":{"and":[{"abs_before":"2026-03-01T12:00:00Z"},{"rel_before":"60"}]}}`

	var p ledger.Predicate
	require.NoError(t, json.Unmarshal([]byte(in), &p))
	require.Equal(t, ledger.PredicateNot, p.Kind())
	require.Equal(t, ledger.PredicateAnd, p.Not.Kind())
	require.Len(t, p.Not.And, 2)

	out, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, in, string(out))
}

func TestClaimableBalance_Unmarshal(t *testing.T) {
	raw := `{
		"id": "00000000a1b2c3",
		"amount": "3.1415926",
		"claimants": [
			{"destination": "GAAA", "predicate": {"unconditional": true}},
			{"destination": "GBBB", "predicate": {"not": {"abs_before": "2026-03-01T12:00:00Z"}}}
		]
	}`

	var record ledger.ClaimableBalance
	require.NoError(t, json.Unmarshal([]byte(raw), &record))

	assert.Equal(t, "00000000a1b2c3", record.ID)
	assert.Equal(t, "3.1415926", record.Amount)
	require.Len(t, record.Claimants, 2)
	assert.Equal(t, ledger.PredicateUnconditional, record.Claimants[0].Predicate.Kind())
	assert.Equal(t, ledger.PredicateNot, record.Claimants[1].Predicate.Kind())
}
