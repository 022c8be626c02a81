package ledger

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Predicate is a claimant predicate tree as returned by the ledger's
// claimable-balances endpoint. Exactly one branch of the struct is set
// for a well-formed predicate; Kind reports which one.
type Predicate struct {
	Unconditional bool
	AbsBefore     *time.Time
	RelBefore     *time.Duration
	Not           *Predicate
	And           []Predicate
	Or            []Predicate
}

// PredicateKind identifies the shape of a predicate node
type PredicateKind string

const (
	PredicateUnconditional PredicateKind = "unconditional"
	PredicateAbsBefore     PredicateKind = "abs_before"
	PredicateRelBefore     PredicateKind = "rel_before"
	PredicateNot           PredicateKind = "not"
	PredicateAnd           PredicateKind = "and"
	PredicateOr            PredicateKind = "or"
	PredicateUnknown       PredicateKind = "unknown"
)

// Kind returns the shape of this predicate node
func (p Predicate) Kind() PredicateKind {
	switch {
	case p.Unconditional:
		return PredicateUnconditional
	case p.AbsBefore != nil:
		return PredicateAbsBefore
	case p.RelBefore != nil:
		return PredicateRelBefore
	case p.Not != nil:
		return PredicateNot
	case p.And != nil:
		return PredicateAnd
	case p.Or != nil:
		return PredicateOr
	}
	return PredicateUnknown
}

// predicateWire mirrors the JSON encoding used by Horizon-compatible APIs:
//
//	{"unconditional": true}
//	{"abs_before": "2026-01-02T15:04:05Z"}
//	{"rel_before": "3600"}            seconds, encoded as a string
//	{"not": {...}}
//	{"and": [{...}, {...}]}
//	{"or":  [{...}, {...}]}
type predicateWire struct {
	Unconditional *bool           `json:"unconditional,omitempty"`
	AbsBefore     *string         `json:"abs_before,omitempty"`
	RelBefore     *string         `json:"rel_before,omitempty"`
	Not           *Predicate      `json:"not,omitempty"`
	And           []Predicate     `json:"and,omitempty"`
	Or            []Predicate     `json:"or,omitempty"`
	Extra         json.RawMessage `json:"-"`
}

// UnmarshalJSON decodes a predicate tree from its wire form
func (p *Predicate) UnmarshalJSON(data []byte) error {
	var w predicateWire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("failed to decode predicate: %w", err)
	}

	*p = Predicate{}

	switch {
	case w.Unconditional != nil && *w.Unconditional:
		p.Unconditional = true
	case w.AbsBefore != nil:
		t, err := time.Parse(time.RFC3339, *w.AbsBefore)
		if err != nil {
			return fmt.Errorf("invalid abs_before %q: %w", *w.AbsBefore, err)
		}
		t = t.UTC()
		p.AbsBefore = &t
	case w.RelBefore != nil:
		secs, err := strconv.ParseInt(*w.RelBefore, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid rel_before %q: %w", *w.RelBefore, err)
		}
		d := time.Duration(secs) * time.Second
		p.RelBefore = &d
	case w.Not != nil:
		p.Not = w.Not
	case w.And != nil:
		p.And = w.And
	case w.Or != nil:
		p.Or = w.Or
	}
	// Unknown shapes decode to the zero predicate; the resolver treats
	// them as non-interpretable rather than failing the whole record.
	return nil
}

// MarshalJSON encodes a predicate tree back into its wire form
func (p Predicate) MarshalJSON() ([]byte, error) {
	switch p.Kind() {
	case PredicateUnconditional:
		return json.Marshal(map[string]bool{"unconditional": true})
	case PredicateAbsBefore:
		return json.Marshal(map[string]string{"abs_before": p.AbsBefore.UTC().Format(time.RFC3339)})
	case PredicateRelBefore:
		secs := int64(*p.RelBefore / time.Second)
		return json.Marshal(map[string]string{"rel_before": strconv.FormatInt(secs, 10)})
	case PredicateNot:
		return json.Marshal(map[string]*Predicate{"not": p.Not})
	case PredicateAnd:
		return json.Marshal(map[string][]Predicate{"and": p.And})
	case PredicateOr:
		return json.Marshal(map[string][]Predicate{"or": p.Or})
	}
	return []byte("{}"), nil
}

// Claimant is a single claimant entry of a claimable balance
type Claimant struct {
	Destination string    `json:"destination"`
	Predicate   Predicate `json:"predicate"`
}

// ClaimableBalance is a claimable-balance record as returned by the ledger
type ClaimableBalance struct {
	ID        string     `json:"id"`
	Amount    string     `json:"amount"`
	Asset     string     `json:"asset,omitempty"`
	Sponsor   string     `json:"sponsor,omitempty"`
	Claimants []Claimant `json:"claimants"`
}
