package wallet

import (
	"time"

	"github.com/google/uuid"
)

// Status represents the scheduling state of an enrolled wallet
type Status string

const (
	// StatusActive wallets are polled and their balances scheduled.
	StatusActive Status = "active"
	// StatusQuarantined wallets are excluded from all scheduling after a
	// terminal authentication failure; the record persists for inspection.
	StatusQuarantined Status = "quarantined"
)

// IsValid checks if the status is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusQuarantined:
		return true
	}
	return false
}

// Wallet is an enrolled wallet. Immutable after creation except for its
// status. The secret never leaves this package through serialization.
type Wallet struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Address     string    `json:"address" db:"address"`
	Secret      string    `json:"-" db:"secret"`
	Destination string    `json:"destination" db:"destination"`
	Status      Status    `json:"status" db:"status"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// MaskAddress renders a ledger address safe for logs and activity
// records: first 6 characters, ellipsis, last 4.
func MaskAddress(address string) string {
	if len(address) <= 10 {
		return address
	}
	return address[:6] + "…" + address[len(address)-4:]
}
