package logring

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
)

// DefaultCapacity bounds the ring when no capacity is configured
const DefaultCapacity = 500

// Level is the severity of an activity record
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Record is a single activity entry. Messages must never contain
// unmasked addresses or secrets; callers mask before appending.
type Record struct {
	ID        uuid.UUID  `json:"id"`
	Timestamp time.Time  `json:"timestamp"`
	Level     Level      `json:"level"`
	Message   string     `json:"message"`
	WalletID  *uuid.UUID `json:"wallet_id,omitempty"`
}

// Ring is a bounded append-only ring of activity records. When full,
// the oldest entries are dropped.
type Ring struct {
	mu       sync.Mutex
	records  []Record
	start    int
	count    int
	capacity int
	clock    clock.Clock
}

// NewRing creates a ring bounded at the given capacity
func NewRing(capacity int, clk clock.Clock) *Ring {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Ring{
		records:  make([]Record, capacity),
		capacity: capacity,
		clock:    clk,
	}
}

// Append adds a record, evicting the oldest when the ring is full
func (r *Ring) Append(level Level, message string, walletID *uuid.UUID) Record {
	rec := Record{
		ID:        uuid.New(),
		Timestamp: r.clock.Now().UTC(),
		Level:     level,
		Message:   message,
		WalletID:  walletID,
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	idx := (r.start + r.count) % r.capacity
	r.records[idx] = rec
	if r.count < r.capacity {
		r.count++
	} else {
		r.start = (r.start + 1) % r.capacity
	}
	return rec
}

// Info appends an info-level record
func (r *Ring) Info(message string, walletID *uuid.UUID) Record {
	return r.Append(LevelInfo, message, walletID)
}

// Success appends a success-level record
func (r *Ring) Success(message string, walletID *uuid.UUID) Record {
	return r.Append(LevelSuccess, message, walletID)
}

// Warning appends a warning-level record
func (r *Ring) Warning(message string, walletID *uuid.UUID) Record {
	return r.Append(LevelWarning, message, walletID)
}

// Error appends an error-level record
func (r *Ring) Error(message string, walletID *uuid.UUID) Record {
	return r.Append(LevelError, message, walletID)
}

// List returns the retained records, oldest first
func (r *Ring) List() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Record, r.count)
	for i := 0; i < r.count; i++ {
		out[i] = r.records[(r.start+i)%r.capacity]
	}
	return out
}

// Clear drops all retained records
func (r *Ring) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.start = 0
	r.count = 0
}

// Len returns the number of retained records
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}
