package monitor

import "time"

// Defaults for the scheduling windows. PrepLead is how long before the
// unlock instant the sequence number is pre-fetched; PostDelay is the
// margin after the unlock instant before the submission fires, so the
// network clock has certainly passed the predicate boundary.
const (
	DefaultPrepLead      = 2 * time.Second
	DefaultPostDelay     = 5 * time.Millisecond
	DefaultPollInterval  = 5 * time.Minute
	DefaultSweepInterval = 2 * time.Minute
	DefaultFastRetry     = 100 * time.Millisecond
)

// defaultBackoff is the retry schedule for transient submission
// failures. Attempts past the last entry reuse it.
var defaultBackoff = []time.Duration{
	5 * time.Second,
	15 * time.Second,
	30 * time.Second,
	60 * time.Second,
	120 * time.Second,
}

// Config tunes the monitor's scheduling windows
type Config struct {
	PrepLead      time.Duration
	PostDelay     time.Duration
	PollInterval  time.Duration
	SweepInterval time.Duration
	FastRetry     time.Duration
	Backoff       []time.Duration
}

// DefaultConfig returns the production scheduling windows
func DefaultConfig() Config {
	return Config{
		PrepLead:      DefaultPrepLead,
		PostDelay:     DefaultPostDelay,
		PollInterval:  DefaultPollInterval,
		SweepInterval: DefaultSweepInterval,
		FastRetry:     DefaultFastRetry,
		Backoff:       defaultBackoff,
	}
}

func (c Config) normalized() Config {
	d := DefaultConfig()
	if c.PrepLead <= 0 {
		c.PrepLead = d.PrepLead
	}
	if c.PostDelay <= 0 {
		c.PostDelay = d.PostDelay
	}
	if c.PollInterval <= 0 {
		c.PollInterval = d.PollInterval
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = d.SweepInterval
	}
	if c.FastRetry <= 0 {
		c.FastRetry = d.FastRetry
	}
	if len(c.Backoff) == 0 {
		c.Backoff = d.Backoff
	}
	return c
}

// backoffDelay returns the delay before the given retry attempt
// (1-based), clamping to the last schedule entry
func (c Config) backoffDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > len(c.Backoff) {
		attempt = len(c.Backoff)
	}
	return c.Backoff[attempt-1]
}
