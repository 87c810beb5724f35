package config

import "time"

// LedgerConfig holds the booking rules that operators may tune.
type LedgerConfig struct {
	CancellationCutoff   time.Duration // no cancellations within this window before start
	RefundFullWindow     time.Duration // paid bookings cancelled earlier than this get 100%
	RefundPartialPercent int           // refund for paid bookings cancelled later
}

// LoadLedgerConfig reads CANCELLATION_CUTOFF, REFUND_FULL_WINDOW and
// REFUND_PARTIAL_PERCENT. Out-of-range values fall back to the defaults.
func LoadLedgerConfig() LedgerConfig {
	c := LedgerConfig{
		CancellationCutoff:   envDur("CANCELLATION_CUTOFF", 24*time.Hour),
		RefundFullWindow:     envDur("REFUND_FULL_WINDOW", 7*24*time.Hour),
		RefundPartialPercent: envInt("REFUND_PARTIAL_PERCENT", 50),
	}
	if c.CancellationCutoff < 0 {
		c.CancellationCutoff = 24 * time.Hour
	}
	if c.RefundPartialPercent < 0 || c.RefundPartialPercent > 100 {
		c.RefundPartialPercent = 50
	}
	return c
}
