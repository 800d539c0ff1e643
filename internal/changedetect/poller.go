package changedetect

import (
	"time"

	"github.com/haasonsaas/commander/internal/types"
)

// idleThreshold is the number of consecutive ignore classifications
// tolerated before the poller starts backing off.
const idleThreshold = 3

// DefaultBaseInterval and DefaultMaxInterval are the poll cadence
// bounds used when a caller has no session-specific override.
const (
	DefaultBaseInterval = 500 * time.Millisecond
	DefaultMaxInterval  = 30 * time.Second
)

// Poller derives the next poll interval from a stream of ChangeEvent
// classifications: it speeds up on activity and backs off exponentially
// while idle, never past max_interval and never below base_interval.
type Poller struct {
	base    time.Duration
	max     time.Duration
	current time.Duration
	idle    int
}

// NewPoller creates a Poller with the given base (fastest) and max
// (slowest) intervals.
func NewPoller(base, max time.Duration) *Poller {
	return &Poller{base: base, max: max, current: base}
}

// Interval returns the current poll interval.
func (p *Poller) Interval() time.Duration { return p.current }

// NextInterval updates the interval in response to a classification and
// returns it.
func (p *Poller) NextInterval(change *types.ChangeEvent) time.Duration {
	switch {
	case change == nil || change.Significance == types.SigIgnore:
		p.idle++
		if p.idle > idleThreshold {
			p.current *= 2
			if p.current > p.max {
				p.current = p.max
			}
		}
	case change.Significance == types.SigLow:
		p.idle = 0
		p.current += p.base
		if p.current > p.max {
			p.current = p.max
		}
	case change.Significance == types.SigMedium:
		p.idle = 0
		p.current = p.base * 2
	default: // High or Critical
		p.idle = 0
		p.current = p.base
	}
	return p.current
}

// Reset restores the base interval, e.g. after a user interaction.
func (p *Poller) Reset() {
	p.current = p.base
	p.idle = 0
}

// IsIdle reports whether the poller has backed off past the idle
// threshold.
func (p *Poller) IsIdle() bool { return p.idle > idleThreshold }
