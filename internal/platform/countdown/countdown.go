// Package countdown implements the expiry timers behind lineup deadlines,
// auction cards and clause windows. A Countdown ticks against an injected
// clock until its expiry instant, then stops for good.
package countdown

import (
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// State of a countdown. Expired is terminal.
type State string

const (
	StateActive  State = "active"
	StateExpired State = "expired"
)

// Policy selects the tick cadence.
type Policy string

const (
	// PolicyAdaptive ticks every minute while the previous tick saw more
	// than 24h remaining, every second otherwise. The coarse-to-fine
	// transition may land up to 60s late.
	PolicyAdaptive Policy = "adaptive"
	// PolicyPerSecond always ticks every second.
	PolicyPerSecond Policy = "per_second"
)

// Band classifies urgency from a remaining duration.
type Band string

const (
	BandCriticalLong  Band = "critical-long"  // more than a day out
	BandWarning       Band = "warning"        // between 1h and 24h
	BandCriticalShort Band = "critical-short" // final hour
)

const (
	coarseInterval = time.Minute
	fineInterval   = time.Second
	dayThreshold   = 24 * time.Hour
	hourThreshold  = time.Hour
)

// BandFor maps a remaining duration to its urgency band.
func BandFor(remaining time.Duration) Band {
	switch {
	case remaining > dayThreshold:
		return BandCriticalLong
	case remaining > hourThreshold:
		return BandWarning
	default:
		return BandCriticalShort
	}
}

// Format renders a remaining duration the way the deadline cards show it.
// Above a day it collapses to whole days with Spanish pluralization; at a
// day or less it shows h/m/s, dropping leading zero units.
func Format(remaining time.Duration) string {
	if remaining < 0 {
		remaining = 0
	}
	if remaining > dayThreshold {
		days := int(remaining / dayThreshold)
		if days == 1 {
			return "1 día"
		}
		return fmt.Sprintf("%d días", days)
	}

	h := int(remaining / time.Hour)
	m := int(remaining%time.Hour) / int(time.Minute)
	s := int(remaining%time.Minute) / int(time.Second)
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

// Config describes one countdown. OnTick and OnExpire are invoked from the
// countdown's goroutine without internal locks held; they must not block.
type Config struct {
	Expiry   time.Time
	Policy   Policy
	Clock    clockwork.Clock
	OnTick   func(remaining time.Duration, band Band)
	OnExpire func()
}

// Countdown tracks a single expiry instant. Safe for concurrent use.
type Countdown struct {
	clock    clockwork.Clock
	expiry   time.Time
	policy   Policy
	onTick   func(time.Duration, Band)
	onExpire func()

	mu        sync.Mutex
	state     State
	remaining time.Duration
	nextEval  time.Time
	stopCh    chan struct{}
	started   bool
}

func New(cfg Config) (*Countdown, error) {
	if cfg.Expiry.IsZero() {
		return nil, fmt.Errorf("countdown expiry is required")
	}
	if cfg.Policy != PolicyAdaptive && cfg.Policy != PolicyPerSecond {
		return nil, fmt.Errorf("unknown tick policy %q", cfg.Policy)
	}
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	c := &Countdown{
		clock:    clock,
		expiry:   cfg.Expiry,
		policy:   cfg.Policy,
		onTick:   cfg.OnTick,
		onExpire: cfg.OnExpire,
		state:    StateActive,
		stopCh:   make(chan struct{}),
	}
	c.remaining = c.clamp(clock.Now())
	if c.remaining == 0 {
		c.state = StateExpired
	}
	return c, nil
}

// Start spawns the countdown's own timer loop. A countdown attached to a
// Scheduler must not also be started.
func (c *Countdown) Start() {
	c.mu.Lock()
	if c.started || c.state == StateExpired {
		c.mu.Unlock()
		return
	}
	c.started = true
	interval := c.intervalLocked()
	c.mu.Unlock()

	go c.loop(interval)
}

// Stop releases the scheduled callback. Idempotent.
func (c *Countdown) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	select {
	case <-c.stopCh:
	default:
		close(c.stopCh)
	}
}

func (c *Countdown) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Remaining is the value observed at the latest tick, clamped at zero.
func (c *Countdown) Remaining() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Tick evaluates the countdown against now. Scheduler-driven countdowns
// receive a Tick every second; the adaptive policy skips evaluations that
// arrive before the cadence chosen at the previous tick. Returns false once
// the countdown has expired or been stopped.
func (c *Countdown) Tick(now time.Time) bool {
	select {
	case <-c.stopCh:
		return false
	default:
	}

	c.mu.Lock()
	if c.state == StateExpired {
		c.mu.Unlock()
		return false
	}
	if !c.nextEval.IsZero() && now.Before(c.nextEval) {
		c.mu.Unlock()
		return true
	}

	c.remaining = c.clamp(now)
	remaining := c.remaining
	expired := remaining == 0
	if expired {
		c.state = StateExpired
	} else {
		c.nextEval = now.Add(c.intervalLocked())
	}
	c.mu.Unlock()

	if expired {
		if c.onExpire != nil {
			c.onExpire()
		}
		return false
	}
	if c.onTick != nil {
		c.onTick(remaining, BandFor(remaining))
	}
	return true
}

func (c *Countdown) loop(interval time.Duration) {
	timer := c.clock.NewTimer(interval)
	defer stopAndDrainTimer(timer)

	for {
		select {
		case <-c.stopCh:
			return
		case now := <-timer.Chan():
			if !c.tickSelfDriven(now) {
				return
			}
			c.mu.Lock()
			next := c.intervalLocked()
			c.mu.Unlock()
			timer.Reset(next)
		}
	}
}

// tickSelfDriven bypasses the nextEval gate; the loop's own timer already
// enforces the cadence.
func (c *Countdown) tickSelfDriven(now time.Time) bool {
	c.mu.Lock()
	c.nextEval = time.Time{}
	c.mu.Unlock()
	return c.Tick(now)
}

// intervalLocked picks the next tick cadence from the remaining value seen
// at the previous evaluation.
func (c *Countdown) intervalLocked() time.Duration {
	if c.policy == PolicyAdaptive && c.remaining > dayThreshold {
		return coarseInterval
	}
	return fineInterval
}

func (c *Countdown) clamp(now time.Time) time.Duration {
	remaining := c.expiry.Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// stopAndDrainTimer stops a timer and drains its channel so a fired timer
// does not leak its tick.
func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}
