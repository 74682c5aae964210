package countdown

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Scheduler drives any number of countdowns off a single one-second ticker,
// so the timer-callback count stays constant no matter how many cards are
// live. Countdowns attached here must not be started individually.
type Scheduler struct {
	clock clockwork.Clock

	mu      sync.Mutex
	entries map[*Countdown]struct{}
}

func NewScheduler(clock clockwork.Clock) *Scheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Scheduler{
		clock:   clock,
		entries: make(map[*Countdown]struct{}),
	}
}

// Register attaches a countdown. Already-expired countdowns are ignored.
func (s *Scheduler) Register(c *Countdown) {
	if c == nil || c.State() == StateExpired {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[c] = struct{}{}
}

func (s *Scheduler) Unregister(c *Countdown) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, c)
}

// Len reports the number of attached countdowns.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Run broadcasts ticks until the context is done. Countdowns that expire or
// stop are dropped from the set.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := s.clock.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.Chan():
			s.broadcast(now)
		}
	}
}

func (s *Scheduler) broadcast(now time.Time) {
	s.mu.Lock()
	batch := make([]*Countdown, 0, len(s.entries))
	for c := range s.entries {
		batch = append(batch, c)
	}
	s.mu.Unlock()

	for _, c := range batch {
		if !c.Tick(now) {
			s.Unregister(c)
		}
	}
}
