package quota

import (
	"context"
	"fmt"
	"sync"
	"time"

	"storyforge/internal/services"
)

const minuteWindow = time.Minute

// Guard enforces the backend call budget: a rolling per-minute ceiling and an
// absolute per-day ceiling. The minute ceiling blocks callers until capacity
// frees up; the day ceiling fails fast.
type Guard struct {
	mu sync.Mutex

	maxPerMinute int
	maxPerDay    int
	location     *time.Location

	clock   func() time.Time
	sleeper func(time.Duration)

	minuteStamps []time.Time
	dayCount     int
	dayKey       string
}

// Option customizes the guard.
type Option func(*Guard)

// WithClock overrides the time source (useful for tests).
func WithClock(clock func() time.Time) Option {
	return func(g *Guard) {
		if clock != nil {
			g.clock = clock
		}
	}
}

// WithSleeper overrides how waits are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(g *Guard) {
		g.sleeper = sleeper
	}
}

// NewGuard constructs a guard with the supplied ceilings. The location sets
// the daily reset boundary; nil falls back to UTC.
func NewGuard(maxPerMinute, maxPerDay int, location *time.Location, opts ...Option) *Guard {
	if location == nil {
		location = time.UTC
	}
	guard := &Guard{
		maxPerMinute: maxPerMinute,
		maxPerDay:    maxPerDay,
		location:     location,
		clock:        time.Now,
	}
	for _, opt := range opts {
		opt(guard)
	}
	return guard
}

// Acquire reserves one backend call. It blocks until the rolling minute
// window has capacity, and returns services.ErrQuotaExceeded without waiting
// when the daily ceiling is reached. The reservation is consumed even if the
// caller's backend request later fails.
func (g *Guard) Acquire(ctx context.Context) error {
	for {
		wait, err := g.tryReserve()
		if err != nil {
			return err
		}
		if wait <= 0 {
			return nil
		}
		if err := g.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// TryAcquire reserves one backend call without blocking. It reports false
// when either ceiling would be exceeded.
func (g *Guard) TryAcquire() bool {
	wait, err := g.tryReserve()
	return err == nil && wait <= 0
}

// tryReserve returns a positive wait when the minute window is full, an error
// when the day is exhausted, and records the reservation otherwise.
func (g *Guard) tryReserve() (time.Duration, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock()
	g.rollDay(now)
	g.pruneMinute(now)

	if g.maxPerDay > 0 && g.dayCount >= g.maxPerDay {
		return 0, services.Wrap(
			services.ErrQuotaExceeded,
			"quota",
			"acquire",
			fmt.Sprintf("daily ceiling of %d calls reached, resets at %s", g.maxPerDay, g.nextReset(now).Format(time.RFC3339)),
			nil,
		)
	}
	if g.maxPerMinute > 0 && len(g.minuteStamps) >= g.maxPerMinute {
		return g.minuteStamps[0].Add(minuteWindow).Sub(now), nil
	}

	g.minuteStamps = append(g.minuteStamps, now)
	g.dayCount++
	return 0, nil
}

func (g *Guard) rollDay(now time.Time) {
	key := now.In(g.location).Format("2006-01-02")
	if key != g.dayKey {
		g.dayKey = key
		g.dayCount = 0
	}
}

func (g *Guard) pruneMinute(now time.Time) {
	cutoff := now.Add(-minuteWindow)
	kept := g.minuteStamps[:0]
	for _, stamp := range g.minuteStamps {
		if stamp.After(cutoff) {
			kept = append(kept, stamp)
		}
	}
	g.minuteStamps = kept
}

func (g *Guard) nextReset(now time.Time) time.Time {
	local := now.In(g.location)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, g.location)
	return midnight.AddDate(0, 0, 1)
}

func (g *Guard) sleep(ctx context.Context, wait time.Duration) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if g.sleeper != nil {
		g.sleeper(wait)
		return ctx.Err()
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Snapshot describes current quota usage for the status surface.
type Snapshot struct {
	MinuteUsed  int
	MinuteLimit int
	DayUsed     int
	DayLimit    int
	DayResetAt  time.Time
}

// Snapshot reports usage as of now without reserving anything.
func (g *Guard) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock()
	g.rollDay(now)
	g.pruneMinute(now)

	return Snapshot{
		MinuteUsed:  len(g.minuteStamps),
		MinuteLimit: g.maxPerMinute,
		DayUsed:     g.dayCount,
		DayLimit:    g.maxPerDay,
		DayResetAt:  g.nextReset(now),
	}
}
