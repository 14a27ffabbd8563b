package testfixtures

import (
	"sync"
	"time"

	"github.com/example/desk-booking/internal/calendar"
)

// Clock is a settable time source. Services see the same instant until the
// test moves it.
type Clock struct {
	mu      sync.Mutex
	current time.Time
}

// NewClock starts at start, or at ReferenceTime when start is zero.
func NewClock(start time.Time) *Clock {
	if start.IsZero() {
		start = ReferenceTime()
	}
	return &Clock{current: start}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// NowFunc exposes Now as a function suitable for dependency injection.
func (c *Clock) NowFunc() func() time.Time {
	if c == nil {
		return time.Now
	}
	return c.Now
}

// Today is the calendar day of the current instant.
func (c *Clock) Today() calendar.Date {
	return calendar.FromTime(c.Now())
}

func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.current = t
	c.mu.Unlock()
}

// Advance moves the clock forward by d and returns the new time.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	c.current = c.current.Add(d)
	updated := c.current
	c.mu.Unlock()
	return updated
}

// AdvanceDays moves the clock by whole days, keeping the time of day.
func (c *Clock) AdvanceDays(days int) calendar.Date {
	c.mu.Lock()
	c.current = c.current.AddDate(0, 0, days)
	today := calendar.FromTime(c.current)
	c.mu.Unlock()
	return today
}

// Current is Now without the suggestion that time moves.
func (c *Clock) Current() time.Time {
	return c.Now()
}
