package testutil

import (
	"fmt"
	"sync"
	"time"
)

// WindowOpens is the first day of the internship application window the
// tests are set in.
var WindowOpens = time.Date(2024, 6, 3, 8, 0, 0, 0, time.UTC)

// StubClock is a hand-driven ih.Clock. Reads repeat until Advance is
// called, so two writes without an Advance in between get versions one
// nanosecond apart from the store's bump. Safe for concurrent use.
type StubClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewStubClock(t time.Time) *StubClock {
	return &StubClock{now: t}
}

// FixedClock returns a StubClock stopped at WindowOpens.
func FixedClock() *StubClock {
	return NewStubClock(WindowOpens)
}

func (c *StubClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d and returns the new reading.
func (c *StubClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

// StubIDGenerator hands out "app-1", "app-2", ... in creation order, which
// keeps application IDs in assertions readable.
type StubIDGenerator struct {
	mu   sync.Mutex
	next int
}

func NewStubIDGenerator() *StubIDGenerator {
	return &StubIDGenerator{}
}

func (g *StubIDGenerator) New() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return fmt.Sprintf("app-%d", g.next)
}
