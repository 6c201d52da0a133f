// Package ratelimit provides a simple cooldown gate used to keep the REST
// snapshot fallback from hammering the remote API.
package ratelimit

import (
	"fmt"
	"sync"
	"time"
)

// Cooldown permits at most one marked operation per window. The clock is
// injected so tests can drive it.
type Cooldown struct {
	mu     sync.Mutex
	window time.Duration
	clock  func() time.Time
	last   time.Time
}

// NewCooldown builds a gate with the given window. A nil clock uses the
// wall clock; a non-positive window defaults to 90 seconds.
func NewCooldown(window time.Duration, clock func() time.Time) *Cooldown {
	if window <= 0 {
		window = 90 * time.Second
	}
	if clock == nil {
		clock = time.Now
	}
	return &Cooldown{window: window, clock: clock}
}

// Allow returns an error while the gate is cooling down.
func (c *Cooldown) Allow() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last.IsZero() {
		return nil
	}
	elapsed := c.clock().Sub(c.last)
	if elapsed < c.window {
		return fmt.Errorf("cooling down, retry in %s", (c.window - elapsed).Round(time.Second))
	}
	return nil
}

// Mark records a successful operation. Callers mark only on success so a
// failed attempt does not consume the window.
func (c *Cooldown) Mark() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = c.clock()
}
