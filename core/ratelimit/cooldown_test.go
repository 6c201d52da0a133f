package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCooldown(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	clock := func() time.Time { return now }
	gate := NewCooldown(90*time.Second, clock)

	// Fresh gate allows immediately.
	assert.NoError(t, gate.Allow())

	gate.Mark()
	assert.Error(t, gate.Allow())

	now = now.Add(89 * time.Second)
	assert.Error(t, gate.Allow())

	now = now.Add(time.Second)
	assert.NoError(t, gate.Allow())
}

func TestCooldownDefaults(t *testing.T) {
	gate := NewCooldown(0, nil)
	assert.Equal(t, 90*time.Second, gate.window)
	assert.NoError(t, gate.Allow())
}
