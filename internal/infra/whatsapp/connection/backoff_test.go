package connection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBaseDelayGrowsExponentially(t *testing.T) {
	p := DefaultBackoffPolicy()

	assert.Equal(t, 2*time.Second, p.BaseDelay(1))
	assert.Equal(t, 4*time.Second, p.BaseDelay(2))
	assert.Equal(t, 8*time.Second, p.BaseDelay(3))
	assert.Equal(t, 16*time.Second, p.BaseDelay(4))
	assert.Equal(t, 64*time.Second, p.BaseDelay(6))
}

func TestBaseDelayCapsAtMax(t *testing.T) {
	p := DefaultBackoffPolicy()

	assert.Equal(t, p.MaxDelay, p.BaseDelay(7))
	assert.Equal(t, p.MaxDelay, p.BaseDelay(8))
	assert.Equal(t, p.MaxDelay, p.BaseDelay(100))
}

func TestBaseDelayIsMonotonic(t *testing.T) {
	p := DefaultBackoffPolicy()

	prev := time.Duration(0)
	for attempt := 1; attempt <= 20; attempt++ {
		delay := p.BaseDelay(attempt)
		assert.GreaterOrEqual(t, delay, prev, "attempt %d", attempt)
		assert.GreaterOrEqual(t, delay, p.MinDelay)
		assert.LessOrEqual(t, delay, p.MaxDelay)
		prev = delay
	}
}

func TestBaseDelayClampsInvalidAttempt(t *testing.T) {
	p := DefaultBackoffPolicy()

	assert.Equal(t, p.MinDelay, p.BaseDelay(0))
	assert.Equal(t, p.MinDelay, p.BaseDelay(-5))
}

func TestDelayForBoundedJitter(t *testing.T) {
	p := DefaultBackoffPolicy()

	for i := 0; i < 50; i++ {
		for attempt := 1; attempt <= 8; attempt++ {
			delay := p.DelayFor(attempt)
			assert.GreaterOrEqual(t, delay, p.BaseDelay(attempt))
			assert.LessOrEqual(t, delay, p.MaxDelay)
		}
	}
}

func TestDelayForNeverExceedsMaxAtCap(t *testing.T) {
	p := BackoffPolicy{
		MinDelay:    time.Second,
		MaxDelay:    8 * time.Second,
		MaxAttempts: 8,
		Window:      15 * time.Minute,
	}

	// Com a base no teto, o jitter não pode empurrar o atraso acima dele.
	for i := 0; i < 2000; i++ {
		delay := p.DelayFor(10)
		assert.LessOrEqual(t, delay, p.MaxDelay)
		assert.GreaterOrEqual(t, delay, p.MinDelay)
	}
}

func TestExhausted(t *testing.T) {
	p := DefaultBackoffPolicy()

	assert.False(t, p.Exhausted(1))
	assert.False(t, p.Exhausted(p.MaxAttempts))
	assert.True(t, p.Exhausted(p.MaxAttempts+1))
}
