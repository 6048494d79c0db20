package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDeterministicClock_StepsByFixedIncrement(t *testing.T) {
	c := NewDeterministicClock()

	first := c.Now()
	second := c.Now()

	assert.Equal(t, time.Second, second.Sub(first))
}

func TestDeterministicClock_ReproducibleAcrossInstances(t *testing.T) {
	a := NewDeterministicClock()
	b := NewDeterministicClock()

	for i := 0; i < 5; i++ {
		assert.Equal(t, a.Now(), b.Now())
	}
}

func TestDeterministicClock_PeekDoesNotAdvance(t *testing.T) {
	c := NewDeterministicClock()

	peeked := c.Peek()
	assert.Equal(t, peeked, c.Now())
}

func TestDeterministicClock_Reset(t *testing.T) {
	start := time.Date(2030, 6, 1, 0, 0, 0, 0, time.UTC)
	c := NewDeterministicClockAt(start, time.Minute)

	c.Now()
	c.Now()
	c.Reset(start)

	assert.Equal(t, start, c.Now())
}
