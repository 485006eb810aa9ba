package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCheck(t *testing.T) {
	t.Run("first request opens a fresh window", func(t *testing.T) {
		s := NewStore()
		status := s.Check("user-1")
		assert.True(t, status.Allowed)
		assert.Equal(t, DefaultLimit, status.Limit)
		assert.Equal(t, DefaultLimit-1, status.Remaining)
	})

	t.Run("ceiling admits exactly the limit", func(t *testing.T) {
		s := NewStore(WithLimit(5))
		for i := 0; i < 5; i++ {
			assert.True(t, s.Check("user-1").Allowed, "request %d", i+1)
		}

		denied := s.Check("user-1")
		assert.False(t, denied.Allowed)
		assert.Equal(t, 0, denied.Remaining)
	})

	t.Run("identities are independent", func(t *testing.T) {
		s := NewStore(WithLimit(2))
		s.Check("user-1")
		s.Check("user-1")
		assert.False(t, s.Check("user-1").Allowed)

		fresh := s.Check("user-2")
		assert.True(t, fresh.Allowed)
		assert.Equal(t, 1, fresh.Remaining)
	})

	t.Run("window elapse resets the counter", func(t *testing.T) {
		now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
		s := NewStore(WithLimit(2), WithClock(func() time.Time { return now }))

		s.Check("user-1")
		s.Check("user-1")
		assert.False(t, s.Check("user-1").Allowed)

		now = now.Add(DefaultWindow + time.Second)
		status := s.Check("user-1")
		assert.True(t, status.Allowed)
		assert.Equal(t, 1, status.Remaining)
	})

	t.Run("reset time is window start plus window", func(t *testing.T) {
		now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
		s := NewStore(WithClock(func() time.Time { return now }))

		status := s.Check("user-1")
		assert.Equal(t, now.Add(DefaultWindow), status.ResetTime)

		// Later requests in the same window keep the original reset time.
		now = now.Add(10 * time.Second)
		assert.Equal(t, status.ResetTime, s.Check("user-1").ResetTime)
	})
}

func TestSweep(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	s := NewStore(WithClock(func() time.Time { return now }))

	s.Check("user-1")
	s.Check("user-2")
	assert.Equal(t, 2, s.Size())

	assert.Equal(t, 0, s.Sweep())
	assert.Equal(t, 2, s.Size())

	now = now.Add(DefaultWindow + time.Second)
	s.Check("user-3")

	assert.Equal(t, 2, s.Sweep())
	assert.Equal(t, 1, s.Size())
}
