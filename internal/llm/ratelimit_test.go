package llm

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter(t *testing.T) {
	t.Run("burst up to capacity", func(t *testing.T) {
		rl := newRateLimiter(10)
		now := time.Now()
		rl.now = func() time.Time { return now }
		rl.lastRefill = now

		for i := 0; i < 10; i++ {
			assert.Zero(t, rl.reserve(), "request %d", i)
		}

		// 10/min is one token every 6s
		delay := rl.reserve()
		assert.InDelta(t, 6*time.Second, delay, float64(10*time.Millisecond))
	})

	t.Run("refills with elapsed time", func(t *testing.T) {
		rl := newRateLimiter(60)
		now := time.Now()
		rl.now = func() time.Time { return now }
		rl.lastRefill = now

		for i := 0; i < 60; i++ {
			require.Zero(t, rl.reserve())
		}
		assert.NotZero(t, rl.reserve())

		now = now.Add(2 * time.Second)
		assert.Zero(t, rl.reserve())
	})

	t.Run("context cancellation", func(t *testing.T) {
		rl := newRateLimiter(1)
		require.NoError(t, rl.wait(context.Background()))

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		err := rl.wait(ctx)
		require.Error(t, err)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("disabled limiter", func(t *testing.T) {
		rl := newRateLimiter(0)
		assert.Nil(t, rl)
		assert.NoError(t, rl.wait(context.Background()))
	})

	t.Run("concurrent access", func(t *testing.T) {
		rl := newRateLimiter(100)
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, rl.wait(context.Background()))
			}()
		}
		wg.Wait()
	})
}
