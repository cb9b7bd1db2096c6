// ABOUTME: Tests for the claim cache used by the scheduled-message dispatcher.
// ABOUTME: Covers expiry, release, size limits, sweeping and concurrent claims.

package dedupe

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClock is a settable time source.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.t = f.t.Add(d)
}

func newTestCache(t *testing.T, ttl time.Duration, size int) (*Cache, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	c := New(ttl, size, WithClock(clock.Now))
	t.Cleanup(c.Close)
	return c, clock
}

func TestCache_ClaimNewKey(t *testing.T) {
	c, _ := newTestCache(t, time.Minute, 10)

	assert.False(t, c.Claimed("s1"))
	assert.True(t, c.Claim("s1"), "first claim wins")
	assert.True(t, c.Claimed("s1"))
	assert.False(t, c.Claim("s1"), "second claim loses")
}

func TestCache_ClaimExpires(t *testing.T) {
	c, clock := newTestCache(t, time.Minute, 10)

	assert.True(t, c.Claim("s1"))

	clock.Advance(59 * time.Second)
	assert.False(t, c.Claim("s1"))

	clock.Advance(time.Second)
	assert.False(t, c.Claimed("s1"))
	assert.True(t, c.Claim("s1"), "expired claim can be retaken")
}

func TestCache_Release(t *testing.T) {
	c, _ := newTestCache(t, time.Minute, 10)

	c.Claim("s1")
	c.Release("s1")

	assert.False(t, c.Claimed("s1"))
	assert.Equal(t, 0, c.Len())
	assert.True(t, c.Claim("s1"))

	// Releasing an unknown key is a no-op.
	c.Release("nope")
	assert.Equal(t, 1, c.Len())
}

func TestCache_DropsOldestWhenFull(t *testing.T) {
	c, clock := newTestCache(t, time.Hour, 3)

	for _, k := range []string{"first", "second", "third"} {
		c.Claim(k)
		clock.Advance(time.Second)
	}
	c.Claim("fourth")

	assert.False(t, c.Claimed("first"), "oldest claim dropped")
	assert.True(t, c.Claimed("second"))
	assert.True(t, c.Claimed("fourth"))
	assert.Equal(t, 3, c.Len())

	c.Claim("fifth")
	assert.False(t, c.Claimed("second"))
	assert.True(t, c.Claimed("third"))
}

func TestCache_Sweep(t *testing.T) {
	c, clock := newTestCache(t, time.Minute, 10)

	c.Claim("old-1")
	c.Claim("old-2")
	clock.Advance(30 * time.Second)
	c.Claim("young")
	clock.Advance(45 * time.Second)

	c.sweep()

	assert.Equal(t, 1, c.Len())
	assert.True(t, c.Claimed("young"))
}

func TestCache_SweepAfterRetake(t *testing.T) {
	c, clock := newTestCache(t, time.Minute, 10)

	c.Claim("a")
	c.Claim("b")
	clock.Advance(2 * time.Minute)
	c.Claim("a") // expired, so retaken and moved to the back

	c.sweep()

	assert.True(t, c.Claimed("a"))
	assert.False(t, c.Claimed("b"))
	assert.Equal(t, 1, c.Len())
}

func TestCache_ConcurrentClaimHasOneWinner(t *testing.T) {
	c := New(5*time.Minute, 100)
	defer c.Close()

	var winners atomic.Int32
	var wg sync.WaitGroup
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if c.Claim("contested") {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), winners.Load())
}

func TestCache_ConcurrentMixedUse(t *testing.T) {
	c := New(5*time.Minute, 50)
	defer c.Close()

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := range 100 {
				key := fmt.Sprintf("k-%d-%d", id%5, j%10)
				if c.Claim(key) {
					c.Release(key)
				}
				c.Claimed(key)
			}
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Len(), 50)
	assert.True(t, c.Claim("final"))
}

func TestCache_CloseTwice(t *testing.T) {
	c := New(time.Minute, 10)
	c.Close()
	c.Close()
}

func TestSweepInterval(t *testing.T) {
	assert.Equal(t, 10*time.Second, sweepInterval(10*time.Second))
	assert.Equal(t, time.Minute, sweepInterval(time.Hour))
	assert.Equal(t, time.Minute, sweepInterval(0))
}
