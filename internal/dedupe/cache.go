// ABOUTME: Thread-safe TTL claim cache for scheduled-item delivery.
// ABOUTME: A dispatcher claims an item key before delivering it so overlapping runs never deliver twice.

package dedupe

import (
	"container/list"
	"sync"
	"time"
)

// claim is the time a key was taken and its position in the claim order.
type claim struct {
	at      time.Time
	element *list.Element
}

// Cache records claimed keys for a limited time. When full, the oldest claim
// is dropped to make room. Safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	claims  map[string]*claim
	order   *list.List // oldest claim at front
	ttl     time.Duration
	maxSize int
	now     func() time.Time
	done    chan struct{}
	closed  bool
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New creates a claim cache. Claims older than ttl are forgotten; at most
// maxSize claims are held. A background goroutine sweeps expired claims until
// Close is called.
func New(ttl time.Duration, maxSize int, opts ...Option) *Cache {
	c := &Cache{
		claims:  make(map[string]*claim),
		order:   list.New(),
		ttl:     ttl,
		maxSize: maxSize,
		now:     time.Now,
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	go c.sweepLoop(sweepInterval(ttl))
	return c
}

func sweepInterval(ttl time.Duration) time.Duration {
	if ttl > 0 && ttl < time.Minute {
		return ttl
	}
	return time.Minute
}

// Claimed reports whether key holds a live claim.
func (c *Cache) Claimed(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.liveLocked(key)
}

// Claim takes key if nobody holds a live claim on it. It returns true when
// the caller now owns the key and false when the key was already claimed.
func (c *Cache) Claim(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.liveLocked(key) {
		return false
	}
	c.takeLocked(key)
	return true
}

// Release drops the claim on key so a later run may retry it.
func (c *Cache) Release(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cl, ok := c.claims[key]; ok {
		c.order.Remove(cl.element)
		delete(c.claims, key)
	}
}

// Len returns the number of held claims, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.claims)
}

func (c *Cache) liveLocked(key string) bool {
	cl, ok := c.claims[key]
	return ok && c.now().Sub(cl.at) < c.ttl
}

// takeLocked records a fresh claim. Must be called with mu held.
func (c *Cache) takeLocked(key string) {
	now := c.now()

	if cl, ok := c.claims[key]; ok {
		cl.at = now
		c.order.MoveToBack(cl.element)
		return
	}

	if len(c.claims) >= c.maxSize {
		c.dropOldest()
	}

	c.claims[key] = &claim{at: now, element: c.order.PushBack(key)}
}

// dropOldest removes the front of the claim order. Must be called with mu held.
func (c *Cache) dropOldest() {
	front := c.order.Front()
	if front == nil {
		return
	}
	key, _ := front.Value.(string)
	c.order.Remove(front)
	delete(c.claims, key)
}

func (c *Cache) sweepLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.sweep()
		case <-c.done:
			return
		}
	}
}

// sweep removes expired claims. Claims are ordered by time, so it stops at
// the first live one.
func (c *Cache) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for e := c.order.Front(); e != nil; {
		key, _ := e.Value.(string)
		cl := c.claims[key]
		if now.Sub(cl.at) < c.ttl {
			return
		}
		next := e.Next()
		c.order.Remove(e)
		delete(c.claims, key)
		e = next
	}
}

// Close stops the sweeper. It is safe to call more than once.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		close(c.done)
		c.closed = true
	}
}
