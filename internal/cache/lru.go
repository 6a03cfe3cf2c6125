package cache

import (
	"container/list"
	"sync"
	"time"
)

// LRUCache is an in-process cache bounded by entry count, with an optional
// TTL counted from the last Set (or from the last access with
// WithSlidingTTL). A TTL of zero keeps entries until they are pushed out.
type LRUCache[T any] struct {
	mu      sync.Mutex
	limit   int
	ttl     time.Duration
	sliding bool
	now     func() time.Time
	onEvict func(key string, v T)
	index   map[string]*list.Element
	order   *list.List // front is most recently used
}

var _ Cache[[]byte] = (*LRUCache[[]byte])(nil)

type entry[T any] struct {
	key     string
	val     T
	expires time.Time
}

// LRUOption customizes an LRUCache.
type LRUOption[T any] func(*LRUCache[T])

// WithEvict registers fn to run for every entry that leaves the cache other
// than through Delete: capacity pressure, expiry and Clear. fn runs after
// the cache lock is released.
func WithEvict[T any](fn func(key string, v T)) LRUOption[T] {
	return func(c *LRUCache[T]) { c.onEvict = fn }
}

// WithSlidingTTL makes every Get extend the entry's lifetime.
func WithSlidingTTL[T any]() LRUOption[T] {
	return func(c *LRUCache[T]) { c.sliding = true }
}

// WithClock replaces time.Now, for tests.
func WithClock[T any](now func() time.Time) LRUOption[T] {
	return func(c *LRUCache[T]) { c.now = now }
}

func NewLRUCache[T any](limit int, ttl time.Duration, opts ...LRUOption[T]) *LRUCache[T] {
	if limit <= 0 {
		limit = 1
	}
	c := &LRUCache[T]{
		limit: limit,
		ttl:   ttl,
		now:   time.Now,
		index: make(map[string]*list.Element),
		order: list.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *LRUCache[T]) expired(e *entry[T], now time.Time) bool {
	return c.ttl > 0 && now.After(e.expires)
}

func (c *LRUCache[T]) deadline(now time.Time) time.Time {
	if c.ttl <= 0 {
		return time.Time{}
	}
	return now.Add(c.ttl)
}

// Get returns the live value for key and marks it recently used.
func (c *LRUCache[T]) Get(key string) (T, bool) {
	var zero T
	c.mu.Lock()
	el, ok := c.index[key]
	if !ok {
		c.mu.Unlock()
		return zero, false
	}
	e := el.Value.(*entry[T])
	now := c.now()
	if c.expired(e, now) {
		c.unlink(el)
		c.mu.Unlock()
		c.evicted(e)
		return zero, false
	}
	if c.sliding {
		e.expires = c.deadline(now)
	}
	c.order.MoveToFront(el)
	c.mu.Unlock()
	return e.val, true
}

// GetOrAdd returns the live value for key, or stores and returns create()
// when there is none. The bool reports whether the value already existed.
func (c *LRUCache[T]) GetOrAdd(key string, create func() T) (T, bool) {
	if v, ok := c.Get(key); ok {
		return v, true
	}
	c.mu.Lock()
	if el, ok := c.index[key]; ok {
		// Added by a concurrent caller in between.
		e := el.Value.(*entry[T])
		c.order.MoveToFront(el)
		c.mu.Unlock()
		return e.val, true
	}
	v := create()
	out := c.insertLocked(key, v)
	c.mu.Unlock()
	c.evicted(out...)
	return v, false
}

// Set stores data under key, replacing any previous value.
func (c *LRUCache[T]) Set(key string, data T) {
	c.mu.Lock()
	if el, ok := c.index[key]; ok {
		e := el.Value.(*entry[T])
		e.val = data
		e.expires = c.deadline(c.now())
		c.order.MoveToFront(el)
		c.mu.Unlock()
		return
	}
	out := c.insertLocked(key, data)
	c.mu.Unlock()
	c.evicted(out...)
}

func (c *LRUCache[T]) insertLocked(key string, v T) []*entry[T] {
	c.index[key] = c.order.PushFront(&entry[T]{key: key, val: v, expires: c.deadline(c.now())})
	var out []*entry[T]
	for c.order.Len() > c.limit {
		out = append(out, c.unlink(c.order.Back()))
	}
	return out
}

// Delete removes key without calling the eviction hook.
func (c *LRUCache[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.index[key]; ok {
		c.unlink(el)
	}
}

// Clear empties the cache, handing every entry to the eviction hook.
func (c *LRUCache[T]) Clear() {
	c.mu.Lock()
	out := make([]*entry[T], 0, c.order.Len())
	for el := c.order.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value.(*entry[T]))
	}
	c.index = make(map[string]*list.Element)
	c.order.Init()
	c.mu.Unlock()
	c.evicted(out...)
}

// CleanExpired drops expired entries and returns how many went.
func (c *LRUCache[T]) CleanExpired() int {
	if c.ttl <= 0 {
		return 0
	}
	c.mu.Lock()
	now := c.now()
	var out []*entry[T]
	for el := c.order.Front(); el != nil; {
		next := el.Next()
		if c.expired(el.Value.(*entry[T]), now) {
			out = append(out, c.unlink(el))
		}
		el = next
	}
	c.mu.Unlock()
	c.evicted(out...)
	return len(out)
}

func (c *LRUCache[T]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.index)
}

func (c *LRUCache[T]) unlink(el *list.Element) *entry[T] {
	e := c.order.Remove(el).(*entry[T])
	delete(c.index, e.key)
	return e
}

func (c *LRUCache[T]) evicted(out ...*entry[T]) {
	if c.onEvict == nil {
		return
	}
	for _, e := range out {
		c.onEvict(e.key, e.val)
	}
}
