package cache

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestLRUCache_EvictsOldest(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected a")
	}
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted as least recently used")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("a = %v, %v", v, ok)
	}
	if c.Size() != 2 {
		t.Errorf("Size() = %d, want 2", c.Size())
	}
}

func TestLRUCache_TTL(t *testing.T) {
	now := time.Date(2024, 8, 1, 12, 0, 0, 0, time.UTC)
	c := NewLRUCache[string](10, 30*time.Second)
	c.now = func() time.Time { return now }

	c.Set("k", "v")
	c.Set("other", "v")
	now = now.Add(31 * time.Second)

	if _, ok := c.Get("k"); ok {
		t.Error("expected k to be expired")
	}
	if n := c.CleanExpired(); n != 1 {
		t.Errorf("CleanExpired() = %d, want 1", n)
	}
	if c.Size() != 0 {
		t.Errorf("Size() = %d, want 0", c.Size())
	}
}

func TestLRUCache_EvictHook(t *testing.T) {
	var evicted []string
	c := NewLRUCache[int](2, 0, WithEvict(func(key string, _ int) {
		evicted = append(evicted, key)
	}))

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)
	c.Delete("b")
	c.Set("d", 4)
	c.Clear()

	want := []string{"a", "d", "c"}
	if len(evicted) != len(want) {
		t.Fatalf("evicted = %v, want %v", evicted, want)
	}
	for i := range want {
		if evicted[i] != want[i] {
			t.Errorf("evicted[%d] = %q, want %q", i, evicted[i], want[i])
		}
	}
}

func TestLRUCache_GetOrAdd(t *testing.T) {
	c := NewLRUCache[int](4, 0)
	calls := 0
	create := func() int { calls++; return calls }

	v, existed := c.GetOrAdd("k", create)
	if existed || v != 1 {
		t.Errorf("first GetOrAdd = %d, %v", v, existed)
	}
	v, existed = c.GetOrAdd("k", create)
	if !existed || v != 1 || calls != 1 {
		t.Errorf("second GetOrAdd = %d, %v (calls %d)", v, existed, calls)
	}
}

func TestLRUCache_SlidingTTL(t *testing.T) {
	now := time.Date(2024, 8, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	fixed := NewLRUCache[int](4, time.Minute, WithClock[int](clock))
	sliding := NewLRUCache[int](4, time.Minute, WithClock[int](clock), WithSlidingTTL[int]())

	fixed.Set("k", 1)
	sliding.Set("k", 1)
	for i := 0; i < 3; i++ {
		now = now.Add(40 * time.Second)
		sliding.Get("k")
	}

	if _, ok := sliding.Get("k"); !ok {
		t.Error("sliding entry expired although it kept being read")
	}
	if _, ok := fixed.Get("k"); ok {
		t.Error("fixed entry should expire a minute after Set")
	}
}

func TestManager_CleanNow(t *testing.T) {
	now := time.Now()
	c := NewLRUCache[int](10, time.Second)
	c.now = func() time.Time { return now }
	c.Set("x", 1)
	now = now.Add(2 * time.Second)

	m := NewManager(nil)
	m.Register(c)
	if n := m.CleanNow(); n != 1 {
		t.Errorf("CleanNow() = %d, want 1", n)
	}

	m.StartCleanup(time.Millisecond)
	m.Stop()
	m.Stop()
}

func TestLRUStore(t *testing.T) {
	ctx := context.Background()
	s := NewLRUStore(8, time.Minute)

	if err := s.Set(ctx, PeriodsKey(1), []byte(`[]`)); err != nil {
		t.Fatal(err)
	}
	if err := s.Set(ctx, TransactionsKey(1), []byte(`[1]`)); err != nil {
		t.Fatal(err)
	}
	if data, ok, _ := s.Get(ctx, PeriodsKey(1)); !ok || string(data) != "[]" {
		t.Fatalf("Get = %q, %v", data, ok)
	}

	if err := s.Delete(ctx, UnitKeys(1)...); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := s.Get(ctx, TransactionsKey(1)); ok {
		t.Error("expected unit keys to be invalidated")
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestParseRedisURL(t *testing.T) {
	tests := []struct {
		in   string
		addr string
		db   int
	}{
		{"redis:6379", "redis:6379", 0},
		{"redis://localhost:6380/2", "localhost:6380", 2},
	}
	for _, tt := range tests {
		opt, err := ParseRedisURL(tt.in)
		if err != nil {
			t.Fatalf("ParseRedisURL(%q): %v", tt.in, err)
		}
		if opt.Addr != tt.addr || opt.DB != tt.db {
			t.Errorf("ParseRedisURL(%q) = %s/%d", tt.in, opt.Addr, opt.DB)
		}
	}
}

func TestRedisStore_Integration(t *testing.T) {
	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		t.Skip("REDIS_TEST_URL not set")
	}
	ctx := context.Background()
	s, err := NewRedisStore(ctx, url, "clubdash-test:", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	key := TransactionsKey(time.Now().UnixNano())
	if _, ok, err := s.Get(ctx, key); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
	if err := s.Set(ctx, key, []byte("payload")); err != nil {
		t.Fatal(err)
	}
	if data, ok, err := s.Get(ctx, key); err != nil || !ok || string(data) != "payload" {
		t.Fatalf("Get = %q %v %v", data, ok, err)
	}
	if err := s.Delete(ctx, key); err != nil {
		t.Fatal(err)
	}
}
