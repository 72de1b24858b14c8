package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestLRUCacheExpiresAndEvicts(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 10, 17, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCacheWithClock[int](2, time.Minute, clock.Now)

	c.Set("a", 1)
	c.Set("b", 2)
	if _, ok := c.Get("a"); !ok { // a becomes most recent
		t.Fatal("expected hit for a")
	}
	c.Set("c", 3) // evicts b
	if _, ok := c.Get("b"); ok {
		t.Fatal("expected b to be evicted")
	}
	if c.Size() != 2 {
		t.Fatalf("expected size 2, got %d", c.Size())
	}

	clock.Advance(time.Minute)
	if _, ok := c.Get("a"); ok {
		t.Fatal("expected a to be expired")
	}
	if n := c.CleanExpired(); n != 1 {
		t.Fatalf("expected 1 expired entry cleaned, got %d", n)
	}
	if c.Size() != 0 {
		t.Fatalf("expected empty cache, got %d", c.Size())
	}
}

func TestLoadingCollapsesConcurrentMisses(t *testing.T) {
	l := NewLoading[string](NewLRUCache[string](10, time.Minute))
	var calls int32
	release := make(chan struct{})

	load := func(context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return "stats", nil
	}

	var wg sync.WaitGroup
	results := make([]string, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := l.Get(context.Background(), "u1", load)
			if err != nil {
				t.Errorf("get: %v", err)
			}
			results[i] = v
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected a single load, got %d", got)
	}
	for i, v := range results {
		if v != "stats" {
			t.Fatalf("result %d = %q", i, v)
		}
	}

	// cached now
	if _, err := l.Get(context.Background(), "u1", load); err != nil || atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("expected cache hit, calls=%d err=%v", calls, err)
	}
}

func TestLoadingDoesNotCacheErrorsAndInvalidates(t *testing.T) {
	l := NewLoading[int](NewLRUCache[int](10, time.Minute))
	boom := errors.New("boom")

	if _, err := l.Get(context.Background(), "k", func(context.Context) (int, error) { return 0, boom }); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	v, err := l.Get(context.Background(), "k", func(context.Context) (int, error) { return 7, nil })
	if err != nil || v != 7 {
		t.Fatalf("expected 7, got %d %v", v, err)
	}

	l.Invalidate("k")
	v, _ = l.Get(context.Background(), "k", func(context.Context) (int, error) { return 8, nil })
	if v != 8 {
		t.Fatalf("expected reload after invalidate, got %d", v)
	}
}

func TestLoadingSkipsStoreWhenInvalidatedDuringLoad(t *testing.T) {
	l := NewLoading[int](NewLRUCache[int](10, time.Minute))
	started := make(chan struct{})
	release := make(chan struct{})

	done := make(chan int)
	go func() {
		v, _ := l.Get(context.Background(), "u1", func(context.Context) (int, error) {
			close(started)
			<-release
			return 1, nil
		})
		done <- v
	}()

	<-started
	l.Invalidate("u1")
	close(release)
	if v := <-done; v != 1 {
		t.Fatalf("in-flight caller got %d, want 1", v)
	}

	v, err := l.Get(context.Background(), "u1", func(context.Context) (int, error) { return 2, nil })
	if err != nil || v != 2 {
		t.Fatalf("expected reload to 2 after invalidate, got %d %v", v, err)
	}
}

func TestManagerStops(t *testing.T) {
	m := NewManager(nil)
	m.Register(NewLRUCache[int](1, time.Millisecond))
	m.StartCleanup(time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	m.Stop()
}
