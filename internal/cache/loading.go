package cache

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Loading fronts a Cache with a loader. Concurrent misses for one key share a
// single load.
type Loading[T any] struct {
	cache Cache[T]
	group singleflight.Group

	mu  sync.Mutex
	gen map[string]uint64
}

func NewLoading[T any](c Cache[T]) *Loading[T] {
	return &Loading[T]{cache: c, gen: make(map[string]uint64)}
}

// Get returns the cached value for key or loads, stores and returns it.
// Load errors are returned and not cached. A load that overlaps an
// Invalidate of the same key is returned to its callers but not stored.
func (l *Loading[T]) Get(ctx context.Context, key string, load func(context.Context) (T, error)) (T, error) {
	if v, ok := l.cache.Get(key); ok {
		return v, nil
	}
	v, err, _ := l.group.Do(key, func() (any, error) {
		if v, ok := l.cache.Get(key); ok {
			return v, nil
		}
		gen := l.generation(key)
		v, err := load(ctx)
		if err != nil {
			return v, err
		}
		l.store(key, gen, v)
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// Invalidate drops key so the next Get reloads it.
func (l *Loading[T]) Invalidate(key string) {
	l.mu.Lock()
	l.gen[key]++
	l.cache.Delete(key)
	l.mu.Unlock()
	l.group.Forget(key)
}

func (l *Loading[T]) generation(key string) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.gen[key]
}

func (l *Loading[T]) store(key string, gen uint64, v T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.gen[key] != gen {
		return
	}
	l.cache.Set(key, v)
}
