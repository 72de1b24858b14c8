package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Bucket is the key-value surface the store is written against.
type Bucket interface {
	// Get returns nil, nil for a missing key.
	Get(ctx context.Context, key string) ([]byte, error)
	// Update replaces the value at key with fn(current) atomically with
	// respect to other writers of the same key.
	Update(ctx context.Context, key string, fn func(current []byte) ([]byte, error)) error
	Ping(ctx context.Context) error
	Close() error
}

// ErrContention is returned when an optimistic update keeps losing races.
var ErrContention = errors.New("kv: too much write contention")

const maxUpdateRetries = 10

// RedisBucket stores values in Redis under a key prefix.
type RedisBucket struct {
	client *redis.Client
	prefix string
}

type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

func NewRedisBucket(opts RedisOptions) *RedisBucket {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return &RedisBucket{client: client, prefix: opts.Prefix}
}

func (b *RedisBucket) key(k string) string { return b.prefix + k }

func (b *RedisBucket) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := b.client.Get(ctx, b.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return v, nil
}

// Update uses WATCH/MULTI so concurrent processes never lose an append.
func (b *RedisBucket) Update(ctx context.Context, key string, fn func([]byte) ([]byte, error)) error {
	full := b.key(key)
	txf := func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, full).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		next, err := fn(cur)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, full, next, 0)
			return nil
		})
		return err
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := b.client.Watch(ctx, txf, full)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("update %s: %w", key, ErrContention)
}

func (b *RedisBucket) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

func (b *RedisBucket) Close() error {
	return b.client.Close()
}
