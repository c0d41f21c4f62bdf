package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Options configures the Redis store client.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// Store wraps a Redis client with the operations the liveness pipeline needs:
// expiring markers, per-author lists, prefix scans, and key-expiry events.
type Store struct {
	client *redis.Client
	db     int
}

// Open connects to Redis and enables keyspace expiry notifications
// (notify-keyspace-events "Ex"). The CONFIG SET is best-effort: managed Redis
// offerings commonly reject it, in which case the operator must enable the
// flag out of band or marker expiries will never be observed.
func Open(ctx context.Context, opts Options) (*Store, error) {
	if opts.Addr == "" {
		return nil, errors.New("redis: Options.Addr is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", opts.Addr, err)
	}
	_ = client.ConfigSet(ctx, "notify-keyspace-events", "Ex").Err()
	return &Store{client: client, db: opts.DB}, nil
}

// Close releases the client and any open subscriptions.
func (s *Store) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Set writes a string key with the given TTL, overwriting value and expiry.
// ttl <= 0 stores without expiry.
func (s *Store) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = 0
	}
	return s.client.Set(ctx, key, value, ttl).Err()
}

// Get reads a string key. Returns ok=false when the key is absent or expired.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// Del removes a key.
func (s *Store) Del(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

// Append pushes a value onto the right end of the list at key. Concurrent
// appends to the same list are serialized by Redis and both land.
func (s *Store) Append(ctx context.Context, key string, value []byte) error {
	return s.client.RPush(ctx, key, value).Err()
}

// PopAll atomically removes and returns the first n entries of the list at
// key, where n is the length observed at call time. Entries appended after
// the length read belong to the next drain. An absent list yields nil.
func (s *Store) PopAll(ctx context.Context, key string) ([][]byte, error) {
	n, err := s.client.LLen(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	vals, err := s.client.LPopCount(ctx, key, int(n)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	out := make([][]byte, 0, len(vals))
	for _, v := range vals {
		out = append(out, []byte(v))
	}
	return out, nil
}

// ScanValues walks keys matching prefix* and returns their string values.
// Keys that disappear between scan and read are skipped, not errors.
func (s *Store) ScanValues(ctx context.Context, prefix string) ([]string, error) {
	var out []string
	iter := s.client.Scan(ctx, 0, prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		v, ok, err := s.Get(ctx, iter.Val())
		if err != nil {
			return out, err
		}
		if ok {
			out = append(out, v)
		}
	}
	if err := iter.Err(); err != nil {
		return out, err
	}
	return out, nil
}

// ExpirySubscription delivers the names of keys that expired naturally.
type ExpirySubscription struct {
	pubsub *redis.PubSub
	keys   chan string
}

// Keys returns the channel of expired key names. It is closed when the
// subscription ends.
func (e *ExpirySubscription) Keys() <-chan string { return e.keys }

// Close tears the subscription down.
func (e *ExpirySubscription) Close() error { return e.pubsub.Close() }

// SubscribeExpired subscribes to the keyspace expired-event channel for the
// store's database and streams expired key names until ctx is done or the
// subscription is closed.
func (s *Store) SubscribeExpired(ctx context.Context) *ExpirySubscription {
	pattern := fmt.Sprintf("__keyevent@%d__:expired", s.db)
	pubsub := s.client.PSubscribe(ctx, pattern)
	sub := &ExpirySubscription{pubsub: pubsub, keys: make(chan string, 64)}
	go func() {
		defer close(sub.keys)
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				select {
				case sub.keys <- msg.Payload:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return sub
}
