// Package cache provides a Dragonfly/Redis client wrapper and a distributed mutex.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Cache wraps a Redis/Dragonfly client.
type Cache struct {
	Client *redis.Client
}

// ParseURL validates a Redis connection URL.
func ParseURL(url string) (*redis.Options, error) {
	if url == "" {
		return nil, fmt.Errorf("cache URL is empty")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid cache URL: %w", err)
	}
	return opts, nil
}

// New creates a new cache client.
func New(ctx context.Context, url string) (*Cache, error) {
	opts, err := ParseURL(url)
	if err != nil {
		return nil, err
	}

	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging cache: %w", err)
	}

	return &Cache{Client: client}, nil
}

// Close shuts down the cache client.
func (c *Cache) Close() error {
	return c.Client.Close()
}

// HealthCheck verifies the cache connection is alive.
func (c *Cache) HealthCheck(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

const (
	defaultMutexTTL    = 30 * time.Second
	mutexRetryInterval = 50 * time.Millisecond
)

// unlockScript deletes the key only while it still holds the caller's token.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Mutex is a distributed lock held with SET NX PX. The TTL bounds how long
// a crashed holder can block others.
type Mutex struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewMutex creates a Mutex on key. A non-positive ttl uses 30s.
func (c *Cache) NewMutex(key string, ttl time.Duration) *Mutex {
	if ttl <= 0 {
		ttl = defaultMutexTTL
	}
	return &Mutex{client: c.Client, key: key, ttl: ttl}
}

// Lock blocks until the key is acquired or ctx is done.
func (m *Mutex) Lock(ctx context.Context) (func(), error) {
	token := uuid.NewString()
	for {
		ok, err := m.client.SetNX(ctx, m.key, token, m.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lock %s: %w", m.key, err)
		}
		if ok {
			return func() { m.release(token) }, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("acquire lock %s: %w", m.key, ctx.Err())
		case <-time.After(mutexRetryInterval):
		}
	}
}

func (m *Mutex) release(token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := unlockScript.Run(ctx, m.client, []string{m.key}, token).Err(); err != nil {
		slog.Warn("release lock failed", "key", m.key, "error", err)
	}
}
