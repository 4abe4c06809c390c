package rediscache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/goliatone/go-tplengine/pkg/cache"
	"github.com/goliatone/go-tplengine/pkg/model"
	"github.com/goliatone/go-tplengine/pkg/template"
)

const (
	defaultPrefix  = "tplengine:"
	defaultTimeout = 2 * time.Second
)

// Option customises the Redis cache.
type Option func(*Cache)

// WithPrefix namespaces every key written by the cache.
func WithPrefix(prefix string) Option {
	return func(c *Cache) {
		if prefix != "" {
			c.prefix = prefix
		}
	}
}

// WithTTL expires entries after ttl. Templates with their own TTL validity
// use the shorter of both.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		c.ttl = ttl
	}
}

// WithTimeout bounds every Redis round trip.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Cache) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithLogger reports Redis failures, which the cache contract swallows.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Cache is a cache.Cache backed by Redis. Entries live under
// <prefix>entry:<sha256 of the canonical key>; the hash <prefix>keys maps
// each digest to its JSON key so Keys can produce a snapshot. Failures are
// logged and reported as misses.
type Cache struct {
	client  redis.UniversalClient
	prefix  string
	ttl     time.Duration
	timeout time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

var _ cache.Cache = (*Cache)(nil)

// New wraps client.
func New(client redis.UniversalClient, options ...Option) *Cache {
	c := &Cache{
		client:  client,
		prefix:  defaultPrefix,
		timeout: defaultTimeout,
		logger:  slog.New(slog.DiscardHandler),
		now:     time.Now,
	}
	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Get loads and decodes the entry for key.
func (c *Cache) Get(key cache.Key) (*model.Model, bool) {
	ctx, cancel := c.context()
	defer cancel()

	digest := c.digest(key)
	data, err := c.client.Get(ctx, c.entryKey(digest)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("redis cache get failed", slog.String("key", key.String()), slog.Any("error", err))
		}
		return nil, false
	}
	_, m, storedAt, err := decode(data)
	if err != nil {
		c.logger.Warn("redis cache entry unreadable", slog.String("key", key.String()), slog.Any("error", err))
		c.remove(ctx, digest)
		return nil, false
	}
	if !m.Descriptor().Validity.StillValid(storedAt) {
		c.remove(ctx, digest)
		return nil, false
	}
	return m, true
}

// Put encodes m and stores it under key. Models whose validity relies on a
// resolver check, like the file resolver's modification time test, are not
// stored since the check cannot be rebuilt from Redis.
func (c *Cache) Put(key cache.Key, m *model.Model) {
	if m == nil {
		return
	}
	ctx, cancel := c.context()
	defer cancel()

	data, err := encode(key, m, c.now())
	if errors.Is(err, ErrValidityNotPortable) {
		// A previous entry for key may no longer match the template.
		c.logger.Debug("redis cache skipped entry", slog.String("key", key.String()), slog.Any("error", err))
		c.remove(ctx, c.digest(key))
		return
	}
	if err != nil {
		c.logger.Warn("redis cache put failed", slog.String("key", key.String()), slog.Any("error", err))
		return
	}
	rawKey, err := json.Marshal(key)
	if err != nil {
		c.logger.Warn("redis cache put failed", slog.String("key", key.String()), slog.Any("error", err))
		return
	}

	digest := c.digest(key)
	pipe := c.client.TxPipeline()
	pipe.Set(ctx, c.entryKey(digest), data, c.expiry(m.Descriptor().Validity))
	pipe.HSet(ctx, c.indexKey(), digest, rawKey)
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Warn("redis cache put failed", slog.String("key", key.String()), slog.Any("error", err))
	}
}

// Delete removes key.
func (c *Cache) Delete(key cache.Key) {
	ctx, cancel := c.context()
	defer cancel()
	c.remove(ctx, c.digest(key))
}

// Clear removes every entry listed in the index.
func (c *Cache) Clear() {
	ctx, cancel := c.context()
	defer cancel()

	digests, err := c.client.HKeys(ctx, c.indexKey()).Result()
	if err != nil {
		c.logger.Warn("redis cache clear failed", slog.Any("error", err))
		return
	}
	keys := make([]string, 0, len(digests)+1)
	for _, digest := range digests {
		keys = append(keys, c.entryKey(digest))
	}
	keys = append(keys, c.indexKey())
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("redis cache clear failed", slog.Any("error", err))
	}
}

// Keys returns the keys recorded in the index. Entries that already expired
// may still be listed until the next Get or Delete.
func (c *Cache) Keys() []cache.Key {
	ctx, cancel := c.context()
	defer cancel()

	index, err := c.client.HGetAll(ctx, c.indexKey()).Result()
	if err != nil {
		c.logger.Warn("redis cache keys failed", slog.Any("error", err))
		return nil
	}
	keys := make([]cache.Key, 0, len(index))
	for _, raw := range index {
		var key cache.Key
		if err := json.Unmarshal([]byte(raw), &key); err != nil {
			continue
		}
		keys = append(keys, key)
	}
	return keys
}

func (c *Cache) remove(ctx context.Context, digest string) {
	pipe := c.client.TxPipeline()
	pipe.Del(ctx, c.entryKey(digest))
	pipe.HDel(ctx, c.indexKey(), digest)
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Warn("redis cache delete failed", slog.String("digest", digest), slog.Any("error", err))
	}
}

func (c *Cache) expiry(validity template.Validity) time.Duration {
	ttl := c.ttl
	if v, ok := validity.(template.TTLValidity); ok && v.TTL > 0 && (ttl == 0 || v.TTL < ttl) {
		ttl = v.TTL
	}
	return ttl
}

func (c *Cache) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), c.timeout)
}

func (c *Cache) digest(key cache.Key) string {
	sum := sha256.Sum256([]byte(key.String()))
	return hex.EncodeToString(sum[:])
}

func (c *Cache) entryKey(digest string) string {
	return c.prefix + "entry:" + digest
}

func (c *Cache) indexKey() string {
	return c.prefix + "keys"
}
