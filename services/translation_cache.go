package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const translationKeyPrefix = "portfolio:translation"

// TranslationCache stores finished translations so repeated requests skip the upstream call.
type TranslationCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

type cmdable interface {
	Ping(context.Context) *redis.StatusCmd
	Get(context.Context, string) *redis.StringCmd
	Set(context.Context, string, any, time.Duration) *redis.StatusCmd
}

// RedisTranslationCache keeps translations in Redis with a fixed TTL.
type RedisTranslationCache struct {
	store cmdable
	raw   *redis.Client
	ttl   time.Duration
}

// NewRedisTranslationCache parses the URL, connects and verifies the connection with a ping.
func NewRedisTranslationCache(ctx context.Context, redisURL string, ttl time.Duration) (*RedisTranslationCache, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, errors.New("redis url is required")
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisTranslationCache{store: raw, raw: raw, ttl: ttl}, nil
}

func (c *RedisTranslationCache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.store.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, true, nil
}

func (c *RedisTranslationCache) Set(ctx context.Context, key, value string) error {
	if err := c.store.Set(ctx, key, value, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (c *RedisTranslationCache) Close() error {
	if c == nil || c.raw == nil {
		return nil
	}
	return c.raw.Close()
}

// TranslationCacheKey hashes everything that determines the output of a translation.
func TranslationCacheKey(engine string, req TranslateRequest) string {
	h := sha256.New()
	for _, part := range []string{engine, req.SourceLanguage, req.TargetLanguage, req.Text} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return translationKeyPrefix + ":" + hex.EncodeToString(h.Sum(nil))
}
