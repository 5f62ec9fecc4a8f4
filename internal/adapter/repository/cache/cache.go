// Package cache keeps URL records in Redis in front of the primary store.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vadimbarashkov/shortlink/internal/entity"
	"github.com/vadimbarashkov/shortlink/internal/usecase"
)

const (
	keyPrefix      = "url:"
	notFoundMarker = "-"

	defaultTTL         = time.Hour
	defaultNotFoundTTL = time.Minute
)

type cachedURL struct {
	ShortCode   string    `json:"id"`
	OriginalURL string    `json:"url"`
	CreatedAt   time.Time `json:"created_at"`
}

// URLCache is a cache-aside decorator over a URLRepository. URL records never
// change once written, so a cached entry is valid until it expires. Redis
// failures degrade to the next repository and are only logged.
type URLCache struct {
	client      redis.Cmdable
	next        usecase.URLRepository
	ttl         time.Duration
	notFoundTTL time.Duration
	logger      *slog.Logger
}

type Option func(*URLCache)

func WithTTL(d time.Duration) Option {
	return func(c *URLCache) {
		if d > 0 {
			c.ttl = d
		}
	}
}

// WithNotFoundTTL sets how long an unknown short code is remembered.
func WithNotFoundTTL(d time.Duration) Option {
	return func(c *URLCache) {
		if d > 0 {
			c.notFoundTTL = d
		}
	}
}

func NewURLCache(client redis.Cmdable, next usecase.URLRepository, logger *slog.Logger, opts ...Option) *URLCache {
	c := &URLCache{
		client:      client,
		next:        next,
		ttl:         defaultTTL,
		notFoundTTL: defaultNotFoundTTL,
		logger:      logger,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func key(shortCode string) string {
	return keyPrefix + shortCode
}

// Save writes through to the next repository and caches the stored record.
func (c *URLCache) Save(ctx context.Context, shortCode, originalURL string) (*entity.URL, error) {
	const op = "adapter.repository.cache.URLCache.Save"

	url, err := c.next.Save(ctx, shortCode, originalURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	c.store(ctx, url)

	return url, nil
}

func (c *URLCache) RetrieveByShortCode(ctx context.Context, shortCode string) (*entity.URL, error) {
	const op = "adapter.repository.cache.URLCache.RetrieveByShortCode"

	data, err := c.client.Get(ctx, key(shortCode)).Result()
	switch {
	case err == nil:
		if data == notFoundMarker {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
		}

		var cached cachedURL
		if err := json.Unmarshal([]byte(data), &cached); err == nil {
			return &entity.URL{
				ShortCode:   cached.ShortCode,
				OriginalURL: cached.OriginalURL,
				CreatedAt:   cached.CreatedAt,
			}, nil
		}

		c.logger.Warn("dropping malformed cache entry", slog.String("op", op), slog.String("short_code", shortCode))
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("cache read failed", slog.String("op", op), slog.Any("err", err))
	}

	url, err := c.next.RetrieveByShortCode(ctx, shortCode)
	if err != nil {
		if errors.Is(err, entity.ErrURLNotFound) {
			c.set(ctx, key(shortCode), notFoundMarker, c.notFoundTTL)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	c.store(ctx, url)

	return url, nil
}

func (c *URLCache) store(ctx context.Context, url *entity.URL) {
	data, err := json.Marshal(cachedURL{
		ShortCode:   url.ShortCode,
		OriginalURL: url.OriginalURL,
		CreatedAt:   url.CreatedAt,
	})
	if err != nil {
		c.logger.Warn("failed to encode cache entry", slog.Any("err", err))
		return
	}

	c.set(ctx, key(url.ShortCode), string(data), c.ttl)
}

func (c *URLCache) set(ctx context.Context, key, value string, ttl time.Duration) {
	if err := c.client.Set(context.WithoutCancel(ctx), key, value, ttl).Err(); err != nil {
		c.logger.Warn("cache write failed", slog.String("key", key), slog.Any("err", err))
	}
}

// markNotFound only writes the marker when the key is absent, so a record
// cached by a Save that committed after the miss is kept.
func (c *URLCache) markNotFound(ctx context.Context, shortCode string) {
	if err := c.client.SetNX(context.WithoutCancel(ctx), key(shortCode), notFoundMarker, c.notFoundTTL).Err(); err != nil {
		c.logger.Warn("cache write failed", slog.String("key", key(shortCode)), slog.Any("err", err))
	}
}
