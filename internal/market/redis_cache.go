package market

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tradeforge-io/signal-engine-go/internal/logging"
	"github.com/tradeforge-io/signal-engine-go/internal/models"
)

// CachedGateway is a read-through Redis layer in front of another gateway.
// Any cache failure falls through to the inner gateway; a stale window
// within the TTL is acceptable.
type CachedGateway struct {
	inner  Gateway
	client *redis.Client
	ttl    time.Duration
	logger logging.Logger
}

// NewCachedGateway wraps inner with a Redis read-through cache.
func NewCachedGateway(inner Gateway, client *redis.Client, ttl time.Duration, logger logging.Logger) *CachedGateway {
	return &CachedGateway{
		inner:  inner,
		client: client,
		ttl:    ttl,
		logger: logger.WithComponent("market_cache"),
	}
}

func windowKey(symbol string, timeframe models.Timeframe, limit int) string {
	return fmt.Sprintf("ohlcv:%s:%s:%d", symbol, timeframe, limit)
}

// GetWindow serves from Redis when possible, otherwise loads through the
// inner gateway and caches the result.
func (c *CachedGateway) GetWindow(ctx context.Context, symbol string, timeframe models.Timeframe, limit int) (models.Window, error) {
	key := windowKey(symbol, timeframe, limit)

	start := time.Now()
	payload, err := c.client.Get(ctx, key).Result()
	if err == nil {
		var window models.Window
		if jsonErr := json.Unmarshal([]byte(payload), &window); jsonErr == nil {
			c.logger.LogCacheOperation("get", key, true, time.Since(start).Milliseconds())
			return window, nil
		}
		// Corrupt entry, drop it and reload.
		c.client.Del(ctx, key)
	} else if err != redis.Nil {
		c.logger.WithError(err).Debug("redis get failed, falling through")
	}

	window, err := c.inner.GetWindow(ctx, symbol, timeframe, limit)
	if err != nil {
		return nil, err
	}

	if len(window) > 0 {
		if payload, jsonErr := json.Marshal(window); jsonErr == nil {
			if setErr := c.client.Set(ctx, key, payload, c.ttl).Err(); setErr != nil {
				c.logger.WithError(setErr).Debug("redis set failed")
			}
		}
	}
	c.logger.LogCacheOperation("get", key, false, time.Since(start).Milliseconds())
	return window, nil
}

// HealthCheck pings Redis.
func (c *CachedGateway) HealthCheck(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
