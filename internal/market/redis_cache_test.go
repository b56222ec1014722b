package market

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeforge-io/signal-engine-go/internal/models"
)

type fakeGateway struct {
	mu     sync.Mutex
	window models.Window
	err    error
	calls  int
}

func (g *fakeGateway) GetWindow(ctx context.Context, symbol string, timeframe models.Timeframe, limit int) (models.Window, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	return g.window, g.err
}

func (g *fakeGateway) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func testWindow(n int) models.Window {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	window := make(models.Window, 0, n)
	for i := 0; i < n; i++ {
		price := decimal.NewFromFloat(100 + float64(i))
		window = append(window, models.Candle{
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			Open:      price,
			High:      price.Add(decimal.NewFromInt(1)),
			Low:       price.Sub(decimal.NewFromInt(1)),
			Close:     price,
			Volume:    decimal.NewFromInt(10),
		})
	}
	return window
}

func newCacheFixture(t *testing.T, inner Gateway) (*CachedGateway, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewCachedGateway(inner, client, time.Minute, testLogger()), mr
}

func TestCachedGatewayMissLoadsAndCaches(t *testing.T) {
	inner := &fakeGateway{window: testWindow(3)}
	cached, mr := newCacheFixture(t, inner)

	window, err := cached.GetWindow(context.Background(), "BTC/USDT", models.Timeframe1h, 3)
	require.NoError(t, err)
	require.Len(t, window, 3)
	assert.Equal(t, 1, inner.callCount())
	assert.True(t, mr.Exists("ohlcv:BTC/USDT:1h:3"))
}

func TestCachedGatewayHitSkipsInner(t *testing.T) {
	inner := &fakeGateway{window: testWindow(3)}
	cached, _ := newCacheFixture(t, inner)

	_, err := cached.GetWindow(context.Background(), "BTC/USDT", models.Timeframe1h, 3)
	require.NoError(t, err)
	window, err := cached.GetWindow(context.Background(), "BTC/USDT", models.Timeframe1h, 3)
	require.NoError(t, err)

	require.Len(t, window, 3)
	assert.Equal(t, 1, inner.callCount(), "second read must be served from cache")
	assert.InDelta(t, 102, window[2].Close.InexactFloat64(), 1e-9)
}

func TestCachedGatewayCorruptEntryFallsThrough(t *testing.T) {
	inner := &fakeGateway{window: testWindow(2)}
	cached, mr := newCacheFixture(t, inner)

	require.NoError(t, mr.Set("ohlcv:BTC/USDT:1h:2", "not json"))

	window, err := cached.GetWindow(context.Background(), "BTC/USDT", models.Timeframe1h, 2)
	require.NoError(t, err)
	assert.Len(t, window, 2)
	assert.Equal(t, 1, inner.callCount())
}

func TestCachedGatewayEmptyWindowNotCached(t *testing.T) {
	inner := &fakeGateway{}
	cached, mr := newCacheFixture(t, inner)

	window, err := cached.GetWindow(context.Background(), "BTC/USDT", models.Timeframe1h, 5)
	require.NoError(t, err)
	assert.Empty(t, window)
	assert.False(t, mr.Exists("ohlcv:BTC/USDT:1h:5"))
}

func TestCachedGatewayRedisDownFallsThrough(t *testing.T) {
	inner := &fakeGateway{window: testWindow(2)}
	cached, mr := newCacheFixture(t, inner)
	mr.Close()

	window, err := cached.GetWindow(context.Background(), "BTC/USDT", models.Timeframe1h, 2)
	require.NoError(t, err)
	assert.Len(t, window, 2)
}

func TestCachedGatewayHealthCheck(t *testing.T) {
	inner := &fakeGateway{}
	cached, mr := newCacheFixture(t, inner)

	assert.NoError(t, cached.HealthCheck(context.Background()))
	mr.Close()
	assert.Error(t, cached.HealthCheck(context.Background()))
}
