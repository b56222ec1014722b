package market

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeforge-io/signal-engine-go/internal/logging"
	"github.com/tradeforge-io/signal-engine-go/internal/models"
)

func testLogger() logging.Logger {
	return logging.NewStandardLogger("error", "production")
}

func TestPostgresGatewayGetWindow(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	// Rows arrive newest first, the gateway must reverse them.
	rows := pgxmock.NewRows([]string{"ts", "open", "high", "low", "close", "volume"}).
		AddRow(base.Add(2*time.Hour), decimal.NewFromFloat(102), decimal.NewFromFloat(103), decimal.NewFromFloat(101), decimal.NewFromFloat(102.5), decimal.NewFromFloat(30)).
		AddRow(base.Add(time.Hour), decimal.NewFromFloat(101), decimal.NewFromFloat(102), decimal.NewFromFloat(100), decimal.NewFromFloat(101.5), decimal.NewFromFloat(20)).
		AddRow(base, decimal.NewFromFloat(100), decimal.NewFromFloat(101), decimal.NewFromFloat(99), decimal.NewFromFloat(100.5), decimal.NewFromFloat(10))
	mockPool.ExpectQuery("SELECT ts, open, high, low, close, volume").
		WithArgs("BTC/USDT", "1h", 3).
		WillReturnRows(rows)

	gateway := NewPostgresGateway(mockPool, testLogger())
	window, err := gateway.GetWindow(context.Background(), "BTC/USDT", models.Timeframe1h, 3)

	require.NoError(t, err)
	require.Len(t, window, 3)
	assert.Equal(t, base, window[0].Timestamp)
	assert.Equal(t, base.Add(2*time.Hour), window[2].Timestamp)
	assert.InDelta(t, 100.5, window[0].Close.InexactFloat64(), 1e-9)
	assert.InDelta(t, 102.5, window[2].Close.InexactFloat64(), 1e-9)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPostgresGatewayEmptyResult(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	mockPool.ExpectQuery("SELECT ts, open, high, low, close, volume").
		WithArgs("DOGE/USDT", "1h", 50).
		WillReturnRows(pgxmock.NewRows([]string{"ts", "open", "high", "low", "close", "volume"}))

	gateway := NewPostgresGateway(mockPool, testLogger())
	window, err := gateway.GetWindow(context.Background(), "DOGE/USDT", models.Timeframe1h, 50)

	require.NoError(t, err)
	assert.Empty(t, window)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPostgresGatewayQueryError(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	mockPool.ExpectQuery("SELECT ts, open, high, low, close, volume").
		WithArgs("BTC/USDT", "1h", 10).
		WillReturnError(errors.New("connection refused"))

	gateway := NewPostgresGateway(mockPool, testLogger())
	_, err = gateway.GetWindow(context.Background(), "BTC/USDT", models.Timeframe1h, 10)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to query ohlcv")
}

func TestPostgresGatewayNonPositiveLimit(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	gateway := NewPostgresGateway(mockPool, testLogger())
	window, err := gateway.GetWindow(context.Background(), "BTC/USDT", models.Timeframe1h, 0)

	require.NoError(t, err)
	assert.Empty(t, window)
}
