package market

import (
	"context"
	"fmt"

	"github.com/tradeforge-io/signal-engine-go/internal/logging"
	"github.com/tradeforge-io/signal-engine-go/internal/models"
	"github.com/tradeforge-io/signal-engine-go/internal/observability"
)

const ohlcvQuery = `
	SELECT ts, open, high, low, close, volume
	FROM ohlcv
	WHERE symbol = $1 AND timeframe = $2
	ORDER BY ts DESC
	LIMIT $3`

// PostgresGateway reads candle windows from the ohlcv table.
type PostgresGateway struct {
	pool   DBPool
	logger logging.Logger
}

// NewPostgresGateway creates a gateway backed by the given pool.
func NewPostgresGateway(pool DBPool, logger logging.Logger) *PostgresGateway {
	return &PostgresGateway{
		pool:   pool,
		logger: logger.WithComponent("market_gateway"),
	}
}

// GetWindow fetches the most recent candles in descending order and
// reverses them so callers always see a chronological series.
func (g *PostgresGateway) GetWindow(ctx context.Context, symbol string, timeframe models.Timeframe, limit int) (models.Window, error) {
	if limit <= 0 {
		return models.Window{}, nil
	}

	spanCtx, span := observability.TraceDBQuery(ctx, "SELECT", "ohlcv")
	rows, err := g.pool.Query(spanCtx, ohlcvQuery, symbol, string(timeframe), limit)
	if err != nil {
		observability.FinishSpan(span, err)
		return nil, fmt.Errorf("failed to query ohlcv for %s %s: %w", symbol, timeframe, err)
	}
	defer rows.Close()

	var window models.Window
	for rows.Next() {
		var c models.Candle
		if err := rows.Scan(&c.Timestamp, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			observability.FinishSpan(span, err)
			return nil, fmt.Errorf("failed to scan ohlcv row: %w", err)
		}
		window = append(window, c)
	}
	if err := rows.Err(); err != nil {
		observability.FinishSpan(span, err)
		return nil, fmt.Errorf("failed to read ohlcv rows: %w", err)
	}
	observability.FinishSpan(span, nil)

	// Reverse into chronological order, oldest first.
	for i, j := 0, len(window)-1; i < j; i, j = i+1, j-1 {
		window[i], window[j] = window[j], window[i]
	}

	if len(window) == 0 {
		g.logger.WithSymbol(symbol).WithTimeframe(string(timeframe)).Debug("no candles available")
	}
	return window, nil
}
