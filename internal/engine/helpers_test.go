package engine

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tradeforge-io/signal-engine-go/internal/config"
	"github.com/tradeforge-io/signal-engine-go/internal/logging"
	"github.com/tradeforge-io/signal-engine-go/internal/models"
)

func testLogger() logging.Logger {
	return logging.NewStandardLogger("error", "production")
}

func defaultEngineConfig() config.EngineConfig {
	return config.EngineConfig{
		PrimaryTimeframe:           "1h",
		MinQualityScore:            0.70,
		MultiTimeframeWeight:       0.20,
		VolumeConfirmationRequired: true,
		TrendAlignmentRequired:     true,
		EvaluationTimeout:          10 * time.Second,
		Thresholds: map[string]config.ThresholdConfig{
			"low":     {MinScore: 0.65, MinConfidence: 0.60},
			"medium":  {MinScore: 0.75, MinConfidence: 0.70},
			"high":    {MinScore: 0.85, MinConfidence: 0.80},
			"extreme": {MinScore: 0.95, MinConfidence: 0.90},
		},
	}
}

// makeWindow builds n candles with linearly stepped closes and constant
// volume. Each candle has a small symmetric high/low range around its body.
func makeWindow(n int, startPrice, step, volume float64) models.Window {
	w := make(models.Window, 0, n)
	ts := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	price := startPrice
	for i := 0; i < n; i++ {
		open := price
		closePx := price + step
		high := maxf(open, closePx) + 0.5
		low := minf(open, closePx) - 0.5
		w = append(w, models.Candle{
			Timestamp: ts.Add(time.Duration(i) * time.Hour),
			Open:      decimal.NewFromFloat(open),
			High:      decimal.NewFromFloat(high),
			Low:       decimal.NewFromFloat(low),
			Close:     decimal.NewFromFloat(closePx),
			Volume:    decimal.NewFromFloat(volume),
		})
		price = closePx
	}
	return w
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// stubSource returns a fixed prediction per timeframe and counts calls.
type stubSource struct {
	mu    sync.Mutex
	preds map[models.Timeframe]*models.Prediction
	err   error
	calls int
}

func (s *stubSource) Predict(ctx context.Context, symbol string, timeframe models.Timeframe) (*models.Prediction, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.preds[timeframe], nil
}

func (s *stubSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// stubGateway serves a fixed window per timeframe.
type stubGateway struct {
	windows map[models.Timeframe]models.Window
	err     error
}

func (g *stubGateway) GetWindow(ctx context.Context, symbol string, timeframe models.Timeframe, limit int) (models.Window, error) {
	if g.err != nil {
		return nil, g.err
	}
	w := g.windows[timeframe]
	if len(w) > limit {
		w = w[len(w)-limit:]
	}
	return w, nil
}

type stubCalibrator struct {
	value float64
	err   error
}

func (c *stubCalibrator) Calibrate(ctx context.Context, symbol string, timeframe models.Timeframe, confidence float64) (float64, error) {
	return c.value, c.err
}
