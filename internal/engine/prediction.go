package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/tradeforge-io/signal-engine-go/internal/cache"
	"github.com/tradeforge-io/signal-engine-go/internal/logging"
	"github.com/tradeforge-io/signal-engine-go/internal/models"
)

// PredictionSource supplies raw directional calls from an upstream model.
// A nil prediction with a nil error means no call is available for the
// symbol and timeframe.
type PredictionSource interface {
	Predict(ctx context.Context, symbol string, timeframe models.Timeframe) (*models.Prediction, error)
}

// ConfidenceCalibrator optionally adjusts a raw confidence value, for
// example from historical hit rates.
type ConfidenceCalibrator interface {
	Calibrate(ctx context.Context, symbol string, timeframe models.Timeframe, confidence float64) (float64, error)
}

const predictionTTL = 60 * time.Second

// predictionClient normalizes, calibrates and caches upstream predictions.
// Action vocabulary is mapped onto BUY/SELL/HOLD here, at the single
// ingestion boundary.
type predictionClient struct {
	source     PredictionSource
	calibrator ConfidenceCalibrator
	cache      *cache.TTLCache[*models.Prediction]
	logger     logging.Logger
}

func newPredictionClient(source PredictionSource, calibrator ConfidenceCalibrator, logger logging.Logger) *predictionClient {
	return &predictionClient{
		source:     source,
		calibrator: calibrator,
		cache:      cache.NewTTLCache[*models.Prediction](predictionTTL),
		logger:     logger.WithComponent("prediction_client"),
	}
}

func predictionKey(symbol string, timeframe models.Timeframe) string {
	return fmt.Sprintf("%s:%s", symbol, timeframe)
}

// predict returns the cached or freshly fetched prediction. The returned
// prediction is nil when the source has no call; confidence is already
// blended with the calibrator when one is configured.
func (c *predictionClient) predict(ctx context.Context, symbol string, timeframe models.Timeframe) (*models.Prediction, error) {
	key := predictionKey(symbol, timeframe)
	if cached, ok := c.cache.Get(key); ok {
		return cached, nil
	}

	raw, err := c.source.Predict(ctx, symbol, timeframe)
	if err != nil {
		return nil, fmt.Errorf("prediction fetch for %s %s failed: %w", symbol, timeframe, err)
	}
	if raw == nil {
		return nil, nil
	}

	pred := &models.Prediction{
		Action:         models.NormalizeSignal(string(raw.Action)),
		Confidence:     models.ClampScore(raw.Confidence),
		ExpectedReturn: raw.ExpectedReturn,
	}

	if c.calibrator != nil {
		calibrated, calErr := c.calibrator.Calibrate(ctx, symbol, timeframe, pred.Confidence)
		if calErr != nil {
			c.logger.WithSymbol(symbol).WithError(calErr).Debug("confidence calibration failed, using raw value")
		} else {
			pred.Confidence = models.ClampScore(0.6*pred.Confidence + 0.4*calibrated)
		}
	}

	c.cache.Set(key, pred)
	return pred, nil
}
