package engine

import (
	"context"
	"time"

	"github.com/tradeforge-io/signal-engine-go/internal/cache"
	"github.com/tradeforge-io/signal-engine-go/internal/logging"
	"github.com/tradeforge-io/signal-engine-go/internal/market"
	"github.com/tradeforge-io/signal-engine-go/internal/models"
	"github.com/tradeforge-io/signal-engine-go/internal/observability"
	"github.com/tradeforge-io/signal-engine-go/internal/ta"
)

// RegimeHook is an optional external classifier consulted before the
// built-in regime detection. Errors fall through to the built-in path.
type RegimeHook interface {
	DetectMarketRegime(ctx context.Context, symbol string) (string, error)
}

// MarketContext is the cached per-symbol environment assessment.
type MarketContext struct {
	Regime          models.MarketRegime
	VolatilityLevel models.VolatilityLevel
	Momentum        models.MomentumDirection
	Session         models.TradingSession
	HoursFactor     float64
	TrendStrength   float64

	// Level geometry for the timing optimizer. HasLevels is false when the
	// window was too short to derive anything.
	Price      float64
	Levels     []float64
	LevelWidth float64
	ATRRatio   float64
	HasATR     bool
	HasLevels  bool
}

const (
	contextTTL        = 300 * time.Second
	contextWindowSize = 200
)

// ContextDetector derives market context from the primary-timeframe
// window, with a per-symbol TTL cache. It never fails: any missing input
// degrades the affected attribute to its neutral value.
type ContextDetector struct {
	gateway market.Gateway
	hook    RegimeHook
	primary models.Timeframe
	cache   *cache.TTLCache[*MarketContext]
	logger  logging.Logger
	now     func() time.Time
}

func newContextDetector(gateway market.Gateway, hook RegimeHook, primary models.Timeframe, logger logging.Logger) *ContextDetector {
	return &ContextDetector{
		gateway: gateway,
		hook:    hook,
		primary: primary,
		cache:   cache.NewTTLCache[*MarketContext](contextTTL),
		logger:  logger.WithComponent("market_context"),
		now:     time.Now,
	}
}

// Context returns the cached or freshly detected context for symbol.
func (d *ContextDetector) Context(ctx context.Context, symbol string) *MarketContext {
	mc, _ := d.cache.GetOrCompute(symbol, func() (*MarketContext, error) {
		return d.detect(ctx, symbol), nil
	})
	return mc
}

func (d *ContextDetector) detect(ctx context.Context, symbol string) *MarketContext {
	spanCtx, span := observability.StartSpan(ctx, observability.SpanOpMarketContext, symbol)
	defer observability.FinishSpan(span, nil)

	session, factor := models.SessionForTime(d.now())
	mc := &MarketContext{
		Regime:          models.RegimeUnknown,
		VolatilityLevel: models.VolatilityMedium,
		Momentum:        models.MomentumNeutral,
		Session:         session,
		HoursFactor:     factor,
	}

	window, err := d.gateway.GetWindow(spanCtx, symbol, d.primary, contextWindowSize)
	if err != nil {
		d.logger.WithSymbol(symbol).WithError(err).Warn("context window fetch failed, using neutral context")
		return mc
	}
	if len(window) < 20 {
		return mc
	}

	closes := window.Closes()
	highs := window.Highs()
	lows := window.Lows()
	mc.Price = closes[len(closes)-1]

	if ratio, ok := atrRatio(window); ok {
		mc.ATRRatio = ratio
		mc.HasATR = true
		mc.VolatilityLevel = classifyVolatility(ratio)
	}

	mc.Regime, mc.TrendStrength = d.detectRegime(spanCtx, symbol, window)
	mc.Momentum = detectMomentum(closes)

	if len(window) >= 50 {
		mc.Levels = keyLevels(window, mc.Price)
		mc.LevelWidth = levelWidth(window, mc.Price)
		mc.HasLevels = true
	}

	return mc
}

// detectRegime tries the external hook first, then ADX, then Bollinger
// band width, and reports UNKNOWN when none of them has enough data.
func (d *ContextDetector) detectRegime(ctx context.Context, symbol string, window models.Window) (models.MarketRegime, float64) {
	if d.hook != nil {
		if raw, err := d.hook.DetectMarketRegime(ctx, symbol); err == nil {
			if regime, ok := normalizeRegime(raw); ok {
				return regime, 0.5
			}
		} else {
			d.logger.WithSymbol(symbol).WithError(err).Debug("regime hook failed, using built-in detection")
		}
	}

	closes := window.Closes()

	if len(window) >= 60 {
		adxSeries := ta.ADX(window.Highs(), window.Lows(), closes, 14)
		if adx, ok := ta.Last(adxSeries); ok {
			strength := models.ClampScore(adx / 50)
			if adx > 25 {
				return models.RegimeTrending, strength
			}
			if adx < 15 {
				return models.RegimeRanging, strength
			}
			return regimeFromBandWidth(closes), strength
		}
	}

	if len(closes) >= 20 {
		return regimeFromBandWidth(closes), 0
	}
	return models.RegimeUnknown, 0
}

// regimeFromBandWidth classifies by relative Bollinger band width: wide
// bands read as VOLATILE, pinched bands as CONSOLIDATING.
func regimeFromBandWidth(closes []float64) models.MarketRegime {
	middleSeries, upperSeries, lowerSeries := ta.BollingerBands(closes, 20, 2)
	middle, okM := ta.Last(middleSeries)
	upper, okU := ta.Last(upperSeries)
	lower, okL := ta.Last(lowerSeries)
	if !okM || !okU || !okL || middle <= 0 {
		return models.RegimeUnknown
	}
	return classifyBandWidth((upper - lower) / middle)
}

func classifyBandWidth(width float64) models.MarketRegime {
	switch {
	case width > 0.10:
		return models.RegimeVolatile
	case width < 0.03:
		return models.RegimeConsolidating
	default:
		return models.RegimeRanging
	}
}

// detectMomentum combines the MACD cross with RSI's side of 50.
func detectMomentum(closes []float64) models.MomentumDirection {
	macdSeries, signalSeries := ta.MACD(closes)
	macdLine, okMACD := ta.Last(macdSeries)
	signalLine, okSignal := ta.Last(signalSeries)
	rsi, okRSI := ta.Last(ta.RSI(closes, 14))
	if !okMACD || !okSignal || !okRSI {
		return models.MomentumNeutral
	}

	if macdLine > signalLine && rsi > 50 {
		return models.MomentumBullish
	}
	if macdLine < signalLine && rsi < 50 {
		return models.MomentumBearish
	}
	return models.MomentumNeutral
}

func normalizeRegime(raw string) (models.MarketRegime, bool) {
	switch models.MarketRegime(raw) {
	case models.RegimeTrending, models.RegimeRanging, models.RegimeVolatile, models.RegimeConsolidating:
		return models.MarketRegime(raw), true
	default:
		return models.RegimeUnknown, false
	}
}
