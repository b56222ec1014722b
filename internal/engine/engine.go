// Package engine evaluates raw directional predictions into scored,
// auditable trading decisions: multi-timeframe aggregation, a six-filter
// quality battery, market context, timing optimization and an ordered
// decision gate.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tradeforge-io/signal-engine-go/internal/config"
	"github.com/tradeforge-io/signal-engine-go/internal/logging"
	"github.com/tradeforge-io/signal-engine-go/internal/market"
	"github.com/tradeforge-io/signal-engine-go/internal/models"
	"github.com/tradeforge-io/signal-engine-go/internal/observability"
)

const (
	primaryWindowSize  = 200
	intradayWindowSize = 20
)

// Engine wires the evaluation pipeline together. It is safe for
// concurrent use.
type Engine struct {
	cfg         config.EngineConfig
	primary     models.Timeframe
	timeout     time.Duration
	gateway     market.Gateway
	predictions *predictionClient
	contexts    *ContextDetector
	policy      *DecisionPolicy
	filters     []QualityFilter
	metrics     *Recorder
	logger      logging.Logger
}

// New builds an engine from configuration and its collaborators. The
// calibrator and regime hook may be nil.
func New(cfg config.EngineConfig, gateway market.Gateway, source PredictionSource,
	calibrator ConfidenceCalibrator, hook RegimeHook, logger logging.Logger) *Engine {

	primary := models.Timeframe(cfg.PrimaryTimeframe)
	if !primary.Valid() {
		primary = models.Timeframe1h
	}
	timeout := cfg.EvaluationTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	engineLogger := logger.WithComponent("signal_engine")
	return &Engine{
		cfg:         cfg,
		primary:     primary,
		timeout:     timeout,
		gateway:     gateway,
		predictions: newPredictionClient(source, calibrator, engineLogger),
		contexts:    newContextDetector(gateway, hook, primary, engineLogger),
		policy:      NewDecisionPolicy(cfg),
		filters:     defaultFilters(),
		metrics:     NewRecorder(),
		logger:      engineLogger,
	}
}

// PrimaryTimeframe returns the configured default evaluation timeframe.
func (e *Engine) PrimaryTimeframe() models.Timeframe {
	return e.primary
}

// ProcessSignal evaluates one symbol and timeframe into a SignalQuality.
// It never returns nil and never panics outward: missing predictions,
// cancellation and internal failures all produce the null signal.
func (e *Engine) ProcessSignal(ctx context.Context, symbol string, timeframe models.Timeframe) (quality *models.SignalQuality) {
	start := time.Now()
	if !timeframe.Valid() {
		timeframe = e.primary
	}
	log := e.logger.WithSymbol(symbol).WithTimeframe(string(timeframe))

	spanCtx, span := observability.StartSpanWithTags(ctx, observability.SpanOpSignalEvaluation, symbol,
		map[string]string{"symbol": symbol, "timeframe": string(timeframe)})
	defer observability.FinishSpan(span, nil)

	defer func() {
		if r := recover(); r != nil {
			err := observability.CapturePanic(spanCtx, "signal evaluation", r)
			log.WithError(err).Error("signal evaluation panicked")
			quality = models.NewNullSignal(symbol, timeframe, "internal error during evaluation")
		}
		e.metrics.RecordEvaluation(quality, time.Since(start))
	}()

	evalCtx, cancel := context.WithTimeout(spanCtx, e.timeout)
	defer cancel()

	pred, err := e.predictions.predict(evalCtx, symbol, timeframe)
	if err != nil {
		log.WithError(err).Warn("prediction source unavailable")
		return models.NewNullSignal(symbol, timeframe, "prediction source unavailable")
	}
	if pred == nil {
		return models.NewNullSignal(symbol, timeframe, "no prediction available")
	}

	// The ladder fetches, the context detection and the two filter windows
	// are independent; run them concurrently and join before scoring.
	var (
		wg             sync.WaitGroup
		mtf            *MultiTimeframeResult
		mc             *MarketContext
		primaryWindow  models.Window
		intradayWindow models.Window
	)
	wg.Add(4)
	go func() {
		defer wg.Done()
		mtf = e.analyzeTimeframes(evalCtx, symbol)
	}()
	go func() {
		defer wg.Done()
		mc = e.contexts.Context(evalCtx, symbol)
	}()
	go func() {
		defer wg.Done()
		w, ferr := e.gateway.GetWindow(evalCtx, symbol, timeframe, primaryWindowSize)
		if ferr != nil {
			log.WithError(ferr).Warn("primary window fetch failed, filters will use fallbacks")
			return
		}
		primaryWindow = w
	}()
	go func() {
		defer wg.Done()
		w, ferr := e.gateway.GetWindow(evalCtx, symbol, models.Timeframe15m, intradayWindowSize)
		if ferr != nil {
			log.WithError(ferr).Debug("intraday window fetch failed")
			return
		}
		intradayWindow = w
	}()
	wg.Wait()

	if ctx.Err() != nil {
		return models.NewNullSignal(symbol, timeframe, "evaluation cancelled")
	}

	battery := runFilterBattery(e.filters, FilterInput{
		Signal:   pred.Action,
		Primary:  primaryWindow,
		Intraday: intradayWindow,
	})
	timing := computeTimingScore(pred.Action, mc, battery)
	qualityScore := computeQualityScore(pred.Confidence, mtf.Consistency, timing, battery.RiskScore,
		battery.VolumeConfirmed, battery.TrendAligned, mc.VolatilityLevel)

	quality = &models.SignalQuality{
		ID:        uuid.New().String(),
		Symbol:    symbol,
		Timeframe: timeframe,
		Signal:    pred.Action,

		Confidence:   pred.Confidence,
		QualityScore: qualityScore,
		Strength:     pred.ExpectedReturn,
		Consistency:  mtf.Consistency,
		TimingScore:  timing,
		RiskScore:    battery.RiskScore,

		TimeframeAlignment:  mtf.Alignment,
		TimeframeConfidence: mtf.Confidence,

		MarketRegime:      mc.Regime,
		VolatilityLevel:   mc.VolatilityLevel,
		MomentumDirection: mc.Momentum,
		SessionTiming:     mc.Session,
		MarketHoursFactor: mc.HoursFactor,

		VolumeConfirmation:       battery.VolumeConfirmed,
		TrendAligned:             battery.TrendAligned,
		PriceActionAlignment:     battery.PriceActionAligned,
		IndicatorConvergence:     battery.IndicatorsConverged,
		SupportResistanceRespect: battery.LevelsRespected,

		FilteringApplied: battery.Applied,
		RejectionReasons: []string{},

		CreatedAt: time.Now().UTC(),
	}

	log.WithFields(map[string]interface{}{
		"signal":        quality.Signal,
		"quality_score": quality.QualityScore,
		"consistency":   quality.Consistency,
		"timing_score":  quality.TimingScore,
		"risk_score":    quality.RiskScore,
		"dominant":      mtf.Dominant,
		"divergences":   mtf.Divergences,
		"regime":        mc.Regime,
		"volatility":    mc.VolatilityLevel,
		"latency_ms":    time.Since(start).Milliseconds(),
	}).Debug("signal evaluated")

	return quality
}

// ShouldExecuteSignal runs the decision gate over an evaluated signal and
// records the verdict.
func (e *Engine) ShouldExecuteSignal(q *models.SignalQuality) (bool, string) {
	approved, reason := e.policy.Decide(q)
	e.metrics.RecordDecision(approved, reason)
	return approved, reason
}

// ProcessingSummary returns the current metrics snapshot.
func (e *Engine) ProcessingSummary() Summary {
	return e.metrics.Snapshot()
}
