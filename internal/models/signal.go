package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Signal is a directional trading action.
type Signal string

const (
	SignalBuy  Signal = "BUY"
	SignalSell Signal = "SELL"
	SignalHold Signal = "HOLD"
)

// NormalizeSignal maps upstream action vocabulary onto the canonical
// BUY/SELL/HOLD set. LONG and SHORT are accepted as aliases; anything
// unrecognized degrades to HOLD.
func NormalizeSignal(action string) Signal {
	switch strings.ToUpper(strings.TrimSpace(action)) {
	case "BUY", "LONG":
		return SignalBuy
	case "SELL", "SHORT":
		return SignalSell
	default:
		return SignalHold
	}
}

// MarketRegime classifies the prevailing market structure.
type MarketRegime string

const (
	RegimeTrending      MarketRegime = "TRENDING"
	RegimeRanging       MarketRegime = "RANGING"
	RegimeVolatile      MarketRegime = "VOLATILE"
	RegimeConsolidating MarketRegime = "CONSOLIDATING"
	RegimeUnknown       MarketRegime = "UNKNOWN"
)

// VolatilityLevel buckets current volatility relative to its recent average.
type VolatilityLevel string

const (
	VolatilityLow     VolatilityLevel = "LOW"
	VolatilityMedium  VolatilityLevel = "MEDIUM"
	VolatilityHigh    VolatilityLevel = "HIGH"
	VolatilityExtreme VolatilityLevel = "EXTREME"
)

// MomentumDirection is the MACD/RSI-derived short-term bias.
type MomentumDirection string

const (
	MomentumBullish MomentumDirection = "BULLISH"
	MomentumBearish MomentumDirection = "BEARISH"
	MomentumNeutral MomentumDirection = "NEUTRAL"
)

// TradingSession names the active liquidity session in UTC.
type TradingSession string

const (
	SessionAsian    TradingSession = "ASIAN"
	SessionEuropean TradingSession = "EUROPEAN"
	SessionUS       TradingSession = "US"
	SessionOverlap  TradingSession = "OVERLAP"
	SessionUnknown  TradingSession = "UNKNOWN"
)

// Prediction is a raw directional call from an upstream model.
type Prediction struct {
	Action         Signal  `json:"action"`
	Confidence     float64 `json:"confidence"`
	ExpectedReturn float64 `json:"expected_return"`
}

// SignalQuality is the fully evaluated form of a prediction: the original
// call plus every score, flag and context attribute the decision gate
// consumes. Score fields live in [0,1]; Strength carries the signed
// expected return and is not clamped.
type SignalQuality struct {
	ID        string    `json:"id"`
	Symbol    string    `json:"symbol"`
	Timeframe Timeframe `json:"timeframe"`
	Signal    Signal    `json:"signal"`

	Confidence   float64 `json:"confidence"`
	QualityScore float64 `json:"quality_score"`
	Strength     float64 `json:"strength"`
	Consistency  float64 `json:"consistency"`
	TimingScore  float64 `json:"timing_score"`
	RiskScore    float64 `json:"risk_score"`

	TimeframeAlignment  map[Timeframe]Signal  `json:"timeframe_alignment"`
	TimeframeConfidence map[Timeframe]float64 `json:"timeframe_confidence"`

	MarketRegime      MarketRegime      `json:"market_regime"`
	VolatilityLevel   VolatilityLevel   `json:"volatility_level"`
	MomentumDirection MomentumDirection `json:"momentum_direction"`
	SessionTiming     TradingSession    `json:"session_timing"`
	MarketHoursFactor float64           `json:"market_hours_factor"`

	VolumeConfirmation       bool `json:"volume_confirmation"`
	TrendAligned             bool `json:"trend_aligned"`
	PriceActionAlignment     bool `json:"price_action_alignment"`
	IndicatorConvergence     bool `json:"indicator_convergence"`
	SupportResistanceRespect bool `json:"support_resistance_respect"`

	FilteringApplied []string `json:"filtering_applied"`
	RejectionReasons []string `json:"rejection_reasons"`

	CreatedAt time.Time `json:"created_at"`
}

// NewNullSignal returns the error-safe terminal evaluation: HOLD with every
// score at zero and at least one rejection reason. Public entry points
// return this instead of an error alongside a missing value.
func NewNullSignal(symbol string, timeframe Timeframe, reasons ...string) *SignalQuality {
	if len(reasons) == 0 {
		reasons = []string{"no evaluation available"}
	}
	return &SignalQuality{
		ID:                  uuid.New().String(),
		Symbol:              symbol,
		Timeframe:           timeframe,
		Signal:              SignalHold,
		TimeframeAlignment:  map[Timeframe]Signal{},
		TimeframeConfidence: map[Timeframe]float64{},
		MarketRegime:        RegimeUnknown,
		VolatilityLevel:     VolatilityMedium,
		MomentumDirection:   MomentumNeutral,
		SessionTiming:       sessionForTime(time.Now().UTC()),
		MarketHoursFactor:   0,
		FilteringApplied:    []string{},
		RejectionReasons:    reasons,
		CreatedAt:           time.Now().UTC(),
	}
}

// IsNull reports whether the evaluation is the null terminal state.
func (q *SignalQuality) IsNull() bool {
	return q.QualityScore == 0 && q.Confidence == 0 && len(q.RejectionReasons) > 0
}

// ClampScore bounds a score to [0,1].
func ClampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// SessionForTime returns the active UTC trading session and its liquidity
// factor. The US/European overlap window takes precedence.
func SessionForTime(t time.Time) (TradingSession, float64) {
	h := t.UTC().Hour()
	switch {
	case h >= 13 && h < 15:
		return SessionOverlap, 1.1
	case h >= 13 && h < 21:
		return SessionUS, 1.0
	case h >= 7 && h < 15:
		return SessionEuropean, 0.9
	default:
		return SessionAsian, 0.7
	}
}

func sessionForTime(t time.Time) TradingSession {
	s, _ := SessionForTime(t)
	return s
}
