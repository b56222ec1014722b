package engine

import (
	"math"

	"github.com/tradeforge-io/signal-engine-go/internal/models"
)

// Timing sub-score weights. Every sub-score defaults to 0.5 when its
// inputs are missing, so an information-free evaluation lands at 0.5.
var timingWeights = struct {
	levels, session, volatility, momentum, confluence float64
}{
	levels:     0.25,
	session:    0.15,
	volatility: 0.20,
	momentum:   0.25,
	confluence: 0.15,
}

// computeTimingScore combines level clearance, session liquidity,
// volatility normality, momentum agreement and the pass-flag confluence
// blend. The blend feeds only the timing score; the quality score takes
// its confluence from the battery risk score instead.
func computeTimingScore(signal models.Signal, mc *MarketContext, battery *BatteryResult) float64 {
	levels := levelClearanceScore(signal, mc)
	session := sessionScore(mc.HoursFactor)
	volatility := volatilityProximityScore(mc)
	momentum := momentumAgreementScore(signal, mc.Momentum)
	confluence := confluenceScore(battery)

	timing := timingWeights.levels*levels +
		timingWeights.session*session +
		timingWeights.volatility*volatility +
		timingWeights.momentum*momentum +
		timingWeights.confluence*confluence
	return models.ClampScore(timing)
}

// levelClearanceScore measures distance to the nearest opposing level,
// normalized by twice the level width. HOLD and missing level data are
// neutral; no opposing level at all is the best case.
func levelClearanceScore(signal models.Signal, mc *MarketContext) float64 {
	if signal == models.SignalHold {
		return 0.5
	}
	if !mc.HasLevels || mc.LevelWidth <= 0 || mc.Price <= 0 {
		return 0.5
	}

	direction := +1
	if signal == models.SignalSell {
		direction = -1
	}
	dist, found := nearestLevelDistance(mc.Levels, mc.Price, direction)
	if !found {
		return 1.0
	}
	return models.ClampScore(dist / (2 * mc.LevelWidth))
}

// sessionScore maps the liquidity factor onto [0,1] with the overlap
// session at the top.
func sessionScore(hoursFactor float64) float64 {
	if hoursFactor <= 0 {
		return 0.5
	}
	clamped := math.Min(math.Max(hoursFactor, 0.5), 1.1)
	return clamped / 1.1
}

// volatilityProximityScore is highest when current volatility sits near
// its recent average and decays as it departs in either direction.
func volatilityProximityScore(mc *MarketContext) float64 {
	if !mc.HasATR {
		return 0.5
	}
	return models.ClampScore(1.5 - math.Abs(mc.ATRRatio-1))
}

// momentumAgreementScore rewards momentum pointing the same way as the
// signal; HOLD agrees with neutral momentum.
func momentumAgreementScore(signal models.Signal, momentum models.MomentumDirection) float64 {
	agrees := (signal == models.SignalBuy && momentum == models.MomentumBullish) ||
		(signal == models.SignalSell && momentum == models.MomentumBearish) ||
		(signal == models.SignalHold && momentum == models.MomentumNeutral)
	if agrees {
		return 0.85
	}
	return 0.35
}

// confluenceScore blends the three pattern filters' pass flags.
func confluenceScore(battery *BatteryResult) float64 {
	if battery == nil {
		return 0.5
	}
	var score float64
	if battery.PriceActionAligned {
		score += 0.34
	}
	if battery.IndicatorsConverged {
		score += 0.33
	}
	if battery.TrendAligned {
		score += 0.33
	}
	return score
}
